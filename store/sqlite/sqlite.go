/*
Package sqlite provides SQLite-backed persistence for the lease engine.

PURPOSE:
  Stores the lease register and the risk-free rate curves. In production
  the same patterns apply to PostgreSQL - only minor SQL dialect
  differences.

KEY TABLES:
  leases:      One row per contract. The full record is a JSON payload;
               the columns the portfolio filters touch (cost centre,
               entity, asset class, profit centre, the anchor dates) are
               lifted out so bulk runs can select in SQL.
  rate_points: Dated risk-free rates by table id, feeding
               finance.RateTable.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. With PostgreSQL, database-level
  concurrency control handles this instead.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/leases.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  rates, err := store.LoadRateTable(ctx)
  gen := lease.NewScheduleGenerator(rates)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - factory/lease.go: the JSON payload format stored here
  - finance/rates.go: the in-memory rate lookup this store hydrates
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/lease-engine/factory"
	"github.com/warp/lease-engine/finance"
	"github.com/warp/lease-engine/lease"
)

// Store persists leases and rate curves in SQLite.
type Store struct {
	db      *sql.DB
	mu      sync.RWMutex
	factory *factory.LeaseFactory
}

// New creates a SQLite store at the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection: SQLite has a single writer anyway, and :memory:
	// databases exist per connection.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, factory: factory.NewLeaseFactory()}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Lease register. payload_json is authoritative; the lifted columns
	-- exist for portfolio selection only.
	CREATE TABLE IF NOT EXISTS leases (
		id INTEGER PRIMARY KEY,
		description TEXT NOT NULL DEFAULT '',
		cost_centre TEXT NOT NULL DEFAULT '',
		entity_name TEXT NOT NULL DEFAULT '',
		asset_class TEXT NOT NULL DEFAULT '',
		profit_centre TEXT NOT NULL DEFAULT '',
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		termination_date TEXT,
		date_modified TEXT,
		payload_json TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_leases_cost_centre
		ON leases(cost_centre);
	CREATE INDEX IF NOT EXISTS idx_leases_entity
		ON leases(entity_name);
	CREATE INDEX IF NOT EXISTS idx_leases_asset_class
		ON leases(asset_class);
	CREATE INDEX IF NOT EXISTS idx_leases_dates
		ON leases(start_date, end_date);

	-- Risk-free rate curves, by table id and effective date.
	CREATE TABLE IF NOT EXISTS rate_points (
		table_id INTEGER NOT NULL,
		effective_from TEXT NOT NULL,
		rate_percent TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (table_id, effective_from)
	);

	CREATE INDEX IF NOT EXISTS idx_rate_points_table
		ON rate_points(table_id, effective_from DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// LEASE REGISTER
// =============================================================================

// SaveLease inserts or replaces one lease record.
func (s *Store) SaveLease(ctx context.Context, ld lease.LeaseData) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(s.factory.ToJSON(ld))
	if err != nil {
		return fmt.Errorf("failed to encode lease %d: %w", ld.ID, err)
	}

	query := `
		INSERT INTO leases
		(id, description, cost_centre, entity_name, asset_class, profit_centre,
		 start_date, end_date, termination_date, date_modified, payload_json,
		 created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			description = excluded.description,
			cost_centre = excluded.cost_centre,
			entity_name = excluded.entity_name,
			asset_class = excluded.asset_class,
			profit_centre = excluded.profit_centre,
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			termination_date = excluded.termination_date,
			date_modified = excluded.date_modified,
			payload_json = excluded.payload_json,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = s.db.ExecContext(ctx, query,
		ld.ID, ld.Description, ld.CostCentre, ld.EntityName, ld.AssetClass, ld.ProfitCentre,
		ld.StartDate.String(), ld.EndDate.String(),
		nullString(ld.TerminationDate.String()),
		nullString(ld.DateModified.String()),
		string(payload),
		now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save lease %d: %w", ld.ID, err)
	}
	return nil
}

// GetLease retrieves one lease by id.
func (s *Store) GetLease(ctx context.Context, id int64) (lease.LeaseData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload string
	err := s.db.QueryRowContext(ctx,
		"SELECT payload_json FROM leases WHERE id = ?", id,
	).Scan(&payload)

	if err == sql.ErrNoRows {
		return lease.LeaseData{}, lease.ErrLeaseNotFound
	}
	if err != nil {
		return lease.LeaseData{}, fmt.Errorf("failed to load lease %d: %w", id, err)
	}
	return s.decodeLease(id, payload)
}

// ListLeases returns the register in id order. Filters narrow in SQL
// using the lifted columns; the engine applies the date and short-term
// rules on top.
func (s *Store) ListLeases(ctx context.Context, f lease.Filters) ([]lease.LeaseData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, payload_json FROM leases WHERE 1=1"
	var args []any
	if f.CostCentre != "" {
		query += " AND cost_centre = ?"
		args = append(args, f.CostCentre)
	}
	if f.Entity != "" {
		query += " AND entity_name = ?"
		args = append(args, f.Entity)
	}
	if f.AssetClass != "" {
		query += " AND asset_class = ?"
		args = append(args, f.AssetClass)
	}
	if f.ProfitCentre != "" {
		query += " AND profit_centre = ?"
		args = append(args, f.ProfitCentre)
	}
	query += " ORDER BY id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leases: %w", err)
	}
	defer rows.Close()

	var leases []lease.LeaseData
	for rows.Next() {
		var id int64
		var payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("failed to scan lease: %w", err)
		}
		ld, err := s.decodeLease(id, payload)
		if err != nil {
			return nil, err
		}
		leases = append(leases, ld)
	}
	return leases, rows.Err()
}

// DeleteLease removes a lease from the register.
func (s *Store) DeleteLease(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM leases WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return lease.ErrLeaseNotFound
	}
	return nil
}

func (s *Store) decodeLease(id int64, payload string) (lease.LeaseData, error) {
	ld, err := s.factory.ParseLease(payload)
	if err != nil {
		return lease.LeaseData{}, fmt.Errorf("failed to decode lease %d: %w", id, err)
	}
	return ld, nil
}

// =============================================================================
// RATE CURVES
// =============================================================================

// RatePoint is one stored rate curve entry. Percent is a whole percent
// (7.03 means 7.03%).
type RatePoint struct {
	Table         int
	EffectiveFrom finance.Date
	Percent       decimal.Decimal
}

// SaveRatePoint inserts or replaces one rate curve entry.
func (s *Store) SaveRatePoint(ctx context.Context, p RatePoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO rate_points (table_id, effective_from, rate_percent, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(table_id, effective_from) DO UPDATE SET
			rate_percent = excluded.rate_percent
	`
	_, err := s.db.ExecContext(ctx, query,
		p.Table, p.EffectiveFrom.String(), p.Percent.String(),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// SaveRatePoints stores a batch atomically.
func (s *Store) SaveRatePoints(ctx context.Context, points []RatePoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO rate_points (table_id, effective_from, rate_percent, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(table_id, effective_from) DO UPDATE SET
			rate_percent = excluded.rate_percent
	`
	now := time.Now().UTC().Format(time.RFC3339)
	for _, p := range points {
		if _, err := tx.ExecContext(ctx, query,
			p.Table, p.EffectiveFrom.String(), p.Percent.String(), now,
		); err != nil {
			return fmt.Errorf("failed to save rate point: %w", err)
		}
	}
	return tx.Commit()
}

// ListRatePoints returns every stored rate point, newest first within
// each table.
func (s *Store) ListRatePoints(ctx context.Context) ([]RatePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT table_id, effective_from, rate_percent FROM rate_points ORDER BY table_id ASC, effective_from DESC",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var points []RatePoint
	for rows.Next() {
		var p RatePoint
		var from, percent string
		if err := rows.Scan(&p.Table, &from, &percent); err != nil {
			return nil, err
		}
		if p.EffectiveFrom, err = finance.ParseDate(from); err != nil {
			return nil, fmt.Errorf("failed to decode rate point date %q: %w", from, err)
		}
		if p.Percent, err = decimal.NewFromString(percent); err != nil {
			return nil, fmt.Errorf("failed to decode rate %q: %w", percent, err)
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

// LoadRateTable hydrates a lookup table from the stored curve. An empty
// store yields an empty table; callers seed finance.DefaultRateTable
// when they want the shipped curve.
func (s *Store) LoadRateTable(ctx context.Context) (*finance.RateTable, error) {
	points, err := s.ListRatePoints(ctx)
	if err != nil {
		return nil, err
	}
	rt := finance.NewRateTable()
	for _, p := range points {
		rt.Add(p.Table, p.EffectiveFrom, p.Percent)
	}
	return rt, nil
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"leases", "rate_points"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
