package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/urjalabs/solatlas/internal/domain"
)

// Store is the local pipeline database holding cleaned climate series and
// simulated daily energy. One file, no server, safe to rebuild from inputs.
type Store struct {
	conn *sql.DB
	log  *zap.Logger
}

// New opens (and if needed creates) the database at path and initializes the
// schema.
func New(path string, log *zap.Logger) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// The sqlite driver serializes writes; a single connection avoids
	// SQLITE_BUSY on concurrent batch saves.
	conn.SetMaxOpenConns(1)

	store := &Store{conn: conn, log: log}
	if err := store.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS climate_days (
		location_id TEXT NOT NULL,
		date TEXT NOT NULL,
		ghi_whm2 REAL NOT NULL,
		t2m_c REAL NOT NULL,
		ws10_ms REAL NOT NULL,
		rh2m_pct REAL NOT NULL,
		filled INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (location_id, date)
	);
	CREATE INDEX IF NOT EXISTS idx_climate_location ON climate_days(location_id);

	CREATE TABLE IF NOT EXISTS energy_days (
		location_id TEXT NOT NULL,
		date TEXT NOT NULL,
		energy_kwh REAL NOT NULL,
		valid INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (location_id, date)
	);
	CREATE INDEX IF NOT EXISTS idx_energy_location ON energy_days(location_id);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// SaveRecords upserts a batch of climate records in one transaction.
func (s *Store) SaveRecords(ctx context.Context, records []domain.ClimateRecord) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO climate_days (location_id, date, ghi_whm2, t2m_c, ws10_ms, rh2m_pct, filled)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(location_id, date) DO UPDATE SET
		ghi_whm2 = excluded.ghi_whm2,
		t2m_c = excluded.t2m_c,
		ws10_ms = excluded.ws10_ms,
		rh2m_pct = excluded.rh2m_pct,
		filled = excluded.filled
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		filled := 0
		if rec.Filled {
			filled = 1
		}
		_, err := stmt.ExecContext(ctx,
			rec.LocationID,
			rec.Date.Format("2006-01-02"),
			rec.GHIWhm2,
			rec.T2MC,
			rec.WS10MS,
			rec.RH2MPct,
			filled,
		)
		if err != nil {
			return fmt.Errorf("upserting climate day %s/%s: %w", rec.LocationID, rec.Date.Format("2006-01-02"), err)
		}
	}
	return tx.Commit()
}

// RecordsByLocation returns the location's series ordered by date ascending.
func (s *Store) RecordsByLocation(ctx context.Context, locationID string) ([]domain.ClimateRecord, error) {
	rows, err := s.conn.QueryContext(ctx, `
	SELECT location_id, date, ghi_whm2, t2m_c, ws10_ms, rh2m_pct, filled
	FROM climate_days
	WHERE location_id = ?
	ORDER BY date ASC
	`, locationID)
	if err != nil {
		return nil, fmt.Errorf("querying climate days: %w", err)
	}
	defer rows.Close()

	var results []domain.ClimateRecord
	for rows.Next() {
		var rec domain.ClimateRecord
		var dateStr string
		var filled int
		if err := rows.Scan(&rec.LocationID, &dateStr, &rec.GHIWhm2, &rec.T2MC, &rec.WS10MS, &rec.RH2MPct, &filled); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		rec.Date, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, fmt.Errorf("parsing date: %w", err)
		}
		rec.Filled = filled == 1
		results = append(results, rec)
	}
	return results, rows.Err()
}

// Locations lists the distinct location ids present, sorted.
func (s *Store) Locations(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `
	SELECT DISTINCT location_id FROM climate_days ORDER BY location_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying locations: %w", err)
	}
	defer rows.Close()

	var results []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		results = append(results, id)
	}
	return results, rows.Err()
}

// SaveDays upserts a batch of simulated energy days in one transaction.
func (s *Store) SaveDays(ctx context.Context, days []domain.EnergyDay) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO energy_days (location_id, date, energy_kwh, valid)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(location_id, date) DO UPDATE SET
		energy_kwh = excluded.energy_kwh,
		valid = excluded.valid
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, day := range days {
		valid := 0
		if day.Valid {
			valid = 1
		}
		_, err := stmt.ExecContext(ctx,
			day.LocationID,
			day.Date.Format("2006-01-02"),
			day.EnergyKWh,
			valid,
		)
		if err != nil {
			return fmt.Errorf("upserting energy day %s/%s: %w", day.LocationID, day.Date.Format("2006-01-02"), err)
		}
	}
	return tx.Commit()
}

// DaysByLocation returns the location's energy days ordered by date ascending.
func (s *Store) DaysByLocation(ctx context.Context, locationID string) ([]domain.EnergyDay, error) {
	rows, err := s.conn.QueryContext(ctx, `
	SELECT location_id, date, energy_kwh, valid
	FROM energy_days
	WHERE location_id = ?
	ORDER BY date ASC
	`, locationID)
	if err != nil {
		return nil, fmt.Errorf("querying energy days: %w", err)
	}
	defer rows.Close()

	var results []domain.EnergyDay
	for rows.Next() {
		var day domain.EnergyDay
		var dateStr string
		var valid int
		if err := rows.Scan(&day.LocationID, &dateStr, &day.EnergyKWh, &valid); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		day.Date, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, fmt.Errorf("parsing date: %w", err)
		}
		day.Valid = valid == 1
		results = append(results, day)
	}
	return results, rows.Err()
}
