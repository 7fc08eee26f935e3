// Package persistence provides SQLite-backed city storage: the snapshot
// blob, the full event history, and a sampled stats series.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/simville/internal/engine"
)

// DB wraps a SQLite connection for city state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cities (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		saved_tick INTEGER NOT NULL,
		snapshot BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tick INTEGER NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS stats_history (
		tick INTEGER PRIMARY KEY,
		population INTEGER NOT NULL,
		jobs INTEGER NOT NULL,
		funds INTEGER NOT NULL,
		approval REAL NOT NULL,
		avg_pollution REAL NOT NULL,
		avg_crime REAL NOT NULL,
		avg_land_value REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS city_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_tick ON events(tick);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// SaveCity performs a full save: the snapshot replaces the stored city,
// and the event log tail from the last save point is rewritten so late
// events on the old save tick are not lost or doubled.
func (db *DB) SaveCity(sim *engine.Simulation) error {
	snap := Capture(sim)
	raw, err := marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM cities"); err != nil {
		return err
	}
	if _, err := tx.Exec(
		"INSERT INTO cities (id, name, saved_tick, snapshot) VALUES (?, ?, ?, ?)",
		snap.CityID, snap.Name, snap.LastTick, raw,
	); err != nil {
		return fmt.Errorf("insert city: %w", err)
	}

	through := int64(-1)
	var prev string
	if err := tx.Get(&prev, "SELECT value FROM city_meta WHERE key = 'events_through'"); err == nil {
		fmt.Sscanf(prev, "%d", &through)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if _, err := tx.Exec("DELETE FROM events WHERE tick >= ?", through); err != nil {
		return err
	}
	stmt, err := tx.Preparex("INSERT INTO events (tick, description, category) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, e := range snap.Events {
		if int64(e.Tick) < through {
			continue
		}
		if _, err := stmt.Exec(e.Tick, e.Description, e.Category); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
	}
	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO city_meta (key, value) VALUES ('events_through', ?)",
		fmt.Sprintf("%d", snap.LastTick),
	); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	slog.Info("city saved", "name", snap.Name, "tick", snap.LastTick, "bytes", len(raw))
	return nil
}

// HasCity reports whether a saved city exists.
func (db *DB) HasCity() bool {
	var n int
	if err := db.conn.Get(&n, "SELECT COUNT(*) FROM cities"); err != nil {
		return false
	}
	return n > 0
}

// LoadCity reads and decodes the stored snapshot.
func (db *DB) LoadCity() (SnapshotV1, error) {
	var raw []byte
	if err := db.conn.Get(&raw, "SELECT snapshot FROM cities LIMIT 1"); err != nil {
		return SnapshotV1{}, fmt.Errorf("load city: %w", err)
	}
	return unmarshal(raw)
}

// RecordStats appends one sampled point to the stats series. Re-recording
// a tick overwrites it.
func (db *DB) RecordStats(tick uint64, st engine.SimStats, funds int64, approval float64) error {
	_, err := db.conn.Exec(`INSERT OR REPLACE INTO stats_history
		(tick, population, jobs, funds, approval, avg_pollution, avg_crime, avg_land_value)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tick, st.Population, st.Jobs, funds, approval,
		st.AvgPollution, st.AvgCrime, st.AvgLandValue,
	)
	return err
}

// StatsPoint is one sampled row of the stats series.
type StatsPoint struct {
	Tick         uint64  `db:"tick" json:"tick"`
	Population   int     `db:"population" json:"population"`
	Jobs         int     `db:"jobs" json:"jobs"`
	Funds        int64   `db:"funds" json:"funds"`
	Approval     float64 `db:"approval" json:"approval"`
	AvgPollution float64 `db:"avg_pollution" json:"avg_pollution"`
	AvgCrime     float64 `db:"avg_crime" json:"avg_crime"`
	AvgLandValue float64 `db:"avg_land_value" json:"avg_land_value"`
}

// StatsHistory returns the most recent sampled points in tick order.
func (db *DB) StatsHistory(limit int) ([]StatsPoint, error) {
	var points []StatsPoint
	err := db.conn.Select(&points, `SELECT * FROM (
		SELECT tick, population, jobs, funds, approval, avg_pollution, avg_crime, avg_land_value
		FROM stats_history ORDER BY tick DESC LIMIT ?
	) ORDER BY tick ASC`, limit)
	return points, err
}

// RecentEvents returns the most recent N events from the full history.
func (db *DB) RecentEvents(limit int) ([]engine.Event, error) {
	var events []engine.Event
	err := db.conn.Select(&events,
		"SELECT tick, description, category FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	return events, err
}

// SaveMeta stores a key-value pair in city metadata.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT OR REPLACE INTO city_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM city_meta WHERE key = ?", key)
	return value, err
}
