// Package sqlite provides SQLite-based telemetry storage for forge.
// Uses WAL mode for concurrent reads and crash-safe writes.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/forgectl/forge/internal/domain"
)

// Store wraps a SQLite connection holding sensor history and the
// settings journal.
type Store struct {
	db *sql.DB
}

// Sample is one recorded sensor snapshot.
type Sample struct {
	Time           time.Time `json:"time"`
	CPUTempC       int       `json:"cpu_temp_c"`
	GPUTempC       int       `json:"gpu_temp_c"`
	CPUFanRPM      int       `json:"cpu_fan_rpm"`
	GPUFanRPM      int       `json:"gpu_fan_rpm"`
	BatteryPercent int       `json:"battery_percent"`
	ACOnline       bool      `json:"ac_online"`
	PowerDrawW     float64   `json:"power_draw_w"`
}

// JournalEntry records one settings change attempt.
type JournalEntry struct {
	ID      string         `json:"id"`
	Time    time.Time      `json:"time"`
	Feature domain.Feature `json:"feature"`
	Value   string         `json:"value"`
	Outcome string         `json:"outcome"`
	Error   string         `json:"error,omitempty"`
}

// Journal outcomes.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Open creates or opens the SQLite database at dir/history.db.
// Enables WAL mode and a 5-second busy timeout.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "history.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// SQLite is single-writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close cleanly shuts down the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks database connectivity.
func (s *Store) Ping() error {
	return s.db.Ping()
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sensor_samples (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp       INTEGER NOT NULL,
			cpu_temp_c      INTEGER NOT NULL,
			gpu_temp_c      INTEGER NOT NULL,
			cpu_fan_rpm     INTEGER NOT NULL,
			gpu_fan_rpm     INTEGER NOT NULL,
			battery_percent INTEGER NOT NULL,
			ac_online       BOOLEAN NOT NULL DEFAULT 0,
			power_draw_w    REAL NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_samples_ts ON sensor_samples(timestamp)`,

		`CREATE TABLE IF NOT EXISTS settings_journal (
			id        TEXT PRIMARY KEY,
			timestamp INTEGER NOT NULL,
			feature   TEXT NOT NULL,
			value     TEXT NOT NULL,
			outcome   TEXT NOT NULL,
			error     TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_journal_ts ON settings_journal(timestamp)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Sensor History ─────────────────────────────────────────────────────────

// InsertSample appends one sensor snapshot.
func (s *Store) InsertSample(sm Sample) error {
	_, err := s.db.Exec(
		`INSERT INTO sensor_samples (timestamp, cpu_temp_c, gpu_temp_c, cpu_fan_rpm, gpu_fan_rpm, battery_percent, ac_online, power_draw_w)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sm.Time.Unix(), sm.CPUTempC, sm.GPUTempC, sm.CPUFanRPM, sm.GPUFanRPM,
		sm.BatteryPercent, sm.ACOnline, sm.PowerDrawW,
	)
	return err
}

// RecentSamples returns up to limit samples, newest first.
func (s *Store) RecentSamples(limit int) ([]Sample, error) {
	rows, err := s.db.Query(
		`SELECT timestamp, cpu_temp_c, gpu_temp_c, cpu_fan_rpm, gpu_fan_rpm, battery_percent, ac_online, power_draw_w
		 FROM sensor_samples ORDER BY timestamp DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []Sample
	for rows.Next() {
		var sm Sample
		var ts int64
		if err := rows.Scan(&ts, &sm.CPUTempC, &sm.GPUTempC, &sm.CPUFanRPM,
			&sm.GPUFanRPM, &sm.BatteryPercent, &sm.ACOnline, &sm.PowerDrawW); err != nil {
			return nil, err
		}
		sm.Time = time.Unix(ts, 0)
		samples = append(samples, sm)
	}
	return samples, rows.Err()
}

// PruneSamplesBefore deletes samples older than cutoff and returns the
// number removed.
func (s *Store) PruneSamplesBefore(cutoff time.Time) (int64, error) {
	result, err := s.db.Exec(
		`DELETE FROM sensor_samples WHERE timestamp < ?`, cutoff.Unix(),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ─── Settings Journal ───────────────────────────────────────────────────────

// AppendJournal records a settings change attempt and returns its id.
func (s *Store) AppendJournal(feature domain.Feature, value, outcome, errText string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO settings_journal (id, timestamp, feature, value, outcome, error)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, time.Now().Unix(), string(feature), value, outcome, errText,
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// RecentJournal returns up to limit journal entries, newest first.
func (s *Store) RecentJournal(limit int) ([]JournalEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, timestamp, feature, value, outcome, error
		 FROM settings_journal ORDER BY timestamp DESC, id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		var ts int64
		var feature string
		if err := rows.Scan(&e.ID, &ts, &feature, &e.Value, &e.Outcome, &e.Error); err != nil {
			return nil, err
		}
		e.Time = time.Unix(ts, 0)
		e.Feature = domain.Feature(feature)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
