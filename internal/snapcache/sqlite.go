package snapcache

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/casaleverde/bookingengine/internal/booking/calendar"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore is a Store backed by a SQLite file, for deployments where the
// cache should survive restarts or be shared between processes on one host.
type SQLiteStore struct {
	db    *sql.DB
	ttl   time.Duration
	clock Clock
}

// NewSQLiteStore opens (or creates) the cache database at path, applies the
// embedded migrations, and returns the store.
func NewSQLiteStore(path string, ttl time.Duration, clock Clock) (*SQLiteStore, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if clock == nil {
		clock = realClock{}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("error opening cache database: %w", err)
	}
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("error running cache migrations: %w", err)
	}
	return &SQLiteStore{db: db, ttl: ttl, clock: clock}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Get(key Key) (*calendar.Snapshot, bool) {
	var (
		payload  []byte
		storedAt int64
	)
	err := s.db.QueryRow(
		`SELECT payload, stored_at FROM snapshots WHERE window_key = ?`,
		key.String(),
	).Scan(&payload, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		log.Error().Err(err).Str("window_key", key.String()).Msg("Cache read failed")
		return nil, false
	}

	if s.clock.Now().Sub(time.Unix(storedAt, 0)) >= s.ttl {
		if _, err := s.db.Exec(`DELETE FROM snapshots WHERE window_key = ? AND stored_at = ?`, key.String(), storedAt); err != nil {
			log.Error().Err(err).Str("window_key", key.String()).Msg("Cache eviction failed")
		}
		return nil, false
	}

	var snap calendar.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		log.Error().Err(err).Str("window_key", key.String()).Msg("Cache payload corrupt, evicting")
		s.db.Exec(`DELETE FROM snapshots WHERE window_key = ?`, key.String())
		return nil, false
	}
	return &snap, true
}

func (s *SQLiteStore) Put(key Key, snap *calendar.Snapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		log.Error().Err(err).Str("window_key", key.String()).Msg("Cache encode failed")
		return
	}
	_, err = s.db.Exec(
		`INSERT INTO snapshots (window_key, payload, stored_at) VALUES (?, ?, ?)
		 ON CONFLICT(window_key) DO UPDATE SET payload = excluded.payload, stored_at = excluded.stored_at`,
		key.String(), payload, s.clock.Now().Unix(),
	)
	if err != nil {
		log.Error().Err(err).Str("window_key", key.String()).Msg("Cache write failed")
	}
}

func (s *SQLiteStore) Sweep() int {
	cutoff := s.clock.Now().Add(-s.ttl).Unix()
	res, err := s.db.Exec(`DELETE FROM snapshots WHERE stored_at <= ?`, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Cache sweep failed")
		return 0
	}
	n, _ := res.RowsAffected()
	return int(n)
}

func runMigrations(db *sql.DB) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("error loading migrations: %w", err)
	}
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("error creating migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("error creating migrator: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error applying migrations: %w", err)
	}
	return nil
}
