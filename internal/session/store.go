package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/rjinka/family-potluck/internal/models"
)

// ErrNoSession is returned by Load when no profile is cached.
var ErrNoSession = errors.New("session: no cached profile")

// Store persists the authenticated profile across process restarts. It is
// a single-row sqlite table: saved at login, rehydrated on start, cleared
// on logout or 401.
type Store struct {
	db     *sql.DB
	logger *logrus.Logger
}

// Open opens (creating if needed) the session database at path.
func Open(path string, logger *logrus.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping session database: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// Migrate runs schema migrations from the given directory.
func (s *Store) Migrate(migrationsPath string) error {
	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", migrationsPath),
		"sqlite3",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	s.logger.Info("Session store migrations completed")
	return nil
}

// Save caches the profile, replacing any previous one.
func (s *Store) Save(ctx context.Context, user *models.FamilyMember) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO session_user (slot, profile, saved_at) VALUES (1, ?, ?)
		 ON CONFLICT(slot) DO UPDATE SET profile = excluded.profile, saved_at = excluded.saved_at`,
		string(raw), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	return nil
}

// Load returns the cached profile, or ErrNoSession when none is stored.
func (s *Store) Load(ctx context.Context) (*models.FamilyMember, error) {
	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT profile FROM session_user WHERE slot = 1`).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	var user models.FamilyMember
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, fmt.Errorf("failed to decode cached profile: %w", err)
	}
	return &user, nil
}

// Clear drops the cached profile. Clearing an empty store is a no-op.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_user`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
