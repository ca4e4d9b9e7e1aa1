package paywall

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotConfigured is returned when the SDK is used before Configure.
var ErrNotConfigured = errors.New("paywall sdk not configured")

// LocalSDK is an SDK that records placements and the subscription flag in a
// SQLite state database instead of presenting UI.
type LocalSDK struct {
	db *sql.DB

	mu     sync.Mutex
	apiKey string
}

var _ SDK = (*LocalSDK)(nil)

// OpenLocalSDK opens (or creates) the state database at dir/paywall.db.
func OpenLocalSDK(dir string) (*LocalSDK, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "paywall.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening paywall db: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS registrations (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			event         TEXT NOT NULL,
			registered_at TIMESTAMP NOT NULL
		);
		CREATE TABLE IF NOT EXISTS subscription (
			id         INTEGER PRIMARY KEY CHECK (id = 1),
			subscribed INTEGER NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating paywall tables: %w", err)
	}

	return &LocalSDK{db: db}, nil
}

// Configure stores the API key. An empty key is rejected.
func (s *LocalSDK) Configure(apiKey string) error {
	if apiKey == "" {
		return errors.New("paywall api key is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiKey = apiKey
	return nil
}

func (s *LocalSDK) configured() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apiKey != ""
}

// Register records a placement event.
func (s *LocalSDK) Register(ctx context.Context, event string) error {
	if !s.configured() {
		return ErrNotConfigured
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO registrations (event, registered_at) VALUES (?, ?)`,
		event, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording registration: %w", err)
	}
	return nil
}

// IsUserSubscribed returns the cached subscription flag, false when unset.
func (s *LocalSDK) IsUserSubscribed(ctx context.Context) (bool, error) {
	if !s.configured() {
		return false, ErrNotConfigured
	}
	var subscribed bool
	err := s.db.QueryRowContext(ctx, `SELECT subscribed FROM subscription WHERE id = 1`).Scan(&subscribed)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading subscription: %w", err)
	}
	return subscribed, nil
}

// SetSubscribed updates the cached subscription flag.
func (s *LocalSDK) SetSubscribed(ctx context.Context, subscribed bool) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO subscription (id, subscribed, updated_at) VALUES (1, ?, ?)`,
		subscribed, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("writing subscription: %w", err)
	}
	return nil
}

// Close closes the state database.
func (s *LocalSDK) Close() error {
	return s.db.Close()
}
