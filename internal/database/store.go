package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Storage keys. The whole user registry lives as one JSON blob under
// registryKey; the active identity pointer and session ID are separate
// scalar entries so logout can clear them without touching user records.
const (
	registryKey      = "ENFERMAFIT_CENTRAL_DB"
	activePhoneKey   = "active_user_phone"
	activeSessionKey = "active_sid"
)

// Store defines the interface for the persistence layer: a durable mapping
// from phone key to UserRecord plus the active identity pointer.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// LoadAll returns the full phone-to-record registry. An absent or
	// malformed registry blob is returned as an empty map, never an error.
	LoadAll(ctx context.Context) (map[string]*UserRecord, error)

	// SaveAll serializes and fully replaces the registry blob.
	SaveAll(ctx context.Context, registry map[string]*UserRecord) error

	// GetUser returns the record stored under key, or nil, nil when absent.
	GetUser(ctx context.Context, key string) (*UserRecord, error)

	// SyncUser upserts the record for key, fully replacing its sessions and
	// settings and advancing lastSync to the current time.
	SyncUser(ctx context.Context, key string, profile UserProfile, sessions []Message, settings Settings) (*UserRecord, error)

	// ActiveIdentity returns the currently active phone key, or "" when no
	// identity is active.
	ActiveIdentity(ctx context.Context) (string, error)

	// SetActiveIdentity records the active phone key and an opaque session ID.
	SetActiveIdentity(ctx context.Context, key, sessionID string) error

	// ClearActiveIdentity removes the active identity pointer and session ID.
	// User records are left untouched.
	ClearActiveIdentity(ctx context.Context) error

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) getValue(ctx context.Context, key string) (string, bool, error) {
	if ctx.Err() != nil {
		return "", false, ctx.Err()
	}

	var value string
	err := s.db.GetContext(ctx, &value, `SELECT value FROM kv WHERE key = ?`, key)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while reading entry", "key", key, "error", err)
		return "", false, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error reading entry", "key", key, "error", err)
		return "", false, fmt.Errorf("failed to read entry %q: %w", key, err)
	}

	return value, true, nil
}

func (s *sqlxStore) setValue(ctx context.Context, key, value string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for entry write", "key", key, "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				if !errors.Is(rollbackErr, sql.ErrTxDone) {
					s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
				}
			}
		}
	}()

	query := `
        INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
        ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at;
    `
	if _, err := tx.ExecContext(ctx, query, key, value, time.Now().UTC()); err != nil {
		s.logger.ErrorContext(ctx, "Error writing entry", "key", key, "error", err)
		return fmt.Errorf("failed to write entry %q: %w", key, err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "key", key, "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.DebugContext(ctx, "Entry written successfully", "key", key)
	return nil
}

// LoadAll returns the full phone-to-record registry. Deserialization failure
// is treated as "no data": the previous blob stays readable on disk but the
// caller sees an empty registry.
func (s *sqlxStore) LoadAll(ctx context.Context) (map[string]*UserRecord, error) {
	raw, found, err := s.getValue(ctx, registryKey)
	if err != nil {
		return nil, err
	}
	if !found {
		s.logger.DebugContext(ctx, "Registry blob absent, starting empty")
		return map[string]*UserRecord{}, nil
	}

	registry := map[string]*UserRecord{}
	if err := json.Unmarshal([]byte(raw), &registry); err != nil {
		s.logger.WarnContext(ctx, "Registry blob is malformed, treating as empty", "error", err)
		return map[string]*UserRecord{}, nil
	}

	s.logger.DebugContext(ctx, "Registry loaded", "records", len(registry))
	return registry, nil
}

// SaveAll serializes and fully replaces the registry blob in a single write.
func (s *sqlxStore) SaveAll(ctx context.Context, registry map[string]*UserRecord) error {
	if registry == nil {
		registry = map[string]*UserRecord{}
	}

	data, err := json.Marshal(registry)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to serialize registry", "error", err)
		return fmt.Errorf("failed to serialize registry: %w", err)
	}

	if err := s.setValue(ctx, registryKey, string(data)); err != nil {
		return fmt.Errorf("failed to save registry: %w", err)
	}

	s.logger.DebugContext(ctx, "Registry saved", "records", len(registry))
	return nil
}

// GetUser returns the record stored under key, or nil, nil when absent.
func (s *sqlxStore) GetUser(ctx context.Context, key string) (*UserRecord, error) {
	if key == "" {
		return nil, fmt.Errorf("user key cannot be empty")
	}

	registry, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return registry[key], nil
}

// SyncUser upserts the record for key. Sessions and settings fully replace
// any prior value for that key; other keys are preserved.
func (s *sqlxStore) SyncUser(ctx context.Context, key string, profile UserProfile, sessions []Message, settings Settings) (*UserRecord, error) {
	if key == "" {
		return nil, fmt.Errorf("user key cannot be empty")
	}

	registry, err := s.LoadAll(ctx)
	if err != nil {
		return nil, err
	}

	record := &UserRecord{
		Profile:  profile,
		Sessions: sessions,
		Settings: settings,
		LastSync: time.Now().UTC().UnixMilli(),
	}
	registry[key] = record

	if err := s.SaveAll(ctx, registry); err != nil {
		return nil, fmt.Errorf("failed to sync user %q: %w", key, err)
	}

	s.logger.DebugContext(ctx, "User record synced", "key", key, "messages", len(sessions))
	return record, nil
}

// ActiveIdentity returns the currently active phone key, or "" when none.
func (s *sqlxStore) ActiveIdentity(ctx context.Context) (string, error) {
	value, _, err := s.getValue(ctx, activePhoneKey)
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetActiveIdentity records the active phone key and an opaque session ID.
func (s *sqlxStore) SetActiveIdentity(ctx context.Context, key, sessionID string) error {
	if key == "" {
		return fmt.Errorf("user key cannot be empty")
	}

	if err := s.setValue(ctx, activePhoneKey, key); err != nil {
		return fmt.Errorf("failed to set active identity: %w", err)
	}
	if err := s.setValue(ctx, activeSessionKey, sessionID); err != nil {
		return fmt.Errorf("failed to set active session id: %w", err)
	}

	s.logger.DebugContext(ctx, "Active identity set", "key", key)
	return nil
}

// ClearActiveIdentity removes the active identity pointer and session ID,
// leaving all user records in place.
func (s *sqlxStore) ClearActiveIdentity(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for identity clear", "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				if !errors.Is(rollbackErr, sql.ErrTxDone) {
					s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
				}
			}
		}
	}()

	query, args, err := sqlx.In(`DELETE FROM kv WHERE key IN (?)`, []string{activePhoneKey, activeSessionKey})
	if err != nil {
		return fmt.Errorf("failed to build identity clear query: %w", err)
	}
	query = tx.Rebind(query)

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		s.logger.ErrorContext(ctx, "Error clearing active identity", "error", err)
		return fmt.Errorf("failed to clear active identity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.InfoContext(ctx, "Active identity cleared")
	return nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)

	default:
		s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	}

	return nil
}
