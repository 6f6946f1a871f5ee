package database_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Machai17/EG-AI/internal/catalog"
	"github.com/Machai17/EG-AI/internal/database"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.CloseDB(db) })
	return db
}

func newTestStore(t *testing.T) database.Store {
	t.Helper()
	return database.NewStore(newTestDB(t), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func sampleProfile() database.UserProfile {
	return database.UserProfile{
		Name:        "Maria",
		Phone:       "+55912345678",
		CountryCode: "+55",
		Country:     "Brasil",
		Profession:  catalog.ProfessionNurse,
	}
}

func TestPing(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("ping failed: %v", err)
	}
}

func TestLoadAllEmpty(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	registry, err := store.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if registry == nil {
		t.Fatal("expected empty map, got nil")
	}
	if len(registry) != 0 {
		t.Errorf("expected empty registry, got %d records", len(registry))
	}
}

func TestSyncAndGetUser(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	messages := []database.Message{
		{ID: 1, Role: database.RoleUser, Content: "oi"},
		{ID: 2, Role: database.RoleAssistant, Content: "olá", CanDeepDive: true},
	}
	settings := database.Settings{Level: catalog.LevelIntermediate, Language: catalog.LanguagePortuguese}

	record, err := store.SyncUser(ctx, "+55912345678", sampleProfile(), messages, settings)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if record.LastSync == 0 {
		t.Error("expected lastSync to be set")
	}

	got, err := store.GetUser(ctx, "+55912345678")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected a record")
	}
	if got.Profile.Name != "Maria" {
		t.Errorf("unexpected profile: %+v", got.Profile)
	}
	if len(got.Sessions) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(got.Sessions))
	}
	if !got.Sessions[1].CanDeepDive {
		t.Error("deep-dive flag lost in round trip")
	}
	if got.Settings.Language != catalog.LanguagePortuguese {
		t.Errorf("settings lost in round trip: %+v", got.Settings)
	}
}

func TestGetUserAbsent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)

	got, err := store.GetUser(context.Background(), "+55000000000")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for absent key, got %+v", got)
	}

	if _, err := store.GetUser(context.Background(), ""); err == nil {
		t.Error("expected error for empty key")
	}
}

func TestSyncUserReplacesRecord(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	settings := database.Settings{Level: catalog.LevelIntermediate, Language: catalog.LanguagePortuguese}

	if _, err := store.SyncUser(ctx, "+55912345678", sampleProfile(), []database.Message{
		{ID: 1, Role: database.RoleUser, Content: "primeira"},
	}, settings); err != nil {
		t.Fatalf("first sync failed: %v", err)
	}

	// A second sync fully replaces the sessions, it does not append.
	if _, err := store.SyncUser(ctx, "+55912345678", sampleProfile(), []database.Message{}, settings); err != nil {
		t.Fatalf("second sync failed: %v", err)
	}

	got, err := store.GetUser(ctx, "+55912345678")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(got.Sessions) != 0 {
		t.Errorf("expected sessions to be replaced, got %d messages", len(got.Sessions))
	}
}

func TestSyncUserPreservesOtherKeys(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	settings := database.Settings{Level: catalog.LevelIntermediate, Language: catalog.LanguagePortuguese}

	if _, err := store.SyncUser(ctx, "+55912345678", sampleProfile(), nil, settings); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	other := sampleProfile()
	other.Name = "João"
	other.Phone = "+244912345678"
	if _, err := store.SyncUser(ctx, "+244912345678", other, nil, settings); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	registry, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(registry) != 2 {
		t.Fatalf("expected 2 records, got %d", len(registry))
	}
	if registry["+55912345678"].Profile.Name != "Maria" {
		t.Error("first record damaged by second sync")
	}
}

func TestActiveIdentityLifecycle(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	key, err := store.ActiveIdentity(ctx)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if key != "" {
		t.Errorf("expected no active identity, got %q", key)
	}

	if err := store.SetActiveIdentity(ctx, "+55912345678", "sid-1"); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	key, err = store.ActiveIdentity(ctx)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if key != "+55912345678" {
		t.Errorf("expected active key, got %q", key)
	}

	if err := store.SetActiveIdentity(ctx, "", "sid-2"); err == nil {
		t.Error("expected error for empty key")
	}

	if err := store.ClearActiveIdentity(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	key, err = store.ActiveIdentity(ctx)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if key != "" {
		t.Errorf("expected cleared identity, got %q", key)
	}

	// Clearing an already-clear pointer is a no-op.
	if err := store.ClearActiveIdentity(ctx); err != nil {
		t.Errorf("second clear failed: %v", err)
	}
}

func TestClearActiveIdentityPreservesRecords(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()
	settings := database.Settings{Level: catalog.LevelIntermediate, Language: catalog.LanguagePortuguese}

	if _, err := store.SyncUser(ctx, "+55912345678", sampleProfile(), nil, settings); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if err := store.SetActiveIdentity(ctx, "+55912345678", "sid-1"); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := store.ClearActiveIdentity(ctx); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	got, err := store.GetUser(ctx, "+55912345678")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil {
		t.Fatal("user record must survive identity clear")
	}
}

func TestLoadAllMalformedBlob(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	store := database.NewStore(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)`,
		"ENFERMAFIT_CENTRAL_DB", "{not json", time.Now().UTC())
	if err != nil {
		t.Fatalf("failed to plant malformed blob: %v", err)
	}

	// Deserialization failure is treated as "no data", never an error.
	registry, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load should not fail on a malformed blob: %v", err)
	}
	if len(registry) != 0 {
		t.Errorf("expected empty registry, got %d records", len(registry))
	}

	// A subsequent sync recovers by rewriting the blob.
	if _, err := store.SyncUser(ctx, "+55912345678", sampleProfile(), nil, database.Settings{
		Level:    catalog.LevelIntermediate,
		Language: catalog.LanguagePortuguese,
	}); err != nil {
		t.Fatalf("sync after malformed blob failed: %v", err)
	}

	registry, err = store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(registry) != 1 {
		t.Errorf("expected 1 record after recovery, got %d", len(registry))
	}
}

func TestSaveAllNilRegistry(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveAll(ctx, nil); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	registry, err := store.LoadAll(ctx)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(registry) != 0 {
		t.Errorf("expected empty registry, got %d records", len(registry))
	}
}

func TestRunSQLMaintenance(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	if err := store.RunSQLMaintenance(context.Background()); err != nil {
		t.Errorf("maintenance failed: %v", err)
	}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.RunSQLMaintenance(cancelled); err == nil {
		t.Error("expected error for cancelled context")
	}
}
