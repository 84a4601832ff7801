package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"khata/internal/config"
	"khata/internal/core"
	"khata/internal/store"
)

func TestFromAppConfig(t *testing.T) {
	cfg := &config.Config{
		DataBackend:  "sqlite",
		StoreTimeout: 3 * time.Second,
		SQLiteDBPath: "/tmp/khata.db",
	}
	got, err := FromAppConfig(cfg)
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if got.Type != SQLiteBackend || got.Timeout != 3*time.Second || got.SQLiteDBPath != "/tmp/khata.db" {
		t.Errorf("unexpected config %+v", got)
	}

	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets"}); err == nil {
		t.Error("expected error for unknown backend")
	}
	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"supabase without url", Config{Type: SupabaseBackend, SupabaseAPIKey: "k"}, true},
		{"supabase without key", Config{Type: SupabaseBackend, SupabaseURL: "https://x.supabase.co"}, true},
		{"supabase", Config{Type: SupabaseBackend, SupabaseURL: "https://x.supabase.co", SupabaseAPIKey: "k"}, false},
		{"unknown", Config{Type: "sheets"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	got := GetBackendTypeStrings()
	if len(got) != 3 || got[0] != "memory" || got[2] != "supabase" {
		t.Errorf("unexpected backend types %v", got)
	}
}

func TestCreateMemoryBackendFromSeed(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "seed.json")
	body := `[{"account_id":"acc-1","persons":[{"id":"p1","name":"Ali","opening_balance":"0","monthly_limit":"5000"}]}]`
	if err := os.WriteFile(seed, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend, SeedFile: seed, Timeout: time.Second})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer res.Cleanup()

	persons, err := res.Store.ListPersons(context.Background(), store.NewSession("acc-1"))
	if err != nil {
		t.Fatalf("ListPersons() error = %v", err)
	}
	if len(persons) != 1 || persons[0].ID != "p1" {
		t.Fatalf("unexpected persons %+v", persons)
	}
}

func TestCreateSQLiteBackend(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "khata.db")
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SQLiteBackend, SQLiteDBPath: dbPath, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("CreateBackend() error = %v", err)
	}
	defer res.Cleanup()

	sess := store.NewSession("acc-1")
	if err := res.Store.Upsert(context.Background(), sess, core.Person{ID: "p1", Name: "Ali"}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestCreateSupabaseBackendNeedsURL(t *testing.T) {
	if _, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: SupabaseBackend}); err == nil {
		t.Fatal("expected validation error")
	}
}
