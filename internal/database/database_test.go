package database

import (
	"path/filepath"
	"testing"

	"drinklog/internal/config"
)

func TestNewConfig_rejectsUnknownDriver(t *testing.T) {
	_, err := NewConfig(&config.Config{DBDriver: "oracle"})
	if err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestConfig_URLs(t *testing.T) {
	cfg, err := NewConfig(&config.Config{
		DBDriver: DriverPostgres, DBHost: "db", DBPort: "5432",
		DBUser: "u", DBPassword: "p", DBName: "drinks", DBSSLMode: "disable",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got, want := cfg.DSN(), "host=db port=5432 user=u password=p dbname=drinks sslmode=disable"; got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
	if got, want := cfg.MigrateURL(), "postgres://u:p@db:5432/drinks?sslmode=disable"; got != want {
		t.Errorf("MigrateURL = %q, want %q", got, want)
	}
}

func TestManager_sqliteMigrate(t *testing.T) {
	cfg, err := NewConfig(&config.Config{
		DBDriver: DriverSQLite,
		DBPath:   filepath.Join(t.TempDir(), "drinklog.db"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	defer m.Close()

	if err := m.Migrate(); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	for _, table := range []string{"users", "drinks", "audit_logs"} {
		if !m.DB().Migrator().HasTable(table) {
			t.Errorf("expected table %q after migration", table)
		}
	}
}
