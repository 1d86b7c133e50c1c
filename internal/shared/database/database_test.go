package database

import (
	"context"
	"testing"
)

func TestRebind(t *testing.T) {
	tests := []struct {
		driver string
		want   string
	}{
		{DriverPostgres, "SELECT a FROM t WHERE b = $1 AND c = $2"},
		{DriverSQLite, "SELECT a FROM t WHERE b = ? AND c = ?"},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			db := &DB{Driver: tt.driver}
			if got := db.Rebind("SELECT a FROM t WHERE b = ? AND c = ?"); got != tt.want {
				t.Fatalf("expected %q got %q", tt.want, got)
			}
		})
	}
}

func TestMigrationsRunOnce(t *testing.T) {
	db, err := Open(DriverSQLite, ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if err := db.RunMigrations(ctx); err != nil {
			t.Fatalf("run %d: %v", i+1, err)
		}
	}

	var applied int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&applied); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if applied != 1 {
		t.Fatalf("expected 1 applied migration got %d", applied)
	}
	if _, err := db.ExecContext(ctx, "SELECT game_id, turn, data FROM snapshots"); err != nil {
		t.Fatalf("expected the snapshots table: %v", err)
	}
}
