package database

import "testing"

func TestOpenAppliesMigrations(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM vehicle_tracking_data").Scan(&count); err != nil {
		t.Fatalf("expected tracking table: %v", err)
	}

	// running again is a no-op
	if err := NewMigrationManager(db).RunMigrations(); err != nil {
		t.Fatalf("second run: %v", err)
	}
	applied, err := NewMigrationManager(db).GetAppliedMigrations()
	if err != nil {
		t.Fatalf("applied: %v", err)
	}
	if !applied[1] || len(applied) != 1 {
		t.Fatalf("unexpected applied set %v", applied)
	}
}
