package migrations_test

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/joshuadwray/audition-scoring/internal/migrations"
)

func openMemory(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrations(t *testing.T) {
	db := openMemory(t)

	if err := migrations.Run(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	want := []string{"sessions", "dancers", "materials", "judges", "dancer_groups", "scores", "score_submissions", "admin_actions"}
	for _, table := range want {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	db := openMemory(t)

	if err := migrations.Run(db); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := migrations.Run(db); err != nil {
		t.Fatalf("second run: %v", err)
	}

	version, err := migrations.Version(db)
	if err != nil {
		t.Fatalf("reading version: %v", err)
	}
	if version != 1 {
		t.Errorf("expected schema version 1, got %d", version)
	}
}

func TestMigrations_SubmissionPairIsUnique(t *testing.T) {
	db := openMemory(t)
	if err := migrations.Run(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	stmts := []string{
		`INSERT INTO sessions (id, name, date, admin_pin_hash, session_code) VALUES ('s1', 'Spring', '2026-04-01', 'x', 'SPRING')`,
		`INSERT INTO materials (id, session_id, name) VALUES ('m1', 's1', 'Jazz')`,
		`INSERT INTO judges (id, session_id, name, judge_pin) VALUES ('j1', 's1', 'Ana', '1234')`,
		`INSERT INTO dancer_groups (id, session_id, group_number, material_id, status) VALUES ('g1', 's1', 1, 'm1', 'active')`,
		`INSERT INTO score_submissions (id, group_id, judge_id, score_count) VALUES ('sub1', 'g1', 'j1', 3)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}

	_, err := db.Exec(`INSERT INTO score_submissions (id, group_id, judge_id, score_count) VALUES ('sub2', 'g1', 'j1', 3)`)
	if err == nil {
		t.Fatal("expected duplicate submission to be rejected by the schema")
	}
}

func TestMigrations_InstanceRequiresStatus(t *testing.T) {
	db := openMemory(t)
	if err := migrations.Run(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	db.Exec(`INSERT INTO sessions (id, name, date, admin_pin_hash, session_code) VALUES ('s1', 'Spring', '2026-04-01', 'x', 'SPRING')`)
	db.Exec(`INSERT INTO materials (id, session_id, name) VALUES ('m1', 's1', 'Jazz')`)

	if _, err := db.Exec(`INSERT INTO dancer_groups (id, session_id, group_number, material_id) VALUES ('g1', 's1', 1, 'm1')`); err == nil {
		t.Error("expected instance without status to be rejected")
	}
	if _, err := db.Exec(`INSERT INTO dancer_groups (id, session_id, group_number, status) VALUES ('g2', 's1', 1, 'active')`); err == nil {
		t.Error("expected template with status to be rejected")
	}
}
