package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mattn/go-sqlite3"

	"github.com/joshuadwray/audition-scoring/internal/models"
)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &Repository{db: db}, mock
}

// TestListSessions_ScanError tests row scanning error
func TestListSessions_ScanError(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"id", "name", "date", "session_code", "status", "is_locked", "created_at", "updated_at"}).
		AddRow("s1", "Spring", "2026-03-14", "SPRING", "active", "not-a-bool", time.Now(), time.Now())
	mock.ExpectQuery("SELECT (.+) FROM sessions").WillReturnRows(rows)

	if _, err := repo.ListSessions(context.Background()); err == nil {
		t.Error("expected error from scan failure, got nil")
	}
}

// TestListDancers_QueryError tests a driver failure surfacing from the query
func TestListDancers_QueryError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM dancers").WillReturnError(errors.New("disk I/O error"))

	if _, err := repo.ListDancers(context.Background(), "s1"); err == nil {
		t.Error("expected query error, got nil")
	}
}

// TestListGroups_BadRosterJSON tests that a corrupt roster column fails the read
func TestListGroups_BadRosterJSON(t *testing.T) {
	repo, mock := newMockRepo(t)

	rows := sqlmock.NewRows([]string{"id", "session_id", "group_number", "template_id", "material_id", "dancer_ids",
		"status", "pushed_at", "completed_at", "is_archived", "created_at"}).
		AddRow("g1", "s1", 1, nil, nil, "{not json", nil, nil, nil, false, time.Now())
	mock.ExpectQuery("SELECT (.+) FROM dancer_groups").WillReturnRows(rows)

	if _, err := repo.ListGroups(context.Background(), models.GroupFilter{SessionID: "s1"}); err == nil {
		t.Error("expected JSON decode error, got nil")
	}
}

// TestSubmitScores_RollsBackOnScoreInsertError tests that a failed score
// insert leaves no submission behind
func TestSubmitScores_RollsBackOnScoreInsertError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO score_submissions").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectPrepare("INSERT INTO scores").ExpectExec().WillReturnError(errors.New("constraint failed"))
	mock.ExpectRollback()

	err := repo.SubmitScores(context.Background(), &models.ScoreSubmission{GroupID: "g1", JudgeID: "j1"},
		[]models.Score{{DancerID: "d1"}})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// TestSubmitScores_UniqueViolationMapsToDuplicate tests driver error translation
func TestSubmitScores_UniqueViolationMapsToDuplicate(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO score_submissions").
		WillReturnError(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique})
	mock.ExpectRollback()

	err := repo.SubmitScores(context.Background(), &models.ScoreSubmission{GroupID: "g1", JudgeID: "j1"},
		[]models.Score{{DancerID: "d1"}})
	if err != ErrDuplicate {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

// TestRetractInstance_BeginError tests transaction start failure
func TestRetractInstance_BeginError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectBegin().WillReturnError(errors.New("database is locked"))

	if _, err := repo.RetractInstance(context.Background(), "g1", true); err == nil {
		t.Error("expected begin error, got nil")
	}
}

// TestCountActiveJudges_ScanError tests a count that cannot be scanned
func TestCountActiveJudges_ScanError(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM judges").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow("many"))

	if _, err := repo.CountActiveJudges(context.Background(), "s1"); err == nil {
		t.Error("expected scan error, got nil")
	}
}

// TestMapError tests constraint classification
func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"unique", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}, ErrDuplicate},
		{"primary key", sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintPrimaryKey}, ErrDuplicate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapError(tt.err); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}

	other := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey}
	if got := mapError(other); got == ErrDuplicate {
		t.Error("foreign key failures should not map to ErrDuplicate")
	}
}
