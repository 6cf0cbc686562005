package services_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/joshuadwray/audition-scoring/internal/errors"
	"github.com/joshuadwray/audition-scoring/internal/models"
	"github.com/joshuadwray/audition-scoring/internal/testutil"
)

func TestCreateJudge_GeneratesFourDigitPIN(t *testing.T) {
	e := newEnv(t, nil, 0, 0)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		j, err := e.judges.CreateJudge(ctx, e.f.Session.ID, "Judge")
		if err != nil {
			t.Fatalf("CreateJudge failed: %v", err)
		}
		if len(j.JudgePIN) != 4 || j.JudgePIN[0] == '0' {
			t.Errorf("PIN %q is not in 1000-9999", j.JudgePIN)
		}
		if !j.IsActive || j.IsAdminJudge {
			t.Errorf("judge = %+v", j)
		}
	}
}

func TestCreateJudge_RetriesOnPINClash(t *testing.T) {
	e := newEnv(t, nil, 0, 1) // fixture judge holds PIN 1001

	// 0x0001 -> 1001 (taken), 0x0005 -> 1005
	e.judges.SetRandReader(bytes.NewReader([]byte{0x00, 0x01, 0x00, 0x05}))
	j, err := e.judges.CreateJudge(context.Background(), e.f.Session.ID, "Second")
	if err != nil {
		t.Fatalf("CreateJudge failed: %v", err)
	}
	if j.JudgePIN != "1005" {
		t.Errorf("PIN = %s, want 1005 after one clash", j.JudgePIN)
	}
}

func TestCreateJudge_GivesUpAfterMaxAttempts(t *testing.T) {
	e := newEnv(t, nil, 0, 1)
	e.judges.SetRandReader(bytes.NewReader(bytes.Repeat([]byte{0x00, 0x01}, 10)))

	_, err := e.judges.CreateJudge(context.Background(), e.f.Session.ID, "Unlucky")
	if !errors.Is(err, errors.ErrInternal) {
		t.Fatalf("expected internal error after exhausting attempts, got %v", err)
	}
}

func TestCreateJudge_RandFailure(t *testing.T) {
	e := newEnv(t, nil, 0, 0)
	e.judges.SetRandReader(bytes.NewReader(nil))

	if _, err := e.judges.CreateJudge(context.Background(), e.f.Session.ID, "Judge"); !errors.Is(err, errors.ErrInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
	if _, err := e.judges.CreateJudge(context.Background(), e.f.Session.ID, " "); !errors.Is(err, errors.ErrValidation) {
		t.Fatalf("blank name: expected ErrValidation, got %v", err)
	}
}

func TestEnsureAdminJudge_Idempotent(t *testing.T) {
	e := newEnv(t, nil, 0, 0)
	ctx := context.Background()

	first, created, err := e.judges.EnsureAdminJudge(ctx, e.f.Session.ID, "Director")
	if err != nil {
		t.Fatalf("EnsureAdminJudge failed: %v", err)
	}
	if !created || !first.IsAdminJudge {
		t.Errorf("first call: created=%v judge=%+v", created, first)
	}

	second, created, err := e.judges.EnsureAdminJudge(ctx, e.f.Session.ID, "Someone Else")
	if err != nil {
		t.Fatalf("EnsureAdminJudge failed: %v", err)
	}
	if created || second.ID != first.ID {
		t.Errorf("second call should return the existing admin-judge, got created=%v id=%s", created, second.ID)
	}

	judges, _ := e.judges.ListJudges(ctx, e.f.Session.ID)
	if len(judges) != 1 {
		t.Errorf("judges = %d, want 1", len(judges))
	}
}

func TestDeactivate(t *testing.T) {
	e := newEnv(t, nil, 0, 2)
	ctx := context.Background()
	other := testutil.SeedSession(t, e.repo, "ELSE")

	if err := e.judges.Deactivate(ctx, other.ID, e.f.Judges[0].ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("judge of another session: expected ErrNotFound, got %v", err)
	}
	if err := e.judges.Deactivate(ctx, e.f.Session.ID, e.f.Judges[0].ID); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}

	judges, _ := e.judges.ListJudges(ctx, e.f.Session.ID)
	active := 0
	for _, j := range judges {
		if j.IsActive {
			active++
		}
	}
	if len(judges) != 2 || active != 1 {
		t.Errorf("judges=%d active=%d, want deactivated judge kept but inactive", len(judges), active)
	}

	actions, _ := e.sessions.AuditLog(ctx, e.f.Session.ID, 1)
	if len(actions) != 1 || actions[0].ActionType != models.ActionDeactivate {
		t.Errorf("audit = %+v", actions)
	}
}
