package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/joshuadwray/audition-scoring/internal/models"
	"github.com/joshuadwray/audition-scoring/internal/repository"
)

// NewTestRepository creates a new in-memory repository for testing.
// Each call creates a fresh database with all migrations applied.
func NewTestRepository(t *testing.T) *repository.Repository {
	t.Helper()

	repo, err := repository.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}

	t.Cleanup(func() {
		repo.Close()
	})

	return repo
}

// Fixture is a seeded session with a roster, one material and active judges
type Fixture struct {
	Session  *models.Session
	Dancers  []models.Dancer
	Material *models.Material
	Judges   []models.Judge
}

// DancerIDs returns the fixture's dancer IDs in number order
func (f *Fixture) DancerIDs() []string {
	ids := make([]string, len(f.Dancers))
	for i, d := range f.Dancers {
		ids[i] = d.ID
	}
	return ids
}

// SeedSession creates an unlocked session with the given code
func SeedSession(t *testing.T, repo repository.SessionRepository, code string) *models.Session {
	t.Helper()
	s := &models.Session{Name: "Spring Auditions", Date: "2026-03-14", SessionCode: code, Status: models.SessionActive}
	if err := repo.CreateSession(context.Background(), s, "unused-hash"); err != nil {
		t.Fatalf("seed session: %v", err)
	}
	return s
}

// SeedFixture creates a session with the requested number of dancers and
// judges. Judge PINs are 1001, 1002, ...
func SeedFixture(t *testing.T, repo repository.FullRepository, dancers, judges int) *Fixture {
	t.Helper()
	ctx := context.Background()

	f := &Fixture{Session: SeedSession(t, repo, fmt.Sprintf("AUD-%d%d", dancers, judges))}

	for i := 1; i <= dancers; i++ {
		d := models.Dancer{SessionID: f.Session.ID, DancerNumber: 100 + i, Name: fmt.Sprintf("Dancer %d", i)}
		if err := repo.CreateDancer(ctx, &d); err != nil {
			t.Fatalf("seed dancer: %v", err)
		}
		f.Dancers = append(f.Dancers, d)
	}

	f.Material = &models.Material{SessionID: f.Session.ID, Name: "Ballet"}
	if err := repo.CreateMaterial(ctx, f.Material); err != nil {
		t.Fatalf("seed material: %v", err)
	}

	for i := 1; i <= judges; i++ {
		j := models.Judge{
			SessionID: f.Session.ID,
			Name:      fmt.Sprintf("Judge %d", i),
			JudgePIN:  fmt.Sprintf("%d", 1000+i),
			IsActive:  true,
		}
		if err := repo.CreateJudge(ctx, &j); err != nil {
			t.Fatalf("seed judge: %v", err)
		}
		f.Judges = append(f.Judges, j)
	}
	return f
}

// SeedTemplate creates a template holding every fixture dancer
func SeedTemplate(t *testing.T, repo repository.GroupRepository, f *Fixture, groupNumber int) *models.Template {
	t.Helper()
	tmpl := &models.Template{SessionID: f.Session.ID, GroupNumber: groupNumber, DancerIDs: f.DancerIDs()}
	if err := repo.CreateTemplate(context.Background(), tmpl); err != nil {
		t.Fatalf("seed template: %v", err)
	}
	return tmpl
}
