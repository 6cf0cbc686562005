package services_test

import (
	"sync"
	"testing"

	"github.com/joshuadwray/audition-scoring/internal/logger"
	"github.com/joshuadwray/audition-scoring/internal/models"
	"github.com/joshuadwray/audition-scoring/internal/repository"
	"github.com/joshuadwray/audition-scoring/internal/services"
	"github.com/joshuadwray/audition-scoring/internal/testutil"
)

// eventLog records published change events
type eventLog struct {
	mu     sync.Mutex
	events []models.ChangeEvent
}

func (l *eventLog) Publish(ev models.ChangeEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) count(table string, op models.ChangeOp) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, ev := range l.events {
		if ev.Table == table && ev.Op == op {
			n++
		}
	}
	return n
}

// metricsLog counts observations by label
type metricsLog struct {
	mu          sync.Mutex
	submissions map[string]int
	transitions map[models.GroupStatus]int
	pushes      int
	logins      map[string]int
}

func newMetricsLog() *metricsLog {
	return &metricsLog{
		submissions: map[string]int{},
		transitions: map[models.GroupStatus]int{},
		logins:      map[string]int{},
	}
}

func (m *metricsLog) ObserveSubmission(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submissions[outcome]++
}

func (m *metricsLog) ObserveTransition(status models.GroupStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions[status]++
}

func (m *metricsLog) ObservePush() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pushes++
}

func (m *metricsLog) ObserveLogin(role models.Role, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logins[string(role)+"/"+outcome]++
}

// env bundles a seeded fixture with every service built on the same store
type env struct {
	repo    repository.FullRepository
	f       *testutil.Fixture
	events  *eventLog
	metrics *metricsLog

	sessions *services.SessionService
	roster   *services.RosterService
	judges   *services.JudgeService
	groups   *services.GroupService
	subs     *services.SubmissionService
	results  *services.ResultsService
}

// newEnv seeds a fixture and wires services over repo. A nil repo gets a
// fresh in-memory store.
func newEnv(t *testing.T, repo repository.FullRepository, dancers, judges int) *env {
	t.Helper()
	if repo == nil {
		repo = testutil.NewTestRepository(t)
	}
	e := &env{
		repo:    repo,
		f:       testutil.SeedFixture(t, repo, dancers, judges),
		events:  &eventLog{},
		metrics: newMetricsLog(),
	}
	log := logger.Discard()
	e.sessions = services.NewSessionService(log, repo, e.events, "http://scoring.local:8081")
	e.roster = services.NewRosterService(log, repo, e.events)
	e.judges = services.NewJudgeService(log, repo)
	e.groups = services.NewGroupService(log, repo, e.events, e.metrics)
	e.subs = services.NewSubmissionService(log, repo, e.groups, e.events, e.metrics)
	e.results = services.NewResultsService(log, repo)
	return e
}

func (e *env) admin() models.Identity {
	return models.Identity{SessionID: e.f.Session.ID, Role: models.RoleAdmin}
}

func (e *env) judge(i int) models.Identity {
	j := e.f.Judges[i]
	return models.Identity{SessionID: e.f.Session.ID, Role: models.RoleJudge, JudgeID: j.ID, JudgeName: j.Name}
}

// push creates a template of every fixture dancer and pushes it active
func (e *env) push(t *testing.T, groupNumber int) *models.Instance {
	t.Helper()
	tmpl := testutil.SeedTemplate(t, e.repo, e.f, groupNumber)
	inst, err := e.groups.Push(t.Context(), e.admin(), services.PushInput{TemplateID: tmpl.ID, MaterialID: e.f.Material.ID})
	if err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	return inst
}

// entries scores every fixture dancer with v in all categories
func (e *env) entries(v float64) []services.ScoreEntry {
	out := make([]services.ScoreEntry, len(e.f.Dancers))
	for i, d := range e.f.Dancers {
		out[i] = services.ScoreEntry{DancerID: d.ID, ScoreValues: fullValues(v)}
	}
	return out
}

func fullValues(v float64) models.ScoreValues {
	return models.ScoreValues{
		Technique:    models.Float(v),
		Musicality:   models.Float(v),
		Expression:   models.Float(v),
		Timing:       models.Float(v),
		Presentation: models.Float(v),
	}
}
