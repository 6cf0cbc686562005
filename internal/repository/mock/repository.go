package mock

import (
	"context"
	"time"

	"github.com/joshuadwray/audition-scoring/internal/models"
	"github.com/joshuadwray/audition-scoring/internal/repository"
)

// Repository wraps a real repository and allows injecting errors for testing.
// This provides a flexible way to test error paths without complex database manipulation.
//
// Usage:
//
//	realRepo := testutil.NewTestRepository(t)
//	mockRepo := mock.NewRepository(realRepo)
//	mockRepo.SubmitScoresError = errors.New("database error")
//	svc := services.NewSubmissionService(log, mockRepo, nil, nil, nil)
//	_, err := svc.Submit(ctx, identity, groupID, entries)
//	// err will now contain the injected error
type Repository struct {
	repository.FullRepository

	// ===== Session Errors =====
	GetSessionError      error
	CreateSessionError   error
	IsSessionLockedError error
	SetSessionLockError  error

	// ===== Roster Errors =====
	ListDancersError          error
	CreateDancerError         error
	CountScoresForDancerError error
	PurgeDancerError          error
	ListMaterialsError        error

	// ===== Judge Errors =====
	CreateJudgeError       error
	CountActiveJudgesError error

	// ===== Group Errors =====
	GetGroupError         error
	ListGroupsError       error
	CreateTemplateError   error
	CreateInstanceError   error
	CompleteInstanceError error
	RetractInstanceError  error
	ArchiveError          error

	// ===== Score Errors =====
	SubmitScoresError         error
	ListScoresError           error
	UpdateScoreError          error
	HasSubmissionError        error
	CountSubmittedJudgesError error

	// ===== Audit Errors =====
	LogAdminActionError error

	// AfterCountActiveJudges runs between the active-judge read and the
	// submission read of a completion check, letting tests mutate the store
	// inside that window.
	AfterCountActiveJudges func()
}

// NewRepository creates a mock repository wrapping a real one
func NewRepository(real repository.FullRepository) *Repository {
	return &Repository{
		FullRepository: real,
	}
}

// ===== Session Methods =====

func (m *Repository) GetSession(ctx context.Context, id string) (*models.Session, error) {
	if m.GetSessionError != nil {
		return nil, m.GetSessionError
	}
	return m.FullRepository.GetSession(ctx, id)
}

func (m *Repository) CreateSession(ctx context.Context, s *models.Session, pinHash string) error {
	if m.CreateSessionError != nil {
		return m.CreateSessionError
	}
	return m.FullRepository.CreateSession(ctx, s, pinHash)
}

func (m *Repository) IsSessionLocked(ctx context.Context, id string) (bool, error) {
	if m.IsSessionLockedError != nil {
		return false, m.IsSessionLockedError
	}
	return m.FullRepository.IsSessionLocked(ctx, id)
}

func (m *Repository) SetSessionLock(ctx context.Context, id string, locked bool, status models.SessionStatus) error {
	if m.SetSessionLockError != nil {
		return m.SetSessionLockError
	}
	return m.FullRepository.SetSessionLock(ctx, id, locked, status)
}

// ===== Roster Methods =====

func (m *Repository) ListDancers(ctx context.Context, sessionID string) ([]models.Dancer, error) {
	if m.ListDancersError != nil {
		return nil, m.ListDancersError
	}
	return m.FullRepository.ListDancers(ctx, sessionID)
}

func (m *Repository) CreateDancer(ctx context.Context, d *models.Dancer) error {
	if m.CreateDancerError != nil {
		return m.CreateDancerError
	}
	return m.FullRepository.CreateDancer(ctx, d)
}

func (m *Repository) CountScoresForDancer(ctx context.Context, dancerID string) (int, error) {
	if m.CountScoresForDancerError != nil {
		return 0, m.CountScoresForDancerError
	}
	return m.FullRepository.CountScoresForDancer(ctx, dancerID)
}

func (m *Repository) PurgeDancer(ctx context.Context, sessionID, dancerID string) (repository.PurgeResult, error) {
	if m.PurgeDancerError != nil {
		return repository.PurgeResult{}, m.PurgeDancerError
	}
	return m.FullRepository.PurgeDancer(ctx, sessionID, dancerID)
}

func (m *Repository) ListMaterials(ctx context.Context, sessionID string) ([]models.Material, error) {
	if m.ListMaterialsError != nil {
		return nil, m.ListMaterialsError
	}
	return m.FullRepository.ListMaterials(ctx, sessionID)
}

// ===== Judge Methods =====

func (m *Repository) CreateJudge(ctx context.Context, j *models.Judge) error {
	if m.CreateJudgeError != nil {
		return m.CreateJudgeError
	}
	return m.FullRepository.CreateJudge(ctx, j)
}

func (m *Repository) CountActiveJudges(ctx context.Context, sessionID string) (int, error) {
	if m.CountActiveJudgesError != nil {
		return 0, m.CountActiveJudgesError
	}
	count, err := m.FullRepository.CountActiveJudges(ctx, sessionID)
	if err == nil && m.AfterCountActiveJudges != nil {
		m.AfterCountActiveJudges()
	}
	return count, err
}

// ===== Group Methods =====

func (m *Repository) GetGroup(ctx context.Context, id string) (models.DancerGroup, error) {
	if m.GetGroupError != nil {
		return nil, m.GetGroupError
	}
	return m.FullRepository.GetGroup(ctx, id)
}

func (m *Repository) ListGroups(ctx context.Context, f models.GroupFilter) ([]models.DancerGroup, error) {
	if m.ListGroupsError != nil {
		return nil, m.ListGroupsError
	}
	return m.FullRepository.ListGroups(ctx, f)
}

func (m *Repository) CreateTemplate(ctx context.Context, t *models.Template) error {
	if m.CreateTemplateError != nil {
		return m.CreateTemplateError
	}
	return m.FullRepository.CreateTemplate(ctx, t)
}

func (m *Repository) CreateInstance(ctx context.Context, inst *models.Instance) error {
	if m.CreateInstanceError != nil {
		return m.CreateInstanceError
	}
	return m.FullRepository.CreateInstance(ctx, inst)
}

func (m *Repository) CompleteInstance(ctx context.Context, id string, at time.Time) (bool, error) {
	if m.CompleteInstanceError != nil {
		return false, m.CompleteInstanceError
	}
	return m.FullRepository.CompleteInstance(ctx, id, at)
}

func (m *Repository) RetractInstance(ctx context.Context, id string, deleteScores bool) (int64, error) {
	if m.RetractInstanceError != nil {
		return 0, m.RetractInstanceError
	}
	return m.FullRepository.RetractInstance(ctx, id, deleteScores)
}

func (m *Repository) ArchiveGroupFamily(ctx context.Context, sessionID string, groupNumber int) (int64, error) {
	if m.ArchiveError != nil {
		return 0, m.ArchiveError
	}
	return m.FullRepository.ArchiveGroupFamily(ctx, sessionID, groupNumber)
}

// ===== Score Methods =====

func (m *Repository) SubmitScores(ctx context.Context, sub *models.ScoreSubmission, scores []models.Score) error {
	if m.SubmitScoresError != nil {
		return m.SubmitScoresError
	}
	return m.FullRepository.SubmitScores(ctx, sub, scores)
}

func (m *Repository) ListScores(ctx context.Context, f models.ScoreFilter) ([]models.Score, error) {
	if m.ListScoresError != nil {
		return nil, m.ListScoresError
	}
	return m.FullRepository.ListScores(ctx, f)
}

func (m *Repository) UpdateScore(ctx context.Context, id string, values models.ScoreValues, at time.Time) error {
	if m.UpdateScoreError != nil {
		return m.UpdateScoreError
	}
	return m.FullRepository.UpdateScore(ctx, id, values, at)
}

func (m *Repository) HasSubmission(ctx context.Context, groupID, judgeID string) (bool, error) {
	if m.HasSubmissionError != nil {
		return false, m.HasSubmissionError
	}
	return m.FullRepository.HasSubmission(ctx, groupID, judgeID)
}

func (m *Repository) CountSubmittedJudges(ctx context.Context, groupID string) (int, error) {
	if m.CountSubmittedJudgesError != nil {
		return 0, m.CountSubmittedJudgesError
	}
	return m.FullRepository.CountSubmittedJudges(ctx, groupID)
}

// ===== Audit Methods =====

func (m *Repository) LogAdminAction(ctx context.Context, sessionID, actionType string, details map[string]any) error {
	if m.LogAdminActionError != nil {
		return m.LogAdminActionError
	}
	return m.FullRepository.LogAdminAction(ctx, sessionID, actionType, details)
}
