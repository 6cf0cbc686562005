package repository

import (
	"context"
	"time"

	"github.com/joshuadwray/audition-scoring/internal/models"
)

// SessionRepository defines session data operations
type SessionRepository interface {
	CreateSession(ctx context.Context, s *models.Session, pinHash string) error
	GetSession(ctx context.Context, id string) (*models.Session, error)
	GetSessionByCode(ctx context.Context, code string) (*models.Session, error)
	GetSessionPINHash(ctx context.Context, id string) (string, error)
	ListSessions(ctx context.Context) ([]models.Session, error)
	UpdateSession(ctx context.Context, id string, u models.SessionUpdate) error
	SetSessionLock(ctx context.Context, id string, locked bool, status models.SessionStatus) error
	DeleteSession(ctx context.Context, id string) error
	IsSessionLocked(ctx context.Context, id string) (bool, error)
}

// DancerRepository defines dancer data operations
type DancerRepository interface {
	ListDancers(ctx context.Context, sessionID string) ([]models.Dancer, error)
	GetDancer(ctx context.Context, id string) (*models.Dancer, error)
	CreateDancer(ctx context.Context, d *models.Dancer) error
	CountScoresForDancer(ctx context.Context, dancerID string) (int, error)
	PurgeDancer(ctx context.Context, sessionID, dancerID string) (PurgeResult, error)
}

// MaterialRepository defines material data operations
type MaterialRepository interface {
	CreateMaterial(ctx context.Context, m *models.Material) error
	GetMaterial(ctx context.Context, id string) (*models.Material, error)
	ListMaterials(ctx context.Context, sessionID string) ([]models.Material, error)
}

// JudgeRepository defines judge data operations
type JudgeRepository interface {
	ListJudges(ctx context.Context, sessionID string) ([]models.Judge, error)
	GetJudge(ctx context.Context, id string) (*models.Judge, error)
	CreateJudge(ctx context.Context, j *models.Judge) error
	GetActiveAdminJudge(ctx context.Context, sessionID string) (*models.Judge, error)
	FindActiveJudgeByPIN(ctx context.Context, sessionID, pin string) (*models.Judge, error)
	DeactivateJudge(ctx context.Context, id string) error
	CountActiveJudges(ctx context.Context, sessionID string) (int, error)
}

// GroupRepository defines dancer group data operations
type GroupRepository interface {
	CreateTemplate(ctx context.Context, t *models.Template) error
	NextGroupNumber(ctx context.Context, sessionID string) (int, error)
	CreateInstance(ctx context.Context, inst *models.Instance) error
	GetGroup(ctx context.Context, id string) (models.DancerGroup, error)
	ListGroups(ctx context.Context, f models.GroupFilter) ([]models.DancerGroup, error)
	LatestActiveInstance(ctx context.Context, sessionID string) (*models.Instance, error)
	ActivateInstance(ctx context.Context, id string, at time.Time) (bool, error)
	CompleteInstance(ctx context.Context, id string, at time.Time) (bool, error)
	RetractInstance(ctx context.Context, id string, deleteScores bool) (int64, error)
	ArchiveGroupFamily(ctx context.Context, sessionID string, groupNumber int) (int64, error)
}

// ScoreRepository defines score data operations
type ScoreRepository interface {
	SubmitScores(ctx context.Context, sub *models.ScoreSubmission, scores []models.Score) error
	GetScore(ctx context.Context, id string) (*models.Score, error)
	ListScores(ctx context.Context, f models.ScoreFilter) ([]models.Score, error)
	UpdateScore(ctx context.Context, id string, values models.ScoreValues, at time.Time) error
}

// SubmissionRepository defines score submission data operations
type SubmissionRepository interface {
	HasSubmission(ctx context.Context, groupID, judgeID string) (bool, error)
	CountSubmittedJudges(ctx context.Context, groupID string) (int, error)
	ListSubmissions(ctx context.Context, sessionID, groupID string) ([]models.ScoreSubmission, error)
}

// AuditRepository defines admin action log operations
type AuditRepository interface {
	LogAdminAction(ctx context.Context, sessionID, actionType string, details map[string]any) error
	ListAdminActions(ctx context.Context, sessionID string, limit int) ([]models.AdminAction, error)
}

// FullRepository combines all repository interfaces
// Use this when a service needs access to multiple domains
type FullRepository interface {
	SessionRepository
	DancerRepository
	MaterialRepository
	JudgeRepository
	GroupRepository
	ScoreRepository
	SubmissionRepository
	AuditRepository
	Ping(ctx context.Context) error
}

// Ensure Repository implements all interfaces
var _ FullRepository = (*Repository)(nil)

// PurgeResult reports what deleting a dancer touched
type PurgeResult struct {
	ScoresDeleted int64 `json:"scores_deleted"`
	GroupsUpdated int64 `json:"groups_updated"`
}
