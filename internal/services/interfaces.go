package services

import (
	"context"

	"github.com/joshuadwray/audition-scoring/internal/models"
	"github.com/joshuadwray/audition-scoring/internal/repository"
)

// SessionServicer defines the interface for session operations
type SessionServicer interface {
	CreateSession(ctx context.Context, in SessionInput) (*models.Session, error)
	ListSessions(ctx context.Context) ([]models.Session, error)
	GetSession(ctx context.Context, idOrCode string) (*models.Session, error)
	UpdateSession(ctx context.Context, id string, u models.SessionUpdate) (*models.Session, error)
	DeleteSession(ctx context.Context, id string) error
	Lock(ctx context.Context, id string) (*models.Session, error)
	Unlock(ctx context.Context, id string) (*models.Session, error)
	JoinURL(session *models.Session) string
	JoinQR(ctx context.Context, idOrCode string) ([]byte, error)
	AuditLog(ctx context.Context, sessionID string, limit int) ([]models.AdminAction, error)
}

// RosterServicer defines the interface for dancer and material operations
type RosterServicer interface {
	CreateMaterial(ctx context.Context, sessionID, name string) (*models.Material, error)
	ListMaterials(ctx context.Context, sessionID string) ([]models.Material, error)
	ListDancers(ctx context.Context, sessionID string) ([]models.Dancer, error)
	CreateDancer(ctx context.Context, sessionID string, in DancerInput) (*models.Dancer, error)
	ImportDancers(ctx context.Context, sessionID string, dancers []DancerInput) (*ImportResult, error)
	DeleteDancer(ctx context.Context, sessionID, dancerID string, force bool) (*repository.PurgeResult, error)
}

// JudgeServicer defines the interface for judge operations
type JudgeServicer interface {
	ListJudges(ctx context.Context, sessionID string) ([]models.Judge, error)
	CreateJudge(ctx context.Context, sessionID, name string) (*models.Judge, error)
	EnsureAdminJudge(ctx context.Context, sessionID, name string) (*models.Judge, bool, error)
	Deactivate(ctx context.Context, sessionID, judgeID string) error
}

// GroupServicer defines the interface for group lifecycle operations
type GroupServicer interface {
	CompletionChecker
	GetGroup(ctx context.Context, id string) (models.DancerGroup, error)
	ListGroups(ctx context.Context, f models.GroupFilter) ([]models.DancerGroup, error)
	CurrentGroup(ctx context.Context, viewer models.Identity) (*CurrentGroup, error)
	Progress(ctx context.Context, instanceID string) (*GroupProgress, error)
	CreateTemplate(ctx context.Context, actor models.Identity, sessionID string, in TemplateInput) (*models.Template, error)
	Push(ctx context.Context, actor models.Identity, in PushInput) (*models.Instance, error)
	Activate(ctx context.Context, actor models.Identity, instanceID string) (*models.Instance, error)
	Retract(ctx context.Context, actor models.Identity, instanceID string, deleteScores bool) (*RetractResult, error)
	Archive(ctx context.Context, actor models.Identity, templateID string) (int64, error)
}

// SubmissionServicer defines the interface for score operations
type SubmissionServicer interface {
	Submit(ctx context.Context, actor models.Identity, groupID string, entries []ScoreEntry) (*SubmitResult, error)
	EditScore(ctx context.Context, actor models.Identity, scoreID string, patch models.ScoreValues) (*models.Score, error)
	ListScores(ctx context.Context, f models.ScoreFilter) ([]models.Score, error)
	MyScores(ctx context.Context, actor models.Identity, groupID string) ([]models.Score, error)
}

// ResultsServicer defines the interface for ranking operations
type ResultsServicer interface {
	GetResults(ctx context.Context, sessionID, materialID string) (*ResultSet, error)
}

// AccessServicer defines the interface for PIN login
type AccessServicer interface {
	Login(ctx context.Context, in LoginInput) (*LoginResult, error)
	Reissue(id models.Identity) (string, error)
	Logout(token string)
}

// Ensure concrete types implement interfaces
var (
	_ SessionServicer    = (*SessionService)(nil)
	_ RosterServicer     = (*RosterService)(nil)
	_ JudgeServicer      = (*JudgeService)(nil)
	_ GroupServicer      = (*GroupService)(nil)
	_ SubmissionServicer = (*SubmissionService)(nil)
	_ ResultsServicer    = (*ResultsService)(nil)
	_ AccessServicer     = (*AccessService)(nil)
)

// Ensure the store satisfies every service's repository
var (
	_ SessionServiceRepository    = (*repository.Repository)(nil)
	_ RosterServiceRepository     = (*repository.Repository)(nil)
	_ JudgeServiceRepository      = (*repository.Repository)(nil)
	_ GroupServiceRepository      = (*repository.Repository)(nil)
	_ SubmissionServiceRepository = (*repository.Repository)(nil)
	_ ResultsServiceRepository    = (*repository.Repository)(nil)
	_ AccessServiceRepository     = (*repository.Repository)(nil)
)
