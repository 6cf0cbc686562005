package services

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/joshuadwray/audition-scoring/internal/errors"
	"github.com/joshuadwray/audition-scoring/internal/logger"
	"github.com/joshuadwray/audition-scoring/internal/models"
	"github.com/joshuadwray/audition-scoring/internal/repository"
)

// Login outcomes reported to Metrics
const (
	LoginSuccess   = "success"
	LoginFailure   = "failure"
	LoginThrottled = "throttled"
)

// AccessServiceRepository defines the repository methods needed by AccessService
type AccessServiceRepository interface {
	GetSession(ctx context.Context, id string) (*models.Session, error)
	GetSessionByCode(ctx context.Context, code string) (*models.Session, error)
	GetSessionPINHash(ctx context.Context, id string) (string, error)
	GetActiveAdminJudge(ctx context.Context, sessionID string) (*models.Judge, error)
	FindActiveJudgeByPIN(ctx context.Context, sessionID, pin string) (*models.Judge, error)
}

// Issuer turns a verified identity into a bearer token
type Issuer interface {
	Issue(id models.Identity) (string, error)
	Revoke(token string)
}

// Limiter throttles login attempts per key
type Limiter interface {
	Allow(key string) bool
}

// LoginInput is a PIN login attempt. Session accepts a UUID or a join code.
type LoginInput struct {
	Session string
	Role    models.Role
	PIN     string
}

// LoginResult carries the issued token and what it grants
type LoginResult struct {
	Token       string          `json:"token"`
	Identity    models.Identity `json:"identity"`
	SessionName string          `json:"session_name"`
}

// AccessService verifies PINs and issues identities
type AccessService struct {
	log      logger.Logger
	repo     AccessServiceRepository
	sessions *SessionService
	issuer   Issuer
	limiter  Limiter
	metrics  Metrics
}

// NewAccessService creates a new AccessService. limiter may be nil to disable throttling.
func NewAccessService(log logger.Logger, repo AccessServiceRepository, sessions *SessionService, issuer Issuer, limiter Limiter, metrics Metrics) *AccessService {
	return &AccessService{
		log:      log,
		repo:     repo,
		sessions: sessions,
		issuer:   issuer,
		limiter:  limiter,
		metrics:  orNopMetrics(metrics),
	}
}

// Login checks a PIN for the requested role. Wrong PINs and inactive judges
// fail the same way so callers cannot tell which PINs exist.
func (s *AccessService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	if strings.TrimSpace(in.Session) == "" || in.PIN == "" {
		return nil, errors.Validation("Missing required fields")
	}
	if in.Role != models.RoleAdmin && in.Role != models.RoleJudge {
		return nil, errors.Validation("Invalid role")
	}

	session, err := s.sessions.GetSession(ctx, in.Session)
	if err != nil {
		return nil, err
	}

	if s.limiter != nil && !s.limiter.Allow(session.ID) {
		s.metrics.ObserveLogin(in.Role, LoginThrottled)
		s.log.Warn("PIN login throttled", "session_id", session.ID, "role", in.Role)
		return nil, errors.RateLimited()
	}

	var id *models.Identity
	if in.Role == models.RoleAdmin {
		id, err = s.verifyAdmin(ctx, session.ID, in.PIN)
	} else {
		id, err = s.verifyJudge(ctx, session.ID, in.PIN)
	}
	if err != nil {
		s.metrics.ObserveLogin(in.Role, LoginFailure)
		if errors.KindOf(err) == errors.ErrUnauthorized {
			s.log.Info("PIN login rejected", "session_id", session.ID, "role", in.Role)
		}
		return nil, err
	}

	token, err := s.issuer.Issue(*id)
	if err != nil {
		return nil, errors.Internal(err)
	}
	s.metrics.ObserveLogin(in.Role, LoginSuccess)
	s.log.Info("PIN login", "session_id", session.ID, "role", in.Role, "judge_id", id.JudgeID)

	return &LoginResult{Token: token, Identity: *id, SessionName: session.Name}, nil
}

func (s *AccessService) verifyAdmin(ctx context.Context, sessionID, pin string) (*models.Identity, error) {
	hash, err := s.repo.GetSessionPINHash(ctx, sessionID)
	if err != nil {
		return nil, notFound(err, "Session")
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin)) != nil {
		return nil, errors.Unauthorized()
	}

	id := &models.Identity{SessionID: sessionID, Role: models.RoleAdmin}
	judge, err := s.repo.GetActiveAdminJudge(ctx, sessionID)
	switch {
	case err == nil:
		id.JudgeID, id.JudgeName = judge.ID, judge.Name
	case err != repository.ErrNotFound:
		return nil, err
	}
	return id, nil
}

func (s *AccessService) verifyJudge(ctx context.Context, sessionID, pin string) (*models.Identity, error) {
	judge, err := s.repo.FindActiveJudgeByPIN(ctx, sessionID, pin)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, errors.Unauthorized()
		}
		return nil, err
	}
	return &models.Identity{
		SessionID: sessionID,
		Role:      models.RoleJudge,
		JudgeID:   judge.ID,
		JudgeName: judge.Name,
	}, nil
}

// Reissue mints a fresh token for an identity that changed, such as an admin
// who just became the session's admin-judge
func (s *AccessService) Reissue(id models.Identity) (string, error) {
	token, err := s.issuer.Issue(id)
	if err != nil {
		return "", errors.Internal(err)
	}
	return token, nil
}

// Logout revokes a token
func (s *AccessService) Logout(token string) {
	s.issuer.Revoke(token)
}
