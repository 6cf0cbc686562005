package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"golang.org/x/crypto/bcrypt"

	"github.com/joshuadwray/audition-scoring/internal/errors"
	"github.com/joshuadwray/audition-scoring/internal/logger"
	"github.com/joshuadwray/audition-scoring/internal/models"
	"github.com/joshuadwray/audition-scoring/internal/repository"
)

var (
	adminPINPattern    = regexp.MustCompile(`^\d{6}$`)
	sessionCodePattern = regexp.MustCompile(`^[A-Za-z0-9-]{3,20}$`)
)

// SessionServiceRepository defines the repository methods needed by SessionService
type SessionServiceRepository interface {
	repository.SessionRepository
	repository.AuditRepository
}

// SessionService manages scoring sessions and their lock state
type SessionService struct {
	log      logger.Logger
	repo     SessionServiceRepository
	notifier Notifier
	baseURL  string
}

// NewSessionService creates a new SessionService. baseURL prefixes the judge
// join link encoded in session QR codes.
func NewSessionService(log logger.Logger, repo SessionServiceRepository, notifier Notifier, baseURL string) *SessionService {
	return &SessionService{
		log:      log,
		repo:     repo,
		notifier: orNopNotifier(notifier),
		baseURL:  strings.TrimSuffix(baseURL, "/"),
	}
}

// SessionInput holds the fields needed to create a session
type SessionInput struct {
	Name        string
	Date        string
	AdminPIN    string
	SessionCode string
}

// CreateSession validates and stores a new session with a hashed admin PIN
func (s *SessionService) CreateSession(ctx context.Context, in SessionInput) (*models.Session, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Date) == "" {
		return nil, errors.Validation("Name and date are required")
	}
	if !adminPINPattern.MatchString(in.AdminPIN) {
		return nil, ErrInvalidAdminPIN
	}
	if !sessionCodePattern.MatchString(in.SessionCode) {
		return nil, ErrInvalidSessionCode
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.AdminPIN), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Internal(err)
	}

	session := &models.Session{
		Name:        strings.TrimSpace(in.Name),
		Date:        in.Date,
		SessionCode: in.SessionCode,
		Status:      models.SessionSetup,
	}
	if err := s.repo.CreateSession(ctx, session, string(hash)); err != nil {
		if err == repository.ErrDuplicate {
			return nil, ErrSessionCodeTaken
		}
		return nil, err
	}

	s.log.Info("Session created", "session_id", session.ID, "code", session.SessionCode)
	return session, nil
}

// ListSessions returns every session, newest first
func (s *SessionService) ListSessions(ctx context.Context) ([]models.Session, error) {
	return s.repo.ListSessions(ctx)
}

// GetSession resolves a session by UUID or, failing that, by join code
func (s *SessionService) GetSession(ctx context.Context, idOrCode string) (*models.Session, error) {
	var (
		session *models.Session
		err     error
	)
	if _, parseErr := uuid.Parse(idOrCode); parseErr == nil {
		session, err = s.repo.GetSession(ctx, idOrCode)
	} else {
		session, err = s.repo.GetSessionByCode(ctx, idOrCode)
	}
	if err != nil {
		return nil, notFound(err, "Session")
	}
	return session, nil
}

// UpdateSession patches name, date or status
func (s *SessionService) UpdateSession(ctx context.Context, id string, u models.SessionUpdate) (*models.Session, error) {
	if u.Status != nil && !u.Status.Valid() {
		return nil, errors.Validationf("Invalid status: %s", *u.Status)
	}
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return nil, errors.Validation("Name cannot be empty")
	}
	if err := s.repo.UpdateSession(ctx, id, u); err != nil {
		return nil, notFound(err, "Session")
	}
	s.notifier.Publish(changed(models.TableSessions, models.OpUpdate, id, id))
	return s.GetSession(ctx, id)
}

// DeleteSession removes a session and everything it owns
func (s *SessionService) DeleteSession(ctx context.Context, id string) error {
	if err := s.repo.DeleteSession(ctx, id); err != nil {
		return notFound(err, "Session")
	}
	s.log.Info("Session deleted", "session_id", id)
	s.notifier.Publish(changed(models.TableSessions, models.OpDelete, id, id))
	return nil
}

// Lock freezes every score and group mutation in the session and marks it completed
func (s *SessionService) Lock(ctx context.Context, id string) (*models.Session, error) {
	return s.setLock(ctx, id, true)
}

// Unlock reopens a locked session and marks it active
func (s *SessionService) Unlock(ctx context.Context, id string) (*models.Session, error) {
	return s.setLock(ctx, id, false)
}

func (s *SessionService) setLock(ctx context.Context, id string, locked bool) (*models.Session, error) {
	status, action := models.SessionActive, models.ActionUnlockSession
	if locked {
		status, action = models.SessionCompleted, models.ActionLockSession
	}

	if err := s.repo.SetSessionLock(ctx, id, locked, status); err != nil {
		return nil, notFound(err, "Session")
	}
	if err := s.repo.LogAdminAction(ctx, id, action, nil); err != nil {
		s.log.Error("Failed to log admin action", "action", action, "error", err)
	}

	s.log.Info("Session lock changed", "session_id", id, "locked", locked)
	s.notifier.Publish(changed(models.TableSessions, models.OpUpdate, id, id))
	return s.GetSession(ctx, id)
}

// JoinURL returns the judge join link for a session
func (s *SessionService) JoinURL(session *models.Session) string {
	return fmt.Sprintf("%s/judge/%s", s.baseURL, session.SessionCode)
}

// JoinQR renders the judge join link as a PNG QR code
func (s *SessionService) JoinQR(ctx context.Context, idOrCode string) ([]byte, error) {
	if s.baseURL == "" {
		return nil, errors.Internalf("base URL not configured")
	}
	session, err := s.GetSession(ctx, idOrCode)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(s.JoinURL(session), qrcode.Medium, 256)
}

// AuditLog returns a session's admin actions, newest first
func (s *SessionService) AuditLog(ctx context.Context, sessionID string, limit int) ([]models.AdminAction, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.repo.ListAdminActions(ctx, sessionID, limit)
}
