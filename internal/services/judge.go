package services

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/joshuadwray/audition-scoring/internal/errors"
	"github.com/joshuadwray/audition-scoring/internal/logger"
	"github.com/joshuadwray/audition-scoring/internal/models"
	"github.com/joshuadwray/audition-scoring/internal/repository"
)

const maxPINAttempts = 10

// JudgeServiceRepository defines the repository methods needed by JudgeService
type JudgeServiceRepository interface {
	repository.JudgeRepository
	repository.AuditRepository
}

// JudgeService manages a session's judges
type JudgeService struct {
	log        logger.Logger
	repo       JudgeServiceRepository
	randReader io.Reader // for testing: defaults to crypto/rand.Reader
}

// NewJudgeService creates a new JudgeService
func NewJudgeService(log logger.Logger, repo JudgeServiceRepository) *JudgeService {
	return &JudgeService{
		log:        log,
		repo:       repo,
		randReader: rand.Reader,
	}
}

// SetRandReader sets a custom random reader (for testing)
func (s *JudgeService) SetRandReader(reader io.Reader) {
	s.randReader = reader
}

// ListJudges returns a session's judges, including deactivated ones
func (s *JudgeService) ListJudges(ctx context.Context, sessionID string) ([]models.Judge, error) {
	return s.repo.ListJudges(ctx, sessionID)
}

// CreateJudge adds an active judge with a generated PIN unique in the session
func (s *JudgeService) CreateJudge(ctx context.Context, sessionID, name string) (*models.Judge, error) {
	return s.create(ctx, sessionID, name, false)
}

// EnsureAdminJudge returns the session's active admin-judge, creating one
// when none exists. created reports whether a new judge was made.
func (s *JudgeService) EnsureAdminJudge(ctx context.Context, sessionID, name string) (judge *models.Judge, created bool, err error) {
	existing, err := s.repo.GetActiveAdminJudge(ctx, sessionID)
	if err == nil {
		return existing, false, nil
	}
	if err != repository.ErrNotFound {
		return nil, false, err
	}

	judge, err = s.create(ctx, sessionID, name, true)
	if err != nil {
		// Lost a race with a concurrent create; the winner is the admin-judge
		if errors.Is(err, errors.ErrConflict) {
			existing, getErr := s.repo.GetActiveAdminJudge(ctx, sessionID)
			if getErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}
	return judge, true, nil
}

func (s *JudgeService) create(ctx context.Context, sessionID, name string, adminJudge bool) (*models.Judge, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.Validation("Judge name is required")
	}

	for attempt := 1; attempt <= maxPINAttempts; attempt++ {
		pin, err := s.generatePIN()
		if err != nil {
			return nil, errors.Internal(err)
		}

		judge := &models.Judge{
			SessionID:    sessionID,
			Name:         name,
			JudgePIN:     pin,
			IsAdminJudge: adminJudge,
			IsActive:     true,
		}
		err = s.repo.CreateJudge(ctx, judge)
		if err == nil {
			s.log.Info("Judge created", "session_id", sessionID, "judge_id", judge.ID, "admin_judge", adminJudge)
			return judge, nil
		}
		if err != repository.ErrDuplicate {
			return nil, err
		}
		if adminJudge {
			// A PIN clash and an existing admin-judge look the same to the store
			if _, getErr := s.repo.GetActiveAdminJudge(ctx, sessionID); getErr == nil {
				return nil, errors.Conflict("An admin-judge already exists for this session")
			}
		}
		s.log.Debug("Generated PIN already in use, retrying", "attempt", attempt)
	}

	return nil, errors.Internalf("failed to generate unique PIN after %d attempts", maxPINAttempts)
}

// generatePIN returns a four-digit PIN in 1000-9999
func (s *JudgeService) generatePIN() (string, error) {
	var buf [2]byte
	if _, err := io.ReadFull(s.randReader, buf[:]); err != nil {
		return "", fmt.Errorf("failed to generate PIN: %w", err)
	}
	return fmt.Sprintf("%d", 1000+int(binary.BigEndian.Uint16(buf[:]))%9000), nil
}

// Deactivate soft-deletes a judge. Active-judge counts used for completion
// detection drop immediately.
func (s *JudgeService) Deactivate(ctx context.Context, sessionID, judgeID string) error {
	judge, err := s.repo.GetJudge(ctx, judgeID)
	if err != nil || judge.SessionID != sessionID {
		return notFound(orNotFound(err), "Judge")
	}
	if err := s.repo.DeactivateJudge(ctx, judgeID); err != nil {
		return notFound(err, "Judge")
	}
	if err := s.repo.LogAdminAction(ctx, sessionID, models.ActionDeactivate, map[string]any{
		"judge_id": judgeID,
		"name":     judge.Name,
	}); err != nil {
		s.log.Error("Failed to log admin action", "action", models.ActionDeactivate, "error", err)
	}
	s.log.Info("Judge deactivated", "session_id", sessionID, "judge_id", judgeID)
	return nil
}
