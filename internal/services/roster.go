package services

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/joshuadwray/audition-scoring/internal/errors"
	"github.com/joshuadwray/audition-scoring/internal/logger"
	"github.com/joshuadwray/audition-scoring/internal/models"
	"github.com/joshuadwray/audition-scoring/internal/repository"
)

// RosterServiceRepository defines the repository methods needed by RosterService
type RosterServiceRepository interface {
	repository.DancerRepository
	repository.MaterialRepository
	repository.AuditRepository
	IsSessionLocked(ctx context.Context, id string) (bool, error)
}

// RosterService manages a session's dancers and materials
type RosterService struct {
	log      logger.Logger
	repo     RosterServiceRepository
	notifier Notifier
}

// NewRosterService creates a new RosterService
func NewRosterService(log logger.Logger, repo RosterServiceRepository, notifier Notifier) *RosterService {
	return &RosterService{log: log, repo: repo, notifier: orNopNotifier(notifier)}
}

// DancerInput describes a dancer to add
type DancerInput struct {
	DancerNumber int    `json:"dancer_number"`
	Name         string `json:"name"`
	Grade        *int   `json:"grade"`
}

// ImportFailure identifies the dancer that stopped a bulk import
type ImportFailure struct {
	Index        int    `json:"index"`
	DancerNumber int    `json:"dancer_number"`
	Error        string `json:"error"`
}

// ImportResult reports a bulk import. Dancers before the failure stay inserted.
type ImportResult struct {
	Imported []models.Dancer `json:"imported"`
	Failed   *ImportFailure  `json:"failed,omitempty"`
}

// ==================== Materials ====================

// CreateMaterial adds a named scoring context to a session
func (s *RosterService) CreateMaterial(ctx context.Context, sessionID, name string) (*models.Material, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.Validation("Material name is required")
	}
	m := &models.Material{SessionID: sessionID, Name: name}
	if err := s.repo.CreateMaterial(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// ListMaterials returns a session's materials
func (s *RosterService) ListMaterials(ctx context.Context, sessionID string) ([]models.Material, error) {
	return s.repo.ListMaterials(ctx, sessionID)
}

// ==================== Dancers ====================

// ListDancers returns a session's dancers ordered by number
func (s *RosterService) ListDancers(ctx context.Context, sessionID string) ([]models.Dancer, error) {
	return s.repo.ListDancers(ctx, sessionID)
}

// CreateDancer adds a single dancer
func (s *RosterService) CreateDancer(ctx context.Context, sessionID string, in DancerInput) (*models.Dancer, error) {
	if in.DancerNumber <= 0 || strings.TrimSpace(in.Name) == "" {
		return nil, errors.Validation("Dancer number and name are required")
	}
	d := &models.Dancer{
		SessionID:    sessionID,
		DancerNumber: in.DancerNumber,
		Name:         strings.TrimSpace(in.Name),
		Grade:        in.Grade,
	}
	if err := s.repo.CreateDancer(ctx, d); err != nil {
		if err == repository.ErrDuplicate {
			return nil, errors.Conflictf("Dancer #%d already exists in this session", in.DancerNumber)
		}
		return nil, err
	}
	return d, nil
}

// ImportDancers inserts dancers in order and stops at the first failure,
// keeping everything inserted before it
func (s *RosterService) ImportDancers(ctx context.Context, sessionID string, dancers []DancerInput) (*ImportResult, error) {
	if len(dancers) == 0 {
		return nil, errors.Validation("No dancers to import")
	}

	result := &ImportResult{Imported: []models.Dancer{}}
	for i, in := range dancers {
		d, err := s.CreateDancer(ctx, sessionID, in)
		if err != nil {
			if errors.KindOf(err) == errors.ErrInternal {
				s.log.Error("Dancer import failed", "session_id", sessionID, "dancer_number", in.DancerNumber, "error", err)
			}
			result.Failed = &ImportFailure{Index: i, DancerNumber: in.DancerNumber, Error: err.Error()}
			break
		}
		result.Imported = append(result.Imported, *d)
	}

	s.log.Info("Dancers imported", "session_id", sessionID, "count", len(result.Imported), "failed", result.Failed != nil)
	return result, nil
}

// ParseDancerCSV reads "number,name[,grade]" rows. A first row whose first
// column is not a number is treated as a header and skipped.
func ParseDancerCSV(r io.Reader) ([]DancerInput, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrValidation, "Invalid CSV")
	}

	var dancers []DancerInput
	for i, rec := range records {
		if len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "") {
			continue
		}
		number, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			if i == 0 {
				continue
			}
			return nil, errors.Validationf("Row %d: invalid dancer number %q", i+1, rec[0])
		}
		if len(rec) < 2 || strings.TrimSpace(rec[1]) == "" {
			return nil, errors.Validationf("Row %d: name is required", i+1)
		}

		in := DancerInput{DancerNumber: number, Name: strings.TrimSpace(rec[1])}
		if len(rec) > 2 {
			if grade, err := strconv.Atoi(strings.TrimSpace(rec[2])); err == nil {
				in.Grade = &grade
			}
		}
		dancers = append(dancers, in)
	}
	return dancers, nil
}

// DeleteDancer removes a dancer and prunes it from every group roster.
// A dancer with scores is only removed when force is set, and its scores go with it.
func (s *RosterService) DeleteDancer(ctx context.Context, sessionID, dancerID string, force bool) (*repository.PurgeResult, error) {
	if err := ensureUnlocked(ctx, s.repo, sessionID); err != nil {
		return nil, err
	}
	dancer, err := s.repo.GetDancer(ctx, dancerID)
	if err != nil || dancer.SessionID != sessionID {
		return nil, notFound(orNotFound(err), "Dancer")
	}

	count, err := s.repo.CountScoresForDancer(ctx, dancerID)
	if err != nil {
		return nil, err
	}
	if count > 0 && !force {
		return nil, errors.Conflict("This dancer has scores. Use force=true to delete dancer and all their scores.").
			WithDetail("has_scores", true).
			WithDetail("score_count", count)
	}

	result, err := s.repo.PurgeDancer(ctx, sessionID, dancerID)
	if err != nil {
		return nil, notFound(err, "Dancer")
	}
	if err := s.repo.LogAdminAction(ctx, sessionID, models.ActionDeleteDancer, map[string]any{
		"dancer_id":      dancerID,
		"dancer_number":  dancer.DancerNumber,
		"scores_deleted": result.ScoresDeleted,
	}); err != nil {
		s.log.Error("Failed to log admin action", "action", models.ActionDeleteDancer, "error", err)
	}

	s.log.Info("Dancer deleted", "session_id", sessionID, "dancer_number", dancer.DancerNumber,
		"scores_deleted", result.ScoresDeleted, "groups_updated", result.GroupsUpdated)
	if result.GroupsUpdated > 0 {
		s.notifier.Publish(changed(models.TableDancerGroups, models.OpUpdate, sessionID, ""))
	}
	return &result, nil
}

// orNotFound maps a nil error from a lookup that matched the wrong session
// onto ErrNotFound
func orNotFound(err error) error {
	if err == nil {
		return repository.ErrNotFound
	}
	return err
}
