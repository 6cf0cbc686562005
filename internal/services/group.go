package services

import (
	"context"
	"time"

	"github.com/joshuadwray/audition-scoring/internal/errors"
	"github.com/joshuadwray/audition-scoring/internal/logger"
	"github.com/joshuadwray/audition-scoring/internal/models"
	"github.com/joshuadwray/audition-scoring/internal/repository"
)

// GroupServiceRepository defines the repository methods needed by GroupService
type GroupServiceRepository interface {
	repository.GroupRepository
	repository.SubmissionRepository
	repository.AuditRepository
	IsSessionLocked(ctx context.Context, id string) (bool, error)
	ListDancers(ctx context.Context, sessionID string) ([]models.Dancer, error)
	GetMaterial(ctx context.Context, id string) (*models.Material, error)
	CountActiveJudges(ctx context.Context, sessionID string) (int, error)
}

// GroupService drives dancer groups through their lifecycle: templates are
// pushed into instances, which move queued -> active -> completed and may be
// retracted at any point.
type GroupService struct {
	log      logger.Logger
	repo     GroupServiceRepository
	notifier Notifier
	metrics  Metrics
	now      func() time.Time
}

// NewGroupService creates a new GroupService
func NewGroupService(log logger.Logger, repo GroupServiceRepository, notifier Notifier, metrics Metrics) *GroupService {
	return &GroupService{
		log:      log,
		repo:     repo,
		notifier: orNopNotifier(notifier),
		metrics:  orNopMetrics(metrics),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// TemplateInput describes a template to create. A nil GroupNumber takes the
// next free number.
type TemplateInput struct {
	GroupNumber *int
	DancerIDs   []string
}

// PushInput selects the template and material for a push
type PushInput struct {
	TemplateID string
	MaterialID string
	Queue      bool
}

// RetractResult reports a retraction
type RetractResult struct {
	Instance      *models.Instance `json:"instance"`
	ScoresDeleted int64            `json:"scores_deleted"`
}

// CurrentGroup is the judge-facing view of the current work
type CurrentGroup struct {
	Instance  *models.Instance `json:"instance"`
	Material  *models.Material `json:"material,omitempty"`
	Dancers   []models.Dancer  `json:"dancers"`
	Submitted bool             `json:"submitted"`
}

// GroupProgress compares submissions against the active judge count
type GroupProgress struct {
	GroupID        string                   `json:"group_id"`
	Status         models.GroupStatus       `json:"status"`
	ActiveJudges   int                      `json:"active_judges"`
	SubmittedCount int                      `json:"submitted_count"`
	Submissions    []models.ScoreSubmission `json:"submissions"`
}

// ==================== Reads ====================

// GetGroup returns a template or instance
func (s *GroupService) GetGroup(ctx context.Context, id string) (models.DancerGroup, error) {
	g, err := s.repo.GetGroup(ctx, id)
	if err != nil {
		return nil, notFound(err, "Group")
	}
	return g, nil
}

// ListGroups returns groups matching f
func (s *GroupService) ListGroups(ctx context.Context, f models.GroupFilter) ([]models.DancerGroup, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, errors.Validationf("Invalid status: %s", f.Status)
	}
	return s.repo.ListGroups(ctx, f)
}

// CurrentGroup returns the most recently pushed active instance with its
// roster. Instance is nil when nothing is active.
func (s *GroupService) CurrentGroup(ctx context.Context, viewer models.Identity) (*CurrentGroup, error) {
	inst, err := s.repo.LatestActiveInstance(ctx, viewer.SessionID)
	if err == repository.ErrNotFound {
		return &CurrentGroup{Dancers: []models.Dancer{}}, nil
	}
	if err != nil {
		return nil, err
	}

	current := &CurrentGroup{Instance: inst}
	if current.Material, err = s.repo.GetMaterial(ctx, inst.MaterialID); err != nil && err != repository.ErrNotFound {
		return nil, err
	}
	if current.Dancers, err = s.rosterDancers(ctx, inst); err != nil {
		return nil, err
	}
	if viewer.JudgeID != "" {
		if current.Submitted, err = s.repo.HasSubmission(ctx, inst.ID, viewer.JudgeID); err != nil {
			return nil, err
		}
	}
	return current, nil
}

// rosterDancers resolves an instance's dancer IDs in roster order, skipping
// IDs that no longer exist
func (s *GroupService) rosterDancers(ctx context.Context, inst *models.Instance) ([]models.Dancer, error) {
	all, err := s.repo.ListDancers(ctx, inst.SessionID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]models.Dancer, len(all))
	for _, d := range all {
		byID[d.ID] = d
	}
	dancers := make([]models.Dancer, 0, len(inst.DancerIDs))
	for _, id := range inst.DancerIDs {
		if d, ok := byID[id]; ok {
			dancers = append(dancers, d)
		}
	}
	return dancers, nil
}

// Progress reports how many active judges have submitted for an instance
func (s *GroupService) Progress(ctx context.Context, instanceID string) (*GroupProgress, error) {
	inst, err := s.getInstance(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	active, err := s.repo.CountActiveJudges(ctx, inst.SessionID)
	if err != nil {
		return nil, err
	}
	submitted, err := s.repo.CountSubmittedJudges(ctx, inst.ID)
	if err != nil {
		return nil, err
	}
	subs, err := s.repo.ListSubmissions(ctx, inst.SessionID, inst.ID)
	if err != nil {
		return nil, err
	}
	return &GroupProgress{
		GroupID:        inst.ID,
		Status:         inst.Status,
		ActiveJudges:   active,
		SubmittedCount: submitted,
		Submissions:    subs,
	}, nil
}

// ==================== Mutations ====================

// CreateTemplate stores a reusable roster
func (s *GroupService) CreateTemplate(ctx context.Context, actor models.Identity, sessionID string, in TemplateInput) (*models.Template, error) {
	if err := requireAdmin(actor, sessionID); err != nil {
		return nil, err
	}
	if err := ensureUnlocked(ctx, s.repo, sessionID); err != nil {
		return nil, err
	}
	if len(in.DancerIDs) == 0 {
		return nil, errors.Validation("A group needs at least one dancer")
	}
	if err := s.checkRoster(ctx, sessionID, in.DancerIDs); err != nil {
		return nil, err
	}

	tmpl := &models.Template{SessionID: sessionID, DancerIDs: in.DancerIDs}
	if in.GroupNumber != nil {
		if *in.GroupNumber <= 0 {
			return nil, errors.Validation("Group number must be positive")
		}
		tmpl.GroupNumber = *in.GroupNumber
	} else {
		next, err := s.repo.NextGroupNumber(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		tmpl.GroupNumber = next
	}

	if err := s.repo.CreateTemplate(ctx, tmpl); err != nil {
		if err == repository.ErrDuplicate {
			return nil, errors.Conflictf("Group %d already exists in this session", tmpl.GroupNumber)
		}
		return nil, err
	}

	s.log.Info("Group template created", "session_id", sessionID, "group_number", tmpl.GroupNumber, "dancers", len(tmpl.DancerIDs))
	s.notifier.Publish(changed(models.TableDancerGroups, models.OpInsert, sessionID, tmpl.ID))
	return tmpl, nil
}

// checkRoster rejects unknown or repeated dancer IDs
func (s *GroupService) checkRoster(ctx context.Context, sessionID string, ids []string) error {
	dancers, err := s.repo.ListDancers(ctx, sessionID)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(dancers))
	for _, d := range dancers {
		known[d.ID] = true
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !known[id] {
			return errors.Validationf("Dancer %s is not in this session", id)
		}
		if seen[id] {
			return errors.Validationf("Dancer %s is listed twice", id)
		}
		seen[id] = true
	}
	return nil
}

// Push clones a template's roster into a new instance bound to a material.
// The instance starts active unless Queue is set. Other active instances are
// left untouched.
func (s *GroupService) Push(ctx context.Context, actor models.Identity, in PushInput) (*models.Instance, error) {
	if in.MaterialID == "" {
		return nil, ErrMaterialRequired
	}
	g, err := s.GetGroup(ctx, in.TemplateID)
	if err != nil {
		return nil, err
	}
	tmpl, ok := g.(*models.Template)
	if !ok {
		return nil, errors.Validation("Only templates can be pushed")
	}
	if err := requireAdmin(actor, tmpl.SessionID); err != nil {
		return nil, err
	}
	if err := ensureUnlocked(ctx, s.repo, tmpl.SessionID); err != nil {
		return nil, err
	}
	if tmpl.IsArchived {
		return nil, errors.Conflict("Archived groups cannot be pushed")
	}

	material, err := s.repo.GetMaterial(ctx, in.MaterialID)
	if err != nil || material.SessionID != tmpl.SessionID {
		return nil, notFound(orNotFound(err), "Material")
	}

	inst := &models.Instance{
		SessionID:  tmpl.SessionID,
		Template:   models.TemplateRef{ID: tmpl.ID, GroupNumber: tmpl.GroupNumber},
		MaterialID: material.ID,
		DancerIDs:  append([]string(nil), tmpl.DancerIDs...),
		Status:     models.GroupActive,
	}
	if in.Queue {
		inst.Status = models.GroupQueued
	} else {
		at := s.now()
		inst.PushedAt = &at
	}
	if err := s.repo.CreateInstance(ctx, inst); err != nil {
		return nil, err
	}

	s.audit(ctx, tmpl.SessionID, models.ActionPushGroup, map[string]any{
		"group_id":     inst.ID,
		"template_id":  tmpl.ID,
		"group_number": tmpl.GroupNumber,
		"material_id":  material.ID,
		"status":       string(inst.Status),
	})
	s.metrics.ObservePush()
	s.metrics.ObserveTransition(inst.Status)
	s.log.Info("Group pushed", "session_id", tmpl.SessionID, "group_id", inst.ID,
		"group_number", tmpl.GroupNumber, "material", material.Name, "status", inst.Status)
	s.notifier.Publish(changed(models.TableDancerGroups, models.OpInsert, tmpl.SessionID, inst.ID))
	return inst, nil
}

// Activate moves a queued instance to active and stamps pushed_at
func (s *GroupService) Activate(ctx context.Context, actor models.Identity, instanceID string) (*models.Instance, error) {
	inst, err := s.mutableInstance(ctx, actor, instanceID)
	if err != nil {
		return nil, err
	}
	if !inst.Status.CanTransition(models.GroupActive) {
		return nil, errors.Conflictf("Cannot activate a %s group", inst.Status)
	}

	ok, err := s.repo.ActivateInstance(ctx, inst.ID, s.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Conflict("Group is no longer queued")
	}

	s.audit(ctx, inst.SessionID, models.ActionActivateGroup, map[string]any{"group_id": inst.ID})
	s.metrics.ObserveTransition(models.GroupActive)
	s.notifier.Publish(changed(models.TableDancerGroups, models.OpUpdate, inst.SessionID, inst.ID))
	return s.getInstance(ctx, inst.ID)
}

// Retract withdraws an instance from judging. With deleteScores its scores
// and submissions are removed; otherwise they stay for results. Retracting
// an already retracted instance only performs the score deletion.
func (s *GroupService) Retract(ctx context.Context, actor models.Identity, instanceID string, deleteScores bool) (*RetractResult, error) {
	inst, err := s.mutableInstance(ctx, actor, instanceID)
	if err != nil {
		return nil, err
	}
	if inst.Status != models.GroupRetracted && !inst.Status.CanTransition(models.GroupRetracted) {
		return nil, errors.Conflictf("Cannot retract a %s group", inst.Status)
	}

	deleted, err := s.repo.RetractInstance(ctx, inst.ID, deleteScores)
	if err != nil {
		return nil, notFound(err, "Group")
	}

	s.audit(ctx, inst.SessionID, models.ActionRetractGroup, map[string]any{
		"group_id":       inst.ID,
		"delete_scores":  deleteScores,
		"scores_deleted": deleted,
	})
	s.metrics.ObserveTransition(models.GroupRetracted)
	s.log.Info("Group retracted", "session_id", inst.SessionID, "group_id", inst.ID,
		"delete_scores", deleteScores, "scores_deleted", deleted)
	s.notifier.Publish(changed(models.TableDancerGroups, models.OpUpdate, inst.SessionID, inst.ID))

	updated, err := s.getInstance(ctx, inst.ID)
	if err != nil {
		return nil, err
	}
	return &RetractResult{Instance: updated, ScoresDeleted: deleted}, nil
}

// Archive hides a template and every instance sharing its number. Rows and
// scores are kept.
func (s *GroupService) Archive(ctx context.Context, actor models.Identity, templateID string) (int64, error) {
	g, err := s.GetGroup(ctx, templateID)
	if err != nil {
		return 0, err
	}
	tmpl, ok := g.(*models.Template)
	if !ok {
		return 0, ErrNotATemplate
	}
	if err := requireAdmin(actor, tmpl.SessionID); err != nil {
		return 0, err
	}
	if err := ensureUnlocked(ctx, s.repo, tmpl.SessionID); err != nil {
		return 0, err
	}

	n, err := s.repo.ArchiveGroupFamily(ctx, tmpl.SessionID, tmpl.GroupNumber)
	if err != nil {
		return 0, err
	}

	s.audit(ctx, tmpl.SessionID, models.ActionArchiveGroup, map[string]any{
		"template_id":  tmpl.ID,
		"group_number": tmpl.GroupNumber,
		"archived":     n,
	})
	s.log.Info("Group archived", "session_id", tmpl.SessionID, "group_number", tmpl.GroupNumber, "rows", n)
	s.notifier.Publish(changed(models.TableDancerGroups, models.OpUpdate, tmpl.SessionID, tmpl.ID))
	return n, nil
}

// CheckCompletion completes an active instance once every currently active
// judge has submitted. The active-judge count and the submission count are
// separate reads, so a judge deactivated between them can leave the group
// active until the next check. A locked session's groups are left as they are.
func (s *GroupService) CheckCompletion(ctx context.Context, instanceID string) (bool, error) {
	inst, err := s.getInstance(ctx, instanceID)
	if err != nil {
		return false, err
	}
	if inst.Status != models.GroupActive {
		return false, nil
	}
	locked, err := s.repo.IsSessionLocked(ctx, inst.SessionID)
	if err != nil {
		return false, err
	}
	if locked {
		s.log.Debug("Completion check skipped on locked session", "group_id", inst.ID)
		return false, nil
	}

	active, err := s.repo.CountActiveJudges(ctx, inst.SessionID)
	if err != nil {
		return false, err
	}
	submitted, err := s.repo.CountSubmittedJudges(ctx, inst.ID)
	if err != nil {
		return false, err
	}
	if active == 0 || submitted < active {
		s.log.Debug("Group not complete", "group_id", inst.ID, "submitted", submitted, "active_judges", active)
		return false, nil
	}

	ok, err := s.repo.CompleteInstance(ctx, inst.ID, s.now())
	if err != nil || !ok {
		return false, err
	}

	s.metrics.ObserveTransition(models.GroupCompleted)
	s.log.Info("Group completed", "session_id", inst.SessionID, "group_id", inst.ID, "judges", submitted)
	s.notifier.Publish(changed(models.TableDancerGroups, models.OpUpdate, inst.SessionID, inst.ID))
	return true, nil
}

// ==================== Helpers ====================

func (s *GroupService) getInstance(ctx context.Context, id string) (*models.Instance, error) {
	g, err := s.GetGroup(ctx, id)
	if err != nil {
		return nil, err
	}
	inst, ok := g.(*models.Instance)
	if !ok {
		return nil, ErrNotAnInstance
	}
	return inst, nil
}

// mutableInstance loads an instance the actor may change in an unlocked session
func (s *GroupService) mutableInstance(ctx context.Context, actor models.Identity, id string) (*models.Instance, error) {
	inst, err := s.getInstance(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireAdmin(actor, inst.SessionID); err != nil {
		return nil, err
	}
	if err := ensureUnlocked(ctx, s.repo, inst.SessionID); err != nil {
		return nil, err
	}
	return inst, nil
}

func (s *GroupService) audit(ctx context.Context, sessionID, action string, details map[string]any) {
	if err := s.repo.LogAdminAction(ctx, sessionID, action, details); err != nil {
		s.log.Error("Failed to log admin action", "action", action, "error", err)
	}
}
