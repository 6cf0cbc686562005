package services

import (
	"context"
	"time"

	"github.com/joshuadwray/audition-scoring/internal/errors"
	"github.com/joshuadwray/audition-scoring/internal/logger"
	"github.com/joshuadwray/audition-scoring/internal/models"
	"github.com/joshuadwray/audition-scoring/internal/repository"
	"github.com/joshuadwray/audition-scoring/internal/scoring"
)

// SubmissionServiceRepository defines the repository methods needed by SubmissionService
type SubmissionServiceRepository interface {
	repository.ScoreRepository
	repository.SubmissionRepository
	repository.AuditRepository
	IsSessionLocked(ctx context.Context, id string) (bool, error)
	GetGroup(ctx context.Context, id string) (models.DancerGroup, error)
	GetJudge(ctx context.Context, id string) (*models.Judge, error)
}

// CompletionChecker re-evaluates whether an instance has every submission it needs
type CompletionChecker interface {
	CheckCompletion(ctx context.Context, instanceID string) (bool, error)
}

// SubmissionService accepts judges' score batches, enforces one submission
// per judge per instance and triggers completion detection
type SubmissionService struct {
	log        logger.Logger
	repo       SubmissionServiceRepository
	completion CompletionChecker
	notifier   Notifier
	metrics    Metrics
}

// NewSubmissionService creates a new SubmissionService
func NewSubmissionService(log logger.Logger, repo SubmissionServiceRepository, completion CompletionChecker, notifier Notifier, metrics Metrics) *SubmissionService {
	return &SubmissionService{
		log:        log,
		repo:       repo,
		completion: completion,
		notifier:   orNopNotifier(notifier),
		metrics:    orNopMetrics(metrics),
	}
}

// ScoreEntry is one dancer's values inside a submission batch
type ScoreEntry struct {
	DancerID string `json:"dancer_id"`
	models.ScoreValues
}

// SubmitResult reports an accepted submission
type SubmitResult struct {
	Submission     *models.ScoreSubmission `json:"submission"`
	ScoreCount     int                     `json:"score_count"`
	GroupCompleted bool                    `json:"group_completed"`
}

// Submit records a judge's scores for an instance. The batch is written in
// full or not at all, and a second submission by the same judge is a conflict.
func (s *SubmissionService) Submit(ctx context.Context, actor models.Identity, groupID string, entries []ScoreEntry) (*SubmitResult, error) {
	result, err := s.submit(ctx, actor, groupID, entries)
	s.metrics.ObserveSubmission(submissionOutcome(err))
	return result, err
}

func submissionOutcome(err error) string {
	switch {
	case err == nil:
		return OutcomeAccepted
	case err == ErrAlreadySubmitted:
		return OutcomeDuplicate
	case errors.Is(err, errors.ErrLocked):
		return OutcomeLocked
	}
	return OutcomeRejected
}

func (s *SubmissionService) submit(ctx context.Context, actor models.Identity, groupID string, entries []ScoreEntry) (*SubmitResult, error) {
	if !actor.CanScore() {
		return nil, errors.Unauthorized()
	}

	g, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		return nil, notFound(err, "Group")
	}
	inst, ok := g.(*models.Instance)
	if !ok {
		return nil, ErrNotAnInstance
	}
	if inst.SessionID != actor.SessionID {
		return nil, errors.Unauthorized()
	}

	if err := ensureUnlocked(ctx, s.repo, inst.SessionID); err != nil {
		return nil, err
	}
	if err := validateEntries(entries); err != nil {
		return nil, err
	}

	if !inst.Status.AcceptsScores() {
		return nil, ErrNotAcceptingScores
	}
	for _, e := range entries {
		if !inst.HasDancer(e.DancerID) {
			return nil, errors.Validationf("Dancer %s is not in this group", e.DancerID)
		}
	}

	judge, err := s.repo.GetJudge(ctx, actor.JudgeID)
	if err != nil || judge.SessionID != inst.SessionID || !judge.IsActive {
		if err != nil && err != repository.ErrNotFound {
			return nil, err
		}
		return nil, errors.Unauthorized()
	}

	// Fast path only: the store's unique (group, judge) pair is what closes the race
	has, err := s.repo.HasSubmission(ctx, inst.ID, judge.ID)
	if err != nil {
		return nil, err
	}
	if has {
		return nil, ErrAlreadySubmitted
	}

	scores := make([]models.Score, len(entries))
	for i, e := range entries {
		scores[i] = models.Score{DancerID: e.DancerID, ScoreValues: e.ScoreValues}
	}
	sub := &models.ScoreSubmission{GroupID: inst.ID, JudgeID: judge.ID, JudgeName: judge.Name}
	if err := s.repo.SubmitScores(ctx, sub, scores); err != nil {
		if err == repository.ErrDuplicate {
			return nil, ErrAlreadySubmitted
		}
		return nil, err
	}

	s.log.Info("Scores submitted", "session_id", inst.SessionID, "group_id", inst.ID,
		"judge_id", judge.ID, "scores", len(scores))
	s.notifier.Publish(changed(models.TableScoreSubmissions, models.OpInsert, inst.SessionID, sub.ID))

	result := &SubmitResult{Submission: sub, ScoreCount: len(scores)}
	if s.completion != nil {
		completed, err := s.completion.CheckCompletion(ctx, inst.ID)
		if err != nil {
			// The submission stands; the next submission or a manual check retries
			s.log.Error("Completion check failed", "group_id", inst.ID, "error", err)
		}
		result.GroupCompleted = completed
	}
	return result, nil
}

// validateEntries rejects empty batches, missing or repeated dancer
// references and any present value that is not a legal score
func validateEntries(entries []ScoreEntry) error {
	if len(entries) == 0 {
		return ErrScoresRequired
	}
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.DancerID == "" {
			return ErrDancerRefRequired
		}
		if seen[e.DancerID] {
			return errors.Validationf("Dancer %s appears more than once", e.DancerID)
		}
		seen[e.DancerID] = true
	}
	for _, e := range entries {
		if err := scoring.ValidateValues(e.ScoreValues); err != nil {
			return err
		}
	}
	return nil
}

// EditScore changes individual category values of a submitted score. Only
// the owning judge or an admin of the session may edit, and only while the
// session is unlocked.
func (s *SubmissionService) EditScore(ctx context.Context, actor models.Identity, scoreID string, patch models.ScoreValues) (*models.Score, error) {
	score, err := s.repo.GetScore(ctx, scoreID)
	if err != nil {
		return nil, notFound(err, "Score")
	}
	g, err := s.repo.GetGroup(ctx, score.GroupID)
	if err != nil {
		return nil, notFound(err, "Group")
	}
	sessionID := g.GroupSession()

	if actor.SessionID != sessionID || !(actor.IsAdmin() || actor.JudgeID == score.JudgeID) {
		return nil, errors.Unauthorized()
	}
	if err := ensureUnlocked(ctx, s.repo, sessionID); err != nil {
		return nil, err
	}
	if scoring.CountScoredCategories(patch) == 0 {
		return nil, errors.Validation("No score values to update")
	}
	if err := scoring.ValidateValues(patch); err != nil {
		return nil, err
	}

	values := score.ScoreValues.Merge(patch)
	if err := s.repo.UpdateScore(ctx, score.ID, values, time.Now().UTC()); err != nil {
		return nil, notFound(err, "Score")
	}

	if actor.IsAdmin() && actor.JudgeID != score.JudgeID {
		if err := s.repo.LogAdminAction(ctx, sessionID, models.ActionEditScore, map[string]any{
			"score_id": score.ID,
			"judge_id": score.JudgeID,
		}); err != nil {
			s.log.Error("Failed to log admin action", "action", models.ActionEditScore, "error", err)
		}
	}
	s.log.Info("Score edited", "score_id", score.ID, "by", actor.Role)

	return s.repo.GetScore(ctx, score.ID)
}

// ListScores returns scores matching f
func (s *SubmissionService) ListScores(ctx context.Context, f models.ScoreFilter) ([]models.Score, error) {
	return s.repo.ListScores(ctx, f)
}

// MyScores returns the caller's own scores in their session, optionally for one group
func (s *SubmissionService) MyScores(ctx context.Context, actor models.Identity, groupID string) ([]models.Score, error) {
	if !actor.CanScore() {
		return nil, errors.Unauthorized()
	}
	return s.repo.ListScores(ctx, models.ScoreFilter{SessionID: actor.SessionID, JudgeID: actor.JudgeID, GroupID: groupID})
}
