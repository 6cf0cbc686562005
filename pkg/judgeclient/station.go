package judgeclient

import (
	"context"
	"sync"

	"github.com/joshuadwray/audition-scoring/internal/errors"
	"github.com/joshuadwray/audition-scoring/internal/logger"
	"github.com/joshuadwray/audition-scoring/internal/models"
	"github.com/joshuadwray/audition-scoring/internal/services"
)

// Station is one judge's client session. It owns the judge's drafts: a
// draft is opened when a group becomes current and dropped after a
// successful submission or once the group is found retracted or gone.
type Station struct {
	client   Client
	log      logger.Logger
	identity models.Identity
	drafts   *DraftStore

	mu      sync.RWMutex
	current *services.CurrentGroup
}

// NewStation creates a station for an already signed-in judge
func NewStation(client Client, identity models.Identity, log logger.Logger) *Station {
	return &Station{
		client:   client,
		log:      log,
		identity: identity,
		drafts:   NewDraftStore(),
	}
}

// Login signs a judge in and returns a station for them
func Login(ctx context.Context, client Client, session, pin string, log logger.Logger) (*Station, error) {
	result, err := client.Login(ctx, session, pin)
	if err != nil {
		return nil, err
	}
	return NewStation(client, result.Identity, log), nil
}

// Identity returns the judge the station acts for
func (s *Station) Identity() models.Identity {
	return s.identity
}

// Drafts exposes the station's draft store
func (s *Station) Drafts() *DraftStore {
	return s.drafts
}

// Current returns the group view from the last reconcile
func (s *Station) Current() *services.CurrentGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Station) key(groupID string) DraftKey {
	return DraftKey{GroupID: groupID, JudgeID: s.identity.JudgeID}
}

// Reconcile re-fetches the current group from the server, opens a draft for
// it when the judge still has to score it and drops drafts of groups that
// were retracted, removed or already submitted.
func (s *Station) Reconcile(ctx context.Context) error {
	current, err := s.client.CurrentGroup(ctx, s.identity.SessionID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.current = current
	s.mu.Unlock()

	var openKey DraftKey
	if inst := current.Instance; inst != nil {
		key := s.key(inst.ID)
		if current.Submitted {
			s.drafts.Drop(key)
		} else if inst.Status.AcceptsScores() {
			openKey = key
			if s.drafts.Open(key) {
				s.log.Debug("Draft opened", "group_id", inst.ID)
			}
		}
	}

	for _, key := range s.drafts.Keys() {
		if key == openKey {
			continue
		}
		inst, err := s.client.Instance(ctx, s.identity.SessionID, key.GroupID)
		switch {
		case HasCode(err, CodeNotFound):
			s.dropDraft(key, "removed")
		case err != nil:
			return err
		case inst.Status == models.GroupRetracted:
			s.dropDraft(key, "retracted")
		}
	}
	return nil
}

func (s *Station) dropDraft(key DraftKey, reason string) {
	if s.drafts.Drop(key) {
		s.log.Info("Draft discarded", "group_id", key.GroupID, "reason", reason)
	}
}

// SetScore updates the current group's draft. A nil value clears the category.
func (s *Station) SetScore(dancerID string, c models.Category, v *float64) error {
	current := s.Current()
	if current == nil || current.Instance == nil {
		return errors.NotFound("No group to score")
	}
	if !current.Instance.HasDancer(dancerID) {
		return errors.Validationf("Dancer %s is not in this group", dancerID)
	}
	return s.drafts.Set(s.key(current.Instance.ID), dancerID, c, v)
}

// Draft returns the current group's draft
func (s *Station) Draft() (ScoreDraft, bool) {
	current := s.Current()
	if current == nil || current.Instance == nil {
		return nil, false
	}
	return s.drafts.Get(s.key(current.Instance.ID))
}

// Submit sends the current group's draft. Every dancer on the roster must
// be fully scored first. The draft is dropped once the server accepts it.
func (s *Station) Submit(ctx context.Context) (*services.SubmitResult, error) {
	current := s.Current()
	if current == nil || current.Instance == nil {
		return nil, errors.NotFound("No group to score")
	}
	key := s.key(current.Instance.ID)
	draft, ok := s.drafts.Get(key)
	if !ok {
		return nil, errors.Conflict("Scores already submitted for this group")
	}

	ids := make([]string, len(current.Dancers))
	for i, d := range current.Dancers {
		ids[i] = d.ID
	}
	if missing := draft.Missing(ids); len(missing) > 0 {
		return nil, errors.Validationf("%d dancer(s) still need scores", len(missing)).WithDetail("dancer_ids", missing)
	}

	entries := make([]services.ScoreEntry, len(ids))
	for i, id := range ids {
		entries[i] = services.ScoreEntry{DancerID: id, ScoreValues: draft[id]}
	}

	result, err := s.client.Submit(ctx, s.identity.SessionID, key.GroupID, entries)
	if err != nil {
		if HasCode(err, CodeConflict) {
			// Either submitted elsewhere or no longer accepting scores
			if rerr := s.Reconcile(ctx); rerr != nil {
				s.log.Warn("Reconcile after rejected submission failed", "error", rerr)
			}
		}
		return nil, err
	}

	s.drafts.Drop(key)
	s.mu.Lock()
	if s.current != nil && s.current.Instance != nil && s.current.Instance.ID == key.GroupID {
		s.current.Submitted = true
	}
	s.mu.Unlock()

	s.log.Info("Scores submitted", "group_id", key.GroupID, "scores", result.ScoreCount, "completed", result.GroupCompleted)
	return result, nil
}

// Run reconciles once, then again after every change event until events
// closes or ctx ends. Reconcile failures are logged and retried on the next
// event.
func (s *Station) Run(ctx context.Context, events <-chan models.ChangeEvent) error {
	if err := s.Reconcile(ctx); err != nil {
		s.log.Warn("Initial reconcile failed", "error", err)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			s.log.Debug("Change received", "table", ev.Table, "op", ev.Op, "row_id", ev.RowID)
			if err := s.Reconcile(ctx); err != nil {
				s.log.Warn("Reconcile failed", "error", err)
			}
		}
	}
}
