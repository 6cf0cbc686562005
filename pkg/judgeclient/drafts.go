package judgeclient

import (
	"sort"
	"sync"

	"github.com/joshuadwray/audition-scoring/internal/errors"
	"github.com/joshuadwray/audition-scoring/internal/models"
	"github.com/joshuadwray/audition-scoring/internal/scoring"
)

// DraftKey scopes a draft to one judge scoring one pushed group
type DraftKey struct {
	GroupID string
	JudgeID string
}

// ScoreDraft holds unsubmitted values by dancer ID
type ScoreDraft map[string]models.ScoreValues

// Complete reports whether every listed dancer has all categories filled
func (d ScoreDraft) Complete(dancerIDs []string) bool {
	for _, id := range dancerIDs {
		if !scoring.IsScoreComplete(d[id]) {
			return false
		}
	}
	return true
}

// Missing returns the listed dancers whose scores are incomplete
func (d ScoreDraft) Missing(dancerIDs []string) []string {
	var missing []string
	for _, id := range dancerIDs {
		if !scoring.IsScoreComplete(d[id]) {
			missing = append(missing, id)
		}
	}
	return missing
}

// DraftStore keeps a station's drafts. It is owned by one Station and never
// shared across judges.
type DraftStore struct {
	mu     sync.Mutex
	drafts map[DraftKey]ScoreDraft
}

// NewDraftStore creates an empty store
func NewDraftStore() *DraftStore {
	return &DraftStore{drafts: make(map[DraftKey]ScoreDraft)}
}

// Open starts a draft for key and reports whether it was created.
// An existing draft is left as is.
func (s *DraftStore) Open(key DraftKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.drafts[key]; ok {
		return false
	}
	s.drafts[key] = make(ScoreDraft)
	return true
}

// Set records one category value for a dancer. A nil value clears it.
func (s *DraftStore) Set(key DraftKey, dancerID string, c models.Category, v *float64) error {
	if v != nil && !scoring.IsValidScore(*v) {
		return errors.Validationf("Invalid score for %s: must be 1-5 in 0.5 increments", c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	draft, ok := s.drafts[key]
	if !ok {
		return errors.NotFound("No open draft for this group")
	}

	values := draft[dancerID]
	if v != nil {
		val := *v
		v = &val
	}
	values.Set(c, v)
	draft[dancerID] = values
	return nil
}

// Get returns a copy of the draft for key
func (s *DraftStore) Get(key DraftKey) (ScoreDraft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	draft, ok := s.drafts[key]
	if !ok {
		return nil, false
	}
	out := make(ScoreDraft, len(draft))
	for id, v := range draft {
		out[id] = v
	}
	return out, true
}

// Drop discards the draft for key and reports whether one existed
func (s *DraftStore) Drop(key DraftKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.drafts[key]
	delete(s.drafts, key)
	return ok
}

// Keys lists open drafts ordered by group ID
func (s *DraftStore) Keys() []DraftKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]DraftKey, 0, len(s.drafts))
	for k := range s.drafts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].GroupID != keys[j].GroupID {
			return keys[i].GroupID < keys[j].GroupID
		}
		return keys[i].JudgeID < keys[j].JudgeID
	})
	return keys
}

// Len returns the number of open drafts
func (s *DraftStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.drafts)
}
