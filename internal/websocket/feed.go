package websocket

import (
	"sync"
	"sync/atomic"

	"github.com/joshuadwray/audition-scoring/internal/logger"
	"github.com/joshuadwray/audition-scoring/internal/models"
)

const subscriptionBuffer = 64

// Feed fans change events out to per-session subscribers. Delivery is best
// effort: a subscriber whose buffer is full misses the event and is expected
// to re-fetch on the next one it receives.
type Feed struct {
	log  logger.Logger
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

// NewFeed creates an empty Feed
func NewFeed(log logger.Logger) *Feed {
	return &Feed{log: log, subs: make(map[*Subscription]struct{})}
}

// Subscription receives a session's change events until closed
type Subscription struct {
	feed      *Feed
	sessionID string
	tables    map[string]bool
	ch        chan models.ChangeEvent
	once      sync.Once
	dropped   atomic.Int64
}

// Subscribe registers interest in a session's changes. With no tables every
// table is delivered.
func (f *Feed) Subscribe(sessionID string, tables ...string) *Subscription {
	sub := &Subscription{
		feed:      f,
		sessionID: sessionID,
		ch:        make(chan models.ChangeEvent, subscriptionBuffer),
	}
	if len(tables) > 0 {
		sub.tables = make(map[string]bool, len(tables))
		for _, t := range tables {
			sub.tables[t] = true
		}
	}

	f.mu.Lock()
	f.subs[sub] = struct{}{}
	f.mu.Unlock()
	return sub
}

// Publish delivers ev to every matching subscriber without blocking
func (f *Feed) Publish(ev models.ChangeEvent) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	for sub := range f.subs {
		if !sub.matches(ev) {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			sub.dropped.Add(1)
			f.log.Debug("Dropped change event for slow subscriber", "session_id", ev.SessionID, "table", ev.Table)
		}
	}
}

// Subscribers returns the number of open subscriptions
func (f *Feed) Subscribers() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.subs)
}

func (s *Subscription) matches(ev models.ChangeEvent) bool {
	if ev.SessionID != s.sessionID {
		return false
	}
	return s.tables == nil || s.tables[ev.Table]
}

// Events returns the channel events arrive on. It is closed by Close.
func (s *Subscription) Events() <-chan models.ChangeEvent {
	return s.ch
}

// Dropped returns how many events were discarded because the buffer was full
func (s *Subscription) Dropped() int64 {
	return s.dropped.Load()
}

// Close unregisters the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.feed.mu.Lock()
		delete(s.feed.subs, s)
		s.feed.mu.Unlock()
		close(s.ch)
	})
}
