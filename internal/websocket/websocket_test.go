package websocket

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/joshuadwray/audition-scoring/internal/logger"
	"github.com/joshuadwray/audition-scoring/internal/models"
)

func event(sessionID, table string) models.ChangeEvent {
	return models.ChangeEvent{Table: table, Op: models.OpUpdate, SessionID: sessionID, RowID: "row", At: time.Now()}
}

// waitFor polls cond until it holds or the deadline passes
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// ==================== Feed Tests ====================

func TestFeed_DeliversBySessionAndTable(t *testing.T) {
	feed := NewFeed(logger.Discard())
	all := feed.Subscribe("s1")
	groupsOnly := feed.Subscribe("s1", models.TableDancerGroups)
	other := feed.Subscribe("s2")
	defer all.Close()
	defer groupsOnly.Close()
	defer other.Close()

	feed.Publish(event("s1", models.TableDancerGroups))
	feed.Publish(event("s1", models.TableSessions))

	if got := len(all.Events()); got != 2 {
		t.Errorf("unfiltered subscriber got %d events, want 2", got)
	}
	if got := len(groupsOnly.Events()); got != 1 {
		t.Errorf("table-filtered subscriber got %d events, want 1", got)
	}
	if got := len(other.Events()); got != 0 {
		t.Errorf("other session got %d events, want 0", got)
	}

	ev := <-groupsOnly.Events()
	if ev.Table != models.TableDancerGroups {
		t.Errorf("got table %s", ev.Table)
	}
}

func TestFeed_SlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	feed := NewFeed(logger.Discard())
	sub := feed.Subscribe("s1")
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriptionBuffer+10; i++ {
			feed.Publish(event("s1", models.TableScoreSubmissions))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full subscriber")
	}
	if sub.Dropped() != 10 {
		t.Errorf("dropped = %d, want 10", sub.Dropped())
	}
}

func TestSubscription_CloseIsIdempotent(t *testing.T) {
	feed := NewFeed(logger.Discard())
	sub := feed.Subscribe("s1")
	if feed.Subscribers() != 1 {
		t.Fatalf("subscribers = %d, want 1", feed.Subscribers())
	}

	sub.Close()
	sub.Close()

	if feed.Subscribers() != 0 {
		t.Errorf("subscribers = %d after close, want 0", feed.Subscribers())
	}
	if _, ok := <-sub.Events(); ok {
		t.Error("events channel should be closed")
	}

	// Publishing after close must not panic
	feed.Publish(event("s1", models.TableSessions))
}

func TestFeed_ConcurrentPublishAndClose(t *testing.T) {
	feed := NewFeed(logger.Discard())
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		sub := feed.Subscribe("s1")
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				feed.Publish(event("s1", models.TableDancerGroups))
			}
		}()
		go func() {
			defer wg.Done()
			sub.Close()
		}()
	}
	wg.Wait()

	if feed.Subscribers() != 0 {
		t.Errorf("subscribers = %d, want 0", feed.Subscribers())
	}
}

// ==================== WebSocket Integration Tests ====================

func newTestServer(t *testing.T) (*Hub, *Feed, string) {
	t.Helper()
	feed := NewFeed(logger.Discard())
	hub := New(logger.Discard(), feed)
	hub.Start()

	server := httptest.NewServer(http.HandlerFunc(hub.ServeWs))
	t.Cleanup(server.Close)

	// Convert http://... to ws://...
	return hub, feed, "ws" + server.URL[4:]
}

func TestServeWs_RequiresSession(t *testing.T) {
	hub := New(logger.Discard(), NewFeed(logger.Discard()))
	req := httptest.NewRequest("GET", "/ws", nil)
	w := httptest.NewRecorder()

	hub.ServeWs(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestServeWs_UpgradeError(t *testing.T) {
	hub := New(logger.Discard(), NewFeed(logger.Discard()))
	req := httptest.NewRequest("GET", "/ws?session=s1", nil)
	w := httptest.NewRecorder()

	// A plain HTTP request cannot be upgraded
	hub.ServeWs(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 from failed upgrade, got %d", w.Code)
	}
}

func TestServeWs_StreamsSessionEvents(t *testing.T) {
	hub, feed, url := newTestServer(t)

	ws, _, err := websocket.DefaultDialer.Dial(url+"?session=s1", nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer ws.Close()

	waitFor(t, "client registration", func() bool { return hub.ClientCount() == 1 && feed.Subscribers() == 1 })

	feed.Publish(event("s2", models.TableDancerGroups))
	feed.Publish(event("s1", models.TableScoreSubmissions))

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, message, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read message: %v", err)
	}

	var msg struct {
		Type    string             `json:"type"`
		Payload models.ChangeEvent `json:"payload"`
	}
	if err := json.Unmarshal(message, &msg); err != nil {
		t.Fatalf("failed to unmarshal message: %v", err)
	}
	if msg.Type != MessageChange {
		t.Errorf("expected type %q, got %q", MessageChange, msg.Type)
	}
	if msg.Payload.SessionID != "s1" || msg.Payload.Table != models.TableScoreSubmissions {
		t.Errorf("payload = %+v, want the s1 score_submissions event only", msg.Payload)
	}
}

func TestServeWs_ClientDisconnect(t *testing.T) {
	hub, feed, url := newTestServer(t)

	ws, _, err := websocket.DefaultDialer.Dial(url+"?session=s1", nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	waitFor(t, "client registration", func() bool { return hub.ClientCount() == 1 })

	ws.Close()

	waitFor(t, "client unregistration", func() bool { return hub.ClientCount() == 0 })
	waitFor(t, "subscription release", func() bool { return feed.Subscribers() == 0 })
}

func TestServeWs_MultipleSessions(t *testing.T) {
	hub, feed, url := newTestServer(t)

	a, _, err := websocket.DefaultDialer.Dial(url+"?session=a", nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer a.Close()
	b, _, err := websocket.DefaultDialer.Dial(url+"?session=b", nil)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer b.Close()

	waitFor(t, "both clients", func() bool { return hub.ClientCount() == 2 && feed.Subscribers() == 2 })

	feed.Publish(event("b", models.TableSessions))

	b.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := b.ReadMessage(); err != nil {
		t.Fatalf("session b should receive its event: %v", err)
	}

	a.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, _, err := a.ReadMessage(); err == nil {
		t.Error("session a should not receive session b's event")
	}
}
