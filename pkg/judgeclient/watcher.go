package judgeclient

import (
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/joshuadwray/audition-scoring/internal/logger"
	"github.com/joshuadwray/audition-scoring/internal/models"
)

const (
	minBackoff = 500 * time.Millisecond
	maxBackoff = 30 * time.Second
)

// feedMessage is the change message relayed by the server's /ws endpoint
type feedMessage struct {
	Type    string             `json:"type"`
	Payload models.ChangeEvent `json:"payload"`
}

// Watcher follows a session's change feed over a websocket, reconnecting
// with backoff until its context ends. Events are hints: delivery is
// best-effort and a reconnect may miss some.
type Watcher struct {
	url    string
	log    logger.Logger
	dialer *websocket.Dialer
}

// NewWatcher creates a watcher for sessionID on the server at baseURL
func NewWatcher(baseURL, sessionID string, log logger.Logger) (*Watcher, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += "/ws"
	u.RawQuery = url.Values{"session": {sessionID}}.Encode()

	return &Watcher{url: u.String(), log: log, dialer: websocket.DefaultDialer}, nil
}

// URL returns the websocket address being followed
func (w *Watcher) URL() string {
	return w.url
}

// Watch streams change events until ctx is done, then closes the channel.
// A synthetic event with an empty table is sent after every reconnect so
// the consumer can resynchronize whatever it missed.
func (w *Watcher) Watch(ctx context.Context) <-chan models.ChangeEvent {
	events := make(chan models.ChangeEvent, 16)
	go func() {
		defer close(events)
		backoff := minBackoff
		connected := false
		for ctx.Err() == nil {
			conn, _, err := w.dialer.DialContext(ctx, w.url, nil)
			if err != nil {
				w.log.Debug("Change feed unavailable", "url", w.url, "error", err, "retry_in", backoff)
				if !sleep(ctx, backoff) {
					return
				}
				backoff = min(backoff*2, maxBackoff)
				continue
			}
			backoff = minBackoff

			if connected && !send(ctx, events, models.ChangeEvent{At: time.Now().UTC()}) {
				conn.Close()
				return
			}
			connected = true

			w.read(ctx, conn, events)
			conn.Close()
		}
	}()
	return events
}

// read forwards messages from conn until it fails or ctx ends
func (w *Watcher) read(ctx context.Context, conn *websocket.Conn, events chan<- models.ChangeEvent) {
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				w.log.Debug("Change feed disconnected", "error", err)
			}
			return
		}
		var msg feedMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "change" {
			continue
		}
		if !send(ctx, events, msg.Payload) {
			return
		}
	}
}

func send(ctx context.Context, events chan<- models.ChangeEvent, ev models.ChangeEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
