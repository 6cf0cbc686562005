package services

import (
	"time"

	"github.com/joshuadwray/audition-scoring/internal/models"
)

// Notifier publishes row-level change hints to connected clients
type Notifier interface {
	Publish(ev models.ChangeEvent)
}

// Metrics records domain counters
type Metrics interface {
	ObserveSubmission(outcome string)
	ObserveTransition(status models.GroupStatus)
	ObservePush()
	ObserveLogin(role models.Role, outcome string)
}

// Submission outcomes reported to Metrics
const (
	OutcomeAccepted  = "accepted"
	OutcomeRejected  = "rejected"
	OutcomeDuplicate = "duplicate"
	OutcomeLocked    = "locked"
)

type nopNotifier struct{}

func (nopNotifier) Publish(models.ChangeEvent) {}

type nopMetrics struct{}

func (nopMetrics) ObserveSubmission(string)             {}
func (nopMetrics) ObserveTransition(models.GroupStatus) {}
func (nopMetrics) ObservePush()                         {}
func (nopMetrics) ObserveLogin(models.Role, string)     {}

func orNopNotifier(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

func orNopMetrics(m Metrics) Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}

func changed(table string, op models.ChangeOp, sessionID, rowID string) models.ChangeEvent {
	return models.ChangeEvent{Table: table, Op: op, SessionID: sessionID, RowID: rowID, At: time.Now().UTC()}
}
