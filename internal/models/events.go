package models

import "time"

// Tables that publish row-level change events
const (
	TableDancerGroups     = "dancer_groups"
	TableSessions         = "sessions"
	TableScoreSubmissions = "score_submissions"
)

// ChangeOp is the kind of row change
type ChangeOp string

const (
	OpInsert ChangeOp = "INSERT"
	OpUpdate ChangeOp = "UPDATE"
	OpDelete ChangeOp = "DELETE"
)

// ChangeEvent announces that a row changed. It is a hint only: consumers
// re-fetch authoritative state instead of trusting the payload.
type ChangeEvent struct {
	Table     string    `json:"table"`
	Op        ChangeOp  `json:"op"`
	SessionID string    `json:"session_id"`
	RowID     string    `json:"row_id"`
	At        time.Time `json:"at"`
}
