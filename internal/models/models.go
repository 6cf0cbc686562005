package models

import "time"

// SessionStatus is the lifecycle state of a scoring session
type SessionStatus string

const (
	SessionSetup     SessionStatus = "setup"
	SessionActive    SessionStatus = "active"
	SessionPaused    SessionStatus = "paused"
	SessionCompleted SessionStatus = "completed"
)

// Valid reports whether s is a known session status
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionSetup, SessionActive, SessionPaused, SessionCompleted:
		return true
	}
	return false
}

// Session is a single audition scoring event
type Session struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Date        string        `json:"date"`
	SessionCode string        `json:"session_code"`
	Status      SessionStatus `json:"status"`
	IsLocked    bool          `json:"is_locked"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// SessionUpdate holds the optional fields of a session patch
type SessionUpdate struct {
	Name   *string
	Date   *string
	Status *SessionStatus
}

// Dancer is identified within a session by its number
type Dancer struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	DancerNumber int       `json:"dancer_number"`
	Name         string    `json:"name"`
	Grade        *int      `json:"grade"`
	CreatedAt    time.Time `json:"created_at"`
}

// Material is a named scoring context such as a routine or style
type Material struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Judge scores pushed groups. At most one active admin-judge exists per session.
type Judge struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	Name         string    `json:"name"`
	JudgePIN     string    `json:"judge_pin"`
	IsAdminJudge bool      `json:"is_admin_judge"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Score is one judge's category values for one dancer within a group instance
type Score struct {
	ID       string `json:"id"`
	GroupID  string `json:"group_id"`
	JudgeID  string `json:"judge_id"`
	DancerID string `json:"dancer_id"`
	ScoreValues
	SubmittedAt time.Time `json:"submitted_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ScoreFilter narrows a score listing; empty fields are ignored
type ScoreFilter struct {
	SessionID  string
	GroupID    string
	JudgeID    string
	DancerID   string
	MaterialID string
}

// ScoreSubmission marks that a judge finalized a group instance
type ScoreSubmission struct {
	ID          string    `json:"id"`
	GroupID     string    `json:"group_id"`
	JudgeID     string    `json:"judge_id"`
	JudgeName   string    `json:"judge_name,omitempty"`
	ScoreCount  int       `json:"score_count"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// AdminAction is an append-only audit entry for privileged mutations
type AdminAction struct {
	ID         int64          `json:"id"`
	SessionID  string         `json:"session_id"`
	ActionType string         `json:"action_type"`
	Details    map[string]any `json:"details"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Audit action types
const (
	ActionPushGroup     = "push_group"
	ActionActivateGroup = "activate_group"
	ActionRetractGroup  = "retract_group"
	ActionArchiveGroup  = "archive_group"
	ActionLockSession   = "lock_session"
	ActionUnlockSession = "unlock_session"
	ActionEditScore     = "edit_score"
	ActionDeleteDancer  = "delete_dancer"
	ActionDeactivate    = "deactivate_judge"
)

// Role distinguishes the two kinds of authenticated callers
type Role string

const (
	RoleAdmin Role = "admin"
	RoleJudge Role = "judge"
)

// Identity is the verified caller attached to a request.
// An admin identity carrying a JudgeID is the admin acting as a judge.
type Identity struct {
	SessionID string `json:"session_id"`
	Role      Role   `json:"role"`
	JudgeID   string `json:"judge_id,omitempty"`
	JudgeName string `json:"judge_name,omitempty"`
}

// CanScore reports whether the identity may submit scores
func (i Identity) CanScore() bool {
	return i.Role == RoleJudge || (i.Role == RoleAdmin && i.JudgeID != "")
}

// IsAdmin reports whether the identity holds admin privileges
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}
