package models

import "time"

// GroupStatus is the lifecycle state of a pushed group instance.
// Templates carry no status.
type GroupStatus string

const (
	GroupQueued    GroupStatus = "queued"
	GroupActive    GroupStatus = "active"
	GroupCompleted GroupStatus = "completed"
	GroupRetracted GroupStatus = "retracted"
)

// Valid reports whether s is a known instance status
func (s GroupStatus) Valid() bool {
	switch s {
	case GroupQueued, GroupActive, GroupCompleted, GroupRetracted:
		return true
	}
	return false
}

var groupTransitions = map[GroupStatus][]GroupStatus{
	GroupQueued:    {GroupActive, GroupRetracted},
	GroupActive:    {GroupCompleted, GroupRetracted},
	GroupCompleted: {GroupRetracted},
}

// CanTransition reports whether an instance may move from s to next.
// Retracted is terminal.
func (s GroupStatus) CanTransition(next GroupStatus) bool {
	for _, allowed := range groupTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AcceptsScores reports whether judges may submit against an instance in s
func (s GroupStatus) AcceptsScores() bool {
	return s == GroupActive || s == GroupCompleted
}

// GroupKind discriminates the two dancer group variants
type GroupKind string

const (
	KindTemplate GroupKind = "template"
	KindInstance GroupKind = "instance"
)

// DancerGroup is either a *Template or an *Instance
type DancerGroup interface {
	GroupID() string
	GroupSession() string
	GroupKind() GroupKind
	Roster() []string
	Archived() bool
	dancerGroup()
}

// Template is a reusable roster that can be pushed any number of times
type Template struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"session_id"`
	GroupNumber int       `json:"group_number"`
	DancerIDs   []string  `json:"dancer_ids"`
	IsArchived  bool      `json:"is_archived"`
	CreatedAt   time.Time `json:"created_at"`
}

// TemplateRef identifies the template an instance was pushed from.
// ID is empty when the template row no longer exists.
type TemplateRef struct {
	ID          string `json:"id,omitempty"`
	GroupNumber int    `json:"group_number"`
}

// Instance is one push of a template against a material
type Instance struct {
	ID          string      `json:"id"`
	SessionID   string      `json:"session_id"`
	Template    TemplateRef `json:"template"`
	MaterialID  string      `json:"material_id"`
	DancerIDs   []string    `json:"dancer_ids"`
	Status      GroupStatus `json:"status"`
	PushedAt    *time.Time  `json:"pushed_at"`
	CompletedAt *time.Time  `json:"completed_at"`
	IsArchived  bool        `json:"is_archived"`
	CreatedAt   time.Time   `json:"created_at"`
}

func (t *Template) GroupID() string      { return t.ID }
func (t *Template) GroupSession() string { return t.SessionID }
func (t *Template) GroupKind() GroupKind { return KindTemplate }
func (t *Template) Roster() []string     { return t.DancerIDs }
func (t *Template) Archived() bool       { return t.IsArchived }
func (*Template) dancerGroup()           {}

func (i *Instance) GroupID() string      { return i.ID }
func (i *Instance) GroupSession() string { return i.SessionID }
func (i *Instance) GroupKind() GroupKind { return KindInstance }
func (i *Instance) Roster() []string     { return i.DancerIDs }
func (i *Instance) Archived() bool       { return i.IsArchived }
func (*Instance) dancerGroup()           {}

// HasDancer reports whether dancerID is on the instance roster
func (i *Instance) HasDancer(dancerID string) bool {
	for _, id := range i.DancerIDs {
		if id == dancerID {
			return true
		}
	}
	return false
}

// GroupFilter narrows a group listing; zero values are ignored
type GroupFilter struct {
	SessionID       string
	Kind            GroupKind
	MaterialID      string
	Status          GroupStatus
	GroupNumber     int
	IncludeArchived bool
}
