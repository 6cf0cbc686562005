package handlers

import (
	"github.com/joshuadwray/audition-scoring/internal/models"
)

// LoginRequest represents a PIN login
type LoginRequest struct {
	Session string `json:"session" validate:"required"`
	Role    string `json:"role" validate:"required,oneof=admin judge"`
	PIN     string `json:"pin" validate:"required"`
}

// SessionCreateRequest represents a request to create a session
type SessionCreateRequest struct {
	Name        string `json:"name" validate:"required"`
	Date        string `json:"date" validate:"required"`
	AdminPIN    string `json:"admin_pin" validate:"required"`
	SessionCode string `json:"session_code" validate:"required"`
}

// SessionUpdateRequest represents a partial session update
type SessionUpdateRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=1"`
	Date   *string `json:"date" validate:"omitempty,min=1"`
	Status *string `json:"status" validate:"omitempty,oneof=setup active paused completed"`
}

// MaterialCreateRequest represents a request to create a material
type MaterialCreateRequest struct {
	Name string `json:"name" validate:"required"`
}

// DancerCreateRequest represents a request to create a dancer
type DancerCreateRequest struct {
	DancerNumber int    `json:"dancer_number" validate:"required,gt=0"`
	Name         string `json:"name" validate:"required"`
	Grade        *int   `json:"grade" validate:"omitempty,gte=0"`
}

// DancerImportRequest represents a bulk dancer import
type DancerImportRequest struct {
	Dancers []DancerCreateRequest `json:"dancers" validate:"required,min=1,dive"`
}

// JudgeCreateRequest represents a request to create a judge
type JudgeCreateRequest struct {
	Name         string `json:"name" validate:"required"`
	IsAdminJudge bool   `json:"is_admin_judge"`
}

// TemplateCreateRequest represents a request to create a group template
type TemplateCreateRequest struct {
	GroupNumber *int     `json:"group_number" validate:"omitempty,gt=0"`
	DancerIDs   []string `json:"dancer_ids" validate:"required,min=1,dive,required"`
}

// PushRequest represents a request to push a template to judges
type PushRequest struct {
	MaterialID string `json:"material_id" validate:"required"`
	Queue      bool   `json:"queue"`
}

// RetractRequest represents a request to retract an instance
type RetractRequest struct {
	DeleteScores bool `json:"delete_scores"`
}

// ScoreEntryRequest is one dancer's values in a submission
type ScoreEntryRequest struct {
	DancerID     string   `json:"dancer_id" validate:"required"`
	Technique    *float64 `json:"technique"`
	Musicality   *float64 `json:"musicality"`
	Expression   *float64 `json:"expression"`
	Timing       *float64 `json:"timing"`
	Presentation *float64 `json:"presentation"`
}

// Values returns the entry's category values
func (e ScoreEntryRequest) Values() models.ScoreValues {
	return models.ScoreValues{
		Technique:    e.Technique,
		Musicality:   e.Musicality,
		Expression:   e.Expression,
		Timing:       e.Timing,
		Presentation: e.Presentation,
	}
}

// SubmitRequest represents a judge's submission for a group
type SubmitRequest struct {
	Scores []ScoreEntryRequest `json:"scores" validate:"required,min=1,dive"`
}

// ScorePatchRequest represents an edit to a single score
type ScorePatchRequest struct {
	Technique    *float64 `json:"technique"`
	Musicality   *float64 `json:"musicality"`
	Expression   *float64 `json:"expression"`
	Timing       *float64 `json:"timing"`
	Presentation *float64 `json:"presentation"`
}

// Values returns the patch as category values
func (p ScorePatchRequest) Values() models.ScoreValues {
	return models.ScoreValues{
		Technique:    p.Technique,
		Musicality:   p.Musicality,
		Expression:   p.Expression,
		Timing:       p.Timing,
		Presentation: p.Presentation,
	}
}
