package handlers

import (
	"github.com/joshuadwray/audition-scoring/internal/models"
	"github.com/joshuadwray/audition-scoring/internal/repository"
	"github.com/joshuadwray/audition-scoring/internal/services"
)

// SessionResponse is a session plus its judge join link
type SessionResponse struct {
	*models.Session
	JoinURL string `json:"join_url"`
}

// LoginResponse is the response for a successful PIN login
type LoginResponse struct {
	*services.LoginResult
	ExpiresIn int `json:"expires_in"`
}

// AdminJudgeResponse is the response for creating the admin-judge. The token
// replaces the caller's admin token and carries the judge ID.
type AdminJudgeResponse struct {
	Judge   *models.Judge `json:"judge"`
	Created bool          `json:"created"`
	Token   string        `json:"token"`
}

// GroupResponse wraps either group variant with its kind
type GroupResponse struct {
	Kind  models.GroupKind   `json:"kind"`
	Group models.DancerGroup `json:"group"`
}

// DeleteDancerResponse reports what a dancer delete removed
type DeleteDancerResponse struct {
	Deleted bool `json:"deleted"`
	repository.PurgeResult
}

// ArchiveResponse reports an archived template and its instances
type ArchiveResponse struct {
	Archived          bool  `json:"archived"`
	InstancesArchived int64 `json:"instances_archived"`
}

// CompletionResponse reports the outcome of a completion check
type CompletionResponse struct {
	Completed bool `json:"completed"`
}

// HealthResponse is the response for /healthz
type HealthResponse struct {
	Status  string `json:"status"`
	Clients int    `json:"clients"`
}

func groupResponse(g models.DancerGroup) GroupResponse {
	return GroupResponse{Kind: g.GroupKind(), Group: g}
}

func groupResponses(groups []models.DancerGroup) []GroupResponse {
	out := make([]GroupResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, groupResponse(g))
	}
	return out
}
