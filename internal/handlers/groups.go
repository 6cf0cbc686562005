package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/joshuadwray/audition-scoring/internal/auth"
	"github.com/joshuadwray/audition-scoring/internal/models"
	"github.com/joshuadwray/audition-scoring/internal/services"
)

// groupInSession loads a group and hides groups of other sessions
func (h *Handlers) groupInSession(ctx context.Context, sessionID, groupID string) (models.DancerGroup, error) {
	g, err := h.group.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g.GroupSession() != sessionID {
		return nil, NotFound("Group not found")
	}
	return g, nil
}

func (h *Handlers) handleListGroups(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := models.GroupFilter{
		SessionID:       chi.URLParam(r, "sessionID"),
		Kind:            models.GroupKind(q.Get("kind")),
		MaterialID:      q.Get("material"),
		Status:          models.GroupStatus(q.Get("status")),
		IncludeArchived: q.Get("archived") == "true",
	}
	if v := q.Get("number"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			h.respondError(w, BadRequest("Invalid number parameter"))
			return
		}
		f.GroupNumber = n
	}

	groups, err := h.group.ListGroups(r.Context(), f)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, groupResponses(groups))
}

func (h *Handlers) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	g, err := h.groupInSession(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "groupID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, groupResponse(g))
}

// handleCurrentGroup returns what a judge should be scoring right now
func (h *Handlers) handleCurrentGroup(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	current, err := h.group.CurrentGroup(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, current)
}

func (h *Handlers) handleGroupProgress(w http.ResponseWriter, r *http.Request) {
	if _, err := h.groupInSession(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "groupID")); err != nil {
		h.respondError(w, err)
		return
	}
	progress, err := h.group.Progress(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, progress)
}

func (h *Handlers) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req TemplateCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	id, _ := auth.IdentityFrom(r.Context())
	tmpl, err := h.group.CreateTemplate(r.Context(), id, chi.URLParam(r, "sessionID"), services.TemplateInput{
		GroupNumber: req.GroupNumber,
		DancerIDs:   req.DancerIDs,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondCreated(w, groupResponse(tmpl))
}

func (h *Handlers) handlePushGroup(w http.ResponseWriter, r *http.Request) {
	var req PushRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	if _, err := h.groupInSession(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "groupID")); err != nil {
		h.respondError(w, err)
		return
	}

	id, _ := auth.IdentityFrom(r.Context())
	inst, err := h.group.Push(r.Context(), id, services.PushInput{
		TemplateID: chi.URLParam(r, "groupID"),
		MaterialID: req.MaterialID,
		Queue:      req.Queue,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondCreated(w, groupResponse(inst))
}

func (h *Handlers) handleActivateGroup(w http.ResponseWriter, r *http.Request) {
	if _, err := h.groupInSession(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "groupID")); err != nil {
		h.respondError(w, err)
		return
	}

	id, _ := auth.IdentityFrom(r.Context())
	inst, err := h.group.Activate(r.Context(), id, chi.URLParam(r, "groupID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, groupResponse(inst))
}

func (h *Handlers) handleRetractGroup(w http.ResponseWriter, r *http.Request) {
	var req RetractRequest
	// An empty body means keep scores
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			h.respondError(w, err)
			return
		}
	}
	if _, err := h.groupInSession(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "groupID")); err != nil {
		h.respondError(w, err)
		return
	}

	id, _ := auth.IdentityFrom(r.Context())
	result, err := h.group.Retract(r.Context(), id, chi.URLParam(r, "groupID"), req.DeleteScores)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, result)
}

func (h *Handlers) handleArchiveTemplate(w http.ResponseWriter, r *http.Request) {
	if _, err := h.groupInSession(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "groupID")); err != nil {
		h.respondError(w, err)
		return
	}

	id, _ := auth.IdentityFrom(r.Context())
	n, err := h.group.Archive(r.Context(), id, chi.URLParam(r, "groupID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, ArchiveResponse{Archived: true, InstancesArchived: n})
}

// handleCheckCompletion re-runs completion detection for an instance, for
// clients that saw a submission but no completion
func (h *Handlers) handleCheckCompletion(w http.ResponseWriter, r *http.Request) {
	if _, err := h.groupInSession(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "groupID")); err != nil {
		h.respondError(w, err)
		return
	}
	completed, err := h.group.CheckCompletion(r.Context(), chi.URLParam(r, "groupID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, CompletionResponse{Completed: completed})
}
