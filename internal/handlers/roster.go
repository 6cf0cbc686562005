package handlers

import (
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/joshuadwray/audition-scoring/internal/auth"
	"github.com/joshuadwray/audition-scoring/internal/services"
)

// ==================== Materials ====================

func (h *Handlers) handleListMaterials(w http.ResponseWriter, r *http.Request) {
	materials, err := h.roster.ListMaterials(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, materials)
}

func (h *Handlers) handleCreateMaterial(w http.ResponseWriter, r *http.Request) {
	var req MaterialCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	m, err := h.roster.CreateMaterial(r.Context(), chi.URLParam(r, "sessionID"), req.Name)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondCreated(w, m)
}

// ==================== Dancers ====================

func (h *Handlers) handleListDancers(w http.ResponseWriter, r *http.Request) {
	dancers, err := h.roster.ListDancers(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, dancers)
}

func (h *Handlers) handleCreateDancer(w http.ResponseWriter, r *http.Request) {
	var req DancerCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	d, err := h.roster.CreateDancer(r.Context(), chi.URLParam(r, "sessionID"), services.DancerInput{
		DancerNumber: req.DancerNumber,
		Name:         req.Name,
		Grade:        req.Grade,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondCreated(w, d)
}

// handleImportDancers accepts either a JSON body {"dancers": [...]} or a
// text/csv body of "number,name[,grade]" rows
func (h *Handlers) handleImportDancers(w http.ResponseWriter, r *http.Request) {
	var inputs []services.DancerInput

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "text/csv" {
		parsed, err := services.ParseDancerCSV(r.Body)
		if err != nil {
			h.respondError(w, err)
			return
		}
		inputs = parsed
	} else {
		var req DancerImportRequest
		if err := decodeJSON(r, &req); err != nil {
			h.respondError(w, err)
			return
		}
		for _, d := range req.Dancers {
			inputs = append(inputs, services.DancerInput{DancerNumber: d.DancerNumber, Name: d.Name, Grade: d.Grade})
		}
	}

	result, err := h.roster.ImportDancers(r.Context(), chi.URLParam(r, "sessionID"), inputs)
	if err != nil {
		h.respondError(w, err)
		return
	}

	status := http.StatusCreated
	if result.Failed != nil {
		// Earlier rows were kept; the body names the row that stopped the import
		status = http.StatusMultiStatus
	}
	respondJSON(w, status, result)
}

func (h *Handlers) handleDeleteDancer(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"

	purged, err := h.roster.DeleteDancer(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "dancerID"), force)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, DeleteDancerResponse{Deleted: true, PurgeResult: *purged})
}

// ==================== Judges ====================

func (h *Handlers) handleListJudges(w http.ResponseWriter, r *http.Request) {
	judges, err := h.judge.ListJudges(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, judges)
}

// handleCreateJudge creates a judge. With is_admin_judge the call is
// idempotent and returns a refreshed admin token carrying the judge ID.
func (h *Handlers) handleCreateJudge(w http.ResponseWriter, r *http.Request) {
	var req JudgeCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	if !req.IsAdminJudge {
		judge, err := h.judge.CreateJudge(r.Context(), sessionID, req.Name)
		if err != nil {
			h.respondError(w, err)
			return
		}
		respondCreated(w, judge)
		return
	}

	judge, created, err := h.judge.EnsureAdminJudge(r.Context(), sessionID, req.Name)
	if err != nil {
		h.respondError(w, err)
		return
	}

	id, _ := auth.IdentityFrom(r.Context())
	id.JudgeID, id.JudgeName = judge.ID, judge.Name
	token, err := h.access.Reissue(id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	auth.SetTokenCookie(w, token, h.tokens.TTL())

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondJSON(w, status, AdminJudgeResponse{Judge: judge, Created: created, Token: token})
}

func (h *Handlers) handleDeactivateJudge(w http.ResponseWriter, r *http.Request) {
	if err := h.judge.Deactivate(r.Context(), chi.URLParam(r, "sessionID"), chi.URLParam(r, "judgeID")); err != nil {
		h.respondError(w, err)
		return
	}
	respondDeleted(w)
}
