package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/joshuadwray/audition-scoring/internal/auth"
	"github.com/joshuadwray/audition-scoring/internal/export"
	"github.com/joshuadwray/audition-scoring/internal/models"
	"github.com/joshuadwray/audition-scoring/internal/services"
)

// ==================== Scores ====================

func (h *Handlers) handleSubmitScores(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	entries := make([]services.ScoreEntry, 0, len(req.Scores))
	for _, s := range req.Scores {
		entries = append(entries, services.ScoreEntry{DancerID: s.DancerID, ScoreValues: s.Values()})
	}

	id, _ := auth.IdentityFrom(r.Context())
	result, err := h.submission.Submit(r.Context(), id, chi.URLParam(r, "groupID"), entries)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondCreated(w, result)
}

func (h *Handlers) handleEditScore(w http.ResponseWriter, r *http.Request) {
	var req ScorePatchRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	id, _ := auth.IdentityFrom(r.Context())
	score, err := h.submission.EditScore(r.Context(), id, chi.URLParam(r, "scoreID"), req.Values())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, score)
}

func (h *Handlers) handleListScores(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	scores, err := h.submission.ListScores(r.Context(), models.ScoreFilter{
		SessionID:  chi.URLParam(r, "sessionID"),
		GroupID:    q.Get("group"),
		JudgeID:    q.Get("judge"),
		DancerID:   q.Get("dancer"),
		MaterialID: q.Get("material"),
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, scores)
}

func (h *Handlers) handleMyScores(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	scores, err := h.submission.MyScores(r.Context(), id, r.URL.Query().Get("group"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, scores)
}

// ==================== Results ====================

func (h *Handlers) handleGetResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.results.GetResults(r.Context(), chi.URLParam(r, "sessionID"), r.URL.Query().Get("material"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, results)
}

func (h *Handlers) handleExportResults(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		h.respondError(w, err)
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	results, err := h.results.GetResults(r.Context(), sessionID, r.URL.Query().Get("material"))
	if err != nil {
		h.respondError(w, err)
		return
	}

	// Render fully before writing headers so a failure can still become a JSON error
	var buf bytes.Buffer
	if err := export.Write(&buf, format, results); err != nil {
		h.respondError(w, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, format.Filename(sessionID)))
	w.Write(buf.Bytes())
}
