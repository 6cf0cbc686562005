package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/joshuadwray/audition-scoring/internal/auth"
	"github.com/joshuadwray/audition-scoring/internal/models"
	"github.com/joshuadwray/audition-scoring/internal/services"
)

// ==================== Auth ====================

func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	result, err := h.access.Login(r.Context(), services.LoginInput{
		Session: req.Session,
		Role:    models.Role(req.Role),
		PIN:     req.PIN,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}

	auth.SetTokenCookie(w, result.Token, h.tokens.TTL())
	respondOK(w, LoginResponse{LoginResult: result, ExpiresIn: int(h.tokens.TTL().Seconds())})
}

func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := auth.TokenFromRequest(r); token != "" {
		h.access.Logout(token)
	}
	auth.ClearTokenCookie(w)
	respondDeleted(w)
}

func (h *Handlers) handleMe(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFrom(r.Context())
	respondOK(w, id)
}

// ==================== Sessions ====================

func (h *Handlers) sessionResponse(s *models.Session) SessionResponse {
	return SessionResponse{Session: s, JoinURL: h.session.JoinURL(s)}
}

func (h *Handlers) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.session.ListSessions(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, sessions)
}

func (h *Handlers) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req SessionCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	session, err := h.session.CreateSession(r.Context(), services.SessionInput{
		Name:        req.Name,
		Date:        req.Date,
		AdminPIN:    req.AdminPIN,
		SessionCode: req.SessionCode,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondCreated(w, h.sessionResponse(session))
}

func (h *Handlers) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.session.GetSession(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, h.sessionResponse(session))
}

func (h *Handlers) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	var req SessionUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	u := models.SessionUpdate{Name: req.Name, Date: req.Date}
	if req.Status != nil {
		status := models.SessionStatus(*req.Status)
		u.Status = &status
	}

	session, err := h.session.UpdateSession(r.Context(), chi.URLParam(r, "sessionID"), u)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, h.sessionResponse(session))
}

func (h *Handlers) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.session.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		h.respondError(w, err)
		return
	}
	respondDeleted(w)
}

func (h *Handlers) handleLockSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.session.Lock(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, h.sessionResponse(session))
}

func (h *Handlers) handleUnlockSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.session.Unlock(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, h.sessionResponse(session))
}

func (h *Handlers) handleJoinQR(w http.ResponseWriter, r *http.Request) {
	png, err := h.session.JoinQR(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(png)
}

func (h *Handlers) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			h.respondError(w, BadRequest("Invalid limit parameter"))
			return
		}
		limit = n
	}

	actions, err := h.session.AuditLog(r.Context(), chi.URLParam(r, "sessionID"), limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, actions)
}

// ==================== Health ====================

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok"}
	if h.hub != nil {
		resp.Clients = h.hub.ClientCount()
	}
	if h.store != nil {
		if err := h.store.Ping(r.Context()); err != nil {
			h.log.Error("Health check failed", "error", err)
			resp.Status = "unavailable"
			respondJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	respondOK(w, resp)
}
