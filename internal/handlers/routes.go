package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/joshuadwray/audition-scoring/internal/auth"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// requireSessionScope rejects callers whose identity belongs to another
// session than the one named in the URL
func (h *Handlers) requireSessionScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.IdentityFrom(r.Context())
		if !ok || id.SessionID != chi.URLParam(r, "sessionID") {
			h.respondError(w, ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)

	r.Get("/healthz", h.handleHealth)
	if h.metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.metrics)
	}

	// WebSocket change feed (hints only; clients re-fetch through the API)
	if h.hub != nil {
		r.Get("/ws", h.hub.ServeWs)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(h.tokens.Authenticate)

		// Auth (public)
		r.Post("/auth/login", h.handleLogin)
		r.Post("/auth/logout", h.handleLogout)
		r.With(auth.RequireIdentity).Get("/auth/me", h.handleMe)

		// Sessions (public)
		r.Get("/sessions", h.handleListSessions)
		r.Post("/sessions", h.handleCreateSession)

		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			// Lookup by ID or join code (public)
			r.Get("/", h.handleGetSession)

			// Any signed-in member of the session
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireIdentity, h.requireSessionScope)

				r.Get("/materials", h.handleListMaterials)
				r.Get("/dancers", h.handleListDancers)
				r.Get("/groups/current", h.handleCurrentGroup)
				r.Get("/groups/{groupID}", h.handleGetGroup)
				r.Post("/groups/{groupID}/check-completion", h.handleCheckCompletion)
				r.Patch("/scores/{scoreID}", h.handleEditScore)
			})

			// Judges and the admin-judge
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireScorer, h.requireSessionScope)

				r.Post("/groups/{groupID}/submissions", h.handleSubmitScores)
				r.Get("/my-scores", h.handleMyScores)
			})

			// Admin
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin, h.requireSessionScope)

				r.Patch("/", h.handleUpdateSession)
				r.Delete("/", h.handleDeleteSession)
				r.Post("/lock", h.handleLockSession)
				r.Delete("/lock", h.handleUnlockSession)
				r.Get("/qr", h.handleJoinQR)
				r.Get("/audit", h.handleAuditLog)

				r.Post("/materials", h.handleCreateMaterial)

				r.Post("/dancers", h.handleCreateDancer)
				r.Post("/dancers/import", h.handleImportDancers)
				r.Delete("/dancers/{dancerID}", h.handleDeleteDancer)

				r.Get("/judges", h.handleListJudges)
				r.Post("/judges", h.handleCreateJudge)
				r.Delete("/judges/{judgeID}", h.handleDeactivateJudge)

				r.Get("/groups", h.handleListGroups)
				r.Post("/groups", h.handleCreateTemplate)
				r.Delete("/groups/{groupID}", h.handleArchiveTemplate)
				r.Get("/groups/{groupID}/progress", h.handleGroupProgress)
				r.Post("/groups/{groupID}/push", h.handlePushGroup)
				r.Post("/groups/{groupID}/activate", h.handleActivateGroup)
				r.Post("/groups/{groupID}/retract", h.handleRetractGroup)

				r.Get("/scores", h.handleListScores)
				r.Get("/results", h.handleGetResults)
				r.Get("/results/export", h.handleExportResults)
			})
		})
	})

	return r
}
