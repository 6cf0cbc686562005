package handlers

import (
	"context"
	"net/http"

	"github.com/joshuadwray/audition-scoring/internal/auth"
	"github.com/joshuadwray/audition-scoring/internal/logger"
	"github.com/joshuadwray/audition-scoring/internal/services"
	"github.com/joshuadwray/audition-scoring/internal/websocket"
)

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps lists everything the HTTP layer needs
type Deps struct {
	Session    services.SessionServicer
	Roster     services.RosterServicer
	Judge      services.JudgeServicer
	Group      services.GroupServicer
	Submission services.SubmissionServicer
	Results    services.ResultsServicer
	Access     services.AccessServicer
	Tokens     *auth.Tokens
	Hub        *websocket.Hub
	Store      Pinger
	Log        logger.Logger

	// Metrics serves /metrics when non-nil
	Metrics http.Handler
}

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	session    services.SessionServicer
	roster     services.RosterServicer
	judge      services.JudgeServicer
	group      services.GroupServicer
	submission services.SubmissionServicer
	results    services.ResultsServicer
	access     services.AccessServicer
	tokens     *auth.Tokens
	hub        *websocket.Hub
	store      Pinger
	metrics    http.Handler
	log        logger.Logger
}

// New creates a new Handlers instance with all dependencies
func New(d Deps) *Handlers {
	log := d.Log
	if log == nil {
		log = logger.Discard()
	}
	tokens := d.Tokens
	if tokens == nil {
		tokens = auth.NewTokens(0)
	}
	return &Handlers{
		session:    d.Session,
		roster:     d.Roster,
		judge:      d.Judge,
		group:      d.Group,
		submission: d.Submission,
		results:    d.Results,
		access:     d.Access,
		tokens:     tokens,
		hub:        d.Hub,
		store:      d.Store,
		metrics:    d.Metrics,
		log:        log,
	}
}
