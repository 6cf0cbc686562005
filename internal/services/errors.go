package services

import (
	"context"

	"github.com/joshuadwray/audition-scoring/internal/errors"
	"github.com/joshuadwray/audition-scoring/internal/models"
	"github.com/joshuadwray/audition-scoring/internal/repository"
)

// Service errors
var (
	ErrScoresRequired     = errors.Validation("Scores array required")
	ErrDancerRefRequired  = errors.Validation("Each score must have a dancerId")
	ErrAlreadySubmitted   = errors.Conflict("Scores already submitted for this group")
	ErrNotAcceptingScores = errors.Conflict("Group is not accepting scores")
	ErrMaterialRequired   = errors.Validation("Material is required")
	ErrNotAnInstance      = errors.Validation("Group is a template, not a pushed instance")
	ErrNotATemplate       = errors.Validation("Group is a pushed instance; use its template")
	ErrInvalidAdminPIN    = errors.Validation("Admin PIN must be exactly 6 digits")
	ErrInvalidSessionCode = errors.Validation("Session code must be 3-20 letters, digits or hyphens")
	ErrSessionCodeTaken   = errors.Conflict("Session code already exists")
)

// notFound translates a repository miss into a typed not-found error and
// passes every other error through unchanged
func notFound(err error, what string) error {
	if err == repository.ErrNotFound {
		return errors.NotFound(what + " not found")
	}
	return err
}

// sessionLockReader is the slice of the store needed for the lock guard
type sessionLockReader interface {
	IsSessionLocked(ctx context.Context, id string) (bool, error)
}

// ensureUnlocked reads the lock flag fresh and rejects mutation of a locked session
func ensureUnlocked(ctx context.Context, repo sessionLockReader, sessionID string) error {
	locked, err := repo.IsSessionLocked(ctx, sessionID)
	if err != nil {
		return notFound(err, "Session")
	}
	if locked {
		return errors.Locked()
	}
	return nil
}

// requireAdmin checks the actor holds admin rights over sessionID
func requireAdmin(actor models.Identity, sessionID string) error {
	if !actor.IsAdmin() || actor.SessionID != sessionID {
		return errors.Unauthorized()
	}
	return nil
}
