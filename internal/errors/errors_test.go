package errors

import (
	"errors"
	"fmt"
	"testing"
)

// =============================================================================
// Constructors
// =============================================================================

func TestAllConstructors(t *testing.T) {
	underlyingErr := fmt.Errorf("underlying")

	testCases := []struct {
		name         string
		constructor  func() *Error
		expectedKind Kind
		checkMessage string
		hasErr       bool
	}{
		{"NotFound", func() *Error { return NotFound("msg") }, ErrNotFound, "msg", false},
		{"NotFoundf", func() *Error { return NotFoundf("dancer %d", 7) }, ErrNotFound, "dancer 7", false},
		{"Validation", func() *Error { return Validation("msg") }, ErrValidation, "msg", false},
		{"Validationf", func() *Error { return Validationf("score %s", "technique") }, ErrValidation, "score technique", false},
		{"Conflict", func() *Error { return Conflict("msg") }, ErrConflict, "msg", false},
		{"Conflictf", func() *Error { return Conflictf("Dancer #%d", 3) }, ErrConflict, "Dancer #3", false},
		{"InvalidInput", func() *Error { return InvalidInput("msg") }, ErrInvalidInput, "msg", false},
		{"Unauthorized", func() *Error { return Unauthorized() }, ErrUnauthorized, "Unauthorized", false},
		{"Forbidden", func() *Error { return Forbidden("msg") }, ErrForbidden, "msg", false},
		{"Locked", func() *Error { return Locked() }, ErrLocked, "Session is locked", false},
		{"RateLimited", func() *Error { return RateLimited() }, ErrRateLimited, "Too many attempts, try again shortly", false},
		{"Internal", func() *Error { return Internal(underlyingErr) }, ErrInternal, "internal error", true},
		{"Internalf", func() *Error { return Internalf("msg %d", 1) }, ErrInternal, "msg 1", false},
		{"Wrap", func() *Error { return Wrap(underlyingErr, ErrConflict, "msg") }, ErrConflict, "msg", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.constructor()

			if err.Kind != tc.expectedKind {
				t.Errorf("expected Kind %s, got %s", tc.expectedKind, err.Kind)
			}
			if err.Message != tc.checkMessage {
				t.Errorf("expected Message '%s', got '%s'", tc.checkMessage, err.Message)
			}
			if tc.hasErr && err.Err == nil {
				t.Error("expected Err to be non-nil")
			}
			if !tc.hasErr && err.Err != nil {
				t.Errorf("expected Err to be nil, got %v", err.Err)
			}
		})
	}
}

func TestError_MessageIncludesUnderlying(t *testing.T) {
	err := Wrap(fmt.Errorf("disk full"), ErrInternal, "saving scores")

	if err.Error() != "saving scores: disk full" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}

func TestError_WithDetail(t *testing.T) {
	err := Conflict("Dancer has existing scores").WithDetail("has_scores", true).WithDetail("score_count", 4)

	if err.Details["has_scores"] != true {
		t.Errorf("expected has_scores detail, got %v", err.Details)
	}
	if err.Details["score_count"] != 4 {
		t.Errorf("expected score_count 4, got %v", err.Details["score_count"])
	}
}

// =============================================================================
// Kind inspection
// =============================================================================

func TestKindOf(t *testing.T) {
	wrapped := fmt.Errorf("submit: %w", Locked())

	if KindOf(wrapped) != ErrLocked {
		t.Errorf("expected ErrLocked, got %s", KindOf(wrapped))
	}
	if KindOf(fmt.Errorf("plain")) != ErrInternal {
		t.Error("expected plain errors to be classified as internal")
	}
}

func TestIs(t *testing.T) {
	if Is(nil, ErrInternal) {
		t.Error("nil error should never match a kind")
	}
	if !Is(NotFound("x"), ErrNotFound) {
		t.Error("expected NotFound to match ErrNotFound")
	}
	if Is(NotFound("x"), ErrConflict) {
		t.Error("NotFound should not match ErrConflict")
	}
}

func TestKind_String(t *testing.T) {
	if ErrLocked.String() != "locked" {
		t.Errorf("expected 'locked', got %q", ErrLocked.String())
	}
	if Kind(99).String() != "kind(99)" {
		t.Errorf("unexpected unknown kind string %q", Kind(99).String())
	}
}

func TestErrorsIs_WithWrappedStandardError(t *testing.T) {
	sentinelErr := fmt.Errorf("sentinel error")
	level2 := Wrap(fmt.Errorf("level 1: %w", sentinelErr), ErrInternal, "level 2")
	level3 := fmt.Errorf("level 3: %w", level2)

	if !errors.Is(level3, sentinelErr) {
		t.Error("expected errors.Is to find sentinel error in nested chain")
	}
}
