package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/joshuadwray/audition-scoring/internal/errors"
	"github.com/joshuadwray/audition-scoring/internal/logger"
)

// Error codes for standardized API error responses
const (
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeConflict        = "CONFLICT"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeSessionLocked   = "SESSION_LOCKED"
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS"
	ErrCodeInternalServer  = "INTERNAL_SERVER_ERROR"
)

// APIError represents an error with an HTTP status code and error code
type APIError struct {
	Status  int            `json:"-"`
	Code    string         `json:"code"`
	Message string         `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Common errors
var (
	ErrUnauthorized   = &APIError{Status: http.StatusUnauthorized, Code: ErrCodeUnauthorized, Message: "Unauthorized"}
	ErrInternalServer = &APIError{Status: http.StatusInternalServerError, Code: ErrCodeInternalServer, Message: "Internal server error"}
)

// BadRequest creates a 400 error with custom message
func BadRequest(message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: ErrCodeBadRequest, Message: message}
}

// NotFound creates a 404 error with custom message
func NotFound(message string) *APIError {
	return &APIError{Status: http.StatusNotFound, Code: ErrCodeNotFound, Message: message}
}

// Conflict creates a 409 error with custom message
func Conflict(message string) *APIError {
	return &APIError{Status: http.StatusConflict, Code: ErrCodeConflict, Message: message}
}

var validate = newValidator()

// newValidator reports field errors by their JSON names
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// respondJSON writes a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondOK writes a 200 OK JSON response
func respondOK(w http.ResponseWriter, data any) {
	respondJSON(w, http.StatusOK, data)
}

// respondCreated writes a 201 Created JSON response
func respondCreated(w http.ResponseWriter, data any) {
	respondJSON(w, http.StatusCreated, data)
}

// respondDeleted writes a 204 No Content response
func respondDeleted(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// respondError writes an error response
func (h *Handlers) respondError(w http.ResponseWriter, err error) {
	apiErr, ok := err.(*APIError)
	if !ok {
		apiErr = ToAPIError(h.log, err)
	}
	respondJSON(w, apiErr.Status, apiErr)
}

// decodeJSON decodes the request body into target and runs struct validation
func decodeJSON(r *http.Request, target any) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		if err == io.EOF {
			return BadRequest("Request body is empty")
		}
		return BadRequest("Invalid JSON: " + err.Error())
	}
	return validateRequest(target)
}

// validateRequest maps validator failures to a validation error naming the
// first offending field
func validateRequest(target any) error {
	err := validate.Struct(target)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if stderrors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		apiErr := &APIError{Status: http.StatusBadRequest, Code: ErrCodeValidation}
		switch fe.Tag() {
		case "required":
			apiErr.Message = "Missing required field: " + fe.Field()
		default:
			apiErr.Message = "Invalid " + fe.Field()
		}
		apiErr.Details = map[string]any{"field": fe.Namespace(), "rule": fe.Tag()}
		return apiErr
	}
	return BadRequest(err.Error())
}

// ToAPIError converts service errors to appropriate API errors
func ToAPIError(log logger.Logger, err error) *APIError {
	var appErr *errors.Error
	if !stderrors.As(err, &appErr) {
		log.Error("Internal error", "error", err)
		return ErrInternalServer
	}

	apiErr := &APIError{Message: appErr.Message, Details: appErr.Details}
	switch appErr.Kind {
	case errors.ErrNotFound:
		apiErr.Status, apiErr.Code = http.StatusNotFound, ErrCodeNotFound
	case errors.ErrValidation, errors.ErrInvalidInput:
		apiErr.Status, apiErr.Code = http.StatusBadRequest, ErrCodeValidation
	case errors.ErrConflict:
		apiErr.Status, apiErr.Code = http.StatusConflict, ErrCodeConflict
	case errors.ErrLocked:
		apiErr.Status, apiErr.Code = http.StatusConflict, ErrCodeSessionLocked
	case errors.ErrUnauthorized, errors.ErrForbidden:
		return ErrUnauthorized
	case errors.ErrRateLimited:
		apiErr.Status, apiErr.Code = http.StatusTooManyRequests, ErrCodeTooManyRequests
	default:
		log.Error("Internal error", "error", err)
		return ErrInternalServer
	}
	return apiErr
}
