package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Machine readable error codes returned to clients
const (
	CodeBadRequest                = "bad_request"
	CodeValidation                = "validation_error"
	CodeUnauthorized              = "unauthorized"
	CodeForbidden                 = "forbidden"
	CodeNotFound                  = "not_found"
	CodeConflict                  = "conflict"
	CodeDuplicateHash             = "duplicate_hash"
	CodeConcurrentVersionConflict = "concurrent_version_conflict"
	CodeInvalidParent             = "invalid_parent"
	CodeInvalidTransition         = "invalid_transition"
	CodeExpired                   = "expired"
	CodeInactive                  = "inactive"
	CodePasswordRequired          = "password_required"
	CodePasswordMismatch          = "password_mismatch"
	CodeUnprocessable             = "unprocessable_entity"
	CodeInternal                  = "internal_error"
)

// APIError represents an application error
type APIError struct {
	Status   int               `json:"-"`
	Code     string            `json:"code"`
	Message  string            `json:"error"`
	Fields   map[string]string `json:"fields,omitempty"`
	Internal error             `json:"-"`
}

// Error returns the error message
func (e *APIError) Error() string {
	if e.Internal != nil {
		return e.Message + ": " + e.Internal.Error()
	}
	return e.Message
}

// Unwrap returns the original error
func (e *APIError) Unwrap() error {
	return e.Internal
}

// Is matches two APIErrors by code so callers can compare against the
// sentinel helpers below with errors.Is.
func (e *APIError) Is(target error) bool {
	var t *APIError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func New(status int, code, message string, err error) *APIError {
	return &APIError{
		Status:   status,
		Code:     code,
		Message:  message,
		Internal: err,
	}
}

func BadRequest(message string, err error) *APIError {
	return New(http.StatusBadRequest, CodeBadRequest, message, err)
}

func Validation(message string, err error) *APIError {
	return New(http.StatusBadRequest, CodeValidation, message, err)
}

func Unauthorized(message string, err error) *APIError {
	return New(http.StatusUnauthorized, CodeUnauthorized, message, err)
}

func Forbidden(message string, err error) *APIError {
	return New(http.StatusForbidden, CodeForbidden, message, err)
}

func NotFound(message string, err error) *APIError {
	return New(http.StatusNotFound, CodeNotFound, message, err)
}

func Conflict(message string, err error) *APIError {
	return New(http.StatusConflict, CodeConflict, message, err)
}

func DuplicateHash(message string, err error) *APIError {
	return New(http.StatusConflict, CodeDuplicateHash, message, err)
}

func ConcurrentVersionConflict(message string, err error) *APIError {
	return New(http.StatusConflict, CodeConcurrentVersionConflict, message, err)
}

func InvalidParent(message string, err error) *APIError {
	return New(http.StatusBadRequest, CodeInvalidParent, message, err)
}

func InvalidTransition(message string, err error) *APIError {
	return New(http.StatusConflict, CodeInvalidTransition, message, err)
}

// Expired is used for time gated access that ran out
func Expired(message string, err error) *APIError {
	return New(http.StatusGone, CodeExpired, message, err)
}

// Inactive is used for explicitly revoked access
func Inactive(message string, err error) *APIError {
	return New(http.StatusForbidden, CodeInactive, message, err)
}

func PasswordRequired(message string, err error) *APIError {
	return New(http.StatusUnauthorized, CodePasswordRequired, message, err)
}

func PasswordMismatch(message string, err error) *APIError {
	return New(http.StatusForbidden, CodePasswordMismatch, message, err)
}

func UnprocessableEntity(message string, err error) *APIError {
	return New(http.StatusUnprocessableEntity, CodeUnprocessable, message, err)
}

func Internal(err error) *APIError {
	return New(http.StatusInternalServerError, CodeInternal, "Internal server error", err)
}

// NewValidationError converts binding errors into a 400 with per field messages
func NewValidationError(err error) *APIError {
	apiErr := Validation("Invalid input", err)

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		apiErr.Fields = make(map[string]string, len(verrs))
		for _, fe := range verrs {
			apiErr.Fields[strings.ToLower(fe.Field())] = fieldMessage(fe)
		}
	}
	return apiErr
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed on %s", fe.Tag())
	}
}

// HasCode reports whether err is an APIError carrying code
func HasCode(err error, code string) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == code
	}
	return false
}
