package services

import (
	"errors"
	"fmt"

	apperrors "github.com/lingoforge/authoring-service/internal/errors"
	"github.com/lingoforge/authoring-service/internal/models"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal error")
	ErrBadRequest       = errors.New("bad request")

	// Session specific errors
	ErrSessionNotFound      = errors.New("authoring session not found")
	ErrSubmissionInFlight   = errors.New("a submission is already in progress for this session")
	ErrSessionNotMatching   = errors.New("operation requires a matching_pairs question")
	ErrSessionNotEditable   = errors.New("session has no question bound for editing")

	// Counter / cap errors
	ErrQuestionLimitReached = fmt.Errorf("a lesson can hold at most %d questions", models.MaxQuestionsPerLesson)

	// Pipeline errors
	ErrQuestionNotFound = errors.New("question not found")
	ErrCreateFailed     = errors.New("question record could not be created")
	ErrFinalizeFailed   = errors.New("resolved media could not be attached to the question")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

// MediaUploadError is the per-item, non-fatal failure of one upload in the
// attachment pipeline. The pipeline keeps going after one of these.
type MediaUploadError struct {
	Item     string `json:"item"` // image, audio, pair:<i>, option:<i>
	Filename string `json:"filename"`
	Err      error  `json:"-"`
	Reason   string `json:"reason"`
}

func (e *MediaUploadError) Error() string {
	return fmt.Sprintf("upload of %s (%s) failed: %s", e.Item, e.Filename, e.Reason)
}

func (e *MediaUploadError) Unwrap() error { return e.Err }

func NewMediaUploadError(item, filename string, err error) *MediaUploadError {
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	return &MediaUploadError{Item: item, Filename: filename, Err: err, Reason: reason}
}

// CreateError wraps the fatal failure of the base-create step; the draft is
// preserved for retry when this is returned.
type CreateError struct {
	LessonID string
	Err      error
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("failed to create question for lesson %s: %v", e.LessonID, e.Err)
}

func (e *CreateError) Unwrap() error { return e.Err }

// ===== ERROR HELPERS =====

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrQuestionNotFound)
}

// IsValidation checks if error represents a local validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) ||
		errors.Is(err, ErrQuestionLimitReached) {
		return true
	}
	var ve ValidationErrors
	return errors.As(err, &ve)
}

// IsFatalCreate checks if error represents a failed base-create step
func IsFatalCreate(err error) bool {
	var ce *CreateError
	return errors.As(err, &ce)
}

// IsMediaUpload checks if error represents a per-item upload failure
func IsMediaUpload(err error) bool {
	var me *MediaUploadError
	return errors.As(err, &me)
}

// IsConflict checks if error represents a concurrent-submission conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrSubmissionInFlight)
}
