package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/triplet-annotator/internal/domain/annotation"
	"github.com/rpggio/triplet-annotator/internal/domain/session"
)

// APIError represents an MCP error response.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
	cause        error
}

func (e *APIError) Error() string {
	if e.RecoveryHint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// MapError maps domain errors to MCP error codes.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, session.ErrNoFolders):
		return &APIError{Code: "NO_FOLDERS", Message: "no image sets are loaded", RecoveryHint: "Check dataset_error in get_state", cause: err}
	case errors.Is(err, session.ErrInvalidInput):
		return &APIError{Code: "INVALID_INPUT", Message: "image and id are required", RecoveryHint: "Use an image path from get_state", cause: err}
	case errors.Is(err, annotation.ErrLabelNotFound):
		return &APIError{Code: "LABEL_NOT_FOUND", Message: "no box matched the image and id", cause: err}
	default:
		return nil
	}
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
