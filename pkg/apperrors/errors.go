package apperrors

import "errors"

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrNoDataset          = errors.New("no dataset loaded")
	ErrEmptyDataset       = errors.New("dataset has no rows")
	ErrColumnNotFound     = errors.New("column not found")
	ErrEntityNotFound     = errors.New("entity not found")
	ErrFilterUnresolvable = errors.New("filter target could not be resolved")
	ErrNoTemporalColumn   = errors.New("no temporal column in dataset")
	ErrAIUnavailable      = errors.New("ai provider not configured")
	ErrInvalidDirective   = errors.New("invalid visualization directive")
)
