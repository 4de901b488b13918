package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidDate            = errors.New("date is in the past or not a valid calendar date")
	ErrSlotUnavailable        = errors.New("slot is not available")
	ErrValidation             = errors.New("booking details are invalid")
	ErrConflictOnInsert       = errors.New("slot was taken by another booking")
	ErrPersistenceUnavailable = errors.New("booking storage is unavailable")
)

// MessageCategory tells a client which of three messages to show for a failure.
type MessageCategory string

const (
	PickAnotherTime  MessageCategory = "pick_another_time"
	CheckYourDetails MessageCategory = "check_your_details"
	TryAgainLater    MessageCategory = "try_again_later"
)

func CategoryOf(err error) MessageCategory {
	switch {
	case errors.Is(err, ErrInvalidDate), errors.Is(err, ErrSlotUnavailable), errors.Is(err, ErrConflictOnInsert):
		return PickAnotherTime
	case errors.Is(err, ErrValidation):
		return CheckYourDetails
	default:
		return TryAgainLater
	}
}

// CodeOf returns a stable machine-readable code for err.
func CodeOf(err error) string {
	switch {
	case errors.Is(err, ErrInvalidDate):
		return "invalid_date"
	case errors.Is(err, ErrSlotUnavailable):
		return "slot_unavailable"
	case errors.Is(err, ErrConflictOnInsert):
		return "conflict_on_insert"
	case errors.Is(err, ErrValidation):
		return "validation_error"
	default:
		return "persistence_unavailable"
	}
}

type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError lists every offending field. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s %s", f.Field, f.Reason))
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalidField(field, reason string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Reason: reason}}}
}

func unavailable(reason string) error {
	return fmt.Errorf("%w: %s", ErrSlotUnavailable, reason)
}

func persistenceUnavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrPersistenceUnavailable, err)
}
