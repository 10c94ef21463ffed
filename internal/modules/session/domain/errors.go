package domain

import (
	"errors"
	"fmt"

	apperrors "mindtrack/internal/platform/errors"
)

var (
	ErrSessionNotFound           = fmt.Errorf("session %w", apperrors.ErrNotFound)
	ErrInvalidState              = errors.New("invalid operation for session state")
	ErrNoActiveTopic             = errors.New("no active topic in session")
	ErrNoRemainingTopics         = errors.New("no remaining topics to reschedule")
	ErrInsufficientRemainingTime = fmt.Errorf("not enough time remaining for rescheduling (minimum %d minutes required)", MinTopicMinutes)
)

type InvalidStateError struct {
	Current  State
	Required State
}

func (e *InvalidStateError) Error() string {
	msg := fmt.Sprintf("%s: %s", ErrInvalidState, e.Current)
	if e.Required != "" {
		msg += fmt.Sprintf(". Required state: %s", e.Required)
	}
	return msg
}

func (e *InvalidStateError) Is(target error) bool {
	return target == ErrInvalidState
}
