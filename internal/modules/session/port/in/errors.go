package in

import "mindtrack/internal/modules/session/domain"

// Errors inbound adapters branch on; match with errors.Is.
var (
	ErrSessionNotFound           = domain.ErrSessionNotFound
	ErrInvalidState              = domain.ErrInvalidState
	ErrNoActiveTopic             = domain.ErrNoActiveTopic
	ErrNoRemainingTopics         = domain.ErrNoRemainingTopics
	ErrInsufficientRemainingTime = domain.ErrInsufficientRemainingTime
)
