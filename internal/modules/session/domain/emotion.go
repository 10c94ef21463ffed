package domain

const (
	TriggerMessageWarmingUp = "Not enough emotion data yet"
	TriggerMessageStable    = "Emotions are stable"
	TriggerMessageReady     = "Detected consistent negative emotions. Reschedule recommended."
)

// Trigger is the outcome of evaluating the emotion window.
type Trigger struct {
	Ready   bool
	Message string
}

// RescheduleResult describes a successful re-allocation of remaining time.
type RescheduleResult struct {
	OldSchedule      []Allocation
	NewSchedule      []Allocation
	TopicsAffected   int
	RemainingMinutes int
}
