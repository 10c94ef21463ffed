package domain

import "time"

// Allocation is one topic's share of study minutes.
type Allocation struct {
	Key         string
	Name        string
	Subject     string
	Level       TopicLevel
	TimeMinutes int
}

type AllocatorStatus struct {
	Connected bool
	Model     string
	Message   string
}

// HistoryEntry is the archived summary of a session that left the live set.
type HistoryEntry struct {
	SessionID       string
	State           State
	TotalTopics     int
	CompletedCount  int
	BacklogCount    int
	TotalMinutes    int
	StudiedMinutes  int
	RescheduleCount int
	CreatedAt       time.Time
	CompletedAt     time.Time
	ReportPath      string
}
