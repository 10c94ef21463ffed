package dto

import "time"

type TopicInput struct {
	Name  string
	Level string
}

type SubjectInput struct {
	Name   string
	Topics []TopicInput
}

type CreateInput struct {
	TotalMinutes int
	Subjects     []SubjectInput
}

type TopicOutput struct {
	Key            string
	Name           string
	Subject        string
	Level          string
	TimeMinutes    int
	Status         string
	ElapsedSeconds int
	StartedAt      time.Time
	CompletedAt    time.Time
}

type BacklogOutput struct {
	Name    string
	Subject string
}

type SessionOutput struct {
	ID              string
	State           string
	Topics          []TopicOutput
	CurrentIndex    int
	Backlog         []BacklogOutput
	Emotions        []string
	RescheduleCount int
	TotalMinutes    int
	CreatedAt       time.Time
	CompletedAt     time.Time
}

type CurrentOutput struct {
	SessionID        string
	State            string
	Topic            TopicOutput
	TopicIndex       int
	TotalTopics      int
	RemainingSeconds int
	Paused           bool
}

type AdvanceInput struct {
	Completed bool
}

type AdvanceOutput struct {
	Session  SessionOutput
	Finished bool
	Next     *TopicOutput
}

type SummaryOutput struct {
	SessionID             string
	State                 string
	TotalTopics           int
	CompletedCount        int
	BacklogCount          int
	TotalAllocatedMinutes int
	StudiedMinutes        int
	RescheduleCount       int
	EmotionTimeline       []string
	EmotionDistribution   map[string]int
	Topics                []TopicOutput
	Backlog               []BacklogOutput
	CreatedAt             time.Time
	CompletedAt           time.Time
}

type TriggerOutput struct {
	Ready   bool
	Message string
}

type EmotionOutput struct {
	SessionID string
	Emotion   string
	Buffer    []string
	Trigger   TriggerOutput
}

type EmotionStatusOutput struct {
	Recent  []string
	Trigger TriggerOutput
}

type AllocationOutput struct {
	Key         string
	Name        string
	Subject     string
	Level       string
	TimeMinutes int
}

type RescheduleOutput struct {
	OldSchedule      []AllocationOutput
	NewSchedule      []AllocationOutput
	TopicsAffected   int
	RemainingMinutes int
	Session          SessionOutput
}

type AllocatorStatusOutput struct {
	Connected bool
	Model     string
	Message   string
}

type HistoryOutput struct {
	SessionID       string
	State           string
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
