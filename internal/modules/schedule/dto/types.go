package dto

type TopicInput struct {
	ID      string
	Name    string
	Subject string
	Level   string
}

type AllocationInput struct {
	Topics  []TopicInput
	Minutes int
}

type AllocationItem struct {
	ID          string
	Name        string
	TimeMinutes int
}

type AllocationOutput struct {
	Items    []AllocationItem
	Fallback bool
}

type StatusOutput struct {
	Connected bool
	Model     string
	Message   string
}
