package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
)

const MinMinutes = 5

// MaxMinutes is the longest budget a session may have. An allocation beyond
// it cannot be meaningful and is treated as unparseable.
const MaxMinutes = 600

var (
	ErrEmptySchedule  = errors.New("schedule has no usable items")
	ErrMissingTopics  = errors.New("schedule is missing requested topics")
	ErrNoTopics       = errors.New("at least one topic is required")
	ErrInvalidMinutes = errors.New("minutes must be positive")
)

type Level string

const (
	LevelKnown   Level = "known"
	LevelPartial Level = "partial"
	LevelUnknown Level = "unknown"
)

// Item is one topic in an allocation request or result.
type Item struct {
	ID          string
	Name        string
	Subject     string
	Level       Level
	TimeMinutes int
}

type Request struct {
	Items   []Item
	Minutes int
}

func (r Request) Validate() error {
	if len(r.Items) == 0 {
		return ErrNoTopics
	}
	if r.Minutes <= 0 {
		return ErrInvalidMinutes
	}
	return nil
}

// EvenSplit gives every item max(5, minutes/count).
func EvenSplit(req Request) []Item {
	per := MinMinutes
	if len(req.Items) > 0 {
		per = max(MinMinutes, req.Minutes/len(req.Items))
	}
	out := make([]Item, 0, len(req.Items))
	for _, item := range req.Items {
		item.TimeMinutes = per
		out = append(out, item)
	}
	return out
}

type wireSchedule struct {
	Schedule []wireItem `json:"schedule"`
}

type wireItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	TimeMinutes json.RawMessage `json:"time_minutes"`
}

// ParseSchedule decodes a model reply and resolves each entry to a requested
// item, by id first and then by case-insensitive name. Unknown entries are
// dropped and minutes are clamped to MinMinutes.
func ParseSchedule(raw string, requested []Item) ([]Item, error) {
	payload := wireSchedule{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &payload); err != nil {
		return nil, fmt.Errorf("decode schedule: %w", err)
	}

	byID := make(map[string]Item, len(requested))
	byName := make(map[string]Item, len(requested))
	for _, item := range requested {
		byID[item.ID] = item
		key := strings.ToLower(strings.TrimSpace(item.Name))
		if _, seen := byName[key]; !seen {
			byName[key] = item
		}
	}

	out := []Item{}
	used := map[string]bool{}
	for _, entry := range payload.Schedule {
		match, ok := byID[strings.TrimSpace(entry.ID)]
		if !ok {
			match, ok = byName[strings.ToLower(strings.TrimSpace(entry.Name))]
		}
		if !ok || used[match.ID] {
			continue
		}
		minutes, err := parseMinutes(entry.TimeMinutes)
		if err != nil {
			continue
		}
		used[match.ID] = true
		match.TimeMinutes = max(MinMinutes, minutes)
		out = append(out, match)
	}
	if len(out) == 0 {
		return nil, ErrEmptySchedule
	}
	return out, nil
}

// Complete reports whether every requested item has an allocation.
func Complete(requested, allocated []Item) bool {
	have := make(map[string]bool, len(allocated))
	for _, item := range allocated {
		have[item.ID] = true
	}
	for _, item := range requested {
		if !have[item.ID] {
			return false
		}
	}
	return true
}

// Order returns allocated items in the order they were requested.
func Order(requested, allocated []Item) []Item {
	byID := make(map[string]Item, len(allocated))
	for _, item := range allocated {
		byID[item.ID] = item
	}
	out := make([]Item, 0, len(allocated))
	for _, item := range requested {
		if got, ok := byID[item.ID]; ok {
			out = append(out, got)
		}
	}
	return out
}

// Models sometimes quote numbers or emit floats.
func parseMinutes(raw json.RawMessage) (int, error) {
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("time_minutes: %w", err)
		}
		if _, err := fmt.Sscanf(strings.TrimSpace(s), "%g", &n); err != nil {
			return 0, fmt.Errorf("time_minutes: %w", err)
		}
	}
	if math.IsNaN(n) || math.Abs(n) > MaxMinutes {
		return 0, fmt.Errorf("time_minutes: %v out of range", n)
	}
	return int(n), nil
}
