package domain

import (
	"fmt"
	"strings"
)

// InitialPrompt asks the model to split the whole budget by topic level.
func InitialPrompt(req Request) string {
	return buildPrompt("You are a study schedule allocator.", "Total available time", req)
}

// ReschedulePrompt asks the model to redistribute what is left of a session.
func ReschedulePrompt(req Request) string {
	return buildPrompt(
		"You are a study schedule allocator. The student is struggling and the remaining topics need a fresh plan.",
		"Remaining time",
		req,
	)
}

func buildPrompt(role, budgetLabel string, req Request) string {
	topics := strings.Builder{}
	for _, item := range req.Items {
		fmt.Fprintf(&topics, "- [%s] %s → %s (%s)\n", item.ID, item.Subject, item.Name, item.Level)
	}
	return fmt.Sprintf(`%s

Topics:
%s
%s: %d minutes

Weight Rules:
- UNKNOWN topics: +20%% priority
- KNOWN topics: -10%% priority
- PARTIAL topics: no change

Rules:
1. Allocate ALL %d minutes exactly
2. Each topic minimum %d minutes
3. Keep each topic's id
4. Return ONLY valid JSON

Format:
{
 "schedule":[
   {"id":"t1","name":"Topic","time_minutes":20}
 ]
}
`, role, topics.String(), budgetLabel, req.Minutes, req.Minutes, MinMinutes)
}
