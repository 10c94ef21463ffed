package in

import (
	"context"
	"fmt"
	"strings"

	sessiondto "mindtrack/internal/modules/session/dto"
	sessionin "mindtrack/internal/modules/session/port/in"
	apperrors "mindtrack/internal/platform/errors"
)

type CLIHandler struct {
	usecase sessionin.Usecase
}

func NewCLIHandler(usecase sessionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

// Start parses "Subject:Topic[:level]" args and creates a session.
func (h CLIHandler) Start(ctx context.Context, totalMinutes int, args []string) (sessiondto.SessionOutput, error) {
	input, err := ParseTopicArgs(totalMinutes, args)
	if err != nil {
		return sessiondto.SessionOutput{}, err
	}
	return h.usecase.Create(ctx, input)
}

func (h CLIHandler) Current(ctx context.Context) (sessiondto.CurrentOutput, error) {
	return h.usecase.Current(ctx)
}

func (h CLIHandler) Complete(ctx context.Context) (sessiondto.AdvanceOutput, error) {
	return h.usecase.AdvanceTopic(ctx, sessiondto.AdvanceInput{Completed: true})
}

func (h CLIHandler) Backlog(ctx context.Context) (sessiondto.AdvanceOutput, error) {
	return h.usecase.AdvanceTopic(ctx, sessiondto.AdvanceInput{Completed: false})
}

// TogglePause pauses an active session and resumes a paused one.
func (h CLIHandler) TogglePause(ctx context.Context) (sessiondto.SessionOutput, error) {
	current, err := h.usecase.Current(ctx)
	if err != nil {
		return sessiondto.SessionOutput{}, err
	}
	if current.Paused {
		return h.usecase.Resume(ctx)
	}
	return h.usecase.Pause(ctx)
}

func (h CLIHandler) Summary(ctx context.Context) (sessiondto.SummaryOutput, error) {
	return h.usecase.Summary(ctx)
}

func (h CLIHandler) Record(ctx context.Context, emotion string) (sessiondto.EmotionOutput, error) {
	return h.usecase.RecordEmotion(ctx, emotion)
}

func (h CLIHandler) Reschedule(ctx context.Context) (sessiondto.RescheduleOutput, error) {
	return h.usecase.Reschedule(ctx)
}

func (h CLIHandler) Delete(ctx context.Context) error {
	return h.usecase.Delete(ctx)
}

func (h CLIHandler) CheckAllocator(ctx context.Context) sessiondto.AllocatorStatusOutput {
	return h.usecase.CheckAllocator(ctx)
}

func (h CLIHandler) History(ctx context.Context, limit int) ([]sessiondto.HistoryOutput, error) {
	return h.usecase.History(ctx, limit)
}

// ParseTopicArgs groups "Subject:Topic[:level]" args by subject in the
// order subjects first appear.
func ParseTopicArgs(totalMinutes int, args []string) (sessiondto.CreateInput, error) {
	input := sessiondto.CreateInput{TotalMinutes: totalMinutes}
	bySubject := map[string]int{}
	for _, arg := range args {
		parts := strings.Split(arg, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return sessiondto.CreateInput{}, fmt.Errorf("%w: topic %q must be Subject:Topic[:level]", apperrors.ErrInvalidInput, arg)
		}
		subject, name := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
		if subject == "" || name == "" {
			return sessiondto.CreateInput{}, fmt.Errorf("%w: topic %q has an empty subject or name", apperrors.ErrInvalidInput, arg)
		}
		level := ""
		if len(parts) == 3 {
			level = strings.TrimSpace(parts[2])
		}
		idx, ok := bySubject[subject]
		if !ok {
			idx = len(input.Subjects)
			bySubject[subject] = idx
			input.Subjects = append(input.Subjects, sessiondto.SubjectInput{Name: subject})
		}
		input.Subjects[idx].Topics = append(input.Subjects[idx].Topics, sessiondto.TopicInput{Name: name, Level: level})
	}
	return input, nil
}
