package out

import (
	"context"

	"mindtrack/internal/modules/session/domain"
)

// SessionStore persists sessions by id. Implementations hand out copies.
type SessionStore interface {
	Insert(ctx context.Context, session domain.Session) error
	Get(ctx context.Context, id string) (domain.Session, error)
	Update(ctx context.Context, session domain.Session) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]domain.Session, error)
}

// HistoryStore archives finished sessions for later listing.
type HistoryStore interface {
	Record(ctx context.Context, entry domain.HistoryEntry) error
	List(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
}

// ReportWriter renders a finished session as a note and returns its path.
type ReportWriter interface {
	Write(ctx context.Context, entry domain.HistoryEntry, session domain.Session) (string, error)
}

// Allocator splits study minutes across topics.
type Allocator interface {
	// AllocateInitial never fails; implementations fall back to an even split.
	AllocateInitial(ctx context.Context, topics []domain.Topic, totalMinutes int) []domain.Allocation
	Reallocate(ctx context.Context, topics []domain.Topic, remainingMinutes int) ([]domain.Allocation, error)
	Check(ctx context.Context) domain.AllocatorStatus
}

// EmotionClassifier labels a webcam frame and degrades to neutral on failure.
type EmotionClassifier interface {
	Classify(ctx context.Context, frame []byte) domain.Emotion
}
