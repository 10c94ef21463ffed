package out

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"mindtrack/internal/modules/session/domain"
	"mindtrack/internal/platform/markdown"
	"mindtrack/internal/platform/slug"
)

// MarkdownReportWriter writes one note per finished session under
// <dir>/YYYY/MM/DD/HHMMSS-<id prefix>-<slug>.md.
type MarkdownReportWriter struct {
	dir string
}

func NewMarkdownReportWriter(dir string) *MarkdownReportWriter {
	return &MarkdownReportWriter{dir: dir}
}

func (w *MarkdownReportWriter) Write(_ context.Context, entry domain.HistoryEntry, session domain.Session) (string, error) {
	date := session.CreatedAt.UTC()
	dir := filepath.Join(w.dir, date.Format("2006"), date.Format("01"), date.Format("02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	name := fmt.Sprintf("%s-%s-%s.md", date.Format("150405"), shortID(session.ID), slug.Make(reportTitle(session)))
	path := filepath.Join(dir, name)

	fields := []markdown.Field{
		{Key: "schema_version", Value: domain.SchemaVersion},
		{Key: "id", Value: session.ID},
		{Key: "state", Value: string(session.State)},
		{Key: "created_at", Value: session.CreatedAt.UTC().Format(timeLayout)},
	}
	if !session.CompletedAt.IsZero() {
		fields = append(fields, markdown.Field{Key: "completed_at", Value: session.CompletedAt.UTC().Format(timeLayout)})
	}
	fields = append(fields,
		markdown.Field{Key: "total_topics", Value: entry.TotalTopics},
		markdown.Field{Key: "completed_count", Value: entry.CompletedCount},
		markdown.Field{Key: "backlog_count", Value: entry.BacklogCount},
		markdown.Field{Key: "total_minutes", Value: entry.TotalMinutes},
		markdown.Field{Key: "studied_minutes", Value: entry.StudiedMinutes},
		markdown.Field{Key: "reschedule_count", Value: entry.RescheduleCount},
	)

	rendered, err := markdown.Render(fields, reportBody(session, entry))
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("write session report: %w", err)
	}
	return path, nil
}

const shortIDLen = 8

// shortID keeps the first alphanumeric characters of a session id so two
// sessions started in the same second get distinct report names.
func shortID(id string) string {
	b := strings.Builder{}
	for _, r := range strings.ToLower(id) {
		if b.Len() == shortIDLen {
			break
		}
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "session"
	}
	return b.String()
}

func reportTitle(session domain.Session) string {
	if len(session.Topics) == 0 {
		return "session"
	}
	return session.Topics[0].Subject + " " + session.Topics[0].Name
}

func reportBody(session domain.Session, entry domain.HistoryEntry) string {
	b := strings.Builder{}
	fmt.Fprintf(&b, "# Study session %s\n\n", session.ID)
	fmt.Fprintf(&b, "- Studied: %d of %d minutes\n", entry.StudiedMinutes, entry.TotalMinutes)
	fmt.Fprintf(&b, "- Reschedules: %d\n\n", entry.RescheduleCount)
	b.WriteString("## Topics\n\n")
	for _, t := range session.Topics {
		fmt.Fprintf(&b, "- [%s] %s / %s (%s, %d min, studied %d min)\n", t.Status, t.Subject, t.Name, t.Level, t.TimeMinutes, t.ElapsedSeconds/60)
	}
	if len(session.Backlog) > 0 {
		b.WriteString("\n## Backlog\n\n")
		for _, item := range session.Backlog {
			fmt.Fprintf(&b, "- %s / %s\n", item.Subject, item.Name)
		}
	}
	return b.String()
}
