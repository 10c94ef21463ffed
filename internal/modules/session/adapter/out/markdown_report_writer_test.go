package out_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sessionadapter "mindtrack/internal/modules/session/adapter/out"
	"mindtrack/internal/modules/session/domain"
	"mindtrack/internal/platform/markdown"
)

func TestMarkdownReportWriterWritesFrontmatter(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	created := time.Date(2026, 3, 2, 9, 15, 30, 0, time.UTC)
	session := domain.Session{
		ID:        "sess-1",
		State:     domain.StateCompleted,
		CreatedAt: created,
		Topics: []domain.Topic{
			{Name: "Linear Algebra", Subject: "Math", Level: domain.LevelUnknown, TimeMinutes: 20, Status: domain.TopicCompleted, ElapsedSeconds: 1200},
			{Name: "Optics", Subject: "Physics", Level: domain.LevelKnown, TimeMinutes: 10, Status: domain.TopicBacklog},
		},
		Backlog:     []domain.BacklogItem{{Name: "Optics", Subject: "Physics"}},
		CompletedAt: created.Add(25 * time.Minute),
	}
	entry := domain.HistoryEntry{SessionID: "sess-1", TotalTopics: 2, CompletedCount: 1, BacklogCount: 1, TotalMinutes: 30, StudiedMinutes: 20}

	path, err := sessionadapter.NewMarkdownReportWriter(dir).Write(context.Background(), entry, session)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2026", "03", "02", "091530-sess1-math-linear-algebra.md"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	meta, body, err := markdown.Split(string(raw))
	require.NoError(t, err)
	assert.Equal(t, "sess-1", meta["id"])
	assert.Equal(t, 20, meta["studied_minutes"])
	assert.Equal(t, "completed", meta["state"])
	assert.Contains(t, body, "## Backlog")
	assert.Contains(t, body, "- Physics / Optics")
}

func TestMarkdownReportWriterKeepsSameSecondSessionsApart(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writer := sessionadapter.NewMarkdownReportWriter(dir)
	created := time.Date(2026, 3, 2, 9, 15, 30, 0, time.UTC)
	topics := []domain.Topic{{Name: "Optics", Subject: "Physics", TimeMinutes: 10, Status: domain.TopicCompleted}}

	first, err := writer.Write(context.Background(), domain.HistoryEntry{SessionID: "0f3a9c1e-aaaa"}, domain.Session{ID: "0f3a9c1e-aaaa", CreatedAt: created, Topics: topics})
	require.NoError(t, err)
	second, err := writer.Write(context.Background(), domain.HistoryEntry{SessionID: "7b21d4e0-bbbb"}, domain.Session{ID: "7b21d4e0-bbbb", CreatedAt: created, Topics: topics})
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, "091530-0f3a9c1e-physics-optics.md", filepath.Base(first))
	for _, path := range []string{first, second} {
		_, err := os.Stat(path)
		require.NoError(t, err)
	}
}
