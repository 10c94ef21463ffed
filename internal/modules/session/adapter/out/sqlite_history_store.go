package out

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mindtrack/internal/modules/session/domain"

	_ "modernc.org/sqlite"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

type SQLiteHistoryStore struct {
	db *sql.DB
}

func NewSQLiteHistoryStore(dbPath string) (*SQLiteHistoryStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store := &SQLiteHistoryStore{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteHistoryStore) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS session_history (
  session_id TEXT PRIMARY KEY,
  state TEXT NOT NULL,
  total_topics INTEGER NOT NULL,
  completed_count INTEGER NOT NULL,
  backlog_count INTEGER NOT NULL,
  total_minutes INTEGER NOT NULL,
  studied_minutes INTEGER NOT NULL,
  reschedule_count INTEGER NOT NULL,
  created_at TEXT NOT NULL,
  completed_at TEXT,
  report_path TEXT
);
`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create session_history table: %w", err)
	}
	return nil
}

func (s *SQLiteHistoryStore) Record(ctx context.Context, entry domain.HistoryEntry) error {
	const stmt = `
INSERT INTO session_history (session_id, state, total_topics, completed_count, backlog_count, total_minutes, studied_minutes, reschedule_count, created_at, completed_at, report_path)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(session_id) DO UPDATE SET
  state=excluded.state,
  total_topics=excluded.total_topics,
  completed_count=excluded.completed_count,
  backlog_count=excluded.backlog_count,
  total_minutes=excluded.total_minutes,
  studied_minutes=excluded.studied_minutes,
  reschedule_count=excluded.reschedule_count,
  created_at=excluded.created_at,
  completed_at=excluded.completed_at,
  report_path=excluded.report_path;
`
	_, err := s.db.ExecContext(ctx, stmt,
		entry.SessionID,
		string(entry.State),
		entry.TotalTopics,
		entry.CompletedCount,
		entry.BacklogCount,
		entry.TotalMinutes,
		entry.StudiedMinutes,
		entry.RescheduleCount,
		entry.CreatedAt.UTC().Format(timeLayout),
		formatOptionalTime(entry.CompletedAt),
		entry.ReportPath,
	)
	if err != nil {
		return fmt.Errorf("record session history: %w", err)
	}
	return nil
}

// List returns the newest entries first. A non-positive limit lists everything.
func (s *SQLiteHistoryStore) List(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	query := `
SELECT session_id, state, total_topics, completed_count, backlog_count, total_minutes, studied_minutes, reschedule_count, created_at, completed_at, report_path
FROM session_history
ORDER BY created_at DESC, session_id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query session history: %w", err)
	}
	defer rows.Close()

	out := []domain.HistoryEntry{}
	for rows.Next() {
		var (
			entry       domain.HistoryEntry
			state       string
			createdAt   string
			completedAt sql.NullString
			reportPath  sql.NullString
		)
		if err := rows.Scan(
			&entry.SessionID,
			&state,
			&entry.TotalTopics,
			&entry.CompletedCount,
			&entry.BacklogCount,
			&entry.TotalMinutes,
			&entry.StudiedMinutes,
			&entry.RescheduleCount,
			&createdAt,
			&completedAt,
			&reportPath,
		); err != nil {
			return nil, fmt.Errorf("scan session history: %w", err)
		}
		entry.State = domain.State(state)
		if entry.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		if completedAt.Valid && completedAt.String != "" {
			if entry.CompletedAt, err = time.Parse(timeLayout, completedAt.String); err != nil {
				return nil, fmt.Errorf("parse completed_at: %w", err)
			}
		}
		entry.ReportPath = reportPath.String
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session history: %w", err)
	}
	return out, nil
}

func (s *SQLiteHistoryStore) Close() error {
	return s.db.Close()
}

func formatOptionalTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.UTC().Format(timeLayout)
}
