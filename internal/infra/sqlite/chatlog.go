package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/futurenavigators/pathpilot/internal/domain"
)

// ─── Chat Log ───────────────────────────────────────────────────────────────

// Append inserts a chat record.
func (d *DB) Append(ctx context.Context, rec domain.ChatRecord) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO chat_log (id, session_id, user_text, bot_text, matched_question, feedback, degraded, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SessionID, rec.User, rec.Bot, rec.MatchedQuestion,
		rec.Feedback, rec.Degraded, unixMilli(rec.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert chat record: %w", err)
	}
	return nil
}

// SetFeedback sets the emoji feedback on a record of sessionID.
func (d *DB) SetFeedback(ctx context.Context, sessionID, id, feedback string) error {
	result, err := d.db.ExecContext(ctx,
		`UPDATE chat_log SET feedback = ? WHERE id = ? AND session_id = ?`, feedback, id, sessionID)
	if err != nil {
		return fmt.Errorf("update feedback: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

// List returns a session's records, oldest first.
func (d *DB) List(ctx context.Context, sessionID string) ([]domain.ChatRecord, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, session_id, user_text, bot_text, matched_question, feedback, degraded, created_at
		 FROM chat_log WHERE session_id = ? ORDER BY created_at, rowid`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ChatRecord
	for rows.Next() {
		rec, err := scanChatRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// FeedbackSummary counts feedback emojis across all sessions.
func (d *DB) FeedbackSummary(ctx context.Context) (map[string]int, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT feedback, COUNT(*) FROM chat_log WHERE feedback != '' GROUP BY feedback`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var f string
		var n int
		if err := rows.Scan(&f, &n); err != nil {
			return nil, err
		}
		out[f] = n
	}
	return out, rows.Err()
}

func scanChatRecord(s scanner) (domain.ChatRecord, error) {
	var rec domain.ChatRecord
	var created int64
	err := s.Scan(&rec.ID, &rec.SessionID, &rec.User, &rec.Bot,
		&rec.MatchedQuestion, &rec.Feedback, &rec.Degraded, &created)
	if err != nil {
		return rec, err
	}
	rec.CreatedAt = fromUnixMilli(created)
	return rec, nil
}

// ─── Resume Reports ─────────────────────────────────────────────────────────

// RecordResume logs a completed resume analysis.
func (d *DB) RecordResume(ctx context.Context, filename, kind, archiveKey string, at time.Time) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO resume_reports (filename, kind, archive_key, created_at) VALUES (?, ?, ?, ?)`,
		filename, kind, archiveKey, at.Unix())
	if err != nil {
		return fmt.Errorf("insert resume report: %w", err)
	}
	return nil
}

// ResumeCount returns the number of analyzed resumes.
func (d *DB) ResumeCount(ctx context.Context) (int, error) {
	var n int
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM resume_reports`).Scan(&n)
	return n, err
}
