package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/futurenavigators/pathpilot/internal/domain"
)

// ─── Engagement Snapshots ───────────────────────────────────────────────────

// SaveSnapshot upserts the session's engagement state.
func (d *DB) SaveSnapshot(ctx context.Context, sessionID string, st *domain.EngagementState) error {
	body, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	now := time.Now().Unix()
	_, err = d.db.ExecContext(ctx,
		`INSERT INTO sessions (id, state, xp, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			state=excluded.state,
			xp=excluded.xp,
			updated_at=excluded.updated_at`,
		sessionID, string(body), st.XP, now, now,
	)
	if err != nil {
		return fmt.Errorf("save snapshot %s: %w", sessionID, err)
	}
	return nil
}

// LoadSnapshot returns the stored state, or (nil, nil) if there is none.
func (d *DB) LoadSnapshot(ctx context.Context, sessionID string) (*domain.EngagementState, error) {
	var body string
	err := d.db.QueryRowContext(ctx, `SELECT state FROM sessions WHERE id = ?`, sessionID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", sessionID, err)
	}

	var st domain.EngagementState
	if err := json.Unmarshal([]byte(body), &st); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", sessionID, err)
	}
	st.SessionID = sessionID
	st.Normalize()
	return &st, nil
}

// SessionCount returns the number of stored sessions.
func (d *DB) SessionCount(ctx context.Context) (int, error) {
	var n int
	err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&n)
	return n, err
}
