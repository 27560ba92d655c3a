package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/futurenavigators/pathpilot/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// ─── Database Lifecycle ─────────────────────────────────────────────────────

func TestOpen_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()
	db, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(filepath.Join(dir, "state.db")); os.IsNotExist(err) {
		t.Error("state.db should exist")
	}
}

func TestOpen_AppliesPragmas(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	var mode string
	if err := db.db.QueryRowContext(ctx, `PRAGMA journal_mode`).Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if mode != "wal" {
		t.Errorf("journal_mode = %q, want wal", mode)
	}

	var timeout, fk int
	if err := db.db.QueryRowContext(ctx, `PRAGMA busy_timeout`).Scan(&timeout); err != nil {
		t.Fatalf("busy_timeout: %v", err)
	}
	if timeout != 5000 {
		t.Errorf("busy_timeout = %d, want 5000", timeout)
	}
	if err := db.db.QueryRowContext(ctx, `PRAGMA foreign_keys`).Scan(&fk); err != nil {
		t.Fatalf("foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign_keys = %d, want 1", fk)
	}
}

func TestOpen_Ping(t *testing.T) {
	db := newTestDB(t)
	if err := db.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error: %v", err)
	}
}

func TestOpen_MigrationsIdempotent(t *testing.T) {
	dir := t.TempDir()
	db1, err := Open(dir)
	if err != nil {
		t.Fatalf("first Open() error: %v", err)
	}
	db1.Close()

	db2, err := Open(dir)
	if err != nil {
		t.Fatalf("second Open() error: %v", err)
	}
	db2.Close()
}

// ─── Snapshots ──────────────────────────────────────────────────────────────

func TestSnapshot_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	day := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	st := domain.NewEngagementState()
	st.LastCheckIn = &day
	st.Streak = 3
	st.LongestStreak = 3
	st.XP = 30
	st.Badges = []domain.Badge{domain.StreakBadge(3)}
	st.GoalProgress["Machine Learning"] = 40
	st.WeeklyTasks[0].Done = true
	st.SyncLeaderboard()

	if err := db.SaveSnapshot(ctx, "s1", st); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := db.LoadSnapshot(ctx, "s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	st.SessionID = "s1"
	if diff := cmp.Diff(st, got); diff != "" {
		t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshot_Upsert(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	st := domain.NewEngagementState()
	_ = db.SaveSnapshot(ctx, "s1", st)
	st.XP = 99
	if err := db.SaveSnapshot(ctx, "s1", st); err != nil {
		t.Fatalf("second save: %v", err)
	}

	got, _ := db.LoadSnapshot(ctx, "s1")
	if got.XP != 99 {
		t.Errorf("XP = %d, want 99", got.XP)
	}
	if n, _ := db.SessionCount(ctx); n != 1 {
		t.Errorf("SessionCount = %d, want 1", n)
	}
}

func TestSnapshot_Missing(t *testing.T) {
	db := newTestDB(t)
	got, err := db.LoadSnapshot(context.Background(), "nope")
	if err != nil || got != nil {
		t.Errorf("LoadSnapshot(missing) = %v, %v; want nil, nil", got, err)
	}
}

// ─── Chat Log ───────────────────────────────────────────────────────────────

func TestChatLog_AppendListFeedback(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	base := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	recs := []domain.ChatRecord{
		{ID: "r1", SessionID: "s1", User: "How do I write a resume?", Bot: "Keep it short.", MatchedQuestion: "How do I write a good resume?", CreatedAt: base},
		{ID: "r2", SessionID: "s1", User: "Interview tips?", Bot: "Practice.", Degraded: true, CreatedAt: base.Add(10 * time.Millisecond)},
		{ID: "r3", SessionID: "s2", User: "other", Bot: "other", CreatedAt: base},
	}
	for _, r := range recs {
		if err := db.Append(ctx, r); err != nil {
			t.Fatalf("append %s: %v", r.ID, err)
		}
	}

	if err := db.SetFeedback(ctx, "s1", "r2", "😊"); err != nil {
		t.Fatalf("feedback: %v", err)
	}

	got, err := db.List(ctx, "s1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []domain.ChatRecord{recs[0], recs[1]}
	want[1].Feedback = "😊"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("list mismatch (-want +got):\n%s", diff)
	}

	summary, err := db.FeedbackSummary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if diff := cmp.Diff(map[string]int{"😊": 1}, summary); diff != "" {
		t.Errorf("summary mismatch (-want +got):\n%s", diff)
	}
}

func TestChatLog_MissingRecord(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)

	if err := db.SetFeedback(ctx, "s1", "ghost", "😀"); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("SetFeedback: expected ErrRecordNotFound, got %v", err)
	}
}

func TestChatLog_FeedbackScopedToSession(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	rec := domain.ChatRecord{ID: "r1", SessionID: "s1", User: "q", Bot: "a", CreatedAt: time.Now()}
	if err := db.Append(ctx, rec); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := db.SetFeedback(ctx, "s2", "r1", "😡"); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("foreign session: expected ErrRecordNotFound, got %v", err)
	}
	got, _ := db.List(ctx, "s1")
	if len(got) != 1 || got[0].Feedback != "" {
		t.Errorf("record changed by foreign session: %+v", got)
	}

	if err := db.SetFeedback(ctx, "s1", "r1", "😀"); err != nil {
		t.Fatalf("owner feedback: %v", err)
	}
	got, _ = db.List(ctx, "s1")
	if len(got) != 1 || got[0].Feedback != "😀" {
		t.Errorf("owner feedback not stored: %+v", got)
	}
}

func TestChatLog_DuplicateID(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	rec := domain.ChatRecord{ID: "r1", SessionID: "s1", User: "q", Bot: "a", CreatedAt: time.Now()}
	if err := db.Append(ctx, rec); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := db.Append(ctx, rec); err == nil {
		t.Error("expected error on duplicate id")
	}
}

// ─── Resume Reports ─────────────────────────────────────────────────────────

func TestResumeReports(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	if err := db.RecordResume(ctx, "cv.pdf", "pdf", "resumes/2025/07/x-cv.pdf", time.Now()); err != nil {
		t.Fatalf("record: %v", err)
	}
	if n, _ := db.ResumeCount(ctx); n != 1 {
		t.Errorf("ResumeCount = %d, want 1", n)
	}
}
