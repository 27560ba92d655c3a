package session_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/futurenavigators/pathpilot/internal/app/engagement"
	"github.com/futurenavigators/pathpilot/internal/app/session"
	"github.com/futurenavigators/pathpilot/internal/domain"
	"github.com/futurenavigators/pathpilot/internal/infra/sqlite"
)

// fakeBoard records the last XP per session.
type fakeBoard struct {
	mu  sync.Mutex
	xp  map[string]int
	err error
}

func (b *fakeBoard) Record(_ context.Context, id string, xp int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.xp == nil {
		b.xp = make(map[string]int)
	}
	b.xp[id] = xp
	return b.err
}

func (b *fakeBoard) GlobalRank(_ context.Context, id string) (int64, error) {
	if b.err != nil {
		return 0, b.err
	}
	return 1, nil
}

func openDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// ═══════════════════════════════════════════════════════════════════════════
// Lifecycle
// ═══════════════════════════════════════════════════════════════════════════

func TestCreate_DefaultState(t *testing.T) {
	ctx := context.Background()
	r := session.NewRegistry()

	id, err := r.Create(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if id == "" {
		t.Fatal("empty session id")
	}

	err = r.View(ctx, id, func(st *domain.EngagementState) error {
		if st.SessionID != id {
			t.Errorf("SessionID = %q, want %q", st.SessionID, id)
		}
		if diff := cmp.Diff([]string{"Machine Learning"}, st.Goals); diff != "" {
			t.Errorf("goals mismatch (-want +got):\n%s", diff)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if r.Len() != 1 {
		t.Errorf("Len = %d, want 1", r.Len())
	}
}

func TestUnknownSession(t *testing.T) {
	ctx := context.Background()
	r := session.NewRegistry(session.WithStore(openDB(t)))

	noop := func(*domain.EngagementState) error { return nil }
	if err := r.View(ctx, "ghost", noop); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("View: expected ErrSessionNotFound, got %v", err)
	}
	if err := r.Update(ctx, "ghost", noop); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("Update: expected ErrSessionNotFound, got %v", err)
	}
	if _, err := r.History(ctx, "ghost"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Errorf("History: expected ErrSessionNotFound, got %v", err)
	}
}

func TestUpdate_PersistsAcrossRegistries(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	eng := engagement.New(engagement.DefaultRules())
	today := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	r1 := session.NewRegistry(session.WithStore(db))
	id, err := r1.Create(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	err = r1.Update(ctx, id, func(st *domain.EngagementState) error {
		_, err := eng.CheckIn(st, today)
		return err
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	// A fresh registry over the same store sees the saved snapshot.
	r2 := session.NewRegistry(session.WithStore(db))
	err = r2.View(ctx, id, func(st *domain.EngagementState) error {
		if st.XP != 10 || st.Streak != 1 {
			t.Errorf("restored XP=%d streak=%d, want 10/1", st.XP, st.Streak)
		}
		if st.SessionID != id {
			t.Errorf("restored SessionID = %q", st.SessionID)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("view restored: %v", err)
	}
}

func TestUpdate_ErrorSkipsSave(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	board := &fakeBoard{}
	r := session.NewRegistry(session.WithStore(db), session.WithScoreBoard(board))
	id, _ := r.Create(ctx)

	boom := errors.New("boom")
	err := r.Update(ctx, id, func(st *domain.EngagementState) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(board.xp) != 0 {
		t.Errorf("score board touched on failed update: %v", board.xp)
	}
}

// flakyStore fails SaveSnapshot while fail is set.
type flakyStore struct {
	*sqlite.DB
	mu   sync.Mutex
	fail bool
}

func (f *flakyStore) setFail(v bool) {
	f.mu.Lock()
	f.fail = v
	f.mu.Unlock()
}

func (f *flakyStore) SaveSnapshot(ctx context.Context, id string, st *domain.EngagementState) error {
	f.mu.Lock()
	fail := f.fail
	f.mu.Unlock()
	if fail {
		return errors.New("disk full")
	}
	return f.DB.SaveSnapshot(ctx, id, st)
}

func TestUpdate_FnErrorLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	r := session.NewRegistry(session.WithStore(openDB(t)))
	id, _ := r.Create(ctx)

	_ = r.Update(ctx, id, func(st *domain.EngagementState) error {
		st.XP = 500
		st.Goals = append(st.Goals, "DevOps")
		st.GoalProgress["Machine Learning"] = 90
		return errors.New("rejected")
	})

	_ = r.View(ctx, id, func(st *domain.EngagementState) error {
		if st.XP != 0 || len(st.Goals) != 1 || st.GoalProgress["Machine Learning"] != 0 {
			t.Errorf("state changed by failed update: %+v", st)
		}
		return nil
	})
}

func TestUpdate_SaveFailureLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{DB: openDB(t)}
	board := &fakeBoard{}
	r := session.NewRegistry(session.WithStore(store), session.WithScoreBoard(board))
	id, err := r.Create(ctx)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	eng := engagement.New(engagement.DefaultRules())
	day := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	checkIn := func(st *domain.EngagementState) error {
		_, err := eng.CheckIn(st, day)
		return err
	}

	store.setFail(true)
	if err := r.Update(ctx, id, checkIn); err == nil {
		t.Fatal("expected save error")
	}
	_ = r.View(ctx, id, func(st *domain.EngagementState) error {
		if st.XP != 0 || st.Streak != 0 || st.LastCheckIn != nil {
			t.Errorf("state after failed save = xp %d streak %d, want untouched", st.XP, st.Streak)
		}
		return nil
	})
	if len(board.xp) != 0 {
		t.Errorf("score board touched on failed save: %v", board.xp)
	}

	// Once the store recovers the same check-in is accepted.
	store.setFail(false)
	if err := r.Update(ctx, id, checkIn); err != nil {
		t.Fatalf("retry check-in: %v", err)
	}
	_ = r.View(ctx, id, func(st *domain.EngagementState) error {
		if st.XP != 10 || st.Streak != 1 {
			t.Errorf("after retry xp = %d streak = %d, want 10 and 1", st.XP, st.Streak)
		}
		return nil
	})
}

func TestOpen_ConcurrentKeepsUpdates(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	r := session.NewRegistry(session.WithStore(db))

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.Open(ctx, "shared"); err != nil {
				t.Errorf("open: %v", err)
				return
			}
			_ = r.Update(ctx, "shared", func(st *domain.EngagementState) error {
				st.XP++
				return nil
			})
		}()
	}
	wg.Wait()

	st, err := db.LoadSnapshot(ctx, "shared")
	if err != nil || st == nil {
		t.Fatalf("load: %v", err)
	}
	if st.XP != n {
		t.Errorf("stored XP = %d, want %d", st.XP, n)
	}
}

func TestOpen_FixedID(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)

	r := session.NewRegistry(session.WithStore(db))
	if err := r.Open(ctx, "local"); err != nil {
		t.Fatalf("open: %v", err)
	}
	_ = r.Update(ctx, "local", func(st *domain.EngagementState) error {
		st.XP = 42
		return nil
	})

	// Reopening must not reset the stored state.
	r2 := session.NewRegistry(session.WithStore(db))
	if err := r2.Open(ctx, "local"); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	_ = r2.View(ctx, "local", func(st *domain.EngagementState) error {
		if st.XP != 42 {
			t.Errorf("XP = %d, want 42", st.XP)
		}
		return nil
	})
}

// ═══════════════════════════════════════════════════════════════════════════
// Score board
// ═══════════════════════════════════════════════════════════════════════════

func TestUpdate_MirrorsXP(t *testing.T) {
	ctx := context.Background()
	board := &fakeBoard{}
	r := session.NewRegistry(session.WithScoreBoard(board))
	id, _ := r.Create(ctx)

	_ = r.Update(ctx, id, func(st *domain.EngagementState) error {
		st.XP += 10
		return nil
	})
	if board.xp[id] != 10 {
		t.Errorf("board XP = %d, want 10", board.xp[id])
	}
	if rank := r.GlobalRank(ctx, id); rank != 1 {
		t.Errorf("GlobalRank = %d, want 1", rank)
	}
}

func TestUpdate_BoardFailureNotFatal(t *testing.T) {
	ctx := context.Background()
	board := &fakeBoard{err: errors.New("redis down")}
	r := session.NewRegistry(session.WithScoreBoard(board))
	id, _ := r.Create(ctx)

	err := r.Update(ctx, id, func(st *domain.EngagementState) error {
		st.XP += 10
		return nil
	})
	if err != nil {
		t.Errorf("board failure surfaced: %v", err)
	}
	if rank := r.GlobalRank(ctx, id); rank != -1 {
		t.Errorf("GlobalRank = %d, want -1", rank)
	}
}

func TestGlobalRank_NoBoard(t *testing.T) {
	r := session.NewRegistry()
	if rank := r.GlobalRank(context.Background(), "x"); rank != -1 {
		t.Errorf("GlobalRank = %d, want -1", rank)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// History
// ═══════════════════════════════════════════════════════════════════════════

func TestHistory_AppendFeedbackClear(t *testing.T) {
	ctx := context.Background()
	r := session.NewRegistry()
	id, _ := r.Create(ctx)

	rec := domain.ChatRecord{ID: "r1", SessionID: id, User: "q", Bot: "a"}
	if err := r.AppendHistory(ctx, id, rec); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := r.SetHistoryFeedback(ctx, id, "r1", "😀"); err != nil {
		t.Fatalf("feedback: %v", err)
	}
	if err := r.SetHistoryFeedback(ctx, id, "nope", "😀"); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}

	hist, _ := r.History(ctx, id)
	rec.Feedback = "😀"
	if diff := cmp.Diff([]domain.ChatRecord{rec}, hist); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}

	// Mutating the returned copy must not leak back.
	hist[0].Bot = "changed"
	again, _ := r.History(ctx, id)
	if again[0].Bot != "a" {
		t.Error("History returned an aliased slice")
	}

	if err := r.ClearHistory(ctx, id); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if hist, _ := r.History(ctx, id); len(hist) != 0 {
		t.Errorf("history after clear has %d records", len(hist))
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Concurrency
// ═══════════════════════════════════════════════════════════════════════════

func TestUpdate_SerializedPerSession(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := context.Background()
	r := session.NewRegistry()
	id, _ := r.Create(ctx)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Update(ctx, id, func(st *domain.EngagementState) error {
				st.XP++
				return nil
			})
		}()
	}
	wg.Wait()

	_ = r.View(ctx, id, func(st *domain.EngagementState) error {
		if st.XP != 50 {
			t.Errorf("XP = %d, want 50", st.XP)
		}
		return nil
	})
}
