package mongo

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/futurenavigators/pathpilot/internal/domain"
)

// testLog connects to PATHPILOT_TEST_MONGO_URI, skipping when it is unset.
func testLog(t *testing.T) *ChatLog {
	t.Helper()
	uri := os.Getenv("PATHPILOT_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("PATHPILOT_TEST_MONGO_URI not set")
	}
	db := "pathpilot_test_" + uuid.NewString()[:8]
	c, err := Connect(context.Background(), uri, db)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() {
		_ = c.collection.Database().Drop(context.Background())
		_ = c.Close(context.Background())
	})
	return c
}

func TestChatLog_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := testLog(t)

	base := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	first := domain.ChatRecord{ID: uuid.NewString(), SessionID: "s1", User: "q1", Bot: "a1", CreatedAt: base}
	second := domain.ChatRecord{ID: uuid.NewString(), SessionID: "s1", User: "q2", Bot: "a2", CreatedAt: base.Add(time.Minute)}
	other := domain.ChatRecord{ID: uuid.NewString(), SessionID: "s2", User: "x", Bot: "y", CreatedAt: base}
	for _, r := range []domain.ChatRecord{second, first, other} {
		if err := c.Append(ctx, r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	if err := c.SetFeedback(ctx, "s1", first.ID, "😀"); err != nil {
		t.Fatalf("feedback: %v", err)
	}
	if err := c.SetFeedback(ctx, "s2", second.ID, "😡"); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("foreign session: expected ErrRecordNotFound, got %v", err)
	}
	got, err := c.List(ctx, "s1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != first.ID || got[0].Feedback != "😀" || got[1].Feedback != "" {
		t.Errorf("list = %+v", got)
	}

	summary, err := c.FeedbackSummary(ctx)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(summary) != 1 || summary["😀"] != 1 {
		t.Errorf("summary = %v", summary)
	}
}

func TestChatLog_FeedbackMissing(t *testing.T) {
	c := testLog(t)
	if err := c.SetFeedback(context.Background(), "s1", "nope", "😀"); !errors.Is(err, domain.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}
