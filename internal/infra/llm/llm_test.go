package llm

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/futurenavigators/pathpilot/internal/domain"
)

func init() {
	retryBase = time.Millisecond
}

// ═══════════════════════════════════════════════════════════════════════════
// Retry
// ═══════════════════════════════════════════════════════════════════════════

func TestWithRetry_RecoversAfterFailures(t *testing.T) {
	var calls atomic.Int32
	flaky := CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		if calls.Add(1) < 3 {
			return "", errors.New("503 overloaded")
		}
		return "ok: " + prompt, nil
	})

	out, err := WithRetry(flaky, 3).Complete(context.Background(), "hi")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "ok: hi" {
		t.Errorf("out = %q", out)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestWithRetry_Exhausted(t *testing.T) {
	boom := errors.New("boom")
	var calls atomic.Int32
	failing := CompleterFunc(func(context.Context, string) (string, error) {
		calls.Add(1)
		return "", boom
	})

	_, err := WithRetry(failing, 2).Complete(context.Background(), "x")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
	if !strings.Contains(err.Error(), "after 2 attempts") {
		t.Errorf("error = %q", err)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestWithRetry_ZeroAttemptsMeansOnce(t *testing.T) {
	var calls atomic.Int32
	c := CompleterFunc(func(context.Context, string) (string, error) {
		calls.Add(1)
		return "", errors.New("no")
	})
	_, _ = WithRetry(c, 0).Complete(context.Background(), "x")
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestWithRetry_ContextCancelled(t *testing.T) {
	retryBase = time.Hour
	defer func() { retryBase = time.Millisecond }()

	ctx, cancel := context.WithCancel(context.Background())
	c := CompleterFunc(func(context.Context, string) (string, error) {
		cancel()
		return "", errors.New("fail")
	})
	_, err := WithRetry(c, 5).Complete(ctx, "x")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWithTimeout(t *testing.T) {
	slow := CompleterFunc(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	_, err := WithTimeout(slow, 5*time.Millisecond).Complete(context.Background(), "x")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Factory
// ═══════════════════════════════════════════════════════════════════════════

func TestNew_Disabled(t *testing.T) {
	tests := []Config{
		{Provider: "none", APIKey: "k"},
		{Provider: "", APIKey: "k"},
		{Provider: "gemini"},
	}
	for _, cfg := range tests {
		c, err := New(context.Background(), cfg, zap.NewNop())
		if err != nil || c != nil {
			t.Errorf("New(%+v) = %v, %v; want nil, nil", cfg, c, err)
		}
	}
}

func TestNew_UnknownProvider(t *testing.T) {
	if _, err := New(context.Background(), Config{Provider: "claude-local", APIKey: "k"}, zap.NewNop()); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Providers against a fake server
// ═══════════════════════════════════════════════════════════════════════════

func TestOpenAI_Complete(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"  Polish your resume.  "},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	c, err := New(context.Background(), Config{
		Provider: "openai", APIKey: "test", BaseURL: srv.URL + "/v1", Model: "gpt-test",
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := c.Complete(context.Background(), "How do I improve?")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "Polish your resume." {
		t.Errorf("out = %q", out)
	}
	if !strings.Contains(body, "How do I improve?") || !strings.Contains(body, "gpt-test") {
		t.Errorf("request body missing prompt or model: %s", body)
	}
}

func TestOpenAI_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"1","object":"chat.completion","choices":[]}`)
	}))
	defer srv.Close()

	c := NewOpenAI("test", "", srv.URL+"/v1")
	_, err := c.Complete(context.Background(), "x")
	if !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
}

func TestGemini_Complete(t *testing.T) {
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":"Practice mock interviews."}]}}]}`)
	}))
	defer srv.Close()

	g, err := NewGemini(context.Background(), "test-key", "", srv.URL)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, err := g.Complete(context.Background(), "interview tips")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != "Practice mock interviews." {
		t.Errorf("out = %q", out)
	}
	if !strings.Contains(path, DefaultGeminiModel) {
		t.Errorf("path %q does not name model %q", path, DefaultGeminiModel)
	}
}

func TestNewGemini_RequiresKey(t *testing.T) {
	if _, err := NewGemini(context.Background(), "", "", ""); err == nil {
		t.Fatal("expected error without API key")
	}
}
