package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func gatheredNames(t *testing.T) map[string]bool {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	return names
}

func TestEngagementMetrics(t *testing.T) {
	CheckIns.WithLabelValues("accepted").Inc()
	XPAwarded.WithLabelValues("checkin").Add(10)
	BadgesUnlocked.WithLabelValues("streak").Inc()
	SessionsActive.Set(2)

	names := gatheredNames(t)
	expected := []string{
		"pathpilot_checkins_total",
		"pathpilot_xp_awarded_total",
		"pathpilot_badges_unlocked_total",
		"pathpilot_sessions_active",
	}
	for _, name := range expected {
		if !names[name] {
			t.Errorf("metric %q not found", name)
		}
	}
}

func TestMatcherMetrics(t *testing.T) {
	MatcherQueries.WithLabelValues("matched").Inc()
	MatchScore.Observe(0.72)
	CorpusEntries.Set(42)

	names := gatheredNames(t)
	for _, name := range []string{
		"pathpilot_matcher_queries_total",
		"pathpilot_match_score",
		"pathpilot_corpus_entries",
	} {
		if !names[name] {
			t.Errorf("metric %q not found", name)
		}
	}
}

func TestCompletionAndResumeMetrics(t *testing.T) {
	CompletionLatency.WithLabelValues("gemini").Observe(1.2)
	CompletionFailures.WithLabelValues("gemini").Inc()
	AnswerFallbacks.Inc()
	ResumeAnalyses.WithLabelValues("pdf", "ok").Inc()
	HTTPRequests.WithLabelValues("/health", "200").Inc()

	names := gatheredNames(t)
	for _, name := range []string{
		"pathpilot_completion_latency_seconds",
		"pathpilot_completion_failures_total",
		"pathpilot_answer_fallbacks_total",
		"pathpilot_resume_analyses_total",
		"pathpilot_http_requests_total",
	} {
		if !names[name] {
			t.Errorf("metric %q not found", name)
		}
	}
}
