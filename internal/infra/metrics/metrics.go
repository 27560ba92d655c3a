// Package metrics provides Prometheus metrics for PathPilot.
// Counters, gauges and histograms for engagement, question matching,
// generative completions, resume analysis and the HTTP surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Engagement ─────────────────────────────────────────────────────────────

// CheckIns tracks daily check-ins by outcome (accepted, duplicate).
var CheckIns = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "pathpilot",
	Name:      "checkins_total",
	Help:      "Total daily check-in attempts by outcome.",
}, []string{"outcome"})

// XPAwarded tracks XP granted by source (checkin, goal, mastery, weekly).
var XPAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "pathpilot",
	Name:      "xp_awarded_total",
	Help:      "Total XP awarded by source.",
}, []string{"source"})

// BadgesUnlocked tracks badge unlocks by kind (streak, mastery, weekly).
var BadgesUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "pathpilot",
	Name:      "badges_unlocked_total",
	Help:      "Total badges unlocked by kind.",
}, []string{"kind"})

// SessionsActive tracks sessions held in memory.
var SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "pathpilot",
	Name:      "sessions_active",
	Help:      "Number of sessions held in memory.",
})

// ─── Matcher ────────────────────────────────────────────────────────────────

// MatcherQueries tracks matcher lookups by result (matched, low_confidence).
var MatcherQueries = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "pathpilot",
	Name:      "matcher_queries_total",
	Help:      "Total question matcher lookups by result.",
}, []string{"result"})

// MatchScore tracks the cosine score of the chosen corpus entry.
var MatchScore = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "pathpilot",
	Name:      "match_score",
	Help:      "Cosine similarity of the best corpus match.",
	Buckets:   []float64{0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1},
})

// CorpusEntries tracks the size of the loaded corpus.
var CorpusEntries = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "pathpilot",
	Name:      "corpus_entries",
	Help:      "Number of question/answer pairs in the loaded corpus.",
})

// ─── Completions ────────────────────────────────────────────────────────────

// CompletionLatency tracks generative-text request duration in seconds.
var CompletionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "pathpilot",
	Name:      "completion_latency_seconds",
	Help:      "Generative-text request duration in seconds.",
	Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
}, []string{"provider"})

// CompletionFailures tracks failed generative-text requests.
var CompletionFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "pathpilot",
	Name:      "completion_failures_total",
	Help:      "Total failed generative-text requests.",
}, []string{"provider"})

// AnswerFallbacks tracks answers served as raw corpus text.
var AnswerFallbacks = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "pathpilot",
	Name:      "answer_fallbacks_total",
	Help:      "Answers served without rephrasing because the completion failed.",
})

// ─── Resume ─────────────────────────────────────────────────────────────────

// ResumeAnalyses tracks resume analyses by document kind and outcome.
var ResumeAnalyses = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "pathpilot",
	Name:      "resume_analyses_total",
	Help:      "Total resume analyses by document kind and outcome.",
}, []string{"kind", "outcome"})

// ─── HTTP ───────────────────────────────────────────────────────────────────

// HTTPRequests tracks API requests by route pattern and status code.
var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "pathpilot",
	Name:      "http_requests_total",
	Help:      "Total API requests by route and status.",
}, []string{"route", "status"})

// ─── Health ─────────────────────────────────────────────────────────────────

// DependencyUp is 1 when the named dependency passed its last health check.
var DependencyUp = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "pathpilot",
	Name:      "dependency_up",
	Help:      "Whether a dependency passed its last health check (1) or not (0).",
}, []string{"dependency"})
