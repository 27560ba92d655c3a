package api

import (
	"context"
	"net/http"
)

// ─── Insights ───────────────────────────────────────────────────────────────

// Insights reports usage totals across all sessions.
type Insights interface {
	SessionCount(ctx context.Context) (int, error)
	ResumeCount(ctx context.Context) (int, error)
	FeedbackSummary(ctx context.Context) (map[string]int, error)
}

type insightsResponse struct {
	Sessions int            `json:"sessions"`
	Resumes  int            `json:"resumes"`
	Feedback map[string]int `json:"feedback"`
}

// SetInsights attaches the usage source served by /api/insights.
func (s *Server) SetInsights(i Insights) { s.insights = i }

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	if s.insights == nil {
		writeError(w, http.StatusNotFound, "insights are not enabled")
		return
	}
	ctx := r.Context()

	var resp insightsResponse
	var err error
	if resp.Sessions, err = s.insights.SessionCount(ctx); err != nil {
		s.writeDomainError(w, err)
		return
	}
	if resp.Resumes, err = s.insights.ResumeCount(ctx); err != nil {
		s.writeDomainError(w, err)
		return
	}
	if resp.Feedback, err = s.insights.FeedbackSummary(ctx); err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
