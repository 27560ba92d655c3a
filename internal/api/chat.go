package api

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/futurenavigators/pathpilot/internal/domain"
	"github.com/futurenavigators/pathpilot/internal/infra/transcript"
)

// ─── Career Advisor Chat ────────────────────────────────────────────────────

type askRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if !decode(w, r, &req) {
		return
	}
	rec, err := s.advisor.Ask(r.Context(), chi.URLParam(r, "id"), req.Question)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	hist, err := s.advisor.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"records":          hist,
		"feedback_options": domain.FeedbackOptions,
	})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.advisor.Clear(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleExportHistory streams the durable transcript as a spreadsheet.
func (s *Server) handleExportHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	recs, err := s.advisor.Transcript(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := transcript.WriteXLSX(&buf, recs); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", transcript.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="pathpilot_chat_history.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	io.Copy(w, &buf)
}

type feedbackRequest struct {
	Feedback string `json:"feedback"`
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if !decode(w, r, &req) {
		return
	}
	err := s.advisor.Feedback(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "recordID"), req.Feedback)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}
