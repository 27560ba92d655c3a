package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/futurenavigators/pathpilot/internal/app/engagement"
	"github.com/futurenavigators/pathpilot/internal/domain"
)

// ─── Catalogs ───────────────────────────────────────────────────────────────

func (s *Server) handleBadges(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"badges": s.engine.BadgeCatalog(),
	})
}

func (s *Server) handleGoalCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"goals": s.engine.GoalCatalog(),
	})
}

func (s *Server) handleMotivation(w http.ResponseWriter, r *http.Request) {
	day := s.engine.Today()
	writeJSON(w, http.StatusOK, map[string]string{
		"date":  day.Format("2006-01-02"),
		"quote": engagement.Motivation(day),
	})
}

// handleResources serves the career tip sheets, optionally filtered by
// ?topic= (case-insensitive).
func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	all := domain.CareerResources()
	topic := strings.TrimSpace(r.URL.Query().Get("topic"))
	if topic == "" {
		writeJSON(w, http.StatusOK, map[string]any{"resources": all})
		return
	}
	for _, res := range all {
		if strings.EqualFold(res.Topic, topic) {
			writeJSON(w, http.StatusOK, map[string]any{"resources": []domain.Resource{res}})
			return
		}
	}
	writeError(w, http.StatusNotFound, fmt.Sprintf("unknown topic %q", topic))
}

// ─── Resume Analysis ────────────────────────────────────────────────────────

// handleResume accepts a multipart upload in the "file" field.
func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "resume exceeds upload limit")
			return
		}
		writeError(w, http.StatusBadRequest, "expected multipart form: "+err.Error())
		return
	}
	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, `missing "file" field`)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.resume.Analyze(r.Context(), hdr.Filename, hdr.Header.Get("Content-Type"), data)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
