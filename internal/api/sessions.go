package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/futurenavigators/pathpilot/internal/domain"
)

// ─── Sessions & Engagement (/api/sessions/*) ────────────────────────────────

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, err := s.sessions.Create(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.stats(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// --- check-in ---

type checkInResponse struct {
	domain.CheckInResult
	Stats domain.Stats `json:"stats"`
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var res domain.CheckInResult
	err := s.sessions.Update(r.Context(), id, func(st *domain.EngagementState) error {
		var err error
		res, err = s.engine.CheckIn(st, s.engine.Today())
		return err
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	stats, err := s.stats(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, checkInResponse{CheckInResult: res, Stats: stats})
}

// --- goals ---

type setGoalsRequest struct {
	Goals []string `json:"goals"`
}

func (s *Server) handleSetGoals(w http.ResponseWriter, r *http.Request) {
	var req setGoalsRequest
	if !decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	err := s.sessions.Update(r.Context(), id, func(st *domain.EngagementState) error {
		return s.engine.SetGoals(st, req.Goals)
	})
	s.respondStats(w, r, id, err)
}

type goalProgressRequest struct {
	Value *int `json:"value"`
}

func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	var req goalProgressRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Value == nil {
		writeError(w, http.StatusBadRequest, "value is required")
		return
	}
	id := chi.URLParam(r, "id")
	goal := pathParam(r, "goal")

	var res domain.GoalProgressResult
	err := s.sessions.Update(r.Context(), id, func(st *domain.EngagementState) error {
		var err error
		res, err = s.engine.UpdateGoalProgress(st, goal, *req.Value)
		return err
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// --- weekly tasks ---

type addTaskRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request) {
	var req addTaskRequest
	if !decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	err := s.sessions.Update(r.Context(), id, func(st *domain.EngagementState) error {
		return s.engine.AddWeeklyTask(st, req.Name)
	})
	s.respondStats(w, r, id, err)
}

type setTaskDoneRequest struct {
	Done bool `json:"done"`
}

func (s *Server) handleSetTaskDone(w http.ResponseWriter, r *http.Request) {
	var req setTaskDoneRequest
	if !decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	name := pathParam(r, "name")
	err := s.sessions.Update(r.Context(), id, func(st *domain.EngagementState) error {
		return s.engine.SetTaskDone(st, name, req.Done)
	})
	s.respondStats(w, r, id, err)
}

func (s *Server) handleRemoveTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	name := pathParam(r, "name")
	err := s.sessions.Update(r.Context(), id, func(st *domain.EngagementState) error {
		s.engine.RemoveWeeklyTask(st, name)
		return nil
	})
	s.respondStats(w, r, id, err)
}

func (s *Server) handleEvaluateWeekly(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var res domain.WeeklyResult
	err := s.sessions.Update(r.Context(), id, func(st *domain.EngagementState) error {
		res = s.engine.EvaluateWeeklyChallenge(st)
		return nil
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// --- leaderboard ---

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var ranking []domain.RankedEntry
	err := s.sessions.View(r.Context(), id, func(st *domain.EngagementState) error {
		ranking = s.engine.Leaderboard(st)
		return nil
	})
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	resp := map[string]any{"ranking": ranking}
	if rank := s.sessions.GlobalRank(r.Context(), id); rank > 0 {
		resp["global_rank"] = rank
	}
	writeJSON(w, http.StatusOK, resp)
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// stats returns the dashboard view of a session including its global rank.
func (s *Server) stats(ctx context.Context, id string) (domain.Stats, error) {
	var stats domain.Stats
	err := s.sessions.View(ctx, id, func(st *domain.EngagementState) error {
		stats = s.engine.Stats(st)
		return nil
	})
	if err != nil {
		return domain.Stats{}, err
	}
	if rank := s.sessions.GlobalRank(ctx, id); rank > 0 {
		stats.GlobalRank = rank
	}
	return stats, nil
}

// respondStats writes err, or the fresh stats of the session on success.
func (s *Server) respondStats(w http.ResponseWriter, r *http.Request, id string, err error) {
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	stats, err := s.stats(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// pathParam returns the unescaped URL parameter; goal and task names may
// contain spaces.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
