package engagement

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/futurenavigators/pathpilot/internal/domain"
	"github.com/futurenavigators/pathpilot/internal/infra/metrics"
)

// ─── Weekly Challenge ───────────────────────────────────────────────────────
// A user-curated to-do list. Completing WeeklyThreshold tasks meets the
// challenge, which pays WeeklyXP and the Weekly Warrior badge (once).

// AddWeeklyTask appends a task, not done. Re-adding an existing name is a no-op.
func (e *Engine) AddWeeklyTask(st *domain.EngagementState, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrEmptyTaskName
	}
	if st.TaskIndex(name) >= 0 {
		return nil
	}
	st.WeeklyTasks = append(st.WeeklyTasks, domain.WeeklyTask{Name: name})
	return nil
}

// RemoveWeeklyTask deletes a task. Removing a missing task is a no-op.
func (e *Engine) RemoveWeeklyTask(st *domain.EngagementState, name string) {
	i := st.TaskIndex(name)
	if i < 0 {
		return
	}
	st.WeeklyTasks = append(st.WeeklyTasks[:i], st.WeeklyTasks[i+1:]...)
}

// SetTaskDone marks a task done or not done.
func (e *Engine) SetTaskDone(st *domain.EngagementState, name string, done bool) error {
	i := st.TaskIndex(name)
	if i < 0 {
		return fmt.Errorf("set task %q: %w", name, domain.ErrTaskNotFound)
	}
	st.WeeklyTasks[i].Done = done
	return nil
}

// EvaluateWeeklyChallenge checks the weekly challenge and applies rewards.
// In every_evaluation mode each qualifying call pays WeeklyXP again; in
// once_per_week mode XP is paid at most once per ISO week of the engine clock.
func (e *Engine) EvaluateWeeklyChallenge(st *domain.EngagementState) domain.WeeklyResult {
	res := domain.WeeklyResult{CompletedCount: st.CompletedTasks()}
	if res.CompletedCount < e.rules.WeeklyThreshold {
		return res
	}

	pay := true
	if e.rules.WeeklyRewardMode == domain.WeeklyRewardOncePerWeek {
		week := domain.ISOWeek(e.now())
		if st.WeeklyRewardWeek == week {
			pay = false
		} else {
			st.WeeklyRewardWeek = week
		}
	}

	if pay {
		st.XP += e.rules.WeeklyXP
		res.RewardGranted = true
		res.XPAwarded = e.rules.WeeklyXP
		metrics.XPAwarded.WithLabelValues("weekly").Add(float64(e.rules.WeeklyXP))
	}

	if st.AddBadge(domain.WeeklyWarriorBadge) {
		b := domain.WeeklyWarriorBadge
		res.Badge = &b
		metrics.BadgesUnlocked.WithLabelValues("weekly").Inc()
	}
	st.SyncLeaderboard()

	e.log.Debug("weekly challenge",
		zap.Int("completed", res.CompletedCount),
		zap.Bool("rewarded", res.RewardGranted))

	if res.RewardGranted {
		e.emit(domain.Event{Type: domain.EventWeeklyReward, SessionID: st.SessionID, XP: st.XP, Streak: st.Streak})
	}
	if res.Badge != nil {
		e.emit(domain.Event{Type: domain.EventBadgeUnlocked, SessionID: st.SessionID, Badge: *res.Badge, XP: st.XP, Streak: st.Streak})
	}
	return res
}
