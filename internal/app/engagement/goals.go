package engagement

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/futurenavigators/pathpilot/internal/domain"
	"github.com/futurenavigators/pathpilot/internal/infra/metrics"
)

// SetGoals replaces the active goal set. Order follows selected; duplicates
// are dropped. Progress for newly selected goals starts at 0, progress for
// deselected goals is retained so re-adding resumes where it left off.
func (e *Engine) SetGoals(st *domain.EngagementState, selected []string) error {
	goals := make([]string, 0, len(selected))
	seen := make(map[string]bool, len(selected))
	for _, g := range selected {
		if seen[g] {
			continue
		}
		if !e.inCatalog(g) {
			return fmt.Errorf("set goal %q: %w", g, domain.ErrUnknownGoal)
		}
		seen[g] = true
		goals = append(goals, g)
	}

	if st.GoalProgress == nil {
		st.GoalProgress = make(map[string]int)
	}
	for _, g := range goals {
		if _, ok := st.GoalProgress[g]; !ok {
			st.GoalProgress[g] = 0
		}
	}
	st.Goals = goals
	return nil
}

// UpdateGoalProgress stores a new progress value for an active goal.
// Raising progress awards XPPerTier per full TierSize of increase over the
// stored value. Reaching 100 awards the goal's mastery badge plus MasteryXP,
// once. Lowering progress is allowed and awards nothing.
func (e *Engine) UpdateGoalProgress(st *domain.EngagementState, goal string, value int) (domain.GoalProgressResult, error) {
	var res domain.GoalProgressResult

	if !st.HasGoal(goal) {
		return res, fmt.Errorf("update progress %q: %w", goal, domain.ErrInvalidGoal)
	}
	if value < 0 || value > 100 {
		return res, fmt.Errorf("update progress %q to %d: %w", goal, value, domain.ErrProgressOutOfRange)
	}

	old := st.GoalProgress[goal]
	if value > old && e.rules.TierSize > 0 {
		gained := (value - old) / e.rules.TierSize * e.rules.XPPerTier
		st.XP += gained
		res.XPAwarded += gained
		if gained > 0 {
			metrics.XPAwarded.WithLabelValues("goal").Add(float64(gained))
		}
	}

	if value >= 100 {
		b := domain.MasteryBadge(goal)
		if st.AddBadge(b) {
			st.XP += e.rules.MasteryXP
			res.XPAwarded += e.rules.MasteryXP
			res.Badge = &b
			metrics.BadgesUnlocked.WithLabelValues("mastery").Inc()
			metrics.XPAwarded.WithLabelValues("mastery").Add(float64(e.rules.MasteryXP))
		}
	}

	st.GoalProgress[goal] = value
	st.SyncLeaderboard()

	e.log.Debug("goal progress",
		zap.String("goal", goal),
		zap.Int("from", old),
		zap.Int("to", value),
		zap.Int("xp_awarded", res.XPAwarded))

	if res.Badge != nil {
		e.emit(domain.Event{Type: domain.EventBadgeUnlocked, SessionID: st.SessionID, Badge: *res.Badge, XP: st.XP, Streak: st.Streak})
	}
	return res, nil
}

// GoalCatalog returns the selectable goals.
func (e *Engine) GoalCatalog() []string {
	return append([]string(nil), e.rules.GoalCatalog...)
}

// inCatalog reports whether g may be selected. An empty catalog accepts any
// non-blank goal.
func (e *Engine) inCatalog(g string) bool {
	if len(e.rules.GoalCatalog) == 0 {
		return g != ""
	}
	for _, c := range e.rules.GoalCatalog {
		if c == g {
			return true
		}
	}
	return false
}
