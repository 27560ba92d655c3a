package engagement

import (
	"fmt"

	"github.com/futurenavigators/pathpilot/internal/domain"
)

// ─── Badge Catalog ──────────────────────────────────────────────────────────
// Badges unlock from three sources: streak milestones, goal mastery and the
// weekly challenge. Badges are never revoked.

// BadgeCatalog returns every badge the rules can award, for display.
// Mastery badges are listed for each catalog goal.
func (e *Engine) BadgeCatalog() []domain.BadgeInfo {
	var out []domain.BadgeInfo
	for _, m := range e.rules.StreakMilestones {
		out = append(out, domain.BadgeInfo{
			Badge:       domain.StreakBadge(m),
			Description: fmt.Sprintf("Check in %d days in a row.", m),
		})
	}
	for _, g := range e.rules.GoalCatalog {
		out = append(out, domain.BadgeInfo{
			Badge:       domain.MasteryBadge(g),
			Description: fmt.Sprintf("Reach 100%% progress on %s (+%d XP).", g, e.rules.MasteryXP),
		})
	}
	out = append(out, domain.BadgeInfo{
		Badge:       domain.WeeklyWarriorBadge,
		Description: fmt.Sprintf("Complete %d weekly tasks.", e.rules.WeeklyThreshold),
	})
	return out
}
