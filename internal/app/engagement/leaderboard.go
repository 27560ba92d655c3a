package engagement

import (
	"cmp"
	"slices"

	"github.com/futurenavigators/pathpilot/internal/domain"
)

// Rank orders entries by XP descending. Equal XP keeps input order.
// Ranks are 1..N with no shared ranks.
func Rank(entries []domain.LeaderboardEntry) []domain.RankedEntry {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b domain.LeaderboardEntry) int {
		return cmp.Compare(b.XP, a.XP)
	})

	ranked := make([]domain.RankedEntry, len(sorted))
	for i, en := range sorted {
		ranked[i] = domain.RankedEntry{
			Rank:  i + 1,
			User:  en.User,
			XP:    en.XP,
			IsYou: en.User == domain.YouUser,
		}
	}
	return ranked
}

// Leaderboard syncs the "You" entry to st.XP, then ranks.
func (e *Engine) Leaderboard(st *domain.EngagementState) []domain.RankedEntry {
	st.SyncLeaderboard()
	return Rank(st.Leaderboard)
}
