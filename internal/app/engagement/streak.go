package engagement

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/futurenavigators/pathpilot/internal/domain"
	"github.com/futurenavigators/pathpilot/internal/infra/metrics"
)

// CheckIn records the daily check-in for the calendar day of today.
// Same day: ErrAlreadyCheckedInToday, state untouched. Day after the last
// check-in: streak extends. Any other gap (or first ever): streak resets to 1.
// Milestone badges carry no XP of their own.
func (e *Engine) CheckIn(st *domain.EngagementState, today time.Time) (domain.CheckInResult, error) {
	day := domain.CalendarDay(today)

	if st.LastCheckIn != nil && domain.CalendarDay(*st.LastCheckIn).Equal(day) {
		metrics.CheckIns.WithLabelValues("duplicate").Inc()
		return domain.CheckInResult{}, fmt.Errorf("check-in %s: %w", day.Format(time.DateOnly), domain.ErrAlreadyCheckedInToday)
	}

	if st.LastCheckIn != nil && domain.CalendarDay(*st.LastCheckIn).Equal(day.AddDate(0, 0, -1)) {
		st.Streak++
	} else {
		st.Streak = 1
	}
	st.LastCheckIn = &day
	if st.Streak > st.LongestStreak {
		st.LongestStreak = st.Streak
	}
	st.XP += e.rules.CheckInXP
	st.SyncLeaderboard()

	res := domain.CheckInResult{Streak: st.Streak, XPDelta: e.rules.CheckInXP}
	if e.isMilestone(st.Streak) {
		b := domain.StreakBadge(st.Streak)
		if st.AddBadge(b) {
			res.BadgesAwarded = append(res.BadgesAwarded, b)
			metrics.BadgesUnlocked.WithLabelValues("streak").Inc()
		}
	}

	metrics.CheckIns.WithLabelValues("accepted").Inc()
	metrics.XPAwarded.WithLabelValues("checkin").Add(float64(e.rules.CheckInXP))
	e.log.Debug("check-in",
		zap.Int("streak", st.Streak),
		zap.Int("xp", st.XP))

	e.emit(domain.Event{Type: domain.EventCheckIn, SessionID: st.SessionID, XP: st.XP, Streak: st.Streak})
	for _, b := range res.BadgesAwarded {
		e.emit(domain.Event{Type: domain.EventBadgeUnlocked, SessionID: st.SessionID, Badge: b, XP: st.XP, Streak: st.Streak})
	}
	return res, nil
}

func (e *Engine) isMilestone(streak int) bool {
	for _, m := range e.rules.StreakMilestones {
		if m == streak {
			return true
		}
	}
	return false
}
