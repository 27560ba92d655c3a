package engagement

import (
	"time"

	"github.com/futurenavigators/pathpilot/internal/domain"
)

var quotes = []string{
	"You're doing amazing! Keep showing up.",
	"One step at a time gets you there faster than you think.",
	"Stay consistent and the results will follow.",
	"You're building momentum. Keep pushing!",
	"Learning is a superpower — and you’ve got it!",
}

// Motivation returns the quote of the day. The same calendar day always
// yields the same quote.
func Motivation(day time.Time) string {
	days := domain.CalendarDay(day).Unix() / 86400
	i := int(days % int64(len(quotes)))
	if i < 0 {
		i += len(quotes)
	}
	return quotes[i]
}
