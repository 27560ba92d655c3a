// Package domain holds the engagement and advisor types.
// One EngagementState per session drives streaks, XP, badges, learning goals,
// the weekly challenge and the leaderboard. No state is shared across sessions.
package domain

import (
	"fmt"
	"time"
)

// YouUser is the leaderboard entry that mirrors the session's own XP.
const YouUser = "You"

// ─── Badges ─────────────────────────────────────────────────────────────────

// Badge is a permanently-held achievement marker. The value doubles as its
// display label.
type Badge string

// WeeklyWarriorBadge is awarded the first time the weekly challenge is met.
const WeeklyWarriorBadge Badge = "Weekly Warrior 💥"

// StreakBadge returns the badge for reaching an n-day check-in streak.
func StreakBadge(days int) Badge {
	return Badge(fmt.Sprintf("%d-Day Streak 🔥", days))
}

// MasteryBadge returns the badge for reaching 100% on a learning goal.
func MasteryBadge(goal string) Badge {
	return Badge(goal + " Mastery 🧠")
}

// BadgeInfo describes an available badge (for display).
type BadgeInfo struct {
	Badge       Badge  `json:"badge"`
	Description string `json:"description"`
}

// ─── State ──────────────────────────────────────────────────────────────────

// WeeklyTask is one weekly-challenge to-do item.
type WeeklyTask struct {
	Name string `json:"name"`
	Done bool   `json:"done"`
}

// LeaderboardEntry is one user's XP on the leaderboard.
type LeaderboardEntry struct {
	User string `json:"user"`
	XP   int    `json:"xp"`
}

// EngagementState is the per-session gamification state.
// Badges, Goals, WeeklyTasks and Leaderboard are ordered for display.
// SessionID is set by the owning session and is not serialized.
type EngagementState struct {
	SessionID        string             `json:"-"`
	LastCheckIn      *time.Time         `json:"last_checkin,omitempty"`
	Streak           int                `json:"streak"`
	LongestStreak    int                `json:"longest_streak"`
	XP               int                `json:"xp"`
	Badges           []Badge            `json:"badges"`
	Goals            []string           `json:"goals"`
	GoalProgress     map[string]int     `json:"goal_progress"`
	WeeklyTasks      []WeeklyTask       `json:"weekly_tasks"`
	WeeklyRewardWeek string             `json:"weekly_reward_week,omitempty"`
	Leaderboard      []LeaderboardEntry `json:"leaderboard"`
}

// NewEngagementState returns the state a fresh session starts with.
func NewEngagementState() *EngagementState {
	return &EngagementState{
		Goals:        []string{"Machine Learning"},
		GoalProgress: map[string]int{"Machine Learning": 0},
		WeeklyTasks: []WeeklyTask{
			{Name: "Submit Resume"},
			{Name: "Complete 3 lessons"},
			{Name: "Take 1 quiz"},
		},
		Leaderboard: []LeaderboardEntry{
			{User: YouUser, XP: 0},
			{User: "UserA", XP: 120},
			{User: "UserB", XP: 90},
			{User: "UserC", XP: 70},
		},
	}
}

// Clone returns a deep copy of s. Mutating the copy never touches s.
func (s *EngagementState) Clone() *EngagementState {
	c := *s
	if s.LastCheckIn != nil {
		t := *s.LastCheckIn
		c.LastCheckIn = &t
	}
	c.Badges = append([]Badge(nil), s.Badges...)
	c.Goals = append([]string(nil), s.Goals...)
	c.WeeklyTasks = append([]WeeklyTask(nil), s.WeeklyTasks...)
	c.Leaderboard = append([]LeaderboardEntry(nil), s.Leaderboard...)
	if s.GoalProgress != nil {
		c.GoalProgress = make(map[string]int, len(s.GoalProgress))
		for k, v := range s.GoalProgress {
			c.GoalProgress[k] = v
		}
	}
	return &c
}

// HasBadge reports whether b has been earned.
func (s *EngagementState) HasBadge(b Badge) bool {
	for _, have := range s.Badges {
		if have == b {
			return true
		}
	}
	return false
}

// AddBadge appends b once. Returns false if it was already held.
func (s *EngagementState) AddBadge(b Badge) bool {
	if s.HasBadge(b) {
		return false
	}
	s.Badges = append(s.Badges, b)
	return true
}

// HasGoal reports whether goal is currently active.
func (s *EngagementState) HasGoal(goal string) bool {
	for _, g := range s.Goals {
		if g == goal {
			return true
		}
	}
	return false
}

// TaskIndex returns the position of a weekly task, or -1.
func (s *EngagementState) TaskIndex(name string) int {
	for i, t := range s.WeeklyTasks {
		if t.Name == name {
			return i
		}
	}
	return -1
}

// CompletedTasks counts weekly tasks marked done.
func (s *EngagementState) CompletedTasks() int {
	n := 0
	for _, t := range s.WeeklyTasks {
		if t.Done {
			n++
		}
	}
	return n
}

// SyncLeaderboard sets the "You" entry to the current XP, adding it if missing.
func (s *EngagementState) SyncLeaderboard() {
	for i := range s.Leaderboard {
		if s.Leaderboard[i].User == YouUser {
			s.Leaderboard[i].XP = s.XP
			return
		}
	}
	s.Leaderboard = append([]LeaderboardEntry{{User: YouUser, XP: s.XP}}, s.Leaderboard...)
}

// Normalize fills nil containers left by decoding an older snapshot.
func (s *EngagementState) Normalize() {
	if s.GoalProgress == nil {
		s.GoalProgress = make(map[string]int)
	}
	for _, g := range s.Goals {
		if _, ok := s.GoalProgress[g]; !ok {
			s.GoalProgress[g] = 0
		}
	}
	s.SyncLeaderboard()
}

// CalendarDay truncates t to its calendar date (Y-M-D in t's own location),
// expressed as midnight UTC so dates compare with Equal.
func CalendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ISOWeek returns "YYYY-Www" for the given time.
func ISOWeek(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// ─── Operation results ──────────────────────────────────────────────────────

// CheckInResult is returned by an accepted check-in.
type CheckInResult struct {
	Streak        int     `json:"streak"`
	XPDelta       int     `json:"xp_delta"`
	BadgesAwarded []Badge `json:"badges_awarded"`
}

// GoalProgressResult is returned by a goal progress update.
type GoalProgressResult struct {
	XPAwarded int    `json:"xp_awarded"`
	Badge     *Badge `json:"badge,omitempty"`
}

// WeeklyRewardMode selects how often the weekly challenge pays XP.
type WeeklyRewardMode string

const (
	// WeeklyRewardEveryEvaluation pays XP on every qualifying evaluation.
	WeeklyRewardEveryEvaluation WeeklyRewardMode = "every_evaluation"
	// WeeklyRewardOncePerWeek pays XP at most once per ISO week.
	WeeklyRewardOncePerWeek WeeklyRewardMode = "once_per_week"
)

// WeeklyResult is returned by a weekly challenge evaluation.
type WeeklyResult struct {
	CompletedCount int    `json:"completed_count"`
	RewardGranted  bool   `json:"reward_granted"`
	XPAwarded      int    `json:"xp_awarded"`
	Badge          *Badge `json:"badge,omitempty"`
}

// RankedEntry is a leaderboard row after ranking.
type RankedEntry struct {
	Rank  int    `json:"rank"`
	User  string `json:"user"`
	XP    int    `json:"xp"`
	IsYou bool   `json:"is_you"`
}

// GoalStatus is one active goal and its progress.
type GoalStatus struct {
	Goal     string `json:"goal"`
	Progress int    `json:"progress"`
}

// Stats is the read-only dashboard view of a session.
type Stats struct {
	Streak         int           `json:"streak"`
	LongestStreak  int           `json:"longest_streak"`
	XP             int           `json:"xp"`
	Level          int           `json:"level"`
	Badges         []Badge       `json:"badges"`
	Goals          []GoalStatus  `json:"goals"`
	WeeklyTasks    []WeeklyTask  `json:"weekly_tasks"`
	CompletedTasks int           `json:"completed_tasks"`
	Ranking        []RankedEntry `json:"ranking"`
	GlobalRank     int64         `json:"global_rank,omitempty"`
}

// ─── Events ─────────────────────────────────────────────────────────────────

// EventType categorizes engagement events.
type EventType string

const (
	EventCheckIn       EventType = "checkin"
	EventBadgeUnlocked EventType = "badge_unlocked"
	EventWeeklyReward  EventType = "weekly_reward"
)

// Event is published when engagement state changes in a notable way.
type Event struct {
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
	Badge     Badge     `json:"badge,omitempty"`
	XP        int       `json:"xp"`
	Streak    int       `json:"streak"`
	At        time.Time `json:"at"`
}
