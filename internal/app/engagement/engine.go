// Package engagement implements the PathPilot engagement engine.
// Streaks, XP, badges, learning-goal progress, the weekly challenge and the
// leaderboard. Every operation mutates an explicit *domain.EngagementState
// owned by one session; the engine itself holds only rules.
package engagement

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/futurenavigators/pathpilot/internal/domain"
)

// Rules are the tunable constants of the engine.
type Rules struct {
	CheckInXP        int
	StreakMilestones []int
	TierSize         int // goal progress points per XP tier
	XPPerTier        int
	MasteryXP        int
	WeeklyThreshold  int
	WeeklyXP         int
	WeeklyRewardMode domain.WeeklyRewardMode
	GoalCatalog      []string
}

// DefaultGoalCatalog is the set of goals a session may select from.
var DefaultGoalCatalog = []string{
	"Machine Learning",
	"Cloud Computing",
	"Data Science",
	"DevOps",
	"AI Ethics",
}

// DefaultRules returns the stock rule set.
func DefaultRules() Rules {
	return Rules{
		CheckInXP:        10,
		StreakMilestones: []int{3, 7, 14, 30},
		TierSize:         10,
		XPPerTier:        5,
		MasteryXP:        50,
		WeeklyThreshold:  2,
		WeeklyXP:         30,
		WeeklyRewardMode: domain.WeeklyRewardEveryEvaluation,
		GoalCatalog:      append([]string(nil), DefaultGoalCatalog...),
	}
}

// Engine applies Rules to engagement state.
// It is stateless apart from its collaborators and safe for concurrent use
// across distinct states.
type Engine struct {
	rules     Rules
	now       func() time.Time
	log       *zap.Logger
	publisher domain.EventPublisher
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for weekly bookkeeping and events.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the engine logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithPublisher emits engagement events to p.
func WithPublisher(p domain.EventPublisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// New creates an engine.
func New(rules Rules, opts ...Option) *Engine {
	e := &Engine{
		rules: rules,
		now:   time.Now,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Rules returns the engine's rule set.
func (e *Engine) Rules() Rules {
	return e.rules
}

// Today returns the engine clock's calendar day.
func (e *Engine) Today() time.Time {
	return domain.CalendarDay(e.now())
}

// Stats returns the dashboard view of st. GlobalRank is left for the caller.
func (e *Engine) Stats(st *domain.EngagementState) domain.Stats {
	goals := make([]domain.GoalStatus, 0, len(st.Goals))
	for _, g := range st.Goals {
		goals = append(goals, domain.GoalStatus{Goal: g, Progress: st.GoalProgress[g]})
	}
	return domain.Stats{
		Streak:         st.Streak,
		LongestStreak:  st.LongestStreak,
		XP:             st.XP,
		Level:          LevelForXP(int64(st.XP)),
		Badges:         append([]domain.Badge(nil), st.Badges...),
		Goals:          goals,
		WeeklyTasks:    append([]domain.WeeklyTask(nil), st.WeeklyTasks...),
		CompletedTasks: st.CompletedTasks(),
		Ranking:        e.Leaderboard(st),
	}
}

// emit publishes ev if a publisher is configured. Failures are logged only.
func (e *Engine) emit(ev domain.Event) {
	if e.publisher == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = e.now()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := e.publisher.Publish(ctx, ev); err != nil {
		e.log.Warn("publish engagement event",
			zap.String("type", string(ev.Type)),
			zap.Error(err))
	}
}
