// Package health runs periodic dependency checks with optional recovery.
// Critical checks (storage, chat log) decide overall health; optional
// collaborators (leaderboard, event stream) are reported but never make the
// service unhealthy.
package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/futurenavigators/pathpilot/internal/infra/metrics"
)

// DefaultInterval is how often Run repeats the checks.
const DefaultInterval = 60 * time.Second

// Pinger is satisfied by every storage and broker adapter.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Check defines a single health check with optional recovery action.
type Check struct {
	Name      string
	Critical  bool
	CheckFn   func(ctx context.Context) error
	RecoverFn func(ctx context.Context) error
}

// Status represents the result of a health check.
type Status struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Critical  bool      `json:"critical"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Checker runs periodic health checks with auto-recovery.
type Checker struct {
	mu       sync.RWMutex
	checks   []Check
	statuses []Status
	interval time.Duration
	timeout  time.Duration
	log      *zap.Logger
	now      func() time.Time
}

// Option configures a Checker.
type Option func(*Checker)

// WithInterval sets the period between check rounds.
func WithInterval(d time.Duration) Option {
	return func(c *Checker) { c.interval = d }
}

// WithLogger sets the logger used for failed checks.
func WithLogger(log *zap.Logger) Option {
	return func(c *Checker) { c.log = log }
}

// NewChecker creates a checker with no checks registered.
func NewChecker(opts ...Option) *Checker {
	c := &Checker{
		interval: DefaultInterval,
		timeout:  5 * time.Second,
		log:      zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Add registers a check. Not safe to call once Run has started.
func (c *Checker) Add(check Check) {
	c.checks = append(c.checks, check)
}

// AddPinger registers a check that pings p.
func (c *Checker) AddPinger(name string, p Pinger, critical bool) {
	c.Add(Check{Name: name, Critical: critical, CheckFn: p.Ping})
}

// Run starts the health check loop. Call in a goroutine.
func (c *Checker) Run(ctx context.Context) {
	// Run immediately on start
	c.RunOnce(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RunOnce(ctx)
		}
	}
}

// RunOnce runs every check once and stores the results.
func (c *Checker) RunOnce(ctx context.Context) {
	statuses := make([]Status, len(c.checks))
	for i, check := range c.checks {
		s := Status{
			Name:      check.Name,
			Critical:  check.Critical,
			CheckedAt: c.now(),
		}
		if err := c.run(ctx, check.CheckFn); err != nil {
			s.Error = err.Error()
			c.log.Warn("health check failed",
				zap.String("check", check.Name),
				zap.Bool("critical", check.Critical),
				zap.Error(err))
			// Attempt recovery
			if check.RecoverFn != nil {
				if err := c.run(ctx, check.RecoverFn); err != nil {
					c.log.Warn("recovery failed", zap.String("check", check.Name), zap.Error(err))
				}
			}
		} else {
			s.Healthy = true
		}
		metrics.DependencyUp.WithLabelValues(check.Name).Set(boolGauge(s.Healthy))
		statuses[i] = s
	}

	c.mu.Lock()
	c.statuses = statuses
	c.mu.Unlock()
}

func (c *Checker) run(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return fn(ctx)
}

// Statuses returns the latest health check results.
func (c *Checker) Statuses() []Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Status, len(c.statuses))
	copy(result, c.statuses)
	return result
}

// IsHealthy returns true if every critical check passed.
func (c *Checker) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.statuses {
		if s.Critical && !s.Healthy {
			return false
		}
	}
	return true
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
