// Package session holds per-session engagement state and visible chat
// history. Each session owns one *domain.EngagementState guarded by its own
// mutex; snapshots are written through to the configured store after every
// successful mutation.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/futurenavigators/pathpilot/internal/domain"
	"github.com/futurenavigators/pathpilot/internal/infra/metrics"
)

// session is one live session.
type session struct {
	mu      sync.Mutex
	state   *domain.EngagementState
	history []domain.ChatRecord
}

// Registry tracks live sessions.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*session

	store domain.SnapshotStore
	board domain.ScoreBoard
	log   *zap.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithStore persists snapshots to s.
func WithStore(s domain.SnapshotStore) Option {
	return func(r *Registry) { r.store = s }
}

// WithScoreBoard mirrors XP changes into b.
func WithScoreBoard(b domain.ScoreBoard) Option {
	return func(r *Registry) { r.board = b }
}

// WithLogger sets the registry logger.
func WithLogger(log *zap.Logger) Option {
	return func(r *Registry) { r.log = log }
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		sessions: make(map[string]*session),
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create starts a new session with default state and returns its id.
func (r *Registry) Create(ctx context.Context) (string, error) {
	id := uuid.New().String()
	if _, err := r.create(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}

// Open makes sure the session exists, creating it with default state when neither
// memory nor the store knows it. Used for fixed ids such as the CLI's
// local session.
func (r *Registry) Open(ctx context.Context, id string) error {
	_, err := r.lookup(ctx, id)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return err
	}
	_, err = r.create(ctx, id)
	return err
}

// View runs fn with the session state under the session lock.
// fn must not retain st.
func (r *Registry) View(ctx context.Context, id string, fn func(st *domain.EngagementState) error) error {
	s, err := r.lookup(ctx, id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

// Update runs fn on a copy of the session state under the session lock.
// The copy replaces the live state only after fn succeeds and the snapshot
// is saved, so a failed update leaves the session unchanged. A changed XP
// total is then mirrored to the score board; score board failures are
// logged only.
func (r *Registry) Update(ctx context.Context, id string, fn func(st *domain.EngagementState) error) error {
	s, err := r.lookup(ctx, id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.state.XP
	next := s.state.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := r.save(ctx, id, next); err != nil {
		return err
	}
	s.state = next
	if r.board != nil && s.state.XP != before {
		if err := r.board.Record(ctx, id, s.state.XP); err != nil {
			r.log.Warn("record xp", zap.String("session", id), zap.Error(err))
		}
	}
	return nil
}

// GlobalRank returns the session's 1-based rank on the score board, or -1
// when no board is configured or the lookup fails.
func (r *Registry) GlobalRank(ctx context.Context, id string) int64 {
	if r.board == nil {
		return -1
	}
	rank, err := r.board.GlobalRank(ctx, id)
	if err != nil {
		r.log.Warn("global rank", zap.String("session", id), zap.Error(err))
		return -1
	}
	return rank
}

// ─── Chat History ───────────────────────────────────────────────────────────

// AppendHistory adds rec to the session's visible history.
func (r *Registry) AppendHistory(ctx context.Context, id string, rec domain.ChatRecord) error {
	s, err := r.lookup(ctx, id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.history = append(s.history, rec)
	s.mu.Unlock()
	return nil
}

// History returns a copy of the session's visible history, oldest first.
func (r *Registry) History(ctx context.Context, id string) ([]domain.ChatRecord, error) {
	s, err := r.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ChatRecord{}, s.history...), nil
}

// ClearHistory empties the visible history.
func (r *Registry) ClearHistory(ctx context.Context, id string) error {
	s, err := r.lookup(ctx, id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.history = nil
	s.mu.Unlock()
	return nil
}

// SetHistoryFeedback updates the feedback of a record in visible history.
// Returns domain.ErrRecordNotFound when the record is not visible.
func (r *Registry) SetHistoryFeedback(ctx context.Context, id, recordID, feedback string) error {
	s, err := r.lookup(ctx, id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.history {
		if s.history[i].ID == recordID {
			s.history[i].Feedback = feedback
			return nil
		}
	}
	return domain.ErrRecordNotFound
}

// Len returns the number of sessions held in memory.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// ─── Internals ──────────────────────────────────────────────────────────────

// create registers id with default state. The map is checked under r.mu
// before the default snapshot is written so a concurrent Open never
// overwrites a session that is already live.
func (r *Registry) create(ctx context.Context, id string) (*session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s, nil
	}

	st := domain.NewEngagementState()
	st.SessionID = id
	if err := r.save(ctx, id, st); err != nil {
		return nil, err
	}
	s := &session{state: st}
	r.sessions[id] = s
	metrics.SessionsActive.Set(float64(len(r.sessions)))
	r.log.Debug("session created", zap.String("session", id))
	return s, nil
}

// lookup returns the live session, loading its snapshot on first access.
func (r *Registry) lookup(ctx context.Context, id string) (*session, error) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	r.mu.Unlock()
	if ok {
		return s, nil
	}
	if r.store == nil || id == "" {
		return nil, domain.ErrSessionNotFound
	}

	st, err := r.store.LoadSnapshot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	if st == nil {
		return nil, domain.ErrSessionNotFound
	}
	st.SessionID = id

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s, nil
	}
	s = &session{state: st}
	r.sessions[id] = s
	metrics.SessionsActive.Set(float64(len(r.sessions)))
	return s, nil
}

func (r *Registry) save(ctx context.Context, id string, st *domain.EngagementState) error {
	if r.store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.store.SaveSnapshot(ctx, id, st); err != nil {
		return fmt.Errorf("save session %s: %w", id, err)
	}
	return nil
}
