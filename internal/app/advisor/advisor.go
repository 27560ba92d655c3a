// Package advisor answers career questions. A question is matched against
// the corpus, the matched answer is rephrased by the generative-text
// service, and the exchange is kept in the session's visible history and
// the durable chat log. When rephrasing fails the raw corpus answer is
// served instead.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/futurenavigators/pathpilot/internal/app/matcher"
	"github.com/futurenavigators/pathpilot/internal/app/session"
	"github.com/futurenavigators/pathpilot/internal/domain"
	"github.com/futurenavigators/pathpilot/internal/infra/metrics"
)

// DefaultTimeout bounds a single rephrasing call.
const DefaultTimeout = 30 * time.Second

// Advisor runs the ask flow for every session.
type Advisor struct {
	index     *matcher.Index
	sessions  *session.Registry
	completer domain.Completer
	chatLog   domain.ChatLog
	log       *zap.Logger
	now       func() time.Time
	timeout   time.Duration
}

// Option configures an Advisor.
type Option func(*Advisor)

// WithCompleter rephrases answers through c. Without one every answer is
// served as raw corpus text.
func WithCompleter(c domain.Completer) Option {
	return func(a *Advisor) { a.completer = c }
}

// WithChatLog appends every exchange to l.
func WithChatLog(l domain.ChatLog) Option {
	return func(a *Advisor) { a.chatLog = l }
}

// WithLogger sets the advisor logger.
func WithLogger(log *zap.Logger) Option {
	return func(a *Advisor) { a.log = log }
}

// WithClock overrides the record timestamp source.
func WithClock(now func() time.Time) Option {
	return func(a *Advisor) { a.now = now }
}

// WithTimeout bounds each rephrasing call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(a *Advisor) { a.timeout = d }
}

// New creates an advisor over a built corpus index.
func New(index *matcher.Index, sessions *session.Registry, opts ...Option) *Advisor {
	a := &Advisor{
		index:    index,
		sessions: sessions,
		log:      zap.NewNop(),
		now:      time.Now,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Prompt builds the rephrasing prompt for a question and its matched answer.
func Prompt(question, answer string) string {
	return fmt.Sprintf(`This is a career guidance chatbot.

User asked: "%s"
Relevant info: "%s"
Give a helpful, friendly, and informative answer to guide the user.
`, question, answer)
}

// Ask answers question for the session. A blank question returns
// domain.ErrEmptyQuestion. Rephrasing failures never surface: the record is
// marked Degraded and carries the matched answer.
func (a *Advisor) Ask(ctx context.Context, sessionID, question string) (domain.ChatRecord, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return domain.ChatRecord{}, domain.ErrEmptyQuestion
	}
	if err := a.sessions.View(ctx, sessionID, func(*domain.EngagementState) error { return nil }); err != nil {
		return domain.ChatRecord{}, err
	}

	m, err := a.index.FindBestMatch(question)
	if err != nil {
		return domain.ChatRecord{}, err
	}

	rec := domain.ChatRecord{
		ID:              uuid.New().String(),
		SessionID:       sessionID,
		User:            question,
		MatchedQuestion: m.Question,
	}
	rec.Bot, rec.Degraded = a.rephrase(ctx, question, m.Answer)
	rec.CreatedAt = a.now().UTC()

	if err := a.sessions.AppendHistory(ctx, sessionID, rec); err != nil {
		return domain.ChatRecord{}, err
	}
	if a.chatLog != nil {
		if err := a.chatLog.Append(ctx, rec); err != nil {
			a.log.Warn("append chat log",
				zap.String("session", sessionID),
				zap.String("record", rec.ID),
				zap.Error(err))
		}
	}

	a.log.Debug("answered",
		zap.String("session", sessionID),
		zap.Int("match", m.Index),
		zap.Float64("score", m.Score),
		zap.Bool("degraded", rec.Degraded))
	return rec, nil
}

// rephrase returns the completion, or the raw answer and true on failure.
func (a *Advisor) rephrase(ctx context.Context, question, answer string) (string, bool) {
	if a.completer == nil {
		metrics.AnswerFallbacks.Inc()
		return answer, true
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	out, err := a.completer.Complete(ctx, Prompt(question, answer))
	out = strings.TrimSpace(out)
	if err == nil && out == "" {
		err = domain.ErrServiceUnavailable
	}
	if err != nil {
		metrics.AnswerFallbacks.Inc()
		a.log.Warn("rephrase failed, serving corpus answer", zap.Error(err))
		return answer, true
	}
	return out, false
}

// History returns the session's visible history, oldest first.
func (a *Advisor) History(ctx context.Context, sessionID string) ([]domain.ChatRecord, error) {
	return a.sessions.History(ctx, sessionID)
}

// Clear empties the visible history. The durable chat log keeps its records.
func (a *Advisor) Clear(ctx context.Context, sessionID string) error {
	return a.sessions.ClearHistory(ctx, sessionID)
}

// Transcript returns the durable chat log of the session, which survives
// Clear and restarts. Without a chat log it falls back to visible history.
func (a *Advisor) Transcript(ctx context.Context, sessionID string) ([]domain.ChatRecord, error) {
	if a.chatLog == nil {
		return a.History(ctx, sessionID)
	}
	return a.chatLog.List(ctx, sessionID)
}

// Feedback attaches an emoji reaction to a record. The record must be
// visible in the session's history or present in the chat log.
func (a *Advisor) Feedback(ctx context.Context, sessionID, recordID, feedback string) error {
	if !domain.ValidFeedback(feedback) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidFeedback, feedback)
	}

	visible := true
	if err := a.sessions.SetHistoryFeedback(ctx, sessionID, recordID, feedback); err != nil {
		if !errors.Is(err, domain.ErrRecordNotFound) {
			return err
		}
		visible = false
	}

	if a.chatLog == nil {
		if !visible {
			return domain.ErrRecordNotFound
		}
		return nil
	}
	err := a.chatLog.SetFeedback(ctx, sessionID, recordID, feedback)
	switch {
	case err == nil:
		return nil
	case visible:
		a.log.Warn("store feedback", zap.String("record", recordID), zap.Error(err))
		return nil
	default:
		return err
	}
}
