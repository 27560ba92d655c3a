// Package resume analyzes uploaded resumes. Text is extracted from the
// document, sent to the generative-text service with the career advisor
// prompt, and the original bytes are optionally archived alongside.
package resume

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/futurenavigators/pathpilot/internal/domain"
	"github.com/futurenavigators/pathpilot/internal/infra/extract"
	"github.com/futurenavigators/pathpilot/internal/infra/metrics"
)

// DefaultTimeout bounds one analysis call.
const DefaultTimeout = 90 * time.Second

// Recorder keeps a durable trace of analyzed resumes.
// Implemented by infra/sqlite.
type Recorder interface {
	RecordResume(ctx context.Context, filename, kind, archiveKey string, at time.Time) error
}

// Analyzer runs resume analyses.
type Analyzer struct {
	completer domain.Completer
	archive   domain.DocumentArchive
	recorder  Recorder
	log       *zap.Logger
	now       func() time.Time
	timeout   time.Duration
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithArchive stores the uploaded bytes in a.
func WithArchive(a domain.DocumentArchive) Option {
	return func(an *Analyzer) { an.archive = a }
}

// WithRecorder records every successful analysis.
func WithRecorder(r Recorder) Option {
	return func(an *Analyzer) { an.recorder = r }
}

// WithLogger sets the analyzer logger.
func WithLogger(log *zap.Logger) Option {
	return func(an *Analyzer) { an.log = log }
}

// WithTimeout bounds each analysis call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(an *Analyzer) { an.timeout = d }
}

// New creates an analyzer. A nil completer makes every Analyze call fail
// with domain.ErrServiceUnavailable after text extraction.
func New(c domain.Completer, opts ...Option) *Analyzer {
	an := &Analyzer{
		completer: c,
		log:       zap.NewNop(),
		now:       time.Now,
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(an)
	}
	return an
}

// Prompt builds the analysis prompt for resume text.
func Prompt(text string) string {
	return `You are a career advisor. Analyze the following resume content and provide:
1. Key skills
2. Suggested job roles
3. Suggested learning paths
4. Suggestions for improvement
5. Suggested LinkedIn profile headline and summary based on the resume

Resume Content:
` + text + "\n"
}

// Analyze extracts text from the document and returns the analysis.
// Archival runs concurrently and its failure is logged only.
func (an *Analyzer) Analyze(ctx context.Context, filename, mimeType string, data []byte) (domain.ResumeReport, error) {
	kind, text, err := extract.Text(filename, mimeType, data)
	if err != nil {
		metrics.ResumeAnalyses.WithLabelValues(string(kind), "rejected").Inc()
		return domain.ResumeReport{}, err
	}
	if an.completer == nil {
		metrics.ResumeAnalyses.WithLabelValues(string(kind), "unavailable").Inc()
		return domain.ResumeReport{}, domain.ErrServiceUnavailable
	}

	report := domain.ResumeReport{
		Filename: filename,
		Text:     text,
		Kind:     string(kind),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		analysis, err := an.complete(gctx, text)
		if err != nil {
			return err
		}
		report.Analysis = analysis
		report.Roles = SuggestedRoles(analysis)
		return nil
	})
	if an.archive != nil {
		g.Go(func() error {
			key, err := an.archive.Put(gctx, filename, mimeType, data)
			if err != nil {
				an.log.Warn("archive resume", zap.String("file", filename), zap.Error(err))
				return nil
			}
			report.ArchiveKey = key
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		metrics.ResumeAnalyses.WithLabelValues(string(kind), "failed").Inc()
		return domain.ResumeReport{}, err
	}

	if an.recorder != nil {
		if err := an.recorder.RecordResume(ctx, filename, string(kind), report.ArchiveKey, an.now().UTC()); err != nil {
			an.log.Warn("record resume", zap.String("file", filename), zap.Error(err))
		}
	}
	metrics.ResumeAnalyses.WithLabelValues(string(kind), "ok").Inc()
	an.log.Info("resume analyzed",
		zap.String("file", filename),
		zap.String("kind", string(kind)),
		zap.Int("roles", len(report.Roles)))
	return report, nil
}

func (an *Analyzer) complete(ctx context.Context, text string) (string, error) {
	if an.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, an.timeout)
		defer cancel()
	}
	out, err := an.completer.Complete(ctx, Prompt(text))
	if err != nil {
		if errors.Is(err, domain.ErrServiceUnavailable) {
			return "", fmt.Errorf("analyze resume: %w", err)
		}
		return "", fmt.Errorf("analyze resume: %w: %w", domain.ErrServiceUnavailable, err)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", fmt.Errorf("analyze resume: empty analysis: %w", domain.ErrServiceUnavailable)
	}
	return out, nil
}

// ─── Role Extraction ────────────────────────────────────────────────────────

var (
	rolesLineRe = regexp.MustCompile(`(?i)suggested job roles\s*:\s*(.+?)(?:\n|$)`)
	roleSplitRe = regexp.MustCompile(`,|•|-|\n`)
)

// SuggestedRoles pulls the comma or bullet separated roles from the first
// "Suggested job roles:" line of an analysis. Duplicates are dropped and
// first-seen order kept.
func SuggestedRoles(analysis string) []string {
	m := rolesLineRe.FindStringSubmatch(analysis)
	if m == nil {
		return nil
	}
	seen := make(map[string]bool)
	var roles []string
	for _, part := range roleSplitRe.Split(m[1], -1) {
		role := strings.Trim(part, " •-*")
		if role == "" || seen[role] {
			continue
		}
		seen[role] = true
		roles = append(roles, role)
	}
	return roles
}
