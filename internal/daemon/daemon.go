package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/futurenavigators/pathpilot/internal/api"
	"github.com/futurenavigators/pathpilot/internal/app/advisor"
	"github.com/futurenavigators/pathpilot/internal/app/engagement"
	"github.com/futurenavigators/pathpilot/internal/app/matcher"
	"github.com/futurenavigators/pathpilot/internal/app/resume"
	"github.com/futurenavigators/pathpilot/internal/app/session"
	"github.com/futurenavigators/pathpilot/internal/domain"
	"github.com/futurenavigators/pathpilot/internal/health"
	"github.com/futurenavigators/pathpilot/internal/infra/corpus"
	"github.com/futurenavigators/pathpilot/internal/infra/events"
	"github.com/futurenavigators/pathpilot/internal/infra/llm"
	"github.com/futurenavigators/pathpilot/internal/infra/mongo"
	"github.com/futurenavigators/pathpilot/internal/infra/objectstore"
	redisstore "github.com/futurenavigators/pathpilot/internal/infra/redis"
	"github.com/futurenavigators/pathpilot/internal/infra/sqlite"
)

// Daemon is the core PathPilot runtime. It wires together all services.
type Daemon struct {
	Config   Config
	Log      *zap.Logger
	DB       *sqlite.DB
	Engine   *engagement.Engine
	Index    *matcher.Index
	Sessions *session.Registry
	Advisor  *advisor.Advisor
	Resume   *resume.Analyzer
	Server   *api.Server
	Health   *health.Checker

	// Optional collaborators; nil when not configured or unreachable.
	Completer domain.Completer
	Events    *events.Publisher
	Board     *redisstore.ScoreBoard
	Archive   *objectstore.Archive
	Mongo     *mongo.ChatLog

	cancel context.CancelFunc
}

// New loads the configuration and creates a Daemon with all services wired.
func New(ctx context.Context) (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	return NewWithConfig(ctx, cfg, log)
}

// NewWithConfig creates a Daemon with the given configuration.
// Optional collaborators (events, leaderboard, archive) that fail to connect
// are logged and skipped; storage, corpus and chat log failures are fatal.
func NewWithConfig(ctx context.Context, cfg Config, log *zap.Logger) (*Daemon, error) {
	if log == nil {
		log = zap.NewNop()
	}
	d := &Daemon{Config: cfg, Log: log}
	ok := false
	defer func() {
		if !ok {
			d.Close()
		}
	}()

	// Open SQLite
	dir := cfg.Storage.Dir
	if dir == "" {
		dir = pathpilotHome()
	}
	db, err := sqlite.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	d.DB = db

	// Corpus and matcher
	entries := corpus.Default()
	if cfg.Corpus.Path != "" {
		if entries, err = corpus.Load(cfg.Corpus.Path); err != nil {
			return nil, err
		}
	}
	d.Index, err = matcher.Build(entries,
		matcher.WithMinSimilarity(cfg.Matcher.MinSimilarity),
		matcher.WithStemming(cfg.Matcher.Stemming))
	if err != nil {
		return nil, fmt.Errorf("build matcher: %w", err)
	}
	log.Info("corpus loaded",
		zap.Int("entries", d.Index.Len()),
		zap.Int("vocabulary", d.Index.VocabularySize()))

	// Generative-text service
	d.Completer, err = llm.New(ctx, llm.Config{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Timeout:  parseDuration(cfg.LLM.Timeout, 30*time.Second),
		Retries:  cfg.LLM.Retries,
	}, log.Named("llm"))
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}

	// Engagement engine
	engOpts := []engagement.Option{engagement.WithLogger(log.Named("engagement"))}
	if cfg.Events.AMQPURL != "" {
		pub, err := events.Dial(cfg.Events.AMQPURL, cfg.Events.Exchange)
		if err != nil {
			log.Warn("engagement events disabled", zap.Error(err))
		} else {
			d.Events = pub
			engOpts = append(engOpts, engagement.WithPublisher(pub))
		}
	}
	d.Engine = engagement.New(rulesFromConfig(cfg.Engagement), engOpts...)

	// Sessions
	regOpts := []session.Option{
		session.WithStore(db),
		session.WithLogger(log.Named("session")),
	}
	if cfg.Leaderboard.RedisURL != "" {
		board, err := redisstore.Dial(ctx, cfg.Leaderboard.RedisURL, cfg.Leaderboard.Password, cfg.Leaderboard.DB, cfg.Leaderboard.Key)
		if err != nil {
			log.Warn("global leaderboard disabled", zap.Error(err))
		} else {
			d.Board = board
			regOpts = append(regOpts, session.WithScoreBoard(board))
		}
	}
	d.Sessions = session.NewRegistry(regOpts...)

	// Advisor
	var chatLog domain.ChatLog = db
	if strings.EqualFold(cfg.Storage.ChatLog, "mongo") {
		m, err := mongo.Connect(ctx, cfg.Storage.MongoURI, cfg.Storage.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("chat log: %w", err)
		}
		d.Mongo = m
		chatLog = m
	}
	advOpts := []advisor.Option{
		advisor.WithChatLog(chatLog),
		advisor.WithLogger(log.Named("advisor")),
	}
	if d.Completer != nil {
		advOpts = append(advOpts, advisor.WithCompleter(d.Completer))
	}
	d.Advisor = advisor.New(d.Index, d.Sessions, advOpts...)

	// Resume analyzer
	resOpts := []resume.Option{
		resume.WithRecorder(db),
		resume.WithLogger(log.Named("resume")),
		resume.WithTimeout(parseDuration(cfg.Resume.Timeout, resume.DefaultTimeout)),
	}
	if cfg.Resume.Archive {
		archive, err := objectstore.New(ctx, objectstore.Config{
			Bucket:    cfg.Resume.Bucket,
			Region:    cfg.Resume.Region,
			Endpoint:  cfg.Resume.Endpoint,
			AccessKey: cfg.Resume.AccessKey,
			SecretKey: cfg.Resume.SecretKey,
			Prefix:    cfg.Resume.Prefix,
		})
		if err != nil {
			log.Warn("resume archive disabled", zap.Error(err))
		} else {
			d.Archive = archive
			resOpts = append(resOpts, resume.WithArchive(archive))
		}
	}
	d.Resume = resume.New(d.Completer, resOpts...)

	d.Health = d.healthChecks()

	// API server
	d.Server = api.NewServer(d.Sessions, d.Engine, d.Advisor, d.Resume, log.Named("api"))
	d.Server.SetHealth(d.Health)
	insights := usageInsights{DB: db, feedback: db}
	if d.Mongo != nil {
		insights.feedback = d.Mongo
	}
	d.Server.SetInsights(insights)
	d.Server.SetMaxUploadBytes(int64(cfg.API.MaxUploadMB) << 20)
	if cfg.Telemetry.Prometheus {
		d.Server.EnableMetrics()
	}

	ok = true
	return d, nil
}

// healthChecks registers a check per wired dependency. Storage and the chat
// log are critical; the leaderboard and event stream are optional.
func (d *Daemon) healthChecks() *health.Checker {
	c := health.NewChecker(health.WithLogger(d.Log.Named("health")))
	c.AddPinger("sqlite", d.DB, true)
	c.Add(health.Check{
		Name:     "corpus",
		Critical: true,
		CheckFn: func(context.Context) error {
			if d.Index.Len() == 0 {
				return domain.ErrEmptyCorpus
			}
			return nil
		},
	})
	if d.Mongo != nil {
		c.AddPinger("mongo", d.Mongo, true)
	}
	if d.Board != nil {
		c.AddPinger("redis", d.Board, false)
	}
	if d.Events != nil {
		c.AddPinger("rabbitmq", d.Events, false)
	}
	return c
}

type feedbackSummarizer interface {
	FeedbackSummary(ctx context.Context) (map[string]int, error)
}

// usageInsights counts sessions and resumes in SQLite and feedback in
// whichever store holds the chat log.
type usageInsights struct {
	*sqlite.DB
	feedback feedbackSummarizer
}

func (u usageInsights) FeedbackSummary(ctx context.Context) (map[string]int, error) {
	return u.feedback.FeedbackSummary(ctx)
}

// rulesFromConfig overlays configured values on the default rules.
func rulesFromConfig(c EngagementConfig) engagement.Rules {
	rules := engagement.DefaultRules()
	if c.WeeklyRewardMode != "" {
		rules.WeeklyRewardMode = domain.WeeklyRewardMode(c.WeeklyRewardMode)
	}
	if len(c.GoalCatalog) > 0 {
		rules.GoalCatalog = append([]string(nil), c.GoalCatalog...)
	}
	return rules
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 3 * time.Minute, // resume analysis can be slow
		IdleTimeout:  2 * time.Minute,
	}

	go d.Health.Run(ctx)

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	fmt.Printf("PathPilot serving on http://%s\n", addr)
	if d.Completer == nil {
		fmt.Printf("  Answers: corpus only (no %s API key)\n", d.Config.LLM.Provider)
	}
	if d.Config.Telemetry.Prometheus {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}
	d.Log.Info("serving", zap.String("addr", addr))

	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.Events != nil {
		if err := d.Events.Close(); err != nil {
			d.Log.Warn("close events", zap.Error(err))
		}
	}
	if d.Board != nil {
		_ = d.Board.Close()
	}
	if d.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = d.Mongo.Close(ctx)
		cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
	_ = d.Log.Sync()
}
