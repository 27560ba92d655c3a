// Package daemon manages the PathPilot lifecycle and configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config holds all daemon configuration.
type Config struct {
	API         APIConfig         `toml:"api"`
	Corpus      CorpusConfig      `toml:"corpus"`
	Matcher     MatcherConfig     `toml:"matcher"`
	Engagement  EngagementConfig  `toml:"engagement"`
	LLM         LLMConfig         `toml:"llm"`
	Storage     StorageConfig     `toml:"storage"`
	Leaderboard LeaderboardConfig `toml:"leaderboard"`
	Events      EventsConfig      `toml:"events"`
	Resume      ResumeConfig      `toml:"resume"`
	Logging     LoggingConfig     `toml:"logging"`
	Telemetry   TelemetryConfig   `toml:"telemetry"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	MaxUploadMB int    `toml:"max_upload_mb"`
}

// CorpusConfig locates the question/answer table. An empty path uses the
// built-in corpus.
type CorpusConfig struct {
	Path string `toml:"path"`
}

// MatcherConfig tunes the question matcher.
type MatcherConfig struct {
	MinSimilarity float64 `toml:"min_similarity"`
	Stemming      bool    `toml:"stemming"`
}

// EngagementConfig tunes the engagement rules.
type EngagementConfig struct {
	WeeklyRewardMode string   `toml:"weekly_reward_mode"` // every_evaluation | once_per_week
	GoalCatalog      []string `toml:"goal_catalog"`
}

// LLMConfig selects the generative-text service.
type LLMConfig struct {
	Provider string `toml:"provider"` // gemini | openai | none
	Model    string `toml:"model"`
	APIKey   string `toml:"api_key"`
	BaseURL  string `toml:"base_url"`
	Timeout  string `toml:"timeout"`
	Retries  int    `toml:"retries"`
}

// StorageConfig controls persistence.
type StorageConfig struct {
	Dir           string `toml:"dir"`
	ChatLog       string `toml:"chat_log"` // sqlite | mongo
	MongoURI      string `toml:"mongo_uri"`
	MongoDatabase string `toml:"mongo_database"`
}

// LeaderboardConfig enables the global Redis leaderboard.
type LeaderboardConfig struct {
	RedisURL string `toml:"redis_url"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Key      string `toml:"key"`
}

// EventsConfig enables the AMQP engagement event stream.
type EventsConfig struct {
	AMQPURL  string `toml:"amqp_url"`
	Exchange string `toml:"exchange"`
}

// ResumeConfig controls resume analysis and archival.
type ResumeConfig struct {
	Timeout   string `toml:"timeout"`
	Archive   bool   `toml:"archive"`
	Bucket    string `toml:"bucket"`
	Region    string `toml:"region"`
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Prefix    string `toml:"prefix"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level    string `toml:"level"`
	Encoding string `toml:"encoding"` // json | console
}

// TelemetryConfig controls observability endpoints.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	homeDir := pathpilotHome()
	return Config{
		API: APIConfig{
			Host:        "127.0.0.1",
			Port:        8501,
			MaxUploadMB: 10,
		},
		Matcher: MatcherConfig{
			MinSimilarity: 0,
			Stemming:      true,
		},
		Engagement: EngagementConfig{
			WeeklyRewardMode: "every_evaluation",
		},
		LLM: LLMConfig{
			Provider: "gemini",
			Timeout:  "30s",
			Retries:  3,
		},
		Storage: StorageConfig{
			Dir:           homeDir,
			ChatLog:       "sqlite",
			MongoDatabase: "pathpilot",
		},
		Leaderboard: LeaderboardConfig{
			Key: "pathpilot:xp",
		},
		Events: EventsConfig{
			Exchange: "pathpilot.engagement",
		},
		Resume: ResumeConfig{
			Timeout: "90s",
			Region:  "auto",
			Prefix:  "resumes",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
	}
}

// LoadConfig reads config from ~/.pathpilot/config.toml, falling back to
// defaults, then applies .env files and environment overrides.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(pathpilotHome(), "config.toml")

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	// Missing .env files are fine; existing variables win.
	_ = godotenv.Load(filepath.Join(pathpilotHome(), ".env"))
	_ = godotenv.Load()

	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

// applyEnv overlays secrets and endpoints from the environment.
func applyEnv(cfg *Config) {
	setIf := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	setIf(&cfg.LLM.Provider, "PATHPILOT_LLM_PROVIDER")
	if cfg.LLM.APIKey == "" {
		switch strings.ToLower(cfg.LLM.Provider) {
		case "gemini":
			setIf(&cfg.LLM.APIKey, "GEMINI_API_KEY")
		case "openai":
			setIf(&cfg.LLM.APIKey, "OPENAI_API_KEY")
		}
	}
	setIf(&cfg.Corpus.Path, "PATHPILOT_CORPUS")
	setIf(&cfg.Storage.MongoURI, "PATHPILOT_MONGO_URI")
	setIf(&cfg.Leaderboard.RedisURL, "PATHPILOT_REDIS_URL")
	setIf(&cfg.Events.AMQPURL, "RABBITMQ_URL")
	setIf(&cfg.Logging.Level, "PATHPILOT_LOG_LEVEL")

	setIf(&cfg.Resume.Bucket, "R2_BUCKET")
	setIf(&cfg.Resume.AccessKey, "R2_ACCESS_KEY")
	setIf(&cfg.Resume.SecretKey, "R2_SECRET_KEY")
	if id := os.Getenv("R2_ACCOUNT_ID"); id != "" && cfg.Resume.Endpoint == "" {
		cfg.Resume.Endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", id)
	}
}

// Validate rejects settings the daemon cannot run with.
func (c Config) Validate() error {
	switch c.Engagement.WeeklyRewardMode {
	case "", "every_evaluation", "once_per_week":
	default:
		return fmt.Errorf("engagement.weekly_reward_mode: unknown mode %q", c.Engagement.WeeklyRewardMode)
	}
	switch strings.ToLower(c.Storage.ChatLog) {
	case "", "sqlite":
	case "mongo":
		if c.Storage.MongoURI == "" {
			return fmt.Errorf("storage.chat_log = mongo requires storage.mongo_uri")
		}
	default:
		return fmt.Errorf("storage.chat_log: unknown backend %q", c.Storage.ChatLog)
	}
	if c.Matcher.MinSimilarity < 0 || c.Matcher.MinSimilarity > 1 {
		return fmt.Errorf("matcher.min_similarity must be within [0, 1], got %v", c.Matcher.MinSimilarity)
	}
	if c.Resume.Archive && c.Resume.Bucket == "" {
		return fmt.Errorf("resume.archive requires resume.bucket")
	}
	return nil
}

// SaveConfig writes the config to ~/.pathpilot/config.toml.
// Secrets read from the environment are not written back.
func SaveConfig(cfg Config) error {
	path := filepath.Join(pathpilotHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	cfg.LLM.APIKey = ""
	cfg.Resume.AccessKey = ""
	cfg.Resume.SecretKey = ""
	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// pathpilotHome returns the PathPilot data directory.
func pathpilotHome() string {
	if env := os.Getenv("PATHPILOT_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".pathpilot")
}

// Home is exported for use by other packages.
func Home() string {
	return pathpilotHome()
}

// parseDuration parses a duration string, returning a fallback on error.
func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
