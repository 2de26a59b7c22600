package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv    = "NEWSPULSE_CONFIG"
	serverAddrEnv    = "NEWSPULSE_ADDR"
	databaseDSNEnv   = "DATABASE_DSN"
	openAIKeyEnv     = "OPENAI_API_KEY"
	openAIModelEnv   = "OPENAI_MODEL"
	openAIBaseEnv    = "OPENAI_ENDPOINT"
	ingestSecretEnv  = "INGEST_SECRET"
	hackerNewsAPIEnv = "HACKERNEWS_API_URL"
)

// Duration wraps time.Duration so YAML accepts "5s"-style strings.
type Duration time.Duration

// UnmarshalYAML parses the scalar with time.ParseDuration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Std converts back to the standard library type.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds high-level settings required across the application.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	HackerNews HackerNewsConfig `yaml:"hackernews"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Feeds      []FeedConfig     `yaml:"feeds"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// DatabaseConfig describes Postgres connection details. An empty DSN
// disables persistence rather than failing startup.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// HackerNewsConfig points at the upstream story feed.
type HackerNewsConfig struct {
	APIURL string `yaml:"apiUrl"`
}

// OpenAIConfig defines how to contact the chat-completion API. An empty
// API key disables summarization.
type OpenAIConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
}

// IngestConfig carries pipeline tunables.
type IngestConfig struct {
	Secret               string        `yaml:"secret"`
	TopStories           int           `yaml:"topStories"`
	FetchBatchSize       int           `yaml:"fetchBatchSize"`
	SummarizeLimit       int           `yaml:"summarizeLimit"`
	SummarizeConcurrency int           `yaml:"summarizeConcurrency"`
	CommentLimit         int           `yaml:"commentLimit"`
	ExtractTimeout       Duration      `yaml:"extractTimeout"`
	RunTimeout           Duration      `yaml:"runTimeout"`
}

// SchedulerConfig controls the periodic ingest loop in serve mode.
// A zero interval disables it.
type SchedulerConfig struct {
	Interval Duration `yaml:"interval"`
}

// FeedConfig describes one supplementary RSS/Atom source.
type FeedConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// LoggingConfig selects log verbosity and output shape.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(serverAddrEnv); v != "" {
		c.Server.Addr = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(hackerNewsAPIEnv); v != "" {
		c.HackerNews.APIURL = v
	}

	if v := os.Getenv(openAIKeyEnv); v != "" {
		c.OpenAI.APIKey = v
	}

	if v := os.Getenv(openAIModelEnv); v != "" {
		c.OpenAI.Model = v
	}

	if v := os.Getenv(openAIBaseEnv); v != "" {
		c.OpenAI.Endpoint = v
	}

	if v := os.Getenv(ingestSecretEnv); v != "" {
		c.Ingest.Secret = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Server.Addr != "" {
		base.Server = override.Server
	}

	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.HackerNews.APIURL != "" {
		base.HackerNews = override.HackerNews
	}

	if override.OpenAI.Endpoint != "" {
		base.OpenAI.Endpoint = override.OpenAI.Endpoint
	}
	if override.OpenAI.Model != "" {
		base.OpenAI.Model = override.OpenAI.Model
	}
	if override.OpenAI.APIKey != "" {
		base.OpenAI.APIKey = override.OpenAI.APIKey
	}

	if override.Ingest.Secret != "" {
		base.Ingest.Secret = override.Ingest.Secret
	}
	if override.Ingest.TopStories > 0 {
		base.Ingest.TopStories = override.Ingest.TopStories
	}
	if override.Ingest.FetchBatchSize > 0 {
		base.Ingest.FetchBatchSize = override.Ingest.FetchBatchSize
	}
	if override.Ingest.SummarizeLimit > 0 {
		base.Ingest.SummarizeLimit = override.Ingest.SummarizeLimit
	}
	if override.Ingest.SummarizeConcurrency > 0 {
		base.Ingest.SummarizeConcurrency = override.Ingest.SummarizeConcurrency
	}
	if override.Ingest.CommentLimit > 0 {
		base.Ingest.CommentLimit = override.Ingest.CommentLimit
	}
	if override.Ingest.ExtractTimeout > 0 {
		base.Ingest.ExtractTimeout = override.Ingest.ExtractTimeout
	}
	if override.Ingest.RunTimeout > 0 {
		base.Ingest.RunTimeout = override.Ingest.RunTimeout
	}

	if override.Scheduler.Interval > 0 {
		base.Scheduler.Interval = override.Scheduler.Interval
	}

	if len(override.Feeds) > 0 {
		base.Feeds = override.Feeds
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Server:     ServerConfig{Addr: ":8080"},
		Database:   DatabaseConfig{DSN: ""},
		HackerNews: HackerNewsConfig{APIURL: "https://hacker-news.firebaseio.com/v0"},
		OpenAI: OpenAIConfig{
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Model:    "gpt-4o-mini",
			APIKey:   "",
		},
		Ingest: IngestConfig{
			TopStories:           30,
			FetchBatchSize:       10,
			SummarizeLimit:       15,
			SummarizeConcurrency: 3,
			CommentLimit:         3,
			ExtractTimeout:       Duration(5 * time.Second),
			RunTimeout:           Duration(300 * time.Second),
		},
		Scheduler: SchedulerConfig{Interval: 0},
		Logging:   LoggingConfig{Level: "info", Format: "text"},
	}
}
