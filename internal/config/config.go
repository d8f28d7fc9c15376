package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv = "ACTIVITY_POSTER_CONFIG"

	githubTokenEnv    = "PERSONAL_GITHUB_TOKEN"
	githubUsernameEnv = "PERSONAL_GITHUB_USERNAME"
	openAIKeyEnv      = "OPENAI_API_KEY"
	openAIModelEnv    = "OPENAI_MODEL"
	notionTokenEnv    = "NOTION_TOKEN"
	notionDatabaseEnv = "NOTION_DATABASE_ID"
)

// Config holds every setting required across the application.
type Config struct {
	Logging   LoggingConfig   `yaml:"logging"`
	GitHub    GitHubConfig    `yaml:"github"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Notion    NotionConfig    `yaml:"notion"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
}

// LoggingConfig controls slog construction.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// GitHubConfig describes the activity source: whose events to read and where.
type GitHubConfig struct {
	APIURL     string `yaml:"apiUrl"`
	Username   string `yaml:"username"`
	Token      string `yaml:"token"`
	WindowDays int    `yaml:"windowDays"`
	PerPage    int    `yaml:"perPage"`
}

// Window converts the configured day count into a duration.
func (g GitHubConfig) Window() time.Duration {
	days := g.WindowDays
	if days <= 0 {
		days = 7
	}
	return time.Duration(days) * 24 * time.Hour
}

// OpenAIConfig defines how to contact the chat-completions API.
type OpenAIConfig struct {
	Endpoint    string `yaml:"endpoint"`
	Model       string `yaml:"model"`
	APIKey      string `yaml:"apiKey"`
	ExpandPosts bool   `yaml:"expandPosts"`
}

// NotionConfig wires the target database for generated posts.
type NotionConfig struct {
	APIURL     string `yaml:"apiUrl"`
	Token      string `yaml:"token"`
	DatabaseID string `yaml:"databaseId"`
	Version    string `yaml:"version"`
}

// PipelineConfig carries the run-level knobs.
type PipelineConfig struct {
	PostCount int    `yaml:"postCount"`
	Platform  string `yaml:"platform"`
}

// SchedulerConfig defines the optional built-in trigger. Disabled by
// default: the production trigger is an external weekly cron.
type SchedulerConfig struct {
	Enabled       bool `yaml:"enabled"`
	IntervalHours int  `yaml:"intervalHours"`
}

// Interval converts the configured hour count into a duration.
func (s SchedulerConfig) Interval() time.Duration {
	hours := s.IntervalHours
	if hours <= 0 {
		hours = 7 * 24
	}
	return time.Duration(hours) * time.Hour
}

// Load reads YAML configuration (if present) and applies environment
// overrides on top.
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

// Validate reports every missing required credential at once.
func (c Config) Validate() error {
	var missing []string
	if c.GitHub.Username == "" {
		missing = append(missing, githubUsernameEnv)
	}
	if c.GitHub.Token == "" {
		missing = append(missing, githubTokenEnv)
	}
	if c.OpenAI.APIKey == "" {
		missing = append(missing, openAIKeyEnv)
	}
	if c.Notion.Token == "" {
		missing = append(missing, notionTokenEnv)
	}
	if c.Notion.DatabaseID == "" {
		missing = append(missing, notionDatabaseEnv)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(githubTokenEnv); v != "" {
		c.GitHub.Token = v
	}
	if v := os.Getenv(githubUsernameEnv); v != "" {
		c.GitHub.Username = v
	}
	if v := os.Getenv(openAIKeyEnv); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv(openAIModelEnv); v != "" {
		c.OpenAI.Model = v
	}
	if v := os.Getenv(notionTokenEnv); v != "" {
		c.Notion.Token = v
	}
	if v := os.Getenv(notionDatabaseEnv); v != "" {
		c.Notion.DatabaseID = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if override.GitHub.APIURL != "" {
		base.GitHub.APIURL = override.GitHub.APIURL
	}
	if override.GitHub.Username != "" {
		base.GitHub.Username = override.GitHub.Username
	}
	if override.GitHub.Token != "" {
		base.GitHub.Token = override.GitHub.Token
	}
	if override.GitHub.WindowDays > 0 {
		base.GitHub.WindowDays = override.GitHub.WindowDays
	}
	if override.GitHub.PerPage > 0 {
		base.GitHub.PerPage = override.GitHub.PerPage
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
	if override.OpenAI.ExpandPosts {
		base.OpenAI.ExpandPosts = true
	}

	if override.Notion.APIURL != "" {
		base.Notion.APIURL = override.Notion.APIURL
	}
	if override.Notion.Token != "" {
		base.Notion.Token = override.Notion.Token
	}
	if override.Notion.DatabaseID != "" {
		base.Notion.DatabaseID = override.Notion.DatabaseID
	}
	if override.Notion.Version != "" {
		base.Notion.Version = override.Notion.Version
	}

	if override.Pipeline.PostCount > 0 {
		base.Pipeline.PostCount = override.Pipeline.PostCount
	}
	if override.Pipeline.Platform != "" {
		base.Pipeline.Platform = override.Pipeline.Platform
	}

	if override.Scheduler.Enabled {
		base.Scheduler.Enabled = true
	}
	if override.Scheduler.IntervalHours > 0 {
		base.Scheduler.IntervalHours = override.Scheduler.IntervalHours
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		GitHub: GitHubConfig{
			APIURL:     "https://api.github.com",
			WindowDays: 7,
			PerPage:    100,
		},
		OpenAI: OpenAIConfig{
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Model:    "gpt-4.1",
		},
		Notion: NotionConfig{
			APIURL:  "https://api.notion.com",
			Version: "2022-06-28",
		},
		Pipeline: PipelineConfig{
			PostCount: 5,
			Platform:  "LinkedIn",
		},
		Scheduler: SchedulerConfig{
			Enabled:       false,
			IntervalHours: 7 * 24,
		},
	}
}
