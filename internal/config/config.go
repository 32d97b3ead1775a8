// Package config provides configuration types, defaults, and persistence
// for headless.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/zjrosen/headless/internal/agent/client"
)

// Config holds all configuration options for headless.
type Config struct {
	// Provider selects the agent CLI: "claude" (default) or "codex".
	Provider string `mapstructure:"provider"`

	Claude  ClaudeConfig  `mapstructure:"claude"`
	Codex   CodexConfig   `mapstructure:"codex"`
	Session SessionConfig `mapstructure:"session"`
	Queue   QueueConfig   `mapstructure:"queue"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Log     LogConfig     `mapstructure:"log"`
}

// ClaudeConfig holds Claude-specific settings.
type ClaudeConfig struct {
	Model string `mapstructure:"model"` // sonnet (default), opus, haiku

	// PermissionMode: default, acceptEdits, plan, bypassPermissions
	PermissionMode string `mapstructure:"permission_mode"`

	// SkipPermissions passes --dangerously-skip-permissions.
	SkipPermissions bool `mapstructure:"skip_permissions"`

	AllowedTools    []string `mapstructure:"allowed_tools"`
	DisallowedTools []string `mapstructure:"disallowed_tools"`
	MaxTurns        int      `mapstructure:"max_turns"`

	// AppendSystemPrompt is appended to the agent's system instructions.
	AppendSystemPrompt string `mapstructure:"append_system_prompt"`
}

// CodexConfig holds Codex-specific settings.
type CodexConfig struct {
	Model string `mapstructure:"model"` // gpt-5.2-codex (default)

	// SandboxMode: read-only, workspace-write, danger-full-access
	SandboxMode string `mapstructure:"sandbox_mode"`

	// ApprovalPolicy: untrusted, on-failure, on-request, never
	ApprovalPolicy string `mapstructure:"approval_policy"`

	SkipGitRepoCheck bool `mapstructure:"skip_git_repo_check"`
}

// SessionConfig holds conversation persistence settings.
type SessionConfig struct {
	// File stores the current anonymous conversation identifier.
	// Default: ~/.headless/session
	File string `mapstructure:"file"`

	// Dir is the named session store directory.
	// Default: ~/.headless/sessions
	Dir string `mapstructure:"dir"`
}

// QueueConfig holds batch processing settings.
type QueueConfig struct {
	// MaxAttempts is the total tries per task, first run included.
	MaxAttempts int `mapstructure:"max_attempts"`

	// BackoffSeconds scales the retry delay: attempt n waits
	// 2^(n-1) * BackoffSeconds before retrying.
	BackoffSeconds int `mapstructure:"backoff_seconds"`

	// BudgetUSD is an advisory cost ceiling for a batch. Zero disables.
	BudgetUSD float64 `mapstructure:"budget_usd"`

	// ArchiveDir receives raw event files, one per task.
	// Default: ~/.headless/archive
	ArchiveDir string `mapstructure:"archive_dir"`

	// WatchDir is scanned for *.queue files in watch mode.
	// Default: ~/.headless/queue
	WatchDir string `mapstructure:"watch_dir"`

	// TimeoutSeconds caps each attempt. Zero means no timeout.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// TracingConfig holds distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether tracing is active. Default: false
	Enabled bool `mapstructure:"enabled"`

	// Exporter selects the backend: "none", "file", "stdout", "otlp".
	// Default: "file"
	Exporter string `mapstructure:"exporter"`

	// FilePath is the output file for the "file" exporter.
	// Default: ~/.headless/traces/traces.jsonl
	FilePath string `mapstructure:"file_path"`

	// OTLPEndpoint is the collector endpoint for the "otlp" exporter.
	// Default: "localhost:4317"
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`

	// SampleRate controls trace sampling (0.0 to 1.0). Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate"`
}

// LogConfig holds debug log configuration.
type LogConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// Path is the debug log file. Default: ~/.headless/debug.log
	Path string `mapstructure:"path"`

	// Level: debug, info, warn, error. Default: info
	Level string `mapstructure:"level"`
}

// Default returns the configuration used when no config file exists.
func Default() Config {
	return Config{
		Provider: string(client.ClientClaude),
		Claude: ClaudeConfig{
			Model: "sonnet",
		},
		Codex: CodexConfig{
			Model:       "gpt-5.2-codex",
			SandboxMode: "read-only",
		},
		Session: SessionConfig{
			File: filepath.Join(baseDir(), "session"),
			Dir:  filepath.Join(baseDir(), "sessions"),
		},
		Queue: QueueConfig{
			MaxAttempts:    3,
			BackoffSeconds: 2,
			ArchiveDir:     filepath.Join(baseDir(), "archive"),
			WatchDir:       filepath.Join(baseDir(), "queue"),
		},
		Tracing: TracingConfig{
			Exporter:   "file",
			FilePath:   filepath.Join(baseDir(), "traces", "traces.jsonl"),
			SampleRate: 1.0,
		},
		Log: LogConfig{
			Path:  filepath.Join(baseDir(), "debug.log"),
			Level: "info",
		},
	}
}

// Load reads configuration from the given file, layering it over the
// defaults. A missing file yields the defaults without error.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("HEADLESS")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// DefaultPath returns the default config file location,
// ~/.headless/config.yml.
func DefaultPath() string {
	return filepath.Join(baseDir(), "config.yml")
}

// ClientType returns the configured provider as a client type.
func (c Config) ClientType() client.ClientType {
	if c.Provider == "" {
		return client.ClientClaude
	}
	return client.ClientType(c.Provider)
}

// SpawnConfig builds the provider-agnostic spawn configuration.
// Fields for the other provider are populated too; providers ignore
// what their CLI has no flag for.
func (c Config) SpawnConfig() client.Config {
	cfg := client.Config{
		PermissionMode:     c.Claude.PermissionMode,
		SkipPermissions:    c.Claude.SkipPermissions,
		AllowedTools:       c.Claude.AllowedTools,
		DisallowedTools:    c.Claude.DisallowedTools,
		MaxTurns:           c.Claude.MaxTurns,
		AppendSystemPrompt: c.Claude.AppendSystemPrompt,
		SandboxMode:        c.Codex.SandboxMode,
		ApprovalPolicy:     c.Codex.ApprovalPolicy,
		SkipGitRepoCheck:   c.Codex.SkipGitRepoCheck,
		Timeout:            time.Duration(c.Queue.TimeoutSeconds) * time.Second,
	}
	switch c.ClientType() {
	case client.ClientCodex:
		cfg.Model = c.Codex.Model
	default:
		cfg.Model = c.Claude.Model
	}
	return cfg
}

func baseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".headless"
	}
	return filepath.Join(home, ".headless")
}
