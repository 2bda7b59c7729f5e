// Package config loads the service configuration from YAML with environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration.
type Config struct {
	Logger   LoggerConfig   `yaml:"logger"`
	Tracer   TracerConfig   `yaml:"tracer"`
	Tools    ToolsConfig    `yaml:"tools"`
	Sync     SyncConfig     `yaml:"sync"`
	Realtime RealtimeConfig `yaml:"realtime"`
	Sandbox  SandboxConfig  `yaml:"sandbox"`
}

// LoggerConfig selects the slog handler.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
	Output string `yaml:"output"` // stdout, stderr, or a file path
}

// TracerConfig selects the OpenTelemetry exporter.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // noop, stdout
}

// ToolsConfig tunes the tool bridge.
type ToolsConfig struct {
	Timeout        time.Duration `yaml:"timeout"`
	MaxConcurrency int           `yaml:"max_concurrency"`
	LogLines       int           `yaml:"log_lines"`
	Approval       []string      `yaml:"approval"` // action kinds gated behind confirmation
	Ordered        bool          `yaml:"ordered"`  // serialize workspace mutations per session
}

// SyncConfig tunes the context synchronization engine.
type SyncConfig struct {
	Debounce        time.Duration `yaml:"debounce"`
	ResponseDelay   time.Duration `yaml:"response_delay"`
	ImageHashPrefix int           `yaml:"image_hash_prefix"`
	Interval        time.Duration `yaml:"interval"` // 0 disables periodic sync
	MaxShapes       int           `yaml:"max_shapes"`
	MaxClusters     int           `yaml:"max_clusters"`
	MaxSelected     int           `yaml:"max_selected"`
}

// RealtimeConfig configures the conversation channel.
type RealtimeConfig struct {
	URL             string  `yaml:"url"`
	Model           string  `yaml:"model"`
	Voice           string  `yaml:"voice"`
	Persona         string  `yaml:"persona"` // default, gentle, energetic
	TokenURL        string  `yaml:"token_url"`
	APIKey          string  `yaml:"api_key"`
	EventsPerSecond float64 `yaml:"events_per_second"`
}

// SandboxConfig configures the code runner.
type SandboxConfig struct {
	Command string        `yaml:"command"`
	Args    []string      `yaml:"args"`
	Timeout time.Duration `yaml:"timeout"`
}

// Defaults returns a configuration that runs without a config file.
func Defaults() *Config {
	return &Config{
		Logger: LoggerConfig{Level: "info", Format: "text", Output: "stderr"},
		Tracer: TracerConfig{Enabled: false, Exporter: "noop"},
		Tools: ToolsConfig{
			Timeout:        10 * time.Second,
			MaxConcurrency: 8,
			LogLines:       500,
			Approval:       []string{"clear"},
		},
		Sync: SyncConfig{
			Debounce:        300 * time.Millisecond,
			ResponseDelay:   120 * time.Millisecond,
			ImageHashPrefix: 512,
			MaxShapes:       60,
			MaxClusters:     32,
			MaxSelected:     20,
		},
		Realtime: RealtimeConfig{
			URL:             "wss://api.openai.com/v1/realtime",
			Model:           "gpt-realtime",
			Voice:           "marin",
			Persona:         "default",
			TokenURL:        "https://api.openai.com/v1/realtime/client_secrets",
			EventsPerSecond: 20,
		},
		Sandbox: SandboxConfig{Command: "python3", Args: []string{"-"}, Timeout: 10 * time.Second},
	}
}

// Load reads path over Defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	ApplyEnvOverrides(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnvOverrides applies TUTORKIT_* environment variables.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TUTORKIT_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("TUTORKIT_LOGGER_FORMAT"); v != "" {
		cfg.Logger.Format = v
	}
	if v := os.Getenv("TUTORKIT_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
	}
	if v := os.Getenv("TUTORKIT_TRACER_EXPORTER"); v != "" {
		cfg.Tracer.Exporter = v
	}
	if v := os.Getenv("TUTORKIT_TOOLS_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Tools.Timeout = d
		}
	}
	if v := os.Getenv("TUTORKIT_TOOLS_APPROVAL"); v != "" {
		cfg.Tools.Approval = strings.Split(v, ",")
	}
	if v := os.Getenv("TUTORKIT_TOOLS_ORDERED"); v != "" {
		cfg.Tools.Ordered = v == "true"
	}
	if v := os.Getenv("TUTORKIT_SYNC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Sync.Interval = d
		}
	}
	if v := os.Getenv("TUTORKIT_REALTIME_URL"); v != "" {
		cfg.Realtime.URL = v
	}
	if v := os.Getenv("TUTORKIT_REALTIME_MODEL"); v != "" {
		cfg.Realtime.Model = v
	}
	if v := os.Getenv("TUTORKIT_REALTIME_VOICE"); v != "" {
		cfg.Realtime.Voice = v
	}
	if v := os.Getenv("TUTORKIT_REALTIME_PERSONA"); v != "" {
		cfg.Realtime.Persona = v
	}
	if v := os.Getenv("TUTORKIT_REALTIME_EVENTS_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Realtime.EventsPerSecond = f
		}
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.Realtime.APIKey == "" {
		cfg.Realtime.APIKey = v
	}
	if v := os.Getenv("TUTORKIT_REALTIME_API_KEY"); v != "" {
		cfg.Realtime.APIKey = v
	}
	if v := os.Getenv("TUTORKIT_SANDBOX_COMMAND"); v != "" {
		cfg.Sandbox.Command = v
	}
}
