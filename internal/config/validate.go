package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError accumulates every configuration problem found.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// Add records one problem.
func (v *ValidationError) Add(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate returns a *ValidationError when cfg is unusable.
func Validate(cfg *Config) error {
	ve := &ValidationError{}
	if !slices.Contains([]string{"", "text", "json"}, strings.ToLower(cfg.Logger.Format)) {
		ve.Add("logger.format must be text or json, got %q", cfg.Logger.Format)
	}
	if cfg.Tracer.Enabled && !slices.Contains([]string{"", "noop", "stdout"}, cfg.Tracer.Exporter) {
		ve.Add("tracer.exporter must be noop or stdout, got %q", cfg.Tracer.Exporter)
	}
	if cfg.Tools.Timeout <= 0 {
		ve.Add("tools.timeout must be > 0")
	}
	if cfg.Tools.LogLines <= 0 {
		ve.Add("tools.log_lines must be > 0")
	}
	if cfg.Sync.Debounce < 0 || cfg.Sync.ResponseDelay < 0 || cfg.Sync.Interval < 0 {
		ve.Add("sync durations must not be negative")
	}
	if cfg.Sync.ImageHashPrefix <= 0 {
		ve.Add("sync.image_hash_prefix must be > 0")
	}
	if cfg.Sync.MaxShapes <= 0 || cfg.Sync.MaxClusters <= 0 || cfg.Sync.MaxSelected <= 0 {
		ve.Add("sync limits must be > 0")
	}
	if cfg.Realtime.URL == "" {
		ve.Add("realtime.url is required")
	}
	if cfg.Realtime.EventsPerSecond <= 0 {
		ve.Add("realtime.events_per_second must be > 0")
	}
	if cfg.Sandbox.Command == "" {
		ve.Add("sandbox.command is required")
	}
	if cfg.Sandbox.Timeout <= 0 {
		ve.Add("sandbox.timeout must be > 0")
	}
	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}
