// Package workloadconfig loads the synthetic workload description driving
// cmd/tempo-dashboard: how many jobs to submit, their priority mix, and how
// long each pretends to work.
package workloadconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
)

// PriorityMix describes how many jobs to submit at a given priority.
type PriorityMix struct {
	Priority int `json:"priority"`
	Count    int `json:"count"`
}

// Config describes a synthetic submission workload.
type Config struct {
	// Label is shown in the dashboard header; supports $VAR/${VAR} expansion
	// (e.g. "${USER}'s run").
	Label string `json:"label"`

	// MinIntervalMs, MaxQueued, MaxConcurrent seed tempo.Config.
	MinIntervalMs int `json:"min_interval_ms"`
	MaxQueued     int `json:"max_queued"`
	MaxConcurrent int `json:"max_concurrent"`

	// ThinkTimeMs is how long each synthetic job pretends to run.
	ThinkTimeMs int `json:"think_time_ms"`

	// Mix lists how many jobs to submit per priority level.
	Mix []PriorityMix `json:"mix"`
}

// Default is used when no config file is given.
func Default() Config {
	return Config{
		Label:         "tempo demo",
		MinIntervalMs: 200,
		MaxQueued:     32,
		MaxConcurrent: 4,
		ThinkTimeMs:   500,
		Mix: []PriorityMix{
			{Priority: 0, Count: 12},
			{Priority: 5, Count: 6},
			{Priority: 10, Count: 2},
		},
	}
}

// Load reads and parses a workload config file, expanding $VAR/${VAR}
// references in Label against the process environment.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("workloadconfig: read %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("workloadconfig: parse %s: %w", path, err)
	}
	cfg.Label = expandEnv(cfg.Label)
	return cfg, nil
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}|\$([A-Za-z_][A-Za-z0-9_]*)`)

func expandEnv(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		var name string
		if match[1] == '{' {
			name = match[2 : len(match)-1]
		} else {
			name = match[1:]
		}
		if v := os.Getenv(name); v != "" {
			return v
		}
		return match
	})
}
