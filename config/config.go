// Package config provides YAML-loadable configuration for an iso runtime:
// pipeline adapters, loop limits, store locations, and logging.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Busy policies control what Send does while a turn is already running.
const (
	BusyPolicyQueue  = "queue"
	BusyPolicyReject = "reject"
)

// ValidBusyPolicies lists the accepted values for LoopConfig.BusyPolicy.
var ValidBusyPolicies = []string{BusyPolicyQueue, BusyPolicyReject}

// ValidAdapterNames lists the adapter names recognized by AdapterConfig.
var ValidAdapterNames = []string{
	"timestamp", "facts", "memory", "knowledge", "tasks", "history", "workspace",
}

// Config holds the full configuration for one iso.
type Config struct {
	// Iso identity
	Name string `yaml:"name"`

	// Model selection
	Model ModelConfig `yaml:"model"`

	// Pipeline adapters, assembled in (priority, name) order
	Adapters []AdapterConfig `yaml:"adapters"`

	// Loop limits and scheduling
	Loop LoopConfig `yaml:"loop"`

	// State stores
	Facts   FactsConfig   `yaml:"facts"`
	Memory  MemoryConfig  `yaml:"memory"`
	Tasks   TasksConfig   `yaml:"tasks"`
	History HistoryConfig `yaml:"history"`

	// Workspace sandbox
	Workspace WorkspaceConfig `yaml:"workspace"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ModelConfig selects a provider and model.
type ModelConfig struct {
	Provider    string  `yaml:"provider"` // anthropic, openai, mock
	Name        string  `yaml:"name"`
	APIKey      string  `yaml:"api_key"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int64   `yaml:"max_tokens"`
}

// AdapterConfig describes one registered context adapter.
type AdapterConfig struct {
	Name       string `yaml:"name"`
	Tag        string `yaml:"tag"`
	Priority   int    `yaml:"priority"`
	BestEffort bool   `yaml:"best_effort"`
}

// LoopConfig bounds the tool-execution loop.
type LoopConfig struct {
	MaxToolDepth     int    `yaml:"max_tool_depth"`
	BusyPolicy       string `yaml:"busy_policy"`
	MaxParallelTools int    `yaml:"max_parallel_tools"`
}

// FactsConfig configures the fact store.
type FactsConfig struct {
	Path  string `yaml:"path"`
	Limit int    `yaml:"limit"` // facts injected into context per turn
}

// MemoryConfig configures memory retrieval.
type MemoryConfig struct {
	TopK int `yaml:"top_k"`
}

// TasksConfig configures the task store.
type TasksConfig struct {
	Path string `yaml:"path"`
}

// HistoryConfig configures the transcript store.
type HistoryConfig struct {
	Path     string `yaml:"path"`
	Capacity int    `yaml:"capacity"` // messages injected into context per turn
}

// WorkspaceConfig configures the sandboxed workspace.
type WorkspaceConfig struct {
	Root string `yaml:"root"`
}

// LoggingConfig configures the logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// DefaultConfig returns a config with working defaults for every field
// except the iso name and workspace root.
func DefaultConfig() *Config {
	return &Config{
		Name: "iso",
		Model: ModelConfig{
			Provider:    "anthropic",
			Temperature: 0.7,
			MaxTokens:   4096,
		},
		Loop: LoopConfig{
			MaxToolDepth:     10,
			BusyPolicy:       BusyPolicyQueue,
			MaxParallelTools: 4,
		},
		Facts: FactsConfig{
			Limit: 50,
		},
		Memory: MemoryConfig{
			TopK: 5,
		},
		History: HistoryConfig{
			Capacity: 40,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML config from path, layered over DefaultConfig.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save writes the config to path as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

func (c *Config) applyEnvOverrides() {
	if c.Model.APIKey != "" {
		return
	}
	switch c.Model.Provider {
	case "anthropic":
		c.Model.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	case "openai":
		c.Model.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

// Validate checks every recognized option and returns the first problem.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("iso name must not be empty")
	}

	switch c.Model.Provider {
	case "anthropic", "openai", "mock":
	default:
		return fmt.Errorf("invalid model provider: %q (valid: anthropic, openai, mock)", c.Model.Provider)
	}

	if c.Loop.MaxToolDepth <= 0 {
		return fmt.Errorf("loop.max_tool_depth must be positive, got %d", c.Loop.MaxToolDepth)
	}

	validPolicy := false
	for _, p := range ValidBusyPolicies {
		if c.Loop.BusyPolicy == p {
			validPolicy = true
			break
		}
	}
	if !validPolicy {
		return fmt.Errorf("invalid loop.busy_policy: %q (valid: %v)", c.Loop.BusyPolicy, ValidBusyPolicies)
	}

	if c.Loop.MaxParallelTools < 1 {
		return fmt.Errorf("loop.max_parallel_tools must be at least 1, got %d", c.Loop.MaxParallelTools)
	}

	if c.Facts.Limit < 0 {
		return fmt.Errorf("facts.limit must not be negative, got %d", c.Facts.Limit)
	}

	if c.Memory.TopK < 0 {
		return fmt.Errorf("memory.top_k must not be negative, got %d", c.Memory.TopK)
	}

	if c.History.Capacity < 0 {
		return fmt.Errorf("history.capacity must not be negative, got %d", c.History.Capacity)
	}

	seen := map[string]bool{}
	for _, a := range c.Adapters {
		if a.Name == "" {
			return fmt.Errorf("adapter name must not be empty")
		}
		if seen[a.Name] {
			return fmt.Errorf("duplicate adapter name: %q", a.Name)
		}
		seen[a.Name] = true

		known := false
		for _, n := range ValidAdapterNames {
			if a.Name == n {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("unknown adapter: %q (valid: %v)", a.Name, ValidAdapterNames)
		}
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %q (valid: debug, info, warn, error)", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid logging.format: %q (valid: text, json)", c.Logging.Format)
	}

	return nil
}
