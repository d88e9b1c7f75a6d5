package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Loop.MaxToolDepth)
	assert.Equal(t, BusyPolicyQueue, cfg.Loop.BusyPolicy)
}

func TestLoad_LayersOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "iso.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: Tron
model:
  provider: openai
loop:
  max_tool_depth: 4
adapters:
  - name: facts
    tag: facts
    priority: 20
  - name: memory
    tag: memory
    priority: 30
    best_effort: true
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "Tron", cfg.Name)
	assert.Equal(t, "openai", cfg.Model.Provider)
	assert.Equal(t, 4, cfg.Loop.MaxToolDepth)
	// Untouched sections keep their defaults
	assert.Equal(t, BusyPolicyQueue, cfg.Loop.BusyPolicy)
	assert.Equal(t, 5, cfg.Memory.TopK)

	require.Len(t, cfg.Adapters, 2)
	assert.True(t, cfg.Adapters[1].BestEffort)
}

func TestValidate_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty name", func(c *Config) { c.Name = "" }},
		{"unknown provider", func(c *Config) { c.Model.Provider = "frontier" }},
		{"zero depth", func(c *Config) { c.Loop.MaxToolDepth = 0 }},
		{"negative depth", func(c *Config) { c.Loop.MaxToolDepth = -1 }},
		{"unknown busy policy", func(c *Config) { c.Loop.BusyPolicy = "drop" }},
		{"zero parallel tools", func(c *Config) { c.Loop.MaxParallelTools = 0 }},
		{"negative facts limit", func(c *Config) { c.Facts.Limit = -1 }},
		{"duplicate adapter", func(c *Config) {
			c.Adapters = []AdapterConfig{{Name: "facts"}, {Name: "facts"}}
		}},
		{"unnamed adapter", func(c *Config) {
			c.Adapters = []AdapterConfig{{Tag: "facts"}}
		}},
		{"unknown adapter", func(c *Config) {
			c.Adapters = []AdapterConfig{{Name: "horoscope"}}
		}},
		{"unknown log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "iso.yaml")

	cfg := DefaultConfig()
	cfg.Name = "Flynn"
	cfg.Loop.BusyPolicy = BusyPolicyReject
	require.NoError(t, cfg.Save(path))

	reloaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Flynn", reloaded.Name)
	assert.Equal(t, BusyPolicyReject, reloaded.Loop.BusyPolicy)
}
