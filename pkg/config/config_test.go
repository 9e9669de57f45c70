package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://oai.deutsche-digitale-bibliothek.de/oai", cfg.Endpoint.BaseURL)
	assert.Equal(t, "ddb", cfg.Endpoint.MetadataPrefix)
	assert.Equal(t, 100*time.Second, cfg.Endpoint.RequestTimeout)
	assert.Equal(t, 8, cfg.Harvest.Workers)
	assert.Equal(t, 10, cfg.Harvest.MaxRetries)
	assert.False(t, cfg.Harvest.IncludeSubsets)
	assert.Equal(t, "./harvest", cfg.Output.SaveDir)
	assert.Equal(t, 120, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, "info", cfg.Logging.Level)

	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DDBHARVEST_ENDPOINT", "https://oai.example.org/oai")
	t.Setenv("DDBHARVEST_WORKERS", "4")
	t.Setenv("DDBHARVEST_MAX_RETRIES", "3")
	t.Setenv("DDBHARVEST_SAVE_DIR", "/tmp/harvest")
	t.Setenv("DDBHARVEST_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "https://oai.example.org/oai", cfg.Endpoint.BaseURL)
	assert.Equal(t, 4, cfg.Harvest.Workers)
	assert.Equal(t, 3, cfg.Harvest.MaxRetries)
	assert.Equal(t, "/tmp/harvest", cfg.Output.SaveDir)
	assert.Equal(t, "debug", cfg.Logging.Level)
	// Untouched values keep their defaults
	assert.Equal(t, "ddb", cfg.Endpoint.MetadataPrefix)
}

func TestLoadFromEnvIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("DDBHARVEST_WORKERS", "not-a-number")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())
	assert.Equal(t, 8, cfg.Harvest.Workers)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `endpoint:
  base_url: https://oai.example.org/oai
  metadata_prefix: oai_dc
harvest:
  workers: 2
  sets:
    - abc123
    - def456
output:
  save_dir: /data/harvest
  overwrite_existing: true
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "https://oai.example.org/oai", cfg.Endpoint.BaseURL)
	assert.Equal(t, "oai_dc", cfg.Endpoint.MetadataPrefix)
	assert.Equal(t, 2, cfg.Harvest.Workers)
	assert.Equal(t, []string{"abc123", "def456"}, cfg.Harvest.Sets)
	assert.Equal(t, "/data/harvest", cfg.Output.SaveDir)
	assert.True(t, cfg.Output.OverwriteExisting)
	// Defaults survive for keys the file omits
	assert.Equal(t, 10, cfg.Harvest.MaxRetries)
}

func TestLoadFromFileExplicitMissingPath(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFromFileRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("endpoint: [not a mapping"), 0644))

	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromFile(path))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"missing base url", func(c *Config) { c.Endpoint.BaseURL = "" }, false},
		{"non-http url", func(c *Config) { c.Endpoint.BaseURL = "ftp://example.org" }, false},
		{"missing prefix", func(c *Config) { c.Endpoint.MetadataPrefix = "" }, false},
		{"zero timeout", func(c *Config) { c.Endpoint.RequestTimeout = 0 }, false},
		{"zero workers", func(c *Config) { c.Harvest.Workers = 0 }, false},
		{"too many workers", func(c *Config) { c.Harvest.Workers = 64 }, false},
		{"negative retries", func(c *Config) { c.Harvest.MaxRetries = -1 }, false},
		{"zero retries ok", func(c *Config) { c.Harvest.MaxRetries = 0 }, true},
		{"missing save dir", func(c *Config) { c.Output.SaveDir = "" }, false},
		{"zero rate limit", func(c *Config) { c.RateLimit.RequestsPerMinute = 0 }, false},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, false},
		{"upper case log level", func(c *Config) { c.Logging.Level = "DEBUG" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"endpoint":        "https://oai.example.org/oai",
		"workers":         16,
		"sets":            []string{"abc123"},
		"include-subsets": true,
		"rate-limit":      60,
	})

	assert.Equal(t, "https://oai.example.org/oai", cfg.Endpoint.BaseURL)
	assert.Equal(t, 16, cfg.Harvest.Workers)
	assert.Equal(t, []string{"abc123"}, cfg.Harvest.Sets)
	assert.True(t, cfg.Harvest.IncludeSubsets)
	assert.Equal(t, 60, cfg.RateLimit.RequestsPerMinute)

	// Zero values never override
	cfg.MergeCommandLineFlags(map[string]interface{}{"workers": 0, "endpoint": ""})
	assert.Equal(t, 16, cfg.Harvest.Workers)
	assert.Equal(t, "https://oai.example.org/oai", cfg.Endpoint.BaseURL)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("harvest:\n  workers: 2\n  max_retries: 5\n"), 0644))

	t.Setenv("DDBHARVEST_WORKERS", "4")

	cfg, err := Load(path, map[string]interface{}{"max-retries": 1})
	require.NoError(t, err)

	// Env beats file, flag beats both
	assert.Equal(t, 4, cfg.Harvest.Workers)
	assert.Equal(t, 1, cfg.Harvest.MaxRetries)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Harvest.Sets = []string{"abc123"}
	require.NoError(t, cfg.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, cfg.Harvest.Sets, loaded.Harvest.Sets)
	assert.Equal(t, cfg.Endpoint.BaseURL, loaded.Endpoint.BaseURL)
}
