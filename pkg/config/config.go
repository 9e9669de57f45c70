package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the harvester
type Config struct {
	// OAI-PMH endpoint settings
	Endpoint EndpointConfig `yaml:"endpoint" json:"endpoint"`

	// Harvest behaviour
	Harvest HarvestConfig `yaml:"harvest" json:"harvest"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// EndpointConfig holds settings for the remote OAI-PMH repository
type EndpointConfig struct {
	BaseURL        string        `yaml:"base_url" json:"base_url"`
	MetadataPrefix string        `yaml:"metadata_prefix" json:"metadata_prefix"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// HarvestConfig holds harvest-specific configuration
type HarvestConfig struct {
	Workers        int      `yaml:"workers" json:"workers"`
	MaxRetries     int      `yaml:"max_retries" json:"max_retries"`
	Sets           []string `yaml:"sets" json:"sets"`
	IncludeSubsets bool     `yaml:"include_subsets" json:"include_subsets"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	SaveDir           string `yaml:"save_dir" json:"save_dir"`
	OverwriteExisting bool   `yaml:"overwrite_existing" json:"overwrite_existing"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults.
// The endpoint defaults target the Deutsche Digitale Bibliothek repository.
func DefaultConfig() *Config {
	return &Config{
		Endpoint: EndpointConfig{
			BaseURL:        "https://oai.deutsche-digitale-bibliothek.de/oai",
			MetadataPrefix: "ddb",
			UserAgent:      "ddb-harvester/1.0 (https://github.com/twphl/ddb-harvester)",
			RequestTimeout: 100 * time.Second,
		},
		Harvest: HarvestConfig{
			Workers:        8,
			MaxRetries:     10,
			Sets:           nil,
			IncludeSubsets: false,
		},
		Output: OutputConfig{
			SaveDir:           "./harvest",
			OverwriteExisting: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 120,
			BurstSize:         10,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if baseURL := os.Getenv("DDBHARVEST_ENDPOINT"); baseURL != "" {
		c.Endpoint.BaseURL = baseURL
	}
	if prefix := os.Getenv("DDBHARVEST_METADATA_PREFIX"); prefix != "" {
		c.Endpoint.MetadataPrefix = prefix
	}
	if userAgent := os.Getenv("DDBHARVEST_USER_AGENT"); userAgent != "" {
		c.Endpoint.UserAgent = userAgent
	}

	if saveDir := os.Getenv("DDBHARVEST_SAVE_DIR"); saveDir != "" {
		c.Output.SaveDir = saveDir
	}

	if workers := os.Getenv("DDBHARVEST_WORKERS"); workers != "" {
		var val int
		fmt.Sscanf(workers, "%d", &val)
		if val > 0 {
			c.Harvest.Workers = val
		}
	}
	if retries := os.Getenv("DDBHARVEST_MAX_RETRIES"); retries != "" {
		var val int
		fmt.Sscanf(retries, "%d", &val)
		if val > 0 {
			c.Harvest.MaxRetries = val
		}
	}

	if rpm := os.Getenv("DDBHARVEST_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}

	if logLevel := os.Getenv("DDBHARVEST_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".ddbharvest.yaml",
		".ddbharvest.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "ddbharvest", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "ddbharvest", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".ddbharvest.yaml"),
		filepath.Join(os.Getenv("HOME"), ".ddbharvest.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	// Validate endpoint settings
	if c.Endpoint.BaseURL == "" {
		errs = append(errs, errors.New("endpoint base URL is required"))
	}
	if !strings.HasPrefix(c.Endpoint.BaseURL, "http://") && !strings.HasPrefix(c.Endpoint.BaseURL, "https://") {
		errs = append(errs, errors.New("endpoint base URL must be an http(s) URL"))
	}
	if c.Endpoint.MetadataPrefix == "" {
		errs = append(errs, errors.New("metadata prefix is required"))
	}
	if c.Endpoint.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	// Validate harvest settings
	if c.Harvest.Workers <= 0 {
		errs = append(errs, errors.New("worker count must be positive"))
	}
	if c.Harvest.Workers > 32 {
		errs = append(errs, errors.New("worker count should not exceed 32"))
	}
	if c.Harvest.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}

	// Validate output settings
	if c.Output.SaveDir == "" {
		errs = append(errs, errors.New("save directory is required"))
	}

	// Validate rate limiting
	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}

	// Validate logging
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if baseURL, ok := flags["endpoint"].(string); ok && baseURL != "" {
		c.Endpoint.BaseURL = baseURL
	}
	if prefix, ok := flags["metadata-prefix"].(string); ok && prefix != "" {
		c.Endpoint.MetadataPrefix = prefix
	}
	if saveDir, ok := flags["save-dir"].(string); ok && saveDir != "" {
		c.Output.SaveDir = saveDir
	}
	if workers, ok := flags["workers"].(int); ok && workers > 0 {
		c.Harvest.Workers = workers
	}
	if retries, ok := flags["max-retries"].(int); ok && retries >= 0 {
		c.Harvest.MaxRetries = retries
	}
	if sets, ok := flags["sets"].([]string); ok && len(sets) > 0 {
		c.Harvest.Sets = sets
	}
	if subsets, ok := flags["include-subsets"].(bool); ok {
		c.Harvest.IncludeSubsets = subsets
	}
	if rpm, ok := flags["rate-limit"].(int); ok && rpm > 0 {
		c.RateLimit.RequestsPerMinute = rpm
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".ddbharvest.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
