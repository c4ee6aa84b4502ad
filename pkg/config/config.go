package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/killallgit/wavepng/internal/waveform"
	apperrors "github.com/killallgit/wavepng/pkg/errors"
)

// DefaultConfigFile is read when no other file is given
const DefaultConfigFile = "./config/settings.yaml"

const envPrefix = "WAVEPNG"

var (
	mu          sync.Mutex
	initialized bool
)

// Init loads the configuration once. Later calls are no-ops that return nil.
func Init() error {
	return InitWithFile("")
}

// InitWithFile loads the configuration from configFile, or from
// DefaultConfigFile when configFile is empty, unless it is already loaded.
func InitWithFile(configFile string) error {
	mu.Lock()
	defer mu.Unlock()

	if initialized {
		return nil
	}
	if err := load(configFile); err != nil {
		return err
	}
	initialized = true
	return nil
}

// IsInitialized reports whether Init has loaded the configuration
func IsInitialized() bool {
	mu.Lock()
	defer mu.Unlock()
	return initialized
}

// Reset clears all configuration so it can be loaded again
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	viper.Reset()
	initialized = false
}

func load(configFile string) error {
	setDefaults()

	// WAVEPNG_RENDER_WIDTH overrides render.width
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	explicit := configFile != ""
	if !explicit {
		configFile = DefaultConfigFile
	}
	configFile = filepath.Clean(configFile)
	viper.SetConfigFile(configFile)

	if err := viper.ReadInConfig(); err != nil {
		// the default file is optional, an explicitly named one is not
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
	}

	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	return cfg.Validate()
}

// GetConfig returns the current configuration as a struct
func GetConfig() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// ConfigFileUsed returns the config file that was read, if any
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}

// Get returns a config value by key using Viper directly
func Get(key string) any {
	return viper.Get(key)
}

// GetString returns a string config value
func GetString(key string) string {
	return viper.GetString(key)
}

// GetInt returns an int config value
func GetInt(key string) int {
	return viper.GetInt(key)
}

// GetBool returns a bool config value
func GetBool(key string) bool {
	return viper.GetBool(key)
}

// GetDuration returns a time.Duration config value
func GetDuration(key string) time.Duration {
	return viper.GetDuration(key)
}

// Validate checks the configuration for values the program cannot run with
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return apperrors.ConfigError("server.port", fmt.Sprintf("invalid server port: %d", c.Server.Port))
	}

	if c.Render.Width <= 0 || c.Render.Width > waveform.MaxDimension {
		return apperrors.ConfigError("render.width",
			fmt.Sprintf("must be between 1 and %d, got %d", waveform.MaxDimension, c.Render.Width))
	}
	if c.Render.Height <= 0 || c.Render.Height > waveform.MaxDimension {
		return apperrors.ConfigError("render.height",
			fmt.Sprintf("must be between 1 and %d, got %d", waveform.MaxDimension, c.Render.Height))
	}
	if _, err := waveform.ParseColor(c.Render.Background); err != nil {
		return apperrors.ConfigError("render.background", err.Error())
	}
	if _, err := waveform.ParseColor(c.Render.Foreground); err != nil {
		return apperrors.ConfigError("render.foreground", err.Error())
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return apperrors.ConfigError("logging.level", fmt.Sprintf("unknown level %q", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return apperrors.ConfigError("logging.format", fmt.Sprintf("unknown format %q", c.Logging.Format))
	}

	if c.RateLimiting.Enabled && c.RateLimiting.RequestsPerMinute <= 0 {
		return apperrors.ConfigError("rate_limiting.requests_per_minute", "must be positive when rate limiting is enabled")
	}
	if c.ResponseCache.Enabled && c.ResponseCache.TTL <= 0 {
		return apperrors.ConfigError("response_cache.ttl", "must be positive when the response cache is enabled")
	}

	if c.RateLimiting.Burst <= 0 {
		c.RateLimiting.Burst = 1
	}

	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Render defaults
	viper.SetDefault("render.width", 1920)
	viper.SetDefault("render.height", 300)
	viper.SetDefault("render.background", "00000000")
	viper.SetDefault("render.foreground", "FFFFFFFF")
	viper.SetDefault("render.cache", false)

	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 60*time.Second)
	viper.SetDefault("server.shutdown_timeout", 10*time.Second)
	viper.SetDefault("server.max_header_bytes", 1048576)
	viper.SetDefault("server.media_root", ".")

	// Database defaults
	viper.SetDefault("database.path", "./data/envelopes.db")
	viper.SetDefault("database.verbose", false)

	// Rate limiting defaults
	viper.SetDefault("rate_limiting.enabled", true)
	viper.SetDefault("rate_limiting.requests_per_minute", 120)
	viper.SetDefault("rate_limiting.burst", 10)

	// Response cache defaults
	viper.SetDefault("response_cache.enabled", false)
	viper.SetDefault("response_cache.ttl", 5*time.Minute)
	viper.SetDefault("response_cache.max_size_mb", 64)

	// Security defaults
	viper.SetDefault("security.enable_cors", true)
	viper.SetDefault("security.cors_origins", []string{"*"})
	viper.SetDefault("security.cors_methods", []string{"GET", "OPTIONS"})
	viper.SetDefault("security.cors_headers", []string{"Content-Type", "X-Request-ID"})
	viper.SetDefault("security.enable_request_id", true)

	// Logging defaults
	viper.SetDefault("logging.level", "warn")
	viper.SetDefault("logging.format", "text")
}
