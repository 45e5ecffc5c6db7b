package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the bill fetcher
type Config struct {
	// Portal credentials and endpoints
	Portal PortalConfig `yaml:"portal" json:"portal"`

	// Proxy settings applied to both the browser and the billing API client
	Proxy ProxyConfig `yaml:"proxy" json:"proxy"`

	// Retry policy for login and download operations
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Browser automation settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// PortalConfig holds portal-specific configuration
type PortalConfig struct {
	Username   string `yaml:"username" json:"username"`
	Password   string `yaml:"password" json:"password"`
	BaseURL    string `yaml:"base_url" json:"base_url"`
	APIBaseURL string `yaml:"api_base_url" json:"api_base_url"`
	UserAgent  string `yaml:"user_agent" json:"user_agent"`
}

// ProxyConfig holds optional proxy configuration
type ProxyConfig struct {
	Server   string `yaml:"server" json:"server"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Enabled reports whether a proxy server is configured
func (p *ProxyConfig) Enabled() bool {
	return p.Server != ""
}

// URL builds the proxy URL with embedded credentials when present
func (p *ProxyConfig) URL() string {
	if p.Server == "" {
		return ""
	}
	server := p.Server
	if !strings.Contains(server, "://") {
		server = "http://" + server
	}
	u, err := url.Parse(server)
	if err != nil {
		return server
	}
	if p.Username != "" {
		if p.Password != "" {
			u.User = url.UserPassword(p.Username, p.Password)
		} else {
			u.User = url.User(p.Username)
		}
	}
	return u.String()
}

// RetryConfig holds the retry budget and backoff parameters.
// These are configurable rather than hard-coded so the rate-limit
// recovery behavior can be tuned per deployment.
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay    time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier   float64       `yaml:"multiplier" json:"multiplier"`
	JitterFactor float64       `yaml:"jitter_factor" json:"jitter_factor"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute      int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	LoginAttemptsPerWindow int           `yaml:"login_attempts_per_window" json:"login_attempts_per_window"`
	LoginWindow            time.Duration `yaml:"login_window" json:"login_window"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	Directory         string `yaml:"directory" json:"directory"`
	OverwriteExisting bool   `yaml:"overwrite_existing" json:"overwrite_existing"`
}

// BrowserConfig holds browser automation settings
type BrowserConfig struct {
	Headless          bool          `yaml:"headless" json:"headless"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
	StepDelay         time.Duration `yaml:"step_delay" json:"step_delay"`
	ExecPath          string        `yaml:"exec_path" json:"exec_path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Portal: PortalConfig{
			BaseURL:    "https://business.comcast.com",
			APIBaseURL: "https://business-self-service-prod.codebig2.net",
			UserAgent:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			BaseDelay:    2 * time.Second,
			MaxDelay:     60 * time.Second,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute:      30,
			LoginAttemptsPerWindow: 3,
			LoginWindow:            5 * time.Minute,
		},
		Output: OutputConfig{
			Directory:         "bills",
			OverwriteExisting: false,
		},
		Browser: BrowserConfig{
			Headless:          true,
			NavigationTimeout: 30 * time.Second,
			StepDelay:         500 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	// Portal credentials
	if username := os.Getenv("COMCAST_USERNAME"); username != "" {
		c.Portal.Username = username
	}
	if password := os.Getenv("COMCAST_PASSWORD"); password != "" {
		c.Portal.Password = password
	}

	// Proxy settings
	if server := os.Getenv("PROXY_SERVER"); server != "" {
		c.Proxy.Server = server
	}
	if username := os.Getenv("PROXY_USERNAME"); username != "" {
		c.Proxy.Username = username
	}
	if password := os.Getenv("PROXY_PASSWORD"); password != "" {
		c.Proxy.Password = password
	}

	// Output directory
	if outputDir := os.Getenv("COMCASTBOT_OUTPUT_DIR"); outputDir != "" {
		c.Output.Directory = outputDir
	}

	// Retry budget
	if maxAttempts := os.Getenv("COMCASTBOT_MAX_ATTEMPTS"); maxAttempts != "" {
		if val, err := strconv.Atoi(maxAttempts); err == nil && val > 0 {
			c.Retry.MaxAttempts = val
		}
	}
	if retryDelay := os.Getenv("COMCASTBOT_RETRY_DELAY"); retryDelay != "" {
		if val, err := time.ParseDuration(retryDelay); err == nil && val > 0 {
			c.Retry.BaseDelay = val
		}
	}

	// Browser mode
	if headless := os.Getenv("COMCASTBOT_HEADLESS"); headless != "" {
		c.Browser.Headless = strings.ToLower(headless) != "false"
	}

	// Logging level
	if logLevel := os.Getenv("COMCASTBOT_LOG_LEVEL"); logLevel != "" {
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
		".comcastbot.yaml",
		".comcastbot.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "comcastbot", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "comcastbot", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".comcastbot.yaml"),
		filepath.Join(os.Getenv("HOME"), ".comcastbot.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. The credential check
// runs before any browser or network action is attempted.
func (c *Config) Validate() error {
	var errs []error

	// Validate portal credentials
	if c.Portal.Username == "" {
		errs = append(errs, errors.New("portal username is required (set COMCAST_USERNAME or use a config file)"))
	}
	if c.Portal.Password == "" {
		errs = append(errs, errors.New("portal password is required (set COMCAST_PASSWORD or use a config file)"))
	}
	if c.Portal.BaseURL == "" {
		errs = append(errs, errors.New("portal base URL is required"))
	}
	if c.Portal.APIBaseURL == "" {
		errs = append(errs, errors.New("portal API base URL is required"))
	}

	// Validate retry policy
	if c.Retry.MaxAttempts < 1 {
		errs = append(errs, errors.New("max attempts must be at least 1"))
	}
	if c.Retry.BaseDelay <= 0 {
		errs = append(errs, errors.New("retry base delay must be positive"))
	}
	if c.Retry.Multiplier < 1.0 {
		errs = append(errs, errors.New("retry multiplier must be at least 1.0"))
	}

	// Validate rate limiting
	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.LoginAttemptsPerWindow <= 0 {
		errs = append(errs, errors.New("login attempts per window must be positive"))
	}

	// Validate output settings
	if c.Output.Directory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}

	// Validate browser settings
	if c.Browser.NavigationTimeout <= 0 {
		errs = append(errs, errors.New("navigation timeout must be positive"))
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

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if username, ok := flags["username"].(string); ok && username != "" {
		c.Portal.Username = username
	}
	if password, ok := flags["password"].(string); ok && password != "" {
		c.Portal.Password = password
	}
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.Directory = outputDir
	}
	if maxAttempts, ok := flags["max-attempts"].(int); ok && maxAttempts > 0 {
		c.Retry.MaxAttempts = maxAttempts
	}
	if retryDelay, ok := flags["retry-delay"].(time.Duration); ok && retryDelay > 0 {
		c.Retry.BaseDelay = retryDelay
	}
	if overwrite, ok := flags["overwrite"].(bool); ok {
		c.Output.OverwriteExisting = overwrite
	}
	if headless, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = headless
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
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".comcastbot.env"))

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
