package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance
func New() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/phishing-filter/")
	v.AddConfigPath("$HOME/.phishing-filter")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix("PHISHING_FILTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.listen_address", "0.0.0.0:8080")

	// Analysis defaults
	v.SetDefault("analysis.message_deadline", "5s")
	v.SetDefault("analysis.collaborator_timeout", "2s")
	v.SetDefault("analysis.lookup_workers", 4)

	// Rule weight defaults, carried over from the offline calibration
	v.SetDefault("rules.weights.spf_fail", 15.0)
	v.SetDefault("rules.weights.dkim_fail", 15.0)
	v.SetDefault("rules.weights.dmarc_fail", 10.0)
	v.SetDefault("rules.weights.domain_mismatch", 20.0)
	v.SetDefault("rules.weights.thread_spoof", 10.0)
	v.SetDefault("rules.weights.threat_match", 25.0)
	v.SetDefault("rules.weights.dangerous_attachment", 20.0)
	v.SetDefault("rules.weights.suspicious_url_count", 15.0)
	v.SetDefault("rules.weights.ip_literal_url", 15.0)
	v.SetDefault("rules.weights.url_shortener", 10.0)
	v.SetDefault("rules.dangerous_extensions", []string{
		".exe", ".scr", ".bat", ".cmd", ".com", ".pif", ".js", ".jse",
		".vbs", ".vbe", ".wsf", ".hta", ".msi", ".jar", ".lnk",
	})
	v.SetDefault("rules.suspicious_url_limit", 0)

	// URL heuristic defaults
	v.SetDefault("urls.long_host_length", 30)
	v.SetDefault("urls.hyphen_count", 2)
	v.SetDefault("urls.subdomain_depth", 3)
	v.SetDefault("urls.suspicion_threshold", 0.5)
	v.SetDefault("urls.weights.long_host", 0.2)
	v.SetDefault("urls.weights.hyphens", 0.15)
	v.SetDefault("urls.weights.depth", 0.15)
	v.SetDefault("urls.weights.keywords", 0.25)
	v.SetDefault("urls.weights.punycode", 0.25)
	v.SetDefault("urls.shorteners", []string{
		"bit.ly", "tinyurl.com", "goo.gl", "t.co", "ow.ly",
		"cutt.ly", "rb.gy", "j.mp", "tiny.cc", "short.link",
		"is.gd", "buff.ly", "rebrand.ly", "bitly.com",
	})

	// Score fusion defaults
	v.SetDefault("fusion.ml_weight", 0.7)
	v.SetDefault("fusion.threshold_low", 0.3)
	v.SetDefault("fusion.threshold_high", 0.5)

	// Threat intelligence store defaults
	v.SetDefault("intel.store", "memory")
	v.SetDefault("intel.sqlite_path", "/data/indicators.db")
	v.SetDefault("intel.mysql_dsn", "user:password@tcp(localhost:3306)/phishing_filter")

	// Classifier collaborator defaults
	v.SetDefault("classifier.enabled", true)
	v.SetDefault("classifier.endpoint", "http://localhost:9090/classify")
	v.SetDefault("classifier.timeout", "2s")

	// Translator collaborator defaults
	v.SetDefault("translator.provider", "none")
	v.SetDefault("translator.max_body_size", 4096)

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-v2")
	v.SetDefault("bedrock.max_tokens", 1000)
	v.SetDefault("bedrock.temperature", 0.1)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-pro")
	v.SetDefault("gemini.max_tokens", 1000)
	v.SetDefault("gemini.temperature", 0.1)

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.model_name", "gpt-4")
	v.SetDefault("openai.max_tokens", 1000)
	v.SetDefault("openai.temperature", 0.1)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}
