package config

// RuleWeightsConfig holds the configured contribution of each detection rule.
type RuleWeightsConfig struct {
	SPFFail             float64
	DKIMFail            float64
	DMARCFail           float64
	DomainMismatch      float64
	ThreadSpoof         float64
	ThreatMatch         float64
	DangerousAttachment float64
	SuspiciousURLs      float64
	IPLiteralURL        float64
	URLShortener        float64
}

// RulesConfig holds the rules-engine configuration.
type RulesConfig struct {
	Weights             RuleWeightsConfig
	DangerousExtensions []string
	SuspiciousURLLimit  int
}

// URLConfig holds the URL-analyzer tuning.
type URLConfig struct {
	LongHostLength     int
	HyphenCount        int
	SubdomainDepth     int
	SuspicionThreshold float64
	WeightLongHost     float64
	WeightHyphens      float64
	WeightDepth        float64
	WeightKeywords     float64
	WeightPunycode     float64
	Shorteners         []string
}

// FusionConfig holds the score-fusion parameters.
type FusionConfig struct {
	MLWeight      float64
	ThresholdLow  float64
	ThresholdHigh float64
}

// IntelConfig holds the threat-intelligence store configuration.
type IntelConfig struct {
	Store      string
	SQLitePath string
	MySQLDSN   string
}

// ClassifierConfig holds the ML collaborator configuration.
type ClassifierConfig struct {
	Enabled  bool
	Endpoint string
}

// TranslatorConfig holds the translation collaborator configuration.
type TranslatorConfig struct {
	Provider    string
	MaxBodySize int
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
}

// GetRules returns the rules-engine configuration.
func (c *Config) GetRules() RulesConfig {
	return RulesConfig{
		Weights: RuleWeightsConfig{
			SPFFail:             c.GetFloat64("rules.weights.spf_fail"),
			DKIMFail:            c.GetFloat64("rules.weights.dkim_fail"),
			DMARCFail:           c.GetFloat64("rules.weights.dmarc_fail"),
			DomainMismatch:      c.GetFloat64("rules.weights.domain_mismatch"),
			ThreadSpoof:         c.GetFloat64("rules.weights.thread_spoof"),
			ThreatMatch:         c.GetFloat64("rules.weights.threat_match"),
			DangerousAttachment: c.GetFloat64("rules.weights.dangerous_attachment"),
			SuspiciousURLs:      c.GetFloat64("rules.weights.suspicious_url_count"),
			IPLiteralURL:        c.GetFloat64("rules.weights.ip_literal_url"),
			URLShortener:        c.GetFloat64("rules.weights.url_shortener"),
		},
		DangerousExtensions: c.GetStringSlice("rules.dangerous_extensions"),
		SuspiciousURLLimit:  c.GetInt("rules.suspicious_url_limit"),
	}
}

// GetURLs returns the URL-analyzer tuning.
func (c *Config) GetURLs() URLConfig {
	return URLConfig{
		LongHostLength:     c.GetInt("urls.long_host_length"),
		HyphenCount:        c.GetInt("urls.hyphen_count"),
		SubdomainDepth:     c.GetInt("urls.subdomain_depth"),
		SuspicionThreshold: c.GetFloat64("urls.suspicion_threshold"),
		WeightLongHost:     c.GetFloat64("urls.weights.long_host"),
		WeightHyphens:      c.GetFloat64("urls.weights.hyphens"),
		WeightDepth:        c.GetFloat64("urls.weights.depth"),
		WeightKeywords:     c.GetFloat64("urls.weights.keywords"),
		WeightPunycode:     c.GetFloat64("urls.weights.punycode"),
		Shorteners:         c.GetStringSlice("urls.shorteners"),
	}
}

// GetFusion returns the score-fusion parameters.
func (c *Config) GetFusion() FusionConfig {
	return FusionConfig{
		MLWeight:      c.GetFloat64("fusion.ml_weight"),
		ThresholdLow:  c.GetFloat64("fusion.threshold_low"),
		ThresholdHigh: c.GetFloat64("fusion.threshold_high"),
	}
}

// GetIntel returns the threat-intelligence store configuration.
func (c *Config) GetIntel() IntelConfig {
	return IntelConfig{
		Store:      c.GetString("intel.store"),
		SQLitePath: c.GetString("intel.sqlite_path"),
		MySQLDSN:   c.GetString("intel.mysql_dsn"),
	}
}

// GetClassifier returns the ML collaborator configuration.
func (c *Config) GetClassifier() ClassifierConfig {
	return ClassifierConfig{
		Enabled:  c.GetBool("classifier.enabled"),
		Endpoint: c.GetString("classifier.endpoint"),
	}
}

// GetTranslator returns the translation collaborator configuration.
func (c *Config) GetTranslator() TranslatorConfig {
	return TranslatorConfig{
		Provider:    c.GetString("translator.provider"),
		MaxBodySize: c.GetInt("translator.max_body_size"),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
	}
}
