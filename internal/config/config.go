package config

import "time"

// Config holds the application configuration. Values are bound from the
// environment with envconfig; main.go lets flags override the basics.
type Config struct {
	Port        int    `envconfig:"PORT" default:"8080"`
	Host        string `envconfig:"HOST" default:"0.0.0.0"`
	DataDir     string `envconfig:"DATA_DIR" default:"./data"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:""`

	// AnalysisTimeout bounds a single pipeline run. On expiry the
	// orchestrator returns whatever partial result it has.
	AnalysisTimeout time.Duration `envconfig:"ANALYSIS_TIMEOUT" default:"10s"`

	// ProviderRetries is the retry budget for neighborhood data reads.
	ProviderRetries int `envconfig:"PROVIDER_RETRIES" default:"2"`

	// RedisURL enables the analysis result cache when set.
	RedisURL string        `envconfig:"REDIS_URL" default:""`
	CacheTTL time.Duration `envconfig:"CACHE_TTL" default:"5m"`

	Version string `ignored:"true"`
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
