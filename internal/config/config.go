package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Log        LogConfig
	Authorize  AuthorizeConfig
	Recvue     RecvueConfig
	HTTPClient HTTPClientConfig
	Tracing    TracingConfig
}

type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type AuthorizeConfig struct {
	// BaseURL of the identity service. Empty means the caller's hostName
	// is used as https://{hostName}.
	BaseURL string
	Timeout time.Duration
}

type RecvueConfig struct {
	TenantURLTemplate string
	Timeout           time.Duration
	MaxRetries        int
	RetryBackoff      time.Duration

	// Static-token bridge; disabled unless both are set.
	APIBaseURL string
	APIToken   string
}

// LegacyBridgeEnabled reports whether the static-token bridge route is served.
func (c RecvueConfig) LegacyBridgeEnabled() bool {
	return c.APIBaseURL != "" && c.APIToken != ""
}

type HTTPClientConfig struct {
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration
}

type TracingConfig struct {
	Enabled     bool
	ServiceName string
	// SampleRatio is the fraction of new root traces recorded; child spans
	// follow their parent's decision.
	SampleRatio float64
	// Pretty indents exported spans.
	Pretty bool
}

const TenantPlaceholder = "{tenant}"

// Load builds the configuration from the environment and, when CONFIG_FILE
// names one, a YAML file whose keys match the environment variable names.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("SERVER_READ_TIMEOUT", "10s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "120s")
	v.SetDefault("SERVER_SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("AUTHORIZE_URL_BASE", "")
	v.SetDefault("AUTHORIZE_TIMEOUT", "15s")
	v.SetDefault("RECVUE_TENANT_URL_TEMPLATE", "https://"+TenantPlaceholder+".recvue.com/api/v2.0/order/orderlines")
	v.SetDefault("TIMEOUT", "30s")
	v.SetDefault("RECVUE_MAX_RETRIES", 2)
	v.SetDefault("RECVUE_RETRY_BACKOFF", "0s")
	v.SetDefault("RECVUE_API_BASE_URL", "")
	v.SetDefault("RECVUE_API_TOKEN", "")
	v.SetDefault("HTTP_MAX_IDLE_CONNS", 100)
	v.SetDefault("HTTP_MAX_IDLE_CONNS_PER_HOST", 10)
	v.SetDefault("HTTP_IDLE_CONN_TIMEOUT", "90s")
	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_SERVICE_NAME", "payloadbridge")
	v.SetDefault("TRACING_SAMPLE_RATIO", 1.0)
	v.SetDefault("TRACING_PRETTY", false)

	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetInt("SERVER_PORT"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Authorize: AuthorizeConfig{
			BaseURL: strings.TrimSuffix(v.GetString("AUTHORIZE_URL_BASE"), "/"),
		},
		Recvue: RecvueConfig{
			TenantURLTemplate: v.GetString("RECVUE_TENANT_URL_TEMPLATE"),
			MaxRetries:        v.GetInt("RECVUE_MAX_RETRIES"),
			APIBaseURL:        strings.TrimSuffix(v.GetString("RECVUE_API_BASE_URL"), "/"),
			APIToken:          v.GetString("RECVUE_API_TOKEN"),
		},
		HTTPClient: HTTPClientConfig{
			MaxIdleConns:        v.GetInt("HTTP_MAX_IDLE_CONNS"),
			MaxIdleConnsPerHost: v.GetInt("HTTP_MAX_IDLE_CONNS_PER_HOST"),
		},
		Tracing: TracingConfig{
			Enabled:     v.GetBool("TRACING_ENABLED"),
			ServiceName: v.GetString("TRACING_SERVICE_NAME"),
			SampleRatio: v.GetFloat64("TRACING_SAMPLE_RATIO"),
			Pretty:      v.GetBool("TRACING_PRETTY"),
		},
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout},
		{"SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout},
		{"SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout},
		{"AUTHORIZE_TIMEOUT", &cfg.Authorize.Timeout},
		{"TIMEOUT", &cfg.Recvue.Timeout},
		{"RECVUE_RETRY_BACKOFF", &cfg.Recvue.RetryBackoff},
		{"HTTP_IDLE_CONN_TIMEOUT", &cfg.HTTPClient.IdleConnTimeout},
	}
	for _, d := range durations {
		parsed, err := parseDuration(v.GetString(d.key))
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", d.key, err)
		}
		*d.dst = parsed
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// parseDuration accepts Go duration strings and bare integers, which are
// read as seconds.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

func (c *Config) validate() error {
	if !strings.Contains(c.Recvue.TenantURLTemplate, TenantPlaceholder) {
		return fmt.Errorf("RECVUE_TENANT_URL_TEMPLATE must contain %s", TenantPlaceholder)
	}
	if c.Recvue.MaxRetries < 0 {
		return fmt.Errorf("RECVUE_MAX_RETRIES must not be negative")
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("TRACING_SAMPLE_RATIO must be between 0 and 1")
	}
	if c.Recvue.Timeout <= 0 || c.Authorize.Timeout <= 0 {
		return fmt.Errorf("TIMEOUT and AUTHORIZE_TIMEOUT must be positive")
	}
	return nil
}
