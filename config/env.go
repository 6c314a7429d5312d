package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	ErrInvalidPort    = fmt.Errorf("invalid port")
	ErrInvalidTimeout = fmt.Errorf("invalid provider timeout")
)

// ProviderSettings holds the credentials and endpoint for one provider.
type ProviderSettings struct {
	APIKey  string
	Model   string
	BaseURL string
}

// Config is the process-wide configuration. It is built once at startup and
// treated as read-only afterwards.
type Config struct {
	// Provider is the API_PROVIDER value exactly as configured, possibly empty
	// or unrecognized.
	Provider        string
	Providers       map[string]ProviderSettings
	Port            string
	ProviderTimeout time.Duration
	AllowedOrigins  []string
}

// Active returns the settings for the selected provider. The second return
// value is false when the selector is unknown or the provider has no API key.
func (c *Config) Active() (ProviderSettings, bool) {
	s, ok := c.Providers[c.Provider]
	if !ok || s.APIKey == "" {
		return ProviderSettings{}, false
	}
	return s, true
}

// LoadEnvFile loads variables from a dotenv file into the process
// environment without overriding variables that are already set. A missing
// file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// FromEnv builds the configuration from environment variables.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Provider: os.Getenv(EnvAPIProvider),
		Providers: map[string]ProviderSettings{
			ProviderGemini: {
				APIKey:  os.Getenv(EnvGeminiAPIKey),
				Model:   envOr(EnvGeminiModel, DefaultGeminiModel),
				BaseURL: os.Getenv(EnvGeminiBaseURL),
			},
			ProviderOpenAI: {
				APIKey:  os.Getenv(EnvOpenAIAPIKey),
				Model:   envOr(EnvOpenAIModel, DefaultOpenAIModel),
				BaseURL: os.Getenv(EnvOpenAIBaseURL),
			},
			ProviderAnthropic: {
				APIKey:  os.Getenv(EnvAnthropicAPIKey),
				Model:   envOr(EnvAnthropicModel, DefaultAnthropicModel),
				BaseURL: os.Getenv(EnvAnthropicBaseURL),
			},
		},
		Port:            envOr(EnvPort, DefaultPort),
		ProviderTimeout: DefaultProviderTimeout,
		AllowedOrigins:  []string{DefaultAllowedOrigin},
	}

	port, err := strconv.Atoi(cfg.Port)
	if err != nil || port <= 0 || port > 65535 {
		return nil, fmt.Errorf("%w %q", ErrInvalidPort, cfg.Port)
	}

	if raw := os.Getenv(EnvProviderTimeout); raw != "" {
		timeout, err := time.ParseDuration(raw)
		if err != nil || timeout <= 0 {
			return nil, fmt.Errorf("%w %q", ErrInvalidTimeout, raw)
		}
		cfg.ProviderTimeout = timeout
	}

	if raw := os.Getenv(EnvCORSAllowedOrigins); raw != "" {
		var origins []string
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) > 0 {
			cfg.AllowedOrigins = origins
		}
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
