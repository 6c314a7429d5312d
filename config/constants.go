package config

import (
	"time"

	"github.com/Kushaagra05/First-Chatbot/pkg/provider"
)

const (
	// Provider selectors accepted in API_PROVIDER.
	ProviderGemini    = string(provider.KindGemini)
	ProviderOpenAI    = string(provider.KindOpenAI)
	ProviderAnthropic = string(provider.KindAnthropic)

	// Default models per provider.
	DefaultGeminiModel    = provider.DefaultGeminiModel
	DefaultOpenAIModel    = provider.DefaultOpenAIModel
	DefaultAnthropicModel = provider.DefaultAnthropicModel

	DefaultPort            = "3001"
	DefaultProviderTimeout = 60 * time.Second
	DefaultAllowedOrigin   = "*"
)

// Environment variable names.
const (
	EnvAPIProvider        = "API_PROVIDER"
	EnvPort               = "PORT"
	EnvProviderTimeout    = "PROVIDER_TIMEOUT"
	EnvCORSAllowedOrigins = "CORS_ALLOWED_ORIGINS"

	EnvGeminiAPIKey  = "GEMINI_API_KEY"
	EnvGeminiModel   = "GEMINI_MODEL"
	EnvGeminiBaseURL = "GEMINI_BASE_URL"

	EnvOpenAIAPIKey  = "OPENAI_API_KEY"
	EnvOpenAIModel   = "OPENAI_MODEL"
	EnvOpenAIBaseURL = "OPENAI_BASE_URL"

	EnvAnthropicAPIKey  = "ANTHROPIC_API_KEY"
	EnvAnthropicModel   = "ANTHROPIC_MODEL"
	EnvAnthropicBaseURL = "ANTHROPIC_BASE_URL"
)
