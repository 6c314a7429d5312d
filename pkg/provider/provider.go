// Package provider sends prompts to the configured generative-text provider
// and returns the textual completion. Exactly one provider is active per
// process; it is selected at startup and never switched at runtime.
package provider

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Kind identifies a supported provider.
type Kind string

const (
	KindGemini    Kind = "gemini"
	KindOpenAI    Kind = "openai"
	KindAnthropic Kind = "anthropic"
)

// Default models per provider, used when no model is configured.
const (
	DefaultGeminiModel    = "gemini-1.5-flash-latest"
	DefaultOpenAIModel    = "gpt-3.5-turbo"
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
)

// Kinds lists every supported provider.
var Kinds = []Kind{KindGemini, KindOpenAI, KindAnthropic}

// Valid reports whether k names a supported provider.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Role is the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message of a conversation.
type Turn struct {
	Role    Role
	Content string
}

var (
	// ErrProviderNotConfigured is returned when no provider matches the
	// configured selector or its credentials are missing.
	ErrProviderNotConfigured = errors.New("provider not configured")

	// ErrProviderRequestFailed matches every *RequestError.
	ErrProviderRequestFailed = errors.New("provider request failed")

	ErrEmptyPrompt = errors.New("prompt is required")
)

// RequestError reports a failed call to the provider API. It is never
// retried by the gateway.
type RequestError struct {
	Provider Kind
	Err      error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s request failed: %v", e.Provider, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

func (e *RequestError) Is(target error) bool { return target == ErrProviderRequestFailed }

// Client is implemented once per provider and hides the provider-specific
// request and response shapes. turns is never empty and its last element is
// the user message to answer.
type Client interface {
	Generate(ctx context.Context, turns []Turn) (string, error)

	// ListModels returns the identifiers of the models the credentials can
	// use, in the form accepted as Config.Model.
	ListModels(ctx context.Context) ([]string, error)
}

// Config selects and configures the provider.
type Config struct {
	Kind    Kind
	APIKey  string
	Model   string
	BaseURL string

	// Timeout bounds every provider call. Zero uses the default.
	Timeout time.Duration
}
