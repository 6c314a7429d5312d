package provider

import (
	"context"
	"fmt"
	"log/slog"
)

// New builds the gateway for cfg.Kind. An unknown kind or a missing API key
// yields an unconfigured gateway rather than an error, so callers can still
// start and report the misconfiguration per request.
func New(ctx context.Context, log *slog.Logger, cfg Config) (*Gateway, error) {
	if log == nil {
		log = slog.Default()
	}
	if !cfg.Kind.Valid() || cfg.APIKey == "" {
		log.Warn("provider not configured", "provider", cfg.Kind, "hasAPIKey", cfg.APIKey != "")
		return NewGateway(log, cfg.Kind, nil, cfg.Timeout), nil
	}

	client, err := newClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info("provider configured", "provider", cfg.Kind, "model", cfg.Model)
	return NewGateway(log, cfg.Kind, client, cfg.Timeout), nil
}

func newClient(ctx context.Context, cfg Config) (Client, error) {
	switch cfg.Kind {
	case KindGemini:
		return NewGeminiClient(ctx, cfg)
	case KindOpenAI:
		return NewOpenAIClient(cfg)
	case KindAnthropic:
		return NewAnthropicClient(cfg)
	}
	return nil, fmt.Errorf("%w: %q", ErrProviderNotConfigured, cfg.Kind)
}
