package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
)

const defaultTimeout = 60 * time.Second

// Gateway is the single entry point for provider calls. It validates input,
// bounds each call with a timeout, and classifies failures. A Gateway without
// a client is unconfigured and fails every call with ErrProviderNotConfigured.
type Gateway struct {
	log     *slog.Logger
	kind    Kind
	client  Client
	timeout time.Duration
}

// NewGateway wraps client. A nil client yields an unconfigured gateway.
func NewGateway(log *slog.Logger, kind Kind, client Client, timeout time.Duration) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Gateway{
		log:     log,
		kind:    kind,
		client:  client,
		timeout: timeout,
	}
}

func (g *Gateway) Kind() Kind { return g.kind }

func (g *Gateway) Configured() bool { return g.client != nil }

// Complete sends a single prompt and returns the completion text unchanged.
func (g *Gateway) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}
	return g.generate(ctx, "complete", []Turn{{Role: RoleUser, Content: prompt}})
}

// Chat answers message in the context of history. history is not modified.
func (g *Gateway) Chat(ctx context.Context, history []Turn, message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", ErrEmptyPrompt
	}
	turns := make([]Turn, 0, len(history)+1)
	turns = append(turns, history...)
	turns = append(turns, Turn{Role: RoleUser, Content: message})
	return g.generate(ctx, "chat", turns)
}

// ListModels returns the sorted model identifiers available to the
// configured credentials.
func (g *Gateway) ListModels(ctx context.Context) ([]string, error) {
	const op = "list_models"
	if g.client == nil {
		CallsTotal.WithLabelValues(string(g.kind), op, "not_configured").Inc()
		return nil, fmt.Errorf("%w: %q", ErrProviderNotConfigured, g.kind)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	models, err := g.client.ListModels(callCtx)
	if err = g.finish(ctx, callCtx, op, start, err); err != nil {
		return nil, err
	}

	slices.Sort(models)
	g.log.Debug("provider models listed", "provider", g.kind, "count", len(models))
	return models, nil
}

func (g *Gateway) generate(ctx context.Context, op string, turns []Turn) (string, error) {
	if g.client == nil {
		CallsTotal.WithLabelValues(string(g.kind), op, "not_configured").Inc()
		return "", fmt.Errorf("%w: %q", ErrProviderNotConfigured, g.kind)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	g.log.Debug("provider call starting", "provider", g.kind, "op", op, "turns", len(turns), "promptLen", len(turns[len(turns)-1].Content))

	text, err := g.client.Generate(callCtx, turns)
	if err = g.finish(ctx, callCtx, op, start, err); err != nil {
		return "", err
	}

	g.log.Debug("provider call completed", "provider", g.kind, "op", op, "responseLen", len(text))
	return text, nil
}

// finish records the outcome of a call and classifies its error. ctx is the
// caller's context and callCtx the one bounded by the gateway timeout.
func (g *Gateway) finish(ctx, callCtx context.Context, op string, start time.Time, err error) error {
	duration := time.Since(start)
	CallDuration.WithLabelValues(string(g.kind), op).Observe(duration.Seconds())

	if err != nil {
		if ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", g.timeout, err)
		}
		CallsTotal.WithLabelValues(string(g.kind), op, "error").Inc()
		g.log.Error("provider call failed", "provider", g.kind, "op", op, "duration", duration, "error", err)
		return &RequestError{Provider: g.kind, Err: err}
	}

	CallsTotal.WithLabelValues(string(g.kind), op, "ok").Inc()
	g.log.Debug("provider call finished", "provider", g.kind, "op", op, "duration", duration)
	return nil
}
