package server

import (
	"context"
	"errors"
	"time"

	"github.com/Kushaagra05/First-Chatbot/pkg/provider"
	"github.com/Kushaagra05/First-Chatbot/pkg/research"
	"github.com/jonboulle/clockwork"
)

const (
	defaultShutdownTimeout = 10 * time.Second
	defaultMaxBodySize     = 1 << 20 // 1 MiB
	defaultCORSMaxAge      = 300
)

var defaultAllowedOrigins = []string{"*"}

type Gateway interface {
	Chat(ctx context.Context, history []provider.Turn, message string) (string, error)
}

type Researcher interface {
	Run(ctx context.Context, topic string) (*research.PipelineRun, error)
}

type Config struct {
	Gateway    Gateway
	Researcher Researcher

	// Provider is reported by the health, chat and research endpoints
	// exactly as configured, even when empty or unrecognized.
	Provider string

	// Optional configuration.
	Clock           clockwork.Clock
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
	MaxBodySize     int64
}

func (c *Config) Validate() error {
	if c.Gateway == nil {
		return errors.New("gateway is required")
	}
	if c.Researcher == nil {
		return errors.New("researcher is required")
	}

	// Optional configuration.
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = defaultAllowedOrigins
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = defaultShutdownTimeout
	}
	if c.MaxBodySize <= 0 {
		c.MaxBodySize = defaultMaxBodySize
	}
	return nil
}
