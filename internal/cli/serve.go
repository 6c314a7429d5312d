package cli

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"github.com/Kushaagra05/First-Chatbot/pkg/research"
	"github.com/Kushaagra05/First-Chatbot/pkg/server"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

type ServeCmd struct {
	info BuildInfo
}

func NewServeCmd(info BuildInfo) *ServeCmd {
	return &ServeCmd{info: info}
}

func (c *ServeCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat and research HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			listenAddr, err := cmd.Flags().GetString("listen-addr")
			if err != nil {
				return fmt.Errorf("failed to get listen-addr flag: %w", err)
			}
			metricsAddr, err := cmd.Flags().GetString("metrics-addr")
			if err != nil {
				return fmt.Errorf("failed to get metrics-addr flag: %w", err)
			}

			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if listenAddr == "" {
				listenAddr = ":" + e.cfg.Port
			}
			return c.run(ctx, e, listenAddr, metricsAddr)
		},
	}

	cmd.Flags().String("listen-addr", "", "address for the HTTP API (default \":$PORT\")")
	cmd.Flags().String("metrics-addr", ":2112", "address to listen on for prometheus metrics; empty disables")

	return cmd
}

func (c *ServeCmd) run(ctx context.Context, e *env, listenAddr, metricsAddr string) error {
	log := e.log
	log.Info("starting research chat server", "provider", e.providerLabel(), "version", c.info.Version, "commit", c.info.Commit)

	gw, err := e.newGateway(ctx, "")
	if err != nil {
		return err
	}

	prompts, err := research.LoadPrompts()
	if err != nil {
		return fmt.Errorf("failed to load prompts: %w", err)
	}

	clock := clockwork.NewRealClock()
	pipeline, err := research.New(&research.Config{
		Logger:  log,
		LLM:     gw,
		Prompts: prompts,
		Clock:   clock,
	})
	if err != nil {
		return fmt.Errorf("failed to create research pipeline: %w", err)
	}

	srv, err := server.New(log, server.Config{
		Gateway:        gw,
		Researcher:     pipeline,
		Provider:       e.cfg.Provider,
		Clock:          clock,
		AllowedOrigins: e.cfg.AllowedOrigins,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	defer listener.Close()

	var metricsListener net.Listener
	if metricsAddr != "" {
		server.BuildInfo.WithLabelValues(c.info.Version, c.info.Commit, c.info.Date).Set(1)
		metricsListener, err = net.Listen("tcp", metricsAddr)
		if err != nil {
			return fmt.Errorf("failed to create metrics listener: %w", err)
		}
		defer metricsListener.Close()
	}

	if err := srv.Run(ctx, listener, metricsListener); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	log.Info("server stopped")
	return nil
}
