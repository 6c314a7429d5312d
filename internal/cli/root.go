package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Kushaagra05/First-Chatbot/config"
	"github.com/Kushaagra05/First-Chatbot/pkg/provider"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
)

type ExitCode int

const (
	exitCodeSuccess = 0
	exitCodeError   = 1
)

// BuildInfo is stamped into the binary at link time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

func Run(info BuildInfo) ExitCode {
	if err := NewRootCmd(info).Execute(); err != nil {
		return exitCodeError
	}
	return exitCodeSuccess
}

func NewRootCmd(info BuildInfo) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "chatbot",
		Short:         "Chat and research backend for generative-text providers.",
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := cmd.Help()
			if err != nil {
				return fmt.Errorf("failed to show help: %w", err)
			}
			return nil
		},
	}

	var verbose bool
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "set debug logging level")

	var envFile string
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment; a missing file is ignored")

	rootCmd.AddCommand(
		NewServeCmd(info).Command(),
		NewResearchCmd().Command(),
		NewProbeCmd().Command(),
		newVersionCmd(info),
	)

	return rootCmd
}

func newVersionCmd(info BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "version: %s, commit: %s, date: %s\n", info.Version, info.Commit, info.Date)
			return err
		},
	}
}

// env is the startup state shared by every subcommand.
type env struct {
	log *slog.Logger
	cfg *config.Config
}

// loadEnv reads the persistent flags, loads the dotenv file and builds the
// configuration. Logs go to the command's stderr so stdout stays clean for
// command output.
func loadEnv(cmd *cobra.Command) (*env, error) {
	verbose, err := cmd.Root().PersistentFlags().GetBool("verbose")
	if err != nil {
		return nil, fmt.Errorf("failed to get verbose flag: %w", err)
	}
	envFile, err := cmd.Root().PersistentFlags().GetString("env-file")
	if err != nil {
		return nil, fmt.Errorf("failed to get env-file flag: %w", err)
	}

	log := newLogger(cmd.ErrOrStderr(), verbose)

	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &env{log: log, cfg: cfg}, nil
}

// newGateway builds the gateway for the configured provider. A non-empty
// model overrides the configured one.
func (e *env) newGateway(ctx context.Context, model string) (*provider.Gateway, error) {
	settings, _ := e.cfg.Active()
	if model != "" {
		settings.Model = model
	}
	gw, err := provider.New(ctx, e.log, provider.Config{
		Kind:    provider.Kind(e.cfg.Provider),
		APIKey:  settings.APIKey,
		Model:   settings.Model,
		BaseURL: settings.BaseURL,
		Timeout: e.cfg.ProviderTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create provider client: %w", err)
	}
	return gw, nil
}

// providerLabel names the configured provider for log lines.
func (e *env) providerLabel() string {
	if e.cfg.Provider == "" {
		return "not set"
	}
	return e.cfg.Provider
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level: logLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				t := a.Value.Time().UTC()
				a.Value = slog.StringValue(formatRFC3339Millis(t))
			}
			if s, ok := a.Value.Any().(string); ok && s == "" {
				return slog.Attr{}
			}
			return a
		},
	}))
}

func formatRFC3339Millis(t time.Time) string {
	t = t.UTC()
	base := t.Format("2006-01-02T15:04:05")
	ms := t.Nanosecond() / 1_000_000
	return fmt.Sprintf("%s.%03dZ", base, ms)
}
