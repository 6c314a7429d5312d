package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

const (
	probePrompt       = "Say hello"
	probeResponseMax  = 60
	probeStatusOK     = "OK"
	probeStatusFailed = "FAILED"
)

type ProbeCmd struct{}

func NewProbeCmd() *ProbeCmd {
	return &ProbeCmd{}
}

type probeResult struct {
	model    string
	status   string
	duration time.Duration
	detail   string
}

func (c *ProbeCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Check connectivity to the configured provider",
		Long: "Sends a short prompt to the configured provider and reports the result. " +
			"Pass --model several times to try a list of models, and --list to first print " +
			"the models available to the configured credentials.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			models, err := cmd.Flags().GetStringSlice("model")
			if err != nil {
				return fmt.Errorf("failed to get model flag: %w", err)
			}
			list, err := cmd.Flags().GetBool("list")
			if err != nil {
				return fmt.Errorf("failed to get list flag: %w", err)
			}

			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			if _, ok := e.cfg.Active(); !ok {
				return fmt.Errorf("no API provider configured (API_PROVIDER=%q)", e.cfg.Provider)
			}
			if len(models) == 0 {
				models = []string{""}
			}

			ctx := cmd.Context()
			if list {
				if err := c.listModels(ctx, e, cmd.OutOrStdout()); err != nil {
					return err
				}
			}

			results := make([]probeResult, 0, len(models))
			for _, model := range models {
				results = append(results, c.probe(ctx, e, model))
			}

			printProbeResults(cmd.OutOrStdout(), e.cfg.Provider, results)

			var failed int
			for _, r := range results {
				if r.status != probeStatusOK {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d probes failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringSlice("model", nil, "model to probe instead of the configured one; repeatable")
	cmd.Flags().Bool("list", false, "list the available models before probing")

	return cmd
}

func (c *ProbeCmd) probe(ctx context.Context, e *env, model string) probeResult {
	label := model
	if label == "" {
		settings, _ := e.cfg.Active()
		label = settings.Model
	}

	gw, err := e.newGateway(ctx, model)
	if err != nil {
		return probeResult{model: label, status: probeStatusFailed, detail: err.Error()}
	}

	start := time.Now()
	reply, err := gw.Complete(ctx, probePrompt)
	duration := time.Since(start)
	if err != nil {
		e.log.Debug("probe failed", "model", label, "error", err)
		return probeResult{model: label, status: probeStatusFailed, duration: duration, detail: err.Error()}
	}
	return probeResult{model: label, status: probeStatusOK, duration: duration, detail: reply}
}

func (c *ProbeCmd) listModels(ctx context.Context, e *env, w io.Writer) error {
	gw, err := e.newGateway(ctx, "")
	if err != nil {
		return err
	}
	models, err := gw.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetHeader([]string{"Provider", "Available Model"})
	for _, m := range models {
		table.Append([]string{e.cfg.Provider, m})
	}
	table.Render()
	return nil
}

func printProbeResults(w io.Writer, provider string, results []probeResult) {
	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetHeader([]string{"Provider", "Model", "Status", "Duration", "Response"})

	for _, r := range results {
		table.Append([]string{
			provider,
			r.model,
			r.status,
			r.duration.Round(time.Millisecond).String(),
			truncate(r.detail, probeResponseMax),
		})
	}
	table.Render()
}

func truncate(s string, n int) string {
	r := []rune(strings.Join(strings.Fields(s), " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-3]) + "..."
}
