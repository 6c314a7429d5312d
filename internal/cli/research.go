package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/Kushaagra05/First-Chatbot/pkg/research"
	"github.com/spf13/cobra"
)

type ResearchCmd struct{}

func NewResearchCmd() *ResearchCmd {
	return &ResearchCmd{}
}

func (c *ResearchCmd) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "research <topic>",
		Short: "Run the research pipeline for a topic and print the report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			showStages, err := cmd.Flags().GetBool("show-stages")
			if err != nil {
				return fmt.Errorf("failed to get show-stages flag: %w", err)
			}

			e, err := loadEnv(cmd)
			if err != nil {
				return err
			}
			e.log.Debug("research: using provider", "provider", e.providerLabel())

			ctx := cmd.Context()
			gw, err := e.newGateway(ctx, "")
			if err != nil {
				return err
			}
			prompts, err := research.LoadPrompts()
			if err != nil {
				return fmt.Errorf("failed to load prompts: %w", err)
			}
			pipeline, err := research.New(&research.Config{
				Logger:  e.log,
				LLM:     gw,
				Prompts: prompts,
			})
			if err != nil {
				return fmt.Errorf("failed to create research pipeline: %w", err)
			}

			topic := strings.Join(args, " ")
			run, err := pipeline.RunWithProgress(ctx, topic, func(p research.Progress) {
				if p.Stage != "" && p.Err == nil {
					e.log.Info("research: stage started", "stage", p.Stage)
				}
			})
			if err != nil {
				return err
			}

			return printRun(cmd.OutOrStdout(), run, showStages)
		},
	}

	cmd.Flags().Bool("show-stages", false, "print the research, summary and critique stages before the report")

	return cmd
}

func printRun(w io.Writer, run *research.PipelineRun, showStages bool) error {
	var b strings.Builder
	if showStages {
		for _, s := range []struct{ title, body string }{
			{"Research", run.Research},
			{"Summary", run.Summary},
			{"Critique", run.Critique},
		} {
			fmt.Fprintf(&b, "=== %s ===\n%s\n\n", s.title, strings.TrimSpace(s.body))
		}
		b.WriteString("=== Report ===\n")
	}
	b.WriteString(strings.TrimSpace(run.Report))
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}
