package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/nexalabs/impactgraph/client"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		depth        int
		timeoutMs    int
		dependencies bool
	)
	cmd := &cobra.Command{
		Use:   "analyze <org> <node>",
		Short: "Report what may break if a node changes",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			opts := &client.AnalyzeOptions{TimeoutMs: timeoutMs}
			if cmd.Flags().Changed("depth") {
				opts.MaxDepth = &depth
			}

			run := apiClient.Impact.Analyze
			if dependencies {
				run = apiClient.Impact.Dependencies
			}
			report, err := run(ctx, args[0], args[1], opts)
			if err != nil {
				fatal("analyze", err)
			}
			if flagFmt == "table" {
				printReportTable(report)
				return
			}
			output(report, report.Summary.OverallRisk)
		},
	}
	cmd.Flags().IntVar(&depth, "depth", 0, "Maximum traversal depth (0 = unbounded)")
	cmd.Flags().IntVar(&timeoutMs, "timeout-ms", 0, "Analysis time budget in milliseconds")
	cmd.Flags().BoolVar(&dependencies, "dependencies", false, "Walk what the node relies on instead of its dependents")
	return cmd
}
