package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "search <org> <term>",
		Short: "Find nodes by name or description",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			nodes, err := apiClient.Search.Nodes(context.Background(), args[0], args[1], limit)
			if err != nil {
				fatal("search", err)
			}
			if flagFmt == "table" {
				printNodeTable(nodes)
				return
			}
			ids := make([]string, 0, len(nodes))
			for _, n := range nodes {
				ids = append(ids, n.ID)
			}
			output(nodes, strings.Join(ids, "\n"))
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results")
	return cmd
}
