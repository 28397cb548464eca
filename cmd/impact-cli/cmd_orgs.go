package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nexalabs/impactgraph/client"
)

func newOrgsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orgs",
		Short: "Inspect serving snapshots",
	}
	cmd.AddCommand(orgsListCmd())
	cmd.AddCommand(orgsGetCmd())
	cmd.AddCommand(orgsNodeCmd())
	return cmd
}

func orgsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List orgs with a serving snapshot",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			orgs, err := apiClient.Orgs.List(context.Background())
			if err != nil {
				fatal("list orgs", err)
			}
			if flagFmt == "table" {
				printOrgTable(orgs)
				return
			}
			output(orgs, strconv.Itoa(len(orgs)))
		},
	}
}

func orgsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <org>",
		Short: "Show an org's snapshot summary",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			sum, err := apiClient.Orgs.Get(context.Background(), args[0])
			if err != nil {
				fatal("get org", err)
			}
			if flagFmt == "table" {
				printOrgTable([]client.SnapshotSummary{*sum})
				return
			}
			output(sum, strconv.FormatUint(sum.Version, 10))
		},
	}
}

func orgsNodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "node <org> <node>",
		Short: "Show one node of an org's snapshot",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			node, err := apiClient.Orgs.Node(context.Background(), args[0], args[1])
			if err != nil {
				fatal("get node", err)
			}
			if flagFmt == "table" {
				printNodeTable([]client.MetadataNode{*node})
				return
			}
			output(node, node.ID)
		},
	}
}
