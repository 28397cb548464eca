package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/nexalabs/impactgraph/client"
)

func newHealthCmd() *cobra.Command {
	var ready bool
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check server health",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			if ready {
				resp, err := apiClient.Ready(ctx)
				if err != nil {
					fatal("ready", err)
				}
				output(resp, resp.Status)
				return
			}

			resp, err := apiClient.Health(ctx)
			if err != nil {
				fatal("health", err)
			}
			if flagFmt == "table" {
				formatTable(
					[]string{"METRIC", "VALUE"},
					[][]string{
						{"Status", resp.Status},
						{"Version", resp.Version},
						{"Database", resp.Database},
						{"WS Clients", strconv.Itoa(resp.WSClients)},
						{"Uptime", (time.Duration(resp.UptimeSeconds) * time.Second).String()},
					},
				)
				return
			}
			output(resp, resp.Status)
		},
	}
	cmd.Flags().BoolVar(&ready, "ready", false, "Run the readiness check instead of liveness")
	return cmd
}

func newAuditCmd() *cobra.Command {
	var (
		orgID, action, entity, since, until string
		limit, offset                       int
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Query audit logs",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			opts := &client.AuditQueryOptions{
				OrgID:    orgID,
				Action:   action,
				EntityID: entity,
				Limit:    limit,
				Offset:   offset,
			}
			now := time.Now()
			for _, f := range []struct {
				name, val string
				dst       **time.Time
			}{{"since", since, &opts.Since}, {"until", until, &opts.Until}} {
				if f.val == "" {
					continue
				}
				t, err := parseTimeFlag(f.name, f.val, now)
				if err != nil {
					fatal("audit query", err)
				}
				*f.dst = &t
			}

			entries, hasMore, err := apiClient.Audit.Query(context.Background(), opts)
			if err != nil {
				fatal("audit query", err)
			}
			if flagFmt == "table" {
				headers := []string{"ID", "ORG", "ACTION", "ENTITY_ID", "CREATED_AT"}
				rows := make([][]string, 0, len(entries))
				for _, e := range entries {
					rows = append(rows, []string{
						strconv.FormatInt(e.ID, 10), e.OrgID, e.Action, e.EntityID,
						e.CreatedAt.Format("2006-01-02 15:04:05"),
					})
				}
				formatTable(headers, rows)
				if hasMore {
					fmt.Println("(more entries available, use --offset)")
				}
				return
			}
			output(entries, strconv.Itoa(len(entries)))
		},
	}
	cmd.Flags().StringVar(&orgID, "org", "", "Filter by org ID")
	cmd.Flags().StringVar(&action, "action", "", "Filter by action (impact.analyze, snapshot.sync, sync.rejected); a trailing * matches by prefix")
	cmd.Flags().StringVar(&entity, "entity", "", "Filter by entity ID")
	cmd.Flags().StringVar(&since, "since", "", "Only entries newer than an RFC3339 time or a duration like 24h")
	cmd.Flags().StringVar(&until, "until", "", "Only entries older than an RFC3339 time or a duration like 1h")
	cmd.Flags().IntVar(&limit, "limit", 0, "Max results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Skip the first N entries")
	return cmd
}

// parseTimeFlag accepts an RFC3339 timestamp or a Go duration measured back
// from now.
func parseTimeFlag(name, s string, now time.Time) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q: use RFC3339 or a duration like 24h", name, s)
	}
	return now.Add(-d), nil
}
