package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/nexalabs/impactgraph/client"
)

func formatJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error: encode json: %v\n", err)
		os.Exit(1)
	}
}

func formatTable(headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	printRow := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			w := 0
			if i < len(widths) {
				w = widths[i]
			}
			parts[i] = fmt.Sprintf("%-*s", w, cell)
		}
		fmt.Println(strings.Join(parts, "  "))
	}

	printRow(headers)
	seps := make([]string, len(headers))
	for i, w := range widths {
		seps[i] = strings.Repeat("-", w)
	}
	printRow(seps)
	for _, row := range rows {
		printRow(row)
	}
}

func output(v any, quietVal string) {
	switch flagFmt {
	case "quiet":
		fmt.Println(quietVal)
	default:
		// Table output is rendered by callers that support it.
		formatJSON(v)
	}
}

func formatRecords(n *int64) string {
	if n == nil {
		return "-"
	}
	return strconv.FormatInt(*n, 10)
}

func printReportTable(r *client.ImpactReport) {
	fmt.Printf("%s (%s) in %s, %s, snapshot v%d\n", r.Node.Name, r.Node.Type, r.OrgID, r.Direction, r.SnapshotVersion)
	fmt.Printf("overall risk: %s  direct: %d  indirect: %d  records: %s\n\n",
		r.Summary.OverallRisk, r.Summary.DirectCount, r.Summary.IndirectCount, formatRecords(r.Summary.EstimatedRecords))

	headers := []string{"ID", "NAME", "TYPE", "DIST", "RISK", "SCORE", "RECORDS"}
	rows := make([][]string, 0, len(r.Dependencies))
	for _, d := range r.Dependencies {
		rows = append(rows, []string{
			d.Node.ID, d.Node.Name, d.Node.Type,
			strconv.Itoa(d.Distance), d.RiskLevel,
			fmt.Sprintf("%.4f", d.RiskScore), formatRecords(d.EstimatedRecords),
		})
	}
	formatTable(headers, rows)

	if len(r.Recommendations) > 0 {
		fmt.Println()
		for _, rec := range r.Recommendations {
			fmt.Printf("[%s] %s: %s\n", rec.Severity, rec.Title, rec.Detail)
		}
	}
}

func printNodeTable(nodes []client.MetadataNode) {
	headers := []string{"ID", "NAME", "TYPE", "RECORDS"}
	rows := make([][]string, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, []string{n.ID, n.Name, n.Type, formatRecords(n.EstimatedRecords)})
	}
	formatTable(headers, rows)
}

func printOrgTable(orgs []client.SnapshotSummary) {
	headers := []string{"ORG", "VERSION", "NODES", "EDGES", "BUILT"}
	rows := make([][]string, 0, len(orgs))
	for _, o := range orgs {
		rows = append(rows, []string{
			o.OrgID, strconv.FormatUint(o.Version, 10),
			strconv.Itoa(o.NodeCount), strconv.Itoa(o.EdgeCount),
			o.BuiltAt.Format("2006-01-02 15:04:05"),
		})
	}
	formatTable(headers, rows)
}
