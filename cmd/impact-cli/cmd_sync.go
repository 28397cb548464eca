package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nexalabs/impactgraph/client"
)

func newSyncCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "sync <org> --file payload.{json,yaml}",
		Short: "Replace an org's snapshot with a full metadata payload",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			req, err := loadPayload(file, args[0])
			if err != nil {
				fatal("sync", err)
			}
			res, err := apiClient.Sync.Submit(context.Background(), req)
			if err != nil {
				var apiErr *client.APIError
				if errors.As(err, &apiErr) && len(apiErr.Problems) > 0 {
					for _, p := range apiErr.Problems {
						fmt.Fprintf(os.Stderr, "  %s: %s\n", p.Kind, p.Message)
					}
				}
				fatal("sync", err)
			}
			output(res, strconv.FormatUint(res.Version, 10))
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Payload file (.json, .yaml or .yml)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// loadPayload reads a sync payload from path. An empty orgId in the file is
// filled from orgID; a different one is an error.
func loadPayload(path, orgID string) (*client.SyncRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var req client.SyncRequest
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &req)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &req)
	default:
		return nil, fmt.Errorf("unsupported payload extension %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	switch req.OrgID {
	case "":
		req.OrgID = orgID
	case orgID:
	default:
		return nil, fmt.Errorf("payload orgId %q does not match %q", req.OrgID, orgID)
	}
	return &req, nil
}
