package store

import (
	"testing"
	"time"

	"github.com/nexalabs/impactgraph/internal/models"
)

func TestBuildAuditFilter(t *testing.T) {
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	until := since.Add(24 * time.Hour)

	tests := []struct {
		name  string
		opts  models.AuditQueryOpts
		where string
		args  []any
	}{
		{"empty", models.AuditQueryOpts{}, "", nil},
		{
			"exact action",
			models.AuditQueryOpts{OrgID: "org-1", Action: models.AuditActionSync},
			"WHERE org_id = $1 AND action = $2",
			[]any{"org-1", models.AuditActionSync},
		},
		{
			"action prefix",
			models.AuditQueryOpts{Action: "sync_%.*"},
			"WHERE action LIKE $1",
			[]any{`sync\_\%.%`},
		},
		{"bare wildcard", models.AuditQueryOpts{Action: "*"}, "", nil},
		{
			"entity and window",
			models.AuditQueryOpts{EntityID: "Account.Name", Since: &since, Until: &until},
			"WHERE entity_id = $1 AND created_at >= $2 AND created_at < $3",
			[]any{"Account.Name", since, until},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := buildAuditFilter(tt.opts)
			if got := f.where(); got != tt.where {
				t.Errorf("where = %q, want %q", got, tt.where)
			}
			if len(f.args) != len(tt.args) {
				t.Fatalf("args = %v, want %v", f.args, tt.args)
			}
			for i := range tt.args {
				if f.args[i] != tt.args[i] {
					t.Errorf("arg %d = %v, want %v", i, f.args[i], tt.args[i])
				}
			}
			if next := f.next(); next != len(tt.args)+1 {
				t.Errorf("next = %d, want %d", next, len(tt.args)+1)
			}
		})
	}
}
