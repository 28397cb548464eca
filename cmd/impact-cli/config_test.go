package main

import (
	"os"
	"path/filepath"
	"testing"
)

// resetFlags restores global flag state after each test.
func resetFlags(t *testing.T) {
	t.Helper()
	orig := struct{ url, token, fmt, profile string }{flagURL, flagToken, flagFmt, flagProfile}
	t.Cleanup(func() {
		flagURL = orig.url
		flagToken = orig.token
		flagFmt = orig.fmt
		flagProfile = orig.profile
	})
}

// isolate points HOME at a temp dir, clears the CLI env vars and resets
// flags to their defaults. It returns the temp home.
func isolate(t *testing.T) string {
	t.Helper()
	resetFlags(t)
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("IMPACTGRAPH_URL", "")
	t.Setenv("IMPACTGRAPH_TOKEN", "")
	flagURL, flagToken, flagProfile = defaultURL, "", ""
	return home
}

// writeConfig writes content to ~/.impactgraph/config.yaml under home.
func writeConfig(t *testing.T, home, content string) {
	t.Helper()
	dir := filepath.Join(home, ".impactgraph")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestResolveConfigEnv(t *testing.T) {
	isolate(t)
	t.Setenv("IMPACTGRAPH_URL", "http://env-server:9090")
	t.Setenv("IMPACTGRAPH_TOKEN", "env-token")

	resolveConfig()

	if flagURL != "http://env-server:9090" {
		t.Errorf("flagURL: got %q", flagURL)
	}
	if flagToken != "env-token" {
		t.Errorf("flagToken: got %q", flagToken)
	}
}

func TestResolveConfigFlagTakesPrecedenceOverEnv(t *testing.T) {
	isolate(t)
	t.Setenv("IMPACTGRAPH_URL", "http://env-server:9090")
	flagURL = "http://flag-server:1111"

	resolveConfig()

	if flagURL != "http://flag-server:1111" {
		t.Errorf("flagURL: got %q, want flag value", flagURL)
	}
}

func TestResolveConfigFlatYAML(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, "url: http://flat:3040\ntoken: flat-token\n")

	resolveConfig()

	if flagURL != "http://flat:3040" || flagToken != "flat-token" {
		t.Errorf("got url=%q token=%q", flagURL, flagToken)
	}
}

func TestResolveConfigProfiles(t *testing.T) {
	const cfg = `
active_profile: staging
profiles:
  default:
    url: http://default:3040
  staging:
    url: http://staging:3040
    token: staging-token
  prod:
    url: http://prod:3040
`
	tests := []struct {
		name      string
		profile   string
		wantURL   string
		wantToken string
	}{
		{"active profile", "", "http://staging:3040", "staging-token"},
		{"explicit profile", "prod", "http://prod:3040", ""},
		{"unknown profile falls back to default url", "missing", defaultURL, ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			home := isolate(t)
			writeConfig(t, home, cfg)
			flagProfile = tc.profile

			resolveConfig()

			if flagURL != tc.wantURL {
				t.Errorf("flagURL: got %q, want %q", flagURL, tc.wantURL)
			}
			if flagToken != tc.wantToken {
				t.Errorf("flagToken: got %q, want %q", flagToken, tc.wantToken)
			}
		})
	}
}

func TestResolveConfigDefaultProfile(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, "profiles:\n  default:\n    url: http://default:3040\n")

	resolveConfig()

	if flagURL != "http://default:3040" {
		t.Errorf("flagURL: got %q", flagURL)
	}
}

func TestResolveConfigEnvNotOverriddenByFile(t *testing.T) {
	home := isolate(t)
	writeConfig(t, home, "url: http://file:3040\ntoken: file-token\n")
	t.Setenv("IMPACTGRAPH_URL", "http://env:3040")
	t.Setenv("IMPACTGRAPH_TOKEN", "env-token")

	resolveConfig()

	if flagURL != "http://env:3040" || flagToken != "env-token" {
		t.Errorf("got url=%q token=%q, want env values", flagURL, flagToken)
	}
}

func TestResolveConfigMissingOrInvalidFile(t *testing.T) {
	for name, content := range map[string]string{"missing": "", "invalid": "url: [unclosed\n"} {
		t.Run(name, func(t *testing.T) {
			home := isolate(t)
			if content != "" {
				writeConfig(t, home, content)
			}

			resolveConfig()

			if flagURL != defaultURL || flagToken != "" {
				t.Errorf("got url=%q token=%q, want defaults", flagURL, flagToken)
			}
		})
	}
}
