package config

// Version is the impactd binary version.
// Set at build time via: -ldflags "-X github.com/nexalabs/impactgraph/internal/config.Version=<tag>"
// Defaults to "dev" when built without ldflags.
var Version = "dev"
