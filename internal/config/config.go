package config

import "time"

// Defaults for a keysweep run, overridable via flags and environment.
const (
	DefaultAPIBase     = "https://generativelanguage.googleapis.com"
	DefaultModel       = "gemini-2.5-computer-use-preview-10-2025"
	DefaultConcurrency = 20
	DefaultTimeout     = 10 * time.Second
	DefaultOutputFile  = "results.csv"
	DefaultSuccessFile = "success.txt"
)

// Options holds all configuration for a keysweep run.
type Options struct {
	// Input
	KeyFile string

	// API
	APIBase string
	Model   string
	Timeout time.Duration // per-attempt connect/read timeout, not total

	// Performance
	Concurrency int

	// Output
	OutputFile   string // "-" = stdout
	OutputFormat string // "csv", "json"
	SuccessFile  string
	Quiet        bool
	NoColor      bool
	Verbose      bool

	// Hooks
	OnValidCmd string
}
