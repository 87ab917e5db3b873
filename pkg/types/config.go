// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that talk to
// NeuroMorpho.org.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "neuromorphopy/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// LegacyCiphers enables a relaxed TLS cipher list for hosts that still
	// negotiate legacy suites. Off by default; enabling it widens the cipher
	// set for the one client it configures, never process-wide state.
	LegacyCiphers bool `json:"legacy_ciphers" yaml:"legacy_ciphers"`

	// MaxRetries is the retry budget for HTTP 429 responses. Zero, the
	// default, disables retrying entirely.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// SearchConfig holds settings for the metadata search stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// PageSize is the number of records requested per page (default 100).
	PageSize int `json:"page_size" yaml:"page_size"`

	// MaxConcurrency caps the number of page fetches in flight (default 20).
	MaxConcurrency int `json:"max_concurrency" yaml:"max_concurrency"`
}

// DownloadConfig holds settings for the morphology download stage.
type DownloadConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxConcurrency caps the number of downloads in flight (default 20).
	// Independent of the search stage's cap.
	MaxConcurrency int `json:"max_concurrency" yaml:"max_concurrency"`

	// OutputDir is the directory morphology files are written to.
	OutputDir string `json:"output_dir" yaml:"output_dir"`
}

// StoreConfig holds settings for the local run store.
type StoreConfig struct {
	// Dir is the directory containing the SQLite database file.
	Dir string `json:"dir" yaml:"dir"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Search   SearchConfig   `json:"search" yaml:"search"`
	Download DownloadConfig `json:"download" yaml:"download"`
	Store    StoreConfig    `json:"store" yaml:"store"`
}
