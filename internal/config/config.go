// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for the orgrag client.
//
// Configuration is TOML, with built-in defaults and environment variable
// overrides. File location: ~/.orgrag/config.toml.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete client configuration.
type Config struct {
	// Server configuration
	Server ServerConfig `toml:"server"`

	// Identity configuration
	Identity IdentityConfig `toml:"identity"`

	// Chat configuration
	Chat ChatConfig `toml:"chat"`

	// Documents configuration (local auto-ingest)
	Documents DocumentsConfig `toml:"documents"`

	// UI configuration
	UI UIConfig `toml:"ui"`
}

// ServerConfig points the client at an orgrag backend.
type ServerConfig struct {
	// URL is the backend base URL
	URL string `toml:"url"`
	// TimeoutSecs bounds non-streaming requests (0 = client default)
	TimeoutSecs int `toml:"timeout_secs"`
}

// IdentityConfig selects who the client acts as. With UseDemo set (the
// default), the built-in sample directory is used and UserID picks an entry
// from it. Otherwise UserID and OrgID must both be set explicitly.
type IdentityConfig struct {
	// UseDemo selects the built-in sample directory
	UseDemo bool `toml:"use_demo"`
	// UserID is the acting user id
	UserID string `toml:"user_id"`
	// UserName is a display name for explicitly configured users
	UserName string `toml:"user_name"`
	// Role is "user" or "admin" for explicitly configured users
	Role string `toml:"role"`
	// OrgID is the organization id for explicitly configured users
	OrgID string `toml:"org_id"`
	// OrgName is a display name for the organization
	OrgName string `toml:"org_name"`
}

// ChatConfig holds query defaults.
type ChatConfig struct {
	// Mode is the default query mode: "rag", "general_knowledge", "web_search"
	Mode string `toml:"mode"`
	// TopK is how many chunks direct chat retrieves (0 = server default)
	TopK int `toml:"top_k"`
	// HistoryLimit caps how many prior turns direct chat sends as context
	HistoryLimit int `toml:"history_limit"`
}

// DocumentsConfig controls the local document watcher. When WatchDir is
// set, files dropped there are uploaded to the backend automatically.
type DocumentsConfig struct {
	// WatchDir is the directory to watch ("" disables watching)
	WatchDir string `toml:"watch_dir"`
	// Visibility for auto-uploaded documents: "personal" or "org-wide"
	Visibility string `toml:"visibility"`
	// DebounceMs is how long a file must be quiet before upload
	DebounceMs int `toml:"debounce_ms"`
	// MaxUploadsPerMinute rate-limits automatic uploads
	MaxUploadsPerMinute int `toml:"max_uploads_per_minute"`
	// IgnorePatterns are glob patterns never uploaded
	IgnorePatterns []string `toml:"ignore_patterns"`
}

// UIConfig holds terminal UI settings.
type UIConfig struct {
	// Theme is "dark", "light", or "auto"
	Theme string `toml:"theme"`
	// ShowSources displays retrieval sources under answers
	ShowSources bool `toml:"show_sources"`
	// CompactMode tightens the layout for small terminals
	CompactMode bool `toml:"compact_mode"`
	// TranscriptDir overrides where conversation transcripts are cached
	TranscriptDir string `toml:"transcript_dir"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:         "http://localhost:8000",
			TimeoutSecs: 120,
		},
		Identity: IdentityConfig{
			UseDemo: true,
			UserID:  "user_sample_001",
		},
		Chat: ChatConfig{
			Mode:         "rag",
			TopK:         5,
			HistoryLimit: 10,
		},
		Documents: DocumentsConfig{
			Visibility:          "personal",
			DebounceMs:          2000,
			MaxUploadsPerMinute: 6,
			IgnorePatterns:      []string{".*", "*.tmp", "*.swp", "~*"},
		},
		UI: UIConfig{
			Theme:       "dark",
			ShowSources: true,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the orgrag configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".orgrag"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the config file, layers it over defaults, applies environment
// overrides, and validates. A missing file is not an error: defaults plus
// environment apply.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SetDefaults fills in zero values left by a sparse config file.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Server.URL == "" {
		c.Server.URL = defaults.Server.URL
	}
	if c.Server.TimeoutSecs == 0 {
		c.Server.TimeoutSecs = defaults.Server.TimeoutSecs
	}
	if c.Identity.UserID == "" {
		c.Identity.UserID = defaults.Identity.UserID
		c.Identity.UseDemo = true
	}
	if c.Chat.Mode == "" {
		c.Chat.Mode = defaults.Chat.Mode
	}
	if c.Chat.TopK == 0 {
		c.Chat.TopK = defaults.Chat.TopK
	}
	if c.Chat.HistoryLimit == 0 {
		c.Chat.HistoryLimit = defaults.Chat.HistoryLimit
	}
	if c.Documents.Visibility == "" {
		c.Documents.Visibility = defaults.Documents.Visibility
	}
	if c.Documents.DebounceMs == 0 {
		c.Documents.DebounceMs = defaults.Documents.DebounceMs
	}
	if c.Documents.MaxUploadsPerMinute == 0 {
		c.Documents.MaxUploadsPerMinute = defaults.Documents.MaxUploadsPerMinute
	}
	if c.Documents.IgnorePatterns == nil {
		c.Documents.IgnorePatterns = defaults.Documents.IgnorePatterns
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - ORGRAG_URL: overrides server.url
//   - ORGRAG_USER: overrides identity.user_id
//   - ORGRAG_ORG: overrides identity.org_id (disables the demo directory)
//   - ORGRAG_MODE: overrides chat.mode
//   - ORGRAG_WATCH_DIR: overrides documents.watch_dir
//   - ORGRAG_THEME: overrides ui.theme
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("ORGRAG_URL"); v != "" {
		c.Server.URL = v
	}
	if v := os.Getenv("ORGRAG_USER"); v != "" {
		c.Identity.UserID = v
	}
	if v := os.Getenv("ORGRAG_ORG"); v != "" {
		c.Identity.OrgID = v
		c.Identity.UseDemo = false
	}
	if v := os.Getenv("ORGRAG_MODE"); v != "" {
		c.Chat.Mode = v
	}
	if v := os.Getenv("ORGRAG_WATCH_DIR"); v != "" {
		c.Documents.WatchDir = v
	}
	if v := os.Getenv("ORGRAG_THEME"); v != "" {
		c.UI.Theme = v
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Server.URL != "" {
		u, err := url.Parse(c.Server.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "server.url",
				Message: fmt.Sprintf("invalid URL %q", c.Server.URL),
			})
		}
	}
	if c.Server.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.timeout_secs",
			Message: "must be non-negative",
		})
	}

	if !c.Identity.UseDemo {
		if c.Identity.UserID == "" {
			errs = append(errs, ValidationError{
				Field:   "identity.user_id",
				Message: "required when use_demo is false",
			})
		}
		if c.Identity.OrgID == "" {
			errs = append(errs, ValidationError{
				Field:   "identity.org_id",
				Message: "required when use_demo is false",
			})
		}
	}

	validModes := map[string]bool{"rag": true, "general_knowledge": true, "web_search": true}
	if !validModes[strings.ToLower(c.Chat.Mode)] {
		errs = append(errs, ValidationError{
			Field:   "chat.mode",
			Message: fmt.Sprintf("invalid mode %q, must be one of: rag, general_knowledge, web_search", c.Chat.Mode),
		})
	}
	if c.Chat.TopK < 0 || c.Chat.TopK > 50 {
		errs = append(errs, ValidationError{
			Field:   "chat.top_k",
			Message: fmt.Sprintf("must be 0-50, got %d", c.Chat.TopK),
		})
	}

	validVisibility := map[string]bool{"personal": true, "org-wide": true}
	if !validVisibility[c.Documents.Visibility] {
		errs = append(errs, ValidationError{
			Field:   "documents.visibility",
			Message: fmt.Sprintf("invalid visibility %q, must be personal or org-wide", c.Documents.Visibility),
		})
	}
	if c.Documents.DebounceMs < 0 {
		errs = append(errs, ValidationError{
			Field:   "documents.debounce_ms",
			Message: "must be non-negative",
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme %q, must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// SAVING
// =============================================================================

// Save writes the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	fmt.Fprintln(file, "# orgrag configuration file")
	fmt.Fprintln(file, "# Generated by orgrag - edit with care")
	fmt.Fprintln(file, "")

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
