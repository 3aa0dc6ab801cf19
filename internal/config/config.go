// Copyright (c) 2025 The robots-tui Authors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for
// the robots client.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.robots/config.toml
//   - ~/.robots/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/robotsdev/robots-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete robots client configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Backend connection
	Backend BackendConfig `toml:"backend" json:"backend"`

	// Chat/socket behavior
	Chat ChatConfig `toml:"chat" json:"chat"`

	// Local storage
	Storage StorageConfig `toml:"storage" json:"storage"`

	// Workspace (coding agent)
	Workspace WorkspaceConfig `toml:"workspace" json:"workspace"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`
}

// BackendConfig contains the backend endpoints and identity.
type BackendConfig struct {
	// BaseURL is the HTTP base URL of the robots backend
	BaseURL string `toml:"base_url" json:"base_url"`
	// WSBaseURL is the WebSocket base URL (ws:// or wss://)
	WSBaseURL string `toml:"ws_base_url" json:"ws_base_url"`
	// UserName is sent with chat requests
	UserName string `toml:"user_name" json:"user_name"`
	// UserID identifies the local user in the conversation store
	UserID string `toml:"user_id" json:"user_id"`
}

// ChatConfig contains streaming/socket tuning.
type ChatConfig struct {
	// HeartbeatSecs is the socket ping interval
	HeartbeatSecs int `toml:"heartbeat_secs" json:"heartbeat_secs"`
	// PongTimeoutSecs is how long to wait for a pong before closing
	PongTimeoutSecs int `toml:"pong_timeout_secs" json:"pong_timeout_secs"`
	// ReconnectBaseMs is the initial reconnect backoff
	ReconnectBaseMs int `toml:"reconnect_base_ms" json:"reconnect_base_ms"`
	// ReconnectMaxMs caps the reconnect backoff
	ReconnectMaxMs int `toml:"reconnect_max_ms" json:"reconnect_max_ms"`
	// ReconnectMaxAttempts bounds reconnection before giving up
	ReconnectMaxAttempts int `toml:"reconnect_max_attempts" json:"reconnect_max_attempts"`
	// SendRatePerMin throttles outbound sends
	SendRatePerMin int `toml:"send_rate_per_min" json:"send_rate_per_min"`
	// SummaryThreshold is how many new messages trigger a rolling summary
	SummaryThreshold int `toml:"summary_threshold" json:"summary_threshold"`
}

// StorageConfig contains local conversation cache settings.
type StorageConfig struct {
	// Dir is the data directory (empty = ~/.robots)
	Dir string `toml:"dir" json:"dir"`
	// MaxConversations limits how many conversations are listed
	MaxConversations int `toml:"max_conversations" json:"max_conversations"`
}

// WorkspaceConfig contains coding-agent panel settings.
type WorkspaceConfig struct {
	// ProjectDir is a local directory to sync to the backend workspace
	// (empty = sync disabled)
	ProjectDir string `toml:"project_dir" json:"project_dir"`
	// SyncDebounceMs coalesces rapid file events before uploading
	SyncDebounceMs int `toml:"sync_debounce_ms" json:"sync_debounce_ms"`
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme"`
	// CompactMode uses a more compact UI layout
	CompactMode bool `toml:"compact_mode" json:"compact_mode"`
	// ShowPose displays the avatar pose in the status line
	ShowPose bool `toml:"show_pose" json:"show_pose"`
	// DefaultAgent is the agent selected on startup
	DefaultAgent string `toml:"default_agent" json:"default_agent"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Backend: BackendConfig{
			BaseURL:   "http://127.0.0.1:8000",
			WSBaseURL: "ws://127.0.0.1:8000",
			UserName:  "friend",
		},

		Chat: ChatConfig{
			HeartbeatSecs:        28,
			PongTimeoutSecs:      8,
			ReconnectBaseMs:      1000,
			ReconnectMaxMs:       30000,
			ReconnectMaxAttempts: 10,
			SendRatePerMin:       30,
			SummaryThreshold:     8,
		},

		Storage: StorageConfig{
			Dir:              "", // resolved to ~/.robots
			MaxConversations: 200,
		},

		Workspace: WorkspaceConfig{
			ProjectDir:     "",
			SyncDebounceMs: 400,
		},

		UI: UIConfig{
			Theme:        "dark",
			CompactMode:  false,
			ShowPose:     true,
			DefaultAgent: "travel",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the robots configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".robots"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files should be 0600 (owner read/write only).
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Mode().Perm() != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions: %w", err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	// Try TOML first
	if tomlPath, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finish(cfg)
			}
		}
	}

	// Try JSON as fallback
	if jsonPath, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			} else {
				return finish(cfg)
			}
		}
	}

	cfg, err := finish(cfg)
	if err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// finish applies env overrides, defaults and validation.
func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}
	return finish(cfg)
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Creates config files with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# robots configuration file")
	fmt.Fprintln(file, "# Generated by robots - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file.
// RELIABILITY: Atomic write with fsync prevents data loss on crash.
func SaveJSON(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
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

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// Backend URLs
	if c.Backend.BaseURL != "" {
		u, err := url.Parse(c.Backend.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "backend.base_url",
				Message: fmt.Sprintf("invalid URL '%s'", c.Backend.BaseURL),
			})
		}
	}
	if c.Backend.WSBaseURL != "" {
		u, err := url.Parse(c.Backend.WSBaseURL)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
			errs = append(errs, ValidationError{
				Field:   "backend.ws_base_url",
				Message: fmt.Sprintf("must be a ws:// or wss:// URL, got '%s'", c.Backend.WSBaseURL),
			})
		}
	}

	// Heartbeat timing: the pong wait must fit inside one heartbeat period,
	// otherwise overlapping pings would race their own timeout.
	if c.Chat.PongTimeoutSecs >= c.Chat.HeartbeatSecs {
		errs = append(errs, ValidationError{
			Field:   "chat.pong_timeout_secs",
			Message: fmt.Sprintf("must be less than heartbeat_secs (%d >= %d)", c.Chat.PongTimeoutSecs, c.Chat.HeartbeatSecs),
		})
	}
	if c.Chat.HeartbeatSecs < 5 || c.Chat.HeartbeatSecs > 120 {
		errs = append(errs, ValidationError{
			Field:   "chat.heartbeat_secs",
			Message: fmt.Sprintf("must be 5-120, got %d", c.Chat.HeartbeatSecs),
		})
	}
	if c.Chat.ReconnectBaseMs > c.Chat.ReconnectMaxMs {
		errs = append(errs, ValidationError{
			Field:   "chat.reconnect_base_ms",
			Message: fmt.Sprintf("must not exceed reconnect_max_ms (%d > %d)", c.Chat.ReconnectBaseMs, c.Chat.ReconnectMaxMs),
		})
	}
	if c.Chat.ReconnectMaxAttempts < 1 || c.Chat.ReconnectMaxAttempts > 100 {
		errs = append(errs, ValidationError{
			Field:   "chat.reconnect_max_attempts",
			Message: fmt.Sprintf("must be 1-100, got %d", c.Chat.ReconnectMaxAttempts),
		})
	}
	if c.Chat.SendRatePerMin < 1 {
		errs = append(errs, ValidationError{
			Field:   "chat.send_rate_per_min",
			Message: "must be at least 1",
		})
	}

	// UI theme
	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults sets default values for any missing or zero-value fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}

	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = defaults.Backend.BaseURL
	}
	if c.Backend.WSBaseURL == "" {
		c.Backend.WSBaseURL = defaults.Backend.WSBaseURL
	}
	if c.Backend.UserName == "" {
		c.Backend.UserName = defaults.Backend.UserName
	}
	if c.Backend.UserID == "" {
		// Stable local identity derived from the OS user.
		if u := os.Getenv("USER"); u != "" {
			c.Backend.UserID = "local-" + u
		} else {
			c.Backend.UserID = "local-user"
		}
	}

	if c.Chat.HeartbeatSecs == 0 {
		c.Chat.HeartbeatSecs = defaults.Chat.HeartbeatSecs
	}
	if c.Chat.PongTimeoutSecs == 0 {
		c.Chat.PongTimeoutSecs = defaults.Chat.PongTimeoutSecs
	}
	if c.Chat.ReconnectBaseMs == 0 {
		c.Chat.ReconnectBaseMs = defaults.Chat.ReconnectBaseMs
	}
	if c.Chat.ReconnectMaxMs == 0 {
		c.Chat.ReconnectMaxMs = defaults.Chat.ReconnectMaxMs
	}
	if c.Chat.ReconnectMaxAttempts == 0 {
		c.Chat.ReconnectMaxAttempts = defaults.Chat.ReconnectMaxAttempts
	}
	if c.Chat.SendRatePerMin == 0 {
		c.Chat.SendRatePerMin = defaults.Chat.SendRatePerMin
	}
	if c.Chat.SummaryThreshold == 0 {
		c.Chat.SummaryThreshold = defaults.Chat.SummaryThreshold
	}

	if c.Storage.MaxConversations == 0 {
		c.Storage.MaxConversations = defaults.Storage.MaxConversations
	}
	if c.Workspace.SyncDebounceMs == 0 {
		c.Workspace.SyncDebounceMs = defaults.Workspace.SyncDebounceMs
	}

	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.UI.DefaultAgent == "" {
		c.UI.DefaultAgent = defaults.UI.DefaultAgent
	}
}

// DataDir resolves the storage directory, defaulting to the config dir.
func (c *Config) DataDir() (string, error) {
	if c.Storage.Dir != "" {
		return c.Storage.Dir, nil
	}
	return ConfigDir()
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - ROBOTS_BACKEND_URL: overrides backend.base_url
//   - ROBOTS_WS_URL: overrides backend.ws_base_url
//   - ROBOTS_USER: overrides backend.user_name
//   - ROBOTS_THEME: overrides ui.theme
//   - ROBOTS_AGENT: overrides ui.default_agent
//   - ROBOTS_PROJECT_DIR: overrides workspace.project_dir
//   - ROBOTS_HEARTBEAT_SECS: overrides chat.heartbeat_secs
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("ROBOTS_BACKEND_URL"); v != "" {
		c.Backend.BaseURL = v
	}
	if v := os.Getenv("ROBOTS_WS_URL"); v != "" {
		c.Backend.WSBaseURL = v
	}
	if v := os.Getenv("ROBOTS_USER"); v != "" {
		c.Backend.UserName = v
	}
	if v := os.Getenv("ROBOTS_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("ROBOTS_AGENT"); v != "" {
		c.UI.DefaultAgent = v
	}
	if v := os.Getenv("ROBOTS_PROJECT_DIR"); v != "" {
		c.Workspace.ProjectDir = v
	}
	if v := os.Getenv("ROBOTS_HEARTBEAT_SECS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			c.Chat.HeartbeatSecs = secs
		}
	}
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
			cfg.SetDefaults()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
