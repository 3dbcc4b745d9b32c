// Package config holds all inkwell configuration.
// Config lives at .inkwell/config.yaml inside the workspace; environment
// variables override file values so CI and scripts can tweak behavior
// without editing the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Feature toggle keys consumed through Config.Enabled.
const (
	ToggleAnonymousQuotaBanner = "banner.anonymous_quota"
	ToggleWelcomeBanner        = "banner.welcome"
)

// Config holds all inkwell configuration.
type Config struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM configuration
	LLM LLMConfig `yaml:"llm"`

	// UI settings
	UI UIConfig `yaml:"ui"`

	// Banner feature toggles
	Banner BannerConfig `yaml:"banner"`

	// Telemetry controls structured event emission
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the chat responder.
type LLMConfig struct {
	Provider string `yaml:"provider"` // gemini
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	Timeout  string `yaml:"timeout"`
}

// UIConfig holds user interface configuration.
type UIConfig struct {
	// Theme selects the color palette: "light" or "dark"
	Theme string `yaml:"theme"`

	// WordWrap is the markdown render width for assistant replies
	WordWrap int `yaml:"word_wrap"`
}

// BannerConfig toggles the status banner variants.
type BannerConfig struct {
	// AnonymousQuota enables the quota-exhausted prompt for anonymous users
	AnonymousQuota bool `yaml:"anonymous_quota"`

	// Welcome enables the first-use welcome message for anonymous users
	Welcome bool `yaml:"welcome"`
}

// TelemetryConfig controls structured event emission.
type TelemetryConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoggingConfig controls debug logging.
type LoggingConfig struct {
	DebugMode bool   `yaml:"debug_mode"`
	Level     string `yaml:"level"`
}

// Default returns the baseline configuration for a fresh workspace.
func Default() *Config {
	return &Config{
		Name:    "inkwell",
		Version: "0.3.0",
		LLM: LLMConfig{
			Provider: "gemini",
			Model:    "gemini-2.0-flash",
			Timeout:  "60s",
		},
		UI: UIConfig{
			Theme:    "dark",
			WordWrap: 80,
		},
		Banner: BannerConfig{
			AnonymousQuota: true,
			Welcome:        true,
		},
		Telemetry: TelemetryConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
		},
	}
}

// Path returns the config file location for a workspace.
func Path(workspace string) string {
	return filepath.Join(workspace, ".inkwell", "config.yaml")
}

// Load reads configuration from the workspace, falling back to defaults
// when no file exists, then applies environment overrides.
func Load(workspace string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(Path(workspace))
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration back to the workspace.
func (c *Config) Save(workspace string) error {
	path := Path(workspace)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Enabled reports a feature toggle by key. Unknown keys are false.
func (c *Config) Enabled(key string) bool {
	switch key {
	case ToggleAnonymousQuotaBanner:
		return c.Banner.AnonymousQuota
	case ToggleWelcomeBanner:
		return c.Banner.Welcome
	default:
		return false
	}
}

// applyEnvOverrides layers INKWELL_* environment variables over file values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("INKWELL_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && c.LLM.APIKey == "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("INKWELL_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("INKWELL_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("INKWELL_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Logging.DebugMode = b
		}
	}
	if v := os.Getenv("INKWELL_BANNER_ANONYMOUS_QUOTA"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Banner.AnonymousQuota = b
		}
	}
	if v := os.Getenv("INKWELL_BANNER_WELCOME"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Banner.Welcome = b
		}
	}
}
