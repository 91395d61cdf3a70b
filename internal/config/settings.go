package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ContentSearchSettings configuration for the full-text content index.
type ContentSearchSettings struct {
	Enabled     bool  `mapstructure:"enabled"`
	MaxFileSize int64 `mapstructure:"max_file_size"`
	MaxResults  int   `mapstructure:"max_results"`
}

// WatchSettings configuration for filesystem change watching.
type WatchSettings struct {
	Enabled  bool          `mapstructure:"enabled"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// ServeSettings configuration for the HTTP serve mode.
type ServeSettings struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// Settings application settings.
type Settings struct {
	Root          string                `mapstructure:"root"`
	Extensions    []string              `mapstructure:"extensions"`
	StateDir      string                `mapstructure:"state_dir"`
	ContentSearch ContentSearchSettings `mapstructure:"content_search"`
	Watch         WatchSettings         `mapstructure:"watch"`
	Serve         ServeSettings         `mapstructure:"serve"`
}

// LoadSettings loads settings from environment variables and optional .env file.
func LoadSettings() (*Settings, error) {
	return LoadSettingsWithFlags(nil)
}

// LoadSettingsWithFlags loads settings with optional CLI flag overrides.
// Priority: CLI flags > environment variables > .env file > defaults.
// If flags is nil, only env vars and defaults are used.
func LoadSettingsWithFlags(flags *pflag.FlagSet) (*Settings, error) {
	v := viper.New()

	// Default values
	v.SetDefault("root", ".")
	v.SetDefault("extensions", []string{"md", "markdown", "mdown"})
	v.SetDefault("state_dir", defaultStateDir())
	v.SetDefault("content_search.enabled", true)
	v.SetDefault("content_search.max_file_size", int64(1024*1024)) // 1MB
	v.SetDefault("content_search.max_results", 20)
	v.SetDefault("watch.enabled", true)
	v.SetDefault("watch.debounce", 250*time.Millisecond)
	v.SetDefault("serve.enabled", false)
	v.SetDefault("serve.host", "127.0.0.1")
	v.SetDefault("serve.port", 7350)

	// Environment variables
	v.SetEnvPrefix("MDSHELF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Bind specific env vars for nested config
	_ = v.BindEnv("content_search.enabled", "MDSHELF_CONTENT_SEARCH_ENABLED")
	_ = v.BindEnv("content_search.max_file_size", "MDSHELF_CONTENT_SEARCH_MAX_FILE_SIZE")
	_ = v.BindEnv("content_search.max_results", "MDSHELF_CONTENT_SEARCH_MAX_RESULTS")
	_ = v.BindEnv("watch.enabled", "MDSHELF_WATCH_ENABLED")
	_ = v.BindEnv("watch.debounce", "MDSHELF_WATCH_DEBOUNCE")
	_ = v.BindEnv("serve.enabled", "MDSHELF_SERVE_ENABLED")
	_ = v.BindEnv("serve.host", "MDSHELF_SERVE_HOST")
	_ = v.BindEnv("serve.port", "MDSHELF_SERVE_PORT")

	// Bind CLI flags if provided (highest priority)
	if flags != nil {
		_ = v.BindPFlag("root", flags.Lookup("root"))
		_ = v.BindPFlag("extensions", flags.Lookup("extensions"))
		_ = v.BindPFlag("state_dir", flags.Lookup("state-dir"))
		_ = v.BindPFlag("serve.enabled", flags.Lookup("serve"))
		_ = v.BindPFlag("serve.host", flags.Lookup("host"))
		_ = v.BindPFlag("serve.port", flags.Lookup("port"))

		// Negative flags invert into the settings they disable
		if f := flags.Lookup("no-watch"); f != nil && f.Changed {
			v.Set("watch.enabled", false)
		}
		if f := flags.Lookup("no-content-search"); f != nil && f.Changed {
			v.Set("content_search.enabled", false)
		}
	}

	// Helper to look for .env file
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if .env doesn't exist

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, err
	}

	// Handle explicit parsing of extensions if provided via env var as
	// comma-separated string
	extensionsEnv := os.Getenv("MDSHELF_EXTENSIONS")
	if extensionsEnv != "" {
		if len(settings.Extensions) == 0 || (len(settings.Extensions) == 1 && strings.Contains(settings.Extensions[0], ",")) {
			settings.Extensions = strings.Split(extensionsEnv, ",")
		}
	}

	// Normalize extensions: trimmed, lowercased, no leading dot
	normalized := make([]string, 0, len(settings.Extensions))
	for _, ext := range settings.Extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			normalized = append(normalized, ext)
		}
	}
	settings.Extensions = normalized

	// Expand home directory in paths
	settings.Root = expandHomeDir(settings.Root)
	settings.StateDir = expandHomeDir(settings.StateDir)

	return &settings, nil
}

// defaultStateDir returns the default directory for persistent state.
func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mdshelf"
	}
	return filepath.Join(home, ".mdshelf")
}

// expandHomeDir expands ~ to the user's home directory.
func expandHomeDir(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return home
	}
	return path
}

// ValidateSettings checks for incomplete or contradictory configuration.
func ValidateSettings(s *Settings) error {
	if s.Root == "" {
		return errors.New("root cannot be empty")
	}
	if len(s.Extensions) == 0 {
		return errors.New("at least one markdown extension is required")
	}
	if s.StateDir == "" {
		return errors.New("state-dir cannot be empty")
	}

	if s.ContentSearch.Enabled {
		if s.ContentSearch.MaxFileSize <= 0 {
			return errors.New("content-search max_file_size must be positive")
		}
		if s.ContentSearch.MaxResults <= 0 {
			return errors.New("content-search max_results must be positive")
		}
	}

	if s.Watch.Enabled && s.Watch.Debounce <= 0 {
		return errors.New("watch debounce must be positive")
	}

	if s.Serve.Enabled {
		if s.Serve.Host == "" {
			return errors.New("serve host cannot be empty")
		}
		if s.Serve.Port <= 0 || s.Serve.Port > 65535 {
			return errors.New("serve port must be between 1 and 65535")
		}
	}

	return nil
}
