package config

import (
	"context"
	"log/slog"
)

// Log logs the resolved settings in a granular way, skipping irrelevant ones
func Log(s *Settings) {
	LogWithLogger(s, slog.Default())
}

// LogWithLogger logs the resolved settings using the provided logger
func LogWithLogger(s *Settings, logger *slog.Logger) {
	ctx := context.Background()
	logger.InfoContext(ctx, "Config: root", "value", s.Root)
	logger.InfoContext(ctx, "Config: extensions", "value", s.Extensions)
	logger.InfoContext(ctx, "Config: state_dir", "value", s.StateDir)

	logger.InfoContext(ctx, "Config: content_search.enabled", "value", s.ContentSearch.Enabled)
	if s.ContentSearch.Enabled {
		logger.InfoContext(ctx, "Config: content_search.max_file_size", "value", s.ContentSearch.MaxFileSize)
		logger.InfoContext(ctx, "Config: content_search.max_results", "value", s.ContentSearch.MaxResults)
	}

	logger.InfoContext(ctx, "Config: watch.enabled", "value", s.Watch.Enabled)
	if s.Watch.Enabled {
		logger.InfoContext(ctx, "Config: watch.debounce", "value", s.Watch.Debounce)
	}

	if s.Serve.Enabled {
		logger.InfoContext(ctx, "Config: serve.host", "value", s.Serve.Host)
		logger.InfoContext(ctx, "Config: serve.port", "value", s.Serve.Port)
	}
}

// SettingsLogValue returns a slog.Value for Settings, for structured logging
func SettingsLogValue(s Settings) slog.Value {
	return slog.GroupValue(
		slog.String("root", s.Root),
		slog.Any("extensions", s.Extensions),
		slog.String("state_dir", s.StateDir),
		slog.Bool("content_search", s.ContentSearch.Enabled),
		slog.Bool("watch", s.Watch.Enabled),
		slog.Bool("serve", s.Serve.Enabled),
	)
}
