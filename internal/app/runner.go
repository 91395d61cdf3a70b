package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mdshelf/mdshelf/internal/config"
	"github.com/spf13/pflag"
)

// RunParams contains dependencies for the run function
type RunParams struct {
	LoadSettings  func(*pflag.FlagSet) (*config.Settings, error)
	ValidSettings func(*config.Settings) error
	StartServer   func(context.Context, *Session, *config.Settings) error
	StartUI       func(context.Context, *Session) error
}

// DefaultRunParams returns production dependencies. StartUI is wired by the
// command entry point to avoid pulling the terminal toolkit into this
// package.
func DefaultRunParams() RunParams {
	return RunParams{
		LoadSettings:  config.LoadSettingsWithFlags,
		ValidSettings: config.ValidateSettings,
		StartServer:   StartServer,
	}
}

// RunWithDeps executes the application with the provided dependencies
func RunWithDeps(ctx context.Context, params RunParams, flags *pflag.FlagSet, version string) error {
	settings, err := params.LoadSettings(flags)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	if err := params.ValidSettings(settings); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Configure logging - always use stderr to keep stdout for the UI
	handler := slog.NewTextHandler(os.Stderr, nil)
	slog.SetDefault(slog.New(handler))

	slog.Info("Starting mdshelf", "version", version)
	config.Log(settings)

	session, cleanup, err := NewSession(settings)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := session.Rescan(ctx); err != nil {
		return fmt.Errorf("initial scan failed: %w", err)
	}

	if settings.Serve.Enabled {
		slog.Info("Starting HTTP server", "host", settings.Serve.Host, "port", settings.Serve.Port)
		return params.StartServer(ctx, session, settings)
	}

	if params.StartUI == nil {
		return fmt.Errorf("no terminal UI configured; use --serve for HTTP mode")
	}
	return params.StartUI(ctx, session)
}

// RunSearch executes a one-shot content search and prints the ranked hits
// to stdout. Used by the search subcommand.
func RunSearch(ctx context.Context, params RunParams, flags *pflag.FlagSet, query string) error {
	settings, err := params.LoadSettings(flags)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if err := params.ValidSettings(settings); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if !settings.ContentSearch.Enabled {
		return fmt.Errorf("content search is disabled")
	}

	handler := slog.NewTextHandler(os.Stderr, nil)
	slog.SetDefault(slog.New(handler))

	session, cleanup, err := NewSession(settings)
	if err != nil {
		return err
	}
	defer cleanup()

	hits, total, err := session.SearchContent(ctx, query, "")
	if err != nil {
		return err
	}

	fmt.Printf("%d documents matched\n", total)
	for _, hit := range hits {
		fmt.Printf("%s\t%s\t(score %.2f)\n", hit.Path, hit.Title, hit.Score)
		for _, fragment := range hit.Fragments {
			fmt.Printf("    %s\n", fragment)
		}
	}
	return nil
}
