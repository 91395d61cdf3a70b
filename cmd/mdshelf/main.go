package main

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mdshelf/mdshelf/internal/app"
	"github.com/mdshelf/mdshelf/internal/tui"
)

var (
	// Version is injected at build time
	Version = "dev"
	// Build is injected at build time
	Build = "unknown"
	// ProgramName is injected at build time
	ProgramName = "mdshelf"
)

func main() {
	runMain(os.Args, os.Exit)
}

func runMain(args []string, exit func(int)) {
	if err := Execute(Version, Build, ProgramName, args[1:]); err != nil {
		exit(1)
	}
}

// Execute is the entry point for the CLI, extracted for testing
func Execute(version, build, programName string, args []string) error {
	rootCmd := &cobra.Command{
		Use:     programName,
		Short:   "Markdown tutorial shelf browser",
		Long:    "Browse, filter, and search a directory tree of markdown tutorials from the terminal or over HTTP",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithFlags(cmd.Flags(), version)
		},
	}

	rootCmd.SetVersionTemplate(`{{.Version}}
`)

	app.RegisterFlags(rootCmd.Flags())

	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Run a one-shot full-text search over the shelf",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return app.RunSearch(context.Background(), app.DefaultRunParams(), cmd.Flags(), query)
		},
	}
	app.RegisterFlags(searchCmd.Flags())
	rootCmd.AddCommand(searchCmd)

	rootCmd.SetArgs(args)

	return rootCmd.Execute()
}

func runWithFlags(flags *pflag.FlagSet, version string) error {
	params := app.DefaultRunParams()
	params.StartUI = tui.Run
	return app.RunWithDeps(context.Background(), params, flags, version)
}
