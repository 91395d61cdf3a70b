package app

import "github.com/spf13/pflag"

// RegisterFlags registers all CLI flags on the given FlagSet
func RegisterFlags(flags *pflag.FlagSet) {
	flags.StringP("root", "r", "", "Root directory of the markdown shelf")
	flags.StringSliceP("extensions", "e", nil, "Markdown file extensions (comma-separated)")
	flags.String("state-dir", "", "Directory for persisted state and indexes")
	flags.Bool("serve", false, "Serve the shelf over HTTP instead of the terminal UI")
	flags.StringP("host", "H", "", "Host for HTTP serve mode")
	flags.IntP("port", "p", 0, "Port for HTTP serve mode")
	flags.Bool("no-watch", false, "Disable filesystem watching")
	flags.Bool("no-content-search", false, "Disable full-text content search")
}
