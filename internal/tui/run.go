package tui

import (
	"context"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mdshelf/mdshelf/internal/app"
	"github.com/mdshelf/mdshelf/internal/domain"
	"github.com/mdshelf/mdshelf/internal/shelf"
)

// Run starts the terminal UI on a prepared session and blocks until the
// user quits or ctx is canceled. When watching is enabled, filesystem
// changes are debounced into rescans delivered to the running program.
func Run(ctx context.Context, session *app.Session) error {
	program := tea.NewProgram(
		NewModel(session),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	if session.Settings.Watch.Enabled {
		refresher := shelf.NewRefresher(session.Scanner.Scan, func(tree *domain.TreeNode) {
			session.SetTree(tree)
			program.Send(MsgTreeReady(tree))
		})
		defer refresher.Stop()

		watcher, err := shelf.NewWatcher(session.Scanner, session.Settings.Watch.Debounce, func() {
			refresher.Request(ctx, session.Settings.Root)
		})
		if err != nil {
			slog.Warn("Filesystem watcher unavailable", "error", err)
		} else {
			if err := watcher.Watch(session.Settings.Root); err != nil {
				slog.Warn("Failed to watch shelf root", "error", err)
			}
			defer func() { _ = watcher.Close() }()
		}
	}

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("terminal UI failed: %w", err)
	}
	return nil
}
