package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mdshelf/mdshelf/internal/config"
	"github.com/mdshelf/mdshelf/internal/domain"
	"github.com/mdshelf/mdshelf/internal/search"
	"github.com/mdshelf/mdshelf/internal/shelf"
)

// StartServer serves the shelf over HTTP until ctx is canceled. When
// watching is enabled, filesystem changes trigger a rescan so /tree stays
// current.
func StartServer(ctx context.Context, session *Session, settings *config.Settings) error {
	srv := NewHTTPServer(session, settings)

	var watcher *shelf.Watcher
	if settings.Watch.Enabled {
		refresher := shelf.NewRefresher(session.Scanner.Scan, session.SetTree)
		defer refresher.Stop()

		w, err := shelf.NewWatcher(session.Scanner, settings.Watch.Debounce, func() {
			refresher.Request(ctx, settings.Root)
		})
		if err != nil {
			slog.Warn("Filesystem watcher unavailable", "error", err)
		} else {
			watcher = w
			if err := watcher.Watch(settings.Root); err != nil {
				slog.Warn("Failed to watch shelf root", "error", err)
			}
			defer func() { _ = watcher.Close() }()
		}
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	slog.Info("Server listening (HTTP)", "addr", srv.Addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// NewHTTPServer creates the HTTP server with the viewer endpoints.
func NewHTTPServer(session *Session, settings *config.Settings) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/tree", handleTree(session))
	mux.HandleFunc("/doc", handleDocument(session))
	mux.HandleFunc("/search", handleSearch(session))

	return &http.Server{
		Addr:    fmt.Sprintf("%s:%d", settings.Serve.Host, settings.Serve.Port),
		Handler: mux,
	}
}

// treeView is the JSON projection of a tree node.
type treeView struct {
	ID        string     `json:"id"`
	Kind      string     `json:"kind"`
	Name      string     `json:"name"`
	Path      string     `json:"path"`
	ItemCount int        `json:"item_count"`
	Children  []treeView `json:"children,omitempty"`
}

func toTreeView(node *domain.TreeNode) treeView {
	kind := "file"
	if node.IsFolder() {
		kind = "folder"
	}
	view := treeView{
		ID:        node.ID,
		Kind:      kind,
		Name:      node.Name,
		Path:      node.Path,
		ItemCount: node.ItemCount,
	}
	for _, child := range node.Children {
		view.Children = append(view.Children, toTreeView(child))
	}
	return view
}

func handleTree(session *Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tree := session.Tree()
		if tree == nil {
			http.Error(w, "shelf not scanned yet", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, toTreeView(tree))
	}
}

func handleDocument(session *Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		relPath := r.URL.Query().Get("path")
		doc, err := session.LoadDocument(relPath)
		if err != nil {
			status := http.StatusNotFound
			if errors.Is(err, ErrPathOutsideRoot) {
				status = http.StatusBadRequest
			}
			http.Error(w, err.Error(), status)
			return
		}
		writeJSON(w, doc)
	}
}

func handleSearch(session *Session) http.HandlerFunc {
	type response struct {
		Query string       `json:"query"`
		Total uint64       `json:"total"`
		Hits  []search.Hit `json:"hits"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query().Get("q")
		if query == "" {
			http.Error(w, "missing query parameter q", http.StatusBadRequest)
			return
		}
		folder := r.URL.Query().Get("folder")

		hits, total, err := session.SearchContent(r.Context(), query, folder)
		if err != nil {
			if errors.Is(err, search.ErrNotReady) {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, response{Query: query, Total: total, Hits: hits})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
