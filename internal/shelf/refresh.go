package shelf

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mdshelf/mdshelf/internal/domain"
)

// ScanFunc performs one tree scan. It matches Scanner.Scan.
type ScanFunc func(ctx context.Context, rootPath string) (*domain.TreeNode, error)

// Refresher serializes rescan requests with last-request-wins semantics:
// requesting a refresh while a scan is in flight cancels the in-flight scan,
// and a scan that completes after being superseded is discarded rather than
// delivered.
type Refresher struct {
	scan    ScanFunc
	deliver func(*domain.TreeNode)
	logger  *slog.Logger

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// deliverMu serializes the staleness check with the deliver call so a
	// superseded result can never land after the winning one.
	deliverMu sync.Mutex
}

// NewRefresher creates a refresher that runs scan and hands each winning
// result to deliver. deliver is never called with a superseded result.
func NewRefresher(scan ScanFunc, deliver func(*domain.TreeNode)) *Refresher {
	return &Refresher{
		scan:    scan,
		deliver: deliver,
		logger:  slog.Default(),
	}
}

// SetLogger replaces the refresher's logger.
func (r *Refresher) SetLogger(logger *slog.Logger) {
	r.logger = logger
}

// Request starts a scan of rootPath, cancelling any scan already in flight.
// It returns immediately; the result is delivered asynchronously.
func (r *Refresher) Request(ctx context.Context, rootPath string) {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	if r.cancel != nil {
		r.cancel()
	}
	scanCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()

		tree, err := r.scan(scanCtx, rootPath)

		r.deliverMu.Lock()
		defer r.deliverMu.Unlock()

		r.mu.Lock()
		stale := gen != r.gen
		r.mu.Unlock()

		if stale {
			// A newer request superseded this scan.
			return
		}
		if err != nil {
			r.logger.Warn("Rescan failed", "root", rootPath, "error", err)
			return
		}
		r.deliver(tree)
	}()
}

// Wait blocks until all in-flight scans have finished or been discarded.
func (r *Refresher) Wait() {
	r.wg.Wait()
}

// Stop cancels any in-flight scan and waits for it to finish.
func (r *Refresher) Stop() {
	r.mu.Lock()
	r.gen++ // invalidate any result still in flight
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()
	r.wg.Wait()
}
