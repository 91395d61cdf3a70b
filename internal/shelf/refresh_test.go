package shelf

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mdshelf/mdshelf/internal/domain"
)

// collector records delivered trees.
type collector struct {
	mu    sync.Mutex
	trees []*domain.TreeNode
}

func (c *collector) deliver(tree *domain.TreeNode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trees = append(c.trees, tree)
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.trees)
}

func (c *collector) last() *domain.TreeNode {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.trees) == 0 {
		return nil
	}
	return c.trees[len(c.trees)-1]
}

func TestRefresher_DeliversResult(t *testing.T) {
	want := &domain.TreeNode{Name: "root"}
	scan := func(ctx context.Context, root string) (*domain.TreeNode, error) {
		return want, nil
	}

	c := &collector{}
	r := NewRefresher(scan, c.deliver)
	r.Request(context.Background(), "/shelf")
	r.Wait()

	if c.count() != 1 {
		t.Fatalf("Delivered %d trees, want 1", c.count())
	}
	if c.last() != want {
		t.Error("Delivered tree is not the scan result")
	}
}

func TestRefresher_LastRequestWins(t *testing.T) {
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex

	scan := func(ctx context.Context, root string) (*domain.TreeNode, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			// First scan stalls until the second one has been requested,
			// then completes; its result must be discarded.
			select {
			case <-release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			return &domain.TreeNode{Name: "stale"}, nil
		}
		return &domain.TreeNode{Name: "fresh"}, nil
	}

	c := &collector{}
	r := NewRefresher(scan, c.deliver)
	r.Request(context.Background(), "/shelf")
	r.Request(context.Background(), "/shelf")
	close(release)
	r.Wait()

	if c.count() != 1 {
		t.Fatalf("Delivered %d trees, want 1", c.count())
	}
	if got := c.last().Name; got != "fresh" {
		t.Errorf("Delivered tree = %q, want %q", got, "fresh")
	}
}

func TestRefresher_SlowDeliveryNeverOvertaken(t *testing.T) {
	var calls int
	var mu sync.Mutex

	scan := func(ctx context.Context, root string) (*domain.TreeNode, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			return &domain.TreeNode{Name: "first"}, nil
		}
		return &domain.TreeNode{Name: "second"}, nil
	}

	// The first delivery stalls mid-flight while a second request is
	// issued and completes. The second result must still land last, so
	// the installed tree is the newest one.
	firstDelivering := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	c := &collector{}
	deliver := func(tree *domain.TreeNode) {
		once.Do(func() {
			close(firstDelivering)
			<-release
		})
		c.deliver(tree)
	}

	r := NewRefresher(scan, deliver)
	r.Request(context.Background(), "/shelf")

	select {
	case <-firstDelivering:
	case <-time.After(2 * time.Second):
		t.Fatal("First result was never delivered")
	}

	r.Request(context.Background(), "/shelf")
	close(release)
	r.Wait()

	if got := c.last().Name; got != "second" {
		t.Errorf("Last delivered tree = %q, want %q", got, "second")
	}
}

func TestRefresher_SupersededScanIsCanceled(t *testing.T) {
	firstCanceled := make(chan struct{})
	var once sync.Once
	var calls int
	var mu sync.Mutex

	scan := func(ctx context.Context, root string) (*domain.TreeNode, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			<-ctx.Done()
			once.Do(func() { close(firstCanceled) })
			return nil, ctx.Err()
		}
		return &domain.TreeNode{Name: "fresh"}, nil
	}

	c := &collector{}
	r := NewRefresher(scan, c.deliver)
	r.Request(context.Background(), "/shelf")
	r.Request(context.Background(), "/shelf")

	select {
	case <-firstCanceled:
	case <-time.After(2 * time.Second):
		t.Fatal("First scan was not canceled by the second request")
	}
	r.Wait()

	if c.count() != 1 {
		t.Errorf("Delivered %d trees, want 1", c.count())
	}
}

func TestRefresher_ScanErrorNotDelivered(t *testing.T) {
	scan := func(ctx context.Context, root string) (*domain.TreeNode, error) {
		return nil, errors.New("disk on fire")
	}

	c := &collector{}
	r := NewRefresher(scan, c.deliver)
	r.Request(context.Background(), "/shelf")
	r.Wait()

	if c.count() != 0 {
		t.Errorf("Delivered %d trees, want 0", c.count())
	}
}

func TestRefresher_StopDiscardsInFlight(t *testing.T) {
	scan := func(ctx context.Context, root string) (*domain.TreeNode, error) {
		<-ctx.Done()
		return &domain.TreeNode{Name: "late"}, nil
	}

	c := &collector{}
	r := NewRefresher(scan, c.deliver)
	r.Request(context.Background(), "/shelf")
	r.Stop()

	if c.count() != 0 {
		t.Errorf("Delivered %d trees after Stop, want 0", c.count())
	}
}
