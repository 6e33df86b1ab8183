package tasks

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/showlist/internal/shared"
)

type pruner struct {
	mu      sync.Mutex
	cutoffs []time.Time
	removed int64
	err     error
	called  chan struct{}
}

func (p *pruner) DeleteBefore(cutoff time.Time) (int64, error) {
	p.mu.Lock()
	p.cutoffs = append(p.cutoffs, cutoff)
	p.mu.Unlock()

	if p.called != nil {
		select {
		case p.called <- struct{}{}:
		default:
		}
	}
	return p.removed, p.err
}

func TestRetention(t *testing.T) {
	t.Run("rejects a missing store or non-positive age", func(t *testing.T) {
		if _, err := NewRetention(nil, time.Hour, nil); !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
		if _, err := NewRetention(&pruner{}, 0, nil); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("PruneNow deletes before now minus max age", func(t *testing.T) {
		store := &pruner{removed: 3}
		r, err := NewRetention(store, 48*time.Hour, nil)
		if err != nil {
			t.Fatalf("NewRetention failed: %v", err)
		}
		now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
		r.now = func() time.Time { return now }

		removed, err := r.PruneNow()
		if err != nil {
			t.Fatalf("PruneNow failed: %v", err)
		}
		if removed != 3 {
			t.Errorf("expected 3 removed, got %d", removed)
		}
		if len(store.cutoffs) != 1 || !store.cutoffs[0].Equal(now.Add(-48*time.Hour)) {
			t.Errorf("unexpected cutoffs %v", store.cutoffs)
		}
	})

	t.Run("PruneNow wraps store errors", func(t *testing.T) {
		boom := errors.New("disk full")
		r, _ := NewRetention(&pruner{err: boom}, time.Hour, nil)

		if _, err := r.PruneNow(); !errors.Is(err, boom) {
			t.Errorf("expected wrapped store error, got %v", err)
		}
	})

	t.Run("Start rejects a bad schedule", func(t *testing.T) {
		r, _ := NewRetention(&pruner{}, time.Hour, nil)

		if err := r.Start("every tuesday-ish"); !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("Start runs the prune on schedule", func(t *testing.T) {
		store := &pruner{called: make(chan struct{}, 1)}
		r, _ := NewRetention(store, time.Hour, shared.DiscardLogger())

		if err := r.Start("@every 1s"); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		defer r.Stop()

		select {
		case <-store.called:
		case <-time.After(5 * time.Second):
			t.Fatal("scheduled prune never ran")
		}
	})
}
