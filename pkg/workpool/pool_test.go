package workpool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestProcess_Success(t *testing.T) {
	pool := New(Config{MaxConcurrent: 2}, zap.NewNop())

	items := []Item[string]{
		{ID: 1, Execute: func(ctx context.Context) (string, error) { return "a", nil }},
		{ID: 2, Execute: func(ctx context.Context) (string, error) { return "b", nil }},
		{ID: 3, Execute: func(ctx context.Context) (string, error) { return "c", nil }},
	}

	results := Process(context.Background(), pool, items, nil)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}

	// Results may arrive in any order.
	byID := make(map[int]string)
	for _, r := range results {
		if r.Err != nil {
			t.Errorf("item %d failed: %v", r.ID, r.Err)
		}
		byID[r.ID] = r.Result
	}
	if byID[1] != "a" || byID[2] != "b" || byID[3] != "c" {
		t.Errorf("unexpected results: %v", byID)
	}
}

func TestProcess_ContinuesThroughErrors(t *testing.T) {
	pool := New(Config{MaxConcurrent: 2}, zap.NewNop())
	failure := errors.New("build failed")

	items := []Item[int]{
		{ID: 1, Execute: func(ctx context.Context) (int, error) { return 10, nil }},
		{ID: 2, Execute: func(ctx context.Context) (int, error) { return 0, failure }},
		{ID: 3, Execute: func(ctx context.Context) (int, error) { return 30, nil }},
	}

	results := Process(context.Background(), pool, items, nil)

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			if r.ID != 2 {
				t.Errorf("unexpected failure for item %d", r.ID)
			}
		}
	}
	if failed != 1 {
		t.Errorf("expected exactly 1 failure, got %d", failed)
	}
}

func TestProcess_BoundedConcurrency(t *testing.T) {
	pool := New(Config{MaxConcurrent: 2}, zap.NewNop())

	var current, peak atomic.Int32
	items := make([]Item[struct{}], 10)
	for i := range items {
		items[i] = Item[struct{}]{
			ID: i,
			Execute: func(ctx context.Context) (struct{}, error) {
				n := current.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				current.Add(-1)
				return struct{}{}, nil
			},
		}
	}

	Process(context.Background(), pool, items, nil)

	if got := peak.Load(); got > 2 {
		t.Errorf("concurrency exceeded cap: peak %d", got)
	}
}

func TestProcess_ReportsProgress(t *testing.T) {
	pool := New(Config{MaxConcurrent: 4}, zap.NewNop())

	items := make([]Item[struct{}], 5)
	for i := range items {
		items[i] = Item[struct{}]{
			ID:      i,
			Execute: func(ctx context.Context) (struct{}, error) { return struct{}{}, nil },
		}
	}

	var calls atomic.Int32
	Process(context.Background(), pool, items, func(completed, total int) {
		calls.Add(1)
		if total != 5 {
			t.Errorf("expected total 5, got %d", total)
		}
	})

	if calls.Load() != 5 {
		t.Errorf("expected 5 progress calls, got %d", calls.Load())
	}
}

func TestProcess_CancelledContext(t *testing.T) {
	pool := New(Config{MaxConcurrent: 1}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := []Item[struct{}]{
		{ID: 1, Execute: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, ctx.Err()
		}},
	}

	results := Process(ctx, pool, items, nil)

	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}

func TestProcess_EmptyInput(t *testing.T) {
	pool := New(Config{}, zap.NewNop())

	if results := Process[int](context.Background(), pool, nil, nil); results != nil {
		t.Errorf("expected nil results for empty input, got %v", results)
	}
}
