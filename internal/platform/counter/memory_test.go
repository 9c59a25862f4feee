package counter

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryStore_SequentialValues(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for want := uint64(1); want <= 5; want++ {
		got, err := s.Next(ctx, "register:1:2024-06-01", 24*time.Hour)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("expected %d, got %d", want, got)
		}
	}
}

func TestMemoryStore_IndependentKeys(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.Next(ctx, "register:1:2024-06-01", 0)
	s.Next(ctx, "register:1:2024-06-01", 0)

	got, err := s.Next(ctx, "register:1:2024-06-02", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Errorf("expected fresh key to start at 1, got %d", got)
	}
}

func TestMemoryStore_ExpiryResetsCounter(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	current := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	s.Next(ctx, "register:1:2024-06-01", time.Hour)
	s.Next(ctx, "register:1:2024-06-01", time.Hour)

	current = current.Add(2 * time.Hour)

	got, err := s.Next(ctx, "register:1:2024-06-01", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 1 {
		t.Errorf("expected counter to restart at 1 after expiry, got %d", got)
	}
}

func TestMemoryStore_ConcurrentUnique(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	const n = 100
	results := make(chan uint64, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := s.Next(ctx, "register:1:2024-06-01", 0)
			if err != nil {
				t.Error(err)
				return
			}
			results <- v
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[uint64]bool)
	for v := range results {
		if seen[v] {
			t.Fatalf("duplicate value %d", v)
		}
		seen[v] = true
	}
	if len(seen) != n {
		t.Errorf("expected %d unique values, got %d", n, len(seen))
	}
}
