package corid

import (
	"context"
	"time"

	"github.com/corlab/corlab/internal/platform/counter"
)

// sequenceTTL keeps a day's counter alive long enough to cover the whole day.
const sequenceTTL = 24 * time.Hour

// SequenceAllocator hands out a strictly increasing per-scope, per-day
// sequence. The first call for a new scope returns 1 and arms the daily
// expiry; concurrent callers never observe the same value.
type SequenceAllocator struct {
	store counter.Store
}

func NewSequenceAllocator(store counter.Store) *SequenceAllocator {
	return &SequenceAllocator{store: store}
}

func (a *SequenceAllocator) Next(ctx context.Context, scope string) (uint64, error) {
	return a.store.Next(ctx, scope, sequenceTTL)
}
