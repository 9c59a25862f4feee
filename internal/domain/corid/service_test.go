package corid

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/corlab/corlab/internal/platform/counter"
)

func testLayout() Layout {
	return Layout{
		Version:      0,
		VersionBits:  1,
		DaysBits:     16,
		FacilityBits: 16,
		SequenceBits: 16,
		Charset:      testCharset,
		Epoch:        time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		SexSymbols:   "MF",
	}
}

func newTestService() *Service {
	svc := NewService(testLayout(), NewSequenceAllocator(counter.NewMemoryStore()), 1)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestMint_RoundTrip(t *testing.T) {
	svc := newTestService()

	id, err := svc.Mint(context.Background(), 1988, "M")
	if err != nil {
		t.Fatalf("Mint error: %v", err)
	}
	if !strings.HasSuffix(id, "-1988M") {
		t.Errorf("expected -1988M suffix, got %s", id)
	}

	decoded, err := svc.Decode(id)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if decoded.BirthYear != 1988 || decoded.Sex != "M" {
		t.Errorf("unexpected birth/sex: %+v", decoded)
	}
	if decoded.Facility != 1 {
		t.Errorf("expected facility 1, got %d", decoded.Facility)
	}
	if decoded.Sequence != 1 {
		t.Errorf("expected first daily sequence 1, got %d", decoded.Sequence)
	}
	// 2024-06-01 is 152 days after the 2024-01-01 epoch.
	if decoded.DaysSinceEpoch != 152 {
		t.Errorf("expected 152 days since epoch, got %d", decoded.DaysSinceEpoch)
	}
	if decoded.Version != 0 {
		t.Errorf("expected version 0, got %d", decoded.Version)
	}
}

func TestMint_SequenceIncrements(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	for want := 1; want <= 3; want++ {
		id, err := svc.Mint(ctx, 1990, "F")
		if err != nil {
			t.Fatalf("Mint error: %v", err)
		}
		decoded, err := svc.Decode(id)
		if err != nil {
			t.Fatalf("Decode error: %v", err)
		}
		if decoded.Sequence != want {
			t.Errorf("expected sequence %d, got %d", want, decoded.Sequence)
		}
	}
}

func TestMint_ConcurrentUnique(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	const n = 50
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := svc.Mint(ctx, 1985, "M")
			if err != nil {
				t.Error(err)
				return
			}
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		if seen[id] {
			t.Fatalf("duplicate identifier %s", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Errorf("expected %d unique identifiers, got %d", n, len(seen))
	}
}

func TestMint_InvalidSex(t *testing.T) {
	svc := newTestService()
	_, err := svc.Mint(context.Background(), 1988, "X")
	if !errors.Is(err, ErrMalformedIdentifier) {
		t.Errorf("expected ErrMalformedIdentifier, got %v", err)
	}
}

func TestMint_InvalidBirthYear(t *testing.T) {
	svc := newTestService()
	_, err := svc.Mint(context.Background(), 88, "M")
	if !errors.Is(err, ErrMalformedIdentifier) {
		t.Errorf("expected ErrMalformedIdentifier, got %v", err)
	}
}

func TestMint_SequenceExhausted(t *testing.T) {
	layout := testLayout()
	layout.SequenceBits = 2 // capacity 3 per day

	svc := NewService(layout, NewSequenceAllocator(counter.NewMemoryStore()), 1)
	svc.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Mint(ctx, 1988, "M"); err != nil {
			t.Fatalf("mint %d: %v", i+1, err)
		}
	}

	_, err := svc.Mint(ctx, 1988, "M")
	if !errors.Is(err, ErrSequenceExhausted) {
		t.Errorf("expected ErrSequenceExhausted, got %v", err)
	}
}

func TestDecode_Malformed(t *testing.T) {
	svc := newTestService()

	cases := []string{
		"7F3K21988M", // no separator
		"7F3K2-M",    // no birth year
		"7F3K2-1988X",
		"7F3K2-",
		"OIL-1988M", // symbols outside the alphabet
	}
	for _, id := range cases {
		if _, err := svc.Decode(id); !errors.Is(err, ErrMalformedIdentifier) {
			t.Errorf("Decode(%q): expected ErrMalformedIdentifier, got %v", id, err)
		}
	}
}
