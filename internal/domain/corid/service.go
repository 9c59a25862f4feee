package corid

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Decoded is the full breakdown of a patient identifier.
type Decoded struct {
	Fields
	BirthYear int    `json:"birth_year"`
	Sex       string `json:"sex"`
}

// Service mints and decodes patient identifiers for one facility.
type Service struct {
	layout   Layout
	alloc    *SequenceAllocator
	facility int

	now func() time.Time
}

func NewService(layout Layout, alloc *SequenceAllocator, facility int) *Service {
	return &Service{
		layout:   layout,
		alloc:    alloc,
		facility: facility,
		now:      time.Now,
	}
}

// Mint allocates the next daily sequence number for the facility and packs it
// with today's day offset into a new identifier. Identifiers are unique by
// construction: the sequence never repeats within a facility-day and the day
// and facility fields separate everything else.
func (s *Service) Mint(ctx context.Context, birthYear int, sex string) (string, error) {
	if len(sex) != 1 || !strings.Contains(s.layout.SexSymbols, sex) {
		return "", fmt.Errorf("%w: sex must be one of %q", ErrMalformedIdentifier, s.layout.SexSymbols)
	}
	if birthYear < 1000 || birthYear > 9999 {
		return "", fmt.Errorf("%w: birth year %d out of range", ErrMalformedIdentifier, birthYear)
	}

	today := s.now().UTC().Truncate(24 * time.Hour)
	days := int(today.Sub(s.layout.Epoch).Hours() / 24)
	if days < 0 {
		return "", fmt.Errorf("current date precedes identifier epoch %s", s.layout.Epoch.Format("2006-01-02"))
	}

	scope := fmt.Sprintf("register:%d:%s", s.facility, today.Format("2006-01-02"))
	seq, err := s.alloc.Next(ctx, scope)
	if err != nil {
		return "", fmt.Errorf("allocate daily sequence: %w", err)
	}

	n, err := s.layout.pack(uint64(days), uint64(s.facility), seq)
	if err != nil {
		return "", err
	}

	return Encode(n, s.layout.Charset) + "-" + strconv.Itoa(birthYear) + sex, nil
}

// Decode splits an identifier on its last separator and unpacks the encoded
// integer and the birth-year/sex tail.
func (s *Service) Decode(id string) (*Decoded, error) {
	sep := strings.LastIndexByte(id, '-')
	if sep < 0 {
		return nil, fmt.Errorf("%w: missing separator", ErrMalformedIdentifier)
	}

	encoded, tail := id[:sep], id[sep+1:]
	if len(tail) < 2 {
		return nil, fmt.Errorf("%w: truncated birth-year/sex suffix", ErrMalformedIdentifier)
	}

	sex := tail[len(tail)-1:]
	if !strings.Contains(s.layout.SexSymbols, sex) {
		return nil, fmt.Errorf("%w: unknown sex symbol %q", ErrMalformedIdentifier, sex)
	}

	birthYear, err := strconv.Atoi(tail[:len(tail)-1])
	if err != nil {
		return nil, fmt.Errorf("%w: birth year %q", ErrMalformedIdentifier, tail[:len(tail)-1])
	}

	n, err := Decode(encoded, s.layout.Charset)
	if err != nil {
		return nil, err
	}

	return &Decoded{
		Fields:    s.layout.unpack(n),
		BirthYear: birthYear,
		Sex:       sex,
	}, nil
}
