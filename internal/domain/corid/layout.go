package corid

import (
	"fmt"
	"time"
)

// Layout is the immutable bit layout an identifier is packed with. Widths are
// fixed at deployment time; changing them invalidates previously minted
// identifiers, hence the version field.
type Layout struct {
	Version      int
	VersionBits  int
	DaysBits     int
	FacilityBits int
	SequenceBits int
	Charset      string
	Epoch        time.Time
	SexSymbols   string
}

// Fields are the unpacked components of an identifier.
type Fields struct {
	Version        int `json:"version"`
	DaysSinceEpoch int `json:"days_since_epoch"`
	Facility       int `json:"facility"`
	Sequence       int `json:"sequence"`
}

func (l Layout) maxDays() uint64     { return (1 << l.DaysBits) - 1 }
func (l Layout) maxFacility() uint64 { return (1 << l.FacilityBits) - 1 }
func (l Layout) maxSequence() uint64 { return (1 << l.SequenceBits) - 1 }

// pack assembles the identifier integer, MSB to LSB: version, days, facility,
// sequence. Field overflow is an error, never silent truncation.
func (l Layout) pack(days, facility, seq uint64) (uint64, error) {
	if days > l.maxDays() {
		return 0, fmt.Errorf("days since epoch %d exceeds %d-bit field", days, l.DaysBits)
	}
	if facility > l.maxFacility() {
		return 0, fmt.Errorf("facility %d exceeds %d-bit field", facility, l.FacilityBits)
	}
	if seq > l.maxSequence() {
		return 0, fmt.Errorf("%w: sequence %d exceeds %d-bit field", ErrSequenceExhausted, seq, l.SequenceBits)
	}

	n := days<<(l.FacilityBits+l.SequenceBits) |
		facility<<l.SequenceBits |
		seq
	if l.VersionBits > 0 {
		n |= uint64(l.Version) << (l.DaysBits + l.FacilityBits + l.SequenceBits)
	}
	return n, nil
}

// unpack splits an identifier integer back into its fields.
func (l Layout) unpack(n uint64) Fields {
	return Fields{
		Version:        int((n >> (l.DaysBits + l.FacilityBits + l.SequenceBits)) & ((1 << l.VersionBits) - 1)),
		DaysSinceEpoch: int((n >> (l.FacilityBits + l.SequenceBits)) & l.maxDays()),
		Facility:       int((n >> l.SequenceBits) & l.maxFacility()),
		Sequence:       int(n & l.maxSequence()),
	}
}
