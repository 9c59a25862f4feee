// Package corid mints and decodes patient identifiers. An identifier is a
// bit-packed integer (format version, registration day, facility, daily
// sequence) rendered in a custom base-N alphabet, followed by the patient's
// birth year and sex, e.g. "7F3K2-1988M".
package corid

import (
	"fmt"
	"math"
	"strings"
)

// Encode renders n in positional base-K arithmetic over charset, most
// significant symbol first. charset[0] is the canonical zero.
func Encode(n uint64, charset string) string {
	base := uint64(len(charset))
	if n == 0 {
		return charset[:1]
	}

	// 64 digits covers the worst case, a 2-symbol charset encoding MaxUint64.
	var buf [64]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = charset[n%base]
		n /= base
	}
	return string(buf[i:])
}

// Decode parses a base-K string produced by Encode. Symbols outside the
// charset are rejected.
func Decode(s string, charset string) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: empty encoded value", ErrMalformedIdentifier)
	}

	base := uint64(len(charset))
	var n uint64
	for i := 0; i < len(s); i++ {
		idx := strings.IndexByte(charset, s[i])
		if idx < 0 {
			return 0, fmt.Errorf("%w: symbol %q not in charset", ErrMalformedIdentifier, s[i])
		}
		if n > (math.MaxUint64-uint64(idx))/base {
			return 0, fmt.Errorf("%w: encoded value exceeds 64 bits", ErrMalformedIdentifier)
		}
		n = n*base + uint64(idx)
	}
	return n, nil
}
