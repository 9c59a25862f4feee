package cases

import (
	"strconv"
	"strings"
)

// NextSampleLetter allocates the next sample number for a case. The smallest
// unused letter A..Z wins; once the alphabet is exhausted the sequence
// continues "Z2", "Z3", ... with the smallest unused ordinal.
func NextSampleLetter(existing []string) string {
	used := make(map[string]bool, len(existing))
	for _, n := range existing {
		used[n] = true
	}

	for c := byte('A'); c <= 'Z'; c++ {
		if !used[string(c)] {
			return string(c)
		}
	}

	for n := 2; ; n++ {
		candidate := "Z" + strconv.Itoa(n)
		if !used[candidate] {
			return candidate
		}
	}
}

// NextCassetteOrdinal returns the ordinal for the next cassette under a
// sample: one past the highest ordinal already used for that sample letter.
func NextCassetteOrdinal(existing []string, sampleNumber string) int {
	max := 0
	for _, num := range existing {
		if !strings.HasPrefix(num, sampleNumber) {
			continue
		}
		n, err := strconv.Atoi(num[len(sampleNumber):])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max + 1
}

// NextGlassNumber returns the smallest non-negative integer not present in
// existing. Numbers freed by deletion are reused.
func NextGlassNumber(existing []int) int {
	used := make(map[int]bool, len(existing))
	for _, n := range existing {
		used[n] = true
	}
	for n := 0; ; n++ {
		if !used[n] {
			return n
		}
	}
}
