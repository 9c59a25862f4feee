package cases

import (
	"fmt"
	"strconv"
	"time"
)

const (
	caseCodeLen    = 9
	caseCodeSuffix = 5
	maxCaseSeq     = 99999
)

// YearShort renders the 2-digit year embedded in case codes.
func YearShort(t time.Time) string {
	return t.Format("06")
}

// NextCaseSequence scans existing case codes and returns the next sequence
// number for the given 2-digit year: max trailing sequence among same-year
// codes, plus one.
func NextCaseSequence(codes []string, yearShort string) int {
	max := 0
	for _, code := range codes {
		if len(code) != caseCodeLen || code[1:3] != yearShort {
			continue
		}
		n, err := strconv.Atoi(code[caseCodeLen-caseCodeSuffix:])
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return max + 1
}

// FormatCaseCode assembles the fixed 9-character case code:
// [urgency:1][year:2][material:1][sequence:5].
func FormatCaseCode(urgency UrgencyType, yearShort string, material MaterialType, seq int) (string, error) {
	if seq < 1 || seq > maxCaseSeq {
		return "", fmt.Errorf("case code sequence %d out of range for year %s", seq, yearShort)
	}
	return fmt.Sprintf("%c%s%c%05d", urgency.Code(), yearShort, material.Code(), seq), nil
}

// ValidSuffix reports whether s is exactly 5 ASCII digits.
func ValidSuffix(s string) bool {
	if len(s) != caseCodeSuffix {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ReplaceSuffix swaps the trailing 5 digits of a case code.
func ReplaceSuffix(code, suffix string) string {
	return code[:caseCodeLen-caseCodeSuffix] + suffix
}

// ReplaceParams swaps the urgency and material characters of a case code,
// keeping the year and sequence.
func ReplaceParams(code string, urgency UrgencyType, material MaterialType) string {
	return string(urgency.Code()) + code[1:3] + string(material.Code()) + code[4:]
}
