package cases

import "testing"

func TestNextSampleLetter(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		want     string
	}{
		{"first", nil, "A"},
		{"second", []string{"A"}, "B"},
		{"fills gap", []string{"A", "C"}, "B"},
		{"after z", fullAlphabet(), "Z2"},
		{"after z2", append(fullAlphabet(), "Z2"), "Z3"},
		{"z ordinal gap", append(fullAlphabet(), "Z2", "Z4"), "Z3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextSampleLetter(tt.existing); got != tt.want {
				t.Errorf("NextSampleLetter = %q, want %q", got, tt.want)
			}
		})
	}
}

func fullAlphabet() []string {
	letters := make([]string, 0, 26)
	for c := byte('A'); c <= 'Z'; c++ {
		letters = append(letters, string(c))
	}
	return letters
}

func TestNextCassetteOrdinal(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		sample   string
		want     int
	}{
		{"first", nil, "A", 1},
		{"continues", []string{"A1", "A2"}, "A", 3},
		{"ignores other samples", []string{"A1", "B1", "B2"}, "A", 2},
		{"gap not reused", []string{"A1", "A3"}, "A", 4},
		{"z2 prefix", []string{"Z21", "Z22"}, "Z2", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextCassetteOrdinal(tt.existing, tt.sample); got != tt.want {
				t.Errorf("NextCassetteOrdinal = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNextGlassNumber(t *testing.T) {
	tests := []struct {
		name     string
		existing []int
		want     int
	}{
		{"first", nil, 0},
		{"second", []int{0}, 1},
		{"reuses freed", []int{0, 2}, 1},
		{"dense", []int{0, 1, 2}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextGlassNumber(tt.existing); got != tt.want {
				t.Errorf("NextGlassNumber = %d, want %d", got, tt.want)
			}
		})
	}
}
