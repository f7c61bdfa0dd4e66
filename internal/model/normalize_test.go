package model

import "testing"

func TestNormalizeCityKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trims and lowercases", "  Kolkata ", "kolkata"},
		{"already normalized", "kolkata", "kolkata"},
		{"empty maps to default", "", DefaultKey},
		{"blank maps to default", "   ", DefaultKey},
		{"internal whitespace collapsed", "New   Delhi", "new_delhi"},
		{"alias bombay", "Bombay", "mumbai"},
		{"alias bangalore", "bangalore", "bengaluru"},
		{"alias madras", " MADRAS ", "chennai"},
		{"unmapped passes through", "pune", "pune"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeCityKey(tt.in); got != tt.want {
				t.Fatalf("NormalizeCityKey(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeCityKeyEquivalence(t *testing.T) {
	if NormalizeCityKey("  Kolkata ") != NormalizeCityKey("kolkata") {
		t.Fatal("differently formatted inputs for the same city must normalize to the same key")
	}
}
