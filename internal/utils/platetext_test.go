package utils

import (
	"strings"
	"testing"
)

func TestCleanPlateText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"spaces and dash", "AB C-1234", "ABC1234"},
		{"lowercase", "abc1d23", "ABC1D23"},
		{"newlines and punctuation", "AB\nC1.23!4", "ABC1234"},
		{"empty", "", ""},
		{"only noise", " -.\n\t", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanPlateText(tt.raw); got != tt.want {
				t.Errorf("CleanPlateText(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestResolvePlateValidGrammars(t *testing.T) {
	// Inputs that already validate after cleaning must round-trip unchanged.
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"legacy", "ABC1234", "ABC1234"},
		{"legacy with noise", "AB C-1234", "ABC1234"},
		{"mercosul", "ABC1D23", "ABC1D23"},
		{"motorcycle", "AB1234", "AB1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolvePlate(tt.raw); got != tt.want {
				t.Errorf("ResolvePlate(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestResolvePlateCorrection(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		// 8 in a letter position becomes B, Z in a digit position becomes 2.
		{"confused glyphs both ways", "O8C1Z34", "OBC1234"},
		{"zero to letter O", "0BC1234", "OBC1234"},
		{"letter O to zero", "ABCO234", "ABC0234"},
		{"five and S", "5BC1S34", "SBC1534"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolvePlate(tt.raw)
			if got != tt.want {
				t.Errorf("ResolvePlate(%q) = %q, want %q", tt.raw, got, tt.want)
			}
			if !ValidPlate(got) {
				t.Errorf("corrected plate %q does not validate", got)
			}
		})
	}
}

func TestResolvePlateLengthBounds(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"too short", "AB123", ""},
		{"too long", "ABCD12345", ""},
		{"empty", "", ""},
		// Length in range but no grammar match: returned as-is, low confidence.
		{"unvalidated six chars", "A1B2C3", "A1B2C3"},
		{"unvalidated eight chars", "ABCD1234", "ABCD1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolvePlate(tt.raw); got != tt.want {
				t.Errorf("ResolvePlate(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestResolvePlateOutputAlphabet(t *testing.T) {
	// Whatever goes in, the result never carries characters outside A-Z0-9.
	inputs := []string{
		"AB C-1234", "o8c1z34", "###", "plate: xyz-9876!", "\n\tQW E12 34\n",
		"ÁÉÍ1234", "12345678901", "a", "",
	}

	for _, raw := range inputs {
		got := ResolvePlate(raw)
		if strings.IndexFunc(got, func(r rune) bool {
			return !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9')
		}) != -1 {
			t.Errorf("ResolvePlate(%q) = %q contains characters outside [A-Z0-9]", raw, got)
		}
	}
}

func TestAttemptCorrectionScope(t *testing.T) {
	// Correction only applies to 7-character strings and only toward the
	// 3-letters-4-digits layout.
	if got := attemptCorrection("AB1234"); got != "" {
		t.Errorf("attemptCorrection on 6 chars = %q, want empty", got)
	}
	if got := attemptCorrection("ABCD1234"); got != "" {
		t.Errorf("attemptCorrection on 8 chars = %q, want empty", got)
	}
	// 7 has no confusion mapping, so the first position stays a digit and
	// re-validation fails.
	if got := attemptCorrection("7BC1234"); got != "" {
		t.Errorf("attemptCorrection with unmappable digit = %q, want empty", got)
	}
}
