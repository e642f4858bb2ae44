package sanitizer

import "testing"

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trim spaces", "  Weekly sync  ", "Weekly sync"},
		{"collapse inner whitespace", "Weekly \t\n  sync", "Weekly sync"},
		{"empty", "", ""},
		{"only whitespace", "  \t\n ", ""},
		{"drop control characters", "Room\x00 A\x07", "Room A"},
		{"keep unicode", " 주간 회의 ", "주간 회의"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTitle(tt.input); got != tt.want {
				t.Errorf("NormalizeTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeReason(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"blank", "   ", ""},
		{"single line", "  room under maintenance ", "room under maintenance"},
		{"keeps line breaks", "first line\n\n   second   line  \n", "first line\nsecond line"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeReason(tt.input); got != tt.want {
				t.Errorf("NormalizeReason(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	inputs := []string{"  a  b ", "x\n\n y \n", "\tz\t"}
	for _, in := range inputs {
		once := NormalizeReason(in)
		if twice := NormalizeReason(once); twice != once {
			t.Errorf("NormalizeReason not idempotent for %q: %q vs %q", in, once, twice)
		}
		once = NormalizeTitle(in)
		if twice := NormalizeTitle(once); twice != once {
			t.Errorf("NormalizeTitle not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}
