package util

import "testing"

func TestTruncateForLog(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		limit    int
		expected string
	}{
		{"short stays", "hola", 10, "hola"},
		{"exact limit", "hola", 4, "hola"},
		{"truncated", "hola mundo", 4, "hola..."},
		{"trimmed first", "  hola  ", 10, "hola"},
		{"zero limit", "hola", 0, ""},
		{"multibyte", "ñandú ñandú", 5, "ñandú..."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TruncateForLog(tc.input, tc.limit); got != tc.expected {
				t.Fatalf("TruncateForLog(%q, %d) = %q, expected %q", tc.input, tc.limit, got, tc.expected)
			}
		})
	}
}
