package ai

import (
	"errors"
	"testing"
)

func TestLevelFromScore(t *testing.T) {
	cases := []struct {
		score    float64
		expected MatchLevel
	}{
		{0.95, MatchHigh},
		{0.7, MatchHigh},
		{0.69, MatchMedium},
		{0.5, MatchMedium},
		{0.49, MatchLow},
		{0.3, MatchLow},
		{0.29, MatchVeryLow},
		{0, MatchVeryLow},
	}

	for _, tc := range cases {
		if got := LevelFromScore(tc.score); got != tc.expected {
			t.Fatalf("LevelFromScore(%v) = %q, expected %q", tc.score, got, tc.expected)
		}
	}
}

func TestIsValidLevel(t *testing.T) {
	for _, level := range []string{"high", "medium", "low", "very_low"} {
		if !IsValidLevel(level) {
			t.Fatalf("expected %q to be valid", level)
		}
	}

	for _, level := range []string{"", "HIGH", "excellent", "very low"} {
		if IsValidLevel(level) {
			t.Fatalf("expected %q to be invalid", level)
		}
	}
}

func TestParseErrorUnwrap(t *testing.T) {
	cause := errors.New("bad json")
	err := &ParseError{Raw: "not json", Err: cause}

	if !errors.Is(err, cause) {
		t.Fatal("expected ParseError to unwrap its cause")
	}

	if err.Raw != "not json" {
		t.Fatalf("unexpected raw payload: %q", err.Raw)
	}

	var parseErr *ParseError
	if !errors.As(error(err), &parseErr) {
		t.Fatal("expected errors.As to match *ParseError")
	}
}
