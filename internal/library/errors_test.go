package library

import (
	"errors"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		ok    bool
	}{
		{"plain", "Music", true},
		{"spaces and unicode", "Live Sets 2024 ♪", true},
		{"empty", "", false},
		{"blank", "   ", false},
		{"reserved prefix", ".hidden", false},
		{"slash", "a/b", false},
		{"backslash", `a\b`, false},
		{"colon", "a:b", false},
		{"question mark", "why?", false},
		{"pipe", "a|b", false},
		{"control char", "a\tb", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if tt.ok && err != nil {
				t.Errorf("ValidateName(%q) = %v, want nil", tt.input, err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidName) {
				t.Errorf("ValidateName(%q) = %v, want ErrInvalidName", tt.input, err)
			}
		})
	}
}
