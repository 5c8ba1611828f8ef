package db

import (
	"errors"
	"testing"
)

func TestParseLexRange(t *testing.T) {
	tests := []struct {
		name     string
		min, max string
		member   string
		want     bool
	}{
		{"inclusive prefix", "[ann", "(ano", "anna", true},
		{"exact min", "[ann", "(ano", "ann", true},
		{"exclusive max", "[ann", "(ano", "ano", false},
		{"below", "[ann", "(ano", "anm", false},
		{"exclusive min", "(ann", "+", "ann", false},
		{"open both", "-", "+", "", true},
		{"inclusive max", "-", "[b", "b", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ParseLexRange(tt.min, tt.max)
			if err != nil {
				t.Fatalf("ParseLexRange: %v", err)
			}
			if got := r.Contains(tt.member); got != tt.want {
				t.Errorf("Contains(%q) = %v, want %v", tt.member, got, tt.want)
			}
		})
	}
}

func TestParseLexRange_BadBound(t *testing.T) {
	if _, err := ParseLexRange("ann", "+"); !errors.Is(err, ErrBadBound) {
		t.Fatalf("expected ErrBadBound, got %v", err)
	}
	if _, err := ParseLexRange("-", ""); !errors.Is(err, ErrBadBound) {
		t.Fatalf("expected ErrBadBound, got %v", err)
	}
}

func TestError_IsUnavailable(t *testing.T) {
	err := error(&Error{Op: OpGet, Err: errors.New("connection refused")})
	if !errors.Is(err, ErrUnavailable) {
		t.Error("db.Error should match ErrUnavailable")
	}
	if errors.Is(err, ErrKeyNotFound) {
		t.Error("db.Error should not match ErrKeyNotFound")
	}
	if err.Error() != "GET: connection refused" {
		t.Errorf("Error() = %q", err.Error())
	}
}
