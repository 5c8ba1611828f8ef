package db

import "fmt"

// LexRange is a parsed ZRANGEBYLEX bound pair shared by drivers that emulate it.
type LexRange struct {
	Min, Max       string
	MinInc, MaxInc bool
	MinOpen        bool // "-"
	MaxOpen        bool // "+"
}

// ParseLexRange parses min/max bounds in the "[x", "(x", "-", "+" grammar.
func ParseLexRange(minBound, maxBound string) (LexRange, error) {
	var r LexRange
	var err error
	if minBound == "-" {
		r.MinOpen = true
	} else if r.Min, r.MinInc, err = parseBound(minBound); err != nil {
		return LexRange{}, err
	}
	if maxBound == "+" {
		r.MaxOpen = true
	} else if r.Max, r.MaxInc, err = parseBound(maxBound); err != nil {
		return LexRange{}, err
	}
	return r, nil
}

func parseBound(b string) (string, bool, error) {
	if b == "" {
		return "", false, fmt.Errorf("%w: empty", ErrBadBound)
	}
	switch b[0] {
	case '[':
		return b[1:], true, nil
	case '(':
		return b[1:], false, nil
	default:
		return "", false, fmt.Errorf("%w: %q", ErrBadBound, b)
	}
}

// Contains reports whether member falls within the range.
func (r LexRange) Contains(member string) bool {
	if !r.MinOpen {
		if member < r.Min || (!r.MinInc && member == r.Min) {
			return false
		}
	}
	if !r.MaxOpen {
		if member > r.Max || (!r.MaxInc && member == r.Max) {
			return false
		}
	}
	return true
}
