package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidSelection is returned by ParseSelection for malformed input.
var ErrInvalidSelection = errors.New("invalid chapter selection")

// Selection is a set of chapter key ranges. The zero value selects nothing;
// use SelectAll for everything.
type Selection struct {
	all    bool
	ranges []keyRange
}

type keyRange struct {
	start, end float64
}

// SelectAll returns a Selection matching every chapter.
func SelectAll() Selection {
	return Selection{all: true}
}

// SelectKeys returns a Selection matching exactly the given keys.
func SelectKeys(keys ...float64) Selection {
	sel := Selection{ranges: make([]keyRange, 0, len(keys))}
	for _, k := range keys {
		sel.ranges = append(sel.ranges, keyRange{start: k, end: k})
	}
	return sel
}

// ParseSelection parses a comma separated list of keys and inclusive
// ranges, e.g. "1-10, 12, 15.5". "all" or an empty string selects
// everything.
func ParseSelection(expr string) (Selection, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" || strings.EqualFold(expr, "all") {
		return SelectAll(), nil
	}

	var sel Selection
	for part := range strings.SplitSeq(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return Selection{}, fmt.Errorf("%w: empty element in %q", ErrInvalidSelection, expr)
		}

		lo, hi, isRange := strings.Cut(part, "-")
		start, err := parseKey(lo)
		if err != nil {
			return Selection{}, err
		}
		end := start
		if isRange {
			if end, err = parseKey(hi); err != nil {
				return Selection{}, err
			}
		}
		if end < start {
			return Selection{}, fmt.Errorf("%w: range %q is reversed", ErrInvalidSelection, part)
		}
		sel.ranges = append(sel.ranges, keyRange{start: start, end: end})
	}
	return sel, nil
}

// Matches reports whether number is selected.
func (s Selection) Matches(number float64) bool {
	if s.all {
		return true
	}
	for _, r := range s.ranges {
		if number >= r.start && number <= r.end {
			return true
		}
	}
	return false
}

// IsAll reports whether the selection matches every chapter.
func (s Selection) IsAll() bool {
	return s.all
}

func parseKey(s string) (float64, error) {
	n, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q is not a chapter number", ErrInvalidSelection, s)
	}
	return n, nil
}
