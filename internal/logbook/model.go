package logbook

import (
	"strings"
	"time"
)

// Section is a header line together with every line up to the next header.
type Section struct {
	Header string
	Body   []string
}

// String reassembles the section, terminating every line with a newline.
func (s Section) String() string {
	var b strings.Builder
	b.Grow(len(s.Header) + 1 + len(s.Body)*32)
	b.WriteString(s.Header)
	b.WriteByte('\n')
	for _, line := range s.Body {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// endsWithBlankLine reports whether the last body line is empty or whitespace.
func (s Section) endsWithBlankLine() bool {
	if len(s.Body) == 0 {
		return false
	}
	return strings.TrimSpace(s.Body[len(s.Body)-1]) == ""
}

// DateRange is an inclusive span of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether date falls within the range, bounds included.
func (r DateRange) Contains(date time.Time) bool {
	return !date.Before(r.Start) && !date.After(r.End)
}

// Validate rejects ranges whose start falls after their end.
func (r DateRange) Validate() error {
	if r.Start.After(r.End) {
		return ErrInvertedRange
	}
	return nil
}
