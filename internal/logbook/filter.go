package logbook

import (
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// ParseDateRange parses YYYY-MM-DD bounds. Ordering of the bounds is left to
// the caller.
func ParseDateRange(start, end string) (DateRange, error) {
	from, err := parseDay(start)
	if err != nil {
		return DateRange{}, fmt.Errorf("start date %q: %w", start, err)
	}
	to, err := parseDay(end)
	if err != nil {
		return DateRange{}, fmt.Errorf("end date %q: %w", end, err)
	}
	return DateRange{Start: from, End: to}, nil
}

func parseDay(value string) (time.Time, error) {
	parsed, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return parsed, nil
}

// Qualifies reports whether any body line carries an embedded date inside r.
func (s Section) Qualifies(r DateRange) bool {
	for _, line := range s.Body {
		if date, ok := ParseEmbeddedDate(line); ok && r.Contains(date) {
			return true
		}
	}
	return false
}

// Filter keeps the sections of doc that have at least one embedded date within
// r, in their original order. Content before the first header is dropped.
// Kept sections are separated by a single blank line.
func Filter(doc string, r DateRange) string {
	_, sections := SplitSections(doc)

	var (
		b       strings.Builder
		prev    Section
		emitted bool
	)
	for _, section := range sections {
		if !section.Qualifies(r) {
			continue
		}
		if emitted && !prev.endsWithBlankLine() {
			b.WriteByte('\n')
		}
		b.WriteString(section.String())
		prev = section
		emitted = true
	}
	return b.String()
}

// Extract filters doc and reports ErrNoEntriesInRange when nothing remains.
func Extract(doc string, r DateRange) (string, error) {
	filtered := Filter(doc, r)
	if strings.TrimSpace(filtered) == "" {
		return "", ErrNoEntriesInRange
	}
	return filtered, nil
}
