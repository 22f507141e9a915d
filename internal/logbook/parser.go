package logbook

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// embeddedDatePattern matches annotations such as "(Jul 29, 2025)" or "(July 29, 2025)".
var embeddedDatePattern = regexp.MustCompile(`\(([A-Za-z]{3,9})\s+(\d{1,2}),\s+(\d{4})\)`)

var monthNames = map[string]time.Month{
	"jan": time.January, "january": time.January,
	"feb": time.February, "february": time.February,
	"mar": time.March, "march": time.March,
	"apr": time.April, "april": time.April,
	"may": time.May,
	"jun": time.June, "june": time.June,
	"jul": time.July, "july": time.July,
	"aug": time.August, "august": time.August,
	"sep": time.September, "september": time.September,
	"oct": time.October, "october": time.October,
	"nov": time.November, "november": time.November,
	"dec": time.December, "december": time.December,
}

// ParseEmbeddedDate extracts the first parenthesised date annotation in line.
// Unknown month names and impossible calendar dates yield false.
func ParseEmbeddedDate(line string) (time.Time, bool) {
	matches := embeddedDatePattern.FindStringSubmatch(line)
	if matches == nil {
		return time.Time{}, false
	}

	month, ok := monthNames[strings.ToLower(matches[1])]
	if !ok {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(matches[2])
	if err != nil {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(matches[3])
	if err != nil {
		return time.Time{}, false
	}

	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 30 -> Mar 2); reject instead.
	if date.Year() != year || date.Month() != month || date.Day() != day {
		return time.Time{}, false
	}
	return date, true
}

// SplitSections breaks doc into the lines preceding the first header and the
// header-delimited sections that follow. Concatenating the preamble and the
// sections reproduces the document's line sequence.
func SplitSections(doc string) ([]string, []Section) {
	var (
		preamble []string
		sections []Section
		current  *Section
	)

	for _, line := range splitLines(doc) {
		if isHeading(line) {
			if current != nil {
				sections = append(sections, *current)
			}
			current = &Section{Header: line}
			continue
		}
		if current == nil {
			preamble = append(preamble, line)
			continue
		}
		current.Body = append(current.Body, line)
	}

	if current != nil {
		sections = append(sections, *current)
	}
	return preamble, sections
}

func isHeading(line string) bool {
	return strings.HasPrefix(strings.TrimLeft(line, " \t"), "#")
}

func splitLines(input string) []string {
	if input == "" {
		return nil
	}
	input = strings.ReplaceAll(input, "\r\n", "\n")
	lines := strings.Split(input, "\n")
	// Remove the trailing empty element produced by Split when the input ends with a newline.
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
