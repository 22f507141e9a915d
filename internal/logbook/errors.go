package logbook

import "errors"

// ErrInvalidDate is returned when a range bound is not a YYYY-MM-DD date.
var ErrInvalidDate = errors.New("invalid date (expected YYYY-MM-DD)")

// ErrNoEntriesInRange indicates filtering left nothing but whitespace.
var ErrNoEntriesInRange = errors.New("no entries found in the specified date range")

// ErrInvertedRange is returned by DateRange.Validate.
var ErrInvertedRange = errors.New("start date is after end date")
