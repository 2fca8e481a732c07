// Package normalize converts raw input cells into calendar dates and numbers.
package normalize

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"golang-mpfile-service/internal/models"
)

const (
	// SerialThreshold is the smallest numeric value read as a spreadsheet
	// date serial. Smaller numbers are not dates.
	SerialThreshold = 30000

	// maxSerial is 9999-12-31
	maxSerial = 2958465

	// maxTermMonths keeps maturity dates inside four digit years
	maxTermMonths = 12 * 9999

	// DaysPerMonthFraction converts the fractional part of a month term into days
	DaysPerMonthFraction = 30
)

// ExcelEpoch is day zero of the spreadsheet serial date system
var ExcelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

var (
	// ErrZeroTerm is returned for a policy term of zero months
	ErrZeroTerm = errors.New("policy term is zero")
	// ErrInvalidTerm is returned for a term that is not a finite number of
	// months a calendar can hold
	ErrInvalidTerm = errors.New("policy term is out of range")
)

// fallbackLayouts cover forms the text parser rejects. Digit-only values
// are read only through these, so they are never taken as epoch seconds.
// Single digit layout elements accept one or two digits.
var fallbackLayouts = []string{
	"2006-1-2",
	"2006-1-2 15:04:05",
	"2006-1-2 15:04",
	"2006-1-2T15:04:05",
	time.RFC3339,
	"2006/1/2",
	"2006/1/2 15:04:05",
	"2006.1.2",
	"2/1/2006",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006 3:04 PM",
	"2/1/2006 3:04:05 PM",
	"2-1-2006",
	"2-1-2006 15:04:05",
	"2.1.2006",
	"2/1/06",
	"2-1-06",
	"2-Jan-2006",
	"2-Jan-06",
	"2 Jan 2006",
	"2 Jan, 2006",
	"2 January 2006",
	"2-January-2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"January 2 2006",
	"20060102",
	// month first, for values such as 12/25/2020
	"1/2/2006",
	"1/2/2006 15:04:05",
	"1-2-2006",
	"1/2/06",
}

// Date returns the UTC midnight of t's calendar date
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// NormalizeDate converts a cell into a calendar date. Numbers above
// SerialThreshold are spreadsheet serials; everything else is parsed as
// text with the day before the month. The boolean is false when no date
// can be derived.
func NormalizeDate(c models.Cell) (time.Time, bool) {
	switch c.Kind {
	case models.CellNumber:
		if c.Number > SerialThreshold {
			return FromSerial(c.Number)
		}
		return time.Time{}, false
	case models.CellText:
		return ParseDate(c.Text)
	default:
		return time.Time{}, false
	}
}

// FromSerial converts a spreadsheet serial into a calendar date. Any
// time-of-day fraction is dropped.
func FromSerial(serial float64) (time.Time, bool) {
	if math.IsNaN(serial) || math.IsInf(serial, 0) || serial < 0 || serial > maxSerial {
		return time.Time{}, false
	}
	return ExcelEpoch.AddDate(0, 0, int(math.Floor(serial))), true
}

// ParseDate parses a textual date. Ambiguous numeric dates are read day
// first and retried month first when that reading is impossible.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if !allDigits(s) {
		t, err := dateparse.ParseIn(s, time.UTC,
			dateparse.PreferMonthFirst(false),
			dateparse.RetryAmbiguousDateWithSwap(true))
		if err == nil {
			return Date(t), true
		}
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date(t), true
		}
	}
	return time.Time{}, false
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// YYYYMMDD renders a date as the integer yyyymmdd
func YYYYMMDD(t time.Time) int64 {
	y, m, d := t.Date()
	return int64(y)*10000 + int64(m)*100 + int64(d)
}

// MaturityDate adds a term in months to start. Whole years and months are
// added first, with the day clipped to the end of the target month, then
// the fractional month is added as a flat number of days.
func MaturityDate(start time.Time, termMonths float64) (time.Time, error) {
	if math.IsNaN(termMonths) || math.IsInf(termMonths, 0) || math.Abs(termMonths) > maxTermMonths {
		return time.Time{}, ErrInvalidTerm
	}
	if termMonths == 0 {
		return time.Time{}, ErrZeroTerm
	}

	years := math.Floor(termMonths / 12)
	months := floorMod(termMonths, 12)
	fraction := termMonths - math.Floor(termMonths)

	wholeMonths := int(years)*12 + int(months)
	days := int(fraction * DaysPerMonthFraction)

	return addMonthsClipped(Date(start), wholeMonths).AddDate(0, 0, days), nil
}

// floorMod is the modulo whose result takes the sign of the divisor
func floorMod(a, b float64) float64 {
	return a - b*math.Floor(a/b)
}

func addMonthsClipped(t time.Time, months int) time.Time {
	y, m, d := t.Date()

	total := int(m) - 1 + months
	year := y + floorDiv(total, 12)
	month := time.Month(total - floorDiv(total, 12)*12 + 1)

	if last := daysIn(year, month); d > last {
		d = last
	}
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
