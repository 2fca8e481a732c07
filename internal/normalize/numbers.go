package normalize

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"golang-mpfile-service/internal/models"
)

// maxExactInteger is the largest float64 that holds every integer below it
const maxExactInteger = 1 << 53

// IsPlainNumber reports whether s is made only of ASCII digits with at
// most one decimal point. Signs, exponents, separators and blanks fail.
func IsPlainNumber(s string) bool {
	return IsDigits(strings.Replace(s, ".", "", 1))
}

// IsDigits reports whether s is a non-empty run of ASCII digits
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Amount coerces a cell into a non-negative decimal. Anything that is not
// a plain number yields zero.
func Amount(c models.Cell) decimal.Decimal {
	d, _ := PlainAmount(c)
	return d
}

// PlainAmount is Amount that also reports whether the cell held a plain number
func PlainAmount(c models.Cell) (decimal.Decimal, bool) {
	switch c.Kind {
	case models.CellNumber:
		if c.Number < 0 || math.IsInf(c.Number, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(c.Number), true
	case models.CellText:
		if !IsPlainNumber(c.Text) {
			return decimal.Zero, false
		}
		s := c.Text
		if strings.HasPrefix(s, ".") {
			s = "0" + s
		}
		s = strings.TrimSuffix(s, ".")
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return decimal.Zero, false
	}
}

// WholeNumber returns the integer held by a cell when the cell is a pure
// run of digits or an integral non-negative number
func WholeNumber(c models.Cell) (int64, bool) {
	switch c.Kind {
	case models.CellNumber:
		if c.Number < 0 || c.Number >= maxExactInteger || c.Number != math.Trunc(c.Number) {
			return 0, false
		}
		return int64(c.Number), true
	case models.CellText:
		if !IsDigits(c.Text) {
			return 0, false
		}
		n, err := strconv.ParseInt(c.Text, 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Term reads a policy term in months. Text is parsed leniently as a
// signed decimal; empty cells and non-numeric text fail.
func Term(c models.Cell) (float64, bool) {
	switch c.Kind {
	case models.CellNumber:
		return c.Number, !math.IsInf(c.Number, 0)
	case models.CellText:
		f, err := strconv.ParseFloat(strings.TrimSpace(c.Text), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Token lowercases and trims a cell's text rendering for keyword matching
func Token(c models.Cell) string {
	return strings.ToLower(strings.TrimSpace(c.String()))
}
