package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// CellKind discriminates the value held by a Cell
type CellKind int

const (
	// CellEmpty is a missing or blank value
	CellEmpty CellKind = iota
	// CellText is a string value as read from the source
	CellText
	// CellNumber is a numeric value. Spreadsheet dates arrive as their serial number.
	CellNumber
)

// String returns the kind name
func (k CellKind) String() string {
	switch k {
	case CellText:
		return "text"
	case CellNumber:
		return "number"
	default:
		return "empty"
	}
}

// Cell is a single input value. The zero value is an empty cell.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

// EmptyCell returns an empty cell
func EmptyCell() Cell {
	return Cell{Kind: CellEmpty}
}

// TextCell returns a text cell. Blank input yields an empty cell.
func TextCell(s string) Cell {
	s = strings.TrimSpace(s)
	if s == "" {
		return EmptyCell()
	}
	return Cell{Kind: CellText, Text: s}
}

// NumberCell returns a numeric cell. NaN yields an empty cell.
func NumberCell(f float64) Cell {
	if math.IsNaN(f) {
		return EmptyCell()
	}
	return Cell{Kind: CellNumber, Number: f}
}

// IsEmpty reports whether the cell carries no value
func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty
}

// IsNumber reports whether the cell is numeric
func (c Cell) IsNumber() bool {
	return c.Kind == CellNumber
}

// String renders the cell as text. Whole numbers render without a fraction,
// so the serial 43466 renders as "43466" and 1500.5 as "1500.5".
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return FormatNumber(c.Number)
	default:
		return ""
	}
}

// Equal compares two cells by kind and value
func (c Cell) Equal(other Cell) bool {
	if c.Kind != other.Kind {
		return false
	}
	switch c.Kind {
	case CellText:
		return c.Text == other.Text
	case CellNumber:
		return c.Number == other.Number
	default:
		return true
	}
}

// MarshalJSON renders empty cells as null and numbers as JSON numbers
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellText:
		return json.Marshal(c.Text)
	case CellNumber:
		if math.IsInf(c.Number, 0) {
			return json.Marshal(c.String())
		}
		return []byte(FormatNumber(c.Number)), nil
	default:
		return []byte("null"), nil
	}
}

// FormatNumber renders a float with the shortest exact representation and no exponent
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
