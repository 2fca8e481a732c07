package models

import "fmt"

// Header holds the ordered column names of an input table
type Header struct {
	names []string
	index map[string]int
}

// NewHeader builds a header from column names. When a name repeats, the
// first occurrence wins lookups.
func NewHeader(names []string) *Header {
	h := &Header{
		names: make([]string, len(names)),
		index: make(map[string]int, len(names)),
	}
	copy(h.names, names)

	for i, name := range names {
		if _, exists := h.index[name]; !exists {
			h.index[name] = i
		}
	}
	return h
}

// Names returns a copy of the column names in order
func (h *Header) Names() []string {
	out := make([]string, len(h.names))
	copy(out, h.names)
	return out
}

// Len returns the number of columns
func (h *Header) Len() int {
	return len(h.names)
}

// Index returns the position of a column. Names match exactly, case and
// inner spacing included.
func (h *Header) Index(column string) (int, bool) {
	i, ok := h.index[column]
	return i, ok
}

// Has reports whether the column exists
func (h *Header) Has(column string) bool {
	_, ok := h.Index(column)
	return ok
}

// Duplicates returns column names that occur more than once
func (h *Header) Duplicates() []string {
	seen := make(map[string]int, len(h.names))
	var dups []string
	for _, name := range h.names {
		seen[name]++
		if seen[name] == 2 {
			dups = append(dups, name)
		}
	}
	return dups
}

// InputRecord is one row of the uploaded policy table
type InputRecord struct {
	// Index is the 0-based position among the data rows of the table
	Index int `json:"index"`
	// SourceRow is the 1-based physical row in the source file
	SourceRow int `json:"source_row"`

	header *Header
	cells  []Cell
}

// NewInputRecord creates a record whose cells are aligned with header
func NewInputRecord(header *Header, index, sourceRow int, cells []Cell) *InputRecord {
	return &InputRecord{
		Index:     index,
		SourceRow: sourceRow,
		header:    header,
		cells:     cells,
	}
}

// Get returns the cell for column. The boolean is false when the column
// does not exist in the table; an existing column with no value yields an
// empty cell and true.
func (r *InputRecord) Get(column string) (Cell, bool) {
	i, ok := r.header.Index(column)
	if !ok {
		return EmptyCell(), false
	}
	if i >= len(r.cells) {
		return EmptyCell(), true
	}
	return r.cells[i], true
}

// Value returns the cell for column, or an empty cell when absent
func (r *InputRecord) Value(column string) Cell {
	c, _ := r.Get(column)
	return c
}

// Cells returns the cells padded to the header width
func (r *InputRecord) Cells() []Cell {
	out := make([]Cell, r.header.Len())
	copy(out, r.cells)
	return out
}

// String returns a short description of the record
func (r *InputRecord) String() string {
	return fmt.Sprintf("InputRecord{Index: %d, Row: %d, Policy: %s}",
		r.Index, r.SourceRow, r.Value(ColPolicyNumber).String())
}

// InputTable is the uploaded policy table after header selection
type InputTable struct {
	Source    string         `json:"source"`
	HeaderRow int            `json:"header_row"`
	Header    *Header        `json:"-"`
	Records   []*InputRecord `json:"-"`
}

// NewInputTable creates a table
func NewInputTable(source string, headerRow int, header *Header, records []*InputRecord) *InputTable {
	return &InputTable{
		Source:    source,
		HeaderRow: headerRow,
		Header:    header,
		Records:   records,
	}
}

// HasColumn reports whether the table carries column
func (t *InputTable) HasColumn(column string) bool {
	return t.Header != nil && t.Header.Has(column)
}

// Columns returns the column names in order
func (t *InputTable) Columns() []string {
	if t.Header == nil {
		return nil
	}
	return t.Header.Names()
}

// Len returns the number of records
func (t *InputTable) Len() int {
	return len(t.Records)
}

// MissingColumns returns the names in wanted that the table lacks
func (t *InputTable) MissingColumns(wanted []string) []string {
	var missing []string
	for _, col := range wanted {
		if !t.HasColumn(col) {
			missing = append(missing, col)
		}
	}
	return missing
}

// DistinctValues returns the distinct non-empty renderings of column in
// first-seen order
func (t *InputTable) DistinctValues(column string) []string {
	if !t.HasColumn(column) {
		return nil
	}

	seen := make(map[string]bool)
	var values []string
	for _, r := range t.Records {
		v := r.Value(column).String()
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	return values
}
