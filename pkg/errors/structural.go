package errors

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// TableContext describes where in an input table a structural problem was found
type TableContext struct {
	File      string   `json:"file"`
	HeaderRow int      `json:"header_row"`
	Stage     string   `json:"stage,omitempty"`
	Column    string   `json:"column,omitempty"`
	Available []string `json:"available,omitempty"`
	RowCount  int      `json:"row_count,omitempty"`
}

// TableError is a structural error: the table as a whole cannot be transformed.
type TableError struct {
	*ConverterError
	Table *TableContext `json:"table"`
}

// Error implements the error interface with location information
func (e *TableError) Error() string {
	parts := []string{e.ConverterError.Error()}

	if e.Table != nil && e.Table.File != "" {
		parts = append(parts, fmt.Sprintf("in %s (header row %d)", filepath.Base(e.Table.File), e.Table.HeaderRow))
	}

	return strings.Join(parts, " ")
}

// Unwrap exposes the underlying ConverterError to errors.As
func (e *TableError) Unwrap() error {
	return e.ConverterError
}

// GetDetailedError returns a detailed multi-line error description
func (e *TableError) GetDetailedError() string {
	var lines []string

	lines = append(lines, fmt.Sprintf("ERROR: %s", e.Message))

	if e.Table != nil {
		lines = append(lines, fmt.Sprintf("  → File: %s", e.Table.File))
		lines = append(lines, fmt.Sprintf("  → Header row: %d", e.Table.HeaderRow))
		if e.Table.Stage != "" {
			lines = append(lines, fmt.Sprintf("  → Stage: %s", e.Table.Stage))
		}
		if e.Table.Column != "" {
			lines = append(lines, fmt.Sprintf("  → Column: %s", e.Table.Column))
		}
		if len(e.Table.Available) > 0 {
			lines = append(lines, fmt.Sprintf("  → Columns found: %s", strings.Join(e.Table.Available, ", ")))
		}
	}

	if e.Suggestion != "" {
		lines = append(lines, fmt.Sprintf("  → Suggestion: %s", e.Suggestion))
	}

	return strings.Join(lines, "\n")
}

func newTableError(code ErrorCode, table *TableContext, message, suggestion string) *TableError {
	base := New(CategoryStructural, code, message).WithSuggestion(suggestion)
	if table != nil {
		base.WithContext("file", table.File).
			WithContext("header_row", table.HeaderRow)
		if table.Column != "" {
			base.WithContext("column", table.Column)
		}
		if table.Stage != "" {
			base.WithContext("stage", table.Stage)
		}
	}

	return &TableError{ConverterError: base, Table: table}
}

// MissingColumnError reports a column that a stage cannot run without
func MissingColumnError(file string, headerRow int, stage, column string, available []string) *TableError {
	table := &TableContext{
		File:      file,
		HeaderRow: headerRow,
		Stage:     stage,
		Column:    column,
		Available: available,
	}

	message := fmt.Sprintf("required column '%s' is missing for stage %s", column, stage)
	return newTableError(CodeMissingColumn, table, message,
		"check the header row offset and that the export contains this column")
}

// NoColumnsError reports a header row that yields no usable column names
func NoColumnsError(file string, headerRow int) *TableError {
	table := &TableContext{File: file, HeaderRow: headerRow}
	message := "no usable columns after header row selection"
	return newTableError(CodeNoColumns, table, message,
		"run 'mpfile inspect' to preview the raw rows and pick the row holding the column names")
}

// HeaderOutOfRangeError reports a header row offset past the end of the table
func HeaderOutOfRangeError(file string, headerRow, rowCount int) *TableError {
	table := &TableContext{File: file, HeaderRow: headerRow, RowCount: rowCount}
	message := fmt.Sprintf("header row %d is beyond the end of the table (%d rows)", headerRow, rowCount)
	return newTableError(CodeHeaderOutOfRange, table, message,
		"use a smaller --header-row value")
}

// AsTableError extracts a TableError from an error chain
func AsTableError(err error) (*TableError, bool) {
	var tableErr *TableError
	if errors.As(err, &tableErr) {
		return tableErr, true
	}
	return nil, false
}

// SuggestionsForCommonErrors provides suggestions for common input problems
func SuggestionsForCommonErrors() string {
	return `Common solutions for input problems:

• Wrong header row: preview the file with 'mpfile inspect' and pass the row index holding the column names
• Missing columns: column names must match the export exactly, including double spaces
• Encoding issues: save the file as UTF-8 or pass --encoding windows-1252
• Excel files: only the first sheet is read unless --sheet is given

For more help, use the --help flag.`
}
