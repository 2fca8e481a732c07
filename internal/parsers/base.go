// Package parsers reads policy exports and reference files into tables.
//
// Input files are either delimited text or XLSX workbooks. Both are read
// into a grid of typed cells first; the grid is then turned into an
// InputTable by selecting the header row. Delimited text always yields
// text cells. Workbook cells keep their numeric type, so date cells arrive
// as spreadsheet serial numbers.
package parsers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang-mpfile-service/internal/models"
	"golang-mpfile-service/pkg/errors"
	"golang-mpfile-service/pkg/logger"
)

// RowReader reads every row of a file as cells
type RowReader interface {
	ReadRows(ctx context.Context, path string) ([][]models.Cell, error)
}

// TableParser turns an input file into an InputTable
type TableParser struct {
	config *TableConfig
	logger logger.Logger
}

// NewTableParser creates a parser with the given configuration
func NewTableParser(config *TableConfig) (*TableParser, error) {
	if config == nil {
		config = DefaultTableConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "table", config, err)
	}

	log := logger.GetGlobalLogger().WithComponent("table_parser")
	log.WithFields(logger.Fields{
		"header_row": config.HeaderRow,
		"format":     config.Format,
		"encoding":   config.Encoding,
	}).Debug("Created table parser")

	return &TableParser{config: config, logger: log}, nil
}

// Config returns the parser configuration
func (p *TableParser) Config() *TableConfig {
	return p.config
}

// ParseFile reads path and selects the configured header row
func (p *TableParser) ParseFile(ctx context.Context, path string) (*models.InputTable, *ParseStats, error) {
	rows, err := p.readRows(ctx, path)
	if err != nil {
		return nil, nil, err
	}

	table, stats, err := BuildTable(path, rows, p.config.HeaderRow, p.config.SkipEmptyRows)
	if err != nil {
		p.logger.WithError(err).WithField("file_path", path).Error("Failed to build input table")
		return nil, nil, err
	}

	fields := logger.Fields{
		"file_path": path,
		"columns":   len(table.Columns()),
		"records":   table.Len(),
	}
	if len(stats.DuplicateColumns) > 0 {
		fields["duplicate_columns"] = stats.DuplicateColumns
		p.logger.WithFields(fields).Warn("Input table has duplicate column names; first occurrence is used")
	} else {
		p.logger.WithFields(fields).Info("Parsed input table")
	}

	return table, stats, nil
}

// Preview returns up to n raw rows without header interpretation
func (p *TableParser) Preview(ctx context.Context, path string, n int) ([][]models.Cell, error) {
	rows, err := p.readRows(ctx, path)
	if err != nil {
		return nil, err
	}
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows, nil
}

func (p *TableParser) readRows(ctx context.Context, path string) ([][]models.Cell, error) {
	reader, err := p.readerFor(path)
	if err != nil {
		return nil, err
	}
	return reader.ReadRows(ctx, path)
}

func (p *TableParser) readerFor(path string) (RowReader, error) {
	format := p.config.Format
	if format == FormatAuto || format == "" {
		detected, err := sniffFormat(path)
		if err != nil {
			return nil, err
		}
		format = detected
	}

	switch format {
	case FormatXLSX:
		return NewXLSXReader(p.config.Sheet), nil
	default:
		return NewCSVReader(p.config.Delimiter, p.config.Encoding), nil
	}
}

var zipMagic = []byte("PK\x03\x04")

// sniffFormat uses the extension when known and the zip signature otherwise
func sniffFormat(path string) (Format, error) {
	if format, err := DetectFormat(path); err == nil {
		return format, nil
	}

	file, err := openFile(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	head := make([]byte, len(zipMagic))
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", errors.FileError(errors.CodeFileCorrupted, path, err)
	}
	if n == len(zipMagic) && bytes.Equal(head, zipMagic) {
		return FormatXLSX, nil
	}
	return FormatCSV, nil
}

// openFile opens path and maps failures to file errors
func openFile(path string) (*os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, errors.FileError(errors.CodeFilePermission, path, err)
		}
		return nil, errors.FileError(errors.CodeFileCorrupted, path, err)
	}
	return file, nil
}

// BuildTable selects headerRow as the column names and turns the rows below
// it into records. Blank header cells are named after their position.
func BuildTable(source string, rows [][]models.Cell, headerRow int, skipEmpty bool) (*models.InputTable, *ParseStats, error) {
	stats := &ParseStats{TotalRows: len(rows), HeaderRow: headerRow}

	if headerRow < 0 || headerRow >= len(rows) {
		return nil, nil, errors.HeaderOutOfRangeError(source, headerRow, len(rows))
	}

	names := headerNames(rows[headerRow])
	if len(names) == 0 {
		return nil, nil, errors.NoColumnsError(source, headerRow)
	}
	header := models.NewHeader(names)
	stats.Columns = len(names)
	stats.DuplicateColumns = header.Duplicates()

	var records []*models.InputRecord
	for i, row := range rows[headerRow+1:] {
		if skipEmpty && isEmptyRow(row) {
			stats.EmptyRowsSkipped++
			continue
		}
		if len(row) > len(names) {
			stats.WideRows++
		}

		cells := make([]models.Cell, len(names))
		copy(cells, row)

		sourceRow := headerRow + 2 + i
		records = append(records, models.NewInputRecord(header, len(records), sourceRow, cells))
	}
	stats.RecordsParsed = len(records)

	return models.NewInputTable(source, headerRow, header, records), stats, nil
}

// headerNames converts a header row into column names, dropping trailing blanks
func headerNames(row []models.Cell) []string {
	last := -1
	for i, c := range row {
		if strings.TrimSpace(c.String()) != "" {
			last = i
		}
	}
	if last < 0 {
		return nil
	}

	names := make([]string, last+1)
	for i := 0; i <= last; i++ {
		name := strings.TrimSpace(row[i].String())
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		names[i] = name
	}
	return names
}

func isEmptyRow(row []models.Cell) bool {
	for _, c := range row {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// ParseStats holds statistics about reading a table
type ParseStats struct {
	TotalRows        int      `json:"total_rows" yaml:"total_rows"`
	HeaderRow        int      `json:"header_row" yaml:"header_row"`
	Columns          int      `json:"columns" yaml:"columns"`
	RecordsParsed    int      `json:"records_parsed" yaml:"records_parsed"`
	EmptyRowsSkipped int      `json:"empty_rows_skipped" yaml:"empty_rows_skipped"`
	WideRows         int      `json:"wide_rows,omitempty" yaml:"wide_rows,omitempty"`
	DuplicateColumns []string `json:"duplicate_columns,omitempty" yaml:"duplicate_columns,omitempty"`
}

// String returns a human-readable summary of parsing statistics
func (ps *ParseStats) String() string {
	return fmt.Sprintf("Read %d rows, header at row %d, %d columns, %d records (%d empty rows skipped)",
		ps.TotalRows, ps.HeaderRow, ps.Columns, ps.RecordsParsed, ps.EmptyRowsSkipped)
}
