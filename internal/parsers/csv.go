package parsers

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"golang-mpfile-service/internal/models"
	"golang-mpfile-service/pkg/errors"
	"golang-mpfile-service/pkg/logger"
)

const utf8BOM = "\ufeff"

// CSVReader reads delimited text files. Every non-blank cell is text and
// row i of the result is line i+1 of the file.
type CSVReader struct {
	delimiter rune
	encoding  string
	logger    logger.Logger
}

// NewCSVReader creates a reader for the given delimiter and text encoding
func NewCSVReader(delimiter rune, encoding string) *CSVReader {
	if delimiter == 0 {
		delimiter = ','
	}
	return &CSVReader{
		delimiter: delimiter,
		encoding:  encoding,
		logger:    logger.GetGlobalLogger().WithComponent("csv_reader"),
	}
}

// ReadRows reads all rows of path
func (r *CSVReader) ReadRows(ctx context.Context, path string) ([][]models.Cell, error) {
	file, err := openFile(path)
	if err != nil {
		r.logger.WithError(err).WithField("file_path", path).Error("Failed to open CSV file")
		return nil, err
	}
	defer file.Close()

	return r.Read(ctx, path, file)
}

// Read reads all rows from src. name is used in error messages.
func (r *CSVReader) Read(ctx context.Context, name string, src io.Reader) ([][]models.Cell, error) {
	enc, err := LookupEncoding(r.encoding)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "encoding", r.encoding, err)
	}

	validateUTF8 := enc == unicode.UTF8
	if !validateUTF8 {
		src = transform.NewReader(src, enc.NewDecoder())
	}

	reader := csv.NewReader(src)
	reader.Comma = r.delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]models.Cell
	for {
		if err := ctx.Err(); err != nil {
			return nil, errors.InternalError(errors.CodeCancelled, "csv reading", err)
		}

		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			line := len(rows) + 1
			if pe, ok := err.(*csv.ParseError); ok {
				line = pe.Line
			}
			return nil, errors.ParseError(errors.CodeInvalidFormat, name, line, "", "", err)
		}

		if len(rows) == 0 && len(record) > 0 {
			record[0] = strings.TrimPrefix(record[0], utf8BOM)
		}

		// Blank lines are dropped by the csv reader; keep them as empty
		// rows so row positions match the physical lines of the file.
		line, _ := reader.FieldPos(0)
		for len(rows) < line-1 {
			rows = append(rows, nil)
		}

		row := make([]models.Cell, len(record))
		for i, field := range record {
			if validateUTF8 && !utf8.ValidString(field) {
				line, _ := reader.FieldPos(i)
				return nil, errors.ParseError(errors.CodeEncodingError, name, line, fmt.Sprintf("column %d", i+1), "",
					fmt.Errorf("invalid UTF-8 encoding detected"))
			}
			row[i] = models.TextCell(field)
		}
		rows = append(rows, row)
	}

	r.logger.WithFields(logger.Fields{
		"file_path": name,
		"rows":      len(rows),
		"encoding":  r.encoding,
	}).Debug("Read CSV rows")

	return rows, nil
}
