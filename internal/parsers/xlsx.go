package parsers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"golang-mpfile-service/internal/models"
	"golang-mpfile-service/pkg/errors"
	"golang-mpfile-service/pkg/logger"
)

// XLSXReader reads one worksheet of a workbook. Numeric and date cells are
// returned as numbers holding their raw stored value.
type XLSXReader struct {
	sheet  string
	logger logger.Logger
}

// NewXLSXReader creates a reader for sheet, or the first sheet when empty
func NewXLSXReader(sheet string) *XLSXReader {
	return &XLSXReader{
		sheet:  sheet,
		logger: logger.GetGlobalLogger().WithComponent("xlsx_reader"),
	}
}

// ReadRows reads all rows of the configured sheet in path
func (r *XLSXReader) ReadRows(ctx context.Context, path string) ([][]models.Cell, error) {
	file, err := openFile(path)
	if err != nil {
		return nil, err
	}
	file.Close()

	f, err := excelize.OpenFile(path)
	if err != nil {
		r.logger.WithError(err).WithField("file_path", path).Error("Failed to open workbook")
		return nil, errors.FileError(errors.CodeFileCorrupted, path, err)
	}
	defer f.Close()

	return r.Read(ctx, path, f)
}

// Read reads all rows of the configured sheet from an open workbook
func (r *XLSXReader) Read(ctx context.Context, name string, f *excelize.File) ([][]models.Cell, error) {
	sheet := r.sheet
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.FileError(errors.CodeFileCorrupted, name, fmt.Errorf("workbook has no sheets"))
		}
		sheet = sheets[0]
	}

	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, name, 0, sheet, "", err)
	}

	rows := make([][]models.Cell, len(raw))
	for y, values := range raw {
		if err := ctx.Err(); err != nil {
			return nil, errors.InternalError(errors.CodeCancelled, "xlsx reading", err)
		}

		row := make([]models.Cell, len(values))
		for x, value := range values {
			if value == "" {
				continue
			}
			cellName, err := excelize.CoordinatesToCellName(x+1, y+1)
			if err != nil {
				return nil, errors.ParseError(errors.CodeInvalidFormat, name, y+1, strconv.Itoa(x+1), value, err)
			}
			cellType, err := f.GetCellType(sheet, cellName)
			if err != nil {
				return nil, errors.ParseError(errors.CodeInvalidData, name, y+1, cellName, value, err)
			}
			row[x] = toCell(cellType, value)
		}
		rows[y] = row
	}

	r.logger.WithFields(logger.Fields{
		"file_path": name,
		"sheet":     sheet,
		"rows":      len(rows),
	}).Debug("Read workbook rows")

	return rows, nil
}

// toCell types a raw stored value. Cells without an explicit type are
// numeric in the file format.
func toCell(cellType excelize.CellType, value string) models.Cell {
	switch cellType {
	case excelize.CellTypeNumber, excelize.CellTypeDate, excelize.CellTypeUnset:
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return models.NumberCell(f)
		}
		return models.TextCell(value)
	case excelize.CellTypeBool:
		if value == "1" {
			return models.TextCell("TRUE")
		}
		return models.TextCell("FALSE")
	default:
		return models.TextCell(value)
	}
}
