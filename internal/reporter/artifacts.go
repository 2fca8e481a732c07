package reporter

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"github.com/xuri/excelize/v2"

	"golang-mpfile-service/internal/pipeline"
	"golang-mpfile-service/pkg/errors"
	"golang-mpfile-service/pkg/logger"
)

// ArtifactFormat is the file format of exported tables
type ArtifactFormat string

const (
	ArtifactXLSX ArtifactFormat = "xlsx"
	ArtifactCSV  ArtifactFormat = "csv"
)

// IsValid checks if the artifact format is supported
func (f ArtifactFormat) IsValid() bool {
	return f == ArtifactXLSX || f == ArtifactCSV
}

// File name placeholders
const (
	PlaceholderName          = "{name}"
	PlaceholderRunID         = "{run_id}"
	PlaceholderUUID          = "{uuid}"
	PlaceholderTimestamp     = "{timestamp}"
	PlaceholderValuationDate = "{valuation_date}"
)

const sheetName = "Sheet1"

// ArtifactConfig holds configuration for writing the exported tables
type ArtifactConfig struct {
	OutputDir   string         `json:"output_dir" yaml:"output_dir"`
	Format      ArtifactFormat `json:"format" yaml:"format"`
	NamePattern string         `json:"name_pattern" yaml:"name_pattern"`
	Delimiter   rune           `json:"delimiter" yaml:"delimiter"`
	Workers     int            `json:"workers" yaml:"workers"`
}

// DefaultArtifactConfig returns a default artifact configuration
func DefaultArtifactConfig() *ArtifactConfig {
	return &ArtifactConfig{
		OutputDir:   "output",
		Format:      ArtifactXLSX,
		NamePattern: PlaceholderName,
		Delimiter:   ',',
		Workers:     len(ArtifactKinds),
	}
}

// Validate validates the artifact configuration
func (c *ArtifactConfig) Validate() error {
	if strings.TrimSpace(c.OutputDir) == "" {
		return fmt.Errorf("output directory cannot be empty")
	}
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid artifact format: %s", c.Format)
	}
	if !strings.Contains(c.NamePattern, PlaceholderName) {
		return fmt.Errorf("name pattern %q must contain %s", c.NamePattern, PlaceholderName)
	}
	if strings.ContainsAny(c.NamePattern, `/\`) {
		return fmt.Errorf("name pattern %q cannot contain path separators", c.NamePattern)
	}
	if c.Format == ArtifactCSV && (c.Delimiter == 0 || c.Delimiter == '"' || c.Delimiter == '\n') {
		return fmt.Errorf("invalid delimiter: %q", c.Delimiter)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers cannot be negative, got %d", c.Workers)
	}
	return nil
}

// Artifact is a written table
type Artifact struct {
	Kind ArtifactKind `json:"kind" yaml:"kind"`
	Path string       `json:"path" yaml:"path"`
	Rows int          `json:"rows" yaml:"rows"`
}

// ArtifactWriter writes the output table and the side-tables to disk
type ArtifactWriter struct {
	config *ArtifactConfig
	logger logger.Logger
}

// NewArtifactWriter creates an artifact writer
func NewArtifactWriter(config *ArtifactConfig) (*ArtifactWriter, error) {
	if config == nil {
		config = DefaultArtifactConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "artifacts", config, err).
			WithSuggestion("check --output-dir, --output-format and --name-pattern")
	}

	return &ArtifactWriter{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("artifact_writer"),
	}, nil
}

// Config returns the writer configuration
func (w *ArtifactWriter) Config() *ArtifactConfig {
	return w.config
}

// WriteAll writes all five tables. Empty side-tables are written with
// their header so the artifact set is always complete.
func (w *ArtifactWriter) WriteAll(ctx context.Context, result *pipeline.Result) ([]*Artifact, error) {
	if err := os.MkdirAll(w.config.OutputDir, 0755); err != nil {
		return nil, errors.FileError(errors.CodeDirectoryError, w.config.OutputDir, err)
	}

	workers := w.config.Workers
	if workers <= 0 {
		workers = 1
	}

	p := pool.NewWithResults[*Artifact]().
		WithContext(ctx).
		WithCancelOnError().
		WithMaxGoroutines(workers)

	for _, table := range BuildTables(result) {
		table := table
		path := filepath.Join(w.config.OutputDir, w.FileName(table.Kind, result))
		p.Go(func(ctx context.Context) (*Artifact, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if err := w.WriteTable(path, table); err != nil {
				return nil, err
			}
			return &Artifact{Kind: table.Kind, Path: path, Rows: len(table.Rows)}, nil
		})
	}

	artifacts, err := p.Wait()
	if err != nil {
		if convErr, ok := errors.AsConverterError(err); ok {
			return nil, convErr
		}
		return nil, errors.InternalError(errors.CodeCancelled, "artifact writing", err)
	}

	order := make(map[ArtifactKind]int, len(ArtifactKinds))
	for i, kind := range ArtifactKinds {
		order[kind] = i
	}
	sort.Slice(artifacts, func(i, j int) bool {
		return order[artifacts[i].Kind] < order[artifacts[j].Kind]
	})

	for _, a := range artifacts {
		w.logger.WithFields(logger.Fields{
			"artifact":  a.Kind,
			"file_path": a.Path,
			"rows":      a.Rows,
		}).Info("Wrote artifact")
	}
	return artifacts, nil
}

// FileName expands the name pattern for kind
func (w *ArtifactWriter) FileName(kind ArtifactKind, result *pipeline.Result) string {
	name := w.config.NamePattern
	replacements := []string{
		PlaceholderName, kind.DefaultName(),
		PlaceholderRunID, result.RunID,
		PlaceholderTimestamp, result.StartedAt.Format("20060102_150405"),
	}
	if result.Params != nil {
		replacements = append(replacements, PlaceholderValuationDate, result.Params.ValuationDate.Format("20060102"))
	}
	name = strings.NewReplacer(replacements...).Replace(name)

	// every file gets its own id
	for strings.Contains(name, PlaceholderUUID) {
		name = strings.Replace(name, PlaceholderUUID, uuid.NewString(), 1)
	}

	return name + "." + string(w.config.Format)
}

// WriteTable writes one table in the configured format
func (w *ArtifactWriter) WriteTable(path string, table *Table) error {
	switch w.config.Format {
	case ArtifactCSV:
		return w.writeCSV(path, table)
	default:
		return w.writeXLSX(path, table)
	}
}

func (w *ArtifactWriter) writeCSV(path string, table *Table) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.FileError(errors.CodeWriteFailed, path, err)
	}
	defer file.Close()

	cw := csv.NewWriter(file)
	cw.Comma = w.config.Delimiter

	if err := cw.Write(table.Header); err != nil {
		return errors.FileError(errors.CodeWriteFailed, path, err)
	}
	record := make([]string, len(table.Header))
	for _, row := range table.Rows {
		for i := range record {
			record[i] = ""
			if i < len(row) {
				record[i] = Text(row[i])
			}
		}
		if err := cw.Write(record); err != nil {
			return errors.FileError(errors.CodeWriteFailed, path, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.FileError(errors.CodeWriteFailed, path, err)
	}
	return file.Close()
}

// writeXLSX streams the table into a single sheet with a bold header row
func (w *ArtifactWriter) writeXLSX(path string, table *Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return errors.FileError(errors.CodeWriteFailed, path, err)
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err != nil {
		return errors.FileError(errors.CodeWriteFailed, path, err)
	}

	// Approximate auto-fit from the header text
	for i, name := range table.Header {
		width := float64(len(name) + 4)
		if width < 12 {
			width = 12
		}
		if err := sw.SetColWidth(i+1, i+1, width); err != nil {
			return errors.FileError(errors.CodeWriteFailed, path, err)
		}
	}

	header := make([]interface{}, len(table.Header))
	for i, name := range table.Header {
		header[i] = excelize.Cell{StyleID: style, Value: name}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return errors.FileError(errors.CodeWriteFailed, path, err)
	}

	for i, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return errors.FileError(errors.CodeWriteFailed, path, err)
		}
		if err := sw.SetRow(cell, row); err != nil {
			return errors.FileError(errors.CodeWriteFailed, path, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return errors.FileError(errors.CodeWriteFailed, path, err)
	}
	if err := f.SaveAs(path); err != nil {
		return errors.FileError(errors.CodeWriteFailed, path, err)
	}
	return nil
}
