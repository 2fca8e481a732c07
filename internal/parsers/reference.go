package parsers

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"

	"golang-mpfile-service/internal/models"
	"golang-mpfile-service/pkg/errors"
	"golang-mpfile-service/pkg/logger"
)

// ReferenceResult is the outcome of loading one reference table. Table is
// never nil: a table that fails to load is returned empty alongside Err.
type ReferenceResult struct {
	Name  string
	Path  string
	Table *models.ReferenceTable
	Err   *errors.ConverterError
}

// LoadReferenceTable reads a two-column lookup from a CSV or XLSX file.
// The first row holds the column names. Values are read as text; when a
// key repeats the last row wins.
func LoadReferenceTable(ctx context.Context, config *ReferenceConfig) (*models.ReferenceTable, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "reference", config.Name, err)
	}

	tableConfig := &TableConfig{
		HeaderRow:     0,
		Format:        FormatAuto,
		Delimiter:     ',',
		Encoding:      config.Encoding,
		SkipEmptyRows: true,
	}
	parser, err := NewTableParser(tableConfig)
	if err != nil {
		return nil, err
	}

	table, _, err := parser.ParseFile(ctx, config.Path)
	if err != nil {
		return nil, err
	}

	for _, col := range []string{config.KeyColumn, config.ValueColumn} {
		if !table.HasColumn(col) {
			return nil, errors.MissingColumnError(config.Path, 0, "reference "+config.Name, col, table.Columns())
		}
	}

	entries := make(map[string]string, table.Len())
	for _, r := range table.Records {
		key := r.Value(config.KeyColumn).String()
		if key == "" {
			continue
		}
		entries[key] = r.Value(config.ValueColumn).String()
	}

	return models.NewReferenceTable(config.Name, entries), nil
}

// LoadReferenceTables loads every table concurrently. Failures degrade to
// empty tables and are reported in the result.
func LoadReferenceTables(ctx context.Context, configs []*ReferenceConfig) map[string]*ReferenceResult {
	log := logger.GetGlobalLogger().WithComponent("reference_loader")

	p := pool.NewWithResults[*ReferenceResult]().WithMaxGoroutines(4)
	for _, cfg := range configs {
		cfg := cfg
		p.Go(func() *ReferenceResult {
			result := &ReferenceResult{Name: cfg.Name, Path: cfg.Path}

			table, err := LoadReferenceTable(ctx, cfg)
			if err != nil {
				result.Table = models.EmptyReferenceTable(cfg.Name)
				result.Err = errors.ReferenceError(cfg.Name, cfg.Path, err)
				log.WithError(err).WithFields(logger.Fields{
					"table":     cfg.Name,
					"file_path": cfg.Path,
				}).Warn("Reference table unavailable, lookups will use defaults")
				return result
			}

			result.Table = table
			log.WithFields(logger.Fields{
				"table":     cfg.Name,
				"file_path": cfg.Path,
				"entries":   table.Len(),
			}).Info("Loaded reference table")
			return result
		})
	}

	results := make(map[string]*ReferenceResult, len(configs))
	for _, r := range p.Wait() {
		results[r.Name] = r
	}
	return results
}

// String describes the result
func (r *ReferenceResult) String() string {
	if r.Err != nil {
		return fmt.Sprintf("%s: unavailable (%s)", r.Name, r.Err.Message)
	}
	return fmt.Sprintf("%s: %d entries", r.Name, r.Table.Len())
}
