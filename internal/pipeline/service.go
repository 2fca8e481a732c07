package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"golang-mpfile-service/internal/mapper"
	"golang-mpfile-service/internal/models"
	"golang-mpfile-service/internal/parsers"
	"golang-mpfile-service/pkg/errors"
	"golang-mpfile-service/pkg/logger"
)

// Steps of a conversion run
const (
	StepLoadReferences = "load_references"
	StepParseInput     = "parse_input"
	StepFilter         = "filter"
	StepVerify         = "verify_partition"
	StepMap            = "map_fields"
)

var runSteps = []string{StepLoadReferences, StepParseInput, StepFilter, StepVerify, StepMap}

// Config holds options for the conversion service
type Config struct {
	// Workers bounds parallel field mapping; 0 uses one worker per CPU
	Workers int `json:"workers" yaml:"workers"`
	// VerifyPartition checks that filtering lost or duplicated no record
	VerifyPartition bool `json:"verify_partition" yaml:"verify_partition"`
}

// DefaultConfig returns a default configuration for the conversion service
func DefaultConfig() *Config {
	return &Config{
		Workers:         0,
		VerifyPartition: true,
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers cannot be negative, got %d", c.Workers)
	}
	return nil
}

// Request describes one conversion run
type Request struct {
	InputFile  string
	Table      *parsers.TableConfig
	References []*parsers.ReferenceConfig
	Params     *Params
}

// Validate validates the request
func (r *Request) Validate() error {
	if r.InputFile == "" {
		return fmt.Errorf("input file path is required")
	}
	if r.Table == nil {
		return fmt.Errorf("table configuration is required")
	}
	if err := r.Table.Validate(); err != nil {
		return err
	}
	if r.Params == nil {
		return fmt.Errorf("run parameters are required")
	}
	return r.Params.Validate()
}

// StepTiming records how long a run step took
type StepTiming struct {
	Step     string        `json:"step" yaml:"step"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Result is everything a run produced
type Result struct {
	RunID      string
	StartedAt  time.Time
	Duration   time.Duration
	Params     *Params
	Table      *models.InputTable
	ParseStats *parsers.ParseStats
	References map[string]*parsers.ReferenceResult
	Filter     *FilterResult
	Output     []*models.OutputRecord
	Timings    []StepTiming
	// Warnings collects non-fatal problems, such as unavailable reference tables
	Warnings *errors.ErrorSummary
}

// Service runs conversions
type Service struct {
	config   *Config
	logger   logger.Logger
	progress *progressReporter
}

// NewService creates a conversion service
func NewService(config *Config) (*Service, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "workers", config.Workers, err)
	}

	return &Service{
		config:   config,
		logger:   logger.GetGlobalLogger().WithComponent("conversion_service"),
		progress: &progressReporter{},
	}, nil
}

// AddProgressCallback registers a callback invoked after every step
func (s *Service) AddProgressCallback(callback ProgressCallback) {
	s.progress.add(callback)
}

// Progress returns the latest progress of the current or last run
func (s *Service) Progress() Progress {
	return s.progress.snapshot()
}

// Run loads the reference tables and the input table, then converts it
func (s *Service) Run(ctx context.Context, req *Request) (*Result, error) {
	if req == nil {
		return nil, errors.ValidationError(errors.CodeMissingField, "request", nil, nil)
	}
	if err := req.Validate(); err != nil {
		return nil, errors.ValidationError(errors.CodeInvalidConfig, "request", req.InputFile, err).
			WithSuggestion("check the input file, header row and valuation date")
	}

	result := s.newResult(req.Params)
	s.progress.start(len(runSteps))

	s.logger.WithRun(result.RunID).WithFields(logger.Fields{
		"input_file":     req.InputFile,
		"valuation_date": req.Params.ValuationDate.Format("2006-01-02"),
		"header_row":     req.Table.HeaderRow,
	}).Info("Starting conversion")

	var refs map[string]*parsers.ReferenceResult
	s.step(result, StepLoadReferences, 1, func() error {
		refs = parsers.LoadReferenceTables(ctx, req.References)
		return nil
	})
	result.References = refs
	var warnings []*errors.ConverterError
	for _, cfg := range req.References {
		if r, ok := refs[cfg.Name]; ok && r.Err != nil {
			warnings = append(warnings, r.Err)
		}
	}
	result.Warnings = errors.NewErrorSummary(warnings)

	var table *models.InputTable
	err := s.step(result, StepParseInput, 2, func() error {
		parser, err := parsers.NewTableParser(req.Table)
		if err != nil {
			return err
		}
		var stats *parsers.ParseStats
		table, stats, err = parser.ParseFile(ctx, req.InputFile)
		result.ParseStats = stats
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.transform(ctx, result, table, refs); err != nil {
		return nil, err
	}
	return result, nil
}

// Transform converts an already loaded table. Missing reference tables are
// treated as empty.
func (s *Service) Transform(ctx context.Context, table *models.InputTable, refs map[string]*models.ReferenceTable, params *Params) (*Result, error) {
	if params == nil {
		return nil, errors.ValidationError(errors.CodeMissingField, "params", nil, nil)
	}
	if err := params.Validate(); err != nil {
		return nil, errors.ValidationError(errors.CodeInvalidDate, "valuation_date", params.ValuationDate, err)
	}

	result := s.newResult(params)
	s.progress.start(len(runSteps))
	s.progress.update(StepParseInput, 2)

	loaded := make(map[string]*parsers.ReferenceResult, len(refs))
	for name, t := range refs {
		loaded[name] = &parsers.ReferenceResult{Name: name, Table: t}
	}
	result.References = loaded
	result.Warnings = errors.NewErrorSummary(nil)

	if err := s.transform(ctx, result, table, loaded); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) newResult(params *Params) *Result {
	return &Result{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Params:    params,
	}
}

func (s *Service) transform(ctx context.Context, result *Result, table *models.InputTable, refs map[string]*parsers.ReferenceResult) error {
	result.Table = table

	filter, err := NewFilter(result.Params)
	if err != nil {
		return err
	}

	var filtered *FilterResult
	err = s.step(result, StepFilter, 3, func() error {
		var err error
		filtered, err = filter.Apply(ctx, table)
		return err
	})
	if err != nil {
		return err
	}
	result.Filter = filtered
	s.progress.records(filtered.Total, len(filtered.Retained))

	err = s.step(result, StepVerify, 4, func() error {
		if !s.config.VerifyPartition {
			return nil
		}
		return filtered.Verify()
	})
	if err != nil {
		return err
	}

	fieldMapper, err := mapper.NewFieldMapper(&mapper.MappingContext{
		RICompany:     referenceTable(refs, parsers.RICompanyTable),
		LoanType:      referenceTable(refs, parsers.LoanTypeTable),
		ValuationDate: result.Params.ValuationDate,
	})
	if err != nil {
		return errors.ValidationError(errors.CodeInvalidDate, "valuation_date", result.Params.ValuationDate, err)
	}

	err = s.step(result, StepMap, 5, func() error {
		var err error
		result.Output, err = mapper.NewAssembler(fieldMapper, s.config.Workers).Assemble(ctx, filtered.Retained)
		return err
	})
	if err != nil {
		return err
	}

	result.Duration = time.Since(result.StartedAt)

	fields := logger.Fields{
		"input":    filtered.Total,
		"output":   len(result.Output),
		"excluded": filtered.ExcludedCount(),
		"dropped":  len(filtered.StatusDropped),
		"duration": result.Duration.String(),
	}
	if len(filtered.SkippedStages) > 0 {
		fields["skipped_stages"] = len(filtered.SkippedStages)
	}
	s.logger.WithRun(result.RunID).WithFields(fields).Info("Conversion completed")

	return nil
}

// step times fn, records the timing and reports progress
func (s *Service) step(result *Result, name string, completed int, fn func() error) error {
	elapsed, err := logger.TimedOperation(name, s.logger, fn)
	result.Timings = append(result.Timings, StepTiming{Step: name, Duration: elapsed})
	if err == nil {
		s.progress.update(name, completed)
	}
	return err
}

func referenceTable(refs map[string]*parsers.ReferenceResult, name string) *models.ReferenceTable {
	if r, ok := refs[name]; ok && r.Table != nil {
		return r.Table
	}
	return models.EmptyReferenceTable(name)
}
