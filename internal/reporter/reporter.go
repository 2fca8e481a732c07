// Package reporter writes the exported tables of a conversion run and the
// run summary.
//
// Tables are written as XLSX workbooks or delimited text:
//   - the MP File itself
//   - one side-table per exclusion reason, holding the input columns plus
//     the exclusion reason and, for maturity-stage tables, the computed
//     maturity date
//
// The run summary counts the records at every filter stage and lists the
// artifacts, reference table status, warnings and step timings. It is
// rendered for the console, as JSON or as YAML.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"golang-mpfile-service/internal/models"
	"golang-mpfile-service/internal/parsers"
	"golang-mpfile-service/internal/pipeline"
)

// OutputFormat represents the supported summary formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatYAML    OutputFormat = "yaml"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatYAML:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for summary generation
type ReportConfig struct {
	Format OutputFormat `json:"format" yaml:"format"`

	IncludeStages     bool `json:"include_stages" yaml:"include_stages"`
	IncludeReferences bool `json:"include_references" yaml:"include_references"`
	IncludeTimings    bool `json:"include_timings" yaml:"include_timings"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:            FormatConsole,
		IncludeStages:     true,
		IncludeReferences: true,
		IncludeTimings:    true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	return nil
}

// ExclusionCount is the size of one side-table
type ExclusionCount struct {
	Reason models.ExclusionReason `json:"reason" yaml:"reason"`
	Label  string                 `json:"label" yaml:"label"`
	Count  int                    `json:"count" yaml:"count"`
}

// ReferenceSummary describes a reference table used by the run
type ReferenceSummary struct {
	Name      string `json:"name" yaml:"name"`
	Path      string `json:"path,omitempty" yaml:"path,omitempty"`
	Entries   int    `json:"entries" yaml:"entries"`
	Available bool   `json:"available" yaml:"available"`
	Error     string `json:"error,omitempty" yaml:"error,omitempty"`
}

// TimingSummary is the duration of one run step
type TimingSummary struct {
	Step     string `json:"step" yaml:"step"`
	Duration string `json:"duration" yaml:"duration"`
}

// RecordCounts shows where every input record ended up
type RecordCounts struct {
	Input         int              `json:"input" yaml:"input"`
	Output        int              `json:"output" yaml:"output"`
	StatusDropped int              `json:"status_dropped" yaml:"status_dropped"`
	Excluded      []ExclusionCount `json:"excluded" yaml:"excluded"`
}

// Summary is the report of one conversion run
type Summary struct {
	RunID                string    `json:"run_id" yaml:"run_id"`
	GeneratedAt          time.Time `json:"generated_at" yaml:"generated_at"`
	InputFile            string    `json:"input_file,omitempty" yaml:"input_file,omitempty"`
	HeaderRow            int       `json:"header_row" yaml:"header_row"`
	ValuationDate        string    `json:"valuation_date" yaml:"valuation_date"`
	ExcludedProductCodes []string  `json:"excluded_product_codes" yaml:"excluded_product_codes"`
	IncludedStatuses     []string  `json:"included_statuses" yaml:"included_statuses"`
	DryRun               bool      `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`

	Records       RecordCounts            `json:"records" yaml:"records"`
	Stages        []pipeline.StageCount   `json:"stages,omitempty" yaml:"stages,omitempty"`
	SkippedStages []pipeline.SkippedStage `json:"skipped_stages,omitempty" yaml:"skipped_stages,omitempty"`
	References    []ReferenceSummary      `json:"references,omitempty" yaml:"references,omitempty"`
	Artifacts     []*Artifact             `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
	Warnings      []string                `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Timings       []TimingSummary         `json:"timings,omitempty" yaml:"timings,omitempty"`
	Duration      string                  `json:"duration" yaml:"duration"`
}

// NewSummary builds the summary of a run. artifacts is empty for dry runs.
func NewSummary(result *pipeline.Result, artifacts []*Artifact) *Summary {
	s := &Summary{
		RunID:       result.RunID,
		GeneratedAt: time.Now(),
		Artifacts:   artifacts,
		Duration:    result.Duration.String(),
	}

	if result.Table != nil {
		s.InputFile = result.Table.Source
		s.HeaderRow = result.Table.HeaderRow
	}
	if result.Params != nil {
		s.ValuationDate = result.Params.ValuationDate.Format("2006-01-02")
		s.ExcludedProductCodes = result.Params.ExcludedProductCodes
		s.IncludedStatuses = result.Params.IncludedStatuses
	}

	s.Records.Output = len(result.Output)
	if f := result.Filter; f != nil {
		s.Records.Input = f.Total
		s.Records.StatusDropped = len(f.StatusDropped)
		for _, reason := range models.ExclusionReasons {
			s.Records.Excluded = append(s.Records.Excluded, ExclusionCount{
				Reason: reason,
				Label:  reason.Label(),
				Count:  len(f.ExcludedFor(reason)),
			})
		}
		s.Stages = f.StageCounts
		s.SkippedStages = f.SkippedStages
	}

	for _, name := range sortedKeys(result.References) {
		ref := result.References[name]
		rs := ReferenceSummary{Name: name, Path: ref.Path, Available: ref.Err == nil}
		if ref.Table != nil {
			rs.Entries = ref.Table.Len()
		}
		if ref.Err != nil {
			rs.Error = ref.Err.Message
		}
		s.References = append(s.References, rs)
	}

	if result.Warnings != nil {
		for _, w := range result.Warnings.Errors {
			s.Warnings = append(s.Warnings, w.Error())
		}
	}
	for _, skipped := range s.SkippedStages {
		s.Warnings = append(s.Warnings, fmt.Sprintf("stage %s skipped, missing columns: %s",
			skipped.Stage, strings.Join(skipped.Missing, ", ")))
	}

	for _, t := range result.Timings {
		s.Timings = append(s.Timings, TimingSummary{Step: t.Step, Duration: t.Duration.String()})
	}

	return s
}

// ReportGenerator renders run summaries
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a new report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{
		config: config,
	}, nil
}

// GenerateReport writes summary to writer in the configured format
func (rg *ReportGenerator) GenerateReport(summary *Summary, writer io.Writer) error {
	if summary == nil {
		return fmt.Errorf("summary cannot be nil")
	}

	filtered := rg.filterForOutput(summary)

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(filtered, writer)
	case FormatJSON:
		encoder := json.NewEncoder(writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(filtered)
	case FormatYAML:
		encoder := yaml.NewEncoder(writer)
		encoder.SetIndent(2)
		if err := encoder.Encode(filtered); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

// filterForOutput drops the sections the configuration excludes
func (rg *ReportGenerator) filterForOutput(summary *Summary) *Summary {
	out := *summary
	if !rg.config.IncludeStages {
		out.Stages = nil
	}
	if !rg.config.IncludeReferences {
		out.References = nil
	}
	if !rg.config.IncludeTimings {
		out.Timings = nil
	}
	return &out
}

func (rg *ReportGenerator) generateConsoleReport(s *Summary, writer io.Writer) error {
	fmt.Fprintf(writer, "MP FILE CONVERSION REPORT\n")
	fmt.Fprintf(writer, "Run ID:         %s\n", s.RunID)
	fmt.Fprintf(writer, "Generated:      %s\n", s.GeneratedAt.Format(time.RFC3339))
	if s.InputFile != "" {
		fmt.Fprintf(writer, "Input File:     %s (header row %d)\n", s.InputFile, s.HeaderRow)
	}
	fmt.Fprintf(writer, "Valuation Date: %s\n", s.ValuationDate)
	fmt.Fprintf(writer, "Duration:       %s\n", s.Duration)
	if s.DryRun {
		fmt.Fprintf(writer, "Dry run: no files were written\n")
	}
	fmt.Fprintf(writer, "\n")

	fmt.Fprintf(writer, "=== RECORDS ===\n")
	fmt.Fprintf(writer, "Input:          %d\n", s.Records.Input)
	fmt.Fprintf(writer, "Output:         %d (%.1f%%)\n", s.Records.Output, percentage(s.Records.Output, s.Records.Input))
	for _, e := range s.Records.Excluded {
		fmt.Fprintf(writer, "  %-52s %d\n", e.Label+":", e.Count)
	}
	fmt.Fprintf(writer, "  %-52s %d\n", "Dropped by status:", s.Records.StatusDropped)
	fmt.Fprintf(writer, "\n")

	if len(s.Stages) > 0 {
		fmt.Fprintf(writer, "=== FILTER STAGES ===\n")
		for _, st := range s.Stages {
			if st.Skipped {
				fmt.Fprintf(writer, "  %-16s skipped\n", st.Stage)
				continue
			}
			fmt.Fprintf(writer, "  %-16s in %-8d retained %-8d removed %d\n", st.Stage, st.In, st.Retained, st.Removed)
		}
		fmt.Fprintf(writer, "\n")
	}

	if len(s.References) > 0 {
		fmt.Fprintf(writer, "=== REFERENCE TABLES ===\n")
		for _, r := range s.References {
			if r.Available {
				fmt.Fprintf(writer, "  %-12s %d entries\n", r.Name, r.Entries)
			} else {
				fmt.Fprintf(writer, "  %-12s unavailable, defaults used\n", r.Name)
			}
		}
		fmt.Fprintf(writer, "\n")
	}

	if len(s.Artifacts) > 0 {
		fmt.Fprintf(writer, "=== ARTIFACTS ===\n")
		for _, a := range s.Artifacts {
			fmt.Fprintf(writer, "  %-30s %6d rows  %s\n", a.Kind, a.Rows, a.Path)
		}
		fmt.Fprintf(writer, "\n")
	}

	if len(s.Warnings) > 0 {
		fmt.Fprintf(writer, "=== WARNINGS ===\n")
		for _, w := range s.Warnings {
			fmt.Fprintf(writer, "  - %s\n", w)
		}
		fmt.Fprintf(writer, "\n")
	}

	if len(s.Timings) > 0 {
		fmt.Fprintf(writer, "=== TIMINGS ===\n")
		for _, t := range s.Timings {
			fmt.Fprintf(writer, "  %-18s %s\n", t.Step, t.Duration)
		}
	}

	return nil
}

// GetConfiguration returns the current configuration
func (rg *ReportGenerator) GetConfiguration() *ReportConfig {
	return rg.config
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0.0
	}
	return float64(part) / float64(total) * 100.0
}

func sortedKeys(refs map[string]*parsers.ReferenceResult) []string {
	keys := make([]string, 0, len(refs))
	for k := range refs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
