package config

import (
	"fmt"
	"strings"
	"time"

	"golang-mpfile-service/internal/parsers"
	"golang-mpfile-service/internal/pipeline"
	"golang-mpfile-service/internal/reporter"
)

// ValuationDateLayout is the accepted layout of --valuation-date
const ValuationDateLayout = "2006-01-02"

// ParseValuationDate parses a YYYY-MM-DD valuation date
func ParseValuationDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("valuation date is required")
	}
	t, err := time.Parse(ValuationDateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid valuation date %q, use YYYY-MM-DD", value)
	}
	return t, nil
}

// SplitList flattens a list setting. Flags and config files give lists
// whose items are kept whole, so a status may contain a comma. Environment
// variables give one string, which is split on commas. Items are trimmed
// and deduplicated.
func SplitList(value interface{}) []string {
	var raw []string
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		raw = strings.Split(v, ",")
	case []string:
		raw = v
	case []interface{}:
		for _, item := range v {
			raw = append(raw, fmt.Sprint(item))
		}
	default:
		raw = []string{fmt.Sprint(v)}
	}

	var out []string
	seen := make(map[string]bool)
	for _, item := range raw {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

// ParseDelimiter accepts a single character or the name "tab"
func ParseDelimiter(value string) (rune, error) {
	switch strings.ToLower(value) {
	case "tab", `\t`:
		return '\t', nil
	case "":
		return ',', nil
	}
	runes := []rune(value)
	if len(runes) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", value)
	}
	return runes[0], nil
}

// CreateTableConfig creates the input table configuration
func CreateTableConfig(headerRow int, format, sheet, encoding, delimiter string) (*parsers.TableConfig, error) {
	config := parsers.DefaultTableConfig()
	config.HeaderRow = headerRow
	if format != "" {
		config.Format = parsers.Format(strings.ToLower(format))
	}
	config.Sheet = sheet
	if encoding != "" {
		config.Encoding = encoding
	}

	d, err := ParseDelimiter(delimiter)
	if err != nil {
		return nil, err
	}
	config.Delimiter = d

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// CreateReferenceConfigs creates the reinsurer and loan type table
// configurations. Empty paths keep the default TABLE/ locations.
func CreateReferenceConfigs(riPath, loanTypePath, encoding string) ([]*parsers.ReferenceConfig, error) {
	ri := parsers.DefaultRICompanyConfig()
	loan := parsers.DefaultLoanTypeConfig()

	if riPath != "" {
		ri.Path = riPath
	}
	if loanTypePath != "" {
		loan.Path = loanTypePath
	}

	configs := []*parsers.ReferenceConfig{ri, loan}
	for _, c := range configs {
		if encoding != "" {
			c.Encoding = encoding
		}
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}
	return configs, nil
}

// CreateParams creates the filter parameters of a run
func CreateParams(valuationDate string, excludedProductCodes, includedStatuses []string) (*pipeline.Params, error) {
	valuation, err := ParseValuationDate(valuationDate)
	if err != nil {
		return nil, err
	}

	params := &pipeline.Params{
		ValuationDate:        valuation,
		ExcludedProductCodes: SplitList(excludedProductCodes),
		IncludedStatuses:     SplitList(includedStatuses),
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return params, nil
}

// CreatePipelineConfig creates the conversion service configuration
func CreatePipelineConfig(workers int) *pipeline.Config {
	config := pipeline.DefaultConfig()
	config.Workers = workers
	return config
}

// CreateArtifactConfig creates the artifact writer configuration
func CreateArtifactConfig(outputDir, format, namePattern, delimiter string) (*reporter.ArtifactConfig, error) {
	config := reporter.DefaultArtifactConfig()
	if outputDir != "" {
		config.OutputDir = outputDir
	}
	if format != "" {
		config.Format = reporter.ArtifactFormat(strings.ToLower(format))
	}
	if namePattern != "" {
		config.NamePattern = namePattern
	}

	d, err := ParseDelimiter(delimiter)
	if err != nil {
		return nil, err
	}
	config.Delimiter = d

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// CreateReportConfig creates a summary configuration for the specified format
func CreateReportConfig(format string) (*reporter.ReportConfig, error) {
	config := reporter.DefaultReportConfig()
	if format != "" {
		config.Format = reporter.OutputFormat(strings.ToLower(format))
	}

	// machine readable summaries stay focused on counts
	if config.Format != reporter.FormatConsole {
		config.IncludeTimings = false
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
