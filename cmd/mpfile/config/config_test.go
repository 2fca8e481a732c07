package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-mpfile-service/internal/parsers"
	"golang-mpfile-service/internal/reporter"
)

func TestParseValuationDate(t *testing.T) {
	tests := []struct {
		name        string
		value       string
		expected    time.Time
		expectError bool
	}{
		{"iso date", "2024-01-01", time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC), false},
		{"surrounding space", " 2023-12-31 ", time.Date(2023, time.December, 31, 0, 0, 0, 0, time.UTC), false},
		{"empty", "", time.Time{}, true},
		{"day first", "31/12/2023", time.Time{}, true},
		{"impossible day", "2023-02-30", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseValuationDate(tt.value)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.expected), "expected %v, got %v", tt.expected, got)
		})
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		name     string
		value    interface{}
		expected []string
	}{
		{"nil", nil, nil},
		{"env string", "Active, In Force,,Lapsed", []string{"Active", "In Force", "Lapsed"}},
		{"flag slice", []string{"GRP1", " GRP2 "}, []string{"GRP1", "GRP2"}},
		{"list item with comma", []string{"Paid-up, reduced", "Active"}, []string{"Paid-up, reduced", "Active"}},
		{"config list", []interface{}{"Active", 7, "Lapsed, pending"}, []string{"Active", "7", "Lapsed, pending"}},
		{"duplicates", []string{"A", "A", " A "}, []string{"A"}},
		{"blank items", []string{"", "  "}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SplitList(tt.value))
		})
	}
}

func TestParseDelimiter(t *testing.T) {
	tests := []struct {
		value       string
		expected    rune
		expectError bool
	}{
		{"", ',', false},
		{";", ';', false},
		{"tab", '\t', false},
		{"|", '|', false},
		{"::", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseDelimiter(tt.value)
		if tt.expectError {
			assert.Error(t, err, "ParseDelimiter(%q)", tt.value)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.expected, got, "ParseDelimiter(%q)", tt.value)
	}
}

func TestCreateTableConfig(t *testing.T) {
	config, err := CreateTableConfig(4, "", "Policies", "windows-1252", ";")
	require.NoError(t, err)
	assert.Equal(t, 4, config.HeaderRow)
	assert.Equal(t, parsers.FormatAuto, config.Format)
	assert.Equal(t, "Policies", config.Sheet)
	assert.Equal(t, ';', config.Delimiter)
	assert.Equal(t, "windows-1252", config.Encoding)

	_, err = CreateTableConfig(-1, "", "", "", "")
	assert.Error(t, err, "negative header row")

	_, err = CreateTableConfig(0, "ods", "", "", "")
	assert.Error(t, err, "unsupported format")

	_, err = CreateTableConfig(0, "", "", "ebcdic", "")
	assert.Error(t, err, "unsupported encoding")
}

func TestCreateReferenceConfigs(t *testing.T) {
	configs, err := CreateReferenceConfigs("", "/data/loan.xlsx", "")
	require.NoError(t, err)
	require.Len(t, configs, 2)

	assert.Equal(t, parsers.RICompanyTable, configs[0].Name)
	assert.Equal(t, parsers.DefaultRICompanyConfig().Path, configs[0].Path)
	assert.Equal(t, parsers.LoanTypeTable, configs[1].Name)
	assert.Equal(t, "/data/loan.xlsx", configs[1].Path)

	_, err = CreateReferenceConfigs("", "", "klingon")
	assert.Error(t, err, "unsupported encoding")
}

func TestCreateParams(t *testing.T) {
	params, err := CreateParams("2024-01-01", []string{"GRP1", "GRP2", "GRP1"}, []string{"Active"})
	require.NoError(t, err)
	assert.Equal(t, []string{"GRP1", "GRP2"}, params.ExcludedProductCodes)
	assert.Equal(t, []string{"Active"}, params.IncludedStatuses)

	_, err = CreateParams("01-01-2024", nil, nil)
	assert.Error(t, err, "invalid valuation date")
}

func TestCreatePipelineConfig(t *testing.T) {
	config := CreatePipelineConfig(3)
	assert.Equal(t, 3, config.Workers)
	assert.True(t, config.VerifyPartition)
}

func TestCreateArtifactConfig(t *testing.T) {
	config, err := CreateArtifactConfig("out", "CSV", "{name}_{valuation_date}", "tab")
	require.NoError(t, err)
	assert.Equal(t, reporter.ArtifactCSV, config.Format)
	assert.Equal(t, '\t', config.Delimiter)
	assert.Equal(t, "out", config.OutputDir)

	_, err = CreateArtifactConfig("", "pdf", "", "")
	assert.Error(t, err, "unsupported format")

	_, err = CreateArtifactConfig("", "", "report", "")
	assert.Error(t, err, "pattern without {name}")
}

func TestCreateReportConfig(t *testing.T) {
	tests := []struct {
		format         string
		expectedFormat reporter.OutputFormat
		timings        bool
		expectError    bool
	}{
		{"", reporter.FormatConsole, true, false},
		{"console", reporter.FormatConsole, true, false},
		{"json", reporter.FormatJSON, false, false},
		{"YAML", reporter.FormatYAML, false, false},
		{"csv", "", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			config, err := CreateReportConfig(tt.format)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedFormat, config.Format)
			assert.Equal(t, tt.timings, config.IncludeTimings)
			assert.True(t, config.IncludeStages)
		})
	}
}
