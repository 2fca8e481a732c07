package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-mpfile-service/pkg/errors"
)

func TestRunInspect(t *testing.T) {
	tmpDir := t.TempDir()
	input := writeExport(t, tmpDir)

	inspectInput = input
	inspectHeaderRow = 4
	inspectRows = 3
	inspectSheet = ""
	inspectEncoding = "utf-8"
	inspectDelimiter = ","

	var buf bytes.Buffer
	inspectCmd.SetOut(&buf)
	defer inspectCmd.SetOut(nil)

	require.NoError(t, runInspect(inspectCmd, nil))

	out := buf.String()
	for _, want := range []string{
		"=== FIRST 3 ROWS ===",
		"Policy Listing Report",
		"=== COLUMNS (header row 4) ===",
		"Records: 6",
		"=== PRODUCT CODE ===",
		"  GRP1\n",
		"=== POLICY STATUS ===",
		"  Lapsed\n",
	} {
		assert.Contains(t, out, want)
	}
	assert.Equal(t, 1, strings.Count(out, "  MRP02\n"), "expected distinct product codes:\n%s", out)
}

func TestRunInspectMissingFile(t *testing.T) {
	inspectInput = filepath.Join(t.TempDir(), "missing.xlsx")
	inspectEncoding = "utf-8"
	inspectDelimiter = ","

	err := runInspect(inspectCmd, nil)
	require.Error(t, err, "expected error for missing file")
	assert.Equal(t, 2, NewCLIErrorHandler().withOutput(&bytes.Buffer{}).HandleError(err))
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		expectedCode int
		contains     string
	}{
		{
			name:         "nil",
			err:          nil,
			expectedCode: 0,
		},
		{
			name:         "missing column",
			err:          errors.MissingColumnError("export.csv", 4, "status", "Policy Status", []string{"Policy Number"}),
			expectedCode: 5,
			contains:     "Columns found: Policy Number",
		},
		{
			name: "validation",
			err: errors.ValidationError(errors.CodeInvalidDate, "valuation-date", "x", nil).
				WithSuggestion("Use --valuation-date YYYY-MM-DD"),
			expectedCode: 3,
			contains:     "Suggestion: Use --valuation-date YYYY-MM-DD",
		},
		{
			name:         "configuration",
			err:          errors.ConfigurationError(errors.CodeInvalidConfig, "report-format", "csv", nil),
			expectedCode: 4,
			contains:     "Configuration error help",
		},
		{
			name:         "wrapped converter error",
			err:          fmt.Errorf("run: %w", errors.FileError(errors.CodeWriteFailed, "out.xlsx", nil)),
			expectedCode: 2,
			contains:     "File error help",
		},
		{
			name:         "unknown flag",
			err:          fmt.Errorf("unknown flag: --bogus"),
			expectedCode: 1,
			contains:     "mpfile --help",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			code := NewCLIErrorHandler().withOutput(&buf).HandleError(tt.err)
			assert.Equal(t, tt.expectedCode, code)
			if tt.contains != "" {
				assert.Contains(t, buf.String(), tt.contains)
			}
		})
	}
}

func TestVersionString(t *testing.T) {
	SetVersionInfo("dev", "abc123", "2024-01-01")
	assert.Contains(t, getVersionString(), "abc123", "expected commit in dev version")

	SetVersionInfo("1.2.0", "abc123", "2024-01-01")
	defer SetVersionInfo("dev", "unknown", "unknown")
	assert.Equal(t, "1.2.0", getVersionString())
	assert.Equal(t, "1.2.0", rootCmd.Version, "root command version should follow")
}
