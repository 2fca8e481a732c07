package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConverterError(t *testing.T) {
	tests := []struct {
		name       string
		category   ErrorCategory
		code       ErrorCode
		message    string
		cause      error
		expectCode int
	}{
		{
			name:       "file error",
			category:   CategoryFile,
			code:       CodeFileNotFound,
			message:    "file not found",
			cause:      errors.New("no such file"),
			expectCode: 2,
		},
		{
			name:       "parse error",
			category:   CategoryParse,
			code:       CodeInvalidFormat,
			message:    "invalid format",
			cause:      nil,
			expectCode: 3,
		},
		{
			name:       "configuration error",
			category:   CategoryConfiguration,
			code:       CodeInvalidConfig,
			message:    "invalid config",
			cause:      errors.New("missing field"),
			expectCode: 4,
		},
		{
			name:       "structural error",
			category:   CategoryStructural,
			code:       CodeNoColumns,
			message:    "no columns",
			expectCode: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err *ConverterError
			if tt.cause != nil {
				err = Wrap(tt.cause, tt.category, tt.code, tt.message)
			} else {
				err = New(tt.category, tt.code, tt.message)
			}

			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.expectCode, err.GetExitCode())
			assert.Equal(t, tt.message, err.Error())
			if tt.cause != nil {
				assert.Equal(t, tt.cause, err.Unwrap())
			}
			assert.NotEmpty(t, err.StackTrace, "expected stack trace to be captured")
		})
	}
}

func TestWrapNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, CategoryFile, CodeFileNotFound, "x"))
}

func TestConverterErrorWithContext(t *testing.T) {
	err := New(CategoryFile, CodeFileNotFound, "test error").
		WithContext("file", "/path/to/file").
		WithContext("row", 42).
		WithSuggestion("check file path")

	assert.Equal(t, "/path/to/file", err.Context["file"])
	assert.Equal(t, 42, err.Context["row"])
	assert.Equal(t, "test error (suggestion: check file path)", err.Error())
}

func TestSpecificErrorConstructors(t *testing.T) {
	t.Run("FileError", func(t *testing.T) {
		cause := errors.New("permission denied")
		err := FileError(CodeFilePermission, "/test/file.csv", cause)

		assert.Equal(t, CategoryFile, err.Category)
		assert.Equal(t, "/test/file.csv", err.Context["file_path"])
		assert.NotEmpty(t, err.Suggestion)
		assert.Equal(t, cause, err.Cause)
	})

	t.Run("ParseError", func(t *testing.T) {
		err := ParseError(CodeInvalidData, "export.csv", 10, "Policy Term (Months)", "abc", nil)

		assert.Equal(t, CategoryParse, err.Category)
		assert.Equal(t, 10, err.Context["row"])
		assert.Contains(t, err.Message, "Policy Term (Months)")
	})

	t.Run("ValidationError", func(t *testing.T) {
		err := ValidationError(CodeInvalidDate, "valuation-date", "31/02/2024", nil)

		assert.Equal(t, CategoryValidation, err.Category)
		assert.Equal(t, "31/02/2024", err.Context["value"])
	})

	t.Run("ReferenceError", func(t *testing.T) {
		err := ReferenceError("ri_company", "TABLE/RI_Company.csv", errors.New("missing"))

		assert.Equal(t, CategoryReference, err.Category)
		assert.Equal(t, CodeReferenceUnavailable, err.Code)
		assert.Equal(t, "ri_company", err.Context["table"])
	})

	t.Run("InternalError", func(t *testing.T) {
		err := InternalError(CodeCancelled, "field mapping", nil)
		assert.Equal(t, 6, err.GetExitCode())
	})
}

func TestErrorSummary(t *testing.T) {
	errs := []*ConverterError{
		New(CategoryFile, CodeFileNotFound, "error 1"),
		New(CategoryFile, CodeFilePermission, "error 2"),
		New(CategoryReference, CodeReferenceUnavailable, "error 3"),
		New(CategoryReference, CodeReferenceUnavailable, "error 4"),
		New(CategoryValidation, CodeInvalidDate, "error 5"),
		New(CategoryValidation, CodeInvalidDate, "error 6"),
	}

	summary := NewErrorSummary(errs)

	assert.Equal(t, 6, summary.Total)
	assert.Equal(t, 2, summary.ByCategory[CategoryFile])
	assert.Equal(t, 2, summary.ByCode[CodeReferenceUnavailable])
	assert.Len(t, summary.SampleErrors, 5)
	assert.Equal(t, "6 errors occurred (file: 2, reference: 2, validation: 2)", summary.Error())

	assert.True(t, summary.HasCategory(CategoryFile))
	assert.False(t, summary.HasCategory(CategoryStructural))
	assert.True(t, summary.HasCode(CodeInvalidDate))
	assert.Equal(t, 6, summary.GetExitCode())
}

func TestEmptyErrorSummary(t *testing.T) {
	summary := NewErrorSummary(nil)

	assert.Zero(t, summary.Total)
	assert.Equal(t, "no errors", summary.Error())
	assert.Zero(t, summary.GetExitCode())
}

func TestSingleErrorSummary(t *testing.T) {
	err := New(CategoryFile, CodeFileNotFound, "single error")
	summary := NewErrorSummary([]*ConverterError{err})

	assert.Equal(t, "single error", summary.Error())
}

func TestAsConverterError(t *testing.T) {
	convErr := New(CategoryFile, CodeFileNotFound, "test")

	extracted, ok := AsConverterError(convErr)
	require.True(t, ok)
	assert.Same(t, convErr, extracted)

	extracted, ok = AsConverterError(fmt.Errorf("outer: %w", convErr))
	require.True(t, ok, "expected AsConverterError to find a wrapped ConverterError")
	assert.Same(t, convErr, extracted)

	_, ok = AsConverterError(errors.New("generic error"))
	assert.False(t, ok)
	assert.False(t, IsConverterError(nil))
}

func TestWrapIfNeeded(t *testing.T) {
	convErr := New(CategoryFile, CodeFileNotFound, "test")
	genericErr := errors.New("generic error")

	assert.Same(t, convErr, WrapIfNeeded(convErr, CategoryParse, CodeInvalidFormat, "wrapped"))

	wrapped := WrapIfNeeded(genericErr, CategoryParse, CodeInvalidFormat, "wrapped")
	require.NotNil(t, wrapped)
	assert.Equal(t, genericErr, wrapped.Cause)
	assert.Equal(t, CategoryParse, wrapped.Category)

	assert.Nil(t, WrapIfNeeded(nil, CategoryParse, CodeInvalidFormat, "wrapped"))
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		category     ErrorCategory
		expectedCode int
	}{
		{CategoryFile, 2},
		{CategoryParse, 3},
		{CategoryValidation, 3},
		{CategoryConfiguration, 4},
		{CategoryStructural, 5},
		{CategoryReference, 6},
		{CategoryInternal, 6},
		{ErrorCategory("unknown"), 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			err := New(tt.category, "test_code", "test message")
			assert.Equal(t, tt.expectedCode, err.GetExitCode())
		})
	}
}

func TestTableErrors(t *testing.T) {
	t.Run("missing column", func(t *testing.T) {
		err := MissingColumnError("export.csv", 4, "status", "Policy Status", []string{"Policy Number"})

		assert.Equal(t, CategoryStructural, err.Category)
		assert.Equal(t, CodeMissingColumn, err.Code)
		assert.Contains(t, err.Error(), "header row 4")

		detail := err.GetDetailedError()
		for _, want := range []string{"Policy Status", "status", "Policy Number"} {
			assert.Contains(t, detail, want)
		}
	})

	t.Run("no columns", func(t *testing.T) {
		err := NoColumnsError("export.xlsx", 2)
		assert.Equal(t, CodeNoColumns, err.Code)
	})

	t.Run("header out of range", func(t *testing.T) {
		err := HeaderOutOfRangeError("export.csv", 10, 3)
		assert.Equal(t, 3, err.Table.RowCount)
	})

	t.Run("unwraps to converter error", func(t *testing.T) {
		var err error = fmt.Errorf("load: %w", NoColumnsError("export.csv", 0))

		convErr, ok := AsConverterError(err)
		require.True(t, ok, "expected AsConverterError to find the embedded error")
		assert.Equal(t, 5, convErr.GetExitCode())

		_, ok = AsTableError(err)
		assert.True(t, ok)
	})
}
