package parsers

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Format identifies the layout of an input file
type Format string

const (
	FormatAuto Format = "auto"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DefaultHeaderRow is the 0-based row holding the column names in a
// standard policy export, below a block of report title lines.
const DefaultHeaderRow = 4

// TableConfig holds configuration for reading the policy table
type TableConfig struct {
	HeaderRow     int    `json:"header_row" yaml:"header_row"`
	Format        Format `json:"format" yaml:"format"`
	Sheet         string `json:"sheet,omitempty" yaml:"sheet,omitempty"`
	Delimiter     rune   `json:"delimiter" yaml:"delimiter"`
	Encoding      string `json:"encoding" yaml:"encoding"`
	SkipEmptyRows bool   `json:"skip_empty_rows" yaml:"skip_empty_rows"`
}

// DefaultTableConfig returns a configuration with sensible defaults
func DefaultTableConfig() *TableConfig {
	return &TableConfig{
		HeaderRow:     DefaultHeaderRow,
		Format:        FormatAuto,
		Delimiter:     ',',
		Encoding:      "utf-8",
		SkipEmptyRows: true,
	}
}

// Validate checks if the table configuration is valid
func (c *TableConfig) Validate() error {
	if c.HeaderRow < 0 {
		return fmt.Errorf("header row cannot be negative: %d", c.HeaderRow)
	}

	switch c.Format {
	case FormatAuto, FormatCSV, FormatXLSX:
	default:
		return fmt.Errorf("unsupported format: %s", c.Format)
	}

	if c.Delimiter == 0 || c.Delimiter == '\n' || c.Delimiter == '\r' || c.Delimiter == '"' {
		return fmt.Errorf("invalid delimiter: %q", c.Delimiter)
	}

	if _, err := LookupEncoding(c.Encoding); err != nil {
		return err
	}

	return nil
}

// ReferenceConfig describes a two-column reference file
type ReferenceConfig struct {
	Name        string `json:"name" yaml:"name"`
	Path        string `json:"path" yaml:"path"`
	KeyColumn   string `json:"key_column" yaml:"key_column"`
	ValueColumn string `json:"value_column" yaml:"value_column"`
	Encoding    string `json:"encoding" yaml:"encoding"`
}

// Reference table names
const (
	RICompanyTable = "ri_company"
	LoanTypeTable  = "loan_type"
)

// DefaultRICompanyConfig maps policy numbers to reinsurers
func DefaultRICompanyConfig() *ReferenceConfig {
	return &ReferenceConfig{
		Name:        RICompanyTable,
		Path:        filepath.Join("TABLE", "RI_Company.csv"),
		KeyColumn:   "PolicyNo",
		ValueColumn: "RI_Company",
		Encoding:    "utf-8",
	}
}

// DefaultLoanTypeConfig maps product codes to loan types
func DefaultLoanTypeConfig() *ReferenceConfig {
	return &ReferenceConfig{
		Name:        LoanTypeTable,
		Path:        filepath.Join("TABLE", "MRP_LOAN_TYPE.csv"),
		KeyColumn:   "Product Code",
		ValueColumn: "Loan Type - RBC",
		Encoding:    "utf-8",
	}
}

// Validate checks if the reference configuration is valid
func (c *ReferenceConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("reference table name cannot be empty")
	}
	if strings.TrimSpace(c.Path) == "" {
		return fmt.Errorf("reference table %s: path cannot be empty", c.Name)
	}
	if strings.TrimSpace(c.KeyColumn) == "" || strings.TrimSpace(c.ValueColumn) == "" {
		return fmt.Errorf("reference table %s: key and value columns are required", c.Name)
	}
	if _, err := LookupEncoding(c.Encoding); err != nil {
		return err
	}
	return nil
}

// LookupEncoding resolves a text encoding name
func LookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return unicode.UTF8, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "iso-8859-1", "latin-1", "latin1":
		return charmap.ISO8859_1, nil
	default:
		return nil, fmt.Errorf("unsupported encoding: %s", name)
	}
}

// DetectFormat resolves the format of path from its extension
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("cannot determine format of %s", path)
	}
}
