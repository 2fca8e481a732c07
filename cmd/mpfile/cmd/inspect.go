package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"golang-mpfile-service/cmd/mpfile/config"
	"golang-mpfile-service/internal/models"
	"golang-mpfile-service/internal/parsers"
	"golang-mpfile-service/pkg/errors"
)

// Flags for the inspect command. They are not bound to viper so the
// convert settings of a config file do not leak into inspection.
var (
	inspectInput     string
	inspectHeaderRow int
	inspectRows      int
	inspectSheet     string
	inspectEncoding  string
	inspectDelimiter string
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Preview an export and list its product codes and statuses",
	Long: `Inspect prints the first rows of a policy export exactly as read, which
helps locate the header row, then reads the table at --header-row and lists
its columns with the distinct Product Codes and Policy Statuses, the values
accepted by --exclude-product-codes and --include-statuses.

Examples:
  mpfile inspect --input export.xlsx
  mpfile inspect --input export.csv --header-row 0 --rows 5`,
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringVarP(&inspectInput, "input", "i", "", "path to the policy export, CSV or XLSX (required)")
	inspectCmd.Flags().IntVar(&inspectHeaderRow, "header-row", parsers.DefaultHeaderRow, "0-based row holding the column names")
	inspectCmd.Flags().IntVarP(&inspectRows, "rows", "n", 10, "number of raw rows to preview")
	inspectCmd.Flags().StringVar(&inspectSheet, "sheet", "", "worksheet to read (default: first sheet)")
	inspectCmd.Flags().StringVar(&inspectEncoding, "encoding", "utf-8", "CSV text encoding")
	inspectCmd.Flags().StringVar(&inspectDelimiter, "delimiter", ",", "CSV delimiter")

	inspectCmd.MarkFlagRequired("input")
}

func runInspect(cmd *cobra.Command, args []string) error {
	if err := validateFileExists(inspectInput, "input file"); err != nil {
		return err
	}

	tableConfig, err := config.CreateTableConfig(inspectHeaderRow, "", inspectSheet, inspectEncoding, inspectDelimiter)
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "input", inspectInput, err)
	}

	parser, err := parsers.NewTableParser(tableConfig)
	if err != nil {
		return err
	}

	ctx := context.Background()
	out := cmd.OutOrStdout()

	rows, err := parser.Preview(ctx, inspectInput, inspectRows)
	if err != nil {
		return err
	}
	printPreview(out, rows)

	table, _, err := parser.ParseFile(ctx, inspectInput)
	if err != nil {
		return err
	}
	printCandidates(out, table)

	return nil
}

func printPreview(out io.Writer, rows [][]models.Cell) {
	fmt.Fprintf(out, "=== FIRST %d ROWS ===\n", len(rows))
	for i, row := range rows {
		values := make([]string, len(row))
		for j, c := range row {
			values[j] = c.String()
		}
		fmt.Fprintf(out, "%3d | %s\n", i, strings.Join(values, " | "))
	}
	fmt.Fprintf(out, "\n")
}

func printCandidates(out io.Writer, table *models.InputTable) {
	fmt.Fprintf(out, "=== COLUMNS (header row %d) ===\n", table.HeaderRow)
	for i, name := range table.Columns() {
		fmt.Fprintf(out, "%3d  %s\n", i, name)
	}
	fmt.Fprintf(out, "\nRecords: %d\n\n", table.Len())

	for _, column := range []string{models.ColProductCode, models.ColPolicyStatus} {
		fmt.Fprintf(out, "=== %s ===\n", strings.ToUpper(column))
		if !table.HasColumn(column) {
			fmt.Fprintf(out, "  column not found\n\n")
			continue
		}
		for _, v := range table.DistinctValues(column) {
			fmt.Fprintf(out, "  %s\n", v)
		}
		fmt.Fprintf(out, "\n")
	}
}
