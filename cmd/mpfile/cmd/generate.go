package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"golang-mpfile-service/cmd/mpfile/config"
	"golang-mpfile-service/internal/exportgen"
	"golang-mpfile-service/pkg/errors"
	"golang-mpfile-service/pkg/logger"
)

var (
	generateOutputDir     string
	generateCount         int
	generateSeed          int64
	generateValuationDate string
	generateFormat        string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write a synthetic policy export with matching reference tables",
	Long: `Generate writes a policy export of --count policies with four title lines
above the header, plus TABLE/RI_Company.csv and TABLE/MRP_LOAN_TYPE.csv.
Policies are spread over every filter outcome relative to --valuation-date,
and the expected counts are printed so a convert run can be checked.

Examples:
  mpfile generate --output-dir demo --count 1000
  mpfile convert --input demo/export.xlsx --valuation-date 2024-01-01 \
    --exclude-product-codes GRP1,GRP2 --include-statuses Active \
    --ri-table demo/TABLE/RI_Company.csv --loan-type-table demo/TABLE/MRP_LOAN_TYPE.csv`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&generateOutputDir, "output-dir", "o", "sample", "directory to write the export into")
	generateCmd.Flags().IntVarP(&generateCount, "count", "n", 1000, "number of policies")
	generateCmd.Flags().Int64Var(&generateSeed, "seed", 1, "random seed")
	generateCmd.Flags().StringVarP(&generateValuationDate, "valuation-date", "d", "", "valuation date the outcomes are relative to, YYYY-MM-DD (required)")
	generateCmd.Flags().StringVar(&generateFormat, "format", "xlsx", "export format: xlsx, csv")

	generateCmd.MarkFlagRequired("valuation-date")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	valuationDate, err := config.ParseValuationDate(generateValuationDate)
	if err != nil {
		return errors.ValidationError(errors.CodeInvalidDate, "valuation-date", generateValuationDate, err).
			WithSuggestion("Use --valuation-date YYYY-MM-DD")
	}
	if generateCount <= 0 {
		return errors.ValidationError(errors.CodeOutOfRange, "count", generateCount, nil)
	}

	g := exportgen.NewGenerator(generateCount, valuationDate, generateSeed)
	var write func(string, []*exportgen.Policy) error
	switch generateFormat {
	case "xlsx":
		write = g.WriteToXLSX
	case "csv":
		write = g.WriteToCSV
	default:
		return errors.ConfigurationError(errors.CodeInvalidConfig, "format", generateFormat, nil).
			WithSuggestion("Use --format xlsx or --format csv")
	}

	if err := os.MkdirAll(generateOutputDir, 0755); err != nil {
		return errors.FileError(errors.CodeDirectoryError, generateOutputDir, err)
	}

	policies := g.Generate()
	path := filepath.Join(generateOutputDir, "export."+generateFormat)
	if err := write(path, policies); err != nil {
		return errors.FileError(errors.CodeWriteFailed, path, err)
	}
	if err := g.WriteReferenceTables(generateOutputDir, policies); err != nil {
		return errors.FileError(errors.CodeWriteFailed, filepath.Join(generateOutputDir, "TABLE"), err)
	}

	logger.GetGlobalLogger().WithFields(logger.Fields{
		"path":  path,
		"count": generateCount,
		"seed":  generateSeed,
	}).Info("Generated policy export")

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Wrote %s\n\nExpected outcomes:\n", path)
	counts := exportgen.Counts(policies)
	outcomes := make([]string, 0, len(counts))
	for outcome := range counts {
		outcomes = append(outcomes, string(outcome))
	}
	sort.Strings(outcomes)
	for _, outcome := range outcomes {
		fmt.Fprintf(out, "  %-28s %d\n", outcome, counts[exportgen.Outcome(outcome)])
	}
	return nil
}
