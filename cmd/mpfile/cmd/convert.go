package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"golang-mpfile-service/cmd/mpfile/config"
	"golang-mpfile-service/internal/parsers"
	"golang-mpfile-service/internal/pipeline"
	"golang-mpfile-service/internal/reporter"
	"golang-mpfile-service/pkg/errors"
	"golang-mpfile-service/pkg/logger"
)

// Flags for the convert command
var (
	inputFile            string
	headerRow            int
	inputFormat          string
	sheet                string
	inputDelimiter       string
	inputEncoding        string
	valuationDate        string
	excludedProductCodes []string
	includedStatuses     []string
	riTable              string
	loanTypeTable        string
	outputDir            string
	outputFormat         string
	namePattern          string
	outputDelimiter      string
	reportFormat         string
	reportFile           string
	workers              int
	dryRun               bool
	showProgress         bool
)

// convertCmd represents the convert command
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a policy export into an MP File",
	Long: `Convert reads a policy export, filters it against the valuation date and
maps every remaining policy into the 43-column MP File.

Five files are written to the output directory:
  generated_output           the MP File
  selected_policies          group MCR policies (excluded product codes)
  ignored_policies           policies commencing after the valuation date
  ignored_maturity_policies  policies maturing on or before the valuation date
  error_maturity_policies    policies whose maturity date cannot be computed

Reinsurer and loan type lookups are read from TABLE/RI_Company.csv and
TABLE/MRP_LOAN_TYPE.csv unless --ri-table and --loan-type-table are given.
A missing lookup table is reported and its default value is used.

Examples:
  # Standard export with report title lines above the header
  mpfile convert --input export.xlsx --valuation-date 2024-01-01 \
    --exclude-product-codes GRP1,GRP2 --include-statuses Active

  # CSV artifacts stamped with the valuation date
  mpfile convert --input export.csv --valuation-date 2024-01-01 \
    --include-statuses Active,"In Force" --output-format csv \
    --name-pattern "{name}_{valuation_date}"

  # Check counts without writing anything
  mpfile convert --input export.xlsx --valuation-date 2024-01-01 \
    --include-statuses Active --dry-run --report-format json`,

	PreRunE: validateConvertFlags,
	RunE:    runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	// Input flags
	convertCmd.Flags().StringVarP(&inputFile, "input", "i", "", "path to the policy export, CSV or XLSX (required)")
	convertCmd.Flags().IntVar(&headerRow, "header-row", parsers.DefaultHeaderRow, "0-based row holding the column names")
	convertCmd.Flags().StringVar(&inputFormat, "input-format", "auto", "input format: auto, csv, xlsx")
	convertCmd.Flags().StringVar(&sheet, "sheet", "", "worksheet to read (default: first sheet)")
	convertCmd.Flags().StringVar(&inputDelimiter, "delimiter", ",", "CSV input delimiter")
	convertCmd.Flags().StringVar(&inputEncoding, "encoding", "utf-8", "CSV text encoding: utf-8, windows-1252, iso-8859-1")

	// Filter flags
	convertCmd.Flags().StringVarP(&valuationDate, "valuation-date", "d", "", "valuation date (YYYY-MM-DD, required)")
	convertCmd.Flags().StringSliceVar(&excludedProductCodes, "exclude-product-codes", []string{}, "product codes of group MCR policies to exclude")
	convertCmd.Flags().StringSliceVar(&includedStatuses, "include-statuses", []string{}, "policy statuses to keep (required)")

	// Reference table flags
	convertCmd.Flags().StringVar(&riTable, "ri-table", "", "reinsurer lookup table (default TABLE/RI_Company.csv)")
	convertCmd.Flags().StringVar(&loanTypeTable, "loan-type-table", "", "loan type lookup table (default TABLE/MRP_LOAN_TYPE.csv)")

	// Output flags
	convertCmd.Flags().StringVarP(&outputDir, "output-dir", "o", "output", "directory for the written tables")
	convertCmd.Flags().StringVar(&outputFormat, "output-format", "xlsx", "table format: xlsx, csv")
	convertCmd.Flags().StringVar(&namePattern, "name-pattern", reporter.PlaceholderName,
		"file name pattern: {name}, {run_id}, {uuid}, {timestamp}, {valuation_date}")
	convertCmd.Flags().StringVar(&outputDelimiter, "output-delimiter", ",", "CSV output delimiter")
	convertCmd.Flags().StringVarP(&reportFormat, "report-format", "f", "console", "run summary format: console, json, yaml")
	convertCmd.Flags().StringVar(&reportFile, "report-file", "", "run summary file (default: stdout)")

	// Processing flags
	convertCmd.Flags().IntVar(&workers, "workers", 0, "parallel mapping workers (0: one per CPU)")
	convertCmd.Flags().BoolVar(&dryRun, "dry-run", false, "run the conversion without writing tables")
	convertCmd.Flags().BoolVar(&showProgress, "progress", false, "show progress indicators")

	// Bind flags to viper
	for _, name := range []string{
		"input", "header-row", "input-format", "sheet", "delimiter", "encoding",
		"valuation-date", "exclude-product-codes", "include-statuses",
		"ri-table", "loan-type-table",
		"output-dir", "output-format", "name-pattern", "output-delimiter", "report-format", "report-file",
		"workers", "dry-run", "progress",
	} {
		viper.BindPFlag(name, convertCmd.Flags().Lookup(name))
	}
}

func validateConvertFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file and environment)
	inputFile = viper.GetString("input")
	headerRow = viper.GetInt("header-row")
	inputFormat = viper.GetString("input-format")
	sheet = viper.GetString("sheet")
	inputDelimiter = viper.GetString("delimiter")
	inputEncoding = viper.GetString("encoding")
	valuationDate = viper.GetString("valuation-date")
	excludedProductCodes = config.SplitList(viper.Get("exclude-product-codes"))
	includedStatuses = config.SplitList(viper.Get("include-statuses"))
	riTable = viper.GetString("ri-table")
	loanTypeTable = viper.GetString("loan-type-table")
	outputDir = viper.GetString("output-dir")
	outputFormat = viper.GetString("output-format")
	namePattern = viper.GetString("name-pattern")
	outputDelimiter = viper.GetString("output-delimiter")
	reportFormat = viper.GetString("report-format")
	reportFile = viper.GetString("report-file")
	workers = viper.GetInt("workers")
	dryRun = viper.GetBool("dry-run")
	showProgress = viper.GetBool("progress")

	if inputFile == "" {
		return errors.ValidationError(errors.CodeMissingField, "input", nil, nil).
			WithSuggestion("Pass the policy export with --input")
	}
	if err := validateFileExists(inputFile, "input file"); err != nil {
		return err
	}

	if _, err := config.ParseValuationDate(valuationDate); err != nil {
		return errors.ValidationError(errors.CodeInvalidDate, "valuation-date", valuationDate, err).
			WithSuggestion("Use --valuation-date YYYY-MM-DD")
	}

	if len(includedStatuses) == 0 {
		return errors.ValidationError(errors.CodeMissingField, "include-statuses", nil, nil).
			WithSuggestion("Pass at least one status with --include-statuses; run 'mpfile inspect' to list them")
	}

	if headerRow < 0 {
		return errors.ValidationError(errors.CodeOutOfRange, "header-row", headerRow, nil)
	}
	if workers < 0 {
		return errors.ValidationError(errors.CodeOutOfRange, "workers", workers, nil)
	}

	if _, err := config.CreateReportConfig(reportFormat); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "report-format", reportFormat, err).
			WithSuggestion("Valid formats: console, json, yaml")
	}

	// Validate report file directory exists if specified
	if reportFile != "" {
		dir := filepath.Dir(reportFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return errors.FileError(errors.CodeDirectoryError, dir, err)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return errors.FileError(errors.CodeFileNotFound, filePath, err)
	}
	if err != nil {
		return errors.FileError(errors.CodeFilePermission, filePath, err)
	}

	if info.IsDir() {
		return errors.FileError(errors.CodeFileNotFound, filePath,
			fmt.Errorf("%s is a directory, expected a file", description))
	}

	// Check if file is readable
	file, err := os.Open(filePath)
	if err != nil {
		return errors.FileError(errors.CodeFilePermission, filePath, err)
	}
	file.Close()

	return nil
}

// convertOptions gathers the typed configurations of one run
type convertOptions struct {
	request   *pipeline.Request
	service   *pipeline.Config
	artifacts *reporter.ArtifactConfig
	report    *reporter.ReportConfig
}

func buildConvertOptions() (*convertOptions, error) {
	table, err := config.CreateTableConfig(headerRow, inputFormat, sheet, inputEncoding, inputDelimiter)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "input", inputFile, err)
	}

	refs, err := config.CreateReferenceConfigs(riTable, loanTypeTable, inputEncoding)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "reference tables", nil, err)
	}

	params, err := config.CreateParams(valuationDate, excludedProductCodes, includedStatuses)
	if err != nil {
		return nil, errors.ValidationError(errors.CodeInvalidDate, "valuation-date", valuationDate, err)
	}

	artifacts, err := config.CreateArtifactConfig(outputDir, outputFormat, namePattern, outputDelimiter)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "output", outputDir, err).
			WithSuggestion("Check --output-format (xlsx, csv) and --name-pattern (must contain {name})")
	}

	report, err := config.CreateReportConfig(reportFormat)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "report-format", reportFormat, err)
	}

	return &convertOptions{
		request: &pipeline.Request{
			InputFile:  inputFile,
			Table:      table,
			References: refs,
			Params:     params,
		},
		service:   config.CreatePipelineConfig(workers),
		artifacts: artifacts,
		report:    report,
	}, nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.GetGlobalLogger().WithComponent("cli")

	opts, err := buildConvertOptions()
	if err != nil {
		return err
	}

	op := logger.NewOperationLogger("convert", log).WithFields(logger.Fields{
		"input":          inputFile,
		"header_row":     headerRow,
		"valuation_date": valuationDate,
		"excluded":       excludedProductCodes,
		"statuses":       includedStatuses,
		"output_dir":     outputDir,
		"dry_run":        dryRun,
	})

	service, err := pipeline.NewService(opts.service)
	if err != nil {
		return err
	}

	if showProgress {
		service.AddProgressCallback(func(progress pipeline.Progress) {
			fmt.Fprintf(os.Stderr, "\r[%d/%d] %-16s (%.1f%% complete)",
				progress.CompletedSteps, progress.TotalSteps,
				progress.CurrentStep, progress.PercentComplete)
		})
	}

	op.Step("transform")
	result, err := service.Run(ctx, opts.request)
	if showProgress {
		fmt.Fprintf(os.Stderr, "\n")
	}
	if err != nil {
		op.Error(err, "Conversion failed")
		return err
	}

	var artifacts []*reporter.Artifact
	if dryRun {
		op.Warning("Dry run, no artifacts written")
	} else {
		op.Step("write_artifacts")
		writer, err := reporter.NewArtifactWriter(opts.artifacts)
		if err != nil {
			return err
		}
		artifacts, err = writer.WriteAll(ctx, result)
		if err != nil {
			op.Error(err, "Writing artifacts failed")
			return err
		}
	}

	summary := reporter.NewSummary(result, artifacts)
	summary.DryRun = dryRun

	if err := writeSummary(summary, opts.report, cmd.OutOrStdout()); err != nil {
		return err
	}
	op.Success("Conversion finished")
	return nil
}

func writeSummary(summary *reporter.Summary, reportConfig *reporter.ReportConfig, stdout io.Writer) error {
	generator, err := reporter.NewSafeReportGenerator(reportConfig, nil)
	if err != nil {
		return err
	}

	if reportFile == "" {
		return generator.GenerateReportSafely(summary, stdout)
	}

	output, err := os.Create(reportFile)
	if err != nil {
		return errors.FileError(errors.CodeWriteFailed, reportFile, err)
	}
	defer output.Close()

	return generator.GenerateReportSafely(summary, output)
}
