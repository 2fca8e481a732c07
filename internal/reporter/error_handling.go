package reporter

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang-mpfile-service/pkg/errors"
	"golang-mpfile-service/pkg/logger"
)

// SafeReportGenerator writes run summaries with fallbacks. A summary file
// that cannot be written is redirected to a backup file beside it; a
// structured format that fails is replaced by the console layout.
type SafeReportGenerator struct {
	*ReportGenerator
	logger logger.Logger
}

// fallback is one recovery attempt after the requested report failed
type fallback struct {
	name    string
	applies func(err error, w io.Writer) bool
	write   func(summary *Summary, w io.Writer, cause error) error
}

// NewSafeReportGenerator creates a report generator with fallbacks
func NewSafeReportGenerator(config *ReportConfig, log logger.Logger) (*SafeReportGenerator, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	generator, err := NewReportGenerator(config)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "report-format", config, err).
			WithSuggestion("Use --report-format console, json or yaml")
	}

	return &SafeReportGenerator{
		ReportGenerator: generator,
		logger:          log.WithComponent("reporter"),
	}, nil
}

// GenerateReportSafely writes the summary to w, trying the fallbacks in
// order when the requested report cannot be written
func (g *SafeReportGenerator) GenerateReportSafely(summary *Summary, w io.Writer) error {
	if err := g.ValidateSummary(summary); err != nil {
		return err
	}
	if w == nil {
		return errors.ValidationError(errors.CodeMissingField, "writer", nil, nil).
			WithSuggestion("Provide a destination for the run summary")
	}

	log := g.logger.WithRun(summary.RunID).WithFields(logger.Fields{
		"format": g.config.Format,
		"output": describeWriter(w),
	})

	err := g.GenerateReport(summary, w)
	if err == nil {
		log.Debug("Wrote run summary")
		return nil
	}
	log.WithError(err).Warn("Run summary could not be written, trying fallbacks")

	for _, fb := range g.fallbacks() {
		if !fb.applies(err, w) {
			continue
		}
		if fbErr := fb.write(summary, w, err); fbErr != nil {
			return errors.InternalError(errors.CodeUnexpectedError, "report_"+fb.name,
				fmt.Errorf("summary: %v; %s fallback: %v", err, fb.name, fbErr))
		}
		log.WithField("fallback", fb.name).Info("Wrote run summary using fallback")
		return nil
	}

	if convErr, ok := errors.AsConverterError(err); ok {
		return convErr
	}
	return errors.InternalError(errors.CodeUnexpectedError, "report_generation", err).
		WithSuggestion("Check --report-file and --report-format")
}

// ValidateSummary checks that a summary can be rendered
func (g *SafeReportGenerator) ValidateSummary(summary *Summary) error {
	if summary == nil {
		return errors.ValidationError(errors.CodeMissingField, "summary", nil, nil).
			WithSuggestion("Provide the summary of a completed run")
	}
	if summary.RunID == "" {
		return errors.ValidationError(errors.CodeMissingField, "run_id", nil, nil)
	}
	return nil
}

func (g *SafeReportGenerator) fallbacks() []fallback {
	return []fallback{
		{
			name: "backup_file",
			applies: func(err error, w io.Writer) bool {
				return reportFile(w) != nil && isFileError(err)
			},
			write: g.writeBackupFile,
		},
		{
			name: "console",
			applies: func(err error, w io.Writer) bool {
				return g.config.Format != FormatConsole
			},
			write: g.writeConsole,
		},
	}
}

func (g *SafeReportGenerator) writeBackupFile(summary *Summary, w io.Writer, cause error) error {
	original := reportFile(w).Name()
	backup := BackupPath(original)

	f, err := os.Create(backup)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := g.GenerateReport(summary, f); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Warning: could not write %s (%v), run summary saved to %s\n", original, cause, backup)
	return nil
}

func (g *SafeReportGenerator) writeConsole(summary *Summary, w io.Writer, cause error) error {
	config := *g.config
	config.Format = FormatConsole
	console, err := NewReportGenerator(&config)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "NOTE: Report generated in fallback format, %s output failed: %v\n\n", g.config.Format, cause)
	return console.GenerateReport(summary, w)
}

// BackupPath returns the path used when the report file cannot be written
func BackupPath(originalPath string) string {
	ext := filepath.Ext(originalPath)
	return strings.TrimSuffix(originalPath, ext) + "_backup" + ext
}

// reportFile returns w when it is a named file other than stdout or stderr
func reportFile(w io.Writer) *os.File {
	f, ok := w.(*os.File)
	if !ok || f == os.Stdout || f == os.Stderr || f.Name() == "" {
		return nil
	}
	return f
}

func describeWriter(w io.Writer) string {
	if f, ok := w.(*os.File); ok {
		return "file:" + f.Name()
	}
	return fmt.Sprintf("%T", w)
}

func isFileError(err error) bool {
	return os.IsPermission(err) || os.IsNotExist(err) || isSpaceError(err)
}

func isSpaceError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"no space left", "disk full", "device full"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
