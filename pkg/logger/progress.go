package logger

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// ProgressTracker counts records processed by a stage and logs throughput
// at most once per interval. It is safe for concurrent use.
type ProgressTracker struct {
	logger    Logger
	operation string
	total     int64
	processed atomic.Int64
	started   time.Time
	interval  time.Duration

	mu      sync.Mutex
	lastLog time.Time
}

// ProgressConfig configures progress tracking behavior
type ProgressConfig struct {
	Operation   string
	Total       int64
	LogInterval time.Duration
	Logger      Logger
}

// NewProgressTracker creates a progress tracker. The default interval is
// two seconds.
func NewProgressTracker(config ProgressConfig) *ProgressTracker {
	log := config.Logger
	if log == nil {
		log = GetGlobalLogger()
	}
	interval := config.LogInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}

	now := time.Now()
	return &ProgressTracker{
		logger:    log.WithField("operation", config.Operation),
		operation: config.Operation,
		total:     config.Total,
		started:   now,
		interval:  interval,
		lastLog:   now,
	}
}

// Increment records one processed record
func (p *ProgressTracker) Increment() {
	p.processed.Add(1)

	now := time.Now()
	p.mu.Lock()
	due := now.Sub(p.lastLog) >= p.interval
	if due {
		p.lastLog = now
	}
	p.mu.Unlock()

	if due {
		p.logger.WithFields(p.stats(now).fields()).Info("Progress update")
	}
}

// Complete logs and returns the final statistics
func (p *ProgressTracker) Complete() ProgressStats {
	stats := p.stats(time.Now())
	p.logger.WithFields(stats.fields()).Debug("Progress complete")
	return stats
}

func (p *ProgressTracker) stats(now time.Time) ProgressStats {
	stats := ProgressStats{
		Operation: p.operation,
		Total:     p.total,
		Processed: p.processed.Load(),
		Duration:  now.Sub(p.started),
	}
	if secs := stats.Duration.Seconds(); secs > 0 {
		stats.Rate = float64(stats.Processed) / secs
	}
	if p.total > 0 {
		stats.Percentage = float64(stats.Processed) / float64(p.total) * 100
	}
	return stats
}

// ProgressStats is a snapshot of a tracker
type ProgressStats struct {
	Operation  string        `json:"operation"`
	Total      int64         `json:"total"`
	Processed  int64         `json:"processed"`
	Percentage float64       `json:"percentage"`
	Duration   time.Duration `json:"duration"`
	Rate       float64       `json:"rate"`
}

func (ps ProgressStats) fields() Fields {
	fields := Fields{
		"processed": ps.Processed,
		"rate":      fmt.Sprintf("%.0f records/sec", ps.Rate),
	}
	if ps.Total > 0 {
		fields["total"] = ps.Total
		fields["percentage"] = fmt.Sprintf("%.1f%%", ps.Percentage)
	}
	return fields
}

func (ps ProgressStats) String() string {
	if ps.Total > 0 {
		return fmt.Sprintf("%s: %d/%d records (%.1f%%)", ps.Operation, ps.Processed, ps.Total, ps.Percentage)
	}
	return fmt.Sprintf("%s: %d records in %v", ps.Operation, ps.Processed, ps.Duration)
}

// OperationLogger logs the steps and outcome of one operation with its
// elapsed time
type OperationLogger struct {
	logger  Logger
	started time.Time
}

// NewOperationLogger starts timing an operation
func NewOperationLogger(operation string, logger Logger) *OperationLogger {
	if logger == nil {
		logger = GetGlobalLogger()
	}
	ol := &OperationLogger{
		logger:  logger.WithField("operation", operation),
		started: time.Now(),
	}
	ol.logger.Debug("Starting operation")
	return ol
}

// WithFields attaches fields to every later entry
func (ol *OperationLogger) WithFields(fields Fields) *OperationLogger {
	ol.logger = ol.logger.WithFields(fields)
	return ol
}

// Step logs entry into a step of the operation
func (ol *OperationLogger) Step(step string) {
	ol.logger.WithField("step", step).Info("Operation step")
}

// Elapsed returns the time since the operation started
func (ol *OperationLogger) Elapsed() time.Duration {
	return time.Since(ol.started)
}

// Success logs successful completion
func (ol *OperationLogger) Success(message string) {
	ol.finish("success").Info(message)
}

// Error logs failure
func (ol *OperationLogger) Error(err error, message string) {
	ol.finish("error").WithError(err).Error(message)
}

// Warning logs a warning without ending the operation
func (ol *OperationLogger) Warning(message string) {
	ol.logger.Warn(message)
}

func (ol *OperationLogger) finish(status string) Logger {
	return ol.logger.WithFields(Fields{
		"duration": ol.Elapsed().String(),
		"status":   status,
	})
}

// TimedOperation runs fn, logs its outcome and returns how long it took
func TimedOperation(operation string, logger Logger, fn func() error) (time.Duration, error) {
	ol := NewOperationLogger(operation, logger)

	err := fn()
	if err != nil {
		ol.Error(err, "Operation failed")
	} else {
		ol.Success("Operation completed")
	}

	return ol.Elapsed(), err
}
