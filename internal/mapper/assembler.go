package mapper

import (
	"context"
	"runtime"

	"github.com/sourcegraph/conc/iter"

	"golang-mpfile-service/internal/models"
	"golang-mpfile-service/pkg/errors"
	"golang-mpfile-service/pkg/logger"
)

// Assembler maps filtered records into the MP File table
type Assembler struct {
	mapper  *FieldMapper
	workers int
	logger  logger.Logger
}

// NewAssembler creates an assembler. workers <= 0 uses one worker per CPU.
func NewAssembler(mapper *FieldMapper, workers int) *Assembler {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Assembler{
		mapper:  mapper,
		workers: workers,
		logger:  logger.GetGlobalLogger().WithComponent("assembler"),
	}
}

// Workers returns the worker count in use
func (a *Assembler) Workers() int {
	return a.workers
}

// Assemble maps every record. The output has the same length and order as
// records; only cancellation of ctx produces an error.
func (a *Assembler) Assemble(ctx context.Context, records []*models.InputRecord) ([]*models.OutputRecord, error) {
	tracker := logger.NewProgressTracker(logger.ProgressConfig{
		Operation: "field_mapping",
		Total:     int64(len(records)),
		Logger:    a.logger,
	})

	mapper := iter.Mapper[*models.InputRecord, *models.OutputRecord]{MaxGoroutines: a.workers}
	out, err := mapper.MapErr(records, func(r **models.InputRecord) (*models.OutputRecord, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row := a.mapper.Map(*r)
		tracker.Increment()
		return row, nil
	})
	if err != nil {
		return nil, errors.InternalError(errors.CodeCancelled, "field mapping", ctx.Err())
	}

	stats := tracker.Complete()
	a.logger.WithFields(logger.Fields{
		"records": len(out),
		"workers": a.workers,
		"rate":    stats.Rate,
	}).Debug("Assembled output table")

	return out, nil
}
