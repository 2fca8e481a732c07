// Package pipeline runs a policy export through the filter stages and the
// field mapper to produce the MP File and its side-tables.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang-mpfile-service/internal/models"
	"golang-mpfile-service/internal/normalize"
	"golang-mpfile-service/pkg/errors"
	"golang-mpfile-service/pkg/logger"
)

// Stage names in execution order
const (
	StageGroupExclusion = "group_exclusion"
	StageCommencement   = "commencement"
	StageMaturity       = "maturity"
	StageStatus         = "status"
)

// Stages lists the filter stages in execution order
var Stages = []string{StageGroupExclusion, StageCommencement, StageMaturity, StageStatus}

// stageColumns are the input columns each stage reads
var stageColumns = map[string][]string{
	StageGroupExclusion: {models.ColProductCode},
	StageCommencement:   {models.ColPolicyStartDate},
	StageMaturity:       {models.ColPolicyStartDate, models.ColPolicyTerm},
	StageStatus:         {models.ColPolicyStatus},
}

// Params are the run parameters the filter stages depend on
type Params struct {
	ValuationDate        time.Time `json:"valuation_date" yaml:"valuation_date"`
	ExcludedProductCodes []string  `json:"excluded_product_codes" yaml:"excluded_product_codes"`
	IncludedStatuses     []string  `json:"included_statuses" yaml:"included_statuses"`
}

// Validate checks the parameters
func (p *Params) Validate() error {
	if p.ValuationDate.IsZero() {
		return fmt.Errorf("valuation date is required")
	}
	return nil
}

// Filter partitions an input table into retained records and side-tables
type Filter struct {
	params   *Params
	excluded map[string]struct{}
	included map[string]struct{}
	logger   logger.Logger
}

// NewFilter creates a filter for one run
func NewFilter(params *Params) (*Filter, error) {
	if params == nil {
		return nil, errors.ValidationError(errors.CodeMissingField, "params", nil, nil)
	}
	if err := params.Validate(); err != nil {
		return nil, errors.ValidationError(errors.CodeInvalidDate, "valuation_date", params.ValuationDate, err)
	}

	return &Filter{
		params:   params,
		excluded: valueSet(params.ExcludedProductCodes),
		included: valueSet(params.IncludedStatuses),
		logger:   logger.GetGlobalLogger().WithComponent("filter"),
	}, nil
}

func valueSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.TrimSpace(v)] = struct{}{}
	}
	return set
}

// Apply runs the four stages in order. Each stage sees only the records the
// previous stage retained. A table without a Policy Status column cannot be
// filtered and is rejected before any stage runs.
func (f *Filter) Apply(ctx context.Context, table *models.InputTable) (*FilterResult, error) {
	if !table.HasColumn(models.ColPolicyStatus) {
		return nil, errors.MissingColumnError(table.Source, table.HeaderRow, StageStatus,
			models.ColPolicyStatus, table.Columns())
	}

	result := newFilterResult(table.Len())
	current := table.Records

	for _, stage := range Stages {
		if err := ctx.Err(); err != nil {
			return nil, errors.InternalError(errors.CodeCancelled, "filtering", err)
		}

		if missing := table.MissingColumns(stageColumns[stage]); len(missing) > 0 {
			f.logger.WithStage(stage).WithField("missing", missing).Warn("Skipping filter stage, required columns are absent")
			result.skip(stage, missing, len(current))
			continue
		}

		in := len(current)
		current = f.run(stage, current, result)
		result.count(stage, in, len(current))

		f.logger.WithStage(stage).WithFields(logger.Fields{
			"in":       in,
			"retained": len(current),
		}).Debug("Filter stage complete")
	}

	result.Retained = current
	return result, nil
}

func (f *Filter) run(stage string, records []*models.InputRecord, result *FilterResult) []*models.InputRecord {
	switch stage {
	case StageGroupExclusion:
		return f.groupExclusion(records, result)
	case StageCommencement:
		return f.commencement(records, result)
	case StageMaturity:
		return f.maturity(records, result)
	default:
		return f.status(records, result)
	}
}

func (f *Filter) groupExclusion(records []*models.InputRecord, result *FilterResult) []*models.InputRecord {
	if len(f.excluded) == 0 {
		return records
	}

	retained := make([]*models.InputRecord, 0, len(records))
	for _, r := range records {
		if _, ok := f.excluded[r.Value(models.ColProductCode).String()]; ok {
			result.exclude(&models.Exclusion{Record: r, Reason: models.ReasonGroupProductCode})
			continue
		}
		retained = append(retained, r)
	}
	return retained
}

// commencement excludes policies starting after the valuation date.
// Unparseable start dates pass; the maturity stage deals with them.
func (f *Filter) commencement(records []*models.InputRecord, result *FilterResult) []*models.InputRecord {
	retained := make([]*models.InputRecord, 0, len(records))
	for _, r := range records {
		start, ok := normalize.NormalizeDate(r.Value(models.ColPolicyStartDate))
		if ok && start.After(f.params.ValuationDate) {
			result.exclude(&models.Exclusion{
				Record:    r,
				Reason:    models.ReasonPostValuationCommencement,
				StartDate: &start,
			})
			continue
		}
		retained = append(retained, r)
	}
	return retained
}

// maturity excludes policies that mature on or before the valuation date
// and routes records whose maturity cannot be computed to their own table
func (f *Filter) maturity(records []*models.InputRecord, result *FilterResult) []*models.InputRecord {
	retained := make([]*models.InputRecord, 0, len(records))
	for _, r := range records {
		start, ok := normalize.NormalizeDate(r.Value(models.ColPolicyStartDate))
		if !ok {
			result.exclude(&models.Exclusion{
				Record: r,
				Reason: models.ReasonMaturityCalculationError,
				Detail: "policy start date is not a date",
			})
			continue
		}

		term, ok := normalize.Term(r.Value(models.ColPolicyTerm))
		if !ok {
			result.exclude(&models.Exclusion{
				Record:    r,
				Reason:    models.ReasonMaturityCalculationError,
				StartDate: &start,
				Detail:    "policy term is not numeric",
			})
			continue
		}

		maturity, err := normalize.MaturityDate(start, term)
		if err != nil {
			result.exclude(&models.Exclusion{
				Record:    r,
				Reason:    models.ReasonMaturityCalculationError,
				StartDate: &start,
				Detail:    err.Error(),
			})
			continue
		}

		if !maturity.After(f.params.ValuationDate) {
			result.exclude(&models.Exclusion{
				Record:       r,
				Reason:       models.ReasonPreValuationMaturity,
				StartDate:    &start,
				MaturityDate: &maturity,
			})
			continue
		}
		retained = append(retained, r)
	}
	return retained
}

// status keeps only the included statuses. Other records are dropped
// without a side-table.
func (f *Filter) status(records []*models.InputRecord, result *FilterResult) []*models.InputRecord {
	retained := make([]*models.InputRecord, 0, len(records))
	for _, r := range records {
		if _, ok := f.included[r.Value(models.ColPolicyStatus).String()]; ok {
			retained = append(retained, r)
			continue
		}
		result.StatusDropped = append(result.StatusDropped, r)
	}
	return retained
}
