package pipeline

import (
	"fmt"

	"golang-mpfile-service/internal/models"
	"golang-mpfile-service/pkg/errors"
)

// SkippedStage records a stage that did not run because its columns are absent
type SkippedStage struct {
	Stage   string   `json:"stage" yaml:"stage"`
	Missing []string `json:"missing_columns" yaml:"missing_columns"`
}

// StageCount records how many records entered and left a stage
type StageCount struct {
	Stage    string `json:"stage" yaml:"stage"`
	In       int    `json:"in" yaml:"in"`
	Retained int    `json:"retained" yaml:"retained"`
	Removed  int    `json:"removed" yaml:"removed"`
	Skipped  bool   `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// FilterResult is the partition of an input table produced by the filter
type FilterResult struct {
	Total         int
	Retained      []*models.InputRecord
	Excluded      map[models.ExclusionReason][]*models.Exclusion
	StatusDropped []*models.InputRecord
	SkippedStages []SkippedStage
	StageCounts   []StageCount
}

func newFilterResult(total int) *FilterResult {
	excluded := make(map[models.ExclusionReason][]*models.Exclusion, len(models.ExclusionReasons))
	for _, reason := range models.ExclusionReasons {
		excluded[reason] = []*models.Exclusion{}
	}
	return &FilterResult{
		Total:         total,
		Retained:      []*models.InputRecord{},
		Excluded:      excluded,
		StatusDropped: []*models.InputRecord{},
	}
}

func (r *FilterResult) exclude(e *models.Exclusion) {
	r.Excluded[e.Reason] = append(r.Excluded[e.Reason], e)
}

func (r *FilterResult) skip(stage string, missing []string, in int) {
	r.SkippedStages = append(r.SkippedStages, SkippedStage{Stage: stage, Missing: missing})
	r.StageCounts = append(r.StageCounts, StageCount{Stage: stage, In: in, Retained: in, Skipped: true})
}

func (r *FilterResult) count(stage string, in, retained int) {
	r.StageCounts = append(r.StageCounts, StageCount{
		Stage:    stage,
		In:       in,
		Retained: retained,
		Removed:  in - retained,
	})
}

// ExcludedFor returns the side-table for reason
func (r *FilterResult) ExcludedFor(reason models.ExclusionReason) []*models.Exclusion {
	return r.Excluded[reason]
}

// ExcludedCount returns the number of records across all side-tables
func (r *FilterResult) ExcludedCount() int {
	n := 0
	for _, rows := range r.Excluded {
		n += len(rows)
	}
	return n
}

// Skipped reports whether stage was skipped
func (r *FilterResult) Skipped(stage string) bool {
	for _, s := range r.SkippedStages {
		if s.Stage == stage {
			return true
		}
	}
	return false
}

// Verify checks that the side-tables, the status-dropped records and the
// retained records hold every input record exactly once
func (r *FilterResult) Verify() error {
	seen := make([]int, r.Total)

	mark := func(rec *models.InputRecord) error {
		if rec.Index < 0 || rec.Index >= r.Total {
			return fmt.Errorf("record index %d outside table of %d records", rec.Index, r.Total)
		}
		seen[rec.Index]++
		return nil
	}

	for _, reason := range models.ExclusionReasons {
		for _, e := range r.Excluded[reason] {
			if err := mark(e.Record); err != nil {
				return partitionError(err)
			}
		}
	}
	for _, rec := range r.StatusDropped {
		if err := mark(rec); err != nil {
			return partitionError(err)
		}
	}
	for _, rec := range r.Retained {
		if err := mark(rec); err != nil {
			return partitionError(err)
		}
	}

	for i, n := range seen {
		switch {
		case n == 0:
			return partitionError(fmt.Errorf("record %d was lost", i))
		case n > 1:
			return partitionError(fmt.Errorf("record %d appears %d times", i, n))
		}
	}
	return nil
}

func partitionError(err error) *errors.ConverterError {
	return errors.InternalError(errors.CodePartitionBroken, "filtering", err)
}
