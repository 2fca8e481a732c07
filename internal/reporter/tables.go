package reporter

import (
	"golang-mpfile-service/internal/models"
	"golang-mpfile-service/internal/pipeline"
)

// Extra side-table columns
const (
	ColumnMaturityDate    = "Maturity Date"
	ColumnExclusionReason = "Exclusion Reason"
)

// ArtifactKind identifies one of the five exported tables
type ArtifactKind string

const (
	ArtifactOutput              ArtifactKind = "output"
	ArtifactGroupPolicies       ArtifactKind = "group_policies"
	ArtifactCommencement        ArtifactKind = "post_valuation_commencement"
	ArtifactMaturity            ArtifactKind = "pre_valuation_maturity"
	ArtifactMaturityCalculation ArtifactKind = "maturity_calculation_errors"
)

// ArtifactKinds lists the artifacts in the order they are written
var ArtifactKinds = []ArtifactKind{
	ArtifactOutput,
	ArtifactGroupPolicies,
	ArtifactCommencement,
	ArtifactMaturity,
	ArtifactMaturityCalculation,
}

// DefaultName is the base file name of the artifact
func (k ArtifactKind) DefaultName() string {
	switch k {
	case ArtifactOutput:
		return "generated_output"
	case ArtifactGroupPolicies:
		return "selected_policies"
	case ArtifactCommencement:
		return "ignored_policies"
	case ArtifactMaturity:
		return "ignored_maturity_policies"
	case ArtifactMaturityCalculation:
		return "error_maturity_policies"
	default:
		return string(k)
	}
}

// Reason returns the exclusion reason behind a side-table
func (k ArtifactKind) Reason() (models.ExclusionReason, bool) {
	switch k {
	case ArtifactGroupPolicies:
		return models.ReasonGroupProductCode, true
	case ArtifactCommencement:
		return models.ReasonPostValuationCommencement, true
	case ArtifactMaturity:
		return models.ReasonPreValuationMaturity, true
	case ArtifactMaturityCalculation:
		return models.ReasonMaturityCalculationError, true
	default:
		return "", false
	}
}

// Table is a rectangular export. Values are nil, int64, float64 or string.
type Table struct {
	Kind   ArtifactKind
	Header []string
	Rows   [][]interface{}
}

// Text renders a value for delimited output
func Text(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return models.IntegerValue(x).String()
	case float64:
		return models.FormatNumber(x)
	default:
		return ""
	}
}

// BuildTables turns a run result into the five exported tables
func BuildTables(result *pipeline.Result) []*Table {
	tables := make([]*Table, 0, len(ArtifactKinds))
	tables = append(tables, OutputTable(result.Output))

	var columns []string
	if result.Table != nil {
		columns = result.Table.Columns()
	}
	for _, kind := range ArtifactKinds[1:] {
		reason, _ := kind.Reason()
		var rows []*models.Exclusion
		if result.Filter != nil {
			rows = result.Filter.ExcludedFor(reason)
		}
		tables = append(tables, ExclusionTable(kind, columns, rows))
	}
	return tables
}

// OutputTable lays out MP File rows in column order
func OutputTable(records []*models.OutputRecord) *Table {
	t := &Table{
		Kind:   ArtifactOutput,
		Header: models.OutputFieldNames(),
		Rows:   make([][]interface{}, len(records)),
	}
	for i, r := range records {
		values := r.Values()
		row := make([]interface{}, len(values))
		for j, v := range values {
			row[j] = v.Interface()
		}
		t.Rows[i] = row
	}
	return t
}

// ExclusionTable lays out a side-table: the input columns, the computed
// maturity date for maturity-stage tables, then the exclusion reason
func ExclusionTable(kind ArtifactKind, columns []string, rows []*models.Exclusion) *Table {
	withMaturity := kind == ArtifactMaturity || kind == ArtifactMaturityCalculation

	header := append([]string{}, columns...)
	if withMaturity {
		header = append(header, ColumnMaturityDate)
	}
	header = append(header, ColumnExclusionReason)

	t := &Table{Kind: kind, Header: header, Rows: make([][]interface{}, len(rows))}
	for i, e := range rows {
		cells := e.Record.Cells()
		row := make([]interface{}, 0, len(header))
		for j := range columns {
			var c models.Cell
			if j < len(cells) {
				c = cells[j]
			}
			row = append(row, cellValue(c))
		}
		if withMaturity {
			var maturity interface{}
			if e.MaturityDate != nil {
				maturity = e.MaturityDate.Format("2006-01-02")
			}
			row = append(row, maturity)
		}
		row = append(row, reasonText(e))
		t.Rows[i] = row
	}
	return t
}

func cellValue(c models.Cell) interface{} {
	switch c.Kind {
	case models.CellText:
		return c.Text
	case models.CellNumber:
		return c.Number
	default:
		return nil
	}
}

func reasonText(e *models.Exclusion) string {
	if e.Detail != "" {
		return e.Reason.Label() + ": " + e.Detail
	}
	return e.Reason.Label()
}
