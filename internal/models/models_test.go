package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCellConstructors(t *testing.T) {
	tests := []struct {
		name     string
		cell     Cell
		kind     CellKind
		rendered string
	}{
		{"blank text", TextCell("   "), CellEmpty, ""},
		{"trimmed text", TextCell("  PLAN07A "), CellText, "PLAN07A"},
		{"whole number", NumberCell(43466), CellNumber, "43466"},
		{"fraction", NumberCell(1500.5), CellNumber, "1500.5"},
		{"zero value", Cell{}, CellEmpty, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.cell.Kind)
			assert.Equal(t, tt.rendered, tt.cell.String())
		})
	}
}

func TestCellMarshalJSON(t *testing.T) {
	data, err := json.Marshal([]Cell{EmptyCell(), TextCell("a"), NumberCell(12.5)})
	require.NoError(t, err)
	assert.Equal(t, `[null,"a",12.5]`, string(data))
}

func TestHeaderLookup(t *testing.T) {
	h := NewHeader([]string{"Policy Number", "TPD Option  - Life 1", "Policy Number", " plan code "})

	i, ok := h.Index("Policy Number")
	require.True(t, ok)
	assert.Equal(t, 0, i, "first occurrence wins")

	_, ok = h.Index("TPD Option - Life 1")
	assert.False(t, ok, "single-space TPD column must not match the double-space header")

	_, ok = h.Index("Plan Code")
	assert.False(t, ok, "lookup must not fold case or surrounding spaces")

	i, ok = h.Index(" plan code ")
	require.True(t, ok)
	assert.Equal(t, 3, i)

	assert.Equal(t, []string{"Policy Number"}, h.Duplicates())
}

func TestInputRecordGet(t *testing.T) {
	h := NewHeader([]string{ColPolicyNumber, ColPlanCode, ColPolicyStatus})
	r := NewInputRecord(h, 0, 6, []Cell{TextCell("123"), EmptyCell()})

	c, ok := r.Get(ColPolicyNumber)
	require.True(t, ok)
	assert.Equal(t, "123", c.String())

	c, ok = r.Get(ColPlanCode)
	require.True(t, ok)
	assert.True(t, c.IsEmpty())

	c, ok = r.Get(ColPolicyStatus)
	require.True(t, ok)
	assert.True(t, c.IsEmpty(), "short row should pad with empty cells")

	_, ok = r.Get(ColProductCode)
	assert.False(t, ok, "absent column should report false")

	assert.Len(t, r.Cells(), 3)
}

func TestInputTableDistinctValues(t *testing.T) {
	h := NewHeader([]string{ColProductCode})
	table := NewInputTable("x.csv", 0, h, []*InputRecord{
		NewInputRecord(h, 0, 2, []Cell{TextCell("GRP01")}),
		NewInputRecord(h, 1, 3, []Cell{TextCell("IND01")}),
		NewInputRecord(h, 2, 4, []Cell{TextCell("GRP01")}),
		NewInputRecord(h, 3, 5, []Cell{EmptyCell()}),
	})

	assert.Equal(t, []string{"GRP01", "IND01"}, table.DistinctValues(ColProductCode))
	assert.Nil(t, table.DistinctValues(ColPolicyStatus), "absent column should yield nil")
	assert.Len(t, table.MissingColumns([]string{ColProductCode, ColPolicyStatus}), 1)
}

func TestReferenceTableLookup(t *testing.T) {
	table := NewReferenceTable("ri_company", map[string]string{" 123 ": " Swiss Re "})

	tests := []struct {
		key      string
		expected string
	}{
		{"123", "Swiss Re"},
		{" 123", "Swiss Re"},
		{"999", "MunichRe"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, table.Lookup(tt.key, "MunichRe"), "Lookup(%q)", tt.key)
	}

	var missing *ReferenceTable
	assert.Equal(t, "Error", missing.Lookup("123", "Error"))
	assert.Zero(t, EmptyReferenceTable("loan_type").Len())
}

func TestExclusionReason(t *testing.T) {
	for _, r := range ExclusionReasons {
		assert.True(t, r.IsValid(), "%s should be valid", r)
		assert.NotEqual(t, string(r), r.Label(), "%s should have a label", r)
	}
	assert.False(t, ExclusionReason("other").IsValid())
}

func TestFieldValue(t *testing.T) {
	tests := []struct {
		name     string
		value    FieldValue
		kind     FieldKind
		rendered string
		json     string
	}{
		{"null", NullValue(), FieldNull, "", "null"},
		{"integer", IntegerValue(20200115), FieldInteger, "20200115", "20200115"},
		{"decimal", DecimalValue(decimal.RequireFromString("1500.50")), FieldDecimal, "1500.5", "1500.5"},
		{"string", StringValue("C_07MRP"), FieldString, "C_07MRP", `"C_07MRP"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.value.Kind())
			assert.Equal(t, tt.rendered, tt.value.String())

			data, err := json.Marshal(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.json, string(data))
		})
	}

	assert.False(t, IntegerValue(0).Equal(DecimalValue(decimal.Zero)), "integer and decimal zero must differ by kind")
	assert.True(t, IntegerValue(7).Decimal().Equal(decimal.NewFromInt(7)))
}

func TestOutputRecord(t *testing.T) {
	require.Equal(t, 43, OutputFieldCount)
	assert.Equal(t, FieldSPCode, OutputFields[0])
	assert.Equal(t, FieldChannelCode, OutputFields[42])

	r := NewOutputRecord(5)
	for _, v := range r.Values() {
		require.True(t, v.Equal(IntegerValue(0)), "new record should default to integer 0, got %#v", v)
	}

	require.NoError(t, r.Set(FieldProphetCode, StringValue("Check")))
	assert.Error(t, r.Set("NOT_A_FIELD", NullValue()))

	v, ok := r.Get(FieldProphetCode)
	require.True(t, ok)
	assert.Equal(t, "Check", v.Str())

	data, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(data), `{"SPCODE":0,"PROPHET_CODE":"Check","PolNo":0`)
	assert.Equal(t, "Check", r.Strings()[1])
}

func TestOutputRecordMustSet(t *testing.T) {
	r := NewOutputRecord(0)

	for _, name := range OutputFields {
		assert.NotPanics(t, func() { r.MustSet(name, StringValue(name)) }, name)
	}
	v, _ := r.Get(FieldChannelCode)
	assert.Equal(t, FieldChannelCode, v.Str())

	assert.PanicsWithError(t, `unknown output field "POLNO"`, func() {
		r.MustSet("POLNO", NullValue())
	})
}
