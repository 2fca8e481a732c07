package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// FieldKind discriminates the value held by a FieldValue
type FieldKind int

const (
	FieldNull FieldKind = iota
	FieldInteger
	FieldDecimal
	FieldString
)

// String returns the kind name
func (k FieldKind) String() string {
	switch k {
	case FieldInteger:
		return "integer"
	case FieldDecimal:
		return "decimal"
	case FieldString:
		return "string"
	default:
		return "null"
	}
}

// FieldValue is a single output value
type FieldValue struct {
	kind FieldKind
	i    int64
	d    decimal.Decimal
	s    string
}

// NullValue returns an explicit null
func NullValue() FieldValue {
	return FieldValue{kind: FieldNull}
}

// IntegerValue returns an integer value
func IntegerValue(i int64) FieldValue {
	return FieldValue{kind: FieldInteger, i: i}
}

// DecimalValue returns a decimal value
func DecimalValue(d decimal.Decimal) FieldValue {
	return FieldValue{kind: FieldDecimal, d: d}
}

// StringValue returns a string value
func StringValue(s string) FieldValue {
	return FieldValue{kind: FieldString, s: s}
}

// Kind returns the value kind
func (v FieldValue) Kind() FieldKind {
	return v.kind
}

// IsNull reports whether the value is null
func (v FieldValue) IsNull() bool {
	return v.kind == FieldNull
}

// Int returns the integer payload
func (v FieldValue) Int() int64 {
	return v.i
}

// Decimal returns the value as a decimal. Integers convert; strings and null yield zero.
func (v FieldValue) Decimal() decimal.Decimal {
	switch v.kind {
	case FieldDecimal:
		return v.d
	case FieldInteger:
		return decimal.NewFromInt(v.i)
	default:
		return decimal.Zero
	}
}

// Str returns the string payload
func (v FieldValue) Str() string {
	return v.s
}

// String renders the value for delimited output. Null renders empty.
func (v FieldValue) String() string {
	switch v.kind {
	case FieldInteger:
		return strconv.FormatInt(v.i, 10)
	case FieldDecimal:
		return v.d.String()
	case FieldString:
		return v.s
	default:
		return ""
	}
}

// Interface returns the value as a plain Go value for spreadsheet writers
func (v FieldValue) Interface() interface{} {
	switch v.kind {
	case FieldInteger:
		return v.i
	case FieldDecimal:
		return v.d.InexactFloat64()
	case FieldString:
		return v.s
	default:
		return nil
	}
}

// Equal compares kind and payload
func (v FieldValue) Equal(other FieldValue) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case FieldInteger:
		return v.i == other.i
	case FieldDecimal:
		return v.d.Equal(other.d)
	case FieldString:
		return v.s == other.s
	default:
		return true
	}
}

// GoString helps test failure output
func (v FieldValue) GoString() string {
	return fmt.Sprintf("%s(%s)", v.kind, v.String())
}

// MarshalJSON renders numbers as JSON numbers and null as null
func (v FieldValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case FieldInteger:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case FieldDecimal:
		return []byte(v.d.String()), nil
	case FieldString:
		return json.Marshal(v.s)
	default:
		return []byte("null"), nil
	}
}

// Output field names in MP File column order
const (
	FieldSPCode           = "SPCODE"
	FieldProphetCode      = "PROPHET_CODE"
	FieldPolNo            = "PolNo"
	FieldPlanNo           = "PLAN_NO"
	FieldCommDate         = "COMM_DAT"
	FieldNextDueDate      = "NEXT_DUE_DATE"
	FieldBirthDate        = "BIRTH_DAT"
	FieldSex              = "SEX"
	FieldBirthDate2       = "BIRTH_DAT2"
	FieldSex2             = "SEX2"
	FieldPolTermY         = "POL_TERM_Y"
	FieldPremFreq         = "PREM_FREQ"
	FieldAnnualPrem       = "ANNUAL_PREM"
	FieldSinglePrem       = "SINGLE_PREM"
	FieldSumAssured       = "SUM_ASSURED"
	FieldInitDecbIf       = "INIT_DECB_IF"
	FieldLoanAmt1         = "LOAN_AMT_1"
	FieldLoanAmt2         = "LOAN_AMT_2"
	FieldLoanAmt3         = "LOAN_AMT_3"
	FieldLoanInt1         = "LOAN_INT_1"
	FieldLoanInt2         = "LOAN_INT_2"
	FieldLoanInt3         = "LOAN_INT_3"
	FieldTPDDecline       = "TPD_DECLINE"
	FieldTPDDecline2      = "TPD_DECLINE2"
	FieldMatBenPP         = "MAT_BEN_PP"
	FieldCurrFundBal      = "CURR_FUND_BAL"
	FieldSumAssdHB        = "SUM_ASSD_HB"
	FieldAnnAnnuity       = "ANN_ANNUITY"
	FieldDeferPerY        = "DEFER_PER_Y"
	FieldRPRCompany       = "RPR_COMPANY"
	FieldSeriesNo         = "SERIES_NO"
	FieldPremTermY        = "PREM_TERM_Y"
	FieldGraceStartOne    = "GRACE_START_ONE"
	FieldGracePeriodOne   = "GRACE_PERIOD_ONE"
	FieldDOVIndicator     = "DOV_INDICATOR"
	FieldGraceStartTwo    = "GRACE_START_TWO"
	FieldGracePeriodTwo   = "GRACE_PERIOD_TWO"
	FieldStudyGuardType   = "STUDY_GUARD_TYPE"
	FieldLoanType         = "LoanType"
	FieldGraceStartThree  = "GRACE_START_THREE"
	FieldGracePeriodThree = "GRACE_PERIOD_THREE"
	FieldMCRLoanType      = "MCR_LOAN_TYPE"
	FieldChannelCode      = "CHANNEL_CODE"
)

// OutputFields is the fixed MP File column order
var OutputFields = [...]string{
	FieldSPCode, FieldProphetCode, FieldPolNo, FieldPlanNo, FieldCommDate,
	FieldNextDueDate, FieldBirthDate, FieldSex, FieldBirthDate2, FieldSex2,
	FieldPolTermY, FieldPremFreq, FieldAnnualPrem, FieldSinglePrem, FieldSumAssured,
	FieldInitDecbIf, FieldLoanAmt1, FieldLoanAmt2, FieldLoanAmt3, FieldLoanInt1,
	FieldLoanInt2, FieldLoanInt3, FieldTPDDecline, FieldTPDDecline2, FieldMatBenPP,
	FieldCurrFundBal, FieldSumAssdHB, FieldAnnAnnuity, FieldDeferPerY, FieldRPRCompany,
	FieldSeriesNo, FieldPremTermY, FieldGraceStartOne, FieldGracePeriodOne, FieldDOVIndicator,
	FieldGraceStartTwo, FieldGracePeriodTwo, FieldStudyGuardType, FieldLoanType, FieldGraceStartThree,
	FieldGracePeriodThree, FieldMCRLoanType, FieldChannelCode,
}

// OutputFieldCount is the number of MP File columns
const OutputFieldCount = len(OutputFields)

var outputFieldIndex = func() map[string]int {
	m := make(map[string]int, OutputFieldCount)
	for i, name := range OutputFields {
		m[name] = i
	}
	return m
}()

// OutputFieldNames returns the column order as a slice
func OutputFieldNames() []string {
	names := make([]string, OutputFieldCount)
	copy(names, OutputFields[:])
	return names
}

// OutputRecord is one MP File row
type OutputRecord struct {
	// SourceIndex is the InputRecord.Index the row was mapped from
	SourceIndex int
	values      [OutputFieldCount]FieldValue
}

// NewOutputRecord returns a record with every field set to integer 0
func NewOutputRecord(sourceIndex int) *OutputRecord {
	r := &OutputRecord{SourceIndex: sourceIndex}
	for i := range r.values {
		r.values[i] = IntegerValue(0)
	}
	return r
}

// Set assigns a field by name. Unknown names return an error.
func (r *OutputRecord) Set(name string, v FieldValue) error {
	i, ok := outputFieldIndex[name]
	if !ok {
		return fmt.Errorf("unknown output field %q", name)
	}
	r.values[i] = v
	return nil
}

// MustSet is Set for names fixed at compile time. It panics on an unknown
// name.
func (r *OutputRecord) MustSet(name string, v FieldValue) {
	if err := r.Set(name, v); err != nil {
		panic(err)
	}
}

// Get returns a field by name
func (r *OutputRecord) Get(name string) (FieldValue, bool) {
	i, ok := outputFieldIndex[name]
	if !ok {
		return NullValue(), false
	}
	return r.values[i], true
}

// Values returns the field values in column order
func (r *OutputRecord) Values() []FieldValue {
	out := make([]FieldValue, OutputFieldCount)
	copy(out, r.values[:])
	return out
}

// Strings returns the field values rendered for delimited output
func (r *OutputRecord) Strings() []string {
	out := make([]string, OutputFieldCount)
	for i, v := range r.values {
		out[i] = v.String()
	}
	return out
}

// MarshalJSON renders the record as an object with keys in column order
func (r *OutputRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range OutputFields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := r.values[i].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
