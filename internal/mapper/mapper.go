package mapper

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"golang-mpfile-service/internal/models"
	"golang-mpfile-service/internal/normalize"
)

var twelve = decimal.NewFromInt(12)

// MappingContext is the read-only state shared by every record mapping
type MappingContext struct {
	RICompany     *models.ReferenceTable
	LoanType      *models.ReferenceTable
	ValuationDate time.Time
}

// Validate checks the context can be used for mapping
func (c *MappingContext) Validate() error {
	if c.ValuationDate.IsZero() {
		return fmt.Errorf("valuation date is required")
	}
	return nil
}

// DOVIndicator renders the valuation month as M{month}_{year}
func (c *MappingContext) DOVIndicator() string {
	return fmt.Sprintf("M%d_%d", int(c.ValuationDate.Month()), c.ValuationDate.Year())
}

// FieldMapper derives MP File rows. It holds no mutable state and is safe
// for concurrent use.
type FieldMapper struct {
	ctx *MappingContext
	dov models.FieldValue
}

// NewFieldMapper creates a mapper over ctx
func NewFieldMapper(ctx *MappingContext) (*FieldMapper, error) {
	if ctx == nil {
		return nil, fmt.Errorf("mapping context is required")
	}
	if err := ctx.Validate(); err != nil {
		return nil, err
	}
	return &FieldMapper{
		ctx: ctx,
		dov: models.StringValue(ctx.DOVIndicator()),
	}, nil
}

// Map derives the 43 MP File fields for one record. Missing or malformed
// source values fall back to sentinels; Map never fails.
func (m *FieldMapper) Map(r *models.InputRecord) *models.OutputRecord {
	out := models.NewOutputRecord(r.Index)

	set := out.MustSet

	set(models.FieldSPCode, models.IntegerValue(SPCode))

	planCode := r.Value(models.ColPlanCode).String()
	if rule, ok := MatchPlan(planCode); ok {
		set(models.FieldProphetCode, models.StringValue(rule.ProphetCode))
		set(models.FieldPlanNo, models.IntegerValue(rule.PlanNo))
	} else {
		set(models.FieldProphetCode, models.StringValue(UnknownProphetCode))
		set(models.FieldPlanNo, models.NullValue())
	}

	policyNumber := r.Value(models.ColPolicyNumber)
	set(models.FieldPolNo, PolicyNumber(policyNumber))

	set(models.FieldCommDate, DateField(r.Value(models.ColPolicyStartDate)))
	set(models.FieldBirthDate, DateField(r.Value(models.ColDOBLife1)))
	set(models.FieldBirthDate2, DateField(r.Value(models.ColDOBLife2)))

	set(models.FieldSex, Gender(r.Value(models.ColGenderLife1)))
	set(models.FieldSex2, Gender(r.Value(models.ColGenderLife2)))

	set(models.FieldPolTermY, TermYears(r.Value(models.ColPolicyTerm)))

	set(models.FieldSinglePrem, AmountField(r.Value(models.ColSinglePremium)))
	set(models.FieldLoanAmt1, AmountField(r.Value(models.ColLoanAmountLife1)))
	set(models.FieldLoanInt1, LoanInterest(r))

	set(models.FieldTPDDecline, TPDDecline(r.Value(models.ColTPDOptionLife1)))
	set(models.FieldTPDDecline2, TPDDecline2(r.Value(models.ColTPDOptionLife2)))

	set(models.FieldRPRCompany, models.StringValue(m.ctx.RICompany.Lookup(policyNumber.String(), DefaultRICompany)))
	set(models.FieldLoanType, models.StringValue(m.ctx.LoanType.Lookup(r.Value(models.ColProductCode).String(), DefaultLoanType)))

	set(models.FieldDOVIndicator, m.dov)
	set(models.FieldChannelCode, models.StringValue(ChannelCode))

	return out
}

// PolicyNumber converts a pure run of digits into an integer and passes
// every other value through unchanged
func PolicyNumber(c models.Cell) models.FieldValue {
	switch c.Kind {
	case models.CellEmpty:
		return models.NullValue()
	case models.CellNumber:
		if n, ok := normalize.WholeNumber(c); ok {
			return models.IntegerValue(n)
		}
		return models.DecimalValue(decimal.NewFromFloat(c.Number))
	default:
		if n, ok := normalize.WholeNumber(c); ok {
			return models.IntegerValue(n)
		}
		return models.StringValue(c.Text)
	}
}

// DateField renders a date cell as yyyymmdd, or 0 when it is not a date
func DateField(c models.Cell) models.FieldValue {
	if t, ok := normalize.NormalizeDate(c); ok {
		return models.IntegerValue(normalize.YYYYMMDD(t))
	}
	return models.IntegerValue(0)
}

// TermYears converts a whole-month term into years, or 0 when the term is
// not a pure non-negative integer
func TermYears(c models.Cell) models.FieldValue {
	months, ok := normalize.WholeNumber(c)
	if !ok {
		return models.IntegerValue(0)
	}
	return models.DecimalValue(decimal.NewFromInt(months).Div(twelve))
}

// AmountField renders a plain non-negative number as a decimal, or 0
func AmountField(c models.Cell) models.FieldValue {
	if d, ok := normalize.PlainAmount(c); ok {
		return models.DecimalValue(d)
	}
	return models.IntegerValue(0)
}

// LoanInterest derives the loan interest rate from the interest type. A
// variable rate is the current AWPLR plus the additional margin.
func LoanInterest(r *models.InputRecord) models.FieldValue {
	switch normalize.Token(r.Value(models.ColInterestType)) {
	case InterestFixed:
		return AmountField(r.Value(models.ColFixedInterest))
	case InterestVariable:
		current, currentOK := normalize.PlainAmount(r.Value(models.ColCurrentAWPLR))
		additional, additionalOK := normalize.PlainAmount(r.Value(models.ColAdditionalAWPLR))
		if !currentOK && !additionalOK {
			return models.IntegerValue(0)
		}
		return models.DecimalValue(current.Add(additional))
	default:
		return models.IntegerValue(0)
	}
}
