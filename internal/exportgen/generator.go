// Package exportgen generates synthetic policy exports for tests and demos.
//
// Every generated policy is built to land in a known place in the filter
// pipeline, so a run over a generated export can be checked against
// Policy.Expect.
package exportgen

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"golang-mpfile-service/internal/models"
	"golang-mpfile-service/internal/normalize"
)

// Outcome is where a generated policy is expected to end up
type Outcome string

const (
	OutcomeRetained      Outcome = "retained"
	OutcomeStatusDropped Outcome = "status_dropped"
)

// ExclusionOutcome returns the outcome of a side-table
func ExclusionOutcome(reason models.ExclusionReason) Outcome {
	return Outcome(reason)
}

// TitleLines are written above the header, like a report export
var TitleLines = [][]string{
	{"Policy Listing Report"},
	{"Generated by", "exportgen"},
	{"Branch", "All"},
	{},
}

// Generator generates policy exports
type Generator struct {
	Count            int
	ValuationDate    time.Time
	Seed             int64
	GroupCodes       []string
	ProductCodes     []string
	PlanCodes        []string
	IncludedStatuses []string
	DroppedStatuses  []string
	Reinsurers       []string
}

// NewGenerator returns a generator with the product and status sets used by
// the sample reference tables
func NewGenerator(count int, valuationDate time.Time, seed int64) *Generator {
	return &Generator{
		Count:            count,
		ValuationDate:    valuationDate,
		Seed:             seed,
		GroupCodes:       []string{"GRP1", "GRP2"},
		ProductCodes:     []string{"MRP01", "MRP02", "MLT01"},
		PlanCodes:        []string{"PLAN07A", "PLAN11B", "PLAN25C", "PLAN99"},
		IncludedStatuses: []string{"Active"},
		DroppedStatuses:  []string{"Lapsed", "Surrendered", "Claimed"},
		Reinsurers:       []string{"Swiss Re", "Hannover Re"},
	}
}

// Policy is one generated export row
type Policy struct {
	PolicyNumber    string
	PlanCode        string
	ProductCode     string
	StartDate       string
	StartSerial     float64
	TermMonths      string
	Gender1         string
	Gender2         string
	DOB1            time.Time
	DOB2            *time.Time
	SinglePremium   decimal.Decimal
	LoanAmount      decimal.Decimal
	InterestType    string
	FixedInterest   decimal.Decimal
	CurrentAWPLR    decimal.Decimal
	AdditionalAWPLR decimal.Decimal
	TPD1            string
	TPD2            string
	Status          string

	Expect Outcome
}

// Generate creates Count policies. The mix is roughly: 10% group products,
// 5% commencing after the valuation date, 15% matured, 5% with a broken
// start date or term, 10% dropped by status and the rest retained.
func (g *Generator) Generate() []*Policy {
	rng := rand.New(rand.NewSource(g.Seed))
	policies := make([]*Policy, g.Count)

	for i := 0; i < g.Count; i++ {
		p := g.basePolicy(rng, i)

		roll := rng.Float64()
		switch {
		case roll < 0.10:
			p.ProductCode = pick(rng, g.GroupCodes)
			p.Expect = ExclusionOutcome(models.ReasonGroupProductCode)
		case roll < 0.15:
			g.setStart(p, g.ValuationDate.AddDate(0, 0, 1+rng.Intn(720)))
			p.Expect = ExclusionOutcome(models.ReasonPostValuationCommencement)
		case roll < 0.30:
			term := 12 + rng.Intn(109)
			p.TermMonths = strconv.Itoa(term)
			g.setStart(p, g.ValuationDate.AddDate(0, -term-1, -rng.Intn(365)))
			p.Expect = ExclusionOutcome(models.ReasonPreValuationMaturity)
		case roll < 0.35:
			switch rng.Intn(3) {
			case 0:
				p.TermMonths = "0"
			case 1:
				p.TermMonths = "n/a"
			default:
				p.StartDate = "31/31/2020"
				p.StartSerial = 0
			}
			p.Expect = ExclusionOutcome(models.ReasonMaturityCalculationError)
		case roll < 0.45:
			p.Status = pick(rng, g.DroppedStatuses)
			p.Expect = OutcomeStatusDropped
		default:
			p.Expect = OutcomeRetained
		}

		policies[i] = p
	}

	return policies
}

// basePolicy creates a policy that would be retained: in force at the
// valuation date with an included status
func (g *Generator) basePolicy(rng *rand.Rand, i int) *Policy {
	p := &Policy{
		PolicyNumber:  fmt.Sprintf("%06d", i+1),
		PlanCode:      pick(rng, g.PlanCodes),
		ProductCode:   pick(rng, g.ProductCodes),
		TermMonths:    strconv.Itoa(120 + rng.Intn(241)),
		Gender1:       pick(rng, []string{"M", "F", "Male", "Female"}),
		DOB1:          time.Date(1950+rng.Intn(50), time.Month(1+rng.Intn(12)), 1+rng.Intn(28), 0, 0, 0, 0, time.UTC),
		SinglePremium: decimal.NewFromFloat(500 + rng.Float64()*20000).Round(2),
		LoanAmount:    decimal.NewFromInt(int64(10000 * (5 + rng.Intn(96)))),
		TPD1:          pick(rng, []string{"Yes", "No"}),
		Status:        pick(rng, g.IncludedStatuses),
	}
	g.setStart(p, g.ValuationDate.AddDate(0, 0, -rng.Intn(3000)))

	if rng.Float64() < 0.3 {
		dob := time.Date(1950+rng.Intn(50), time.Month(1+rng.Intn(12)), 1+rng.Intn(28), 0, 0, 0, 0, time.UTC)
		p.DOB2 = &dob
		p.Gender2 = pick(rng, []string{"M", "F"})
		p.TPD2 = pick(rng, []string{"Yes", "No"})
	}

	if rng.Float64() < 0.6 {
		p.InterestType = "Fixed"
		p.FixedInterest = decimal.NewFromFloat(3 + rng.Float64()*3).Round(2)
	} else {
		p.InterestType = "Variable"
		p.CurrentAWPLR = decimal.NewFromFloat(6.5)
		p.AdditionalAWPLR = decimal.NewFromFloat(0.5 + rng.Float64()*1.5).Round(2)
	}

	return p
}

func (g *Generator) setStart(p *Policy, start time.Time) {
	p.StartDate = start.Format("02/01/2006")
	p.StartSerial = excelSerial(start)
}

// Counts tallies the expected outcomes
func Counts(policies []*Policy) map[Outcome]int {
	counts := make(map[Outcome]int)
	for _, p := range policies {
		counts[p.Expect]++
	}
	return counts
}

// Record renders the policy as export text in models.InputColumns order
func (p *Policy) Record() []string {
	dob2 := ""
	if p.DOB2 != nil {
		dob2 = p.DOB2.Format("02/01/2006")
	}
	return []string{
		p.PolicyNumber,
		p.PlanCode,
		p.ProductCode,
		p.StartDate,
		p.TermMonths,
		p.Gender1,
		p.Gender2,
		p.DOB1.Format("02/01/2006"),
		dob2,
		p.SinglePremium.String(),
		p.LoanAmount.String(),
		p.InterestType,
		decimalText(p.FixedInterest),
		decimalText(p.CurrentAWPLR),
		decimalText(p.AdditionalAWPLR),
		p.TPD1,
		p.TPD2,
		p.Status,
	}
}

// Values renders the policy as spreadsheet values. Dates are written as
// serial numbers and amounts as numbers, the way spreadsheet exports store
// them.
func (p *Policy) Values() []interface{} {
	values := make([]interface{}, 0, len(models.InputColumns))
	var start interface{} = p.StartDate
	if p.StartSerial > 0 {
		start = p.StartSerial
	}
	var term interface{} = p.TermMonths
	if n, err := strconv.Atoi(p.TermMonths); err == nil {
		term = n
	}
	var dob2 interface{}
	if p.DOB2 != nil {
		dob2 = excelSerial(*p.DOB2)
	}

	values = append(values,
		p.PolicyNumber,
		p.PlanCode,
		p.ProductCode,
		start,
		term,
		p.Gender1,
		nilIfEmpty(p.Gender2),
		excelSerial(p.DOB1),
		dob2,
		p.SinglePremium.InexactFloat64(),
		p.LoanAmount.InexactFloat64(),
		p.InterestType,
		decimalValue(p.FixedInterest),
		decimalValue(p.CurrentAWPLR),
		decimalValue(p.AdditionalAWPLR),
		p.TPD1,
		nilIfEmpty(p.TPD2),
		p.Status,
	)
	return values
}

// WriteToCSV writes policies below the title lines, with the header at
// row len(TitleLines)
func (g *Generator) WriteToCSV(filename string, policies []*Policy) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	for _, line := range TitleLines {
		if err := writer.Write(line); err != nil {
			return err
		}
	}
	if err := writer.Write(models.InputColumns); err != nil {
		return err
	}
	for _, p := range policies {
		if err := writer.Write(p.Record()); err != nil {
			return err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return file.Close()
}

// WriteToXLSX writes policies to the first sheet of a workbook, with the
// header at row len(TitleLines)
func (g *Generator) WriteToXLSX(filename string, policies []*Policy) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	row := 1
	setRow := func(values []interface{}) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		row++
		if len(values) == 0 {
			return nil
		}
		return f.SetSheetRow(sheet, cell, &values)
	}

	for _, line := range TitleLines {
		values := make([]interface{}, len(line))
		for i, v := range line {
			values[i] = v
		}
		if err := setRow(values); err != nil {
			return err
		}
	}

	header := make([]interface{}, len(models.InputColumns))
	for i, name := range models.InputColumns {
		header[i] = name
	}
	if err := setRow(header); err != nil {
		return err
	}

	for _, p := range policies {
		if err := setRow(p.Values()); err != nil {
			return err
		}
	}

	return f.SaveAs(filename)
}

// WriteReferenceTables writes TABLE/RI_Company.csv and TABLE/MRP_LOAN_TYPE.csv
// under dir. Every other policy gets a reinsurer; the first product code has
// no loan type so its default shows up in the output.
func (g *Generator) WriteReferenceTables(dir string, policies []*Policy) error {
	tableDir := filepath.Join(dir, "TABLE")
	if err := os.MkdirAll(tableDir, 0755); err != nil {
		return err
	}

	ri := [][]string{{"PolicyNo", "RI_Company"}}
	for i, p := range policies {
		if i%2 == 0 {
			ri = append(ri, []string{p.PolicyNumber, g.Reinsurers[i/2%len(g.Reinsurers)]})
		}
	}
	if err := writeCSV(filepath.Join(tableDir, "RI_Company.csv"), ri); err != nil {
		return err
	}

	loan := [][]string{{"Product Code", "Loan Type - RBC"}}
	for i, code := range g.ProductCodes {
		if i == 0 {
			continue
		}
		loan = append(loan, []string{code, pick(rand.New(rand.NewSource(g.Seed+int64(i))), []string{"Reducing", "Level"})})
	}
	return writeCSV(filepath.Join(tableDir, "MRP_LOAN_TYPE.csv"), loan)
}

func writeCSV(filename string, rows [][]string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return file.Close()
}

func excelSerial(t time.Time) float64 {
	return float64(t.Sub(normalize.ExcelEpoch) / (24 * time.Hour))
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.Intn(len(values))]
}

func decimalText(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

func decimalValue(d decimal.Decimal) interface{} {
	if d.IsZero() {
		return nil
	}
	return d.InexactFloat64()
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
