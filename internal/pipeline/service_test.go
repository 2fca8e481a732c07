package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-mpfile-service/internal/models"
	"golang-mpfile-service/internal/parsers"
	"golang-mpfile-service/pkg/errors"
)

const exportHeader = "Policy Number,Plan Code,Product Code,Policy Start Date,Policy Term (Months)," +
	"Gender (Life 1),Gender (Life 2),DOB (Life 1),DOB (Life 2),Single Premium," +
	"Loan Amount (Death Benefit) -Life 1,Interest Type,Fixed Interest,Current AWPLR,Additional AWPLR," +
	"TPD Option  - Life 1,TPD Option  - Life 2,Policy Status"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// exportFile writes a policy export with four report title lines above the header
func exportFile(t *testing.T, dir string, rows ...string) string {
	t.Helper()
	lines := []string{
		"Policy Listing Report",
		"Generated,2024-01-02",
		"Branch,All",
		"",
		exportHeader,
	}
	lines = append(lines, rows...)
	return writeFile(t, dir, "export.csv", strings.Join(lines, "\n")+"\n")
}

func field(t *testing.T, r *models.OutputRecord, name string) models.FieldValue {
	t.Helper()
	v, ok := r.Get(name)
	require.True(t, ok, name)
	return v
}

func TestServiceRun(t *testing.T) {
	dir := t.TempDir()
	input := exportFile(t, dir,
		"000123,PLAN07A,MRP01,01/01/2019,24,Male,,07/03/1985,,1500.50,250000,Fixed,4.5,,,Yes,,Active",
		"000124,PLAN11B,GRP1,01/01/2019,24,Female,,07/03/1985,,100,1000,Fixed,4.5,,,No,,Active",
		"000125,PLAN25C,MRP02,01/01/2019,120,F,M,07/03/1985,01/01/1990,,,Variable,,6.5,1.25,No,Yes,Lapsed",
	)
	ri := writeFile(t, dir, "TABLE/RI_Company.csv", "PolicyNo,RI_Company\n000123,Swiss Re\n")
	loan := writeFile(t, dir, "TABLE/MRP_LOAN_TYPE.csv", "Product Code,Loan Type - RBC\nMRP01,Reducing\n")

	riConfig := parsers.DefaultRICompanyConfig()
	riConfig.Path = ri
	loanConfig := parsers.DefaultLoanTypeConfig()
	loanConfig.Path = loan

	service, err := NewService(DefaultConfig())
	require.NoError(t, err)

	var updates []Progress
	service.AddProgressCallback(func(p Progress) {
		updates = append(updates, p)
	})

	result, err := service.Run(context.Background(), &Request{
		InputFile:  input,
		Table:      parsers.DefaultTableConfig(),
		References: []*parsers.ReferenceConfig{riConfig, loanConfig},
		Params: &Params{
			ValuationDate:        time.Date(2020, time.December, 31, 0, 0, 0, 0, time.UTC),
			ExcludedProductCodes: []string{"GRP1"},
			IncludedStatuses:     []string{"Active"},
		},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 3, result.ParseStats.RecordsParsed)
	assert.Zero(t, result.Warnings.Total)
	assert.Len(t, result.Filter.ExcludedFor(models.ReasonGroupProductCode), 1)
	assert.Len(t, result.Filter.StatusDropped, 1)

	require.Len(t, result.Output, 1)
	row := result.Output[0]
	assert.Equal(t, "C_07MRP", field(t, row, models.FieldProphetCode).Str())
	assert.Equal(t, int64(7), field(t, row, models.FieldPlanNo).Int())
	assert.True(t, field(t, row, models.FieldPolTermY).Decimal().Equal(decimal.NewFromInt(2)))
	assert.Equal(t, int64(0), field(t, row, models.FieldSex).Int())
	assert.Equal(t, int64(20190101), field(t, row, models.FieldCommDate).Int())
	assert.Equal(t, int64(123), field(t, row, models.FieldPolNo).Int())
	assert.Equal(t, "Swiss Re", field(t, row, models.FieldRPRCompany).Str())
	assert.Equal(t, "Reducing", field(t, row, models.FieldLoanType).Str())
	assert.Equal(t, "M12_2020", field(t, row, models.FieldDOVIndicator).Str())

	require.NotEmpty(t, updates)
	last := updates[len(updates)-1]
	assert.Equal(t, StepMap, last.CurrentStep)
	assert.Equal(t, float64(100), last.PercentComplete)
	assert.Equal(t, 3, last.RecordsTotal)
	assert.Equal(t, 1, last.RecordsRetained)

	require.Len(t, result.Timings, len(runSteps))
	for i, timing := range result.Timings {
		assert.Equal(t, runSteps[i], timing.Step)
	}
}

func TestServiceRunDegradesMissingReferences(t *testing.T) {
	dir := t.TempDir()
	input := exportFile(t, dir, "1001,PLAN07,MRP01,01/01/2020,120,M,,,,,,,,,,Yes,,Active")

	riConfig := parsers.DefaultRICompanyConfig()
	riConfig.Path = filepath.Join(dir, "missing.csv")

	service, err := NewService(nil)
	require.NoError(t, err)

	result, err := service.Run(context.Background(), &Request{
		InputFile:  input,
		Table:      parsers.DefaultTableConfig(),
		References: []*parsers.ReferenceConfig{riConfig},
		Params: &Params{
			ValuationDate:    valuation,
			IncludedStatuses: []string{"Active"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Warnings.Total)
	assert.True(t, result.Warnings.HasCode(errors.CodeReferenceUnavailable))

	require.Len(t, result.Output, 1)
	assert.Equal(t, "MunichRe", field(t, result.Output[0], models.FieldRPRCompany).Str())
	assert.Equal(t, "Error", field(t, result.Output[0], models.FieldLoanType).Str())
}

func TestServiceRunStructuralErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("header beyond table", func(t *testing.T) {
		input := writeFile(t, dir, "short.csv", "a,b\n1,2\n")
		service, err := NewService(nil)
		require.NoError(t, err)

		_, err = service.Run(context.Background(), &Request{
			InputFile: input,
			Table:     parsers.DefaultTableConfig(),
			Params:    &Params{ValuationDate: valuation},
		})
		require.Error(t, err)
		convErr, ok := errors.AsConverterError(err)
		require.True(t, ok)
		assert.Equal(t, errors.CodeHeaderOutOfRange, convErr.Code)
	})

	t.Run("missing policy status", func(t *testing.T) {
		input := writeFile(t, dir, "nostatus.csv", "Policy Number,Product Code\n1,IND\n")
		config := parsers.DefaultTableConfig()
		config.HeaderRow = 0

		service, err := NewService(nil)
		require.NoError(t, err)

		_, err = service.Run(context.Background(), &Request{
			InputFile: input,
			Table:     config,
			Params:    &Params{ValuationDate: valuation, IncludedStatuses: []string{"Active"}},
		})
		require.Error(t, err)
		_, ok := errors.AsTableError(err)
		assert.True(t, ok)
	})
}

func TestServiceRunValidation(t *testing.T) {
	service, err := NewService(nil)
	require.NoError(t, err)

	_, err = service.Run(context.Background(), nil)
	assert.Error(t, err)

	_, err = service.Run(context.Background(), &Request{Table: parsers.DefaultTableConfig(), Params: &Params{ValuationDate: valuation}})
	assert.Error(t, err)

	_, err = service.Run(context.Background(), &Request{InputFile: "x.csv", Table: parsers.DefaultTableConfig(), Params: &Params{}})
	assert.Error(t, err)

	_, err = NewService(&Config{Workers: -1})
	assert.Error(t, err)
}

func TestServiceTransform(t *testing.T) {
	columns := append([]string{models.ColPlanCode}, filterColumns...)
	table := buildTable(columns,
		[]string{"PLAN25", "1", "IND", "01/01/2020", "120", "Active"},
		[]string{"PLAN11", "2", "IND", "01/01/2020", "120", "Active"},
		[]string{"OTHER", "3", "IND", "01/01/2020", "120", "Active"},
	)

	service, err := NewService(&Config{Workers: 2, VerifyPartition: true})
	require.NoError(t, err)

	result, err := service.Transform(context.Background(), table, map[string]*models.ReferenceTable{
		parsers.LoanTypeTable: models.NewReferenceTable(parsers.LoanTypeTable, map[string]string{"IND": "Level"}),
	}, defaultParams())
	require.NoError(t, err)

	require.Len(t, result.Output, 3)
	for i, want := range []string{"C_25MRPTAKAFUL", "C_11MICRO", "Check"} {
		assert.Equal(t, i, result.Output[i].SourceIndex)
		assert.Equal(t, want, field(t, result.Output[i], models.FieldProphetCode).Str())
		assert.Equal(t, "Level", field(t, result.Output[i], models.FieldLoanType).Str())
		assert.Equal(t, "MunichRe", field(t, result.Output[i], models.FieldRPRCompany).Str())
	}
	assert.True(t, field(t, result.Output[2], models.FieldPlanNo).IsNull())
	assert.Equal(t, len(result.Output), len(result.Filter.Retained))
}
