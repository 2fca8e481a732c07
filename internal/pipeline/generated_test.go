package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang-mpfile-service/internal/exportgen"
	"golang-mpfile-service/internal/models"
	"golang-mpfile-service/internal/parsers"
)

func TestServiceRunGeneratedExports(t *testing.T) {
	g := exportgen.NewGenerator(2000, valuation, 2024)
	policies := g.Generate()

	tests := []struct {
		name  string
		write func(string, []*exportgen.Policy) error
		file  string
	}{
		{name: "csv", write: g.WriteToCSV, file: "export.csv"},
		{name: "xlsx", write: g.WriteToXLSX, file: "export.xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			input := filepath.Join(dir, tt.file)
			require.NoError(t, tt.write(input, policies))
			require.NoError(t, g.WriteReferenceTables(dir, policies))

			riConfig := parsers.DefaultRICompanyConfig()
			riConfig.Path = filepath.Join(dir, "TABLE", "RI_Company.csv")
			loanConfig := parsers.DefaultLoanTypeConfig()
			loanConfig.Path = filepath.Join(dir, "TABLE", "MRP_LOAN_TYPE.csv")

			service, err := NewService(&Config{Workers: 4, VerifyPartition: true})
			require.NoError(t, err)

			result, err := service.Run(context.Background(), &Request{
				InputFile:  input,
				Table:      parsers.DefaultTableConfig(),
				References: []*parsers.ReferenceConfig{riConfig, loanConfig},
				Params: &Params{
					ValuationDate:        valuation,
					ExcludedProductCodes: g.GroupCodes,
					IncludedStatuses:     g.IncludedStatuses,
				},
			})
			require.NoError(t, err)
			require.Equal(t, len(policies), result.Filter.Total)

			outcomes := make(map[int]exportgen.Outcome, len(policies))
			for reason, exclusions := range result.Filter.Excluded {
				for _, e := range exclusions {
					outcomes[e.Record.Index] = exportgen.ExclusionOutcome(reason)
				}
			}
			for _, r := range result.Filter.StatusDropped {
				outcomes[r.Index] = exportgen.OutcomeStatusDropped
			}
			for _, r := range result.Filter.Retained {
				outcomes[r.Index] = exportgen.OutcomeRetained
			}

			require.Len(t, outcomes, len(policies))
			for i, p := range policies {
				assert.Equal(t, p.Expect, outcomes[i], "policy %s", p.PolicyNumber)
			}

			counts := exportgen.Counts(policies)
			require.Len(t, result.Output, counts[exportgen.OutcomeRetained])
			for i, row := range result.Output {
				assert.Equal(t, int64(result.Filter.Retained[i].Index+1), field(t, row, models.FieldPolNo).Int())
			}
		})
	}
}
