package output

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/vsinha/brewerp/pkg/application/dto"
	"github.com/vsinha/brewerp/pkg/domain/entities"
)

var asOf = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func valuation() *dto.ValuationReport {
	return &dto.ValuationReport{
		AsOf:     asOf,
		Currency: "EUR",
		Rows: []dto.ValuationRow{
			{BranchCode: "BER", SKU: "MALT-PILS", Name: "Pilsner malt", Category: entities.RawMaterial, UOM: "KG",
				Quantity: d("500"), AverageCost: d("0.8"), Value: d("400")},
			{BranchCode: "BER", SKU: "BTL-330", Name: "Bottle, 330ml", Category: entities.Packaging, UOM: "EA",
				Quantity: d("1200"), AverageCost: d("0.1"), Value: d("120")},
		},
		Categories: []dto.CategoryTotal{
			{Category: entities.Packaging, Value: d("120")},
			{Category: entities.RawMaterial, Value: d("400")},
		},
		TotalValue: d("520"),
	}
}

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata"),
		goldie.WithNameSuffix(".golden"),
	)
}

func TestGenerate_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate("valuation", valuation(), Config{Format: FormatCSV, Out: &buf}))
	golden(t).Assert(t, "valuation_csv", buf.Bytes())

	buf.Reset()
	slow := &dto.SlowMovingReport{
		AsOf:          asOf,
		ThresholdDays: 30,
		Rows: []dto.SlowMovingRow{{
			BranchCode: "HAM", SKU: "MALT-PILS", Name: "Pilsner malt", Quantity: d("40"), Value: d("36"),
			LastActivityAt: time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC), DaysIdle: 51,
		}},
		ValueAtRisk: d("36"),
	}
	require.NoError(t, Generate("slow-moving", slow, Config{Format: FormatCSV, Out: &buf}))
	golden(t).Assert(t, "slow_moving_csv", buf.Bytes())
}

func TestGenerate_CSVToDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	var out bytes.Buffer
	require.NoError(t, Generate("valuation", valuation(), Config{Format: FormatCSV, OutputDir: dir, Out: &out, Verbose: true}))

	data, err := os.ReadFile(filepath.Join(dir, "valuation.csv"))
	require.NoError(t, err)
	golden(t).Assert(t, "valuation_csv", data)
	assert.Contains(t, out.String(), "valuation.csv")
}

func TestGenerate_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate("valuation", valuation(), Config{Format: FormatText, Out: &buf, Language: language.English}))

	text := buf.String()
	assert.Contains(t, text, "Inventory valuation")
	assert.Contains(t, text, "As of: 2024-03-01")
	assert.Contains(t, text, "1,200.00")
	assert.Contains(t, text, "Total: 520.00")

	buf.Reset()
	require.NoError(t, Generate("low-stock", &dto.LowStockReport{AsOf: asOf}, Config{Out: &buf}))
	assert.Contains(t, buf.String(), "(no rows)")
}

func TestGenerate_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Generate("valuation", valuation(), Config{Format: FormatJSON, Out: &buf}))

	var got dto.ValuationReport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.True(t, d("520").Equal(got.TotalValue))
	assert.Len(t, got.Rows, 2)
}

func TestGenerate_Errors(t *testing.T) {
	var buf bytes.Buffer
	err := Generate("valuation", valuation(), Config{Format: "xml", Out: &buf})
	assert.ErrorContains(t, err, "unsupported output format")

	err = Generate("thing", struct{}{}, Config{Format: FormatCSV, Out: &buf})
	assert.ErrorContains(t, err, "no table layout")
}
