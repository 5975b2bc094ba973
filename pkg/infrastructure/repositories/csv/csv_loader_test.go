package csv

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/brewerp/pkg/domain/apperror"
	"github.com/vsinha/brewerp/pkg/domain/entities"
)

const itemsCSV = `sku,name,category,base_uom,standard_cost,reorder_level,lot_size_rule,min_order_qty,pack_size,lead_time_days
MALT-PILS,Pilsner malt,raw_material,KG,0.85,100,lot_for_lot,,,7
BTL-330,"Bottle, 330ml",Packaging,EA,0.12,240,StandardPack,,480,14
`

func TestReadItems(t *testing.T) {
	rows, err := NewLoader().ReadItems(strings.NewReader(itemsCSV))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	malt := rows[0]
	assert.Equal(t, 2, malt.Row)
	assert.Equal(t, "MALT-PILS", malt.Input.SKU)
	assert.Equal(t, entities.RawMaterial, malt.Input.Category)
	assert.Equal(t, "0.85", malt.Input.StandardCost.String())
	assert.True(t, malt.Input.MinOrderQty.IsZero(), "blank numbers are zero")
	assert.Equal(t, 7, malt.Input.LeadTimeDays)

	bottle := rows[1]
	assert.Equal(t, 3, bottle.Row)
	assert.Equal(t, "Bottle, 330ml", bottle.Input.Name)
	assert.Equal(t, entities.Packaging, bottle.Input.Category)
	assert.Equal(t, entities.StandardPack, bottle.Input.LotSizeRule)
	assert.Equal(t, "480", bottle.Input.PackSize.String())
}

func TestReadItems_Errors(t *testing.T) {
	header := strings.Join(ItemHeader, ",") + "\n"
	tests := []struct {
		name    string
		input   string
		wantErr string
		field   string
	}{
		{"empty", "", "must have header", ""},
		{"header only", header, "must have header", ""},
		{"wrong header", "sku,name\nA,B\n", "header mismatch", ""},
		{"short row", header + "A,B,raw_material\n", "row 2: expected 10 columns, got 3", ""},
		{"bad number", header + "A,B,raw_material,KG,cheap,1,,,,\n", "row 2", "standard_cost"},
		{"bad rule", header + "A,B,raw_material,KG,1,1,eoq,,,\n", "row 2", "lot_size_rule"},
		{"bad lead time", header + "A,B,raw_material,KG,1,1,,,,soon\n", "row 2", "lead_time_days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader().ReadItems(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			if tt.field != "" {
				var ve *apperror.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Contains(t, ve.Fields, tt.field)
			}
		})
	}
}

func TestReadOpeningStock(t *testing.T) {
	input := "\ufeffbranch_code,sku,uom,quantity,unit_cost,lot_number,received_at\n" +
		"BER,MALT-PILS,,500,0.80,M-001,2024-01-10\n" +
		"HAM,BTL-330,CASE,50,,,2024-01-10T08:30:00Z\n" +
		"HAM,HOP-CASC,KG,5,,,\n"

	rows, err := NewLoader().ReadOpeningStock(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, 2, rows[0].Row)
	assert.Equal(t, "BER", rows[0].BranchCode)
	require.NotNil(t, rows[0].UnitCost)
	assert.Equal(t, "0.8", rows[0].UnitCost.String())
	assert.Equal(t, "M-001", rows[0].LotNumber)
	require.NotNil(t, rows[0].ReceivedAt)
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), *rows[0].ReceivedAt)

	assert.Equal(t, "CASE", rows[1].UOM)
	assert.Nil(t, rows[1].UnitCost, "blank cost falls back to standard cost")
	assert.Equal(t, time.Date(2024, 1, 10, 8, 30, 0, 0, time.UTC), *rows[1].ReceivedAt)

	assert.Nil(t, rows[2].ReceivedAt)
}

func TestReadOpeningStock_BadRow(t *testing.T) {
	input := strings.Join(StockHeader, ",") + "\n" +
		"BER,MALT-PILS,,500,0.80,,\n" +
		"BER,MALT-PILS,,lots,,,yesterday\n"

	_, err := NewLoader().ReadOpeningStock(strings.NewReader(input))
	require.ErrorIs(t, err, apperror.ErrValidation)
	assert.Contains(t, err.Error(), "stock CSV row 3")

	var ve *apperror.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "quantity")
	assert.Contains(t, ve.Fields, "received_at")
}

func TestLoadItems_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "items.csv")
	require.NoError(t, os.WriteFile(path, []byte(itemsCSV), 0o600))

	rows, err := NewLoader().LoadItems(path)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = NewLoader().LoadItems(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open items file")
}
