package seed

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/brewerp/pkg/domain/entities"
)

func TestLoad(t *testing.T) {
	file, err := Load("testdata/brewery.yaml")
	require.NoError(t, err)
	require.Len(t, file.Companies, 1)

	c := file.Companies[0]
	assert.Equal(t, "HOPW", c.Code)
	assert.Equal(t, "admin@hopworks.test", c.Admin.Email)
	require.Len(t, c.Countries, 1)
	assert.Len(t, c.Countries[0].Branches, 2)
	require.Len(t, c.Users, 1)
	assert.Equal(t, entities.RoleStaff, c.Users[0].Role)
	assert.Equal(t, []string{"BER"}, c.Users[0].Branches)

	require.Len(t, c.Items, 2)
	malt := c.Items[0]
	assert.Equal(t, "25", malt.Conversions[0].Factor)
	assert.Equal(t, "0.85", malt.StandardCost)
	assert.Equal(t, "standard_pack", c.Items[1].LotSizeRule)

	require.Len(t, c.Stock, 2)
	assert.Equal(t, "0.80", c.Stock[0].UnitCost, "numbers keep their literal text")
	require.NotNil(t, c.Stock[0].ReceivedAt)
	assert.True(t, c.Stock[0].ReceivedAt.Equal(time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)))
	assert.Nil(t, c.Stock[1].ReceivedAt)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{"empty", "", "empty"},
		{"no companies", "companies: []\n", "no companies"},
		{"missing code", "companies:\n  - name: Nameless\n", "companies[0]: code is required"},
		{"unknown key", "companies:\n  - code: A\n    warehouses: []\n", "warehouses"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("testdata/missing.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read seed")
}
