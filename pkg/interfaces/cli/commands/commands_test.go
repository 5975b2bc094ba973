package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/brewerp/pkg/application/dto"
)

// cli runs brewerp commands against one temporary database
type cli struct {
	t      *testing.T
	dir    string
	config string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	dir := t.TempDir()
	config := filepath.Join(dir, "brewerp.yaml")
	body := "database:\n  path: " + filepath.Join(dir, "brewerp.db") + "\n" +
		"logging:\n  level: error\n" +
		"auth:\n  bcrypt_cost: 4\n"
	require.NoError(t, os.WriteFile(config, []byte(body), 0o600))
	return &cli{t: t, dir: dir, config: config}
}

func (c *cli) run(args ...string) (string, error) {
	c.t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", c.config}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run(args...)
	require.NoError(c.t, err, out)
	return out
}

func TestMigrate(t *testing.T) {
	c := newCLI(t)
	out := c.mustRun("migrate")
	assert.Contains(t, out, "schema version 1")
}

func TestInvalidFormat(t *testing.T) {
	c := newCLI(t)
	_, err := c.run("--format", "xml", "migrate")
	assert.ErrorContains(t, err, `invalid format "xml"`)
}

func TestSeedIsRepeatable(t *testing.T) {
	c := newCLI(t)

	var first dto.SeedResult
	require.NoError(t, json.Unmarshal([]byte(c.mustRun("--format", "json", "seed", "testdata/brewery.yaml")), &first))
	assert.Equal(t, 1, first.Companies)
	assert.Equal(t, 2, first.Movements)

	var second dto.SeedResult
	require.NoError(t, json.Unmarshal([]byte(c.mustRun("--format", "json", "seed", "testdata/brewery.yaml")), &second))
	assert.Zero(t, second.Companies, "existing companies are skipped")

	_, err := c.run("seed", "testdata/missing.yaml")
	assert.Error(t, err)
}

func TestReports(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("report", "valuation")
	assert.ErrorContains(t, err, "run brewerp seed first")

	c.mustRun("seed", "testdata/brewery.yaml")

	out := c.mustRun("--format", "csv", "report", "valuation", "--branch", "ber")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "branch,sku,name,category,uom,quantity,average_cost,value", lines[0])
	assert.Contains(t, out, "BER,MALT-PILS,Pilsner malt,raw_material,KG,500,")

	out = c.mustRun("report", "low-stock")
	assert.Contains(t, out, "Low stock")
	assert.Contains(t, out, "HAM")

	_, err = c.run("report", "valuation", "--branch", "MUC")
	assert.ErrorContains(t, err, "branch MUC")

	_, err = c.run("report", "abc", "--from", "last week")
	assert.ErrorContains(t, err, "--from")

	_, err = c.run("--company", "NOPE", "report", "valuation")
	assert.ErrorContains(t, err, "company NOPE")
}

func TestReports_CSVDirectory(t *testing.T) {
	c := newCLI(t)
	c.mustRun("seed", "testdata/brewery.yaml")

	dir := filepath.Join(c.dir, "reports")
	c.mustRun("--format", "csv", "--output", dir, "report", "turnover")

	data, err := os.ReadFile(filepath.Join(dir, "turnover.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "sku,name,cogs,"))
	assert.Contains(t, string(data), "TOTAL")
}

func TestImport(t *testing.T) {
	c := newCLI(t)
	c.mustRun("seed", "testdata/brewery.yaml")

	items := filepath.Join(c.dir, "items.csv")
	require.NoError(t, os.WriteFile(items, []byte(
		"sku,name,category,base_uom,standard_cost,reorder_level,lot_size_rule,min_order_qty,pack_size,lead_time_days\n"+
			"YEAST-W34,Lager yeast,raw_material,G,0.2,1000,lot_for_lot,,,10\n"+
			"MALT-PILS,Pilsner malt,raw_material,KG,0.9,120,lot_for_lot,,,7\n"), 0o600))

	var res dto.ImportResult
	require.NoError(t, json.Unmarshal([]byte(c.mustRun("--format", "json", "import", "items", items)), &res))
	assert.Equal(t, dto.ImportResult{Created: 1, Updated: 1}, res)

	stock := filepath.Join(c.dir, "stock.csv")
	require.NoError(t, os.WriteFile(stock, []byte(
		"branch_code,sku,uom,quantity,unit_cost,lot_number,received_at\n"+
			"HAM,YEAST-W34,G,500,,Y-1,2024-02-01\n"), 0o600))

	res = dto.ImportResult{}
	require.NoError(t, json.Unmarshal([]byte(c.mustRun("--format", "json", "import", "stock", stock)), &res))
	assert.Equal(t, 1, res.Posted)

	out := c.mustRun("--format", "csv", "report", "valuation", "--branch", "HAM")
	assert.Contains(t, out, "HAM,YEAST-W34,Lager yeast,raw_material,G,500,")
}

func TestAlertsScan(t *testing.T) {
	c := newCLI(t)
	c.mustRun("seed", "testdata/brewery.yaml")

	var res dto.ScanResult
	require.NoError(t, json.Unmarshal([]byte(c.mustRun("--format", "json", "alerts", "scan", "--all")), &res))
	assert.Equal(t, dto.ScanResult{Evaluated: 4, Raised: 2}, res, "Hamburg never received stock")

	res = dto.ScanResult{}
	require.NoError(t, json.Unmarshal([]byte(c.mustRun("--format", "json", "alerts", "scan")), &res))
	assert.Equal(t, dto.ScanResult{Evaluated: 4}, res)
}
