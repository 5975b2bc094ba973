package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/brewerp/pkg/application/dto"
	"github.com/vsinha/brewerp/pkg/domain/apperror"
	"github.com/vsinha/brewerp/pkg/domain/entities"
)

// Column layouts of the import files
var (
	ItemHeader = []string{
		"sku", "name", "category", "base_uom", "standard_cost", "reorder_level",
		"lot_size_rule", "min_order_qty", "pack_size", "lead_time_days",
	}
	StockHeader = []string{"branch_code", "sku", "uom", "quantity", "unit_cost", "lot_number", "received_at"}
)

// Loader reads import files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadItems reads an item import file
func (l *Loader) LoadItems(filename string) ([]dto.ItemRow, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open items file %s: %w", filename, err)
	}
	defer file.Close()
	return l.ReadItems(file)
}

// LoadOpeningStock reads an opening stock import file
func (l *Loader) LoadOpeningStock(filename string) ([]dto.OpeningStockRow, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open stock file %s: %w", filename, err)
	}
	defer file.Close()
	return l.ReadOpeningStock(file)
}

// ReadItems parses item rows. Row numbers count the header as line 1.
func (l *Loader) ReadItems(r io.Reader) ([]dto.ItemRow, error) {
	records, err := readRecords(r, "items", ItemHeader)
	if err != nil {
		return nil, err
	}

	rows := make([]dto.ItemRow, 0, len(records))
	for i, record := range records {
		in, err := parseItem(record)
		if err != nil {
			return nil, fmt.Errorf("items CSV row %d: %w", i+2, err)
		}
		rows = append(rows, dto.ItemRow{Row: i + 2, Input: in})
	}
	return rows, nil
}

// ReadOpeningStock parses opening stock rows
func (l *Loader) ReadOpeningStock(r io.Reader) ([]dto.OpeningStockRow, error) {
	records, err := readRecords(r, "stock", StockHeader)
	if err != nil {
		return nil, err
	}

	rows := make([]dto.OpeningStockRow, 0, len(records))
	for i, record := range records {
		row, err := parseStock(record)
		if err != nil {
			return nil, fmt.Errorf("stock CSV row %d: %w", i+2, err)
		}
		row.Row = i + 2
		rows = append(rows, row)
	}
	return rows, nil
}

// readRecords returns the data records after checking the header
func readRecords(r io.Reader, kind string, expectedHeader []string) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("%s CSV must have header and at least one data row", kind)
	}
	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", kind, expectedHeader, header)
	}

	data := records[1:]
	for i, record := range data {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", kind, i+2, len(expectedHeader), len(record))
		}
	}
	return data, nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}

	return true
}

func parseItem(record []string) (dto.ItemInput, error) {
	v := apperror.NewValidationError()
	in := dto.ItemInput{
		SKU:      record[0],
		Name:     record[1],
		Category: entities.Category(strings.ToLower(strings.TrimSpace(record[2]))),
		BaseUOM:  record[3],
	}
	in.StandardCost = parseDecimal(v, "standard_cost", record[4])
	in.ReorderLevel = parseDecimal(v, "reorder_level", record[5])

	rule, err := parseLotSizeRule(record[6])
	if err != nil {
		v.Add("lot_size_rule", "%v", err)
	}
	in.LotSizeRule = rule
	in.MinOrderQty = parseDecimal(v, "min_order_qty", record[7])
	in.PackSize = parseDecimal(v, "pack_size", record[8])

	if s := strings.TrimSpace(record[9]); s != "" {
		days, err := strconv.Atoi(s)
		if err != nil {
			v.Add("lead_time_days", "invalid integer %q", s)
		}
		in.LeadTimeDays = days
	}
	return in, v.Err()
}

func parseStock(record []string) (dto.OpeningStockRow, error) {
	v := apperror.NewValidationError()
	row := dto.OpeningStockRow{
		BranchCode: strings.TrimSpace(record[0]),
		SKU:        strings.TrimSpace(record[1]),
		UOM:        strings.TrimSpace(record[2]),
		Quantity:   parseDecimal(v, "quantity", record[3]),
		LotNumber:  strings.TrimSpace(record[5]),
	}
	if strings.TrimSpace(record[4]) != "" {
		cost := parseDecimal(v, "unit_cost", record[4])
		row.UnitCost = &cost
	}
	if s := strings.TrimSpace(record[6]); s != "" {
		at, err := parseTime(s)
		if err != nil {
			v.Add("received_at", "invalid date %q (expected YYYY-MM-DD or RFC 3339)", s)
		} else {
			row.ReceivedAt = &at
		}
	}
	return row, v.Err()
}

func parseDecimal(v *apperror.ValidationError, field, s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		v.Add(field, "invalid number %q", s)
		return decimal.Zero
	}
	return d
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// parseLotSizeRule accepts the stored names and their CamelCase spellings
func parseLotSizeRule(s string) (entities.LotSizeRule, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "")) {
	case "", "lotforlot":
		return entities.LotForLot, nil
	case "minimumqty":
		return entities.MinimumQty, nil
	case "standardpack":
		return entities.StandardPack, nil
	default:
		return entities.LotForLot, errors.New("expected lot_for_lot, minimum_qty or standard_pack")
	}
}
