// Package output renders reports for the command line.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formats accepted by Generate
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// ValidFormats lists the supported output formats
var ValidFormats = []string{FormatText, FormatJSON, FormatCSV}

// Config holds configuration for output generation
type Config struct {
	Format string
	// OutputDir receives <name>.csv files; csv output goes to Out when empty
	OutputDir string
	Verbose   bool
	Out       io.Writer
	// Language controls number grouping in text output
	Language language.Tag
}

// Generate writes report in the configured format. name is used as the CSV file name.
func Generate(name string, report any, config Config) error {
	if config.Out == nil {
		config.Out = os.Stdout
	}
	switch config.Format {
	case FormatText, "":
		table, err := TableFor(report)
		if err != nil {
			return err
		}
		return writeText(config.Out, table, config.Language)
	case FormatJSON:
		enc := json.NewEncoder(config.Out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		return nil
	case FormatCSV:
		table, err := TableFor(report)
		if err != nil {
			return err
		}
		return generateCSVOutput(name, table, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

func generateCSVOutput(name string, table *Table, config Config) error {
	if config.OutputDir == "" {
		return writeCSV(config.Out, table)
	}

	if err := os.MkdirAll(config.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, name+".csv")
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	if err := writeCSV(f, table); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", filename, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	if config.Verbose {
		fmt.Fprintf(config.Out, "CSV report saved to: %s\n", filename)
	}
	return nil
}

// writeCSV writes the header and rows; summary lines are left to text output
func writeCSV(w io.Writer, table *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(table.Columns); err != nil {
		return err
	}
	for _, row := range table.Rows {
		record := make([]string, len(row))
		for i, cell := range row {
			record[i] = rawCell(cell)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeText(w io.Writer, table *Table, lang language.Tag) error {
	p := message.NewPrinter(lang)

	fmt.Fprintf(w, "%s\n", table.Title)
	for _, line := range table.Header {
		fmt.Fprintf(w, "%s\n", line)
	}
	fmt.Fprintln(w)

	if len(table.Rows) == 0 {
		fmt.Fprintln(w, "(no rows)")
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		writeTabbed(tw, table.Columns, p)
		for _, row := range table.Rows {
			writeTabbed(tw, row, p)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(table.Summary) > 0 {
		fmt.Fprintln(w)
		for _, kv := range table.Summary {
			fmt.Fprintf(w, "%s: %s\n", kv.Label, textCell(kv.Value, p))
		}
	}
	return nil
}

func writeTabbed[T any](tw *tabwriter.Writer, cells []T, p *message.Printer) {
	for _, c := range cells {
		fmt.Fprintf(tw, "%s\t", textCell(c, p))
	}
	fmt.Fprintln(tw)
}

// rawCell renders a cell losslessly for machine consumption
func rawCell(v any) string {
	switch c := v.(type) {
	case decimal.Decimal:
		return c.String()
	case time.Time:
		if c.IsZero() {
			return ""
		}
		return c.UTC().Format(time.RFC3339)
	case nil:
		return ""
	default:
		return fmt.Sprint(c)
	}
}

// textCell renders a cell for people: grouped numbers, dates without time
func textCell(v any, p *message.Printer) string {
	switch c := v.(type) {
	case decimal.Decimal:
		if c.Exponent() < -2 {
			return p.Sprintf("%.4f", c.Round(4).InexactFloat64())
		}
		return p.Sprintf("%.2f", c.Round(2).InexactFloat64())
	case int:
		return p.Sprintf("%d", c)
	case time.Time:
		if c.IsZero() {
			return "-"
		}
		return c.UTC().Format("2006-01-02")
	default:
		return rawCell(v)
	}
}
