// Command example runs a small brewery through brewerp in-process: it seeds a
// company, brews with some malt, moves stock between branches and prints the
// resulting valuation and low-stock reports.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/vsinha/brewerp/pkg/application/dto"
	"github.com/vsinha/brewerp/pkg/application/services"
	"github.com/vsinha/brewerp/pkg/domain/entities"
	"github.com/vsinha/brewerp/pkg/infrastructure/config"
	"github.com/vsinha/brewerp/pkg/infrastructure/events"
	"github.com/vsinha/brewerp/pkg/infrastructure/repositories/sqlite"
	"github.com/vsinha/brewerp/pkg/infrastructure/seed"
	"github.com/vsinha/brewerp/pkg/interfaces/cli/output"
)

const brewery = `
companies:
  - name: Example Brewing
    code: EXB
    currency: EUR
    admin: {email: admin@example.test, name: Admin, password: example-pass-1}
    countries:
      - code: DE
        name: Germany
        currency: EUR
        branches:
          - {code: BER, name: Berlin Brewhouse}
          - {code: HAM, name: Hamburg Taproom}
    items:
      - sku: MALT-PILS
        name: Pilsner malt
        category: raw_material
        base_uom: KG
        conversions: [{uom: SACK, factor: 25}]
        standard_cost: 0.85
        reorder_level: 100
      - {sku: HOP-CASC, name: Cascade hops, category: raw_material, base_uom: KG, standard_cost: 18, reorder_level: 5}
    stock:
      - {branch: BER, sku: MALT-PILS, uom: SACK, quantity: 20, unit_cost: 20}
      - {branch: BER, sku: HOP-CASC, quantity: 12, unit_cost: 17.5}
`

func main() {
	ctx := context.Background()

	dir, err := os.MkdirTemp("", "brewerp-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	store, err := sqlite.Open(filepath.Join(dir, "brewerp.db"))
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	logger := zap.NewNop()
	bus := events.NewBus(logger, 0)
	defer bus.Close()

	cfg := config.Default()
	app, err := services.NewApp(store, bus, cfg, services.Options{Logger: logger})
	if err != nil {
		log.Fatal(err)
	}

	file, err := seed.Decode(strings.NewReader(brewery))
	if err != nil {
		log.Fatal(err)
	}
	if _, err := services.NewSeeder(app).Apply(ctx, file); err != nil {
		log.Fatal(err)
	}

	session, err := app.Auth.Login(ctx, dto.LoginInput{Email: "admin@example.test", Password: "example-pass-1"})
	if err != nil {
		log.Fatal(err)
	}
	p, err := app.Auth.Authenticate(ctx, session.Token)
	if err != nil {
		log.Fatal(err)
	}

	branches, err := app.Tenancy.ListBranches(ctx, p)
	if err != nil {
		log.Fatal(err)
	}
	byCode := map[string]string{}
	for _, b := range branches {
		byCode[b.Code] = b.ID
	}
	malt, err := store.Items().GetItemBySKU(ctx, p.CompanyID, "MALT-PILS")
	if err != nil {
		log.Fatal(err)
	}

	// Brew a batch in Berlin: 6 sacks of malt
	brew, err := app.Stock.RecordMovement(ctx, p, dto.MovementInput{
		BranchID:  byCode["BER"],
		ItemID:    malt.ID,
		Type:      entities.MovementIssue,
		Quantity:  decimal.NewFromInt(6),
		UOM:       "SACK",
		Reference: "BATCH-001",
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Issued %s %s, Berlin balance %s %s\n",
		brew.Movement.BaseQuantity, malt.BaseUOM, brew.Balance.Quantity, malt.BaseUOM)

	// Send malt to the taproom
	moved, err := app.Stock.Transfer(ctx, p, dto.TransferInput{
		FromBranchID: byCode["BER"],
		ToBranchID:   byCode["HAM"],
		Lines:        []dto.TransferLineInput{{ItemID: malt.ID, Quantity: decimal.NewFromInt(50)}},
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Transfer %s posted %d movements\n\n", moved.Transfer.Number, len(moved.Movements))
	bus.Flush()

	out := output.Config{Format: output.FormatText, Out: os.Stdout, Language: language.English}

	valuation, err := app.Reports.Valuation(ctx, p, dto.ReportFilter{})
	if err != nil {
		log.Fatal(err)
	}
	if err := output.Generate("valuation", valuation, out); err != nil {
		log.Fatal(err)
	}
	fmt.Println()

	lowStock, err := app.Reports.LowStock(ctx, p, dto.ReportFilter{})
	if err != nil {
		log.Fatal(err)
	}
	if err := output.Generate("low-stock", lowStock, out); err != nil {
		log.Fatal(err)
	}
}
