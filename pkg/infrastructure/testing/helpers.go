// Package testing holds shared test data for brewerp packages.
package testing

import (
	"time"

	"github.com/vsinha/brewerp/pkg/application/dto"
	"github.com/vsinha/brewerp/pkg/domain/entities"
)

// Scenario constants referenced by tests
const (
	CompanyCode   = "HOPW"
	AdminEmail    = "admin@hopworks.test"
	ManagerEmail  = "manager@hopworks.test"
	StaffEmail    = "staff@hopworks.test"
	ViewerEmail   = "viewer@hopworks.test"
	Password      = "brew-secret-1"
	BranchBerlin  = "BER"
	BranchHamburg = "HAM"
	SKUMalt       = "MALT-PILS"
	SKUHops       = "HOP-CASC"
	SKUBottle     = "BTL-330"
	SKUBeer       = "BEER-PILS"
)

// OpeningDate is when the scenario's opening stock was received
var OpeningDate = time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

// BuildBreweryScenario returns a seed file for a two-branch craft brewery.
// Berlin is stocked above every reorder level; Hamburg holds a little malt,
// below its reorder level.
func BuildBreweryScenario() *dto.SeedFile {
	opened := OpeningDate
	return &dto.SeedFile{
		Companies: []dto.SeedCompany{{
			Name:     "Hop Works Brewing",
			Code:     CompanyCode,
			Currency: "EUR",
			Admin:    dto.SeedUser{Email: AdminEmail, Name: "Ada Admin", Password: Password},
			Countries: []dto.SeedCountry{{
				Code:     "DE",
				Name:     "Germany",
				Currency: "EUR",
				Branches: []dto.SeedBranch{
					{Code: BranchBerlin, Name: "Berlin Brewhouse", Address: "Malzstrasse 1"},
					{Code: BranchHamburg, Name: "Hamburg Taproom", Address: "Hafenweg 7"},
				},
			}},
			Users: []dto.SeedUser{
				{Email: ManagerEmail, Name: "Max Manager", Role: entities.RoleManager, Password: Password},
				{Email: StaffEmail, Name: "Sam Staff", Role: entities.RoleStaff, Password: Password, Branches: []string{BranchBerlin}},
				{Email: ViewerEmail, Name: "Vic Viewer", Role: entities.RoleViewer, Password: Password},
			},
			Suppliers: []dto.SeedSupplier{
				{Code: "MALTCO", Name: "Malt Company", Email: "orders@maltco.test", LeadTimeDays: 7},
				{Code: "HOPSUP", Name: "Hop Supply", LeadTimeDays: 21},
			},
			Items: []dto.SeedItem{
				{
					SKU: SKUMalt, Name: "Pilsner malt", Category: entities.RawMaterial, BaseUOM: "KG",
					Conversions:  []dto.SeedConversion{{UOM: "SACK", Factor: "25"}},
					StandardCost: "0.85", ReorderLevel: "100", LotSizeRule: string(entities.LotForLot), LeadTimeDays: 7,
				},
				{
					SKU: SKUHops, Name: "Cascade hops", Category: entities.RawMaterial, BaseUOM: "KG",
					StandardCost: "18", ReorderLevel: "5", LotSizeRule: string(entities.MinimumQty), MinOrderQty: "10", LeadTimeDays: 21,
				},
				{
					SKU: SKUBottle, Name: "Bottle 330ml", Category: entities.Packaging, BaseUOM: "EA",
					Conversions:  []dto.SeedConversion{{UOM: "CASE", Factor: "24"}},
					StandardCost: "0.12", ReorderLevel: "240", LotSizeRule: string(entities.StandardPack), PackSize: "480", LeadTimeDays: 14,
				},
				{
					SKU: SKUBeer, Name: "Pilsner 0.33", Category: entities.FinishedGood, BaseUOM: "EA",
					StandardCost: "0.65",
				},
			},
			Stock: []dto.SeedStock{
				{Branch: BranchBerlin, SKU: SKUMalt, Quantity: "500", UnitCost: "0.80", LotNumber: "M-001", ReceivedAt: &opened},
				{Branch: BranchBerlin, SKU: SKUHops, Quantity: "20", UnitCost: "17.50", LotNumber: "H-001", ReceivedAt: &opened},
				{Branch: BranchBerlin, SKU: SKUBottle, UOM: "CASE", Quantity: "50", UnitCost: "2.40", ReceivedAt: &opened},
				{Branch: BranchHamburg, SKU: SKUMalt, Quantity: "40", UnitCost: "0.90", LotNumber: "M-002", ReceivedAt: &opened},
			},
		}},
	}
}
