package services

import (
	"errors"
	"testing"

	"github.com/vsinha/brewerp/pkg/domain/apperror"
	"github.com/vsinha/brewerp/pkg/domain/entities"
)

func keg() *entities.Item {
	return &entities.Item{
		SKU:     "IPA-KEG",
		BaseUOM: "L",
		Conversions: []entities.UOMConversion{
			{UOM: "KEG", Factor: d("50")},
			{UOM: "HL", Factor: d("100")},
		},
	}
}

func TestToBaseAndFromBase(t *testing.T) {
	item := keg()

	base, err := ToBase(item, d("3"), "keg")
	if err != nil {
		t.Fatalf("ToBase failed: %v", err)
	}
	if !base.Equal(d("150")) {
		t.Errorf("Expected 150 L, got %s", base)
	}

	hl, err := FromBase(item, base, "HL")
	if err != nil {
		t.Fatalf("FromBase failed: %v", err)
	}
	if !hl.Equal(d("1.5")) {
		t.Errorf("Expected 1.5 HL, got %s", hl)
	}

	kegs, err := Convert(item, d("2"), "HL", "KEG")
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}
	if !kegs.Equal(d("4")) {
		t.Errorf("Expected 4 kegs, got %s", kegs)
	}
}

func TestToBase_UnknownUOM(t *testing.T) {
	_, err := ToBase(keg(), d("1"), "CAN")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Expected validation error, got %v", err)
	}
}

func TestBaseUnitCost(t *testing.T) {
	cost, err := BaseUnitCost(keg(), d("100"), "KEG")
	if err != nil {
		t.Fatalf("BaseUnitCost failed: %v", err)
	}
	if !cost.Equal(d("2")) {
		t.Errorf("Expected 2 per litre, got %s", cost)
	}

	item := &entities.Item{BaseUOM: "CAN", Conversions: []entities.UOMConversion{{UOM: "CASE", Factor: d("24")}}}
	cost, err = BaseUnitCost(item, d("10"), "CASE")
	if err != nil {
		t.Fatalf("BaseUnitCost failed: %v", err)
	}
	if !cost.Equal(d("0.416667")) {
		t.Errorf("Expected 0.416667 per can, got %s", cost)
	}
}
