package model

import "github.com/shopspring/decimal"

type Unit string

const (
	UnitKg     Unit = "kg"
	UnitBox    Unit = "box"
	UnitPallet Unit = "pallet"
)

func (u Unit) Valid() bool {
	switch u {
	case UnitKg, UnitBox, UnitPallet:
		return true
	}
	return false
}

// Label is the short unit name used in reports and exports.
func (u Unit) Label() string {
	switch u {
	case UnitBox:
		return "box"
	case UnitPallet:
		return "pallet"
	default:
		return "kg"
	}
}

// WeightParams are the per-unit weights of a product. BoxesPerPallet is
// informational and never enters the weight formula.
type WeightParams struct {
	BoxWeight      decimal.NullDecimal `gorm:"type:numeric(14,3)" json:"box_weight"`
	PalletWeight   decimal.NullDecimal `gorm:"type:numeric(14,3)" json:"pallet_weight"`
	BoxesPerPallet decimal.NullDecimal `gorm:"type:numeric(14,3)" json:"boxes_per_pallet"`
}

type Product struct {
	BaseModel
	Name    string `gorm:"type:varchar(255);not null" json:"name"`
	Company string `gorm:"type:varchar(255);not null;index" json:"company"`
	Unit    Unit   `gorm:"type:varchar(10);not null" json:"unit"`
	WeightParams
	Quantity    decimal.Decimal `gorm:"type:numeric(14,3);not null;default:0" json:"quantity"`
	TotalWeight decimal.Decimal `gorm:"type:numeric(14,3);not null;default:0" json:"total_weight"`
}
