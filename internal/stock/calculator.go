package stock

import (
	"errors"

	"go-warehouse-ws/internal/model"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownUnit           = errors.New("unit must be one of kg, box, pallet")
	ErrNegativeQuantity      = errors.New("quantity cannot be negative")
	ErrFractionalCount       = errors.New("box and pallet quantities must be whole numbers")
	ErrNegativeWeight        = errors.New("weights cannot be negative")
	ErrMissingBoxWeight      = errors.New("box weight is required for box products")
	ErrMissingPalletWeight   = errors.New("pallet weight is required for pallet products")
	ErrMissingBoxesPerPallet = errors.New("boxes per pallet is required for pallet products")
	ErrPrecision             = errors.New("quantities and weights allow at most 3 decimal places and must be below 100000000000")
)

// Scale and MaxAmount mirror the numeric(14,3) columns every quantity and
// weight is stored in. MaxAmount is exclusive.
const Scale = 3

var MaxAmount = decimal.New(1, 11)

// ValidateAmount rejects values the storage columns would round or overflow.
func ValidateAmount(values ...decimal.Decimal) error {
	for _, v := range values {
		if !v.Equal(v.Truncate(Scale)) || v.Abs().GreaterThanOrEqual(MaxAmount) {
			return ErrPrecision
		}
	}
	return nil
}

// TotalWeight converts a quantity of unit into kilograms.
func TotalWeight(unit model.Unit, quantity decimal.Decimal, params model.WeightParams) decimal.Decimal {
	switch unit {
	case model.UnitBox:
		return quantity.Mul(params.BoxWeight.Decimal)
	case model.UnitPallet:
		return quantity.Mul(params.PalletWeight.Decimal)
	default:
		return quantity
	}
}

// ValidateQuantity rejects negative amounts and fractional box/pallet counts.
func ValidateQuantity(unit model.Unit, quantity decimal.Decimal) error {
	if quantity.IsNegative() {
		return ErrNegativeQuantity
	}
	if err := ValidateAmount(quantity); err != nil {
		return err
	}
	if unit != model.UnitKg && !quantity.Equal(quantity.Truncate(0)) {
		return ErrFractionalCount
	}
	return nil
}

// ValidateParams checks that the weights implied by unit are present and
// that no supplied weight is negative.
func ValidateParams(unit model.Unit, params model.WeightParams) error {
	if !unit.Valid() {
		return ErrUnknownUnit
	}
	for _, w := range []decimal.NullDecimal{params.BoxWeight, params.PalletWeight, params.BoxesPerPallet} {
		if !w.Valid {
			continue
		}
		if w.Decimal.IsNegative() {
			return ErrNegativeWeight
		}
		if err := ValidateAmount(w.Decimal); err != nil {
			return err
		}
	}
	switch unit {
	case model.UnitBox:
		if !params.BoxWeight.Valid {
			return ErrMissingBoxWeight
		}
	case model.UnitPallet:
		if !params.PalletWeight.Valid {
			return ErrMissingPalletWeight
		}
		if !params.BoxesPerPallet.Valid {
			return ErrMissingBoxesPerPallet
		}
		if !params.BoxesPerPallet.Decimal.Equal(params.BoxesPerPallet.Decimal.Truncate(0)) {
			return ErrFractionalCount
		}
	}
	return nil
}

// NormalizeParams drops the weights a unit does not use. A pallet product
// keeps its optional box weight for display.
func NormalizeParams(unit model.Unit, params model.WeightParams) model.WeightParams {
	switch unit {
	case model.UnitBox:
		return model.WeightParams{BoxWeight: params.BoxWeight}
	case model.UnitPallet:
		return params
	default:
		return model.WeightParams{}
	}
}
