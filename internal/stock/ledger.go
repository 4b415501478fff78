package stock

import (
	"errors"
	"time"

	"go-warehouse-ws/internal/model"

	"github.com/shopspring/decimal"
)

var (
	ErrNonPositiveQuantity = errors.New("quantity must be greater than zero")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrUnknownDirection    = errors.New("transaction type must be in or out")
	ErrUnitImmutable       = errors.New("unit cannot be changed after creation")
	ErrMissingName         = errors.New("product name is required")
	ErrMissingCompany      = errors.New("company is required")
)

const (
	NoteInitialStock = "Initial stock entry"
	NoteProductEdit  = "Product update"
	NoteStockExit    = "Stock exit"
	NoteStockEntry   = "Stock entry"
)

// Plan is the outcome of a stock mutation: the product state to write and
// the ledger entry to append with it, if any.
type Plan struct {
	Product model.Product
	Entry   *model.Transaction
}

// Edit describes a manual product edit. An empty Unit means unchanged.
type Edit struct {
	Name     string
	Company  string
	Unit     model.Unit
	Params   model.WeightParams
	Quantity decimal.Decimal
}

// Balance is the ledger's view of stock: sum(in) - sum(out).
func Balance(entries []model.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.Signed())
	}
	return total
}

func validateIdentity(name, company string) error {
	if name == "" {
		return ErrMissingName
	}
	if company == "" {
		return ErrMissingCompany
	}
	return nil
}

// PlanCreate prepares a new product and the seed entry that makes the ledger
// reproduce its initial quantity. No seed is planned for zero stock.
func PlanCreate(p model.Product, at time.Time) (Plan, error) {
	if err := validateIdentity(p.Name, p.Company); err != nil {
		return Plan{}, err
	}
	if err := ValidateParams(p.Unit, p.WeightParams); err != nil {
		return Plan{}, err
	}
	if err := ValidateQuantity(p.Unit, p.Quantity); err != nil {
		return Plan{}, err
	}

	p.WeightParams = NormalizeParams(p.Unit, p.WeightParams)
	p.TotalWeight = TotalWeight(p.Unit, p.Quantity, p.WeightParams)
	if err := ValidateAmount(p.TotalWeight); err != nil {
		return Plan{}, err
	}
	p.CreatedAt = at
	p.UpdatedAt = at

	plan := Plan{Product: p}
	if p.Quantity.IsPositive() {
		plan.Entry = &model.Transaction{
			Type:        model.TxIn,
			Quantity:    p.Quantity,
			TotalWeight: p.TotalWeight,
			Date:        at,
			Note:        NoteInitialStock,
		}
	}
	return plan, nil
}

// PlanEdit rewrites a product to an absolute quantity. A non-zero delta
// yields exactly one entry weighed with the edited parameters.
func PlanEdit(current model.Product, e Edit, at time.Time) (Plan, error) {
	if e.Unit != "" && e.Unit != current.Unit {
		return Plan{}, ErrUnitImmutable
	}
	if err := validateIdentity(e.Name, e.Company); err != nil {
		return Plan{}, err
	}
	if err := ValidateParams(current.Unit, e.Params); err != nil {
		return Plan{}, err
	}
	if err := ValidateQuantity(current.Unit, e.Quantity); err != nil {
		return Plan{}, err
	}

	next := current
	next.Name = e.Name
	next.Company = e.Company
	next.WeightParams = NormalizeParams(current.Unit, e.Params)
	next.Quantity = e.Quantity
	next.TotalWeight = TotalWeight(next.Unit, next.Quantity, next.WeightParams)
	if err := ValidateAmount(next.TotalWeight); err != nil {
		return Plan{}, err
	}
	next.UpdatedAt = at

	plan := Plan{Product: next}
	delta := e.Quantity.Sub(current.Quantity)
	if !delta.IsZero() {
		dir := model.TxIn
		if delta.IsNegative() {
			dir = model.TxOut
		}
		moved := delta.Abs()
		plan.Entry = &model.Transaction{
			ProductID:   current.ID,
			Type:        dir,
			Quantity:    moved,
			TotalWeight: TotalWeight(next.Unit, moved, next.WeightParams),
			Date:        at,
			Note:        NoteProductEdit,
		}
	}
	return plan, nil
}

// PlanMovement applies a signed movement. available is the stock the
// outbound check is made against; the stored quantity must also stay
// non-negative.
func PlanMovement(current model.Product, dir model.TransactionType, quantity, available decimal.Decimal, at time.Time, note string) (Plan, error) {
	if !dir.Valid() {
		return Plan{}, ErrUnknownDirection
	}
	if !quantity.IsPositive() {
		return Plan{}, ErrNonPositiveQuantity
	}
	if err := ValidateQuantity(current.Unit, quantity); err != nil {
		return Plan{}, err
	}

	next := current
	if dir == model.TxOut {
		if quantity.GreaterThan(available) {
			return Plan{}, ErrInsufficientStock
		}
		next.Quantity = current.Quantity.Sub(quantity)
		if next.Quantity.IsNegative() {
			return Plan{}, ErrInsufficientStock
		}
	} else {
		next.Quantity = current.Quantity.Add(quantity)
	}
	next.TotalWeight = TotalWeight(next.Unit, next.Quantity, next.WeightParams)
	if err := ValidateAmount(next.Quantity, next.TotalWeight); err != nil {
		return Plan{}, err
	}
	next.UpdatedAt = at

	if note == "" {
		note = NoteStockEntry
		if dir == model.TxOut {
			note = NoteStockExit
		}
	}

	return Plan{
		Product: next,
		Entry: &model.Transaction{
			ProductID:   current.ID,
			Type:        dir,
			Quantity:    quantity,
			TotalWeight: TotalWeight(current.Unit, quantity, current.WeightParams),
			Date:        at,
			Note:        note,
		},
	}, nil
}

// Drift compares a stored product with its ledger balance. Drifted means
// quantity or weight differs from what the ledger implies, whether or not
// the repair is applied.
type Drift struct {
	Stored  decimal.Decimal `json:"stored"`
	Ledger  decimal.Decimal `json:"ledger"`
	Drifted bool            `json:"drifted"`
}

// PlanRepair resets quantity and weight to the ledger balance. A negative
// balance means corrupt history and is floored at zero.
func PlanRepair(current model.Product, ledger decimal.Decimal, at time.Time) (Plan, Drift) {
	target := ledger
	if target.IsNegative() {
		target = decimal.Zero
	}
	expectedWeight := TotalWeight(current.Unit, target, current.WeightParams)
	d := Drift{Stored: current.Quantity, Ledger: ledger}
	if current.Quantity.Equal(target) && current.TotalWeight.Equal(expectedWeight) {
		return Plan{Product: current}, d
	}

	next := current
	next.Quantity = target
	next.TotalWeight = expectedWeight
	next.UpdatedAt = at
	d.Drifted = true
	return Plan{Product: next}, d
}
