package report

import (
	"go-warehouse-ws/internal/model"

	"github.com/google/uuid"
)

const (
	UnknownProduct = "Unknown product"
	UnknownCompany = "Unknown company"
)

// Lookup joins transactions to products by id. A product that cannot be
// resolved reads as the unknown placeholders instead of failing the read.
type Lookup map[uuid.UUID]model.Product

func NewLookup(products []model.Product) Lookup {
	l := make(Lookup, len(products))
	for _, p := range products {
		l[p.ID] = p
	}
	return l
}

func (l Lookup) Name(id uuid.UUID) string {
	if p, ok := l[id]; ok {
		return p.Name
	}
	return UnknownProduct
}

func (l Lookup) Company(id uuid.UUID) string {
	if p, ok := l[id]; ok {
		return p.Company
	}
	return UnknownCompany
}

// Unit falls back to kg for unresolved products, matching how quantities
// are labelled elsewhere.
func (l Lookup) Unit(id uuid.UUID) model.Unit {
	if p, ok := l[id]; ok {
		return p.Unit
	}
	return model.UnitKg
}

// Companies returns the distinct company names in first-seen order.
func Companies(products []model.Product) []string {
	seen := make(map[string]struct{}, len(products))
	var out []string
	for _, p := range products {
		if _, ok := seen[p.Company]; ok {
			continue
		}
		seen[p.Company] = struct{}{}
		out = append(out, p.Company)
	}
	return out
}
