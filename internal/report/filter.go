package report

import (
	"time"

	"go-warehouse-ws/internal/model"

	"github.com/google/uuid"
)

const DateLayout = "2006-01-02"

// Filter narrows a report. From and To are calendar days, both inclusive;
// a zero value leaves that side open. All fields compose with AND.
type Filter struct {
	From      time.Time
	To        time.Time
	ProductID uuid.UUID
	Company   string
}

// Bounds turns the day range into a half-open instant range [start, end).
func (f Filter) Bounds(loc *time.Location) (start, end time.Time) {
	if !f.From.IsZero() {
		start = startOfDay(f.From, loc)
	}
	if !f.To.IsZero() {
		end = startOfDay(f.To, loc).AddDate(0, 0, 1)
	}
	return start, end
}

func (f Filter) matchDate(t time.Time, start, end time.Time) bool {
	if !start.IsZero() && t.Before(start) {
		return false
	}
	if !end.IsZero() && !t.Before(end) {
		return false
	}
	return true
}

// Apply keeps the transactions matching every filter. With a company filter
// active, transactions whose product cannot be resolved never match.
func Apply(txs []model.Transaction, lookup Lookup, f Filter, loc *time.Location) []model.Transaction {
	start, end := f.Bounds(loc)
	out := make([]model.Transaction, 0, len(txs))
	for _, t := range txs {
		if !f.matchDate(t.Date, start, end) {
			continue
		}
		if f.ProductID != uuid.Nil && t.ProductID != f.ProductID {
			continue
		}
		if f.Company != "" {
			p, ok := lookup[t.ProductID]
			if !ok || p.Company != f.Company {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// Products narrows the product list with the same product and company filters.
func (f Filter) Products(products []model.Product) []model.Product {
	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if f.ProductID != uuid.Nil && p.ID != f.ProductID {
			continue
		}
		if f.Company != "" && p.Company != f.Company {
			continue
		}
		out = append(out, p)
	}
	return out
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// ParseDay reads a YYYY-MM-DD day in loc. An empty string is a zero time.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation(DateLayout, s, loc)
}
