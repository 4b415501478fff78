package report

import (
	"sort"
	"time"

	"go-warehouse-ws/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DashboardStats struct {
	TotalProducts  int             `json:"total_products"`
	TotalCompanies int             `json:"total_companies"`
	TotalWeight    decimal.Decimal `json:"total_weight"`
	TotalBoxes     decimal.Decimal `json:"total_boxes"`
	TotalPallets   decimal.Decimal `json:"total_pallets"`
}

func Stats(products []model.Product) DashboardStats {
	s := DashboardStats{
		TotalProducts:  len(products),
		TotalCompanies: len(Companies(products)),
		TotalWeight:    decimal.Zero,
		TotalBoxes:     decimal.Zero,
		TotalPallets:   decimal.Zero,
	}
	for _, p := range products {
		s.TotalWeight = s.TotalWeight.Add(p.TotalWeight)
		switch p.Unit {
		case model.UnitBox:
			s.TotalBoxes = s.TotalBoxes.Add(p.Quantity)
		case model.UnitPallet:
			s.TotalPallets = s.TotalPallets.Add(p.Quantity)
		}
	}
	return s
}

// Bucket is one point of a time series. Key is sortable, Label is for charts.
type Bucket struct {
	Key   string          `json:"key"`
	Label string          `json:"label"`
	In    decimal.Decimal `json:"in"`
	Out   decimal.Decimal `json:"out"`
}

// DailySeries buckets weight moved per calendar day over the days ending
// with now's day, oldest first. Every day is present.
func DailySeries(txs []model.Transaction, days int, now time.Time, loc *time.Location) []Bucket {
	today := startOfDay(now, loc)
	keys := make([]time.Time, 0, days)
	for i := days - 1; i >= 0; i-- {
		keys = append(keys, today.AddDate(0, 0, -i))
	}
	return series(txs, keys, loc, "2006-01-02", "02.01")
}

// MonthlySeries is DailySeries by calendar month.
func MonthlySeries(txs []model.Transaction, months int, now time.Time, loc *time.Location) []Bucket {
	n := now.In(loc)
	first := time.Date(n.Year(), n.Month(), 1, 0, 0, 0, 0, loc)
	keys := make([]time.Time, 0, months)
	for i := months - 1; i >= 0; i-- {
		keys = append(keys, first.AddDate(0, -i, 0))
	}
	return series(txs, keys, loc, "2006-01", "Jan 2006")
}

func series(txs []model.Transaction, keys []time.Time, loc *time.Location, keyLayout, labelLayout string) []Bucket {
	buckets := make([]Bucket, len(keys))
	index := make(map[string]int, len(keys))
	for i, k := range keys {
		key := k.Format(keyLayout)
		buckets[i] = Bucket{Key: key, Label: k.Format(labelLayout), In: decimal.Zero, Out: decimal.Zero}
		index[key] = i
	}
	for _, t := range txs {
		i, ok := index[t.Date.In(loc).Format(keyLayout)]
		if !ok {
			continue
		}
		if t.Type == model.TxOut {
			buckets[i].Out = buckets[i].Out.Add(t.TotalWeight)
		} else {
			buckets[i].In = buckets[i].In.Add(t.TotalWeight)
		}
	}
	return buckets
}

type ProductRollup struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Company   string          `json:"company"`
	Unit      model.Unit      `json:"unit"`
	In        decimal.Decimal `json:"in"`
	Out       decimal.Decimal `json:"out"`
	Remainder decimal.Decimal `json:"remainder"`
}

// Rollup sums weight in and out per product, in the order products are given.
func Rollup(products []model.Product, txs []model.Transaction) []ProductRollup {
	type sums struct{ in, out decimal.Decimal }
	totals := make(map[uuid.UUID]*sums, len(products))
	for _, t := range txs {
		s, ok := totals[t.ProductID]
		if !ok {
			s = &sums{in: decimal.Zero, out: decimal.Zero}
			totals[t.ProductID] = s
		}
		if t.Type == model.TxOut {
			s.out = s.out.Add(t.TotalWeight)
		} else {
			s.in = s.in.Add(t.TotalWeight)
		}
	}

	out := make([]ProductRollup, 0, len(products))
	for _, p := range products {
		r := ProductRollup{ProductID: p.ID, Name: p.Name, Company: p.Company, Unit: p.Unit, In: decimal.Zero, Out: decimal.Zero}
		if s, ok := totals[p.ID]; ok {
			r.In, r.Out = s.in, s.out
		}
		r.Remainder = r.In.Sub(r.Out)
		out = append(out, r)
	}
	return out
}

type Summary struct {
	TotalIn          decimal.Decimal `json:"total_in"`
	TotalOut         decimal.Decimal `json:"total_out"`
	ProductCount     int             `json:"product_count"`
	TransactionCount int             `json:"transaction_count"`
}

func Summarize(txs []model.Transaction) Summary {
	s := Summary{TotalIn: decimal.Zero, TotalOut: decimal.Zero, TransactionCount: len(txs)}
	seen := make(map[uuid.UUID]struct{})
	for _, t := range txs {
		seen[t.ProductID] = struct{}{}
		if t.Type == model.TxOut {
			s.TotalOut = s.TotalOut.Add(t.TotalWeight)
		} else {
			s.TotalIn = s.TotalIn.Add(t.TotalWeight)
		}
	}
	s.ProductCount = len(seen)
	return s
}

// PalletSummary counts pallets, not kilograms, moved for pallet products.
type PalletSummary struct {
	PalletsIn      decimal.Decimal `json:"pallets_in"`
	PalletsOut     decimal.Decimal `json:"pallets_out"`
	PalletProducts int             `json:"pallet_products"`
}

func SummarizePallets(txs []model.Transaction, lookup Lookup) PalletSummary {
	s := PalletSummary{PalletsIn: decimal.Zero, PalletsOut: decimal.Zero}
	seen := make(map[uuid.UUID]struct{})
	for _, t := range txs {
		p, ok := lookup[t.ProductID]
		if !ok || p.Unit != model.UnitPallet {
			continue
		}
		seen[t.ProductID] = struct{}{}
		if t.Type == model.TxOut {
			s.PalletsOut = s.PalletsOut.Add(t.Quantity)
		} else {
			s.PalletsIn = s.PalletsIn.Add(t.Quantity)
		}
	}
	s.PalletProducts = len(seen)
	return s
}

// Row is a transaction joined with its product for tables and exports.
type Row struct {
	ID          uuid.UUID             `json:"id"`
	Date        time.Time             `json:"date"`
	ProductID   uuid.UUID             `json:"product_id"`
	ProductName string                `json:"product_name"`
	Company     string                `json:"company"`
	Type        model.TransactionType `json:"type"`
	Quantity    decimal.Decimal       `json:"quantity"`
	Unit        model.Unit            `json:"unit"`
	TotalWeight decimal.Decimal       `json:"total_weight"`
	Note        string                `json:"note,omitempty"`
}

// Rows joins transactions with products, newest first.
func Rows(txs []model.Transaction, lookup Lookup) []Row {
	rows := make([]Row, 0, len(txs))
	for _, t := range txs {
		rows = append(rows, Row{
			ID:          t.ID,
			Date:        t.Date,
			ProductID:   t.ProductID,
			ProductName: lookup.Name(t.ProductID),
			Company:     lookup.Company(t.ProductID),
			Type:        t.Type,
			Quantity:    t.Quantity,
			Unit:        lookup.Unit(t.ProductID),
			TotalWeight: t.TotalWeight,
			Note:        t.Note,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.After(rows[j].Date) })
	return rows
}

// Recent returns at most limit rows dated within window before now.
func Recent(txs []model.Transaction, lookup Lookup, now time.Time, window time.Duration, limit int) []Row {
	since := now.Add(-window)
	var recent []model.Transaction
	for _, t := range txs {
		if !t.Date.Before(since) {
			recent = append(recent, t)
		}
	}
	rows := Rows(recent, lookup)
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}
