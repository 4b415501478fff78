package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxIn  TransactionType = "in"
	TxOut TransactionType = "out"
)

func (t TransactionType) Valid() bool {
	return t == TxIn || t == TxOut
}

// Transaction is one immutable ledger entry. TotalWeight is a snapshot taken
// with the product's weight parameters at the time it was recorded.
type Transaction struct {
	BaseModel
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Type        TransactionType `gorm:"type:varchar(10);not null" json:"type"`
	Quantity    decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"quantity"`
	TotalWeight decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"total_weight"`
	Date        time.Time       `gorm:"not null;index" json:"date"`
	Note        string          `gorm:"type:text" json:"note,omitempty"`
}

// Signed returns the quantity with the sign of its direction.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == TxOut {
		return t.Quantity.Neg()
	}
	return t.Quantity
}
