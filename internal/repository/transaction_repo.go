package repository

import (
	"context"
	"time"

	"go-warehouse-ws/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionQuery selects ledger entries. From is inclusive and To is
// exclusive; zero values leave that side open.
type TransactionQuery struct {
	From      time.Time
	To        time.Time
	ProductID uuid.UUID
	Limit     int
}

type TransactionRepository interface {
	WithTx(tx *gorm.DB) TransactionRepository
	Create(ctx context.Context, transaction *model.Transaction) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error)
	Find(ctx context.Context, q TransactionQuery) ([]model.Transaction, error)
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]model.Transaction, error)
	CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
}

type transactionRepo struct {
	db *gorm.DB
}

func NewTransactionRepo(db *gorm.DB) TransactionRepository {
	return &transactionRepo{db}
}

func (r *transactionRepo) WithTx(tx *gorm.DB) TransactionRepository {
	return &transactionRepo{tx}
}

func (r *transactionRepo) Create(ctx context.Context, transaction *model.Transaction) error {
	transaction.Date = transaction.Date.UTC()
	return r.db.WithContext(ctx).Create(transaction).Error
}

func (r *transactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Transaction, error) {
	var transaction model.Transaction
	if err := r.db.WithContext(ctx).First(&transaction, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &transaction, nil
}

// Find returns matching entries newest first. Bounds are compared in UTC,
// the zone every entry is stored in.
func (r *transactionRepo) Find(ctx context.Context, q TransactionQuery) ([]model.Transaction, error) {
	var transactions []model.Transaction
	db := r.db.WithContext(ctx).Order("date DESC").Order("created_at DESC")
	if !q.From.IsZero() {
		db = db.Where("date >= ?", q.From.UTC())
	}
	if !q.To.IsZero() {
		db = db.Where("date < ?", q.To.UTC())
	}
	if q.ProductID != uuid.Nil {
		db = db.Where("product_id = ?", q.ProductID)
	}
	if q.Limit > 0 {
		db = db.Limit(q.Limit)
	}
	err := db.Find(&transactions).Error
	return transactions, err
}

// FindByProduct returns a product's whole ledger, oldest first.
func (r *transactionRepo) FindByProduct(ctx context.Context, productID uuid.UUID) ([]model.Transaction, error) {
	var transactions []model.Transaction
	err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("date ASC").Order("created_at ASC").
		Find(&transactions).Error
	return transactions, err
}

func (r *transactionRepo) CountByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("product_id = ?", productID).
		Count(&count).Error
	return count, err
}
