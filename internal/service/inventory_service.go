package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go-warehouse-ws/internal/apperror"
	"go-warehouse-ws/internal/lock"
	"go-warehouse-ws/internal/model"
	"go-warehouse-ws/internal/permission"
	"go-warehouse-ws/internal/report"
	"go-warehouse-ws/internal/repository"
	"go-warehouse-ws/internal/stock"
	"go-warehouse-ws/internal/ws"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type InventoryService interface {
	CreateProduct(ctx context.Context, actor permission.Actor, req *ProductRequest) (*MutationResult, error)
	UpdateProduct(ctx context.Context, actor permission.Actor, id uuid.UUID, req *ProductRequest) (*MutationResult, error)
	DeleteProduct(ctx context.Context, actor permission.Actor, id uuid.UUID) error
	RecordMovement(ctx context.Context, actor permission.Actor, productID uuid.UUID, req *MovementRequest) (*MutationResult, error)
	RecordTransaction(ctx context.Context, actor permission.Actor, req *TransactionRequest) (*MutationResult, error)
	GetProducts(ctx context.Context, actor permission.Actor, search string) ([]model.Product, error)
	GetProduct(ctx context.Context, actor permission.Actor, id uuid.UUID) (*model.Product, error)
	GetTransactions(ctx context.Context, actor permission.Actor, filter report.Filter) ([]report.Row, error)
	GetTransactionByID(ctx context.Context, actor permission.Actor, id uuid.UUID) (*report.Row, error)
	ReconcileProduct(ctx context.Context, actor permission.Actor, id uuid.UUID, dryRun bool) (*ReconcileResult, error)
	ReconcileAll(ctx context.Context, actor permission.Actor, dryRun bool) ([]ReconcileResult, error)
}

// ProductRequest is the body of product create and edit. On edit the unit
// may be omitted; sending a different one is rejected. A missing quantity
// means zero on create and the current quantity on edit.
type ProductRequest struct {
	Name           string              `json:"name" validate:"required,max=255"`
	Company        string              `json:"company" validate:"required,max=255"`
	Unit           model.Unit          `json:"unit" validate:"omitempty,oneof=kg box pallet"`
	BoxWeight      decimal.NullDecimal `json:"box_weight" validate:"omitempty,gte=0"`
	PalletWeight   decimal.NullDecimal `json:"pallet_weight" validate:"omitempty,gte=0"`
	BoxesPerPallet decimal.NullDecimal `json:"boxes_per_pallet" validate:"omitempty,gte=0"`
	Quantity       decimal.NullDecimal `json:"quantity" validate:"omitempty,gte=0"`
}

func (r *ProductRequest) params() model.WeightParams {
	return model.WeightParams{
		BoxWeight:      r.BoxWeight,
		PalletWeight:   r.PalletWeight,
		BoxesPerPallet: r.BoxesPerPallet,
	}
}

type MovementRequest struct {
	Type     model.TransactionType `json:"type" validate:"required,oneof=in out"`
	Quantity decimal.Decimal       `json:"quantity" validate:"gt=0"`
	Note     string                `json:"note" validate:"max=500"`
}

type TransactionRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"uuid_required"`
	MovementRequest
}

// MutationResult is the product after a mutation and the ledger entry
// written with it, if any.
type MutationResult struct {
	Product     *model.Product     `json:"product"`
	Transaction *model.Transaction `json:"transaction,omitempty"`
}

type ReconcileResult struct {
	ProductID uuid.UUID   `json:"product_id"`
	Name      string      `json:"name"`
	Unit      model.Unit  `json:"unit"`
	Drift     stock.Drift `json:"drift"`
	Applied   bool        `json:"applied"`
}

var stockCodes = []struct {
	err  error
	code string
}{
	{stock.ErrInsufficientStock, "INSUFFICIENT_STOCK"},
	{stock.ErrUnitImmutable, "UNIT_IMMUTABLE"},
	{stock.ErrUnknownUnit, "INVALID_UNIT"},
	{stock.ErrUnknownDirection, "INVALID_TYPE"},
	{stock.ErrNonPositiveQuantity, "INVALID_QUANTITY"},
	{stock.ErrNegativeQuantity, "INVALID_QUANTITY"},
	{stock.ErrFractionalCount, "INVALID_QUANTITY"},
	{stock.ErrPrecision, "INVALID_PRECISION"},
	{stock.ErrNegativeWeight, "INVALID_WEIGHT"},
	{stock.ErrMissingBoxWeight, "MISSING_WEIGHT_PARAMS"},
	{stock.ErrMissingPalletWeight, "MISSING_WEIGHT_PARAMS"},
	{stock.ErrMissingBoxesPerPallet, "MISSING_WEIGHT_PARAMS"},
	{stock.ErrMissingName, "MISSING_FIELD"},
	{stock.ErrMissingCompany, "MISSING_FIELD"},
}

// rejected turns a planning error into a validation error.
func rejected(err error) error {
	for _, c := range stockCodes {
		if errors.Is(err, c.err) {
			return apperror.Validationf(c.code, c.err)
		}
	}
	return apperror.Validation("INVALID_INPUT", err.Error())
}

type inventoryService struct {
	db       *gorm.DB
	products repository.ProductRepository
	txs      repository.TransactionRepository
	locker   lock.Locker
	notifier ws.Notifier
	log      *zap.Logger
	opts     Options
}

func NewInventoryService(
	db *gorm.DB,
	products repository.ProductRepository,
	txs repository.TransactionRepository,
	locker lock.Locker,
	notifier ws.Notifier,
	log *zap.Logger,
	opts Options,
) InventoryService {
	return &inventoryService{
		db:       db,
		products: products,
		txs:      txs,
		locker:   locker,
		notifier: notifier,
		log:      log.Named("inventory"),
		opts:     opts.withDefaults(),
	}
}

// atomically runs fn in one database transaction. Timestamps written inside
// follow the service clock.
func (s *inventoryService) atomically(ctx context.Context, fn func(products repository.ProductRepository, txs repository.TransactionRepository) error) error {
	return s.db.WithContext(ctx).
		Session(&gorm.Session{NowFunc: s.opts.now}).
		Transaction(func(tx *gorm.DB) error {
			return fn(s.products.WithTx(tx), s.txs.WithTx(tx))
		})
}

func (s *inventoryService) publish(t ws.EventType, actor permission.Actor, payload map[string]interface{}) {
	payload["user"] = actor.Email
	s.notifier.Publish(ws.Event{Type: t, Payload: payload, At: s.opts.now()})
}

func (s *inventoryService) CreateProduct(ctx context.Context, actor permission.Actor, req *ProductRequest) (*MutationResult, error) {
	const op = "create product"
	if err := permission.Require(actor, permission.AddOrEditProduct); err != nil {
		return nil, failed(s.log, op, err, zap.String("actor", actor.Email))
	}
	if err := validate(req); err != nil {
		return nil, failed(s.log, op, err)
	}
	if req.Unit == "" {
		return nil, failed(s.log, op, rejected(stock.ErrUnknownUnit))
	}

	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	target := strings.ToLower(strings.TrimSpace(req.Company)) + "/" + strings.ToLower(strings.TrimSpace(req.Name))
	release, err := guard(ctx, s.locker, actor, permission.AddOrEditProduct, target)
	if err != nil {
		return nil, failed(s.log, op, err)
	}
	defer release()

	plan, err := stock.PlanCreate(model.Product{
		Name:         strings.TrimSpace(req.Name),
		Company:      strings.TrimSpace(req.Company),
		Unit:         req.Unit,
		WeightParams: req.params(),
		Quantity:     req.Quantity.Decimal,
	}, s.opts.now())
	if err != nil {
		return nil, failed(s.log, op, rejected(err))
	}

	product := plan.Product
	product.CreatedBy = actor.Identifier()
	product.UpdatedBy = actor.Identifier()
	entry := plan.Entry

	err = s.atomically(ctx, func(products repository.ProductRepository, txs repository.TransactionRepository) error {
		if err := products.Create(ctx, &product); err != nil {
			return err
		}
		if entry == nil {
			return nil
		}
		entry.ProductID = product.ID
		entry.CreatedBy = actor.Identifier()
		entry.UpdatedBy = actor.Identifier()
		return txs.Create(ctx, entry)
	})
	if err != nil {
		return nil, failed(s.log, op, err)
	}

	s.log.Info("product created",
		zap.String("product_id", product.ID.String()),
		zap.String("unit", string(product.Unit)),
		zap.String("quantity", product.Quantity.String()),
		zap.String("actor", actor.Email))
	s.publish(ws.EventProductCreated, actor, map[string]interface{}{"product": product})
	if entry != nil {
		s.publish(ws.EventTransactionRecorded, actor, map[string]interface{}{"transaction": entry})
	}
	return &MutationResult{Product: &product, Transaction: entry}, nil
}

func (s *inventoryService) UpdateProduct(ctx context.Context, actor permission.Actor, id uuid.UUID, req *ProductRequest) (*MutationResult, error) {
	const op = "update product"
	if err := permission.Require(actor, permission.AddOrEditProduct); err != nil {
		return nil, failed(s.log, op, err, zap.String("actor", actor.Email))
	}
	if err := validate(req); err != nil {
		return nil, failed(s.log, op, err)
	}

	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	release, err := guard(ctx, s.locker, actor, permission.AddOrEditProduct, id.String())
	if err != nil {
		return nil, failed(s.log, op, err)
	}
	defer release()

	var result MutationResult
	err = s.atomically(ctx, func(products repository.ProductRepository, txs repository.TransactionRepository) error {
		current, err := products.FindByIDForUpdate(ctx, id)
		if err != nil {
			return lookupFailed("product", op, err)
		}

		quantity := current.Quantity
		if req.Quantity.Valid {
			quantity = req.Quantity.Decimal
		}
		plan, err := stock.PlanEdit(*current, stock.Edit{
			Name:     strings.TrimSpace(req.Name),
			Company:  strings.TrimSpace(req.Company),
			Unit:     req.Unit,
			Params:   req.params(),
			Quantity: quantity,
		}, s.opts.now())
		if err != nil {
			return rejected(err)
		}

		product := plan.Product
		product.UpdatedBy = actor.Identifier()
		if err := products.Update(ctx, &product); err != nil {
			return err
		}
		result.Product = &product

		if plan.Entry != nil {
			plan.Entry.CreatedBy = actor.Identifier()
			plan.Entry.UpdatedBy = actor.Identifier()
			if err := txs.Create(ctx, plan.Entry); err != nil {
				return err
			}
			result.Transaction = plan.Entry
		}
		return nil
	})
	if err != nil {
		return nil, failed(s.log, op, err, zap.String("product_id", id.String()))
	}

	s.publish(ws.EventProductUpdated, actor, map[string]interface{}{"product": result.Product})
	if result.Transaction != nil {
		s.publish(ws.EventTransactionRecorded, actor, map[string]interface{}{"transaction": result.Transaction})
	}
	return &result, nil
}

func (s *inventoryService) DeleteProduct(ctx context.Context, actor permission.Actor, id uuid.UUID) error {
	const op = "delete product"
	if err := permission.Require(actor, permission.DeleteProduct); err != nil {
		return failed(s.log, op, err, zap.String("actor", actor.Email))
	}

	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	err := s.atomically(ctx, func(products repository.ProductRepository, txs repository.TransactionRepository) error {
		if _, err := products.FindByIDForUpdate(ctx, id); err != nil {
			return lookupFailed("product", op, err)
		}
		linked, err := txs.CountByProduct(ctx, id)
		if err != nil {
			return err
		}
		if linked > 0 {
			return apperror.Validation("PRODUCT_HAS_TRANSACTIONS", "a product with recorded transactions cannot be deleted")
		}
		return products.Delete(ctx, id)
	})
	if err != nil {
		return failed(s.log, op, err, zap.String("product_id", id.String()))
	}

	s.log.Info("product deleted", zap.String("product_id", id.String()), zap.String("actor", actor.Email))
	s.publish(ws.EventProductDeleted, actor, map[string]interface{}{"product_id": id})
	return nil
}

// RecordMovement checks outbound quantity against the product's stored
// quantity.
func (s *inventoryService) RecordMovement(ctx context.Context, actor permission.Actor, productID uuid.UUID, req *MovementRequest) (*MutationResult, error) {
	return s.move(ctx, actor, productID, req, req, false)
}

// RecordTransaction checks outbound quantity against the product's ledger
// balance.
func (s *inventoryService) RecordTransaction(ctx context.Context, actor permission.Actor, req *TransactionRequest) (*MutationResult, error) {
	return s.move(ctx, actor, req.ProductID, &req.MovementRequest, req, true)
}

// move validates body, the request as the caller sent it, and applies req.
func (s *inventoryService) move(ctx context.Context, actor permission.Actor, productID uuid.UUID, req *MovementRequest, body interface{}, fromLedger bool) (*MutationResult, error) {
	const op = "record transaction"
	if err := permission.Require(actor, permission.RecordTransaction); err != nil {
		return nil, failed(s.log, op, err, zap.String("actor", actor.Email))
	}
	if err := validate(body); err != nil {
		return nil, failed(s.log, op, err)
	}

	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	release, err := guard(ctx, s.locker, actor, permission.RecordTransaction,
		productID.String(), string(req.Type), req.Quantity.String())
	if err != nil {
		return nil, failed(s.log, op, err)
	}
	defer release()

	var result MutationResult
	err = s.atomically(ctx, func(products repository.ProductRepository, txs repository.TransactionRepository) error {
		current, err := products.FindByIDForUpdate(ctx, productID)
		if err != nil {
			return lookupFailed("product", op, err)
		}

		available := current.Quantity
		if fromLedger {
			ledger, err := txs.FindByProduct(ctx, productID)
			if err != nil {
				return err
			}
			available = stock.Balance(ledger)
		}

		plan, err := stock.PlanMovement(*current, req.Type, req.Quantity, available, s.opts.now(), strings.TrimSpace(req.Note))
		if err != nil {
			return rejected(err)
		}

		product := plan.Product
		product.UpdatedBy = actor.Identifier()
		if err := products.Update(ctx, &product); err != nil {
			return err
		}

		entry := plan.Entry
		entry.CreatedBy = actor.Identifier()
		entry.UpdatedBy = actor.Identifier()
		if err := txs.Create(ctx, entry); err != nil {
			return err
		}

		result = MutationResult{Product: &product, Transaction: entry}
		return nil
	})
	if err != nil {
		return nil, failed(s.log, op, err,
			zap.String("product_id", productID.String()),
			zap.String("type", string(req.Type)),
			zap.String("quantity", req.Quantity.String()))
	}

	s.log.Info("transaction recorded",
		zap.String("product_id", productID.String()),
		zap.String("type", string(req.Type)),
		zap.String("quantity", req.Quantity.String()),
		zap.String("actor", actor.Email))
	s.publish(ws.EventTransactionRecorded, actor, map[string]interface{}{
		"transaction": result.Transaction,
		"product":     result.Product,
	})
	return &result, nil
}

func (s *inventoryService) GetProducts(ctx context.Context, actor permission.Actor, search string) ([]model.Product, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	products, err := s.products.FindAll(ctx, search)
	if err != nil {
		return nil, failed(s.log, "list products", err)
	}
	return products, nil
}

func (s *inventoryService) GetProduct(ctx context.Context, actor permission.Actor, id uuid.UUID) (*model.Product, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, failed(s.log, "get product", lookupFailed("product", "get product", err))
	}
	return product, nil
}

func (s *inventoryService) GetTransactions(ctx context.Context, actor permission.Actor, filter report.Filter) ([]report.Row, error) {
	const op = "list transactions"
	if err := permission.Require(actor, permission.ViewReports); err != nil {
		return nil, failed(s.log, op, err, zap.String("actor", actor.Email))
	}

	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	set, err := loadFiltered(ctx, s.products, s.txs, filter, s.opts.Location)
	if err != nil {
		return nil, failed(s.log, op, err)
	}
	return report.Rows(set.txs, set.lookup), nil
}

func (s *inventoryService) GetTransactionByID(ctx context.Context, actor permission.Actor, id uuid.UUID) (*report.Row, error) {
	const op = "get transaction"
	if err := permission.Require(actor, permission.ViewReports); err != nil {
		return nil, failed(s.log, op, err, zap.String("actor", actor.Email))
	}

	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	t, err := s.txs.FindByID(ctx, id)
	if err != nil {
		return nil, failed(s.log, op, lookupFailed("transaction", op, err))
	}

	lookup := report.Lookup{}
	product, err := s.products.FindByID(ctx, t.ProductID)
	switch {
	case err == nil:
		lookup[product.ID] = *product
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, failed(s.log, op, err)
	}

	row := report.Rows([]model.Transaction{*t}, lookup)[0]
	return &row, nil
}

func (s *inventoryService) ReconcileProduct(ctx context.Context, actor permission.Actor, id uuid.UUID, dryRun bool) (*ReconcileResult, error) {
	const op = "reconcile product"
	if err := permission.Require(actor, permission.ReconcileStock); err != nil {
		return nil, failed(s.log, op, err, zap.String("actor", actor.Email))
	}

	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	result, err := s.reconcile(ctx, actor, id, dryRun)
	if err != nil {
		return nil, failed(s.log, op, err, zap.String("product_id", id.String()))
	}
	if result.Applied {
		s.publish(ws.EventStockReconciled, actor, map[string]interface{}{"results": []ReconcileResult{*result}})
	}
	return result, nil
}

// ReconcileAll repairs every product in its own transaction. It stops at
// the first failure and returns the results gathered so far with it.
func (s *inventoryService) ReconcileAll(ctx context.Context, actor permission.Actor, dryRun bool) ([]ReconcileResult, error) {
	const op = "reconcile stock"
	if err := permission.Require(actor, permission.ReconcileStock); err != nil {
		return nil, failed(s.log, op, err, zap.String("actor", actor.Email))
	}

	listCtx, cancel := s.opts.bound(ctx)
	products, err := s.products.FindAll(listCtx, "")
	cancel()
	if err != nil {
		return nil, failed(s.log, op, err)
	}

	results := make([]ReconcileResult, 0, len(products))
	var applied []ReconcileResult
	for _, p := range products {
		pctx, cancel := s.opts.bound(ctx)
		r, err := s.reconcile(pctx, actor, p.ID, dryRun)
		cancel()
		if err != nil {
			return results, failed(s.log, op, err, zap.String("product_id", p.ID.String()))
		}
		results = append(results, *r)
		if r.Applied {
			applied = append(applied, *r)
		}
	}

	s.log.Info("stock reconciled",
		zap.Int("products", len(results)),
		zap.Int("repaired", len(applied)),
		zap.Bool("dry_run", dryRun))
	if len(applied) > 0 {
		s.publish(ws.EventStockReconciled, actor, map[string]interface{}{"results": applied})
	}
	return results, nil
}

func (s *inventoryService) reconcile(ctx context.Context, actor permission.Actor, id uuid.UUID, dryRun bool) (*ReconcileResult, error) {
	var result ReconcileResult
	err := s.atomically(ctx, func(products repository.ProductRepository, txs repository.TransactionRepository) error {
		current, err := products.FindByIDForUpdate(ctx, id)
		if err != nil {
			return lookupFailed("product", "reconcile product", err)
		}
		ledger, err := txs.FindByProduct(ctx, id)
		if err != nil {
			return err
		}

		plan, drift := stock.PlanRepair(*current, stock.Balance(ledger), s.opts.now())
		result = ReconcileResult{ProductID: current.ID, Name: current.Name, Unit: current.Unit, Drift: drift}
		if !drift.Drifted || dryRun {
			return nil
		}

		product := plan.Product
		product.UpdatedBy = actor.Identifier()
		if err := products.Update(ctx, &product); err != nil {
			return err
		}
		result.Applied = true
		s.log.Warn("stock drift repaired",
			zap.String("product_id", id.String()),
			zap.String("stored", drift.Stored.String()),
			zap.String("ledger", drift.Ledger.String()))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// filtered is a filtered transaction set with the products it resolves
// against.
type filtered struct {
	txs      []model.Transaction
	products []model.Product
	lookup   report.Lookup
}

// loadFiltered reads the transactions matching filter and every product.
// The date and product filters run in the database; the company filter
// needs the lookup and runs here.
func loadFiltered(ctx context.Context, products repository.ProductRepository, txs repository.TransactionRepository, filter report.Filter, loc *time.Location) (*filtered, error) {
	start, end := filter.Bounds(loc)
	entries, err := txs.Find(ctx, repository.TransactionQuery{From: start, To: end, ProductID: filter.ProductID})
	if err != nil {
		return nil, err
	}
	all, err := products.FindAll(ctx, "")
	if err != nil {
		return nil, err
	}
	lookup := report.NewLookup(all)
	return &filtered{txs: report.Apply(entries, lookup, filter, loc), products: all, lookup: lookup}, nil
}
