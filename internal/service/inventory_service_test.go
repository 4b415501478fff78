package service_test

import (
	"context"
	"time"

	"go-warehouse-ws/internal/apperror"
	"go-warehouse-ws/internal/lock"
	"go-warehouse-ws/internal/model"
	"go-warehouse-ws/internal/permission"
	"go-warehouse-ws/internal/report"
	"go-warehouse-ws/internal/repository"
	"go-warehouse-ws/internal/service"
	"go-warehouse-ws/internal/stock"
	"go-warehouse-ws/internal/ws"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var _ = Describe("InventoryService", func() {
	var (
		ctx      context.Context
		db       *gorm.DB
		now      *clock
		locker   *lock.Memory
		events   *recorder
		svc      service.InventoryService
		products repository.ProductRepository
		txs      repository.TransactionRepository
		boss     permission.Actor
	)

	BeforeEach(func() {
		ctx = context.Background()
		db = newDB()
		now = &clock{t: time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)}
		locker = lock.NewMemory()
		events = &recorder{}
		products = repository.NewProductRepo(db)
		txs = repository.NewTransactionRepo(db)
		svc = service.NewInventoryService(db, products, txs, locker, events, zap.NewNop(), options(now))
		boss = admin()
	})

	boxRequest := func(qty string) *service.ProductRequest {
		return &service.ProductRequest{
			Name:      "Apples",
			Company:   "North Farm",
			Unit:      model.UnitBox,
			BoxWeight: some("12.5"),
			Quantity:  some(qty),
		}
	}

	ledgerOf := func(id uuid.UUID) []model.Transaction {
		entries, err := txs.FindByProduct(ctx, id)
		Expect(err).NotTo(HaveOccurred())
		return entries
	}

	reload := func(id uuid.UUID) *model.Product {
		p, err := products.FindByID(ctx, id)
		Expect(err).NotTo(HaveOccurred())
		return p
	}

	expectConsistent := func(p *model.Product) {
		Expect(p.TotalWeight.Equal(stock.TotalWeight(p.Unit, p.Quantity, p.WeightParams))).To(BeTrue(),
			"total weight %s does not match quantity %s", p.TotalWeight, p.Quantity)
		Expect(stock.Balance(ledgerOf(p.ID)).Equal(p.Quantity)).To(BeTrue(),
			"ledger balance does not match quantity %s", p.Quantity)
	}

	Describe("CreateProduct", func() {
		It("stores the product with weight and one seed entry", func() {
			res, err := svc.CreateProduct(ctx, boss, boxRequest("10"))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Product.TotalWeight.Equal(dec("125"))).To(BeTrue())
			Expect(res.Product.CreatedBy).To(Equal(boss.ID.String()))

			ledger := ledgerOf(res.Product.ID)
			Expect(ledger).To(HaveLen(1))
			Expect(ledger[0].Type).To(Equal(model.TxIn))
			Expect(ledger[0].Quantity.Equal(dec("10"))).To(BeTrue())
			Expect(ledger[0].TotalWeight.Equal(dec("125"))).To(BeTrue())
			Expect(ledger[0].Note).To(Equal(stock.NoteInitialStock))
			Expect(ledger[0].Date.Equal(now.t)).To(BeTrue())

			expectConsistent(reload(res.Product.ID))
			Expect(events.types()).To(Equal([]ws.EventType{ws.EventProductCreated, ws.EventTransactionRecorded}))
		})

		It("writes no seed entry for zero stock", func() {
			res, err := svc.CreateProduct(ctx, boss, boxRequest("0"))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Transaction).To(BeNil())
			Expect(ledgerOf(res.Product.ID)).To(BeEmpty())
		})

		It("rejects an actor without canAddProducts before any write", func() {
			actor := clerk(model.Permissions{CanManageTransactions: true, CanViewReports: true})
			_, err := svc.CreateProduct(ctx, actor, boxRequest("10"))

			Expect(apperror.IsAuthorization(err)).To(BeTrue())
			Expect(apperror.IsValidation(err)).To(BeTrue())
			Expect(countRows(db, &model.Product{})).To(BeZero())
			Expect(countRows(db, &model.Transaction{})).To(BeZero())
			Expect(events.types()).To(BeEmpty())
		})

		It("lets a clerk with canAddProducts create", func() {
			actor := clerk(model.Permissions{CanAddProducts: true})
			_, err := svc.CreateProduct(ctx, actor, boxRequest("1"))
			Expect(err).NotTo(HaveOccurred())
		})

		DescribeTable("rejects invalid input without writing",
			func(mutate func(*service.ProductRequest), code string) {
				req := boxRequest("10")
				mutate(req)
				_, err := svc.CreateProduct(ctx, boss, req)
				Expect(apperror.IsValidation(err)).To(BeTrue())
				Expect(codeOf(err)).To(Equal(code))
				Expect(countRows(db, &model.Product{})).To(BeZero())
			},
			Entry("missing name", func(r *service.ProductRequest) { r.Name = "" }, "INVALID_INPUT"),
			Entry("negative quantity", func(r *service.ProductRequest) { r.Quantity = some("-1") }, "INVALID_INPUT"),
			Entry("missing unit", func(r *service.ProductRequest) { r.Unit = "" }, "INVALID_UNIT"),
			Entry("unknown unit", func(r *service.ProductRequest) { r.Unit = "crate" }, "INVALID_INPUT"),
			Entry("missing box weight", func(r *service.ProductRequest) { r.BoxWeight = decimal.NullDecimal{} }, "MISSING_WEIGHT_PARAMS"),
			Entry("fractional boxes", func(r *service.ProductRequest) { r.Quantity = some("1.5") }, "INVALID_QUANTITY"),
			Entry("sub-gram kg quantity", func(r *service.ProductRequest) {
				r.Unit = model.UnitKg
				r.Quantity = some("0.0004")
			}, "INVALID_PRECISION"),
			Entry("box weight beyond three decimals", func(r *service.ProductRequest) {
				r.BoxWeight = some("12.3456")
				r.Quantity = some("3")
			}, "INVALID_PRECISION"),
			Entry("quantity beyond storage range", func(r *service.ProductRequest) {
				r.Unit = model.UnitKg
				r.Quantity = some("1000000000000")
			}, "INVALID_PRECISION"),
			Entry("total weight beyond storage range", func(r *service.ProductRequest) {
				r.BoxWeight = some("99999999")
				r.Quantity = some("10000")
			}, "INVALID_PRECISION"),
			Entry("pallet without boxes per pallet", func(r *service.ProductRequest) {
				r.Unit = model.UnitPallet
				r.PalletWeight = some("480")
			}, "MISSING_WEIGHT_PARAMS"),
		)

		It("clears parameters the unit does not use", func() {
			req := boxRequest("2")
			req.Unit = model.UnitKg
			req.Quantity = some("2.5")
			res, err := svc.CreateProduct(ctx, boss, req)
			Expect(err).NotTo(HaveOccurred())

			p := reload(res.Product.ID)
			Expect(p.BoxWeight.Valid).To(BeFalse())
			Expect(p.TotalWeight.Equal(dec("2.5"))).To(BeTrue())
		})
	})

	Describe("movements", func() {
		var productID uuid.UUID

		BeforeEach(func() {
			res, err := svc.CreateProduct(ctx, boss, boxRequest("10"))
			Expect(err).NotTo(HaveOccurred())
			productID = res.Product.ID
			now.Advance(time.Hour)
		})

		It("records an exit and reweighs the product", func() {
			res, err := svc.RecordMovement(ctx, boss, productID, &service.MovementRequest{Type: model.TxOut, Quantity: dec("4")})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Product.Quantity.Equal(dec("6"))).To(BeTrue())
			Expect(res.Product.TotalWeight.Equal(dec("75"))).To(BeTrue())
			Expect(res.Transaction.Type).To(Equal(model.TxOut))
			Expect(res.Transaction.Quantity.Equal(dec("4"))).To(BeTrue())
			Expect(res.Transaction.TotalWeight.Equal(dec("50"))).To(BeTrue())
			Expect(res.Transaction.Note).To(Equal(stock.NoteStockExit))

			p := reload(productID)
			Expect(p.UpdatedAt.Equal(now.t)).To(BeTrue())
			expectConsistent(p)
		})

		It("rejects an oversized exit with no side effects", func() {
			_, err := svc.RecordMovement(ctx, boss, productID, &service.MovementRequest{Type: model.TxOut, Quantity: dec("4")})
			Expect(err).NotTo(HaveOccurred())
			before := reload(productID)

			_, err = svc.RecordMovement(ctx, boss, productID, &service.MovementRequest{Type: model.TxOut, Quantity: dec("100")})
			Expect(apperror.IsValidation(err)).To(BeTrue())
			Expect(codeOf(err)).To(Equal("INSUFFICIENT_STOCK"))

			after := reload(productID)
			Expect(after.Quantity.Equal(before.Quantity)).To(BeTrue())
			Expect(after.UpdatedAt.Equal(before.UpdatedAt)).To(BeTrue())
			Expect(ledgerOf(productID)).To(HaveLen(2))
		})

		It("rejects zero and unknown directions", func() {
			_, err := svc.RecordMovement(ctx, boss, productID, &service.MovementRequest{Type: model.TxIn, Quantity: dec("0")})
			Expect(apperror.IsValidation(err)).To(BeTrue())

			_, err = svc.RecordMovement(ctx, boss, productID, &service.MovementRequest{Type: "sideways", Quantity: dec("1")})
			Expect(apperror.IsValidation(err)).To(BeTrue())
			Expect(ledgerOf(productID)).To(HaveLen(1))
		})

		It("reports an unknown product as not found", func() {
			_, err := svc.RecordMovement(ctx, boss, uuid.New(), &service.MovementRequest{Type: model.TxIn, Quantity: dec("1")})
			Expect(apperror.KindOf(err)).To(Equal(apperror.KindNotFound))
		})

		It("requires canManageTransactions", func() {
			actor := clerk(model.Permissions{CanAddProducts: true})
			_, err := svc.RecordMovement(ctx, actor, productID, &service.MovementRequest{Type: model.TxIn, Quantity: dec("1")})
			Expect(apperror.IsAuthorization(err)).To(BeTrue())

			_, err = svc.RecordTransaction(ctx, actor, &service.TransactionRequest{
				ProductID:       productID,
				MovementRequest: service.MovementRequest{Type: model.TxIn, Quantity: dec("1")},
			})
			Expect(apperror.IsAuthorization(err)).To(BeTrue())
			Expect(ledgerOf(productID)).To(HaveLen(1))
		})

		It("validates the free-form request once, product id included", func() {
			_, err := svc.RecordTransaction(ctx, boss, &service.TransactionRequest{
				MovementRequest: service.MovementRequest{Type: model.TxIn, Quantity: dec("1")},
			})
			Expect(codeOf(err)).To(Equal("INVALID_INPUT"))

			_, err = svc.RecordTransaction(ctx, boss, &service.TransactionRequest{
				ProductID:       productID,
				MovementRequest: service.MovementRequest{Type: "sideways", Quantity: dec("1")},
			})
			Expect(codeOf(err)).To(Equal("INVALID_INPUT"))
			Expect(ledgerOf(productID)).To(HaveLen(1))
		})

		It("keeps the ledger balance equal to stored quantity over a sequence", func() {
			steps := []struct {
				dir model.TransactionType
				qty string
			}{
				{model.TxIn, "5"}, {model.TxOut, "3"}, {model.TxOut, "12"}, {model.TxIn, "1"},
			}
			for _, step := range steps {
				_, err := svc.RecordTransaction(ctx, boss, &service.TransactionRequest{
					ProductID:       productID,
					MovementRequest: service.MovementRequest{Type: step.dir, Quantity: dec(step.qty)},
				})
				Expect(err).NotTo(HaveOccurred())
			}
			_, err := svc.UpdateProduct(ctx, boss, productID, &service.ProductRequest{
				Name: "Apples", Company: "North Farm", BoxWeight: some("12.5"), Quantity: some("4"),
			})
			Expect(err).NotTo(HaveOccurred())

			p := reload(productID)
			Expect(p.Quantity.Equal(dec("4"))).To(BeTrue())
			expectConsistent(p)
		})

		It("checks free-form exits against the ledger balance", func() {
			// Stored quantity drifts above the ledger.
			Expect(db.Model(&model.Product{}).Where("id = ?", productID).
				UpdateColumn("quantity", dec("100")).Error).To(Succeed())

			_, err := svc.RecordTransaction(ctx, boss, &service.TransactionRequest{
				ProductID:       productID,
				MovementRequest: service.MovementRequest{Type: model.TxOut, Quantity: dec("50")},
			})
			Expect(codeOf(err)).To(Equal("INSUFFICIENT_STOCK"))

			_, err = svc.RecordMovement(ctx, boss, productID, &service.MovementRequest{Type: model.TxOut, Quantity: dec("50")})
			Expect(err).NotTo(HaveOccurred())
		})

		It("rolls back the product update when the ledger write fails", func() {
			Expect(db.Migrator().DropTable(&model.Transaction{})).To(Succeed())

			_, err := svc.RecordMovement(ctx, boss, productID, &service.MovementRequest{Type: model.TxOut, Quantity: dec("4")})
			Expect(apperror.IsStorage(err)).To(BeTrue())
			Expect(apperror.IsValidation(err)).To(BeFalse())

			p := reload(productID)
			Expect(p.Quantity.Equal(dec("10"))).To(BeTrue())
			Expect(p.TotalWeight.Equal(dec("125"))).To(BeTrue())
		})

		It("rejects a duplicate submission while the first is in flight", func() {
			key := lock.Key("inflight", boss.Identifier(), string(permission.RecordTransaction), productID.String(), "in", "1")
			held, err := locker.Obtain(ctx, key, time.Minute)
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.RecordMovement(ctx, boss, productID, &service.MovementRequest{Type: model.TxIn, Quantity: dec("1")})
			Expect(codeOf(err)).To(Equal("DUPLICATE_SUBMISSION"))
			Expect(ledgerOf(productID)).To(HaveLen(1))

			By("letting a different movement on the same product through")
			_, err = svc.RecordMovement(ctx, boss, productID, &service.MovementRequest{Type: model.TxOut, Quantity: dec("3")})
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.RecordMovement(ctx, boss, productID, &service.MovementRequest{Type: model.TxIn, Quantity: dec("5")})
			Expect(err).NotTo(HaveOccurred())
			Expect(ledgerOf(productID)).To(HaveLen(3))

			Expect(held.Release(ctx)).To(Succeed())
			_, err = svc.RecordMovement(ctx, boss, productID, &service.MovementRequest{Type: model.TxIn, Quantity: dec("1")})
			Expect(err).NotTo(HaveOccurred())
		})

		It("surfaces an expired deadline as a storage timeout", func() {
			expired, cancel := context.WithDeadline(ctx, time.Now().Add(-time.Second))
			defer cancel()

			_, err := svc.RecordMovement(expired, boss, productID, &service.MovementRequest{Type: model.TxIn, Quantity: dec("1")})
			Expect(apperror.IsStorage(err)).To(BeTrue())
			Expect(codeOf(err)).To(Equal("STORAGE_TIMEOUT"))
		})
	})

	Describe("UpdateProduct", func() {
		var productID uuid.UUID

		edit := func(qty string) *service.ProductRequest {
			return &service.ProductRequest{Name: "Apples", Company: "North Farm", BoxWeight: some("12.5"), Quantity: some(qty)}
		}

		BeforeEach(func() {
			res, err := svc.CreateProduct(ctx, boss, boxRequest("10"))
			Expect(err).NotTo(HaveOccurred())
			productID = res.Product.ID
			now.Advance(time.Hour)
		})

		It("keeps the stored quantity when the edit omits it", func() {
			req := edit("0")
			req.Name = "Green Apples"
			req.Quantity = decimal.NullDecimal{}

			res, err := svc.UpdateProduct(ctx, boss, productID, req)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Transaction).To(BeNil())

			p := reload(productID)
			Expect(p.Name).To(Equal("Green Apples"))
			Expect(p.Quantity.Equal(dec("10"))).To(BeTrue())
			Expect(p.TotalWeight.Equal(dec("125"))).To(BeTrue())
			Expect(ledgerOf(productID)).To(HaveLen(1))
		})

		It("writes no entry for an unchanged quantity but refreshes updatedAt", func() {
			before := reload(productID)

			res, err := svc.UpdateProduct(ctx, boss, productID, edit("10"))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Transaction).To(BeNil())

			after := reload(productID)
			Expect(after.UpdatedAt.After(before.UpdatedAt)).To(BeTrue())
			Expect(ledgerOf(productID)).To(HaveLen(1))
		})

		DescribeTable("emits one entry for the delta",
			func(qty string, dir model.TransactionType, moved, weight string) {
				res, err := svc.UpdateProduct(ctx, boss, productID, edit(qty))
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Transaction).NotTo(BeNil())
				Expect(res.Transaction.Type).To(Equal(dir))
				Expect(res.Transaction.Quantity.Equal(dec(moved))).To(BeTrue())
				Expect(res.Transaction.TotalWeight.Equal(dec(weight))).To(BeTrue())
				Expect(res.Transaction.Note).To(Equal(stock.NoteProductEdit))
				expectConsistent(reload(productID))
			},
			Entry("increase", "12", model.TxIn, "2", "25"),
			Entry("decrease", "7", model.TxOut, "3", "37.5"),
			Entry("to zero", "0", model.TxOut, "10", "125"),
		)

		It("weighs the delta with edited parameters", func() {
			req := edit("12")
			req.BoxWeight = some("10")
			res, err := svc.UpdateProduct(ctx, boss, productID, req)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Product.TotalWeight.Equal(dec("120"))).To(BeTrue())
			Expect(res.Transaction.TotalWeight.Equal(dec("20"))).To(BeTrue())
		})

		It("refuses to change the unit", func() {
			req := edit("10")
			req.Unit = model.UnitKg
			_, err := svc.UpdateProduct(ctx, boss, productID, req)
			Expect(codeOf(err)).To(Equal("UNIT_IMMUTABLE"))
			Expect(reload(productID).Unit).To(Equal(model.UnitBox))
		})

		It("reports an unknown product as not found", func() {
			_, err := svc.UpdateProduct(ctx, boss, uuid.New(), edit("1"))
			Expect(apperror.KindOf(err)).To(Equal(apperror.KindNotFound))
		})
	})

	Describe("DeleteProduct", func() {
		It("deletes a product without transactions", func() {
			res, err := svc.CreateProduct(ctx, boss, boxRequest("0"))
			Expect(err).NotTo(HaveOccurred())

			Expect(svc.DeleteProduct(ctx, boss, res.Product.ID)).To(Succeed())
			_, err = svc.GetProduct(ctx, boss, res.Product.ID)
			Expect(apperror.KindOf(err)).To(Equal(apperror.KindNotFound))
			Expect(events.types()).To(ContainElement(ws.EventProductDeleted))
		})

		It("refuses once any transaction exists", func() {
			res, err := svc.CreateProduct(ctx, boss, boxRequest("10"))
			Expect(err).NotTo(HaveOccurred())
			_, err = svc.UpdateProduct(ctx, boss, res.Product.ID, &service.ProductRequest{
				Name: "Apples", Company: "North Farm", BoxWeight: some("12.5"), Quantity: some("0"),
			})
			Expect(err).NotTo(HaveOccurred())

			err = svc.DeleteProduct(ctx, boss, res.Product.ID)
			Expect(codeOf(err)).To(Equal("PRODUCT_HAS_TRANSACTIONS"))
			reload(res.Product.ID)
		})

		It("is admin only even with canDeleteProducts", func() {
			res, err := svc.CreateProduct(ctx, boss, boxRequest("0"))
			Expect(err).NotTo(HaveOccurred())

			err = svc.DeleteProduct(ctx, clerk(model.AllPermissions()), res.Product.ID)
			Expect(apperror.IsAuthorization(err)).To(BeTrue())
			reload(res.Product.ID)
		})
	})

	Describe("reconciliation", func() {
		var productID uuid.UUID

		BeforeEach(func() {
			res, err := svc.CreateProduct(ctx, boss, boxRequest("10"))
			Expect(err).NotTo(HaveOccurred())
			productID = res.Product.ID
			_, err = svc.RecordMovement(ctx, boss, productID, &service.MovementRequest{Type: model.TxOut, Quantity: dec("4")})
			Expect(err).NotTo(HaveOccurred())

			Expect(db.Model(&model.Product{}).Where("id = ?", productID).
				UpdateColumns(map[string]interface{}{"quantity": dec("9"), "total_weight": dec("1")}).Error).To(Succeed())
		})

		It("reports drift without writing on a dry run", func() {
			res, err := svc.ReconcileProduct(ctx, boss, productID, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Drift.Drifted).To(BeTrue())
			Expect(res.Applied).To(BeFalse())
			Expect(res.Drift.Stored.Equal(dec("9"))).To(BeTrue())
			Expect(res.Drift.Ledger.Equal(dec("6"))).To(BeTrue())
			Expect(reload(productID).Quantity.Equal(dec("9"))).To(BeTrue())
		})

		It("repairs quantity and weight from the ledger", func() {
			res, err := svc.ReconcileProduct(ctx, boss, productID, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Applied).To(BeTrue())

			p := reload(productID)
			Expect(p.TotalWeight.Equal(dec("75"))).To(BeTrue())
			expectConsistent(p)
			Expect(events.types()).To(ContainElement(ws.EventStockReconciled))
		})

		It("sweeps every product", func() {
			_, err := svc.CreateProduct(ctx, boss, &service.ProductRequest{
				Name: "Flour", Company: "Mill", Unit: model.UnitKg, Quantity: some("3.5"),
			})
			Expect(err).NotTo(HaveOccurred())

			results, err := svc.ReconcileAll(ctx, boss, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))

			repaired := 0
			for _, r := range results {
				if r.Applied {
					repaired++
					Expect(r.ProductID).To(Equal(productID))
				}
			}
			Expect(repaired).To(Equal(1))
		})

		It("is admin only", func() {
			_, err := svc.ReconcileAll(ctx, clerk(model.AllPermissions()), false)
			Expect(apperror.IsAuthorization(err)).To(BeTrue())
		})
	})

	Describe("reads", func() {
		var north, south *model.Product

		BeforeEach(func() {
			res, err := svc.CreateProduct(ctx, boss, boxRequest("10"))
			Expect(err).NotTo(HaveOccurred())
			north = res.Product

			now.Advance(24 * time.Hour)
			res, err = svc.CreateProduct(ctx, boss, &service.ProductRequest{
				Name: "Pears", Company: "South Farm", Unit: model.UnitKg, Quantity: some("20"),
			})
			Expect(err).NotTo(HaveOccurred())
			south = res.Product

			Expect(txs.Create(ctx, &model.Transaction{
				ProductID: uuid.New(), Type: model.TxIn, Quantity: dec("1"), TotalWeight: dec("1"), Date: now.t,
			})).To(Succeed())
		})

		It("searches products", func() {
			found, err := svc.GetProducts(ctx, clerk(model.Permissions{}), "south")
			Expect(err).NotTo(HaveOccurred())
			Expect(found).To(HaveLen(1))
			Expect(found[0].ID).To(Equal(south.ID))
		})

		It("joins transactions with products and keeps dangling ones", func() {
			rows, err := svc.GetTransactions(ctx, boss, report.Filter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(3))

			names := map[string]bool{}
			for _, r := range rows {
				names[r.ProductName] = true
			}
			Expect(names).To(HaveKey(report.UnknownProduct))
			Expect(names).To(HaveKey("Apples"))
		})

		It("filters by company and drops dangling entries", func() {
			rows, err := svc.GetTransactions(ctx, boss, report.Filter{Company: "North Farm"})
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].ProductID).To(Equal(north.ID))
		})

		It("filters by inclusive day range", func() {
			day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
			rows, err := svc.GetTransactions(ctx, boss, report.Filter{From: day, To: day})
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(1))
			Expect(rows[0].ProductID).To(Equal(north.ID))
		})

		It("requires canViewReports for transactions", func() {
			_, err := svc.GetTransactions(ctx, clerk(model.Permissions{CanManageTransactions: true}), report.Filter{})
			Expect(apperror.IsAuthorization(err)).To(BeTrue())
		})

		It("fetches a single transaction with its product", func() {
			ledger := ledgerOf(north.ID)
			row, err := svc.GetTransactionByID(ctx, boss, ledger[0].ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(row.ProductName).To(Equal("Apples"))
			Expect(row.Unit).To(Equal(model.UnitBox))

			_, err = svc.GetTransactionByID(ctx, boss, uuid.New())
			Expect(apperror.KindOf(err)).To(Equal(apperror.KindNotFound))
		})
	})
})
