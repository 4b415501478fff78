package service_test

import (
	"bytes"
	"context"
	"time"

	"go-warehouse-ws/internal/apperror"
	"go-warehouse-ws/internal/lock"
	"go-warehouse-ws/internal/model"
	"go-warehouse-ws/internal/permission"
	"go-warehouse-ws/internal/report"
	"go-warehouse-ws/internal/repository"
	"go-warehouse-ws/internal/service"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var _ = Describe("Dashboard and reports", func() {
	var (
		ctx       context.Context
		now       *clock
		inventory service.InventoryService
		dashboard service.DashboardService
		reports   service.ReportService
		boss      permission.Actor
		viewer    permission.Actor
	)

	BeforeEach(func() {
		ctx = context.Background()
		db := newDB()
		now = &clock{t: time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)}
		products := repository.NewProductRepo(db)
		txs := repository.NewTransactionRepo(db)
		opts := options(now)

		inventory = service.NewInventoryService(db, products, txs, lock.NewMemory(), &recorder{}, zap.NewNop(), opts)
		dashboard = service.NewDashboardService(products, txs, zap.NewNop(), opts)
		reports = service.NewReportService(products, txs, zap.NewNop(), opts)
		boss = admin()
		viewer = clerk(model.Permissions{CanViewReports: true})
	})

	Context("with no data", func() {
		It("returns zeros and every bucket", func() {
			stats, err := dashboard.GetDashboardStats(ctx, viewer)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.TotalProducts).To(BeZero())
			Expect(stats.TotalWeight.IsZero()).To(BeTrue())

			series, err := dashboard.GetStockMovement(ctx, viewer, 7)
			Expect(err).NotTo(HaveOccurred())
			Expect(series).To(HaveLen(7))
			Expect(series[6].Key).To(Equal("2024-05-10"))

			rep, err := reports.GetReport(ctx, viewer, report.Filter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Monthly).To(HaveLen(6))
			Expect(rep.Summary.TransactionCount).To(BeZero())
			Expect(rep.Rows).To(BeEmpty())
		})
	})

	Context("with movements", func() {
		BeforeEach(func() {
			// Two months back: a pallet product.
			now.t = time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
			pallets, err := inventory.CreateProduct(ctx, boss, &service.ProductRequest{
				Name: "Crates", Company: "South Farm", Unit: model.UnitPallet,
				PalletWeight: some("480"), BoxesPerPallet: some("40"), Quantity: some("3"),
			})
			Expect(err).NotTo(HaveOccurred())

			now.t = time.Date(2024, 5, 8, 9, 0, 0, 0, time.UTC)
			apples, err := inventory.CreateProduct(ctx, boss, &service.ProductRequest{
				Name: "Apples", Company: "North Farm", Unit: model.UnitBox,
				BoxWeight: some("12.5"), Quantity: some("10"),
			})
			Expect(err).NotTo(HaveOccurred())

			now.t = time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC)
			_, err = inventory.RecordMovement(ctx, boss, apples.Product.ID, &service.MovementRequest{Type: model.TxOut, Quantity: dec("4")})
			Expect(err).NotTo(HaveOccurred())
			_, err = inventory.RecordMovement(ctx, boss, pallets.Product.ID, &service.MovementRequest{Type: model.TxOut, Quantity: dec("1")})
			Expect(err).NotTo(HaveOccurred())

			now.t = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
		})

		It("computes dashboard stats", func() {
			stats, err := dashboard.GetDashboardStats(ctx, viewer)
			Expect(err).NotTo(HaveOccurred())
			Expect(stats.TotalProducts).To(Equal(2))
			Expect(stats.TotalCompanies).To(Equal(2))
			Expect(stats.TotalBoxes.Equal(dec("6"))).To(BeTrue())
			Expect(stats.TotalPallets.Equal(dec("2"))).To(BeTrue())
			Expect(stats.TotalWeight.Equal(dec("1035"))).To(BeTrue())
		})

		It("buckets the last seven days", func() {
			series, err := dashboard.GetStockMovement(ctx, viewer, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(series).To(HaveLen(service.DefaultMovementDays))

			byKey := map[string]report.Bucket{}
			for _, b := range series {
				byKey[b.Key] = b
			}
			Expect(byKey["2024-05-08"].In.Equal(dec("125"))).To(BeTrue())
			Expect(byKey["2024-05-10"].Out.Equal(dec("530"))).To(BeTrue())
		})

		It("lists recent transactions newest first", func() {
			rows, err := dashboard.GetRecentTransactions(ctx, viewer)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(3))
			Expect(rows[2].ProductName).To(Equal("Apples"))
			Expect(rows[2].Type).To(Equal(model.TxIn))
		})

		It("builds a filtered report", func() {
			rep, err := reports.GetReport(ctx, viewer, report.Filter{Company: "South Farm"})
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Summary.TransactionCount).To(Equal(2))
			Expect(rep.Summary.TotalIn.Equal(dec("1440"))).To(BeTrue())
			Expect(rep.Summary.TotalOut.Equal(dec("480"))).To(BeTrue())
			Expect(rep.Pallets.PalletsIn.Equal(dec("3"))).To(BeTrue())
			Expect(rep.Pallets.PalletsOut.Equal(dec("1"))).To(BeTrue())
			Expect(rep.Products).To(HaveLen(1))
			Expect(rep.Products[0].Remainder.Equal(dec("960"))).To(BeTrue())
			Expect(rep.Companies).To(ConsistOf("North Farm", "South Farm"))

			Expect(rep.Monthly).To(HaveLen(6))
			Expect(rep.Monthly[3].Key).To(Equal("2024-03"))
			Expect(rep.Monthly[3].In.Equal(dec("1440"))).To(BeTrue())
		})

		It("keeps the trend independent of the date range", func() {
			day := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
			rep, err := reports.GetReport(ctx, viewer, report.Filter{From: day, To: day})
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Summary.TransactionCount).To(Equal(2))
			Expect(rep.Monthly[3].In.Equal(dec("1440"))).To(BeTrue())
		})

		It("exports an xlsx workbook", func() {
			var buf bytes.Buffer
			name, err := reports.Export(ctx, viewer, report.Filter{}, &buf)
			Expect(err).NotTo(HaveOccurred())
			Expect(name).To(Equal("report-10-05-2024.xlsx"))

			f, err := excelize.OpenReader(&buf)
			Expect(err).NotTo(HaveOccurred())
			defer f.Close()
			rows, err := f.GetRows(report.SheetName)
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(5))
		})

		It("requires canViewReports", func() {
			_, err := reports.GetReport(ctx, clerk(model.Permissions{CanAddProducts: true}), report.Filter{})
			Expect(apperror.IsAuthorization(err)).To(BeTrue())

			var buf bytes.Buffer
			_, err = reports.Export(ctx, clerk(model.Permissions{}), report.Filter{}, &buf)
			Expect(apperror.IsAuthorization(err)).To(BeTrue())
			Expect(buf.Len()).To(BeZero())
		})
	})
})
