package service

import (
	"context"
	"io"
	"time"

	"go-warehouse-ws/internal/permission"
	"go-warehouse-ws/internal/report"
	"go-warehouse-ws/internal/repository"

	"go.uber.org/zap"
)

const trendMonths = 6

// Report is everything the reports page shows for one filter.
type Report struct {
	Summary   report.Summary         `json:"summary"`
	Pallets   report.PalletSummary   `json:"pallets"`
	Products  []report.ProductRollup `json:"products"`
	Monthly   []report.Bucket        `json:"monthly"`
	Rows      []report.Row           `json:"transactions"`
	Companies []string               `json:"companies"`
}

type ReportService interface {
	GetReport(ctx context.Context, actor permission.Actor, filter report.Filter) (*Report, error)
	Export(ctx context.Context, actor permission.Actor, filter report.Filter, w io.Writer) (string, error)
}

type reportService struct {
	products repository.ProductRepository
	txs      repository.TransactionRepository
	log      *zap.Logger
	opts     Options
}

func NewReportService(products repository.ProductRepository, txs repository.TransactionRepository, log *zap.Logger, opts Options) ReportService {
	return &reportService{products: products, txs: txs, log: log.Named("report"), opts: opts.withDefaults()}
}

func (s *reportService) GetReport(ctx context.Context, actor permission.Actor, filter report.Filter) (*Report, error) {
	const op = "build report"
	if err := permission.Require(actor, permission.ViewReports); err != nil {
		return nil, failed(s.log, op, err, zap.String("actor", actor.Email))
	}

	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	set, err := loadFiltered(ctx, s.products, s.txs, filter, s.opts.Location)
	if err != nil {
		return nil, failed(s.log, op, err)
	}

	// The trend ignores the date range but keeps the product and company filters.
	now := s.opts.now()
	local := now.In(s.opts.Location)
	trend, err := loadFiltered(ctx, s.products, s.txs, report.Filter{
		From:      time.Date(local.Year(), local.Month()-(trendMonths-1), 1, 0, 0, 0, 0, s.opts.Location),
		ProductID: filter.ProductID,
		Company:   filter.Company,
	}, s.opts.Location)
	if err != nil {
		return nil, failed(s.log, op, err)
	}

	return &Report{
		Summary:   report.Summarize(set.txs),
		Pallets:   report.SummarizePallets(set.txs, set.lookup),
		Products:  report.Rollup(filter.Products(set.products), set.txs),
		Monthly:   report.MonthlySeries(trend.txs, trendMonths, now, s.opts.Location),
		Rows:      report.Rows(set.txs, set.lookup),
		Companies: report.Companies(set.products),
	}, nil
}

// Export writes the filtered rows as an xlsx workbook to w and returns the
// suggested file name.
func (s *reportService) Export(ctx context.Context, actor permission.Actor, filter report.Filter, w io.Writer) (string, error) {
	const op = "export report"
	if err := permission.Require(actor, permission.ViewReports); err != nil {
		return "", failed(s.log, op, err, zap.String("actor", actor.Email))
	}

	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	set, err := loadFiltered(ctx, s.products, s.txs, filter, s.opts.Location)
	if err != nil {
		return "", failed(s.log, op, err)
	}
	rows := report.Rows(set.txs, set.lookup)
	if err := report.WriteXLSX(w, rows, s.opts.Location); err != nil {
		return "", failed(s.log, op, err)
	}

	s.log.Info("report exported", zap.Int("rows", len(rows)), zap.String("actor", actor.Email))
	return report.FileName(s.opts.now(), s.opts.Location), nil
}
