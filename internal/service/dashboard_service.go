package service

import (
	"context"
	"time"

	"go-warehouse-ws/internal/permission"
	"go-warehouse-ws/internal/report"
	"go-warehouse-ws/internal/repository"

	"go.uber.org/zap"
)

const (
	DefaultMovementDays = 7
	maxMovementDays     = 90
	recentWindow        = 7 * 24 * time.Hour
	recentLimit         = 10
)

type DashboardService interface {
	GetDashboardStats(ctx context.Context, actor permission.Actor) (*report.DashboardStats, error)
	GetStockMovement(ctx context.Context, actor permission.Actor, days int) ([]report.Bucket, error)
	GetRecentTransactions(ctx context.Context, actor permission.Actor) ([]report.Row, error)
}

type dashboardService struct {
	products repository.ProductRepository
	txs      repository.TransactionRepository
	log      *zap.Logger
	opts     Options
}

func NewDashboardService(products repository.ProductRepository, txs repository.TransactionRepository, log *zap.Logger, opts Options) DashboardService {
	return &dashboardService{products: products, txs: txs, log: log.Named("dashboard"), opts: opts.withDefaults()}
}

func (s *dashboardService) GetDashboardStats(ctx context.Context, actor permission.Actor) (*report.DashboardStats, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	products, err := s.products.FindAll(ctx, "")
	if err != nil {
		return nil, failed(s.log, "dashboard stats", err)
	}
	stats := report.Stats(products)
	return &stats, nil
}

// GetStockMovement returns weight in and out per day for the last days
// calendar days, today included. days outside 1..90 falls back to a week.
func (s *dashboardService) GetStockMovement(ctx context.Context, actor permission.Actor, days int) ([]report.Bucket, error) {
	if days < 1 || days > maxMovementDays {
		days = DefaultMovementDays
	}

	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	now := s.opts.now()
	start, _ := report.Filter{From: now.AddDate(0, 0, -(days - 1))}.Bounds(s.opts.Location)
	txs, err := s.txs.Find(ctx, repository.TransactionQuery{From: start})
	if err != nil {
		return nil, failed(s.log, "stock movement", err)
	}
	return report.DailySeries(txs, days, now, s.opts.Location), nil
}

func (s *dashboardService) GetRecentTransactions(ctx context.Context, actor permission.Actor) ([]report.Row, error) {
	ctx, cancel := s.opts.bound(ctx)
	defer cancel()

	now := s.opts.now()
	txs, err := s.txs.Find(ctx, repository.TransactionQuery{From: now.Add(-recentWindow)})
	if err != nil {
		return nil, failed(s.log, "recent transactions", err)
	}
	products, err := s.products.FindAll(ctx, "")
	if err != nil {
		return nil, failed(s.log, "recent transactions", err)
	}
	return report.Recent(txs, report.NewLookup(products), now, recentWindow, recentLimit), nil
}
