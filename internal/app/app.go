// Package app wires configuration, storage and services into one graph
// shared by the API server and the stockctl commands.
package app

import (
	"context"
	"fmt"

	"go-warehouse-ws/internal/config"
	"go-warehouse-ws/internal/handler"
	"go-warehouse-ws/internal/lock"
	"go-warehouse-ws/internal/repository"
	"go-warehouse-ws/internal/service"
	"go-warehouse-ws/internal/ws"
	"go-warehouse-ws/pkg/database"
	"go-warehouse-ws/pkg/jwt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config *config.Config
	Log    *zap.Logger
	DB     *gorm.DB

	Auth      service.AuthService
	Users     service.UserService
	Inventory service.InventoryService
	Dashboard service.DashboardService
	Reports   service.ReportService

	redis *redis.Client
}

// Open connects to Postgres (and Redis when REDIS_ADDR is set), migrates
// the schema and builds the services.
func Open(ctx context.Context, cfg *config.Config, notifier ws.Notifier, log *zap.Logger) (*App, error) {
	db, err := database.ConnectDB(database.Config{
		DSN:             cfg.DSN(),
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnLifetime,
		SlowThreshold:   cfg.DBSlowThreshold,
		LogLevel:        database.LogLevelFor(cfg.LogLevel),
	})
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	var locker lock.Locker = lock.NewMemory()
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb, err = lock.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		locker = lock.NewRedis(rdb)
		log.Info("in-flight guard backed by redis", zap.String("addr", cfg.RedisAddr))
	}

	a := New(cfg, db, locker, notifier, log)
	a.redis = rdb
	return a, nil
}

// New builds the services on an already open database.
func New(cfg *config.Config, db *gorm.DB, locker lock.Locker, notifier ws.Notifier, log *zap.Logger) *App {
	opts := service.Options{
		Timeout:    cfg.RequestTimeout,
		Location:   cfg.Location(),
		AdminEmail: cfg.AdminEmail,
	}

	productRepo := repository.NewProductRepo(db)
	txRepo := repository.NewTransactionRepo(db)
	userRepo := repository.NewUserRepo(db)
	tokens := jwt.NewManager(cfg.JWTSecret, cfg.JWTTTL)

	return &App{
		Config:    cfg,
		Log:       log,
		DB:        db,
		Auth:      service.NewAuthService(userRepo, tokens, notifier, log, opts, cfg.SessionIdleTimeout),
		Users:     service.NewUserService(userRepo, log, opts),
		Inventory: service.NewInventoryService(db, productRepo, txRepo, locker, notifier, log, opts),
		Dashboard: service.NewDashboardService(productRepo, txRepo, log, opts),
		Reports:   service.NewReportService(productRepo, txRepo, log, opts),
	}
}

func (a *App) Handlers() handler.Handlers {
	loc := a.Config.Location()
	return handler.Handlers{
		Auth:      handler.NewAuthHandler(a.Auth),
		Inventory: handler.NewInventoryHandler(a.Inventory, loc),
		Dashboard: handler.NewDashboardHandler(a.Dashboard),
		Report:    handler.NewReportHandler(a.Reports, loc),
		User:      handler.NewUserHandler(a.Users),
	}
}

// Close releases the database pool and the redis client.
func (a *App) Close() error {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.Log.Warn("close redis", zap.Error(err))
		}
	}
	sqlDB, err := a.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
