package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-warehouse-ws/internal/app"
	"go-warehouse-ws/internal/config"
	"go-warehouse-ws/internal/handler"
	"go-warehouse-ws/internal/middleware"
	"go-warehouse-ws/internal/ws"
	"go-warehouse-ws/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Env
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog, err := logger.New(logger.ForEnv(cfg.AppEnv, cfg.LogLevel))
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zlog.Sync()

	decimal.MarshalJSONWithoutQuotes = true

	// 2. Setup Database, locks and services
	ctx := context.Background()
	wsHub := ws.NewHub(zlog.Named("ws"))
	a, err := app.Open(ctx, cfg, wsHub, zlog)
	if err != nil {
		zlog.Fatal("bootstrap failed", zap.Error(err))
	}

	// 3. Seed the admin account
	if err := a.Users.EnsureAdmin(ctx, cfg.AdminPassword); err != nil {
		zlog.Fatal("seed admin failed", zap.Error(err))
	}

	// 4. Setup WebSocket Hub
	go wsHub.Run()

	limiter := middleware.NewRateLimiter(cfg.LoginRatePerSec, cfg.LoginBurst)
	stopCleanup := make(chan struct{})
	go limiter.Run(time.Minute, 5*time.Minute, stopCleanup)

	// 5. Setup Fiber
	server := fiber.New(fiber.Config{
		AppName:      "Warehouse Inventory v1.0",
		ErrorHandler: middleware.ErrorHandler,
	})

	server.Use(fiberlogger.New())
	server.Use(recover.New())
	server.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// 6. Routes
	a.Handlers().Register(server.Group("/api/v1"), a.Auth, limiter.Handler())

	// WebSocket Route
	handler.RegisterSocket(server, a.Auth, wsHub)

	// 7. Graceful Shutdown
	go func() {
		if err := server.Listen(":" + cfg.Port); err != nil {
			zlog.Panic("listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down server")
	if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
	}
	close(stopCleanup)
	wsHub.Stop()
	if err := a.Close(); err != nil {
		zlog.Error("close resources", zap.Error(err))
	}

	zlog.Info("server exited")
}
