package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go-warehouse-ws/internal/app"
	"go-warehouse-ws/internal/config"
	"go-warehouse-ws/internal/ws"
	"go-warehouse-ws/pkg/logger"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "stockctl",
	Short:         "Warehouse inventory maintenance",
	Long:          `Operator commands for the warehouse inventory: ledger reconciliation, report export and password resets.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(resetPasswordCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads config and opens the services. Commands run offline, so
// change events are dropped.
func bootstrap(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	// Warnings and errors only; results go to stdout.
	log, err := logger.New(logger.ForEnv(cfg.AppEnv, "warn"))
	if err != nil {
		return nil, err
	}
	return app.Open(ctx, cfg, ws.Discard, log)
}
