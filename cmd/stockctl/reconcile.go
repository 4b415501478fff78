package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"go-warehouse-ws/internal/permission"
	"go-warehouse-ws/internal/service"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	reconcileCmd = &cobra.Command{
		RunE:  runReconcile,
		Use:   "reconcile",
		Short: "compare stored quantities with the transaction ledger and repair drift",
	}
	reconcileProduct string
	reconcileDryRun  bool
)

func init() {
	reconcileCmd.Flags().StringVarP(&reconcileProduct, "product", "p", "", "only reconcile this product ID")
	reconcileCmd.Flags().BoolVar(&reconcileDryRun, "dry-run", false, "report drift without writing")
}

func runReconcile(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var results []service.ReconcileResult
	if reconcileProduct != "" {
		id, err := uuid.Parse(reconcileProduct)
		if err != nil {
			return fmt.Errorf("invalid product ID %q", reconcileProduct)
		}
		r, err := a.Inventory.ReconcileProduct(ctx, permission.System(), id, reconcileDryRun)
		if err != nil {
			return err
		}
		results = append(results, *r)
	} else {
		results, err = a.Inventory.ReconcileAll(ctx, permission.System(), reconcileDryRun)
		if err != nil {
			return err
		}
	}

	return printReconcile(cmd.OutOrStdout(), results)
}

func printReconcile(out io.Writer, results []service.ReconcileResult) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRODUCT\tNAME\tUNIT\tSTORED\tLEDGER\tSTATUS")
	drifting := 0
	for _, r := range results {
		status := "ok"
		switch {
		case r.Applied:
			status = "repaired"
			drifting++
		case r.Drift.Drifted:
			status = "drift"
			drifting++
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ProductID, r.Name, r.Unit, r.Drift.Stored, r.Drift.Ledger, status)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "%d products checked, %d with drift\n", len(results), drifting)
	return err
}
