package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"go-warehouse-ws/internal/permission"
	"go-warehouse-ws/internal/report"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	exportCmd = &cobra.Command{
		RunE:  runExport,
		Use:   "export",
		Short: "write the filtered transaction report to an xlsx file",
	}
	exportFrom    string
	exportTo      string
	exportProduct string
	exportCompany string
	exportOut     string
)

func init() {
	exportCmd.Flags().StringVar(&exportFrom, "from", "", "first day, YYYY-MM-DD")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "last day, YYYY-MM-DD")
	exportCmd.Flags().StringVar(&exportProduct, "product", "", "product ID")
	exportCmd.Flags().StringVar(&exportCompany, "company", "", "company name")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default report-DD-MM-YYYY.xlsx)")
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	loc := a.Config.Location()
	filter := report.Filter{Company: strings.TrimSpace(exportCompany)}
	if filter.From, err = report.ParseDay(exportFrom, loc); err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	if filter.To, err = report.ParseDay(exportTo, loc); err != nil {
		return fmt.Errorf("--to: %w", err)
	}
	if exportProduct != "" {
		if filter.ProductID, err = uuid.Parse(exportProduct); err != nil {
			return fmt.Errorf("--product: %w", err)
		}
	}

	var buf bytes.Buffer
	name, err := a.Reports.Export(ctx, permission.System(), filter, &buf)
	if err != nil {
		return err
	}
	if exportOut != "" {
		name = exportOut
	}
	if err := os.WriteFile(name, buf.Bytes(), 0o644); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "report written to %s\n", name)
	return nil
}
