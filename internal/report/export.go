package report

import (
	"fmt"
	"io"
	"time"

	"go-warehouse-ws/internal/model"

	"github.com/xuri/excelize/v2"
)

const SheetName = "Report"

var exportHeaders = []string{"Date", "Product", "Company", "Direction", "Quantity", "Total Weight (kg)", "Note"}

func direction(t model.TransactionType) string {
	if t == model.TxOut {
		return "Out"
	}
	return "In"
}

// Workbook lays the rows out on a single sheet, one transaction per line.
func Workbook(rows []Row, loc *time.Location) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, err
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			f.Close()
			return nil, err
		}
	}

	for i, r := range rows {
		weight, _ := r.TotalWeight.Float64()
		values := []interface{}{
			r.Date.In(loc).Format("02.01.2006 15:04"),
			r.ProductName,
			r.Company,
			direction(r.Type),
			fmt.Sprintf("%s %s", r.Quantity.String(), r.Unit.Label()),
			weight,
			r.Note,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				f.Close()
				return nil, err
			}
		}
	}
	return f, nil
}

// WriteXLSX streams the workbook for rows to w.
func WriteXLSX(w io.Writer, rows []Row, loc *time.Location) error {
	f, err := Workbook(rows, loc)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Write(w)
}

// FileName follows the report-<day>.xlsx convention.
func FileName(now time.Time, loc *time.Location) string {
	return fmt.Sprintf("report-%s.xlsx", now.In(loc).Format("02-01-2006"))
}
