package report

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Expenses"

var headers = []string{
	"ID", "Employee", "Category", "Description", "Date Incurred",
	"Amount", "Currency", "Amount (Base)", "Status", "Step", "Current Approver",
}

// Row is one exported expense line.
type Row struct {
	ID              int64
	Employee        string
	Category        string
	Description     string
	DateIncurred    time.Time
	Amount          decimal.Decimal
	Currency        string
	AmountConverted decimal.Decimal
	Status          string
	Step            string
	CurrentApprover string
}

// WriteExpenses renders rows as a single sheet workbook.
func WriteExpenses(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return fmt.Errorf("write header %s: %w", h, err)
		}
	}

	for i, r := range rows {
		line := i + 2
		values := []interface{}{
			r.ID,
			r.Employee,
			r.Category,
			r.Description,
			r.DateIncurred.Format("2006-01-02"),
			r.Amount.InexactFloat64(),
			r.Currency,
			r.AmountConverted.InexactFloat64(),
			r.Status,
			r.Step,
			r.CurrentApprover,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, line)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", line, err)
			}
		}
	}

	_ = f.SetColWidth(sheetName, "B", "C", 20)
	_ = f.SetColWidth(sheetName, "D", "D", 40)
	_ = f.SetColWidth(sheetName, "E", "E", 14)
	_ = f.SetColWidth(sheetName, "K", "K", 20)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
