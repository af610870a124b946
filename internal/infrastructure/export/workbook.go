// Package export renders ledger data into spreadsheet workbooks.
package export

import (
	"fmt"
	"io"
	"time"

	appbilling "github.com/backoffice/ledger/internal/application/billing"
	"github.com/backoffice/ledger/internal/domain/billing"
	"github.com/xuri/excelize/v2"
)

// CashFlowSheet is the name of the sheet holding the ledger entries
const CashFlowSheet = "Cash Flow"

var cashFlowHeader = []any{"Date", "Type", "Description", "Category", "Payment ID", "Amount"}

// Period labels the exported date range; zero bounds are open
type Period struct {
	From time.Time
	To   time.Time
}

func (p Period) label() string {
	format := func(t time.Time) string {
		if t.IsZero() {
			return "open"
		}
		return t.Format(billing.DateLayout)
	}
	return format(p.From) + " to " + format(p.To)
}

// WriteCashFlowWorkbook writes the entries of report, followed by the income,
// expense and balance totals, as an xlsx workbook.
func WriteCashFlowWorkbook(w io.Writer, report *appbilling.CashFlowReport, period Period) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", CashFlowSheet); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return err
	}
	boldMoney, err := f.NewStyle(&excelize.Style{NumFmt: 4, Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := f.SetCellValue(CashFlowSheet, "A1", "Period"); err != nil {
		return err
	}
	if err := f.SetCellValue(CashFlowSheet, "B1", period.label()); err != nil {
		return err
	}
	if err := f.SetSheetRow(CashFlowSheet, "A3", &cashFlowHeader); err != nil {
		return err
	}
	if err := f.SetCellStyle(CashFlowSheet, "A3", "F3", bold); err != nil {
		return err
	}

	row := 4
	for _, e := range report.Entries {
		paymentID := ""
		if e.PaymentID != nil {
			paymentID = e.PaymentID.String()
		}
		values := []any{
			e.Date.Format(billing.DateLayout),
			string(e.Type),
			e.Description,
			e.Category,
			paymentID,
			e.Amount.InexactFloat64(),
		}
		if err := f.SetSheetRow(CashFlowSheet, cell(1, row), &values); err != nil {
			return err
		}
		row++
	}
	if row > 4 {
		if err := f.SetCellStyle(CashFlowSheet, "F4", cell(6, row-1), money); err != nil {
			return err
		}
	}

	row++
	totals := []struct {
		label string
		value float64
	}{
		{"Income", report.Summary.Income.Amount().InexactFloat64()},
		{"Expense", report.Summary.Expense.Amount().InexactFloat64()},
		{"Balance", report.Summary.Balance.Amount().InexactFloat64()},
	}
	for _, t := range totals {
		if err := f.SetCellValue(CashFlowSheet, cell(5, row), t.label); err != nil {
			return err
		}
		if err := f.SetCellValue(CashFlowSheet, cell(6, row), t.value); err != nil {
			return err
		}
		if err := f.SetCellStyle(CashFlowSheet, cell(5, row), cell(6, row), boldMoney); err != nil {
			return err
		}
		row++
	}

	if err := f.SetColWidth(CashFlowSheet, "C", "C", 40); err != nil {
		return err
	}
	if err := f.SetColWidth(CashFlowSheet, "E", "E", 38); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
