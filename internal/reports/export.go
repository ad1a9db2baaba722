package reports

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/xuri/excelize/v2"
)

// Spreadsheet exports consume finished, already-computed rows; no report
// math happens here.

// GET /api/reports/cashbook/export
func CashbookExportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		donations, disbursements, _, err := fetchAll()
		if err != nil {
			return err
		}
		entries := BuildCashbook(donations, disbursements)

		f := excelize.NewFile()
		defer f.Close()
		sheet := f.GetSheetName(0)

		headers := []string{"Date", "Description", "Counterpart", "Type", "Amount (KES)"}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet, cell, h)
		}
		for i, e := range entries {
			row := i + 2
			f.SetCellValue(sheet, fmt.Sprintf("A%d", row), e.Date.Format("2006-01-02"))
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), e.Description)
			f.SetCellValue(sheet, fmt.Sprintf("C%d", row), e.Counterpart)
			f.SetCellValue(sheet, fmt.Sprintf("D%d", row), string(e.Type))
			f.SetCellValue(sheet, fmt.Sprintf("E%d", row), e.AmountKes)
		}

		buf, err := f.WriteToBuffer()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to build cashbook export")
		}

		filename := fmt.Sprintf("cashbook_%s.xlsx", time.Now().Format("2006-01-02"))
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
		return c.Send(buf.Bytes())
	}
}

// GET /api/reports/trial-balance/export?from=&to=
func TrialBalanceExportHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := parseRange(c)
		if err != nil {
			return err
		}
		donations, disbursements, groups, err := fetchAll()
		if err != nil {
			return err
		}
		tb := BuildTrialBalance(donations, disbursements, groups, r)

		f := excelize.NewFile()
		defer f.Close()
		sheet := f.GetSheetName(0)

		f.SetCellValue(sheet, "A1", "Account")
		f.SetCellValue(sheet, "B1", "Debit (KES)")
		f.SetCellValue(sheet, "C1", "Credit (KES)")
		for i, row := range tb.Rows {
			n := i + 2
			f.SetCellValue(sheet, fmt.Sprintf("A%d", n), row.Account)
			f.SetCellValue(sheet, fmt.Sprintf("B%d", n), row.Debit)
			f.SetCellValue(sheet, fmt.Sprintf("C%d", n), row.Credit)
		}
		totalRow := len(tb.Rows) + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", totalRow), "TOTAL")
		f.SetCellValue(sheet, fmt.Sprintf("B%d", totalRow), tb.TotalDebits)
		f.SetCellValue(sheet, fmt.Sprintf("C%d", totalRow), tb.TotalCredits)

		buf, err := f.WriteToBuffer()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to build trial balance export")
		}

		filename := fmt.Sprintf("trial_balance_%s.xlsx", time.Now().Format("2006-01-02"))
		c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
		return c.Send(buf.Bytes())
	}
}
