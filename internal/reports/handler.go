package reports

import (
	"time"

	"maranatha-backend/internal/database"
	"maranatha-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// parseRange reads optional ?from=YYYY-MM-DD&to=YYYY-MM-DD query params.
func parseRange(c *fiber.Ctx) (DateRange, error) {
	var r DateRange
	if fromStr := c.Query("from"); fromStr != "" {
		from, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return r, fiber.NewError(fiber.StatusBadRequest, "from date is invalid, expected YYYY-MM-DD")
		}
		r.From = &from
	}
	if toStr := c.Query("to"); toStr != "" {
		to, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return r, fiber.NewError(fiber.StatusBadRequest, "to date is invalid, expected YYYY-MM-DD")
		}
		r.To = &to
	}
	return r, nil
}

// fetchAll loads the full transaction history plus current balances. Any
// read failure is fatal to the report; there is no partial rendering.
func fetchAll() ([]models.Donation, []models.Disbursement, []models.Group, error) {
	var donations []models.Donation
	if err := database.DB.Order("date_received asc, id asc").Find(&donations).Error; err != nil {
		return nil, nil, nil, fiber.NewError(fiber.StatusInternalServerError, "failed to load donation data")
	}
	var disbursements []models.Disbursement
	if err := database.DB.Preload("Group").Order("date_disbursed asc, id asc").Find(&disbursements).Error; err != nil {
		return nil, nil, nil, fiber.NewError(fiber.StatusInternalServerError, "failed to load disbursement data")
	}
	var groups []models.Group
	if err := database.DB.Order("name asc").Find(&groups).Error; err != nil {
		return nil, nil, nil, fiber.NewError(fiber.StatusInternalServerError, "failed to load group data")
	}
	return donations, disbursements, groups, nil
}

// GET /api/reports/summary?from=&to=
func FinancialSummaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := parseRange(c)
		if err != nil {
			return err
		}
		donations, disbursements, groups, err := fetchAll()
		if err != nil {
			return err
		}
		return c.JSON(BuildSummary(donations, disbursements, groups, r))
	}
}

// GET /api/reports/cashbook
func CashbookHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		donations, disbursements, _, err := fetchAll()
		if err != nil {
			return err
		}
		return c.JSON(BuildCashbook(donations, disbursements))
	}
}

// GET /api/reports/general-ledger
func GeneralLedgerHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		donations, disbursements, _, err := fetchAll()
		if err != nil {
			return err
		}
		return c.JSON(BuildLedger(donations, disbursements))
	}
}

// GET /api/reports/income-statement?from=&to=
func IncomeStatementHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := parseRange(c)
		if err != nil {
			return err
		}
		donations, disbursements, groups, err := fetchAll()
		if err != nil {
			return err
		}
		return c.JSON(BuildIncomeStatement(donations, disbursements, groups, r))
	}
}

// GET /api/reports/balance-sheet
// A balance sheet is a point-in-time snapshot; date filters are ignored by
// design.
func BalanceSheetHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		donations, disbursements, groups, err := fetchAll()
		if err != nil {
			return err
		}
		return c.JSON(BuildBalanceSheet(donations, disbursements, groups))
	}
}

// GET /api/reports/trial-balance?from=&to=
func TrialBalanceHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		r, err := parseRange(c)
		if err != nil {
			return err
		}
		donations, disbursements, groups, err := fetchAll()
		if err != nil {
			return err
		}
		return c.JSON(BuildTrialBalance(donations, disbursements, groups, r))
	}
}
