package dashboard

import (
	"sort"
	"time"

	"maranatha-backend/internal/database"
	"maranatha-backend/internal/models"
	"maranatha-backend/internal/reports"

	"github.com/gofiber/fiber/v2"
)

type MonthlyFlowPoint struct {
	Label      string  `json:"label"` // first day of month
	InflowKes  float64 `json:"inflow_kes"`
	OutflowKes float64 `json:"outflow_kes"`
	NetKes     float64 `json:"net_kes"`
}

type OverviewResponse struct {
	MainCashBalanceKes    float64                 `json:"main_cash_balance_kes"`
	TotalGroupBalanceKes  float64                 `json:"total_group_balance_kes"`
	TotalSystemBalanceKes float64                 `json:"total_system_balance_kes"`
	GroupCount            int                     `json:"group_count"`
	ActiveBeneficiaries   int64                   `json:"active_beneficiaries"`
	RecentActivity        []reports.CashbookEntry `json:"recent_activity"`
}

// -------------------------------------------------
// GET /api/dashboard/overview?recent=10
// -------------------------------------------------
func OverviewHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		recent := c.QueryInt("recent", 10)
		if recent <= 0 || recent > 100 {
			recent = 10
		}

		var donations []models.Donation
		if err := database.DB.Order("date_received asc, id asc").Find(&donations).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load donation data")
		}
		var disbursements []models.Disbursement
		if err := database.DB.Preload("Group").Order("date_disbursed asc, id asc").Find(&disbursements).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load disbursement data")
		}
		var groups []models.Group
		if err := database.DB.Find(&groups).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load group data")
		}

		var activeBeneficiaries int64
		if err := database.DB.Model(&models.Beneficiary{}).
			Where("status = ?", models.BeneficiaryActive).Count(&activeBeneficiaries).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to count beneficiaries")
		}

		var totalGroupBalance float64
		for _, g := range groups {
			totalGroupBalance += g.CurrentBalanceKes
		}
		mainCash := reports.MainCash(donations, disbursements)

		entries := reports.BuildCashbook(donations, disbursements)
		if len(entries) > recent {
			entries = entries[:recent]
		}

		return c.JSON(OverviewResponse{
			MainCashBalanceKes:    mainCash,
			TotalGroupBalanceKes:  totalGroupBalance,
			TotalSystemBalanceKes: mainCash + totalGroupBalance,
			GroupCount:            len(groups),
			ActiveBeneficiaries:   activeBeneficiaries,
			RecentActivity:        entries,
		})
	}
}

// -------------------------------------------------
// GET /api/dashboard/monthly-flow?months=12
// -------------------------------------------------
func MonthlyFlowHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		months := c.QueryInt("months", 12)
		if months <= 0 || months > 60 {
			months = 12
		}

		now := time.Now()
		end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		start := end.AddDate(0, -(months - 1), 0)
		cutoff := end.AddDate(0, 1, 0)

		type row struct {
			Bucket time.Time `gorm:"column:bucket"`
			Total  float64   `gorm:"column:total"`
		}

		var inflows []row
		if err := database.DB.Raw(`
			SELECT date_trunc('month', date_received)::date AS bucket,
				   SUM(kes_amount) AS total
			FROM donations
			WHERE date_received >= ? AND date_received < ?
			GROUP BY bucket
			ORDER BY bucket ASC;
		`, start, cutoff).Scan(&inflows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to aggregate donations")
		}

		var outflows []row
		if err := database.DB.Raw(`
			SELECT date_trunc('month', date_disbursed)::date AS bucket,
				   SUM(amount_kes) AS total
			FROM disbursements
			WHERE date_disbursed >= ? AND date_disbursed < ?
			GROUP BY bucket
			ORDER BY bucket ASC;
		`, start, cutoff).Scan(&outflows).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to aggregate disbursements")
		}

		buckets := make(map[string]*MonthlyFlowPoint)
		point := func(t time.Time) *MonthlyFlowPoint {
			label := t.Format("2006-01")
			p, ok := buckets[label]
			if !ok {
				p = &MonthlyFlowPoint{Label: label}
				buckets[label] = p
			}
			return p
		}
		for _, r := range inflows {
			point(r.Bucket).InflowKes += r.Total
		}
		for _, r := range outflows {
			point(r.Bucket).OutflowKes += r.Total
		}

		ordered := make([]MonthlyFlowPoint, 0, len(buckets))
		for _, p := range buckets {
			p.NetKes = p.InflowKes - p.OutflowKes
			ordered = append(ordered, *p)
		}
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].Label < ordered[j].Label })

		return c.JSON(fiber.Map{
			"from":   start.Format("2006-01-02"),
			"months": months,
			"points": ordered,
		})
	}
}
