package main

import (
	"strings"

	"maranatha-backend/internal/admin"
	"maranatha-backend/internal/audit"
	"maranatha-backend/internal/auth"
	"maranatha-backend/internal/beneficiary"
	"maranatha-backend/internal/config"
	"maranatha-backend/internal/dashboard"
	"maranatha-backend/internal/database"
	"maranatha-backend/internal/disbursement"
	"maranatha-backend/internal/donation"
	"maranatha-backend/internal/donor"
	"maranatha-backend/internal/group"
	"maranatha-backend/internal/logging"
	"maranatha-backend/internal/models"
	"maranatha-backend/internal/payment"
	"maranatha-backend/internal/reports"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func main() {
	cfg := config.Load()
	database.Init(cfg)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			logging.L().WithError(err).Error("unexpected error")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "unexpected server error",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(cfg))
	api.Post("/auth/login", auth.LoginHandler(cfg))

	// Protected
	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler())

	// Admin-only routes
	adminRoutes := protected.Group("/admin")
	adminRoutes.Use(auth.RequireRole(models.RoleAdmin))

	adminRoutes.Post("/users", admin.CreateUserHandler())
	adminRoutes.Get("/users", admin.ListUsersHandler())
	adminRoutes.Post("/reset", admin.ResetDataHandler())

	// Donor registry
	protected.Post("/donors", donor.CreateDonorHandler())
	protected.Get("/donors", donor.ListDonorsHandler())
	protected.Put("/donors/:id", donor.UpdateDonorHandler())
	protected.Delete("/donors/:id", donor.DeleteDonorHandler())

	// Donations
	protected.Post("/donations", donation.CreateDonationHandler())
	protected.Get("/donations", donation.ListDonationsHandler())

	// Groups
	protected.Post("/groups", group.CreateGroupHandler())
	protected.Get("/groups", group.ListGroupsHandler())
	protected.Get("/groups/:id", group.GetGroupHandler())
	protected.Put("/groups/:id", group.UpdateGroupHandler())
	protected.Delete("/groups/:id", group.DeleteGroupHandler())

	// Beneficiaries
	protected.Post("/beneficiaries", beneficiary.CreateBeneficiaryHandler())
	protected.Get("/beneficiaries", beneficiary.ListBeneficiariesHandler())
	protected.Get("/beneficiaries/:id", beneficiary.GetBeneficiaryHandler())
	protected.Put("/beneficiaries/:id", beneficiary.UpdateBeneficiaryHandler())
	protected.Delete("/beneficiaries/:id", beneficiary.DeleteBeneficiaryHandler())
	protected.Get("/beneficiaries/:id/payments", beneficiary.BeneficiaryPaymentsHandler())

	// Disbursements
	protected.Post("/disbursements", disbursement.CreateDisbursementHandler())
	protected.Post("/disbursements/proportional", disbursement.ProportionalDisbursementHandler())
	protected.Get("/disbursements", disbursement.ListDisbursementsHandler())

	// Payment runs
	protected.Post("/payments", payment.CreatePaymentRunHandler())
	protected.Get("/payments", payment.ListPaymentsHandler())
	protected.Get("/payments/:id/voucher", payment.PaymentVoucherHandler())

	// Reports
	protected.Get("/reports/financial-summary", reports.FinancialSummaryHandler())
	protected.Get("/reports/cashbook", reports.CashbookHandler())
	protected.Get("/reports/cashbook/export", reports.CashbookExportHandler())
	protected.Get("/reports/general-ledger", reports.GeneralLedgerHandler())
	protected.Get("/reports/income-statement", reports.IncomeStatementHandler())
	protected.Get("/reports/balance-sheet", reports.BalanceSheetHandler())
	protected.Get("/reports/trial-balance", reports.TrialBalanceHandler())
	protected.Get("/reports/trial-balance/export", reports.TrialBalanceExportHandler())

	// Dashboard
	protected.Get("/dashboard/overview", dashboard.OverviewHandler())
	protected.Get("/dashboard/monthly-flow", dashboard.MonthlyFlowHandler())

	// Audit logs
	protected.Get("/audit-logs", audit.ListAuditLogsHandler())

	logging.L().WithField("port", cfg.HTTPPort).Info("server listening")
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		logging.L().Fatal(err)
	}
}
