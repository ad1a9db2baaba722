package payment

import (
	"errors"
	"fmt"
	"time"

	"maranatha-backend/internal/audit"
	"maranatha-backend/internal/auth"
	"maranatha-backend/internal/database"
	"maranatha-backend/internal/fund"
	"maranatha-backend/internal/logging"
	"maranatha-backend/internal/models"
	"maranatha-backend/internal/voucher"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type PaymentRunRequest struct {
	GroupID        uint    `json:"group_id"`
	TotalAmountKes float64 `json:"total_amount_kes"`
	Notes          string  `json:"notes"`
}

type PaymentResponse struct {
	ID              uint    `json:"id"`
	PaymentRunID    string  `json:"payment_run_id"`
	GroupID         uint    `json:"group_id"`
	GroupName       string  `json:"group_name,omitempty"`
	BeneficiaryID   uint    `json:"beneficiary_id"`
	BeneficiaryName string  `json:"beneficiary_name,omitempty"`
	SponsorNumber   string  `json:"sponsor_number,omitempty"`
	AmountKes       float64 `json:"amount_kes"`
	Notes           string  `json:"notes"`
	DatePaid        string  `json:"date_paid"`
}

func toResponse(p *models.BeneficiaryPayment) PaymentResponse {
	return PaymentResponse{
		ID:              p.ID,
		PaymentRunID:    p.PaymentRunID,
		GroupID:         p.GroupID,
		GroupName:       p.Group.Name,
		BeneficiaryID:   p.BeneficiaryID,
		BeneficiaryName: p.Beneficiary.FullName,
		SponsorNumber:   p.Beneficiary.SponsorNumber,
		AmountKes:       p.AmountKes,
		Notes:           p.Notes,
		DatePaid:        p.DatePaid.Format("2006-01-02"),
	}
}

func fundError(err error) error {
	var ve *fund.ValidationError
	if errors.As(err, &ve) {
		return fiber.NewError(fiber.StatusBadRequest, ve.Error())
	}
	var ife *fund.InsufficientFundsError
	if errors.As(err, &ife) {
		return fiber.NewError(fiber.StatusUnprocessableEntity, ife.Error())
	}
	var pfe *fund.PartialFailureError
	if errors.As(err, &pfe) {
		logging.LogError("payment", "fundError", "partial failure", pfe.Failed, pfe.Err)
		return fiber.NewError(fiber.StatusInternalServerError, pfe.Error())
	}
	var pe *fund.PersistenceError
	if errors.As(err, &pe) {
		return fiber.NewError(fiber.StatusInternalServerError, pe.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, "payment run failed")
}

// -------------------------------------------------
// POST /api/payments
//
// One equal-split run: rows plus the single group debit run inside one
// database transaction.
// -------------------------------------------------
func CreatePaymentRunHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body PaymentRunRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var result *fund.PaymentRunResult
		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			recorder := fund.NewRecorder(fund.NewGormStore(tx))
			result, err = recorder.RecordPaymentRun(fund.PaymentRunInput{
				GroupID:        body.GroupID,
				TotalAmountKes: body.TotalAmountKes,
				Notes:          body.Notes,
			}, actor)
			return err
		})
		if txErr != nil {
			return fundError(txErr)
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			UserID:     actor.UserID,
			UserName:   actor.Email,
			EntityType: "payment_run",
			Action:     models.AuditActionCreate,
			Description: fmt.Sprintf("Payment run %s: %d beneficiaries paid %.2f KES each (group %d)",
				result.PaymentRunID, result.PaymentsCount, result.AmountPerBeneficiary, body.GroupID),
			After: fiber.Map{
				"payment_run_id":         result.PaymentRunID,
				"amount_per_beneficiary": result.AmountPerBeneficiary,
				"total_paid":             result.TotalPaid,
				"payments_count":         result.PaymentsCount,
			},
		}); logErr != nil {
			logging.LogError("payment", "CreatePaymentRunHandler", "audit log", result.PaymentRunID, logErr)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"payment_run_id":         result.PaymentRunID,
			"amount_per_beneficiary": result.AmountPerBeneficiary,
			"total_paid":             result.TotalPaid,
			"payments_count":         result.PaymentsCount,
		})
	}
}

// -------------------------------------------------
// GET /api/payments?group_id=1&run_id=...&from=...&to=...
// -------------------------------------------------
func ListPaymentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Preload("Group").Preload("Beneficiary")

		if groupID := c.QueryInt("group_id"); groupID > 0 {
			dbq = dbq.Where("group_id = ?", groupID)
		}
		if runID := c.Query("run_id"); runID != "" {
			dbq = dbq.Where("payment_run_id = ?", runID)
		}
		if fromStr := c.Query("from"); fromStr != "" {
			from, err := time.Parse("2006-01-02", fromStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "from date is invalid")
			}
			dbq = dbq.Where("date_paid >= ?", from)
		}
		if toStr := c.Query("to"); toStr != "" {
			to, err := time.Parse("2006-01-02", toStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to date is invalid")
			}
			dbq = dbq.Where("date_paid <= ?", to)
		}

		var payments []models.BeneficiaryPayment
		if err := dbq.Order("date_paid desc, id desc").Find(&payments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load payment data")
		}

		resp := make([]PaymentResponse, 0, len(payments))
		for i := range payments {
			resp = append(resp, toResponse(&payments[i]))
		}
		return c.JSON(resp)
	}
}

// -------------------------------------------------
// GET /api/payments/:id/voucher?rate=12.10
//
// Excel voucher for one payment row. The optional rate echoes the SEK
// equivalent on the voucher; it is informational only.
// -------------------------------------------------
func PaymentVoucherHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payment id")
		}

		var p models.BeneficiaryPayment
		if err := database.DB.Preload("Group").Preload("Beneficiary").First(&p, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "payment not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load payment")
		}

		rate := c.QueryFloat("rate", 0)
		if rate < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "rate cannot be negative")
		}

		data, filename, err := voucher.Generate(&p, rate)
		if err != nil {
			logging.LogError("payment", "PaymentVoucherHandler", "voucher generation", p.ID, err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to generate voucher")
		}

		c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		return c.Send(data)
	}
}
