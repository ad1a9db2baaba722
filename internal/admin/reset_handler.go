package admin

import (
	"maranatha-backend/internal/audit"
	"maranatha-backend/internal/auth"
	"maranatha-backend/internal/database"
	"maranatha-backend/internal/logging"
	"maranatha-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ResetRequest struct {
	Confirm string `json:"confirm"` // must be exactly "RESET ALL DATA"
}

// ----------------------------------------
// POST /api/admin/reset
//
// Deletes every transaction row and zeroes all group balances. Groups,
// beneficiaries, donors and users survive. Requires an explicit
// confirmation phrase in the body.
// ----------------------------------------
func ResetDataHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ResetRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.Confirm != "RESET ALL DATA" {
			return fiber.NewError(fiber.StatusBadRequest, "confirmation phrase missing or incorrect")
		}

		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var donationCount, disbursementCount, paymentCount int64
		database.DB.Model(&models.Donation{}).Count(&donationCount)
		database.DB.Model(&models.Disbursement{}).Count(&disbursementCount)
		database.DB.Model(&models.BeneficiaryPayment{}).Count(&paymentCount)

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("1 = 1").Delete(&models.BeneficiaryPayment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("1 = 1").Delete(&models.Disbursement{}).Error; err != nil {
				return err
			}
			if err := tx.Where("1 = 1").Delete(&models.Donation{}).Error; err != nil {
				return err
			}
			return tx.Model(&models.Group{}).Where("1 = 1").
				UpdateColumn("current_balance_kes", 0).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to reset data")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			UserID:      actor.UserID,
			UserName:    actor.Email,
			EntityType:  "system",
			Action:      models.AuditActionReset,
			Description: "All transaction data reset",
			Before: fiber.Map{
				"donations":     donationCount,
				"disbursements": disbursementCount,
				"payments":      paymentCount,
			},
		}); logErr != nil {
			logging.LogError("admin", "ResetDataHandler", "audit log", nil, logErr)
		}

		return c.JSON(fiber.Map{
			"message":               "all transaction data reset",
			"donations_deleted":     donationCount,
			"disbursements_deleted": disbursementCount,
			"payments_deleted":      paymentCount,
		})
	}
}
