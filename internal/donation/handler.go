package donation

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

	"github.com/gofiber/fiber/v2"
)

type CreateDonationRequest struct {
	DonorName    string  `json:"donor_name"`
	SekAmount    float64 `json:"sek_amount"`
	ExchangeRate float64 `json:"exchange_rate"`
	DateReceived string  `json:"date_received"` // "2025-06-01", empty means today
}

type DonationResponse struct {
	ID           uint    `json:"id"`
	DonorName    string  `json:"donor_name"`
	SekAmount    float64 `json:"sek_amount"`
	ExchangeRate float64 `json:"exchange_rate"`
	KesAmount    float64 `json:"kes_amount"`
	DateReceived string  `json:"date_received"`
	RecordedAt   string  `json:"recorded_at"`
}

func toResponse(d *models.Donation) DonationResponse {
	return DonationResponse{
		ID:           d.ID,
		DonorName:    d.DonorName,
		SekAmount:    d.SekAmount,
		ExchangeRate: d.ExchangeRate,
		KesAmount:    d.KesAmount,
		DateReceived: d.DateReceived.Format("2006-01-02"),
		RecordedAt:   d.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// -------------------------------------------------
// POST /api/donations
// -------------------------------------------------
func CreateDonationHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateDonationRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var dateReceived time.Time
		if body.DateReceived != "" {
			d, err := time.Parse("2006-01-02", body.DateReceived)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "date_received must be 'YYYY-MM-DD'")
			}
			dateReceived = d
		}

		recorder := fund.NewRecorder(fund.NewGormStore(database.DB))
		d, err := recorder.RecordDonation(fund.DonationInput{
			DonorName:    body.DonorName,
			SekAmount:    body.SekAmount,
			ExchangeRate: body.ExchangeRate,
			DateReceived: dateReceived,
		}, actor)
		if err != nil {
			var ve *fund.ValidationError
			if errors.As(err, &ve) {
				return fiber.NewError(fiber.StatusBadRequest, ve.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to record donation")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			UserID:      actor.UserID,
			UserName:    actor.Email,
			EntityType:  "donation",
			EntityID:    d.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Donation recorded: %s - %.2f SEK @ %.2f = %.2f KES", d.DonorName, d.SekAmount, d.ExchangeRate, d.KesAmount),
			After:       toResponse(d),
		}); logErr != nil {
			logging.LogError("donation", "CreateDonationHandler", "audit log", d.ID, logErr)
		}

		return c.Status(fiber.StatusCreated).JSON(toResponse(d))
	}
}

// -------------------------------------------------
// GET /api/donations?from=2025-01-01&to=2025-12-31
// -------------------------------------------------
func ListDonationsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Model(&models.Donation{})

		if fromStr := c.Query("from"); fromStr != "" {
			from, err := time.Parse("2006-01-02", fromStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "from date is invalid")
			}
			dbq = dbq.Where("date_received >= ?", from)
		}
		if toStr := c.Query("to"); toStr != "" {
			to, err := time.Parse("2006-01-02", toStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to date is invalid")
			}
			dbq = dbq.Where("date_received <= ?", to)
		}

		var donations []models.Donation
		if err := dbq.Order("date_received desc, id desc").Find(&donations).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load donation data")
		}

		resp := make([]DonationResponse, 0, len(donations))
		for i := range donations {
			resp = append(resp, toResponse(&donations[i]))
		}
		return c.JSON(resp)
	}
}
