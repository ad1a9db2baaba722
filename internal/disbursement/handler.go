package disbursement

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
	"gorm.io/gorm"
)

type ManualDisbursementRequest struct {
	GroupID   uint    `json:"group_id"`
	AmountKes float64 `json:"amount_kes"`
	Notes     string  `json:"notes"`
}

type ProportionalDisbursementRequest struct {
	TotalAmountKes float64 `json:"total_amount_kes"`
	Notes          string  `json:"notes"`
}

type DisbursementResponse struct {
	ID            uint    `json:"id"`
	GroupID       uint    `json:"group_id"`
	GroupName     string  `json:"group_name,omitempty"`
	AmountKes     float64 `json:"amount_kes"`
	Notes         string  `json:"notes"`
	DateDisbursed string  `json:"date_disbursed"`
	RecordedBy    string  `json:"recorded_by"`
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

func toResponse(d *models.Disbursement) DisbursementResponse {
	return DisbursementResponse{
		ID:            d.ID,
		GroupID:       d.GroupID,
		GroupName:     d.Group.Name,
		AmountKes:     d.AmountKes,
		Notes:         d.Notes,
		DateDisbursed: d.DateDisbursed.Format("2006-01-02"),
		RecordedBy:    d.RecordedBy,
	}
}

// fundError maps the recorder's typed errors onto HTTP statuses. Partial
// failures cannot escape the transaction wrapper below, but the mapping
// keeps them distinct in case a handler ever calls the recorder unwrapped.
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
		logging.LogError("disbursement", "fundError", "partial failure", pfe.Failed, pfe.Err)
		return fiber.NewError(fiber.StatusInternalServerError, pfe.Error())
	}
	var pe *fund.PersistenceError
	if errors.As(err, &pe) {
		return fiber.NewError(fiber.StatusInternalServerError, pe.Error())
	}
	return fiber.NewError(fiber.StatusInternalServerError, "disbursement failed")
}

// -------------------------------------------------
// POST /api/disbursements
//
// Row insert and balance credit run inside one database transaction, so a
// credit failure rolls the row back instead of leaving the books split.
// -------------------------------------------------
func CreateDisbursementHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ManualDisbursementRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var d *models.Disbursement
		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			recorder := fund.NewRecorder(fund.NewGormStore(tx))
			d, err = recorder.RecordDisbursement(fund.DisbursementInput{
				GroupID:   body.GroupID,
				AmountKes: body.AmountKes,
				Notes:     body.Notes,
			}, actor)
			return err
		})
		if txErr != nil {
			return fundError(txErr)
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			UserID:      actor.UserID,
			UserName:    actor.Email,
			EntityType:  "disbursement",
			EntityID:    d.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Disbursement recorded: %.2f KES to group %d", d.AmountKes, d.GroupID),
			After:       toResponse(d),
		}); logErr != nil {
			logging.LogError("disbursement", "CreateDisbursementHandler", "audit log", d.ID, logErr)
		}

		return c.Status(fiber.StatusCreated).JSON(toResponse(d))
	}
}

// -------------------------------------------------
// POST /api/disbursements/proportional
// -------------------------------------------------
func ProportionalDisbursementHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body ProportionalDisbursementRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}

		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var result *fund.ProportionalResult
		txErr := database.DB.Transaction(func(tx *gorm.DB) error {
			recorder := fund.NewRecorder(fund.NewGormStore(tx))
			result, err = recorder.RecordProportionalDisbursement(fund.ProportionalInput{
				TotalAmountKes: body.TotalAmountKes,
				Notes:          body.Notes,
			}, actor)
			return err
		})
		if txErr != nil {
			return fundError(txErr)
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			UserID:      actor.UserID,
			UserName:    actor.Email,
			EntityType:  "disbursement",
			EntityID:    0,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Proportional disbursement: %.2f KES split across %d groups", result.TotalDisbursed, result.GroupsPaid),
			After:       result.Shares,
		}); logErr != nil {
			logging.LogError("disbursement", "ProportionalDisbursementHandler", "audit log", nil, logErr)
		}

		type shareRow struct {
			GroupID   uint    `json:"group_id"`
			AmountKes float64 `json:"amount_kes"`
		}
		shares := make([]shareRow, 0, len(result.Shares))
		for _, s := range result.Shares {
			shares = append(shares, shareRow{GroupID: s.GroupID, AmountKes: s.AmountKes})
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"total_disbursed": result.TotalDisbursed,
			"groups_paid":     result.GroupsPaid,
			"shares":          shares,
		})
	}
}

// -------------------------------------------------
// GET /api/disbursements?group_id=1&from=...&to=...
// -------------------------------------------------
func ListDisbursementsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Preload("Group")

		if groupID := c.QueryInt("group_id"); groupID > 0 {
			dbq = dbq.Where("group_id = ?", groupID)
		}
		if fromStr := c.Query("from"); fromStr != "" {
			from, err := parseDate(fromStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "from date is invalid")
			}
			dbq = dbq.Where("date_disbursed >= ?", from)
		}
		if toStr := c.Query("to"); toStr != "" {
			to, err := parseDate(toStr)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "to date is invalid")
			}
			dbq = dbq.Where("date_disbursed <= ?", to)
		}

		var disbursements []models.Disbursement
		if err := dbq.Order("date_disbursed desc, id desc").Find(&disbursements).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load disbursement data")
		}

		resp := make([]DisbursementResponse, 0, len(disbursements))
		for i := range disbursements {
			resp = append(resp, toResponse(&disbursements[i]))
		}
		return c.JSON(resp)
	}
}
