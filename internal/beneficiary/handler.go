package beneficiary

import (
	"errors"
	"fmt"
	"time"

	"maranatha-backend/internal/audit"
	"maranatha-backend/internal/auth"
	"maranatha-backend/internal/database"
	"maranatha-backend/internal/logging"
	"maranatha-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type BeneficiaryRequest struct {
	GroupID       uint   `json:"group_id"`
	SponsorNumber string `json:"sponsor_number"`
	FullName      string `json:"full_name"`
	IDNumber      string `json:"id_number"`
	DateOfBirth   string `json:"date_of_birth"` // "2010-03-25", optional
	PhoneNumber   string `json:"phone_number"`
	Gender        string `json:"gender"`
	GuardianName  string `json:"guardian_name"`
	GuardianPhone string `json:"guardian_phone"`
	GuardianID    string `json:"guardian_id"`
	Status        string `json:"status"`
}

type BeneficiaryResponse struct {
	ID            uint   `json:"id"`
	GroupID       uint   `json:"group_id"`
	GroupName     string `json:"group_name,omitempty"`
	SponsorNumber string `json:"sponsor_number"`
	FullName      string `json:"full_name"`
	IDNumber      string `json:"id_number"`
	DateOfBirth   string `json:"date_of_birth,omitempty"`
	PhoneNumber   string `json:"phone_number"`
	Gender        string `json:"gender"`
	GuardianName  string `json:"guardian_name"`
	GuardianPhone string `json:"guardian_phone"`
	GuardianID    string `json:"guardian_id"`
	Status        string `json:"status"`
}

func toResponse(b *models.Beneficiary) BeneficiaryResponse {
	resp := BeneficiaryResponse{
		ID:            b.ID,
		GroupID:       b.GroupID,
		GroupName:     b.Group.Name,
		SponsorNumber: b.SponsorNumber,
		FullName:      b.FullName,
		IDNumber:      b.IDNumber,
		PhoneNumber:   b.PhoneNumber,
		Gender:        b.Gender,
		GuardianName:  b.GuardianName,
		GuardianPhone: b.GuardianPhone,
		GuardianID:    b.GuardianID,
		Status:        string(b.Status),
	}
	if !b.DateOfBirth.IsZero() {
		resp.DateOfBirth = b.DateOfBirth.Format("2006-01-02")
	}
	return resp
}

func parseStatus(s string) (models.BeneficiaryStatus, error) {
	switch models.BeneficiaryStatus(s) {
	case models.BeneficiaryActive, models.BeneficiaryInactive, models.BeneficiaryGraduated:
		return models.BeneficiaryStatus(s), nil
	case "":
		return models.BeneficiaryActive, nil
	}
	return "", fiber.NewError(fiber.StatusBadRequest, "status must be 'active', 'inactive' or 'graduated'")
}

func parseDateOfBirth(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "date_of_birth must be 'YYYY-MM-DD'")
	}
	return d, nil
}

// -------------------------------------------------
// POST /api/beneficiaries
// -------------------------------------------------
func CreateBeneficiaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body BeneficiaryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.FullName == "" {
			return fiber.NewError(fiber.StatusBadRequest, "full_name is required")
		}
		if body.SponsorNumber == "" {
			return fiber.NewError(fiber.StatusBadRequest, "sponsor_number is required")
		}

		status, err := parseStatus(body.Status)
		if err != nil {
			return err
		}
		dob, err := parseDateOfBirth(body.DateOfBirth)
		if err != nil {
			return err
		}

		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var group models.Group
		if err := database.DB.First(&group, body.GroupID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusBadRequest, "group not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load group")
		}

		beneficiary := models.Beneficiary{
			GroupID:       group.ID,
			SponsorNumber: body.SponsorNumber,
			FullName:      body.FullName,
			IDNumber:      body.IDNumber,
			DateOfBirth:   dob,
			PhoneNumber:   body.PhoneNumber,
			Gender:        body.Gender,
			GuardianName:  body.GuardianName,
			GuardianPhone: body.GuardianPhone,
			GuardianID:    body.GuardianID,
			Status:        status,
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&beneficiary).Error; err != nil {
				return fiber.NewError(fiber.StatusConflict, "a beneficiary with this sponsor number already exists")
			}
			return tx.Model(&models.Group{}).Where("id = ?", group.ID).
				UpdateColumn("beneficiary_count", gorm.Expr("beneficiary_count + 1")).Error
		})
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to register beneficiary")
		}
		beneficiary.Group = group

		if logErr := audit.WriteLog(audit.LogOptions{
			UserID:      actor.UserID,
			UserName:    actor.Email,
			EntityType:  "beneficiary",
			EntityID:    beneficiary.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Beneficiary registered: %s (%s) in group %s", beneficiary.FullName, beneficiary.SponsorNumber, group.Name),
			After:       toResponse(&beneficiary),
		}); logErr != nil {
			logging.LogError("beneficiary", "CreateBeneficiaryHandler", "audit log", beneficiary.ID, logErr)
		}

		return c.Status(fiber.StatusCreated).JSON(toResponse(&beneficiary))
	}
}

// -------------------------------------------------
// GET /api/beneficiaries?group_id=1&status=active
// -------------------------------------------------
func ListBeneficiariesHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := database.DB.Preload("Group")

		if groupID := c.QueryInt("group_id"); groupID > 0 {
			dbq = dbq.Where("group_id = ?", groupID)
		}
		if status := c.Query("status"); status != "" {
			parsed, err := parseStatus(status)
			if err != nil {
				return err
			}
			dbq = dbq.Where("status = ?", parsed)
		}

		var beneficiaries []models.Beneficiary
		if err := dbq.Order("full_name asc").Find(&beneficiaries).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load beneficiary data")
		}

		resp := make([]BeneficiaryResponse, 0, len(beneficiaries))
		for i := range beneficiaries {
			resp = append(resp, toResponse(&beneficiaries[i]))
		}
		return c.JSON(resp)
	}
}

// -------------------------------------------------
// GET /api/beneficiaries/:id
// -------------------------------------------------
func GetBeneficiaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid beneficiary id")
		}
		var beneficiary models.Beneficiary
		if err := database.DB.Preload("Group").First(&beneficiary, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "beneficiary not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load beneficiary")
		}
		return c.JSON(toResponse(&beneficiary))
	}
}

// -------------------------------------------------
// PUT /api/beneficiaries/:id
//
// Moving a beneficiary between groups shifts the denormalized counts on
// both groups in the same transaction.
// -------------------------------------------------
func UpdateBeneficiaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid beneficiary id")
		}

		var body BeneficiaryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.FullName == "" {
			return fiber.NewError(fiber.StatusBadRequest, "full_name is required")
		}
		if body.SponsorNumber == "" {
			return fiber.NewError(fiber.StatusBadRequest, "sponsor_number is required")
		}

		status, err := parseStatus(body.Status)
		if err != nil {
			return err
		}
		dob, err := parseDateOfBirth(body.DateOfBirth)
		if err != nil {
			return err
		}

		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var beneficiary models.Beneficiary
		if err := database.DB.Preload("Group").First(&beneficiary, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "beneficiary not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load beneficiary")
		}
		before := toResponse(&beneficiary)
		previousGroupID := beneficiary.GroupID

		var newGroup models.Group
		if err := database.DB.First(&newGroup, body.GroupID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusBadRequest, "group not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load group")
		}

		beneficiary.GroupID = newGroup.ID
		beneficiary.SponsorNumber = body.SponsorNumber
		beneficiary.FullName = body.FullName
		beneficiary.IDNumber = body.IDNumber
		beneficiary.DateOfBirth = dob
		beneficiary.PhoneNumber = body.PhoneNumber
		beneficiary.Gender = body.Gender
		beneficiary.GuardianName = body.GuardianName
		beneficiary.GuardianPhone = body.GuardianPhone
		beneficiary.GuardianID = body.GuardianID
		beneficiary.Status = status

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Omit("Group").Save(&beneficiary).Error; err != nil {
				return fiber.NewError(fiber.StatusConflict, "a beneficiary with this sponsor number already exists")
			}
			if previousGroupID != newGroup.ID {
				if err := tx.Model(&models.Group{}).Where("id = ?", previousGroupID).
					UpdateColumn("beneficiary_count", gorm.Expr("beneficiary_count - 1")).Error; err != nil {
					return err
				}
				if err := tx.Model(&models.Group{}).Where("id = ?", newGroup.ID).
					UpdateColumn("beneficiary_count", gorm.Expr("beneficiary_count + 1")).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return fe
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to update beneficiary")
		}
		beneficiary.Group = newGroup

		if logErr := audit.WriteLog(audit.LogOptions{
			UserID:      actor.UserID,
			UserName:    actor.Email,
			EntityType:  "beneficiary",
			EntityID:    beneficiary.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Beneficiary updated: %s (%s)", beneficiary.FullName, beneficiary.SponsorNumber),
			Before:      before,
			After:       toResponse(&beneficiary),
		}); logErr != nil {
			logging.LogError("beneficiary", "UpdateBeneficiaryHandler", "audit log", beneficiary.ID, logErr)
		}

		return c.JSON(toResponse(&beneficiary))
	}
}

// -------------------------------------------------
// DELETE /api/beneficiaries/:id
//
// Payment rows keep their beneficiary_id, so deletion is refused once the
// beneficiary has payment history. Mark them graduated or inactive instead.
// -------------------------------------------------
func DeleteBeneficiaryHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid beneficiary id")
		}

		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var beneficiary models.Beneficiary
		if err := database.DB.Preload("Group").First(&beneficiary, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "beneficiary not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load beneficiary")
		}

		var paymentCount int64
		if err := database.DB.Model(&models.BeneficiaryPayment{}).Where("beneficiary_id = ?", beneficiary.ID).Count(&paymentCount).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to check beneficiary references")
		}
		if paymentCount > 0 {
			return fiber.NewError(fiber.StatusConflict,
				fmt.Sprintf("cannot delete beneficiary %d: %d payments reference them", beneficiary.ID, paymentCount))
		}

		err = database.DB.Transaction(func(tx *gorm.DB) error {
			if err := tx.Delete(&beneficiary).Error; err != nil {
				return err
			}
			return tx.Model(&models.Group{}).Where("id = ?", beneficiary.GroupID).
				UpdateColumn("beneficiary_count", gorm.Expr("beneficiary_count - 1")).Error
		})
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to delete beneficiary")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			UserID:      actor.UserID,
			UserName:    actor.Email,
			EntityType:  "beneficiary",
			EntityID:    beneficiary.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Beneficiary deleted: %s (%s)", beneficiary.FullName, beneficiary.SponsorNumber),
			Before:      toResponse(&beneficiary),
		}); logErr != nil {
			logging.LogError("beneficiary", "DeleteBeneficiaryHandler", "audit log", beneficiary.ID, logErr)
		}

		return c.JSON(fiber.Map{"message": "beneficiary deleted"})
	}
}

// -------------------------------------------------
// GET /api/beneficiaries/:id/payments
// -------------------------------------------------
func BeneficiaryPaymentsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid beneficiary id")
		}

		var beneficiary models.Beneficiary
		if err := database.DB.First(&beneficiary, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "beneficiary not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load beneficiary")
		}

		var payments []models.BeneficiaryPayment
		if err := database.DB.Where("beneficiary_id = ?", beneficiary.ID).
			Order("date_paid desc, id desc").Find(&payments).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load payment data")
		}

		type paymentRow struct {
			ID           uint    `json:"id"`
			PaymentRunID string  `json:"payment_run_id"`
			AmountKes    float64 `json:"amount_kes"`
			DatePaid     string  `json:"date_paid"`
			Notes        string  `json:"notes"`
		}
		resp := make([]paymentRow, 0, len(payments))
		for i := range payments {
			p := &payments[i]
			resp = append(resp, paymentRow{
				ID:           p.ID,
				PaymentRunID: p.PaymentRunID,
				AmountKes:    p.AmountKes,
				DatePaid:     p.DatePaid.Format("2006-01-02"),
				Notes:        p.Notes,
			})
		}
		return c.JSON(resp)
	}
}
