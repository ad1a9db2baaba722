package donor

import (
	"errors"
	"fmt"

	"maranatha-backend/internal/audit"
	"maranatha-backend/internal/auth"
	"maranatha-backend/internal/database"
	"maranatha-backend/internal/logging"
	"maranatha-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type DonorRequest struct {
	Name         string `json:"name"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
}

type DonorResponse struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`
}

func toResponse(d *models.Donor) DonorResponse {
	return DonorResponse{
		ID:           d.ID,
		Name:         d.Name,
		ContactEmail: d.ContactEmail,
		ContactPhone: d.ContactPhone,
	}
}

// -------------------------------------------------
// POST /api/donors
// -------------------------------------------------
func CreateDonorHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body DonorRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}

		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		donor := models.Donor{
			Name:         body.Name,
			ContactEmail: body.ContactEmail,
			ContactPhone: body.ContactPhone,
		}
		if err := database.DB.Create(&donor).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, "a donor with this name already exists")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			UserID:      actor.UserID,
			UserName:    actor.Email,
			EntityType:  "donor",
			EntityID:    donor.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Donor registered: %s", donor.Name),
			After:       toResponse(&donor),
		}); logErr != nil {
			logging.LogError("donor", "CreateDonorHandler", "audit log", donor.ID, logErr)
		}

		return c.Status(fiber.StatusCreated).JSON(toResponse(&donor))
	}
}

// -------------------------------------------------
// GET /api/donors
// -------------------------------------------------
func ListDonorsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var donors []models.Donor
		if err := database.DB.Order("name asc").Find(&donors).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load donor data")
		}
		resp := make([]DonorResponse, 0, len(donors))
		for i := range donors {
			resp = append(resp, toResponse(&donors[i]))
		}
		return c.JSON(resp)
	}
}

// -------------------------------------------------
// PUT /api/donors/:id
// -------------------------------------------------
func UpdateDonorHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid donor id")
		}

		var body DonorRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name is required")
		}

		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var donor models.Donor
		if err := database.DB.First(&donor, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "donor not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load donor")
		}

		before := toResponse(&donor)
		donor.Name = body.Name
		donor.ContactEmail = body.ContactEmail
		donor.ContactPhone = body.ContactPhone
		if err := database.DB.Save(&donor).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, "a donor with this name already exists")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			UserID:      actor.UserID,
			UserName:    actor.Email,
			EntityType:  "donor",
			EntityID:    donor.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Donor updated: %s", donor.Name),
			Before:      before,
			After:       toResponse(&donor),
		}); logErr != nil {
			logging.LogError("donor", "UpdateDonorHandler", "audit log", donor.ID, logErr)
		}

		return c.JSON(toResponse(&donor))
	}
}

// -------------------------------------------------
// DELETE /api/donors/:id
// -------------------------------------------------
func DeleteDonorHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid donor id")
		}

		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var donor models.Donor
		if err := database.DB.First(&donor, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "donor not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load donor")
		}

		if err := database.DB.Delete(&donor).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to delete donor")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			UserID:      actor.UserID,
			UserName:    actor.Email,
			EntityType:  "donor",
			EntityID:    donor.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Donor deleted: %s", donor.Name),
			Before:      toResponse(&donor),
		}); logErr != nil {
			logging.LogError("donor", "DeleteDonorHandler", "audit log", donor.ID, logErr)
		}

		return c.JSON(fiber.Map{"message": "donor deleted"})
	}
}
