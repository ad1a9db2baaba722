package group

import (
	"errors"
	"fmt"

	"maranatha-backend/internal/audit"
	"maranatha-backend/internal/auth"
	"maranatha-backend/internal/database"
	"maranatha-backend/internal/fund"
	"maranatha-backend/internal/logging"
	"maranatha-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type GroupRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	KronaRatio  float64 `json:"krona_ratio"`
}

type GroupResponse struct {
	ID                uint    `json:"id"`
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	KronaRatio        float64 `json:"krona_ratio"`
	CurrentBalanceKes float64 `json:"current_balance_kes"`
	BeneficiaryCount  int     `json:"beneficiary_count"`
}

func toResponse(g *models.Group) GroupResponse {
	return GroupResponse{
		ID:                g.ID,
		Name:              g.Name,
		Description:       g.Description,
		KronaRatio:        g.KronaRatio,
		CurrentBalanceKes: g.CurrentBalanceKes,
		BeneficiaryCount:  g.BeneficiaryCount,
	}
}

func validate(body *GroupRequest) error {
	if body.Name == "" {
		return fiber.NewError(fiber.StatusBadRequest, "name is required")
	}
	if body.KronaRatio < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "krona_ratio cannot be negative")
	}
	return nil
}

// -------------------------------------------------
// POST /api/groups
// -------------------------------------------------
func CreateGroupHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body GroupRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate(&body); err != nil {
			return err
		}

		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		group := models.Group{
			Name:        body.Name,
			Description: body.Description,
			KronaRatio:  body.KronaRatio,
			// DisbursementPercentage stays 0; superseded by KronaRatio.
		}
		if err := database.DB.Create(&group).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, "a group with this name already exists")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			UserID:      actor.UserID,
			UserName:    actor.Email,
			EntityType:  "group",
			EntityID:    group.ID,
			Action:      models.AuditActionCreate,
			Description: fmt.Sprintf("Group created: %s (krona ratio %.2f)", group.Name, group.KronaRatio),
			After:       toResponse(&group),
		}); logErr != nil {
			logging.LogError("group", "CreateGroupHandler", "audit log", group.ID, logErr)
		}

		return c.Status(fiber.StatusCreated).JSON(toResponse(&group))
	}
}

// -------------------------------------------------
// GET /api/groups
// -------------------------------------------------
func ListGroupsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var groups []models.Group
		if err := database.DB.Order("name asc").Find(&groups).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load group data")
		}
		resp := make([]GroupResponse, 0, len(groups))
		for i := range groups {
			resp = append(resp, toResponse(&groups[i]))
		}
		return c.JSON(resp)
	}
}

// -------------------------------------------------
// GET /api/groups/:id
// -------------------------------------------------
func GetGroupHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid group id")
		}
		var group models.Group
		if err := database.DB.First(&group, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "group not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load group")
		}
		return c.JSON(toResponse(&group))
	}
}

// -------------------------------------------------
// PUT /api/groups/:id
//
// Name, description and krona ratio only. The running balance is never
// edited directly; it moves through disbursements and payment runs.
// -------------------------------------------------
func UpdateGroupHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid group id")
		}

		var body GroupRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if err := validate(&body); err != nil {
			return err
		}

		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var group models.Group
		if err := database.DB.First(&group, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "group not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load group")
		}

		before := toResponse(&group)
		group.Name = body.Name
		group.Description = body.Description
		group.KronaRatio = body.KronaRatio
		if err := database.DB.Save(&group).Error; err != nil {
			return fiber.NewError(fiber.StatusConflict, "a group with this name already exists")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			UserID:      actor.UserID,
			UserName:    actor.Email,
			EntityType:  "group",
			EntityID:    group.ID,
			Action:      models.AuditActionUpdate,
			Description: fmt.Sprintf("Group updated: %s", group.Name),
			Before:      before,
			After:       toResponse(&group),
		}); logErr != nil {
			logging.LogError("group", "UpdateGroupHandler", "audit log", group.ID, logErr)
		}

		return c.JSON(toResponse(&group))
	}
}

// -------------------------------------------------
// DELETE /api/groups/:id
//
// Rejected while beneficiaries or transaction rows still reference the
// group, so history stays intact.
// -------------------------------------------------
func DeleteGroupHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := c.ParamsInt("id")
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid group id")
		}

		actor, err := auth.ActorFromCtx(c)
		if err != nil {
			return err
		}

		var group models.Group
		if err := database.DB.First(&group, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "group not found")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load group")
		}

		var beneficiaryCount int64
		if err := database.DB.Model(&models.Beneficiary{}).Where("group_id = ?", group.ID).Count(&beneficiaryCount).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to check group references")
		}
		if beneficiaryCount > 0 {
			rie := &fund.ReferentialIntegrityError{Entity: "group", ID: group.ID, Reason: fmt.Sprintf("%d beneficiaries still belong to this group", beneficiaryCount)}
			return fiber.NewError(fiber.StatusConflict, rie.Error())
		}

		var disbursementCount int64
		if err := database.DB.Model(&models.Disbursement{}).Where("group_id = ?", group.ID).Count(&disbursementCount).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to check group references")
		}
		if disbursementCount > 0 {
			rie := &fund.ReferentialIntegrityError{Entity: "group", ID: group.ID, Reason: fmt.Sprintf("%d disbursements reference this group", disbursementCount)}
			return fiber.NewError(fiber.StatusConflict, rie.Error())
		}

		if err := database.DB.Delete(&group).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to delete group")
		}

		if logErr := audit.WriteLog(audit.LogOptions{
			UserID:      actor.UserID,
			UserName:    actor.Email,
			EntityType:  "group",
			EntityID:    group.ID,
			Action:      models.AuditActionDelete,
			Description: fmt.Sprintf("Group deleted: %s", group.Name),
			Before:      toResponse(&group),
		}); logErr != nil {
			logging.LogError("group", "DeleteGroupHandler", "audit log", group.ID, logErr)
		}

		return c.JSON(fiber.Map{"message": "group deleted"})
	}
}
