package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/picme-app/picme/app/models"
	"github.com/picme-app/picme/app/repository"
)

const adminPageSize = 50

// HandleAdminListUsers returns one page of accounts for the admin dashboard.
func HandleAdminListUsers(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}

	users, total, err := repository.GetGlobalFactory().GetUserRepository().List((page-1)*adminPageSize, adminPageSize)
	if err != nil {
		log.Errorf("[Admin] User listing failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to load users")
	}

	return c.JSON(fiber.Map{
		"users":     users,
		"total":     total,
		"page":      page,
		"page_size": adminPageSize,
	})
}

// HandleAdminSetUserStatus activates or disables an account.
func HandleAdminSetUserStatus(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_id", "Invalid user id")
	}

	var req struct {
		Status string `json:"status" validate:"required,oneof=active disabled"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Cannot parse request body")
	}
	if err := validate.Struct(&req); err != nil {
		return jsonValidationError(c, err)
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	user, err := userRepo.GetByID(uint(id))
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "user_not_found", "User not found")
	}
	if user.Role == models.ROLE_ADMIN {
		return jsonError(c, fiber.StatusForbidden, "cannot_modify_admin", "Admin accounts cannot be modified here")
	}

	user.Status = req.Status
	if err := userRepo.Update(user); err != nil {
		log.Errorf("[Admin] Status update failed for user %d: %v", user.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to update user")
	}

	return c.JSON(fiber.Map{
		"user": user,
	})
}
