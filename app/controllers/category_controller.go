package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/picme-app/picme/app/models"
	"github.com/picme-app/picme/app/repository"
	"github.com/picme-app/picme/internal/pkg/entitlements"
	"github.com/picme-app/picme/internal/pkg/usercontext"
)

type categoryRequest struct {
	Name         string `json:"name" validate:"required,max=100"`
	DisplayOrder *int   `json:"display_order"`
}

// HandleListCategories returns the caller's categories.
func HandleListCategories(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	categories, err := repository.GetGlobalFactory().GetCategoryRepository().GetByUserID(userCtx.UserID)
	if err != nil {
		log.Errorf("[Category] Listing failed for user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to load categories")
	}

	return c.JSON(fiber.Map{
		"categories": categories,
	})
}

// HandleCreateCategory adds a category. Plans below pro have a zero category
// limit, so the gate rejects them outright.
func HandleCreateCategory(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Cannot parse request body")
	}
	if err := validate.Struct(&req); err != nil {
		return jsonValidationError(c, err)
	}

	if err := gate.CheckCreate(c.Context(), userCtx.UserID, entitlements.ResourceCategories); err != nil {
		if handleEntitlementError(c, err) {
			return nil
		}
		log.Errorf("[Category] Limit check failed for user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to check plan limits")
	}

	categoryRepo := repository.GetGlobalFactory().GetCategoryRepository()

	slug := models.Slugify(req.Name)
	if slug == "" {
		return jsonError(c, fiber.StatusBadRequest, "invalid_name", "Category name produces an empty slug")
	}
	if _, err := categoryRepo.GetByUserIDAndSlug(userCtx.UserID, slug); err == nil {
		return jsonError(c, fiber.StatusConflict, "category_exists", "A category with this name already exists")
	}

	category := &models.Category{
		UserID: userCtx.UserID,
		Name:   req.Name,
	}
	if req.DisplayOrder != nil {
		category.DisplayOrder = *req.DisplayOrder
	}

	if err := categoryRepo.Create(category); err != nil {
		log.Errorf("[Category] Create failed for user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to save category")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"category": category,
	})
}

// HandleUpdateCategory renames a category. The slug follows the new name.
func HandleUpdateCategory(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	category, ok := findOwnCategory(c, userCtx.UserID)
	if !ok {
		return nil
	}

	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Cannot parse request body")
	}
	if err := validate.Struct(&req); err != nil {
		return jsonValidationError(c, err)
	}

	categoryRepo := repository.GetGlobalFactory().GetCategoryRepository()

	slug := models.Slugify(req.Name)
	if slug == "" {
		return jsonError(c, fiber.StatusBadRequest, "invalid_name", "Category name produces an empty slug")
	}
	if existing, err := categoryRepo.GetByUserIDAndSlug(userCtx.UserID, slug); err == nil && existing.ID != category.ID {
		return jsonError(c, fiber.StatusConflict, "category_exists", "A category with this name already exists")
	}

	category.Name = req.Name
	category.Slug = slug
	if req.DisplayOrder != nil {
		category.DisplayOrder = *req.DisplayOrder
	}

	if err := categoryRepo.Update(category); err != nil {
		log.Errorf("[Category] Update failed for category %d: %v", category.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to update category")
	}

	return c.JSON(fiber.Map{
		"category": category,
	})
}

// HandleDeleteCategory removes a category. Its artworks stay and become
// uncategorized.
func HandleDeleteCategory(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	category, ok := findOwnCategory(c, userCtx.UserID)
	if !ok {
		return nil
	}

	if err := repository.GetGlobalFactory().GetCategoryRepository().Delete(category.ID); err != nil {
		log.Errorf("[Category] Delete failed for category %d: %v", category.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to delete category")
	}

	return c.JSON(fiber.Map{
		"message": "Category deleted",
	})
}

func findOwnCategory(c *fiber.Ctx, userID uint) (*models.Category, bool) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		_ = jsonError(c, fiber.StatusBadRequest, "invalid_id", "Invalid category id")
		return nil, false
	}

	category, err := repository.GetGlobalFactory().GetCategoryRepository().GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = jsonError(c, fiber.StatusNotFound, "category_not_found", "Category not found")
		} else {
			log.Errorf("[Category] Lookup failed for category %d: %v", id, err)
			_ = jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to load category")
		}
		return nil, false
	}
	if category.UserID != userID {
		_ = jsonError(c, fiber.StatusNotFound, "category_not_found", "Category not found")
		return nil, false
	}

	return category, true
}
