package controllers

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/picme-app/picme/app/models"
	"github.com/picme-app/picme/app/repository"
	"github.com/picme-app/picme/internal/pkg/entitlements"
	"github.com/picme-app/picme/internal/pkg/imageprocessor"
	"github.com/picme-app/picme/internal/pkg/jobqueue"
	"github.com/picme-app/picme/internal/pkg/usercontext"
)

// Allowed upload types for artwork images
var allowedImageTypes = map[string]bool{
	"image/jpeg":    true,
	"image/png":     true,
	"image/gif":     true,
	"image/webp":    true,
	"image/svg+xml": true,
	"image/avif":    true,
}

const maxArtworkFileSize = 25 * 1024 * 1024 // 25 MB per file

// HandleListArtworks returns all of the caller's artworks, hidden ones included.
func HandleListArtworks(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	artworks, err := repository.GetGlobalFactory().GetArtworkRepository().GetByUserID(userCtx.UserID)
	if err != nil {
		log.Errorf("[Artwork] Listing failed for user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to load artworks")
	}

	return c.JSON(fiber.Map{
		"artworks": artworks,
	})
}

// HandleUploadArtwork accepts a multipart image upload and creates the artwork.
func HandleUploadArtwork(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	if uploader == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "storage_disabled", "File storage is not configured")
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "missing_file", "An image file is required")
	}
	if fileHeader.Size > maxArtworkFileSize {
		return jsonError(c, fiber.StatusRequestEntityTooLarge, "file_too_large", "Image exceeds the maximum file size")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !allowedImageTypes[contentType] {
		return jsonError(c, fiber.StatusUnsupportedMediaType, "unsupported_type", "Only image uploads are allowed")
	}

	title := strings.TrimSpace(c.FormValue("title"))
	if title == "" {
		return jsonError(c, fiber.StatusBadRequest, "missing_title", "A title is required")
	}

	if err := gate.CheckCreate(c.Context(), userCtx.UserID, entitlements.ResourceArtworks); err != nil {
		if handleEntitlementError(c, err) {
			return nil
		}
		log.Errorf("[Artwork] Limit check failed for user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to check plan limits")
	}
	if err := gate.CheckStorage(c.Context(), userCtx.UserID, fileHeader.Size); err != nil {
		if handleEntitlementError(c, err) {
			return nil
		}
		log.Errorf("[Artwork] Storage check failed for user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to check storage quota")
	}

	factory := repository.GetGlobalFactory()
	artworkRepo := factory.GetArtworkRepository()

	artwork := &models.Artwork{
		UserID:      userCtx.UserID,
		UUID:        uuid.New().String(),
		Title:       title,
		Description: c.FormValue("description"),
		FileSize:    fileHeader.Size,
		Visible:     true,
	}

	categoryID, ok := resolveCategoryID(c, userCtx.UserID, c.FormValue("category_id"))
	if !ok {
		return nil
	}
	artwork.CategoryID = categoryID

	// Reject a denied tag plan before the object is stored
	rawTags := c.FormValue("tags")
	if strings.TrimSpace(strings.ReplaceAll(rawTags, ",", "")) != "" && !checkTagPlan(c, userCtx.UserID) {
		return nil
	}

	file, err := fileHeader.Open()
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_file", "Cannot read uploaded file")
	}
	data, err := io.ReadAll(file)
	file.Close()
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_file", "Cannot read uploaded file")
	}

	objectKey := storageConfig.ObjectKey(artwork.UUID, filepath.Ext(fileHeader.Filename), time.Now())
	result, err := uploader.Upload(c.Context(), objectKey, bytes.NewReader(data), int64(len(data)), contentType)
	if err != nil {
		log.Errorf("[Artwork] Upload to storage failed for user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusBadGateway, "upload_failed", "Failed to store the image")
	}

	artwork.ObjectKey = result.ObjectKey
	artwork.ImageURL = result.URL
	artwork.ThumbnailURL = result.URL

	// A failed thumbnail is not fatal, the original serves as fallback
	if imageprocessor.CanThumbnail(contentType) {
		if thumb, err := imageprocessor.GenerateThumbnail(bytes.NewReader(data)); err != nil {
			log.Warnf("[Artwork] Thumbnail generation failed for %s: %v", objectKey, err)
		} else {
			thumbKey := imageprocessor.ThumbnailObjectKey(objectKey)
			thumbResult, err := uploader.Upload(c.Context(), thumbKey, bytes.NewReader(thumb), int64(len(thumb)), "image/jpeg")
			if err != nil {
				log.Warnf("[Artwork] Thumbnail upload failed for %s: %v", thumbKey, err)
			} else {
				artwork.ThumbnailURL = thumbResult.URL
			}
		}
	}

	if err := artworkRepo.Create(artwork); err != nil {
		// Roll back the orphaned objects, best effort
		deleteArtworkObjects(c, artwork)
		log.Errorf("[Artwork] Create failed for user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to save artwork")
	}

	if !applyTags(c, artwork, rawTags) {
		return nil
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"artwork": artwork,
	})
}

type updateArtworkRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
	Visible     *bool   `json:"visible"`
	CategoryID  *string `json:"category_id"`
	Tags        *string `json:"tags"`
}

// HandleUpdateArtwork edits artwork metadata. The image itself is immutable,
// replacing it means uploading a new artwork.
func HandleUpdateArtwork(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	artwork, ok := findOwnArtwork(c, userCtx.UserID)
	if !ok {
		return nil
	}

	var req updateArtworkRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Cannot parse request body")
	}
	if err := validate.Struct(&req); err != nil {
		return jsonValidationError(c, err)
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return jsonError(c, fiber.StatusBadRequest, "missing_title", "A title is required")
		}
		artwork.Title = title
	}
	if req.Description != nil {
		artwork.Description = *req.Description
	}
	if req.Visible != nil {
		artwork.Visible = *req.Visible
	}
	if req.CategoryID != nil {
		categoryID, ok := resolveCategoryID(c, userCtx.UserID, *req.CategoryID)
		if !ok {
			return nil
		}
		artwork.CategoryID = categoryID
	}

	if err := repository.GetGlobalFactory().GetArtworkRepository().Update(artwork); err != nil {
		log.Errorf("[Artwork] Update failed for artwork %d: %v", artwork.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to update artwork")
	}

	if req.Tags != nil && !applyTags(c, artwork, *req.Tags) {
		return nil
	}

	return c.JSON(fiber.Map{
		"artwork": artwork,
	})
}

// HandleDeleteArtwork removes the artwork and its stored object.
func HandleDeleteArtwork(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	artwork, ok := findOwnArtwork(c, userCtx.UserID)
	if !ok {
		return nil
	}

	if err := repository.GetGlobalFactory().GetArtworkRepository().Delete(artwork.ID); err != nil {
		log.Errorf("[Artwork] Delete failed for artwork %d: %v", artwork.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to delete artwork")
	}

	deleteArtworkObjects(c, artwork)

	return c.JSON(fiber.Map{
		"message": "Artwork deleted",
	})
}

// deleteArtworkObjects removes the stored image and its thumbnail. Deletion is
// handed to the job queue so the request does not wait on storage; when the
// queue is down the objects are deleted inline instead.
func deleteArtworkObjects(c *fiber.Ctx, artwork *models.Artwork) {
	if uploader == nil || artwork.ObjectKey == "" {
		return
	}

	keys := []string{artwork.ObjectKey}
	if artwork.ThumbnailURL != "" && artwork.ThumbnailURL != artwork.ImageURL {
		keys = append(keys, imageprocessor.ThumbnailObjectKey(artwork.ObjectKey))
	}
	for _, key := range keys {
		if jobqueue.EnqueueObjectDelete(key) {
			continue
		}
		if err := uploader.Delete(c.Context(), key); err != nil {
			log.Warnf("[Artwork] Failed to delete object %s: %v", key, err)
		}
	}
}

// HandleReorderArtworks rewrites the display order from an id sequence.
func HandleReorderArtworks(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req struct {
		IDs []uint `json:"ids" validate:"required,min=1"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Cannot parse request body")
	}
	if err := validate.Struct(&req); err != nil {
		return jsonValidationError(c, err)
	}

	if err := repository.GetGlobalFactory().GetArtworkRepository().Reorder(userCtx.UserID, req.IDs); err != nil {
		log.Errorf("[Artwork] Reorder failed for user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to reorder artworks")
	}

	return c.JSON(fiber.Map{
		"message": "Order updated",
	})
}

// HandleListTags returns every tag the caller has used on artworks.
func HandleListTags(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	tags, err := repository.GetGlobalFactory().GetTagRepository().GetByUserID(userCtx.UserID)
	if err != nil {
		log.Errorf("[Artwork] Tag listing failed for user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to load tags")
	}

	return c.JSON(fiber.Map{
		"tags": tags,
	})
}

// findOwnArtwork loads the :id artwork and enforces ownership. On failure it
// writes the error response and returns false.
func findOwnArtwork(c *fiber.Ctx, userID uint) (*models.Artwork, bool) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		_ = jsonError(c, fiber.StatusBadRequest, "invalid_id", "Invalid artwork id")
		return nil, false
	}

	artwork, err := repository.GetGlobalFactory().GetArtworkRepository().GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = jsonError(c, fiber.StatusNotFound, "artwork_not_found", "Artwork not found")
		} else {
			log.Errorf("[Artwork] Lookup failed for artwork %d: %v", id, err)
			_ = jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to load artwork")
		}
		return nil, false
	}
	if artwork.UserID != userID {
		// Do not reveal that the artwork exists
		_ = jsonError(c, fiber.StatusNotFound, "artwork_not_found", "Artwork not found")
		return nil, false
	}

	return artwork, true
}

// resolveCategoryID validates an optional category id value against the
// caller's categories. Empty input means no category. On a bad id it writes
// the error response and returns ok=false.
func resolveCategoryID(c *fiber.Ctx, userID uint, raw string) (categoryID *uint, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, true
	}

	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		_ = jsonError(c, fiber.StatusBadRequest, "invalid_category", "Invalid category id")
		return nil, false
	}

	category, err := repository.GetGlobalFactory().GetCategoryRepository().GetByID(uint(id))
	if err != nil || category.UserID != userID {
		_ = jsonError(c, fiber.StatusBadRequest, "invalid_category", "Category not found")
		return nil, false
	}

	return &category.ID, true
}

// applyTags replaces the artwork's tag set from a comma separated list.
// Tagging sits in the same plan band as categories. On failure it writes the
// error response and returns false.
func applyTags(c *fiber.Ctx, artwork *models.Artwork, raw string) bool {
	tagRepo := repository.GetGlobalFactory().GetTagRepository()

	var names []string
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		names = append(names, name)
	}

	if len(names) > 0 && !checkTagPlan(c, artwork.UserID) {
		return false
	}

	var tags []models.Tag
	for _, name := range names {
		tag, err := tagRepo.GetOrCreate(artwork.UserID, name)
		if err != nil {
			log.Errorf("[Artwork] Tag lookup failed for %q: %v", name, err)
			_ = jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to save tags")
			return false
		}
		tags = append(tags, *tag)
	}

	if err := tagRepo.ReplaceForArtwork(artwork, tags); err != nil {
		log.Errorf("[Artwork] Tag replace failed for artwork %d: %v", artwork.ID, err)
		_ = jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to save tags")
		return false
	}
	artwork.Tags = tags

	return true
}

// checkTagPlan verifies the caller's plan allows tagging. Tags share the
// category plan band. On denial it writes the error response and returns
// false.
func checkTagPlan(c *fiber.Ctx, userID uint) bool {
	_, limits, err := gate.EffectiveLimits(c.Context(), userID)
	if err != nil {
		log.Errorf("[Artwork] Plan lookup failed for user %d: %v", userID, err)
		_ = jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to check plan features")
		return false
	}
	if limits.MaxCategories == 0 {
		_ = handleEntitlementError(c, &entitlements.FeatureError{
			Feature:      "tags",
			RequiredPlan: entitlements.PlanPro,
		})
		return false
	}
	return true
}
