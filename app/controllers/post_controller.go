package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/picme-app/picme/app/models"
	"github.com/picme-app/picme/app/repository"
	"github.com/picme-app/picme/internal/pkg/entitlements"
	"github.com/picme-app/picme/internal/pkg/usercontext"
	"github.com/picme-app/picme/internal/pkg/utils"
)

type postRequest struct {
	Title        string `json:"title" validate:"required,max=200"`
	Content      string `json:"content" validate:"max=20000"`
	ThumbnailURL string `json:"thumbnail_url" validate:"omitempty,url,max=500"`
	Visible      *bool  `json:"visible"`
}

// checkPostContent rejects markdown content on plans without the feature.
// Plain text posts pass on every plan. On denial it writes the error response
// and returns false.
func checkPostContent(c *fiber.Ctx, userID uint, content string) bool {
	if !utils.ContainsMarkdown(content) {
		return true
	}
	if err := gate.RequireFeature(c.Context(), userID, entitlements.FeatureMarkdown); err != nil {
		if !handleEntitlementError(c, err) {
			log.Errorf("[Post] Feature check failed for user %d: %v", userID, err)
			_ = jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to check plan features")
		}
		return false
	}
	return true
}

// HandleListPosts returns all of the caller's posts, drafts included.
func HandleListPosts(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	posts, err := repository.GetGlobalFactory().GetPostRepository().GetByUserID(userCtx.UserID)
	if err != nil {
		log.Errorf("[Post] Listing failed for user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to load posts")
	}

	return c.JSON(fiber.Map{
		"posts": posts,
	})
}

// HandleCreatePost creates a draft post, subject to the plan limit.
func HandleCreatePost(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Cannot parse request body")
	}
	if err := validate.Struct(&req); err != nil {
		return jsonValidationError(c, err)
	}

	if err := gate.CheckCreate(c.Context(), userCtx.UserID, entitlements.ResourcePosts); err != nil {
		if handleEntitlementError(c, err) {
			return nil
		}
		log.Errorf("[Post] Limit check failed for user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to check plan limits")
	}

	if !checkPostContent(c, userCtx.UserID, req.Content) {
		return nil
	}

	post := &models.Post{
		UserID:       userCtx.UserID,
		Title:        req.Title,
		Content:      req.Content,
		ThumbnailURL: req.ThumbnailURL,
		Visible:      true,
	}
	if req.Visible != nil {
		post.Visible = *req.Visible
	}

	if err := repository.GetGlobalFactory().GetPostRepository().Create(post); err != nil {
		log.Errorf("[Post] Create failed for user %d: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to save post")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"post": post,
	})
}

// HandleUpdatePost edits an existing post.
func HandleUpdatePost(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	post, ok := findOwnPost(c, userCtx.UserID)
	if !ok {
		return nil
	}

	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Cannot parse request body")
	}
	if err := validate.Struct(&req); err != nil {
		return jsonValidationError(c, err)
	}

	if !checkPostContent(c, userCtx.UserID, req.Content) {
		return nil
	}

	post.Title = req.Title
	post.Content = req.Content
	post.ThumbnailURL = req.ThumbnailURL
	if req.Visible != nil {
		post.Visible = *req.Visible
	}

	if err := repository.GetGlobalFactory().GetPostRepository().Update(post); err != nil {
		log.Errorf("[Post] Update failed for post %d: %v", post.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to update post")
	}

	return c.JSON(fiber.Map{
		"post": post,
	})
}

// HandlePublishPost marks a draft as published. Re-publishing keeps the
// original publication time.
func HandlePublishPost(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	post, ok := findOwnPost(c, userCtx.UserID)
	if !ok {
		return nil
	}

	if post.PublishedAt == nil {
		now := time.Now()
		post.PublishedAt = &now
		if err := repository.GetGlobalFactory().GetPostRepository().Update(post); err != nil {
			log.Errorf("[Post] Publish failed for post %d: %v", post.ID, err)
			return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to publish post")
		}
	}

	return c.JSON(fiber.Map{
		"post": post,
	})
}

// HandleUnpublishPost takes a published post back to draft.
func HandleUnpublishPost(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	post, ok := findOwnPost(c, userCtx.UserID)
	if !ok {
		return nil
	}

	if post.PublishedAt != nil {
		post.PublishedAt = nil
		if err := repository.GetGlobalFactory().GetPostRepository().Update(post); err != nil {
			log.Errorf("[Post] Unpublish failed for post %d: %v", post.ID, err)
			return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to unpublish post")
		}
	}

	return c.JSON(fiber.Map{
		"post": post,
	})
}

// HandleDeletePost removes a post.
func HandleDeletePost(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	post, ok := findOwnPost(c, userCtx.UserID)
	if !ok {
		return nil
	}

	if err := repository.GetGlobalFactory().GetPostRepository().Delete(post.ID); err != nil {
		log.Errorf("[Post] Delete failed for post %d: %v", post.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to delete post")
	}

	return c.JSON(fiber.Map{
		"message": "Post deleted",
	})
}

func findOwnPost(c *fiber.Ctx, userID uint) (*models.Post, bool) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		_ = jsonError(c, fiber.StatusBadRequest, "invalid_id", "Invalid post id")
		return nil, false
	}

	post, err := repository.GetGlobalFactory().GetPostRepository().GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			_ = jsonError(c, fiber.StatusNotFound, "post_not_found", "Post not found")
		} else {
			log.Errorf("[Post] Lookup failed for post %d: %v", id, err)
			_ = jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to load post")
		}
		return nil, false
	}
	if post.UserID != userID {
		_ = jsonError(c, fiber.StatusNotFound, "post_not_found", "Post not found")
		return nil, false
	}

	return post, true
}
