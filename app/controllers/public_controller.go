package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/picme-app/picme/app/models"
	"github.com/picme-app/picme/app/repository"
	"github.com/picme-app/picme/internal/pkg/metrics/counter"
	"github.com/picme-app/picme/internal/pkg/usercontext"
	"github.com/picme-app/picme/internal/pkg/utils"
)

// HandlePublicPage serves a creator's public portfolio page data: profile,
// visible artworks and links, published posts and categories.
func HandlePublicPage(c *fiber.Ctx) error {
	user, profile, ok := findPublicProfile(c)
	if !ok {
		return nil
	}

	factory := repository.GetGlobalFactory()

	artworks, err := factory.GetArtworkRepository().GetVisibleByUserID(user.ID)
	if err != nil {
		log.Errorf("[Public] Artwork load failed for user %d: %v", user.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to load page")
	}
	links, err := factory.GetSocialLinkRepository().GetVisibleByUserID(user.ID)
	if err != nil {
		log.Errorf("[Public] Link load failed for user %d: %v", user.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to load page")
	}
	posts, err := factory.GetPostRepository().GetPublishedByUserID(user.ID)
	if err != nil {
		log.Errorf("[Public] Post load failed for user %d: %v", user.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to load page")
	}
	categories, err := factory.GetCategoryRepository().GetByUserID(user.ID)
	if err != nil {
		log.Errorf("[Public] Category load failed for user %d: %v", user.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to load page")
	}

	// Owners browsing their own page do not count as visitors
	if usercontext.GetUserID(c) != user.ID {
		ip := GetClientIP(c)
		referrer := c.Get("Referer")
		userAgent := c.Get("User-Agent")
		go analyticsService.RecordView(user.ID, ip, referrer, userAgent)
	}

	return c.JSON(fiber.Map{
		"username":     user.Username,
		"profile":      profile,
		"artworks":     artworks,
		"social_links": links,
		"posts":        posts,
		"categories":   categories,
	})
}

// HandlePublicPost serves one published post and counts the view.
func HandlePublicPost(c *fiber.Ctx) error {
	user, _, ok := findPublicProfile(c)
	if !ok {
		return nil
	}

	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_id", "Invalid post id")
	}

	postRepo := repository.GetGlobalFactory().GetPostRepository()
	post, err := postRepo.GetByID(uint(id))
	if err != nil || post.UserID != user.ID || post.PublishedAt == nil || !post.Visible {
		return jsonError(c, fiber.StatusNotFound, "post_not_found", "Post not found")
	}

	if usercontext.GetUserID(c) != user.ID {
		// Views are batched in Redis and flushed periodically; fall back to a
		// direct update when the counter is unavailable.
		if err := counter.AddPostView(post.ID); err != nil {
			if err := postRepo.IncrementViewCount(post.ID); err != nil {
				log.Warnf("[Public] View count update failed for post %d: %v", post.ID, err)
			}
		}
		post.ViewCount++
	}

	return c.JSON(fiber.Map{
		"post": post,
	})
}

// findPublicProfile resolves the :username route param to an active user with
// a published profile. On failure it writes the error response and returns
// false. Unpublished or missing pages are indistinguishable from outside.
func findPublicProfile(c *fiber.Ctx) (*models.User, *models.Profile, bool) {
	username := c.Params("username")
	if username == "" {
		_ = jsonError(c, fiber.StatusBadRequest, "invalid_username", "Username is required")
		return nil, nil, false
	}

	factory := repository.GetGlobalFactory()

	user, err := factory.GetUserRepository().GetByUsername(username)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Errorf("[Public] User lookup failed for %s: %v", username, err)
		}
		_ = jsonError(c, fiber.StatusNotFound, "page_not_found", "This page does not exist")
		return nil, nil, false
	}
	if !user.IsActive() {
		_ = jsonError(c, fiber.StatusNotFound, "page_not_found", "This page does not exist")
		return nil, nil, false
	}

	profile, err := factory.GetProfileRepository().GetByUserID(user.ID)
	if err != nil || !profile.Published {
		// The owner still sees their own unpublished page
		if usercontext.GetUserID(c) != user.ID {
			_ = jsonError(c, fiber.StatusNotFound, "page_not_found", "This page does not exist")
			return nil, nil, false
		}
		if profile == nil || err != nil {
			profile = &models.Profile{UserID: user.ID}
		}
	}

	if profile.AvatarURL == "" {
		profile.AvatarURL = utils.GetGravatarURL(user.Email, 200)
	}

	return user, profile, true
}
