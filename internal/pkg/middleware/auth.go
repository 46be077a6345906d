package middleware

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/picme-app/picme/app/models"
	"github.com/picme-app/picme/app/repository"
	"github.com/picme-app/picme/internal/pkg/token"
	"github.com/picme-app/picme/internal/pkg/usercontext"
)

// JWTAuth authenticates requests carrying a bearer token and loads the user
// context. The user row is re-read so plan and status changes apply on the
// next request, not at the next login.
func JWTAuth(tokens *token.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		signed := extractBearerToken(c)
		if signed == "" {
			return c.Next()
		}

		claims, err := tokens.Parse(signed)
		if err != nil {
			return c.Next()
		}
		userID, err := claims.UserID()
		if err != nil {
			return c.Next()
		}

		repo := repository.GetGlobalFactory().GetUserRepository()
		user, err := repo.GetByID(userID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("auth middleware: user lookup failed: %v", err)
			}
			return c.Next()
		}
		if user.Status == models.STATUS_DISABLED {
			return c.Next()
		}

		usercontext.SetUserContext(c, usercontext.UserContext{
			UserID:     user.ID,
			Username:   user.Username,
			IsLoggedIn: true,
			IsAdmin:    user.Role == models.ROLE_ADMIN,
			Plan:       user.Plan,
		})
		c.Locals(usercontext.KeyUserID, user.ID)
		c.Locals(usercontext.KeyUsername, user.Username)
		c.Locals(usercontext.KeyIsAdmin, user.Role == models.ROLE_ADMIN)

		return c.Next()
	}
}

// RequireAuth ensures an authenticated caller and returns JSON 401 otherwise.
func RequireAuth(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	return c.Next()
}

// RequireAdmin ensures an authenticated admin.
func RequireAdmin(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "login required",
		})
	}
	if !usercontext.IsAdmin(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":   "forbidden",
			"message": "admin access required",
		})
	}
	return c.Next()
}

func extractBearerToken(c *fiber.Ctx) string {
	auth := strings.TrimSpace(c.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
