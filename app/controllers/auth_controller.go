package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/picme-app/picme/app/models"
	"github.com/picme-app/picme/app/repository"
	"github.com/picme-app/picme/internal/pkg/hcaptcha"
	"github.com/picme-app/picme/internal/pkg/mail"
	"github.com/picme-app/picme/internal/pkg/usercontext"
)

type registerRequest struct {
	Username     string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8"`
	CaptchaToken string `json:"captcha_token"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleRegister creates a new inactive account and sends the activation mail.
func HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Cannot parse request body")
	}
	if err := validate.Struct(&req); err != nil {
		return jsonValidationError(c, err)
	}

	if hcaptcha.Enabled() {
		if ok, err := hcaptcha.Verify(req.CaptchaToken); !ok {
			log.Warnf("[Auth] Captcha verification failed: %v", err)
			return jsonError(c, fiber.StatusBadRequest, "captcha_failed", "Captcha verification failed")
		}
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()

	if _, err := userRepo.GetByEmail(req.Email); err == nil {
		return jsonError(c, fiber.StatusConflict, "email_taken", "An account with this email already exists")
	}
	if _, err := userRepo.GetByUsername(req.Username); err == nil {
		return jsonError(c, fiber.StatusConflict, "username_taken", "This username is already taken")
	}

	user, err := models.CreateUser(req.Username, req.Email, req.Password)
	if err != nil {
		return jsonValidationError(c, err)
	}
	if err := user.GenerateActivationToken(); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to create account")
	}
	if err := userRepo.Create(user); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to create account")
	}

	// Mail delivery must not block registration
	go func(email, username, token string) {
		if err := mail.SendActivationEmail(email, username, token); err != nil {
			log.Errorf("[Auth] Failed to send activation email to %s: %v", email, err)
		}
	}(user.Email, user.Username, user.ActivationToken)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Account created, check your email to activate it",
		"user":    user,
	})
}

// HandleActivate activates an account via the emailed token.
func HandleActivate(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return jsonError(c, fiber.StatusBadRequest, "missing_token", "Activation token is required")
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	user, err := userRepo.GetByActivationToken(token)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "invalid_token", "Activation token is invalid or already used")
	}

	user.Status = models.STATUS_ACTIVE
	user.EmailVerified = true
	user.ActivationToken = ""
	user.ActivationSentAt = nil
	if err := userRepo.Update(user); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to activate account")
	}

	return c.JSON(fiber.Map{
		"message": "Account activated, you can log in now",
	})
}

// HandleLogin verifies credentials and issues a JWT.
func HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Cannot parse request body")
	}
	if err := validate.Struct(&req); err != nil {
		return jsonValidationError(c, err)
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	user, err := userRepo.GetByEmail(req.Email)
	if err != nil || !user.CheckPassword(req.Password) {
		return jsonError(c, fiber.StatusUnauthorized, "invalid_credentials", "Email or password is incorrect")
	}
	if !user.IsActive() {
		return jsonError(c, fiber.StatusForbidden, "account_not_active", "Activate your account before logging in")
	}

	signed, err := tokenManager.Generate(user.ID, user.Username, user.Role == models.ROLE_ADMIN)
	if err != nil {
		log.Errorf("[Auth] Failed to sign token for user %d: %v", user.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to create session")
	}

	now := time.Now()
	user.LastLoginAt = &now
	if err := userRepo.Update(user); err != nil {
		log.Warnf("[Auth] Failed to update last login for user %d: %v", user.ID, err)
	}

	return c.JSON(fiber.Map{
		"token": signed,
		"user":  user,
	})
}

// HandleRequestPasswordReset always answers 200 so the endpoint does not leak
// which emails exist.
func HandleRequestPasswordReset(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email" validate:"required,email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Cannot parse request body")
	}
	if err := validate.Struct(&req); err != nil {
		return jsonValidationError(c, err)
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	user, err := userRepo.GetByEmail(req.Email)
	if err == nil {
		if err := user.GenerateResetToken(); err == nil {
			if err := userRepo.Update(user); err == nil {
				go func(email, username, token string) {
					if err := mail.SendPasswordResetEmail(email, username, token); err != nil {
						log.Errorf("[Auth] Failed to send reset email to %s: %v", email, err)
					}
				}(user.Email, user.Username, user.ResetToken)
			}
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Errorf("[Auth] Password reset lookup failed: %v", err)
	}

	return c.JSON(fiber.Map{
		"message": "If the email exists, a reset link has been sent",
	})
}

// HandleResetPassword sets a new password via the emailed reset token.
func HandleResetPassword(c *fiber.Ctx) error {
	var req struct {
		Token    string `json:"token" validate:"required"`
		Password string `json:"password" validate:"required,min=8"`
	}
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "Cannot parse request body")
	}
	if err := validate.Struct(&req); err != nil {
		return jsonValidationError(c, err)
	}

	userRepo := repository.GetGlobalFactory().GetUserRepository()
	user, err := userRepo.GetByResetToken(req.Token)
	if err != nil || !user.IsResetTokenValid(req.Token) {
		return jsonError(c, fiber.StatusBadRequest, "invalid_token", "Reset token is invalid or expired")
	}

	if err := user.SetPassword(req.Password); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to update password")
	}
	user.ClearResetToken()
	if err := userRepo.Update(user); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal_error", "Failed to update password")
	}

	return c.JSON(fiber.Map{
		"message": "Password updated, you can log in now",
	})
}

// HandleMe returns the authenticated user's account.
func HandleMe(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(userCtx.UserID)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "user_not_found", "User not found")
	}

	return c.JSON(fiber.Map{
		"user": user,
	})
}
