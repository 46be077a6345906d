package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	ROLE_USER  = "user"
	ROLE_ADMIN = "admin"

	STATUS_ACTIVE   = "active"
	STATUS_INACTIVE = "inactive"
	STATUS_DISABLED = "disabled"
)

type User struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Username         string         `gorm:"uniqueIndex;type:varchar(50)" json:"username" validate:"required,min=3,max=50,alphanum"`
	Email            string         `gorm:"uniqueIndex;type:varchar(200)" json:"email" validate:"required,email,min=5,max=200"`
	Password         string         `gorm:"type:text" json:"-" validate:"required,min=8"`
	Role             string         `gorm:"type:varchar(50);default:'user'" json:"role" validate:"oneof=user admin"`
	Status           string         `gorm:"type:varchar(50);default:'inactive'" json:"status" validate:"oneof=active inactive disabled"`
	Plan             string         `gorm:"type:varchar(50);default:'free';index" json:"plan"` // denormalized from the subscription, read on the hot path
	EmailVerified    bool           `gorm:"default:false" json:"email_verified"`
	ActivationToken  string         `gorm:"type:varchar(100);index" json:"-"`
	ActivationSentAt *time.Time     `gorm:"type:timestamp;default:null" json:"-"`
	ResetToken       string         `gorm:"type:varchar(100);default:null;index" json:"-"`
	ResetSentAt      *time.Time     `gorm:"type:timestamp;default:null" json:"-"`
	LastLoginAt      *time.Time     `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

func CreateUser(username string, email string, password string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Username: username,
		Email:    email,
		Password: pw,
		Role:     ROLE_USER,
		Status:   STATUS_INACTIVE,
		Plan:     "free",
	}

	err = u.Validate()
	if err != nil {
		return nil, err
	}

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// IsActive reports whether the user status is active
func (u *User) IsActive() bool {
	return u.Status == STATUS_ACTIVE
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}

// GenerateActivationToken creates a random token and sets ActivationSentAt
func (u *User) GenerateActivationToken() error {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return err
	}
	u.ActivationToken = hex.EncodeToString(b)
	now := time.Now()
	u.ActivationSentAt = &now
	return nil
}

// GenerateResetToken creates a random password reset token and sets ResetSentAt
func (u *User) GenerateResetToken() error {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return err
	}
	u.ResetToken = hex.EncodeToString(b)
	now := time.Now()
	u.ResetSentAt = &now
	return nil
}

// IsResetTokenValid checks if the reset token matches and is not expired (2 hours)
func (u *User) IsResetTokenValid(token string) bool {
	if u.ResetToken == "" || u.ResetSentAt == nil {
		return false
	}
	if u.ResetToken != token {
		return false
	}
	return time.Since(*u.ResetSentAt) < 2*time.Hour
}

// ClearResetToken clears password reset fields after use
func (u *User) ClearResetToken() {
	u.ResetToken = ""
	u.ResetSentAt = nil
}
