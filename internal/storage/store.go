package storage

import (
	"errors"

	"github.com/gorefurbish/backend/internal/models"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for storage operations
type Store interface {
	// User operations
	CreateUser(user *models.User) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	FindUserByEmailOrUsername(email, username string) (*models.User, error)
	UpdateUser(user *models.User) error

	// Product operations
	CreateProduct(product *models.Product) (*models.Product, error)
	GetAllProducts() ([]*models.Product, error)
	GetProductsByUser(userID uint) ([]*models.Product, error)

	// OTP operations. Increment and consume must be atomic per record so
	// concurrent guesses cannot double-spend a code.
	CreateOTP(otp *models.OTP) (*models.OTP, error)
	GetLatestUnusedOTP(email, purpose string) (*models.OTP, error)
	IncrementOTPAttempts(id uint) (int, error)
	ConsumeOTP(id uint) (bool, error)
	DeleteOTPs(email, purpose string) error
	DeleteExpiredOTPs() (int64, error)
}
