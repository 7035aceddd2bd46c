package storage

import (
	"errors"

	"gorm.io/gorm"

	"github.com/gorefurbish/backend/internal/models"
)

// DatabaseStore implements Store on top of PostgreSQL via GORM
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a database-backed store
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

// User operations

func (s *DatabaseStore) CreateUser(user *models.User) (*models.User, error) {
	if err := s.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (s *DatabaseStore) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *DatabaseStore) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *DatabaseStore) FindUserByEmailOrUsername(email, username string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ? OR username = ?", email, username).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (s *DatabaseStore) UpdateUser(user *models.User) error {
	return s.db.Save(user).Error
}

// Product operations

func (s *DatabaseStore) CreateProduct(product *models.Product) (*models.Product, error) {
	if err := s.db.Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (s *DatabaseStore) GetAllProducts() ([]*models.Product, error) {
	var products []*models.Product
	if err := s.db.Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (s *DatabaseStore) GetProductsByUser(userID uint) ([]*models.Product, error) {
	var products []*models.Product
	if err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// OTP operations

func (s *DatabaseStore) CreateOTP(otp *models.OTP) (*models.OTP, error) {
	if err := s.db.Create(otp).Error; err != nil {
		return nil, err
	}
	return otp, nil
}

func (s *DatabaseStore) GetLatestUnusedOTP(email, purpose string) (*models.OTP, error) {
	var otp models.OTP
	err := s.db.
		Where("email = ? AND purpose = ? AND is_used = ?", email, purpose, false).
		Order("created_at DESC").
		First(&otp).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &otp, nil
}

// IncrementOTPAttempts bumps the attempt counter in a single UPDATE so
// concurrent verifications cannot read-modify-write over each other.
func (s *DatabaseStore) IncrementOTPAttempts(id uint) (int, error) {
	var attempts int
	err := s.db.
		Raw("UPDATE otps SET attempts = attempts + 1, updated_at = NOW() WHERE id = ? RETURNING attempts", id).
		Scan(&attempts).Error
	if err != nil {
		return 0, err
	}
	return attempts, nil
}

// ConsumeOTP flips is_used exactly once; the is_used = false guard makes a
// second concurrent consume report false.
func (s *DatabaseStore) ConsumeOTP(id uint) (bool, error) {
	res := s.db.Model(&models.OTP{}).
		Where("id = ? AND is_used = ?", id, false).
		Update("is_used", true)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *DatabaseStore) DeleteOTPs(email, purpose string) error {
	return s.db.Unscoped().
		Where("email = ? AND purpose = ?", email, purpose).
		Delete(&models.OTP{}).Error
}

func (s *DatabaseStore) DeleteExpiredOTPs() (int64, error) {
	res := s.db.Unscoped().
		Where("expires_at < NOW()").
		Delete(&models.OTP{})
	return res.RowsAffected, res.Error
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
