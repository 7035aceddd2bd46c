package storage

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorefurbish/backend/internal/models"
)

// MemoryStore holds all data in memory, for tests and local development
type MemoryStore struct {
	users    map[uint]*models.User
	products map[uint]*models.Product
	otps     map[uint]*models.OTP

	// Mutexes for thread safety
	userMu    sync.RWMutex
	productMu sync.RWMutex
	otpMu     sync.RWMutex

	// Counters for ID generation
	userCounter    uint
	productCounter uint
	otpCounter     uint
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[uint]*models.User),
		products: make(map[uint]*models.Product),
		otps:     make(map[uint]*models.OTP),
	}
}

// User operations

func (m *MemoryStore) CreateUser(user *models.User) (*models.User, error) {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	for _, existing := range m.users {
		if strings.EqualFold(existing.Email, user.Email) || existing.Username == user.Username {
			return nil, fmt.Errorf("user already exists")
		}
	}

	m.userCounter++
	user.ID = m.userCounter
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	m.users[user.ID] = user
	return user, nil
}

func (m *MemoryStore) GetUserByID(id uint) (*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	user, exists := m.users[id]
	if !exists {
		return nil, ErrNotFound
	}
	return user, nil
}

func (m *MemoryStore) GetUserByEmail(email string) (*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	for _, user := range m.users {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) FindUserByEmailOrUsername(email, username string) (*models.User, error) {
	m.userMu.RLock()
	defer m.userMu.RUnlock()

	for _, user := range m.users {
		if strings.EqualFold(user.Email, email) || user.Username == username {
			return user, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) UpdateUser(user *models.User) error {
	m.userMu.Lock()
	defer m.userMu.Unlock()

	if _, exists := m.users[user.ID]; !exists {
		return ErrNotFound
	}
	user.UpdatedAt = time.Now()
	m.users[user.ID] = user
	return nil
}

// Product operations

func (m *MemoryStore) CreateProduct(product *models.Product) (*models.Product, error) {
	m.productMu.Lock()
	defer m.productMu.Unlock()

	m.productCounter++
	product.ID = m.productCounter
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()

	m.products[product.ID] = product
	return product, nil
}

func (m *MemoryStore) GetAllProducts() ([]*models.Product, error) {
	m.productMu.RLock()
	defer m.productMu.RUnlock()

	products := make([]*models.Product, 0, len(m.products))
	for _, p := range m.products {
		products = append(products, p)
	}
	sort.Slice(products, func(i, j int) bool {
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
	return products, nil
}

func (m *MemoryStore) GetProductsByUser(userID uint) ([]*models.Product, error) {
	m.productMu.RLock()
	defer m.productMu.RUnlock()

	var products []*models.Product
	for _, p := range m.products {
		if p.UserID == userID {
			products = append(products, p)
		}
	}
	return products, nil
}

// OTP operations

func (m *MemoryStore) CreateOTP(otp *models.OTP) (*models.OTP, error) {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	m.otpCounter++
	otp.ID = m.otpCounter
	otp.CreatedAt = time.Now()
	otp.UpdatedAt = time.Now()

	m.otps[otp.ID] = otp
	return otp, nil
}

func (m *MemoryStore) GetLatestUnusedOTP(email, purpose string) (*models.OTP, error) {
	m.otpMu.RLock()
	defer m.otpMu.RUnlock()

	var latest *models.OTP
	for _, otp := range m.otps {
		if otp.Email != email || otp.Purpose != purpose || otp.IsUsed {
			continue
		}
		if latest == nil || otp.CreatedAt.After(latest.CreatedAt) || (otp.CreatedAt.Equal(latest.CreatedAt) && otp.ID > latest.ID) {
			latest = otp
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}

	record := *latest
	return &record, nil
}

func (m *MemoryStore) IncrementOTPAttempts(id uint) (int, error) {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	otp, exists := m.otps[id]
	if !exists {
		return 0, ErrNotFound
	}
	otp.Attempts++
	otp.UpdatedAt = time.Now()
	return otp.Attempts, nil
}

func (m *MemoryStore) ConsumeOTP(id uint) (bool, error) {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	otp, exists := m.otps[id]
	if !exists {
		return false, ErrNotFound
	}
	if otp.IsUsed {
		return false, nil
	}
	otp.IsUsed = true
	otp.UpdatedAt = time.Now()
	return true, nil
}

func (m *MemoryStore) DeleteOTPs(email, purpose string) error {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	for id, otp := range m.otps {
		if otp.Email == email && otp.Purpose == purpose {
			delete(m.otps, id)
		}
	}
	return nil
}

func (m *MemoryStore) DeleteExpiredOTPs() (int64, error) {
	m.otpMu.Lock()
	defer m.otpMu.Unlock()

	now := time.Now()
	var removed int64
	for id, otp := range m.otps {
		if otp.Expired(now) {
			delete(m.otps, id)
			removed++
		}
	}
	return removed, nil
}
