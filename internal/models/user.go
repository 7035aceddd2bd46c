package models

import (
	"gorm.io/gorm"
)

// User roles
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
	RoleEmployee   = "employee"
)

// ValidRole reports whether role is one of the accepted user roles.
func ValidRole(role string) bool {
	switch role {
	case RoleUser, RoleAdmin, RoleSuperAdmin, RoleEmployee:
		return true
	}
	return false
}

type User struct {
	gorm.Model
	FullName string `json:"fullName" gorm:"not null"`
	Username string `json:"username" gorm:"unique;not null"`
	Email    string `json:"email" gorm:"unique;not null;index"`
	Phone    string `json:"phone" gorm:"unique;not null"`
	Address  string `json:"address"`
	Role     string `json:"role" gorm:"default:user"`

	// One-way bcrypt hash, never the plaintext.
	PasswordHash string `json:"-" gorm:"not null"`

	// Aadhaar number encrypted as hex(iv):hex(ciphertext). The 12-digit
	// plaintext never reaches the database.
	AadhaarCiphertext string `json:"-"`
}

// UserRegistration is the signup request payload.
type UserRegistration struct {
	FullName      string `json:"fullName"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	AadhaarNumber string `json:"aadhaarNumber"`
	Password      string `json:"password"`
	Role          string `json:"role"`
}

// PublicUser is the JSON shape returned to clients. The Aadhaar number is
// only ever exposed in its masked form.
type PublicUser struct {
	ID            uint   `json:"id"`
	FullName      string `json:"fullName"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	Role          string `json:"role"`
	AadhaarMasked string `json:"aadhaarMasked,omitempty"`
}
