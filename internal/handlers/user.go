package handlers

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/gorefurbish/backend/internal/middleware"
	"github.com/gorefurbish/backend/internal/models"
	"github.com/gorefurbish/backend/internal/security"
	"github.com/gorefurbish/backend/internal/services"
	"github.com/gorefurbish/backend/internal/storage"
	"github.com/gorefurbish/backend/internal/utils"
)

// UserHandler handles account and authentication requests
type UserHandler struct {
	store  storage.Store
	guard  *security.CredentialGuard
	otps   *services.OTPService
	tokens *services.TokenService
	email  services.Mailer
	sms    *services.SMSService // optional second OTP channel
}

// NewUserHandler creates a new user handler
func NewUserHandler(store storage.Store, guard *security.CredentialGuard, otps *services.OTPService, tokens *services.TokenService, email services.Mailer, sms *services.SMSService) *UserHandler {
	return &UserHandler{
		store:  store,
		guard:  guard,
		otps:   otps,
		tokens: tokens,
		email:  email,
		sms:    sms,
	}
}

// Signup handles user registration
func (h *UserHandler) Signup(c *fiber.Ctx) error {
	var reg models.UserRegistration
	if err := c.BodyParser(&reg); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	for _, field := range []string{reg.FullName, reg.Username, reg.Email, reg.Phone, reg.Password} {
		if strings.TrimSpace(field) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "All fields are required",
			})
		}
	}
	if reg.Role != "" && !models.ValidRole(reg.Role) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid role specified",
		})
	}

	if _, err := h.store.FindUserByEmailOrUsername(services.NormalizeEmail(reg.Email), reg.Username); err == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "User already exists",
		})
	} else if !errors.Is(err, storage.ErrNotFound) {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error creating user",
		})
	}

	passwordHash, err := h.guard.HashPassword(reg.Password)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error creating user",
		})
	}

	aadhaarCiphertext, err := h.guard.EncryptIdentifier(reg.AadhaarNumber)
	if err != nil {
		if errors.Is(err, security.ErrInvalidIdentifier) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("%q is not a valid Aadhaar card number", reg.AadhaarNumber),
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error creating user",
		})
	}

	role := reg.Role
	if role == "" {
		role = models.RoleUser
	}

	user := &models.User{
		FullName:          strings.TrimSpace(reg.FullName),
		Username:          reg.Username,
		Email:             services.NormalizeEmail(reg.Email),
		Phone:             reg.Phone,
		Address:           strings.TrimSpace(reg.Address),
		Role:              role,
		PasswordHash:      passwordHash,
		AadhaarCiphertext: aadhaarCiphertext,
	}

	if _, err := h.store.CreateUser(user); err != nil {
		log.Printf("Failed to create user: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error creating user",
		})
	}

	// Best effort; signup succeeds even if the greeting bounces.
	go func() {
		_ = h.email.SendWelcomeEmail(user.Email, user.FullName)
	}()

	return c.Status(fiber.StatusCreated).JSON(utils.NewResponse(
		fiber.StatusCreated, "User created successfully", h.publicUser(user)))
}

// Signin handles login with email and password
func (h *UserHandler) Signin(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Password) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Email and password are required",
		})
	}

	user, err := h.store.GetUserByEmail(services.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error logging in",
		})
	}

	if !h.guard.VerifyPassword(req.Password, user.PasswordHash) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	}

	token, err := h.tokens.Generate(user)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error logging in",
		})
	}

	c.Cookie(&fiber.Cookie{
		Name:     middleware.AuthCookie,
		Value:    token,
		Expires:  time.Now().Add(h.tokens.Expiry()),
		HTTPOnly: true,
		SameSite: "Lax",
	})

	return c.JSON(utils.NewResponse(fiber.StatusOK, "Login successful", fiber.Map{
		"token": token,
		"user":  h.publicUser(user),
	}))
}

// Logout clears the session cookie
func (h *UserHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.AuthCookie,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
	})
	return c.JSON(utils.NewResponse(fiber.StatusOK, "Logged out successfully", nil))
}

// ForgotPassword issues a password-reset code and emails it
func (h *UserHandler) ForgotPassword(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Email is required",
		})
	}

	email := services.NormalizeEmail(req.Email)
	user, err := h.store.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error processing forgot password request",
		})
	}

	otp, err := h.otps.Issue(email, models.PurposePasswordReset)
	if err != nil {
		log.Printf("Failed to issue OTP for %s: %v", email, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error processing forgot password request",
		})
	}

	if err := h.email.SendOTPEmail(user.Email, otp.Code, user.FullName); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to send OTP email",
		})
	}

	// SMS is a convenience channel; its failure never blocks the reset.
	if h.sms != nil && user.Phone != "" {
		go func(phone, code string) {
			_ = h.sms.SendOTPSMS(phone, code)
		}(user.Phone, otp.Code)
	}

	return c.JSON(utils.NewResponse(fiber.StatusOK, "OTP sent successfully to your email", fiber.Map{
		"email":     user.Email,
		"expiresIn": h.otps.TTL().String(),
	}))
}

// VerifyOTP checks a reset code without consuming it
func (h *UserHandler) VerifyOTP(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
		OTP   string `json:"otp"`
	}
	if err := c.BodyParser(&req); err != nil || req.Email == "" || req.OTP == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Email and OTP are required",
		})
	}

	result, err := h.otps.Validate(req.Email, models.PurposePasswordReset, req.OTP)
	if err != nil {
		return otpError(c, err)
	}
	if !result.Verified {
		return mismatchError(c, result.RemainingAttempts)
	}

	return c.JSON(utils.NewResponse(fiber.StatusOK, "OTP verified successfully", fiber.Map{
		"message": "OTP is valid. You can now reset your password.",
	}))
}

// ResetPassword consumes a reset code and stores the new password hash
func (h *UserHandler) ResetPassword(c *fiber.Ctx) error {
	var req struct {
		Email       string `json:"email"`
		OTP         string `json:"otp"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.BodyParser(&req); err != nil || req.Email == "" || req.OTP == "" || req.NewPassword == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Email, OTP, and new password are required",
		})
	}
	if len(req.NewPassword) < 6 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Password must be at least 6 characters long",
		})
	}

	email := services.NormalizeEmail(req.Email)
	result, err := h.otps.Verify(email, models.PurposePasswordReset, req.OTP)
	if err != nil {
		return otpError(c, err)
	}
	if !result.Verified {
		return mismatchError(c, result.RemainingAttempts)
	}

	user, err := h.store.GetUserByEmail(email)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error resetting password",
		})
	}

	passwordHash, err := h.guard.HashPassword(req.NewPassword)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error resetting password",
		})
	}
	user.PasswordHash = passwordHash

	if err := h.store.UpdateUser(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error resetting password",
		})
	}

	// The code is already consumed; this clears the record set so it cannot
	// be replayed even if the used flag were lost.
	if err := h.otps.ConsumeAndInvalidate(email, models.PurposePasswordReset); err != nil {
		log.Printf("Failed to invalidate OTPs for %s: %v", email, err)
	}

	return c.JSON(utils.NewResponse(fiber.StatusOK, "Password reset successfully", fiber.Map{
		"message": "You can now login with your new password",
	}))
}

// CurrentUser returns the authenticated user's profile
func (h *UserHandler) CurrentUser(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Not authenticated",
		})
	}

	user, err := h.store.GetUserByID(userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	return c.JSON(utils.NewResponse(fiber.StatusOK, "Current user", h.publicUser(user)))
}

// UpdateUser patches profile fields. Password and Aadhaar are re-hashed or
// re-encrypted only when the request actually carries a new value; absent
// fields are left untouched.
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Not authenticated",
		})
	}

	var req struct {
		FullName      *string `json:"fullName"`
		Address       *string `json:"address"`
		Phone         *string `json:"phone"`
		Password      *string `json:"password"`
		AadhaarNumber *string `json:"aadhaarNumber"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	user, err := h.store.GetUserByID(userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "User not found",
		})
	}

	if req.FullName != nil && strings.TrimSpace(*req.FullName) != "" {
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Address != nil {
		user.Address = strings.TrimSpace(*req.Address)
	}
	if req.Phone != nil && *req.Phone != "" {
		user.Phone = *req.Phone
	}
	if req.Password != nil && *req.Password != "" {
		if len(*req.Password) < 6 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Password must be at least 6 characters long",
			})
		}
		hash, err := h.guard.HashPassword(*req.Password)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Error updating user",
			})
		}
		user.PasswordHash = hash
	}
	if req.AadhaarNumber != nil && *req.AadhaarNumber != "" {
		ciphertext, err := h.guard.EncryptIdentifier(*req.AadhaarNumber)
		if err != nil {
			if errors.Is(err, security.ErrInvalidIdentifier) {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": fmt.Sprintf("%q is not a valid Aadhaar card number", *req.AadhaarNumber),
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Error updating user",
			})
		}
		user.AadhaarCiphertext = ciphertext
	}

	if err := h.store.UpdateUser(user); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error updating user",
		})
	}

	return c.JSON(utils.NewResponse(fiber.StatusOK, "User updated successfully", h.publicUser(user)))
}

func (h *UserHandler) publicUser(user *models.User) models.PublicUser {
	pub := models.PublicUser{
		ID:       user.ID,
		FullName: user.FullName,
		Username: user.Username,
		Email:    user.Email,
		Phone:    user.Phone,
		Address:  user.Address,
		Role:     user.Role,
	}
	if user.AadhaarCiphertext != "" {
		pub.AadhaarMasked = h.guard.MaskIdentifier(user.AadhaarCiphertext)
	}
	return pub
}

func otpError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrOTPNotFound):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid or expired OTP",
		})
	case errors.Is(err, services.ErrOTPAlreadyUsed):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "OTP has already been used",
		})
	case errors.Is(err, services.ErrOTPAttemptsExceeded):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Maximum OTP attempts exceeded. Please request a new OTP.",
		})
	case errors.Is(err, services.ErrOTPExpired):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "OTP has expired",
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error verifying OTP",
		})
	}
}

func mismatchError(c *fiber.Ctx, remaining int) error {
	if remaining <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Maximum OTP attempts exceeded. Please request a new OTP.",
		})
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": fmt.Sprintf("Invalid OTP. %d attempts remaining.", remaining),
	})
}
