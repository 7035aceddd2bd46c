package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gorefurbish/backend/internal/config"
	"github.com/gorefurbish/backend/internal/middleware"
	"github.com/gorefurbish/backend/internal/security"
	"github.com/gorefurbish/backend/internal/services"
	"github.com/gorefurbish/backend/internal/storage"
)

type fakeMailer struct {
	mu       sync.Mutex
	lastTo   string
	lastCode string
	failOTP  bool
	welcomes int
}

func (f *fakeMailer) SendOTPEmail(to, code, fullName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOTP {
		return fmt.Errorf("smtp unavailable")
	}
	f.lastTo = to
	f.lastCode = code
	return nil
}

func (f *fakeMailer) SendWelcomeEmail(to, fullName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.welcomes++
	return nil
}

func (f *fakeMailer) code() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastCode
}

func (f *fakeMailer) setFailOTP(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failOTP = fail
}

const testEncryptionKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newTestApp(t *testing.T) (*fiber.App, *fakeMailer) {
	t.Helper()

	guard, err := security.NewCredentialGuard(testEncryptionKey)
	require.NoError(t, err)

	tokens, err := services.NewTokenService(config.JWT{Secret: "test-secret", Expiry: time.Hour})
	require.NoError(t, err)

	store := storage.NewMemoryStore()
	mailer := &fakeMailer{}
	otps := services.NewOTPService(store, 10*time.Minute)
	h := NewUserHandler(store, guard, otps, tokens, mailer, nil)

	app := fiber.New()
	app.Post("/api/users/signup", h.Signup)
	app.Post("/api/users/signin", h.Signin)
	app.Post("/api/users/logout", h.Logout)
	app.Post("/api/users/forgot-password", h.ForgotPassword)
	app.Post("/api/users/verify-otp", h.VerifyOTP)
	app.Post("/api/users/reset-password", h.ResetPassword)
	app.Get("/api/users/current", middleware.Authenticate(tokens), h.CurrentUser)
	app.Patch("/api/users/update", middleware.Authenticate(tokens), h.UpdateUser)

	return app, mailer
}

func postJSON(t *testing.T, app *fiber.App, path string, body map[string]interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}

func signupDefaultUser(t *testing.T, app *fiber.App) {
	t.Helper()

	resp, _ := postJSON(t, app, "/api/users/signup", map[string]interface{}{
		"fullName":      "Asha Verma",
		"username":      "asha",
		"email":         "Asha@Example.com",
		"phone":         "+911234567890",
		"address":       "42 MG Road, Pune",
		"aadhaarNumber": "123456789012",
		"password":      "original-pass",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func TestSignupValidation(t *testing.T) {
	app, _ := newTestApp(t)

	t.Run("missing fields", func(t *testing.T) {
		resp, body := postJSON(t, app, "/api/users/signup", map[string]interface{}{
			"fullName": "Asha Verma",
			"email":    "asha@example.com",
		})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "All fields are required", body["error"])
	})

	t.Run("invalid role", func(t *testing.T) {
		resp, body := postJSON(t, app, "/api/users/signup", map[string]interface{}{
			"fullName":      "Asha Verma",
			"username":      "asha",
			"email":         "asha@example.com",
			"phone":         "+911234567890",
			"aadhaarNumber": "123456789012",
			"password":      "original-pass",
			"role":          "overlord",
		})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Invalid role specified", body["error"])
	})

	t.Run("invalid aadhaar", func(t *testing.T) {
		resp, _ := postJSON(t, app, "/api/users/signup", map[string]interface{}{
			"fullName":      "Asha Verma",
			"username":      "asha",
			"email":         "asha@example.com",
			"phone":         "+911234567890",
			"aadhaarNumber": "12345",
			"password":      "original-pass",
		})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})

	t.Run("duplicate user", func(t *testing.T) {
		signupDefaultUser(t, app)
		resp, body := postJSON(t, app, "/api/users/signup", map[string]interface{}{
			"fullName":      "Asha Clone",
			"username":      "asha",
			"email":         "asha@example.com",
			"phone":         "+919999999999",
			"aadhaarNumber": "123456789012",
			"password":      "other-pass",
		})
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "User already exists", body["error"])
	})
}

func TestSigninAndCurrentUser(t *testing.T) {
	app, _ := newTestApp(t)
	signupDefaultUser(t, app)

	resp, body := postJSON(t, app, "/api/users/signin", map[string]interface{}{
		"email":    "asha@example.com",
		"password": "original-pass",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]interface{})
	token := data["token"].(string)
	require.NotEmpty(t, token)

	req := httptest.NewRequest(http.MethodGet, "/api/users/current", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	current := decodeBody(t, resp)["data"].(map[string]interface{})
	assert.Equal(t, "asha", current["username"])
	assert.Equal(t, "XXXX XXXX 9012", current["aadhaarMasked"], "Aadhaar is only exposed masked")

	t.Run("wrong password", func(t *testing.T) {
		resp, body := postJSON(t, app, "/api/users/signin", map[string]interface{}{
			"email":    "asha@example.com",
			"password": "wrong-pass",
		})
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Invalid credentials", body["error"])
	})

	t.Run("unknown user", func(t *testing.T) {
		resp, _ := postJSON(t, app, "/api/users/signin", map[string]interface{}{
			"email":    "nobody@example.com",
			"password": "whatever",
		})
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/users/current", nil)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}

func TestPasswordResetFlow(t *testing.T) {
	app, mailer := newTestApp(t)
	signupDefaultUser(t, app)

	// Request a reset code.
	resp, body := postJSON(t, app, "/api/users/forgot-password", map[string]interface{}{
		"email": "asha@example.com",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "OTP sent successfully to your email", body["message"])

	code := mailer.code()
	require.Regexp(t, `^\d{6}$`, code)

	wrong := "000000"
	if code == wrong {
		wrong = "000001"
	}

	// A wrong guess burns an attempt.
	resp, body = postJSON(t, app, "/api/users/verify-otp", map[string]interface{}{
		"email": "asha@example.com",
		"otp":   wrong,
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid OTP. 2 attempts remaining.", body["error"])

	// The right code previews fine without consuming.
	resp, _ = postJSON(t, app, "/api/users/verify-otp", map[string]interface{}{
		"email": "asha@example.com",
		"otp":   code,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Short passwords are rejected before touching the code.
	resp, _ = postJSON(t, app, "/api/users/reset-password", map[string]interface{}{
		"email":       "asha@example.com",
		"otp":         code,
		"newPassword": "tiny",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// Reset with the still-live code.
	resp, body = postJSON(t, app, "/api/users/reset-password", map[string]interface{}{
		"email":       "asha@example.com",
		"otp":         code,
		"newPassword": "brand-new-pass",
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "Password reset successfully", body["message"])

	// The code cannot be replayed.
	resp, body = postJSON(t, app, "/api/users/reset-password", map[string]interface{}{
		"email":       "asha@example.com",
		"otp":         code,
		"newPassword": "another-pass",
	})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid or expired OTP", body["error"])

	// Old password is dead, new one works.
	resp, _ = postJSON(t, app, "/api/users/signin", map[string]interface{}{
		"email":    "asha@example.com",
		"password": "original-pass",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = postJSON(t, app, "/api/users/signin", map[string]interface{}{
		"email":    "asha@example.com",
		"password": "brand-new-pass",
	})
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestForgotPasswordFailures(t *testing.T) {
	app, mailer := newTestApp(t)
	signupDefaultUser(t, app)

	t.Run("unknown email", func(t *testing.T) {
		resp, _ := postJSON(t, app, "/api/users/forgot-password", map[string]interface{}{
			"email": "nobody@example.com",
		})
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})

	t.Run("delivery failure surfaces", func(t *testing.T) {
		mailer.setFailOTP(true)
		defer mailer.setFailOTP(false)

		resp, body := postJSON(t, app, "/api/users/forgot-password", map[string]interface{}{
			"email": "asha@example.com",
		})
		assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, "Failed to send OTP email", body["error"])
	})
}

func TestUpdateUserExplicitFields(t *testing.T) {
	app, _ := newTestApp(t)
	signupDefaultUser(t, app)

	_, body := postJSON(t, app, "/api/users/signin", map[string]interface{}{
		"email":    "asha@example.com",
		"password": "original-pass",
	})
	token := body["data"].(map[string]interface{})["token"].(string)

	payload, err := json.Marshal(map[string]interface{}{
		"address":       "7 New Lane, Mumbai",
		"aadhaarNumber": "999988887777",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPatch, "/api/users/update", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	data := decodeBody(t, resp)["data"].(map[string]interface{})
	assert.Equal(t, "7 New Lane, Mumbai", data["address"])
	assert.Equal(t, "XXXX XXXX 7777", data["aadhaarMasked"], "new identifier is re-encrypted")

	// Password was not in the request, so the old one still works.
	resp2, _ := postJSON(t, app, "/api/users/signin", map[string]interface{}{
		"email":    "asha@example.com",
		"password": "original-pass",
	})
	assert.Equal(t, fiber.StatusOK, resp2.StatusCode)
}
