package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidIdentifier = errors.New("identifier must be exactly 12 digits")
	ErrDecryptionFailed  = errors.New("decryption failed")
)

const (
	// bcrypt work factor, matching what existing password hashes were
	// created with.
	bcryptCost = 10

	keySize = 32 // AES-256
	ivSize  = 16

	// FullyMasked is the display form used when the stored ciphertext
	// cannot be decrypted. Display paths never surface crypto errors.
	FullyMasked = "XXXX XXXX XXXX"
)

var identifierPattern = regexp.MustCompile(`^\d{12}$`)

// CredentialGuard hashes passwords one-way and reversibly encrypts the
// Aadhaar identifier with a process-wide AES-256 key. The key is read-only
// after construction, so the guard is safe for concurrent use.
type CredentialGuard struct {
	aead cipher.AEAD
}

// NewCredentialGuard builds a guard from a hex-encoded 32-byte key. When the
// key is empty a random one is generated for the process lifetime; any
// ciphertext stored under it is unrecoverable after a restart, so this mode
// is only acceptable for fresh or throwaway deployments.
func NewCredentialGuard(hexKey string) (*CredentialGuard, error) {
	var key []byte
	if hexKey == "" {
		key = make([]byte, keySize)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("failed to generate encryption key: %w", err)
		}
		log.Println("⚠️  ENCRYPTION_KEY not set - generated a temporary key; stored ciphertext will be unreadable after restart")
	} else {
		var err error
		key, err = hex.DecodeString(hexKey)
		if err != nil {
			return nil, fmt.Errorf("ENCRYPTION_KEY is not valid hex: %w", err)
		}
		if len(key) != keySize {
			return nil, fmt.Errorf("ENCRYPTION_KEY must be %d bytes, got %d", keySize, len(key))
		}
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &CredentialGuard{aead: aead}, nil
}

// HashPassword returns a salted one-way hash of the plaintext. Callers decide
// when a password actually changed; this never inspects stored state.
func (g *CredentialGuard) HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether the candidate matches the stored hash. A
// mismatch is a false return, never an error.
func (g *CredentialGuard) VerifyPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// EncryptIdentifier encrypts a 12-digit identifier into a
// hex(iv):hex(ciphertext) token. A fresh random 16-byte IV is generated per
// call, so encrypting the same value twice yields different tokens.
func (g *CredentialGuard) EncryptIdentifier(plaintext string) (string, error) {
	if !identifierPattern.MatchString(plaintext) {
		return "", ErrInvalidIdentifier
	}

	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("failed to generate IV: %w", err)
	}

	ciphertext := g.aead.Seal(nil, iv, []byte(plaintext), nil)
	return hex.EncodeToString(iv) + ":" + hex.EncodeToString(ciphertext), nil
}

// DecryptIdentifier reverses EncryptIdentifier. Malformed tokens and
// ciphertext that does not authenticate under the current key both return
// ErrDecryptionFailed.
func (g *CredentialGuard) DecryptIdentifier(token string) (string, error) {
	ivHex, ctHex, found := strings.Cut(token, ":")
	if !found {
		return "", fmt.Errorf("%w: malformed token", ErrDecryptionFailed)
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != ivSize {
		return "", fmt.Errorf("%w: invalid IV", ErrDecryptionFailed)
	}
	ciphertext, err := hex.DecodeString(ctHex)
	if err != nil {
		return "", fmt.Errorf("%w: invalid ciphertext", ErrDecryptionFailed)
	}

	plaintext, err := g.aead.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}
	return string(plaintext), nil
}

// MaskIdentifier renders the encrypted identifier for display, showing only
// the last 4 digits. Any decryption failure falls back to the fully masked
// placeholder instead of propagating.
func (g *CredentialGuard) MaskIdentifier(token string) string {
	plaintext, err := g.DecryptIdentifier(token)
	if err != nil || len(plaintext) < 4 {
		return FullyMasked
	}
	return "XXXX XXXX " + plaintext[len(plaintext)-4:]
}
