package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newTestGuard(t *testing.T) *CredentialGuard {
	t.Helper()
	guard, err := NewCredentialGuard(testKey)
	require.NoError(t, err)
	return guard
}

func TestNewCredentialGuard(t *testing.T) {
	t.Run("valid hex key", func(t *testing.T) {
		guard, err := NewCredentialGuard(testKey)
		require.NoError(t, err)
		assert.NotNil(t, guard)
	})

	t.Run("empty key generates a process key", func(t *testing.T) {
		guard, err := NewCredentialGuard("")
		require.NoError(t, err)

		token, err := guard.EncryptIdentifier("123456789012")
		require.NoError(t, err)
		plaintext, err := guard.DecryptIdentifier(token)
		require.NoError(t, err)
		assert.Equal(t, "123456789012", plaintext)
	})

	t.Run("invalid hex", func(t *testing.T) {
		_, err := NewCredentialGuard("not-hex")
		assert.Error(t, err)
	})

	t.Run("wrong key length", func(t *testing.T) {
		_, err := NewCredentialGuard("0011223344")
		assert.Error(t, err)
	})
}

func TestEncryptDecryptIdentifier(t *testing.T) {
	guard := newTestGuard(t)

	for _, id := range []string{"123456789012", "000000000000", "999999999999"} {
		token, err := guard.EncryptIdentifier(id)
		require.NoError(t, err)

		iv, ct, found := strings.Cut(token, ":")
		require.True(t, found, "token must be iv:ciphertext")
		assert.Len(t, iv, 32, "hex-encoded 16-byte IV")
		assert.NotEmpty(t, ct)

		plaintext, err := guard.DecryptIdentifier(token)
		require.NoError(t, err)
		assert.Equal(t, id, plaintext)
	}
}

func TestEncryptIdentifierFreshIV(t *testing.T) {
	guard := newTestGuard(t)

	first, err := guard.EncryptIdentifier("123456789012")
	require.NoError(t, err)
	second, err := guard.EncryptIdentifier("123456789012")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "same plaintext must yield different tokens")
}

func TestEncryptIdentifierValidation(t *testing.T) {
	guard := newTestGuard(t)

	for _, bad := range []string{"", "12345678901", "1234567890123", "12345678901a", "abcdefghijkl", "12345 789012"} {
		_, err := guard.EncryptIdentifier(bad)
		assert.ErrorIs(t, err, ErrInvalidIdentifier, "input %q", bad)
	}
}

func TestDecryptIdentifierFailures(t *testing.T) {
	guard := newTestGuard(t)

	t.Run("missing delimiter", func(t *testing.T) {
		_, err := guard.DecryptIdentifier("deadbeef")
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("garbage hex", func(t *testing.T) {
		_, err := guard.DecryptIdentifier("zzzz:zzzz")
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("tampered ciphertext", func(t *testing.T) {
		token, err := guard.EncryptIdentifier("123456789012")
		require.NoError(t, err)

		tampered := token[:len(token)-2] + "00"
		if tampered == token {
			tampered = token[:len(token)-2] + "11"
		}
		_, err = guard.DecryptIdentifier(tampered)
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})

	t.Run("wrong key", func(t *testing.T) {
		token, err := guard.EncryptIdentifier("123456789012")
		require.NoError(t, err)

		other, err := NewCredentialGuard("ffeeddccbbaa99887766554433221100ffeeddccbbaa99887766554433221100")
		require.NoError(t, err)

		_, err = other.DecryptIdentifier(token)
		assert.ErrorIs(t, err, ErrDecryptionFailed)
	})
}

func TestMaskIdentifier(t *testing.T) {
	guard := newTestGuard(t)

	token, err := guard.EncryptIdentifier("123456789012")
	require.NoError(t, err)
	assert.Equal(t, "XXXX XXXX 9012", guard.MaskIdentifier(token))

	// Display paths fail closed instead of erroring.
	assert.Equal(t, FullyMasked, guard.MaskIdentifier("corrupted"))
	assert.Equal(t, FullyMasked, guard.MaskIdentifier("dead:beef"))
	assert.Equal(t, FullyMasked, guard.MaskIdentifier(""))
}

func TestHashAndVerifyPassword(t *testing.T) {
	guard := newTestGuard(t)

	hash, err := guard.HashPassword("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.True(t, guard.VerifyPassword("s3cret-pass", hash))
	assert.False(t, guard.VerifyPassword("s3cret-passx", hash))
	assert.False(t, guard.VerifyPassword("", hash))
	assert.False(t, guard.VerifyPassword("s3cret-pass", "not-a-hash"))
}
