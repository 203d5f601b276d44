package phone

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vidyasetu/auth-api/internal/domain"
)

func TestIsLocalFormat(t *testing.T) {
	assert.True(t, IsLocalFormat("9876543210"))
	assert.False(t, IsLocalFormat("987654321"))   // 9 digits
	assert.False(t, IsLocalFormat("98765432100")) // 11 digits
	assert.False(t, IsLocalFormat("98765x3210"))
	assert.False(t, IsLocalFormat(""))
}

func TestNormalize_Idempotent(t *testing.T) {
	once := Normalize("9876543210", "+91")
	assert.Equal(t, "+919876543210", once)
	assert.Equal(t, once, Normalize(once, "+91"))
}

func TestValidate_RejectsBadLength(t *testing.T) {
	_, err := Validate("12345", "+91")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSendFailure))
}

func TestValidate_AcceptsTenDigits(t *testing.T) {
	e164, err := Validate("9876543210", "+91")
	require.NoError(t, err)
	assert.Equal(t, "+919876543210", e164)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "+91 98******10", Mask("9876543210", "+91"))
	assert.Equal(t, "+91 98******10", Mask("+919876543210", "+91"))
	assert.Equal(t, "-", Mask("98765", "+91"))
}
