package common

import (
	"encoding/hex"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeRandHexString(t *testing.T) {
	s, err := MakeRandHexString(16)
	require.NoError(t, err)
	assert.Len(t, s, 32)
	_, err = hex.DecodeString(s)
	assert.NoError(t, err, "must be valid hex")

	empty, err := MakeRandHexString(0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestWipeByteArray(t *testing.T) {
	buf := []byte("secret")
	WipeByteArray(buf)
	assert.Equal(t, make([]byte, 6), buf)

	// nil is a no-op
	WipeByteArray(nil)
}

func TestValidationError_MatchesSentinel(t *testing.T) {
	err := fmt.Errorf("register: %w", NewValidationError("password too short"))

	assert.True(t, errors.Is(err, ErrorValidation))
	assert.False(t, errors.Is(err, ErrorNotFound))

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "password too short", ve.Detail)
}
