package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOTP(t *testing.T) {
	clear, digest, err := NewOTP(16)
	require.NoError(t, err)

	assert.Len(t, clear, 32)  // hex от 16 байт
	assert.Len(t, digest, 64) // hex от sha256
	assert.NotEqual(t, clear, digest)
	assert.Equal(t, HashOTP(clear), digest)
}

func TestNewOTP_DefaultLength(t *testing.T) {
	clear, _, err := NewOTP(0)
	require.NoError(t, err)
	assert.Len(t, clear, 32)
}

func TestNewOTP_Unique(t *testing.T) {
	a, _, err := NewOTP(16)
	require.NoError(t, err)
	b, _, err := NewOTP(16)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHashOTP_Deterministic(t *testing.T) {
	assert.Equal(t, HashOTP("abcdef"), HashOTP("abcdef"))
	assert.NotEqual(t, HashOTP("abcdef"), HashOTP("abcdeg"))
}

func TestNewCorrelationID(t *testing.T) {
	a := NewCorrelationID()
	b := NewCorrelationID()
	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
}
