package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParticipantID(t *testing.T) {
	id, err := NewParticipantID("  7B1C2A64-0F0E-4C7D-9A75-3D2B5F8A1C10  ")
	require.NoError(t, err)
	assert.Equal(t, "7b1c2a64-0f0e-4c7d-9a75-3d2b5f8a1c10", id.String())
	assert.True(t, id.IsValid())
	assert.False(t, id.IsEmpty())
}

func TestNewParticipantID_Malformed(t *testing.T) {
	for _, raw := range []string{"", "ghost", "7b1c2a64-0f0e-4c7d-9a75", "not-a-uuid-at-all-but-long-enough"} {
		_, err := NewParticipantID(raw)
		assert.ErrorIs(t, err, ErrInvalidFormat, "raw=%q", raw)
	}
}

func TestNewBaseline(t *testing.T) {
	for _, v := range []float64{0, 0.5, 1} {
		b, err := NewBaseline(v)
		require.NoError(t, err)
		assert.Equal(t, v, b.Float64())
	}

	for _, v := range []float64{-0.01, 1.01} {
		_, err := NewBaseline(v)
		assert.ErrorIs(t, err, ErrValueOutOfRange, "value=%v", v)
	}
}
