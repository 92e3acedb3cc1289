package id

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIDRoundTrip(t *testing.T) {
	generated, err := GenerateID()
	require.NoError(t, err)

	parsed, err := NewID(generated.Serialize())
	require.NoError(t, err)
	require.True(t, parsed.Equal(generated))
	require.Equal(t, *generated, *parsed)
	require.Equal(t, generated.String(), parsed.String())

	other, err := GenerateID()
	require.NoError(t, err)
	require.False(t, other.Equal(generated))

	_, err = NewID([]byte{1, 2, 3})
	require.Error(t, err)
}
