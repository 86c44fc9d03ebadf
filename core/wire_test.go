package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatewaymux/gatewaymux/core"
)

func TestWire_RoundTrip(t *testing.T) {
	props := core.NewProperties(map[string]string{"trace-id": "abc", "k": "v"}, []string{"trace-id", "k"})
	original := core.NewMessage([]byte("payload-bytes"), props)

	data := original.ToBytes()
	decoded, err := core.FromBytes(data)
	require.NoError(t, err)

	assert.True(t, original.Equal(decoded))
}

func TestWire_RoundTrip_EmptyPayloadAndProperties(t *testing.T) {
	original := core.NewMessage(nil, nil)

	data := original.ToBytes()
	decoded, err := core.FromBytes(data)
	require.NoError(t, err)

	assert.True(t, original.Equal(decoded))
}

func TestWire_RejectsBadMagic(t *testing.T) {
	_, err := core.FromBytes([]byte{0, 1, 2, 3, 4})
	assert.Error(t, err)
}

func TestWire_RejectsUnsupportedVersion(t *testing.T) {
	m := core.NewMessage([]byte("x"), nil)
	data := m.ToBytes()
	data[4] = 0xFF // version byte, right after the 4-byte magic
	_, err := core.FromBytes(data)
	assert.Error(t, err)
}
