package dbc

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetwork(t *testing.T) {
	network := NewNetwork("1")
	for id, name := range map[uint32]string{0x300: "MD", 0x100: "MB", 0x200: "MC"} {
		m, err := NewMessage(id, name, 1, NewSignal("s", le(0, 8)))
		require.NoError(t, err)
		require.NoError(t, network.AddMessage(m))
	}
	assert.Equal(t, 3, network.MessageCount())

	var ids []uint32
	for m := range network.Messages() {
		ids = append(ids, m.ID)
	}
	assert.Equal(t, []uint32{0x100, 0x200, 0x300}, ids)

	m, ok := network.GetMessage(0x200)
	require.True(t, ok)
	assert.Equal(t, "MC", m.Name)
	byName, ok := network.MessageByName("MB")
	require.True(t, ok)
	assert.Equal(t, uint32(0x100), byName.ID)

	dup, err := NewMessage(0x100, "Other", 1)
	require.NoError(t, err)
	assert.True(t, errors.Is(network.AddMessage(dup), ErrDuplicateMessage))

	sameName, err := NewMessage(0x400, "MB", 1)
	require.NoError(t, err)
	assert.True(t, errors.Is(network.AddMessage(sameName), ErrDuplicateMessage))

	_, err = network.Message(0x999)
	assert.True(t, errors.Is(err, ErrUnknownMessage))
	_, err = network.Signal(0x100, "missing")
	assert.True(t, errors.Is(err, ErrUnknownSignal))
	s, err := network.Signal(0x100, "s")
	require.NoError(t, err)
	assert.Equal(t, 8, s.Size)
}
