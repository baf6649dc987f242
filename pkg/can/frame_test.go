package can

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFrame(t *testing.T) {
	f, err := NewFrame(0x123, false, []byte{1, 2, 3})
	require.NoError(t, err)
	tf := TimedFrame{Frame: f}
	assert.Equal(t, []byte{1, 2, 3}, tf.Payload())

	_, err = NewFrame(0x123, false, make([]byte, 9))
	assert.True(t, errors.Is(err, ErrOutOfRange))
}

func TestParseFrame(t *testing.T) {
	f, err := ParseFrame("123#DEADBEEF")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x123), f.ID)
	assert.False(t, f.IsExtended)
	assert.Equal(t, uint8(4), f.Length)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, f.Data[:4])

	f, err = ParseFrame("18FEF100#01")
	require.NoError(t, err)
	assert.True(t, f.IsExtended)
	assert.Equal(t, uint32(0x18FEF100), f.ID)

	_, err = ParseFrame("nonsense")
	assert.Error(t, err)
}

func TestParseID(t *testing.T) {
	id, err := ParseID("0x200")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x200), id)

	id, err = ParseID("512")
	require.NoError(t, err)
	assert.Equal(t, uint32(512), id)

	_, err = ParseID("0x20000000")
	assert.True(t, errors.Is(err, ErrOutOfRange))
	_, err = ParseID("zz")
	assert.Error(t, err)
}
