package dbc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BIwashi/sigcodec/pkg/can"
)

func names(signals []*Signal) []string {
	out := make([]string, 0, len(signals))
	for _, s := range signals {
		out = append(out, s.Name)
	}
	return out
}

func TestResolveWithoutMultiplexor(t *testing.T) {
	m, err := NewMessage(1, "Plain", 2, NewSignal("a", le(0, 8)), NewSignal("b", le(8, 8)))
	require.NoError(t, err)

	active, err := m.Resolve([]byte{0xff, 0xff})
	require.NoError(t, err)
	assert.Nil(t, active.Switch)
	assert.Equal(t, []string{"a", "b"}, names(active.Signals))
	assert.Nil(t, m.Multiplexor())
}

func TestResolveSwitchValues(t *testing.T) {
	m := muxedMessage(t)

	tests := []struct {
		name        string
		buf         []byte
		wantSwitch  uint64
		wantSignals []string
	}{
		{"no match", []byte{0, 0, 0, 0}, 0, []string{"multiplexor", "signal_1"}},
		{"first", []byte{1, 0, 0, 0}, 1, []string{"multiplexor", "signal_1", "signal_2a"}},
		{"second", []byte{2, 0, 0, 0}, 2, []string{"multiplexor", "signal_1", "signal_2b"}},
		{"unknown value", []byte{9, 0, 0, 0}, 9, []string{"multiplexor", "signal_1"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			active, err := m.Resolve(tc.buf)
			require.NoError(t, err)
			require.NotNil(t, active.Switch)
			assert.Equal(t, "multiplexor", active.Switch.Name)
			assert.Equal(t, tc.wantSwitch, active.SwitchValue)
			assert.Equal(t, tc.wantSignals, names(active.Signals))
		})
	}
}

func TestResolveSignedSwitch(t *testing.T) {
	mux := NewSignal("mux", can.Layout{StartBit: 0, Size: 4, ValueType: can.Signed})
	mux.Mux = MuxSwitch()
	high := NewSignal("high", le(8, 8))
	high.Mux = MuxValue(0xf)

	m, err := NewMessage(1, "Signed", 2, mux, high)
	require.NoError(t, err)

	// 0xf decodes as -1 but selects by its raw pattern.
	active, err := m.Resolve([]byte{0x0f, 0x00})
	require.NoError(t, err)
	assert.Equal(t, uint64(0xf), active.SwitchValue)
	assert.Equal(t, []string{"mux", "high"}, names(active.Signals))
	assert.True(t, active.IsActive(high))
}
