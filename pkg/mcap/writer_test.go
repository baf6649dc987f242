package mcap

import (
	"bytes"
	"testing"
	"time"

	"github.com/foxglove/mcap/go/mcap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ecan "go.einride.tech/can"

	"github.com/BIwashi/sigcodec/pkg/can"
	"github.com/BIwashi/sigcodec/pkg/dbc"
	sigproto "github.com/BIwashi/sigcodec/pkg/proto"
)

func testDecoder(t *testing.T) *dbc.Decoder {
	t.Helper()
	speed := dbc.NewSignal("speed", can.Layout{StartBit: 0, Size: 16})
	speed.Scaling = can.Scaling{Factor: 0.01}
	speed.Unit = "km/h"
	gear := dbc.NewSignal("gear", can.Layout{StartBit: 16, Size: 4})
	m, err := dbc.NewMessage(0x123, "Drive", 3, speed, gear)
	require.NoError(t, err)

	network := dbc.NewNetwork("")
	require.NoError(t, network.AddMessage(m))
	return dbc.NewDecoder(network)
}

func TestWriter(t *testing.T) {
	decoder := testDecoder(t)
	var out bytes.Buffer
	w, err := NewWriter(&out)
	require.NoError(t, err)

	for i := range 3 {
		decoded, err := decoder.DecodeFrame(&can.TimedFrame{
			Frame:     ecan.Frame{ID: 0x123, Length: 3, Data: ecan.Data{byte(i), 0x10, 0x02}},
			Timestamp: time.Unix(100, int64(i)),
		})
		require.NoError(t, err)
		require.NoError(t, w.WriteMessage(decoded))
	}
	assert.Equal(t, 2, w.ChannelCount())
	require.NoError(t, w.Close())

	assert.True(t, bytes.HasPrefix(out.Bytes(), []byte("\x89MCAP0\r\n")))

	reader, err := mcap.NewReader(bytes.NewReader(out.Bytes()))
	require.NoError(t, err)
	info, err := reader.Info()
	require.NoError(t, err)
	assert.Equal(t, uint64(6), info.Statistics.MessageCount)
	require.Len(t, info.Channels, 2)

	topics := map[string]map[string]string{}
	for _, ch := range info.Channels {
		topics[ch.Topic] = ch.Metadata
	}
	require.Contains(t, topics, "/can/Drive/speed")
	assert.Equal(t, "km/h", topics["/can/Drive/speed"]["unit"])
	assert.Equal(t, "0x123", topics["/can/Drive/gear"]["can_id"])

	for _, schema := range info.Schemas {
		assert.Equal(t, sigproto.FullName, schema.Name)
	}
}

func TestWriteSignalNil(t *testing.T) {
	w, err := NewWriter(&bytes.Buffer{})
	require.NoError(t, err)
	assert.Error(t, w.WriteSignal(nil))
}
