package convert

import (
	"bytes"
	"context"
	"encoding/binary"
	"io"
	"log/slog"
	"testing"
	"time"

	fmcap "github.com/foxglove/mcap/go/mcap"
	"github.com/google/gopacket"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BIwashi/sigcodec/pkg/cli"
	"github.com/BIwashi/sigcodec/pkg/dbc"
	"github.com/BIwashi/sigcodec/pkg/pcapng"
)

const network = `messages:
  - id: 0x100
    name: Wheel
    size: 2
    signals:
      - {name: speed, start: 0, size: 8, max: 200, unit: km/h}
      - {name: slip, start: 8, size: 8}
`

func capture(t *testing.T, frames ...[]byte) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	w, err := pcapgo.NewNgWriter(&buf, pcapng.LinkTypeCAN)
	require.NoError(t, err)
	for i, f := range frames {
		require.NoError(t, w.WritePacket(gopacket.CaptureInfo{
			Timestamp:     time.Unix(1700000000, int64(i)),
			CaptureLength: len(f),
			Length:        len(f),
		}, f))
	}
	require.NoError(t, w.Flush())
	return &buf
}

func frame(id uint32, data ...byte) []byte {
	out := make([]byte, 16)
	binary.LittleEndian.PutUint32(out, id)
	out[4] = byte(len(data))
	copy(out[8:], data)
	return out
}

func TestConvert(t *testing.T) {
	n, err := dbc.ParseYAML([]byte(network))
	require.NoError(t, err)
	in := capture(t,
		frame(0x100, 10, 1),
		frame(0x101, 1),
		frame(0x100, 250, 2),
		frame(0x100, 3),
	)

	var out bytes.Buffer
	input := cli.Input{Logger: slog.New(slog.NewTextHandler(io.Discard, nil)), Stdout: io.Discard}
	stats, err := Convert(context.Background(), input, n, in, &out)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.Frames)
	assert.Equal(t, 2, stats.Decoded)
	assert.Equal(t, 2, stats.Skipped, "unknown id and short frame")
	assert.Equal(t, 1, stats.OutOfRange)
	assert.Equal(t, 2, stats.Channels)
	assert.Equal(t, map[uint32]int{0x100: 2}, stats.PerMessage)

	reader, err := fmcap.NewReader(bytes.NewReader(out.Bytes()))
	require.NoError(t, err)
	info, err := reader.Info()
	require.NoError(t, err)
	assert.Equal(t, uint64(4), info.Statistics.MessageCount)
}

func TestConvertCancelled(t *testing.T) {
	n, err := dbc.ParseYAML([]byte(network))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	input := cli.Input{Logger: slog.New(slog.NewTextHandler(io.Discard, nil)), Stdout: io.Discard}
	_, err = Convert(ctx, input, n, capture(t, frame(0x100, 1, 2)), io.Discard)
	assert.ErrorIs(t, err, context.Canceled)
}
