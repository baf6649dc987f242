package encode

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BIwashi/sigcodec/pkg/can"
	"github.com/BIwashi/sigcodec/pkg/dbc"
)

const network = `messages:
  - id: 0x200
    name: Engine
    size: 4
    signals:
      - {name: mode, start: 0, size: 8, mux: switch}
      - {name: rpm, start: 15, size: 16, order: big, factor: 0.25, mux: m1}
      - {name: temp, start: 8, size: 8, type: signed, offset: -40, mux: m2}
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "net.yaml")
	require.NoError(t, os.WriteFile(path, []byte(network), 0o644))

	var stdout bytes.Buffer
	cmd := NewCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--network", path}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func TestEncode(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []byte
	}{
		{"physical", []string{"--id", "0x200", "--set", "rpm=2000", "--set", "mode=1"}, []byte{0x01, 0x1f, 0x40, 0x00}},
		{"by name", []string{"--id", "Engine", "--set", "mode=2", "--set", "temp=-39"}, []byte{0x02, 0x01, 0x00, 0x00}},
		{"raw", []string{"--id", "512", "--raw", "--set", "mode=2", "--set", "temp=-1"}, []byte{0x02, 0xff, 0x00, 0x00}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			out, err := run(t, tc.args...)
			require.NoError(t, err)
			f, err := can.ParseFrame(strings.TrimSpace(out))
			require.NoError(t, err)
			assert.Equal(t, uint32(0x200), f.ID)
			assert.Equal(t, uint8(4), f.Length)
			assert.Equal(t, tc.want, f.Data[:4])
		})
	}
}

func TestEncodeErrors(t *testing.T) {
	_, err := run(t, "--id", "0x300")
	assert.True(t, errors.Is(err, dbc.ErrUnknownMessage))

	_, err = run(t, "--id", "0x200", "--set", "gear=1")
	assert.True(t, errors.Is(err, dbc.ErrUnknownSignal))

	_, err = run(t, "--id", "0x200", "--set", "rpm")
	assert.Error(t, err)

	_, err = run(t, "--id", "0x200", "--raw", "--set", "rpm=1.5")
	assert.Error(t, err)
}
