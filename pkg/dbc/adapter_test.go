package dbc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BIwashi/sigcodec/pkg/can"
)

const testDBC = `VERSION "1.0"

NS_ :

BS_:

BU_: ECU1 ECU2

BO_ 256 Muxed: 4 ECU1
 SG_ multiplexor M : 0|8@1+ (1,0) [0|255] "" ECU2
 SG_ signal_1 : 8|8@1+ (1,0) [0|255] "" ECU2
 SG_ signal_2a m1 : 16|16@1+ (1,0) [0|65535] "" ECU2
 SG_ signal_2b m2 : 16|16@1+ (1,0) [0|65535] "" ECU2

BO_ 512 Engine: 8 ECU1
 SG_ rpm : 7|16@0+ (0.25,0) [0|16383.75] "rpm" ECU2
 SG_ temp : 16|8@1- (1,-40) [-40|87] "degC" ECU2
 SG_ ratio : 32|32@1- (1,0) [0|0] "" ECU2

CM_ BO_ 512 "Engine status";
CM_ SG_ 512 rpm "Engine speed";
VAL_ 512 temp 0 "cold" 1 "warm" ;
SIG_VALTYPE_ 512 ratio : 1;
`

func TestParse(t *testing.T) {
	network, err := Parse("test.dbc", []byte(testDBC))
	require.NoError(t, err)

	assert.Equal(t, "1.0", network.Version)
	assert.Equal(t, []string{"ECU1", "ECU2"}, network.Nodes)
	assert.Equal(t, 2, network.MessageCount())

	muxed, err := network.Message(0x100)
	require.NoError(t, err)
	assert.Equal(t, "Muxed", muxed.Name)
	assert.Equal(t, 4, muxed.Size)
	assert.Equal(t, "ECU1", muxed.Sender)
	require.NotNil(t, muxed.Multiplexor())
	assert.Equal(t, "multiplexor", muxed.Multiplexor().Name)

	s2b, err := network.Signal(0x100, "signal_2b")
	require.NoError(t, err)
	assert.Equal(t, MuxValue(2), s2b.Mux)
	assert.Equal(t, []string{"ECU2"}, s2b.Receivers)

	engine, ok := network.MessageByName("Engine")
	require.True(t, ok)
	assert.Equal(t, "Engine status", engine.Description)

	rpm, ok := engine.Signal("rpm")
	require.True(t, ok)
	assert.Equal(t, can.BigEndian, rpm.ByteOrder)
	assert.Equal(t, 7, rpm.StartBit)
	assert.Equal(t, 0.25, rpm.Scaling.Factor)
	assert.Equal(t, "rpm", rpm.Unit)
	assert.Equal(t, "Engine speed", rpm.Description)
	require.NotNil(t, rpm.Bounds)
	assert.Equal(t, 16383.75, rpm.Bounds.Max)

	temp, _ := engine.Signal("temp")
	assert.Equal(t, can.Signed, temp.ValueType)
	assert.Equal(t, map[int64]string{0: "cold", 1: "warm"}, temp.ValueDescriptions)

	ratio, _ := engine.Signal("ratio")
	assert.Equal(t, can.Float, ratio.ValueType)
	assert.Nil(t, ratio.Bounds)
}

func TestParsedNetworkDecodes(t *testing.T) {
	network, err := Parse("test.dbc", []byte(testDBC))
	require.NoError(t, err)
	engine, err := network.Message(0x200)
	require.NoError(t, err)

	buf := engine.NewPayload()
	require.NoError(t, engine.EncodeOne(buf, "rpm", Physical(2000)))
	require.NoError(t, engine.EncodeOne(buf, "temp", Physical(-39)))
	require.NoError(t, engine.EncodeOne(buf, "ratio", Physical(1.5)))
	assert.Equal(t, []byte{0x1f, 0x40, 0x01}, buf[:3])

	values, err := engine.DecodeAll(buf)
	require.NoError(t, err)
	rpm, _ := values.Get("rpm")
	assert.Equal(t, 2000.0, rpm.Physical)
	temp, _ := values.Get("temp")
	assert.Equal(t, -39.0, temp.Physical)
	assert.Equal(t, "warm", temp.Description)
	ratio, _ := values.Get("ratio")
	assert.Equal(t, 1.5, ratio.Physical)
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse("bad.dbc", []byte("BO_ 1 Broken: 1 ECU\n SG_ wide : 0|16@1+ (1,0) [0|0] \"\" ECU\n"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	dbcPath := filepath.Join(dir, "net.dbc")
	require.NoError(t, os.WriteFile(dbcPath, []byte(testDBC), 0o644))

	network, err := LoadFile(dbcPath)
	require.NoError(t, err)
	assert.Equal(t, 2, network.MessageCount())

	_, err = LoadFile(filepath.Join(dir, "missing.dbc"))
	assert.Error(t, err)
}
