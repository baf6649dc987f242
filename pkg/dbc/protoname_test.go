package dbc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/BIwashi/sigcodec/pkg/can"
)

func TestToProtoFieldName(t *testing.T) {
	tests := map[string]string{
		"EngineSpeed":  "enginespeed",
		"wheel-speed":  "wheel_speed",
		"2nd_gear":     "_2nd_gear",
		"Temp (degC)":  "temp_degc_",
		"already_good": "already_good",
	}
	for in, want := range tests {
		assert.Equal(t, want, ToProtoFieldName(in), in)
	}
}

func TestToProtoMessageName(t *testing.T) {
	tests := map[string]string{
		"ENGINE_STATUS": "EngineStatus",
		"wheel-speeds":  "WheelSpeeds",
		"1st frame":     "M1stFrame",
		"Brake":         "Brake",
	}
	for in, want := range tests {
		assert.Equal(t, want, ToProtoMessageName(in), in)
	}
}

func TestProtoType(t *testing.T) {
	tests := []struct {
		name   string
		signal *Signal
		want   string
	}{
		{"unsigned", NewSignal("a", can.Layout{Size: 8}), "uint32"},
		{"wide unsigned", NewSignal("a", can.Layout{Size: 40}), "uint64"},
		{"signed", NewSignal("a", can.Layout{Size: 12, ValueType: can.Signed}), "sint32"},
		{"float32", NewSignal("a", can.Layout{Size: 32, ValueType: can.Float}), "float"},
		{"float64", NewSignal("a", can.Layout{Size: 64, ValueType: can.Float}), "double"},
		{"scaled", &Signal{Name: "a", Layout: can.Layout{Size: 8}, Scaling: can.Scaling{Factor: 0.5}}, "double"},
		{"negative offset", &Signal{Name: "a", Layout: can.Layout{Size: 8}, Scaling: can.Scaling{Factor: 1, Offset: -40}}, "sint32"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.signal.ProtoType())
		})
	}
}
