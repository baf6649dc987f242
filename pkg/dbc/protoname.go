package dbc

import (
	"regexp"
	"strings"

	"github.com/BIwashi/sigcodec/pkg/can"
)

var (
	invalidFieldChars = regexp.MustCompile(`[^a-z0-9_]+`)
	leadingDigit      = regexp.MustCompile(`^\d`)
)

// ToProtoFieldName converts a signal name to a valid protobuf field name
func ToProtoFieldName(signalName string) string {
	name := strings.ToLower(signalName)
	name = invalidFieldChars.ReplaceAllString(name, "_")

	if leadingDigit.MatchString(name) {
		name = "_" + name
	}

	return name
}

// ToProtoMessageName converts a message name to a valid protobuf message name
func ToProtoMessageName(messageName string) string {
	parts := strings.FieldsFunc(messageName, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})

	for i, part := range parts {
		lower := strings.ToLower(part)
		parts[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}

	name := strings.Join(parts, "")
	if leadingDigit.MatchString(name) {
		name = "M" + name
	}
	return name
}

// ProtoType returns the protobuf scalar type carrying the signal's physical value
func (s *Signal) ProtoType() string {
	if s.ValueType == can.Float {
		if s.Size == 32 {
			return "float"
		}
		return "double"
	}
	// A fractional scale or offset needs a floating point field
	if s.Scaling.Factor != 1 || s.Scaling.Offset != float64(int64(s.Scaling.Offset)) {
		return "double"
	}
	if s.ValueType == can.Signed || s.Scaling.Offset < 0 {
		if s.Size <= 32 {
			return "sint32"
		}
		return "sint64"
	}
	if s.Size <= 32 {
		return "uint32"
	}
	return "uint64"
}
