package can

import (
	"strconv"
	"time"

	"github.com/cockroachdb/errors"

	ecan "go.einride.tech/can"
)

// MaxExtendedID is the largest 29-bit identifier.
const MaxExtendedID = 0x1FFFFFFF

// TimedFrame wraps einride can.Frame to add capture timestamp information.
// Embedding keeps field access (ID, Length, Data, IsExtended, IsRemote, ...) identical.
type TimedFrame struct {
	ecan.Frame
	// Timestamp is the capture time reported by the pcap reader.
	Timestamp time.Time
}

// Payload returns the data bytes covered by the frame's DLC.
func (f *TimedFrame) Payload() []byte {
	n := min(int(f.Length), len(f.Data))
	return f.Data[:n]
}

// NewFrame builds a classic CAN frame carrying payload.
func NewFrame(id uint32, extended bool, payload []byte) (ecan.Frame, error) {
	if len(payload) > ecan.MaxDataLength {
		return ecan.Frame{}, errors.Wrapf(ErrOutOfRange, "payload of %d bytes exceeds a classic frame", len(payload))
	}
	f := ecan.Frame{ID: id, IsExtended: extended, Length: uint8(len(payload))}
	copy(f.Data[:], payload)
	return f, nil
}

// ParseFrame parses candump notation such as "123#DEADBEEF" or "18FEF100#01".
// Eight hex digit identifiers are extended.
func ParseFrame(s string) (ecan.Frame, error) {
	var f ecan.Frame
	if err := f.UnmarshalString(s); err != nil {
		return ecan.Frame{}, errors.Wrapf(err, "parse frame %q", s)
	}
	return f, nil
}

// ParseID parses a decimal or 0x-prefixed identifier.
func ParseID(s string) (uint32, error) {
	id, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "parse id %q", s)
	}
	if id > MaxExtendedID {
		return 0, errors.Wrapf(ErrOutOfRange, "id 0x%X exceeds 29 bits", id)
	}
	return uint32(id), nil
}
