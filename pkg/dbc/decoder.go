package dbc

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/elliotchance/orderedmap/v3"

	"github.com/BIwashi/sigcodec/pkg/can"
)

// DecodedMessage represents a decoded CAN frame with its active signal values
type DecodedMessage struct {
	Message     *Message
	MessageName string
	MessageID   uint32
	IsExtended  bool
	RawData     []byte
	Timestamp   time.Time
	Signals     *orderedmap.OrderedMap[string, SignalValue]
}

// OutOfRange lists the decoded signals whose physical value lies outside their bounds.
func (d *DecodedMessage) OutOfRange() []SignalValue {
	var out []SignalValue
	for v := range d.Signals.Values() {
		if !v.InBounds() {
			out = append(out, v)
		}
	}
	return out
}

// Decoder decodes CAN frames using a network definition
type Decoder struct {
	network *Network
}

func NewDecoder(network *Network) *Decoder {
	return &Decoder{
		network: network,
	}
}

func (d *Decoder) DecodeFrame(f *can.TimedFrame) (*DecodedMessage, error) {
	message, err := d.network.Message(f.ID)
	if err != nil {
		return nil, err
	}
	if f.IsRemote {
		return nil, errors.Wrapf(ErrFrameShape, "remote frame for %s", message.Name)
	}
	if int(f.Length) != message.Size || f.IsExtended != message.IsExtended {
		return nil, errors.Wrapf(ErrFrameShape,
			"%s: got dlc %d extended %t, want dlc %d extended %t",
			message.Name, f.Length, f.IsExtended, message.Size, message.IsExtended)
	}

	payload := f.Payload()
	signals, err := message.DecodeAll(payload)
	if err != nil {
		return nil, err
	}

	return &DecodedMessage{
		Message:     message,
		MessageName: message.Name,
		MessageID:   f.ID,
		IsExtended:  f.IsExtended,
		RawData:     append([]byte(nil), payload...),
		Timestamp:   f.Timestamp,
		Signals:     signals,
	}, nil
}
