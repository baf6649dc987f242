package dbc

import (
	"github.com/cockroachdb/errors"
	"github.com/elliotchance/orderedmap/v3"
	ecan "go.einride.tech/can"

	"github.com/BIwashi/sigcodec/pkg/can"
)

// Value is a signal value handed to EncodeOne: either a can.RawValue written
// as is, or a Physical value that is scaled back first.
type Value interface {
	isValue()
}

// Physical is a value in engineering units.
type Physical float64

func (Physical) isValue() {}

type rawValue struct{ can.RawValue }

func (rawValue) isValue() {}

// Raw wraps a raw value for EncodeOne.
func Raw(v can.RawValue) Value {
	return rawValue{v}
}

// SignalValue is one decoded signal.
type SignalValue struct {
	Signal *Signal
	Raw    can.RawValue
	// Physical is the scaled value, or the IEEE value itself for float signals.
	Physical    float64
	Description string
}

func (v SignalValue) InBounds() bool {
	return v.Signal.InBounds(v.Physical)
}

// NewPayload returns a zeroed payload of the message's size.
func (m *Message) NewPayload() []byte {
	return make([]byte, m.Size)
}

// DecodeAll decodes every signal present in buf, in declaration order.
// Multiplexed signals not selected by the switch are left out.
func (m *Message) DecodeAll(buf []byte) (*orderedmap.OrderedMap[string, SignalValue], error) {
	active, err := m.Resolve(buf)
	if err != nil {
		return nil, err
	}
	out := orderedmap.NewOrderedMapWithCapacity[string, SignalValue](len(active.Signals))
	for _, s := range active.Signals {
		v, err := decodeSignal(s, buf)
		if err != nil {
			return nil, errors.Wrapf(err, "message %s", m.Name)
		}
		out.Set(s.Name, v)
	}
	return out, nil
}

func decodeSignal(s *Signal, buf []byte) (SignalValue, error) {
	raw, err := can.Decode(buf, s.Layout)
	if err != nil {
		return SignalValue{}, errors.Wrapf(err, "signal %s", s.Name)
	}
	v := SignalValue{Signal: s, Raw: raw}
	if s.ValueType == can.Float {
		v.Physical = raw.Float()
	} else {
		v.Physical = s.Scaling.ToPhysical(raw.Number())
	}
	if d, ok := s.Describe(raw); ok {
		v.Description = d
	}
	return v, nil
}

// EncodeOne writes one signal into buf. The multiplexor state of buf is not
// consulted; set the switch separately.
func (m *Message) EncodeOne(buf []byte, name string, value Value) error {
	s, ok := m.Signal(name)
	if !ok {
		return errors.Wrapf(ErrUnknownSignal, "message %s: %q", m.Name, name)
	}
	if err := m.checkBuffer(buf); err != nil {
		return err
	}
	if err := encodeSignal(s, buf, value); err != nil {
		return errors.Wrapf(err, "message %s signal %s", m.Name, name)
	}
	return nil
}

func encodeSignal(s *Signal, buf []byte, value Value) error {
	switch v := value.(type) {
	case rawValue:
		return can.EncodeValue(buf, s.Layout, v.RawValue)
	case Physical:
		if s.ValueType == can.Float {
			return can.EncodeValue(buf, s.Layout, can.Float64Raw(float64(v)))
		}
		raw, err := s.Scaling.ToRaw(float64(v))
		if err != nil {
			return err
		}
		return can.Encode(buf, s.Layout, can.IntegerBits(raw, s.Layout))
	default:
		return errors.Newf("unsupported value type %T", value)
	}
}

// Encode writes several signals into buf in declaration order, so a switch is
// always written before the signals it selects.
func (m *Message) Encode(buf []byte, values map[string]Value) error {
	for name := range values {
		if !m.signals.Has(name) {
			return errors.Wrapf(ErrUnknownSignal, "message %s: %q", m.Name, name)
		}
	}
	for name, s := range m.signals.AllFromFront() {
		v, ok := values[name]
		if !ok {
			continue
		}
		if err := m.EncodeOne(buf, s.Name, v); err != nil {
			return err
		}
	}
	return nil
}

// Frame wraps payload in a classic CAN frame for this message.
func (m *Message) Frame(payload []byte) (ecan.Frame, error) {
	if err := m.checkBuffer(payload); err != nil {
		return ecan.Frame{}, err
	}
	return can.NewFrame(m.ID, m.IsExtended, payload[:m.Size])
}

func (m *Message) checkBuffer(buf []byte) error {
	if len(buf) < m.Size {
		return errors.Wrapf(can.ErrBufferTooSmall, "message %s needs %d bytes, have %d", m.Name, m.Size, len(buf))
	}
	return nil
}
