package dbc

import (
	"iter"

	"github.com/cockroachdb/errors"
	"github.com/elliotchance/orderedmap/v3"
)

// Message is a CAN message definition and the signals it carries.
type Message struct {
	ID          uint32
	IsExtended  bool
	Name        string
	Size        int
	Sender      string
	Description string

	signals  *orderedmap.OrderedMap[string, *Signal]
	resolver *resolver
}

// NewMessage validates the signals against each other and against the
// payload size, and returns the read-only message definition.
func NewMessage(id uint32, name string, size int, signals ...*Signal) (*Message, error) {
	if size < 0 {
		return nil, errors.Newf("message %s: negative size %d", name, size)
	}
	m := &Message{
		ID:      id,
		Name:    name,
		Size:    size,
		signals: orderedmap.NewOrderedMapWithCapacity[string, *Signal](len(signals)),
	}
	for _, s := range signals {
		if s == nil {
			return nil, errors.Newf("message %s: nil signal", name)
		}
		if err := s.Validate(size); err != nil {
			return nil, errors.Wrapf(err, "message %s", name)
		}
		if !m.signals.Set(s.Name, s) {
			return nil, errors.Wrapf(ErrDuplicateSignal, "message %s: %s", name, s.Name)
		}
	}

	r, err := newResolver(signals)
	if err != nil {
		return nil, errors.Wrapf(err, "message %s", name)
	}
	m.resolver = r

	if err := checkOverlap(size, signals); err != nil {
		return nil, errors.Wrapf(err, "message %s", name)
	}
	return m, nil
}

// Signal returns the named signal.
func (m *Message) Signal(name string) (*Signal, bool) {
	return m.signals.Get(name)
}

// Signals iterates the signals in declaration order.
func (m *Message) Signals() iter.Seq[*Signal] {
	return m.signals.Values()
}

func (m *Message) SignalCount() int {
	return m.signals.Len()
}

// Multiplexor returns the switch signal, or nil.
func (m *Message) Multiplexor() *Signal {
	return m.resolver.mux
}

// Resolve reports which signals are present in buf.
func (m *Message) Resolve(buf []byte) (Active, error) {
	if err := m.checkBuffer(buf); err != nil {
		return Active{}, err
	}
	return m.resolver.resolve(buf)
}

// checkOverlap rejects signals that can be present at the same time and share
// payload bits: two unconditional signals (the switch included), an
// unconditional and a multiplexed one, or two multiplexed signals selected by
// the same switch value.
func checkOverlap(size int, signals []*Signal) error {
	footprints := make([]footprint, len(signals))
	for i, s := range signals {
		fp, err := s.Footprint(size)
		if err != nil {
			return err
		}
		footprints[i] = fp
	}
	for i, a := range signals {
		for j := i + 1; j < len(signals); j++ {
			b := signals[j]
			if a.Mux.IsMultiplexed() && b.Mux.IsMultiplexed() && a.Mux.SwitchValue != b.Mux.SwitchValue {
				continue
			}
			if footprints[i].overlaps(footprints[j]) {
				return errors.Wrapf(ErrBitOverlap, "%s and %s", a.Name, b.Name)
			}
		}
	}
	return nil
}
