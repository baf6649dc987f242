package dbc

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/BIwashi/sigcodec/pkg/can"
)

// MultiplexRole is the part a signal plays in a multiplexed message.
type MultiplexRole int

const (
	MuxNone MultiplexRole = iota
	MuxSwitchRole
	MuxMultiplexedRole
)

// Multiplex describes a signal's multiplexing. SwitchValue only matters for
// multiplexed signals.
type Multiplex struct {
	Role        MultiplexRole
	SwitchValue uint64
}

// MuxSwitch marks a signal as the message's multiplexor switch.
func MuxSwitch() Multiplex {
	return Multiplex{Role: MuxSwitchRole}
}

// MuxValue marks a signal as present when the switch decodes to v.
func MuxValue(v uint64) Multiplex {
	return Multiplex{Role: MuxMultiplexedRole, SwitchValue: v}
}

func (m Multiplex) IsSwitch() bool      { return m.Role == MuxSwitchRole }
func (m Multiplex) IsMultiplexed() bool { return m.Role == MuxMultiplexedRole }

func (m Multiplex) String() string {
	switch m.Role {
	case MuxSwitchRole:
		return "M"
	case MuxMultiplexedRole:
		return fmt.Sprintf("m%d", m.SwitchValue)
	default:
		return ""
	}
}

// Bounds is the informational physical range of a signal.
type Bounds = can.Bounds

// Signal describes one signal of a message. It must not be modified once the
// message holding it has been built.
type Signal struct {
	Name string
	can.Layout
	Scaling     can.Scaling
	Bounds      *Bounds
	Unit        string
	Mux         Multiplex
	Receivers   []string
	Description string
	// ValueDescriptions maps raw values to their enumeration labels.
	ValueDescriptions map[int64]string
}

// NewSignal returns a signal with identity scaling.
func NewSignal(name string, layout can.Layout) *Signal {
	return &Signal{Name: name, Layout: layout, Scaling: can.Identity}
}

// Validate checks the signal against a payload of messageSize bytes.
func (s *Signal) Validate(messageSize int) error {
	if s.Name == "" {
		return errors.Wrap(can.ErrInvalidLayout, "signal without name")
	}
	if err := s.Layout.Validate(); err != nil {
		return errors.Wrapf(err, "signal %s", s.Name)
	}
	if need := s.RequiredBytes(); need > messageSize {
		return errors.Wrapf(can.ErrOutOfRange,
			"signal %s needs %d bytes, message has %d", s.Name, need, messageSize)
	}
	if s.Mux.IsSwitch() && s.ValueType == can.Float {
		return errors.Wrapf(can.ErrInvalidLayout, "multiplexor %s cannot be a float", s.Name)
	}
	return nil
}

// InBounds reports whether physical lies within the signal's bounds. Signals
// without bounds accept everything.
func (s *Signal) InBounds(physical float64) bool {
	return s.Bounds.Contains(physical)
}

// Describe returns the value description for raw, if any.
func (s *Signal) Describe(raw can.RawValue) (string, bool) {
	if len(s.ValueDescriptions) == 0 || raw.Type() == can.Float {
		return "", false
	}
	d, ok := s.ValueDescriptions[raw.Signed()]
	return d, ok
}

// Footprint returns the payload bits the signal occupies, one bit per
// payload bit, for a message of messageSize bytes.
func (s *Signal) Footprint(messageSize int) (footprint, error) {
	positions, err := s.Positions(messageSize)
	if err != nil {
		return nil, err
	}
	fp := make(footprint, (messageSize*8+63)/64)
	for _, p := range positions {
		for i := 0; i < p.BitCount; i++ {
			fp.set(p.ByteIndex*8 + p.BitOffset + i)
		}
	}
	return fp, nil
}

type footprint []uint64

func (f footprint) set(bit int) {
	f[bit/64] |= 1 << (bit % 64)
}

func (f footprint) overlaps(o footprint) bool {
	for i := range min(len(f), len(o)) {
		if f[i]&o[i] != 0 {
			return true
		}
	}
	return false
}
