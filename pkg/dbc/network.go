package dbc

import (
	"iter"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/elliotchance/orderedmap/v3"
)

// Network is the set of message definitions of one bus. Callers own it and
// pass it explicitly; messages are read-only once added.
type Network struct {
	Version  string
	Nodes    []string
	messages *orderedmap.OrderedMap[uint32, *Message]
}

func NewNetwork(version string) *Network {
	return &Network{
		Version:  version,
		messages: orderedmap.NewOrderedMap[uint32, *Message](),
	}
}

// AddMessage registers m, rejecting duplicate identifiers and names.
func (n *Network) AddMessage(m *Message) error {
	if n.messages.Has(m.ID) {
		return errors.Wrapf(ErrDuplicateMessage, "id 0x%X", m.ID)
	}
	if _, ok := n.MessageByName(m.Name); ok && m.Name != "" {
		return errors.Wrapf(ErrDuplicateMessage, "name %s", m.Name)
	}
	n.messages.Set(m.ID, m)
	return nil
}

// GetMessage returns a message by ID
func (n *Network) GetMessage(id uint32) (*Message, bool) {
	return n.messages.Get(id)
}

// Message returns a message by ID or ErrUnknownMessage.
func (n *Network) Message(id uint32) (*Message, error) {
	m, ok := n.messages.Get(id)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownMessage, "id 0x%X", id)
	}
	return m, nil
}

// MessageByName returns a message by name
func (n *Network) MessageByName(name string) (*Message, bool) {
	for m := range n.messages.Values() {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// Messages iterates messages ordered by identifier.
func (n *Network) Messages() iter.Seq[*Message] {
	ids := slices.Sorted(n.messages.Keys())
	return func(yield func(*Message) bool) {
		for _, id := range ids {
			m, _ := n.messages.Get(id)
			if !yield(m) {
				return
			}
		}
	}
}

func (n *Network) MessageCount() int {
	return n.messages.Len()
}

// Signal looks up a signal by message ID and name.
func (n *Network) Signal(id uint32, name string) (*Signal, error) {
	m, err := n.Message(id)
	if err != nil {
		return nil, err
	}
	s, ok := m.Signal(name)
	if !ok {
		return nil, errors.Wrapf(ErrUnknownSignal, "message %s: %q", m.Name, name)
	}
	return s, nil
}
