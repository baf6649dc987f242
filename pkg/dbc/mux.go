package dbc

import (
	"github.com/cockroachdb/errors"

	"github.com/BIwashi/sigcodec/pkg/can"
)

type muxState int

const (
	noMultiplex muxState = iota
	hasSwitch
)

// resolver decides which signals of a message are present in one payload.
// It is built once per message and is read-only afterwards.
type resolver struct {
	state   muxState
	mux     *Signal
	signals []*Signal
}

func newResolver(signals []*Signal) (*resolver, error) {
	r := &resolver{state: noMultiplex, signals: signals}
	multiplexed := 0
	for _, s := range signals {
		switch {
		case s.Mux.IsSwitch():
			if r.mux != nil {
				return nil, errors.Wrapf(ErrAmbiguousMultiplexor, "%s and %s", r.mux.Name, s.Name)
			}
			r.mux = s
			r.state = hasSwitch
		case s.Mux.IsMultiplexed():
			multiplexed++
		}
	}
	if multiplexed > 0 && r.mux == nil {
		return nil, errors.Wrapf(ErrMissingMultiplexor, "%d multiplexed signals", multiplexed)
	}
	return r, nil
}

// Active is the outcome of resolving one payload.
type Active struct {
	// Signals lists the active signals in declaration order, including the switch.
	Signals []*Signal
	// Switch is nil for messages without multiplexing.
	Switch      *Signal
	SwitchValue uint64
}

// IsActive reports whether s is present for the resolved switch value.
func (a Active) IsActive(s *Signal) bool {
	if !s.Mux.IsMultiplexed() {
		return true
	}
	return a.Switch != nil && s.Mux.SwitchValue == a.SwitchValue
}

func (r *resolver) resolve(buf []byte) (Active, error) {
	if r.state == noMultiplex {
		return Active{Signals: r.signals}, nil
	}

	raw, err := can.Decode(buf, r.mux.Layout)
	if err != nil {
		return Active{}, errors.Wrapf(err, "decode multiplexor %s", r.mux.Name)
	}
	active := Active{
		Switch:      r.mux,
		SwitchValue: raw.Bits() & switchMask(r.mux.Size),
		Signals:     make([]*Signal, 0, len(r.signals)),
	}
	for _, s := range r.signals {
		if active.IsActive(s) {
			active.Signals = append(active.Signals, s)
		}
	}
	return active, nil
}

// switchMask drops the sign extension of a signed switch so it compares with
// the unsigned switch values of multiplexed signals.
func switchMask(size int) uint64 {
	if size >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << size) - 1
}
