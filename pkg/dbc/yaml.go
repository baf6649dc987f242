package dbc

import (
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"

	"github.com/BIwashi/sigcodec/pkg/can"
)

// yamlNetwork is the on-disk layout of a YAML network definition:
//
//	version: "1.0"
//	messages:
//	  - id: 0x100
//	    name: Status
//	    size: 4
//	    signals:
//	      - {name: mode, start: 0, size: 8, mux: switch}
//	      - {name: speed, start: 8, size: 16, factor: 0.1, unit: km/h, mux: m1}
type yamlNetwork struct {
	Version  string        `yaml:"version"`
	Nodes    []string      `yaml:"nodes"`
	Messages []yamlMessage `yaml:"messages"`
}

type yamlMessage struct {
	ID          uint32       `yaml:"id"`
	Name        string       `yaml:"name"`
	Size        int          `yaml:"size"`
	Extended    bool         `yaml:"extended"`
	Sender      string       `yaml:"sender"`
	Description string       `yaml:"description"`
	Signals     []yamlSignal `yaml:"signals"`
}

type yamlSignal struct {
	Name        string           `yaml:"name"`
	Start       int              `yaml:"start"`
	Size        int              `yaml:"size"`
	Order       string           `yaml:"order"`
	Type        string           `yaml:"type"`
	Factor      *float64         `yaml:"factor"`
	Offset      float64          `yaml:"offset"`
	Min         *float64         `yaml:"min"`
	Max         *float64         `yaml:"max"`
	Unit        string           `yaml:"unit"`
	Mux         string           `yaml:"mux"`
	Receivers   []string         `yaml:"receivers"`
	Description string           `yaml:"description"`
	Values      map[int64]string `yaml:"values"`
}

// LoadYAMLFile reads a YAML network definition.
func LoadYAMLFile(path string) (*Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read network file")
	}
	return ParseYAML(data)
}

// ParseYAML converts a YAML network definition into a Network.
func ParseYAML(data []byte) (*Network, error) {
	var doc yamlNetwork
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parse network yaml")
	}

	network := NewNetwork(doc.Version)
	network.Nodes = doc.Nodes
	for _, ym := range doc.Messages {
		signals := make([]*Signal, 0, len(ym.Signals))
		for _, ys := range ym.Signals {
			s, err := ys.signal()
			if err != nil {
				return nil, errors.Wrapf(err, "message %s", ym.Name)
			}
			signals = append(signals, s)
		}
		msg, err := NewMessage(ym.ID, ym.Name, ym.Size, signals...)
		if err != nil {
			return nil, err
		}
		msg.IsExtended = ym.Extended
		msg.Sender = ym.Sender
		msg.Description = ym.Description
		if err := network.AddMessage(msg); err != nil {
			return nil, err
		}
	}
	return network, nil
}

func (ys yamlSignal) signal() (*Signal, error) {
	s := NewSignal(ys.Name, can.Layout{StartBit: ys.Start, Size: ys.Size})

	switch strings.ToLower(ys.Order) {
	case "", "little", "intel":
		s.ByteOrder = can.LittleEndian
	case "big", "motorola":
		s.ByteOrder = can.BigEndian
	default:
		return nil, errors.Wrapf(can.ErrInvalidLayout, "signal %s: byte order %q", ys.Name, ys.Order)
	}

	switch strings.ToLower(ys.Type) {
	case "", "unsigned":
		s.ValueType = can.Unsigned
	case "signed":
		s.ValueType = can.Signed
	case "float":
		s.ValueType = can.Float
	default:
		return nil, errors.Wrapf(can.ErrInvalidLayout, "signal %s: value type %q", ys.Name, ys.Type)
	}

	if ys.Factor != nil {
		s.Scaling.Factor = *ys.Factor
	}
	s.Scaling.Offset = ys.Offset
	if ys.Min != nil || ys.Max != nil {
		// A missing side leaves the range open.
		s.Bounds = &Bounds{Min: math.Inf(-1), Max: math.Inf(1)}
		if ys.Min != nil {
			s.Bounds.Min = *ys.Min
		}
		if ys.Max != nil {
			s.Bounds.Max = *ys.Max
		}
	}

	mux, err := parseMux(ys.Mux)
	if err != nil {
		return nil, errors.Wrapf(err, "signal %s", ys.Name)
	}
	s.Mux = mux
	s.Unit = ys.Unit
	s.Receivers = ys.Receivers
	s.Description = ys.Description
	s.ValueDescriptions = ys.Values
	return s, nil
}

// parseMux accepts the DBC multiplexer indicators: "" (none), "M" or "switch",
// and "m<value>".
func parseMux(v string) (Multiplex, error) {
	switch {
	case v == "":
		return Multiplex{}, nil
	case v == "M" || strings.EqualFold(v, "switch"):
		return MuxSwitch(), nil
	case strings.HasPrefix(v, "m"):
		n, err := strconv.ParseUint(v[1:], 0, 64)
		if err != nil {
			return Multiplex{}, errors.Wrapf(err, "multiplexer value %q", v)
		}
		return MuxValue(n), nil
	default:
		return Multiplex{}, errors.Newf("unknown multiplexer indicator %q", v)
	}
}
