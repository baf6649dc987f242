package dbc

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	cdbc "go.einride.tech/can/pkg/dbc"

	"github.com/BIwashi/sigcodec/pkg/can"
)

type signalKey struct {
	id   uint32
	name string
}

// metadata collects the definitions that refer back to messages and signals.
type metadata struct {
	valueTypes        map[signalKey]cdbc.SignalValueType
	signalComments    map[signalKey]string
	messageComments   map[uint32]string
	valueDescriptions map[signalKey]map[int64]string
}

// LoadFile reads a network definition, choosing the format by extension.
func LoadFile(path string) (*Network, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadYAMLFile(path)
	default:
		return ParseFile(path)
	}
}

// ParseFile parses a DBC file using the can-go (go.einride.tech/can) parser.
func ParseFile(filename string) (*Network, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrap(err, "read dbc file")
	}
	return Parse(filepath.Base(filename), data)
}

// Parse converts DBC text into a Network. Syntax handling stays in can-go;
// this only maps its definitions onto messages and signals.
func Parse(filename string, data []byte) (*Network, error) {
	parser := cdbc.NewParser(filename, data)
	if err := parser.Parse(); err != nil {
		return nil, errors.Wrap(err, "parse dbc (can-go)")
	}
	defs := parser.Defs()
	meta := collectMetadata(defs)

	network := NewNetwork("")
	for _, def := range defs {
		switch d := def.(type) {
		case *cdbc.VersionDef:
			network.Version = d.Version
		case *cdbc.NodesDef:
			for _, node := range d.NodeNames {
				network.Nodes = append(network.Nodes, string(node))
			}
		case *cdbc.MessageDef:
			if d.MessageID == cdbc.IndependentSignalsMessageID {
				continue // don't compile
			}
			msg, err := compileMessage(d, meta)
			if err != nil {
				return nil, err
			}
			if err := network.AddMessage(msg); err != nil {
				return nil, err
			}
		}
	}
	return network, nil
}

func collectMetadata(defs []cdbc.Def) *metadata {
	meta := &metadata{
		valueTypes:        map[signalKey]cdbc.SignalValueType{},
		signalComments:    map[signalKey]string{},
		messageComments:   map[uint32]string{},
		valueDescriptions: map[signalKey]map[int64]string{},
	}
	for _, def := range defs {
		switch d := def.(type) {
		case *cdbc.SignalValueTypeDef:
			meta.valueTypes[signalKey{d.MessageID.ToCAN(), string(d.SignalName)}] = d.SignalValueType
		case *cdbc.CommentDef:
			switch d.ObjectType {
			case cdbc.ObjectTypeMessage:
				meta.messageComments[d.MessageID.ToCAN()] = d.Comment
			case cdbc.ObjectTypeSignal:
				meta.signalComments[signalKey{d.MessageID.ToCAN(), string(d.SignalName)}] = d.Comment
			}
		case *cdbc.ValueDescriptionsDef:
			if d.ObjectType != cdbc.ObjectTypeSignal {
				continue
			}
			key := signalKey{d.MessageID.ToCAN(), string(d.SignalName)}
			descriptions := make(map[int64]string, len(d.ValueDescriptions))
			for _, vd := range d.ValueDescriptions {
				descriptions[int64(vd.Value)] = vd.Description
			}
			meta.valueDescriptions[key] = descriptions
		}
	}
	return meta
}

func compileMessage(def *cdbc.MessageDef, meta *metadata) (*Message, error) {
	id := def.MessageID.ToCAN()
	signals := make([]*Signal, 0, len(def.Signals))
	for _, sd := range def.Signals {
		key := signalKey{id, string(sd.Name)}
		s := &Signal{
			Name: string(sd.Name),
			Layout: can.Layout{
				StartBit:  int(sd.StartBit),
				Size:      int(sd.Size),
				ByteOrder: can.LittleEndian,
				ValueType: can.Unsigned,
			},
			Scaling:           can.Scaling{Factor: sd.Factor, Offset: sd.Offset},
			Unit:              sd.Unit,
			Description:       meta.signalComments[key],
			ValueDescriptions: meta.valueDescriptions[key],
		}
		if sd.IsBigEndian {
			s.ByteOrder = can.BigEndian
		}
		if sd.IsSigned {
			s.ValueType = can.Signed
		}
		switch meta.valueTypes[key] {
		case cdbc.SignalValueTypeFloat32, cdbc.SignalValueTypeFloat64:
			s.ValueType = can.Float
		}
		if sd.Minimum != 0 || sd.Maximum != 0 {
			s.Bounds = &Bounds{Min: sd.Minimum, Max: sd.Maximum}
		}
		switch {
		case sd.IsMultiplexerSwitch:
			s.Mux = MuxSwitch()
		case sd.IsMultiplexed:
			s.Mux = MuxValue(sd.MultiplexerSwitch)
		}
		for _, r := range sd.Receivers {
			s.Receivers = append(s.Receivers, string(r))
		}
		signals = append(signals, s)
	}

	msg, err := NewMessage(id, string(def.Name), int(def.Size), signals...)
	if err != nil {
		return nil, err
	}
	msg.IsExtended = def.MessageID.IsExtended()
	msg.Sender = string(def.Transmitter)
	msg.Description = meta.messageComments[id]
	return msg, nil
}
