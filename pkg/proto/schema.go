package proto

import (
	"sync"

	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/BIwashi/sigcodec/pkg/dbc"
)

const (
	// FullName is the schema name recorded in MCAP files.
	FullName = "sigcodec.v1.DecodedSignal"
	Encoding = "protobuf"

	fileName = "sigcodec/v1/decoded_signal.proto"
)

// DecodedSignal is one decoded signal as written to recordings.
type DecodedSignal struct {
	TimestampNs uint64
	CanID       uint32
	IsExtended  bool
	MessageName string
	Name        string
	RawBits     uint64
	Physical    float64
	Unit        string
	Description string
	OutOfRange  bool
}

var fields = []struct {
	name   string
	number int32
	typ    descriptorpb.FieldDescriptorProto_Type
}{
	{"timestamp_ns", 1, descriptorpb.FieldDescriptorProto_TYPE_UINT64},
	{"can_id", 2, descriptorpb.FieldDescriptorProto_TYPE_UINT32},
	{"is_extended", 3, descriptorpb.FieldDescriptorProto_TYPE_BOOL},
	{"message_name", 4, descriptorpb.FieldDescriptorProto_TYPE_STRING},
	{"name", 5, descriptorpb.FieldDescriptorProto_TYPE_STRING},
	{"raw_bits", 6, descriptorpb.FieldDescriptorProto_TYPE_UINT64},
	{"physical", 7, descriptorpb.FieldDescriptorProto_TYPE_DOUBLE},
	{"unit", 8, descriptorpb.FieldDescriptorProto_TYPE_STRING},
	{"description", 9, descriptorpb.FieldDescriptorProto_TYPE_STRING},
	{"out_of_range", 10, descriptorpb.FieldDescriptorProto_TYPE_BOOL},
}

var (
	buildOnce sync.Once
	file      protoreflect.FileDescriptor
	buildErr  error
)

func buildFile() (protoreflect.FileDescriptor, error) {
	msg := &descriptorpb.DescriptorProto{Name: proto.String("DecodedSignal")}
	for _, f := range fields {
		msg.Field = append(msg.Field, &descriptorpb.FieldDescriptorProto{
			Name:   proto.String(f.name),
			Number: proto.Int32(f.number),
			Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
			Type:   f.typ.Enum(),
		})
	}
	fdp := &descriptorpb.FileDescriptorProto{
		Name:        proto.String(fileName),
		Package:     proto.String("sigcodec.v1"),
		Syntax:      proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{msg},
	}
	return protodesc.NewFile(fdp, new(protoregistry.Files))
}

// File returns the descriptor of the schema file.
func File() (protoreflect.FileDescriptor, error) {
	buildOnce.Do(func() {
		file, buildErr = buildFile()
		if buildErr != nil {
			buildErr = errors.Wrap(buildErr, "build DecodedSignal descriptor")
		}
	})
	return file, buildErr
}

// Descriptor returns the DecodedSignal message descriptor.
func Descriptor() (protoreflect.MessageDescriptor, error) {
	fd, err := File()
	if err != nil {
		return nil, err
	}
	return fd.Messages().ByName("DecodedSignal"), nil
}

// FileDescriptorSet returns the serialized descriptor set used as MCAP schema data.
func FileDescriptorSet() ([]byte, error) {
	fd, err := File()
	if err != nil {
		return nil, err
	}
	set := &descriptorpb.FileDescriptorSet{
		File: []*descriptorpb.FileDescriptorProto{protodesc.ToFileDescriptorProto(fd)},
	}
	data, err := proto.Marshal(set)
	if err != nil {
		return nil, errors.Wrap(err, "marshal file descriptor set")
	}
	return data, nil
}

// NewDecodedSignal flattens one signal of a decoded frame.
func NewDecodedSignal(msg *dbc.DecodedMessage, v dbc.SignalValue) *DecodedSignal {
	ds := &DecodedSignal{
		CanID:       msg.MessageID,
		IsExtended:  msg.IsExtended,
		MessageName: msg.MessageName,
		Name:        v.Signal.Name,
		RawBits:     v.Raw.Bits(),
		Physical:    v.Physical,
		Unit:        v.Signal.Unit,
		Description: v.Description,
		OutOfRange:  !v.InBounds(),
	}
	if !msg.Timestamp.IsZero() {
		ds.TimestampNs = uint64(msg.Timestamp.UnixNano())
	}
	return ds
}

// Message converts s into a dynamic protobuf message.
func (s *DecodedSignal) Message() (*dynamicpb.Message, error) {
	md, err := Descriptor()
	if err != nil {
		return nil, err
	}
	m := dynamicpb.NewMessage(md)
	fs := md.Fields()
	m.Set(fs.ByName("timestamp_ns"), protoreflect.ValueOfUint64(s.TimestampNs))
	m.Set(fs.ByName("can_id"), protoreflect.ValueOfUint32(s.CanID))
	m.Set(fs.ByName("is_extended"), protoreflect.ValueOfBool(s.IsExtended))
	m.Set(fs.ByName("message_name"), protoreflect.ValueOfString(s.MessageName))
	m.Set(fs.ByName("name"), protoreflect.ValueOfString(s.Name))
	m.Set(fs.ByName("raw_bits"), protoreflect.ValueOfUint64(s.RawBits))
	m.Set(fs.ByName("physical"), protoreflect.ValueOfFloat64(s.Physical))
	m.Set(fs.ByName("unit"), protoreflect.ValueOfString(s.Unit))
	m.Set(fs.ByName("description"), protoreflect.ValueOfString(s.Description))
	m.Set(fs.ByName("out_of_range"), protoreflect.ValueOfBool(s.OutOfRange))
	return m, nil
}

// Marshal encodes s in the protobuf wire format.
func (s *DecodedSignal) Marshal() ([]byte, error) {
	m, err := s.Message()
	if err != nil {
		return nil, err
	}
	data, err := proto.Marshal(m)
	if err != nil {
		return nil, errors.Wrap(err, "marshal DecodedSignal")
	}
	return data, nil
}

// UnmarshalDecodedSignal decodes data produced by Marshal.
func UnmarshalDecodedSignal(data []byte) (*DecodedSignal, error) {
	md, err := Descriptor()
	if err != nil {
		return nil, err
	}
	m := dynamicpb.NewMessage(md)
	if err := proto.Unmarshal(data, m); err != nil {
		return nil, errors.Wrap(err, "unmarshal DecodedSignal")
	}
	fs := md.Fields()
	return &DecodedSignal{
		TimestampNs: m.Get(fs.ByName("timestamp_ns")).Uint(),
		CanID:       uint32(m.Get(fs.ByName("can_id")).Uint()),
		IsExtended:  m.Get(fs.ByName("is_extended")).Bool(),
		MessageName: m.Get(fs.ByName("message_name")).String(),
		Name:        m.Get(fs.ByName("name")).String(),
		RawBits:     m.Get(fs.ByName("raw_bits")).Uint(),
		Physical:    m.Get(fs.ByName("physical")).Float(),
		Unit:        m.Get(fs.ByName("unit")).String(),
		Description: m.Get(fs.ByName("description")).String(),
		OutOfRange:  m.Get(fs.ByName("out_of_range")).Bool(),
	}, nil
}
