package can

import (
	"fmt"
	"math"

	"github.com/cockroachdb/errors"
)

// ValueType is how the reassembled bits of a signal are interpreted.
type ValueType int

const (
	Unsigned ValueType = iota
	Signed
	Float
)

func (t ValueType) String() string {
	switch t {
	case Unsigned:
		return "unsigned"
	case Signed:
		return "signed"
	case Float:
		return "float"
	default:
		return fmt.Sprintf("ValueType(%d)", int(t))
	}
}

// Layout locates a signal inside a payload.
type Layout struct {
	StartBit  int
	Size      int
	ByteOrder ByteOrder
	ValueType ValueType
}

// Validate checks the layout on its own, without a buffer.
func (l Layout) Validate() error {
	if err := checkRange(l.StartBit, l.Size, l.ByteOrder); err != nil {
		return err
	}
	switch l.ValueType {
	case Unsigned, Signed:
	case Float:
		if l.Size != 32 && l.Size != 64 {
			return errors.Wrapf(ErrInvalidLayout, "float signal must be 32 or 64 bits, got %d", l.Size)
		}
	default:
		return errors.Wrapf(ErrInvalidLayout, "unknown value type %d", int(l.ValueType))
	}
	return nil
}

// RequiredBytes returns the minimum payload length holding the layout.
func (l Layout) RequiredBytes() int {
	return RequiredBytes(l.StartBit, l.Size, l.ByteOrder)
}

// Positions computes the byte runs of the layout for a buffer of the given length.
func (l Layout) Positions(bufferByteLength int) ([]BitPosition, error) {
	return ComputeBitPositions(l.StartBit, l.Size, l.ByteOrder, bufferByteLength)
}

func (l Layout) mask() uint64 {
	if l.Size >= 64 {
		return math.MaxUint64
	}
	return (uint64(1) << l.Size) - 1
}

// RawValue is the bit pattern of one signal, tagged with its interpretation.
type RawValue struct {
	kind ValueType
	size int
	bits uint64
}

// UnsignedRaw tags v as an unsigned raw value.
func UnsignedRaw(v uint64) RawValue {
	return RawValue{kind: Unsigned, size: 64, bits: v}
}

// SignedRaw tags v as a two's complement raw value.
func SignedRaw(v int64) RawValue {
	return RawValue{kind: Signed, size: 64, bits: uint64(v)}
}

// Float32Raw tags f as an IEEE-754 single precision pattern.
func Float32Raw(f float32) RawValue {
	return RawValue{kind: Float, size: 32, bits: uint64(math.Float32bits(f))}
}

// Float64Raw tags f as an IEEE-754 double precision pattern.
func Float64Raw(f float64) RawValue {
	return RawValue{kind: Float, size: 64, bits: math.Float64bits(f)}
}

func (r RawValue) Type() ValueType { return r.kind }

// Bits returns the pattern as stored, sign-extended for signed values.
func (r RawValue) Bits() uint64 { return r.bits }

// Unsigned returns the value as an unsigned integer. Float values are
// truncated toward zero and clamped to [0, MaxUint64]; NaN gives 0.
func (r RawValue) Unsigned() uint64 {
	if r.kind != Float {
		return r.bits
	}
	f := math.Trunc(r.Float())
	switch {
	case math.IsNaN(f) || f <= 0:
		return 0
	case f >= math.MaxUint64:
		return math.MaxUint64
	default:
		return uint64(f)
	}
}

// Signed returns the value as a signed integer. Float values are truncated
// toward zero and clamped to the int64 range; NaN gives 0.
func (r RawValue) Signed() int64 {
	if r.kind != Float {
		return int64(r.bits)
	}
	f := math.Trunc(r.Float())
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(f)
	}
}

func (r RawValue) Float() float64 {
	switch r.kind {
	case Float:
		if r.size == 32 {
			return float64(math.Float32frombits(uint32(r.bits)))
		}
		return math.Float64frombits(r.bits)
	case Signed:
		return float64(int64(r.bits))
	default:
		return float64(r.bits)
	}
}

// Number is the numeric value used as input to scaling.
func (r RawValue) Number() float64 {
	return r.Float()
}

func (r RawValue) String() string {
	switch r.kind {
	case Signed:
		return fmt.Sprintf("%d", r.Signed())
	case Float:
		return fmt.Sprintf("%g", r.Float())
	default:
		return fmt.Sprintf("%d", r.bits)
	}
}

// wireBits converts the value to the bit pattern the layout stores.
func (r RawValue) wireBits(l Layout) uint64 {
	if l.ValueType == Float {
		if r.kind == Float && r.size == l.Size {
			return r.bits
		}
		if l.Size == 32 {
			return uint64(math.Float32bits(float32(r.Float())))
		}
		return math.Float64bits(r.Float())
	}
	if r.kind == Float {
		return IntegerBits(r.Float(), l)
	}
	return r.bits & l.mask()
}

// DecodeBits reassembles the layout's bits as an unsigned integer, whatever
// the declared value type.
func DecodeBits(buf []byte, l Layout) (uint64, error) {
	positions, err := l.Positions(len(buf))
	if err != nil {
		return 0, err
	}
	var (
		value uint64
		shift int
	)
	for _, p := range positions {
		chunk := uint64((buf[p.ByteIndex] & p.mask()) >> p.BitOffset)
		value |= chunk << shift
		shift += p.BitCount
	}
	return value, nil
}

// Decode reads the layout's value and interprets it according to its type.
func Decode(buf []byte, l Layout) (RawValue, error) {
	if err := l.Validate(); err != nil {
		return RawValue{}, err
	}
	bits, err := DecodeBits(buf, l)
	if err != nil {
		return RawValue{}, err
	}
	switch l.ValueType {
	case Signed:
		return RawValue{kind: Signed, size: l.Size, bits: uint64(SignExtend(bits, l.Size))}, nil
	case Float:
		return RawValue{kind: Float, size: l.Size, bits: bits}, nil
	default:
		return RawValue{kind: Unsigned, size: l.Size, bits: bits}, nil
	}
}

// Encode writes the low l.Size bits of bits into buf. Bits outside the layout
// are preserved. Nothing is written when an error is returned.
func Encode(buf []byte, l Layout, bits uint64) error {
	positions, err := l.Positions(len(buf))
	if err != nil {
		if errors.Is(err, ErrOutOfRange) {
			return errors.Mark(err, ErrBufferTooSmall)
		}
		return err
	}
	shift := 0
	for _, p := range positions {
		m := p.mask()
		chunk := byte(bits>>shift) << p.BitOffset
		buf[p.ByteIndex] = buf[p.ByteIndex]&^m | chunk&m
		shift += p.BitCount
	}
	return nil
}

// EncodeValue writes a tagged raw value, converting it to the layout's type.
func EncodeValue(buf []byte, l Layout, v RawValue) error {
	if err := l.Validate(); err != nil {
		return err
	}
	return Encode(buf, l, v.wireBits(l))
}

// SignExtend interprets the low size bits of bits as a two's complement number.
func SignExtend(bits uint64, size int) int64 {
	if size <= 0 || size >= 64 {
		return int64(bits)
	}
	shift := 64 - size
	return int64(bits<<shift) >> shift
}
