package can

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ByteOrder selects the DBC bit numbering convention of a signal.
type ByteOrder int

const (
	// LittleEndian is the Intel convention: the start bit is the value's LSB.
	LittleEndian ByteOrder = iota
	// BigEndian is the Motorola convention: the start bit is the value's MSB,
	// counted in the DBC sawtooth numbering.
	BigEndian
)

func (o ByteOrder) String() string {
	switch o {
	case LittleEndian:
		return "little_endian"
	case BigEndian:
		return "big_endian"
	default:
		return fmt.Sprintf("ByteOrder(%d)", int(o))
	}
}

// MaxSignalBits is the widest value a single signal can carry.
const MaxSignalBits = 64

// BitPosition is one contiguous run of value bits inside a single byte.
// BitOffset is the lowest bit index of the run (0 = LSB of the byte).
type BitPosition struct {
	ByteIndex int
	BitOffset int
	BitCount  int
}

func (p BitPosition) mask() byte {
	return byte((1<<p.BitCount)-1) << p.BitOffset
}

// ComputeBitPositions translates a signal bit range into per-byte runs, ordered
// from the least significant value bits to the most significant ones.
func ComputeBitPositions(startBit, bitSize int, order ByteOrder, bufferByteLength int) ([]BitPosition, error) {
	if err := checkRange(startBit, bitSize, order); err != nil {
		return nil, err
	}
	if need := RequiredBytes(startBit, bitSize, order); need > bufferByteLength {
		return nil, errors.Wrapf(ErrOutOfRange,
			"start bit %d size %d (%s) needs %d bytes, have %d", startBit, bitSize, order, need, bufferByteLength)
	}

	positions := make([]BitPosition, 0, bitSize/8+2)
	remaining := bitSize

	switch order {
	case LittleEndian:
		bit := startBit
		for remaining > 0 {
			offset := bit % 8
			n := min(8-offset, remaining)
			positions = append(positions, BitPosition{ByteIndex: bit / 8, BitOffset: offset, BitCount: n})
			bit += n
			remaining -= n
		}
	case BigEndian:
		// Walk backwards from the LSB: it sits in the highest byte address, and
		// each more significant run starts at bit 0 of the byte before it.
		lsb := motorolaLSB(startBit, bitSize)
		byteIndex, offset := lsb/8, lsb%8
		for remaining > 0 {
			n := min(8-offset, remaining)
			positions = append(positions, BitPosition{ByteIndex: byteIndex, BitOffset: offset, BitCount: n})
			remaining -= n
			byteIndex--
			offset = 0
		}
	}

	return positions, nil
}

// RequiredBytes returns the minimum buffer length that holds the bit range.
func RequiredBytes(startBit, bitSize int, order ByteOrder) int {
	if bitSize <= 0 {
		return 0
	}
	if order == BigEndian {
		return motorolaLSB(startBit, bitSize)/8 + 1
	}
	return (startBit + bitSize + 7) / 8
}

func checkRange(startBit, bitSize int, order ByteOrder) error {
	if startBit < 0 {
		return errors.Wrapf(ErrInvalidLayout, "negative start bit %d", startBit)
	}
	if bitSize < 1 || bitSize > MaxSignalBits {
		return errors.Wrapf(ErrInvalidLayout, "bit size %d not in 1..%d", bitSize, MaxSignalBits)
	}
	if order != LittleEndian && order != BigEndian {
		return errors.Wrapf(ErrInvalidLayout, "unknown byte order %d", int(order))
	}
	return nil
}

// motorolaLSB returns the sawtooth bit index of the value's LSB for a
// Motorola signal whose MSB is startBit.
func motorolaLSB(startBit, bitSize int) int {
	// Sequential index counts MSB first: byte 0 bit 7 is 0, byte 0 bit 0 is 7.
	seq := (startBit/8)*8 + (7 - startBit%8) + bitSize - 1
	return (seq/8)*8 + (7 - seq%8)
}
