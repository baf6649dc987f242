package pcapng

import (
	"encoding/binary"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	ecan "go.einride.tech/can"

	"github.com/BIwashi/sigcodec/pkg/can"
)

// LinkTypeCAN is the SocketCAN link type, see https://www.tcpdump.org/linktypes.html.
const LinkTypeCAN layers.LinkType = 227

var (
	errNotCAN     = errors.New("not a CAN packet")
	errErrorFrame = errors.New("CAN error frame")
)

// Reader reads CAN frames from PCAPNG file
type Reader struct {
	reader       *pcapgo.NgReader
	linkType     layers.LinkType
	packetCount  uint64
	skippedCount uint64
}

// NewReader creates a new PCAPNG reader
func NewReader(r io.Reader) (*Reader, error) {
	ngReader, err := pcapgo.NewNgReader(r, pcapgo.DefaultNgReaderOptions)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create pcapng reader")
	}

	// Get link type from the first interface
	return &Reader{
		reader:   ngReader,
		linkType: ngReader.LinkType(),
	}, nil
}

// ReadFrame returns the next CAN data or remote frame. Packets that do not
// carry one are counted and skipped. It returns io.EOF at the end of the capture.
func (r *Reader) ReadFrame() (*can.TimedFrame, error) {
	for {
		data, ci, err := r.reader.ReadPacketData()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, errors.Wrap(err, "failed to read packet data")
		}

		r.packetCount++

		frame, err := r.extractCANFrame(data, ci)
		if err != nil {
			r.skippedCount++
			continue
		}
		return frame, nil
	}
}

// extractCANFrame unwraps the link layer and parses the SocketCAN frame.
func (r *Reader) extractCANFrame(data []byte, ci gopacket.CaptureInfo) (*can.TimedFrame, error) {
	var payload []byte
	switch r.linkType {
	case layers.LinkTypeLinuxSLL:
		packet := gopacket.NewPacket(data, r.linkType, gopacket.Default)
		if sllLayer := packet.Layer(layers.LayerTypeLinuxSLL); sllLayer != nil {
			payload = sllLayer.(*layers.LinuxSLL).Payload
		} else {
			payload = packet.Data()
		}
	case LinkTypeCAN:
		payload = data
	default:
		return nil, errors.Wrapf(errNotCAN, "unsupported link type: %v", r.linkType)
	}

	frame, err := parseSocketCAN(payload)
	if err != nil {
		return nil, err
	}
	frame.Timestamp = ci.Timestamp
	return frame, nil
}

const (
	idFlagExtended = 0x80000000
	idFlagRemote   = 0x40000000
	idFlagError    = 0x20000000
	idMaskExtended = 0x1fffffff
	idMaskStandard = 0x7ff

	socketCANHeaderLen = 8
)

// parseSocketCAN decodes a struct can_frame: a 32-bit identifier with flag
// bits, the DLC, three padding bytes and up to eight data bytes.
func parseSocketCAN(data []byte) (*can.TimedFrame, error) {
	if len(data) < socketCANHeaderLen {
		return nil, errors.Wrapf(errNotCAN, "data too short for CAN frame: %d", len(data))
	}

	// The identifier is host order; captures come from little endian machines.
	canIDRaw := binary.LittleEndian.Uint32(data[0:4])
	if canIDRaw&idFlagError != 0 {
		return nil, errErrorFrame
	}
	isExtended := canIDRaw&idFlagExtended != 0

	var canID uint32
	if isExtended {
		canID = canIDRaw & idMaskExtended
	} else {
		canID = canIDRaw & idMaskStandard
	}

	dataLen := min(data[4], 8)
	isRemote := canIDRaw&idFlagRemote != 0

	// Remote frames carry a DLC but no data bytes.
	var canData ecan.Data
	if !isRemote {
		end := socketCANHeaderLen + int(dataLen)
		if len(data) < end {
			return nil, errors.Wrapf(errNotCAN, "truncated CAN frame: dlc %d, %d data bytes captured",
				dataLen, len(data)-socketCANHeaderLen)
		}
		copy(canData[:], data[socketCANHeaderLen:end])
	}

	return &can.TimedFrame{
		Frame: ecan.Frame{
			ID:         canID,
			Length:     dataLen,
			Data:       canData,
			IsRemote:   isRemote,
			IsExtended: isExtended,
		},
	}, nil
}

// PacketCount returns the number of packets read
func (r *Reader) PacketCount() uint64 {
	return r.packetCount
}

// SkippedCount returns the number of packets that held no usable CAN frame.
func (r *Reader) SkippedCount() uint64 {
	return r.skippedCount
}
