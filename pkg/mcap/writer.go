package mcap

import (
	"fmt"
	"io"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/foxglove/mcap/go/mcap"

	"github.com/BIwashi/sigcodec/pkg/dbc"
	sigproto "github.com/BIwashi/sigcodec/pkg/proto"
)

// Writer writes DecodedSignal proto messages into an MCAP file.
//
// One protobuf schema (sigcodec.v1.DecodedSignal) is shared by all channels.
// Each (CAN id, signal) pair gets its own channel with topic
// /can/<MessageName>/<SignalName>, created on first use. Channel metadata
// carries can_id (hex), message, signal, is_extended and unit when set.
type Writer struct {
	mu         sync.Mutex
	writer     *mcap.Writer
	schemaID   uint16
	nextChanID uint16
	channels   map[channelKey]uint16
	sequence   uint32
}

type channelKey struct {
	canID  uint32
	signal string
}

// NewWriter initializes an MCAP writer with the DecodedSignal schema registered.
// The provided io.Writer should be an opened file (will not be closed here).
func NewWriter(out io.Writer) (*Writer, error) {
	w, err := mcap.NewWriter(out, &mcap.WriterOptions{
		Chunked:     true,
		ChunkSize:   2 * 1024 * 1024, // 2MB chunks
		Compression: mcap.CompressionZSTD,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create MCAP writer")
	}

	if err := w.WriteHeader(&mcap.Header{
		Profile: "",
		Library: "sigcodec",
	}); err != nil {
		return nil, errors.Wrap(err, "write header")
	}

	data, err := sigproto.FileDescriptorSet()
	if err != nil {
		return nil, err
	}

	schemaID := uint16(1)
	if err := w.WriteSchema(&mcap.Schema{
		ID:       schemaID,
		Name:     sigproto.FullName,
		Encoding: sigproto.Encoding,
		Data:     data,
	}); err != nil {
		return nil, errors.Wrap(err, "write schema")
	}

	return &Writer{
		writer:   w,
		schemaID: schemaID,
		channels: make(map[channelKey]uint16),
	}, nil
}

// ensureChannel returns the channel of a signal, writing it on first use.
// Callers hold w.mu.
func (w *Writer) ensureChannel(ds *sigproto.DecodedSignal) (uint16, error) {
	key := channelKey{canID: ds.CanID, signal: ds.Name}
	if id, ok := w.channels[key]; ok {
		return id, nil
	}

	w.nextChanID++
	chID := w.nextChanID

	hexID := fmt.Sprintf("0x%X", ds.CanID)
	topic := fmt.Sprintf("/can/%s/%s", ds.MessageName, ds.Name)
	metadata := map[string]string{
		"can_id":      hexID,
		"message":     ds.MessageName,
		"signal":      ds.Name,
		"is_extended": fmt.Sprintf("%t", ds.IsExtended),
	}
	if ds.Unit != "" {
		metadata["unit"] = ds.Unit
	}

	if err := w.writer.WriteChannel(&mcap.Channel{
		ID:              chID,
		SchemaID:        w.schemaID,
		Topic:           topic,
		MessageEncoding: sigproto.Encoding,
		Metadata:        metadata,
	}); err != nil {
		return 0, errors.Wrapf(err, "write channel (topic=%s)", topic)
	}

	w.channels[key] = chID
	return chID, nil
}

// WriteSignal writes a single DecodedSignal. LogTime and PublishTime both
// use its timestamp.
func (w *Writer) WriteSignal(ds *sigproto.DecodedSignal) error {
	if ds == nil {
		return errors.New("nil DecodedSignal")
	}
	data, err := ds.Marshal()
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	channelID, err := w.ensureChannel(ds)
	if err != nil {
		return err
	}
	w.sequence++
	if err := w.writer.WriteMessage(&mcap.Message{
		ChannelID:   channelID,
		Sequence:    w.sequence,
		LogTime:     ds.TimestampNs,
		PublishTime: ds.TimestampNs,
		Data:        data,
	}); err != nil {
		return errors.Wrap(err, "write message")
	}
	return nil
}

// WriteMessage writes every active signal of a decoded frame.
func (w *Writer) WriteMessage(msg *dbc.DecodedMessage) error {
	for v := range msg.Signals.Values() {
		if err := w.WriteSignal(sigproto.NewDecodedSignal(msg, v)); err != nil {
			return errors.Wrapf(err, "message %s signal %s", msg.MessageName, v.Signal.Name)
		}
	}
	return nil
}

// ChannelCount returns the number of channels written so far.
func (w *Writer) ChannelCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.channels)
}

// Close finalizes the MCAP file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.writer.Close()
}
