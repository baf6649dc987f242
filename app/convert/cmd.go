package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/BIwashi/sigcodec/pkg/cli"
	"github.com/BIwashi/sigcodec/pkg/dbc"
	"github.com/BIwashi/sigcodec/pkg/mcap"
	"github.com/BIwashi/sigcodec/pkg/pcapng"
)

type converter struct {
	networkFile string
	pcapngFile  string
	mcapFile    string
}

// Stats summarizes one conversion.
type Stats struct {
	Frames     int
	Decoded    int
	Skipped    int
	OutOfRange int
	Channels   int
	PerMessage map[uint32]int
}

func NewCommand() *cobra.Command {
	s := &converter{}

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert CAN data captured with pcapng to MCAP using a network definition.",
		Long: `Convert PCAPNG files captured from CAN bus to MCAP format.

This command reads CAN frames from a PCAPNG file, decodes them using a DBC or
YAML network definition, and writes every decoded signal to an MCAP file with
a protobuf schema.`,
		Example: `  # Convert PCAPNG to MCAP
  sigcodec convert --network toyota.dbc --pcapng-file capture.pcapng --mcap-file output.mcap`,
		RunE: cli.WithContext(s.run),
	}

	cmd.Flags().StringVar(&s.networkFile, "network", s.networkFile, "Network definition (.dbc, .yaml)")
	cmd.Flags().StringVar(&s.pcapngFile, "pcapng-file", s.pcapngFile, "PCAPNG file")
	cmd.Flags().StringVar(&s.mcapFile, "mcap-file", s.mcapFile, "MCAP file")

	cmd.MarkFlagRequired("network")
	cmd.MarkFlagRequired("pcapng-file")
	cmd.MarkFlagRequired("mcap-file")

	return cmd
}

func (s *converter) run(ctx context.Context, input cli.Input) error {
	input.Logger.Info("Starting PCAPNG to MCAP conversion",
		"network_file", s.networkFile,
		"pcapng_file", s.pcapngFile,
		"mcap_file", s.mcapFile,
	)

	network, err := dbc.LoadFile(s.networkFile)
	if err != nil {
		return errors.Wrap(err, "failed to load network definition")
	}
	input.Logger.Info(fmt.Sprintf("Found %d messages in network definition", network.MessageCount()))

	pcapFile, err := os.Open(s.pcapngFile)
	if err != nil {
		return errors.Wrap(err, "failed to open PCAPNG file")
	}
	defer pcapFile.Close()

	mcapOutFile, err := os.Create(s.mcapFile)
	if err != nil {
		return errors.Wrap(err, "failed to create MCAP file")
	}
	defer mcapOutFile.Close()

	startTime := time.Now()
	stats, err := Convert(ctx, input, network, pcapFile, mcapOutFile)
	if err != nil {
		return err
	}
	duration := time.Since(startTime)

	input.Logger.Info("Conversion completed successfully!",
		"total_frames", stats.Frames,
		"decoded_messages", stats.Decoded,
		"skipped_frames", stats.Skipped,
		"out_of_range_signals", stats.OutOfRange,
		"channels", stats.Channels,
		"output_file", s.mcapFile,
		"duration", duration,
		"rate_fps", fmt.Sprintf("%.2f", float64(stats.Frames)/duration.Seconds()),
	)

	if len(stats.PerMessage) > 0 {
		input.Logger.Info(fmt.Sprintf("Found %d unique message types", len(stats.PerMessage)))
		for msg := range network.Messages() {
			if count, ok := stats.PerMessage[msg.ID]; ok {
				input.Logger.Debug(fmt.Sprintf("  0x%03X (%s): %d messages", msg.ID, msg.Name, count))
			}
		}
	}
	return nil
}

// Convert decodes every CAN frame of a pcapng capture and writes the signals
// to out as MCAP. Frames that do not match a message are skipped.
func Convert(ctx context.Context, input cli.Input, network *dbc.Network, in io.Reader, out io.Writer) (*Stats, error) {
	reader, err := pcapng.NewReader(in)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create PCAPNG reader")
	}
	writer, err := mcap.NewWriter(out)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create MCAP writer")
	}

	decoder := dbc.NewDecoder(network)
	stats := &Stats{PerMessage: make(map[uint32]int)}

	for {
		select {
		case <-ctx.Done():
			return nil, errors.Wrap(ctx.Err(), "conversion cancelled")
		default:
		}

		frame, err := reader.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, errors.Wrap(err, "failed to read frame")
		}
		stats.Frames++

		decoded, err := decoder.DecodeFrame(frame)
		if err != nil {
			stats.Skipped++
			input.Logger.Debug("frame_skipped", "can_id", fmt.Sprintf("0x%03X", frame.ID), "reason", err.Error())
			continue
		}

		for _, sv := range decoded.OutOfRange() {
			stats.OutOfRange++
			input.Logger.Debug("signal_out_of_range",
				"can_id", fmt.Sprintf("0x%03X", decoded.MessageID),
				"message", decoded.MessageName,
				"signal", sv.Signal.Name,
				"value", sv.Physical,
				"min", sv.Signal.Bounds.Min,
				"max", sv.Signal.Bounds.Max,
			)
		}

		if err := writer.WriteMessage(decoded); err != nil {
			return nil, errors.Wrap(err, "failed to write message")
		}
		stats.Decoded++
		stats.PerMessage[decoded.MessageID]++

		if stats.Frames%10000 == 0 {
			input.Logger.Info(fmt.Sprintf("Progress: %d frames processed, %d messages decoded, %d skipped",
				stats.Frames, stats.Decoded, stats.Skipped))
		}
	}

	stats.Channels = writer.ChannelCount()
	if err := writer.Close(); err != nil {
		return nil, errors.Wrap(err, "failed to finalize MCAP file")
	}
	return stats, nil
}
