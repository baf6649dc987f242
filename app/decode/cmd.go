package decode

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	ecan "go.einride.tech/can"

	"github.com/BIwashi/sigcodec/pkg/can"
	"github.com/BIwashi/sigcodec/pkg/cli"
	"github.com/BIwashi/sigcodec/pkg/dbc"
)

type decoder struct {
	networkFile string
	frame       string
	id          string
	data        string
	output      string
}

func NewCommand() *cobra.Command {
	s := &decoder{
		output: "text",
	}

	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode one CAN frame using a network definition.",
		Example: `  # candump notation
  sigcodec decode --network engine.dbc --frame 200#1F400100

  # identifier and payload separately, as JSON
  sigcodec decode --network engine.yaml --id 0x200 --data 1F400100 --output json`,
		RunE: cli.WithContext(s.run),
	}

	cmd.Flags().StringVar(&s.networkFile, "network", s.networkFile, "Network definition (.dbc, .yaml)")
	cmd.Flags().StringVar(&s.frame, "frame", s.frame, "Frame in candump notation (ID#DATA)")
	cmd.Flags().StringVar(&s.id, "id", s.id, "Message identifier")
	cmd.Flags().StringVar(&s.data, "data", s.data, "Payload as hex")
	cmd.Flags().StringVar(&s.output, "output", s.output, "Output format (text, json)")

	cmd.MarkFlagRequired("network")
	cmd.MarkFlagsMutuallyExclusive("frame", "id")
	cmd.MarkFlagsRequiredTogether("id", "data")
	cmd.MarkFlagsOneRequired("frame", "id")

	return cmd
}

func (s *decoder) run(ctx context.Context, input cli.Input) error {
	network, err := dbc.LoadFile(s.networkFile)
	if err != nil {
		return err
	}
	input.Logger.Debug("Loaded network", "network_file", s.networkFile, "messages", network.MessageCount())

	frame, err := s.parseFrame(network)
	if err != nil {
		return err
	}

	decoded, err := dbc.NewDecoder(network).DecodeFrame(&can.TimedFrame{Frame: frame})
	if err != nil {
		return errors.Wrap(err, "decode frame")
	}
	for _, v := range decoded.OutOfRange() {
		input.Logger.Warn("signal_out_of_range",
			"message", decoded.MessageName,
			"signal", v.Signal.Name,
			"value", v.Physical,
			"min", v.Signal.Bounds.Min,
			"max", v.Signal.Bounds.Max,
		)
	}

	switch s.output {
	case "text":
		return writeText(input.Stdout, decoded)
	case "json":
		return writeJSON(input.Stdout, decoded)
	default:
		return errors.Newf("unknown output format %q", s.output)
	}
}

func (s *decoder) parseFrame(network *dbc.Network) (ecan.Frame, error) {
	if s.frame != "" {
		return can.ParseFrame(s.frame)
	}
	id, err := can.ParseID(s.id)
	if err != nil {
		return ecan.Frame{}, err
	}
	payload, err := hex.DecodeString(strings.ReplaceAll(s.data, " ", ""))
	if err != nil {
		return ecan.Frame{}, errors.Wrap(err, "parse payload")
	}
	extended := id > 0x7FF
	if m, ok := network.GetMessage(id); ok {
		extended = m.IsExtended
	}
	return can.NewFrame(id, extended, payload)
}

func writeText(w io.Writer, msg *dbc.DecodedMessage) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (0x%X) %X\n", msg.MessageName, msg.MessageID, msg.RawData)
	for v := range msg.Signals.Values() {
		fmt.Fprintf(&b, "  %s = %s (raw %s)", v.Signal.Name, can.FormatSignalValue(v.Physical, v.Signal.Unit), v.Raw)
		if v.Description != "" {
			fmt.Fprintf(&b, " %q", v.Description)
		}
		if !v.InBounds() {
			b.WriteString(" OUT OF RANGE")
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

type jsonSignal struct {
	Name     string   `json:"name"`
	Raw      string   `json:"raw"`
	Physical *float64 `json:"physical"`
	// PhysicalText carries NaN and infinities, which JSON numbers cannot.
	PhysicalText string `json:"physical_text,omitempty"`
	Unit         string `json:"unit,omitempty"`
	Description  string `json:"description,omitempty"`
	OutOfRange   bool   `json:"out_of_range"`
}

type jsonMessage struct {
	Name     string       `json:"name"`
	ID       uint32       `json:"id"`
	Extended bool         `json:"extended"`
	Data     string       `json:"data"`
	Signals  []jsonSignal `json:"signals"`
}

func writeJSON(w io.Writer, msg *dbc.DecodedMessage) error {
	out := jsonMessage{
		Name:     msg.MessageName,
		ID:       msg.MessageID,
		Extended: msg.IsExtended,
		Data:     fmt.Sprintf("%X", msg.RawData),
		Signals:  make([]jsonSignal, 0, msg.Signals.Len()),
	}
	for v := range msg.Signals.Values() {
		js := jsonSignal{
			Name:        v.Signal.Name,
			Raw:         v.Raw.String(),
			Unit:        v.Signal.Unit,
			Description: v.Description,
			OutOfRange:  !v.InBounds(),
		}
		if math.IsNaN(v.Physical) || math.IsInf(v.Physical, 0) {
			js.PhysicalText = strconv.FormatFloat(v.Physical, 'g', -1, 64)
		} else {
			physical := v.Physical
			js.Physical = &physical
		}
		out.Signals = append(out.Signals, js)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return errors.Wrap(err, "encode json")
	}
	return nil
}
