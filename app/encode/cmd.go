package encode

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/BIwashi/sigcodec/pkg/can"
	"github.com/BIwashi/sigcodec/pkg/cli"
	"github.com/BIwashi/sigcodec/pkg/dbc"
)

type encoder struct {
	networkFile string
	message     string
	sets        []string
	raw         bool
}

func NewCommand() *cobra.Command {
	s := &encoder{}

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Build a CAN frame from signal values.",
		Long: `Build a CAN frame from signal values.

Values are physical unless --raw is given. Signals are written in declaration
order, so the multiplexor is set before the signals it selects. The frame is
printed in candump notation.`,
		Example: `  sigcodec encode --network engine.dbc --id 0x200 --set rpm=2000 --set temp=-39`,
		RunE:    cli.WithContext(s.run),
	}

	cmd.Flags().StringVar(&s.networkFile, "network", s.networkFile, "Network definition (.dbc, .yaml)")
	cmd.Flags().StringVar(&s.message, "id", s.message, "Message identifier or name")
	cmd.Flags().StringArrayVar(&s.sets, "set", s.sets, "Signal value as NAME=VALUE (repeatable)")
	cmd.Flags().BoolVar(&s.raw, "raw", s.raw, "Treat values as raw integers instead of physical values")

	cmd.MarkFlagRequired("network")
	cmd.MarkFlagRequired("id")

	return cmd
}

func (s *encoder) run(ctx context.Context, input cli.Input) error {
	network, err := dbc.LoadFile(s.networkFile)
	if err != nil {
		return err
	}
	message, err := lookupMessage(network, s.message)
	if err != nil {
		return err
	}

	values := make(map[string]dbc.Value, len(s.sets))
	for _, set := range s.sets {
		name, text, ok := strings.Cut(set, "=")
		if !ok {
			return errors.Newf("invalid --set %q, want NAME=VALUE", set)
		}
		signal, ok := message.Signal(name)
		if !ok {
			return errors.Wrapf(dbc.ErrUnknownSignal, "message %s: %q", message.Name, name)
		}
		v, err := parseValue(signal, text, s.raw)
		if err != nil {
			return err
		}
		values[name] = v
	}

	payload := message.NewPayload()
	if err := message.Encode(payload, values); err != nil {
		return err
	}
	frame, err := message.Frame(payload)
	if err != nil {
		return err
	}
	input.Logger.Debug("Encoded frame", "message", message.Name, "signals", len(values))

	_, err = fmt.Fprintln(input.Stdout, frame.String())
	return err
}

func lookupMessage(network *dbc.Network, s string) (*dbc.Message, error) {
	if m, ok := network.MessageByName(s); ok {
		return m, nil
	}
	id, err := can.ParseID(s)
	if err != nil {
		return nil, errors.Wrapf(dbc.ErrUnknownMessage, "%q", s)
	}
	return network.Message(id)
}

func parseValue(signal *dbc.Signal, text string, raw bool) (dbc.Value, error) {
	if !raw {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "signal %s", signal.Name)
		}
		return dbc.Physical(f), nil
	}
	switch signal.ValueType {
	case can.Float:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "signal %s", signal.Name)
		}
		return dbc.Raw(can.Float64Raw(f)), nil
	case can.Signed:
		n, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "signal %s", signal.Name)
		}
		return dbc.Raw(can.SignedRaw(n)), nil
	default:
		n, err := strconv.ParseUint(text, 0, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "signal %s", signal.Name)
		}
		return dbc.Raw(can.UnsignedRaw(n)), nil
	}
}
