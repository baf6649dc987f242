package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

// Input is handed to every command's run function.
type Input struct {
	Logger *slog.Logger
	Stdout io.Writer
}

// CLI is the root command plus the flags shared by all subcommands.
type CLI struct {
	root      *cobra.Command
	logLevel  string
	logFormat string
}

func NewCLI(name, short string) *CLI {
	c := &CLI{
		logLevel:  "info",
		logFormat: "text",
	}
	c.root = &cobra.Command{
		Use:           name,
		Short:         short,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	c.root.PersistentFlags().StringVar(&c.logLevel, "log-level", c.logLevel, "Log level (debug, info, warn, error)")
	c.root.PersistentFlags().StringVar(&c.logFormat, "log-format", c.logFormat, "Log format (text, json)")
	return c
}

func (c *CLI) AddCommands(cmds ...*cobra.Command) {
	c.root.AddCommand(cmds...)
}

// Root exposes the root command, mainly for tests.
func (c *CLI) Root() *cobra.Command {
	return c.root
}

// Run executes the command line, cancelling the context on SIGINT or SIGTERM.
func (c *CLI) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return c.root.ExecuteContext(ctx)
}

// WithContext adapts a run function to cobra, building the logger from the
// persistent flags.
func WithContext(run func(ctx context.Context, input Input) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		level, _ := cmd.Flags().GetString("log-level")
		format, _ := cmd.Flags().GetString("log-format")
		logger, err := NewLogger(cmd.ErrOrStderr(), level, format)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		return run(ctx, Input{Logger: logger, Stdout: cmd.OutOrStdout()})
	}
}

// NewLogger builds a slog logger writing to w.
func NewLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if level == "" {
		level = "info"
	}
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}
	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, errors.Newf("invalid log format %q", format)
	}
}
