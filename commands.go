package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/subcommands"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"github.com/LoveWonYoung/pcanconsole/config"
	"github.com/LoveWonYoung/pcanconsole/console"
	"github.com/LoveWonYoung/pcanconsole/driver"
)

func configFromArgs(args []any) *config.Config {
	if len(args) > 0 {
		if cfg, ok := args[0].(*config.Config); ok {
			return cfg
		}
	}
	cfg := config.Default()
	return &cfg
}

func openChannel(cfg *config.Config) (driver.Channel, error) {
	ch, err := driver.Open(cfg.Driver)
	if err != nil {
		return nil, fmt.Errorf("open %s driver: %w", cfg.Driver.Kind, err)
	}
	return ch, nil
}

// consoleCmd implements subcommands.Command for the "console" command.
type consoleCmd struct {
	in  io.Reader
	out io.Writer
}

// Name implements subcommands.Command.
func (*consoleCmd) Name() string { return "console" }

// Synopsis implements subcommands.Command.
func (*consoleCmd) Synopsis() string { return "interactively send and receive CAN frames (default)" }

// Usage implements subcommands.Command.
func (*consoleCmd) Usage() string { return "console\n" }

// SetFlags implements subcommands.Command.
func (*consoleCmd) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (c *consoleCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...any) subcommands.ExitStatus {
	cfg := configFromArgs(args)
	ch, err := openChannel(cfg)
	if err != nil {
		log.Error().Err(err).Msg("cannot open channel")
		return subcommands.ExitFailure
	}

	s := console.New(ch, c.in, c.out)
	if f, ok := c.in.(*os.File); ok {
		s.Banner = term.IsTerminal(int(f.Fd()))
	}
	if err := s.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return subcommands.ExitSuccess
		}
		log.Error().Err(err).Msg("console session ended with error")
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// sendCmd implements subcommands.Command for the "send" command.
type sendCmd struct {
	out  io.Writer
	id   string
	data string
}

// Name implements subcommands.Command.
func (*sendCmd) Name() string { return "send" }

// Synopsis implements subcommands.Command.
func (*sendCmd) Synopsis() string { return "send one CAN frame and exit" }

// Usage implements subcommands.Command.
func (*sendCmd) Usage() string { return "send -id <hex> [-data \"<hex bytes>\"]\n" }

// SetFlags implements subcommands.Command.
func (c *sendCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.id, "id", "", "message ID in hex, e.g. 100.")
	f.StringVar(&c.data, "data", "", "up to 8 data bytes in hex, separated by spaces or commas.")
}

// Execute implements subcommands.Command.Execute.
func (c *sendCmd) Execute(_ context.Context, f *flag.FlagSet, args ...any) subcommands.ExitStatus {
	if c.id == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	frame, err := buildFrame(c.id, c.data)
	if err != nil {
		fmt.Fprintf(c.out, "Invalid input: %v\n", err)
		return subcommands.ExitUsageError
	}

	return withChannel(configFromArgs(args), c.out, func(ch driver.Channel) error {
		if err := ch.Write(frame); err != nil {
			fmt.Fprintf(c.out, "Failed to send message. Error code: %s\n", console.DescribeError(err))
			return err
		}
		fmt.Fprintf(c.out, "Message sent! ID: 0x%x, Data: %s\n", frame.ID, console.FormatData(frame.Payload()))
		return nil
	})
}

func buildFrame(id, data string) (driver.Frame, error) {
	canID, err := console.ParseID(id)
	if err != nil {
		return driver.Frame{}, err
	}
	payload, err := console.ParseData(data)
	if err != nil {
		return driver.Frame{}, err
	}
	return driver.NewFrame(canID, payload)
}

// recvCmd implements subcommands.Command for the "recv" command.
type recvCmd struct {
	out io.Writer
}

// Name implements subcommands.Command.
func (*recvCmd) Name() string { return "recv" }

// Synopsis implements subcommands.Command.
func (*recvCmd) Synopsis() string { return "read one CAN frame from the receive queue and exit" }

// Usage implements subcommands.Command.
func (*recvCmd) Usage() string { return "recv\n" }

// SetFlags implements subcommands.Command.
func (*recvCmd) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (c *recvCmd) Execute(_ context.Context, _ *flag.FlagSet, args ...any) subcommands.ExitStatus {
	return withChannel(configFromArgs(args), c.out, func(ch driver.Channel) error {
		frame, err := ch.Read()
		if err != nil {
			fmt.Fprintf(c.out, "Failed to receive message. Error code: %s\n", console.DescribeError(err))
			return err
		}
		fmt.Fprintf(c.out, "Message received! ID: 0x%x, Data: %s\n", frame.ID, console.FormatData(frame.Payload()))
		return nil
	})
}

// withChannel runs fn between Initialize and Uninitialize of the configured channel.
func withChannel(cfg *config.Config, out io.Writer, fn func(driver.Channel) error) subcommands.ExitStatus {
	ch, err := openChannel(cfg)
	if err != nil {
		log.Error().Err(err).Msg("cannot open channel")
		return subcommands.ExitFailure
	}
	if err := ch.Initialize(); err != nil {
		fmt.Fprintf(out, "Failed to connect to the CAN bus. Error code: %s\n", console.DescribeError(err))
		return subcommands.ExitFailure
	}
	status := subcommands.ExitSuccess
	if err := fn(ch); err != nil {
		status = subcommands.ExitFailure
	}
	if err := ch.Uninitialize(); err != nil {
		log.Warn().Err(err).Str("channel", ch.Name()).Msg("uninitialize failed")
	}
	return status
}

// bitratesCmd implements subcommands.Command for the "bitrates" command.
type bitratesCmd struct {
	out io.Writer
}

// Name implements subcommands.Command.
func (*bitratesCmd) Name() string { return "bitrates" }

// Synopsis implements subcommands.Command.
func (*bitratesCmd) Synopsis() string { return "list supported bitrates" }

// Usage implements subcommands.Command.
func (*bitratesCmd) Usage() string { return "bitrates\n" }

// SetFlags implements subcommands.Command.
func (*bitratesCmd) SetFlags(*flag.FlagSet) {}

// Execute implements subcommands.Command.Execute.
func (c *bitratesCmd) Execute(_ context.Context, _ *flag.FlagSet, args ...any) subcommands.ExitStatus {
	printBitrates(c.out, configFromArgs(args).Driver.Bitrate)
	return subcommands.ExitSuccess
}

func printBitrates(out io.Writer, current driver.Bitrate) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tREGISTER\t")
	for _, b := range driver.Bitrates() {
		marker := ""
		if b.Value == current {
			marker = "*"
		}
		fmt.Fprintf(w, "%s\t0x%04X\t%s\n", b.Name, uint16(b.Value), marker)
	}
	w.Flush()
}
