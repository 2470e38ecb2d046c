package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/subcommands"
	"github.com/rs/zerolog/log"

	"github.com/LoveWonYoung/pcanconsole/config"
	"github.com/LoveWonYoung/pcanconsole/logging"
)

// globalFlags are the top-level flags shared by every command.
type globalFlags struct {
	configPath string
	driverName string
	usbBus     int
	bitrate    string
	dllPath    string
	iface      string
	logLevel   string
}

func (g *globalFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&g.configPath, "config", "", "path to a TOML config file.")
	fs.StringVar(&g.driverName, "driver", "", "driver backend: pcan, socketcan or loopback.")
	fs.IntVar(&g.usbBus, "bus", 0, "PCAN-USB bus number (1 = PCAN_USBBUS1).")
	fs.StringVar(&g.bitrate, "bitrate", "", "bus bitrate, e.g. 250K (see the bitrates command).")
	fs.StringVar(&g.dllPath, "dll", "", "path to PCANBasic.dll or its directory.")
	fs.StringVar(&g.iface, "iface", "", "SocketCAN interface name.")
	fs.StringVar(&g.logLevel, "log-level", "", "log level: trace, debug, info, warn, error or off.")
}

func main() {
	var g globalFlags
	g.register(flag.CommandLine)
	cdr := newCommander(flag.CommandLine, os.Stdin, os.Stdout)
	flag.Parse()

	cfg, err := g.resolve(flag.CommandLine)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pcanconsole: %v\n", err)
		os.Exit(int(subcommands.ExitUsageError))
	}
	logging.Apply(loggingConfig(cfg, flag.CommandLine))
	log.Debug().
		Str("driver", string(cfg.Driver.Kind)).
		Int("bus", cfg.Driver.USBBus).
		Str("bitrate", cfg.Driver.Bitrate.String()).
		Msg("configuration resolved")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	status := execute(ctx, flag.CommandLine, cdr, &consoleCmd{in: os.Stdin, out: os.Stdout}, &cfg)
	stop()
	os.Exit(int(status))
}

func newCommander(fs *flag.FlagSet, in io.Reader, out io.Writer) *subcommands.Commander {
	cdr := subcommands.NewCommander(fs, "pcanconsole")
	cdr.Register(cdr.HelpCommand(), "")
	cdr.Register(cdr.FlagsCommand(), "")
	cdr.Register(cdr.CommandsCommand(), "")
	cdr.Register(&consoleCmd{in: in, out: out}, "")
	cdr.Register(&sendCmd{out: out}, "")
	cdr.Register(&recvCmd{out: out}, "")
	cdr.Register(&bitratesCmd{out: out}, "")
	return cdr
}

// execute runs the console when no command is named on the command line.
func execute(ctx context.Context, fs *flag.FlagSet, cdr *subcommands.Commander, fallback subcommands.Command, cfg *config.Config) subcommands.ExitStatus {
	if fs.NArg() == 0 {
		return fallback.Execute(ctx, fs, cfg)
	}
	return cdr.Execute(ctx, cfg)
}

// resolve layers the config file and then explicitly set flags over the defaults.
func (g *globalFlags) resolve(fs *flag.FlagSet) (config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return config.Config{}, err
	}

	var errs []error
	fs.Visit(func(f *flag.Flag) {
		var err error
		switch f.Name {
		case "driver":
			err = cfg.SetDriver(g.driverName)
		case "bus":
			cfg.Driver.USBBus = g.usbBus
		case "bitrate":
			err = cfg.SetBitrate(g.bitrate)
		case "dll":
			cfg.Driver.DLLPath = g.dllPath
		case "iface":
			cfg.Driver.Interface = g.iface
		case "log-level":
			err = cfg.SetLogLevel(g.logLevel)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("-%s: %w", f.Name, err))
		}
	})
	if err := errors.Join(errs...); err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// loggingConfig resolves the log level: defaults, then the config file,
// then PCANCONSOLE_LOG_*, then -log-level.
func loggingConfig(cfg config.Config, fs *flag.FlagSet) logging.Config {
	logCfg := logging.DefaultConfig(logging.ProfileRuntime)
	logCfg.Level = cfg.LogLevel
	logging.ApplyEnv(&logCfg)
	if isFlagSet(fs, "log-level") {
		logCfg.Level = cfg.LogLevel
	}
	return logCfg
}

func isFlagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}
