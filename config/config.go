package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"github.com/LoveWonYoung/pcanconsole/driver"
	"github.com/LoveWonYoung/pcanconsole/logging"
)

// Config is the resolved runtime configuration.
type Config struct {
	Driver   driver.Config
	LogLevel zerolog.Level
}

func Default() Config {
	return Config{
		Driver:   driver.DefaultConfig(),
		LogLevel: zerolog.InfoLevel,
	}
}

type fileConfig struct {
	Driver        string `toml:"driver"`
	USBBus        int    `toml:"usb_bus"`
	Bitrate       string `toml:"bitrate"`
	DLLPath       string `toml:"dll_path"`
	Interface     string `toml:"interface"`
	LoopbackDepth int    `toml:"loopback_depth"`
	LogLevel      string `toml:"log_level"`
}

// Load reads a TOML file on top of the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.decode(string(data)); err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) decode(doc string) error {
	var raw fileConfig
	meta, err := toml.Decode(doc, &raw)
	if err != nil {
		return err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}

	if meta.IsDefined("driver") {
		if err := c.SetDriver(raw.Driver); err != nil {
			return err
		}
	}
	if meta.IsDefined("usb_bus") {
		c.Driver.USBBus = raw.USBBus
	}
	if meta.IsDefined("bitrate") {
		if err := c.SetBitrate(raw.Bitrate); err != nil {
			return err
		}
	}
	if meta.IsDefined("dll_path") {
		c.Driver.DLLPath = strings.TrimSpace(raw.DLLPath)
	}
	if meta.IsDefined("interface") {
		c.Driver.Interface = strings.TrimSpace(raw.Interface)
	}
	if meta.IsDefined("loopback_depth") {
		c.Driver.LoopbackDepth = raw.LoopbackDepth
	}
	if meta.IsDefined("log_level") {
		if err := c.SetLogLevel(raw.LogLevel); err != nil {
			return err
		}
	}
	return c.Validate()
}

func (c *Config) SetDriver(s string) error {
	k, err := driver.ParseKind(s)
	if err != nil {
		return err
	}
	c.Driver.Kind = k
	return nil
}

func (c *Config) SetBitrate(s string) error {
	b, err := driver.ParseBitrate(s)
	if err != nil {
		return err
	}
	c.Driver.Bitrate = b
	return nil
}

func (c *Config) SetLogLevel(s string) error {
	lvl, ok := logging.ParseLevel(s)
	if !ok {
		return fmt.Errorf("unknown log level %q", s)
	}
	c.LogLevel = lvl
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if _, err := driver.ParseKind(string(c.Driver.Kind)); err != nil {
		errs = append(errs, err)
	}
	if _, err := driver.USBHandle(c.Driver.USBBus); err != nil {
		errs = append(errs, err)
	}
	if c.Driver.LoopbackDepth <= 0 {
		errs = append(errs, fmt.Errorf("loopback_depth must be positive, got %d", c.Driver.LoopbackDepth))
	}
	if c.Driver.Kind == driver.KindSocketCAN && c.Driver.Interface == "" {
		errs = append(errs, errors.New("interface is required for the socketcan driver"))
	}
	return errors.Join(errs...)
}
