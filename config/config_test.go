package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/LoveWonYoung/pcanconsole/driver"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pcanconsole.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, driver.KindPCAN, cfg.Driver.Kind)
	require.Equal(t, 1, cfg.Driver.USBBus)
	require.Equal(t, driver.DefaultBitrate, cfg.Driver.Bitrate)
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
driver = "socketcan"
usb_bus = 3
bitrate = "500K"
dll_path = ' C:\PEAK\PCANBasic.dll '
interface = "vcan0"
loopback_depth = 16
log_level = "debug"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, driver.KindSocketCAN, cfg.Driver.Kind)
	require.Equal(t, 3, cfg.Driver.USBBus)
	require.Equal(t, driver.Bitrate(0x001C), cfg.Driver.Bitrate)
	require.Equal(t, `C:\PEAK\PCANBasic.dll`, cfg.Driver.DLLPath)
	require.Equal(t, "vcan0", cfg.Driver.Interface)
	require.Equal(t, 16, cfg.Driver.LoopbackDepth)
	require.Equal(t, zerolog.DebugLevel, cfg.LogLevel)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `bitrate = "125k"`))
	require.NoError(t, err)
	require.Equal(t, driver.KindPCAN, cfg.Driver.Kind)
	require.Equal(t, driver.DefaultLoopbackDepth, cfg.Driver.LoopbackDepth)
	require.Equal(t, "125K", cfg.Driver.Bitrate.String())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown key", `baud = "250K"`},
		{"bad driver", `driver = "kvaser"`},
		{"bad bitrate", `bitrate = "42K"`},
		{"bus out of range", `usb_bus = 17`},
		{"zero depth", `loopback_depth = 0`},
		{"bad log level", `log_level = "loud"`},
		{"empty socketcan interface", "driver = \"socketcan\"\ninterface = \"\""},
		{"syntax", `driver = `},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			require.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadExampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "pcanconsole.example.toml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}
