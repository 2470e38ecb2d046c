package driver

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// 缓冲区与默认配置常量
const (
	DefaultUSBBus        = 1    // PCAN_USBBUS1
	DefaultLoopbackDepth = 64   // 回环驱动队列深度
	DefaultInterface     = "can0"
	pcanUSBBaseLow       = 0x51  // PCAN_USBBUS1..8
	pcanUSBBaseHigh      = 0x500 // PCAN_USBBUS9..16
)

// Kind 驱动后端类型
type Kind string

const (
	KindPCAN      Kind = "pcan"
	KindSocketCAN Kind = "socketcan"
	KindLoopback  Kind = "loopback"
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindPCAN, KindSocketCAN, KindLoopback:
		return k, nil
	default:
		return "", fmt.Errorf("unknown driver %q (want pcan, socketcan or loopback)", s)
	}
}

// Bitrate is a PCAN-Basic TPCANBaudrate register value (BTR0/BTR1).
type Bitrate uint16

const DefaultBitrate Bitrate = 0x011C // PCAN_BAUD_250K

var bitrateNames = map[string]Bitrate{
	"1M":   0x0014,
	"800K": 0x0016,
	"500K": 0x001C,
	"250K": 0x011C,
	"125K": 0x031C,
	"100K": 0x432F,
	"95K":  0xC34E,
	"83K":  0x852B,
	"50K":  0x472F,
	"47K":  0x1414,
	"33K":  0x8B2F,
	"20K":  0x532F,
	"10K":  0x672F,
	"5K":   0x7F7F,
}

func ParseBitrate(s string) (Bitrate, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if b, ok := bitrateNames[name]; ok {
		return b, nil
	}
	return 0, fmt.Errorf("unknown bitrate %q", s)
}

func (b Bitrate) String() string {
	for name, v := range bitrateNames {
		if v == b {
			return name
		}
	}
	return fmt.Sprintf("0x%04X", uint16(b))
}

// BitrateEntry is one row of the supported bitrate table.
type BitrateEntry struct {
	Name  string
	Value Bitrate
	bps   int
}

// Bitrates lists the supported bitrates, fastest first.
func Bitrates() []BitrateEntry {
	out := make([]BitrateEntry, 0, len(bitrateNames))
	for name, v := range bitrateNames {
		out = append(out, BitrateEntry{Name: name, Value: v, bps: nameToBps(name)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].bps > out[j].bps })
	return out
}

func nameToBps(name string) int {
	mult := 1000
	if strings.HasSuffix(name, "M") {
		mult = 1000000
	}
	n, _ := strconv.Atoi(strings.TrimRight(name, "KM"))
	return n * mult
}

// USBHandle maps a 1-based PCAN-USB bus number to its TPCANHandle.
func USBHandle(bus int) (uint16, error) {
	if bus < 1 || bus > 16 {
		return 0, fmt.Errorf("pcan usb bus %d out of range (1-16)", bus)
	}
	if bus <= 8 {
		return uint16(pcanUSBBaseLow + bus - 1), nil
	}
	return uint16(pcanUSBBaseHigh + bus), nil
}

// Config selects and parameterizes one backend.
type Config struct {
	Kind          Kind
	USBBus        int
	Bitrate       Bitrate
	DLLPath       string
	Interface     string
	LoopbackDepth int
}

func DefaultConfig() Config {
	return Config{
		Kind:          KindPCAN,
		USBBus:        DefaultUSBBus,
		Bitrate:       DefaultBitrate,
		Interface:     DefaultInterface,
		LoopbackDepth: DefaultLoopbackDepth,
	}
}
