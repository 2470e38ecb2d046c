package driver

import (
	"errors"
	"fmt"
)

// Channel 定义了单个CAN通道的统一接口, 每个方法对应一次同步的驱动调用
type Channel interface {
	Initialize() error
	Read() (Frame, error)
	Write(f Frame) error
	Uninitialize() error
	Name() string
}

// ErrUnsupported is returned by Open when a backend is not available on this platform.
var ErrUnsupported = errors.New("driver not supported on this platform")

// Open creates the backend selected by cfg. The channel is not initialized yet.
func Open(cfg Config) (Channel, error) {
	switch cfg.Kind {
	case KindPCAN:
		handle, err := USBHandle(cfg.USBBus)
		if err != nil {
			return nil, err
		}
		return openPCAN(handle, cfg)
	case KindSocketCAN:
		if cfg.Interface == "" {
			return nil, errors.New("socketcan: interface name is empty")
		}
		return openSocketCAN(cfg.Interface)
	case KindLoopback:
		depth := cfg.LoopbackDepth
		if depth <= 0 {
			depth = DefaultLoopbackDepth
		}
		return NewLoopback(depth), nil
	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.Kind)
	}
}
