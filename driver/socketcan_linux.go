//go:build linux

package driver

import (
	"errors"
	"fmt"
	"net"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// SocketCAN drives a Linux CAN netdev through a raw AF_CAN socket.
// The bitrate belongs to the netdev and is configured with `ip link`.
type SocketCAN struct {
	iface string
	fd    int
}

func openSocketCAN(iface string) (Channel, error) {
	return &SocketCAN{iface: iface, fd: -1}, nil
}

func (s *SocketCAN) Name() string { return "socketcan " + s.iface }

func (s *SocketCAN) Initialize() error {
	if s.fd >= 0 {
		return statusErr("socketcan initialize", StatusNetInUse)
	}
	ifi, err := net.InterfaceByName(s.iface)
	if err != nil {
		return &StatusError{Op: "socketcan initialize", Code: StatusIllHw, Text: err.Error()}
	}
	if ifi.Flags&net.FlagUp == 0 {
		return &StatusError{Op: "socketcan initialize", Code: StatusIllNet, Text: fmt.Sprintf("interface %s is down", s.iface)}
	}
	fd, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW|unix.SOCK_CLOEXEC, unix.CAN_RAW)
	if err != nil {
		return errnoStatus("socketcan initialize", err, StatusResource)
	}
	if err := unix.Bind(fd, &unix.SockaddrCAN{Ifindex: ifi.Index}); err != nil {
		unix.Close(fd)
		return errnoStatus("socketcan initialize", err, StatusIllHw)
	}
	s.fd = fd
	log.Info().Str("channel", s.Name()).Int("ifindex", ifi.Index).Msg("SocketCAN channel initialized")
	return nil
}

func (s *SocketCAN) Read() (Frame, error) {
	if s.fd < 0 {
		return Frame{}, statusErr("socketcan read", StatusInitialize)
	}
	buf := make([]byte, canFrameSize)
	n, _, err := unix.Recvfrom(s.fd, buf, unix.MSG_DONTWAIT)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) {
			return Frame{}, statusErr("socketcan read", StatusQRcvEmpty)
		}
		return Frame{}, errnoStatus("socketcan read", err, StatusUnknown)
	}
	f, err := unmarshalCANFrame(buf[:n])
	if err != nil {
		return Frame{}, &StatusError{Op: "socketcan read", Code: StatusIllData, Text: err.Error()}
	}
	logCANMessage("RX", s.Name(), f)
	return f, nil
}

func (s *SocketCAN) Write(f Frame) error {
	if s.fd < 0 {
		return statusErr("socketcan write", StatusInitialize)
	}
	buf, err := marshalCANFrame(f)
	if err != nil {
		return &StatusError{Op: "socketcan write", Code: StatusIllData, Text: err.Error()}
	}
	n, err := unix.Write(s.fd, buf)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.ENOBUFS) {
			return statusErr("socketcan write", StatusQXmtFull)
		}
		return errnoStatus("socketcan write", err, StatusUnknown)
	}
	if n != len(buf) {
		return &StatusError{Op: "socketcan write", Code: StatusXmtFull, Text: fmt.Sprintf("short write %d/%d", n, len(buf))}
	}
	logCANMessage("TX", s.Name(), f)
	return nil
}

func (s *SocketCAN) Uninitialize() error {
	if s.fd < 0 {
		return statusErr("socketcan uninitialize", StatusInitialize)
	}
	err := unix.Close(s.fd)
	s.fd = -1
	if err != nil {
		return errnoStatus("socketcan uninitialize", err, StatusUnknown)
	}
	log.Info().Str("channel", s.Name()).Msg("SocketCAN channel closed")
	return nil
}

func errnoStatus(op string, err error, fallback Status) error {
	code := fallback
	switch {
	case errors.Is(err, unix.ENETDOWN):
		code = StatusIllNet
	case errors.Is(err, unix.ENODEV), errors.Is(err, unix.ENXIO):
		code = StatusIllHw
	case errors.Is(err, unix.EAFNOSUPPORT), errors.Is(err, unix.EPROTONOSUPPORT):
		code = StatusNoDriver
	case errors.Is(err, unix.EBADF):
		code = StatusInitialize
	}
	return &StatusError{Op: op, Code: code, Text: err.Error()}
}
