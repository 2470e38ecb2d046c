//go:build !linux

package driver

import "fmt"

func openSocketCAN(iface string) (Channel, error) {
	return nil, fmt.Errorf("socketcan %s: %w", iface, ErrUnsupported)
}
