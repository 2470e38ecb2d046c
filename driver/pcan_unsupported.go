//go:build !windows

package driver

import "fmt"

func openPCAN(handle uint16, _ Config) (Channel, error) {
	return nil, fmt.Errorf("pcan handle 0x%02X: PCANBasic.dll requires windows: %w", handle, ErrUnsupported)
}
