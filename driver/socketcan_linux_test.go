//go:build linux

package driver

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestSocketCAN_MissingInterface(t *testing.T) {
	ch, err := openSocketCAN("nosuchcan9")
	require.NoError(t, err)
	require.Equal(t, "socketcan nosuchcan9", ch.Name())

	err = ch.Initialize()
	require.Equal(t, StatusIllHw, StatusCode(err))

	// a failed Initialize leaves the channel closed
	require.Equal(t, StatusInitialize, StatusCode(ch.Uninitialize()))
}

func TestSocketCAN_NotInitialized(t *testing.T) {
	ch, err := openSocketCAN("vcan0")
	require.NoError(t, err)

	_, err = ch.Read()
	require.Equal(t, StatusInitialize, StatusCode(err))
	f, _ := NewFrame(0x100, []byte{1})
	require.Equal(t, StatusInitialize, StatusCode(ch.Write(f)))
	require.Equal(t, StatusInitialize, StatusCode(ch.Uninitialize()))
}

func TestErrnoStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		fallback Status
		want     Status
	}{
		{"network down", unix.ENETDOWN, StatusUnknown, StatusIllNet},
		{"no device", unix.ENODEV, StatusUnknown, StatusIllHw},
		{"no such address", unix.ENXIO, StatusUnknown, StatusIllHw},
		{"family unsupported", unix.EAFNOSUPPORT, StatusResource, StatusNoDriver},
		{"protocol unsupported", unix.EPROTONOSUPPORT, StatusResource, StatusNoDriver},
		{"bad descriptor", unix.EBADF, StatusUnknown, StatusInitialize},
		{"wrapped errno", fmt.Errorf("bind: %w", unix.ENODEV), StatusUnknown, StatusIllHw},
		{"other errno", unix.EPERM, StatusResource, StatusResource},
		{"non errno", errors.New("boom"), StatusUnknown, StatusUnknown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := errnoStatus("socketcan test", tc.err, tc.fallback)

			var se *StatusError
			require.ErrorAs(t, err, &se)
			require.Equal(t, tc.want, se.Code)
			require.Equal(t, "socketcan test", se.Op)
			require.Equal(t, tc.err.Error(), se.Text)
		})
	}
}
