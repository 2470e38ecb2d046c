package driver

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestNewFrame(t *testing.T) {
	tests := []struct {
		name    string
		id      uint32
		data    []byte
		want    Frame
		wantErr error
	}{
		{
			name: "standard frame",
			id:   0x100,
			data: []byte{0x01, 0x02},
			want: Frame{ID: 0x100, MsgType: MessageStandard, Len: 2, Data: [8]byte{0x01, 0x02}},
		},
		{
			name: "zero length",
			id:   0x7FF,
			want: Frame{ID: 0x7FF, MsgType: MessageStandard},
		},
		{
			name: "extended id",
			id:   0x18DAF110,
			data: []byte{1, 2, 3, 4, 5, 6, 7, 8},
			want: Frame{ID: 0x18DAF110, MsgType: MessageExtended, Len: 8, Data: [8]byte{1, 2, 3, 4, 5, 6, 7, 8}},
		},
		{name: "too long", id: 0x100, data: make([]byte, 9), wantErr: ErrInvalidLen},
		{name: "id out of range", id: 0x20000000, wantErr: ErrInvalidID},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NewFrame(tc.id, tc.data)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("NewFrame(0x%X) mismatch (-want +got):\n%s", tc.id, diff)
			}
		})
	}
}

func TestFrameString(t *testing.T) {
	std, _ := NewFrame(0x123, []byte{0xDE, 0xAD})
	ext, _ := NewFrame(0x1ABCDEFF, nil)
	rtr := Frame{ID: 0x10, MsgType: MessageRTR, Len: 4}

	require.Equal(t, "123 [2] DE AD", std.String())
	require.Equal(t, "1ABCDEFF [0]", ext.String())
	require.Equal(t, "010 [4] RTR", rtr.String())
}

func TestFramePayloadClampsLength(t *testing.T) {
	f := Frame{Len: 200}
	require.Len(t, f.Payload(), MaxDataLen)
}

func TestStatusString(t *testing.T) {
	require.Equal(t, "receive queue is empty", StatusQRcvEmpty.String())
	require.Equal(t, "no error", StatusOK.String())
	require.Contains(t, (StatusBusLight | StatusBusOff).String(), "bus-off")
	require.Equal(t, "undefined status 0x00003", Status(3).String())
}

func TestStatusCode(t *testing.T) {
	err := fmt.Errorf("receive: %w", statusErr("pcan read", StatusQRcvEmpty))
	require.Equal(t, StatusQRcvEmpty, StatusCode(err))
	require.True(t, IsEmptyQueue(err))

	require.Equal(t, StatusOK, StatusCode(nil))
	require.Equal(t, StatusUnknown, StatusCode(errors.New("boom")))
	require.NoError(t, statusErr("noop", StatusOK))
}

func TestStatusErrorMessage(t *testing.T) {
	err := &StatusError{Op: "pcan write", Code: StatusQXmtFull}
	require.Equal(t, "pcan write: status 0x00080 (transmit queue is full)", err.Error())

	err.Text = "The transmit queue is full"
	require.Equal(t, "pcan write: status 0x00080 (The transmit queue is full)", err.Error())
}

func TestUSBHandle(t *testing.T) {
	tests := []struct {
		bus  int
		want uint16
	}{
		{1, 0x51},
		{8, 0x58},
		{9, 0x509},
		{16, 0x510},
	}
	for _, tc := range tests {
		got, err := USBHandle(tc.bus)
		require.NoError(t, err)
		require.Equalf(t, tc.want, got, "bus %d", tc.bus)
	}

	for _, bad := range []int{0, 17, -1} {
		_, err := USBHandle(bad)
		require.Errorf(t, err, "bus %d", bad)
	}
}

func TestParseBitrate(t *testing.T) {
	b, err := ParseBitrate("250k")
	require.NoError(t, err)
	require.Equal(t, DefaultBitrate, b)
	require.Equal(t, "250K", b.String())

	b, err = ParseBitrate(" 1M ")
	require.NoError(t, err)
	require.Equal(t, Bitrate(0x0014), b)

	_, err = ParseBitrate("300K")
	require.Error(t, err)

	require.Equal(t, "0x1234", Bitrate(0x1234).String())
}

func TestBitratesSortedFastestFirst(t *testing.T) {
	list := Bitrates()
	require.Len(t, list, len(bitrateNames))
	require.Equal(t, "1M", list[0].Name)
	require.Equal(t, "5K", list[len(list)-1].Name)
	for i := 1; i < len(list); i++ {
		require.Greater(t, list[i-1].bps, list[i].bps)
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind(" PCAN ")
	require.NoError(t, err)
	require.Equal(t, KindPCAN, k)

	_, err = ParseKind("kvaser")
	require.Error(t, err)
}

func TestOpenLoopback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Kind = KindLoopback
	cfg.LoopbackDepth = 0

	ch, err := Open(cfg)
	require.NoError(t, err)
	lb, ok := ch.(*Loopback)
	require.True(t, ok)
	require.Equal(t, DefaultLoopbackDepth, lb.depth)
}

func TestOpenRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.USBBus = 0
	_, err := Open(cfg)
	require.Error(t, err)

	cfg = DefaultConfig()
	cfg.Kind = "kvaser"
	_, err = Open(cfg)
	require.Error(t, err)

	cfg = DefaultConfig()
	cfg.Kind = KindSocketCAN
	cfg.Interface = ""
	_, err = Open(cfg)
	require.Error(t, err)
}
