package driver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
)

// 帧类型标志, 与 PCAN-Basic 的 PCAN_MESSAGE_* 保持一致
const (
	MessageStandard uint8 = 0x00
	MessageRTR      uint8 = 0x01
	MessageExtended uint8 = 0x02
)

const (
	MaxDataLen = 8
	maxStdID   = 0x7FF
	maxExtID   = 0x1FFFFFFF
)

var (
	ErrInvalidID  = errors.New("invalid CAN identifier")
	ErrInvalidLen = errors.New("invalid data length")
)

// Frame 与驱动的 TPCANMsg 结构体内存布局一致, 可以直接传给 CAN_Read / CAN_Write
type Frame struct {
	ID      uint32
	MsgType uint8
	Len     uint8
	Data    [MaxDataLen]byte
}

// NewFrame builds a data frame. IDs above the 11-bit range are sent as extended frames.
func NewFrame(id uint32, data []byte) (Frame, error) {
	if len(data) > MaxDataLen {
		return Frame{}, fmt.Errorf("%w: %d (must be 0-%d)", ErrInvalidLen, len(data), MaxDataLen)
	}
	if id > maxExtID {
		return Frame{}, fmt.Errorf("%w: 0x%X", ErrInvalidID, id)
	}
	f := Frame{ID: id, MsgType: MessageStandard, Len: uint8(len(data))}
	if id > maxStdID {
		f.MsgType = MessageExtended
	}
	copy(f.Data[:], data)
	return f, nil
}

func (f Frame) Extended() bool { return f.MsgType&MessageExtended != 0 }

// Payload returns the valid part of Data. A corrupt Len never slices past the array.
func (f Frame) Payload() []byte {
	n := int(f.Len)
	if n > MaxDataLen {
		n = MaxDataLen
	}
	return f.Data[:n]
}

func (f Frame) String() string {
	var b strings.Builder
	if f.Extended() {
		fmt.Fprintf(&b, "%08X", f.ID)
	} else {
		fmt.Fprintf(&b, "%03X", f.ID)
	}
	fmt.Fprintf(&b, " [%d]", f.Len)
	if f.MsgType&MessageRTR != 0 {
		b.WriteString(" RTR")
		return b.String()
	}
	for _, v := range f.Payload() {
		fmt.Fprintf(&b, " %02X", v)
	}
	return b.String()
}

// logCANMessage 统一的CAN消息日志记录函数
func logCANMessage(direction string, channel string, f Frame) {
	log.Debug().
		Str("dir", direction).
		Str("channel", channel).
		Stringer("frame", f).
		Msg("can frame")
}
