package driver

import (
	"encoding/binary"
	"fmt"
)

// Linux struct can_frame layout.
const (
	canFrameSize = 16
	canEffFlag   = 0x80000000
	canRtrFlag   = 0x40000000
	canErrFlag   = 0x20000000
	canEffMask   = 0x1FFFFFFF
	canSffMask   = 0x7FF
)

func marshalCANFrame(f Frame) ([]byte, error) {
	if f.Len > MaxDataLen {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLen, f.Len)
	}
	id := f.ID
	if f.Extended() {
		id = (id & canEffMask) | canEffFlag
	} else {
		id &= canSffMask
	}
	if f.MsgType&MessageRTR != 0 {
		id |= canRtrFlag
	}
	buf := make([]byte, canFrameSize)
	binary.LittleEndian.PutUint32(buf[0:4], id)
	buf[4] = f.Len
	copy(buf[8:], f.Data[:])
	return buf, nil
}

func unmarshalCANFrame(buf []byte) (Frame, error) {
	if len(buf) < canFrameSize {
		return Frame{}, fmt.Errorf("short can_frame: %d bytes", len(buf))
	}
	raw := binary.LittleEndian.Uint32(buf[0:4])
	if raw&canErrFlag != 0 {
		return Frame{}, fmt.Errorf("error frame 0x%08X", raw)
	}
	var f Frame
	if raw&canEffFlag != 0 {
		f.ID = raw & canEffMask
		f.MsgType |= MessageExtended
	} else {
		f.ID = raw & canSffMask
	}
	if raw&canRtrFlag != 0 {
		f.MsgType |= MessageRTR
	}
	f.Len = buf[4]
	if f.Len > MaxDataLen {
		return Frame{}, fmt.Errorf("%w: %d", ErrInvalidLen, f.Len)
	}
	copy(f.Data[:], buf[8:16])
	return f, nil
}
