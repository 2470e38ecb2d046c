package driver

import (
	"errors"
	"fmt"
	"strings"
)

// Status is a PCAN-Basic TPCANStatus value. Backends other than PCAN map
// their failures onto the same codes so the console prints one vocabulary.
type Status uint32

const (
	StatusOK           Status = 0x00000
	StatusXmtFull      Status = 0x00001
	StatusOverrun      Status = 0x00002
	StatusBusLight     Status = 0x00004
	StatusBusHeavy     Status = 0x00008
	StatusBusOff       Status = 0x00010
	StatusQRcvEmpty    Status = 0x00020
	StatusQOverrun     Status = 0x00040
	StatusQXmtFull     Status = 0x00080
	StatusRegTest      Status = 0x00100
	StatusNoDriver     Status = 0x00200
	StatusHwInUse      Status = 0x00400
	StatusNetInUse     Status = 0x00800
	StatusIllHw        Status = 0x01400
	StatusIllNet       Status = 0x01800
	StatusIllClient    Status = 0x01C00
	StatusResource     Status = 0x02000
	StatusIllParamType Status = 0x04000
	StatusIllParamVal  Status = 0x08000
	StatusUnknown      Status = 0x10000
	StatusIllData      Status = 0x20000
	StatusBusPassive   Status = 0x40000
	StatusCaution      Status = 0x2000000
	StatusInitialize   Status = 0x4000000
	StatusIllOperation Status = 0x8000000
)

var statusText = map[Status]string{
	StatusOK:           "no error",
	StatusXmtFull:      "transmit buffer in CAN controller is full",
	StatusOverrun:      "CAN controller was read too late",
	StatusBusLight:     "bus error: an error counter reached the 'light' limit",
	StatusBusHeavy:     "bus error: an error counter reached the 'heavy' limit",
	StatusBusOff:       "bus error: the CAN controller is in bus-off state",
	StatusQRcvEmpty:    "receive queue is empty",
	StatusQOverrun:     "receive queue was read too late",
	StatusQXmtFull:     "transmit queue is full",
	StatusRegTest:      "test of the CAN controller hardware registers failed",
	StatusNoDriver:     "driver not loaded",
	StatusHwInUse:      "hardware already in use by a net",
	StatusNetInUse:     "a client is already connected to the net",
	StatusIllHw:        "hardware handle is invalid",
	StatusIllNet:       "net handle is invalid",
	StatusIllClient:    "client handle is invalid",
	StatusResource:     "resource (FIFO, client, timeout) cannot be created",
	StatusIllParamType: "invalid parameter",
	StatusIllParamVal:  "invalid parameter value",
	StatusUnknown:      "unknown error",
	StatusIllData:      "invalid data, function, or action",
	StatusBusPassive:   "bus error: the CAN controller is error passive",
	StatusCaution:      "operation succeeded but with irregularities",
	StatusInitialize:   "channel is not initialized",
	StatusIllOperation: "invalid operation",
}

func (s Status) String() string {
	if text, ok := statusText[s]; ok {
		return text
	}
	// bus state bits can be combined with other codes
	var parts []string
	for _, bit := range []Status{StatusBusLight, StatusBusHeavy, StatusBusOff, StatusBusPassive} {
		if s&bit != 0 {
			parts = append(parts, statusText[bit])
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "; ")
	}
	return fmt.Sprintf("undefined status 0x%05X", uint32(s))
}

// StatusError is returned by a Channel when the driver call reports a non-zero status.
type StatusError struct {
	Op   string
	Code Status
	Text string
}

func (e *StatusError) Error() string {
	text := e.Text
	if text == "" {
		text = e.Code.String()
	}
	return fmt.Sprintf("%s: status 0x%05X (%s)", e.Op, uint32(e.Code), text)
}

func statusErr(op string, code Status) error {
	if code == StatusOK {
		return nil
	}
	return &StatusError{Op: op, Code: code}
}

// StatusCode extracts the driver status carried by err.
// Errors that did not come from the driver report StatusUnknown.
func StatusCode(err error) Status {
	if err == nil {
		return StatusOK
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return StatusUnknown
}

// IsEmptyQueue reports whether err means "nothing to read yet".
func IsEmptyQueue(err error) bool {
	return StatusCode(err) == StatusQRcvEmpty
}
