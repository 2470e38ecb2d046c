package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/LoveWonYoung/pcanconsole/driver"
)

var errInvalidLength = errors.New("invalid data length, enter a value between 0 and 8")

// maxLineLen bounds one input line; longer lines are rejected as invalid input.
const maxLineLen = 4096

type lineResult struct {
	text string
	err  error
}

// lineReader turns a blocking reader into lines that can be awaited with a context.
type lineReader struct {
	src     io.Reader
	lines   chan lineResult
	err     error // set before lines is closed
	started bool

	done     chan struct{}
	exited   chan struct{}
	stopOnce sync.Once
}

func newLineReader(r io.Reader) *lineReader {
	return &lineReader{
		src:    r,
		lines:  make(chan lineResult),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}
}

func (l *lineReader) start() {
	l.started = true
	go func() {
		defer close(l.exited)
		defer close(l.lines)
		br := bufio.NewReaderSize(l.src, maxLineLen)
		for {
			text, tooLong, err := readBoundedLine(br)
			if err != nil && text == "" && !tooLong {
				if !errors.Is(err, io.EOF) {
					l.err = err
				}
				return
			}
			res := lineResult{text: text}
			if tooLong {
				res = lineResult{err: &inputError{fmt.Errorf("line longer than %d bytes", maxLineLen)}}
			}
			select {
			case l.lines <- res:
			case <-l.done:
				return
			}
			if err != nil {
				if !errors.Is(err, io.EOF) {
					l.err = err
				}
				return
			}
		}
	}()
}

// readBoundedLine reads up to the next newline. An over-long line is
// consumed completely and reported through tooLong.
func readBoundedLine(br *bufio.Reader) (string, bool, error) {
	tooLong := false
	for {
		chunk, err := br.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			tooLong = true
			continue
		}
		if tooLong {
			return "", true, err
		}
		return strings.TrimRight(string(chunk), "\r\n"), false, err
	}
}

// stop releases the reading goroutine once it has a line to hand over.
func (l *lineReader) stop() {
	l.stopOnce.Do(func() { close(l.done) })
}

// readLine returns io.EOF once the input is exhausted. Over-long lines
// come back as *inputError and the next line is still readable.
func (l *lineReader) readLine(ctx context.Context) (string, error) {
	if !l.started {
		l.start()
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res, ok := <-l.lines:
		if !ok {
			if l.err != nil {
				return "", l.err
			}
			return "", io.EOF
		}
		return res.text, res.err
	}
}

func trimHex(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	return s
}

// ParseID parses a hexadecimal CAN identifier such as "100" or "0x18DAF110".
func ParseID(s string) (uint32, error) {
	v, err := strconv.ParseUint(trimHex(s), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("message ID %q is not a hex number", strings.TrimSpace(s))
	}
	return uint32(v), nil
}

// ParseLength parses a decimal payload length in 0..8.
func ParseLength(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("data length %q is not a decimal number", strings.TrimSpace(s))
	}
	if n < 0 || n > driver.MaxDataLen {
		return 0, errInvalidLength
	}
	return n, nil
}

// ParseByte parses one hexadecimal data byte.
func ParseByte(s string) (byte, error) {
	v, err := strconv.ParseUint(trimHex(s), 16, 8)
	if err != nil {
		return 0, fmt.Errorf("data byte %q is not a hex value between 00 and FF", strings.TrimSpace(s))
	}
	return byte(v), nil
}

// ParseData parses whitespace or comma separated hex bytes, e.g. "01 02 ff".
func ParseData(s string) ([]byte, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	})
	if len(fields) > driver.MaxDataLen {
		return nil, errInvalidLength
	}
	out := make([]byte, 0, len(fields))
	for _, f := range fields {
		b, err := ParseByte(f)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// FormatData renders a payload as a decimal list: [1, 2, 255].
func FormatData(data []byte) string {
	parts := make([]string, len(data))
	for i, b := range data {
		parts[i] = strconv.Itoa(int(b))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// DescribeError renders a driver failure as "<decimal code> (<text>)".
func DescribeError(err error) string {
	var se *driver.StatusError
	if errors.As(err, &se) {
		text := se.Text
		if text == "" {
			text = se.Code.String()
		}
		return fmt.Sprintf("%d (%s)", uint32(se.Code), text)
	}
	return fmt.Sprintf("%d (%v)", uint32(driver.StatusUnknown), err)
}
