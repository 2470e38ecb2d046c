// Package console implements the interactive send/receive loop on top of a
// single driver.Channel. Every menu action is one synchronous driver call
// followed by a printed result.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/LoveWonYoung/pcanconsole/driver"
)

const menu = "\nOptions:\n1. Send message\n2. Receive message\n3. Exit\nYour choice: "

// Session owns one channel for the lifetime of an interactive run.
type Session struct {
	ch     driver.Channel
	in     *lineReader
	out    io.Writer
	closed bool

	// Banner prints the channel name after connecting.
	Banner bool
}

func New(ch driver.Channel, in io.Reader, out io.Writer) *Session {
	return &Session{ch: ch, in: newLineReader(in), out: out, closed: true}
}

// Run connects, serves the menu until the user exits, input ends or ctx is
// cancelled, and always leaves the channel uninitialized.
func (s *Session) Run(ctx context.Context) error {
	if err := s.Connect(); err != nil {
		return err
	}
	defer s.in.stop()
	defer s.Close()

	for {
		fmt.Fprint(s.out, menu)
		choice, err := s.in.readLine(ctx)
		var inputErr *inputError
		if errors.As(err, &inputErr) {
			fmt.Fprintf(s.out, "Invalid input: %v\n", inputErr.err)
			continue
		}
		if err != nil {
			return endOfSession(err)
		}

		switch strings.TrimSpace(choice) {
		case "1":
			err = s.Send(ctx)
		case "2":
			s.Receive()
		case "3":
			return s.Close()
		default:
			fmt.Fprintln(s.out, "Invalid option. Please try again.")
		}
		if err != nil {
			return endOfSession(err)
		}
	}
}

func endOfSession(err error) error {
	if errors.Is(err, io.EOF) {
		log.Debug().Msg("input closed, ending session")
		return nil
	}
	return err
}

// Connect initializes the channel and reports the outcome.
func (s *Session) Connect() error {
	if err := s.ch.Initialize(); err != nil {
		fmt.Fprintf(s.out, "Failed to connect to the CAN bus. Error code: %s\n", DescribeError(err))
		return fmt.Errorf("connect %s: %w", s.ch.Name(), err)
	}
	s.closed = false
	fmt.Fprintln(s.out, "Connected to the CAN bus successfully!")
	if s.Banner {
		fmt.Fprintf(s.out, "Channel: %s\n", s.ch.Name())
	}
	return nil
}

// Send prompts for one frame and writes it. Invalid input is reported and
// does not reach the driver; only read failures on the input are returned.
func (s *Session) Send(ctx context.Context) error {
	f, err := s.promptFrame(ctx)
	if err != nil {
		var inputErr *inputError
		if errors.As(err, &inputErr) {
			fmt.Fprintf(s.out, "Invalid input: %v\n", inputErr.err)
			return nil
		}
		return err
	}

	if err := s.ch.Write(f); err != nil {
		log.Debug().Err(err).Msg("write failed")
		fmt.Fprintf(s.out, "Failed to send message. Error code: %s\n", DescribeError(err))
		return nil
	}
	fmt.Fprintf(s.out, "Message sent! ID: 0x%x, Data: %s\n", f.ID, FormatData(f.Payload()))
	return nil
}

type inputError struct{ err error }

func (e *inputError) Error() string { return e.err.Error() }

func (s *Session) prompt(ctx context.Context, text string) (string, error) {
	fmt.Fprint(s.out, text)
	return s.in.readLine(ctx)
}

func (s *Session) promptFrame(ctx context.Context) (driver.Frame, error) {
	line, err := s.prompt(ctx, "Message ID (hex, e.g. 100): ")
	if err != nil {
		return driver.Frame{}, err
	}
	id, err := ParseID(line)
	if err != nil {
		return driver.Frame{}, &inputError{err}
	}

	line, err = s.prompt(ctx, "Data length (0-8): ")
	if err != nil {
		return driver.Frame{}, err
	}
	n, err := ParseLength(line)
	if err != nil {
		return driver.Frame{}, &inputError{err}
	}

	data := make([]byte, 0, n)
	for i := 0; i < n; i++ {
		line, err = s.prompt(ctx, fmt.Sprintf("Data byte %d: ", i+1))
		if err != nil {
			return driver.Frame{}, err
		}
		b, err := ParseByte(line)
		if err != nil {
			return driver.Frame{}, &inputError{err}
		}
		data = append(data, b)
	}

	f, err := driver.NewFrame(id, data)
	if err != nil {
		return driver.Frame{}, &inputError{err}
	}
	return f, nil
}

// Receive performs one non-blocking read.
func (s *Session) Receive() {
	f, err := s.ch.Read()
	if err != nil {
		if driver.IsEmptyQueue(err) {
			log.Trace().Msg("receive queue empty")
		} else {
			log.Debug().Err(err).Msg("read failed")
		}
		fmt.Fprintf(s.out, "Failed to receive message. Error code: %s\n", DescribeError(err))
		return
	}
	fmt.Fprintf(s.out, "Message received! ID: 0x%x, Data: %s\n", f.ID, FormatData(f.Payload()))
}

// Close uninitializes a connected channel once; later calls are no-ops.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	err := s.ch.Uninitialize()
	if err != nil {
		log.Warn().Err(err).Str("channel", s.ch.Name()).Msg("uninitialize failed")
	}
	fmt.Fprintln(s.out, "CAN connection closed.")
	return err
}
