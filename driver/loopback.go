package driver

import (
	"fmt"
	"sync"
)

// Loopback is an in-memory Channel: every written frame is queued for Read.
// It behaves like a PCAN channel wired to itself and needs no hardware.
type Loopback struct {
	mu          sync.Mutex
	queue       []Frame
	depth       int
	initialized bool
}

func NewLoopback(depth int) *Loopback {
	return &Loopback{depth: depth}
}

func (l *Loopback) Name() string { return fmt.Sprintf("loopback(depth=%d)", l.depth) }

func (l *Loopback) Initialize() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.initialized {
		return statusErr("loopback initialize", StatusNetInUse)
	}
	l.initialized = true
	l.queue = l.queue[:0]
	return nil
}

func (l *Loopback) Read() (Frame, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.initialized {
		return Frame{}, statusErr("loopback read", StatusInitialize)
	}
	if len(l.queue) == 0 {
		return Frame{}, statusErr("loopback read", StatusQRcvEmpty)
	}
	f := l.queue[0]
	l.queue = l.queue[1:]
	logCANMessage("RX", l.Name(), f)
	return f, nil
}

func (l *Loopback) Write(f Frame) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.initialized {
		return statusErr("loopback write", StatusInitialize)
	}
	if f.Len > MaxDataLen {
		return statusErr("loopback write", StatusIllData)
	}
	if len(l.queue) >= l.depth {
		return statusErr("loopback write", StatusQXmtFull)
	}
	l.queue = append(l.queue, f)
	logCANMessage("TX", l.Name(), f)
	return nil
}

func (l *Loopback) Uninitialize() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.initialized {
		return statusErr("loopback uninitialize", StatusInitialize)
	}
	l.initialized = false
	l.queue = nil
	return nil
}

// pending reports how many frames are waiting to be read.
func (l *Loopback) pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}
