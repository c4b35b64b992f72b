package serverproc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// ErrNotReady means the server did not accept a connection within the
// prober's deadline. It is an infrastructure failure: running the checker
// against a non-listening server would only produce noise.
var ErrNotReady = errors.New("server did not become ready")

const probeInterval = 100 * time.Millisecond
const probeDialTimeout = time.Second

// PortProber waits for a TCP listener to appear at Addr. StartupWait, if set,
// is slept once before probing begins, for servers that bind late into their
// startup rather than first thing.
type PortProber struct {
	Addr        string
	Timeout     time.Duration
	StartupWait time.Duration
	Logger      Logger
}

func (p PortProber) WaitReady(ctx context.Context) error {
	logger := p.Logger
	if logger == nil {
		logger = nullLogger{}
	}

	if p.StartupWait > 0 {
		logger.Printf("waiting %s before probing %s", p.StartupWait, p.Addr)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.StartupWait):
		}
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(probeInterval)
	defer ticker.Stop()

	for {
		conn, err := net.DialTimeout("tcp", p.Addr, probeDialTimeout)
		if err == nil {
			conn.Close()
			logger.Printf("server is accepting connections at %s", p.Addr)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("%w within %s (%s)", ErrNotReady, timeout, p.Addr)
		case <-ticker.C:
		}
	}
}
