// Package transport implements the wire-level connections a Target sends
// test cases over and receives responses from: plain TCP and WebSocket,
// both satisfying the same small Transport contract so the session
// package never needs to know which one it's holding.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"
)

// ErrConnectionReset is returned by Send/Recv when the peer reset the
// connection mid-exchange. Sessions treat this distinctly from other
// transport errors: a reset alone is not evidence of a crash worth
// recording.
var ErrConnectionReset = errors.New("transport: connection reset by peer")

// ErrConnectionAborted is returned when the peer closed the connection
// without completing the expected exchange (e.g. recv on a closed
// socket).
var ErrConnectionAborted = errors.New("transport: connection aborted")

// Transport is the minimal contract a target connection must satisfy.
// Open/Close bracket one underlying connection; Send/Recv exchange a
// single test case's bytes. Implementations translate whatever
// network-specific reset/abort signal they see into ErrConnectionReset
// / ErrConnectionAborted so callers never need to type-switch on
// *net.OpError.
type Transport interface {
	Open(ctx context.Context) error
	Close() error
	Send(ctx context.Context, data []byte) error
	Recv(ctx context.Context, maxLen int) ([]byte, error)
}

// TCP is a Transport over a plain stream socket.
type TCP struct {
	Host string
	Port int
	// RecvTimeout bounds how long Recv waits for a response before
	// returning a timeout error; zero means no deadline.
	RecvTimeout time.Duration

	conn net.Conn
}

// NewTCP builds a TCP transport targeting host:port.
func NewTCP(host string, port int, recvTimeout time.Duration) *TCP {
	return &TCP{Host: host, Port: port, RecvTimeout: recvTimeout}
}

func (t *TCP) Open(ctx context.Context) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", t.Host, t.Port))
	if err != nil {
		return err
	}
	t.conn = conn
	return nil
}

func (t *TCP) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

func (t *TCP) Send(ctx context.Context, data []byte) error {
	if t.conn == nil {
		return ErrConnectionAborted
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = t.conn.SetWriteDeadline(dl)
	}
	_, err := t.conn.Write(data)
	return classify(err)
}

func (t *TCP) Recv(ctx context.Context, maxLen int) ([]byte, error) {
	if t.conn == nil {
		return nil, ErrConnectionAborted
	}
	if t.RecvTimeout > 0 {
		_ = t.conn.SetReadDeadline(time.Now().Add(t.RecvTimeout))
	}
	buf := make([]byte, maxLen)
	n, err := t.conn.Read(buf)
	if err != nil {
		return nil, classify(err)
	}
	return buf[:n], nil
}

// classify maps the stdlib's network error values onto this package's
// distinguished sentinels (wrapping the original error, errno and
// message included) so callers never inspect *net.OpError directly.
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, syscall.ECONNRESET):
		return fmt.Errorf("%w: %w", ErrConnectionReset, err)
	case errors.Is(err, syscall.ECONNABORTED), errors.Is(err, net.ErrClosed):
		return fmt.Errorf("%w: %w", ErrConnectionAborted, err)
	}
	return err
}
