package transport_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windyware/boofuzz/internal/transport"
)

func TestTCPSendRecvRoundTrip(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 5)
		_, _ = conn.Read(buf)
		_, _ = conn.Write([]byte("pong"))
	}()

	addr := ln.Addr().(*net.TCPAddr)
	tr := transport.NewTCP("127.0.0.1", addr.Port, time.Second)
	ctx := context.Background()
	require.NoError(t, tr.Open(ctx))
	defer tr.Close()

	require.NoError(t, tr.Send(ctx, []byte("hello")))
	recv, err := tr.Recv(ctx, 64)
	require.NoError(t, err)
	assert.Equal(t, "pong", string(recv))

	<-done
}

func TestTCPSendOnUnopenedTransportAborts(t *testing.T) {
	tr := transport.NewTCP("127.0.0.1", 1, 0)
	err := tr.Send(context.Background(), []byte("x"))
	assert.ErrorIs(t, err, transport.ErrConnectionAborted)
}
