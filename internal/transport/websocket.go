package transport

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocket is a Transport over a gorilla/websocket connection, each
// Send/Recv mapping to one binary message.
type WebSocket struct {
	URL         string
	RecvTimeout time.Duration

	conn *websocket.Conn
}

// NewWebSocket builds a WebSocket transport dialing url (e.g.
// "ws://host:port/path").
func NewWebSocket(url string, recvTimeout time.Duration) *WebSocket {
	return &WebSocket{URL: url, RecvTimeout: recvTimeout}
}

func (w *WebSocket) Open(ctx context.Context) error {
	dialer := websocket.Dialer{}
	conn, _, err := dialer.DialContext(ctx, w.URL, nil)
	if err != nil {
		return fmt.Errorf("transport: websocket dial %s: %w", w.URL, err)
	}
	w.conn = conn
	return nil
}

func (w *WebSocket) Close() error {
	if w.conn == nil {
		return nil
	}
	err := w.conn.Close()
	w.conn = nil
	return err
}

func (w *WebSocket) Send(ctx context.Context, data []byte) error {
	if w.conn == nil {
		return ErrConnectionAborted
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = w.conn.SetWriteDeadline(dl)
	}
	if err := w.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return classifyWS(err)
	}
	return nil
}

func (w *WebSocket) Recv(ctx context.Context, maxLen int) ([]byte, error) {
	if w.conn == nil {
		return nil, ErrConnectionAborted
	}
	if w.RecvTimeout > 0 {
		_ = w.conn.SetReadDeadline(time.Now().Add(w.RecvTimeout))
	}
	_, data, err := w.conn.ReadMessage()
	if err != nil {
		return nil, classifyWS(err)
	}
	if len(data) > maxLen {
		data = data[:maxLen]
	}
	return data, nil
}

func classifyWS(err error) error {
	if websocket.IsUnexpectedCloseError(err,
		websocket.CloseAbnormalClosure, websocket.CloseGoingAway) {
		return ErrConnectionReset
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		return ErrConnectionAborted
	}
	return err
}
