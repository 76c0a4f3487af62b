package monitor

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// GRPCNetworkMonitor is a NetworkMonitor that forwards every call to a
// remote capture agent over a plain grpc.ClientConn, following the same
// well-known-wrapper-type convention as GRPCProcessMonitor.
type GRPCNetworkMonitor struct {
	conn    *grpc.ClientConn
	service string
}

// NewGRPCNetworkMonitor wraps an already-dialed connection.
func NewGRPCNetworkMonitor(conn *grpc.ClientConn, service string) *GRPCNetworkMonitor {
	return &GRPCNetworkMonitor{conn: conn, service: service}
}

func (m *GRPCNetworkMonitor) method(name string) string {
	return fmt.Sprintf("/%s/%s", m.service, name)
}

func (m *GRPCNetworkMonitor) Alive(ctx context.Context) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := m.conn.Invoke(ctx, m.method("Alive"), new(emptypb.Empty), out); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

func (m *GRPCNetworkMonitor) SetOption(ctx context.Context, key, value string) error {
	in := wrapperspb.String(key + "=" + value)
	return m.conn.Invoke(ctx, m.method("SetOption"), in, new(emptypb.Empty))
}

func (m *GRPCNetworkMonitor) StartCapture(ctx context.Context, label string) error {
	in := wrapperspb.String(label)
	return m.conn.Invoke(ctx, m.method("StartCapture"), in, new(emptypb.Empty))
}

// StopCapture invokes two RPCs against the capture agent: one for the
// trace path, one for the captured byte count, keeping every call shaped
// as a single well-known wrapper type rather than a bespoke message.
func (m *GRPCNetworkMonitor) StopCapture(ctx context.Context) (string, int, error) {
	path := new(wrapperspb.StringValue)
	if err := m.conn.Invoke(ctx, m.method("StopCapture"), new(emptypb.Empty), path); err != nil {
		return "", 0, err
	}
	count := new(wrapperspb.Int64Value)
	if err := m.conn.Invoke(ctx, m.method("CapturedBytes"), new(emptypb.Empty), count); err != nil {
		return path.GetValue(), 0, err
	}
	return path.GetValue(), int(count.GetValue()), nil
}
