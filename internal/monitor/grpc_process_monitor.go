package monitor

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// GRPCProcessMonitor is a ProcessMonitor that forwards every call to a
// remote monitor agent over a plain grpc.ClientConn. It deliberately
// invokes well-known RPC methods against the standard wrapper types
// (wrapperspb/emptypb) rather than a bespoke generated service, so the
// wire contract needs no project-specific .proto compilation step: any
// agent that exposes these six methods under the given service name
// can drive the monitored process.
type GRPCProcessMonitor struct {
	conn    *grpc.ClientConn
	service string // fully-qualified service name, e.g. "boofuzz.monitor.ProcessMonitor"
}

// NewGRPCProcessMonitor wraps an already-dialed connection. Dialing
// (credentials, retry policy, keepalive) is the caller's concern; this
// type only knows how to invoke methods on it.
func NewGRPCProcessMonitor(conn *grpc.ClientConn, service string) *GRPCProcessMonitor {
	return &GRPCProcessMonitor{conn: conn, service: service}
}

func (m *GRPCProcessMonitor) method(name string) string {
	return fmt.Sprintf("/%s/%s", m.service, name)
}

func (m *GRPCProcessMonitor) Alive(ctx context.Context) (bool, error) {
	out := new(wrapperspb.BoolValue)
	if err := m.conn.Invoke(ctx, m.method("Alive"), new(emptypb.Empty), out); err != nil {
		return false, err
	}
	return out.GetValue(), nil
}

func (m *GRPCProcessMonitor) PreSend(ctx context.Context, testCaseIndex int) error {
	in := wrapperspb.Int64(int64(testCaseIndex))
	return m.conn.Invoke(ctx, m.method("PreSend"), in, new(emptypb.Empty))
}

func (m *GRPCProcessMonitor) PostSend(ctx context.Context) error {
	return m.conn.Invoke(ctx, m.method("PostSend"), new(emptypb.Empty), new(emptypb.Empty))
}

func (m *GRPCProcessMonitor) CrashSynopsis(ctx context.Context) (string, error) {
	out := new(wrapperspb.StringValue)
	if err := m.conn.Invoke(ctx, m.method("CrashSynopsis"), new(emptypb.Empty), out); err != nil {
		return "", err
	}
	return out.GetValue(), nil
}

func (m *GRPCProcessMonitor) Restart(ctx context.Context) error {
	return m.conn.Invoke(ctx, m.method("Restart"), new(emptypb.Empty), new(emptypb.Empty))
}

func (m *GRPCProcessMonitor) SetOption(ctx context.Context, key, value string) error {
	in := wrapperspb.String(key + "=" + value)
	return m.conn.Invoke(ctx, m.method("SetOption"), in, new(emptypb.Empty))
}
