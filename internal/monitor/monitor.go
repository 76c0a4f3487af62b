// Package monitor defines the ProcessMonitor/NetworkMonitor contracts a
// Target consults around every send (pre/post-send hooks, liveness
// checks, crash synopsis retrieval) and a gRPC-backed implementation of
// each that talks to an out-of-process monitor agent.
package monitor

import "context"

// ProcessMonitor watches the target process's liveness and can restart
// it after a crash.
type ProcessMonitor interface {
	Alive(ctx context.Context) (bool, error)
	PreSend(ctx context.Context, testCaseIndex int) error
	PostSend(ctx context.Context) error
	CrashSynopsis(ctx context.Context) (string, error)
	Restart(ctx context.Context) error
	SetOption(ctx context.Context, key, value string) error
}

// NetworkMonitor captures packet traces around a test case (e.g. via an
// out-of-process pcap capture agent) for later correlation with a
// recorded failure. It is polled for liveness and configured with
// options the same way a ProcessMonitor is, since both are bound the
// same way before a run starts.
type NetworkMonitor interface {
	Alive(ctx context.Context) (bool, error)
	SetOption(ctx context.Context, key, value string) error
	StartCapture(ctx context.Context, label string) error
	// StopCapture ends the capture started by StartCapture, returning the
	// path the trace was written to and the number of bytes captured
	// (recorded by the session, indexed by mutant index).
	StopCapture(ctx context.Context) (pcapPath string, bytesCaptured int, err error)
}
