package session_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windyware/boofuzz/internal/block"
	"github.com/windyware/boofuzz/internal/fuzzlog"
	"github.com/windyware/boofuzz/internal/graph"
	"github.com/windyware/boofuzz/internal/logging"
	"github.com/windyware/boofuzz/internal/primitive"
	"github.com/windyware/boofuzz/internal/request"
	"github.com/windyware/boofuzz/internal/session"
	"github.com/windyware/boofuzz/internal/transport"
)

// recordingTransport counts sends and can be told to fail with a given
// error on its Nth send (1-indexed), simulating a reset/abort mid-run.
type recordingTransport struct {
	sends     int
	failOn    int
	failWith  error
	lastBytes []byte
}

func (t *recordingTransport) Open(ctx context.Context) error  { return nil }
func (t *recordingTransport) Close() error                    { return nil }
func (t *recordingTransport) Recv(ctx context.Context, maxLen int) ([]byte, error) {
	return nil, nil
}
func (t *recordingTransport) Send(ctx context.Context, data []byte) error {
	t.sends++
	t.lastBytes = data
	if t.failOn > 0 && t.sends == t.failOn {
		return t.failWith
	}
	return nil
}

// scriptedMonitor reports down (crashed) on the indices listed in
// crashAt, alive otherwise.
type scriptedMonitor struct {
	crashAt  map[int]bool
	index    int
	restarts int
}

func (m *scriptedMonitor) Alive(ctx context.Context) (bool, error) {
	return !m.crashAt[m.index], nil
}
func (m *scriptedMonitor) PreSend(ctx context.Context, testCaseIndex int) error {
	m.index = testCaseIndex
	return nil
}
func (m *scriptedMonitor) PostSend(ctx context.Context) error        { return nil }
func (m *scriptedMonitor) CrashSynopsis(ctx context.Context) (string, error) {
	return "simulated crash", nil
}
func (m *scriptedMonitor) Restart(ctx context.Context) error { m.restarts++; return nil }
func (m *scriptedMonitor) SetOption(ctx context.Context, key, value string) error { return nil }

func TestCrashThresholdExhaustsRemainingMutations(t *testing.T) {
	flag := primitive.NewUint("flag", 1, true, 0)
	root := block.NewBlock("req", flag)
	req, err := request.New("req", root)
	require.NoError(t, err)
	total := req.NumMutations()
	require.Greater(t, total, 2, "fixture needs at least 3 mutations to exercise exhaustion")

	log := fuzzlog.NewTextLogger(logging.Nop())
	sess := session.New(session.Options{CrashThreshold: 2}, log)
	id := sess.AddRequest(req)
	_, err = sess.Connect(graph.RootID, id, nil)
	require.NoError(t, err)

	mon := &scriptedMonitor{crashAt: map[int]bool{1: true, 2: true}}
	tr := &recordingTransport{}
	tgt := session.NewTarget(tr)
	tgt.Process = mon
	sess.AddTarget(tgt)

	err = sess.Fuzz(context.Background())
	require.NoError(t, err)

	snap := sess.Snapshot()
	assert.Equal(t, total, snap.GlobalIndex, "exhaustion must advance the global index past every skipped mutation")
	assert.Less(t, tr.sends, total, "fewer sends than total mutations: remaining mutations after threshold were skipped, not transmitted")
	assert.GreaterOrEqual(t, mon.restarts, 2)
}

func TestResumeSkipsPersistedCases(t *testing.T) {
	flag := primitive.NewUint("flag", 1, true, 0)
	root := block.NewBlock("req", flag)
	req, err := request.New("req", root)
	require.NoError(t, err)

	log := fuzzlog.NewTextLogger(logging.Nop())
	sess := session.New(session.Options{Skip: 3}, log)
	id := sess.AddRequest(req)
	_, err = sess.Connect(graph.RootID, id, nil)
	require.NoError(t, err)

	tr := &recordingTransport{}
	sess.AddTarget(session.NewTarget(tr))

	require.NoError(t, sess.Fuzz(context.Background()))

	total := req.NumMutations()
	assert.Equal(t, total-3, tr.sends, "the first 3 cases must be skipped without any transport I/O")
}

func TestConnectionResetIgnoredDoesNotRecordFailure(t *testing.T) {
	flag := primitive.NewUint("flag", 1, true, 0)
	root := block.NewBlock("req", flag)
	req, err := request.New("req", root)
	require.NoError(t, err)

	log := fuzzlog.NewTextLogger(logging.Nop())
	sess := session.New(session.Options{IgnoreConnectionReset: true}, log)
	id := sess.AddRequest(req)
	_, err = sess.Connect(graph.RootID, id, nil)
	require.NoError(t, err)

	tr := &recordingTransport{failOn: 1, failWith: transport.ErrConnectionReset}
	sess.AddTarget(session.NewTarget(tr))

	require.NoError(t, sess.Fuzz(context.Background()))

	assert.Empty(t, log.FailedTestCases(), "an ignored reset must not be recorded as a case failure")
}
