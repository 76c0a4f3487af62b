// Package session implements the fuzzer's orchestrator: the directed
// graph of requests, the depth-first traversal that yields one test
// case per (path, mutation) pair, and the main loop that drives
// transmit/receive, crash detection, target restart, pause/skip, and
// persistent resume.
package session

import (
	"context"
	"iter"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/windyware/boofuzz/internal/block"
	"github.com/windyware/boofuzz/internal/fuzzlog"
	"github.com/windyware/boofuzz/internal/graph"
	"github.com/windyware/boofuzz/internal/logging"
	"github.com/windyware/boofuzz/internal/primitive"
	"github.com/windyware/boofuzz/internal/render"
	"github.com/windyware/boofuzz/internal/request"
)

// Configuration/usage errors, raised before the loop begins.
var (
	ErrNoTargets     = errors.New("session: no targets registered")
	ErrNoRequests    = errors.New("session: graph has no edges from root")
	ErrAmbiguousPath = errors.New("session: node path does not resolve to a unique edge sequence")
)

// ErrRestartFailed is returned when every configured restart method has
// been exhausted without recovering the target.
var ErrRestartFailed = errors.New("session: target restart failed")

// VMControl reverts the target environment to a known-good snapshot, the
// second priority-order restart method, left as a narrow external
// collaborator.
type VMControl interface {
	RevertSnapshot(ctx context.Context) error
}

// Options carries every constructor-argument option the session accepts.
type Options struct {
	SessionFilename              string
	Skip                         int
	SleepTime                    time.Duration
	RestartInterval              int
	CrashThreshold               int
	RestartSleepTime             time.Duration
	WebPort                      int
	CheckDataReceivedEachRequest bool
	IgnoreConnectionReset        bool
	IgnoreConnectionAborted      bool
}

// Snapshot is a value-typed, read-only view over the session's counters,
// handed to the web status surface instead of the live Session.
type Snapshot struct {
	GlobalIndex    int
	TotalMutations int
	Paused         bool
	Failures       map[int][]string
}

// Session owns the graph, the logger, the registered targets, and every
// piece of traversal/persistence state.
type Session struct {
	graph *graph.Graph
	log   fuzzlog.Logger
	opts  Options

	targets    []*Target
	vmControl  VMControl
	onFailures []func(fuzzlog.Logger)

	renderCtx *render.Context

	mu             sync.RWMutex
	globalIndex    int
	executedCount  int
	paused         bool
	totalMutations int
	crashCounts    map[block.Mutant]int
	monitorResults map[int]string
	networkResults map[int]int

	lastSend, lastRecv []byte
}

// New builds an empty Session over a fresh graph. Fuzz and
// FuzzSingleNodeByPath call Import themselves, resuming from a prior run
// when SessionFilename is set.
func New(opts Options, log fuzzlog.Logger) *Session {
	if log == nil {
		log = fuzzlog.NewTextLogger(logging.Root())
	}
	return &Session{
		graph:          graph.New(),
		log:            log,
		opts:           opts,
		renderCtx:      render.NewContext(),
		crashCounts:    map[block.Mutant]int{},
		monitorResults: map[int]string{},
		networkResults: map[int]int{},
	}
}

// AddTarget registers a target. The first registered target is the
// primary target the main loop transmits through.
func (s *Session) AddTarget(t *Target) { s.targets = append(s.targets, t) }

// Targets returns the registered targets, primary first.
func (s *Session) Targets() []*Target { return s.targets }

// OnFailure registers a restart hook (priority 1 in restart ordering).
// When any are registered, RestartTarget invokes them instead of falling
// through to VM control / process monitor restart.
func (s *Session) OnFailure(hook func(fuzzlog.Logger)) {
	s.onFailures = append(s.onFailures, hook)
}

// SetVMControl attaches the VM-revert restart method (priority 2 in
// restart ordering).
func (s *Session) SetVMControl(v VMControl) { s.vmControl = v }

// AddRequest inserts req into the graph and returns its assigned id.
func (s *Session) AddRequest(req *request.Request) int { return s.graph.AddNode(req) }

// Connect adds an edge from src to dst (use graph.RootID for the root),
// optionally carrying a transition callback.
func (s *Session) Connect(src, dst int, cb graph.TransitionFunc) (*graph.Connection, error) {
	return s.graph.Connect(src, dst, cb)
}

// NumMutations returns the sum, over every (path, request) pair
// reachable from root, of the request's own NumMutations() — recomputed
// by running a dry traversal, since a request may be reachable by more
// than one path and each occurrence contributes separately.
func (s *Session) NumMutations() int {
	n := 0
	for range traverse(s.graph) {
		n++
	}
	return n
}

// Snapshot returns a value-typed copy of the session's counters, safe
// for concurrent reads from the web status surface.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	failures := make(map[int][]string, len(s.monitorResults))
	for k, v := range s.log.FailedTestCases() {
		failures[k] = v
	}
	return Snapshot{
		GlobalIndex:    s.globalIndex,
		TotalMutations: s.totalMutations,
		Paused:         s.paused,
		Failures:       failures,
	}
}

// Pause toggles the pause flag honored at the top of each loop
// iteration.
func (s *Session) Pause(v bool) {
	s.mu.Lock()
	s.paused = v
	s.mu.Unlock()
}

// Fuzz runs the full traversal to completion, the default all-graph
// entry point.
func (s *Session) Fuzz(ctx context.Context) error {
	if len(s.targets) == 0 {
		return ErrNoTargets
	}
	if len(s.graph.EdgesFrom(graph.RootID)) == 0 {
		return ErrNoRequests
	}

	if err := s.bindTargets(ctx); err != nil {
		return err
	}

	s.totalMutations = s.NumMutations()
	s.Import(ctx)

	return s.drive(ctx, traverse(s.graph))
}

// bindTargets runs each registered target's liveness-poll bind step once
// before the traversal starts.
func (s *Session) bindTargets(ctx context.Context) error {
	for _, t := range s.targets {
		if err := t.Bind(ctx); err != nil {
			return errors.Wrap(err, "bind target")
		}
	}
	return nil
}

// drive pulls every case from seq in order, persisting after each and
// honoring skip/pause/restart. Cases are pulled one at a time: the next
// call into seq (and so the next dst.Mutate()) only happens once step
// has returned, keeping traversal and execution single-threaded.
func (s *Session) drive(ctx context.Context, seq iter.Seq[Case]) error {
	for c := range seq {
		if ctx.Err() != nil {
			_ = s.Export()
			return ctx.Err()
		}
		if err := s.step(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) step(ctx context.Context, c Case) error {
	s.mu.Lock()
	s.globalIndex++
	idx := s.globalIndex
	s.mu.Unlock()

	if idx <= s.opts.Skip {
		return nil
	}

	for s.isPaused() {
		select {
		case <-ctx.Done():
			_ = s.Export()
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}

	s.executedCount++
	if s.opts.RestartInterval > 0 && s.executedCount%s.opts.RestartInterval == 0 {
		if err := s.restartTarget(ctx); err != nil {
			_ = s.Export()
			return errors.Wrap(err, "restart_interval restart")
		}
	}

	if err := s.executeCase(ctx, c); err != nil {
		_ = s.Export()
		return err
	}

	return s.Export()
}

func (s *Session) isPaused() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused
}

// executeCase runs one test case's ordered steps: pre-send hooks, open,
// transmit each path element, post-send hooks, liveness check, close.
func (s *Session) executeCase(ctx context.Context, c Case) error {
	primary := s.targets[0]
	fuzzEdge := c.Path[len(c.Path)-1]
	fuzzNode := s.graph.Node(fuzzEdge.Dst)

	name := caseName(s.graph, c.Path)
	s.log.OpenTestCase(s.globalIndex, name, s.totalMutations)

	if primary.Process != nil {
		if err := primary.Process.PreSend(ctx, s.globalIndex); err != nil {
			s.log.LogError("process monitor pre_send: " + err.Error())
		}
	}
	if primary.Network != nil {
		if err := primary.Network.StartCapture(ctx, name); err != nil {
			s.log.LogError("network monitor start capture: " + err.Error())
		}
	}

	if err := primary.Transport.Open(ctx); err != nil {
		return errors.Wrap(err, "open transport")
	}
	defer primary.Transport.Close()

	for _, edge := range c.Path {
		dst := s.graph.Node(edge.Dst)
		s.log.OpenTestStep(dst.Name())

		// Every path element renders its current state: prep nodes sit at
		// their default (their own mutation cycle already completed before
		// the traversal recursed past them), the last element is the fuzz
		// node mid-mutation.
		data := dst.Render(s.renderCtx)
		if edge.Callback != nil {
			if sub := edge.Callback(s.lastRecv); sub != nil {
				data = sub
			}
		}

		s.lastSend = data
		s.log.LogSend(data)
		if err := primary.Transport.Send(ctx, data); err != nil {
			if !s.logTransportErr(err) {
				return errors.Wrap(err, "send")
			}
		}

		if s.opts.CheckDataReceivedEachRequest {
			recv, err := primary.Transport.Recv(ctx, 10000)
			if err != nil {
				if !s.logTransportErr(err) {
					return errors.Wrap(err, "recv")
				}
			}
			s.lastRecv = recv
			s.log.LogRecv(recv)
			if len(recv) == 0 {
				s.log.LogFail("no data received for " + dst.Name())
			}
			dst.DispatchResponse(s.renderCtx, recv)
		}
	}

	if primary.Process != nil {
		if err := primary.Process.PostSend(ctx); err != nil {
			s.log.LogError("process monitor post_send: " + err.Error())
		}
	}

	if s.opts.SleepTime > 0 {
		select {
		case <-time.After(s.opts.SleepTime):
		case <-ctx.Done():
		}
	}

	if primary.Process != nil {
		alive, err := primary.Process.Alive(ctx)
		if err == nil && !alive {
			synopsis, _ := primary.Process.CrashSynopsis(ctx)
			if synopsis == "" {
				synopsis = "process monitor reported target down"
			}
			s.log.LogFail(synopsis)
		}
	}

	if primary.Network != nil {
		if pcapPath, bytesCaptured, err := primary.Network.StopCapture(ctx); err == nil {
			if pcapPath != "" {
				s.log.LogInfo("network capture saved: " + pcapPath)
			}
			s.mu.Lock()
			s.networkResults[s.globalIndex] = bytesCaptured
			s.mu.Unlock()
		}
	}

	if failures := s.log.FailedTestCases()[s.globalIndex]; len(failures) > 0 {
		return s.processFailures(ctx, fuzzNode, failures)
	}
	return nil
}

// logTransportErr reports a transport-level error through the logger per
// the ignore_connection_* flags and always returns true: neither a reset
// nor an abort aborts the case on its own, only whether it is logged as
// info or as a failure differs.
func (s *Session) logTransportErr(err error) bool {
	ignored := isIgnoredTransportErr(err, s.opts)
	if ignored {
		s.log.LogInfo("transport: " + err.Error())
	} else {
		s.log.LogFail("transport: " + err.Error())
	}
	return true
}

// processFailures records the failure, counts it against the current
// mutant, force-exhausts that mutant once it crosses crash_threshold
// (excluding Repeat and Group mutants), and restarts the target.
func (s *Session) processFailures(ctx context.Context, fuzzNode *request.Request, failures []string) error {
	s.mu.Lock()
	for _, f := range failures {
		s.monitorResults[s.globalIndex] = f
	}
	s.mu.Unlock()

	mutant := fuzzNode.CurrentMutant()
	if mutant != nil {
		s.mu.Lock()
		s.crashCounts[mutant]++
		count := s.crashCounts[mutant]
		s.mu.Unlock()

		if count >= s.opts.CrashThreshold && exhaustible(mutant) {
			if ex, ok := mutant.(interface{ ForceExhaust() int }); ok {
				skipped := ex.ForceExhaust()
				s.mu.Lock()
				s.globalIndex += skipped
				s.mu.Unlock()
			}
		}
	}

	return s.restartTarget(ctx)
}

// exhaustible reports whether mutant is eligible for crash-threshold
// exhaustion: every mutant except Repeat and Group primitives.
func exhaustible(mutant block.Mutant) bool {
	if _, ok := mutant.(*block.Repeat); ok {
		return false
	}
	if p, ok := mutant.(*primitive.Primitive); ok && p.Kind() == primitive.KindGroup {
		return false
	}
	return true
}

// restartTarget tries each restart method in priority order: on_failure
// hooks, VM snapshot revert, process monitor restart, then a plain sleep.
func (s *Session) restartTarget(ctx context.Context) error {
	if len(s.onFailures) > 0 {
		for _, hook := range s.onFailures {
			hook(s.log)
		}
		return nil
	}
	if s.vmControl != nil {
		if err := s.vmControl.RevertSnapshot(ctx); err != nil {
			return errors.Wrap(ErrRestartFailed, err.Error())
		}
		return nil
	}
	if len(s.targets) > 0 && s.targets[0].Process != nil {
		if err := s.targets[0].Process.Restart(ctx); err != nil {
			return errors.Wrap(ErrRestartFailed, err.Error())
		}
		return nil
	}
	select {
	case <-time.After(s.opts.RestartSleepTime):
	case <-ctx.Done():
	}
	return nil
}
