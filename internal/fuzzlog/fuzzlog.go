// Package fuzzlog records the structured per-test-case narrative a fuzz
// run produces: the steps taken, what was sent and received, and which
// test cases were ultimately marked failed.
package fuzzlog

import (
	"fmt"
	"sync"

	"github.com/windyware/boofuzz/internal/logging"
)

// Logger is the contract a Session drives while executing test cases.
// OpenTestCase/OpenTestStep bracket the current case/step so that
// LogSend/LogRecv/LogInfo/LogCheck/LogPass/LogFail/LogError can be
// called without re-passing that context on every call, mirroring the
// original's FuzzLogger.
type Logger interface {
	OpenTestCase(index int, name string, numMutations int)
	OpenTestStep(label string)
	LogSend(data []byte)
	LogRecv(data []byte)
	LogInfo(msg string)
	LogCheck(msg string)
	LogPass(msg string)
	LogFail(msg string)
	LogError(msg string)

	// FailedTestCases returns, for every test case index that recorded at
	// least one LogFail, the ordered list of failure messages.
	FailedTestCases() map[int][]string
}

// TextLogger is the default Logger, writing one structured log line per
// event through internal/logging and keeping an in-memory index of
// failures for reporting.
type TextLogger struct {
	log logging.Logger

	mu           sync.Mutex
	curIndex     int
	curName      string
	curStep      string
	failed       map[int][]string
}

// NewTextLogger builds a TextLogger writing through log, or
// logging.Root() if log is nil.
func NewTextLogger(log logging.Logger) *TextLogger {
	if log == nil {
		log = logging.Root()
	}
	return &TextLogger{log: log.New("component", "fuzzlog"), failed: map[int][]string{}}
}

func (t *TextLogger) OpenTestCase(index int, name string, numMutations int) {
	t.mu.Lock()
	t.curIndex, t.curName, t.curStep = index, name, ""
	t.mu.Unlock()
	t.log.Info("opening test case", "index", index, "name", name, "numMutations", numMutations)
}

func (t *TextLogger) OpenTestStep(label string) {
	t.mu.Lock()
	t.curStep = label
	t.mu.Unlock()
	t.log.Debug("test step", "step", label)
}

func (t *TextLogger) LogSend(data []byte) {
	t.log.Debug("send", "bytes", len(data), "step", t.curStep)
}

func (t *TextLogger) LogRecv(data []byte) {
	t.log.Debug("recv", "bytes", len(data), "step", t.curStep)
}

func (t *TextLogger) LogInfo(msg string) { t.log.Info(msg, "step", t.curStep) }

func (t *TextLogger) LogCheck(msg string) { t.log.Debug("check: "+msg, "step", t.curStep) }

func (t *TextLogger) LogPass(msg string) { t.log.Info("pass: "+msg, "step", t.curStep) }

func (t *TextLogger) LogFail(msg string) {
	t.mu.Lock()
	t.failed[t.curIndex] = append(t.failed[t.curIndex], msg)
	idx, name := t.curIndex, t.curName
	t.mu.Unlock()
	t.log.Warn(fmt.Sprintf("fail: %s", msg), "index", idx, "name", name)
}

func (t *TextLogger) LogError(msg string) { t.log.Error(msg, "step", t.curStep) }

func (t *TextLogger) FailedTestCases() map[int][]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[int][]string, len(t.failed))
	for k, v := range t.failed {
		cp := make([]string, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}
