package fuzzlog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/windyware/boofuzz/internal/fuzzlog"
	"github.com/windyware/boofuzz/internal/logging"
)

func TestTextLoggerTracksFailuresByIndex(t *testing.T) {
	log := fuzzlog.NewTextLogger(logging.Nop())

	log.OpenTestCase(1, "a.flag.1", 10)
	log.LogFail("monitor reported crash")
	log.OpenTestCase(2, "a.flag.2", 10)
	log.LogPass("no anomaly")

	failures := log.FailedTestCases()
	assert.Equal(t, []string{"monitor reported crash"}, failures[1])
	assert.Empty(t, failures[2])
}

func TestFailedTestCasesReturnsACopy(t *testing.T) {
	log := fuzzlog.NewTextLogger(logging.Nop())
	log.OpenTestCase(1, "a", 1)
	log.LogFail("x")

	got := log.FailedTestCases()
	got[1] = append(got[1], "mutated by caller")

	fresh := log.FailedTestCases()
	assert.Equal(t, []string{"x"}, fresh[1], "mutating a returned snapshot must not affect internal state")
}
