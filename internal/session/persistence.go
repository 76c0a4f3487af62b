package session

import (
	"context"
	"os"
	"time"

	"github.com/gofrs/flock"
	jsoniter "github.com/json-iterator/go"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

// state is the per-case snapshot persisted to disk: the Session's state
// counters, never the graph itself.
type state struct {
	Skip               int            `json:"skip"`
	SleepTimeMillis    int64          `json:"sleep_time_millis"`
	RestartInterval    int            `json:"restart_interval"`
	RestartSleepMillis int64          `json:"restart_sleep_millis"`
	WebPort            int            `json:"web_port"`
	CrashThreshold     int            `json:"crash_threshold"`
	TotalNumMutations  int            `json:"total_num_mutations"`
	TotalMutantIndex   int            `json:"total_mutant_index"`
	MonitorResults     map[int]string `json:"monitor_results"`
	Paused             bool           `json:"paused"`
}

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// Export persists the Session's current counters to its configured
// session file. A write failure is propagated.
func (s *Session) Export() error {
	if s.opts.SessionFilename == "" {
		return nil
	}

	st := state{
		Skip:               s.globalIndex,
		SleepTimeMillis:    s.opts.SleepTime.Milliseconds(),
		RestartInterval:    s.opts.RestartInterval,
		RestartSleepMillis: s.opts.RestartSleepTime.Milliseconds(),
		WebPort:            s.opts.WebPort,
		CrashThreshold:     s.opts.CrashThreshold,
		TotalNumMutations:  s.totalMutations,
		TotalMutantIndex:   s.globalIndex,
		MonitorResults:     s.monitorResults,
		Paused:             s.paused,
	}

	raw, err := jsonAPI.Marshal(st)
	if err != nil {
		return errors.Wrap(err, "export session state: marshal")
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return errors.Wrap(err, "export session state: build compressor")
	}
	defer enc.Close()
	compressed := enc.EncodeAll(raw, nil)

	lock := flock.New(s.opts.SessionFilename + ".lock")
	if err := lock.Lock(); err != nil {
		return errors.Wrap(err, "export session state: lock")
	}
	defer lock.Unlock()

	tmp := s.opts.SessionFilename + ".tmp"
	if err := os.WriteFile(tmp, compressed, 0o644); err != nil {
		return errors.Wrap(err, "export session state: write temp file")
	}
	if err := os.Rename(tmp, s.opts.SessionFilename); err != nil {
		return errors.Wrap(err, "export session state: rename")
	}
	return nil
}

// Import restores counters from the configured session file. Any
// failure to locate, lock, decompress, or decode the file is swallowed:
// the Session simply starts fresh. Skip is reset to the persisted
// mutant index, effecting resume-from-last-case.
func (s *Session) Import(ctx context.Context) {
	if s.opts.SessionFilename == "" {
		return
	}

	lock := flock.New(s.opts.SessionFilename + ".lock")
	locked, err := lock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil || !locked {
		return
	}
	defer lock.Unlock()

	raw, err := os.ReadFile(s.opts.SessionFilename)
	if err != nil {
		return
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return
	}
	defer dec.Close()
	plain, err := dec.DecodeAll(raw, nil)
	if err != nil {
		return
	}

	var st state
	if err := jsonAPI.Unmarshal(plain, &st); err != nil {
		return
	}

	s.opts.Skip = st.TotalMutantIndex
	s.paused = st.Paused
	if st.MonitorResults != nil {
		s.monitorResults = st.MonitorResults
	}
	s.log.LogInfo("resumed from persisted session state")
}
