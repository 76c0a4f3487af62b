// Package config loads session options from a TOML file for consumption
// by cmd/boofuzz.
package config

import (
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"

	"github.com/windyware/boofuzz/internal/session"
)

// File is the on-disk shape of a session configuration file. Durations
// are expressed in whole seconds.
type File struct {
	SessionFilename              string `toml:"session_filename"`
	Skip                         int    `toml:"skip"`
	SleepTimeSeconds             int    `toml:"sleep_time"`
	RestartInterval              int    `toml:"restart_interval"`
	CrashThreshold               int    `toml:"crash_threshold"`
	RestartSleepTimeSeconds      int    `toml:"restart_sleep_time"`
	WebPort                      int    `toml:"web_port"`
	CheckDataReceivedEachRequest bool   `toml:"check_data_received_each_request"`
	IgnoreConnectionReset        bool   `toml:"ignore_connection_reset"`
	IgnoreConnectionAborted      bool   `toml:"ignore_connection_aborted"`

	TargetHost string `toml:"target_host"`
	TargetPort int    `toml:"target_port"`
}

// Default returns a File populated with the engine's defaults: sleep_time
// 0, restart_sleep_time 5, web_port 26000 and crash_threshold 3.
func Default() File {
	return File{
		SleepTimeSeconds:        0,
		RestartSleepTimeSeconds: 5,
		WebPort:                 26000,
		CrashThreshold:          3,
	}
}

// Load reads and parses a TOML configuration file at path, starting
// from Default() so omitted fields keep their defaults.
func Load(path string) (File, error) {
	f := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return f, errors.Wrapf(err, "config: read %s", path)
	}
	if err := toml.Unmarshal(raw, &f); err != nil {
		return f, errors.Wrapf(err, "config: parse %s", path)
	}
	return f, nil
}

// ToSessionOptions converts the file representation into
// session.Options, expanding second counts to time.Duration.
func (f File) ToSessionOptions() session.Options {
	return session.Options{
		SessionFilename:              f.SessionFilename,
		Skip:                         f.Skip,
		SleepTime:                    time.Duration(f.SleepTimeSeconds) * time.Second,
		RestartInterval:              f.RestartInterval,
		CrashThreshold:               f.CrashThreshold,
		RestartSleepTime:             time.Duration(f.RestartSleepTimeSeconds) * time.Second,
		WebPort:                      f.WebPort,
		CheckDataReceivedEachRequest: f.CheckDataReceivedEachRequest,
		IgnoreConnectionReset:        f.IgnoreConnectionReset,
		IgnoreConnectionAborted:      f.IgnoreConnectionAborted,
	}
}
