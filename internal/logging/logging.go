// Copyright 2024 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

// Package logging is a small leveled-logger facade over zap, shaped after
// the log/v3 API that the rest of this codebase's lineage is used to:
// a package-level root logger plus New(ctx...) child loggers that carry
// structured fields along for the ride.
package logging

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured, leveled logging contract used throughout this
// module. Every package logs through this interface rather than fmt or the
// stdlib log package.
type Logger interface {
	Trace(msg string, ctx ...interface{})
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
	Crit(msg string, ctx ...interface{})

	// New returns a child logger that always includes ctx's fields.
	New(ctx ...interface{}) Logger
}

type zapLogger struct {
	l *zap.SugaredLogger
}

var (
	rootOnce sync.Once
	root     Logger
)

// Root returns the process-wide default logger, writing to stderr at info
// level unless SetLevel has already replaced it. It is safe to call
// concurrently; the default zap logger is constructed at most once.
func Root() Logger {
	rootOnce.Do(func() {
		root = newZapLogger(zapcore.InfoLevel)
	})
	return root
}

// SetLevel rebuilds the root logger at the given level. Intended to be
// called once at process start from CLI flag parsing.
func SetLevel(level string) {
	lvl := zapcore.InfoLevel
	_ = lvl.UnmarshalText([]byte(level))
	rootOnce.Do(func() {})
	root = newZapLogger(lvl)
}

func newZapLogger(level zapcore.Level) Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(zapcore.AddSync(os.Stderr)),
		level,
	)
	return &zapLogger{l: zap.New(core).Sugar()}
}

func (z *zapLogger) Trace(msg string, ctx ...interface{}) { z.l.Debugw(msg, ctx...) }
func (z *zapLogger) Debug(msg string, ctx ...interface{}) { z.l.Debugw(msg, ctx...) }
func (z *zapLogger) Info(msg string, ctx ...interface{})  { z.l.Infow(msg, ctx...) }
func (z *zapLogger) Warn(msg string, ctx ...interface{})  { z.l.Warnw(msg, ctx...) }
func (z *zapLogger) Error(msg string, ctx ...interface{}) { z.l.Errorw(msg, ctx...) }
func (z *zapLogger) Crit(msg string, ctx ...interface{})  { z.l.Errorw(msg, ctx...) }

func (z *zapLogger) New(ctx ...interface{}) Logger {
	return &zapLogger{l: z.l.With(ctx...)}
}

// Nop returns a Logger that discards everything, for use in tests.
func Nop() Logger {
	return &zapLogger{l: zap.NewNop().Sugar()}
}
