package session

import (
	"errors"

	"github.com/windyware/boofuzz/internal/transport"
)

// isIgnoredTransportErr reports whether err is a reset/abort the
// configured flags say to swallow as informational rather than record
// as a case failure.
func isIgnoredTransportErr(err error, opts Options) bool {
	switch {
	case errors.Is(err, transport.ErrConnectionReset):
		return opts.IgnoreConnectionReset
	case errors.Is(err, transport.ErrConnectionAborted):
		return opts.IgnoreConnectionAborted
	default:
		return false
	}
}
