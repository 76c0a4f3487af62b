package session

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"

	"github.com/windyware/boofuzz/internal/monitor"
	"github.com/windyware/boofuzz/internal/transport"
)

// Target bundles one Transport with its optional process/network
// monitors and the option map forwarded to them once bound. Only
// Targets()[0] — the primary target — drives the main loop; additional
// targets registered via Session.AddTarget are carried but never
// transmitted to directly.
type Target struct {
	Transport      transport.Transport
	Process        monitor.ProcessMonitor
	Network        monitor.NetworkMonitor
	Options        map[string]string
	NetworkOptions map[string]string

	bound bool
}

// NewTarget builds a Target around t, with no monitors attached.
// Attach them by setting Process/Network directly before calling Bind.
func NewTarget(t transport.Transport) *Target {
	return &Target{Transport: t}
}

// Bind waits for any attached process and network monitor to report
// alive, each bounded by its own exponential backoff, then forwards the
// Target's option maps via SetOption. A Target with no monitors attached
// binds immediately.
func (t *Target) Bind(ctx context.Context) error {
	if t.bound {
		return nil
	}
	if t.Process != nil {
		b := backoff.NewExponentialBackOff()
		b.MaxElapsedTime = 2 * time.Minute
		op := func() error {
			alive, err := t.Process.Alive(ctx)
			if err != nil {
				return err
			}
			if !alive {
				return errors.New("process monitor not yet alive")
			}
			return nil
		}
		if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
			return errors.Wrap(err, "bind target: process monitor never came alive")
		}
		for k, v := range t.Options {
			if err := t.Process.SetOption(ctx, k, v); err != nil {
				return errors.Wrapf(err, "bind target: set option %q", k)
			}
		}
	}
	if t.Network != nil {
		b := backoff.NewExponentialBackOff()
		b.MaxElapsedTime = 2 * time.Minute
		op := func() error {
			alive, err := t.Network.Alive(ctx)
			if err != nil {
				return err
			}
			if !alive {
				return errors.New("network monitor not yet alive")
			}
			return nil
		}
		if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
			return errors.Wrap(err, "bind target: network monitor never came alive")
		}
		for k, v := range t.NetworkOptions {
			if err := t.Network.SetOption(ctx, k, v); err != nil {
				return errors.Wrapf(err, "bind target: set network option %q", k)
			}
		}
	}
	t.bound = true
	return nil
}
