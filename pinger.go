// Package tcpping repeatedly probes a TCP port and reports whether it is open.
package tcpping

import (
	"context"

	"github.com/tcp-ping/tcpping/pingers"
)

var (
	// List of compile time checks for all pingers
	_ Pinger = (*pingers.TCPPinger)(nil)
)

// Pinger performs a single connect attempt against a fixed target.
type Pinger interface {
	Ping(ctx context.Context) pingers.Outcome
	Target() pingers.Target
}
