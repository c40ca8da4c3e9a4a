// Package pingers implements protocol-specific ping functionality for network connectivity testing.
package pingers

import (
	"context"
	"errors"
	"net"
	"net/netip"
	"syscall"
	"time"

	"github.com/tcp-ping/tcpping/option"
)

// Status classifies the outcome of a single probe.
type Status string

const (
	StatusOpen        Status = "open"
	StatusClosed      Status = "closed"
	StatusSocketError Status = "socket error"
)

// Outcome is the result of one connect attempt.
type Outcome struct {
	Target    Target        // destination that was probed
	Seq       int           // 1-based attempt number, set by the prober
	Status    Status        // open, closed or socket error
	Latency   time.Duration // connect time, only meaningful for StatusOpen
	Err       error         // dial error for closed and socket error outcomes
	LocalAddr net.Addr      // source address of the successful connection
	Time      time.Time     // when the attempt started
}

// Success reports whether the port answered.
func (o Outcome) Success() bool {
	return o.Status == StatusOpen
}

// Reason returns the dial error message, or an empty string.
func (o Outcome) Reason() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// Target is the resolved destination of a probe run.
// It is built once and reused for every attempt.
type Target struct {
	Hostname string
	Addr     netip.AddrPort
}

// NewTarget creates a Target. hostname may be empty when the user gave a literal IP.
func NewTarget(hostname string, ip netip.Addr, port uint16) Target {
	return Target{
		Hostname: hostname,
		Addr:     netip.AddrPortFrom(ip.Unmap(), port),
	}
}

// IP returns the resolved address.
func (t Target) IP() netip.Addr {
	return t.Addr.Addr()
}

// Port returns the destination port.
func (t Target) Port() uint16 {
	return t.Addr.Port()
}

// IsIPv6 reports whether the target is dialed over IPv6.
func (t Target) IsIPv6() bool {
	return t.Addr.Addr().Is6()
}

// Host returns the name the user asked for, falling back to the IP.
func (t Target) Host() string {
	if t.Hostname == "" {
		return t.IP().String()
	}
	return t.Hostname
}

// DestIsIP reports whether the target was given as an IP literal.
func (t Target) DestIsIP() bool {
	return t.Hostname == "" || t.Hostname == t.IP().String()
}

// network picks "tcp4" or "tcp6" so the dialer never falls back to the other family.
func (t Target) network() string {
	if t.IsIPv6() {
		return "tcp6"
	}
	return "tcp4"
}

// TCPAddr returns the socket address dialed for this target. For IPv6 the
// flow info is always zero and the scope id comes from the address zone.
func (t Target) TCPAddr() *net.TCPAddr {
	return net.TCPAddrFromAddrPort(t.Addr)
}

// TCPPinger implements the Pinger interface for TCP connectivity testing.
type TCPPinger struct {
	dialer *net.Dialer
	target Target
	now    func() time.Time
}

type TCPOption = option.Option[TCPPinger]

const defaultTimeout = 3 * time.Second

// NewTCPPinger creates a new TCP pinger for the given target with optional configuration.
func NewTCPPinger(target Target, opts ...TCPOption) *TCPPinger {
	t := &TCPPinger{
		target: target,
		dialer: &net.Dialer{
			Timeout: defaultTimeout,
		},
		now: time.Now,
	}
	option.Apply(t, opts...)
	return t
}

// WithDialer configures a custom net.Dialer for TCP connections,
// for example one bound to a source interface.
func WithDialer(dialer *net.Dialer) TCPOption {
	return func(t *TCPPinger) {
		t.dialer = dialer
	}
}

// WithTimeout configures the connection timeout for TCP dial operations.
func WithTimeout(timeout time.Duration) TCPOption {
	return func(t *TCPPinger) {
		if t.dialer == nil {
			t.dialer = &net.Dialer{}
		}
		t.dialer.Timeout = timeout
	}
}

// WithClock replaces the time source used to measure latency.
func WithClock(now func() time.Time) TCPOption {
	return func(t *TCPPinger) {
		t.now = now
	}
}

// Target implements Pinger.
func (t *TCPPinger) Target() Target {
	return t.target
}

// Timeout returns the per-attempt connect timeout.
func (t *TCPPinger) Timeout() time.Duration {
	return t.dialer.Timeout
}

// Ping implements Pinger. Every call opens a fresh socket and closes it before returning.
func (t *TCPPinger) Ping(ctx context.Context) Outcome {
	start := t.now()
	conn, err := t.dialer.DialContext(ctx, t.target.network(), t.target.Addr.String())
	elapsed := t.now().Sub(start)

	if err != nil {
		return Outcome{
			Target: t.target,
			Status: Classify(err),
			Err:    err,
			Time:   start,
		}
	}
	defer func() { _ = conn.Close() }()

	return Outcome{
		Target:    t.target,
		Status:    StatusOpen,
		Latency:   elapsed,
		LocalAddr: conn.LocalAddr(),
		Time:      start,
	}
}

// Classify maps a dial error to a probe status. Timeouts, refusals, resets
// and unreachable hosts mean the port is closed; everything else is a socket failure.
func Classify(err error) Status {
	if err == nil {
		return StatusOpen
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return StatusClosed
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET),
		errors.Is(err, syscall.EHOSTUNREACH):
		return StatusClosed
	}

	return StatusSocketError
}
