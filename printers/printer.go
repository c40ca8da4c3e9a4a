// Package printers contains the logic for printing information
package printers

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/tcp-ping/tcpping/pingers"
	"github.com/tcp-ping/tcpping/statistics"
)

// startMessage announces the target before the first probe.
func startMessage(t pingers.Target) string {
	if t.DestIsIP() {
		return fmt.Sprintf("Starting to probe %s on port %d", t.Host(), t.Port())
	}
	return fmt.Sprintf("Starting to probe %s (%s) on port %d", t.Host(), t.IP(), t.Port())
}

// probeLocation renders host:port the way the probe lines show it.
func probeLocation(t pingers.Target) string {
	return net.JoinHostPort(t.Host(), strconv.Itoa(int(t.Port())))
}

// latencyMs is the whole number of milliseconds shown in probe lines.
func latencyMs(o pingers.Outcome) int64 {
	return o.Latency.Milliseconds()
}

// probeMessage builds the one-line report of a probe.
func probeMessage(o pingers.Outcome, opt options) string {
	msg := fmt.Sprintf("Probing %s/TCP - ", probeLocation(o.Target))

	switch o.Status {
	case pingers.StatusOpen:
		msg += fmt.Sprintf("Port is open | Time=%dms", latencyMs(o))
		if opt.ShowSourceAddress && o.LocalAddr != nil {
			msg += fmt.Sprintf(" | Source=%s", o.LocalAddr)
		}
	case pingers.StatusClosed:
		msg += "Port is closed"
	default:
		msg += "Socket failure"
		if reason := o.Reason(); reason != "" {
			msg += ": " + reason
		}
	}

	if opt.ShowTimestamp && !o.Time.IsZero() {
		msg = o.Time.Format(time.DateTime) + " " + msg
	}

	return msg
}

// skipProbe reports whether a probe is hidden by the failures-only option.
func skipProbe(o pingers.Outcome, opt options) bool {
	return opt.ShowFailuresOnly && o.Success()
}

// statisticsHeader is the first line of the summary block.
func statisticsHeader(s *statistics.Summary) string {
	if !s.DestIsIP {
		return fmt.Sprintf("--- %s (%s) tcpping statistics ---", s.Hostname, s.IP)
	}
	return fmt.Sprintf("--- %s tcpping statistics ---", s.Hostname)
}

// formatProbeTime renders a last-probe timestamp, or the given text when there was none.
func formatProbeTime(t time.Time, never string) string {
	if t.IsZero() {
		return never
	}
	return t.Format(time.DateTime)
}

// durationClock renders a duration as HH:MM:SS.
func durationClock(d time.Duration) string {
	return time.Time{}.Add(d).Format(time.TimeOnly)
}
