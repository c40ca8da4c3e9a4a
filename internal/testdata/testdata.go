// Package testdata provides shared test helpers and fixtures.
package testdata

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/netip"
	"os"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/tcp-ping/tcpping/pingers"
	"github.com/tcp-ping/tcpping/printers"
	"github.com/tcp-ping/tcpping/statistics"
)

// Common test fixture values
const (
	TestHostname = "example.com"
	TestPort     = uint16(443)
	TestPort8080 = uint16(8080)
)

var (
	TestIP         = netip.MustParseAddr("192.168.1.1")
	TestIP2        = netip.MustParseAddr("10.0.0.1")
	TestIPv6       = netip.MustParseAddr("2001:db8::1")
	TestTimestamp  = time.Date(2024, 1, 15, 10, 30, 45, 0, time.UTC)
	TestTimestamp2 = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	TestSourceAddr = "10.0.0.1:12345"
)

// MockAddr implements net.Addr for testing.
type MockAddr struct {
	Addr string
}

func (m MockAddr) Network() string { return "tcp" }
func (m MockAddr) String() string  { return m.Addr }

var _ net.Addr = (*MockAddr)(nil)

// Target returns example.com resolved to TestIP on TestPort.
func Target() pingers.Target {
	return pingers.NewTarget(TestHostname, TestIP, TestPort)
}

// OpenOutcome is a successful probe with the given latency.
func OpenOutcome(seq int, latency time.Duration) pingers.Outcome {
	return pingers.Outcome{
		Target:    Target(),
		Seq:       seq,
		Status:    pingers.StatusOpen,
		Latency:   latency,
		LocalAddr: MockAddr{Addr: TestSourceAddr},
		Time:      TestTimestamp,
	}
}

// ClosedOutcome is a refused probe.
func ClosedOutcome(seq int) pingers.Outcome {
	return pingers.Outcome{
		Target: Target(),
		Seq:    seq,
		Status: pingers.StatusClosed,
		Err:    syscall.ECONNREFUSED,
		Time:   TestTimestamp,
	}
}

// SocketErrorOutcome is a probe that could not be attempted.
func SocketErrorOutcome(seq int, reason string) pingers.Outcome {
	return pingers.Outcome{
		Target: Target(),
		Seq:    seq,
		Status: pingers.StatusSocketError,
		Err:    errors.New(reason),
		Time:   TestTimestamp,
	}
}

// Summary is a finished run with 5 probes, 3 of them successful.
func Summary() *statistics.Summary {
	return &statistics.Summary{
		Snapshot:              statistics.Snapshot{Total: 5, Successful: 3, Failed: 2},
		Hostname:              TestHostname,
		IP:                    TestIP,
		Port:                  TestPort,
		StartTime:             TestTimestamp,
		EndTime:               TestTimestamp2,
		LastSuccessfulProbe:   TestTimestamp2,
		LastUnsuccessfulProbe: TestTimestamp,
		RTTResults: statistics.RttResult{
			Min:        1.5,
			Average:    2.25,
			Max:        3.75,
			HasResults: true,
		},
	}
}

// CaptureOutput captures stdout during function execution and returns it as a string.
func CaptureOutput(t *testing.T, fn func()) string {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("create pipe: %v", err)
	}
	os.Stdout = w

	done := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		done <- buf.String()
	}()

	defer func() {
		os.Stdout = oldStdout
	}()

	fn()

	_ = w.Close()

	return <-done
}

// CaptureJSONOutput captures and parses a single JSON event from stdout.
func CaptureJSONOutput(t *testing.T, fn func()) printers.JSONData {
	t.Helper()

	events := CaptureJSONEvents(t, fn)
	if len(events) != 1 {
		t.Fatalf("expected exactly one JSON event, got %d", len(events))
	}

	return events[0]
}

// CaptureJSONEvents captures stdout and parses every JSON event written to it.
func CaptureJSONEvents(t *testing.T, fn func()) []printers.JSONData {
	t.Helper()

	output := CaptureOutput(t, fn)

	var events []printers.JSONData
	dec := json.NewDecoder(strings.NewReader(output))
	for dec.More() {
		var data printers.JSONData
		if err := dec.Decode(&data); err != nil {
			t.Fatalf("parse JSON: %v\nOutput: %s", err, output)
		}
		events = append(events, data)
	}

	return events
}
