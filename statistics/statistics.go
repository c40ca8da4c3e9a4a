// Package statistics keeps the probe tally and the helpers used to present it.
package statistics

import (
	"fmt"
	"math"
	"net/netip"
	"slices"
	"sync"
	"time"
)

// Snapshot is a consistent view of the probe counters.
// Successful + Failed always equals Total.
type Snapshot struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// Counters accumulates probe results. It is written by the probe loop and
// may be read from any goroutine.
type Counters struct {
	mu sync.Mutex

	snap                  Snapshot
	rtt                   []float32
	startTime             time.Time
	endTime               time.Time
	lastSuccessfulProbe   time.Time
	lastUnsuccessfulProbe time.Time
}

// Record folds one probe into the counters and returns the updated snapshot.
// rtt is only kept for successful probes.
func (c *Counters) Record(success bool, rtt time.Duration, at time.Time) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snap.Total++
	if success {
		c.snap.Successful++
		c.rtt = append(c.rtt, NanoToMillisecond(rtt.Nanoseconds()))
		c.lastSuccessfulProbe = at
	} else {
		c.snap.Failed++
		c.lastUnsuccessfulProbe = at
	}

	return c.snap
}

// Snapshot returns the current counters.
func (c *Counters) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snap
}

// MarkStart records when probing began.
func (c *Counters) MarkStart(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.startTime = t
}

// MarkEnd records when probing stopped.
func (c *Counters) MarkEnd(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.endTime = t
}

// Summary returns the counters together with timing and RTT figures.
// Target fields are left for the caller to fill in.
func (c *Counters) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Summary{
		Snapshot:              c.snap,
		StartTime:             c.startTime,
		EndTime:               c.endTime,
		LastSuccessfulProbe:   c.lastSuccessfulProbe,
		LastUnsuccessfulProbe: c.lastUnsuccessfulProbe,
		RTTResults:            CalcMinAvgMaxRttTime(c.rtt),
	}
}

// Summary is what printers show at the end of a run, or when the user asks for interim stats.
type Summary struct {
	Snapshot

	// Target information
	Hostname string
	IP       netip.Addr
	Port     uint16
	DestIsIP bool

	// Time tracking
	StartTime             time.Time
	EndTime               time.Time
	LastSuccessfulProbe   time.Time
	LastUnsuccessfulProbe time.Time

	RTTResults RttResult
}

// Duration is how long the run took. For a run that is still going it is measured until now.
func (s *Summary) Duration() time.Duration {
	if s.StartTime.IsZero() {
		return 0
	}
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

func (s *Summary) PortStr() string {
	return fmt.Sprint(s.Port)
}

func (s *Summary) StartTimeFormatted() string {
	return s.StartTime.Format(time.DateTime)
}

func (s *Summary) EndTimeFormatted() string {
	return s.EndTime.Format(time.DateTime)
}

// RttResult holds statistics for round-trip times (RTT) results.
type RttResult struct {
	Min        float32 // Minimum RTT value.
	Max        float32 // Maximum RTT value.
	Average    float32 // Average RTT value.
	HasResults bool    // Flag indicating whether RTT results are available.
}

// CalcMinAvgMaxRttTime calculates min, avg and max RTT values
func CalcMinAvgMaxRttTime(timeArr []float32) RttResult {
	var result RttResult

	arrLen := len(timeArr)
	if arrLen == 0 {
		return result
	}

	var sum float32

	for _, t := range timeArr {
		sum += t
	}

	result.Min = slices.Min(timeArr)
	result.Max = slices.Max(timeArr)
	result.Average = sum / float32(arrLen)
	result.HasResults = true

	return result
}

// DurationToString creates a human-readable string for a given duration
func DurationToString(duration time.Duration) string {
	hours := math.Floor(duration.Hours())
	if hours > 0 {
		duration -= time.Duration(hours * float64(time.Hour))
	}

	minutes := math.Floor(duration.Minutes())
	if minutes > 0 {
		duration -= time.Duration(minutes * float64(time.Minute))
	}

	seconds := duration.Seconds()

	switch {
	case hours >= 2:
		return fmt.Sprintf("%.0f hours %.0f minutes %.0f seconds", hours, minutes, seconds)
	case hours == 1 && minutes == 0 && seconds == 0:
		return fmt.Sprintf("%.0f hour", hours)
	case hours == 1:
		return fmt.Sprintf("%.0f hour %.0f minutes %.0f seconds", hours, minutes, seconds)

	case minutes >= 2:
		return fmt.Sprintf("%.0f minutes %.0f seconds", minutes, seconds)
	case minutes == 1 && seconds == 0:
		return fmt.Sprintf("%.0f minute", minutes)
	case minutes == 1:
		return fmt.Sprintf("%.0f minute %.0f seconds", minutes, seconds)

	case seconds == 0 || seconds >= 1 && seconds < 1.1:
		return fmt.Sprintf("%.0f second", seconds)
	case seconds < 1:
		return fmt.Sprintf("%.1f seconds", seconds)

	default:
		return fmt.Sprintf("%.0f seconds", seconds)
	}
}

// NanoToMillisecond returns an amount of milliseconds from nanoseconds.
// Using duration.Milliseconds() is not an option, because it drops
// decimal points, returning an int.
func NanoToMillisecond(nano int64) float32 {
	return float32(nano) / float32(time.Millisecond)
}

// MillisecondsToDuration converts a whole number of milliseconds, as taken
// on the command line, to a time.Duration.
func MillisecondsToDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
