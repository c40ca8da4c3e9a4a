package printers

import (
	"fmt"
	"io"
	"os"

	"github.com/tcp-ping/tcpping/option"
	"github.com/tcp-ping/tcpping/pingers"
	"github.com/tcp-ping/tcpping/statistics"
)

// PlainPrinter is a printer that prints the results in a simple, plain text format.
type PlainPrinter struct {
	out    io.Writer
	errOut io.Writer
	opt    options
}

type PlainPrinterOption = option.Option[PlainPrinter]

func (p *PlainPrinter) options() *options {
	return &p.opt
}

// NewPlainPrinter creates a new PlainPrinter writing to stdout and stderr.
func NewPlainPrinter(opts ...PlainPrinterOption) *PlainPrinter {
	p := &PlainPrinter{out: os.Stdout, errOut: os.Stderr}
	option.Apply(p, opts...)
	return p
}

// PrintStart prints the start message with the target's hostname, address and port.
func (p *PlainPrinter) PrintStart(t pingers.Target) {
	fmt.Fprintln(p.out, startMessage(t))
}

// PrintProbe prints one line for the probe.
func (p *PlainPrinter) PrintProbe(o pingers.Outcome) {
	if skipProbe(o, p.opt) {
		return
	}
	fmt.Fprintln(p.out, probeMessage(o, p.opt))
}

// PrintError prints error messages to stderr.
func (p *PlainPrinter) PrintError(format string, args ...any) {
	fmt.Fprintf(p.errOut, format+"\n", args...)
}

// PrintStatistics prints the tally of the session.
func (p *PlainPrinter) PrintStatistics(s *statistics.Summary) {
	fmt.Fprintf(p.out, "\n%s\n", statisticsHeader(s))
	fmt.Fprintf(p.out, "%d probes sent on port %d | %d successful, %d failed\n",
		s.Total,
		s.Port,
		s.Successful,
		s.Failed)

	fmt.Fprintf(p.out, "last successful probe:   %s\n", formatProbeTime(s.LastSuccessfulProbe, "Never succeeded"))
	fmt.Fprintf(p.out, "last unsuccessful probe: %s\n", formatProbeTime(s.LastUnsuccessfulProbe, "Never failed"))

	if s.RTTResults.HasResults {
		fmt.Fprintf(p.out, "rtt min/avg/max: %.3f/%.3f/%.3f ms\n",
			s.RTTResults.Min,
			s.RTTResults.Average,
			s.RTTResults.Max)
	}

	fmt.Fprintf(p.out, "--------------------------------------\n")
	fmt.Fprintf(p.out, "tcpping started at: %v\n", s.StartTimeFormatted())

	// a run still in progress has no end time yet
	if !s.EndTime.IsZero() {
		fmt.Fprintf(p.out, "tcpping ended at:   %v\n", s.EndTimeFormatted())
	}

	fmt.Fprintf(p.out, "duration (HH:MM:SS): %v\n\n", durationClock(s.Duration()))
}

// Done is a no-op; the plain printer holds no resources.
func (p *PlainPrinter) Done() {}
