package printers

import (
	"os"

	"github.com/gookit/color"

	"github.com/tcp-ping/tcpping/option"
	"github.com/tcp-ping/tcpping/pingers"
	"github.com/tcp-ping/tcpping/statistics"
)

// Color functions used when printing information
var (
	ColorCyan        = color.Cyan.Printf
	ColorLightCyan   = color.LightCyan.Printf
	ColorGreen       = color.Green.Printf
	ColorLightGreen  = color.LightGreen.Printf
	ColorYellow      = color.Yellow.Printf
	ColorLightYellow = color.LightYellow.Printf
	ColorRed         = color.Red.Printf
	ColorLightBlue   = color.FgLightBlue.Printf
)

// ColorPrinter provides functionality for printing messages with color support.
type ColorPrinter struct {
	opt options
}

type ColorPrinterOption = option.Option[ColorPrinter]

func (p *ColorPrinter) options() *options {
	return &p.opt
}

// NewColorPrinter creates a new ColorPrinter instance.
func NewColorPrinter(opts ...ColorPrinterOption) *ColorPrinter {
	p := &ColorPrinter{}
	option.Apply(p, opts...)
	return p
}

// PrintStart prints a message indicating the start of probing in light cyan.
func (p *ColorPrinter) PrintStart(t pingers.Target) {
	ColorLightCyan("%s\n", startMessage(t))
}

// PrintProbe prints open ports in green, closed ports in red
// and socket failures in yellow.
func (p *ColorPrinter) PrintProbe(o pingers.Outcome) {
	if skipProbe(o, p.opt) {
		return
	}

	msg := probeMessage(o, p.opt)

	switch o.Status {
	case pingers.StatusOpen:
		ColorLightGreen("%s\n", msg)
	case pingers.StatusClosed:
		ColorRed("%s\n", msg)
	default:
		ColorLightYellow("%s\n", msg)
	}
}

// PrintError prints an error message in red to stderr.
func (p *ColorPrinter) PrintError(format string, args ...any) {
	color.Fprintf(os.Stderr, "<red>"+format+"</>\n", args...)
}

// PrintStatistics prints a summary of the session.
func (p *ColorPrinter) PrintStatistics(s *statistics.Summary) {
	ColorYellow("\n%s\n", statisticsHeader(s))

	ColorYellow("%d probes sent on port %d | ", s.Total, s.Port)
	ColorGreen("%d successful", s.Successful)
	ColorYellow(", ")
	if s.Failed == 0 {
		ColorGreen("%d failed\n", s.Failed)
	} else {
		ColorRed("%d failed\n", s.Failed)
	}

	ColorYellow("last successful probe:   ")
	if s.LastSuccessfulProbe.IsZero() {
		ColorRed("Never succeeded\n")
	} else {
		ColorGreen("%s\n", formatProbeTime(s.LastSuccessfulProbe, ""))
	}

	ColorYellow("last unsuccessful probe: ")
	if s.LastUnsuccessfulProbe.IsZero() {
		ColorGreen("Never failed\n")
	} else {
		ColorRed("%s\n", formatProbeTime(s.LastUnsuccessfulProbe, ""))
	}

	if s.RTTResults.HasResults {
		ColorYellow("rtt ")
		ColorGreen("min")
		ColorYellow("/")
		ColorCyan("avg")
		ColorYellow("/")
		ColorRed("max: ")
		ColorGreen("%.3f", s.RTTResults.Min)
		ColorYellow("/")
		ColorCyan("%.3f", s.RTTResults.Average)
		ColorYellow("/")
		ColorRed("%.3f", s.RTTResults.Max)
		ColorYellow(" ms\n")
	}

	ColorYellow("--------------------------------------\n")
	ColorYellow("tcpping started at: ")
	ColorLightBlue("%v\n", s.StartTimeFormatted())

	// a run still in progress has no end time yet
	if !s.EndTime.IsZero() {
		ColorYellow("tcpping ended at:   ")
		ColorLightBlue("%v\n", s.EndTimeFormatted())
	}

	ColorYellow("duration (HH:MM:SS): %v\n\n", durationClock(s.Duration()))
}

// Done is a no-op; the color printer holds no resources.
func (p *ColorPrinter) Done() {}
