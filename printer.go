package tcpping

import (
	"fmt"

	"github.com/jwalton/go-supportscolor"

	"github.com/tcp-ping/tcpping/option"
	"github.com/tcp-ping/tcpping/pingers"
	"github.com/tcp-ping/tcpping/printers"
	"github.com/tcp-ping/tcpping/statistics"
)

var (
	_ Printer = (*printers.ColorPrinter)(nil)
	_ Printer = (*printers.PlainPrinter)(nil)
	_ Printer = (*printers.JSONPrinter)(nil)
	_ Printer = (*printers.CSVPrinter)(nil)
	_ Printer = (*printers.DatabasePrinter)(nil)
)

// Sink receives every probe outcome, in attempt order.
type Sink interface {
	PrintProbe(o pingers.Outcome)
}

// Printer defines a set of methods that any printer implementation must provide.
// Printers are responsible for outputting information, but should not modify data or perform calculations.
type Printer interface {
	// PrintStart prints the first message to indicate the target's address and port.
	// This message is printed only once, at the very beginning.
	PrintStart(t pingers.Target)

	// PrintProbe prints one line per probe: open with its latency, closed, or a socket failure.
	Sink

	// PrintStatistics prints the tally of a run.
	//
	// This is being called on exit and when user hits "Enter".
	PrintStatistics(s *statistics.Summary)

	// PrintError should print an error message.
	// Printer should also apply \n to the given string, if needed.
	PrintError(format string, args ...any)

	// Done releases files and connections held by the printer.
	Done()
}

// PrinterConfig holds all configuration options for Printer creation
type PrinterConfig struct {
	OutputJSON        bool
	PrettyJSON        bool
	NoColor           bool
	WithTimestamp     bool
	WithSourceAddress bool
	ShowFailuresOnly  bool
	OutputDBPath      string
	OutputCSVPath     string
	Target            string
	Port              string
}

// NewPrinter creates and returns an appropriate printer based on configuration
func NewPrinter(cfg PrinterConfig) (Printer, error) {
	if cfg.PrettyJSON && !cfg.OutputJSON {
		return nil, fmt.Errorf("%w: --pretty has no effect without the --json flag", ErrInvalidConfig)
	}

	switch {
	case cfg.OutputJSON:
		opts := commonOptions[printers.JSONPrinter](cfg)
		if cfg.PrettyJSON {
			opts = append(opts, printers.WithPrettyJSON())
		}
		return printers.NewJSONPrinter(opts...), nil

	case cfg.OutputDBPath != "":
		p, err := printers.NewDatabasePrinter(cfg.Target, cfg.Port, cfg.OutputDBPath,
			commonOptions[printers.DatabasePrinter](cfg)...)
		if err != nil {
			return nil, err
		}
		return p, nil

	case cfg.OutputCSVPath != "":
		p, err := printers.NewCSVPrinter(cfg.OutputCSVPath, commonOptions[printers.CSVPrinter](cfg)...)
		if err != nil {
			return nil, err
		}
		return p, nil

	case cfg.NoColor || !supportscolor.Stdout().SupportsColor:
		return printers.NewPlainPrinter(commonOptions[printers.PlainPrinter](cfg)...), nil

	default:
		return printers.NewColorPrinter(commonOptions[printers.ColorPrinter](cfg)...), nil
	}
}

// commonOptions translates the display flags shared by every printer.
func commonOptions[P any, T printers.OptionHolder[P]](cfg PrinterConfig) []option.Option[P] {
	var opts []option.Option[P]
	if cfg.WithTimestamp {
		opts = append(opts, printers.WithTimestamp[P, T]())
	}
	if cfg.WithSourceAddress {
		opts = append(opts, printers.WithSourceAddress[P, T]())
	}
	if cfg.ShowFailuresOnly {
		opts = append(opts, printers.WithFailuresOnly[P, T]())
	}
	return opts
}
