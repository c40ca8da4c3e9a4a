// Package app wires the command line, name resolution, the prober and the printers together.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"golang.org/x/term"

	"github.com/tcp-ping/tcpping"
	"github.com/tcp-ping/tcpping/dns"
	"github.com/tcp-ping/tcpping/pingers"
	"github.com/tcp-ping/tcpping/statistics"
)

// Run executes the tcpping application and returns an exit code
func Run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(ctx, os.Args[1:])
}

func run(ctx context.Context, args []string) int {
	var config ProberConfig
	called := false

	cmd := NewCommand(func(cfg ProberConfig) error {
		config = cfg
		called = true
		return nil
	})
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		if errors.Is(err, ErrUsageRequested) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			PrintUsage(os.Stderr, cmd)
			return 1
		}
		return handleError(ctx, err, nil)
	}

	// cobra printed the help text without calling RunE
	if !called {
		return 0
	}

	return probe(ctx, config, os.Stdin)
}

// probe resolves the target, runs the prober until it finishes or ctx is
// cancelled and prints the final statistics.
func probe(ctx context.Context, config ProberConfig, stdin *os.File) int {
	ip, err := dns.NewResolver(dns.WithFamily(config.Family)).Resolve(ctx, config.Hostname)
	if err != nil {
		return handleError(ctx, err, nil)
	}

	target := pingers.NewTarget(config.Hostname, ip, config.Port)

	p, err := tcpping.NewPrinter(config.PrinterConfig)
	if err != nil {
		return handleError(ctx, err, nil)
	}

	printer := &syncPrinter{p: p}
	defer printer.Done()

	prober, err := tcpping.NewProber(buildPinger(target, config), config.ProbeConfig(), tcpping.WithSink(printer))
	if err != nil {
		return handleError(ctx, err, printer)
	}

	printer.PrintStart(target)

	if !config.NonInteractive && stdin != nil && term.IsTerminal(int(stdin.Fd())) {
		go monitorStdin(ctx, stdin, func() {
			stats := prober.Summary()
			printer.PrintStatistics(&stats)
		})
	}

	stats, err := prober.Probe(ctx)
	if err != nil {
		return handleError(ctx, err, printer)
	}

	printer.PrintStatistics(&stats)

	return 0
}

func buildPinger(target pingers.Target, config ProberConfig) *pingers.TCPPinger {
	if config.InterfaceDialer == nil {
		return pingers.NewTCPPinger(target, pingers.WithTimeout(config.Timeout))
	}

	return pingers.NewTCPPinger(target,
		pingers.WithDialer(config.InterfaceDialer),
		pingers.WithTimeout(config.Timeout),
	)
}

// monitorStdin calls onEnter every time the Enter key is pressed, until ctx is done.
func monitorStdin(ctx context.Context, r io.Reader, onEnter func()) {
	reader := bufio.NewReader(r)
	for ctx.Err() == nil {
		input, err := reader.ReadString('\n')
		if ctx.Err() != nil {
			return
		}

		if input == "\n" || input == "\r" || input == "\r\n" {
			onEnter()
		}

		if err != nil {
			return
		}
	}
}

// syncPrinter serializes calls to a printer shared by the probe loop and the stdin monitor.
type syncPrinter struct {
	mu sync.Mutex
	p  tcpping.Printer
}

func (s *syncPrinter) PrintStart(t pingers.Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p.PrintStart(t)
}

func (s *syncPrinter) PrintProbe(o pingers.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p.PrintProbe(o)
}

func (s *syncPrinter) PrintStatistics(stats *statistics.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p.PrintStatistics(stats)
}

func (s *syncPrinter) PrintError(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p.PrintError(format, args...)
}

func (s *syncPrinter) Done() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.p.Done()
}

func handleError(ctx context.Context, err error, printer tcpping.Printer) int {
	if err == nil {
		return 0
	}

	if errors.Is(err, ErrVersionRequested) {
		PrintVersion(os.Stdout)
		return 0
	}

	if errors.Is(err, ErrUpdateCheckRequested) {
		msg, checkErr := CheckForUpdates(ctx, nil)
		if checkErr != nil {
			printError(checkErr, printer)
			return 1
		}
		fmt.Println(msg)
		return 0
	}

	printError(err, printer)
	return 1
}

func printError(err error, printer tcpping.Printer) {
	if printer != nil {
		printer.PrintError("%v", err)
		return
	}

	fmt.Fprintf(os.Stderr, "error: %v\n", err)
}
