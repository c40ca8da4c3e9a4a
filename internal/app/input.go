package app

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/tcp-ping/tcpping"
	"github.com/tcp-ping/tcpping/dns"
	"github.com/tcp-ping/tcpping/statistics"
)

var (
	// ErrUsageRequested indicates usage help was requested
	ErrUsageRequested = errors.New("usage requested")

	// ErrHelpRequested indicates -h/--help was given; the help text has already been printed
	ErrHelpRequested = errors.New("help requested")

	// ErrVersionRequested indicates version display was requested
	ErrVersionRequested = errors.New("version requested")

	// ErrUpdateCheckRequested indicates update check was requested
	ErrUpdateCheckRequested = errors.New("update check requested")

	// ErrInvalidConfig is returned for flag values out of range or in conflict.
	ErrInvalidConfig = tcpping.ErrInvalidConfig
)

// ProberConfig contains all configuration needed to create and run a prober.
// It is built once from the command line and not modified afterwards.
type ProberConfig struct {
	// Target configuration
	Hostname string
	Port     uint16
	Family   dns.Family

	// Network options
	InterfaceName     string
	InterfaceDialer   *net.Dialer
	ShowSourceAddress bool

	// Timing options
	Timeout  time.Duration
	Interval time.Duration

	// Probe control
	Quantity         int
	ShowFailuresOnly bool

	// Output options
	PrinterConfig tcpping.PrinterConfig

	// Runtime options
	NonInteractive bool
}

// ProbeConfig returns the prober settings.
func (c ProberConfig) ProbeConfig() tcpping.Config {
	return tcpping.Config{
		Quantity: c.Quantity,
		Timeout:  c.Timeout,
		Delay:    c.Interval,
	}
}

// flags holds the raw values bound to the command line.
type flags struct {
	port              int
	quantity          int
	timeoutMs         int
	sleepMs           int
	loop              bool
	useIPv4           bool
	useIPv6           bool
	intName           string
	showTimestamp     bool
	showSourceAddress bool
	showFailuresOnly  bool
	noColor           bool
	outputJSON        bool
	prettyJSON        bool
	saveToCSV         string
	saveToDB          string
	nonInteractive    bool
	checkUpdates      bool
	showVer           bool
}

// NewCommand builds the root command. run is called with the validated
// configuration once the flags have been parsed.
func NewCommand(run func(ProberConfig) error) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "tcpping <hostname/ip> [-p port] [flags]",
		Short: "Ping a TCP port",
		Long: "tcpping repeatedly opens TCP connections to a host and port and reports\n" +
			"whether the port is open, closed or unreachable, along with the connect time.",
		Example: "  tcpping www.example.com -p 443\n" +
			"  tcpping 10.0.0.1 -p 22 -n 10 -s 500\n" +
			"  tcpping -6 www.example.com -p 80 --loop",
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.MaximumNArgs(2)(cmd, args); err != nil {
				return fmt.Errorf("%w: %w", ErrUsageRequested, err)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.showVer {
				return ErrVersionRequested
			}

			if f.checkUpdates {
				return ErrUpdateCheckRequested
			}

			cfg, err := newProberConfig(f, args, cmd.Flags().Changed("port"))
			if err != nil {
				return err
			}

			return run(cfg)
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", ErrUsageRequested, err)
	})

	fs := cmd.Flags()
	fs.SortFlags = false

	fs.IntVarP(&f.port, "port", "p", 0, "port to connect to (1-65535).")
	fs.IntVarP(&f.quantity, "num", "n", tcpping.DefaultQuantity, "number of probes to send, -1 to probe until interrupted.")
	fs.IntVarP(&f.timeoutMs, "timeout", "t", int(tcpping.DefaultTimeout/time.Millisecond), "time to wait for each connection, in milliseconds.")
	fs.IntVarP(&f.sleepMs, "sleep", "s", int(tcpping.DefaultDelay/time.Millisecond), "delay between probes, in milliseconds.")
	fs.BoolVarP(&f.loop, "loop", "l", false, "probe until interrupted, regardless of --num.")
	fs.BoolVarP(&f.useIPv4, "ipv4", "4", false, "only use IPv4 to initiate probes (default).")
	fs.BoolVarP(&f.useIPv6, "ipv6", "6", false, "only use IPv6 to initiate probes.")
	fs.StringVarP(&f.intName, "interface", "I", "", "enforce using a specific interface name or IP address to initiate probes.")
	fs.BoolVarP(&f.showTimestamp, "timestamp", "D", false, "show timestamp for each probe in the output.")
	fs.BoolVar(&f.showSourceAddress, "show-source-address", false, "show source address and port used for probes.")
	fs.BoolVar(&f.showFailuresOnly, "show-failures-only", false, "show only the failed probes.")
	fs.BoolVar(&f.noColor, "no-color", false, "do not colorize output.")
	fs.BoolVarP(&f.outputJSON, "json", "j", false, "output in JSON format.")
	fs.BoolVar(&f.prettyJSON, "pretty", false, "use indentation when using json output format. No effect without the '--json' flag.")
	fs.StringVar(&f.saveToCSV, "csv", "", "path and file name to store output to a CSV file. The stats will be saved with the same name and `_stats` suffix.")
	fs.StringVar(&f.saveToDB, "db", "", "path and file name to store output to a sqlite3 database.")
	fs.BoolVar(&f.nonInteractive, "non-interactive", false, "let tcpping run in the background, for instance using nohup or disown.")
	fs.BoolVarP(&f.checkUpdates, "check-updates", "u", false, "check for updates and exit.")
	fs.BoolVarP(&f.showVer, "version", "v", false, "show version and exit.")

	return cmd
}

// ParseArgs parses the command line (without the program name) into a ProberConfig.
// It returns ErrUsageRequested, ErrHelpRequested, ErrVersionRequested or
// ErrUpdateCheckRequested for special control flow.
func ParseArgs(args []string) (ProberConfig, error) {
	var config ProberConfig
	called := false

	cmd := NewCommand(func(cfg ProberConfig) error {
		config = cfg
		called = true
		return nil
	})
	if args == nil {
		// cobra falls back to os.Args on nil
		args = []string{}
	}
	cmd.SetArgs(args)

	if err := cmd.Execute(); err != nil {
		return ProberConfig{}, err
	}

	// cobra answers -h/--help itself without calling RunE
	if !called {
		return ProberConfig{}, ErrHelpRequested
	}

	return config, nil
}

// newProberConfig validates the flags and converts them once into durations and typed values.
func newProberConfig(f flags, args []string, portSet bool) (ProberConfig, error) {
	if len(args) == 0 {
		return ProberConfig{}, fmt.Errorf("%w: missing hostname", ErrUsageRequested)
	}

	hostname := args[0]

	portStr := strconv.Itoa(f.port)
	switch {
	case portSet && len(args) == 2:
		return ProberConfig{}, fmt.Errorf("%w: port given twice", ErrUsageRequested)
	case !portSet && len(args) == 2:
		portStr = args[1]
	case !portSet:
		return ProberConfig{}, fmt.Errorf("%w: missing port, use -p <port>", ErrUsageRequested)
	}

	port, err := convertAndValidatePort(portStr)
	if err != nil {
		return ProberConfig{}, err
	}

	if f.useIPv4 && f.useIPv6 {
		return ProberConfig{}, fmt.Errorf("%w: only one IP version can be specified", ErrInvalidConfig)
	}

	family := dns.FamilyIPv4
	if f.useIPv6 {
		family = dns.FamilyIPv6
	}

	if f.prettyJSON && !f.outputJSON {
		return ProberConfig{}, fmt.Errorf("%w: --pretty has no effect without the --json flag", ErrInvalidConfig)
	}

	quantity := f.quantity
	if f.loop {
		quantity = tcpping.Unbounded
	}

	config := ProberConfig{
		Hostname:          hostname,
		Port:              port,
		Family:            family,
		ShowSourceAddress: f.showSourceAddress,
		Timeout:           statistics.MillisecondsToDuration(f.timeoutMs),
		Interval:          statistics.MillisecondsToDuration(f.sleepMs),
		Quantity:          quantity,
		ShowFailuresOnly:  f.showFailuresOnly,
		NonInteractive:    f.nonInteractive,
		PrinterConfig: tcpping.PrinterConfig{
			OutputJSON:        f.outputJSON,
			PrettyJSON:        f.prettyJSON,
			NoColor:           f.noColor,
			WithTimestamp:     f.showTimestamp,
			WithSourceAddress: f.showSourceAddress,
			ShowFailuresOnly:  f.showFailuresOnly,
			OutputDBPath:      f.saveToDB,
			OutputCSVPath:     f.saveToCSV,
			Target:            hostname,
			Port:              strconv.Itoa(int(port)),
		},
	}

	if err := config.ProbeConfig().Validate(); err != nil {
		return ProberConfig{}, err
	}

	if f.intName != "" {
		dialer, err := newNetworkInterface(f.intName, family)
		if err != nil {
			return ProberConfig{}, fmt.Errorf("%w: setup network interface: %w", ErrInvalidConfig, err)
		}
		config.InterfaceDialer = dialer
		config.InterfaceName = f.intName
	}

	return config, nil
}

// convertAndValidatePort validates and returns the TCP port
func convertAndValidatePort(portStr string) (uint16, error) {
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid port number: %s", ErrInvalidConfig, portStr)
	}

	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("%w: port should be in 1..65535 range", ErrInvalidConfig)
	}

	return uint16(port), nil
}

// newNetworkInterface uses the given IP address or a NIC to find the first IP address
// to use as the source of the probes. The given IP address must exist on the system.
func newNetworkInterface(ipAddress string, family dns.Family) (*net.Dialer, error) {
	if ip, err := netip.ParseAddr(ipAddress); err == nil {
		return dialerForAddress(ip.Unmap(), family)
	}

	// we are probably given an interface name
	iface, err := net.InterfaceByName(ipAddress)
	if err != nil {
		return nil, fmt.Errorf("interface %s not found: %w", ipAddress, err)
	}

	addrs, err := iface.Addrs()
	if err != nil {
		return nil, fmt.Errorf("get interface addresses: %w", err)
	}

	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}

		ip, ok := netip.AddrFromSlice(ipNet.IP)
		if !ok {
			continue
		}
		ip = ip.Unmap()

		switch {
		case ip.Is4() && family != dns.FamilyIPv6:
			return newDialer(ip), nil
		case ip.Is6() && family == dns.FamilyIPv6 && !ip.IsLinkLocalUnicast():
			return newDialer(ip), nil
		}
	}

	return nil, fmt.Errorf("interface %s has no usable %s address", ipAddress, family)
}

func dialerForAddress(ip netip.Addr, family dns.Family) (*net.Dialer, error) {
	if (family == dns.FamilyIPv4 && !ip.Is4()) || (family == dns.FamilyIPv6 && !ip.Is6()) {
		return nil, fmt.Errorf("source address %s is not an %s address", ip, family)
	}

	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, fmt.Errorf("get ip addresses: %w", err)
	}

	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		if local, ok := netip.AddrFromSlice(ipNet.IP); ok && local.Unmap() == ip {
			return newDialer(ip), nil
		}
	}

	return nil, fmt.Errorf("ip address %s not assigned to any interface", ip)
}

func newDialer(ip netip.Addr) *net.Dialer {
	return &net.Dialer{
		LocalAddr: net.TCPAddrFromAddrPort(netip.AddrPortFrom(ip, 0)),
	}
}
