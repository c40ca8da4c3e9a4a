package printers

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tcp-ping/tcpping/option"
	"github.com/tcp-ping/tcpping/pingers"
	"github.com/tcp-ping/tcpping/statistics"
)

const (
	colTimestamp     string = "Timestamp"
	colSeq           string = "Seq"
	colStatus        string = "Status"
	colHostname      string = "Hostname"
	colIP            string = "IP"
	colPort          string = "Port"
	colLatency       string = "Latency(ms)"
	colSourceAddress string = "Source Address"
	colReason        string = "Reason"
)

const (
	filePermission os.FileMode = 0644
	fileFlag       int         = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
)

// CSVPrinter is responsible for writing probe results and statistics to CSV files.
type CSVPrinter struct {
	ProbeWriter *csv.Writer
	StatsWriter *csv.Writer
	ProbeFile   *os.File
	StatsFile   *os.File
	out         io.Writer
	opt         options
}

type CSVPrinterOption = option.Option[CSVPrinter]

func (p *CSVPrinter) options() *options {
	return &p.opt
}

// NewCSVPrinter creates the probe and statistics files for filePath.
// Probes go to <filePath>.csv and statistics to <filePath>_stats.csv.
func NewCSVPrinter(filePath string, opts ...CSVPrinterOption) (*CSVPrinter, error) {
	probeFilename := addCSVExtension(filePath, false)

	probeFile, err := os.OpenFile(probeFilename, fileFlag, filePermission)
	if err != nil {
		return nil, fmt.Errorf("create probe CSV file %s: %w", probeFilename, err)
	}

	statsFilename := addCSVExtension(filePath, true)

	statsFile, err := os.OpenFile(statsFilename, fileFlag, filePermission)
	if err != nil {
		_ = probeFile.Close()
		return nil, fmt.Errorf("create stats CSV file %s: %w", statsFilename, err)
	}

	p := &CSVPrinter{
		ProbeWriter: csv.NewWriter(probeFile),
		StatsWriter: csv.NewWriter(statsFile),
		ProbeFile:   probeFile,
		StatsFile:   statsFile,
		out:         os.Stdout,
	}
	option.Apply(p, opts...)

	if err := p.writeProbeHeader(); err != nil {
		p.Done()
		return nil, err
	}

	return p, nil
}

func addCSVExtension(filename string, withStatsExt bool) string {
	if withStatsExt {
		base := strings.TrimSuffix(filename, ".csv")
		return base + "_stats.csv"
	}

	if strings.HasSuffix(filename, ".csv") {
		return filename
	}

	return filename + ".csv"
}

func (p *CSVPrinter) writeProbeHeader() error {
	headers := []string{}

	if p.opt.ShowTimestamp {
		headers = append(headers, colTimestamp)
	}

	headers = append(headers, colSeq, colStatus, colHostname, colIP, colPort, colLatency)

	if p.opt.ShowSourceAddress {
		headers = append(headers, colSourceAddress)
	}

	headers = append(headers, colReason)

	if err := p.ProbeWriter.Write(headers); err != nil {
		return fmt.Errorf("write CSV headers: %w", err)
	}

	p.ProbeWriter.Flush()

	return p.ProbeWriter.Error()
}

// PrintStart tells the user where the results are saved.
func (p *CSVPrinter) PrintStart(t pingers.Target) {
	fmt.Fprintf(p.out, "%s - saving the results to: %s\n", startMessage(t), p.ProbeFile.Name())
}

// PrintProbe writes one row per probe and flushes it right away,
// so the file is usable even if the process is killed.
func (p *CSVPrinter) PrintProbe(o pingers.Outcome) {
	if skipProbe(o, p.opt) {
		return
	}

	record := []string{}

	if p.opt.ShowTimestamp {
		record = append(record, formatProbeTime(o.Time, ""))
	}

	latency := ""
	if o.Success() {
		latency = fmt.Sprintf("%.3f", statistics.NanoToMillisecond(o.Latency.Nanoseconds()))
	}

	record = append(record,
		strconv.Itoa(o.Seq),
		string(o.Status),
		o.Target.Host(),
		o.Target.IP().String(),
		strconv.FormatUint(uint64(o.Target.Port()), 10),
		latency,
	)

	if p.opt.ShowSourceAddress {
		source := ""
		if o.LocalAddr != nil {
			source = o.LocalAddr.String()
		}
		record = append(record, source)
	}

	record = append(record, o.Reason())

	if err := p.ProbeWriter.Write(record); err != nil {
		p.PrintError("Failed to write probe record: %v", err)
		return
	}

	p.ProbeWriter.Flush()
}

// PrintError prints an error message to stderr.
func (p *CSVPrinter) PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "CSV Error: "+format+"\n", args...)
}

// PrintStatistics writes the tally as Metric,Value rows.
func (p *CSVPrinter) PrintStatistics(s *statistics.Summary) {
	stats := [][]string{
		{"Metric", "Value"},
		{"Timestamp", time.Now().Format(time.DateTime)},
		{"IP Address", s.IP.String()},
	}

	if !s.DestIsIP {
		stats = append(stats, []string{"Hostname", s.Hostname})
	}

	stats = append(stats,
		[]string{"Port", s.PortStr()},
		[]string{"Total Probes", strconv.Itoa(s.Total)},
		[]string{"Successful Probes", strconv.Itoa(s.Successful)},
		[]string{"Failed Probes", strconv.Itoa(s.Failed)},
		[]string{"Last Successful Probe", formatProbeTime(s.LastSuccessfulProbe, "Never succeeded")},
		[]string{"Last Unsuccessful Probe", formatProbeTime(s.LastUnsuccessfulProbe, "Never failed")},
	)

	if s.RTTResults.HasResults {
		stats = append(stats,
			[]string{"Latency Min", fmt.Sprintf("%.3f", s.RTTResults.Min)},
			[]string{"Latency Avg", fmt.Sprintf("%.3f", s.RTTResults.Average)},
			[]string{"Latency Max", fmt.Sprintf("%.3f", s.RTTResults.Max)},
		)
	} else {
		stats = append(stats,
			[]string{"Latency Min", "N/A"},
			[]string{"Latency Avg", "N/A"},
			[]string{"Latency Max", "N/A"},
		)
	}

	stats = append(stats, []string{"Start Timestamp", s.StartTimeFormatted()})

	if !s.EndTime.IsZero() {
		stats = append(stats, []string{"End Timestamp", s.EndTimeFormatted()})
	} else {
		stats = append(stats, []string{"End Timestamp", "In progress"})
	}

	stats = append(stats, []string{"Total Duration", statistics.DurationToString(s.Duration())})

	if err := p.StatsWriter.WriteAll(stats); err != nil {
		p.PrintError("Failed to write statistics record: %v", err)
		return
	}

	fmt.Fprintf(p.out, "\nStatistics have been saved to: %s\n", p.StatsFile.Name())
}

// Done flushes the buffer of writers and closes the probe and stats file
func (p *CSVPrinter) Done() {
	if p.ProbeWriter != nil {
		p.ProbeWriter.Flush()
	}

	if p.ProbeFile != nil {
		_ = p.ProbeFile.Close()
	}

	if p.StatsWriter != nil {
		p.StatsWriter.Flush()
	}

	if p.StatsFile != nil {
		_ = p.StatsFile.Close()
	}
}
