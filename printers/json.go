package printers

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/tcp-ping/tcpping/option"
	"github.com/tcp-ping/tcpping/pingers"
	"github.com/tcp-ping/tcpping/statistics"
)

// JSONEventType is a special type for each method
// in the printer interface so that automatic tools
// can understand what kind of an event they've received.
type JSONEventType string

const (
	startEvent      JSONEventType = "start"      // Event type for `PrintStart` method.
	probeEvent      JSONEventType = "probe"      // Event type for `PrintProbe` method.
	statisticsEvent JSONEventType = "statistics" // Event type for `PrintStatistics` method.
	errorEvent      JSONEventType = "error"      // Event type for `PrintError` method.
)

// JSONData contains all possible fields for JSON output.
// Because one event usually contains only a subset of fields,
// other fields will be omitted in the output.
type JSONData struct {
	Type JSONEventType `json:"type"`
	// Success is a pointer so that false is still printed for probe events
	// while being omitted from every other event.
	Success    *bool  `json:"success,omitempty"`
	Status     string `json:"status,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`
	Message    string `json:"message"` // Message contains the same text the plain printer shows.
	IPAddr     string `json:"ipAddress,omitempty"`
	Hostname   string `json:"hostname,omitempty"`
	Port       uint16 `json:"port,omitempty"`
	SourceAddr string `json:"sourceAddress,omitempty"`
	Seq        int    `json:"seq,omitempty"`
	Reason     string `json:"reason,omitempty"`
	DestIsIP   *bool  `json:"destinationIsIP,omitempty"`

	// Latency in ms for successful probe messages.
	Latency float32 `json:"latency,omitempty"`

	Total                 *int   `json:"total,omitempty"`
	Successful            *int   `json:"successful,omitempty"`
	Failed                *int   `json:"failed,omitempty"`
	LatencyMin            string `json:"latencyMin,omitempty"` // 3 decimal places
	LatencyAvg            string `json:"latencyAvg,omitempty"` // 3 decimal places
	LatencyMax            string `json:"latencyMax,omitempty"` // 3 decimal places
	StartTimestamp        string `json:"startTimestamp,omitempty"`
	EndTimestamp          string `json:"endTimestamp,omitempty"`
	LastSuccessfulProbe   string `json:"lastSuccessfulProbe,omitempty"`
	LastUnsuccessfulProbe string `json:"lastUnsuccessfulProbe,omitempty"`
	TotalDuration         string `json:"totalDuration,omitempty"` // seconds
}

// JSONPrinter prints one JSON object per event.
type JSONPrinter struct {
	encoder *json.Encoder
	opt     options
	pretty  bool
}

type JSONPrinterOption = option.Option[JSONPrinter]

func (p *JSONPrinter) options() *options {
	return &p.opt
}

// WithPrettyJSON indents the JSON output.
func WithPrettyJSON() JSONPrinterOption {
	return func(p *JSONPrinter) {
		p.pretty = true
	}
}

// WithJSONWriter sends the JSON output to w instead of stdout.
func WithJSONWriter(w io.Writer) JSONPrinterOption {
	return func(p *JSONPrinter) {
		p.encoder = json.NewEncoder(w)
	}
}

// NewJSONPrinter creates a new JSONPrinter instance.
func NewJSONPrinter(opts ...JSONPrinterOption) *JSONPrinter {
	p := &JSONPrinter{encoder: json.NewEncoder(os.Stdout)}
	option.Apply(p, opts...)

	if p.pretty {
		p.encoder.SetIndent("", "\t")
	}

	return p
}

func (p *JSONPrinter) print(data JSONData) {
	if err := p.encoder.Encode(data); err != nil {
		fmt.Fprintf(os.Stderr, "encode JSON: %v\n", err)
	}
}

// PrintStart prints the initial message before doing probes.
func (p *JSONPrinter) PrintStart(t pingers.Target) {
	destIsIP := t.DestIsIP()
	p.print(JSONData{
		Type:     startEvent,
		Message:  startMessage(t),
		Hostname: t.Host(),
		IPAddr:   t.IP().String(),
		Port:     t.Port(),
		DestIsIP: &destIsIP,
	})
}

// PrintProbe prints a probe event.
func (p *JSONPrinter) PrintProbe(o pingers.Outcome) {
	if skipProbe(o, p.opt) {
		return
	}

	success := o.Success()
	data := JSONData{
		Type:     probeEvent,
		Success:  &success,
		Status:   string(o.Status),
		Message:  probeMessage(o, options{}),
		Hostname: o.Target.Host(),
		IPAddr:   o.Target.IP().String(),
		Port:     o.Target.Port(),
		Seq:      o.Seq,
		Reason:   o.Reason(),
	}

	if success {
		data.Latency = statistics.NanoToMillisecond(o.Latency.Nanoseconds())
		if p.opt.ShowSourceAddress && o.LocalAddr != nil {
			data.SourceAddr = o.LocalAddr.String()
		}
	}

	if p.opt.ShowTimestamp && !o.Time.IsZero() {
		data.Timestamp = o.Time.Format(time.DateTime)
	}

	p.print(data)
}

// PrintStatistics prints the tally of the session.
func (p *JSONPrinter) PrintStatistics(s *statistics.Summary) {
	total, successful, failed := s.Total, s.Successful, s.Failed

	data := JSONData{
		Type:                  statisticsEvent,
		Message:               statisticsHeader(s),
		Hostname:              s.Hostname,
		IPAddr:                s.IP.String(),
		Port:                  s.Port,
		Total:                 &total,
		Successful:            &successful,
		Failed:                &failed,
		StartTimestamp:        s.StartTimeFormatted(),
		LastSuccessfulProbe:   formatProbeTime(s.LastSuccessfulProbe, ""),
		LastUnsuccessfulProbe: formatProbeTime(s.LastUnsuccessfulProbe, ""),
		TotalDuration:         fmt.Sprintf("%.3f", s.Duration().Seconds()),
	}

	if !s.EndTime.IsZero() {
		data.EndTimestamp = s.EndTimeFormatted()
	}

	if s.RTTResults.HasResults {
		data.LatencyMin = fmt.Sprintf("%.3f", s.RTTResults.Min)
		data.LatencyAvg = fmt.Sprintf("%.3f", s.RTTResults.Average)
		data.LatencyMax = fmt.Sprintf("%.3f", s.RTTResults.Max)
	}

	p.print(data)
}

// PrintError prints an error event.
func (p *JSONPrinter) PrintError(format string, args ...any) {
	p.print(JSONData{
		Type:    errorEvent,
		Message: fmt.Sprintf(format, args...),
	})
}

// Done is a no-op; the JSON printer holds no resources.
func (p *JSONPrinter) Done() {}
