package printers

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode"

	"github.com/tcp-ping/tcpping/option"
	"github.com/tcp-ping/tcpping/pingers"
	"github.com/tcp-ping/tcpping/statistics"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"
)

const (
	eventTypeProbe      = "probe"
	eventTypeStatistics = "statistics"
)

const (
	dataTableSchema = `CREATE TABLE IF NOT EXISTS %s (
    id INTEGER PRIMARY KEY,
    event_type TEXT NOT NULL, -- probe or statistics
    timestamp DATETIME,
    ip_address TEXT,
    source_addr TEXT,
    hostname TEXT,
    port INTEGER,

    seq INTEGER,
    status TEXT,
    latency REAL,
    reason TEXT,

    latency_min REAL,
    latency_avg REAL,
    latency_max REAL,

    total_duration TEXT,
    start_time DATETIME,
    end_time DATETIME,

    never_succeed_probe INTEGER, -- value will be 1 if a probe never succeeded
    never_failed_probe INTEGER, -- value will be 1 if a probe never failed
    last_successful_probe DATETIME,
    last_unsuccessful_probe DATETIME,

    total_probes INTEGER,
    total_successful_probes INTEGER,
    total_unsuccessful_probes INTEGER
	);`

	probeSaveSchema = `INSERT INTO %s (
	event_type,
	timestamp,
	ip_address,
	source_addr,
	hostname,
	port,
	seq,
	status,
	latency,
	reason) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	// SQL statement for inserting statistics into the table
	statSaveSchema = `INSERT INTO %s (
	event_type,
	timestamp,
	ip_address,
	hostname,
	port,
	total_probes,
	total_successful_probes,
	total_unsuccessful_probes,
	never_succeed_probe,
	never_failed_probe,
	last_successful_probe,
	last_unsuccessful_probe,
	latency_min,
	latency_avg,
	latency_max,
	start_time,
	end_time,
	total_duration) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`
)

// DatabasePrinter represents a SQLite database connection for storing tcpping results.
type DatabasePrinter struct {
	Conn      *sqlite.Conn
	DbPath    string
	TableName string
	out       io.Writer
	opt       options
}

type DatabasePrinterOption = option.Option[DatabasePrinter]

func (p *DatabasePrinter) options() *options {
	return &p.opt
}

// NewDatabasePrinter opens (or creates) the database at dbPath and creates
// a table for this run, named after the target, the port and the current time.
func NewDatabasePrinter(target, port, dbPath string, opts ...DatabasePrinterOption) (*DatabasePrinter, error) {
	filename := addDbExtension(dbPath)

	conn, err := sqlite.OpenConn(filename, sqlite.OpenCreate, sqlite.OpenReadWrite)
	if err != nil {
		return nil, fmt.Errorf("create database %q: %w", filename, err)
	}

	tableName := sanitizeTableName(target, port, time.Now())

	err = sqlitex.Execute(conn, fmt.Sprintf(dataTableSchema, tableName), &sqlitex.ExecOptions{})
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("create data table %s: %w", tableName, err)
	}

	p := &DatabasePrinter{
		Conn:      conn,
		DbPath:    filename,
		TableName: tableName,
		out:       os.Stdout,
	}
	option.Apply(p, opts...)

	return p, nil
}

func addDbExtension(filename string) string {
	if strings.HasSuffix(filename, ".db") {
		return filename
	}

	return filename + ".db"
}

// sanitizeTableName returns the table name formatted as
// "example_com_port__year_month_day_hour_minute_sec".
// Anything but letters, digits and underscores becomes an underscore,
// and the name never starts with a digit.
func sanitizeTableName(hostname, port string, at time.Time) string {
	clean := func(r rune) rune {
		if r == '_' || r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return r
		}
		return '_'
	}

	tableName := fmt.Sprintf("%s_%s__%s",
		strings.Map(clean, hostname),
		strings.Map(clean, port),
		strings.Map(clean, at.Format(time.DateTime)),
	)

	if unicode.IsDigit(rune(tableName[0])) {
		tableName = "_" + tableName
	}

	return tableName
}

// PrintStart tells the user where the results are saved.
func (p *DatabasePrinter) PrintStart(t pingers.Target) {
	fmt.Fprintf(p.out, "%s - saving results to: %s\n", startMessage(t), p.DbPath)
}

// PrintProbe stores one row per probe.
func (p *DatabasePrinter) PrintProbe(o pingers.Outcome) {
	if skipProbe(o, p.opt) {
		return
	}

	var latency any
	var source string

	if o.Success() {
		latency = float64(statistics.NanoToMillisecond(o.Latency.Nanoseconds()))
		if p.opt.ShowSourceAddress && o.LocalAddr != nil {
			source = o.LocalAddr.String()
		}
	}

	timestamp := o.Time
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	args := []any{
		eventTypeProbe,
		timestamp.Format(time.DateTime),
		o.Target.IP().String(),
		source,
		o.Target.Host(),
		o.Target.Port(),
		o.Seq,
		string(o.Status),
		latency,
		o.Reason(),
	}

	err := sqlitex.Execute(p.Conn, fmt.Sprintf(probeSaveSchema, p.TableName), &sqlitex.ExecOptions{Args: args})
	if err != nil {
		p.PrintError("Error while writing probe %d to the database %q: %s", o.Seq, p.DbPath, err)
	}
}

// saveStats saves stats to the database with proper formatting
func (p *DatabasePrinter) saveStats(s *statistics.Summary) error {
	// A zero time means the event never happened; the column is left empty
	// instead of holding "0001-01-01 00:00:00".
	lastSuccessfulProbe := formatProbeTime(s.LastSuccessfulProbe, "")
	lastUnsuccessfulProbe := formatProbeTime(s.LastUnsuccessfulProbe, "")

	var latencyMin, latencyAvg, latencyMax any
	if s.RTTResults.HasResults {
		latencyMin = float64(s.RTTResults.Min)
		latencyAvg = float64(s.RTTResults.Average)
		latencyMax = float64(s.RTTResults.Max)
	}

	endTime := ""
	if !s.EndTime.IsZero() {
		endTime = s.EndTimeFormatted()
	}

	args := []any{
		eventTypeStatistics,
		time.Now().Format(time.DateTime),
		s.IP.String(),
		s.Hostname,
		s.Port,
		s.Total,
		s.Successful,
		s.Failed,
		s.LastSuccessfulProbe.IsZero(),
		s.LastUnsuccessfulProbe.IsZero(),
		lastSuccessfulProbe,
		lastUnsuccessfulProbe,
		latencyMin,
		latencyAvg,
		latencyMax,
		s.StartTimeFormatted(),
		endTime,
		s.Duration().String(),
	}

	return sqlitex.Execute(
		p.Conn,
		fmt.Sprintf(statSaveSchema, p.TableName),
		&sqlitex.ExecOptions{Args: args},
	)
}

// PrintStatistics saves the tally to the database.
func (p *DatabasePrinter) PrintStatistics(s *statistics.Summary) {
	if err := p.saveStats(s); err != nil {
		p.PrintError("Error while writing stats to the database %q: %s", p.DbPath, err)
		return
	}

	fmt.Fprintf(p.out, "\nStatistics for %q have been saved to %q in the table %q\n", s.Hostname, p.DbPath, p.TableName)
}

// PrintError prints an error message to stderr.
func (p *DatabasePrinter) PrintError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
}

// Done closes the database connection.
func (p *DatabasePrinter) Done() {
	if p.Conn == nil {
		return
	}

	if err := p.Conn.Close(); err != nil {
		p.PrintError("Error while closing the database %q: %s", p.DbPath, err)
	}
	p.Conn = nil
}
