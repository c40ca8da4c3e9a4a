package tcpping

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tcp-ping/tcpping/option"
	"github.com/tcp-ping/tcpping/pingers"
	"github.com/tcp-ping/tcpping/statistics"
)

var (
	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrAlreadyStarted = errors.New("prober already started")
)

// Unbounded is the Quantity that keeps probing until Stop is called.
const Unbounded = -1

const (
	DefaultQuantity = 4
	DefaultTimeout  = 3 * time.Second
	DefaultDelay    = 1 * time.Second
)

// Config controls how many probes are sent and how they are paced.
type Config struct {
	Quantity int           // number of probes, or Unbounded
	Timeout  time.Duration // per-attempt connect timeout
	Delay    time.Duration // pause between the end of one attempt and the start of the next
}

// DefaultConfig returns four probes, a three second timeout and a one second delay.
func DefaultConfig() Config {
	return Config{
		Quantity: DefaultQuantity,
		Timeout:  DefaultTimeout,
		Delay:    DefaultDelay,
	}
}

// Bounded reports whether the run stops by itself after Quantity probes.
func (c Config) Bounded() bool {
	return c.Quantity != Unbounded
}

// Validate checks the ranges of every field.
func (c Config) Validate() error {
	if c.Quantity == 0 || c.Quantity < Unbounded {
		return fmt.Errorf("%w: probe count must be positive or %d for unbounded, got %d",
			ErrInvalidConfig, Unbounded, c.Quantity)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("%w: timeout must be positive, got %v", ErrInvalidConfig, c.Timeout)
	}
	if c.Delay < 0 {
		return fmt.Errorf("%w: delay must not be negative, got %v", ErrInvalidConfig, c.Delay)
	}
	return nil
}

// State is the lifecycle stage of a Prober.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Prober runs the probe loop in the background and keeps its statistics.
// Stats and Stop may be called from any goroutine while it runs.
type Prober struct {
	pinger Pinger
	sink   Sink
	cfg    Config
	now    func() time.Time

	mu       sync.Mutex
	state    State
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	counters statistics.Counters
}

type ProberOption = option.Option[Prober]

// WithSink configures where probe outcomes are sent.
func WithSink(sink Sink) ProberOption {
	return func(p *Prober) {
		p.sink = sink
	}
}

// WithClock replaces the time source used for the run's start and end times.
func WithClock(now func() time.Time) ProberOption {
	return func(p *Prober) {
		p.now = now
	}
}

type discardSink struct{}

func (discardSink) PrintProbe(pingers.Outcome) {}

// NewProber creates an idle prober for the pinger's target.
func NewProber(p Pinger, cfg Config, opts ...ProberOption) (*Prober, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: pinger is required", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pr := &Prober{
		pinger: p,
		sink:   discardSink{},
		cfg:    cfg,
		now:    time.Now,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	option.Apply(pr, opts...)

	if pr.sink == nil {
		pr.sink = discardSink{}
	}

	return pr, nil
}

// Config returns the configuration the prober was built with.
func (p *Prober) Config() Config {
	return p.cfg
}

// Start launches the probe loop. It returns ErrAlreadyStarted, and does nothing,
// if the prober is not idle. Cancelling ctx has the same effect as Stop.
func (p *Prober) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.state != StateIdle {
		state := p.state
		p.mu.Unlock()
		return fmt.Errorf("%w: prober is %s", ErrAlreadyStarted, state)
	}
	p.state = StateRunning
	p.mu.Unlock()

	p.counters.MarkStart(p.now())

	go p.run(ctx)

	return nil
}

// Stop asks the loop to finish. An attempt that is already connecting is
// allowed to complete and is counted; a pending delay is cut short.
// Stop never blocks and may be called any number of times.
func (p *Prober) Stop() {
	p.stopOnce.Do(func() { close(p.stop) })

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == StateIdle {
		p.state = StateStopped
		close(p.done)
	}
}

// Done is closed once the prober reaches StateStopped.
func (p *Prober) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the prober stops and returns the final summary.
func (p *Prober) Wait() statistics.Summary {
	<-p.done
	return p.Summary()
}

// Probe starts the loop and waits for it to finish, either because the
// probe count was reached or because ctx was cancelled.
func (p *Prober) Probe(ctx context.Context) (statistics.Summary, error) {
	if err := p.Start(ctx); err != nil {
		return statistics.Summary{}, err
	}
	return p.Wait(), nil
}

// State returns the current lifecycle stage.
func (p *Prober) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.state
}

// Stats returns a consistent snapshot of the counters.
func (p *Prober) Stats() statistics.Snapshot {
	return p.counters.Snapshot()
}

// Summary returns the counters along with target, timing and RTT details.
func (p *Prober) Summary() statistics.Summary {
	s := p.counters.Summary()

	target := p.pinger.Target()
	s.Hostname = target.Host()
	s.IP = target.IP()
	s.Port = target.Port()
	s.DestIsIP = target.DestIsIP()

	return s
}

func (p *Prober) run(ctx context.Context) {
	defer p.finish()

	for attempt := 1; !p.cfg.Bounded() || attempt <= p.cfg.Quantity; attempt++ {
		if p.stopRequested(ctx) {
			return
		}

		outcome := p.attempt(ctx)
		outcome.Seq = attempt

		p.counters.Record(outcome.Success(), outcome.Latency, outcome.Time)
		p.sink.PrintProbe(outcome)

		if p.cfg.Bounded() && attempt == p.cfg.Quantity {
			return
		}

		if !p.sleep(ctx) {
			return
		}
	}
}

// attempt runs one connect bounded by the configured timeout. The dial
// context is detached from ctx so that a stop never aborts a connect midway.
func (p *Prober) attempt(ctx context.Context) pingers.Outcome {
	dialCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.cfg.Timeout)
	defer cancel()

	return p.pinger.Ping(dialCtx)
}

func (p *Prober) stopRequested(ctx context.Context) bool {
	select {
	case <-p.stop:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// sleep waits for the inter-probe delay and returns false if a stop arrived first.
func (p *Prober) sleep(ctx context.Context) bool {
	if p.cfg.Delay <= 0 {
		return true
	}

	timer := time.NewTimer(p.cfg.Delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-p.stop:
		return false
	case <-ctx.Done():
		return false
	}
}

func (p *Prober) finish() {
	p.counters.MarkEnd(p.now())

	p.mu.Lock()
	p.state = StateStopped
	p.mu.Unlock()

	close(p.done)
}
