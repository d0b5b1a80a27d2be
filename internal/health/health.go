// Package health tracks whether the configured relay node is reachable.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/five82/wakubase/internal/events"
	"github.com/five82/wakubase/internal/metrics"
	"github.com/five82/wakubase/internal/poll"
	"github.com/five82/wakubase/internal/settings"
)

// Status is the tri-state node health.
type Status int

const (
	Unhealthy Status = iota
	Checking
	Healthy
)

func (s Status) String() string {
	switch s {
	case Checking:
		return "checking"
	case Healthy:
		return "healthy"
	default:
		return "unhealthy"
	}
}

const (
	DefaultInterval = 5 * time.Second
	DefaultTimeout  = 5 * time.Second
)

// Prober performs a single health request.
type Prober interface {
	Health(ctx context.Context) error
}

// Settings is the slice of the settings store the poller reads.
type Settings interface {
	NodeType() settings.NodeType
	NodeURL() string
	OnDidChange(key settings.Key, fn func(any)) func()
}

// Options configure a Poller. Zero values use the defaults.
type Options struct {
	Interval time.Duration
	Timeout  time.Duration
	Metrics  *metrics.Metrics
}

// Poller probes the node on a fixed cadence and whenever the node settings
// change. Only the most recently started probe may settle the status.
type Poller struct {
	prober   Prober
	settings Settings
	interval time.Duration
	timeout  time.Duration
	metrics  *metrics.Metrics

	mu      sync.Mutex
	status  Status
	gen     uint64
	stopped bool

	listeners events.Emitter[struct{}, Status]

	cancel context.CancelFunc
	task   *poll.Task
	unsubs []func()
	probes sync.WaitGroup
}

// NewPoller builds a Poller. It starts Unhealthy and does nothing until
// Start or Check is called.
func NewPoller(prober Prober, source Settings, opts Options) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Poller{
		prober:   prober,
		settings: source,
		interval: opts.Interval,
		timeout:  opts.Timeout,
		metrics:  opts.Metrics,
	}
}

// Status returns the current status.
func (p *Poller) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// OnChange registers fn for status transitions.
func (p *Poller) OnChange(fn func(Status)) func() {
	return p.listeners.On(struct{}{}, fn)
}

// Start probes immediately, then every interval, and re-probes out of band
// when nodeUrl or nodeType change. Start must not be called twice.
func (p *Poller) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.mu.Lock()
	p.stopped = false
	p.mu.Unlock()

	reprobe := func(any) {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.stopped {
			return
		}
		p.probes.Add(1)
		go func() {
			defer p.probes.Done()
			p.Check(ctx)
		}()
	}
	p.unsubs = append(p.unsubs,
		p.settings.OnDidChange(settings.KeyNodeURL, reprobe),
		p.settings.OnDidChange(settings.KeyNodeType, reprobe),
	)

	p.task = poll.Start(ctx, poll.Options{Interval: p.interval, Immediate: true}, func(ctx context.Context) {
		p.Check(ctx)
	})
}

// Stop halts polling and waits for outstanding probes. Settings changes
// dispatched concurrently with Stop are ignored. Safe to call more than once.
func (p *Poller) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()

	for _, unsub := range p.unsubs {
		unsub()
	}
	p.unsubs = nil
	if p.cancel != nil {
		p.cancel()
	}
	p.task.Stop()
	p.probes.Wait()
}

// Check runs one probe and returns its outcome. The shared status only
// follows the outcome if no newer probe was started in the meantime.
func (p *Poller) Check(ctx context.Context) Status {
	if p.settings.NodeType() != settings.NodeFull {
		gen := p.begin(Unhealthy)
		p.settle(gen, Unhealthy)
		return Unhealthy
	}

	gen := p.begin(Checking)
	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	err := p.prober.Health(probeCtx)
	cancel()

	result := Healthy
	if err != nil {
		result = Unhealthy
		if ctx.Err() == nil {
			log.Warn().Err(err).Str("node_url", p.settings.NodeURL()).Msg("node health check failed")
		}
	}
	p.settle(gen, result)
	return result
}

// begin starts a new probe generation and moves to status.
func (p *Poller) begin(status Status) uint64 {
	p.mu.Lock()
	p.gen++
	gen := p.gen
	changed := p.status != status
	p.status = status
	p.mu.Unlock()

	p.publish(status, changed)
	return gen
}

// settle applies the outcome of probe gen unless a newer probe has begun.
func (p *Poller) settle(gen uint64, status Status) {
	p.mu.Lock()
	if p.gen != gen {
		p.mu.Unlock()
		return
	}
	changed := p.status != status
	p.status = status
	p.mu.Unlock()

	p.publish(status, changed)
}

func (p *Poller) publish(status Status, changed bool) {
	p.metrics.SetNodeHealth(int(status))
	if changed {
		p.listeners.Emit(struct{}{}, status)
	}
}
