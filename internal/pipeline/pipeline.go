// Package pipeline wires the flip bot's decision/dispatch loop: feed events
// are decoded and classified, unowned cells pass probabilistic admission into
// a pending queue, and the queue is drained into bounded chunks fired at the
// executor on independent timers. Outcomes land in the stats aggregator.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"flipfield.gg/internal/cell"
	"flipfield.gg/internal/keyindex"
	"flipfield.gg/internal/stats"
	"flipfield.gg/internal/tuning"
)

// Event is one cell state change from the update feed. X/Y are present only
// when the feed resolved coordinates itself; otherwise Key locates the cell.
type Event struct {
	Key   string
	Value string
	X, Y  *int
}

// Feed delivers cell state changes for one grid. The channel closes when the
// subscription ends; cancellation goes through ctx.
type Feed interface {
	Subscribe(ctx context.Context) (<-chan Event, error)
}

// Claim is one cell submitted to the executor.
type Claim struct {
	X, Y int
	Team uint8
}

// Executor submits one chunk of claims as a single atomic action and returns
// an action reference. Exactly one call per chunk; the pipeline never retries.
type Executor interface {
	Execute(ctx context.Context, claims []Claim) (string, error)
}

// Coord addresses one grid cell.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// ErrConfig marks a rejected parameter change. The prior value stays in
// effect.
var ErrConfig = errors.New("configuration out of range")

// ErrPipelineState marks start/stop misuse.
var ErrPipelineState = errors.New("pipeline state")

// Options configures a Pipeline. Feed, Executor, Keys and Identity are
// required; Sampler and Sink are optional.
type Options struct {
	Feed     Feed
	Executor Executor
	Keys     *keyindex.Table

	Identity string
	Team     uint8

	ChunkSize      int
	ExecutionDelay time.Duration
	SampleFactor   float64
	RateInterval   time.Duration

	Logger  *log.Logger
	Sampler Sampler
	Sink    OutcomeSink
}

type Pipeline struct {
	feed Feed
	exec Executor
	keys *keyindex.Table
	agg  *stats.Aggregator
	rate *stats.RateMonitor
	log  *log.Logger
	sink OutcomeSink

	identity string
	team     uint8

	rateInterval time.Duration

	mu           sync.Mutex
	chunkSize    int
	execDelay    time.Duration
	sampleFactor float64
	sampler      Sampler

	pending     []Coord
	pendingView map[Coord]struct{}
	completed   map[Coord]struct{}

	timers  map[uint64]*time.Timer
	nextTim uint64

	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func New(o Options) (*Pipeline, error) {
	if o.Feed == nil || o.Executor == nil {
		return nil, fmt.Errorf("pipeline: feed and executor are required")
	}
	if o.Keys == nil {
		return nil, fmt.Errorf("pipeline: key table is required")
	}
	id := cell.NormalizeIdentity(o.Identity)
	if id == "" {
		return nil, fmt.Errorf("pipeline: identity is required")
	}
	if err := checkChunkSize(o.ChunkSize); err != nil {
		return nil, err
	}
	if err := checkExecutionDelay(o.ExecutionDelay); err != nil {
		return nil, err
	}
	if err := checkSampleFactor(o.SampleFactor); err != nil {
		return nil, err
	}

	logger := o.Logger
	if logger == nil {
		logger = log.Default()
	}
	sampler := o.Sampler
	if sampler == nil {
		sampler = newRandSampler()
	}
	rateInterval := o.RateInterval
	if rateInterval <= 0 {
		rateInterval = time.Second
	}

	return &Pipeline{
		feed:         o.Feed,
		exec:         o.Executor,
		keys:         o.Keys,
		agg:          stats.NewAggregator(),
		rate:         stats.NewRateMonitor(),
		log:          logger,
		sink:         o.Sink,
		identity:     id,
		team:         o.Team,
		rateInterval: rateInterval,
		chunkSize:    o.ChunkSize,
		execDelay:    o.ExecutionDelay,
		sampleFactor: o.SampleFactor,
		sampler:      sampler,
		pendingView:  make(map[Coord]struct{}),
		completed:    make(map[Coord]struct{}),
		timers:       make(map[uint64]*time.Timer),
	}, nil
}

// Start subscribes to the feed and runs the event loop until Stop or ctx
// cancellation.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("%w: already started", ErrPipelineState)
	}
	p.running = true
	p.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	events, err := p.feed.Subscribe(ctx)
	if err != nil {
		cancel()
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
		return fmt.Errorf("subscribe: %w", err)
	}

	done := make(chan struct{})
	p.mu.Lock()
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	go p.rate.Run(ctx, p.rateInterval)
	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				p.handleEvent(ev)
			}
		}
	}()
	return nil
}

// Stop unsubscribes from the feed and cancels every chunk dispatch that has
// not fired yet. Executor calls already in flight run to completion and
// their results still land in the metrics.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	cancel := p.cancel
	done := p.done
	p.cancel = nil
	p.done = nil
	for id, t := range p.timers {
		t.Stop()
		delete(p.timers, id)
	}
	p.mu.Unlock()

	cancel()
	<-done
}

// SetChunkSize changes the maximum chunk size for future drain cycles.
func (p *Pipeline) SetChunkSize(n int) error {
	if err := checkChunkSize(n); err != nil {
		return err
	}
	p.mu.Lock()
	p.chunkSize = n
	p.mu.Unlock()
	return nil
}

// SetExecutionDelay changes the inter-chunk cadence for future drain cycles.
func (p *Pipeline) SetExecutionDelay(d time.Duration) error {
	if err := checkExecutionDelay(d); err != nil {
		return err
	}
	p.mu.Lock()
	p.execDelay = d
	p.mu.Unlock()
	return nil
}

// SetSampleFactor changes the admission probability for future events.
func (p *Pipeline) SetSampleFactor(f float64) error {
	if err := checkSampleFactor(f); err != nil {
		return err
	}
	p.mu.Lock()
	p.sampleFactor = f
	p.mu.Unlock()
	return nil
}

// Metrics returns a read-only snapshot of the outcome aggregate.
func (p *Pipeline) Metrics() stats.Snapshot { return p.agg.Snapshot() }

// RateSamples returns the current events/sec window, oldest first.
func (p *Pipeline) RateSamples() []float64 { return p.rate.Samples() }

// Pending returns the coordinates admitted but not yet confirmed flipped.
func (p *Pipeline) Pending() []Coord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return sortedCoords(p.pendingView)
}

// Completed returns the coordinates confirmed flipped by us.
func (p *Pipeline) Completed() []Coord {
	p.mu.Lock()
	defer p.mu.Unlock()
	return sortedCoords(p.completed)
}

func sortedCoords(set map[Coord]struct{}) []Coord {
	out := make([]Coord, 0, len(set))
	for at := range set {
		out = append(out, at)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})
	return out
}

func checkChunkSize(n int) error {
	if n < tuning.MinChunkSize || n > tuning.MaxChunkSize {
		return fmt.Errorf("%w: chunk size %d not in [%d,%d]", ErrConfig, n, tuning.MinChunkSize, tuning.MaxChunkSize)
	}
	return nil
}

func checkExecutionDelay(d time.Duration) error {
	min := tuning.MinExecutionDelayMs * time.Millisecond
	max := tuning.MaxExecutionDelayMs * time.Millisecond
	if d < min || d > max {
		return fmt.Errorf("%w: execution delay %v not in [%v,%v]", ErrConfig, d, min, max)
	}
	return nil
}

func checkSampleFactor(f float64) error {
	if f < 0 || f > 1 {
		return fmt.Errorf("%w: sample factor %v not in [0,1]", ErrConfig, f)
	}
	return nil
}
