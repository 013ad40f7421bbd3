package pipeline

import (
	"context"
	"time"
)

// drain atomically takes the whole pending queue and schedules one timer per
// chunk, spaced executionDelay apart from drain time. Chunks do not wait for
// each other's results; each timer is independently cancellable so Stop can
// drop everything not yet fired.
func (p *Pipeline) drain() {
	p.mu.Lock()
	batch := p.pending
	p.pending = nil
	size := p.chunkSize
	delay := p.execDelay
	p.mu.Unlock()

	if len(batch) == 0 {
		return
	}
	for i, ch := range chunks(batch, size) {
		p.scheduleChunk(ch, time.Duration(i)*delay)
	}
}

// chunks splits the drained batch into contiguous groups of at most size,
// preserving order.
func chunks(batch []Coord, size int) [][]Coord {
	if size < 1 {
		size = 1
	}
	out := make([][]Coord, 0, (len(batch)+size-1)/size)
	for len(batch) > size {
		out = append(out, batch[:size:size])
		batch = batch[size:]
	}
	if len(batch) > 0 {
		out = append(out, batch)
	}
	return out
}

func (p *Pipeline) scheduleChunk(ch []Coord, after time.Duration) {
	p.scheduleTimer(after, func() { p.dispatch(ch) })
}

// scheduleTimer registers a cancellable one-shot. Everything the scheduler
// defers (drains and chunk dispatches alike) goes through here so Stop can
// sweep the whole set.
func (p *Pipeline) scheduleTimer(after time.Duration, fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	id := p.nextTim
	p.nextTim++
	p.timers[id] = time.AfterFunc(after, func() {
		p.mu.Lock()
		delete(p.timers, id)
		p.mu.Unlock()
		fn()
	})
}

// dispatch fires one chunk as a single executor call. The chunk's
// coordinates are committed regardless of outcome: they never return to the
// pending queue, and only a success moves them to the completed view. Runs
// on the timer goroutine; a Stop after the timer fired lets the call finish
// and its result still lands in the metrics.
func (p *Pipeline) dispatch(ch []Coord) {
	claims := make([]Claim, len(ch))
	for i, at := range ch {
		claims[i] = Claim{X: at.X, Y: at.Y, Team: p.team}
	}

	start := time.Now()
	ref, err := p.exec.Execute(context.Background(), claims)
	elapsed := time.Since(start)

	if err != nil {
		p.agg.RecordChunkFailure(len(ch))
		p.log.Printf("chunk of %d failed after %v: %v", len(ch), elapsed, err)
		p.writeOutcome(Outcome{Time: start, Coords: ch, OK: false, Err: err.Error(), ElapsedMs: elapsed.Milliseconds()})
		return
	}

	p.agg.RecordChunkSuccess(len(ch), elapsed)
	p.mu.Lock()
	for _, at := range ch {
		delete(p.pendingView, at)
		p.completed[at] = struct{}{}
	}
	p.mu.Unlock()
	p.writeOutcome(Outcome{Time: start, Coords: ch, OK: true, Ref: ref, ElapsedMs: elapsed.Milliseconds()})
}

func (p *Pipeline) writeOutcome(o Outcome) {
	if p.sink == nil {
		return
	}
	if err := p.sink.WriteOutcome(o); err != nil {
		p.log.Printf("journal outcome: %v", err)
	}
}
