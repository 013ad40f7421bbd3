// Package stats owns the pipeline's process-wide metrics: flip outcome
// counters, the rolling outcome history, per-powerup statistics and the feed
// arrival-rate window. All state lives behind one mutex; the event loop and
// the chunk dispatch goroutines are the only writers.
package stats

import (
	"sync"
	"time"

	"flipfield.gg/internal/cell"
)

const (
	// historyCap bounds the rolling outcome history.
	historyCap = 100
	// powerupValueCap bounds each kind's observed-magnitude list. The window
	// can run indefinitely, so the list gets the same ring policy as history.
	powerupValueCap = 100
)

// Record is one observed outcome: a dispatched chunk item landing, or a
// self-owned cell announcing itself on the feed (those carry powerup info).
type Record struct {
	Time         time.Time        `json:"time"`
	Success      bool             `json:"success"`
	Powerup      cell.PowerupKind `json:"powerup,omitempty"`
	PowerupValue uint8            `json:"powerup_value,omitempty"`
}

// PowerupStat accumulates sightings of one powerup kind on self-owned cells.
type PowerupStat struct {
	Count  int
	Values []uint8
}

// Snapshot is a read-only copy of the aggregate, safe to hand to callers.
type Snapshot struct {
	Total         int
	Succeeded     int
	Failed        int
	AvgResponseMs float64
	DecodeErrors  int
	History       []Record
	Powerups      map[cell.PowerupKind]PowerupStat
}

// Aggregator is the single owner of outcome metrics. Counters are cumulative
// for the process lifetime; history and powerup values are bounded rings.
type Aggregator struct {
	mu           sync.Mutex
	total        int
	succeeded    int
	failed       int
	avgMs        float64
	decodeErrors int
	history      []Record
	powerups     map[cell.PowerupKind]*PowerupStat

	now func() time.Time
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		powerups: make(map[cell.PowerupKind]*PowerupStat),
		now:      time.Now,
	}
}

// RecordChunkSuccess accounts one successful chunk of n items that took
// elapsed from submission to result. The running mean treats every item in
// the chunk as having taken the chunk's elapsed time.
func (a *Aggregator) RecordChunkSuccess(n int, elapsed time.Duration) {
	if n <= 0 {
		return
	}
	elapsedMs := float64(elapsed) / float64(time.Millisecond)
	if elapsedMs < 0 {
		elapsedMs = 0
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	newTotal := a.total + n
	a.avgMs = (a.avgMs*float64(a.total) + elapsedMs*float64(n)) / float64(newTotal)
	a.total = newTotal
	a.succeeded += n

	at := a.now()
	for i := 0; i < n; i++ {
		a.pushLocked(Record{Time: at, Success: true})
	}
}

// RecordChunkFailure accounts one failed chunk of n items. The response-time
// mean is untouched; failures only move the counters and the history.
func (a *Aggregator) RecordChunkFailure(n int) {
	if n <= 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	a.total += n
	a.failed += n

	at := a.now()
	for i := 0; i < n; i++ {
		a.pushLocked(Record{Time: at, Success: false})
	}
}

// RecordOwn accounts a feed update for a cell we already own: a success
// record with the cell's powerup attributes, plus per-kind statistics when a
// powerup is present.
func (a *Aggregator) RecordOwn(kind cell.PowerupKind, value uint8) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.pushLocked(Record{Time: a.now(), Success: true, Powerup: kind, PowerupValue: value})

	if kind == cell.PowerupNone {
		return
	}
	st := a.powerups[kind]
	if st == nil {
		st = &PowerupStat{}
		a.powerups[kind] = st
	}
	st.Count++
	st.Values = append(st.Values, value)
	if len(st.Values) > powerupValueCap {
		st.Values = st.Values[len(st.Values)-powerupValueCap:]
	}
}

// RecordDecodeError counts a dropped, undecodable feed event.
func (a *Aggregator) RecordDecodeError() {
	a.mu.Lock()
	a.decodeErrors++
	a.mu.Unlock()
}

func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := Snapshot{
		Total:         a.total,
		Succeeded:     a.succeeded,
		Failed:        a.failed,
		AvgResponseMs: a.avgMs,
		DecodeErrors:  a.decodeErrors,
		History:       make([]Record, len(a.history)),
		Powerups:      make(map[cell.PowerupKind]PowerupStat, len(a.powerups)),
	}
	copy(s.History, a.history)
	for k, st := range a.powerups {
		vals := make([]uint8, len(st.Values))
		copy(vals, st.Values)
		s.Powerups[k] = PowerupStat{Count: st.Count, Values: vals}
	}
	return s
}

func (a *Aggregator) pushLocked(r Record) {
	a.history = append(a.history, r)
	if len(a.history) > historyCap {
		a.history = a.history[len(a.history)-historyCap:]
	}
}
