package stats

import (
	"context"
	"sync"
	"time"
)

// rateSampleCap bounds the rolling window of rate samples.
const rateSampleCap = 30

// RateMonitor derives a smoothed events/sec signal from feed arrival timing.
// Every event marks a reference timestamp; an independent sampling tick turns
// the elapsed time since that reference into one instantaneous rate sample
// and resets the reference whether or not a sample was produced. The signal
// is observability only, never a control input.
type RateMonitor struct {
	mu      sync.Mutex
	last    time.Time
	samples []float64

	now func() time.Time
}

func NewRateMonitor() *RateMonitor {
	return &RateMonitor{now: time.Now}
}

// Mark records the arrival of one feed event.
func (m *RateMonitor) Mark() {
	m.mu.Lock()
	m.last = m.now()
	m.mu.Unlock()
}

// Sample takes one rate sample. Called once per sampling interval.
func (m *RateMonitor) Sample() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if !m.last.IsZero() {
		if d := now.Sub(m.last); d > 0 {
			ms := float64(d) / float64(time.Millisecond)
			m.samples = append(m.samples, 1000/ms)
			if len(m.samples) > rateSampleCap {
				m.samples = m.samples[len(m.samples)-rateSampleCap:]
			}
		}
	}
	m.last = now
}

// Run samples once per interval until ctx is done.
func (m *RateMonitor) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.Sample()
		}
	}
}

// Samples returns a copy of the current window, oldest first.
func (m *RateMonitor) Samples() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]float64, len(m.samples))
	copy(out, m.samples)
	return out
}
