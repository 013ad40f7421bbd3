package pipeline

import "time"

// Outcome is one dispatched chunk's result, as handed to the journal sink.
type Outcome struct {
	Time      time.Time `json:"time"`
	Coords    []Coord   `json:"coords"`
	OK        bool      `json:"ok"`
	Ref       string    `json:"ref,omitempty"`
	Err       string    `json:"err,omitempty"`
	ElapsedMs int64     `json:"elapsed_ms"`
}

// OutcomeSink receives one record per dispatched chunk. Write errors are
// logged, never fatal to the pipeline.
type OutcomeSink interface {
	WriteOutcome(o Outcome) error
}
