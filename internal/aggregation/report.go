package aggregation

import (
	"errors"

	"github.com/freshtally/freshtally/internal/core/aggregation"
)

// Outcome summarizes what a change did to the aggregated view.
type Outcome string

const (
	OutcomeRecomputed Outcome = "recomputed"
	OutcomeSkipped    Outcome = "skipped"
	OutcomePartial    Outcome = "partial"
	OutcomeFailed     Outcome = "failed"
)

// Trigger names the kind of change that started a recomputation.
type Trigger string

const (
	TriggerMaster      Trigger = "master"
	TriggerBatch       Trigger = "batch"
	TriggerTransaction Trigger = "transaction"
	TriggerRefresh     Trigger = "refresh"
)

// KeyResult is the outcome of one (store, product) recomputation that did not succeed.
type KeyResult struct {
	aggregation.Key
	Error string `json:"error"`

	err error
}

// Err returns the underlying error.
func (k KeyResult) Err() error {
	return k.err
}

func newKeyResult(key aggregation.Key, err error) KeyResult {
	return KeyResult{Key: key, Error: err.Error(), err: err}
}

// Report describes the handling of one change event.
type Report struct {
	Trigger    Trigger           `json:"trigger"`
	Outcome    Outcome           `json:"outcome"`
	Reason     string            `json:"reason,omitempty"`
	Recomputed []aggregation.Key `json:"recomputed,omitempty"`
	Skipped    []KeyResult       `json:"skipped,omitempty"`
	Failed     []KeyResult       `json:"failed,omitempty"`
}

func skipped(trigger Trigger, reason error) *Report {
	return &Report{Trigger: trigger, Outcome: OutcomeSkipped, Reason: reason.Error()}
}

// Err joins the errors of every failed key, or nil.
func (r *Report) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, f.err)
	}
	return errors.Join(errs...)
}

func (r *Report) settle() {
	switch {
	case len(r.Failed) > 0 && len(r.Recomputed) > 0:
		r.Outcome = OutcomePartial
	case len(r.Failed) > 0:
		r.Outcome = OutcomeFailed
	case len(r.Recomputed) > 0:
		r.Outcome = OutcomeRecomputed
	default:
		r.Outcome = OutcomeSkipped
	}
}
