package aggregation

import "time"

// Recorder receives aggregation measurements. Implementations must be safe
// for concurrent use.
type Recorder interface {
	RecordRecompute(trigger Trigger, outcome Outcome, elapsed time.Duration)
	RecordFanout(trigger Trigger, stores int)
	RecordSkip(trigger Trigger, reason string)
}

type noopRecorder struct{}

func (noopRecorder) RecordRecompute(Trigger, Outcome, time.Duration) {}
func (noopRecorder) RecordFanout(Trigger, int)                       {}
func (noopRecorder) RecordSkip(Trigger, string)                      {}
