package rawpipe

import (
	"fmt"
	"strings"
	"time"
)

// Stage names recorded by the Pipeline, in execution order.
const (
	StageDecode   = "decode_raw"
	StageValidate = "validate_dimensions"
	StageDebayer  = "debayer"
	StageEncode   = "encode_tiff"
)

// StageTiming is one recorded (stage, wall-clock duration) pair.
type StageTiming struct {
	Stage    string
	Duration time.Duration
}

// Timings collects per-stage durations for one conversion, in the order
// the stages ran. Recording never affects control flow or results; a
// stage that was skipped (validation disabled, debayering off) simply
// does not appear.
type Timings struct {
	stages []StageTiming
	index  map[string]int
}

func (t *Timings) add(stage string, d time.Duration) {
	if t.index == nil {
		t.index = make(map[string]int)
	}
	t.index[stage] = len(t.stages)
	t.stages = append(t.stages, StageTiming{Stage: stage, Duration: d})
}

// Stages returns the recorded stages in execution order.
func (t *Timings) Stages() []StageTiming {
	out := make([]StageTiming, len(t.stages))
	copy(out, t.stages)
	return out
}

// Get returns the duration recorded for stage and whether it ran.
func (t *Timings) Get(stage string) (time.Duration, bool) {
	i, ok := t.index[stage]
	if !ok {
		return 0, false
	}
	return t.stages[i].Duration, true
}

// Total returns the sum of all recorded stage durations.
func (t *Timings) Total() time.Duration {
	var total time.Duration
	for _, s := range t.stages {
		total += s.Duration
	}
	return total
}

// String renders a one-line-per-stage summary ending with the total.
func (t *Timings) String() string {
	var b strings.Builder
	for _, s := range t.stages {
		fmt.Fprintf(&b, "%-20s %v\n", s.Stage, s.Duration)
	}
	fmt.Fprintf(&b, "%-20s %v", "total", t.Total())
	return b.String()
}
