package soundy

import "github.com/DragonFoxCollective/soundygo/internal/sequencer"

type (
	Timing     = sequencer.Timing
	Boundaries = sequencer.Boundaries
	Command    = sequencer.Command
)

const (
	TimingLoop = sequencer.TimingLoop
	TimingBeat = sequencer.TimingBeat
	TimingBar  = sequencer.TimingBar
)

// PlayOn starts a track on the next boundary of the given timing.
func PlayOn(t Timing) Command { return sequencer.Play(t) }

// StopOn silences a track on the next boundary of the given timing.
func StopOn(t Timing) Command { return sequencer.Stop(t) }

// QueueOn waits for a boundary of the given timing, then queues inner.
func QueueOn(t Timing, inner Command) Command { return sequencer.Then(t, inner) }

func ParseTiming(s string) (Timing, error) { return sequencer.ParseTiming(s) }
