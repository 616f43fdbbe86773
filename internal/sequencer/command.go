package sequencer

import (
	"fmt"
	"strings"
)

// Timing names a musical boundary a queued command waits for. Values are
// bit flags so several boundaries crossed on one sample form a Boundaries set.
type Timing uint8

const (
	TimingLoop Timing = 1 << iota
	TimingBeat
	TimingBar
)

func (t Timing) String() string {
	switch t {
	case TimingLoop:
		return "loop"
	case TimingBeat:
		return "beat"
	case TimingBar:
		return "bar"
	default:
		return fmt.Sprintf("Timing(%d)", uint8(t))
	}
}

func ParseTiming(s string) (Timing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "loop":
		return TimingLoop, nil
	case "beat":
		return TimingBeat, nil
	case "bar":
		return TimingBar, nil
	default:
		return 0, fmt.Errorf("unknown timing %q (expected loop|beat|bar)", s)
	}
}

// Boundaries is the set of timings crossed during one output sample.
type Boundaries uint8

func (b Boundaries) Has(t Timing) bool { return uint8(b)&uint8(t) != 0 }

func (b *Boundaries) Add(t Timing) { *b |= Boundaries(t) }

func (b Boundaries) Empty() bool { return b == 0 }

func (b Boundaries) Timings() []Timing {
	var out []Timing
	for _, t := range []Timing{TimingLoop, TimingBeat, TimingBar} {
		if b.Has(t) {
			out = append(out, t)
		}
	}
	return out
}

type Action int

const (
	ActionPlay Action = iota + 1
	ActionStop
	ActionQueue
)

func (a Action) String() string {
	switch a {
	case ActionPlay:
		return "play"
	case ActionStop:
		return "stop"
	case ActionQueue:
		return "queue"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

type Repeat int

const (
	RepeatOnce Repeat = iota
	RepeatLoop
)

// Command is a control action deferred until a boundary. A Queue command
// carries the command it schedules once it fires.
type Command struct {
	Action Action
	Inner  *Command
	FireOn Timing
	Repeat Repeat
}

func Play(on Timing) Command { return Command{Action: ActionPlay, FireOn: on} }

func Stop(on Timing) Command { return Command{Action: ActionStop, FireOn: on} }

// Then schedules inner to be queued once on is reached.
func Then(on Timing, inner Command) Command {
	return Command{Action: ActionQueue, Inner: &inner, FireOn: on}
}

// Repeating returns a copy of c that stays queued after it fires.
func (c Command) Repeating() Command {
	c.Repeat = RepeatLoop
	return c
}

func (c Command) String() string {
	var b strings.Builder
	b.WriteString(c.Action.String())
	if c.Action == ActionQueue && c.Inner != nil {
		b.WriteString("(")
		b.WriteString(c.Inner.String())
		b.WriteString(")")
	}
	b.WriteString("@")
	b.WriteString(c.FireOn.String())
	if c.Repeat == RepeatLoop {
		b.WriteString("*")
	}
	return b.String()
}
