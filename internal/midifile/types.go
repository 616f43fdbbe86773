package midifile

import "fmt"

type EventKind int

const (
	EventNoteOn EventKind = iota + 1
	EventNoteOff
	EventSetTempo
)

func (k EventKind) String() string {
	switch k {
	case EventNoteOn:
		return "note-on"
	case EventNoteOff:
		return "note-off"
	case EventSetTempo:
		return "set-tempo"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// Event is the semantic subset of MIDI the sequencer understands.
// Channel, Note and Velocity are meaningful for note events, BPM for tempo.
type Event struct {
	Kind     EventKind
	Channel  uint8
	Note     uint8
	Velocity uint8
	BPM      float64
}

func NoteOn(channel, note, velocity uint8) Event {
	return Event{Kind: EventNoteOn, Channel: channel, Note: note, Velocity: velocity}
}

func NoteOff(channel, note uint8) Event {
	return Event{Kind: EventNoteOff, Channel: channel, Note: note}
}

func SetTempo(bpm float64) Event {
	return Event{Kind: EventSetTempo, BPM: bpm}
}

type TimedEvent struct {
	Tick  uint64
	Event Event
}

// Timeline is the merged, tick-sorted event list of one MIDI file.
type Timeline struct {
	Events       []TimedEvent
	TicksPerBeat uint16
}

func (t *Timeline) Len() int { return len(t.Events) }

// Duration returns the tick of the last event, or 0 for an empty timeline.
func (t *Timeline) Duration() uint64 {
	if len(t.Events) == 0 {
		return 0
	}
	return t.Events[len(t.Events)-1].Tick
}
