package midifile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"

	"gitlab.com/gomidi/midi/v2/smf"
)

var (
	ErrMalformed           = errors.New("malformed MIDI file")
	ErrUnsupportedDivision = errors.New("unsupported MIDI time division")
)

func Parse(data []byte) (*Timeline, error) {
	return ParseReader(bytes.NewReader(data))
}

// ParseReader decodes a standard MIDI file and flattens every track into a
// single timeline. Only metric (ticks per quarter note) time division is
// accepted.
func ParseReader(r io.Reader) (*Timeline, error) {
	file, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	ticks, ok := file.TimeFormat.(smf.MetricTicks)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedDivision, file.TimeFormat)
	}
	events := make([]TimedEvent, 0, 256)
	for i, track := range file.Tracks {
		events = appendTrack(events, track, i)
	}
	sort.SliceStable(events, func(a, b int) bool {
		return events[a].Tick < events[b].Tick
	})
	return &Timeline{
		Events:       events,
		TicksPerBeat: uint16(ticks),
	}, nil
}

func appendTrack(events []TimedEvent, track smf.Track, trackIndex int) []TimedEvent {
	// Some authoring tools write every track on channel 0, so the source
	// track index doubles as a channel floor.
	floor := uint8(trackIndex)
	if trackIndex > 0xFF {
		floor = 0xFF
	}
	var tick uint64
	for _, ev := range track {
		tick += uint64(ev.Delta)
		if e, ok := decodeMessage(ev.Message, floor); ok {
			events = append(events, TimedEvent{Tick: tick, Event: e})
		}
	}
	return events
}

func decodeMessage(msg smf.Message, channelFloor uint8) (Event, bool) {
	var ch, key, vel uint8
	switch {
	case msg.GetNoteOn(&ch, &key, &vel):
		if vel == 0 {
			return NoteOff(max(ch, channelFloor), key), true
		}
		return NoteOn(max(ch, channelFloor), key, vel), true
	case msg.GetNoteOff(&ch, &key, &vel):
		return NoteOff(max(ch, channelFloor), key), true
	}
	var bpm float64
	if msg.GetMetaTempo(&bpm) {
		return SetTempo(bpm), true
	}
	return Event{}, false
}
