package midifile

import (
	"bytes"
	"errors"
	"testing"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

type fixtureEvent struct {
	delta uint32
	msg   []byte
}

func writeFixture(t *testing.T, resolution uint16, tracks ...[]fixtureEvent) []byte {
	t.Helper()
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(resolution)
	for _, events := range tracks {
		var tr smf.Track
		for _, ev := range events {
			tr.Add(ev.delta, ev.msg)
		}
		tr.Close(0)
		if err := s.Add(tr); err != nil {
			t.Fatalf("add track: %v", err)
		}
	}
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return buf.Bytes()
}

func TestParseSingleTrack(t *testing.T) {
	data := writeFixture(t, 480, []fixtureEvent{
		{0, smf.MetaTempo(150)},
		{0, midi.NoteOn(0, 60, 100)},
		{480, midi.NoteOff(0, 60)},
		{0, midi.NoteOn(0, 64, 90)},
		{240, midi.NoteOff(0, 64)},
	})
	tl, err := Parse(data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if tl.TicksPerBeat != 480 {
		t.Fatalf("ticks per beat = %d, want 480", tl.TicksPerBeat)
	}
	want := []TimedEvent{
		{Tick: 0, Event: SetTempo(150)},
		{Tick: 0, Event: NoteOn(0, 60, 100)},
		{Tick: 480, Event: NoteOff(0, 60)},
		{Tick: 480, Event: NoteOn(0, 64, 90)},
		{Tick: 720, Event: NoteOff(0, 64)},
	}
	if len(tl.Events) != len(want) {
		t.Fatalf("expected %d events, got %d: %#v", len(want), len(tl.Events), tl.Events)
	}
	for i, ev := range want {
		if tl.Events[i] != ev {
			t.Fatalf("event[%d] = %#v, want %#v", i, tl.Events[i], ev)
		}
	}
	if tl.Duration() != 720 {
		t.Fatalf("duration = %d, want 720", tl.Duration())
	}
}

func TestParseTempoIsSixtyMillionOverMicroseconds(t *testing.T) {
	for _, bpm := range []float64{60, 100, 120, 150} {
		data := writeFixture(t, 96, []fixtureEvent{{0, smf.MetaTempo(bpm)}})
		tl, err := Parse(data)
		if err != nil {
			t.Fatalf("parse failed: %v", err)
		}
		if len(tl.Events) != 1 || tl.Events[0].Event.Kind != EventSetTempo {
			t.Fatalf("expected a single tempo event, got %#v", tl.Events)
		}
		want := 60_000_000 / float64(uint32(60_000_000/bpm))
		if got := tl.Events[0].Event.BPM; got != want {
			t.Fatalf("bpm = %v, want %v", got, want)
		}
	}
}

func TestParseMergesTracksSortedAndAppliesChannelFloor(t *testing.T) {
	data := writeFixture(t, 96,
		[]fixtureEvent{
			{0, smf.MetaTempo(120)},
			{96, midi.NoteOn(0, 48, 80)},
			{96, midi.NoteOff(0, 48)},
		},
		[]fixtureEvent{
			{48, midi.NoteOn(0, 60, 100)},
			{96, midi.NoteOff(0, 60)},
		},
		[]fixtureEvent{
			{10, midi.NoteOn(5, 72, 100)},
		},
	)
	tl, err := Parse(data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	for i := 1; i < len(tl.Events); i++ {
		if tl.Events[i].Tick < tl.Events[i-1].Tick {
			t.Fatalf("events not sorted at %d: %#v", i, tl.Events)
		}
	}
	channels := map[uint8]uint8{}
	for _, ev := range tl.Events {
		if ev.Event.Kind == EventNoteOn {
			channels[ev.Event.Note] = ev.Event.Channel
		}
	}
	// note 48 lives in track 0, note 60 in track 1 (authored on channel 0),
	// note 72 in track 2 but authored on channel 5.
	if channels[48] != 0 || channels[60] != 1 || channels[72] != 5 {
		t.Fatalf("unexpected effective channels: %v", channels)
	}
}

func TestParseStableTieBreak(t *testing.T) {
	data := writeFixture(t, 96, []fixtureEvent{
		{0, midi.NoteOn(0, 60, 100)},
		{0, midi.NoteOff(0, 60)},
		{0, midi.NoteOn(0, 62, 100)},
	})
	tl, err := Parse(data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	kinds := []EventKind{EventNoteOn, EventNoteOff, EventNoteOn}
	for i, k := range kinds {
		if tl.Events[i].Event.Kind != k {
			t.Fatalf("event[%d] kind = %v, want %v", i, tl.Events[i].Event.Kind, k)
		}
	}
}

func TestParseZeroVelocityNoteOnIsNoteOff(t *testing.T) {
	data := writeFixture(t, 96, []fixtureEvent{
		{0, midi.NoteOn(0, 60, 100)},
		{96, midi.NoteOn(0, 60, 0)},
	})
	tl, err := Parse(data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(tl.Events) != 2 || tl.Events[1].Event != NoteOff(0, 60) {
		t.Fatalf("expected trailing note-off, got %#v", tl.Events)
	}
}

func TestParseDropsUninterpretedMessages(t *testing.T) {
	data := writeFixture(t, 96, []fixtureEvent{
		{0, smf.MetaMeter(3, 4)},
		{0, midi.ControlChange(0, 7, 100)},
		{0, midi.ProgramChange(0, 5)},
		{0, midi.NoteOn(0, 60, 100)},
	})
	tl, err := Parse(data)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(tl.Events) != 1 || tl.Events[0].Event.Kind != EventNoteOn {
		t.Fatalf("expected only the note-on to survive, got %#v", tl.Events)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("RIFF1234WAVE"), {0x4d, 0x54, 0x68}} {
		if _, err := Parse(data); !errors.Is(err, ErrMalformed) {
			t.Fatalf("Parse(%q) err = %v, want ErrMalformed", data, err)
		}
	}
}

func TestParseRejectsSMPTEDivision(t *testing.T) {
	// Header with division 0xE728: -25 fps, 40 ticks per frame.
	data := []byte{
		'M', 'T', 'h', 'd', 0, 0, 0, 6, 0, 0, 0, 1, 0xE7, 0x28,
		'M', 'T', 'r', 'k', 0, 0, 0, 4, 0x00, 0xFF, 0x2F, 0x00,
	}
	if _, err := Parse(data); !errors.Is(err, ErrUnsupportedDivision) {
		t.Fatalf("err = %v, want ErrUnsupportedDivision", err)
	}
}
