package arrangement

import (
	"bytes"
	"errors"
	"testing"
	"testing/fstest"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	soundy "github.com/DragonFoxCollective/soundygo"
	"github.com/DragonFoxCollective/soundygo/internal/soundfont"
	"github.com/DragonFoxCollective/soundygo/internal/soundfont/sftest"
)

const sample = `
soundfont: bank.sf2
sample_rate: 22050
tracks:
  - midi: lead.mid
    time_signature: 0.75
    patches: [{channel: 0, bank: 0, patch: 46}]
    queue:
      - {action: stop, on: bar, repeat: once}
  - midi: drums.mid
    stopped: true
    primary: true
    queue:
      - action: queue
        on: loop
        then: {action: play, on: beat, repeat: loop}
`

func writeMIDI(t *testing.T) []byte {
	t.Helper()
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(96)
	var tr smf.Track
	tr.Add(0, midi.NoteOn(0, 60, 100))
	tr.Add(96, midi.NoteOff(0, 60))
	tr.Close(0)
	if err := s.Add(tr); err != nil {
		t.Fatalf("add track: %v", err)
	}
	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		t.Fatalf("write midi: %v", err)
	}
	return buf.Bytes()
}

func TestParse(t *testing.T) {
	a, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if a.SoundFont != "bank.sf2" || a.SampleRate != 22050 || len(a.Tracks) != 2 {
		t.Fatalf("unexpected arrangement %+v", a)
	}
	lead := a.Tracks[0]
	if lead.TimeSignature != 0.75 || len(lead.Patches) != 1 || lead.Patches[0].Patch != 46 {
		t.Fatalf("unexpected lead track %+v", lead)
	}
	cmd, err := a.Tracks[1].Queue[0].Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := cmd.String(); got != "queue(play@beat*)@loop" {
		t.Fatalf("command = %q", got)
	}
	if len(a.Options()) != 1 {
		t.Fatalf("expected one mixer option")
	}
}

func TestParseRejectsBadInput(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"no soundfont", "tracks: [{midi: a.mid}]"},
		{"no midi", "soundfont: a.sf2\ntracks: [{time_signature: 1}]"},
		{"bad action", "soundfont: a.sf2\ntracks: [{midi: a.mid, queue: [{action: jump, on: bar}]}]"},
		{"bad timing", "soundfont: a.sf2\ntracks: [{midi: a.mid, queue: [{action: stop, on: week}]}]"},
		{"bad repeat", "soundfont: a.sf2\ntracks: [{midi: a.mid, queue: [{action: stop, on: bar, repeat: twice}]}]"},
		{"queue without then", "soundfont: a.sf2\ntracks: [{midi: a.mid, queue: [{action: queue, on: bar}]}]"},
		{"not yaml", "soundfont: [unterminated"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.yaml)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestAttach(t *testing.T) {
	a, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	fsys := fstest.MapFS{
		"lead.mid":  {Data: writeMIDI(t)},
		"drums.mid": {Data: writeMIDI(t)},
	}
	m := soundy.New(sftest.Constant(0, 46, 1000, 64), a.Options()...)
	handles, err := a.Attach(m, fsys)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if len(handles) != 2 {
		t.Fatalf("got %d handles", len(handles))
	}
	if bpb, ok := m.BeatsPerBar(handles[0]); !ok || bpb != 3 {
		t.Fatalf("lead beats per bar = %v,%v want 3", bpb, ok)
	}
	if !m.IsPlaying(handles[0]) || m.IsPlaying(handles[1]) {
		t.Fatalf("playing state not applied")
	}
	if p, ok := m.PrimaryTrack(); !ok || p != handles[1] {
		t.Fatalf("primary = %d,%v want %d", p, ok, handles[1])
	}
	if m.SampleRate() != 22050 {
		t.Fatalf("sample rate = %d", m.SampleRate())
	}
}

func TestAttachMissingMIDI(t *testing.T) {
	a, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	m := soundy.New(sftest.Constant(0, 0, 1000, 64))
	if _, err := a.Attach(m, fstest.MapFS{"lead.mid": {Data: writeMIDI(t)}}); err == nil {
		t.Fatalf("expected error for missing drums.mid")
	}
	if got := len(m.Tracks()); got != 0 {
		t.Fatalf("failed attach added %d tracks", got)
	}
}

func TestMixerRejectsInvalidSoundFont(t *testing.T) {
	a, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	fsys := fstest.MapFS{"bank.sf2": {Data: []byte("RIFF nope")}}
	if _, _, err := a.Mixer(fsys); !errors.Is(err, soundfont.ErrInvalidSoundFont) {
		t.Fatalf("err = %v, want ErrInvalidSoundFont", err)
	}
}
