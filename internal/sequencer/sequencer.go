package sequencer

import (
	"io"
	"math"

	"github.com/charmbracelet/log"

	"github.com/DragonFoxCollective/soundygo/internal/midifile"
	"github.com/DragonFoxCollective/soundygo/internal/soundfont"
	"github.com/DragonFoxCollective/soundygo/internal/voice"
)

const (
	NumChannels       = 16
	DefaultBPM        = 120.0
	DefaultSampleRate = 44100.0
)

type Options struct {
	// TimeSignature is the meter as a fraction, e.g. 4.0/4.0 or 3.0/4.0.
	// A bar lasts TimeSignature*4 beats. Zero means 4/4.
	TimeSignature float64
	SampleRate    float64
	Logger        *log.Logger
}

// Sequencer plays one timeline on 16 MIDI channels. It owns a fractional
// tick clock advanced once per output frame, fires timeline events as the
// clock reaches them and applies queued commands on beat, bar and loop
// boundaries. The timeline loops forever.
type Sequencer struct {
	timeline       *midifile.Timeline
	channels       [NumChannels]*voice.Channel
	sampleRate     float64
	ticksPerSample float64
	beatsPerSecond float64
	beatsPerBar    float64
	tick           float64
	beat           float64
	cursor         int
	loops          int
	queue          []Command
	playing        bool
	logger         *log.Logger
}

func New(tl *midifile.Timeline, timeSignature float64) *Sequencer {
	return NewWithOptions(tl, Options{TimeSignature: timeSignature})
}

func NewWithOptions(tl *midifile.Timeline, opts Options) *Sequencer {
	if tl == nil {
		tl = &midifile.Timeline{TicksPerBeat: 96}
	}
	ts := opts.TimeSignature
	if ts <= 0 {
		ts = 1
	}
	rate := opts.SampleRate
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	s := &Sequencer{
		timeline:       tl,
		sampleRate:     rate,
		beatsPerSecond: DefaultBPM / 60,
		beatsPerBar:    ts * 4,
		playing:        true,
		logger:         logger,
	}
	for i := range s.channels {
		bank := uint8(0)
		if i == voice.DrumChannel {
			bank = voice.DrumBank
		}
		s.channels[i] = voice.NewChannel(bank, 0)
	}
	s.updateTicksPerSample()
	return s
}

func (s *Sequencer) updateTicksPerSample() {
	s.ticksPerSample = float64(s.timeline.TicksPerBeat) * s.beatsPerSecond / s.sampleRate
}

// SetChannelPatch selects the preset for channel. Voices already sounding
// keep the samples they were started with.
func (s *Sequencer) SetChannelPatch(channel, bank, patch uint8) {
	if int(channel) >= NumChannels {
		return
	}
	c := s.channels[channel]
	c.Bank = bank
	c.Patch = patch
}

func (s *Sequencer) ChannelPatch(channel uint8) (bank, patch uint8, ok bool) {
	if int(channel) >= NumChannels {
		return 0, 0, false
	}
	c := s.channels[channel]
	return c.Bank, c.Patch, true
}

func (s *Sequencer) Enqueue(c Command) {
	s.queue = append(s.queue, c)
}

// Pending returns a copy of the commands still waiting for a boundary.
func (s *Sequencer) Pending() []Command {
	return append([]Command(nil), s.queue...)
}

// SetPlaying starts or stops timeline playback. Stopping silences every
// sounding voice.
func (s *Sequencer) SetPlaying(playing bool) {
	if s.playing && !playing {
		for _, c := range s.channels {
			c.Reset()
		}
	}
	s.playing = playing
}

func (s *Sequencer) IsPlaying() bool              { return s.playing }
func (s *Sequencer) BeatsPerSecond() float64      { return s.beatsPerSecond }
func (s *Sequencer) BeatsPerBar() float64         { return s.beatsPerBar }
func (s *Sequencer) Beat() float64                { return s.beat }
func (s *Sequencer) Tick() float64                { return s.tick }
func (s *Sequencer) Loops() int                   { return s.loops }
func (s *Sequencer) Timeline() *midifile.Timeline { return s.timeline }

// Step advances the clock by one output frame and records the boundaries
// crossed into b.
func (s *Sequencer) Step(b *Boundaries) {
	s.tick += s.ticksPerSample

	if s.beat == 0 {
		b.Add(TimingLoop)
	}

	lastBeat := math.Floor(s.beat)
	lastBar := math.Floor(lastBeat / s.beatsPerBar)
	s.beat += s.beatsPerSecond / s.sampleRate
	currentBeat := math.Floor(s.beat)
	currentBar := math.Floor(currentBeat / s.beatsPerBar)

	if lastBeat != currentBeat {
		b.Add(TimingBeat)
		if lastBar != currentBar {
			b.Add(TimingBar)
		}
	}
}

// ApplyQueue fires, in queue order, every pending command waiting on one of
// the boundaries in b. Commands scheduled by a Queue action are appended
// after the scan and first considered on a later boundary.
func (s *Sequencer) ApplyQueue(b Boundaries) {
	if b.Empty() || len(s.queue) == 0 {
		return
	}
	var scheduled []Command
	kept := s.queue[:0]
	for _, c := range s.queue {
		if !b.Has(c.FireOn) {
			kept = append(kept, c)
			continue
		}
		s.logger.Debug("queued command fired", "command", c, "beat", s.beat)
		switch c.Action {
		case ActionPlay:
			s.SetPlaying(true)
		case ActionStop:
			s.SetPlaying(false)
		case ActionQueue:
			if c.Inner != nil {
				scheduled = append(scheduled, *c.Inner)
			}
		}
		if c.Repeat == RepeatLoop {
			kept = append(kept, c)
		}
	}
	s.queue = append(kept, scheduled...)
}

// FireEvents interprets every timeline event due at the current tick. When
// the last event fires the timeline wraps: the cursor and both clocks reset
// to zero and nothing more fires until the next frame. A stopped sequencer
// walks past note events without sounding them so it stays in position, but
// still follows tempo changes.
func (s *Sequencer) FireEvents(bank *soundfont.Bank) {
	events := s.timeline.Events
	for s.cursor < len(events) {
		ev := events[s.cursor]
		if ev.Tick > uint64(s.tick) {
			return
		}
		if s.playing || ev.Event.Kind == midifile.EventSetTempo {
			s.Interpret(ev.Event, bank)
		}
		s.cursor++
		if s.cursor >= len(events) {
			s.cursor = 0
			s.tick = 0
			s.beat = 0
			s.loops++
			return
		}
	}
}

// Interpret applies a single event immediately. NoteOn events that resolve
// to no sample are dropped.
func (s *Sequencer) Interpret(ev midifile.Event, bank *soundfont.Bank) {
	switch ev.Kind {
	case midifile.EventNoteOn:
		if int(ev.Channel) >= NumChannels {
			return
		}
		c := s.channels[ev.Channel]
		if !c.NoteOn(bank, ev.Note, ev.Velocity) {
			s.logger.Debug("note dropped", "channel", ev.Channel, "note", ev.Note,
				"velocity", ev.Velocity, "bank", c.Bank, "patch", c.Patch)
		}
	case midifile.EventNoteOff:
		if int(ev.Channel) >= NumChannels {
			return
		}
		s.channels[ev.Channel].NoteOff(ev.Note)
	case midifile.EventSetTempo:
		if ev.BPM <= 0 {
			return
		}
		s.beatsPerSecond = ev.BPM / 60
		s.updateTicksPerSample()
	}
}

// Sample sums the voices of every channel for one output channel.
func (s *Sequencer) Sample(wave []int16, outputChannel int) int32 {
	var sum int32
	for _, c := range s.channels {
		sum += c.Sample(wave, outputChannel)
	}
	return sum
}

// AdvanceVoices moves every voice one frame forward and drops exhausted ones.
func (s *Sequencer) AdvanceVoices() {
	for _, c := range s.channels {
		c.Advance()
	}
}

func (s *Sequencer) ActiveVoiceCount() int {
	n := 0
	for _, c := range s.channels {
		n += len(c.Voices)
	}
	return n
}
