package soundy

import (
	"fmt"

	"github.com/DragonFoxCollective/soundygo/internal/midifile"
	"github.com/DragonFoxCollective/soundygo/internal/sequencer"
)

// SyncedInfo is a snapshot of a track's musical clock.
type SyncedInfo struct {
	Beat           float64
	BeatsPerSecond float64
	BeatsPerBar    float64
	Loops          int
	Playing        bool
}

// Queue defers c on track h until its boundary. Unknown handles are ignored.
func (m *Mixer) Queue(h TrackHandle, c Command) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seq, ok := m.tracks[h]
	if !ok {
		m.logger.Debug("queue on unknown track", "track", h, "command", c)
		return
	}
	seq.Enqueue(c)
}

// StartPlayingNote sounds note on channel 0 of the primary track at full
// velocity. Notes sent to a stopped track are dropped.
func (m *Mixer) StartPlayingNote(note Note) error {
	return m.onPrimary(midifile.NoteOn(0, uint8(note), 127))
}

func (m *Mixer) StopPlayingNote(note Note) error {
	return m.onPrimary(midifile.NoteOff(0, uint8(note)))
}

func (m *Mixer) onPrimary(ev midifile.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasPrimary {
		return ErrNoTracks
	}
	m.sendLive(m.primary, m.tracks[m.primary], ev)
	return nil
}

// NoteOn sounds note on one channel of track h. Like StartPlayingNote it is
// dropped while the track is stopped.
func (m *Mixer) NoteOn(h TrackHandle, channel uint8, note Note, velocity uint8) error {
	return m.interpret(h, midifile.NoteOn(channel, uint8(note), velocity))
}

func (m *Mixer) NoteOff(h TrackHandle, channel uint8, note Note) error {
	return m.interpret(h, midifile.NoteOff(channel, uint8(note)))
}

func (m *Mixer) interpret(h TrackHandle, ev midifile.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	seq, ok := m.tracks[h]
	if !ok {
		return fmt.Errorf("%w: %d", ErrNoTracks, h)
	}
	m.sendLive(h, seq, ev)
	return nil
}

// sendLive applies a live event, dropping NoteOns on a stopped track.
func (m *Mixer) sendLive(h TrackHandle, seq *sequencer.Sequencer, ev midifile.Event) {
	if ev.Kind == midifile.EventNoteOn && !seq.IsPlaying() {
		m.logger.Debug("live note on stopped track dropped", "track", h, "note", ev.Note)
		return
	}
	seq.Interpret(ev, m.bank)
}

// SetChannelPatch changes the preset of one channel on a running track.
func (m *Mixer) SetChannelPatch(h TrackHandle, channel, bank, patch uint8) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	seq, ok := m.tracks[h]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTrack, h)
	}
	seq.SetChannelPatch(channel, bank, patch)
	return nil
}

func (m *Mixer) IsPlaying(h TrackHandle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	seq, ok := m.tracks[h]
	return ok && seq.IsPlaying()
}

func (m *Mixer) BeatsPerSecond(h TrackHandle) (float64, bool) {
	return m.query(h, (*sequencer.Sequencer).BeatsPerSecond)
}

func (m *Mixer) BeatsPerBar(h TrackHandle) (float64, bool) {
	return m.query(h, (*sequencer.Sequencer).BeatsPerBar)
}

func (m *Mixer) query(h TrackHandle, get func(*sequencer.Sequencer) float64) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seq, ok := m.tracks[h]
	if !ok {
		return 0, false
	}
	return get(seq), true
}

func (m *Mixer) Synced(h TrackHandle) (SyncedInfo, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seq, ok := m.tracks[h]
	if !ok {
		return SyncedInfo{}, false
	}
	return SyncedInfo{
		Beat:           seq.Beat(),
		BeatsPerSecond: seq.BeatsPerSecond(),
		BeatsPerBar:    seq.BeatsPerBar(),
		Loops:          seq.Loops(),
		Playing:        seq.IsPlaying(),
	}, true
}
