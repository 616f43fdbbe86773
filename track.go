package soundy

import "github.com/DragonFoxCollective/soundygo/internal/midifile"

// TrackHandle names a track attached to a Mixer. Handles are never reused.
type TrackHandle int

// Track is a parsed MIDI timeline plus the settings it starts with once it
// is attached to a Mixer.
type Track struct {
	timeline      *midifile.Timeline
	timeSignature float64
	patches       []channelPatch
	queue         []Command
	stopped       bool
}

type channelPatch struct {
	channel, bank, patch uint8
}

// NewTrack parses a standard MIDI file. timeSignature is the meter as a
// fraction, so 4.0/4.0 gives four beats per bar.
func NewTrack(midi []byte, timeSignature float64) (*Track, error) {
	tl, err := midifile.Parse(midi)
	if err != nil {
		return nil, err
	}
	return NewTrackFromTimeline(tl, timeSignature), nil
}

func NewTrackFromTimeline(tl *midifile.Timeline, timeSignature float64) *Track {
	return &Track{timeline: tl, timeSignature: timeSignature}
}

// WithChannelPatch selects bank and patch for a MIDI channel.
func (t *Track) WithChannelPatch(channel, bank, patch uint8) *Track {
	t.patches = append(t.patches, channelPatch{channel: channel, bank: bank, patch: patch})
	return t
}

// WithQueue adds a command that is pending as soon as the track is attached.
func (t *Track) WithQueue(c Command) *Track {
	t.queue = append(t.queue, c)
	return t
}

// Stopped makes the track start silent. Its clock still runs, so a queued
// play command brings it in on the right boundary.
func (t *Track) Stopped() *Track {
	t.stopped = true
	return t
}

func (t *Track) Timeline() *midifile.Timeline { return t.timeline }
