// Package soundy plays looping MIDI tracks through a SoundFont sample bank.
//
// A Mixer owns any number of tracks, each driven by its own sequencer, and
// renders them into one bounded buffer of interleaved signed 16-bit samples.
// The host calls Advance from its update loop; an audio device pulls from
// Stream on its own goroutine.
package soundy

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cwbudde/algo-dsp/dsp/core"

	intaudio "github.com/DragonFoxCollective/soundygo/internal/audio"
	"github.com/DragonFoxCollective/soundygo/internal/sequencer"
	"github.com/DragonFoxCollective/soundygo/internal/soundfont"
)

const (
	DefaultSampleRate = 44100
	DefaultChannels   = 2
)

var (
	// ErrNoTracks is returned by note operations when the mixer has no
	// primary track to address.
	ErrNoTracks = errors.New("soundy: no tracks")
	// ErrUnknownTrack is returned when a handle does not name a track.
	ErrUnknownTrack = errors.New("soundy: unknown track handle")
)

type Option func(*mixerConfig)

type mixerConfig struct {
	sampleRate int
	channels   int
	logger     *log.Logger
}

func defaultMixerConfig() mixerConfig {
	return mixerConfig{sampleRate: DefaultSampleRate, channels: DefaultChannels}
}

func WithSampleRate(rate int) Option {
	return func(cfg *mixerConfig) {
		if rate > 0 {
			cfg.sampleRate = rate
		}
	}
}

// WithChannels sets the number of interleaved output channels. Channel 0 is
// left and channel 1 is right; mono samples sound on every channel.
func WithChannels(n int) Option {
	return func(cfg *mixerConfig) {
		if n > 0 {
			cfg.channels = n
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(cfg *mixerConfig) {
		cfg.logger = l
	}
}

// Mixer renders every attached track into a shared output buffer holding at
// most one second of audio.
type Mixer struct {
	mu         sync.Mutex
	bank       *soundfont.Bank
	sampleRate int
	channels   int
	logger     *log.Logger

	tracks     map[TrackHandle]*sequencer.Sequencer
	order      []TrackHandle
	nextHandle TrackHandle
	primary    TrackHandle
	hasPrimary bool

	buf        *intaudio.Buffer
	stream     *intaudio.Stream
	outChannel int
	scratch    []int16

	clock     time.Duration
	pending   []BufferEvent
	eventCh   chan BufferEvent
	eventChMu sync.Mutex
}

// New returns a mixer that resolves notes against font.
func New(font *soundfont.Font, opts ...Option) *Mixer {
	cfg := defaultMixerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	buf := intaudio.NewBuffer(cfg.sampleRate * cfg.channels)
	return &Mixer{
		bank:       soundfont.NewBank(font),
		sampleRate: cfg.sampleRate,
		channels:   cfg.channels,
		logger:     logger,
		tracks:     make(map[TrackHandle]*sequencer.Sequencer),
		buf:        buf,
		stream:     intaudio.NewStream(buf, cfg.channels, cfg.sampleRate),
	}
}

// FromBytes decodes an SF2 file and returns a mixer for it.
func FromBytes(sf2 []byte, opts ...Option) (*Mixer, error) {
	font, err := soundfont.Load(sf2)
	if err != nil {
		return nil, err
	}
	return New(font, opts...), nil
}

func (m *Mixer) SampleRate() int { return m.sampleRate }
func (m *Mixer) Channels() int   { return m.channels }

// Stream returns the pull side of the output buffer.
func (m *Mixer) Stream() *intaudio.Stream { return m.stream }

// Buffered reports how many samples are waiting in the output buffer.
func (m *Mixer) Buffered() int { return m.buf.Len() }

// Advance renders up to dt worth of frames, never filling the output buffer
// past one second of audio.
func (m *Mixer) Advance(dt time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.clock += dt
	frames := dt.Seconds() * float64(m.sampleRate)
	maxFrames := float64(m.buf.Cap()-m.buf.Len()) / float64(m.channels)
	m.renderFrames(int(math.Max(0, math.Min(frames, maxFrames))))
	m.deliverDueEvents()
}

// Render advances the mixer by dt and drains everything buffered.
func (m *Mixer) Render(dt time.Duration) []int16 {
	m.Advance(dt)
	return m.drain()
}

// RenderFrames renders exactly n frames, bounded by the free space in the
// output buffer, and drains everything buffered.
func (m *Mixer) RenderFrames(n int) []int16 {
	m.mu.Lock()
	free := m.buf.Free() / m.channels
	if n > free {
		n = free
	}
	m.clock += time.Duration(float64(n) / float64(m.sampleRate) * float64(time.Second))
	m.renderFrames(n)
	m.deliverDueEvents()
	m.mu.Unlock()
	return m.drain()
}

func (m *Mixer) drain() []int16 {
	out := make([]int16, m.buf.Len())
	m.buf.PopInto(out)
	return out
}

func (m *Mixer) renderFrames(n int) {
	if n <= 0 {
		return
	}
	need := n * m.channels
	if cap(m.scratch) < need {
		m.scratch = make([]int16, 0, need)
	}
	out := m.scratch[:0]
	for i := 0; i < need; i++ {
		if m.outChannel == 0 {
			m.tickTracks(i / m.channels)
		}
		out = append(out, m.mixSample())
		if m.outChannel == m.channels-1 {
			m.advanceVoices()
		}
		m.outChannel = (m.outChannel + 1) % m.channels
	}
	if pushed := m.buf.Push(out...); pushed < len(out) {
		m.logger.Warn("output buffer overflow", "dropped", len(out)-pushed)
	}
}

// tickTracks runs one frame of timing, queue and event logic for every track.
// Boundaries crossed by any track are applied to every track's queue.
func (m *Mixer) tickTracks(frame int) {
	var all sequencer.Boundaries
	for _, h := range m.order {
		seq := m.tracks[h]
		var b sequencer.Boundaries
		seq.Step(&b)
		if !b.Empty() {
			m.recordEvent(h, b, seq.Beat(), frame)
		}
		all |= b
	}
	for _, h := range m.order {
		m.tracks[h].ApplyQueue(all)
	}
	for _, h := range m.order {
		m.tracks[h].FireEvents(m.bank)
	}
}

func (m *Mixer) mixSample() int16 {
	wave := m.bank.WaveData()
	var sum int32
	for _, h := range m.order {
		seq := m.tracks[h]
		if seq.IsPlaying() {
			sum += seq.Sample(wave, m.outChannel)
		}
	}
	return int16(core.Clamp(float64(sum), math.MinInt16, math.MaxInt16))
}

func (m *Mixer) advanceVoices() {
	for _, h := range m.order {
		seq := m.tracks[h]
		if seq.IsPlaying() {
			seq.AdvanceVoices()
		}
	}
}

// AddTrack attaches t and returns its handle. The first track added becomes
// the primary track.
func (m *Mixer) AddTrack(t *Track) TrackHandle {
	m.mu.Lock()
	defer m.mu.Unlock()

	seq := sequencer.NewWithOptions(t.timeline, sequencer.Options{
		TimeSignature: t.timeSignature,
		SampleRate:    float64(m.sampleRate),
		Logger:        m.logger,
	})
	for _, p := range t.patches {
		seq.SetChannelPatch(p.channel, p.bank, p.patch)
	}
	for _, c := range t.queue {
		seq.Enqueue(c)
	}
	if t.stopped {
		seq.SetPlaying(false)
	}

	h := m.nextHandle
	m.nextHandle++
	m.tracks[h] = seq
	m.order = append(m.order, h)
	if !m.hasPrimary {
		m.primary = h
		m.hasPrimary = true
	}
	m.logger.Info("track added", "track", h, "events", seq.Timeline().Len(), "playing", seq.IsPlaying())
	return h
}

// RemoveTrack detaches h. Removing the primary track promotes the oldest
// remaining track.
func (m *Mixer) RemoveTrack(h TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tracks[h]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTrack, h)
	}
	delete(m.tracks, h)
	for i, o := range m.order {
		if o == h {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	if m.hasPrimary && m.primary == h {
		m.hasPrimary = len(m.order) > 0
		if m.hasPrimary {
			m.primary = m.order[0]
		}
	}
	m.logger.Info("track removed", "track", h)
	return nil
}

func (m *Mixer) SetPrimaryTrack(h TrackHandle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tracks[h]; !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTrack, h)
	}
	m.primary = h
	m.hasPrimary = true
	return nil
}

// PrimaryTrack returns the track addressed by StartPlayingNote and
// StopPlayingNote.
func (m *Mixer) PrimaryTrack() (TrackHandle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.primary, m.hasPrimary
}

// Tracks returns the attached handles in the order they were added.
func (m *Mixer) Tracks() []TrackHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]TrackHandle(nil), m.order...)
}
