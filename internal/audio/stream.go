package audio

import (
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// Stream is the consumer side of a mixer's output buffer. It never blocks:
// when the producer falls behind, missing samples read as silence.
type Stream struct {
	buf        *Buffer
	channels   int
	sampleRate int

	mu      sync.Mutex
	scratch []int16
}

func NewStream(buf *Buffer, channels, sampleRate int) *Stream {
	return &Stream{buf: buf, channels: channels, sampleRate: sampleRate}
}

func (s *Stream) Channels() int   { return s.channels }
func (s *Stream) SampleRate() int { return s.sampleRate }

// Next returns the next interleaved sample, or 0 if none is buffered.
func (s *Stream) Next() int16 {
	v, _ := s.buf.Pop()
	return v
}

// Read fills p with whole frames of signed 16-bit little-endian PCM.
func (s *Stream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	frameBytes := 2 * s.channels
	frames := len(p) / frameBytes
	if frames == 0 {
		return 0, nil
	}
	need := frames * s.channels
	if cap(s.scratch) < need {
		s.scratch = make([]int16, need)
	}
	s.scratch = s.scratch[:need]
	s.buf.PopInto(s.scratch)
	for i, v := range s.scratch {
		binary.LittleEndian.PutUint16(p[i*2:], uint16(v))
	}
	return frames * frameBytes, nil
}

func (s *Stream) Close() error { return nil }

type Player struct {
	player *ebitaudio.Player
	stream *Stream
}

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioSampleRate  int
)

func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

// NewPlayer opens the default output device for a stereo stream.
func NewPlayer(stream *Stream) (*Player, error) {
	if stream.Channels() != 2 {
		return nil, fmt.Errorf("audio device needs 2 channels, stream has %d", stream.Channels())
	}
	ctx, err := sharedAudioContext(stream.SampleRate())
	if err != nil {
		return nil, err
	}
	pl, err := ctx.NewPlayer(stream)
	if err != nil {
		return nil, err
	}
	return &Player{player: pl, stream: stream}, nil
}

func (p *Player) Play()  { p.player.Play() }
func (p *Player) Pause() { p.player.Pause() }
func (p *Player) IsPlaying() bool {
	return p.player.IsPlaying()
}

// SetVolume sets the linear output gain, 1 being unity.
func (p *Player) SetVolume(v float64) { p.player.SetVolume(v) }

// Position returns the current playback position (what the listener actually hears).
func (p *Player) Position() time.Duration {
	return p.player.Position()
}

func (p *Player) Stop() error {
	p.player.Pause()
	p.player.Close()
	return p.stream.Close()
}
