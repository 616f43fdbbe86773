package soundy

import (
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// renderChunkFrames bounds how much audio RenderWAV holds in memory at once.
const renderChunkFrames = 4096

// RenderWAV renders seconds of audio and writes it to w as 16-bit PCM WAV.
// The mixer's clock, tracks and queues advance exactly as they would under
// live playback.
func (m *Mixer) RenderWAV(w io.WriteSeeker, seconds float64) error {
	enc := wav.NewEncoder(w, m.sampleRate, 16, m.channels, 1)
	total := int(seconds * float64(m.sampleRate))
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: m.channels,
			SampleRate:  m.sampleRate,
		},
		SourceBitDepth: 16,
	}
	for done := 0; done < total; {
		n := min(renderChunkFrames, total-done)
		samples := m.RenderFrames(n)
		if len(samples) == 0 {
			break
		}
		buf.Data = buf.Data[:0]
		for _, s := range samples {
			buf.Data = append(buf.Data, int(s))
		}
		if err := enc.Write(buf); err != nil {
			return err
		}
		done += len(samples) / m.channels
	}
	return enc.Close()
}
