package voice

import (
	"math"

	"github.com/cwbudde/algo-dsp/dsp/interp"

	"github.com/DragonFoxCollective/soundygo/internal/soundfont"
)

var linear = interp.NewLagrangeInterpolator(1)

// Sample is one playback cursor into the bank's wave data.
type Sample struct {
	Speed   float32
	Current float64
	End     float64
	Mask    soundfont.SampleType
	Volume  float32
}

func (s *Sample) Exhausted() bool { return s.Current >= s.End }

func (s *Sample) matches(outputChannel int) bool {
	switch s.Mask {
	case soundfont.Left:
		return outputChannel == 0
	case soundfont.Right:
		return outputChannel == 1
	default:
		return true
	}
}

func (s *Sample) read(wave []int16) float64 {
	lo := math.Floor(s.Current)
	hi := math.Ceil(s.Current)
	pts := [2]float64{waveAt(wave, lo), waveAt(wave, hi)}
	return linear.Interpolate(pts[:], s.Current-lo)
}

func waveAt(wave []int16, idx float64) float64 {
	if idx < 0 || idx >= float64(len(wave)) {
		return 0
	}
	return float64(wave[int(idx)])
}

// Voice is one sounding note made of one or more layered samples.
type Voice struct {
	Note    uint8
	Samples []Sample
}

// New builds a voice for note from the resolved sample headers. It returns
// nil when there is nothing to play.
func New(note, velocity uint8, headers []soundfont.SampleHeader) *Voice {
	if len(headers) == 0 {
		return nil
	}
	volume := float32(velocity) / 127
	samples := make([]Sample, 0, len(headers))
	for _, h := range headers {
		samples = append(samples, Sample{
			Speed:   Speed(note, h.OriginalPitch, h.PitchCorrection),
			Current: float64(h.Start),
			End:     float64(h.End),
			Mask:    h.Type,
			Volume:  volume,
		})
	}
	return &Voice{Note: note, Samples: samples}
}

// Speed is the playback-rate multiplier that shifts a sample recorded at
// originalPitch (plus cents correction) to note.
func Speed(note, originalPitch uint8, centsCorrection int8) float32 {
	semitones := float32(note) - float32(originalPitch) + float32(centsCorrection)/100
	return float32(math.Pow(2, float64(semitones/12)))
}

// Sample mixes every live layer that belongs on outputChannel.
func (v *Voice) Sample(wave []int16, outputChannel int) int32 {
	var sum int32
	for i := range v.Samples {
		s := &v.Samples[i]
		// Samples stop at their end offset; loop points are not honoured.
		if s.Exhausted() || !s.matches(outputChannel) {
			continue
		}
		sum += int32(s.read(wave) * float64(s.Volume))
	}
	return sum
}

// Advance moves every cursor forward by one output frame.
func (v *Voice) Advance() {
	for i := range v.Samples {
		v.Samples[i].Current += float64(v.Samples[i].Speed)
	}
}

func (v *Voice) Exhausted() bool {
	for i := range v.Samples {
		if !v.Samples[i].Exhausted() {
			return false
		}
	}
	return true
}
