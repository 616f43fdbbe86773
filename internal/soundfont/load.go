package soundfont

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/sinshu/go-meltysynth/meltysynth"
)

var ErrInvalidSoundFont = errors.New("invalid SoundFont")

func Load(data []byte) (*Font, error) {
	return LoadReader(bytes.NewReader(data))
}

func LoadReader(r io.Reader) (*Font, error) {
	sf, err := meltysynth.NewSoundFont(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSoundFont, err)
	}
	return FromMeltysynth(sf), nil
}

// FromMeltysynth copies the parts of a decoded SF2 bank that playback needs
// into a Font, replacing pointers with slice indices.
func FromMeltysynth(sf *meltysynth.SoundFont) *Font {
	font := &Font{
		WaveData:    sf.WaveData,
		Samples:     make([]SampleHeader, len(sf.SampleHeaders)),
		Instruments: make([]Instrument, len(sf.Instruments)),
		Presets:     make([]Preset, len(sf.Presets)),
	}

	sampleIndex := make(map[*meltysynth.SampleHeader]int, len(sf.SampleHeaders))
	for i, h := range sf.SampleHeaders {
		sampleIndex[h] = i
		font.Samples[i] = SampleHeader{
			Name:            h.Name,
			Start:           uint32(h.Start),
			End:             uint32(h.End),
			OriginalPitch:   uint8(h.OriginalPitch),
			PitchCorrection: int8(h.PitchCorrection),
			Type:            sampleType(int(h.SampleType)),
		}
	}

	instrumentIndex := make(map[*meltysynth.Instrument]int, len(sf.Instruments))
	for i, inst := range sf.Instruments {
		instrumentIndex[inst] = i
		regions := make([]InstrumentRegion, 0, len(inst.Regions))
		for _, r := range inst.Regions {
			idx, ok := sampleIndex[r.Sample]
			if !ok {
				continue
			}
			regions = append(regions, InstrumentRegion{
				KeyRange:      keyRange(int32(r.GetKeyRangeStart()), int32(r.GetKeyRangeEnd())),
				VelocityRange: keyRange(int32(r.GetVelocityRangeStart()), int32(r.GetVelocityRangeEnd())),
				Sample:        idx,
			})
		}
		font.Instruments[i] = Instrument{Name: inst.Name, Regions: regions}
	}

	for i, p := range sf.Presets {
		regions := make([]PresetRegion, 0, len(p.Regions))
		for _, r := range p.Regions {
			idx, ok := instrumentIndex[r.Instrument]
			if !ok {
				continue
			}
			regions = append(regions, PresetRegion{
				KeyRange:      keyRange(int32(r.GetKeyRangeStart()), int32(r.GetKeyRangeEnd())),
				VelocityRange: keyRange(int32(r.GetVelocityRangeStart()), int32(r.GetVelocityRangeEnd())),
				Instrument:    idx,
			})
		}
		font.Presets[i] = Preset{
			Name:    p.Name,
			Bank:    uint8(p.BankNumber),
			Patch:   uint8(p.PatchNumber),
			Regions: regions,
		}
	}
	return font
}

func keyRange(lo, hi int32) Range {
	return Range{Lo: clampMIDI(lo), Hi: clampMIDI(hi)}
}

func clampMIDI(v int32) uint8 {
	if v < 0 {
		return 0
	}
	if v > 127 {
		return 127
	}
	return uint8(v)
}

func sampleType(raw int) SampleType {
	// ROM and linked flags share the high bits; placement lives in the low three.
	switch SampleType(raw & 0x7) {
	case Right:
		return Right
	case Left:
		return Left
	default:
		return Mono
	}
}
