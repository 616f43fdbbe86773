// Package sftest builds small in-memory sample banks for tests.
package sftest

import "github.com/DragonFoxCollective/soundygo/internal/soundfont"

// Constant returns a font with one full-range preset at bank/patch whose
// single mono sample holds length copies of level, pitched at note 60.
func Constant(bank, patch uint8, level int16, length int) *soundfont.Font {
	wave := make([]int16, length+1)
	for i := 0; i < length; i++ {
		wave[i] = level
	}
	return &soundfont.Font{
		WaveData: wave,
		Samples: []soundfont.SampleHeader{
			{Name: "constant", Start: 0, End: uint32(length), OriginalPitch: 60, Type: soundfont.Mono},
		},
		Instruments: []soundfont.Instrument{
			{Name: "constant", Regions: []soundfont.InstrumentRegion{
				{KeyRange: soundfont.FullRange, VelocityRange: soundfont.FullRange, Sample: 0},
			}},
		},
		Presets: []soundfont.Preset{
			{Name: "constant", Bank: bank, Patch: patch, Regions: []soundfont.PresetRegion{
				{KeyRange: soundfont.FullRange, VelocityRange: soundfont.FullRange, Instrument: 0},
			}},
		},
	}
}

// Stereo returns a font with one full-range preset at bank 0 patch 0 layering
// a left sample at left and a right sample at right.
func Stereo(left, right int16, length int) *soundfont.Font {
	wave := make([]int16, 0, 2*length+2)
	for i := 0; i < length; i++ {
		wave = append(wave, left)
	}
	wave = append(wave, 0)
	for i := 0; i < length; i++ {
		wave = append(wave, right)
	}
	wave = append(wave, 0)
	rightStart := uint32(length + 1)
	return &soundfont.Font{
		WaveData: wave,
		Samples: []soundfont.SampleHeader{
			{Name: "L", Start: 0, End: uint32(length), OriginalPitch: 60, Type: soundfont.Left},
			{Name: "R", Start: rightStart, End: rightStart + uint32(length), OriginalPitch: 60, Type: soundfont.Right},
		},
		Instruments: []soundfont.Instrument{
			{Name: "stereo", Regions: []soundfont.InstrumentRegion{
				{KeyRange: soundfont.FullRange, VelocityRange: soundfont.FullRange, Sample: 0},
				{KeyRange: soundfont.FullRange, VelocityRange: soundfont.FullRange, Sample: 1},
			}},
		},
		Presets: []soundfont.Preset{
			{Name: "stereo", Regions: []soundfont.PresetRegion{
				{KeyRange: soundfont.FullRange, VelocityRange: soundfont.FullRange, Instrument: 0},
			}},
		},
	}
}

// Ramp returns a font like Constant at bank 0 patch 0 whose sample value
// equals its offset, so wave[i] == i for every i below length.
func Ramp(length int) *soundfont.Font {
	f := Constant(0, 0, 0, length)
	for i := 0; i < length; i++ {
		f.WaveData[i] = int16(i)
	}
	f.Samples[0].Name = "ramp"
	return f
}

// Presets returns a font with one constant-level preset per entry of levels
// in bank 0, patch i sounding at levels[i].
func Presets(length int, levels ...int16) *soundfont.Font {
	f := &soundfont.Font{}
	for i, level := range levels {
		start := uint32(len(f.WaveData))
		for j := 0; j < length; j++ {
			f.WaveData = append(f.WaveData, level)
		}
		f.WaveData = append(f.WaveData, 0)
		f.Samples = append(f.Samples, soundfont.SampleHeader{
			Name: "preset", Start: start, End: start + uint32(length), OriginalPitch: 60, Type: soundfont.Mono,
		})
		f.Instruments = append(f.Instruments, soundfont.Instrument{
			Name: "preset", Regions: []soundfont.InstrumentRegion{
				{KeyRange: soundfont.FullRange, VelocityRange: soundfont.FullRange, Sample: i},
			},
		})
		f.Presets = append(f.Presets, soundfont.Preset{
			Name: "preset", Patch: uint8(i), Regions: []soundfont.PresetRegion{
				{KeyRange: soundfont.FullRange, VelocityRange: soundfont.FullRange, Instrument: i},
			},
		})
	}
	return f
}
