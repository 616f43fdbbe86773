package soundfont

type presetKey struct {
	bank, patch uint8
}

// Bank indexes a Font's presets by bank and patch number. It is read-only
// after NewBank returns, so one Bank can serve every sequencer at once.
type Bank struct {
	font    *Font
	presets map[presetKey]int
}

func NewBank(font *Font) *Bank {
	b := &Bank{
		font:    font,
		presets: make(map[presetKey]int, len(font.Presets)),
	}
	for i, p := range font.Presets {
		b.presets[presetKey{p.Bank, p.Patch}] = i
	}
	return b
}

func (b *Bank) Font() *Font { return b.font }

func (b *Bank) WaveData() []int16 { return b.font.WaveData }

func (b *Bank) HasPreset(bank, patch uint8) bool {
	_, ok := b.presets[presetKey{bank, patch}]
	return ok
}

// Resolve returns the sample headers that should sound for note and
// velocity on the given preset. ok is false when no preset exists for
// bank/patch; an empty result with ok true means no region matched.
func (b *Bank) Resolve(note, velocity, bank, patch uint8) (samples []SampleHeader, ok bool) {
	idx, ok := b.presets[presetKey{bank, patch}]
	if !ok {
		return nil, false
	}
	samples = []SampleHeader{}
	for _, pr := range b.font.Presets[idx].Regions {
		if !pr.contains(note, velocity) {
			continue
		}
		if pr.Instrument < 0 || pr.Instrument >= len(b.font.Instruments) {
			continue
		}
		for _, ir := range b.font.Instruments[pr.Instrument].Regions {
			if !ir.contains(note, velocity) {
				continue
			}
			if ir.Sample < 0 || ir.Sample >= len(b.font.Samples) {
				continue
			}
			samples = append(samples, b.font.Samples[ir.Sample])
		}
	}
	return samples, true
}
