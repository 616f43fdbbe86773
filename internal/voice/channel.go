package voice

import "github.com/DragonFoxCollective/soundygo/internal/soundfont"

// DrumChannel is the zero-based index of General MIDI channel 10.
const DrumChannel = 9

// DrumBank is the SF2 bank number for percussion kits.
const DrumBank = 128

// Channel holds the preset selection and sounding voices of one MIDI channel.
type Channel struct {
	Bank   uint8
	Patch  uint8
	Voices map[uint8]*Voice
}

func NewChannel(bank, patch uint8) *Channel {
	return &Channel{Bank: bank, Patch: patch, Voices: make(map[uint8]*Voice)}
}

// NoteOn resolves note against the channel's current preset and starts a
// voice, replacing any voice already sounding on that note. It reports
// whether a voice was started.
func (c *Channel) NoteOn(bank *soundfont.Bank, note, velocity uint8) bool {
	headers, ok := bank.Resolve(note, velocity, c.Bank, c.Patch)
	if !ok {
		return false
	}
	v := New(note, velocity, headers)
	if v == nil {
		return false
	}
	c.Voices[note] = v
	return true
}

func (c *Channel) NoteOff(note uint8) {
	delete(c.Voices, note)
}

func (c *Channel) Sample(wave []int16, outputChannel int) int32 {
	var sum int32
	for _, v := range c.Voices {
		sum += v.Sample(wave, outputChannel)
	}
	return sum
}

// Advance steps every voice one frame and drops those that ran out of data.
func (c *Channel) Advance() {
	for note, v := range c.Voices {
		v.Advance()
		if v.Exhausted() {
			delete(c.Voices, note)
		}
	}
}

func (c *Channel) Reset() {
	clear(c.Voices)
}
