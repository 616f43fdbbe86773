package voice

import (
	"math"
	"testing"

	"github.com/DragonFoxCollective/soundygo/internal/soundfont"
	"github.com/DragonFoxCollective/soundygo/internal/soundfont/sftest"
)

func TestSpeed(t *testing.T) {
	cases := []struct {
		note, pitch uint8
		cents       int8
		want        float64
	}{
		{60, 60, 0, 1},
		{72, 60, 0, 2},
		{48, 60, 0, 0.5},
		{67, 60, 0, math.Pow(2, 7.0/12)},
		{60, 60, 50, math.Pow(2, 0.5/12)},
	}
	for _, tc := range cases {
		got := float64(Speed(tc.note, tc.pitch, tc.cents))
		if math.Abs(got-tc.want) > 1e-5 {
			t.Fatalf("Speed(%d,%d,%d) = %v, want %v", tc.note, tc.pitch, tc.cents, got, tc.want)
		}
	}
}

func TestNewWithoutHeadersIsNil(t *testing.T) {
	if v := New(60, 100, nil); v != nil {
		t.Fatalf("expected nil voice, got %#v", v)
	}
	if v := New(60, 100, []soundfont.SampleHeader{}); v != nil {
		t.Fatalf("expected nil voice for empty headers, got %#v", v)
	}
}

func TestVoiceInterpolatesLinearly(t *testing.T) {
	wave := []int16{0, 1000, 2000, 0}
	v := &Voice{Samples: []Sample{{Speed: 0.25, Current: 0, End: 3, Mask: soundfont.Mono, Volume: 1}}}
	want := []int32{0, 250, 500, 750, 1000, 1250}
	for i, w := range want {
		if got := v.Sample(wave, 0); got != w {
			t.Fatalf("frame %d: got %d want %d", i, got, w)
		}
		v.Advance()
	}
}

func TestVoiceVolumeScalesByVelocity(t *testing.T) {
	font := sftest.Constant(0, 0, 1270, 16)
	v := New(60, 64, []soundfont.SampleHeader{font.Samples[0]})
	vel := float32(64)
	want := int32(1270 * float64(vel/127))
	if got := v.Sample(font.WaveData, 0); got != want {
		t.Fatalf("got %d want %d", got, want)
	}
}

func TestVoiceChannelMask(t *testing.T) {
	font := sftest.Stereo(100, -200, 8)
	v := New(60, 127, font.Samples)
	if got := v.Sample(font.WaveData, 0); got != 100 {
		t.Fatalf("left channel = %d, want 100", got)
	}
	if got := v.Sample(font.WaveData, 1); got != -200 {
		t.Fatalf("right channel = %d, want -200", got)
	}
	if got := v.Sample(font.WaveData, 2); got != 0 {
		t.Fatalf("third channel = %d, want 0", got)
	}
	mono := New(60, 127, sftest.Constant(0, 0, 300, 8).Samples)
	wave := sftest.Constant(0, 0, 300, 8).WaveData
	for ch := 0; ch < 4; ch++ {
		if got := mono.Sample(wave, ch); got != 300 {
			t.Fatalf("mono on channel %d = %d, want 300", ch, got)
		}
	}
}

func TestVoiceExhaustsAtEnd(t *testing.T) {
	font := sftest.Constant(0, 0, 500, 4)
	v := New(60, 127, font.Samples)
	for i := 0; i < 4; i++ {
		if v.Exhausted() {
			t.Fatalf("exhausted too early at frame %d", i)
		}
		if got := v.Sample(font.WaveData, 0); got == 0 {
			t.Fatalf("frame %d silent", i)
		}
		v.Advance()
	}
	if !v.Exhausted() {
		t.Fatalf("expected voice exhausted after 4 frames")
	}
	if got := v.Sample(font.WaveData, 0); got != 0 {
		t.Fatalf("exhausted voice sampled %d", got)
	}
}

func TestVoiceOutOfRangeReadsSilence(t *testing.T) {
	v := &Voice{Samples: []Sample{{Speed: 1, Current: 10, End: 20, Mask: soundfont.Mono, Volume: 1}}}
	if got := v.Sample([]int16{1, 2, 3}, 0); got != 0 {
		t.Fatalf("got %d want 0", got)
	}
}

func TestChannelLifecycle(t *testing.T) {
	bank := soundfont.NewBank(sftest.Constant(0, 0, 1000, 3))
	ch := NewChannel(0, 0)
	if !ch.NoteOn(bank, 60, 127) {
		t.Fatalf("expected voice for note 60")
	}
	first := ch.Voices[60]
	ch.Advance()
	if !ch.NoteOn(bank, 60, 127) {
		t.Fatalf("expected retrigger")
	}
	if ch.Voices[60] == first || len(ch.Voices) != 1 {
		t.Fatalf("retrigger should replace the voice")
	}
	ch.NoteOff(60)
	if len(ch.Voices) != 0 {
		t.Fatalf("note off should remove the voice immediately")
	}
	ch.NoteOn(bank, 62, 127)
	for i := 0; i < 10; i++ {
		ch.Advance()
	}
	if len(ch.Voices) != 0 {
		t.Fatalf("exhausted voice should be pruned, have %d", len(ch.Voices))
	}
}

func TestChannelUnknownPresetDropsNote(t *testing.T) {
	bank := soundfont.NewBank(sftest.Constant(0, 0, 1000, 3))
	ch := NewChannel(0, 5)
	if ch.NoteOn(bank, 60, 127) {
		t.Fatalf("expected note to be dropped")
	}
	if len(ch.Voices) != 0 {
		t.Fatalf("no voice expected")
	}
}

func TestChannelPatchChangeKeepsSoundingVoices(t *testing.T) {
	bank := soundfont.NewBank(sftest.Constant(0, 0, 1000, 100))
	ch := NewChannel(0, 0)
	ch.NoteOn(bank, 60, 127)
	ch.Patch = 7
	if got := ch.Sample(bank.WaveData(), 0); got != 1000 {
		t.Fatalf("sounding voice changed after patch switch: %d", got)
	}
}
