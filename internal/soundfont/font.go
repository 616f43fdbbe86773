package soundfont

// SampleType mirrors the SF2 sample link type. Only the channel placement
// matters to playback.
type SampleType int

const (
	Mono  SampleType = 1
	Right SampleType = 2
	Left  SampleType = 4
)

func (t SampleType) String() string {
	switch t {
	case Mono:
		return "mono"
	case Right:
		return "right"
	case Left:
		return "left"
	default:
		return "unknown"
	}
}

// Range is an inclusive key or velocity range.
type Range struct {
	Lo, Hi uint8
}

var FullRange = Range{Lo: 0, Hi: 127}

func (r Range) Contains(v uint8) bool {
	return r.Lo <= v && v <= r.Hi
}

type SampleHeader struct {
	Name            string
	Start           uint32
	End             uint32
	OriginalPitch   uint8
	PitchCorrection int8
	Type            SampleType
}

type InstrumentRegion struct {
	KeyRange      Range
	VelocityRange Range
	Sample        int
}

func (r InstrumentRegion) contains(note, velocity uint8) bool {
	return r.KeyRange.Contains(note) && r.VelocityRange.Contains(velocity)
}

type Instrument struct {
	Name    string
	Regions []InstrumentRegion
}

type PresetRegion struct {
	KeyRange      Range
	VelocityRange Range
	Instrument    int
}

func (r PresetRegion) contains(note, velocity uint8) bool {
	return r.KeyRange.Contains(note) && r.VelocityRange.Contains(velocity)
}

type Preset struct {
	Name    string
	Bank    uint8
	Patch   uint8
	Regions []PresetRegion
}

// Font is the decoded sample bank. It is never mutated after loading.
type Font struct {
	WaveData    []int16
	Samples     []SampleHeader
	Instruments []Instrument
	Presets     []Preset
}
