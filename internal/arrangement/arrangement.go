// Package arrangement loads YAML files describing a soundfont and the MIDI
// tracks to layer over it.
package arrangement

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	soundy "github.com/DragonFoxCollective/soundygo"
)

type Arrangement struct {
	SoundFont  string  `yaml:"soundfont"`
	SampleRate int     `yaml:"sample_rate,omitempty"`
	Channels   int     `yaml:"channels,omitempty"`
	Tracks     []Track `yaml:"tracks"`
}

type Track struct {
	MIDI          string    `yaml:"midi"`
	TimeSignature float64   `yaml:"time_signature,omitempty"`
	Stopped       bool      `yaml:"stopped,omitempty"`
	Primary       bool      `yaml:"primary,omitempty"`
	Patches       []Patch   `yaml:"patches,omitempty"`
	Queue         []Command `yaml:"queue,omitempty"`
}

type Patch struct {
	Channel uint8 `yaml:"channel"`
	Bank    uint8 `yaml:"bank"`
	Patch   uint8 `yaml:"patch"`
}

// Command is the YAML form of a queued command. A "queue" action carries
// the command it schedules in Then.
type Command struct {
	Action string   `yaml:"action"`
	On     string   `yaml:"on"`
	Repeat string   `yaml:"repeat,omitempty"`
	Then   *Command `yaml:"then,omitempty"`
}

func Parse(data []byte) (*Arrangement, error) {
	var a Arrangement
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("parse arrangement: %w", err)
	}
	if a.SoundFont == "" {
		return nil, fmt.Errorf("arrangement has no soundfont")
	}
	for i, t := range a.Tracks {
		if t.MIDI == "" {
			return nil, fmt.Errorf("track %d: missing midi path", i)
		}
		for j, c := range t.Queue {
			if _, err := c.Build(); err != nil {
				return nil, fmt.Errorf("track %d queue %d: %w", i, j, err)
			}
		}
	}
	return &a, nil
}

// Load reads an arrangement file. Relative paths inside it are resolved
// against the file's directory by Open.
func Load(path string) (*Arrangement, fs.FS, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	a, err := Parse(data)
	if err != nil {
		return nil, nil, err
	}
	return a, os.DirFS(filepath.Dir(path)), nil
}

func (c Command) Build() (soundy.Command, error) {
	on, err := soundy.ParseTiming(c.On)
	if err != nil {
		return soundy.Command{}, err
	}
	var cmd soundy.Command
	switch strings.ToLower(strings.TrimSpace(c.Action)) {
	case "play":
		cmd = soundy.PlayOn(on)
	case "stop":
		cmd = soundy.StopOn(on)
	case "queue":
		if c.Then == nil {
			return soundy.Command{}, fmt.Errorf("queue action needs a then command")
		}
		inner, err := c.Then.Build()
		if err != nil {
			return soundy.Command{}, err
		}
		cmd = soundy.QueueOn(on, inner)
	default:
		return soundy.Command{}, fmt.Errorf("unknown action %q (expected play|stop|queue)", c.Action)
	}
	switch strings.ToLower(strings.TrimSpace(c.Repeat)) {
	case "", "once":
	case "loop":
		cmd = cmd.Repeating()
	default:
		return soundy.Command{}, fmt.Errorf("unknown repeat %q (expected once|loop)", c.Repeat)
	}
	return cmd, nil
}

// Options returns the mixer options the arrangement asks for.
func (a *Arrangement) Options() []soundy.Option {
	var opts []soundy.Option
	if a.SampleRate > 0 {
		opts = append(opts, soundy.WithSampleRate(a.SampleRate))
	}
	if a.Channels > 0 {
		opts = append(opts, soundy.WithChannels(a.Channels))
	}
	return opts
}

// Mixer loads the soundfont from fsys and attaches every track.
func (a *Arrangement) Mixer(fsys fs.FS, opts ...soundy.Option) (*soundy.Mixer, []soundy.TrackHandle, error) {
	sf2, err := fs.ReadFile(fsys, a.SoundFont)
	if err != nil {
		return nil, nil, fmt.Errorf("read soundfont: %w", err)
	}
	m, err := soundy.FromBytes(sf2, append(a.Options(), opts...)...)
	if err != nil {
		return nil, nil, fmt.Errorf("load soundfont %s: %w", a.SoundFont, err)
	}
	handles, err := a.Attach(m, fsys)
	if err != nil {
		return nil, nil, err
	}
	return m, handles, nil
}

// Attach parses every track's MIDI file from fsys and adds it to m.
func (a *Arrangement) Attach(m *soundy.Mixer, fsys fs.FS) ([]soundy.TrackHandle, error) {
	tracks := make([]*soundy.Track, 0, len(a.Tracks))
	for i, entry := range a.Tracks {
		tr, err := entry.build(fsys)
		if err != nil {
			return nil, fmt.Errorf("track %d (%s): %w", i, entry.MIDI, err)
		}
		tracks = append(tracks, tr)
	}
	handles := make([]soundy.TrackHandle, 0, len(tracks))
	for i, tr := range tracks {
		h := m.AddTrack(tr)
		handles = append(handles, h)
		if a.Tracks[i].Primary {
			if err := m.SetPrimaryTrack(h); err != nil {
				return nil, err
			}
		}
	}
	return handles, nil
}

func (t Track) build(fsys fs.FS) (*soundy.Track, error) {
	data, err := fs.ReadFile(fsys, t.MIDI)
	if err != nil {
		return nil, err
	}
	ts := t.TimeSignature
	if ts == 0 {
		ts = 1
	}
	tr, err := soundy.NewTrack(data, ts)
	if err != nil {
		return nil, err
	}
	for _, p := range t.Patches {
		tr.WithChannelPatch(p.Channel, p.Bank, p.Patch)
	}
	for _, c := range t.Queue {
		cmd, err := c.Build()
		if err != nil {
			return nil, err
		}
		tr.WithQueue(cmd)
	}
	if t.Stopped {
		tr.Stopped()
	}
	return tr, nil
}
