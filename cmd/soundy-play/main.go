package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"
	"github.com/cwbudde/algo-dsp/dsp/core"

	soundy "github.com/DragonFoxCollective/soundygo"
	"github.com/DragonFoxCollective/soundygo/internal/arrangement"
	intaudio "github.com/DragonFoxCollective/soundygo/internal/audio"
)

// frameInterval is how often playback mode calls Advance, standing in for a
// host's update loop.
const frameInterval = time.Second / 60

func main() {
	var (
		arrangementPath = flag.String("arrangement", "", "path to a YAML arrangement (overrides -soundfont/-midi)")
		soundfontPath   = flag.String("soundfont", "", "path to an SF2 soundfont")
		midiPath        = flag.String("midi", "", "path to a standard MIDI file")
		timeSignature   = flag.Float64("time-signature", 1, "meter as a fraction, e.g. 0.75 for 3/4")
		sampleRate      = flag.Int("sample-rate", soundy.DefaultSampleRate, "output sample rate")
		wavPath         = flag.String("wav", "", "render to this WAV file instead of the audio device")
		seconds         = flag.Float64("seconds", 0, "stop after N seconds (required with -wav, 0 = forever otherwise)")
		live            = flag.Bool("live", false, "play notes from the keyboard")
		volumeDB        = flag.Float64("volume-db", 0, "output gain in dB")
		logLevel        = flag.String("log-level", "info", "debug|info|warn|error")
	)
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "soundy",
	})
	level, err := log.ParseLevel(*logLevel)
	if err != nil {
		logger.Fatal("invalid -log-level", "err", err)
	}
	logger.SetLevel(level)

	m, err := buildMixer(*arrangementPath, *soundfontPath, *midiPath, *timeSignature, *sampleRate, logger)
	if err != nil {
		logger.Fatal("setup failed", "err", err)
	}

	if *wavPath != "" {
		if *seconds <= 0 {
			logger.Fatal("-wav needs -seconds")
		}
		if err := renderWAV(m, *wavPath, *seconds); err != nil {
			logger.Fatal("render failed", "err", err)
		}
		logger.Info("wrote wav", "path", *wavPath, "seconds", *seconds)
		return
	}

	player, err := intaudio.NewPlayer(m.Stream())
	if err != nil {
		logger.Fatal("audio device", "err", err)
	}
	defer player.Stop()
	player.SetVolume(core.DBToLinear(*volumeDB))

	if *live {
		logger.SetOutput(discardUnlessDebug(level))
		if err := runLive(m, player); err != nil {
			logger.Fatal("live mode", "err", err)
		}
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if *seconds > 0 {
		ctx, cancel = context.WithTimeout(ctx, time.Duration(*seconds*float64(time.Second)))
		defer cancel()
	}
	play(ctx, m, player, logger)
}

func buildMixer(arrangementPath, soundfontPath, midiPath string, ts float64, rate int, logger *log.Logger) (*soundy.Mixer, error) {
	if arrangementPath != "" {
		a, fsys, err := arrangement.Load(arrangementPath)
		if err != nil {
			return nil, err
		}
		m, _, err := a.Mixer(fsys, soundy.WithLogger(logger))
		return m, err
	}
	if soundfontPath == "" {
		return nil, errors.New("need -arrangement or -soundfont")
	}
	sf2, err := os.ReadFile(soundfontPath)
	if err != nil {
		return nil, err
	}
	m, err := soundy.FromBytes(sf2, soundy.WithSampleRate(rate), soundy.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if midiPath == "" {
		m.AddTrack(soundy.NewTrackFromTimeline(nil, ts))
		return m, nil
	}
	data, err := os.ReadFile(midiPath)
	if err != nil {
		return nil, err
	}
	track, err := soundy.NewTrack(data, ts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", midiPath, err)
	}
	m.AddTrack(track)
	return m, nil
}

func renderWAV(m *soundy.Mixer, path string, seconds float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := m.RenderWAV(f, seconds); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// play drives the mixer from a frame ticker until ctx is done.
func play(ctx context.Context, m *soundy.Mixer, player *intaudio.Player, logger *log.Logger) {
	events := m.Watch()
	m.Advance(100 * time.Millisecond)
	player.Play()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Advance(now.Sub(last))
			last = now
		case ev := <-events:
			for _, t := range ev.Boundaries.Timings() {
				if t == soundy.TimingLoop {
					logger.Info("loop", "track", ev.Track)
				} else {
					logger.Debug(t.String(), "track", ev.Track, "beat", ev.Beat)
				}
			}
		}
	}
}
