package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	soundy "github.com/DragonFoxCollective/soundygo"
	intaudio "github.com/DragonFoxCollective/soundygo/internal/audio"
)

// noteGate is how long a key press holds its note.
const noteGate = 400 * time.Millisecond

// keyOffsets maps a piano-style row of keys to semitones above the base C.
var keyOffsets = map[string]int{
	"a": 0, "w": 1, "s": 2, "e": 3, "d": 4, "f": 5, "t": 6,
	"g": 7, "y": 8, "h": 9, "u": 10, "j": 11, "k": 12, "o": 13, "l": 14,
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	playingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	stoppedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type frameMsg time.Time

type noteOffMsg struct {
	note soundy.Note
	seq  int
}

type liveModel struct {
	mixer   *soundy.Mixer
	last    time.Time
	base    soundy.Note
	lastKey string
	status  string

	// held counts presses per note so an early gate does not cut a retrigger.
	held map[soundy.Note]int
}

func discardUnlessDebug(level log.Level) io.Writer {
	if level <= log.DebugLevel {
		return os.Stderr
	}
	return io.Discard
}

func runLive(m *soundy.Mixer, player *intaudio.Player) error {
	m.Advance(100 * time.Millisecond)
	player.Play()
	model := liveModel{
		mixer: m,
		last:  time.Now(),
		base:  soundy.MiddleC,
		held:  make(map[soundy.Note]int),
	}
	_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}

func nextFrame() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m liveModel) Init() tea.Cmd { return nextFrame() }

func (m liveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		now := time.Time(msg)
		m.mixer.Advance(now.Sub(m.last))
		m.last = now
		return m, nextFrame()

	case noteOffMsg:
		if m.held[msg.note] == msg.seq {
			delete(m.held, msg.note)
			if err := m.mixer.StopPlayingNote(msg.note); err != nil {
				m.status = err.Error()
			}
		}
		return m, nil

	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			cmd := m.toggleOnBar()
			return m, cmd
		case "z":
			if m.base >= 12 {
				m.base -= 12
			}
			return m, nil
		case "x":
			if m.base <= 127-24 {
				m.base += 12
			}
			return m, nil
		}
		if off, ok := keyOffsets[key]; ok {
			cmd := m.press(key, off)
			return m, cmd
		}
	}
	return m, nil
}

func (m *liveModel) press(key string, offset int) tea.Cmd {
	v := int(m.base) + offset
	if v > 127 {
		return nil
	}
	note := soundy.Note(v)
	if err := m.mixer.StartPlayingNote(note); err != nil {
		m.status = err.Error()
		return nil
	}
	m.lastKey = key
	m.held[note]++
	seq := m.held[note]
	return tea.Tick(noteGate, func(time.Time) tea.Msg { return noteOffMsg{note: note, seq: seq} })
}

// toggleOnBar queues the primary track to stop or start on its next bar.
func (m *liveModel) toggleOnBar() tea.Cmd {
	h, ok := m.mixer.PrimaryTrack()
	if !ok {
		m.status = soundy.ErrNoTracks.Error()
		return nil
	}
	if m.mixer.IsPlaying(h) {
		m.mixer.Queue(h, soundy.StopOn(soundy.TimingBar))
		m.status = "stop queued for next bar"
	} else {
		m.mixer.Queue(h, soundy.PlayOn(soundy.TimingBar))
		m.status = "play queued for next bar"
	}
	return nil
}

func (m liveModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("soundy live"))
	b.WriteString("\n\n")
	primary, _ := m.mixer.PrimaryTrack()
	for _, h := range m.mixer.Tracks() {
		info, ok := m.mixer.Synced(h)
		if !ok {
			continue
		}
		state := stoppedStyle.Render("stopped")
		if info.Playing {
			state = playingStyle.Render("playing")
		}
		marker := " "
		if h == primary {
			marker = "*"
		}
		bar := int(info.Beat / info.BeatsPerBar)
		beatInBar := info.Beat - float64(bar)*info.BeatsPerBar
		fmt.Fprintf(&b, "%s track %d  %s  %s %3d.%-4.1f  %s %.0f  %s %d\n",
			marker, h, state,
			labelStyle.Render("bar"), bar+1, beatInBar+1,
			labelStyle.Render("bpm"), info.BeatsPerSecond*60,
			labelStyle.Render("loops"), info.Loops)
	}
	fmt.Fprintf(&b, "\n%s %s   %s %q\n", labelStyle.Render("octave base"), m.base, labelStyle.Render("last key"), m.lastKey)
	if m.status != "" {
		b.WriteString(m.status)
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("a-l: notes  z/x: octave  space: stop/play on bar  q: quit"))
	return boxStyle.Render(b.String())
}
