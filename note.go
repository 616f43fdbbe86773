package soundy

import (
	"fmt"
	"strconv"
	"strings"
)

// Note is a MIDI note number. Middle C (C4) is 60.
type Note uint8

const MiddleC Note = 60

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var pitchClasses = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

func (n Note) Octave() int { return int(n)/12 - 1 }

func (n Note) String() string {
	return noteNames[int(n)%12] + strconv.Itoa(n.Octave())
}

// ParseNote reads scientific pitch notation such as "C4", "F#3" or "Bb-1".
func ParseNote(s string) (Note, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty note name")
	}
	pc, ok := pitchClasses[strings.ToUpper(s[:1])[0]]
	if !ok {
		return 0, fmt.Errorf("invalid note %q", s)
	}
	rest := s[1:]
	for len(rest) > 0 && (rest[0] == '#' || rest[0] == 'b') {
		if rest[0] == '#' {
			pc++
		} else {
			pc--
		}
		rest = rest[1:]
	}
	octave, err := strconv.Atoi(rest)
	if err != nil {
		return 0, fmt.Errorf("invalid octave in note %q", s)
	}
	v := (octave+1)*12 + pc
	if v < 0 || v > 127 {
		return 0, fmt.Errorf("note %q out of MIDI range", s)
	}
	return Note(v), nil
}
