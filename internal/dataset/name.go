package dataset

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ErrUnrecognizedName is returned for file names that do not follow the
// Instrument.[technique.]dynamic.Pitch[.extra].ext convention.
var ErrUnrecognizedName = errors.New("dataset: unrecognized sample name")

// Dynamics in increasing loudness.
var Dynamics = []string{"ppp", "pp", "p", "mp", "mf", "f", "ff", "fff"}

var audioExts = map[string]bool{".wav": true, ".aif": true, ".aiff": true}

var pitchRE = regexp.MustCompile(`^([A-Ga-g])([#b]?)(-?\d)$`)

// Sample is one parsed recording.
type Sample struct {
	Path       string
	Instrument string
	Technique  string // empty when the name has no technique field
	Dynamic    string
	Pitch      string
	Extra      []string
}

// Key is the instrument key used by Index: the instrument name, suffixed with
// the technique when there is one ("Violin.pizz").
func (s Sample) Key() string {
	if s.Technique == "" {
		return s.Instrument
	}
	return s.Instrument + "." + s.Technique
}

// ParseName parses the base name of path.
func ParseName(path string) (Sample, error) {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if !audioExts[strings.ToLower(ext)] {
		return Sample{}, fmt.Errorf("%w: %q is not an audio file", ErrUnrecognizedName, base)
	}
	parts := strings.Split(strings.TrimSuffix(base, ext), ".")
	if len(parts) < 3 || parts[0] == "" {
		return Sample{}, fmt.Errorf("%w: %q", ErrUnrecognizedName, base)
	}

	// The dynamic is the first field after the instrument that is
	// immediately followed by a pitch.
	for i := 1; i+1 < len(parts); i++ {
		if !isDynamic(parts[i]) || !pitchRE.MatchString(parts[i+1]) {
			continue
		}
		s := Sample{
			Path:       path,
			Instrument: parts[0],
			Technique:  strings.Join(parts[1:i], "."),
			Dynamic:    parts[i],
			Pitch:      parts[i+1],
		}
		if i+2 < len(parts) {
			s.Extra = parts[i+2:]
		}
		return s, nil
	}
	return Sample{}, fmt.Errorf("%w: %q has no dynamic.pitch fields", ErrUnrecognizedName, base)
}

func isDynamic(s string) bool {
	return dynamicRank(s) >= 0
}

func dynamicRank(s string) int {
	for i, d := range Dynamics {
		if d == s {
			return i
		}
	}
	return -1
}

// MIDINote converts scientific pitch notation ("C4", "Bb3", "F#-1") to a
// MIDI note number, with C4 = 60.
func MIDINote(pitch string) (int, error) {
	m := pitchRE.FindStringSubmatch(pitch)
	if m == nil {
		return 0, fmt.Errorf("invalid pitch %q", pitch)
	}
	semis := map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}
	n := semis[strings.ToUpper(m[1])[0]]
	switch m[2] {
	case "#":
		n++
	case "b":
		n--
	}
	octave, _ := strconv.Atoi(m[3])
	return 12*(octave+1) + n, nil
}

// Frequency returns the equal-tempered frequency of pitch with A4 = 440 Hz.
func Frequency(pitch string) (float64, error) {
	n, err := MIDINote(pitch)
	if err != nil {
		return 0, err
	}
	return 440 * math.Pow(2, float64(n-69)/12), nil
}
