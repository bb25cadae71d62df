package dataset

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/embedtrack/internal/fsutil"
)

func TestParseName(t *testing.T) {
	tests := []struct {
		path string
		want Sample
	}{
		{
			"/s/Flute.ff.C4.wav",
			Sample{Path: "/s/Flute.ff.C4.wav", Instrument: "Flute", Dynamic: "ff", Pitch: "C4"},
		},
		{
			"Violin.arco.sulG.mf.Bb3.stereo.aif",
			Sample{
				Path: "Violin.arco.sulG.mf.Bb3.stereo.aif", Instrument: "Violin",
				Technique: "arco.sulG", Dynamic: "mf", Pitch: "Bb3", Extra: []string{"stereo"},
			},
		},
		{
			"Horn.p.F#2.AIFF",
			Sample{Path: "Horn.p.F#2.AIFF", Instrument: "Horn", Dynamic: "p", Pitch: "F#2"},
		},
		{
			// "f" is a dynamic only when followed by a pitch.
			"Bass.f.pp.E1.wav",
			Sample{Path: "Bass.f.pp.E1.wav", Instrument: "Bass", Technique: "f", Dynamic: "pp", Pitch: "E1"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := ParseName(tt.path)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseName mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseNameRejects(t *testing.T) {
	for _, name := range []string{
		"notes.txt",
		"Flute.wav",
		"Flute.ff.wav",
		"Flute.loud.C4.wav",
		"Flute.ff.H4.wav",
		".ff.C4.wav",
	} {
		_, err := ParseName(name)
		assert.True(t, errors.Is(err, ErrUnrecognizedName), "%s: %v", name, err)
	}
}

func TestMIDINoteAndFrequency(t *testing.T) {
	tests := []struct {
		pitch string
		midi  int
	}{
		{"C4", 60}, {"A4", 69}, {"Bb3", 58}, {"F#2", 42}, {"C-1", 0}, {"B9", 131},
	}
	for _, tt := range tests {
		n, err := MIDINote(tt.pitch)
		require.NoError(t, err)
		assert.Equal(t, tt.midi, n, tt.pitch)
	}

	f, err := Frequency("A4")
	require.NoError(t, err)
	assert.Equal(t, 440.0, f)
	f, _ = Frequency("A5")
	assert.InDelta(t, 880, f, 1e-9)
	f, _ = Frequency("C4")
	assert.InDelta(t, 261.6256, f, 1e-4)

	_, err = MIDINote("X4")
	assert.Error(t, err)
}

func testTree() *fsutil.MemoryFileSystem {
	mfs := fsutil.NewMemoryFileSystem()
	for _, p := range []string{
		"/lib/Flute/Flute.ff.C4.wav",
		"/lib/Flute/Flute.pp.C4.wav",
		"/lib/Flute/Flute.mf.Bb3.wav",
		"/lib/Flute/Flute.mf.D5.wav",
		"/lib/Flute/take2/Flute.ff.C4.wav", // duplicate, loses to the first
		"/lib/Violin/Violin.pizz.f.G3.aif",
		"/lib/Violin/Violin.arco.f.G3.aif",
		"/lib/README.md",
		"/lib/.cache/Flute.p.C4.wav",
		"/lib/Flute/.Flute.p.C4.wav",
		"/other/Cello.ff.C2.wav",
	} {
		mfs.WriteFile(p, nil, 0644)
	}
	return mfs
}

func TestBuild(t *testing.T) {
	idx, err := Build(testTree(), "/lib")
	require.NoError(t, err)

	assert.Equal(t, 6, idx.Len())
	assert.Equal(t, 1, idx.Skipped())
	assert.Equal(t, []string{"Flute", "Violin.arco", "Violin.pizz"}, idx.Instruments())
	assert.Equal(t, []string{"Bb3", "C4", "D5"}, idx.Pitches("Flute"))
	assert.Equal(t, []string{"pp", "ff"}, idx.Dynamics("Flute", "C4"))
	assert.Empty(t, idx.Pitches("Oboe"))

	s, ok := idx.Lookup("Flute", "C4", "ff")
	require.True(t, ok)
	assert.Equal(t, "/lib/Flute/Flute.ff.C4.wav", s.Path)
	_, ok = idx.Lookup("Flute", "C4", "mf")
	assert.False(t, ok)

	want := map[string]map[string]map[string]string{
		"Flute": {
			"Bb3": {"mf": "/lib/Flute/Flute.mf.Bb3.wav"},
			"C4":  {"ff": "/lib/Flute/Flute.ff.C4.wav", "pp": "/lib/Flute/Flute.pp.C4.wav"},
			"D5":  {"mf": "/lib/Flute/Flute.mf.D5.wav"},
		},
		"Violin.arco": {"G3": {"f": "/lib/Violin/Violin.arco.f.G3.aif"}},
		"Violin.pizz": {"G3": {"f": "/lib/Violin/Violin.pizz.f.G3.aif"}},
	}
	if diff := cmp.Diff(want, idx.Map()); diff != "" {
		t.Errorf("index mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildMissingRoot(t *testing.T) {
	_, err := Build(testTree(), "/nope")
	assert.Error(t, err)
}
