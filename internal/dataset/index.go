// Package dataset indexes directories of single-note instrument recordings.
package dataset

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/banshee-data/embedtrack/internal/fsutil"
	"github.com/banshee-data/embedtrack/internal/monitoring"
)

// Index maps instrument -> pitch -> dynamic -> sample.
type Index struct {
	entries map[string]map[string]map[string]Sample
	skipped int
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{entries: make(map[string]map[string]map[string]Sample)}
}

// Build walks root and indexes every recognizable recording beneath it.
// Hidden directories are not descended into. When two files map to the same
// entry the lexically first path wins.
func Build(fsys fsutil.FileSystem, root string) (*Index, error) {
	idx := NewIndex()
	err := fsys.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() {
			if path != root && strings.HasPrefix(name, ".") {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") {
			return nil
		}
		s, err := ParseName(path)
		if err != nil {
			idx.skipped++
			monitoring.Debugf("dataset: skipping %s: %v", path, err)
			return nil
		}
		if !idx.Add(s) {
			monitoring.Debugf("dataset: %s duplicates an indexed sample", path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to index %s: %w", root, err)
	}
	return idx, nil
}

// Add inserts s unless its entry is already taken, reporting whether it was
// added.
func (x *Index) Add(s Sample) bool {
	key := s.Key()
	pitches, ok := x.entries[key]
	if !ok {
		pitches = make(map[string]map[string]Sample)
		x.entries[key] = pitches
	}
	dyns, ok := pitches[s.Pitch]
	if !ok {
		dyns = make(map[string]Sample)
		pitches[s.Pitch] = dyns
	}
	if _, taken := dyns[s.Dynamic]; taken {
		return false
	}
	dyns[s.Dynamic] = s
	return true
}

// Len returns the number of indexed samples.
func (x *Index) Len() int {
	n := 0
	for _, pitches := range x.entries {
		for _, dyns := range pitches {
			n += len(dyns)
		}
	}
	return n
}

// Skipped returns the number of files Build could not parse.
func (x *Index) Skipped() int { return x.skipped }

// Instruments returns the instrument keys in lexical order.
func (x *Index) Instruments() []string {
	out := make([]string, 0, len(x.entries))
	for k := range x.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Pitches returns the pitches recorded for instrument, lowest first.
func (x *Index) Pitches(instrument string) []string {
	pitches := x.entries[instrument]
	out := make([]string, 0, len(pitches))
	for p := range pitches {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := MIDINote(out[i])
		b, _ := MIDINote(out[j])
		if a != b {
			return a < b
		}
		return out[i] < out[j]
	})
	return out
}

// Dynamics returns the dynamics recorded for instrument at pitch, softest first.
func (x *Index) Dynamics(instrument, pitch string) []string {
	dyns := x.entries[instrument][pitch]
	out := make([]string, 0, len(dyns))
	for d := range dyns {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return dynamicRank(out[i]) < dynamicRank(out[j]) })
	return out
}

// Lookup returns the sample for instrument, pitch and dynamic.
func (x *Index) Lookup(instrument, pitch, dynamic string) (Sample, bool) {
	s, ok := x.entries[instrument][pitch][dynamic]
	return s, ok
}

// Map returns the index as nested maps of paths.
func (x *Index) Map() map[string]map[string]map[string]string {
	out := make(map[string]map[string]map[string]string, len(x.entries))
	for inst, pitches := range x.entries {
		pm := make(map[string]map[string]string, len(pitches))
		for p, dyns := range pitches {
			dm := make(map[string]string, len(dyns))
			for d, s := range dyns {
				dm[d] = s.Path
			}
			pm[p] = dm
		}
		out[inst] = pm
	}
	return out
}
