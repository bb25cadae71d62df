package audio

import (
	"bytes"
	"errors"
	"math"
	"math/cmplx"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/embedtrack/internal/fsutil"
	"github.com/banshee-data/embedtrack/internal/synth"
)

func TestWAVRoundTrip(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	tone := synth.NewTone(8000, 440)
	in := &Signal{SampleRate: 8000, Samples: tone.Sine(800)}
	in.Samples[3] = 1.5 // clipped on write

	require.NoError(t, WriteFile(mfs, "/out/tone.wav", in, 16))
	out, err := ReadFile(mfs, "/out/tone.wav")
	require.NoError(t, err)

	assert.Equal(t, 8000, out.SampleRate)
	require.Len(t, out.Samples, 800)
	assert.InDelta(t, 1, out.Samples[3], 1e-4)
	for i, v := range in.Samples {
		if i == 3 {
			continue
		}
		assert.InDelta(t, v, out.Samples[i], 1e-4, "sample %d", i)
	}
	assert.InDelta(t, 0.1, out.Duration(), 1e-12)
}

func TestDecodeMixesDownStereo(t *testing.T) {
	var raw seekBuffer
	enc := wav.NewEncoder(&raw, 4000, 16, 2, 1)
	require.NoError(t, enc.Write(&goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 2, SampleRate: 4000},
		Data:           []int{16384, 0, -16384, -16384, 32767, -32767},
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())

	s, err := Decode(bytes.NewReader(raw.buf))
	require.NoError(t, err)
	require.Len(t, s.Samples, 3)
	assert.InDelta(t, 0.25, s.Samples[0], 1e-9)
	assert.InDelta(t, -0.5, s.Samples[1], 1e-9)
	assert.InDelta(t, 0, s.Samples[2], 1e-9)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("this is not a RIFF file, just text")))
	assert.True(t, errors.Is(err, ErrUnsupportedFormat), "got %v", err)

	mfs := fsutil.NewMemoryFileSystem()
	mfs.WriteFile("/x.aif", []byte("FORM"), 0644)
	_, err = ReadFile(mfs, "/x.aif")
	assert.True(t, errors.Is(err, ErrUnsupportedFormat), "got %v", err)

	_, err = ReadFile(mfs, "/missing.wav")
	assert.Error(t, err)

	err = Encode(&seekBuffer{}, &Signal{SampleRate: 1}, 12)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestNormalizeAndSlice(t *testing.T) {
	s := &Signal{SampleRate: 10, Samples: []float64{0.1, -0.4, 0.2, 0, 0.3}}
	s.Normalize()
	assert.InDeltaSlice(t, []float64{0.25, -1, 0.5, 0, 0.75}, s.Samples, 1e-12)

	quiet := &Signal{SampleRate: 10, Samples: make([]float64, 4)}
	quiet.Normalize()
	assert.Equal(t, make([]float64, 4), quiet.Samples)

	assert.InDeltaSlice(t, []float64{-1, 0.5}, s.Slice(0.1, 0.3).Samples, 1e-12)
	assert.InDeltaSlice(t, []float64{0, 0.75}, s.Slice(0.3, 0).Samples, 1e-12)
	assert.Empty(t, s.Slice(2, 3).Samples)
	assert.Empty(t, s.Slice(0.3, 0.1).Samples)
}

func TestAnalytic(t *testing.T) {
	for _, n := range []int{64, 63} {
		x := make([]float64, n)
		cycles := 5.0
		for i := range x {
			x[i] = math.Cos(2 * math.Pi * cycles * float64(i) / float64(n))
		}
		z := Analytic(x)
		require.Len(t, z, n)
		for i, v := range z {
			want := cmplx.Exp(complex(0, 2*math.Pi*cycles*float64(i)/float64(n)))
			assert.InDelta(t, 0, cmplx.Abs(v-want), 1e-10, "n=%d i=%d", n, i)
		}
	}
	assert.Nil(t, Analytic(nil))
}

// seekBuffer is an in-memory io.WriteSeeker.
type seekBuffer struct {
	buf []byte
	pos int
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	if end := b.pos + len(p); end > len(b.buf) {
		b.buf = append(b.buf, make([]byte, end-len(b.buf))...)
	}
	copy(b.buf[b.pos:], p)
	b.pos += len(p)
	return len(p), nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case 0:
		b.pos = int(offset)
	case 1:
		b.pos += int(offset)
	case 2:
		b.pos = len(b.buf) + int(offset)
	}
	return int64(b.pos), nil
}
