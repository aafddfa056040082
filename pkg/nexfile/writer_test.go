package nexfile

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/nexkit/pkg/codec"
	"github.com/ssargent/nexkit/pkg/recording"
)

const (
	v1Payload = codec.FileHeaderV1Size + codec.VarHeaderV1Size
	v5Payload = codec.FileHeaderV5Size + codec.VarHeaderV5Size
)

func le32(b []byte, at int) int32 {
	return int32(binary.LittleEndian.Uint32(b[at:]))
}

func le64(b []byte, at int) int64 {
	return int64(binary.LittleEndian.Uint64(b[at:]))
}

func le16(b []byte, at int) int16 {
	return int16(binary.LittleEndian.Uint16(b[at:]))
}

func encodeWith(t *testing.T, config WriterConfig, s *recording.Session) []byte {
	t.Helper()
	data, err := NewWriter(config).Encode(s)
	require.NoError(t, err)
	return data
}

// fixtureSession holds one variable of every kind
func fixtureSession() *recording.Session {
	s := recording.NewSession(40000)
	s.Comment = "rat 3, day 2"

	n := recording.NewNeuron("sig001a", []float64{0.001, 0.5, 1.25})
	n.WireNumber = 2
	n.UnitNumber = 1
	n.XPos = 42
	n.YPos = 7.5
	s.Neurons = append(s.Neurons, n)

	s.Events = append(s.Events, recording.NewEvent("Start", []float64{0, 2}))
	s.Intervals = append(s.Intervals, recording.NewInterval(recording.AllFileName, []float64{0}, []float64{3}))

	m := recording.NewMarker("Strobed", []float64{0.25, 0.75})
	m.AddTextField("Label", []string{"go", "no-go"})
	s.Markers = append(s.Markers, m)

	s.Continuous = append(s.Continuous, recording.NewContinuous("FP01", 1000,
		[]float64{0, 1}, []uint32{0, 3}, []float32{0.1, -0.2, 0.3, 0.4, -0.5}))

	w := recording.NewWaveform("sig001a_wf", 40000, []float64{0.001, 0.5}, 3, []float32{0.01, 0.02, -0.03, 0.04, 0.05, -0.06})
	w.WireNumber = 2
	w.UnitNumber = 1
	w.PreThreshold = 0.0002
	s.Waveforms = append(s.Waveforms, w)
	return s
}

func TestWrite_IntervalTicks(t *testing.T) {
	s := recording.NewSession(1000)
	s.Intervals = append(s.Intervals, recording.NewInterval(recording.AllFileName, []float64{0}, []float64{9.999}))

	data := encodeWith(t, WriterConfig{Format: FormatV1}, s)
	require.Len(t, data, v1Payload+8)
	assert.Equal(t, int32(v1Payload), le32(data, codec.FileHeaderV1Size+72))
	assert.Equal(t, int32(0), le32(data, v1Payload))
	assert.Equal(t, int32(9999), le32(data, v1Payload+4))

	back, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, back.Intervals, 1)
	assert.Equal(t, recording.AllFileName, back.Intervals[0].Name)
	assert.Equal(t, []float64{0}, back.Intervals[0].Starts)
	assert.InDelta(t, 9.999, back.Intervals[0].Ends[0], 1e-12)
}

func TestWrite_ContinuousQuantization(t *testing.T) {
	s := recording.NewSession(1000)
	c := recording.NewContinuous("ch1", 1000, []float64{0}, []uint32{0}, []float32{-0.5, 0.5, 0.25})
	s.Continuous = append(s.Continuous, c)

	data := encodeWith(t, WriterConfig{Format: FormatV1}, s)
	assert.Equal(t, 65534.0, c.Coefficient)

	vh := codec.FileHeaderV1Size
	assert.Equal(t, int32(3), le32(data, vh+128))
	assert.Equal(t, 1/65534.0, math.Float64frombits(binary.LittleEndian.Uint64(data[vh+120:])))

	samples := v1Payload + 8
	// 0.25 * 65534 = 16383.5 rounds half to even
	assert.Equal(t, []int16{-32767, 32767, 16384},
		[]int16{le16(data, samples), le16(data, samples+2), le16(data, samples+4)})

	back, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, back.Continuous, 1)
	got := back.Continuous[0]
	assert.InDelta(t, 65534.0, got.Coefficient, 1e-9)
	for i, want := range []float32{-0.5, 0.5, 0.25} {
		assert.InDelta(t, want, got.Samples[i], 1/65534.0)
	}
}

func TestWrite_MarkerText(t *testing.T) {
	s := recording.NewSession(1000)
	m := recording.NewMarker("Strobed", []float64{0.1, 0.2})
	m.AddTextField("Label", []string{"A", "BB"})
	s.Markers = append(s.Markers, m)

	data := encodeWith(t, WriterConfig{Format: FormatV1}, s)
	vh := codec.FileHeaderV1Size
	assert.Equal(t, int32(1), le32(data, vh+132))
	assert.Equal(t, int32(2), le32(data, vh+136))

	fields := v1Payload + 8
	assert.Equal(t, "Label", strings.TrimRight(string(data[fields:fields+64]), "\x00"))
	assert.Equal(t, "A\x00BB", string(data[fields+64:fields+68]))
	assert.Len(t, data, fields+68)

	back, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, back.Markers, 1)
	f, ok := back.Markers[0].Field("Label")
	require.True(t, ok)
	assert.Equal(t, []string{"A", "BB"}, f.Text)
}

func TestWrite_FloatSamplesExact(t *testing.T) {
	s := recording.NewSession(1000)
	s.Continuous = append(s.Continuous, recording.NewContinuous("ch1", 1000, []float64{0}, []uint32{0}, []float32{1.5, -2.25}))

	data := encodeWith(t, WriterConfig{Format: FormatV5, SampleEncoding: SampleFloat32}, s)
	assert.Equal(t, codec.SamplesFloat32, le32(data, codec.FileHeaderV5Size+92))

	back, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, back.Continuous, 1)
	assert.Equal(t, []float32{1.5, -2.25}, back.Continuous[0].Samples)
	assert.Equal(t, 1.0, back.Continuous[0].Coefficient)
}

func TestWrite_Int16SamplesV5(t *testing.T) {
	s := recording.NewSession(1000)
	values := []float32{0.001, -0.75, 0.3333}
	s.Continuous = append(s.Continuous, recording.NewContinuous("ch1", 1000, []float64{0}, []uint32{0}, values))

	data := encodeWith(t, WriterConfig{Format: FormatV5, SampleEncoding: SampleInt16}, s)
	assert.Equal(t, codec.SamplesInt16, le32(data, codec.FileHeaderV5Size+92))
	// ticks and starts, then 3 int16 samples, then metadata
	assert.Equal(t, int64(v5Payload+12+6), le64(data, codec.MetadataOffsetPosition))

	back, err := Decode(data)
	require.NoError(t, err)
	coef := ScaleFloatsToShorts(values)
	for i, want := range values {
		assert.InDelta(t, want, back.Continuous[0].Samples[i], 1/coef)
	}
}

func TestWrite_MetadataEnrichment(t *testing.T) {
	s := recording.NewSession(40000)
	n := recording.NewNeuron("sig001a", []float64{0.1, 0.2})
	n.UnitNumber = 3
	n.WireNumber = 7
	n.XPos = 10
	n.YPos = 20
	s.Neurons = append(s.Neurons, n)
	w := recording.NewWaveform("sig001a_wf", 40000, []float64{0.1}, 2, []float32{0.1, -0.1})
	w.UnitNumber = 3
	w.WireNumber = 7
	s.Waveforms = append(s.Waveforms, w)

	data := encodeWith(t, WriterConfig{Format: FormatV5}, s)

	offset := le64(data, codec.MetadataOffsetPosition)
	require.Greater(t, offset, int64(codec.FileHeaderV5Size))
	var meta fileMetadata
	require.NoError(t, json.Unmarshal(data[offset:], &meta))
	require.Len(t, meta.Variables, 2)
	assert.Equal(t, "sig001a_wf", meta.Variables[1].Name)
	assert.Equal(t, positionMetadata{}, meta.Variables[1].Probe.Position)

	back, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, back.Neurons, 1)
	got := back.Neurons[0]
	assert.Equal(t, 3, got.UnitNumber)
	assert.Equal(t, 7, got.WireNumber)
	assert.Equal(t, 10.0, got.XPos)
	assert.Equal(t, 20.0, got.YPos)
	assert.Equal(t, 3, back.Waveforms[0].UnitNumber)
	assert.Equal(t, 7, back.Waveforms[0].WireNumber)
}

func TestWrite_NumericMarkersV5(t *testing.T) {
	s := recording.NewSession(1000)
	codes := recording.NewMarker("Codes", []float64{1, 2, 3})
	codes.AddCodeField("Code", []uint32{7, 4000000000, 0})
	s.Markers = append(s.Markers, codes)

	mixed := recording.NewMarker("Mixed", []float64{1, 2, 3})
	mixed.AddCodeField("Code", []uint32{1, 22, 333})
	mixed.AddTextField("Label", []string{"a", "b", "c"})
	s.Markers = append(s.Markers, mixed)

	data := encodeWith(t, WriterConfig{Format: FormatV5}, s)
	first := codec.FileHeaderV5Size
	second := first + codec.VarHeaderV5Size
	assert.Equal(t, codec.MarkerUint32, le32(data, first+168))
	assert.Equal(t, codec.MarkerText, le32(data, second+168))
	assert.Equal(t, int32(3), le32(data, second+176))

	back, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, back.Markers, 2)
	f, ok := back.Markers[0].Field("Code")
	require.True(t, ok)
	assert.Equal(t, []uint32{7, 4000000000, 0}, f.Codes)

	f, ok = back.Markers[1].Field("Code")
	require.True(t, ok)
	assert.Equal(t, []string{"1", "22", "333"}, f.Text)

	// format-v1 has no integer markers
	data = encodeWith(t, WriterConfig{Format: FormatV1}, s)
	back, err = Decode(data)
	require.NoError(t, err)
	f, ok = back.Markers[0].Field("Code")
	require.True(t, ok)
	assert.Equal(t, []string{"7", "4000000000", "0"}, f.Text)
}

func TestWrite_RoundTripAllKinds(t *testing.T) {
	for _, format := range []Format{FormatV1, FormatV5} {
		t.Run(format.String(), func(t *testing.T) {
			s := fixtureSession()
			data := encodeWith(t, WriterConfig{Format: format}, s)

			back, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, s.Comment, back.Comment)
			assert.Equal(t, s.TimestampFrequency, back.TimestampFrequency)
			assert.Equal(t, 0.0, back.StartTime)
			assert.InDelta(t, s.MaxTimestamp(), back.EndTime, 0.5/s.TimestampFrequency)

			require.Len(t, back.Neurons, 1)
			assert.Equal(t, "sig001a", back.Neurons[0].Name)
			assert.InDeltaSlice(t, s.Neurons[0].Timestamps, back.Neurons[0].Timestamps, 0.5/s.TimestampFrequency)
			assert.Equal(t, 2, back.Neurons[0].WireNumber)
			assert.Equal(t, 42.0, back.Neurons[0].XPos)

			require.Len(t, back.Events, 1)
			assert.Equal(t, []float64{0, 2}, back.Events[0].Timestamps)

			require.Len(t, back.Markers, 1)
			assert.Equal(t, []string{"go", "no-go"}, back.Markers[0].Fields[0].Text)

			require.Len(t, back.Continuous, 1)
			c := back.Continuous[0]
			assert.Equal(t, []uint32{0, 3}, c.FragmentStarts)
			assert.Equal(t, 1000.0, c.SamplingRate)
			assert.Equal(t, "mV", c.Units)
			assert.InDeltaSlice(t, toFloat64s(s.Continuous[0].Samples), toFloat64s(c.Samples), 1/s.Continuous[0].Coefficient)

			require.Len(t, back.Waveforms, 1)
			w := back.Waveforms[0]
			assert.Equal(t, 3, w.SamplesPerWave)
			require.Len(t, w.Samples, 2)
			assert.InDeltaSlice(t, toFloat64s(s.Waveforms[0].Samples[1]), toFloat64s(w.Samples[1]), 1/s.Waveforms[0].Coefficient)
			assert.Equal(t, 2, w.WireNumber)
			assert.Equal(t, 1, w.UnitNumber)
			assert.Equal(t, 0.0002, w.PreThreshold)
		})
	}
}

func toFloat64s(values []float32) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

func TestWrite_LayoutOffsets(t *testing.T) {
	s := fixtureSession()
	data := encodeWith(t, WriterConfig{Format: FormatV1}, s)

	// neuron(3 ticks) event(2) interval(1 pair) marker(2 ticks, 1 field of
	// 5 bytes) continuous(2 fragments, 5 samples) waveform(2 waves of 3)
	sizes := []int32{12, 8, 8, 8 + 64 + 10, 16 + 10, 8 + 12}
	offset := int32(codec.FileHeaderV1Size + 6*codec.VarHeaderV1Size)
	for i, size := range sizes {
		vh := codec.FileHeaderV1Size + i*codec.VarHeaderV1Size
		assert.Equal(t, offset, le32(data, vh+72), "variable %d", i)
		offset += size
	}
	assert.Len(t, data, int(offset))

	types := []codec.VarType{codec.VarNeuron, codec.VarEvent, codec.VarInterval, codec.VarMarker, codec.VarContinuous, codec.VarWaveform}
	for i, want := range types {
		assert.Equal(t, int32(want), le32(data, codec.FileHeaderV1Size+i*codec.VarHeaderV1Size))
	}
}

func TestWrite_SessionBounds(t *testing.T) {
	s := recording.NewSession(1000)
	s.StartTime = 1
	s.Events = append(s.Events, recording.NewEvent("e", []float64{0.5, 3}))

	data := encodeWith(t, WriterConfig{Format: FormatV1}, s)
	assert.Equal(t, int32(500), le32(data, 272))
	assert.Equal(t, int32(3000), le32(data, 276))

	data = encodeWith(t, WriterConfig{Format: FormatV5}, s)
	assert.Equal(t, int64(500), le64(data, 272))
	assert.Equal(t, int64(3000), le64(data, 292))
	assert.Equal(t, codec.FileVersionV5, le32(data, 4))
}

func TestWrite_OversizeV1(t *testing.T) {
	s := recording.NewSession(40000)
	// 24 hours at 40 kHz does not fit in 32-bit ticks
	s.Events = append(s.Events, recording.NewEvent("late", []float64{86400}))

	_, err := NewWriter(WriterConfig{Format: FormatV1}).Encode(s)
	assert.True(t, errors.Is(err, ErrOversize))

	tempDir, err := os.MkdirTemp("", "nexfile_test")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	path := filepath.Join(tempDir, "late.nex")
	err = Write(s, path)
	assert.True(t, errors.Is(err, ErrOversize))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no file should be created")

	// 64-bit ticks hold it
	path = filepath.Join(tempDir, "late.nex5")
	require.NoError(t, Write(s, path))
	back, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []float64{86400}, back.Events[0].Timestamps)
}

func TestWrite_InvalidSession(t *testing.T) {
	s := recording.NewSession(1000)
	s.Intervals = append(s.Intervals, recording.NewInterval("bad", []float64{0, 1}, []float64{1}))

	_, err := Encode(s)
	assert.True(t, errors.Is(err, ErrInvalidVariable))

	s = recording.NewSession(1000)
	s.Events = append(s.Events, recording.NewEvent("nan", []float64{math.NaN()}))
	_, err = Encode(s)
	assert.True(t, errors.Is(err, ErrInvalidVariable))
}

func TestWrite_NonFiniteSamples(t *testing.T) {
	continuous := func(values ...float32) *recording.Session {
		s := recording.NewSession(1000)
		s.Continuous = append(s.Continuous, recording.NewContinuous("ch1", 1000, []float64{0}, []uint32{0}, values))
		return s
	}
	waveform := func(values ...float32) *recording.Session {
		s := recording.NewSession(1000)
		s.Waveforms = append(s.Waveforms, recording.NewWaveform("wf", 40000, []float64{0.1}, len(values), values))
		return s
	}
	inf := float32(math.Inf(1))
	nan := float32(math.NaN())

	testCases := []struct {
		name    string
		config  WriterConfig
		session *recording.Session
	}{
		{name: "v1 continuous infinity", config: WriterConfig{Format: FormatV1}, session: continuous(0.5, inf, -0.25)},
		{name: "v1 waveform negative infinity", config: WriterConfig{Format: FormatV1}, session: waveform(0.5, -inf)},
		{name: "v1 continuous NaN", config: WriterConfig{Format: FormatV1}, session: continuous(nan, 0.5)},
		{name: "v5 int16 continuous infinity", config: WriterConfig{Format: FormatV5, SampleEncoding: SampleInt16}, session: continuous(0.5, inf)},
		{name: "v5 int16 waveform NaN", config: WriterConfig{Format: FormatV5, SampleEncoding: SampleInt16}, session: waveform(nan, 0.5)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewWriter(tc.config).Encode(tc.session)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidVariable), "got %v", err)
		})
	}

	t.Run("v1 write creates no file", func(t *testing.T) {
		tempDir, err := os.MkdirTemp("", "nexfile_test")
		require.NoError(t, err)
		defer os.RemoveAll(tempDir)

		path := filepath.Join(tempDir, "inf.nex")
		err = Write(continuous(0.5, inf, -0.25), path)
		assert.True(t, errors.Is(err, ErrInvalidVariable))
		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("v5 float keeps infinity", func(t *testing.T) {
		data := encodeWith(t, WriterConfig{Format: FormatV5, SampleEncoding: SampleFloat32}, continuous(0.5, inf, -0.25))
		back, err := Decode(data)
		require.NoError(t, err)
		assert.Equal(t, []float32{0.5, inf, -0.25}, back.Continuous[0].Samples)
	})
}

func TestWrite_NonFinitePosition(t *testing.T) {
	for _, format := range []Format{FormatV1, FormatV5} {
		s := recording.NewSession(1000)
		n := recording.NewNeuron("sig001a", []float64{0.1})
		n.XPos = math.NaN()
		s.Neurons = append(s.Neurons, n)

		_, err := NewWriter(WriterConfig{Format: format}).Encode(s)
		assert.True(t, errors.Is(err, ErrInvalidVariable), "%s: got %v", format, err)
	}
}

func TestWrite_FormatFromExtension(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "nexfile_test")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	s := fixtureSession()
	for _, name := range []string{"a.nex", "b.nex5", "nested/dir/c.NEX5"} {
		path := filepath.Join(tempDir, name)
		require.NoError(t, Write(s, path))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		format, err := DetectFormat(data)
		require.NoError(t, err)
		assert.Equal(t, FormatForPath(path), format, name)
	}

	data, err := Encode(s)
	require.NoError(t, err)
	assert.Equal(t, codec.MagicV5, le32(data, 0))
}

func TestWrite_LongNamesTruncated(t *testing.T) {
	s := recording.NewSession(1000)
	name := strings.Repeat("é", 40) // 80 bytes
	s.Events = append(s.Events, recording.NewEvent(name, []float64{1}))

	back, err := Decode(encodeWith(t, WriterConfig{Format: FormatV1}, s))
	require.NoError(t, err)
	got := back.Events[0].Name
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, strings.Repeat("é", 32), got)
}

func TestWrite_EmptySession(t *testing.T) {
	for _, format := range []Format{FormatV1, FormatV5} {
		data := encodeWith(t, WriterConfig{Format: format}, recording.NewSession(1000))
		back, err := Decode(data)
		require.NoError(t, err)
		assert.Equal(t, 0, back.NumVariables())
	}
}
