package recording

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecondsToTicks(t *testing.T) {
	testCases := []struct {
		name      string
		seconds   float64
		frequency float64
		expected  int64
	}{
		{name: "zero", seconds: 0, frequency: 1000, expected: 0},
		{name: "exact", seconds: 9.999, frequency: 1000, expected: 9999},
		{name: "half rounds to even (down)", seconds: 2.5, frequency: 1, expected: 2},
		{name: "half rounds to even (up)", seconds: 0.875, frequency: 4, expected: 4},
		{name: "negative", seconds: -1.5, frequency: 1, expected: -2},
		{name: "large", seconds: 86400, frequency: 40000, expected: 3456000000},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, SecondsToTicks(tc.seconds, tc.frequency))
		})
	}
}

func TestTicks_RoundTripWithinHalfTick(t *testing.T) {
	frequencies := []float64{1, 1000, 30000, 40000, 44100.5}
	times := []float64{0, 0.1, 1.23456789, 9.999, 3600.000123, 12345.678901}

	for _, f := range frequencies {
		s := NewSession(f)
		for _, ts := range times {
			back := s.TicksToSeconds(s.SecondsToTicks(ts))
			assert.InDelta(t, ts, back, 0.5/f+1e-12, "frequency %v time %v", f, ts)
		}
	}
}

func TestSession_MaxAndMinTimestamp(t *testing.T) {
	s := NewSession(1000)
	assert.Equal(t, 0.0, s.MaxTimestamp())
	_, ok := s.MinTimestamp()
	assert.False(t, ok)

	s.Events = append(s.Events, NewEvent("StartStop", []float64{0.5, 3}))
	s.Intervals = append(s.Intervals, NewInterval(AllFileName, []float64{0.25}, []float64{4}))
	// 4 samples at 2 Hz starting at 2s: last sample at 3.5s
	s.Continuous = append(s.Continuous, NewContinuous("ch1", 2, []float64{2}, []uint32{0}, []float32{1, 2, 3, 4}))
	// last wave at 4.2s, 11 samples at 10 Hz: ends at 5.2s
	s.Waveforms = append(s.Waveforms, NewWaveform("wf", 10, []float64{1, 4.2}, 11, make([]float32, 22)))

	assert.InDelta(t, 5.2, s.MaxTimestamp(), 1e-12)
	minTs, ok := s.MinTimestamp()
	require.True(t, ok)
	assert.Equal(t, 0.25, minTs)
	assert.Equal(t, 4, s.NumVariables())
}

func TestSession_VariablesOrder(t *testing.T) {
	s := NewSession(1000)
	s.Waveforms = append(s.Waveforms, NewWaveform("w", 1000, nil, 0, nil))
	s.Markers = append(s.Markers, NewMarker("m", nil))
	s.Neurons = append(s.Neurons, NewNeuron("n", nil))
	s.Continuous = append(s.Continuous, NewContinuous("c", 1000, nil, nil, nil))
	s.Events = append(s.Events, NewEvent("e", nil))
	s.Intervals = append(s.Intervals, NewInterval("i", nil, nil))

	var kinds []Kind
	for _, v := range s.Variables() {
		kinds = append(kinds, v.Kind())
	}
	assert.Equal(t, Kinds, kinds)

	v, ok := s.Lookup("m")
	require.True(t, ok)
	assert.Equal(t, KindMarker, v.Kind())
	_, ok = s.Lookup("missing")
	assert.False(t, ok)
}

func TestConstructors_DoNotShareContainers(t *testing.T) {
	a := NewMarker("a", nil)
	b := NewMarker("b", nil)
	a.AddTextField("Label", []string{})
	assert.Len(t, a.Fields, 1)
	assert.Len(t, b.Fields, 0)

	src := []float64{1, 2}
	e := NewEvent("e", src)
	src[0] = 100
	assert.Equal(t, 1.0, e.Timestamps[0])
}

func TestSession_Validate(t *testing.T) {
	valid := func() *Session {
		s := NewSession(1000)
		s.Neurons = append(s.Neurons, NewNeuron("n", []float64{0.1}))
		s.Intervals = append(s.Intervals, NewInterval(AllFileName, []float64{0}, []float64{1}))
		m := NewMarker("m", []float64{0.1, 0.2})
		m.AddTextField("Label", []string{"A", "BB"})
		s.Markers = append(s.Markers, m)
		s.Continuous = append(s.Continuous, NewContinuous("c", 1000, []float64{0, 1}, []uint32{0, 2}, []float32{1, 2, 3}))
		s.Waveforms = append(s.Waveforms, NewWaveform("w", 1000, []float64{0.1}, 2, []float32{1, 2}))
		return s
	}

	require.NoError(t, valid().Validate())

	testCases := []struct {
		name   string
		mutate func(s *Session)
	}{
		{name: "zero frequency", mutate: func(s *Session) { s.TimestampFrequency = 0 }},
		{name: "neuron x is NaN", mutate: func(s *Session) { s.Neurons[0].XPos = math.NaN() }},
		{name: "neuron y is infinite", mutate: func(s *Session) { s.Neurons[0].YPos = math.Inf(-1) }},
		{name: "interval length mismatch", mutate: func(s *Session) { s.Intervals[0].Ends = nil }},
		{name: "interval end before start", mutate: func(s *Session) { s.Intervals[0].Ends[0] = -1 }},
		{name: "marker field length", mutate: func(s *Session) { s.Markers[0].Fields[0].Text = []string{"A"} }},
		{name: "marker field both kinds", mutate: func(s *Session) { s.Markers[0].Fields[0].Codes = []uint32{1, 2} }},
		{name: "fragment arrays", mutate: func(s *Session) { s.Continuous[0].FragmentStarts = []uint32{0} }},
		{name: "fragment start beyond samples", mutate: func(s *Session) { s.Continuous[0].FragmentStarts[1] = 9 }},
		{name: "waveform rows", mutate: func(s *Session) { s.Waveforms[0].Samples = nil }},
		{name: "waveform width", mutate: func(s *Session) { s.Waveforms[0].Samples[0] = []float32{1} }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			s := valid()
			tc.mutate(s)
			assert.Error(t, s.Validate())
		})
	}
}

func TestMarker_Fields(t *testing.T) {
	m := NewMarker("Strobed", []float64{1, 2, 3})
	m.AddCodeField("Code", []uint32{7, 1234, 0})
	assert.True(t, m.AllNumeric())
	assert.Equal(t, 4, m.MaxValueLength())

	m.AddTextField("Label", []string{"é", "", "x"})
	assert.False(t, m.AllNumeric())
	assert.Equal(t, 4, m.MaxValueLength())

	f, ok := m.Field("Code")
	require.True(t, ok)
	assert.Equal(t, []string{"7", "1234", "0"}, f.Strings())
}

func TestSummarize(t *testing.T) {
	s := NewSession(40000)
	s.Comment = "rat 3"
	s.Neurons = append(s.Neurons, NewNeuron("sig001a", []float64{0.1, 0.2}))
	s.Continuous = append(s.Continuous, NewContinuous("ch0", 20000, []float64{0}, []uint32{0}, make([]float32, 50)))

	sum := Summarize(s)
	assert.Equal(t, "rat 3", sum.Comment)
	assert.Equal(t, 1, sum.Counts["neuron"])
	assert.Equal(t, 0, sum.Counts["waveform"])
	require.Len(t, sum.Variables, 2)
	assert.Equal(t, VariableSummary{Name: "ch0", Kind: "continuous", Count: 1, SamplingRate: 20000, Samples: 50}, sum.Variables[1])
}
