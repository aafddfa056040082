// Package recording defines the in-memory model of a neurophysiology
// recording session: spike trains, events, intervals, markers, continuous
// signals and waveforms, all timed in seconds.
package recording

import (
	"fmt"
	"math"
)

// AllFileName is the reserved name of the interval spanning the whole recording
const AllFileName = "AllFile"

// Session is the root aggregate of a recording. It owns every variable.
type Session struct {
	Comment            string
	TimestampFrequency float64 // ticks per second
	StartTime          float64 // seconds
	EndTime            float64 // seconds

	Neurons    []*Neuron
	Events     []*Event
	Intervals  []*Interval
	Markers    []*Marker
	Continuous []*Continuous
	Waveforms  []*Waveform
}

// NewSession creates an empty session with the given tick frequency
func NewSession(frequency float64) *Session {
	return &Session{
		TimestampFrequency: frequency,
		Neurons:            []*Neuron{},
		Events:             []*Event{},
		Intervals:          []*Interval{},
		Markers:            []*Marker{},
		Continuous:         []*Continuous{},
		Waveforms:          []*Waveform{},
	}
}

// NumVariables returns the number of variables of all kinds
func (s *Session) NumVariables() int {
	return len(s.Neurons) + len(s.Events) + len(s.Intervals) +
		len(s.Markers) + len(s.Continuous) + len(s.Waveforms)
}

// Variables returns all variables in file layout order:
// neurons, events, intervals, markers, continuous, waveforms
func (s *Session) Variables() []Variable {
	vars := make([]Variable, 0, s.NumVariables())
	for _, v := range s.Neurons {
		vars = append(vars, v)
	}
	for _, v := range s.Events {
		vars = append(vars, v)
	}
	for _, v := range s.Intervals {
		vars = append(vars, v)
	}
	for _, v := range s.Markers {
		vars = append(vars, v)
	}
	for _, v := range s.Continuous {
		vars = append(vars, v)
	}
	for _, v := range s.Waveforms {
		vars = append(vars, v)
	}
	return vars
}

// Lookup returns the first variable with the given name
func (s *Session) Lookup(name string) (Variable, bool) {
	for _, v := range s.Variables() {
		if v.Label() == name {
			return v, true
		}
	}
	return nil, false
}

// MaxTimestamp returns the latest time covered by any variable, or 0
func (s *Session) MaxTimestamp() float64 {
	maxTs := 0.0
	for _, v := range s.Variables() {
		if _, last, ok := v.Span(); ok && last > maxTs {
			maxTs = last
		}
	}
	return maxTs
}

// MinTimestamp returns the earliest time covered by any variable.
// ok is false when no variable holds data.
func (s *Session) MinTimestamp() (float64, bool) {
	minTs := math.Inf(1)
	found := false
	for _, v := range s.Variables() {
		if first, _, ok := v.Span(); ok {
			found = true
			if first < minTs {
				minTs = first
			}
		}
	}
	if !found {
		return 0, false
	}
	return minTs, true
}

// SecondsToTicks converts seconds to the nearest tick, rounding half to even
func (s *Session) SecondsToTicks(seconds float64) int64 {
	return SecondsToTicks(seconds, s.TimestampFrequency)
}

// TicksToSeconds converts ticks to seconds
func (s *Session) TicksToSeconds(ticks int64) float64 {
	return float64(ticks) / s.TimestampFrequency
}

// SecondsToTicks converts seconds to the nearest tick at frequency,
// rounding half to even like the reference tools do.
func SecondsToTicks(seconds, frequency float64) int64 {
	return int64(math.RoundToEven(seconds * frequency))
}

// Validate checks the structural invariants of every variable
func (s *Session) Validate() error {
	if !(s.TimestampFrequency > 0) {
		return fmt.Errorf("timestamp frequency must be positive, got %v", s.TimestampFrequency)
	}
	for _, v := range s.Neurons {
		if !isFinite(v.XPos) || !isFinite(v.YPos) {
			return fmt.Errorf("neuron %q: position (%v, %v) is not finite", v.Name, v.XPos, v.YPos)
		}
	}
	for _, v := range s.Intervals {
		if len(v.Starts) != len(v.Ends) {
			return fmt.Errorf("interval %q: %d starts but %d ends", v.Name, len(v.Starts), len(v.Ends))
		}
		for i := range v.Starts {
			if v.Ends[i] < v.Starts[i] {
				return fmt.Errorf("interval %q: end %v before start %v at %d", v.Name, v.Ends[i], v.Starts[i], i)
			}
		}
	}
	for _, v := range s.Markers {
		for i := range v.Fields {
			f := &v.Fields[i]
			if f.Text != nil && f.Codes != nil {
				return fmt.Errorf("marker %q field %q: holds both text and codes", v.Name, f.Name)
			}
			if f.Len() != len(v.Timestamps) {
				return fmt.Errorf("marker %q field %q: %d values for %d timestamps", v.Name, f.Name, f.Len(), len(v.Timestamps))
			}
		}
	}
	for _, v := range s.Continuous {
		if len(v.FragmentTimestamps) != len(v.FragmentStarts) {
			return fmt.Errorf("continuous %q: %d fragment timestamps but %d fragment starts",
				v.Name, len(v.FragmentTimestamps), len(v.FragmentStarts))
		}
		prev := uint32(0)
		for i, start := range v.FragmentStarts {
			if int(start) > len(v.Samples) || start < prev {
				return fmt.Errorf("continuous %q: fragment %d starts at %d of %d samples", v.Name, i, start, len(v.Samples))
			}
			prev = start
		}
	}
	for _, v := range s.Waveforms {
		if v.SamplesPerWave < 0 {
			return fmt.Errorf("waveform %q: negative samples per wave", v.Name)
		}
		if len(v.Samples) != len(v.Timestamps) {
			return fmt.Errorf("waveform %q: %d waves for %d timestamps", v.Name, len(v.Samples), len(v.Timestamps))
		}
		for i, row := range v.Samples {
			if len(row) != v.SamplesPerWave {
				return fmt.Errorf("waveform %q: wave %d has %d samples, want %d", v.Name, i, len(row), v.SamplesPerWave)
			}
		}
	}
	return nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
