package recording

import "fmt"

// Kind identifies one of the six variable kinds a session can hold
type Kind int

const (
	KindNeuron Kind = iota
	KindEvent
	KindInterval
	KindMarker
	KindContinuous
	KindWaveform
)

// Kinds lists all kinds in the order they are laid out in a file
var Kinds = []Kind{KindNeuron, KindEvent, KindInterval, KindMarker, KindContinuous, KindWaveform}

func (k Kind) String() string {
	switch k {
	case KindNeuron:
		return "neuron"
	case KindEvent:
		return "event"
	case KindInterval:
		return "interval"
	case KindMarker:
		return "marker"
	case KindContinuous:
		return "continuous"
	case KindWaveform:
		return "waveform"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Variable is implemented by every variable kind
type Variable interface {
	Label() string
	Kind() Kind
	// Len is the header count: timestamps, intervals, fragments or waves
	Len() int
	// Span returns the first and last time covered, in seconds.
	// ok is false when the variable holds no data.
	Span() (first, last float64, ok bool)
}

// Event is a named sequence of timestamps in seconds
type Event struct {
	Name       string
	Timestamps []float64
}

// NewEvent creates an event owning a copy of timestamps
func NewEvent(name string, timestamps []float64) *Event {
	return &Event{Name: name, Timestamps: cloneFloats(timestamps)}
}

func (v *Event) Label() string { return v.Name }
func (v *Event) Kind() Kind    { return KindEvent }
func (v *Event) Len() int      { return len(v.Timestamps) }

func (v *Event) Span() (float64, float64, bool) {
	return timestampSpan(v.Timestamps)
}

// Neuron is an event train with probe identity
type Neuron struct {
	Name       string
	Timestamps []float64
	WireNumber int
	UnitNumber int
	XPos       float64 // display position in [0,100]
	YPos       float64
}

// NewNeuron creates a neuron owning a copy of timestamps
func NewNeuron(name string, timestamps []float64) *Neuron {
	return &Neuron{Name: name, Timestamps: cloneFloats(timestamps)}
}

func (v *Neuron) Label() string { return v.Name }
func (v *Neuron) Kind() Kind    { return KindNeuron }
func (v *Neuron) Len() int      { return len(v.Timestamps) }

func (v *Neuron) Span() (float64, float64, bool) {
	return timestampSpan(v.Timestamps)
}

// Interval holds paired start and end times in seconds
type Interval struct {
	Name   string
	Starts []float64
	Ends   []float64
}

// NewInterval creates an interval variable owning copies of starts and ends
func NewInterval(name string, starts, ends []float64) *Interval {
	return &Interval{Name: name, Starts: cloneFloats(starts), Ends: cloneFloats(ends)}
}

func (v *Interval) Label() string { return v.Name }
func (v *Interval) Kind() Kind    { return KindInterval }
func (v *Interval) Len() int      { return len(v.Starts) }

func (v *Interval) Span() (float64, float64, bool) {
	if len(v.Starts) == 0 || len(v.Ends) == 0 {
		return 0, 0, false
	}
	return v.Starts[0], v.Ends[len(v.Ends)-1], true
}

// MarkerField is one named column of per-timestamp values. Exactly one of
// Text or Codes is used; Codes can only be stored natively in .nex5 files.
type MarkerField struct {
	Name  string
	Text  []string
	Codes []uint32
}

// Numeric reports whether the field holds integer codes
func (f *MarkerField) Numeric() bool {
	return f.Text == nil && f.Codes != nil
}

// Len returns the number of values in the field
func (f *MarkerField) Len() int {
	if f.Numeric() {
		return len(f.Codes)
	}
	return len(f.Text)
}

// Strings returns the field values as text, formatting codes as decimals
func (f *MarkerField) Strings() []string {
	if !f.Numeric() {
		return f.Text
	}
	out := make([]string, len(f.Codes))
	for i, c := range f.Codes {
		out[i] = fmt.Sprintf("%d", c)
	}
	return out
}

// Marker is an event train with labeled fields
type Marker struct {
	Name       string
	Timestamps []float64
	Fields     []MarkerField
}

// NewMarker creates a marker with no fields
func NewMarker(name string, timestamps []float64) *Marker {
	return &Marker{Name: name, Timestamps: cloneFloats(timestamps), Fields: []MarkerField{}}
}

// AddTextField appends a text field, copying values
func (v *Marker) AddTextField(name string, values []string) {
	text := make([]string, len(values))
	copy(text, values)
	v.Fields = append(v.Fields, MarkerField{Name: name, Text: text})
}

// AddCodeField appends an integer field, copying values
func (v *Marker) AddCodeField(name string, values []uint32) {
	codes := make([]uint32, len(values))
	copy(codes, values)
	v.Fields = append(v.Fields, MarkerField{Name: name, Codes: codes})
}

// Field returns the field with the given name
func (v *Marker) Field(name string) (*MarkerField, bool) {
	for i := range v.Fields {
		if v.Fields[i].Name == name {
			return &v.Fields[i], true
		}
	}
	return nil, false
}

// AllNumeric reports whether every field holds integer codes
func (v *Marker) AllNumeric() bool {
	if len(v.Fields) == 0 {
		return false
	}
	for i := range v.Fields {
		if !v.Fields[i].Numeric() {
			return false
		}
	}
	return true
}

// MaxValueLength returns the longest value across all fields in UTF-8 bytes
func (v *Marker) MaxValueLength() int {
	maxLen := 0
	for i := range v.Fields {
		for _, s := range v.Fields[i].Strings() {
			if len(s) > maxLen {
				maxLen = len(s)
			}
		}
	}
	return maxLen
}

func (v *Marker) Label() string { return v.Name }
func (v *Marker) Kind() Kind    { return KindMarker }
func (v *Marker) Len() int      { return len(v.Timestamps) }

func (v *Marker) Span() (float64, float64, bool) {
	return timestampSpan(v.Timestamps)
}

// Continuous is a fragmented, uniformly sampled signal. FragmentStarts[i]
// indexes the first sample of fragment i within Samples.
type Continuous struct {
	Name               string
	SamplingRate       float64
	FragmentTimestamps []float64
	FragmentStarts     []uint32
	Samples            []float32 // milliVolts
	Units              string

	// Coefficient is the float-to-int16 scale used by the last write or
	// recovered from the file header on read.
	Coefficient float64
}

// NewContinuous creates a continuous variable owning copies of its arrays
func NewContinuous(name string, rate float64, fragmentTimestamps []float64, fragmentStarts []uint32, samples []float32) *Continuous {
	starts := make([]uint32, len(fragmentStarts))
	copy(starts, fragmentStarts)
	values := make([]float32, len(samples))
	copy(values, samples)
	return &Continuous{
		Name:               name,
		SamplingRate:       rate,
		FragmentTimestamps: cloneFloats(fragmentTimestamps),
		FragmentStarts:     starts,
		Samples:            values,
		Coefficient:        1,
	}
}

// FragmentLen returns the number of samples in fragment i
func (v *Continuous) FragmentLen(i int) int {
	end := len(v.Samples)
	if i+1 < len(v.FragmentStarts) {
		end = int(v.FragmentStarts[i+1])
	}
	return end - int(v.FragmentStarts[i])
}

func (v *Continuous) Label() string { return v.Name }
func (v *Continuous) Kind() Kind    { return KindContinuous }
func (v *Continuous) Len() int      { return len(v.FragmentTimestamps) }

// Span ends at the time of the last sample of the last fragment
func (v *Continuous) Span() (float64, float64, bool) {
	n := len(v.FragmentTimestamps)
	if n == 0 || len(v.FragmentStarts) == 0 || len(v.Samples) == 0 || v.SamplingRate <= 0 {
		return 0, 0, false
	}
	lastStart := float64(v.FragmentStarts[len(v.FragmentStarts)-1])
	last := v.FragmentTimestamps[n-1] + (float64(len(v.Samples))-lastStart-1)/v.SamplingRate
	return v.FragmentTimestamps[0], last, true
}

// Waveform holds one fixed-length wave per timestamp
type Waveform struct {
	Name           string
	SamplingRate   float64
	Timestamps     []float64
	SamplesPerWave int
	Samples        [][]float32 // len(Timestamps) rows of SamplesPerWave milliVolts
	WireNumber     int
	UnitNumber     int
	PreThreshold   float64 // seconds before the timestamp the wave starts
	Units          string

	// Coefficient is the float-to-int16 scale used by the last write or
	// recovered from the file header on read.
	Coefficient float64
}

// NewWaveform creates a waveform variable from a row-major sample slice
func NewWaveform(name string, rate float64, timestamps []float64, samplesPerWave int, flat []float32) *Waveform {
	rows := make([][]float32, len(timestamps))
	for i := range rows {
		row := make([]float32, samplesPerWave)
		lo := i * samplesPerWave
		if lo < len(flat) {
			copy(row, flat[lo:])
		}
		rows[i] = row
	}
	return &Waveform{
		Name:           name,
		SamplingRate:   rate,
		Timestamps:     cloneFloats(timestamps),
		SamplesPerWave: samplesPerWave,
		Samples:        rows,
		Coefficient:    1,
	}
}

// Flat returns the samples in row-major order
func (v *Waveform) Flat() []float32 {
	out := make([]float32, 0, len(v.Samples)*v.SamplesPerWave)
	for _, row := range v.Samples {
		out = append(out, row...)
	}
	return out
}

func (v *Waveform) Label() string { return v.Name }
func (v *Waveform) Kind() Kind    { return KindWaveform }
func (v *Waveform) Len() int      { return len(v.Timestamps) }

// Span ends at the time of the last sample of the last wave
func (v *Waveform) Span() (float64, float64, bool) {
	n := len(v.Timestamps)
	if n == 0 || v.SamplingRate <= 0 || v.SamplesPerWave == 0 {
		return 0, 0, false
	}
	last := v.Timestamps[n-1] + float64(v.SamplesPerWave-1)/v.SamplingRate
	return v.Timestamps[0], last, true
}

func timestampSpan(ts []float64) (float64, float64, bool) {
	if len(ts) == 0 {
		return 0, 0, false
	}
	return ts[0], ts[len(ts)-1], true
}

func cloneFloats(src []float64) []float64 {
	dst := make([]float64, len(src))
	copy(dst, src)
	return dst
}
