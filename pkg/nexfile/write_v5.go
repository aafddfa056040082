package nexfile

import (
	"encoding/json"
	"fmt"

	"github.com/ssargent/nexkit/pkg/codec"
	"github.com/ssargent/nexkit/pkg/recording"
)

func (w *Writer) encodeV5(s *recording.Session) ([]byte, error) {
	l, err := layoutV5(s, w.config.SampleEncoding)
	if err != nil {
		return nil, err
	}

	meta, err := json.Marshal(buildMetadata(s))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode metadata: %v", ErrInvalidVariable, err)
	}

	e, err := l.emit(len(meta))
	if err != nil {
		return nil, err
	}
	offset := int64(e.Len())
	e.Write(meta)
	e.PatchInt64(codec.MetadataOffsetPosition, offset)
	return e.Bytes(), nil
}

// layoutV5 plans a format-v5 file. Timestamps are always 64-bit; samples
// follow encoding.
func layoutV5(s *recording.Session, encoding SampleEncoding) (*layout, error) {
	freq := s.TimestampFrequency
	numVars, err := checkInt32("session", "variable count", s.NumVariables())
	if err != nil {
		return nil, err
	}

	start, end := sessionBounds(s)
	bounds, err := ticks64("session", []float64{start, end}, freq)
	if err != nil {
		return nil, err
	}
	fh := &codec.FileHeaderV5{
		Magic:     codec.MagicV5,
		Version:   codec.FileVersionV5,
		Comment:   s.Comment,
		Frequency: freq,
		Begin:     bounds[0],
		NumVars:   numVars,
		End:       bounds[1],
	}

	p := newPlanner(codec.FileHeaderV5Size+int64(numVars)*codec.VarHeaderV5Size, int(numVars))
	header := func(t codec.VarType, name string, count int) *codec.VarHeaderV5 {
		return &codec.VarHeaderV5{
			Type:              t,
			Version:           codec.VarVersionV5,
			Name:              name,
			DataOffset:        p.cursor,
			Count:             int64(count),
			TimestampDataType: codec.TimestampInt64,
			Units:             defaultUnits,
			ADtoUnits:         1,
		}
	}

	for _, v := range s.Neurons {
		ts, err := ticks64(v.Name, v.Timestamps, freq)
		if err != nil {
			return nil, err
		}
		vh := header(codec.VarNeuron, v.Name, len(ts))
		p.add(recording.KindNeuron, v.Name, 8*int64(len(ts)), vh.Encode, func(e *codec.Encoder) {
			e.Int64s(ts)
		})
	}

	for _, v := range s.Events {
		ts, err := ticks64(v.Name, v.Timestamps, freq)
		if err != nil {
			return nil, err
		}
		vh := header(codec.VarEvent, v.Name, len(ts))
		p.add(recording.KindEvent, v.Name, 8*int64(len(ts)), vh.Encode, func(e *codec.Encoder) {
			e.Int64s(ts)
		})
	}

	for _, v := range s.Intervals {
		starts, err := ticks64(v.Name, v.Starts, freq)
		if err != nil {
			return nil, err
		}
		ends, err := ticks64(v.Name, v.Ends, freq)
		if err != nil {
			return nil, err
		}
		vh := header(codec.VarInterval, v.Name, len(starts))
		p.add(recording.KindInterval, v.Name, 16*int64(len(starts)), vh.Encode, func(e *codec.Encoder) {
			e.Int64s(starts)
			e.Int64s(ends)
		})
	}

	for _, v := range s.Markers {
		if err := planMarkerV5(p, header, v, freq); err != nil {
			return nil, err
		}
	}

	for _, v := range s.Continuous {
		ts, err := ticks64(v.Name, v.FragmentTimestamps, freq)
		if err != nil {
			return nil, err
		}
		vh := header(codec.VarContinuous, v.Name, len(ts))
		vh.SamplingFrequency = v.SamplingRate
		vh.Units = unitsOrDefault(v.Units)
		vh.NumberOfDataPoints = int64(len(v.Samples))
		coef, err := setSampleEncoding(vh, encoding, v.Name, v.Samples)
		if err != nil {
			return nil, err
		}
		v.Coefficient = coef
		samples, starts := v.Samples, v.FragmentStarts
		size := 12*int64(len(ts)) + sampleWidth(encoding)*int64(len(samples))
		p.add(recording.KindContinuous, v.Name, size, vh.Encode, func(e *codec.Encoder) {
			e.Int64s(ts)
			e.Uint32s(starts)
			writeSamples(e, encoding, samples, coef)
		})
	}

	for _, v := range s.Waveforms {
		ts, err := ticks64(v.Name, v.Timestamps, freq)
		if err != nil {
			return nil, err
		}
		flat := v.Flat()
		vh := header(codec.VarWaveform, v.Name, len(ts))
		vh.SamplingFrequency = v.SamplingRate
		vh.Units = unitsOrDefault(v.Units)
		vh.NumberOfDataPoints = int64(v.SamplesPerWave)
		vh.PreThreshold = v.PreThreshold
		coef, err := setSampleEncoding(vh, encoding, v.Name, flat)
		if err != nil {
			return nil, err
		}
		v.Coefficient = coef
		size := 8*int64(len(ts)) + sampleWidth(encoding)*int64(len(flat))
		p.add(recording.KindWaveform, v.Name, size, vh.Encode, func(e *codec.Encoder) {
			e.Int64s(ts)
			writeSamples(e, encoding, flat, coef)
		})
	}

	return &layout{header: fh.Encode, vars: p.vars, size: p.cursor}, nil
}

// planMarkerV5 stores integer codes natively when every field is numeric,
// and text otherwise
func planMarkerV5(p *planner, header func(codec.VarType, string, int) *codec.VarHeaderV5, v *recording.Marker, freq float64) error {
	ts, err := ticks64(v.Name, v.Timestamps, freq)
	if err != nil {
		return err
	}
	fields := v.Fields
	numFields, err := checkInt32(v.Name, "marker field count", len(fields))
	if err != nil {
		return err
	}

	vh := header(codec.VarMarker, v.Name, len(ts))
	vh.NumMarkerFields = numFields
	count := int64(len(ts))

	if v.AllNumeric() {
		vh.MarkerDataType = codec.MarkerUint32
		size := 8*count + int64(len(fields))*(codec.MarkerFieldSize+4*count)
		p.add(recording.KindMarker, v.Name, size, vh.Encode, func(e *codec.Encoder) {
			e.Int64s(ts)
			for i := range fields {
				e.String(fields[i].Name, codec.MarkerFieldSize)
				e.Uint32s(fields[i].Codes)
			}
		})
		return nil
	}

	values := markerValues(v)
	maxLen, err := checkInt32(v.Name, "marker length", v.MaxValueLength())
	if err != nil {
		return err
	}
	vh.MarkerDataType = codec.MarkerText
	vh.MarkerLength = maxLen
	size := 8*count + int64(len(fields))*(codec.MarkerFieldSize+int64(maxLen)*count)
	p.add(recording.KindMarker, v.Name, size, vh.Encode, func(e *codec.Encoder) {
		e.Int64s(ts)
		for i := range fields {
			e.String(fields[i].Name, codec.MarkerFieldSize)
			for _, value := range values[i] {
				e.String(value, int(maxLen))
			}
		}
	})
	return nil
}

// setSampleEncoding fills the sample fields of vh and returns the
// coefficient used for values. Float samples are stored as given.
func setSampleEncoding(vh *codec.VarHeaderV5, encoding SampleEncoding, name string, values []float32) (float64, error) {
	if encoding == SampleInt16 {
		if err := checkQuantizable(name, values); err != nil {
			return 0, err
		}
		coef := ScaleFloatsToShorts(values)
		vh.ContinuousDataType = codec.SamplesInt16
		vh.ADtoUnits = 1 / coef
		return coef, nil
	}
	vh.ContinuousDataType = codec.SamplesFloat32
	vh.ADtoUnits = 1
	return 1, nil
}

func sampleWidth(encoding SampleEncoding) int64 {
	if encoding == SampleInt16 {
		return 2
	}
	return 4
}

func writeSamples(e *codec.Encoder, encoding SampleEncoding, values []float32, coef float64) {
	if encoding == SampleInt16 {
		e.Int16s(quantize(values, coef))
		return
	}
	e.Float32s(values)
}
