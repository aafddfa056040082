package nexfile

import (
	"fmt"
	"math"

	"github.com/ssargent/nexkit/pkg/codec"
	"github.com/ssargent/nexkit/pkg/recording"
)

func (w *Writer) encodeV1(s *recording.Session) ([]byte, error) {
	l, err := layoutV1(s)
	if err != nil {
		return nil, err
	}
	e, err := l.emit(0)
	if err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// layoutV1 plans a format-v1 file. All tick conversions and range checks
// happen here so a failing session produces no output.
func layoutV1(s *recording.Session) (*layout, error) {
	freq := s.TimestampFrequency
	numVars, err := checkInt32("session", "variable count", s.NumVariables())
	if err != nil {
		return nil, err
	}

	start, end := sessionBounds(s)
	bounds, err := ticks32("session", []float64{start, end}, freq)
	if err != nil {
		return nil, err
	}
	fh := &codec.FileHeaderV1{
		Magic:     codec.MagicV1,
		Version:   codec.FileVersionV1,
		Comment:   s.Comment,
		Frequency: freq,
		Begin:     bounds[0],
		End:       bounds[1],
		NumVars:   numVars,
	}

	p := newPlanner(codec.FileHeaderV1Size+int64(numVars)*codec.VarHeaderV1Size, int(numVars))
	header := func(t codec.VarType, name string) *codec.VarHeaderV1 {
		return &codec.VarHeaderV1{
			Type:       t,
			Version:    codec.VarVersionV1,
			Name:       name,
			DataOffset: int32(uint32(p.cursor)),
		}
	}

	for _, v := range s.Neurons {
		ts, err := ticks32(v.Name, v.Timestamps, freq)
		if err != nil {
			return nil, err
		}
		vh := header(codec.VarNeuron, v.Name)
		vh.Count = int32(len(ts))
		vh.WireNumber = int32(v.WireNumber)
		vh.UnitNumber = int32(v.UnitNumber)
		vh.XPos = v.XPos
		vh.YPos = v.YPos
		p.add(recording.KindNeuron, v.Name, 4*int64(len(ts)), vh.Encode, func(e *codec.Encoder) {
			e.Int32s(ts)
		})
	}

	for _, v := range s.Events {
		ts, err := ticks32(v.Name, v.Timestamps, freq)
		if err != nil {
			return nil, err
		}
		vh := header(codec.VarEvent, v.Name)
		vh.Count = int32(len(ts))
		p.add(recording.KindEvent, v.Name, 4*int64(len(ts)), vh.Encode, func(e *codec.Encoder) {
			e.Int32s(ts)
		})
	}

	for _, v := range s.Intervals {
		starts, err := ticks32(v.Name, v.Starts, freq)
		if err != nil {
			return nil, err
		}
		ends, err := ticks32(v.Name, v.Ends, freq)
		if err != nil {
			return nil, err
		}
		vh := header(codec.VarInterval, v.Name)
		vh.Count = int32(len(starts))
		p.add(recording.KindInterval, v.Name, 8*int64(len(starts)), vh.Encode, func(e *codec.Encoder) {
			e.Int32s(starts)
			e.Int32s(ends)
		})
	}

	for _, v := range s.Markers {
		ts, err := ticks32(v.Name, v.Timestamps, freq)
		if err != nil {
			return nil, err
		}
		values := markerValues(v)
		fields := v.Fields
		maxLen := v.MaxValueLength()
		vh := header(codec.VarMarker, v.Name)
		vh.Count = int32(len(ts))
		vh.NMarkers = int32(len(fields))
		vh.MarkerLength = int32(maxLen)
		size := 4*int64(len(ts)) + int64(len(fields))*(codec.MarkerFieldSize+int64(maxLen)*int64(len(ts)))
		p.add(recording.KindMarker, v.Name, size, vh.Encode, func(e *codec.Encoder) {
			e.Int32s(ts)
			for i := range fields {
				e.String(fields[i].Name, codec.MarkerFieldSize)
				for _, value := range values[i] {
					e.String(value, maxLen)
				}
			}
		})
	}

	for _, v := range s.Continuous {
		ts, err := ticks32(v.Name, v.FragmentTimestamps, freq)
		if err != nil {
			return nil, err
		}
		if err := checkQuantizable(v.Name, v.Samples); err != nil {
			return nil, err
		}
		v.Coefficient = ScaleFloatsToShorts(v.Samples)
		samples := v.Samples
		coef := v.Coefficient
		vh := header(codec.VarContinuous, v.Name)
		vh.Count = int32(len(ts))
		vh.WFrequency = v.SamplingRate
		vh.ADtoMV = 1 / coef
		vh.NPointsWave = int32(len(samples))
		starts := v.FragmentStarts
		size := 8*int64(len(ts)) + 2*int64(len(samples))
		p.add(recording.KindContinuous, v.Name, size, vh.Encode, func(e *codec.Encoder) {
			e.Int32s(ts)
			e.Uint32s(starts)
			e.Int16s(quantize(samples, coef))
		})
	}

	for _, v := range s.Waveforms {
		ts, err := ticks32(v.Name, v.Timestamps, freq)
		if err != nil {
			return nil, err
		}
		points, err := checkInt32(v.Name, "samples per wave", v.SamplesPerWave)
		if err != nil {
			return nil, err
		}
		flat := v.Flat()
		if err := checkQuantizable(v.Name, flat); err != nil {
			return nil, err
		}
		v.Coefficient = ScaleFloatsToShorts(flat)
		coef := v.Coefficient
		vh := header(codec.VarWaveform, v.Name)
		vh.Count = int32(len(ts))
		vh.WireNumber = int32(v.WireNumber)
		vh.UnitNumber = int32(v.UnitNumber)
		vh.WFrequency = v.SamplingRate
		vh.ADtoMV = 1 / coef
		vh.NPointsWave = points
		vh.PreThreshold = v.PreThreshold
		size := 4*int64(len(ts)) + 2*int64(len(flat))
		p.add(recording.KindWaveform, v.Name, size, vh.Encode, func(e *codec.Encoder) {
			e.Int32s(ts)
			e.Int16s(quantize(flat, coef))
		})
	}

	if p.cursor > math.MaxUint32 {
		return nil, fmt.Errorf("%w: file of %d bytes exceeds the 4 GiB limit of .nex files", ErrOversize, p.cursor)
	}
	return &layout{header: fh.Encode, vars: p.vars, size: p.cursor}, nil
}
