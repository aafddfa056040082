package nexfile

import (
	"fmt"
	"strings"

	"github.com/ssargent/nexkit/pkg/codec"
	"github.com/ssargent/nexkit/pkg/recording"
)

func (r *Reader) decodeV1(d *codec.Decoder) (*recording.Session, error) {
	fh, err := codec.DecodeFileHeaderV1(d)
	if err != nil {
		return nil, err
	}

	s := recording.NewSession(fh.Frequency)
	s.Comment = fh.Comment
	s.StartTime = float64(fh.Begin) / fh.Frequency
	s.EndTime = float64(fh.End) / fh.Frequency

	headers := make([]*codec.VarHeaderV1, 0, headerCapacity(int64(fh.NumVars), d.Remaining(), codec.VarHeaderV1Size))
	for i := int32(0); i < fh.NumVars; i++ {
		vh, err := codec.DecodeVarHeaderV1(d)
		if err != nil {
			return nil, fmt.Errorf("variable header %d: %w", i, err)
		}
		headers = append(headers, vh)
	}

	for _, vh := range headers {
		if err := r.decodeVariableV1(d, s, vh); err != nil {
			return nil, variableError(vh.Name, err)
		}
	}
	return s, nil
}

func (r *Reader) decodeVariableV1(d *codec.Decoder, s *recording.Session, vh *codec.VarHeaderV1) error {
	if !decodable(vh.Type) {
		r.skipVariable(vh.Type, vh.Name)
		return nil
	}
	if vh.Count < 0 || vh.NPointsWave < 0 || vh.NMarkers < 0 || vh.MarkerLength < 0 {
		return fmt.Errorf("%w: negative count in %s header", ErrInvalidFormat, vh.Type)
	}

	// offsets are unsigned so files up to 4 GiB can be addressed
	d.Seek(int64(uint32(vh.DataOffset)))
	freq := s.TimestampFrequency
	count := int64(vh.Count)

	switch vh.Type {
	case codec.VarNeuron:
		ts := d.Int32s(count)
		if err := d.Err(); err != nil {
			return err
		}
		s.Neurons = append(s.Neurons, &recording.Neuron{
			Name:       vh.Name,
			Timestamps: ticksToSeconds(ts, freq),
			WireNumber: int(vh.WireNumber),
			UnitNumber: int(vh.UnitNumber),
			XPos:       vh.XPos,
			YPos:       vh.YPos,
		})

	case codec.VarEvent:
		ts := d.Int32s(count)
		if err := d.Err(); err != nil {
			return err
		}
		s.Events = append(s.Events, &recording.Event{Name: vh.Name, Timestamps: ticksToSeconds(ts, freq)})

	case codec.VarInterval:
		starts := d.Int32s(count)
		ends := d.Int32s(count)
		if err := d.Err(); err != nil {
			return err
		}
		s.Intervals = append(s.Intervals, &recording.Interval{
			Name:   vh.Name,
			Starts: ticksToSeconds(starts, freq),
			Ends:   ticksToSeconds(ends, freq),
		})

	case codec.VarMarker:
		ts := d.Int32s(count)
		m := &recording.Marker{Name: vh.Name, Timestamps: ticksToSeconds(ts, freq), Fields: []recording.MarkerField{}}
		for i := int32(0); i < vh.NMarkers && d.Err() == nil; i++ {
			name := strings.TrimSpace(d.String(codec.MarkerFieldSize))
			values := d.Strings(count, int(vh.MarkerLength))
			m.Fields = append(m.Fields, recording.MarkerField{Name: name, Text: values})
		}
		if err := d.Err(); err != nil {
			return err
		}
		s.Markers = append(s.Markers, m)

	case codec.VarContinuous:
		ts := d.Int32s(count)
		starts := d.Uint32s(count)
		raw := d.Int16s(int64(vh.NPointsWave))
		if err := d.Err(); err != nil {
			return err
		}
		s.Continuous = append(s.Continuous, &recording.Continuous{
			Name:               vh.Name,
			SamplingRate:       vh.WFrequency,
			FragmentTimestamps: ticksToSeconds(ts, freq),
			FragmentStarts:     starts,
			Samples:            reconstruct(raw, vh.ADtoMV, vh.MVOffset),
			Units:              defaultUnits,
			Coefficient:        coefficientFromScale(vh.ADtoMV),
		})

	case codec.VarWaveform:
		ts := d.Int32s(count)
		raw := d.Int16s(count * int64(vh.NPointsWave))
		if err := d.Err(); err != nil {
			return err
		}
		s.Waveforms = append(s.Waveforms, &recording.Waveform{
			Name:           vh.Name,
			SamplingRate:   vh.WFrequency,
			Timestamps:     ticksToSeconds(ts, freq),
			SamplesPerWave: int(vh.NPointsWave),
			Samples:        splitRows(reconstruct(raw, vh.ADtoMV, vh.MVOffset), len(ts), int(vh.NPointsWave)),
			WireNumber:     int(vh.WireNumber),
			UnitNumber:     int(vh.UnitNumber),
			PreThreshold:   vh.PreThreshold,
			Units:          defaultUnits,
			Coefficient:    coefficientFromScale(vh.ADtoMV),
		})
	}
	return nil
}
