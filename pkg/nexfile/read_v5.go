package nexfile

import (
	"fmt"
	"math"
	"strings"

	"github.com/ssargent/nexkit/pkg/codec"
	"github.com/ssargent/nexkit/pkg/recording"
)

func (r *Reader) decodeV5(d *codec.Decoder) (*recording.Session, error) {
	fh, err := codec.DecodeFileHeaderV5(d)
	if err != nil {
		return nil, err
	}

	s := recording.NewSession(fh.Frequency)
	s.Comment = fh.Comment
	s.StartTime = float64(fh.Begin) / fh.Frequency
	s.EndTime = float64(fh.End) / fh.Frequency

	headers := make([]*codec.VarHeaderV5, 0, headerCapacity(int64(fh.NumVars), d.Remaining(), codec.VarHeaderV5Size))
	for i := int32(0); i < fh.NumVars; i++ {
		vh, err := codec.DecodeVarHeaderV5(d)
		if err != nil {
			return nil, fmt.Errorf("variable header %d: %w", i, err)
		}
		headers = append(headers, vh)
	}

	for _, vh := range headers {
		if err := r.decodeVariableV5(d, s, vh); err != nil {
			return nil, variableError(vh.Name, err)
		}
	}

	// before 501 the end tick was not maintained
	if !fh.HasEnd() {
		s.EndTime = s.MaxTimestamp()
	}

	r.readMetadata(d, s, fh.MetadataOffset)
	return s, nil
}

// readMetadata enriches s from the JSON block at offset. Failures are
// logged and counted but never fail the read.
func (r *Reader) readMetadata(d *codec.Decoder, s *recording.Session, offset int64) {
	if offset <= 0 || offset >= d.Size() {
		if offset != 0 {
			r.logger.Debug().Int64("offset", offset).Int64("size", d.Size()).Msg("metadata offset outside file")
		}
		return
	}

	d.Seek(offset)
	meta, skipped, err := parseMetadata(d.Rest())
	if err != nil {
		r.metrics.RecordMetadataFailure()
		r.logger.Warn().Err(err).Int64("offset", offset).Msg("ignoring unreadable metadata")
		return
	}
	for _, err := range skipped {
		r.metrics.RecordMetadataFailure()
		r.logger.Warn().Err(err).Int64("offset", offset).Msg("ignoring unreadable metadata entry")
	}
	meta.apply(s)
}

func (r *Reader) decodeVariableV5(d *codec.Decoder, s *recording.Session, vh *codec.VarHeaderV5) error {
	if !decodable(vh.Type) {
		r.skipVariable(vh.Type, vh.Name)
		return nil
	}
	if vh.Count < 0 || vh.NumberOfDataPoints < 0 || vh.NumMarkerFields < 0 || vh.MarkerLength < 0 {
		return fmt.Errorf("%w: negative count in %s header", ErrInvalidFormat, vh.Type)
	}

	d.Seek(vh.DataOffset)
	freq := s.TimestampFrequency

	switch vh.Type {
	case codec.VarNeuron:
		ts, err := timestampsV5(d, vh.Count, vh.TimestampDataType, freq)
		if err != nil {
			return err
		}
		s.Neurons = append(s.Neurons, &recording.Neuron{Name: vh.Name, Timestamps: ts})

	case codec.VarEvent:
		ts, err := timestampsV5(d, vh.Count, vh.TimestampDataType, freq)
		if err != nil {
			return err
		}
		s.Events = append(s.Events, &recording.Event{Name: vh.Name, Timestamps: ts})

	case codec.VarInterval:
		starts, err := timestampsV5(d, vh.Count, vh.TimestampDataType, freq)
		if err != nil {
			return err
		}
		ends, err := timestampsV5(d, vh.Count, vh.TimestampDataType, freq)
		if err != nil {
			return err
		}
		s.Intervals = append(s.Intervals, &recording.Interval{Name: vh.Name, Starts: starts, Ends: ends})

	case codec.VarMarker:
		m, err := markerV5(d, vh, freq)
		if err != nil {
			return err
		}
		s.Markers = append(s.Markers, m)

	case codec.VarContinuous:
		ts, err := timestampsV5(d, vh.Count, vh.TimestampDataType, freq)
		if err != nil {
			return err
		}
		starts := d.Uint32s(vh.Count)
		samples, err := samplesV5(d, vh, vh.NumberOfDataPoints)
		if err != nil {
			return err
		}
		s.Continuous = append(s.Continuous, &recording.Continuous{
			Name:               vh.Name,
			SamplingRate:       vh.SamplingFrequency,
			FragmentTimestamps: ts,
			FragmentStarts:     starts,
			Samples:            samples,
			Units:              vh.Units,
			Coefficient:        coefficientV5(vh),
		})

	case codec.VarWaveform:
		ts, err := timestampsV5(d, vh.Count, vh.TimestampDataType, freq)
		if err != nil {
			return err
		}
		width := vh.NumberOfDataPoints
		if width > 0 && vh.Count > math.MaxInt64/width {
			return fmt.Errorf("%w: %d waves of %d points", ErrOversize, vh.Count, width)
		}
		samples, err := samplesV5(d, vh, vh.Count*width)
		if err != nil {
			return err
		}
		s.Waveforms = append(s.Waveforms, &recording.Waveform{
			Name:           vh.Name,
			SamplingRate:   vh.SamplingFrequency,
			Timestamps:     ts,
			SamplesPerWave: int(width),
			Samples:        splitRows(samples, len(ts), int(width)),
			PreThreshold:   vh.PreThreshold,
			Units:          vh.Units,
			Coefficient:    coefficientV5(vh),
		})
	}
	return nil
}

func timestampsV5(d *codec.Decoder, count int64, dataType int32, freq float64) ([]float64, error) {
	var ts []float64
	switch dataType {
	case codec.TimestampInt32:
		ts = ticksToSeconds(d.Int32s(count), freq)
	case codec.TimestampInt64:
		ts = ticksToSeconds(d.Int64s(count), freq)
	default:
		return nil, fmt.Errorf("%w: timestamp data type %d", ErrInvalidFormat, dataType)
	}
	if err := d.Err(); err != nil {
		return nil, err
	}
	return ts, nil
}

func samplesV5(d *codec.Decoder, vh *codec.VarHeaderV5, count int64) ([]float32, error) {
	var samples []float32
	switch vh.ContinuousDataType {
	case codec.SamplesInt16:
		samples = reconstruct(d.Int16s(count), vh.ADtoUnits, vh.UnitsOffset)
	case codec.SamplesFloat32:
		samples = d.Float32s(count)
	default:
		return nil, fmt.Errorf("%w: continuous data type %d", ErrInvalidFormat, vh.ContinuousDataType)
	}
	if err := d.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}

// coefficientV5 recovers the quantization coefficient; float samples were
// never quantized
func coefficientV5(vh *codec.VarHeaderV5) float64 {
	if vh.ContinuousDataType == codec.SamplesFloat32 {
		return 1
	}
	return coefficientFromScale(vh.ADtoUnits)
}

func markerV5(d *codec.Decoder, vh *codec.VarHeaderV5, freq float64) (*recording.Marker, error) {
	ts, err := timestampsV5(d, vh.Count, vh.TimestampDataType, freq)
	if err != nil {
		return nil, err
	}
	if vh.MarkerDataType != codec.MarkerText && vh.MarkerDataType != codec.MarkerUint32 {
		return nil, fmt.Errorf("%w: marker data type %d", ErrInvalidFormat, vh.MarkerDataType)
	}

	m := &recording.Marker{Name: vh.Name, Timestamps: ts, Fields: []recording.MarkerField{}}
	for i := int32(0); i < vh.NumMarkerFields && d.Err() == nil; i++ {
		field := recording.MarkerField{Name: strings.TrimSpace(d.String(codec.MarkerFieldSize))}
		if vh.MarkerDataType == codec.MarkerUint32 {
			field.Codes = d.Uint32s(vh.Count)
		} else {
			field.Text = d.Strings(vh.Count, int(vh.MarkerLength))
		}
		m.Fields = append(m.Fields, field)
	}
	if err := d.Err(); err != nil {
		return nil, err
	}
	return m, nil
}
