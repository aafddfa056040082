package nexfile

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/ssargent/nexkit/pkg/codec"
	"github.com/ssargent/nexkit/pkg/metrics"
	"github.com/ssargent/nexkit/pkg/recording"
)

const (
	operationRead  = "read"
	operationWrite = "write"

	defaultUnits = "mV"
)

// ReaderConfig holds configuration for the reader
type ReaderConfig struct {
	Logger  *zerolog.Logger  // nil disables logging
	Metrics *metrics.Metrics // nil disables metrics
}

// Reader decodes .nex and .nex5 files into sessions. A Reader holds no
// per-file state and can be shared between goroutines.
type Reader struct {
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewReader creates a reader
func NewReader(config ReaderConfig) *Reader {
	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = config.Logger.With().Str("component", "reader").Logger()
	}
	return &Reader{logger: logger, metrics: config.Metrics}
}

// Read loads and decodes the file at path
func (r *Reader) Read(path string) (*recording.Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	s, err := r.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Decode decodes a complete file image. The generation is chosen by the
// magic number.
func (r *Reader) Decode(data []byte) (*recording.Session, error) {
	start := time.Now()
	format, err := DetectFormat(data)
	if err != nil {
		r.metrics.RecordCodecOperation(operationRead, "unknown", false, time.Since(start))
		return nil, err
	}

	var s *recording.Session
	switch format {
	case FormatV1:
		s, err = r.decodeV1(codec.NewDecoder(data))
	case FormatV5:
		s, err = r.decodeV5(codec.NewDecoder(data))
	}
	r.metrics.RecordCodecOperation(operationRead, format.String(), err == nil, time.Since(start))
	if err != nil {
		return nil, err
	}

	r.metrics.AddBytes(metrics.DirectionRead, len(data))
	r.countVariables(s)
	r.logger.Debug().
		Str("format", format.String()).
		Int("bytes", len(data)).
		Int("variables", s.NumVariables()).
		Dur("duration", time.Since(start)).
		Msg("decoded file")
	return s, nil
}

func (r *Reader) countVariables(s *recording.Session) {
	for _, kind := range recording.Kinds {
		r.metrics.AddVariables(kind.String(), metrics.DirectionRead, countKind(s, kind))
	}
}

// decodable reports whether a variable type maps onto the session model
func decodable(t codec.VarType) bool {
	switch t {
	case codec.VarNeuron, codec.VarEvent, codec.VarInterval, codec.VarMarker, codec.VarContinuous, codec.VarWaveform:
		return true
	}
	return false
}

// skipVariable logs a variable type that has no in-memory representation
func (r *Reader) skipVariable(t codec.VarType, name string) {
	if t == codec.VarPopulationVector {
		r.logger.Debug().Str("variable", name).Msg("skipping population vector")
		return
	}
	r.logger.Warn().Str("variable", name).Int32("type", int32(t)).Msg("skipping variable of unknown type")
}

// variableError attaches the variable name to a decode error
func variableError(name string, err error) error {
	return fmt.Errorf("variable %q: %w", name, err)
}

// splitRows slices flat into rows of width values without copying
func splitRows(flat []float32, rows, width int) [][]float32 {
	out := make([][]float32, rows)
	for i := range out {
		out[i] = flat[i*width : (i+1)*width : (i+1)*width]
	}
	return out
}

// headerCapacity bounds a preallocation by what the remaining bytes can hold
func headerCapacity(count int64, remaining int64, size int64) int {
	if limit := remaining / size; count > limit {
		count = limit
	}
	if count < 0 {
		return 0
	}
	return int(count)
}

// Read decodes the file at path with a default reader
func Read(path string) (*recording.Session, error) {
	return NewReader(ReaderConfig{}).Read(path)
}

// Decode decodes a file image with a default reader
func Decode(data []byte) (*recording.Session, error) {
	return NewReader(ReaderConfig{}).Decode(data)
}
