package nexfile

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/ssargent/nexkit/pkg/metrics"
	"github.com/ssargent/nexkit/pkg/recording"
)

// WriterConfig holds configuration for the writer
type WriterConfig struct {
	// Format selects the generation. Zero means: from the file extension
	// in Write, format-v5 in Encode.
	Format Format

	// SampleEncoding applies to format-v5 only; format-v1 always stores
	// quantized 16-bit samples.
	SampleEncoding SampleEncoding

	Logger  *zerolog.Logger  // nil disables logging
	Metrics *metrics.Metrics // nil disables metrics
}

// Writer encodes sessions into .nex and .nex5 files. Encoding updates the
// Coefficient of every continuous and waveform variable, so a session
// must not be written concurrently.
type Writer struct {
	config  WriterConfig
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewWriter creates a writer
func NewWriter(config WriterConfig) *Writer {
	logger := zerolog.Nop()
	if config.Logger != nil {
		logger = config.Logger.With().Str("component", "writer").Logger()
	}
	return &Writer{config: config, logger: logger, metrics: config.Metrics}
}

// Encode produces the complete file image of s
func (w *Writer) Encode(s *recording.Session) ([]byte, error) {
	format := w.config.Format
	if format == 0 {
		format = FormatV5
	}
	return w.encode(s, format)
}

// Write encodes s and stores it at path in a single write. Nothing is
// created when encoding fails.
func (w *Writer) Write(s *recording.Session, path string) error {
	format := w.config.Format
	if format == 0 {
		format = FormatForPath(path)
	}

	data, err := w.encode(s, format)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}

	w.logger.Info().Str("path", path).Str("format", format.String()).Int("bytes", len(data)).Msg("wrote file")
	return nil
}

func (w *Writer) encode(s *recording.Session, format Format) ([]byte, error) {
	start := time.Now()
	if err := s.Validate(); err != nil {
		w.metrics.RecordCodecOperation(operationWrite, format.String(), false, time.Since(start))
		return nil, fmt.Errorf("%w: %v", ErrInvalidVariable, err)
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatV1:
		data, err = w.encodeV1(s)
	case FormatV5:
		data, err = w.encodeV5(s)
	default:
		err = fmt.Errorf("unsupported file format %s", format)
	}
	w.metrics.RecordCodecOperation(operationWrite, format.String(), err == nil, time.Since(start))
	if err != nil {
		return nil, err
	}

	w.metrics.AddBytes(metrics.DirectionWrite, len(data))
	for _, kind := range recording.Kinds {
		w.metrics.AddVariables(kind.String(), metrics.DirectionWrite, countKind(s, kind))
	}
	w.logger.Debug().
		Str("format", format.String()).
		Int("bytes", len(data)).
		Int("variables", s.NumVariables()).
		Dur("duration", time.Since(start)).
		Msg("encoded session")
	return data, nil
}

func countKind(s *recording.Session, kind recording.Kind) int {
	switch kind {
	case recording.KindNeuron:
		return len(s.Neurons)
	case recording.KindEvent:
		return len(s.Events)
	case recording.KindInterval:
		return len(s.Intervals)
	case recording.KindMarker:
		return len(s.Markers)
	case recording.KindContinuous:
		return len(s.Continuous)
	case recording.KindWaveform:
		return len(s.Waveforms)
	}
	return 0
}

// Write stores s at path with a default writer; the format follows the
// file extension
func Write(s *recording.Session, path string) error {
	return NewWriter(WriterConfig{}).Write(s, path)
}

// Encode produces a format-v5 image of s with a default writer
func Encode(s *recording.Session) ([]byte, error) {
	return NewWriter(WriterConfig{}).Encode(s)
}
