package nexfile

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ssargent/nexkit/pkg/codec"
)

// Errors returned by the reader and writer, re-exported from codec
var (
	ErrInvalidFormat   = codec.ErrInvalidFormat
	ErrTruncatedData   = codec.ErrTruncatedData
	ErrOversize        = codec.ErrOversize
	ErrMetadataParse   = codec.ErrMetadataParse
	ErrInvalidVariable = codec.ErrInvalidVariable
)

// Format is a file generation
type Format int

const (
	FormatV1 Format = iota + 1 // .nex: 32-bit ticks, 16-bit samples
	FormatV5                   // .nex5: 64-bit ticks, float or 16-bit samples, JSON metadata
)

func (f Format) String() string {
	switch f {
	case FormatV1:
		return "nex"
	case FormatV5:
		return "nex5"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// Extension returns the conventional file extension including the dot
func (f Format) Extension() string {
	return "." + f.String()
}

// ParseFormat accepts "nex"/"v1" and "nex5"/"v5"
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "nex", "v1":
		return FormatV1, nil
	case "nex5", "v5":
		return FormatV5, nil
	default:
		return 0, fmt.Errorf("unknown file format %q", s)
	}
}

// FormatForPath picks the generation from a file extension: .nex5 files
// are format-v5, everything else is format-v1.
func FormatForPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".nex5") {
		return FormatV5
	}
	return FormatV1
}

// DetectFormat identifies the generation of a file image by its magic number
func DetectFormat(data []byte) (Format, error) {
	if len(data) < 4 {
		return 0, fmt.Errorf("%w: need 4 bytes for magic number, have %d", ErrTruncatedData, len(data))
	}
	switch magic := int32(binary.LittleEndian.Uint32(data)); magic {
	case codec.MagicV1:
		return FormatV1, nil
	case codec.MagicV5:
		return FormatV5, nil
	default:
		return 0, fmt.Errorf("%w: magic number %d", ErrInvalidFormat, magic)
	}
}

// SampleEncoding selects how format-v5 stores continuous and waveform samples
type SampleEncoding int

const (
	SampleFloat32 SampleEncoding = iota // raw 32-bit floats, lossless
	SampleInt16                         // quantized 16-bit integers
)

func (e SampleEncoding) String() string {
	if e == SampleInt16 {
		return "int16"
	}
	return "float32"
}

// ParseSampleEncoding accepts "float32"/"float" and "int16"/"short"
func ParseSampleEncoding(s string) (SampleEncoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "float32", "float":
		return SampleFloat32, nil
	case "int16", "short":
		return SampleInt16, nil
	default:
		return 0, fmt.Errorf("unknown sample encoding %q", s)
	}
}
