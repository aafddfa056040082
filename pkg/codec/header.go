package codec

import "fmt"

// Magic numbers and fixed sizes of the two file generations
const (
	MagicV1 int32 = 827868494 // "NEX1"
	MagicV5 int32 = 894977358 // "NEX5"

	FileHeaderV1Size = 544
	VarHeaderV1Size  = 208
	FileHeaderV5Size = 356
	VarHeaderV5Size  = 244

	// MetadataOffsetPosition is the byte position of FileHeaderV5.MetadataOffset
	MetadataOffsetPosition = 284

	NameSize        = 64
	CommentSize     = 256
	UnitsSize       = 32
	MarkerFieldSize = 64
)

// Header versions written by this package
const (
	FileVersionV1 int32 = 106
	VarVersionV1  int32 = 100
	FileVersionV5 int32 = 502
	VarVersionV5  int32 = 500
)

// VarType is the variable type tag stored in every variable header
type VarType int32

const (
	VarNeuron VarType = iota
	VarEvent
	VarInterval
	VarWaveform
	VarPopulationVector
	VarContinuous
	VarMarker
)

func (t VarType) String() string {
	switch t {
	case VarNeuron:
		return "neuron"
	case VarEvent:
		return "event"
	case VarInterval:
		return "interval"
	case VarWaveform:
		return "waveform"
	case VarPopulationVector:
		return "population-vector"
	case VarContinuous:
		return "continuous"
	case VarMarker:
		return "marker"
	default:
		return fmt.Sprintf("unknown(%d)", int32(t))
	}
}

// FileHeaderV1 is the 544-byte main header of a format-v1 file
type FileHeaderV1 struct {
	Magic     int32
	Version   int32
	Comment   string
	Frequency float64 // ticks per second
	Begin     int32   // first tick
	End       int32   // last tick
	NumVars   int32
}

// Encode appends the header to e
func (h *FileHeaderV1) Encode(e *Encoder) {
	e.Int32(h.Magic)
	e.Int32(h.Version)
	e.String(h.Comment, CommentSize)
	e.Float64(h.Frequency)
	e.Int32(h.Begin)
	e.Int32(h.End)
	e.Int32(h.NumVars)
	e.Zero(260)
}

// DecodeFileHeaderV1 reads a main header at the decoder's position
func DecodeFileHeaderV1(d *Decoder) (*FileHeaderV1, error) {
	h := &FileHeaderV1{}
	h.Magic = d.Int32()
	h.Version = d.Int32()
	h.Comment = d.String(CommentSize)
	h.Frequency = d.Float64()
	h.Begin = d.Int32()
	h.End = d.Int32()
	h.NumVars = d.Int32()
	d.Skip(260)
	if err := d.Err(); err != nil {
		return nil, err
	}

	if h.Magic != MagicV1 {
		return nil, fmt.Errorf("%w: magic number %d", ErrInvalidFormat, h.Magic)
	}
	if !(h.Frequency > 0) {
		return nil, fmt.Errorf("%w: timestamp frequency %v", ErrInvalidFormat, h.Frequency)
	}
	if h.NumVars < 0 {
		return nil, fmt.Errorf("%w: variable count %d", ErrInvalidFormat, h.NumVars)
	}
	return h, nil
}

// VarHeaderV1 is the 208-byte per-variable header of a format-v1 file
type VarHeaderV1 struct {
	Type         VarType
	Version      int32
	Name         string
	DataOffset   int32
	Count        int32 // timestamps, intervals, waveforms or fragments
	WireNumber   int32
	UnitNumber   int32
	XPos         float64
	YPos         float64
	WFrequency   float64
	ADtoMV       float64
	NPointsWave  int32 // points per wave, or total continuous points
	NMarkers     int32
	MarkerLength int32
	MVOffset     float64
	PreThreshold float64
}

// Encode appends the header to e
func (h *VarHeaderV1) Encode(e *Encoder) {
	e.Int32(int32(h.Type))
	e.Int32(h.Version)
	e.String(h.Name, NameSize)
	e.Int32(h.DataOffset)
	e.Int32(h.Count)
	e.Int32(h.WireNumber)
	e.Int32(h.UnitNumber)
	e.Zero(8)
	e.Float64(h.XPos)
	e.Float64(h.YPos)
	e.Float64(h.WFrequency)
	e.Float64(h.ADtoMV)
	e.Int32(h.NPointsWave)
	e.Int32(h.NMarkers)
	e.Int32(h.MarkerLength)
	e.Float64(h.MVOffset)
	e.Float64(h.PreThreshold)
	e.Zero(52)
}

// DecodeVarHeaderV1 reads a variable header at the decoder's position
func DecodeVarHeaderV1(d *Decoder) (*VarHeaderV1, error) {
	h := &VarHeaderV1{}
	h.Type = VarType(d.Int32())
	h.Version = d.Int32()
	h.Name = d.String(NameSize)
	h.DataOffset = d.Int32()
	h.Count = d.Int32()
	h.WireNumber = d.Int32()
	h.UnitNumber = d.Int32()
	d.Skip(8)
	h.XPos = d.Float64()
	h.YPos = d.Float64()
	h.WFrequency = d.Float64()
	h.ADtoMV = d.Float64()
	h.NPointsWave = d.Int32()
	h.NMarkers = d.Int32()
	h.MarkerLength = d.Int32()
	h.MVOffset = d.Float64()
	h.PreThreshold = d.Float64()
	d.Skip(52)
	if err := d.Err(); err != nil {
		return nil, err
	}
	return h, nil
}

// FileHeaderV5 is the 356-byte main header of a format-v5 file
type FileHeaderV5 struct {
	Magic          int32
	Version        int32 // 500, 501 (valid End) or 502 (64-bit timestamps)
	Comment        string
	Frequency      float64
	Begin          int64
	NumVars        int32
	MetadataOffset int64 // 0 when absent
	End            int64
}

// Encode appends the header to e
func (h *FileHeaderV5) Encode(e *Encoder) {
	e.Int32(h.Magic)
	e.Int32(h.Version)
	e.String(h.Comment, CommentSize)
	e.Float64(h.Frequency)
	e.Int64(h.Begin)
	e.Int32(h.NumVars)
	e.Int64(h.MetadataOffset)
	e.Int64(h.End)
	e.Zero(56)
}

// HasEnd reports whether the End field carries a valid tick
func (h *FileHeaderV5) HasEnd() bool {
	return h.Version >= 501
}

// DecodeFileHeaderV5 reads a main header at the decoder's position
func DecodeFileHeaderV5(d *Decoder) (*FileHeaderV5, error) {
	h := &FileHeaderV5{}
	h.Magic = d.Int32()
	h.Version = d.Int32()
	h.Comment = d.String(CommentSize)
	h.Frequency = d.Float64()
	h.Begin = d.Int64()
	h.NumVars = d.Int32()
	h.MetadataOffset = d.Int64()
	h.End = d.Int64()
	d.Skip(56)
	if err := d.Err(); err != nil {
		return nil, err
	}

	if h.Magic != MagicV5 {
		return nil, fmt.Errorf("%w: magic number %d", ErrInvalidFormat, h.Magic)
	}
	if !(h.Frequency > 0) {
		return nil, fmt.Errorf("%w: timestamp frequency %v", ErrInvalidFormat, h.Frequency)
	}
	if h.NumVars < 0 {
		return nil, fmt.Errorf("%w: variable count %d", ErrInvalidFormat, h.NumVars)
	}
	return h, nil
}

// Encoding flags of VarHeaderV5
const (
	TimestampInt32 int32 = 0
	TimestampInt64 int32 = 1

	SamplesInt16   int32 = 0
	SamplesFloat32 int32 = 1

	MarkerText   int32 = 0
	MarkerUint32 int32 = 1
)

// VarHeaderV5 is the 244-byte per-variable header of a format-v5 file
type VarHeaderV5 struct {
	Type               VarType
	Version            int32
	Name               string
	DataOffset         int64
	Count              int64
	TimestampDataType  int32
	ContinuousDataType int32
	SamplingFrequency  float64
	Units              string
	ADtoUnits          float64
	UnitsOffset        float64
	NumberOfDataPoints int64 // points per wave, or total continuous points
	PreThreshold       float64
	MarkerDataType     int32
	NumMarkerFields    int32
	MarkerLength       int32
	FragmentIndexType  int32 // reserved, always 0
}

// Encode appends the header to e
func (h *VarHeaderV5) Encode(e *Encoder) {
	e.Int32(int32(h.Type))
	e.Int32(h.Version)
	e.String(h.Name, NameSize)
	e.Int64(h.DataOffset)
	e.Int64(h.Count)
	e.Int32(h.TimestampDataType)
	e.Int32(h.ContinuousDataType)
	e.Float64(h.SamplingFrequency)
	e.String(h.Units, UnitsSize)
	e.Float64(h.ADtoUnits)
	e.Float64(h.UnitsOffset)
	e.Int64(h.NumberOfDataPoints)
	e.Float64(h.PreThreshold)
	e.Int32(h.MarkerDataType)
	e.Int32(h.NumMarkerFields)
	e.Int32(h.MarkerLength)
	e.Int32(h.FragmentIndexType)
	e.Zero(60)
}

// DecodeVarHeaderV5 reads a variable header at the decoder's position
func DecodeVarHeaderV5(d *Decoder) (*VarHeaderV5, error) {
	h := &VarHeaderV5{}
	h.Type = VarType(d.Int32())
	h.Version = d.Int32()
	h.Name = d.String(NameSize)
	h.DataOffset = d.Int64()
	h.Count = d.Int64()
	h.TimestampDataType = d.Int32()
	h.ContinuousDataType = d.Int32()
	h.SamplingFrequency = d.Float64()
	h.Units = d.String(UnitsSize)
	h.ADtoUnits = d.Float64()
	h.UnitsOffset = d.Float64()
	h.NumberOfDataPoints = d.Int64()
	h.PreThreshold = d.Float64()
	h.MarkerDataType = d.Int32()
	h.NumMarkerFields = d.Int32()
	h.MarkerLength = d.Int32()
	h.FragmentIndexType = d.Int32()
	d.Skip(60)
	if err := d.Err(); err != nil {
		return nil, err
	}
	return h, nil
}
