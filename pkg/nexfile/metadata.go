package nexfile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"unicode/utf8"

	"github.com/ssargent/nexkit/pkg/recording"
)

// fileMetadata is the JSON document appended to format-v5 files
type fileMetadata struct {
	Variables []variableMetadata `json:"variables"`
}

// rawMetadata holds each variable entry undecoded
type rawMetadata struct {
	Variables []json.RawMessage `json:"variables"`
}

// variableMetadata accepts any JSON number for unit and wire; check
// requires them to be integral
type variableMetadata struct {
	Name       string        `json:"name"`
	UnitNumber float64       `json:"unitNumber"`
	Probe      probeMetadata `json:"probe"`
}

type probeMetadata struct {
	Position   positionMetadata `json:"position"`
	WireNumber float64          `json:"wireNumber"`
}

type positionMetadata struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// buildMetadata describes every neuron and waveform of s. Waveform
// positions are always written as zero.
func buildMetadata(s *recording.Session) *fileMetadata {
	meta := &fileMetadata{Variables: make([]variableMetadata, 0, len(s.Neurons)+len(s.Waveforms))}
	for _, n := range s.Neurons {
		meta.Variables = append(meta.Variables, variableMetadata{
			Name:       n.Name,
			UnitNumber: float64(n.UnitNumber),
			Probe: probeMetadata{
				Position:   positionMetadata{X: n.XPos, Y: n.YPos},
				WireNumber: float64(n.WireNumber),
			},
		})
	}
	for _, w := range s.Waveforms {
		meta.Variables = append(meta.Variables, variableMetadata{
			Name:       w.Name,
			UnitNumber: float64(w.UnitNumber),
			Probe:      probeMetadata{WireNumber: float64(w.WireNumber)},
		})
	}
	return meta
}

// parseMetadata decodes a metadata block. Trailing NULs and whitespace
// are ignored. A block that is not a JSON document fails as a whole;
// variable entries that do not fit the schema are dropped and reported in
// skipped.
func parseMetadata(raw []byte) (meta *fileMetadata, skipped []error, err error) {
	raw = bytes.TrimSpace(bytes.TrimRight(raw, "\x00"))
	if !utf8.Valid(raw) {
		return nil, nil, fmt.Errorf("%w: not valid UTF-8", ErrMetadataParse)
	}
	doc := &rawMetadata{}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrMetadataParse, err)
	}

	meta = &fileMetadata{Variables: make([]variableMetadata, 0, len(doc.Variables))}
	for i, entry := range doc.Variables {
		var v variableMetadata
		if err := json.Unmarshal(entry, &v); err != nil {
			skipped = append(skipped, fmt.Errorf("%w: variable %d: %v", ErrMetadataParse, i, err))
			continue
		}
		if err := v.check(); err != nil {
			skipped = append(skipped, fmt.Errorf("%w: variable %d (%q): %v", ErrMetadataParse, i, v.Name, err))
			continue
		}
		meta.Variables = append(meta.Variables, v)
	}
	return meta, skipped, nil
}

// check rejects numbers that do not fit the integer fields
func (v *variableMetadata) check() error {
	if !isInt32(v.UnitNumber) {
		return fmt.Errorf("unitNumber %v is not an integer", v.UnitNumber)
	}
	if !isInt32(v.Probe.WireNumber) {
		return fmt.Errorf("wireNumber %v is not an integer", v.Probe.WireNumber)
	}
	return nil
}

func isInt32(f float64) bool {
	return f == math.Trunc(f) && f >= math.MinInt32 && f <= math.MaxInt32
}

// apply copies probe identity to the first neuron and the first waveform
// matching each named entry. Only neurons take the position.
func (m *fileMetadata) apply(s *recording.Session) {
	for _, entry := range m.Variables {
		if entry.Name == "" {
			continue
		}
		unit, wire := int(entry.UnitNumber), int(entry.Probe.WireNumber)
		for _, n := range s.Neurons {
			if n.Name == entry.Name {
				n.UnitNumber = unit
				n.WireNumber = wire
				n.XPos = entry.Probe.Position.X
				n.YPos = entry.Probe.Position.Y
				break
			}
		}
		for _, w := range s.Waveforms {
			if w.Name == entry.Name {
				w.UnitNumber = unit
				w.WireNumber = wire
				break
			}
		}
	}
}
