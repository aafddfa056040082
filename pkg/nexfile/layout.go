package nexfile

import (
	"fmt"

	"github.com/ssargent/nexkit/pkg/codec"
	"github.com/ssargent/nexkit/pkg/recording"
)

// varPlan is one variable placed in the file: where its payload goes and
// how to emit its header and payload
type varPlan struct {
	name    string
	kind    recording.Kind
	offset  int64
	size    int64
	header  func(e *codec.Encoder)
	payload func(e *codec.Encoder)
}

// layout is the result of the planning phase. Every offset is final
// before any payload byte is produced.
type layout struct {
	header func(e *codec.Encoder)
	vars   []varPlan
	size   int64 // bytes up to the end of the last payload
}

// planner hands out payload offsets in layout order
type planner struct {
	cursor int64
	vars   []varPlan
}

func newPlanner(headerBytes int64, numVars int) *planner {
	return &planner{cursor: headerBytes, vars: make([]varPlan, 0, numVars)}
}

// add reserves size bytes at the cursor for one variable
func (p *planner) add(kind recording.Kind, name string, size int64, header, payload func(e *codec.Encoder)) {
	p.vars = append(p.vars, varPlan{
		name:    name,
		kind:    kind,
		offset:  p.cursor,
		size:    size,
		header:  header,
		payload: payload,
	})
	p.cursor += size
}

// emit writes the main header, all variable headers and then all payloads,
// checking that every payload lands at its planned offset
func (l *layout) emit(extra int) (*codec.Encoder, error) {
	e := codec.NewEncoder(int(l.size) + extra)
	l.header(e)
	for _, v := range l.vars {
		v.header(e)
	}
	for _, v := range l.vars {
		if int64(e.Len()) != v.offset {
			return nil, fmt.Errorf("%s %q: payload at %d, planned %d", v.kind, v.name, e.Len(), v.offset)
		}
		v.payload(e)
	}
	if int64(e.Len()) != l.size {
		return nil, fmt.Errorf("file is %d bytes, planned %d", e.Len(), l.size)
	}
	return e, nil
}

// sessionBounds returns the start and end times written to the main header
func sessionBounds(s *recording.Session) (float64, float64) {
	start := s.StartTime
	if first, ok := s.MinTimestamp(); ok && first < start {
		start = first
	}
	return start, s.MaxTimestamp()
}

// markerValues returns every field of m as text
func markerValues(m *recording.Marker) [][]string {
	out := make([][]string, len(m.Fields))
	for i := range m.Fields {
		out[i] = m.Fields[i].Strings()
	}
	return out
}

// unitsOrDefault returns units, or the default when empty
func unitsOrDefault(units string) string {
	if units == "" {
		return defaultUnits
	}
	return units
}
