package recording

// Summary is a header-level description of a session
type Summary struct {
	Comment            string            `json:"comment"`
	TimestampFrequency float64           `json:"timestamp_frequency"`
	StartTime          float64           `json:"start_time"`
	EndTime            float64           `json:"end_time"`
	Counts             map[string]int    `json:"counts"`
	Variables          []VariableSummary `json:"variables"`
}

// VariableSummary describes one variable
type VariableSummary struct {
	Name         string  `json:"name"`
	Kind         string  `json:"kind"`
	Count        int     `json:"count"`
	SamplingRate float64 `json:"sampling_rate,omitempty"`
	Samples      int     `json:"samples,omitempty"`
}

// Summarize builds a Summary of s
func Summarize(s *Session) Summary {
	sum := Summary{
		Comment:            s.Comment,
		TimestampFrequency: s.TimestampFrequency,
		StartTime:          s.StartTime,
		EndTime:            s.EndTime,
		Counts:             make(map[string]int, len(Kinds)),
		Variables:          make([]VariableSummary, 0, s.NumVariables()),
	}
	for _, k := range Kinds {
		sum.Counts[k.String()] = 0
	}

	for _, v := range s.Variables() {
		vs := VariableSummary{
			Name:  v.Label(),
			Kind:  v.Kind().String(),
			Count: v.Len(),
		}
		switch tv := v.(type) {
		case *Continuous:
			vs.SamplingRate = tv.SamplingRate
			vs.Samples = len(tv.Samples)
		case *Waveform:
			vs.SamplingRate = tv.SamplingRate
			vs.Samples = tv.SamplesPerWave
		}
		sum.Counts[vs.Kind]++
		sum.Variables = append(sum.Variables, vs)
	}
	return sum
}
