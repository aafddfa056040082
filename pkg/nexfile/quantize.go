package nexfile

import (
	"fmt"
	"math"
)

// ScaleFloatsToShorts returns the coefficient that maps the largest
// absolute value in values onto 32767. Empty or all-zero input yields 1.
func ScaleFloatsToShorts(values []float32) float64 {
	var lo, hi float32
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	absMax := float64(hi)
	if -float64(lo) > absMax {
		absMax = -float64(lo)
	}
	if absMax == 0 {
		return 1
	}
	return 32767.0 / absMax
}

// checkQuantizable rejects NaN and infinite samples, which have no
// 16-bit representation
func checkQuantizable(name string, values []float32) error {
	for i, v := range values {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: %q sample %d is %v and cannot be stored as int16", ErrInvalidVariable, name, i, v)
		}
	}
	return nil
}

// quantize converts samples to 16-bit integers with the 32-bit product
// rounded half to even. NaN maps to 0; out-of-range values saturate.
func quantize(values []float32, coef float64) []int16 {
	c := float32(coef)
	out := make([]int16, len(values))
	for i, v := range values {
		r := math.RoundToEven(float64(v * c))
		switch {
		case r != r:
			r = 0
		case r > math.MaxInt16:
			r = math.MaxInt16
		case r < math.MinInt16:
			r = math.MinInt16
		}
		out[i] = int16(r)
	}
	return out
}

// reconstruct maps stored integers back to floating-point values
func reconstruct(raw []int16, scale, offset float64) []float32 {
	out := make([]float32, len(raw))
	for i, v := range raw {
		out[i] = float32(float64(v)*scale + offset)
	}
	return out
}

// coefficientFromScale recovers the quantization coefficient of a stored
// variable from its per-unit scale
func coefficientFromScale(scale float64) float64 {
	if scale == 0 {
		return 1
	}
	return 1 / scale
}

// ticksToSeconds converts stored ticks to seconds
func ticksToSeconds[T int32 | int64](ticks []T, frequency float64) []float64 {
	out := make([]float64, len(ticks))
	for i, t := range ticks {
		out[i] = float64(t) / frequency
	}
	return out
}

// ticks32 converts seconds to format-v1 ticks, failing with ErrOversize
// when a tick does not fit in a signed 32-bit integer
func ticks32(name string, seconds []float64, frequency float64) ([]int32, error) {
	out := make([]int32, len(seconds))
	for i, s := range seconds {
		t, err := tick(name, s, frequency, math.MinInt32, math.MaxInt32)
		if err != nil {
			return nil, err
		}
		out[i] = int32(t)
	}
	return out, nil
}

// ticks64 converts seconds to format-v5 ticks
func ticks64(name string, seconds []float64, frequency float64) ([]int64, error) {
	out := make([]int64, len(seconds))
	for i, s := range seconds {
		t, err := tick(name, s, frequency, math.MinInt64, math.MaxInt64)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func tick(name string, seconds, frequency float64, lo, hi int64) (int64, error) {
	r := math.RoundToEven(seconds * frequency)
	if math.IsNaN(r) {
		return 0, fmt.Errorf("%w: %q has a NaN timestamp", ErrInvalidVariable, name)
	}
	// float64(hi)+1 is exactly 2^31 or 2^63
	if r < float64(lo) || r >= float64(hi)+1 {
		return 0, fmt.Errorf("%w: %q timestamp %v s is %v ticks, outside [%d, %d]",
			ErrOversize, name, seconds, r, lo, hi)
	}
	return int64(r), nil
}

// checkInt32 guards header fields that are 32 bits wide in every format
func checkInt32(name, field string, v int) (int32, error) {
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0, fmt.Errorf("%w: %q %s %d does not fit in 32 bits", ErrOversize, name, field, v)
	}
	return int32(v), nil
}
