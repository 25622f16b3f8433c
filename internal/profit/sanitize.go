package profit

import "math"

// Domain normalizes a raw numeric input into the range a formula accepts.
// Inputs come from freeform fields, so normalization never fails.
type Domain interface {
	Normalize(v float64) float64
}

// NonNegativeDomain maps NaN, ±Inf and negatives to 0.
type NonNegativeDomain struct{}

func (NonNegativeDomain) Normalize(v float64) float64 { return NonNegative(v) }

// ProbabilityDomain maps into [0, 1].
type ProbabilityDomain struct{}

func (ProbabilityDomain) Normalize(v float64) float64 { return Probability(v) }

// IntegerRangeDomain rounds to the nearest integer and clamps to [Min, Max].
// Non-finite input becomes 0 before clamping.
type IntegerRangeDomain struct {
	Min, Max float64
}

func (d IntegerRangeDomain) Normalize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	return Clamp(math.Round(v), d.Min, d.Max)
}

// NonNegative returns v when it is finite and >= 0, otherwise 0.
func NonNegative(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func Clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}

func Probability(v float64) float64 {
	return Clamp(NonNegative(v), 0, 1)
}
