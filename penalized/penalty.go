package penalized

import (
	"github.com/umich-cphds/minet/pkg/errors"
)

// PenaltyContext holds the per-variable penalty factors and adaptive weights
// applied by both engines. Factors scale the whole penalty for a variable
// (0 means unpenalized, always kept); adaptive weights multiply only the
// lasso-type term and are typically the inverse of a prior fit's
// coefficients.
type PenaltyContext struct {
	Factors  []float64
	Adaptive []float64
}

// NewPenaltyContext validates penalty factors and adaptive weights against
// the variable count p. A nil slice defaults to all ones.
func NewPenaltyContext(p int, factors, adaptive []float64) (*PenaltyContext, error) {
	pc := &PenaltyContext{
		Factors:  factors,
		Adaptive: adaptive,
	}
	if pc.Factors == nil {
		pc.Factors = ones(p)
	}
	if pc.Adaptive == nil {
		pc.Adaptive = ones(p)
	}

	if len(pc.Factors) != p {
		return nil, errors.NewDimensionError("NewPenaltyContext", p, len(pc.Factors), 1)
	}
	if len(pc.Adaptive) != p {
		return nil, errors.NewDimensionError("NewPenaltyContext", p, len(pc.Adaptive), 1)
	}
	for j, v := range pc.Factors {
		if v < 0 {
			return nil, errors.NewValidationError("penaltyFactors", "must be non-negative", map[string]interface{}{"index": j, "value": v})
		}
	}
	for j, v := range pc.Adaptive {
		if v < 0 {
			return nil, errors.NewValidationError("adaptiveWeights", "must be non-negative", map[string]interface{}{"index": j, "value": v})
		}
	}
	return pc, nil
}

// L1Weight returns the multiplier on the lasso-type term for variable j.
func (pc *PenaltyContext) L1Weight(j int) float64 {
	return pc.Factors[j] * pc.Adaptive[j]
}

// Penalized reports whether variable j carries any penalty.
func (pc *PenaltyContext) Penalized(j int) bool {
	return pc.Factors[j] > 0
}

func ones(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = 1
	}
	return v
}
