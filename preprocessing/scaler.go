// Package preprocessing provides the column standardization used by the
// penalized solvers. Standardization is weighted: stacked designs carry one
// weight per row (observation weight divided by the number of imputations),
// and the scaler must agree with the solver about those weights for the
// coordinate updates to be correctly normalized.
package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/umich-cphds/minet/pkg/errors"
)

// WeightedStandardScaler standardizes columns to weighted mean zero and
// weighted variance one. Fitted statistics are retained so that coefficients
// estimated on the standardized scale can be mapped back to the original
// covariate scale.
type WeightedStandardScaler struct {
	// Mean holds the weighted mean of each column.
	Mean []float64

	// Scale holds the weighted standard deviation of each column.
	Scale []float64

	// NVariables is the number of columns seen during Fit.
	NVariables int

	fitted bool
}

// NewWeightedStandardScaler creates an unfitted scaler.
func NewWeightedStandardScaler() *WeightedStandardScaler {
	return &WeightedStandardScaler{}
}

// Fit computes weighted column means and standard deviations. Weights must
// have one entry per row of X; they are normalized internally and need not
// sum to one. Columns with near-zero variance get scale 1 so that constant
// columns pass through unchanged.
func (s *WeightedStandardScaler) Fit(X mat.Matrix, weights []float64) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.Wrap(errors.ErrEmptyData, "WeightedStandardScaler.Fit")
	}
	if len(weights) != r {
		return errors.NewDimensionError("WeightedStandardScaler.Fit", r, len(weights), 0)
	}

	sumW := 0.0
	for _, w := range weights {
		sumW += w
	}
	if sumW <= 0 {
		return errors.NewValidationError("weights", "must have positive sum", sumW)
	}

	s.NVariables = c
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)

	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		s.Mean[j] = stat.Mean(col, weights)

		// Population-style weighted variance. The solvers rely on
		// sum_i w_i x_ij^2 = sumW for standardized columns.
		variance := 0.0
		for i := 0; i < r; i++ {
			d := col[i] - s.Mean[j]
			variance += weights[i] * d * d
		}
		variance /= sumW

		s.Scale[j] = math.Sqrt(variance)
		if s.Scale[j] < 1e-8 {
			s.Scale[j] = 1.0
		}
	}

	s.fitted = true
	return nil
}

// Transform returns a standardized copy of X using the fitted statistics.
func (s *WeightedStandardScaler) Transform(X mat.Matrix) (*mat.Dense, error) {
	if !s.fitted {
		return nil, errors.NewNotFittedError("WeightedStandardScaler", "Transform")
	}

	r, c := X.Dims()
	if c != s.NVariables {
		return nil, errors.NewDimensionError("WeightedStandardScaler.Transform", s.NVariables, c, 1)
	}

	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, (X.At(i, j)-s.Mean[j])/s.Scale[j])
		}
	}
	return out, nil
}

// FitTransform fits the scaler and returns the standardized copy of X.
func (s *WeightedStandardScaler) FitTransform(X mat.Matrix, weights []float64) (*mat.Dense, error) {
	if err := s.Fit(X, weights); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// Unstandardize maps coefficients estimated on the standardized scale back to
// the original covariate scale. coefStd is modified in place and returned
// together with the adjusted intercept.
func (s *WeightedStandardScaler) Unstandardize(coefStd []float64, interceptStd float64) ([]float64, float64, error) {
	if !s.fitted {
		return nil, 0, errors.NewNotFittedError("WeightedStandardScaler", "Unstandardize")
	}
	if len(coefStd) != s.NVariables {
		return nil, 0, errors.NewDimensionError("WeightedStandardScaler.Unstandardize", s.NVariables, len(coefStd), 1)
	}

	intercept := interceptStd
	for j := range coefStd {
		coefStd[j] /= s.Scale[j]
		intercept -= coefStd[j] * s.Mean[j]
	}
	return coefStd, intercept, nil
}
