package penalized

import (
	"gonum.org/v1/gonum/mat"

	"github.com/umich-cphds/minet/pkg/errors"
	"github.com/umich-cphds/minet/preprocessing"
)

// StackedDataset is the combined design built from M imputed datasets: the
// imputations' rows concatenated in order, one response vector, and an
// expanded weight per row equal to the observation weight divided by M.
// The buffers are owned by the StackedDataset; caller matrices are copied,
// never aliased.
type StackedDataset struct {
	X       *mat.Dense
	Y       []float64
	Weights []float64

	N int // original observations per imputation
	P int // variables
	M int // imputations
}

// Stack builds a StackedDataset from M (X_m, y_m) pairs and per-observation
// weights. Every X_m must be n×p with matching y_m of length n; obsWeights
// must have length n with entries in (0, 1]. Row block m of the result holds
// imputation m's rows in original order.
func Stack(X []mat.Matrix, y []mat.Vector, obsWeights []float64) (*StackedDataset, error) {
	if len(X) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "Stack")
	}
	if len(y) != len(X) {
		return nil, errors.NewDimensionError("Stack", len(X), len(y), 0)
	}

	m := len(X)
	n, p := X[0].Dims()
	if n == 0 || p == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "Stack")
	}

	for k := 0; k < m; k++ {
		r, c := X[k].Dims()
		if r != n {
			return nil, errors.NewDimensionError("Stack", n, r, 0)
		}
		if c != p {
			return nil, errors.NewDimensionError("Stack", p, c, 1)
		}
		if y[k].Len() != n {
			return nil, errors.NewDimensionError("Stack", n, y[k].Len(), 0)
		}
	}

	if obsWeights == nil {
		obsWeights = ones(n)
	}
	if len(obsWeights) != n {
		return nil, errors.NewDimensionError("Stack", n, len(obsWeights), 0)
	}
	for i, w := range obsWeights {
		if w <= 0 || w > 1 {
			return nil, errors.NewValidationError("obsWeights", "must be in (0, 1]", map[string]interface{}{"index": i, "value": w})
		}
	}

	sd := &StackedDataset{
		X:       mat.NewDense(n*m, p, nil),
		Y:       make([]float64, n*m),
		Weights: make([]float64, n*m),
		N:       n,
		P:       p,
		M:       m,
	}

	invM := 1.0 / float64(m)
	for k := 0; k < m; k++ {
		offset := k * n
		for i := 0; i < n; i++ {
			for j := 0; j < p; j++ {
				sd.X.Set(offset+i, j, X[k].At(i, j))
			}
			sd.Y[offset+i] = y[k].AtVec(i)
			sd.Weights[offset+i] = obsWeights[i] * invM
		}
	}
	return sd, nil
}

// Standardize fits a weighted scaler on the stacked design using the
// expanded weights and returns the standardized copy together with the
// scaler, which is later used to report coefficients on the original
// covariate scale.
func (sd *StackedDataset) Standardize() (*mat.Dense, *preprocessing.WeightedStandardScaler, error) {
	scaler := preprocessing.NewWeightedStandardScaler()
	Xs, err := scaler.FitTransform(sd.X, sd.Weights)
	if err != nil {
		return nil, nil, errors.Wrap(err, "StackedDataset.Standardize")
	}
	return Xs, scaler, nil
}

// NormalizedWeights returns the expanded weights rescaled to sum to one.
func (sd *StackedDataset) NormalizedWeights() []float64 {
	sum := 0.0
	for _, w := range sd.Weights {
		sum += w
	}
	out := make([]float64, len(sd.Weights))
	for i, w := range sd.Weights {
		out[i] = w / sum
	}
	return out
}
