package penalized

import (
	"gonum.org/v1/gonum/mat"

	"github.com/umich-cphds/minet/core/model"
	"github.com/umich-cphds/minet/pkg/errors"
)

// SAENet is the stacked adaptive elastic net estimator. The M imputed
// datasets are stacked into one weighted design, so a single coefficient
// vector is fitted for every (lambda, alpha) setting and variable selection
// is identical across imputations by construction.
type SAENet struct {
	state *model.StateManager
	opts  *options

	path *SolutionPath
	cv   *CVResult
}

// NewSAENet creates a SAENET estimator. Configure the family, grids,
// penalty factors, adaptive weights, and observation weights through
// options.
func NewSAENet(opts ...Option) *SAENet {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &SAENet{
		state: model.NewStateManager(),
		opts:  o,
	}
}

// validateCommon checks the imputed datasets and solver parameters shared by
// Fit and CrossValidate. All validation happens before any solving begins.
func (s *SAENet) validateCommon(X []mat.Matrix, y []mat.Vector) (*PenaltyContext, error) {
	if len(X) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "SAENet.Fit")
	}
	if len(y) != len(X) {
		return nil, errors.NewDimensionError("SAENet.Fit", len(X), len(y), 0)
	}
	if !s.opts.family.valid() {
		return nil, errors.NewValidationError("family", "must be Gaussian or Binomial", s.opts.family)
	}
	if len(s.opts.alphaGrid) == 0 {
		return nil, errors.NewValidationError("alphaGrid", "must not be empty", s.opts.alphaGrid)
	}
	for _, a := range s.opts.alphaGrid {
		if a < 0 || a > 1 {
			return nil, errors.NewValidationError("alpha", "must be in [0, 1]", a)
		}
	}
	for _, l := range s.opts.lambdaGrid {
		if l < 0 {
			return nil, errors.NewValidationError("lambda", "must be non-negative", l)
		}
	}

	n, p := X[0].Dims()
	for k := range X {
		r, c := X[k].Dims()
		if r != n {
			return nil, errors.NewDimensionError("SAENet.Fit", n, r, 0)
		}
		if c != p {
			return nil, errors.NewDimensionError("SAENet.Fit", p, c, 1)
		}
		if y[k].Len() != n {
			return nil, errors.NewDimensionError("SAENet.Fit", n, y[k].Len(), 0)
		}
		if err := s.opts.family.checkResponse(vectorToSlice(y[k])); err != nil {
			return nil, err
		}
	}

	return NewPenaltyContext(p, s.opts.penaltyFactors, s.opts.adaptiveWeights)
}

// Fit computes the full solution path over the (alpha, lambda) grid.
func (s *SAENet) Fit(X []mat.Matrix, y []mat.Vector) (*SolutionPath, error) {
	pen, err := s.validateCommon(X, y)
	if err != nil {
		return nil, err
	}

	sd, err := Stack(X, y, s.opts.obsWeights)
	if err != nil {
		return nil, err
	}
	path, err := runSAENETPath(sd, pen, s.opts, s.opts.alphaGrid, s.opts.lambdaGrid)
	if err != nil {
		return nil, err
	}

	s.path = path
	s.state.SetDimensions(sd.P, sd.N, sd.M)
	s.state.SetFitted()
	return path, nil
}

// CrossValidate fits the full path and k-fold cross-validates it, returning
// the error curve with the minimum-error and one-standard-error selections.
// Fold assignment is deterministic for a given seed.
func (s *SAENet) CrossValidate(X []mat.Matrix, y []mat.Vector, nfolds int, seed int64) (*CVResult, error) {
	pen, err := s.validateCommon(X, y)
	if err != nil {
		return nil, err
	}

	cv, err := crossValidateSAENET(X, y, pen, s.opts, nfolds, seed)
	if err != nil {
		return nil, err
	}

	n, p := X[0].Dims()
	s.path = cv.Path
	s.cv = cv
	s.state.SetDimensions(p, n, len(X))
	s.state.SetFitted()
	return cv, nil
}

// Path returns the fitted solution path.
func (s *SAENet) Path() (*SolutionPath, error) {
	if !s.state.IsFitted() {
		return nil, errors.NewNotFittedError("SAENet", "Path")
	}
	return s.path, nil
}

// CVResult returns the cross-validation result, if CrossValidate was run.
func (s *SAENet) CVResult() (*CVResult, error) {
	if !s.state.IsFitted() || s.cv == nil {
		return nil, errors.NewNotFittedError("SAENet", "CVResult")
	}
	return s.cv, nil
}

// Coefficients returns the intercept-first coefficient vector at the exact
// (lambda, alpha) grid setting.
func (s *SAENet) Coefficients(lambda, alpha float64) ([]float64, error) {
	if !s.state.IsFitted() {
		return nil, errors.NewNotFittedError("SAENet", "Coefficients")
	}
	return s.path.CoefficientsAt(lambda, alpha)
}

// Predict evaluates the model at the given grid setting on new data,
// returning the linear predictor for gaussian fits and probabilities for
// binomial fits.
func (s *SAENet) Predict(X mat.Matrix, lambda, alpha float64) (*mat.VecDense, error) {
	coef, err := s.Coefficients(lambda, alpha)
	if err != nil {
		return nil, err
	}

	r, c := X.Dims()
	p, _, _ := s.state.GetDimensions()
	if c != p {
		return nil, errors.NewDimensionError("SAENet.Predict", p, c, 1)
	}

	out := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		eta := coef[0]
		for j := 0; j < c; j++ {
			eta += X.At(i, j) * coef[j+1]
		}
		if s.opts.family == Binomial {
			eta = sigmoid(eta)
		}
		out.SetVec(i, eta)
	}
	return out, nil
}

// FitSAENET fits a stacked adaptive elastic net path across M imputed
// datasets. Nil penaltyFactors, adaptiveWeights, or obsWeights default to
// all ones; nil alphaGrid defaults to {1.0}; nil lambdaGrid derives a
// log-spaced grid from the data.
func FitSAENET(X []mat.Matrix, y []mat.Vector, penaltyFactors, adaptiveWeights, obsWeights []float64, family Family, alphaGrid, lambdaGrid []float64, opts ...Option) (*SolutionPath, error) {
	return newConfiguredSAENet(penaltyFactors, adaptiveWeights, obsWeights, family, alphaGrid, lambdaGrid, opts).Fit(X, y)
}

// CVSAENET cross-validates a stacked adaptive elastic net over nfolds folds.
func CVSAENET(X []mat.Matrix, y []mat.Vector, penaltyFactors, adaptiveWeights, obsWeights []float64, family Family, alphaGrid, lambdaGrid []float64, nfolds int, seed int64, opts ...Option) (*CVResult, error) {
	return newConfiguredSAENet(penaltyFactors, adaptiveWeights, obsWeights, family, alphaGrid, lambdaGrid, opts).CrossValidate(X, y, nfolds, seed)
}

func newConfiguredSAENet(pf, adw, ow []float64, family Family, alphaGrid, lambdaGrid []float64, opts []Option) *SAENet {
	all := []Option{
		WithFamily(family),
		WithPenaltyFactors(pf),
		WithAdaptiveWeights(adw),
		WithObservationWeights(ow),
	}
	if alphaGrid != nil {
		all = append(all, WithAlphaGrid(alphaGrid))
	}
	if lambdaGrid != nil {
		all = append(all, WithLambdaGrid(lambdaGrid))
	}
	all = append(all, opts...)
	return NewSAENet(all...)
}
