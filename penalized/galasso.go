package penalized

import (
	"gonum.org/v1/gonum/mat"

	"github.com/umich-cphds/minet/core/model"
	"github.com/umich-cphds/minet/pkg/errors"
)

// GALasso is the grouped adaptive lasso estimator. Each variable's M
// imputation-specific coefficients form one group under the penalty, so a
// variable enters or leaves the model in all imputations at once while the
// magnitudes may differ. There is no elastic-net mixing and no observation
// weighting.
type GALasso struct {
	state *model.StateManager
	opts  *options

	path *SolutionPath
	cv   *CVResult
}

// NewGALasso creates a GALASSO estimator.
func NewGALasso(opts ...Option) *GALasso {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &GALasso{
		state: model.NewStateManager(),
		opts:  o,
	}
}

func (g *GALasso) validateCommon(X []mat.Matrix, y []mat.Vector) (*PenaltyContext, error) {
	if len(X) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "GALasso.Fit")
	}
	if len(y) != len(X) {
		return nil, errors.NewDimensionError("GALasso.Fit", len(X), len(y), 0)
	}
	if !g.opts.family.valid() {
		return nil, errors.NewValidationError("family", "must be Gaussian or Binomial", g.opts.family)
	}
	for _, l := range g.opts.lambdaGrid {
		if l < 0 {
			return nil, errors.NewValidationError("lambda", "must be non-negative", l)
		}
	}

	n, p := X[0].Dims()
	if n == 0 || p == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "GALasso.Fit")
	}
	for k := range X {
		r, c := X[k].Dims()
		if r != n {
			return nil, errors.NewDimensionError("GALasso.Fit", n, r, 0)
		}
		if c != p {
			return nil, errors.NewDimensionError("GALasso.Fit", p, c, 1)
		}
		if y[k].Len() != n {
			return nil, errors.NewDimensionError("GALasso.Fit", n, y[k].Len(), 0)
		}
		if err := g.opts.family.checkResponse(vectorToSlice(y[k])); err != nil {
			return nil, err
		}
	}

	return NewPenaltyContext(p, g.opts.penaltyFactors, g.opts.adaptiveWeights)
}

// Fit computes the full solution path over the lambda grid.
func (g *GALasso) Fit(X []mat.Matrix, y []mat.Vector) (*SolutionPath, error) {
	pen, err := g.validateCommon(X, y)
	if err != nil {
		return nil, err
	}

	yRaw := make([][]float64, len(y))
	for k := range y {
		yRaw[k] = vectorToSlice(y[k])
	}
	path, err := runGALASSOPath(X, yRaw, pen, g.opts, g.opts.lambdaGrid)
	if err != nil {
		return nil, err
	}

	n, p := X[0].Dims()
	g.path = path
	g.state.SetDimensions(p, n, len(X))
	g.state.SetFitted()
	return path, nil
}

// CrossValidate fits the full path and k-fold cross-validates it. Fold
// assignment is deterministic for a given seed.
func (g *GALasso) CrossValidate(X []mat.Matrix, y []mat.Vector, nfolds int, seed int64) (*CVResult, error) {
	pen, err := g.validateCommon(X, y)
	if err != nil {
		return nil, err
	}

	cv, err := crossValidateGALASSO(X, y, pen, g.opts, nfolds, seed)
	if err != nil {
		return nil, err
	}

	n, p := X[0].Dims()
	g.path = cv.Path
	g.cv = cv
	g.state.SetDimensions(p, n, len(X))
	g.state.SetFitted()
	return cv, nil
}

// Path returns the fitted solution path.
func (g *GALasso) Path() (*SolutionPath, error) {
	if !g.state.IsFitted() {
		return nil, errors.NewNotFittedError("GALasso", "Path")
	}
	return g.path, nil
}

// CVResult returns the cross-validation result, if CrossValidate was run.
func (g *GALasso) CVResult() (*CVResult, error) {
	if !g.state.IsFitted() || g.cv == nil {
		return nil, errors.NewNotFittedError("GALasso", "CVResult")
	}
	return g.cv, nil
}

// Coefficients returns the averaged intercept-first coefficient vector at
// the exact lambda grid value.
func (g *GALasso) Coefficients(lambda float64) ([]float64, error) {
	if !g.state.IsFitted() {
		return nil, errors.NewNotFittedError("GALasso", "Coefficients")
	}
	return g.path.CoefficientsAt(lambda, 1)
}

// ImputationCoefficients returns the M per-imputation coefficient vectors
// (rows, intercept first) at the exact lambda grid value. All M rows share
// the same zero/nonzero pattern per variable.
func (g *GALasso) ImputationCoefficients(lambda float64) (*mat.Dense, error) {
	if !g.state.IsFitted() {
		return nil, errors.NewNotFittedError("GALasso", "ImputationCoefficients")
	}
	pt, err := g.path.PointAt(lambda, 1)
	if err != nil {
		return nil, err
	}
	return pt.PerImputation, nil
}

// FitGALASSO fits a grouped adaptive lasso path across M imputed datasets.
// Nil penaltyFactors or adaptiveWeights default to all ones; nil lambdaGrid
// derives a log-spaced grid from the data.
func FitGALASSO(X []mat.Matrix, y []mat.Vector, penaltyFactors, adaptiveWeights []float64, family Family, lambdaGrid []float64, opts ...Option) (*SolutionPath, error) {
	return newConfiguredGALasso(penaltyFactors, adaptiveWeights, family, lambdaGrid, opts).Fit(X, y)
}

// CVGALASSO cross-validates a grouped adaptive lasso over nfolds folds.
func CVGALASSO(X []mat.Matrix, y []mat.Vector, penaltyFactors, adaptiveWeights []float64, family Family, lambdaGrid []float64, nfolds int, seed int64, opts ...Option) (*CVResult, error) {
	return newConfiguredGALasso(penaltyFactors, adaptiveWeights, family, lambdaGrid, opts).CrossValidate(X, y, nfolds, seed)
}

func newConfiguredGALasso(pf, adw []float64, family Family, lambdaGrid []float64, opts []Option) *GALasso {
	all := []Option{
		WithFamily(family),
		WithPenaltyFactors(pf),
		WithAdaptiveWeights(adw),
	}
	if lambdaGrid != nil {
		all = append(all, WithLambdaGrid(lambdaGrid))
	}
	all = append(all, opts...)
	return NewGALasso(all...)
}
