package penalized

import (
	"log/slog"
)

// options holds the shared configuration for both engines. Estimators and
// the package-level Fit/CV functions configure it through functional options.
type options struct {
	family Family

	alphaGrid  []float64
	lambdaGrid []float64

	penaltyFactors  []float64
	adaptiveWeights []float64
	obsWeights      []float64

	nLambda        int
	lambdaMinRatio float64 // 0 means choose from the data shape

	tol     float64
	maxIter int
	irlsTol float64
	maxIRLS int

	workers int
	logger  *slog.Logger
}

func defaultOptions() *options {
	return &options{
		family:    Gaussian,
		alphaGrid: []float64{1.0},
		nLambda:   100,
		tol:       1e-7,
		maxIter:   100000,
		irlsTol:   1e-5,
		maxIRLS:   25,
		logger:    slog.Default(),
	}
}

// minRatio resolves the lambda.min ratio: the configured value, or the
// glmnet-style default of 1e-4 when observations exceed variables and 1e-2
// otherwise.
func (o *options) minRatio(n, p int) float64 {
	if o.lambdaMinRatio > 0 {
		return o.lambdaMinRatio
	}
	if n > p {
		return 1e-4
	}
	return 1e-2
}

// Option configures an estimator or a package-level fit call.
type Option func(*options)

// WithFamily sets the model family (default Gaussian).
func WithFamily(f Family) Option {
	return func(o *options) { o.family = f }
}

// WithAlphaGrid sets the elastic-net mixing values, each of which gets its
// own lambda path (default {1.0}). Ignored by GALASSO.
func WithAlphaGrid(alphas []float64) Option {
	return func(o *options) { o.alphaGrid = alphas }
}

// WithLambdaGrid supplies an explicit lambda sequence instead of the
// data-derived log-spaced grid.
func WithLambdaGrid(lambdas []float64) Option {
	return func(o *options) { o.lambdaGrid = lambdas }
}

// WithPenaltyFactors sets the per-variable penalty factors (default all one;
// zero leaves a variable unpenalized).
func WithPenaltyFactors(pf []float64) Option {
	return func(o *options) { o.penaltyFactors = pf }
}

// WithAdaptiveWeights sets the per-variable adaptive lasso weights
// (default all one).
func WithAdaptiveWeights(adw []float64) Option {
	return func(o *options) { o.adaptiveWeights = adw }
}

// WithObservationWeights sets the per-observation weights in (0, 1], shared
// across imputations (default all one). Ignored by GALASSO.
func WithObservationWeights(ow []float64) Option {
	return func(o *options) { o.obsWeights = ow }
}

// WithNLambda sets the size of the data-derived lambda grid (default 100).
func WithNLambda(n int) Option {
	return func(o *options) { o.nLambda = n }
}

// WithLambdaMinRatio sets the ratio of the smallest to the largest lambda in
// the data-derived grid.
func WithLambdaMinRatio(ratio float64) Option {
	return func(o *options) { o.lambdaMinRatio = ratio }
}

// WithTol sets the coordinate-descent convergence tolerance (default 1e-7).
func WithTol(tol float64) Option {
	return func(o *options) { o.tol = tol }
}

// WithMaxIter caps the coordinate-descent cycles per grid point
// (default 100000).
func WithMaxIter(maxIter int) Option {
	return func(o *options) { o.maxIter = maxIter }
}

// WithIRLSTol sets the relative deviance tolerance of the outer IRLS loop
// for binomial fits (default 1e-5).
func WithIRLSTol(tol float64) Option {
	return func(o *options) { o.irlsTol = tol }
}

// WithMaxIRLS caps the outer IRLS iterations per grid point (default 25).
func WithMaxIRLS(maxIRLS int) Option {
	return func(o *options) { o.maxIRLS = maxIRLS }
}

// WithWorkers caps the goroutines used for cross-validation fold-by-alpha
// tasks. Zero or negative means one per CPU core.
func WithWorkers(workers int) Option {
	return func(o *options) { o.workers = workers }
}

// WithLogger sets the structured logger used for fit progress.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}
