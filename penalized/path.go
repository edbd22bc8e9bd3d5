package penalized

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/umich-cphds/minet/pkg/errors"
	pkglog "github.com/umich-cphds/minet/pkg/log"
	"github.com/umich-cphds/minet/preprocessing"
)

// PathPoint is one fitted grid point of a solution path.
type PathPoint struct {
	Lambda float64
	Alpha  float64

	// Coefficients holds the intercept followed by the p coefficients on
	// the original covariate scale. For GALASSO it is the average of the
	// per-imputation vectors.
	Coefficients []float64

	// PerImputation holds the M per-imputation coefficient vectors
	// (intercept first) for GALASSO fits; nil for SAENET.
	PerImputation *mat.Dense

	// Converged is false when the solver hit its iteration cap at this
	// point; the partial result is still recorded.
	Converged  bool
	Iterations int
}

// SolutionPath is an ordered sequence of fitted grid points: for each alpha
// in grid order, lambdas descend from largest to smallest.
type SolutionPath struct {
	Family     Family
	NVariables int
	Points     []PathPoint
}

// Alphas returns the distinct alpha values in grid order.
func (sp *SolutionPath) Alphas() []float64 {
	var alphas []float64
	for _, pt := range sp.Points {
		if len(alphas) == 0 || alphas[len(alphas)-1] != pt.Alpha {
			alphas = append(alphas, pt.Alpha)
		}
	}
	return alphas
}

// Lambdas returns the descending lambda sequence fitted at the given alpha.
func (sp *SolutionPath) Lambdas(alpha float64) []float64 {
	var lambdas []float64
	for _, pt := range sp.Points {
		if pt.Alpha == alpha {
			lambdas = append(lambdas, pt.Lambda)
		}
	}
	return lambdas
}

// lambdaSequence builds a descending log-spaced grid from lambdaMax down to
// ratio*lambdaMax.
func lambdaSequence(lambdaMax float64, nLambda int, ratio float64) []float64 {
	if nLambda < 1 {
		nLambda = 1
	}
	seq := make([]float64, nLambda)
	if nLambda == 1 {
		seq[0] = lambdaMax
		return seq
	}
	logMax := math.Log(lambdaMax)
	logMin := math.Log(lambdaMax * ratio)
	step := (logMax - logMin) / float64(nLambda-1)
	for i := range seq {
		seq[i] = math.Exp(logMax - float64(i)*step)
	}
	return seq
}

// descending returns a copy of lambdas sorted from largest to smallest, so
// warm starts always move toward weaker regularization.
func descending(lambdas []float64) []float64 {
	out := make([]float64, len(lambdas))
	copy(out, lambdas)
	sort.Sort(sort.Reverse(sort.Float64Slice(out)))
	return out
}

// saenetLambdaMax derives the smallest lambda that zeroes every penalized
// coefficient, from the null-model gradients. Alphas below 0.001 are clamped
// to 0.001 for grid generation only.
func saenetLambdaMax(grad []float64, pen *PenaltyContext, alpha float64) float64 {
	a := math.Max(alpha, 1e-3)
	lambdaMax := 0.0
	for j, g := range grad {
		t := pen.L1Weight(j)
		if t <= 0 {
			continue
		}
		if l := g / (a * t); l > lambdaMax {
			lambdaMax = l
		}
	}
	if lambdaMax <= 0 {
		// No variable is penalized; any positive value gives a valid
		// single-point grid.
		lambdaMax = 1.0
	}
	return lambdaMax
}

func galassoLambdaMax(grad []float64, pen *PenaltyContext) float64 {
	lambdaMax := 0.0
	for j, g := range grad {
		t := pen.L1Weight(j)
		if t <= 0 {
			continue
		}
		if l := g / t; l > lambdaMax {
			lambdaMax = l
		}
	}
	if lambdaMax <= 0 {
		lambdaMax = 1.0
	}
	return lambdaMax
}

// runSAENETPath drives the elastic net engine across the (alpha, lambda)
// grid on an already stacked dataset. Each alpha gets an independent lambda
// descent with warm starts; no state is shared across alphas. When
// userLambdas is non-nil it is used (descending) for every alpha; otherwise
// each alpha derives its own grid from the data.
func runSAENETPath(sd *StackedDataset, pen *PenaltyContext, opts *options, alphaGrid, userLambdas []float64) (*SolutionPath, error) {
	Xs, scaler, err := sd.Standardize()
	if err != nil {
		return nil, err
	}
	w := sd.NormalizedWeights()

	solver := newElasticNetSolver(Xs, sd.Y, w, pen, opts.family, opts)
	grad := solver.nullGradients()

	path := &SolutionPath{Family: opts.family, NVariables: sd.P}
	start := time.Now()
	totalIters := 0

	for _, alpha := range alphaGrid {
		var lambdas []float64
		if userLambdas != nil {
			lambdas = descending(userLambdas)
		} else {
			lambdaMax := saenetLambdaMax(grad, pen, alpha)
			lambdas = lambdaSequence(lambdaMax, opts.nLambda, opts.minRatio(sd.N, sd.P))
		}

		st := newENState(sd.P)
		for _, lambda := range lambdas {
			converged, iters := solver.solve(lambda, alpha, st)
			totalIters += iters
			if !converged {
				errors.Warn(errors.NewConvergenceWarning("ElasticNetPath", iters, lambda, alpha, ""))
			}

			coef, err := unstandardizeSingle(scaler, st.beta, st.intercept)
			if err != nil {
				return nil, err
			}
			path.Points = append(path.Points, PathPoint{
				Lambda:       lambda,
				Alpha:        alpha,
				Coefficients: coef,
				Converged:    converged,
				Iterations:   iters,
			})
		}
	}

	opts.logger.Debug("saenet path computed",
		pkglog.SolverKey, "ElasticNetPath",
		pkglog.FamilyKey, opts.family.String(),
		pkglog.ObservationsKey, sd.N,
		pkglog.VariablesKey, sd.P,
		pkglog.ImputationsKey, sd.M,
		pkglog.IterationsKey, totalIters,
		pkglog.DurationKey, time.Since(start).Milliseconds(),
	)
	return path, nil
}

// runGALASSOPath drives the group lasso engine across a lambda grid.
// X and y are the raw per-imputation data; standardization is per
// imputation and undone per imputation when points are recorded.
func runGALASSOPath(X []mat.Matrix, y [][]float64, pen *PenaltyContext, opts *options, userLambdas []float64) (*SolutionPath, error) {
	m := len(X)
	n, p := X[0].Dims()
	uw := uniform(n, 1)

	Xs := make([]*mat.Dense, m)
	scalers := make([]*preprocessing.WeightedStandardScaler, m)
	for k := 0; k < m; k++ {
		scalers[k] = preprocessing.NewWeightedStandardScaler()
		var err error
		Xs[k], err = scalers[k].FitTransform(X[k], uw)
		if err != nil {
			return nil, err
		}
	}

	solver := newGroupLassoSolver(Xs, y, pen, opts.family, opts)

	var lambdas []float64
	if userLambdas != nil {
		lambdas = descending(userLambdas)
	} else {
		lambdaMax := galassoLambdaMax(solver.nullGroupGradients(), pen)
		lambdas = lambdaSequence(lambdaMax, opts.nLambda, opts.minRatio(n, p))
	}

	path := &SolutionPath{Family: opts.family, NVariables: p}
	start := time.Now()

	totalIters := 0
	st := newGLState(m, p)
	for _, lambda := range lambdas {
		converged, iters := solver.solve(lambda, st)
		totalIters += iters
		if !converged {
			errors.Warn(errors.NewConvergenceWarning("GroupLassoPath", iters, lambda, 1, ""))
		}

		pt := PathPoint{
			Lambda:        lambda,
			Alpha:         1,
			Converged:     converged,
			Iterations:    iters,
			PerImputation: mat.NewDense(m, p+1, nil),
		}
		avg := make([]float64, p+1)
		for k := 0; k < m; k++ {
			coef, err := unstandardizeSingle(scalers[k], st.beta[k], st.intercepts[k])
			if err != nil {
				return nil, err
			}
			pt.PerImputation.SetRow(k, coef)
			for idx, v := range coef {
				avg[idx] += v
			}
		}
		for idx := range avg {
			avg[idx] /= float64(m)
		}
		pt.Coefficients = avg
		path.Points = append(path.Points, pt)
	}

	opts.logger.Debug("galasso path computed",
		pkglog.SolverKey, "GroupLassoPath",
		pkglog.FamilyKey, opts.family.String(),
		pkglog.ObservationsKey, n,
		pkglog.VariablesKey, p,
		pkglog.ImputationsKey, m,
		pkglog.IterationsKey, totalIters,
		pkglog.DurationKey, time.Since(start).Milliseconds(),
	)
	return path, nil
}

// unstandardizeSingle maps a standardized-scale solution to the original
// covariate scale, returning intercept-first coefficients of length p+1.
func unstandardizeSingle(scaler *preprocessing.WeightedStandardScaler, beta []float64, intercept float64) ([]float64, error) {
	tmp := make([]float64, len(beta))
	copy(tmp, beta)
	coefs, b0, err := scaler.Unstandardize(tmp, intercept)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(beta)+1)
	out[0] = b0
	copy(out[1:], coefs)
	return out, nil
}
