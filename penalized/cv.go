package penalized

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/umich-cphds/minet/core/parallel"
	"github.com/umich-cphds/minet/metrics"
	"github.com/umich-cphds/minet/pkg/errors"
	pkglog "github.com/umich-cphds/minet/pkg/log"
)

// Fold is one train/test partition of the original observation indices.
// The same membership applies to every imputation.
type Fold struct {
	Train []int
	Test  []int
}

// KFold assigns n observations to k roughly equal folds after a seeded
// shuffle. The same seed always produces the same assignment.
type KFold struct {
	NSplits int
	Seed    int64
}

// Split returns the folds for n observations.
func (kf KFold) Split(n int) ([]Fold, error) {
	if kf.NSplits < 2 {
		return nil, errors.NewInsufficientFoldsError(kf.NSplits, n, "nfolds must be at least 2")
	}
	if kf.NSplits > n {
		return nil, errors.NewInsufficientFoldsError(kf.NSplits, n, "more folds than observations leaves a fold empty")
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	r := rand.New(rand.NewPCG(uint64(kf.Seed), uint64(kf.Seed)))
	r.Shuffle(n, func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	folds := make([]Fold, kf.NSplits)
	foldSize := n / kf.NSplits
	remainder := n % kf.NSplits

	current := 0
	for f := 0; f < kf.NSplits; f++ {
		testSize := foldSize
		if f < remainder {
			testSize++
		}
		test := make([]int, testSize)
		copy(test, indices[current:current+testSize])

		train := make([]int, 0, n-testSize)
		train = append(train, indices[:current]...)
		train = append(train, indices[current+testSize:]...)

		folds[f] = Fold{Train: train, Test: test}
		current += testSize
	}
	return folds, nil
}

// CVCurvePoint is the cross-validated error at one regularization setting.
type CVCurvePoint struct {
	Lambda    float64
	Alpha     float64
	MeanError float64
	StdError  float64
}

// CVResult holds the cross-validation curve, the selected settings, and the
// full-data solution path the selections index into.
type CVResult struct {
	Family Family
	Curve  []CVCurvePoint

	// LambdaMin/AlphaMin is the setting with lowest mean error.
	LambdaMin float64
	AlphaMin  float64

	// Lambda1SE/Alpha1SE is the largest lambda, at the AlphaMin slice,
	// whose mean error is within one standard error of the minimum.
	Lambda1SE float64
	Alpha1SE  float64

	Path *SolutionPath
}

// extractRows copies the given rows of X into a new dense matrix.
func extractRows(X mat.Matrix, rows []int) *mat.Dense {
	_, c := X.Dims()
	out := mat.NewDense(len(rows), c, nil)
	for i, idx := range rows {
		for j := 0; j < c; j++ {
			out.Set(i, j, X.At(idx, j))
		}
	}
	return out
}

func extractVec(y mat.Vector, rows []int) *mat.VecDense {
	out := mat.NewVecDense(len(rows), nil)
	for i, idx := range rows {
		out.SetVec(i, y.AtVec(idx))
	}
	return out
}

func extractFloats(v []float64, rows []int) []float64 {
	out := make([]float64, len(rows))
	for i, idx := range rows {
		out[i] = v[idx]
	}
	return out
}

// predictLinear evaluates intercept-first coefficients on rows of X.
func predictLinear(coef []float64, X mat.Matrix, rows []int) []float64 {
	_, c := X.Dims()
	out := make([]float64, len(rows))
	for i, idx := range rows {
		eta := coef[0]
		for j := 0; j < c; j++ {
			eta += X.At(idx, j) * coef[j+1]
		}
		out[i] = eta
	}
	return out
}

// heldOutError scores one coefficient vector on the held-out rows of every
// imputation under the observation weights.
func heldOutError(family Family, coef []float64, X []mat.Matrix, y []mat.Vector, obsWeights []float64, test []int) (float64, error) {
	m := len(X)
	total := len(test) * m
	yTrue := make([]float64, 0, total)
	yPred := make([]float64, 0, total)
	w := make([]float64, 0, total)

	for k := 0; k < m; k++ {
		eta := predictLinear(coef, X[k], test)
		for i, idx := range test {
			yTrue = append(yTrue, y[k].AtVec(idx))
			yPred = append(yPred, eta[i])
			w = append(w, obsWeights[idx])
		}
	}

	if family == Binomial {
		for i := range yPred {
			yPred[i] = sigmoid(yPred[i])
		}
		return metrics.WeightedBinomialDeviance(yTrue, yPred, w)
	}
	return metrics.WeightedSquaredError(yTrue, yPred, w)
}

// heldOutErrorPerImputation scores GALASSO per-imputation coefficients, each
// on its own imputation's held-out rows, with uniform weights.
func heldOutErrorPerImputation(family Family, perImp *mat.Dense, X []mat.Matrix, y []mat.Vector, test []int) (float64, error) {
	m := len(X)
	total := len(test) * m
	yTrue := make([]float64, 0, total)
	yPred := make([]float64, 0, total)
	w := make([]float64, 0, total)

	for k := 0; k < m; k++ {
		coef := mat.Row(nil, k, perImp)
		eta := predictLinear(coef, X[k], test)
		for i, idx := range test {
			yTrue = append(yTrue, y[k].AtVec(idx))
			yPred = append(yPred, eta[i])
			w = append(w, 1)
		}
	}

	if family == Binomial {
		for i := range yPred {
			yPred[i] = sigmoid(yPred[i])
		}
		return metrics.WeightedBinomialDeviance(yTrue, yPred, w)
	}
	return metrics.WeightedSquaredError(yTrue, yPred, w)
}

// crossValidateSAENET runs the full-data path to fix the grids, then
// re-fits each fold-by-alpha unit in parallel and aggregates the held-out
// errors into the CV curve.
func crossValidateSAENET(X []mat.Matrix, y []mat.Vector, pen *PenaltyContext, opts *options, nfolds int, seed int64) (*CVResult, error) {
	n, _ := X[0].Dims()

	obsWeights := opts.obsWeights
	if obsWeights == nil {
		obsWeights = ones(n)
	}

	sd, err := Stack(X, y, obsWeights)
	if err != nil {
		return nil, err
	}
	fullPath, err := runSAENETPath(sd, pen, opts, opts.alphaGrid, opts.lambdaGrid)
	if err != nil {
		return nil, err
	}

	folds, err := KFold{NSplits: nfolds, Seed: seed}.Split(n)
	if err != nil {
		return nil, err
	}

	alphas := fullPath.Alphas()
	lambdasByAlpha := make([][]float64, len(alphas))
	for a, alpha := range alphas {
		lambdasByAlpha[a] = fullPath.Lambdas(alpha)
	}

	// One task per fold-by-alpha unit: nothing is shared but the
	// read-only inputs, and every task writes its own slot.
	type task struct{ fold, alpha int }
	tasks := make([]task, 0, len(folds)*len(alphas))
	for f := range folds {
		for a := range alphas {
			tasks = append(tasks, task{fold: f, alpha: a})
		}
	}

	errsByTask := make([][]float64, len(tasks))
	taskErr := make([]error, len(tasks))

	start := time.Now()
	parallel.ParallelizeWithWorkers(len(tasks), opts.workers, func(lo, hi int) {
		for t := lo; t < hi; t++ {
			fold := folds[tasks[t].fold]
			alpha := alphas[tasks[t].alpha]
			lambdas := lambdasByAlpha[tasks[t].alpha]

			trainX := make([]mat.Matrix, len(X))
			trainY := make([]mat.Vector, len(y))
			for k := range X {
				trainX[k] = extractRows(X[k], fold.Train)
				trainY[k] = extractVec(y[k], fold.Train)
			}
			trainW := extractFloats(obsWeights, fold.Train)

			trainSD, err := Stack(trainX, trainY, trainW)
			if err != nil {
				taskErr[t] = err
				continue
			}
			foldPath, err := runSAENETPath(trainSD, pen, opts, []float64{alpha}, lambdas)
			if err != nil {
				taskErr[t] = err
				continue
			}

			errs := make([]float64, len(foldPath.Points))
			for i, pt := range foldPath.Points {
				errs[i], err = heldOutError(opts.family, pt.Coefficients, X, y, obsWeights, fold.Test)
				if err != nil {
					taskErr[t] = err
					break
				}
			}
			errsByTask[t] = errs
			opts.logger.Debug("cv fold scored",
				pkglog.OperationKey, "cv",
				pkglog.FoldKey, tasks[t].fold,
				pkglog.AlphaKey, alpha,
			)
		}
	})
	for _, err := range taskErr {
		if err != nil {
			return nil, err
		}
	}

	// Re-index task errors as [alpha][lambda][fold].
	perSetting := make([][][]float64, len(alphas))
	for a := range alphas {
		perSetting[a] = make([][]float64, len(lambdasByAlpha[a]))
		for l := range perSetting[a] {
			perSetting[a][l] = make([]float64, len(folds))
		}
	}
	for t, errs := range errsByTask {
		a := tasks[t].alpha
		for l, e := range errs {
			perSetting[a][l][tasks[t].fold] = e
		}
	}

	result := aggregateCV(fullPath, alphas, lambdasByAlpha, perSetting, len(folds))
	opts.logger.Debug("saenet cross-validation finished",
		pkglog.OperationKey, "cv",
		pkglog.FamilyKey, opts.family.String(),
		pkglog.LambdaKey, result.LambdaMin,
		pkglog.AlphaKey, result.AlphaMin,
		pkglog.DurationKey, time.Since(start).Milliseconds(),
	)
	return result, nil
}

// crossValidateGALASSO mirrors crossValidateSAENET for the group engine:
// one task per fold, per-imputation scoring.
func crossValidateGALASSO(X []mat.Matrix, y []mat.Vector, pen *PenaltyContext, opts *options, nfolds int, seed int64) (*CVResult, error) {
	n, _ := X[0].Dims()

	yRaw := make([][]float64, len(y))
	for k := range y {
		yRaw[k] = vectorToSlice(y[k])
	}
	fullPath, err := runGALASSOPath(X, yRaw, pen, opts, opts.lambdaGrid)
	if err != nil {
		return nil, err
	}

	folds, err := KFold{NSplits: nfolds, Seed: seed}.Split(n)
	if err != nil {
		return nil, err
	}

	lambdas := fullPath.Lambdas(1)

	errsByTask := make([][]float64, len(folds))
	taskErr := make([]error, len(folds))

	start := time.Now()
	parallel.ParallelizeWithWorkers(len(folds), opts.workers, func(lo, hi int) {
		for f := lo; f < hi; f++ {
			fold := folds[f]

			trainX := make([]mat.Matrix, len(X))
			trainY := make([][]float64, len(y))
			for k := range X {
				trainX[k] = extractRows(X[k], fold.Train)
				trainY[k] = extractFloats(yRaw[k], fold.Train)
			}

			foldPath, err := runGALASSOPath(trainX, trainY, pen, opts, lambdas)
			if err != nil {
				taskErr[f] = err
				continue
			}

			errs := make([]float64, len(foldPath.Points))
			for i, pt := range foldPath.Points {
				errs[i], err = heldOutErrorPerImputation(opts.family, pt.PerImputation, X, y, fold.Test)
				if err != nil {
					taskErr[f] = err
					break
				}
			}
			errsByTask[f] = errs
			opts.logger.Debug("cv fold scored",
				pkglog.OperationKey, "cv",
				pkglog.FoldKey, f,
			)
		}
	})
	for _, err := range taskErr {
		if err != nil {
			return nil, err
		}
	}

	perSetting := [][][]float64{make([][]float64, len(lambdas))}
	for l := range lambdas {
		perSetting[0][l] = make([]float64, len(folds))
		for f := range folds {
			perSetting[0][l][f] = errsByTask[f][l]
		}
	}

	result := aggregateCV(fullPath, []float64{1}, [][]float64{lambdas}, perSetting, len(folds))
	opts.logger.Debug("galasso cross-validation finished",
		pkglog.OperationKey, "cv",
		pkglog.FamilyKey, opts.family.String(),
		pkglog.LambdaKey, result.LambdaMin,
		pkglog.DurationKey, time.Since(start).Milliseconds(),
	)
	return result, nil
}

// aggregateCV folds per-setting fold errors into mean/standard-error curves
// and applies the minimum-error and one-standard-error selection rules.
func aggregateCV(path *SolutionPath, alphas []float64, lambdasByAlpha [][]float64, perSetting [][][]float64, nfolds int) *CVResult {
	result := &CVResult{Family: path.Family, Path: path}

	minIdx := -1
	for a := range alphas {
		for l := range lambdasByAlpha[a] {
			foldErrs := perSetting[a][l]
			mean := stat.Mean(foldErrs, nil)
			se := stat.StdDev(foldErrs, nil) / math.Sqrt(float64(nfolds))

			result.Curve = append(result.Curve, CVCurvePoint{
				Lambda:    lambdasByAlpha[a][l],
				Alpha:     alphas[a],
				MeanError: mean,
				StdError:  se,
			})
			// Strict comparison keeps the earliest (largest lambda)
			// point on ties.
			if minIdx < 0 || mean < result.Curve[minIdx].MeanError {
				minIdx = len(result.Curve) - 1
			}
		}
	}

	minPt := result.Curve[minIdx]
	result.LambdaMin = minPt.Lambda
	result.AlphaMin = minPt.Alpha

	threshold := minPt.MeanError + minPt.StdError
	result.Lambda1SE = minPt.Lambda
	result.Alpha1SE = minPt.Alpha
	for _, pt := range result.Curve {
		if pt.Alpha != minPt.Alpha {
			continue
		}
		if pt.MeanError <= threshold && pt.Lambda > result.Lambda1SE {
			result.Lambda1SE = pt.Lambda
		}
	}
	return result
}

func vectorToSlice(v mat.Vector) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}
