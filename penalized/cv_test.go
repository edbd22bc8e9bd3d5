package penalized

import (
	"reflect"
	"sort"
	"testing"

	"github.com/umich-cphds/minet/pkg/errors"
)

func TestKFold_Split(t *testing.T) {
	folds, err := KFold{NSplits: 3, Seed: 1}.Split(10)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(folds) != 3 {
		t.Fatalf("got %d folds, want 3", len(folds))
	}

	// Test sets partition the observations; sizes differ by at most one.
	seen := make(map[int]int)
	for _, f := range folds {
		if len(f.Test) != 4 && len(f.Test) != 3 {
			t.Errorf("test fold size %d, want 3 or 4", len(f.Test))
		}
		if len(f.Train)+len(f.Test) != 10 {
			t.Errorf("train+test = %d, want 10", len(f.Train)+len(f.Test))
		}
		for _, idx := range f.Test {
			seen[idx]++
		}
		// No index appears in both halves of the same fold.
		inTest := make(map[int]bool, len(f.Test))
		for _, idx := range f.Test {
			inTest[idx] = true
		}
		for _, idx := range f.Train {
			if inTest[idx] {
				t.Errorf("index %d in both train and test", idx)
			}
		}
	}
	if len(seen) != 10 {
		t.Errorf("test sets cover %d of 10 indices", len(seen))
	}
	for idx, count := range seen {
		if count != 1 {
			t.Errorf("index %d appears in %d test sets", idx, count)
		}
	}
}

func TestKFold_Deterministic(t *testing.T) {
	a, err := KFold{NSplits: 4, Seed: 99}.Split(23)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	b, err := KFold{NSplits: 4, Seed: 99}.Split(23)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("same seed must reproduce the same folds")
	}

	c, err := KFold{NSplits: 4, Seed: 100}.Split(23)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if reflect.DeepEqual(a, c) {
		t.Error("different seeds should shuffle differently")
	}
}

func TestKFold_InsufficientFolds(t *testing.T) {
	var ife *errors.InsufficientFoldsError

	_, err := KFold{NSplits: 1, Seed: 0}.Split(10)
	if !errors.As(err, &ife) {
		t.Errorf("nfolds=1: expected InsufficientFoldsError, got %v", err)
	}
	_, err = KFold{NSplits: 11, Seed: 0}.Split(10)
	if !errors.As(err, &ife) {
		t.Errorf("nfolds>n: expected InsufficientFoldsError, got %v", err)
	}
}

func TestCVSAENET_Deterministic(t *testing.T) {
	X, y := imputedGaussian(21, 40, 5, 2, 2)

	run := func() *CVResult {
		cv, err := CVSAENET(X, y, nil, nil, nil, Gaussian,
			[]float64{0.5, 1.0}, nil, 4, 7,
			WithNLambda(10), WithWorkers(2))
		if err != nil {
			t.Fatalf("CVSAENET: %v", err)
		}
		return cv
	}

	a, b := run(), run()
	if !reflect.DeepEqual(a.Curve, b.Curve) {
		t.Error("same seed must reproduce the identical CV curve")
	}
	if a.LambdaMin != b.LambdaMin || a.AlphaMin != b.AlphaMin ||
		a.Lambda1SE != b.Lambda1SE || a.Alpha1SE != b.Alpha1SE {
		t.Error("same seed must reproduce the identical selections")
	}
}

func TestCVSAENET_CurveAndSelections(t *testing.T) {
	X, y := imputedGaussian(31, 50, 6, 3, 2)

	cv, err := CVSAENET(X, y, nil, nil, nil, Gaussian,
		[]float64{0.5, 1.0}, nil, 5, 42, WithNLambda(12))
	if err != nil {
		t.Fatalf("CVSAENET: %v", err)
	}

	if len(cv.Curve) != 2*12 {
		t.Fatalf("curve has %d points, want 24", len(cv.Curve))
	}

	// The selections must sit on the computed grid.
	if _, err := cv.Coefficients(); err != nil {
		t.Errorf("Coefficients at lambda.min: %v", err)
	}
	if _, err := cv.Coefficients1SE(); err != nil {
		t.Errorf("Coefficients1SE: %v", err)
	}

	// One-standard-error never picks a weaker penalty than the minimum.
	if cv.Lambda1SE < cv.LambdaMin {
		t.Errorf("lambda.1se %g < lambda.min %g", cv.Lambda1SE, cv.LambdaMin)
	}
	if cv.Alpha1SE != cv.AlphaMin {
		t.Errorf("alpha.1se %g, want alpha.min %g", cv.Alpha1SE, cv.AlphaMin)
	}

	// The minimum really is the curve's minimum.
	for _, pt := range cv.Curve {
		if pt.Lambda == cv.LambdaMin && pt.Alpha == cv.AlphaMin {
			for _, other := range cv.Curve {
				if other.MeanError < pt.MeanError {
					t.Errorf("curve point (%g, %g) beats the reported minimum", other.Lambda, other.Alpha)
				}
			}
		}
		if pt.StdError < 0 {
			t.Errorf("negative standard error at (%g, %g)", pt.Lambda, pt.Alpha)
		}
	}
}

func TestCVGALASSO_Deterministic(t *testing.T) {
	X, y := imputedGaussian(17, 36, 4, 2, 2)

	run := func() *CVResult {
		cv, err := CVGALASSO(X, y, nil, nil, Gaussian, nil, 3, 5,
			WithNLambda(10), WithWorkers(3))
		if err != nil {
			t.Fatalf("CVGALASSO: %v", err)
		}
		return cv
	}

	a, b := run(), run()
	if !reflect.DeepEqual(a.Curve, b.Curve) {
		t.Error("same seed must reproduce the identical CV curve")
	}
	if a.Lambda1SE < a.LambdaMin {
		t.Errorf("lambda.1se %g < lambda.min %g", a.Lambda1SE, a.LambdaMin)
	}
}

func TestCV_FoldErrorsPropagate(t *testing.T) {
	X, y := imputedGaussian(2, 6, 2, 1, 1)

	// More folds than observations leaves an empty fold.
	_, err := CVSAENET(X, y, nil, nil, nil, Gaussian, []float64{1}, nil, 7, 0)
	var ife *errors.InsufficientFoldsError
	if !errors.As(err, &ife) {
		t.Errorf("expected InsufficientFoldsError, got %v", err)
	}
}

func TestAggregateCV_TieKeepsLargestLambda(t *testing.T) {
	path := &SolutionPath{Family: Gaussian, NVariables: 1}
	lambdas := []float64{1.0, 0.5, 0.25}
	for _, l := range lambdas {
		path.Points = append(path.Points, PathPoint{Lambda: l, Alpha: 1, Coefficients: []float64{0, 0}})
	}

	// All settings tie on mean error.
	perSetting := [][][]float64{{
		{0.5, 0.5}, {0.5, 0.5}, {0.5, 0.5},
	}}
	result := aggregateCV(path, []float64{1}, [][]float64{lambdas}, perSetting, 2)

	if result.LambdaMin != 1.0 {
		t.Errorf("lambda.min = %g, want the largest tied lambda 1.0", result.LambdaMin)
	}
	if result.Lambda1SE != 1.0 {
		t.Errorf("lambda.1se = %g, want 1.0", result.Lambda1SE)
	}

	// Curve keeps the descending lambda order.
	got := make([]float64, len(result.Curve))
	for i, pt := range result.Curve {
		got[i] = pt.Lambda
	}
	if !sort.IsSorted(sort.Reverse(sort.Float64Slice(got))) {
		t.Errorf("curve lambdas not descending: %v", got)
	}
}
