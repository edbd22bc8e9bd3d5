package penalized

import (
	"math"
	"testing"
)

// TestCVSAENET_RecoversInformativeVariables runs the full pipeline on a
// synthetic problem with a strong, known signal: three informative variables
// among fifteen, five imputed copies, cross-validated over two alphas. The
// lambda.min fit must keep all informative variables with roughly the right
// magnitudes and must not hand a noise variable a large coefficient.
func TestCVSAENET_RecoversInformativeVariables(t *testing.T) {
	if testing.Short() {
		t.Skip("full CV pipeline")
	}

	X, y := imputedGaussian(101, 150, 15, 5, 3)

	cv, err := CVSAENET(X, y, nil, nil, nil, Gaussian,
		[]float64{0.5, 1.0}, nil, 5, 42, WithNLambda(25))
	if err != nil {
		t.Fatalf("CVSAENET: %v", err)
	}

	coef, err := cv.Coefficients()
	if err != nil {
		t.Fatalf("Coefficients: %v", err)
	}

	// imputedGaussian gives the informative variables coefficients
	// +2, -2, +2 in alternating sign order.
	truth := []float64{2, -2, 2}
	for j, want := range truth {
		got := coef[j+1]
		if got == 0 {
			t.Errorf("informative variable %d dropped at lambda.min", j)
			continue
		}
		if math.Abs(got-want) > 0.6 {
			t.Errorf("coef[%d] = %.3f, want near %.1f", j+1, got, want)
		}
	}
	for j := len(truth) + 1; j < len(coef); j++ {
		if math.Abs(coef[j]) > 0.5 {
			t.Errorf("noise variable %d has coefficient %.3f", j, coef[j])
		}
	}

	// The one-standard-error fit is at least as sparse as lambda.min.
	coef1se, err := cv.Coefficients1SE()
	if err != nil {
		t.Fatalf("Coefficients1SE: %v", err)
	}
	if nonzero(coef1se[1:]) > nonzero(coef[1:]) {
		t.Errorf("1se fit selected %d variables, min fit %d",
			nonzero(coef1se[1:]), nonzero(coef[1:]))
	}
}

// TestCVGALASSO_RecoversInformativeVariables mirrors the SAENET pipeline test
// for the grouped engine, checking joint selection at the chosen lambda.
func TestCVGALASSO_RecoversInformativeVariables(t *testing.T) {
	if testing.Short() {
		t.Skip("full CV pipeline")
	}

	X, y := imputedGaussian(103, 120, 10, 4, 2)

	cv, err := CVGALASSO(X, y, nil, nil, Gaussian, nil, 5, 42, WithNLambda(20))
	if err != nil {
		t.Fatalf("CVGALASSO: %v", err)
	}

	coef, err := cv.Coefficients()
	if err != nil {
		t.Fatalf("Coefficients: %v", err)
	}
	if coef[1] == 0 || coef[2] == 0 {
		t.Errorf("informative variables dropped: coef = %.3f, %.3f", coef[1], coef[2])
	}
	if math.Abs(coef[1]-2) > 0.6 || math.Abs(coef[2]+2) > 0.6 {
		t.Errorf("informative magnitudes off: %.3f, %.3f", coef[1], coef[2])
	}

	pt, err := cv.Path.PointAt(cv.LambdaMin, 1)
	if err != nil {
		t.Fatalf("PointAt: %v", err)
	}
	m := len(X)
	for j := 1; j <= cv.Path.NVariables; j++ {
		zeros := 0
		for k := 0; k < m; k++ {
			if pt.PerImputation.At(k, j) == 0 {
				zeros++
			}
		}
		if zeros != 0 && zeros != m {
			t.Errorf("variable %d selected in %d of %d imputations", j, m-zeros, m)
		}
	}
}

func nonzero(v []float64) int {
	n := 0
	for _, x := range v {
		if x != 0 {
			n++
		}
	}
	return n
}
