package penalized

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/umich-cphds/minet/pkg/errors"
)

func TestStack_Basic(t *testing.T) {
	X := []mat.Matrix{
		mat.NewDense(2, 2, []float64{1, 2, 3, 4}),
		mat.NewDense(2, 2, []float64{5, 6, 7, 8}),
	}
	y := []mat.Vector{
		mat.NewVecDense(2, []float64{1, 2}),
		mat.NewVecDense(2, []float64{3, 4}),
	}
	ow := []float64{1.0, 0.5}

	sd, err := Stack(X, y, ow)
	if err != nil {
		t.Fatalf("Stack failed: %v", err)
	}

	if sd.N != 2 || sd.P != 2 || sd.M != 2 {
		t.Fatalf("unexpected dims: n=%d p=%d m=%d", sd.N, sd.P, sd.M)
	}

	// Row blocks correspond to imputations in original order.
	if sd.X.At(0, 0) != 1 || sd.X.At(2, 0) != 5 {
		t.Error("row blocks out of order")
	}
	if sd.Y[1] != 2 || sd.Y[3] != 4 {
		t.Error("responses out of order")
	}

	// Expanded weights are obsWeights repeated per imputation, scaled 1/M.
	want := []float64{0.5, 0.25, 0.5, 0.25}
	for i, w := range sd.Weights {
		if math.Abs(w-want[i]) > 1e-15 {
			t.Errorf("weight[%d] = %g, want %g", i, w, want[i])
		}
	}
}

func TestStack_NoAliasing(t *testing.T) {
	X0 := mat.NewDense(2, 1, []float64{1, 2})
	sd, err := Stack(
		[]mat.Matrix{X0},
		[]mat.Vector{mat.NewVecDense(2, []float64{1, 2})},
		nil,
	)
	if err != nil {
		t.Fatalf("Stack failed: %v", err)
	}

	X0.Set(0, 0, 99)
	if sd.X.At(0, 0) == 99 {
		t.Error("stacked design aliases the caller's matrix")
	}
}

func TestStack_DimensionErrors(t *testing.T) {
	tests := []struct {
		name string
		X    []mat.Matrix
		y    []mat.Vector
		ow   []float64
	}{
		{
			name: "row count differs across imputations",
			X: []mat.Matrix{
				mat.NewDense(2, 1, nil),
				mat.NewDense(3, 1, nil),
			},
			y: []mat.Vector{
				mat.NewVecDense(2, nil),
				mat.NewVecDense(3, nil),
			},
		},
		{
			name: "column count differs across imputations",
			X: []mat.Matrix{
				mat.NewDense(2, 1, nil),
				mat.NewDense(2, 2, nil),
			},
			y: []mat.Vector{
				mat.NewVecDense(2, nil),
				mat.NewVecDense(2, nil),
			},
		},
		{
			name: "response length mismatch",
			X:    []mat.Matrix{mat.NewDense(2, 1, nil)},
			y:    []mat.Vector{mat.NewVecDense(3, nil)},
		},
		{
			name: "weight length mismatch",
			X:    []mat.Matrix{mat.NewDense(2, 1, nil)},
			y:    []mat.Vector{mat.NewVecDense(2, nil)},
			ow:   []float64{1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Stack(tt.X, tt.y, tt.ow)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var de *errors.DimensionError
			if !errors.As(err, &de) {
				t.Errorf("expected DimensionError, got %v", err)
			}
		})
	}
}

func TestStack_WeightRange(t *testing.T) {
	X := []mat.Matrix{mat.NewDense(2, 1, []float64{1, 2})}
	y := []mat.Vector{mat.NewVecDense(2, []float64{1, 2})}

	for _, bad := range [][]float64{{0, 1}, {-0.5, 1}, {1, 1.5}} {
		if _, err := Stack(X, y, bad); err == nil {
			t.Errorf("weights %v should be rejected", bad)
		}
	}
}

func TestStackedDataset_Standardize(t *testing.T) {
	X := []mat.Matrix{
		mat.NewDense(3, 1, []float64{1, 2, 3}),
		mat.NewDense(3, 1, []float64{2, 3, 4}),
	}
	y := []mat.Vector{
		mat.NewVecDense(3, []float64{1, 2, 3}),
		mat.NewVecDense(3, []float64{1, 2, 3}),
	}

	sd, err := Stack(X, y, nil)
	if err != nil {
		t.Fatalf("Stack failed: %v", err)
	}
	Xs, scaler, err := sd.Standardize()
	if err != nil {
		t.Fatalf("Standardize failed: %v", err)
	}

	// Weighted mean 0 and weighted variance 1 under the expanded weights.
	w := sd.NormalizedWeights()
	mean, variance := 0.0, 0.0
	for i := 0; i < 6; i++ {
		mean += w[i] * Xs.At(i, 0)
	}
	for i := 0; i < 6; i++ {
		d := Xs.At(i, 0) - mean
		variance += w[i] * d * d
	}
	if math.Abs(mean) > 1e-12 {
		t.Errorf("standardized weighted mean = %g, want 0", mean)
	}
	if math.Abs(variance-1) > 1e-12 {
		t.Errorf("standardized weighted variance = %g, want 1", variance)
	}
	if scaler.NVariables != 1 {
		t.Errorf("scaler saw %d variables, want 1", scaler.NVariables)
	}
}
