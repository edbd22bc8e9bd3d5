package penalized

import (
	"math"
	"testing"
)

func TestFamilyString(t *testing.T) {
	if Gaussian.String() != "gaussian" || Binomial.String() != "binomial" {
		t.Error("family names wrong")
	}
	if Family(7).String() != "unknown" {
		t.Error("unknown family must stringify as unknown")
	}
	if Family(7).valid() {
		t.Error("unknown family must be invalid")
	}
}

func TestFamilyDeviance(t *testing.T) {
	y := []float64{1, 0, 2}
	eta := []float64{0.5, 0.5, 2}
	w := []float64{1, 2, 1}

	// 1*(0.5)^2 + 2*(0.5)^2 + 0
	got := Gaussian.deviance(y, eta, w)
	if math.Abs(got-0.75) > 1e-12 {
		t.Errorf("gaussian deviance = %g, want 0.75", got)
	}

	// At eta = 0 every probability is 0.5, so the binomial deviance is
	// 2 * sum(w) * log(2).
	yb := []float64{1, 0, 1}
	zero := []float64{0, 0, 0}
	got = Binomial.deviance(yb, zero, w)
	want := 2 * 4 * math.Log(2)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("binomial deviance = %g, want %g", got, want)
	}

	// Extreme linear predictors stay finite through the probability clip.
	huge := []float64{800, -800, 800}
	if d := Binomial.deviance(yb, huge, w); math.IsInf(d, 0) || math.IsNaN(d) {
		t.Errorf("clipped deviance must be finite, got %g", d)
	}
}

func TestFamilyCheckResponse(t *testing.T) {
	if err := Gaussian.checkResponse([]float64{-1.5, 2, 7}); err != nil {
		t.Errorf("gaussian accepts any response: %v", err)
	}
	if err := Binomial.checkResponse([]float64{0, 1, 1, 0}); err != nil {
		t.Errorf("valid binomial response rejected: %v", err)
	}
	if err := Binomial.checkResponse([]float64{0, 0.5}); err == nil {
		t.Error("non 0/1 binomial response must be rejected")
	}
}

func TestPenaltyContext(t *testing.T) {
	pc, err := NewPenaltyContext(3, nil, nil)
	if err != nil {
		t.Fatalf("NewPenaltyContext: %v", err)
	}
	for j := 0; j < 3; j++ {
		if pc.L1Weight(j) != 1 || !pc.Penalized(j) {
			t.Errorf("default penalty for variable %d is not unit", j)
		}
	}

	pc, err = NewPenaltyContext(2, []float64{0, 2}, []float64{3, 0.5})
	if err != nil {
		t.Fatalf("NewPenaltyContext: %v", err)
	}
	if pc.Penalized(0) {
		t.Error("zero factor means unpenalized")
	}
	if pc.L1Weight(1) != 1.0 {
		t.Errorf("L1Weight = %g, want factor*adaptive = 1", pc.L1Weight(1))
	}

	if _, err := NewPenaltyContext(2, []float64{1}, nil); err == nil {
		t.Error("factor length mismatch must fail")
	}
	if _, err := NewPenaltyContext(2, nil, []float64{1, -1}); err == nil {
		t.Error("negative adaptive weight must fail")
	}
}
