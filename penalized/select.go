package penalized

import (
	"math"

	"github.com/umich-cphds/minet/pkg/errors"
)

// settingTol is the relative tolerance used when matching a requested
// lambda/alpha against computed grid values. Settings farther apart than
// this are distinct grid points; no interpolation is done.
const settingTol = 1e-9

func settingsMatch(a, b float64) bool {
	return math.Abs(a-b) <= settingTol*math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
}

// PointAt returns the fitted path point at the exact (lambda, alpha) grid
// setting, or a NotFoundError when that setting was never computed.
func (sp *SolutionPath) PointAt(lambda, alpha float64) (*PathPoint, error) {
	for i := range sp.Points {
		if settingsMatch(sp.Points[i].Lambda, lambda) && settingsMatch(sp.Points[i].Alpha, alpha) {
			return &sp.Points[i], nil
		}
	}
	return nil, errors.NewNotFoundError("SolutionPath.PointAt", lambda, alpha)
}

// CoefficientsAt returns the stored intercept-first coefficient vector at
// the exact (lambda, alpha) grid setting. The stored vector is returned
// without recomputation.
func (sp *SolutionPath) CoefficientsAt(lambda, alpha float64) ([]float64, error) {
	pt, err := sp.PointAt(lambda, alpha)
	if err != nil {
		return nil, err
	}
	return pt.Coefficients, nil
}

// Coefficients returns the coefficient vector at the CV-optimal setting
// (lambda.min, alpha.min).
func (r *CVResult) Coefficients() ([]float64, error) {
	return r.Path.CoefficientsAt(r.LambdaMin, r.AlphaMin)
}

// Coefficients1SE returns the coefficient vector at the one-standard-error
// setting (lambda.1se at the alpha.min slice).
func (r *CVResult) Coefficients1SE() ([]float64, error) {
	return r.Path.CoefficientsAt(r.Lambda1SE, r.Alpha1SE)
}

// CoefficientsAt returns the coefficient vector at an explicit setting from
// the underlying full-data path.
func (r *CVResult) CoefficientsAt(lambda, alpha float64) ([]float64, error) {
	return r.Path.CoefficientsAt(lambda, alpha)
}
