package penalized

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/umich-cphds/minet/pkg/errors"
)

func TestSettingsMatch(t *testing.T) {
	assert.True(t, settingsMatch(0.5, 0.5))
	assert.True(t, settingsMatch(0.5, 0.5*(1+1e-12)), "float noise within tolerance matches")
	assert.True(t, settingsMatch(0, 0))
	assert.False(t, settingsMatch(0.5, 0.50001), "distinct grid points never match")
	assert.False(t, settingsMatch(0.5, 0.25))
}

func TestSolutionPath_PointAt(t *testing.T) {
	X, y := orthogonalData([]float64{2, 0, 1, -3})
	path, err := FitSAENET(X, y, nil, nil, nil, Gaussian,
		[]float64{0.5, 1.0}, []float64{1.0, 0.5, 0.1})
	require.NoError(t, err)

	// Exact stored vector comes back, not a recomputation.
	pt, err := path.PointAt(0.5, 1.0)
	require.NoError(t, err)
	coef, err := path.CoefficientsAt(0.5, 1.0)
	require.NoError(t, err)
	assert.Equal(t, pt.Coefficients, coef)
	assert.Equal(t, 0.5, pt.Lambda)
	assert.Equal(t, 1.0, pt.Alpha)

	// Tiny float noise on the request still resolves to the grid point.
	_, err = path.PointAt(0.5*(1+1e-12), 1.0)
	assert.NoError(t, err)

	// Off-grid settings are an error, never an interpolation.
	var nfe *errors.NotFoundError
	_, err = path.PointAt(0.3, 1.0)
	require.Error(t, err)
	assert.True(t, errors.As(err, &nfe))
	assert.Equal(t, 0.3, nfe.Lambda)

	_, err = path.CoefficientsAt(0.5, 0.75)
	assert.True(t, errors.As(err, &nfe), "alpha must match the grid too")
}

func TestCVResult_SelectionAccessors(t *testing.T) {
	X, y := imputedGaussian(41, 40, 5, 2, 2)

	cv, err := CVSAENET(X, y, nil, nil, nil, Gaussian,
		[]float64{1.0}, nil, 4, 3, WithNLambda(10))
	require.NoError(t, err)

	coefMin, err := cv.Coefficients()
	require.NoError(t, err)
	fromPath, err := cv.Path.CoefficientsAt(cv.LambdaMin, cv.AlphaMin)
	require.NoError(t, err)
	assert.Equal(t, fromPath, coefMin, "Coefficients indexes the stored path point")

	coef1se, err := cv.Coefficients1SE()
	require.NoError(t, err)
	assert.Len(t, coef1se, len(coefMin))

	explicit, err := cv.CoefficientsAt(cv.LambdaMin, cv.AlphaMin)
	require.NoError(t, err)
	assert.Equal(t, coefMin, explicit)

	_, err = cv.CoefficientsAt(123.456, 1.0)
	var nfe *errors.NotFoundError
	assert.True(t, errors.As(err, &nfe))
}
