// Package metrics provides the loss functions used for cross-validation
// scoring: weighted squared error for gaussian models and weighted binomial
// deviance for logistic models.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/umich-cphds/minet/pkg/errors"
)

// MSE computes the mean squared error between two vectors.
func MSE(yTrue, yPred mat.Vector) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.Wrap(errors.ErrEmptyData, "metrics.MSE")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("metrics.MSE", n, yPred.Len(), 0)
	}

	sum := 0.0
	for i := 0; i < n; i++ {
		d := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += d * d
	}
	return sum / float64(n), nil
}

// WeightedSquaredError computes sum_i w_i (y_i - yhat_i)^2 / sum_i w_i.
func WeightedSquaredError(yTrue, yPred, weights []float64) (float64, error) {
	n := len(yTrue)
	if n == 0 {
		return 0, errors.Wrap(errors.ErrEmptyData, "metrics.WeightedSquaredError")
	}
	if len(yPred) != n {
		return 0, errors.NewDimensionError("metrics.WeightedSquaredError", n, len(yPred), 0)
	}
	if len(weights) != n {
		return 0, errors.NewDimensionError("metrics.WeightedSquaredError", n, len(weights), 0)
	}

	sum, sumW := 0.0, 0.0
	for i := 0; i < n; i++ {
		d := yTrue[i] - yPred[i]
		sum += weights[i] * d * d
		sumW += weights[i]
	}
	if sumW <= 0 {
		return 0, errors.NewValidationError("weights", "must have positive sum", sumW)
	}
	return sum / sumW, nil
}

// probEps bounds predicted probabilities away from 0 and 1 so the deviance
// stays finite.
const probEps = 1e-15

// WeightedBinomialDeviance computes the weighted mean binomial deviance
// -2 sum_i w_i [y_i log(p_i) + (1-y_i) log(1-p_i)] / sum_i w_i for 0/1
// responses and predicted probabilities.
func WeightedBinomialDeviance(yTrue, prob, weights []float64) (float64, error) {
	n := len(yTrue)
	if n == 0 {
		return 0, errors.Wrap(errors.ErrEmptyData, "metrics.WeightedBinomialDeviance")
	}
	if len(prob) != n {
		return 0, errors.NewDimensionError("metrics.WeightedBinomialDeviance", n, len(prob), 0)
	}
	if len(weights) != n {
		return 0, errors.NewDimensionError("metrics.WeightedBinomialDeviance", n, len(weights), 0)
	}

	sum, sumW := 0.0, 0.0
	for i := 0; i < n; i++ {
		p := prob[i]
		if p < probEps {
			p = probEps
		} else if p > 1-probEps {
			p = 1 - probEps
		}
		if yTrue[i] == 1 {
			sum -= weights[i] * math.Log(p)
		} else {
			sum -= weights[i] * math.Log(1-p)
		}
		sumW += weights[i]
	}
	if sumW <= 0 {
		return 0, errors.NewValidationError("weights", "must have positive sum", sumW)
	}
	return 2 * sum / sumW, nil
}

// R2 computes the coefficient of determination.
func R2(yTrue, yPred mat.Vector) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.Wrap(errors.ErrEmptyData, "metrics.R2")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("metrics.R2", n, yPred.Len(), 0)
	}

	mean := 0.0
	for i := 0; i < n; i++ {
		mean += yTrue.AtVec(i)
	}
	mean /= float64(n)

	tss, rss := 0.0, 0.0
	for i := 0; i < n; i++ {
		yt := yTrue.AtVec(i)
		tss += (yt - mean) * (yt - mean)
		d := yt - yPred.AtVec(i)
		rss += d * d
	}
	if tss == 0 {
		return 0, errors.Newf("metrics.R2: total sum of squares is zero")
	}
	return 1 - rss/tss, nil
}
