package penalized

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// groupLassoSolver runs block coordinate descent for the grouped adaptive
// lasso. Coefficients are per imputation, but each variable's M coefficients
// form one group under the penalty lambda * pf_j * adw_j * ||b_j.||_2, so the
// whole group is zeroed or kept together. Intercepts are per imputation and
// unpenalized.
//
// Designs are standardized per imputation with uniform weights 1/n, which
// makes every column's quadratic term equal across imputations and gives the
// group update its closed form. Binomial fits replace the exact IRLS weights
// with the uniform 1/4 curvature bound, the standard majorization for group-
// penalized logistic regression; the working response becomes
// eta + 4 (y - p).
type groupLassoSolver struct {
	X []*mat.Dense // standardized designs, n x p each
	y [][]float64

	pen    *PenaltyContext
	family Family
	opts   *options

	n, p, m int
	col     []float64
}

func newGroupLassoSolver(X []*mat.Dense, y [][]float64, pen *PenaltyContext, family Family, opts *options) *groupLassoSolver {
	n, p := X[0].Dims()
	return &groupLassoSolver{
		X:      X,
		y:      y,
		pen:    pen,
		family: family,
		opts:   opts,
		n:      n,
		p:      p,
		m:      len(X),
		col:    make([]float64, n),
	}
}

// glState carries the per-imputation coefficients on the standardized scale
// between solves along a lambda path. beta is indexed [imputation][variable].
type glState struct {
	beta       [][]float64
	intercepts []float64
}

func newGLState(m, p int) *glState {
	st := &glState{
		beta:       make([][]float64, m),
		intercepts: make([]float64, m),
	}
	for k := range st.beta {
		st.beta[k] = make([]float64, p)
	}
	return st
}

// solve fits one lambda point, updating st in place.
func (s *groupLassoSolver) solve(lambda float64, st *glState) (bool, int) {
	if s.family == Binomial {
		return s.solveMM(lambda, st)
	}

	resid := s.residuals(s.y, st)
	// Gaussian working response is y itself and the quadratic term per
	// standardized column is exactly 1 under the 1/n weights.
	return s.blockDescent(resid, lambda, 1.0, st)
}

// solveMM runs the outer majorization loop for binomial fits: each step
// solves a group-penalized least squares problem on the bounded-curvature
// working response, then re-linearizes at the new coefficients.
func (s *groupLassoSolver) solveMM(lambda float64, st *glState) (bool, int) {
	w := uniform(s.n, 1.0/float64(s.n))

	eta := make([][]float64, s.m)
	z := make([][]float64, s.m)
	for k := 0; k < s.m; k++ {
		eta[k] = make([]float64, s.n)
		z[k] = make([]float64, s.n)
	}

	s.linearPredictors(st, eta)
	dev := s.totalDeviance(eta, w)

	totalIter := 0
	innerOK := true
	for outer := 0; outer < s.opts.maxIRLS; outer++ {
		for k := 0; k < s.m; k++ {
			for i := 0; i < s.n; i++ {
				p := clipProb(sigmoid(eta[k][i]))
				z[k][i] = eta[k][i] + 4*(s.y[k][i]-p)
			}
		}

		resid := s.residuals(z, st)
		// Curvature bound 1/4 per column under the 1/n weights.
		ok, iters := s.blockDescent(resid, lambda, 0.25, st)
		totalIter += iters
		innerOK = innerOK && ok

		s.linearPredictors(st, eta)
		newDev := s.totalDeviance(eta, w)
		if math.Abs(newDev-dev) < s.opts.irlsTol*(math.Abs(dev)+0.1) {
			return innerOK, totalIter
		}
		dev = newDev
	}
	return false, totalIter
}

// blockDescent cycles over variable groups, applying the group
// soft-threshold with quadratic coefficient q per column, until the maximum
// scaled change falls below tolerance.
func (s *groupLassoSolver) blockDescent(resid [][]float64, lambda, q float64, st *glState) (bool, int) {
	invN := 1.0 / float64(s.n)
	u := make([]float64, s.m)

	// Absorb each imputation's mean residual into its intercept before the
	// first sweep, so the initial group gradients equal the null-model group
	// gradients and the path head stays exactly zero at lambdaMax.
	for k := 0; k < s.m; k++ {
		d0 := floats.Sum(resid[k]) * invN
		if d0 != 0 {
			st.intercepts[k] += d0
			floats.AddConst(-d0, resid[k])
		}
	}

	iters := 0
	for iters < s.opts.maxIter {
		maxDelta := s.groupCycle(resid, lambda, q, invN, u, st, false)
		iters++
		if maxDelta < s.opts.tol {
			return true, iters
		}

		for iters < s.opts.maxIter {
			maxDelta = s.groupCycle(resid, lambda, q, invN, u, st, true)
			iters++
			if maxDelta < s.opts.tol {
				break
			}
		}
	}
	return false, iters
}

// groupCycle performs one sweep over all variable groups plus the
// per-imputation intercepts, returning the maximum scaled change. When
// activeOnly is set, groups that are entirely zero are skipped.
func (s *groupLassoSolver) groupCycle(resid [][]float64, lambda, q, invN float64, u []float64, st *glState, activeOnly bool) float64 {
	maxDelta := 0.0

	for j := 0; j < s.p; j++ {
		if activeOnly && s.groupIsZero(st, j) {
			continue
		}

		// Unpenalized group minimizer per imputation. The curvature q
		// cancels out of the gradient step (it scales both the loss
		// gradient and its own quadratic term) and survives only in the
		// threshold below.
		norm := 0.0
		for k := 0; k < s.m; k++ {
			mat.Col(s.col, j, s.X[k])
			dot := 0.0
			for i := 0; i < s.n; i++ {
				dot += s.col[i] * resid[k][i]
			}
			u[k] = st.beta[k][j] + invN*dot
			norm += u[k] * u[k]
		}
		norm = math.Sqrt(norm)

		shrink := 1.0
		if t := lambda * s.pen.L1Weight(j) / q; t > 0 {
			if norm <= t {
				shrink = 0
			} else {
				shrink = 1 - t/norm
			}
		}

		for k := 0; k < s.m; k++ {
			next := shrink * u[k]
			old := st.beta[k][j]
			if next != old {
				mat.Col(s.col, j, s.X[k])
				floats.AddScaled(resid[k], old-next, s.col)
				st.beta[k][j] = next
			}
			delta := math.Abs(next - old)
			if scaled := delta / math.Max(1, math.Abs(next)); scaled > maxDelta {
				maxDelta = scaled
			}
		}
	}

	// Intercepts are uncoupled: each imputation takes its own mean
	// residual.
	for k := 0; k < s.m; k++ {
		d0 := floats.Sum(resid[k]) / float64(s.n)
		if d0 != 0 {
			st.intercepts[k] += d0
			floats.AddConst(-d0, resid[k])
		}
		if scaled := math.Abs(d0) / math.Max(1, math.Abs(st.intercepts[k])); scaled > maxDelta {
			maxDelta = scaled
		}
	}

	return maxDelta
}

func (s *groupLassoSolver) groupIsZero(st *glState, j int) bool {
	for k := 0; k < s.m; k++ {
		if st.beta[k][j] != 0 {
			return false
		}
	}
	return true
}

// residuals computes z - intercept - X beta per imputation.
func (s *groupLassoSolver) residuals(z [][]float64, st *glState) [][]float64 {
	resid := make([][]float64, s.m)
	for k := 0; k < s.m; k++ {
		resid[k] = make([]float64, s.n)
		copy(resid[k], z[k])
		floats.AddConst(-st.intercepts[k], resid[k])
		for j := 0; j < s.p; j++ {
			if st.beta[k][j] == 0 {
				continue
			}
			mat.Col(s.col, j, s.X[k])
			floats.AddScaled(resid[k], -st.beta[k][j], s.col)
		}
	}
	return resid
}

func (s *groupLassoSolver) linearPredictors(st *glState, eta [][]float64) {
	for k := 0; k < s.m; k++ {
		for i := 0; i < s.n; i++ {
			eta[k][i] = st.intercepts[k]
		}
		for j := 0; j < s.p; j++ {
			b := st.beta[k][j]
			if b == 0 {
				continue
			}
			mat.Col(s.col, j, s.X[k])
			floats.AddScaled(eta[k], b, s.col)
		}
	}
}

// totalDeviance averages the per-imputation deviance under weights w.
func (s *groupLassoSolver) totalDeviance(eta [][]float64, w []float64) float64 {
	dev := 0.0
	for k := 0; k < s.m; k++ {
		dev += s.family.deviance(s.y[k], eta[k], w)
	}
	return dev / float64(s.m)
}

// nullGroupGradients returns the group norms of the per-imputation gradients
// at the intercept-only model: sqrt(sum_m ((1/n) sum_i x_mij (y_mi -
// ybar_m))^2) per variable. Both families reduce to this expression at the
// null model.
func (s *groupLassoSolver) nullGroupGradients() []float64 {
	invN := 1.0 / float64(s.n)

	g := make([]float64, s.p)
	for j := 0; j < s.p; j++ {
		sumSq := 0.0
		for k := 0; k < s.m; k++ {
			ybar := floats.Sum(s.y[k]) * invN
			mat.Col(s.col, j, s.X[k])
			dot := 0.0
			for i := 0; i < s.n; i++ {
				dot += s.col[i] * (s.y[k][i] - ybar)
			}
			dot *= invN
			sumSq += dot * dot
		}
		g[j] = math.Sqrt(sumSq)
	}
	return g
}

func uniform(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
