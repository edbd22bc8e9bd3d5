// Package minet fits penalized regression models across multiply-imputed
// datasets, producing one coherent variable-selection result instead of M
// inconsistent ones.
//
// Missing covariates are usually handled by multiple imputation, which
// produces M completed copies of the dataset. Fitting a lasso-type model to
// each copy separately selects different variables in different copies.
// This library fits the copies jointly:
//
//   - SAENET (stacked adaptive elastic net) stacks the M copies into one
//     weighted design and fits a single coefficient vector by cyclic
//     coordinate descent, so selection agrees across imputations trivially.
//   - GALASSO (grouped adaptive lasso) keeps one coefficient per imputation
//     per variable but penalizes the group norm across imputations, zeroing
//     all M copies of a variable together.
//
// Both engines support gaussian and binomial responses, adaptive per-variable
// penalty weighting, warm-started regularization paths, and k-fold
// cross-validation with minimum-error and one-standard-error selection.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/umich-cphds/minet/penalized"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    // X and y hold the M imputed designs and responses, produced by an
//	    // external imputation procedure.
//	    var X []mat.Matrix
//	    var y []mat.Vector
//	    // ... fill from the imputation output ...
//
//	    cv, err := penalized.CVSAENET(X, y, nil, nil, nil,
//	        penalized.Gaussian, []float64{0.5, 1.0}, nil, 5, 42)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    coef, err := cv.Coefficients() // at lambda.min / alpha.min
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println("selected coefficients:", coef)
//	}
//
// # Packages
//
//   - penalized: the fitting engines, path driver, and cross-validation
//   - metrics: the loss functions used for cross-validation scoring
//   - preprocessing: weighted column standardization
//   - pkg/errors, pkg/log: structured errors, warnings, and logging
//
// The multiple-imputation procedure itself is out of scope; this library
// consumes its output.
package minet
