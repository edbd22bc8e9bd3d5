package log

// Standard attribute keys for solver logging. Using these keys keeps path and
// cross-validation logs filterable by solver, grid point, and fold.
const (
	// SolverKey identifies the fitting engine emitting the record.
	// Values: "ElasticNetPath", "GroupLassoPath".
	SolverKey = "solver"

	// FamilyKey is the model family: "gaussian" or "binomial".
	FamilyKey = "family"

	// OperationKey is the operation being performed: "fit", "cv", "predict".
	OperationKey = "operation"

	// LambdaKey and AlphaKey identify the regularization setting.
	LambdaKey = "lambda"
	AlphaKey  = "alpha"

	// FoldKey is the cross-validation fold index.
	FoldKey = "cv.fold"

	// ObservationsKey is the number of original observations n.
	ObservationsKey = "data.observations"

	// VariablesKey is the number of candidate variables p.
	VariablesKey = "data.variables"

	// ImputationsKey is the number of imputed datasets M.
	ImputationsKey = "data.imputations"

	// IterationsKey is the iteration count reached by a solver.
	IterationsKey = "iterations"

	// DurationKey reports wall time of an operation in milliseconds.
	DurationKey = "duration_ms"
)
