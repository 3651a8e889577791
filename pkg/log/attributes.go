// Package log defines standard attribute keys for numlearn log records.
//
// Keys follow a hierarchical naming convention ("training.iteration",
// "cluster.movement") so that descent and clustering runs can be filtered
// and compared in aggregated logs.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the objective or estimator.
	// Examples: "Parabola", "LinearRegression", "KMeans"
	ModelNameKey = "model.name"

	// EstimatorIDKey is the unique id of a single run (a UUID).
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the operation being performed.
	OperationKey = "ml.operation"

	// ComponentKey identifies the package emitting the record.
	// Examples: "optimize", "cluster", "dataset"
	ComponentKey = "ml.component"
)

// Data Shape
const (
	// SamplesKey is the number of data points or rows.
	SamplesKey = "data.samples"

	// FeaturesKey is the feature dimensionality.
	FeaturesKey = "data.features"

	// BatchSizeKey is the size of an SGD batch.
	BatchSizeKey = "data.batch_size"

	// SourceKey names a dataset file.
	SourceKey = "data.source"
)

// Training Progress
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// LossKey records the loss value at the current iteration.
	LossKey = "metrics.loss"

	// LossDeltaKey records |previous loss - new loss|.
	LossDeltaKey = "training.loss_delta"

	// IterationKey records the current iteration number.
	IterationKey = "training.iteration"

	// ConvergedKey records whether the stopping criterion was met.
	ConvergedKey = "training.converged"

	// R2ScoreKey records the R² of a fitted regression.
	R2ScoreKey = "metrics.r2_score"
)

// Clustering
const (
	// ClustersKey is the number of clusters k.
	ClustersKey = "cluster.k"

	// MovementKey is the summed L1 movement of all means in one iteration.
	MovementKey = "cluster.movement"

	// StateKey is the terminal state of a k-means run.
	StateKey = "cluster.state"
)

// Hyperparameters and Configuration
const (
	// LearningRateKey records the (effective) learning rate.
	LearningRateKey = "hyperparams.learning_rate"

	// ToleranceKey records min_improvement or tau.
	ToleranceKey = "hyperparams.tolerance"

	// MaxIterationsKey records the iteration cap.
	MaxIterationsKey = "hyperparams.max_iterations"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"
)

// Error Context
const (
	// ErrorCodeKey provides a structured error code.
	ErrorCodeKey = "error.code"

	// SuggestionKey provides a hint for resolving the issue.
	SuggestionKey = "error.suggestion"
)

// Standard attribute values.
const (
	OperationFit        = "fit"
	OperationPredict    = "predict"
	OperationPartialFit = "partial_fit"
	OperationDescend    = "descend"
	OperationCluster    = "cluster"
	OperationLoad       = "load"
	OperationTransform  = "transform"

	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
	ErrorConvergence       = "CONVERGENCE_FAILURE"
)
