// Package numlearn is a small collection of numerical learning algorithms
// written from scratch on top of gonum: batch gradient descent, a stateful
// stochastic gradient descent session, pluggable objective models and k-means
// clustering.
//
// # Packages
//
//   - core/vecmath: dot product, norm, mean, variance and distances
//   - core/model: Datum and Point types, the Objective interface, estimator state
//   - objective: Parabola, LinearRegression and Binomial (coin flip) objectives
//   - optimize: GradientDescent, UpdateWeights and the SGD session
//   - cluster: k-means with movement-based convergence
//   - dataset: CSV loading, coin flips and 2-D blob generation
//   - linear: Regression (batch descent) and SGDRegressor (mini-batch)
//   - metrics, preprocessing: evaluation and feature scaling
//   - pkg/errors, pkg/log, pkg/telemetry: errors, structured logging, Prometheus collectors
//
// # Quick Start
//
// Minimising an objective with gradient descent:
//
//	res, err := optimize.GradientDescent(nil, []float64{3, 4}, objective.Parabola{},
//	    optimize.WithLearningRate(0.1),
//	    optimize.WithMinImprovement(1e-6),
//	)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.Weights, res.Converged) // ≈ [1 2] true
//
// Clustering generated points:
//
//	points := dataset.DefaultBlobs()
//	km := cluster.NewKMeans(cluster.WithK(5), cluster.WithSeed(42))
//	res, err := km.Fit(points)
//	fmt.Println(res.State, res.Iterations())
//
// # Error Handling
//
// Errors carry stack traces (github.com/cockroachdb/errors) and typed detail:
//
//	if _, err := reg.Predict(X); err != nil {
//	    var dimErr *errors.DimensionError
//	    if errors.As(err, &dimErr) {
//	        // dimErr.Expected, dimErr.Got
//	    }
//	}
//
// Non-convergence is not an error. GradientDescent and KMeans report it through
// errors.Warn as a ConvergenceWarning and return the state reached at the
// iteration cap.
//
// # Logging
//
// Library code logs through pkg/log, which discards everything until
// log.SetupLogger or log.SetLogger is called. Per-iteration progress is logged
// at debug level; each run is tagged with a UUID under "estimator.id".
//
// The numlearn command (cmd/numlearn) drives every component from the shell.
package numlearn
