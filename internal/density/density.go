// Package density fits Gaussian kernel density estimates to record subsets.
//
// Estimate2D evaluates a bivariate KDE on a regular grid spanning the data,
// with the kernel covariance set to the data covariance scaled by Scott's
// factor n^(-1/6). Estimate1D and EstimateGroups evaluate univariate curves
// on a fixed range. Degenerate input is reported through the sentinel errors
// below; callers are expected to skip the chart, not retry.
package density

import "errors"

// DefaultGridSize is the number of grid lines per axis of a surface.
const DefaultGridSize = 100

// DefaultCurvePoints is the number of evaluation points of a curve.
const DefaultCurvePoints = 200

var (
	ErrLengthMismatch     = errors.New("density: coordinate slices differ in length")
	ErrTooFewPoints       = errors.New("density: at least two points are required")
	ErrZeroVariance       = errors.New("density: input has zero variance")
	ErrSingularCovariance = errors.New("density: covariance matrix is singular")
)
