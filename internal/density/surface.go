package density

import (
	"fmt"
	"math"

	"github.com/aclements/go-moremath/vec"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// singularTolerance bounds det(Σ) relative to varX*varY below which the
// covariance is treated as singular.
const singularTolerance = 1e-12

// Surface is a density grid. Z[i][j] is the density at (Xs[i], Ys[j]).
type Surface struct {
	Xs []float64   `json:"xs"`
	Ys []float64   `json:"ys"`
	Z  [][]float64 `json:"z"`
	N  int         `json:"n"`
}

// Max returns the largest density on the grid.
func (s Surface) Max() float64 {
	m := math.Inf(-1)
	for _, row := range s.Z {
		if len(row) > 0 {
			m = math.Max(m, floats.Max(row))
		}
	}
	return m
}

// Estimate2D fits a bivariate Gaussian KDE to the points (xs[k], ys[k]) and
// evaluates it on a gridSize×gridSize grid spanning min..max of each input.
// A gridSize below 2 selects DefaultGridSize.
func Estimate2D(xs, ys []float64, gridSize int) (Surface, error) {
	if len(xs) != len(ys) {
		return Surface{}, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(xs), len(ys))
	}
	n := len(xs)
	if n < 2 {
		return Surface{}, fmt.Errorf("%w: got %d", ErrTooFewPoints, n)
	}
	if gridSize < 2 {
		gridSize = DefaultGridSize
	}

	varX := stat.Variance(xs, nil)
	varY := stat.Variance(ys, nil)
	if varX == 0 || varY == 0 {
		return Surface{}, fmt.Errorf("%w: var(x)=%g var(y)=%g", ErrZeroVariance, varX, varY)
	}
	cov := stat.Covariance(xs, ys, nil)
	det := varX*varY - cov*cov
	if det <= singularTolerance*varX*varY {
		return Surface{}, fmt.Errorf("%w: det=%g", ErrSingularCovariance, det)
	}

	// Kernel covariance is the data covariance scaled by factor².
	factor := math.Pow(float64(n), -1.0/6)
	f2 := factor * factor
	a, b, d := varX*f2, cov*f2, varY*f2
	kdet := a*d - b*b
	norm := 1 / (2 * math.Pi * math.Sqrt(kdet) * float64(n))

	s := Surface{
		Xs: vec.Linspace(floats.Min(xs), floats.Max(xs), gridSize),
		Ys: vec.Linspace(floats.Min(ys), floats.Max(ys), gridSize),
		Z:  make([][]float64, gridSize),
		N:  n,
	}
	for i, gx := range s.Xs {
		row := make([]float64, gridSize)
		for j, gy := range s.Ys {
			sum := 0.0
			for k := range xs {
				dx, dy := gx-xs[k], gy-ys[k]
				q := (d*dx*dx - 2*b*dx*dy + a*dy*dy) / kdet
				sum += math.Exp(-0.5 * q)
			}
			row[j] = sum * norm
		}
		s.Z[i] = row
	}
	return s, nil
}
