package density

import (
	"errors"
	"fmt"
	"math"

	"github.com/aclements/go-moremath/stats"
	"github.com/aclements/go-moremath/vec"
	"gonum.org/v1/gonum/stat"
)

// Curve is a univariate density evaluated at Xs.
type Curve struct {
	Label string    `json:"label"`
	Xs    []float64 `json:"xs"`
	PDF   []float64 `json:"pdf"`
	N     int       `json:"n"`
}

// Group is one labelled sample of a grouped chart.
type Group struct {
	Label  string
	Values []float64
}

// Estimate1D fits a Gaussian KDE with bandwidth σ·n^(-1/5) to values and
// evaluates it on points evenly spaced over [lo, hi]. A points value below 2
// selects DefaultCurvePoints.
func Estimate1D(values []float64, lo, hi float64, points int) (Curve, error) {
	if len(values) < 2 {
		return Curve{}, fmt.Errorf("%w: got %d", ErrTooFewPoints, len(values))
	}
	if points < 2 {
		points = DefaultCurvePoints
	}

	bw := scottBandwidth(values)
	if bw == 0 || math.IsNaN(bw) {
		return Curve{}, ErrZeroVariance
	}

	sample := stats.Sample{Xs: values}.Copy().Sort()
	kde := &stats.KDE{Sample: *sample, Kernel: stats.GaussianKernel, Bandwidth: bw}
	xs := vec.Linspace(lo, hi, points)
	pdf := make([]float64, len(xs))
	for i, x := range xs {
		pdf[i] = kde.PDF(x)
	}
	return Curve{Xs: xs, PDF: pdf, N: len(values)}, nil
}

// scottBandwidth is the sample standard deviation times n^(-1/5), the
// one-dimensional form of the factor Estimate2D uses. It differs from
// stats.BandwidthScott, which also applies 1.06 and an IQR cap.
func scottBandwidth(values []float64) float64 {
	return stat.StdDev(values, nil) * math.Pow(float64(len(values)), -1.0/5)
}

// EstimateGroups fits one curve per group over a shared [lo, hi] and scales
// each by its share of all values, so the curves of a chart are comparable
// and together integrate to at most one. Groups that cannot be estimated are
// left out; their errors are joined into the returned error.
func EstimateGroups(groups []Group, lo, hi float64, points int) ([]Curve, error) {
	total := 0
	for _, g := range groups {
		total += len(g.Values)
	}

	var (
		curves []Curve
		errs   []error
	)
	for _, g := range groups {
		c, err := Estimate1D(g.Values, lo, hi, points)
		if err != nil {
			errs = append(errs, fmt.Errorf("group %q: %w", g.Label, err))
			continue
		}
		c.Label = g.Label
		share := float64(c.N) / float64(total)
		for i := range c.PDF {
			c.PDF[i] *= share
		}
		curves = append(curves, c)
	}
	return curves, errors.Join(errs...)
}
