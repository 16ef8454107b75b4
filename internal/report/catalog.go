package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/couchcryptid/nyc-collision-analytics/internal/aggregate"
	"github.com/couchcryptid/nyc-collision-analytics/internal/density"
	"github.com/couchcryptid/nyc-collision-analytics/internal/domain"
	"github.com/couchcryptid/nyc-collision-analytics/internal/observability"
)

// Options sizes the density artifacts.
type Options struct {
	GridSize    int
	CurvePoints int
}

// Catalog builds the report artifacts for a dataset.
type Catalog struct {
	agg     *aggregate.Aggregator
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewCatalog creates a Catalog over the aggregator's year range.
func NewCatalog(agg *aggregate.Aggregator, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Catalog {
	return &Catalog{agg: agg, opts: opts, logger: logger, metrics: metrics}
}

// Build returns every artifact in catalog order. Degenerate density input
// skips that artifact; cancellation or a table error stops the build.
func (c *Catalog) Build(ctx context.Context, ds *domain.Dataset) ([]Artifact, error) {
	steps := []struct {
		question int
		build    func(*domain.Dataset) ([]Artifact, error)
	}{
		{1, always(c.boroughs)},
		{2, always(c.months)},
		{4, always(c.weekdays)},
		{5, always(c.weekdayHours)},
		{6, always(c.boroughBreakdowns)},
		{7, always(c.heatmaps)},
		{8, always(c.parties)},
		{9, c.deaths},
	}

	var out []Artifact
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		arts, err := s.build(ds)
		if err != nil {
			return out, fmt.Errorf("question %d: %w", s.question, err)
		}
		for _, a := range arts {
			c.metrics.ArtifactsBuilt.WithLabelValues(string(a.Kind)).Inc()
		}
		c.logger.Debug("question built", "question", s.question, "artifacts", len(arts))
		out = append(out, arts...)
	}
	return out, nil
}

// boroughs: accidents per borough and year, and when in the period each
// borough's accidents happened.
func (c *Catalog) boroughs(ds *domain.Dataset) []Artifact {
	counts := c.agg.ByValueAndYear(ds.Cleaned, domain.DimBorough)
	out := []Artifact{{
		ID: "q1-accidents-by-borough", Question: 1, Kind: KindBar,
		Title:  "Accidents by borough",
		Counts: &counts,
	}}

	groups := make([]density.Group, 0, len(domain.Boroughs()))
	for _, b := range domain.Boroughs() {
		groups = append(groups, density.Group{Label: string(b), Values: fractionalYears(domain.Filter(ds.Cleaned, domain.BoroughIs(b)))})
	}
	lo, hi := float64(ds.Years.First), float64(ds.Years.Last+1)
	if a, ok := c.curves("q1-crash-time-by-borough", 1, "Crash time density by borough", groups, lo, hi); ok {
		out = append(out, a)
	}
	return out
}

func (c *Catalog) months(ds *domain.Dataset) []Artifact {
	counts := c.agg.ByValueAndYear(ds.Cleaned, domain.DimMonth)
	return []Artifact{{
		ID: "q2-accidents-by-month", Question: 2, Kind: KindBar,
		Title:  "Accidents by month",
		Counts: &counts,
	}}
}

func (c *Catalog) weekdays(ds *domain.Dataset) []Artifact {
	counts := c.agg.ByValueAndYear(ds.Cleaned, domain.DimWeekday)
	return []Artifact{{
		ID: "q4-accidents-by-weekday", Question: 4, Kind: KindBar,
		Title:  "Accidents by day of week",
		Counts: &counts,
	}}
}

// weekdayHours: for each year, hourly counts per weekday and the hour
// density of each weekday.
func (c *Catalog) weekdayHours(ds *domain.Dataset) []Artifact {
	nested := c.agg.WeekdayHourByYear(ds.Cleaned)
	var out []Artifact
	for i, y := range nested.Years {
		out = append(out, grouped(5, "weekday-hour", "Accidents by hour for each day of week", y, nested.Tables[i]))

		yearSet := ds.Year(y)
		groups := make([]density.Group, 0, 7)
		for _, wd := range domain.Weekdays() {
			groups = append(groups, density.Group{Label: wd.String(), Values: hours(domain.Filter(yearSet, domain.WeekdayIs(wd)))})
		}
		id := fmt.Sprintf("q5-hour-density-by-weekday-%d", y)
		if a, ok := c.curves(id, 5, "Hour density by day of week", groups, 0, 23); ok {
			a.Year = y
			out = append(out, a)
		}
	}
	return out
}

// boroughBreakdowns: for each year, borough by month, weekday and hour,
// crash-time and hour densities per borough, then per borough the hour
// density of each year.
func (c *Catalog) boroughBreakdowns(ds *domain.Dataset) []Artifact {
	byMonth := c.agg.BoroughMonthByYear(ds.Cleaned)
	byWeekday := c.agg.BoroughWeekdayByYear(ds.Cleaned)
	byHour := c.agg.BoroughHourByYear(ds.Cleaned)

	var out []Artifact
	for i, y := range byMonth.Years {
		out = append(out,
			grouped(6, "borough-month", "Accidents by month for each borough", y, byMonth.Tables[i]),
			grouped(6, "borough-weekday", "Accidents by day of week for each borough", y, byWeekday.Tables[i]),
			grouped(6, "borough-hour", "Accidents by hour for each borough", y, byHour.Tables[i]),
		)

		yearSet := ds.Year(y)
		seasons := make([]density.Group, 0, 5)
		for _, b := range domain.Boroughs() {
			seasons = append(seasons, density.Group{Label: string(b), Values: fractionalYears(domain.Filter(yearSet, domain.BoroughIs(b)))})
		}
		id := fmt.Sprintf("q6-crash-time-density-by-borough-%d", y)
		if a, ok := c.curves(id, 6, "Crash time density by borough", seasons, float64(y), float64(y+1)); ok {
			a.Year = y
			out = append(out, a)
		}

		groups := make([]density.Group, 0, 5)
		for _, b := range domain.Boroughs() {
			groups = append(groups, density.Group{Label: string(b), Values: hours(domain.Filter(yearSet, domain.BoroughIs(b)))})
		}
		id = fmt.Sprintf("q6-hour-density-by-borough-%d", y)
		if a, ok := c.curves(id, 6, "Hour density by borough", groups, 0, 23); ok {
			a.Year = y
			out = append(out, a)
		}
	}

	for _, b := range domain.Boroughs() {
		groups := make([]density.Group, 0, len(byMonth.Years))
		for _, y := range byMonth.Years {
			groups = append(groups, density.Group{
				Label:  strconv.Itoa(y),
				Values: hours(domain.Filter(ds.Year(y), domain.BoroughIs(b))),
			})
		}
		id := "q6-hour-density-by-year-" + b.Slug()
		if a, ok := c.curves(id, 6, "Hour density by year in "+b.Title(), groups, 0, 23); ok {
			a.Borough = b
			out = append(out, a)
		}
	}
	return out
}

// heatmaps: for each borough and year, the density of that borough's crash
// locations inside its bounding box. Boxes overlap, so the label decides.
func (c *Catalog) heatmaps(ds *domain.Dataset) []Artifact {
	var out []Artifact
	for _, info := range domain.BoroughTable() {
		for _, y := range ds.Years.Years() {
			labelled := domain.Filter(ds.Year(y), domain.BoroughIs(info.Name))
			inBox := domain.BetweenCoords(labelled, info.Bounds.Min, info.Bounds.Max)
			xs := make([]float64, len(inBox))
			ys := make([]float64, len(inBox))
			for i, rec := range inBox {
				xs[i], ys[i] = rec.Longitude, rec.Latitude
			}

			surface, err := density.Estimate2D(xs, ys, c.opts.GridSize)
			if err != nil {
				c.densityFailed(err, "borough", info.Name, "year", y, "points", len(inBox))
				continue
			}
			extent := info.Extent
			out = append(out, Artifact{
				ID:       fmt.Sprintf("q7-heatmap-%s-%d", info.Name.Slug(), y),
				Question: 7,
				Kind:     KindHeatmap,
				Title:    fmt.Sprintf("Accident density in %s, %d", info.Name.Title(), y),
				Year:     y,
				Borough:  info.Name,
				Surface:  &surface,
				Extent:   &extent,
			})
		}
	}
	return out
}

func (c *Catalog) parties(ds *domain.Dataset) []Artifact {
	counts := c.agg.InvolvedParties(ds.Cleaned)
	return []Artifact{{
		ID: "q8-involved-parties", Question: 8, Kind: KindBar,
		Title:  "Accidents involving pedestrians",
		Counts: &counts,
	}}
}

func (c *Catalog) deaths(ds *domain.Dataset) ([]Artifact, error) {
	deaths := c.agg.DeathsByMonth(ds.Cleaned)
	ratio, err := c.agg.DeathRatioByMonth(ds.Cleaned)
	if err != nil {
		return nil, err
	}
	return []Artifact{
		{
			ID: "q9-deaths-by-month", Question: 9, Kind: KindBar,
			Title:  "Deaths by month",
			Counts: &deaths,
		},
		{
			ID: "q9-death-ratio-by-month", Question: 9, Kind: KindRatio,
			Title:  "Deaths per accident by month",
			Ratios: &ratio,
		},
	}, nil
}

// curves estimates grouped densities. Failed groups are logged and counted;
// the artifact is dropped only when no group could be estimated.
func (c *Catalog) curves(id string, question int, title string, groups []density.Group, lo, hi float64) (Artifact, bool) {
	curves, err := density.EstimateGroups(groups, lo, hi, c.opts.CurvePoints)
	if err != nil {
		for _, e := range unjoin(err) {
			c.densityFailed(e, "artifact", id)
		}
	}
	if len(curves) == 0 {
		return Artifact{}, false
	}
	return Artifact{ID: id, Question: question, Kind: KindDensity, Title: title, Curves: curves}, true
}

func (c *Catalog) densityFailed(err error, args ...any) {
	reason := failureReason(err)
	c.metrics.DensityFailures.WithLabelValues(reason).Inc()
	c.logger.Warn("density estimate skipped", append(args, "reason", reason, "error", err)...)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, density.ErrTooFewPoints):
		return "too_few_points"
	case errors.Is(err, density.ErrZeroVariance):
		return "zero_variance"
	case errors.Is(err, density.ErrSingularCovariance):
		return "singular_covariance"
	case errors.Is(err, density.ErrLengthMismatch):
		return "length_mismatch"
	default:
		return "other"
	}
}

func unjoin(err error) []error {
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}

// always adapts a step that cannot fail.
func always(build func(*domain.Dataset) []Artifact) func(*domain.Dataset) ([]Artifact, error) {
	return func(ds *domain.Dataset) ([]Artifact, error) { return build(ds), nil }
}

func grouped(question int, name, title string, year int, t aggregate.CountTable) Artifact {
	return Artifact{
		ID:       fmt.Sprintf("q%d-%s-%d", question, name, year),
		Question: question,
		Kind:     KindGroupedBar,
		Title:    fmt.Sprintf("%s, %d", title, year),
		Year:     year,
		Counts:   &t,
	}
}

func hours(records []domain.Collision) []float64 {
	out := make([]float64, len(records))
	for i, rec := range records {
		out[i] = float64(domain.Hour(rec.CrashTime))
	}
	return out
}

func fractionalYears(records []domain.Collision) []float64 {
	out := make([]float64, len(records))
	for i, rec := range records {
		out[i] = domain.FractionalYear(rec.CrashTime)
	}
	return out
}
