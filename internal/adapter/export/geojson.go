package export

import (
	geojson "github.com/paulmach/go.geojson"

	"github.com/couchcryptid/nyc-collision-analytics/internal/domain"
	"github.com/couchcryptid/nyc-collision-analytics/internal/report"
)

// Feature kinds in the borough layer.
const (
	FeatureCity     = "city"
	FeatureBounds   = "bounds"
	FeatureCentroid = "centroid"
	FeatureHeatmap  = "heatmap"
)

// BoroughLayer returns the reference layer a renderer draws under the heat
// maps: the city rectangle, each borough's bounding box and centroid, and
// the outline of every heat-map artifact in arts.
func BoroughLayer(arts []report.Artifact) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	city := geojson.NewPolygonFeature(ring(domain.CityBounds))
	city.SetProperty("kind", FeatureCity)
	fc.AddFeature(city)

	for _, info := range domain.BoroughTable() {
		bounds := geojson.NewPolygonFeature(ring(info.Bounds))
		bounds.SetProperty("kind", FeatureBounds)
		bounds.SetProperty("borough", string(info.Name))
		bounds.SetProperty("name", info.Name.Title())
		fc.AddFeature(bounds)

		centroid := geojson.NewPointFeature([]float64{info.Centroid.Lon, info.Centroid.Lat})
		centroid.SetProperty("kind", FeatureCentroid)
		centroid.SetProperty("borough", string(info.Name))
		fc.AddFeature(centroid)
	}

	for _, a := range arts {
		if a.Kind != report.KindHeatmap || a.Surface == nil || a.Extent == nil {
			continue
		}
		e := *a.Extent
		outline := geojson.NewPolygonFeature(ring(domain.BBox{
			Min: domain.Point{Lat: e.South, Lon: e.West},
			Max: domain.Point{Lat: e.North, Lon: e.East},
		}))
		outline.SetProperty("kind", FeatureHeatmap)
		outline.SetProperty("artifact", a.ID)
		outline.SetProperty("borough", string(a.Borough))
		outline.SetProperty("year", a.Year)
		outline.SetProperty("points", a.Surface.N)
		outline.SetProperty("peak", a.Surface.Max())
		fc.AddFeature(outline)
	}
	return fc
}

// ring is the closed counter-clockwise exterior ring of b in [lon, lat]
// order.
func ring(b domain.BBox) [][][]float64 {
	return [][][]float64{{
		{b.Min.Lon, b.Min.Lat},
		{b.Max.Lon, b.Min.Lat},
		{b.Max.Lon, b.Max.Lat},
		{b.Min.Lon, b.Max.Lat},
		{b.Min.Lon, b.Min.Lat},
	}}
}
