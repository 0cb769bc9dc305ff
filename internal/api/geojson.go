package api

import (
	"github.com/mr1hm/airsense/internal/models"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// toGeoJSON turns anomaly map points into a FeatureCollection a map client
// can render directly. Flagged points get a red marker, the rest blue.
func toGeoJSON(points []models.AnomalyPoint, onlyAnomalies bool) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, p := range points {
		if onlyAnomalies && !p.IsAnomaly {
			continue
		}
		color := "blue"
		if p.IsAnomaly {
			color = "red"
		}

		f := geojson.NewFeature(orb.Point{p.Longitude, p.Latitude})
		f.Properties["city"] = p.City
		f.Properties["pollution_index"] = p.PollutionIndex
		f.Properties["is_anomaly"] = p.IsAnomaly
		f.Properties["marker_color"] = color
		fc.Append(f)
	}

	return fc
}
