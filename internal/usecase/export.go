package usecase

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/siempreabierto/internal/pkg/geo"
)

// featureCollection собирает GeoJSON FeatureCollection из точечных записей
func featureCollection[T geo.Locatable](items []T, id func(T) int64, props func(T) geojson.Properties) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, it := range items {
		lat, lon := it.Coordinates()
		f := geojson.NewFeature(orb.Point{lon, lat})
		f.ID = id(it)
		f.Properties = props(it)
		fc.Append(f)
	}
	return fc
}
