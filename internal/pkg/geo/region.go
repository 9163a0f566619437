package geo

import (
	"sort"

	"github.com/paulmach/orb"
)

// Region - код автономного сообщества Испании
type Region string

const (
	RegionAndalucia        Region = "andalucia"
	RegionAragon           Region = "aragon"
	RegionAsturias         Region = "asturias"
	RegionBaleares         Region = "baleares"
	RegionCanarias         Region = "canarias"
	RegionCantabria        Region = "cantabria"
	RegionCastillaLaMancha Region = "castilla_la_mancha"
	RegionCastillaYLeon    Region = "castilla_y_leon"
	RegionCataluna         Region = "cataluna"
	RegionExtremadura      Region = "extremadura"
	RegionGalicia          Region = "galicia"
	RegionLaRioja          Region = "la_rioja"
	RegionMadrid           Region = "madrid"
	RegionMurcia           Region = "murcia"
	RegionNavarra          Region = "navarra"
	RegionPaisVasco        Region = "pais_vasco"
	RegionValenciana       Region = "valenciana"
)

// RegionInfo - код, отображаемое имя и прямоугольные границы региона
type RegionInfo struct {
	Code   Region    `json:"code"`
	Name   string    `json:"name"`
	Bounds orb.Bound `json:"-"`
}

func bound(minLat, maxLat, minLon, maxLon float64) orb.Bound {
	return orb.Bound{Min: orb.Point{minLon, minLat}, Max: orb.Point{maxLon, maxLat}}
}

// regions в алфавитном порядке кодов; приоритет проверки задаётся в byPriority
var regions = []RegionInfo{
	{RegionAndalucia, "Andalucía", bound(36.0, 38.8, -7.5, -1.6)},
	{RegionAragon, "Aragón", bound(39.8, 42.9, -2.2, 0.8)},
	{RegionAsturias, "Asturias", bound(42.9, 43.7, -7.2, -4.5)},
	{RegionBaleares, "Islas Baleares", bound(38.6, 40.1, 1.2, 4.4)},
	{RegionCanarias, "Canarias", bound(27.6, 29.5, -18.2, -13.3)},
	{RegionCantabria, "Cantabria", bound(42.8, 43.5, -4.9, -3.1)},
	{RegionCastillaLaMancha, "Castilla-La Mancha", bound(38.4, 41.2, -5.4, -0.9)},
	{RegionCastillaYLeon, "Castilla y León", bound(40.1, 43.2, -7.1, -1.8)},
	{RegionCataluna, "Cataluña", bound(40.5, 42.9, 0.2, 3.3)},
	{RegionExtremadura, "Extremadura", bound(38.0, 40.5, -7.5, -4.6)},
	{RegionGalicia, "Galicia", bound(41.8, 43.8, -9.3, -6.7)},
	{RegionLaRioja, "La Rioja", bound(41.9, 42.6, -3.1, -1.7)},
	{RegionMadrid, "Madrid", bound(39.9, 41.2, -4.6, -3.1)},
	{RegionMurcia, "Murcia", bound(37.4, 38.8, -2.4, -0.6)},
	{RegionNavarra, "Navarra", bound(41.9, 43.3, -2.5, -0.7)},
	{RegionPaisVasco, "País Vasco", bound(42.4, 43.5, -3.5, -1.7)},
	{RegionValenciana, "C. Valenciana", bound(37.8, 40.8, -1.5, 0.6)},
}

// byPriority - порядок проверки при пересечении прямоугольников:
// сначала меньшие по площади (более специфичные), при равенстве - по коду.
var byPriority = func() []RegionInfo {
	out := make([]RegionInfo, len(regions))
	copy(out, regions)
	sort.SliceStable(out, func(i, j int) bool {
		ai, aj := area(out[i].Bounds), area(out[j].Bounds)
		if ai != aj {
			return ai < aj
		}
		return out[i].Code < out[j].Code
	})
	return out
}()

func area(b orb.Bound) float64 {
	return (b.Max[0] - b.Min[0]) * (b.Max[1] - b.Min[1])
}

// RegionFromCoordinates определяет регион по координатам.
// Прямоугольники неполные и пересекаются: побеждает первый в порядке приоритета.
func RegionFromCoordinates(lat, lon float64) (Region, bool) {
	p := orb.Point{lon, lat}
	for _, r := range byPriority {
		if r.Bounds.Contains(p) {
			return r.Code, true
		}
	}
	return "", false
}

// Regions возвращает все регионы в алфавитном порядке кодов
func Regions() []RegionInfo {
	out := make([]RegionInfo, len(regions))
	copy(out, regions)
	return out
}

// IsValidRegion проверяет код региона
func IsValidRegion(code string) bool {
	for _, r := range regions {
		if string(r.Code) == code {
			return true
		}
	}
	return false
}

// RegionName возвращает отображаемое имя региона или сам код
func RegionName(code Region) string {
	for _, r := range regions {
		if r.Code == code {
			return r.Name
		}
	}
	return string(code)
}

// RegionBounds возвращает границы региона как BoundingBox
func RegionBounds(code Region) (BoundingBox, bool) {
	for _, r := range regions {
		if r.Code == code {
			return BoundingBox{
				MinLat: r.Bounds.Min[1],
				MaxLat: r.Bounds.Max[1],
				MinLon: r.Bounds.Min[0],
				MaxLon: r.Bounds.Max[0],
			}, true
		}
	}
	return BoundingBox{}, false
}
