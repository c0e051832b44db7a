package regions

import (
	"errors"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// ErrNoValidPolygon — у региона не нашлось ни одного пригодного
// кольца; такой регион пропускается, остальная загрузка продолжается
var ErrNoValidPolygon = errors.New("region has no valid polygons")

// Geometry — GeoJSON-полигон в том виде, в котором он хранится в
// MongoDB (SRID 4326, порядок координат долгота-широта)
type Geometry struct {
	Type        string        `bson:"type" json:"type"`
	Coordinates [][][]float64 `bson:"coordinates" json:"coordinates"`
}

// RegionPolygon — регион с вычисленной площадью и геометрией.
// В базе регион уникален по имени (upsert по name).
type RegionPolygon struct {
	Name     string   `bson:"name" json:"name"`
	AreaKM2  int      `bson:"area" json:"area"`
	Geometry Geometry `bson:"geometry" json:"geometry"`
	// Дублирующее представление для отображения: пары (широта,
	// долгота) всех исходных колец региона, не только выбранного
	PolygonStr [][]float64 `bson:"geopolygon_str" json:"geopolygon_str"`
}

// Resolve сводит накопленные кольца региона к одному полигону:
// побеждает кольцо с наибольшей площадью (острова и анклавы из
// основной геометрии теряются — известное упрощение), площадь
// считается в равновеликой проекции EPSG:6933.
func Resolve(name string, rings []orb.Ring) (*RegionPolygon, error) {
	var best orb.Ring
	bestArea := -1.0
	for _, ring := range rings {
		if len(ring) < 3 {
			continue
		}
		area := math.Abs(planar.Area(closed(ring)))
		if area > bestArea {
			bestArea = area
			best = ring
		}
	}
	if best == nil {
		return nil, ErrNoValidPolygon
	}

	areaM2 := math.Abs(planar.Area(projectRing(closed(best))))

	rp := &RegionPolygon{
		Name:     name,
		AreaKM2:  int(areaM2 / 1_000_000),
		Geometry: ringGeometry(best),
	}

	for _, ring := range rings {
		for _, p := range ring {
			rp.PolygonStr = append(rp.PolygonStr, []float64{p[1], p[0]})
		}
	}
	return rp, nil
}

// closed возвращает кольцо с совпадающими первой и последней точками
func closed(ring orb.Ring) orb.Ring {
	if len(ring) == 0 || ring[0] == ring[len(ring)-1] {
		return ring
	}
	out := make(orb.Ring, 0, len(ring)+1)
	out = append(out, ring...)
	return append(out, ring[0])
}

// ringGeometry строит замкнутый GeoJSON-полигон из кольца
func ringGeometry(ring orb.Ring) Geometry {
	coords := make([][]float64, 0, len(ring)+1)
	for _, p := range ring {
		coords = append(coords, []float64{p[0], p[1]})
	}
	if len(coords) > 0 {
		first, last := coords[0], coords[len(coords)-1]
		if first[0] != last[0] || first[1] != last[1] {
			coords = append(coords, []float64{first[0], first[1]})
		}
	}
	return Geometry{Type: "Polygon", Coordinates: [][][]float64{coords}}
}
