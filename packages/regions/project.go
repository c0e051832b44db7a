package regions

import (
	"math"

	"github.com/paulmach/orb"
)

// Прямое преобразование EPSG:4326 -> EPSG:6933 (равновеликая
// цилиндрическая проекция на эллипсоиде WGS84, стандартная параллель
// 30°). Используется только для вычисления площади региона в метрах.
const (
	wgs84A  = 6378137.0
	wgs84E2 = 0.00669437999014
)

var (
	wgs84E = math.Sqrt(wgs84E2)

	// Масштабный коэффициент по стандартной параллели
	sinPhi1 = math.Sin(30 * math.Pi / 180)
	k0      = math.Cos(30*math.Pi/180) / math.Sqrt(1-wgs84E2*sinPhi1*sinPhi1)
)

func projectEqualArea(p orb.Point) orb.Point {
	lonRad := p[0] * math.Pi / 180
	latRad := p[1] * math.Pi / 180

	sinPhi := math.Sin(latRad)
	q := (1 - wgs84E2) * (sinPhi/(1-wgs84E2*sinPhi*sinPhi) -
		(1/(2*wgs84E))*math.Log((1-wgs84E*sinPhi)/(1+wgs84E*sinPhi)))

	x := wgs84A * k0 * lonRad
	y := wgs84A * q / (2 * k0)
	return orb.Point{x, y}
}

func projectRing(ring orb.Ring) orb.Ring {
	out := make(orb.Ring, len(ring))
	for i, p := range ring {
		out[i] = projectEqualArea(p)
	}
	return out
}
