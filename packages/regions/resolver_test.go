package regions

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ring(points []orb.Point) orb.Ring {
	return orb.Ring(points)
}

func TestResolveLargestRingWins(t *testing.T) {
	small := ring(square(20, 20, 1))
	large := ring(square(0, 0, 5))

	rp, err := Resolve("Тверская область", []orb.Ring{small, large})
	require.NoError(t, err)

	assert.Equal(t, "Тверская область", rp.Name)
	require.Equal(t, "Polygon", rp.Geometry.Type)
	require.Len(t, rp.Geometry.Coordinates, 1)
	// выбран большой квадрат (0,0)-(5,5)
	assert.Equal(t, []float64{0, 0}, rp.Geometry.Coordinates[0][0])
}

func TestResolveNoValidPolygon(t *testing.T) {
	_, err := Resolve("X", nil)
	assert.ErrorIs(t, err, ErrNoValidPolygon)

	_, err = Resolve("X", []orb.Ring{ring([]orb.Point{{0, 0}, {1, 1}})})
	assert.ErrorIs(t, err, ErrNoValidPolygon)
}

func TestResolveArea(t *testing.T) {
	// градусный квадрат на экваторе: ~111.32 x ~110.57 км
	rp, err := Resolve("X", []orb.Ring{ring(square(0, 0, 1))})
	require.NoError(t, err)
	assert.InDelta(t, 12308, rp.AreaKM2, 150)
}

func TestResolveGeoJSONRingClosed(t *testing.T) {
	open := ring([]orb.Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}})
	rp, err := Resolve("X", []orb.Ring{open})
	require.NoError(t, err)

	coords := rp.Geometry.Coordinates[0]
	require.Len(t, coords, 5)
	assert.Equal(t, coords[0], coords[len(coords)-1])
}

func TestResolvePolygonStrKeepsAllRings(t *testing.T) {
	small := ring(square(20, 30, 1))
	large := ring(square(0, 0, 5))

	rp, err := Resolve("X", []orb.Ring{small, large})
	require.NoError(t, err)

	// все точки обоих колец, в порядке (широта, долгота)
	assert.Len(t, rp.PolygonStr, len(small)+len(large))
	assert.Equal(t, []float64{30, 20}, rp.PolygonStr[0])
}

func TestProjectEqualArea(t *testing.T) {
	origin := projectEqualArea(orb.Point{0, 0})
	assert.InDelta(t, 0, origin[0], 1e-6)
	assert.InDelta(t, 0, origin[1], 1e-6)

	// симметрия по широте
	north := projectEqualArea(orb.Point{0, 45})
	south := projectEqualArea(orb.Point{0, -45})
	assert.InDelta(t, north[1], -south[1], 1e-6)

	// x растет с долготой линейно
	e10 := projectEqualArea(orb.Point{10, 0})
	e20 := projectEqualArea(orb.Point{20, 0})
	assert.InDelta(t, 2*e10[0], e20[0], 1e-3)
}
