package coordinates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	t.Run("degrees minutes seconds", func(t *testing.T) {
		pt := Decode("550630N0373030E")
		require.NotNil(t, pt)
		assert.InDelta(t, 55.1083, pt.Lat, 1e-4)
		assert.InDelta(t, 37.5083, pt.Lon, 1e-4)
	})

	t.Run("degrees minutes", func(t *testing.T) {
		pt := Decode("5530N03730E")
		require.NotNil(t, pt)
		assert.InDelta(t, 55.5, pt.Lat, 1e-9)
		assert.InDelta(t, 37.5, pt.Lon, 1e-9)
	})

	t.Run("cyrillic direction letters", func(t *testing.T) {
		pt := Decode("5506С03730В")
		require.NotNil(t, pt)
		assert.InDelta(t, 55.1, pt.Lat, 1e-9)
		assert.InDelta(t, 37.5, pt.Lon, 1e-9)
	})

	t.Run("southern and western hemispheres", func(t *testing.T) {
		pt := Decode("1030S03730W")
		require.NotNil(t, pt)
		assert.InDelta(t, -10.5, pt.Lat, 1e-9)
		assert.InDelta(t, -37.5, pt.Lon, 1e-9)
	})

	t.Run("degree and minute separators", func(t *testing.T) {
		pt := Decode(`55°06'N 037°30'E`)
		require.NotNil(t, pt)
		assert.InDelta(t, 55.1, pt.Lat, 1e-9)
		assert.InDelta(t, 37.5, pt.Lon, 1e-9)
	})

	t.Run("decimal minutes", func(t *testing.T) {
		pt := Decode("5506.5N03730.25E")
		require.NotNil(t, pt)
		assert.InDelta(t, 55.0+6.5/60, pt.Lat, 1e-9)
		assert.InDelta(t, 37.0+30.25/60, pt.Lon, 1e-9)
	})

	t.Run("missing longitude letter", func(t *testing.T) {
		assert.Nil(t, Decode("0103000S"))
	})

	t.Run("missing latitude letter", func(t *testing.T) {
		assert.Nil(t, Decode("0373030E"))
	})

	t.Run("garbage never raises", func(t *testing.T) {
		for _, token := range []string{
			"",
			"N",
			"NE",
			"ABCN123E",
			"55N37E",
			"9999N03730E", // широта вне диапазона
		} {
			assert.Nil(t, Decode(token), "token %q", token)
		}
	})

	t.Run("pure function", func(t *testing.T) {
		a := Decode("550630N0373030E")
		b := Decode("550630N0373030E")
		require.NotNil(t, a)
		require.NotNil(t, b)
		assert.Equal(t, *a, *b)
	})
}

func TestTokenRoundTrip(t *testing.T) {
	points := []GeoPoint{
		{Lat: 55.10833333, Lon: 37.50833333},
		{Lat: -10.5, Lon: -37.5},
		{Lat: 0.25, Lon: 179.75},
	}

	for _, p := range points {
		decoded := Decode(p.Token())
		require.NotNil(t, decoded, "token %q", p.Token())
		assert.InDelta(t, p.Lat, decoded.Lat, 1.0/60, "token %q", p.Token())
		assert.InDelta(t, p.Lon, decoded.Lon, 1.0/60, "token %q", p.Token())
	}
}
