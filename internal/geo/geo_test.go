package geo

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var plazaCultura = Coordinate{Latitude: 18.4861, Longitude: -69.9312}

func TestDistanceKm_SamePointIsZero(t *testing.T) {
	assert.Equal(t, 0.0, DistanceKm(plazaCultura, plazaCultura))
}

func TestDistanceKm_Symmetric(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 200; i++ {
		a := Coordinate{Latitude: r.Float64()*180 - 90, Longitude: r.Float64()*360 - 180}
		b := Coordinate{Latitude: r.Float64()*180 - 90, Longitude: r.Float64()*360 - 180}
		d1 := DistanceKm(a, b)
		assert.Equal(t, d1, DistanceKm(b, a))
		assert.GreaterOrEqual(t, d1, 0.0)
	}
}

func TestDistanceKm_KnownPair(t *testing.T) {
	// Plaza de la Cultura to Villa Mella, roughly 8.4 km
	villaMella := Coordinate{Latitude: 18.5100, Longitude: -69.8567}
	assert.InDelta(t, 8.3, DistanceKm(plazaCultura, villaMella), 0.3)
}

func TestParseCoordinate(t *testing.T) {
	c, ok := ParseCoordinate("Mi ubicación (18.4861, -69.9312)")
	require.True(t, ok)
	assert.Equal(t, plazaCultura, c)

	_, ok = ParseCoordinate("Zona Colonial")
	assert.False(t, ok)

	_, ok = ParseCoordinate("(18.4861, -69)")
	assert.False(t, ok, "integers are not accepted")
}

func TestDistanceBetween_UnparseableIsZero(t *testing.T) {
	assert.Equal(t, 0.0, DistanceBetween("Catedral", "(18.4861, -69.9312)"))
	assert.Equal(t, 0.0, DistanceBetween("(18.4861, -69.9312)", ""))
	assert.Greater(t, DistanceBetween("(18.4716, -69.9392)", "(18.4801, -69.9422)"), 0.0)
}

func TestBoundingBox_Clamp(t *testing.T) {
	b := BoundingBox{MinLat: 18.40, MaxLat: 18.56, MinLng: -70.05, MaxLng: -69.80}

	assert.Equal(t, plazaCultura, b.Clamp(plazaCultura))
	assert.Equal(t, Coordinate{Latitude: 18.56, Longitude: -70.05}, b.Clamp(Coordinate{Latitude: 19, Longitude: -71}))
	assert.Equal(t, Coordinate{Latitude: 18.40, Longitude: -69.80}, b.Clamp(Coordinate{Latitude: 18, Longitude: -69}))
	assert.True(t, b.Contains(b.Clamp(Coordinate{Latitude: -5, Longitude: 100})))
}

func TestParseBoundingBox(t *testing.T) {
	b, err := ParseBoundingBox("18.40, -70.05, 18.56, -69.80")
	require.NoError(t, err)
	assert.Equal(t, BoundingBox{MinLat: 18.40, MaxLat: 18.56, MinLng: -70.05, MaxLng: -69.80}, b)

	_, err = ParseBoundingBox("18.40,-70.05,18.56")
	assert.Error(t, err)

	_, err = ParseBoundingBox("18.56,-70.05,18.40,-69.80")
	assert.Error(t, err, "min above max")

	_, err = ParseBoundingBox("a,b,c,d")
	assert.Error(t, err)
}
