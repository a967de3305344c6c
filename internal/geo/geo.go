package geo

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const earthRadiusKm = 6371.0

// Coordinate is a WGS84 point in decimal degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DistanceKm returns the great-circle distance between a and b using the
// haversine formula.
func DistanceKm(a, b Coordinate) float64 {
	if a == b {
		return 0
	}
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(b.Latitude - a.Latitude)
	dLon := toRad(b.Longitude - a.Longitude)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(toRad(a.Latitude))*math.Cos(toRad(b.Latitude))*math.Sin(dLon/2)*math.Sin(dLon/2)
	// rounding can push h a hair past 1 for antipodal points
	h = math.Min(1, math.Max(0, h))
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}

var decimalRe = regexp.MustCompile(`-?\d+\.\d+`)

// ParseCoordinate extracts "lat, lng" from free text such as
// "Mi ubicación (18.4861, -69.9312)". Only decimal numbers are considered.
func ParseCoordinate(s string) (Coordinate, bool) {
	m := decimalRe.FindAllString(s, 2)
	if len(m) < 2 {
		return Coordinate{}, false
	}
	lat, err := strconv.ParseFloat(m[0], 64)
	if err != nil {
		return Coordinate{}, false
	}
	lng, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return Coordinate{}, false
	}
	return Coordinate{Latitude: lat, Longitude: lng}, true
}

// DistanceBetween parses both labels and returns their distance in km.
// An unparseable label yields 0.
func DistanceBetween(a, b string) float64 {
	ca, ok := ParseCoordinate(a)
	if !ok {
		return 0
	}
	cb, ok := ParseCoordinate(b)
	if !ok {
		return 0
	}
	return DistanceKm(ca, cb)
}

// BoundingBox is a latitude/longitude rectangle.
type BoundingBox struct {
	MinLat float64 `json:"minLat"`
	MaxLat float64 `json:"maxLat"`
	MinLng float64 `json:"minLng"`
	MaxLng float64 `json:"maxLng"`
}

func (b BoundingBox) Contains(c Coordinate) bool {
	return c.Latitude >= b.MinLat && c.Latitude <= b.MaxLat &&
		c.Longitude >= b.MinLng && c.Longitude <= b.MaxLng
}

// Clamp pulls each axis of c into the box independently.
func (b BoundingBox) Clamp(c Coordinate) Coordinate {
	return Coordinate{
		Latitude:  clamp(c.Latitude, b.MinLat, b.MaxLat),
		Longitude: clamp(c.Longitude, b.MinLng, b.MaxLng),
	}
}

func (b BoundingBox) Valid() bool {
	return b.MinLat <= b.MaxLat && b.MinLng <= b.MaxLng &&
		b.MinLat >= -90 && b.MaxLat <= 90 && b.MinLng >= -180 && b.MaxLng <= 180
}

// ParseBoundingBox reads "minLat,minLng,maxLat,maxLng".
func ParseBoundingBox(s string) (BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BoundingBox{}, fmt.Errorf("bounding box needs 4 values, got %d", len(parts))
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BoundingBox{}, fmt.Errorf("bounding box value %d: %w", i, err)
		}
		v[i] = f
	}
	b := BoundingBox{MinLat: v[0], MinLng: v[1], MaxLat: v[2], MaxLng: v[3]}
	if !b.Valid() {
		return BoundingBox{}, fmt.Errorf("bounding box out of range: %q", s)
	}
	return b, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
