package planner

import (
	"errors"
	"math"
	"strings"

	"sd-transit/internal/geo"
	"sd-transit/internal/transit"
)

var (
	ErrMissingEndpoint = errors.New("origin and destination are required")
	ErrSameEndpoints   = errors.New("origin and destination must differ")
)

const (
	baseTime  = 20
	baseWalk  = 5
	baseStops = 8
	baseCost  = 30
	currency  = "RD$"
)

// Place is a trip endpoint. Coordinate may be nil, in which case it is
// parsed from Label when needed.
type Place struct {
	Label      string          `json:"label"`
	Coordinate *geo.Coordinate `json:"coordinate,omitempty"`
}

func (p Place) coordinate() (geo.Coordinate, bool) {
	if p.Coordinate != nil {
		return *p.Coordinate, true
	}
	return geo.ParseCoordinate(p.Label)
}

// Validate rejects requests the estimator must never see. When both
// endpoints resolve to a coordinate the coordinates decide; labels are only
// compared when neither does.
func Validate(origin, destination Place) error {
	o := strings.TrimSpace(origin.Label)
	d := strings.TrimSpace(destination.Label)
	if (o == "" && origin.Coordinate == nil) || (d == "" && destination.Coordinate == nil) {
		return ErrMissingEndpoint
	}
	oc, ok1 := origin.coordinate()
	dc, ok2 := destination.coordinate()
	switch {
	case ok1 && ok2:
		if oc == dc {
			return ErrSameEndpoints
		}
	case !ok1 && !ok2:
		if o == d {
			return ErrSameEndpoints
		}
	}
	return nil
}

// Distance returns the endpoint distance rounded to 0.1 km, or 0 when either
// endpoint has no usable coordinate.
func Distance(origin, destination Place) float64 {
	a, ok := origin.coordinate()
	if !ok {
		return 0
	}
	b, ok := destination.coordinate()
	if !ok {
		return 0
	}
	return math.Round(geo.DistanceKm(a, b)*10) / 10
}

// EstimateTrips ranks trip options between two places.
func EstimateTrips(origin, destination Place) []transit.TripOption {
	return Estimate(Distance(origin, destination), origin.Label, destination.Label)
}

// Estimate builds the ranked options for a known distance. Option 2 is the
// slower alternate and is never better than option 1 on time, cost or
// transfers.
func Estimate(distanceKm float64, from, to string) []transit.TripOption {
	t, walk, transfers, stops, cost := baseTime, baseWalk, 0, baseStops, baseCost
	if distanceKm > 0 {
		t += round(distanceKm * 2.5)
		walk += round(distanceKm * 0.5)
		switch {
		case distanceKm > 10:
			transfers = 2
		case distanceKm > 5:
			transfers = 1
		}
		stops += round(distanceKm * 1.5)
		cost += round(distanceKm * 2.5)
	}

	return []transit.TripOption{
		{
			ID:                 "1",
			TotalTimeMinutes:   t,
			WalkingTimeMinutes: walk,
			TransferCount:      transfers,
			StopCount:          stops,
			Legs:               []transit.Leg{{RouteLabel: "A1", RouteName: "Expreso Kennedy", From: from, To: to}},
			CostAmount:         cost,
			Currency:           currency,
			DistanceKm:         distanceKm,
		},
		{
			ID:                 "2",
			TotalTimeMinutes:   t + 10,
			WalkingTimeMinutes: walk + 3,
			TransferCount:      transfers + 1,
			StopCount:          stops,
			Legs:               []transit.Leg{{RouteLabel: "B3", RouteName: "Metro Norte", From: from, To: to}},
			CostAmount:         cost + 10,
			Currency:           currency,
			DistanceKm:         distanceKm,
		},
	}
}

// round is half away from zero, matching Math.round for the positive
// values used here.
func round(v float64) int { return int(math.Round(v)) }
