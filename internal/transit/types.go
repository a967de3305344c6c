package transit

import (
	"fmt"

	"sd-transit/internal/geo"
)

type Occupancy string

const (
	OccupancyLow    Occupancy = "low"
	OccupancyMedium Occupancy = "medium"
	OccupancyHigh   Occupancy = "high"
)

func (o Occupancy) Valid() bool {
	switch o {
	case OccupancyLow, OccupancyMedium, OccupancyHigh:
		return true
	}
	return false
}

// Label is the rider-facing Spanish text for the tier.
func (o Occupancy) Label() string {
	switch o {
	case OccupancyLow:
		return "Baja ocupación"
	case OccupancyMedium:
		return "Media ocupación"
	case OccupancyHigh:
		return "Alta ocupación"
	}
	return "Desconocida"
}

// Vehicle is a simulated live bus.
type Vehicle struct {
	ID                      string         `json:"id"`
	RouteLabel              string         `json:"routeLabel"`
	RouteName               string         `json:"routeName"`
	CurrentStop             string         `json:"currentStop"`
	NextStop                string         `json:"nextStop"`
	EstimatedArrivalMinutes int            `json:"etaMinutes"`
	Occupancy               Occupancy      `json:"occupancy"`
	DelayMinutes            int            `json:"delayMinutes"` // negative means ahead of schedule
	Position                geo.Coordinate `json:"position"`
}

// DelayText renders the delay the way the live screen shows it.
func (v Vehicle) DelayText() string {
	switch {
	case v.DelayMinutes > 0:
		return fmt.Sprintf("+%d min retraso", v.DelayMinutes)
	case v.DelayMinutes < 0:
		return fmt.Sprintf("%d min adelantado", -v.DelayMinutes)
	}
	return ""
}

// Leg is one route segment of a trip option.
type Leg struct {
	RouteLabel string `json:"routeLabel"`
	RouteName  string `json:"routeName"`
	From       string `json:"from"`
	To         string `json:"to"`
}

// TripOption is one ranked itinerary suggestion.
type TripOption struct {
	ID                 string  `json:"id"`
	TotalTimeMinutes   int     `json:"totalTimeMinutes"`
	WalkingTimeMinutes int     `json:"walkingTimeMinutes"`
	TransferCount      int     `json:"transferCount"`
	StopCount          int     `json:"stopCount"`
	Legs               []Leg   `json:"legs"`
	CostAmount         int     `json:"costAmount"`
	Currency           string  `json:"currency"`
	DistanceKm         float64 `json:"distanceKm"`
}

// Route is a catalog entry from the route listing.
type Route struct {
	ID        string    `json:"id"`
	Number    string    `json:"number"`
	Name      string    `json:"name"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Stops     int       `json:"stops"`
	Frequency string    `json:"frequency"`
	Rating    float64   `json:"rating"`
	Occupancy Occupancy `json:"occupancy"`
	Price     int       `json:"price"` // RD$
	Zone      string    `json:"zone"`
}

// RoutePath is the polyline of a route, first point the origin.
type RoutePath struct {
	RouteID string           `json:"routeId"`
	Number  string           `json:"number"`
	From    string           `json:"from"`
	To      string           `json:"to"`
	Points  []geo.Coordinate `json:"points"`
}
