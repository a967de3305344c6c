package transit

import (
	"errors"
	"strings"

	"sd-transit/internal/geo"
)

var (
	ErrRouteNotFound = errors.New("route not found")
	ErrPathNotFound  = errors.New("route path not found")
)

// Catalog is a read-only, in-memory route listing.
type Catalog struct {
	routes []Route
	byID   map[string]int
	paths  map[string][]geo.Coordinate
}

// NewCatalog indexes routes by id. paths maps a route id to the points
// drawn by the follow-route view and may be nil.
func NewCatalog(routes []Route, paths map[string][]geo.Coordinate) *Catalog {
	c := &Catalog{
		routes: append([]Route(nil), routes...),
		byID:   make(map[string]int, len(routes)),
		paths:  make(map[string][]geo.Coordinate, len(paths)),
	}
	for i, r := range c.routes {
		c.byID[r.ID] = i
	}
	for id, pts := range paths {
		if len(pts) > 0 {
			c.paths[id] = append([]geo.Coordinate(nil), pts...)
		}
	}
	return c
}

// DefaultCatalog returns the Santo Domingo routes shown by the app.
func DefaultCatalog() *Catalog { return NewCatalog(defaultRoutes, defaultPaths) }

func (c *Catalog) All() []Route {
	return append([]Route(nil), c.routes...)
}

func (c *Catalog) ByID(id string) (Route, error) {
	i, ok := c.byID[id]
	if !ok {
		return Route{}, ErrRouteNotFound
	}
	return c.routes[i], nil
}

func (c *Catalog) ByNumber(number string) (Route, error) {
	for _, r := range c.routes {
		if strings.EqualFold(r.Number, number) {
			return r, nil
		}
	}
	return Route{}, ErrRouteNotFound
}

// Path returns the points to follow for route id. Unknown routes return
// ErrRouteNotFound; known routes without a drawn path return ErrPathNotFound.
func (c *Catalog) Path(id string) (RoutePath, error) {
	r, err := c.ByID(id)
	if err != nil {
		return RoutePath{}, err
	}
	pts, ok := c.paths[id]
	if !ok {
		return RoutePath{}, ErrPathNotFound
	}
	return RoutePath{
		RouteID: r.ID,
		Number:  r.Number,
		From:    r.From,
		To:      r.To,
		Points:  append([]geo.Coordinate(nil), pts...),
	}, nil
}

// Search matches query case-insensitively against name, number, origin and
// destination. An empty zone or "all" matches every zone.
func (c *Catalog) Search(query, zone string) []Route {
	q := strings.ToLower(strings.TrimSpace(query))
	zone = strings.ToLower(strings.TrimSpace(zone))
	out := make([]Route, 0, len(c.routes))
	for _, r := range c.routes {
		if zone != "" && zone != "all" && r.Zone != zone {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(r.Name), q) &&
			!strings.Contains(strings.ToLower(r.Number), q) &&
			!strings.Contains(strings.ToLower(r.From), q) &&
			!strings.Contains(strings.ToLower(r.To), q) {
			continue
		}
		out = append(out, r)
	}
	return out
}

var defaultRoutes = []Route{
	{ID: "1", Number: "A1", Name: "Expreso Kennedy", From: "Centro de los Héroes", To: "Av. Kennedy", Stops: 15, Frequency: "10-15 min", Rating: 4.5, Occupancy: OccupancyMedium, Price: 25, Zone: "centro"},
	{ID: "2", Number: "B3", Name: "Metro Norte", From: "Plaza de la Cultura", To: "Villa Mella", Stops: 22, Frequency: "8-12 min", Rating: 4.2, Occupancy: OccupancyHigh, Price: 30, Zone: "norte"},
	{ID: "3", Number: "C7", Name: "Corredor Sur", From: "Zona Colonial", To: "Los Alcarrizos", Stops: 18, Frequency: "15-20 min", Rating: 4.0, Occupancy: OccupancyLow, Price: 35, Zone: "sur"},
	{ID: "4", Number: "D2", Name: "Ruta Este", From: "Piantini", To: "Boca Chica", Stops: 25, Frequency: "20-25 min", Rating: 3.8, Occupancy: OccupancyMedium, Price: 40, Zone: "este"},
	{ID: "5", Number: "E5", Name: "Circuito Centro", From: "Catedral", To: "Malecón", Stops: 12, Frequency: "5-10 min", Rating: 4.3, Occupancy: OccupancyHigh, Price: 20, Zone: "centro"},
	{ID: "6", Number: "C6", Name: "Los Alcarrizos", From: "Los Alcarrizos", To: "Puerto Haina Oriental", Stops: 8, Frequency: "30 min", Rating: 4.1, Occupancy: OccupancyHigh, Price: 15, Zone: "oeste"},
	{ID: "7", Number: "C2", Name: "27 de Febrero / Hipódromo", From: "Av. 27 de Febrero (Induveca)", To: "Hipódromo V Centenario", Stops: 9, Frequency: "30 min en días laborables", Rating: 4.0, Occupancy: OccupancyMedium, Price: 15, Zone: "centro-sur"},
	{ID: "8", Number: "C4", Name: "Kennedy Km 9½", From: "Aut. Duarte Prox. C/1ra", To: "Carr. Mella Km 9½", Stops: 16, Frequency: "30 min", Rating: 4.0, Occupancy: OccupancyMedium, Price: 15, Zone: "norte"},
	{ID: "9", Number: "C14", Name: "Naco", From: "Km 9½ Aut. Duarte", To: "Av. Núñez de Cáceres (Naco)", Stops: 10, Frequency: "30 min", Rating: 3.5, Occupancy: OccupancyMedium, Price: 15, Zone: "norte-centro"},
	{ID: "10", Number: "C33", Name: "Bolívar / Independencia", From: "Puerto Haina Oriental", To: "Parque Independencia", Stops: 72, Frequency: "30 min", Rating: 5.0, Occupancy: OccupancyHigh, Price: 15, Zone: "centro"},
	{ID: "11", Number: "C11", Name: "Independencia / Hipódromo", From: "Puerto Haina Oriental", To: "Hipódromo V Centenario", Stops: 16, Frequency: "30 min", Rating: 4.0, Occupancy: OccupancyMedium, Price: 15, Zone: "centro-sur"},
	{ID: "12", Number: "C1", Name: "Las Caobas", From: "Las Caobas", To: "centro de Santo Domingo", Stops: 12, Frequency: "30 min", Rating: 4.6, Occupancy: OccupancyMedium, Price: 15, Zone: "oeste"},
}

// defaultPaths runs from the route origin to its destination.
var defaultPaths = map[string][]geo.Coordinate{
	"1": {{Latitude: 18.4716, Longitude: -69.9392}, {Latitude: 18.4801, Longitude: -69.9422}},
	"2": {{Latitude: 18.4861, Longitude: -69.9312}, {Latitude: 18.5100, Longitude: -69.8567}},
	"3": {{Latitude: 18.4735, Longitude: -69.8836}, {Latitude: 18.4880, Longitude: -69.9700}, {Latitude: 18.5167, Longitude: -70.0100}},
	"4": {{Latitude: 18.4735, Longitude: -69.9380}, {Latitude: 18.4560, Longitude: -69.7800}, {Latitude: 18.4510, Longitude: -69.6060}},
	"5": {{Latitude: 18.4729, Longitude: -69.8843}, {Latitude: 18.4660, Longitude: -69.8890}, {Latitude: 18.4600, Longitude: -69.8950}},
}

// SeedFleet returns a fresh copy of the buses the live screen starts with.
func SeedFleet() []Vehicle {
	return []Vehicle{
		{ID: "1", RouteLabel: "A1", RouteName: "Expreso Kennedy", CurrentStop: "Plaza de la Cultura", NextStop: "Centro de los Héroes", EstimatedArrivalMinutes: 3, Occupancy: OccupancyMedium, DelayMinutes: 0, Position: geo.Coordinate{Latitude: 18.4727, Longitude: -69.9114}},
		{ID: "2", RouteLabel: "B3", RouteName: "Metro Norte", CurrentStop: "Malecón", NextStop: "Av. Máximo Gómez", EstimatedArrivalMinutes: 7, Occupancy: OccupancyHigh, DelayMinutes: 2, Position: geo.Coordinate{Latitude: 18.4593, Longitude: -69.9145}},
		{ID: "3", RouteLabel: "C7", RouteName: "Corredor Sur", CurrentStop: "Zona Colonial", NextStop: "Parque Independencia", EstimatedArrivalMinutes: 5, Occupancy: OccupancyLow, DelayMinutes: -1, Position: geo.Coordinate{Latitude: 18.4735, Longitude: -69.8836}},
		{ID: "4", RouteLabel: "D2", RouteName: "Ruta Este", CurrentStop: "Piantini", NextStop: "Av. Abraham Lincoln", EstimatedArrivalMinutes: 12, Occupancy: OccupancyMedium, DelayMinutes: 3, Position: geo.Coordinate{Latitude: 18.4735, Longitude: -69.9380}},
		{ID: "5", RouteLabel: "E5", RouteName: "Circuito Centro", CurrentStop: "Catedral", NextStop: "Parque Central", EstimatedArrivalMinutes: 2, Occupancy: OccupancyHigh, DelayMinutes: 0, Position: geo.Coordinate{Latitude: 18.4729, Longitude: -69.8843}},
	}
}
