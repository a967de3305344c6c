package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sd-transit/internal/geo"
	"sd-transit/internal/planner"
	"sd-transit/internal/sim"
	"sd-transit/internal/traffic"
	"sd-transit/internal/transit"
)

func (h *handler) listRoutes(c *gin.Context) {
	routes := h.catalog.Search(c.Query("q"), c.Query("zone"))
	c.JSON(http.StatusOK, gin.H{"routes": routes, "count": len(routes)})
}

func (h *handler) getRoute(c *gin.Context) {
	r, err := h.catalog.ByID(c.Param("id"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *handler) getRoutePath(c *gin.Context) {
	p, err := h.catalog.Path(c.Param("id"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *handler) schedule(c *gin.Context) {
	now := h.clock.Now().In(h.loc)
	c.JSON(http.StatusOK, gin.H{
		"hours":     transit.OperatingHours(),
		"today":     transit.WindowFor(now.Weekday()),
		"inService": transit.InService(now),
		"now":       now,
	})
}

func (h *handler) listVehicles(c *gin.Context) {
	c.JSON(http.StatusOK, h.fleet.Snapshot())
}

func (h *handler) getVehicle(c *gin.Context) {
	v, err := h.fleet.Vehicle(c.Param("id"))
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// liveStream sends the current snapshot as a server-sent event, then every
// new one until the client goes away. Slow clients only see the newest.
func (h *handler) liveStream(c *gin.Context) {
	updates := make(chan sim.Snapshot, 1)
	unsubscribe := h.fleet.Subscribe(func(s sim.Snapshot) {
		for {
			select {
			case updates <- s:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.SSEvent("snapshot", h.fleet.Snapshot())
	c.Writer.Flush()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case s := <-updates:
			c.SSEvent("snapshot", s)
			c.Writer.Flush()
		}
	}
}

func (h *handler) currentTraffic(c *gin.Context) {
	c.JSON(http.StatusOK, h.traffic.Current())
}

func (h *handler) trafficForHour(c *gin.Context) {
	hour, err := strconv.Atoi(c.Param("hour"))
	if err != nil || hour < 0 || hour > 23 {
		badRequest(c, msgInvalidHour)
		return
	}
	c.JSON(http.StatusOK, traffic.SnapshotForHour(hour))
}

type planRequest struct {
	Origin                string          `json:"origin"`
	Destination           string          `json:"destination"`
	OriginCoordinate      *geo.Coordinate `json:"originCoordinate"`
	DestinationCoordinate *geo.Coordinate `json:"destinationCoordinate"`
}

func (h *handler) planTrip(c *gin.Context) {
	var req planRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, msgInvalidTrip)
		return
	}
	origin := planner.Place{Label: req.Origin, Coordinate: req.OriginCoordinate}
	dest := planner.Place{Label: req.Destination, Coordinate: req.DestinationCoordinate}
	if err := planner.Validate(origin, dest); err != nil {
		h.abortWithError(c, err)
		return
	}
	d := planner.Distance(origin, dest)
	if h.metrics != nil {
		h.metrics.TripPlanned()
	}
	c.JSON(http.StatusOK, gin.H{
		"distanceKm": d,
		"options":    planner.Estimate(d, req.Origin, req.Destination),
	})
}
