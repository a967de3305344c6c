package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"sd-transit/internal/auth"
	"sd-transit/internal/sim"
	"sd-transit/internal/traffic"
	"sd-transit/internal/transit"
)

// Fleet is the read side of the live simulator.
type Fleet interface {
	Snapshot() sim.Snapshot
	Vehicle(id string) (transit.Vehicle, error)
	Subscribe(fn func(sim.Snapshot)) (unsubscribe func())
}

type TrafficSource interface {
	Current() traffic.Snapshot
}

type Metrics interface {
	AuthObserve(endpoint, outcome string)
	TripPlanned()
}

type Deps struct {
	Auth    *auth.Service
	Catalog *transit.Catalog
	Fleet   Fleet
	Traffic TrafficSource
	Metrics Metrics
	Logger  logrus.FieldLogger

	// Clock and Location decide whether buses are in service. They default
	// to the real clock and time.Local.
	Clock    clockwork.Clock
	Location *time.Location
}

type handler struct {
	auth    *auth.Service
	catalog *transit.Catalog
	fleet   Fleet
	traffic TrafficSource
	metrics Metrics
	log     logrus.FieldLogger
	clock   clockwork.Clock
	loc     *time.Location
}

// NewRouter builds the gin engine serving the public API.
func NewRouter(d Deps) *gin.Engine {
	log := d.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	if d.Catalog == nil {
		d.Catalog = transit.DefaultCatalog()
	}
	if d.Clock == nil {
		d.Clock = clockwork.NewRealClock()
	}
	if d.Location == nil {
		d.Location = time.Local
	}
	h := &handler{
		auth:    d.Auth,
		catalog: d.Catalog,
		fleet:   d.Fleet,
		traffic: d.Traffic,
		metrics: d.Metrics,
		log:     log.WithField("component", "api"),
		clock:   d.Clock,
		loc:     d.Location,
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(requestLogger(h.log))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders:   []string{"Content-Length", requestIDHeader},
		MaxAge:          12 * time.Hour,
	}))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/register", h.register)
	r.POST("/login", h.login)
	r.GET("/me", h.requireAuth(), h.me)

	r.GET("/routes", h.listRoutes)
	r.GET("/routes/:id", h.getRoute)
	r.GET("/routes/:id/path", h.getRoutePath)
	r.GET("/schedule", h.schedule)

	live := r.Group("/live")
	live.GET("/vehicles", h.listVehicles)
	live.GET("/vehicles/:id", h.getVehicle)
	live.GET("/stream", h.liveStream)

	r.GET("/traffic", h.currentTraffic)
	r.GET("/traffic/:hour", h.trafficForHour)

	r.POST("/trips/plan", h.planTrip)
	return r
}

func (h *handler) observeAuth(endpoint, outcome string) {
	if h.metrics != nil {
		h.metrics.AuthObserve(endpoint, outcome)
	}
}
