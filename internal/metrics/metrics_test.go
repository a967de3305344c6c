package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sd-transit/internal/traffic"
)

func TestCollector_Observers(t *testing.T) {
	c := NewCollector(3*time.Second, time.Minute)

	c.TickObserve(2*time.Millisecond, 5)
	c.TickObserve(time.Millisecond, 5)
	assert.Equal(t, 2.0, testutil.ToFloat64(c.Ticks))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.Vehicles))

	c.TrafficObserve(traffic.TierHeavy)
	assert.Equal(t, 2.0, testutil.ToFloat64(c.TrafficTier))
	c.TrafficObserve(traffic.TierGood)
	assert.Equal(t, 0.0, testutil.ToFloat64(c.TrafficTier))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.TrafficRefreshes))

	c.AuthObserve("login", "ok")
	c.AuthObserve("login", "ok")
	c.AuthObserve("register", "conflict")
	assert.Equal(t, 2.0, testutil.ToFloat64(c.AuthRequests.WithLabelValues("login", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.AuthRequests.WithLabelValues("register", "conflict")))

	c.SetConnected(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.BrokerConnected))
	c.SetConnected(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(c.BrokerConnected))

	assert.Equal(t, 3.0, testutil.ToFloat64(c.TickInterval))
	assert.Equal(t, 60.0, testutil.ToFloat64(c.TrafficInterval))
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector(time.Second, time.Minute)
	c.TripPlanned()

	w := httptest.NewRecorder()
	c.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "transit_trip_plans_total 1")
}
