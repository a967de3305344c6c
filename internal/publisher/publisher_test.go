package publisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sd-transit/internal/geo"
	"sd-transit/internal/sim"
	"sd-transit/internal/traffic"
	"sd-transit/internal/transit"
)

type fakePublisher struct {
	positions []PositionMessage
	traffic   []TrafficMessage
	err       error
}

func (f *fakePublisher) PublishPosition(msg PositionMessage) error {
	f.positions = append(f.positions, msg)
	return f.err
}

func (f *fakePublisher) PublishTraffic(msg TrafficMessage) error {
	f.traffic = append(f.traffic, msg)
	return f.err
}

func (f *fakePublisher) Close() {}

var _ Publisher = (*fakePublisher)(nil)
var _ Publisher = (*NATSPublisher)(nil)
var _ Publisher = (*AMQPPublisher)(nil)

func sampleSnapshot() sim.Snapshot {
	return sim.Snapshot{
		UpdatedAt: time.Date(2025, 6, 2, 7, 0, 0, 0, time.UTC),
		Vehicles: []transit.Vehicle{
			{ID: "1", RouteLabel: "A1", RouteName: "Expreso Kennedy", NextStop: "Centro de los Héroes", EstimatedArrivalMinutes: 3, Occupancy: transit.OccupancyMedium, Position: geo.Coordinate{Latitude: 18.47, Longitude: -69.91}},
			{ID: "2", RouteLabel: "B3", RouteName: "Metro Norte", EstimatedArrivalMinutes: 7, Occupancy: transit.OccupancyHigh, DelayMinutes: 2, Position: geo.Coordinate{Latitude: 18.46, Longitude: -69.92}},
		},
	}
}

func TestPositionsFromSnapshot(t *testing.T) {
	msgs := PositionsFromSnapshot(sampleSnapshot())
	require.Len(t, msgs, 2)
	assert.Equal(t, PositionMessage{
		VehicleID:  "1",
		RouteLabel: "A1",
		RouteName:  "Expreso Kennedy",
		Timestamp:  time.Date(2025, 6, 2, 7, 0, 0, 0, time.UTC),
		Lat:        18.47,
		Lon:        -69.91,
		ETAMinutes: 3,
		Occupancy:  transit.OccupancyMedium,
		NextStop:   "Centro de los Héroes",
	}, msgs[0])
	assert.Equal(t, 2, msgs[1].DelayMinutes)
}

func TestSnapshotSink_PublishesEveryVehicleAndLogsErrors(t *testing.T) {
	logger, hook := test.NewNullLogger()
	p := &fakePublisher{err: errors.New("broker down")}

	SnapshotSink(p, logger)(sampleSnapshot())

	assert.Len(t, p.positions, 2)
	assert.Len(t, hook.AllEntries(), 2)
	assert.Equal(t, "publish position failed", hook.LastEntry().Message)
}

func TestTrafficSink(t *testing.T) {
	logger, hook := test.NewNullLogger()
	p := &fakePublisher{}

	TrafficSink(p, logger)(traffic.SnapshotForHour(8))

	require.Len(t, p.traffic, 1)
	assert.Equal(t, traffic.TierHeavy, p.traffic[0].Tier)
	assert.Empty(t, hook.AllEntries())
}

func TestPositionSubject(t *testing.T) {
	assert.Equal(t, "vehicles.A1.1", positionSubject(PositionMessage{RouteLabel: "A1", VehicleID: "1"}))
	assert.Equal(t, "vehicles.C_2.bus_7", positionSubject(PositionMessage{RouteLabel: "C.2", VehicleID: "bus 7"}))
	assert.Equal(t, "vehicles._._", positionSubject(PositionMessage{}))
}

type countingMetrics struct{ ok, errs, observed int }

func (c *countingMetrics) PublishedInc()                { c.ok++ }
func (c *countingMetrics) PublishErrInc()               { c.errs++ }
func (c *countingMetrics) PublishObserve(time.Duration) { c.observed++ }
func (c *countingMetrics) SetConnected(bool)            {}

func TestObserve(t *testing.T) {
	m := &countingMetrics{}
	observe(m, time.Now(), nil)
	observe(m, time.Now(), errors.New("x"))
	observe(nil, time.Now(), nil)
	assert.Equal(t, 1, m.ok)
	assert.Equal(t, 1, m.errs)
	assert.Equal(t, 2, m.observed)
}

func TestAsync_DeliversInOrder(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan int, 3)
	push := Async(ctx, 3, func(v int) { got <- v })
	push(1)
	push(2)
	push(3)

	for want := 1; want <= 3; want++ {
		select {
		case v := <-got:
			assert.Equal(t, want, v)
		case <-time.After(time.Second):
			t.Fatalf("value %d not delivered", want)
		}
	}
}

func TestAsync_DropsOldestWhenFull(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan struct{})
	release := make(chan struct{})
	got := make(chan int, 4)
	push := Async(ctx, 1, func(v int) {
		if v == 1 {
			close(started)
			<-release
		}
		got <- v
	})

	push(1)
	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("worker never started")
	}
	// the worker is busy with 1, so 3 replaces the queued 2
	push(2)
	push(3)
	close(release)

	var vals []int
	for len(vals) < 2 {
		select {
		case v := <-got:
			vals = append(vals, v)
		case <-time.After(time.Second):
			t.Fatalf("got %v", vals)
		}
	}
	assert.Equal(t, []int{1, 3}, vals)
}
