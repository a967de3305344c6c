package publisher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"sd-transit/internal/sim"
	"sd-transit/internal/traffic"
	"sd-transit/internal/transit"
)

const (
	vehicleSubjectRoot = "vehicles"
	trafficSubjectRoot = "traffic"
	trafficSubject     = trafficSubjectRoot + ".current"
)

// Publisher pushes live updates to a message broker.
type Publisher interface {
	PublishPosition(msg PositionMessage) error
	PublishTraffic(msg TrafficMessage) error
	Close()
}

type Metrics interface {
	PublishedInc()
	PublishErrInc()
	PublishObserve(d time.Duration)
	SetConnected(connected bool)
}

type PositionMessage struct {
	VehicleID    string            `json:"vehicleId"`
	RouteLabel   string            `json:"routeLabel"`
	RouteName    string            `json:"routeName"`
	Timestamp    time.Time         `json:"timestamp"`
	Lat          float64           `json:"lat"`
	Lon          float64           `json:"lon"`
	ETAMinutes   int               `json:"etaMinutes"`
	Occupancy    transit.Occupancy `json:"occupancy"`
	DelayMinutes int               `json:"delayMinutes"`
	NextStop     string            `json:"nextStop"`
}

type TrafficMessage = traffic.Snapshot

// PositionsFromSnapshot flattens a fleet snapshot into one message per vehicle.
func PositionsFromSnapshot(snap sim.Snapshot) []PositionMessage {
	out := make([]PositionMessage, 0, len(snap.Vehicles))
	for _, v := range snap.Vehicles {
		out = append(out, PositionMessage{
			VehicleID:    v.ID,
			RouteLabel:   v.RouteLabel,
			RouteName:    v.RouteName,
			Timestamp:    snap.UpdatedAt,
			Lat:          v.Position.Latitude,
			Lon:          v.Position.Longitude,
			ETAMinutes:   v.EstimatedArrivalMinutes,
			Occupancy:    v.Occupancy,
			DelayMinutes: v.DelayMinutes,
			NextStop:     v.NextStop,
		})
	}
	return out
}

// SnapshotSink returns a simulator subscriber that publishes every vehicle.
// Errors are logged and never stop the simulator.
func SnapshotSink(p Publisher, log logrus.FieldLogger) func(sim.Snapshot) {
	return func(snap sim.Snapshot) {
		for _, msg := range PositionsFromSnapshot(snap) {
			if err := p.PublishPosition(msg); err != nil {
				log.WithError(err).WithField("vehicle", msg.VehicleID).Warn("publish position failed")
			}
		}
	}
}

// TrafficSink returns a traffic estimator subscriber.
func TrafficSink(p Publisher, log logrus.FieldLogger) func(traffic.Snapshot) {
	return func(s traffic.Snapshot) {
		if err := p.PublishTraffic(s); err != nil {
			log.WithError(err).Warn("publish traffic failed")
		}
	}
}

// Async runs fn on its own goroutine fed by a queue of size entries, so a
// slow broker never stalls the caller. When the queue is full the oldest
// pending value is dropped. The worker exits when ctx is done.
func Async[T any](ctx context.Context, size int, fn func(T)) func(T) {
	if size < 1 {
		size = 1
	}
	queue := make(chan T, size)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case v := <-queue:
				fn(v)
			}
		}
	}()
	return func(v T) {
		for {
			select {
			case queue <- v:
				return
			default:
			}
			select {
			case <-queue:
			default:
			}
		}
	}
}

func positionSubject(msg PositionMessage) string {
	return fmt.Sprintf("%s.%s.%s", vehicleSubjectRoot, subjectToken(msg.RouteLabel), subjectToken(msg.VehicleID))
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS tokens and AMQP topic words cannot contain spaces, '>', '*', '#' or '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "#", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}

func observe(m Metrics, start time.Time, err error) {
	if m == nil {
		return
	}
	m.PublishObserve(time.Since(start))
	if err != nil {
		m.PublishErrInc()
	} else {
		m.PublishedInc()
	}
}
