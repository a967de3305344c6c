package publisher

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

type NATSPublisher struct {
	nc          *nats.Conn
	logSubjects bool
	metrics     Metrics
	log         logrus.FieldLogger
}

// NewNATSPublisher connects to url and, when stream is set, makes sure a
// JetStream stream captures the vehicle and traffic subjects.
func NewNATSPublisher(url, stream string, logSubjects bool, m Metrics, log logrus.FieldLogger) (*NATSPublisher, error) {
	log = log.WithField("component", "nats")
	nc, err := nats.Connect(url,
		nats.Name("sd-transit"),
		nats.DisconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.SetConnected(false)
			}
			log.Warn("nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.SetConnected(true)
			}
			log.Info("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.SetConnected(false)
			}
			log.Info("nats closed")
		}),
	)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.SetConnected(true)
	}
	if stream != "" {
		if err := ensureStream(nc, stream); err != nil {
			nc.Close()
			return nil, fmt.Errorf("ensure stream %s: %w", stream, err)
		}
	}
	return &NATSPublisher{nc: nc, logSubjects: logSubjects, metrics: m, log: log}, nil
}

func ensureStream(nc *nats.Conn, name string) error {
	js, err := nc.JetStream()
	if err != nil {
		return err
	}
	if _, err := js.StreamInfo(name); err == nil {
		return nil
	} else if !errors.Is(err, nats.ErrStreamNotFound) {
		return err
	}
	_, err = js.AddStream(&nats.StreamConfig{
		Name:     name,
		Subjects: []string{vehicleSubjectRoot + ".>", trafficSubjectRoot + ".>"},
		Storage:  nats.MemoryStorage,
		MaxAge:   time.Hour,
	})
	return err
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
		p.nc.Close()
	}
}

func (p *NATSPublisher) PublishPosition(msg PositionMessage) error {
	return p.publish(positionSubject(msg), msg)
}

func (p *NATSPublisher) PublishTraffic(msg TrafficMessage) error {
	return p.publish(trafficSubject, msg)
}

func (p *NATSPublisher) publish(subject string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if p.logSubjects {
		p.log.WithField("subject", subject).Debug("nats publish")
	}
	start := time.Now()
	err = p.nc.Publish(subject, b)
	observe(p.metrics, start, err)
	return err
}
