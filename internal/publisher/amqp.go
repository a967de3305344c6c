package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const publishTimeout = 5 * time.Second

var errChannelClosed = errors.New("amqp channel closed")

// AMQPPublisher publishes to a topic exchange using the same routing keys
// as the NATS subjects.
type AMQPPublisher struct {
	conn        *amqp.Connection
	exchange    string
	logSubjects bool
	metrics     Metrics
	log         logrus.FieldLogger

	mu     sync.Mutex
	ch     *amqp.Channel
	closed bool
}

func NewAMQPPublisher(url, exchange string, logSubjects bool, m Metrics, log logrus.FieldLogger) (*AMQPPublisher, error) {
	log = log.WithField("component", "amqp")
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, err
	}
	if m != nil {
		m.SetConnected(true)
	}
	p := &AMQPPublisher{conn: conn, ch: ch, exchange: exchange, logSubjects: logSubjects, metrics: m, log: log}

	notify := conn.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		if amqpErr, ok := <-notify; ok {
			log.WithField("reason", amqpErr.Reason).Warn("amqp connection closed")
		}
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		if m != nil {
			m.SetConnected(false)
		}
	}()
	return p, nil
}

func (p *AMQPPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil && !p.conn.IsClosed() {
		_ = p.conn.Close()
	}
	p.closed = true
}

func (p *AMQPPublisher) PublishPosition(msg PositionMessage) error {
	return p.publish(positionSubject(msg), msg)
}

func (p *AMQPPublisher) PublishTraffic(msg TrafficMessage) error {
	return p.publish(trafficSubject, msg)
}

func (p *AMQPPublisher) publish(key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	p.mu.Lock()
	ch, closed := p.ch, p.closed
	p.mu.Unlock()
	if closed {
		return errChannelClosed
	}
	if p.logSubjects {
		p.log.WithField("routing_key", key).Debug("amqp publish")
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	start := time.Now()
	err = ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType: "application/json",
		Timestamp:   start,
		Body:        b,
	})
	observe(p.metrics, start, err)
	return err
}
