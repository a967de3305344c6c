package traffic

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

type Tier string

const (
	TierGood    Tier = "good"
	TierNeutral Tier = "neutral"
	TierHeavy   Tier = "heavy"
)

// Level maps a tier onto a gauge value (0 good, 1 neutral, 2 heavy).
func (t Tier) Level() float64 {
	switch t {
	case TierNeutral:
		return 1
	case TierHeavy:
		return 2
	}
	return 0
}

type Snapshot struct {
	Tier             Tier      `json:"tier"`
	Hour             int       `json:"hour"`
	ActiveRouteCount int       `json:"activeRoutes"`
	PunctualityPct   int       `json:"punctuality"`
	AverageMinutes   int       `json:"avgMinutes"`
	Message          string    `json:"message"`
	UpdatedAt        time.Time `json:"updatedAt,omitzero"`
}

type tierMetrics struct {
	activeRoutes, punctuality, avgMinutes int
	message                               string
}

var metricsByTier = map[Tier]tierMetrics{
	TierGood:    {10, 97, 10, "Condiciones buenas en la mayoría de las rutas."},
	TierNeutral: {7, 90, 15, "Tráfico moderado en varias rutas."},
	TierHeavy:   {5, 80, 22, "Tráfico pesado en la ciudad."},
}

// hourTiers is indexed by hour of day. Hour 4 is treated as good.
var hourTiers = [24]Tier{
	TierGood, TierGood, TierGood, TierGood, TierGood, // 0-4
	TierHeavy, TierHeavy, TierHeavy, TierHeavy, TierHeavy, // 5-9
	TierNeutral, TierNeutral, // 10-11
	TierHeavy, TierHeavy, TierHeavy, // 12-14
	TierNeutral, TierNeutral, // 15-16
	TierHeavy, TierHeavy, TierHeavy, // 17-19
	TierGood, TierGood, TierGood, TierGood, // 20-23
}

// SnapshotForHour is total over all integers; hours are taken modulo 24.
func SnapshotForHour(hour int) Snapshot {
	h := ((hour % 24) + 24) % 24
	tier := hourTiers[h]
	m := metricsByTier[tier]
	return Snapshot{
		Tier:             tier,
		Hour:             h,
		ActiveRouteCount: m.activeRoutes,
		PunctualityPct:   m.punctuality,
		AverageMinutes:   m.avgMinutes,
		Message:          m.message,
	}
}

// Metrics is implemented by the prometheus collector.
type Metrics interface {
	TrafficObserve(tier Tier)
}

// Estimator caches the traffic snapshot for the current wall-clock hour and
// refreshes it on a fixed interval.
type Estimator struct {
	clock    clockwork.Clock
	loc      *time.Location
	interval time.Duration
	metrics  Metrics
	log      logrus.FieldLogger

	mu      sync.RWMutex
	current Snapshot
	subs    map[int]func(Snapshot)
	nextSub int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewEstimator(clk clockwork.Clock, loc *time.Location, interval time.Duration, m Metrics, log logrus.FieldLogger) *Estimator {
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	if loc == nil {
		loc = time.Local
	}
	if interval <= 0 {
		interval = time.Minute
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	e := &Estimator{
		clock:    clk,
		loc:      loc,
		interval: interval,
		metrics:  m,
		log:      log.WithField("component", "traffic"),
		subs:     make(map[int]func(Snapshot)),
	}
	e.Refresh()
	return e
}

// Current returns the last computed snapshot.
func (e *Estimator) Current() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current
}

// Refresh recomputes the snapshot from the clock and notifies subscribers.
func (e *Estimator) Refresh() Snapshot {
	now := e.clock.Now().In(e.loc)
	s := SnapshotForHour(now.Hour())
	s.UpdatedAt = now

	e.mu.Lock()
	changed := s.Tier != e.current.Tier
	e.current = s
	subs := make([]func(Snapshot), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	e.mu.Unlock()

	if changed {
		e.log.WithFields(logrus.Fields{"tier": s.Tier, "hour": s.Hour}).Info("traffic tier changed")
	}
	if e.metrics != nil {
		e.metrics.TrafficObserve(s.Tier)
	}
	for _, fn := range subs {
		fn(s)
	}
	return s
}

func (e *Estimator) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subs[id] = fn
	e.mu.Unlock()
	return func() {
		e.mu.Lock()
		delete(e.subs, id)
		e.mu.Unlock()
	}
}

// Start launches the refresh loop. Calling Start on a running estimator is a no-op.
func (e *Estimator) Start(parent context.Context) {
	e.mu.Lock()
	if e.cancel != nil {
		e.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(parent)
	e.cancel = cancel
	e.mu.Unlock()

	ticker := e.clock.NewTicker(e.interval)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				e.Refresh()
			}
		}
	}()
}

// Stop cancels the refresh loop and waits for it to exit.
func (e *Estimator) Stop() {
	e.mu.Lock()
	cancel := e.cancel
	e.cancel = nil
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	e.wg.Wait()
}
