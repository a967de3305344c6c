package sim

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"sd-transit/internal/geo"
	"sd-transit/internal/transit"
)

var (
	ErrAlreadyRunning  = errors.New("simulator already running")
	ErrVehicleNotFound = errors.New("vehicle not found")
)

const (
	DefaultMaxStep  = 0.006
	DefaultInterval = 3 * time.Second
	minETA          = 1
)

// DefaultBounds covers greater Santo Domingo.
var DefaultBounds = geo.BoundingBox{MinLat: 18.40, MaxLat: 18.56, MinLng: -70.05, MaxLng: -69.80}

// Snapshot is the published, read-only view of the fleet.
type Snapshot struct {
	Vehicles  []transit.Vehicle `json:"vehicles"`
	UpdatedAt time.Time         `json:"updatedAt"`
}

// Metrics is implemented by the prometheus collector.
type Metrics interface {
	TickObserve(d time.Duration, vehicles int)
}

type Options struct {
	Seed     []transit.Vehicle
	Bounds   geo.BoundingBox
	MaxStep  float64
	Interval time.Duration
	Clock    clockwork.Clock
	Rand     *rand.Rand
	Metrics  Metrics
	Logger   logrus.FieldLogger
}

// Simulator random-walks a fixed fleet inside a bounding box. Only Tick
// mutates state; readers always see a whole snapshot.
type Simulator struct {
	seed     []transit.Vehicle
	bounds   geo.BoundingBox
	maxStep  float64
	interval time.Duration
	clock    clockwork.Clock
	metrics  Metrics
	log      logrus.FieldLogger

	randMu sync.Mutex
	rnd    *rand.Rand

	// tickMu serializes Tick so two callers cannot both build from the same base.
	tickMu sync.Mutex

	mu      sync.RWMutex
	current Snapshot
	loaded  bool
	subs    map[int]func(Snapshot)
	nextSub int

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(opts Options) *Simulator {
	if opts.Seed == nil {
		opts.Seed = transit.SeedFleet()
	}
	if opts.Bounds == (geo.BoundingBox{}) {
		opts.Bounds = DefaultBounds
	}
	if opts.MaxStep <= 0 {
		opts.MaxStep = DefaultMaxStep
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5d))
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &Simulator{
		seed:     append([]transit.Vehicle(nil), opts.Seed...),
		bounds:   opts.Bounds,
		maxStep:  opts.MaxStep,
		interval: opts.Interval,
		clock:    opts.Clock,
		rnd:      opts.Rand,
		metrics:  opts.Metrics,
		log:      opts.Logger.WithField("component", "simulator"),
		subs:     make(map[int]func(Snapshot)),
	}
}

// Start loads the seed fleet on first use and begins ticking every interval.
func (s *Simulator) Start(parent context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return ErrAlreadyRunning
	}
	if !s.loaded {
		vs := make([]transit.Vehicle, len(s.seed))
		for i, v := range s.seed {
			v.Position = s.bounds.Clamp(v.Position)
			if v.EstimatedArrivalMinutes < minETA {
				v.EstimatedArrivalMinutes = minETA
			}
			vs[i] = v
		}
		s.current = Snapshot{Vehicles: vs, UpdatedAt: s.clock.Now()}
		s.loaded = true
	}
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	snap := s.current
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"vehicles": len(snap.Vehicles), "interval": s.interval}).Info("starting simulator")
	s.notify(snap)

	ticker := s.clock.NewTicker(s.interval)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				// a tick that raced with Stop must not be applied
				if ctx.Err() != nil {
					return
				}
				s.Tick()
			}
		}
	}()
	return nil
}

// Stop cancels the tick loop and waits for it to exit. Vehicle state is kept.
// Stop must not be called from a subscriber, which runs on the tick loop;
// use go s.Stop() there instead.
func (s *Simulator) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	s.wg.Wait()
	s.log.Info("simulator stopped")
}

func (s *Simulator) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cancel != nil
}

// Tick advances every vehicle one step and publishes the result.
func (s *Simulator) Tick() Snapshot {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()
	start := time.Now()

	s.mu.RLock()
	prev := s.current.Vehicles
	s.mu.RUnlock()

	next := make([]transit.Vehicle, len(prev))
	s.randMu.Lock()
	for i, v := range prev {
		v.Position = s.bounds.Clamp(geo.Coordinate{
			Latitude:  v.Position.Latitude + s.delta(),
			Longitude: v.Position.Longitude + s.delta(),
		})
		v.EstimatedArrivalMinutes = max(minETA, v.EstimatedArrivalMinutes+s.rnd.IntN(3)-1)
		next[i] = v
	}
	s.randMu.Unlock()

	snap := Snapshot{Vehicles: next, UpdatedAt: s.clock.Now()}
	s.mu.Lock()
	s.current = snap
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.TickObserve(time.Since(start), len(next))
	}
	s.notify(snap)
	return snap
}

// delta is uniform in [-maxStep, +maxStep]. Caller holds randMu.
func (s *Simulator) delta() float64 {
	return (s.rnd.Float64()*2 - 1) * s.maxStep
}

// Snapshot returns the current fleet. The slice must be treated as read-only.
func (s *Simulator) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Vehicle looks a single vehicle up by id without touching simulator state.
func (s *Simulator) Vehicle(id string) (transit.Vehicle, error) {
	snap := s.Snapshot()
	for _, v := range snap.Vehicles {
		if v.ID == id {
			return v, nil
		}
	}
	return transit.Vehicle{}, ErrVehicleNotFound
}

// Subscribe registers fn to receive every published snapshot. fn runs on
// the ticking goroutine and must not block or call Stop synchronously.
func (s *Simulator) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Simulator) notify(snap Snapshot) {
	s.mu.RLock()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.RUnlock()
	for _, fn := range subs {
		fn(snap)
	}
}
