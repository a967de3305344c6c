package traffic

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotForHour_Table(t *testing.T) {
	want := map[int]Tier{
		0: TierGood, 3: TierGood, 4: TierGood,
		5: TierHeavy, 9: TierHeavy,
		10: TierNeutral, 11: TierNeutral,
		12: TierHeavy, 14: TierHeavy,
		15: TierNeutral, 16: TierNeutral,
		17: TierHeavy, 19: TierHeavy,
		20: TierGood, 23: TierGood,
	}
	for h, tier := range want {
		assert.Equal(t, tier, SnapshotForHour(h).Tier, "hour %d", h)
	}
}

func TestSnapshotForHour_MetricsMatchTier(t *testing.T) {
	for h := 0; h < 24; h++ {
		s := SnapshotForHour(h)
		assert.Equal(t, h, s.Hour)
		switch s.Tier {
		case TierGood:
			assert.Equal(t, [3]int{10, 97, 10}, [3]int{s.ActiveRouteCount, s.PunctualityPct, s.AverageMinutes})
		case TierNeutral:
			assert.Equal(t, [3]int{7, 90, 15}, [3]int{s.ActiveRouteCount, s.PunctualityPct, s.AverageMinutes})
		case TierHeavy:
			assert.Equal(t, [3]int{5, 80, 22}, [3]int{s.ActiveRouteCount, s.PunctualityPct, s.AverageMinutes})
		default:
			t.Fatalf("hour %d produced unknown tier %q", h, s.Tier)
		}
		assert.NotEmpty(t, s.Message)
		assert.Equal(t, s, SnapshotForHour(h), "deterministic")
	}
}

func TestSnapshotForHour_SixAM(t *testing.T) {
	s := SnapshotForHour(6)
	assert.Equal(t, TierHeavy, s.Tier)
	assert.Equal(t, 5, s.ActiveRouteCount)
	assert.Equal(t, 80, s.PunctualityPct)
	assert.Equal(t, 22, s.AverageMinutes)
}

func TestSnapshotForHour_WrapsOutOfRange(t *testing.T) {
	assert.Equal(t, SnapshotForHour(6), SnapshotForHour(30))
	assert.Equal(t, SnapshotForHour(23), SnapshotForHour(-1))
}

type recordingMetrics struct{ tiers []Tier }

func (r *recordingMetrics) TrafficObserve(t Tier) { r.tiers = append(r.tiers, t) }

func TestEstimator_RefreshUsesClockHourInZone(t *testing.T) {
	loc := time.FixedZone("AST", -4*3600)
	// 10:30 UTC is 06:30 in Santo Domingo
	fc := clockwork.NewFakeClockAt(time.Date(2025, 5, 6, 10, 30, 0, 0, time.UTC))
	m := &recordingMetrics{}
	logger, _ := test.NewNullLogger()

	e := NewEstimator(fc, loc, time.Minute, m, logger)
	cur := e.Current()
	assert.Equal(t, TierHeavy, cur.Tier)
	assert.Equal(t, 6, cur.Hour)

	fc.Advance(15*time.Hour + 30*time.Minute) // 22:00 local
	assert.Equal(t, TierHeavy, e.Current().Tier, "cached until refreshed")

	s := e.Refresh()
	assert.Equal(t, TierGood, s.Tier)
	assert.Equal(t, s, e.Current())
	assert.Equal(t, []Tier{TierHeavy, TierGood}, m.tiers)
}

func TestEstimator_LoopRefreshesAndStops(t *testing.T) {
	fc := clockwork.NewFakeClockAt(time.Date(2025, 5, 6, 11, 0, 0, 0, time.UTC))
	e := NewEstimator(fc, time.UTC, time.Minute, nil, logrus.New())
	require.Equal(t, TierNeutral, e.Current().Tier)

	var delivered atomic.Int32
	unsubscribe := e.Subscribe(func(Snapshot) { delivered.Add(1) })
	defer unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	e.Start(ctx)
	require.NoError(t, fc.BlockUntilContext(ctx, 1))

	// 13:00 is a heavy hour
	fc.Advance(2 * time.Hour)
	assert.Eventually(t, func() bool { return e.Current().Tier == TierHeavy }, 2*time.Second, 5*time.Millisecond)
	assert.Positive(t, delivered.Load())

	e.Stop()
	require.NoError(t, fc.BlockUntilContext(ctx, 0))
	e.Stop()
}
