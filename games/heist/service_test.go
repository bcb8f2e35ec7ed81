package heist

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"heist-bot/engine"
	"heist-bot/models"
	"heist-bot/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedRNG always rolls f and picks index n (mod the range)
type fixedRNG struct {
	f float64
	n int
}

func (r fixedRNG) Float64() float64 { return r.f }
func (r fixedRNG) IntN(n int) int   { return r.n % n }

var (
	alwaysWin  = fixedRNG{f: 0, n: 0}
	alwaysLose = fixedRNG{f: 0.999, n: 0}
)

type fixture struct {
	ledger  *utils.MemoryLedger
	store   *engine.MemoryStore
	locker  *utils.LocalLocker
	metrics *utils.HeistMetrics
	svc     *Service
}

func newFixture(rng engine.RandomSource) *fixture {
	f := &fixture{
		ledger:  utils.NewMemoryLedger(),
		store:   engine.NewMemoryStore(),
		locker:  utils.NewLocalLocker(),
		metrics: utils.NewHeistMetricsWithRegistry("test", prometheus.NewRegistry()),
	}
	f.svc = NewService(f.ledger, f.store, f.locker, f.metrics, rng)
	return f
}

// playedSession returns a Standard/Low session whose Simon round succeeded
func playedSession(t *testing.T, userID int64) *Session {
	t.Helper()
	s := NewSession(userID, t0)
	require.NoError(t, s.SelectMode(engine.ModeStandard, t0))
	require.NoError(t, s.SelectRisk(engine.RiskLow, t0))
	require.NoError(t, s.Start(engine.NewSeededRNG(1), t0))
	typeSequence(s, t0.Add(time.Minute))
	require.True(t, s.CanResolve())
	return s
}

func TestServiceResolveSuccess(t *testing.T) {
	ctx := context.Background()
	f := newFixture(alwaysWin)
	f.ledger.SetBalance(1, 1000)
	_, err := f.svc.LoadPlayer(ctx, 1)
	require.NoError(t, err)

	sess := playedSession(t, 1)
	view, err := f.svc.Resolve(ctx, sess)
	require.NoError(t, err)

	lo, _ := engine.RewardRange(engine.ModeStandard, engine.RiskLow)
	assert.True(t, view.Outcome.Success)
	assert.Equal(t, lo, view.Outcome.AmountFinal)
	assert.Equal(t, int64(1000), view.Before.Balance)
	assert.Equal(t, 1000+lo, view.After.Balance)
	assert.Equal(t, engine.Succeeded, view.Minigame)
	assert.Equal(t, StateResolved, sess.State)

	balance, err := f.ledger.FetchBalance(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1000+lo, balance)

	rec, err := f.ledger.LoadProfile(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.PP)
	assert.Equal(t, int64(engine.DefaultThiefSkill+1), rec.ThiefSkill)
	assert.Equal(t, engine.HeatGain(engine.RiskLow), rec.Heat)
	assert.Equal(t, view.After, f.store.GetOrCreate(1))

	logs := f.ledger.Logs()
	require.Len(t, logs, 1)
	assert.Equal(t, models.CrimeAction, logs[0].Action)
	require.NotNil(t, logs[0].Amount)
	assert.Equal(t, lo, *logs[0].Amount)

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Resolutions.WithLabelValues("standard", "low", "success")))
	assert.Equal(t, float64(lo), testutil.ToFloat64(f.metrics.LootTotal.WithLabelValues("won")))
}

func TestServiceResolveFailureFloorsLedger(t *testing.T) {
	ctx := context.Background()
	f := newFixture(alwaysLose)
	f.ledger.SetBalance(2, 10)
	_, err := f.svc.LoadPlayer(ctx, 2)
	require.NoError(t, err)

	view, err := f.svc.Resolve(ctx, playedSession(t, 2))
	require.NoError(t, err)

	lo, _ := engine.RewardRange(engine.ModeStandard, engine.RiskLow)
	penalty := int64(math.Round(float64(lo) * 0.35))
	require.Greater(t, penalty, int64(10))

	assert.False(t, view.Outcome.Success)
	assert.Equal(t, -penalty, view.Outcome.AmountFinal)
	assert.Equal(t, int64(10), view.Before.Balance)
	assert.Zero(t, view.After.Balance)
	assert.Equal(t, engine.HeatGain(engine.RiskLow)+2, view.After.Heat)
	assert.Equal(t, view.Before.PP, view.After.PP)
	assert.Empty(t, view.NewlyUnlocked)

	balance, _ := f.ledger.FetchBalance(ctx, 2)
	assert.Zero(t, balance)
}

func TestServiceResolveReportsUnlocks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(alwaysWin)
	require.NoError(t, f.ledger.SaveProfile(ctx, models.ProfileRecord{UserID: 3, PP: 4, ThiefSkill: 10}))
	_, err := f.svc.LoadPlayer(ctx, 3)
	require.NoError(t, err)

	view, err := f.svc.Resolve(ctx, playedSession(t, 3))
	require.NoError(t, err)
	assert.Equal(t, uint32(5), view.After.PP)
	assert.Equal(t, []engine.ItemKey{engine.ItemProGloves}, view.NewlyUnlocked)
}

func TestServiceResolveRequiresResult(t *testing.T) {
	f := newFixture(alwaysWin)
	s := NewSession(4, t0)
	require.NoError(t, s.SelectMode(engine.ModeStandard, t0))
	require.NoError(t, s.SelectRisk(engine.RiskLow, t0))

	_, err := f.svc.Resolve(context.Background(), s)
	assert.ErrorIs(t, err, ErrMinigameInProgress)

	require.NoError(t, s.Start(engine.NewSeededRNG(1), t0))
	_, err = f.svc.Resolve(context.Background(), s)
	assert.ErrorIs(t, err, ErrMinigameInProgress)
	assert.Empty(t, f.ledger.Logs())
}

type brokenLedger struct {
	*utils.MemoryLedger
}

func (brokenLedger) SettleHeist(context.Context, models.HeistSettlement) (int64, error) {
	return 0, errors.New("connection reset")
}

func TestServiceResolveLedgerFailureKeepsSession(t *testing.T) {
	ctx := context.Background()
	ledger := brokenLedger{utils.NewMemoryLedger()}
	store := engine.NewMemoryStore()
	metrics := utils.NewHeistMetricsWithRegistry("test", prometheus.NewRegistry())
	svc := NewService(ledger, store, utils.NewLocalLocker(), metrics, alwaysWin)

	sess := playedSession(t, 5)
	_, err := svc.Resolve(ctx, sess)
	require.Error(t, err)

	assert.Equal(t, StateInMinigame, sess.State)
	assert.True(t, sess.CanResolve())
	assert.Equal(t, engine.NewPlayerProfile(5), store.GetOrCreate(5))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LedgerErrors.WithLabelValues("settle_heist")))

	rec, err := ledger.LoadProfile(ctx, 5)
	require.NoError(t, err)
	assert.Zero(t, rec.PP)
	assert.Empty(t, ledger.Logs())
}

type unreadableProfiles struct {
	*utils.MemoryLedger
}

func (unreadableProfiles) LoadProfile(context.Context, int64) (models.ProfileRecord, error) {
	return models.ProfileRecord{}, errors.New("connection refused")
}

func TestServiceResolveAbortsWhenProfileUnreadable(t *testing.T) {
	ctx := context.Background()
	ledger := unreadableProfiles{utils.NewMemoryLedger()}
	metrics := utils.NewHeistMetricsWithRegistry("test", prometheus.NewRegistry())
	svc := NewService(ledger, engine.NewMemoryStore(), utils.NewLocalLocker(), metrics, alwaysWin)

	sess := playedSession(t, 11)
	_, err := svc.Resolve(ctx, sess)
	require.Error(t, err)
	assert.Equal(t, StateInMinigame, sess.State)
	assert.Empty(t, ledger.Logs())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LedgerErrors.WithLabelValues("load_profile")))
}

func TestServiceResolveAcrossInstancesKeepsProgress(t *testing.T) {
	ctx := context.Background()
	ledger := utils.NewMemoryLedger()
	locker := utils.NewLocalLocker()
	newInstance := func() *Service {
		metrics := utils.NewHeistMetricsWithRegistry("test", prometheus.NewRegistry())
		return NewService(ledger, engine.NewMemoryStore(), locker, metrics, alwaysWin)
	}
	a, b := newInstance(), newInstance()

	_, err := a.LoadPlayer(ctx, 42)
	require.NoError(t, err)
	_, err = b.LoadPlayer(ctx, 42)
	require.NoError(t, err)

	_, err = a.Resolve(ctx, playedSession(t, 42))
	require.NoError(t, err)
	view, err := b.Resolve(ctx, playedSession(t, 42))
	require.NoError(t, err)
	assert.Equal(t, uint32(1), view.Before.PP)

	rec, err := ledger.LoadProfile(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rec.PP)
	assert.Equal(t, 2*engine.HeatGain(engine.RiskLow), rec.Heat)
	assert.Equal(t, int64(engine.DefaultThiefSkill+2), rec.ThiefSkill)
	assert.Len(t, ledger.Logs(), 2)

	lo, _ := engine.RewardRange(engine.ModeStandard, engine.RiskLow)
	balance, err := ledger.FetchBalance(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 2*lo, balance)
}

func TestServiceResolveWaitsForPlayerLock(t *testing.T) {
	f := newFixture(alwaysWin)
	unlock, err := f.locker.Lock(context.Background(), 6)
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	sess := playedSession(t, 6)
	_, err = f.svc.Resolve(ctx, sess)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateInMinigame, sess.State)
}

func TestServiceSettingsRoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(alwaysWin)

	_, ok, err := f.svc.LastSettings(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	cfg := engine.SoloHeistConfig{Mode: engine.ModeOstrozny, Risk: engine.RiskHigh, Items: []engine.ItemKey{engine.ItemLockpickSet}}
	require.NoError(t, f.svc.SaveSettings(ctx, 7, cfg))

	got, ok, err := f.svc.LastSettings(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, cfg.Mode, got.Mode)
	assert.Equal(t, cfg.Risk, got.Risk)
	assert.Equal(t, cfg.Items, got.Items)
}

func TestServiceLoadPlayerMirrorsLedger(t *testing.T) {
	ctx := context.Background()
	f := newFixture(alwaysWin)
	f.ledger.SetBalance(8, 4321)
	require.NoError(t, f.ledger.SaveProfile(ctx, models.ProfileRecord{UserID: 8, Heat: 30, PP: 12, ThiefSkill: 20}))

	p, err := f.svc.LoadPlayer(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, engine.PlayerProfile{UserID: 8, Balance: 4321, Heat: 30, ThiefSkill: 20, PP: 12}, p)
	assert.Equal(t, p, f.svc.Profile(8))

	b, err := f.svc.Balance(ctx, 8)
	require.NoError(t, err)
	assert.Equal(t, int64(4321), b)
}
