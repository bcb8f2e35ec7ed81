package heist

import (
	"context"
	"fmt"
	"time"

	"heist-bot/engine"
	"heist-bot/models"
	"heist-bot/utils"

	"github.com/rs/zerolog/log"
)

// Service resolves heists against the ledger. The ledger owns the balance and
// the progression; the profile store is the in-process mirror used to render
// the planner and is refreshed after every settlement.
type Service struct {
	ledger  utils.Ledger
	store   engine.ProfileStore
	locker  utils.PlayerLocker
	metrics *utils.HeistMetrics
	rng     engine.RandomSource
	now     func() time.Time
}

// NewService wires the resolution service. rng is shared across players and
// must be safe for concurrent use; engine.DefaultRNG is.
func NewService(ledger utils.Ledger, store engine.ProfileStore, locker utils.PlayerLocker, metrics *utils.HeistMetrics, rng engine.RandomSource) *Service {
	if rng == nil {
		rng = engine.DefaultRNG()
	}
	return &Service{
		ledger:  ledger,
		store:   store,
		locker:  locker,
		metrics: metrics,
		rng:     rng,
		now:     time.Now,
	}
}

// RNG is the random source sessions generate their sequences from
func (s *Service) RNG() engine.RandomSource { return s.rng }

// Profile returns the mirrored profile without touching the ledger
func (s *Service) Profile(userID int64) engine.PlayerProfile {
	return s.store.GetOrCreate(userID)
}

// LoadPlayer refreshes the mirror from the ledger. On a ledger error the
// current mirror is returned along with the error.
func (s *Service) LoadPlayer(ctx context.Context, userID int64) (engine.PlayerProfile, error) {
	rec, err := s.ledger.LoadProfile(ctx, userID)
	if err != nil {
		s.metrics.RecordLedgerError("load_profile")
		return s.store.GetOrCreate(userID), err
	}
	balance, err := s.ledger.FetchBalance(ctx, userID)
	if err != nil {
		s.metrics.RecordLedgerError("fetch_balance")
		return s.store.GetOrCreate(userID), err
	}
	p := rec.ToProfile(balance)
	s.store.Save(p)
	return p, nil
}

// Balance reads the ledger balance
func (s *Service) Balance(ctx context.Context, userID int64) (int64, error) {
	b, err := s.ledger.FetchBalance(ctx, userID)
	if err != nil {
		s.metrics.RecordLedgerError("fetch_balance")
	}
	return b, err
}

// LastSettings returns the saved /crime configuration, if any
func (s *Service) LastSettings(ctx context.Context, userID int64) (engine.SoloHeistConfig, bool, error) {
	saved, err := s.ledger.LoadSettings(ctx, userID)
	if err != nil {
		s.metrics.RecordLedgerError("load_settings")
		return engine.SoloHeistConfig{}, false, err
	}
	if saved == nil {
		return engine.SoloHeistConfig{}, false, nil
	}
	return saved.ToConfig(), true, nil
}

// SaveSettings persists the draft so the next /crime start restores it
func (s *Service) SaveSettings(ctx context.Context, userID int64, cfg engine.SoloHeistConfig) error {
	if err := s.ledger.SaveSettings(ctx, models.SettingsFromConfig(userID, cfg)); err != nil {
		s.metrics.RecordLedgerError("save_settings")
		return err
	}
	return nil
}

// Resolve settles a scored minigame: one roll and one ledger transaction for
// the balance, the profile and the audit row. The profile is read from the
// ledger under the player lock so concurrent resolutions on other instances
// are never overwritten. On a ledger failure nothing is written and the
// session stays in the minigame so the player can retry.
func (s *Service) Resolve(ctx context.Context, sess *Session) (ResolvedView, error) {
	mg, ok := sess.MinigameResult()
	if sess.State != StateInMinigame || !ok {
		return ResolvedView{}, ErrMinigameInProgress
	}
	userID := sess.UserID
	cfg := sess.Snapshot

	waitStart := s.now()
	unlock, err := s.locker.Lock(ctx, userID)
	if err != nil {
		return ResolvedView{}, err
	}
	defer unlock()
	s.metrics.ObserveLockWait(s.now().Sub(waitStart))

	rec, err := s.ledger.LoadProfile(ctx, userID)
	if err != nil {
		s.metrics.RecordLedgerError("load_profile")
		return ResolvedView{}, fmt.Errorf("failed to read profile: %w", err)
	}
	balanceBefore, err := s.ledger.FetchBalance(ctx, userID)
	if err != nil {
		s.metrics.RecordLedgerError("fetch_balance")
		return ResolvedView{}, fmt.Errorf("failed to read balance: %w", err)
	}
	before := rec.ToProfile(balanceBefore)

	chance := engine.SuccessChance(before, cfg, mg)
	after, outcome := engine.ResolveSolo(s.rng, before, cfg, mg)

	balanceAfter, err := s.ledger.SettleHeist(ctx, models.NewHeistSettlement(after, cfg, mg, outcome))
	if err != nil {
		s.metrics.RecordLedgerError("settle_heist")
		return ResolvedView{}, fmt.Errorf("failed to apply heist result: %w", err)
	}
	after.Balance = balanceAfter
	s.store.Save(after)

	mode, risk := cfg.Resolved()
	s.metrics.RecordResolution(string(mode), string(risk), outcome.Success, outcome.AmountFinal, chance)

	view := ResolvedView{
		Outcome:       outcome,
		Config:        cfg,
		Minigame:      mg,
		Before:        before,
		After:         after,
		NewlyUnlocked: engine.NewlyUnlocked(before.PP, after.PP),
		Chance:        chance,
	}
	if err := sess.Finish(view, s.now()); err != nil {
		return ResolvedView{}, err
	}

	log.Info().
		Int64("user_id", userID).
		Str("mode", string(mode)).
		Str("risk", string(risk)).
		Bool("success", outcome.Success).
		Int64("amount", outcome.AmountFinal).
		Int64("balance", balanceAfter).
		Msg("heist resolved")
	return view, nil
}
