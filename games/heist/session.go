package heist

import (
	"errors"
	"sync"
	"time"

	"heist-bot/engine"

	"github.com/google/uuid"
)

// State is the phase of a solo heist session
type State int

const (
	StateConfig State = iota
	StateInMinigame
	StateResolved
)

func (s State) String() string {
	switch s {
	case StateInMinigame:
		return "in_minigame"
	case StateResolved:
		return "resolved"
	}
	return "config"
}

var (
	ErrNotConfiguring     = errors.New("heist is not being configured")
	ErrIncompleteConfig   = errors.New("pick a mode and a risk first")
	ErrNotInMinigame      = errors.New("no minigame in progress")
	ErrRevealActive       = errors.New("sequence is already on screen")
	ErrNoRevealsLeft      = errors.New("no reveals left")
	ErrMinigameInProgress = errors.New("minigame has no result yet")
	ErrResetInMinigame    = errors.New("cannot reset during the minigame")
)

// showMsPerSymbol is the fixed reveal pace of the simon_show shortcut
const showMsPerSymbol = 800

// ResolvedView is everything the outcome report shows
type ResolvedView struct {
	Outcome       engine.HeistOutcome
	Config        engine.SoloHeistConfig
	Minigame      engine.MinigameResult
	Before        engine.PlayerProfile
	After         engine.PlayerProfile
	NewlyUnlocked []engine.ItemKey
	Chance        float64
}

// Session is one player's solo heist. Callers hold the session lock around
// every operation; the methods themselves do not lock.
type Session struct {
	mu sync.Mutex

	ID     string
	UserID int64
	State  State

	// Config is the draft edited in StateConfig.
	Config engine.SoloHeistConfig
	// Snapshot is frozen at Start and is what gets resolved.
	Snapshot engine.SoloHeistConfig

	Spec        engine.SimonSpec
	Seq         []rune
	Cursor      int
	Result      *engine.MinigameResult
	RevealUntil time.Time
	RevealsLeft int

	View *ResolvedView

	UpdatedAt time.Time
}

func NewSession(userID int64, now time.Time) *Session {
	return &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		State:     StateConfig,
		UpdatedAt: now,
	}
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

func (s *Session) touch(now time.Time) { s.UpdatedAt = now }

func (s *Session) SelectMode(mode engine.CrimeMode, now time.Time) error {
	if s.State != StateConfig {
		return ErrNotConfiguring
	}
	s.Config.Mode = mode
	s.touch(now)
	return nil
}

func (s *Session) SelectRisk(risk engine.Risk, now time.Time) error {
	if s.State != StateConfig {
		return ErrNotConfiguring
	}
	s.Config.Risk = risk
	s.touch(now)
	return nil
}

// SelectItems replaces the loadout with the first unlocked, distinct values, up to MaxLoadout
func (s *Session) SelectItems(values []string, pp uint32, now time.Time) error {
	if s.State != StateConfig {
		return ErrNotConfiguring
	}
	picked := make([]engine.ItemKey, 0, engine.MaxLoadout)
	seen := make(map[engine.ItemKey]bool, len(values))
	for _, v := range values {
		if len(picked) >= engine.MaxLoadout {
			break
		}
		key, ok := engine.ParseItemKey(v)
		if !ok || seen[key] || !engine.IsUnlocked(key, pp) {
			continue
		}
		seen[key] = true
		picked = append(picked, key)
	}
	s.Config.Items = picked
	s.touch(now)
	return nil
}

// ToggleItem adds or removes one item. Adding to a full bag or adding a
// locked item is a no-op.
func (s *Session) ToggleItem(key engine.ItemKey, pp uint32, now time.Time) error {
	if s.State != StateConfig {
		return ErrNotConfiguring
	}
	for i, it := range s.Config.Items {
		if it == key {
			s.Config.Items = append(s.Config.Items[:i:i], s.Config.Items[i+1:]...)
			s.touch(now)
			return nil
		}
	}
	if len(s.Config.Items) < engine.MaxLoadout && engine.IsUnlocked(key, pp) {
		s.Config.Items = append(s.Config.Items, key)
	}
	s.touch(now)
	return nil
}

// CanStart reports whether both mode and risk were picked
func (s *Session) CanStart() bool {
	return s.Config.Mode != "" && s.Config.Risk != ""
}

// Start freezes the config, generates the Simon sequence and opens the
// first reveal window.
func (s *Session) Start(rng engine.RandomSource, now time.Time) error {
	if s.State != StateConfig {
		return ErrNotConfiguring
	}
	if !s.CanStart() {
		return ErrIncompleteConfig
	}

	s.Config.Minigame = engine.MinigameSimon
	s.Snapshot = s.Config.Clone()
	effects := engine.Aggregate(s.Snapshot.Items)
	risk := s.Snapshot.Risk

	s.Spec = engine.SimonSpecFor(risk, effects.SimonSeqDelta)
	s.Seq = engine.GenSimonSeq(rng, s.Spec)
	s.Cursor = 0
	s.Result = nil
	s.RevealsLeft = engine.SimonRevealsFor(risk)
	s.RevealUntil = now.Add(s.previewDuration(effects.SimonTimeMult))
	s.View = nil
	s.State = StateInMinigame
	s.touch(now)
	return nil
}

func (s *Session) previewDuration(timeMult float64) time.Duration {
	ms := engine.SimonPreviewMs(s.Snapshot.Risk, len(s.Seq), timeMult)
	return time.Duration(ms) * time.Millisecond
}

// RevealActive reports whether the full sequence is currently on screen
func (s *Session) RevealActive(now time.Time) bool {
	return s.State == StateInMinigame && now.Before(s.RevealUntil)
}

// RevealRemaining is how long the current reveal still lasts
func (s *Session) RevealRemaining(now time.Time) time.Duration {
	if !s.RevealActive(now) {
		return 0
	}
	return s.RevealUntil.Sub(now)
}

// Reveal spends one extra reveal and returns how long the sequence stays
// visible. Extra reveals run at the base pace; the loadout time bonus only
// stretches the opening preview.
func (s *Session) Reveal(now time.Time) (time.Duration, error) {
	if s.State != StateInMinigame {
		return 0, ErrNotInMinigame
	}
	if s.RevealActive(now) {
		return 0, ErrRevealActive
	}
	if s.RevealsLeft <= 0 {
		return 0, ErrNoRevealsLeft
	}
	d := s.previewDuration(1)
	s.RevealsLeft--
	s.RevealUntil = now.Add(d)
	s.touch(now)
	return d, nil
}

// Show is the quick reveal shortcut at a flat pace. It does nothing once the
// minigame has a result or no reveals are left.
func (s *Session) Show(now time.Time) (time.Duration, bool) {
	if s.State != StateInMinigame || s.Result != nil || s.RevealsLeft <= 0 {
		return 0, false
	}
	d := time.Duration(showMsPerSymbol*len(s.Seq)) * time.Millisecond
	s.RevealsLeft--
	s.RevealUntil = now.Add(d)
	s.touch(now)
	return d, true
}

// PressKey feeds one symbol. It returns false when the press was ignored:
// outside the minigame, while the sequence is on screen, or after a result.
func (s *Session) PressKey(key rune, now time.Time) bool {
	if s.State != StateInMinigame {
		return false
	}
	if s.RevealActive(now) {
		return false
	}
	s.RevealUntil = time.Time{}
	if s.Result != nil {
		return false
	}
	s.touch(now)

	if s.Cursor >= len(s.Seq) {
		s.setResult(engine.Succeeded)
		return true
	}
	if !engine.CheckSimonStep(s.Seq[s.Cursor], key) {
		s.setResult(engine.Failed)
		return true
	}
	s.Cursor++
	if s.Cursor >= len(s.Seq) {
		s.setResult(engine.Succeeded)
	}
	return true
}

func (s *Session) setResult(r engine.MinigameResult) {
	s.Result = &r
}

// MinigameResult returns the scored result, if any
func (s *Session) MinigameResult() (engine.MinigameResult, bool) {
	if s.Result == nil {
		return engine.NotPlayed, false
	}
	return *s.Result, true
}

// CanResolve reports whether Finish would be accepted
func (s *Session) CanResolve() bool {
	return s.State == StateInMinigame && s.Result != nil
}

// Finish moves a scored minigame into the resolved state
func (s *Session) Finish(view ResolvedView, now time.Time) error {
	if !s.CanResolve() {
		return ErrMinigameInProgress
	}
	s.View = &view
	s.State = StateResolved
	s.touch(now)
	return nil
}

// Reset clears everything back to an empty config
func (s *Session) Reset(now time.Time) error {
	if s.State == StateInMinigame {
		return ErrResetInMinigame
	}
	s.State = StateConfig
	s.Config = engine.SoloHeistConfig{}
	s.Snapshot = engine.SoloHeistConfig{}
	s.Spec = engine.SimonSpec{}
	s.Seq = nil
	s.Cursor = 0
	s.Result = nil
	s.RevealUntil = time.Time{}
	s.RevealsLeft = 0
	s.View = nil
	s.touch(now)
	return nil
}

// SessionManager holds the open session of each player
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[int64]*Session)}
}

// Get returns the open session of userID
func (m *SessionManager) Get(userID int64) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[userID]
	return s, ok
}

// GetOrCreate returns the open session or atomically inserts a fresh one
func (m *SessionManager) GetOrCreate(userID int64, now time.Time) *Session {
	if s, ok := m.Get(userID); ok {
		return s
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		return s
	}
	s := NewSession(userID, now)
	m.sessions[userID] = s
	return s
}

// Replace installs s as the player's session, dropping any previous one
func (m *SessionManager) Replace(s *Session) {
	m.mu.Lock()
	m.sessions[s.UserID] = s
	m.mu.Unlock()
}

func (m *SessionManager) Remove(userID int64) {
	m.mu.Lock()
	delete(m.sessions, userID)
	m.mu.Unlock()
}

func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep drops sessions idle for longer than maxAge. Sessions busy with an
// interaction are skipped until the next pass.
func (m *SessionManager) Sweep(now time.Time, maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if !s.mu.TryLock() {
			continue
		}
		idle := now.Sub(s.UpdatedAt) > maxAge
		s.mu.Unlock()
		if idle {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}
