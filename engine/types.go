package engine

import (
	"fmt"
	"strings"
)

// CrimeMode is the play style chosen for a heist. The string value is the
// persisted key; an empty value means the mode has not been chosen yet.
type CrimeMode string

const (
	ModeStandard  CrimeMode = "standard"
	ModeSzybki    CrimeMode = "szybki"
	ModeOstrozny  CrimeMode = "ostrozny"
	ModeShadow    CrimeMode = "shadow"
	ModeHardcore  CrimeMode = "hardcore"
	ModeRyzykowny CrimeMode = "ryzykowny"
	ModePlanowany CrimeMode = "planowany"
	ModeSzalony   CrimeMode = "szalony"
)

// AllModes lists every mode in display order.
var AllModes = []CrimeMode{
	ModeStandard, ModeSzybki, ModeOstrozny, ModeShadow,
	ModeHardcore, ModeRyzykowny, ModePlanowany, ModeSzalony,
}

// Label returns the display name of the mode
func (m CrimeMode) Label() string {
	switch m {
	case ModeStandard:
		return "Standard"
	case ModeSzybki:
		return "Szybki"
	case ModeOstrozny:
		return "Ostrożny"
	case ModeShadow:
		return "Shadow"
	case ModeHardcore:
		return "Hardcore"
	case ModeRyzykowny:
		return "Ryzykowny"
	case ModePlanowany:
		return "Planowany"
	case ModeSzalony:
		return "Szalony"
	}
	return "—"
}

// ParseCrimeMode decodes a persisted mode key. Unknown keys fall back to Standard.
func ParseCrimeMode(key string) CrimeMode {
	m := CrimeMode(strings.ToLower(strings.TrimSpace(key)))
	for _, known := range AllModes {
		if m == known {
			return m
		}
	}
	return ModeStandard
}

// Risk is the risk tier of a heist, ordered Low < Medium < High < Hardcore.
type Risk string

const (
	RiskLow      Risk = "low"
	RiskMedium   Risk = "medium"
	RiskHigh     Risk = "high"
	RiskHardcore Risk = "hardcore"
)

// AllRisks lists every risk tier in ascending order.
var AllRisks = []Risk{RiskLow, RiskMedium, RiskHigh, RiskHardcore}

// Tier returns the 0-based order of the risk tier. Unknown values rank as Medium.
func (r Risk) Tier() int {
	switch r {
	case RiskLow:
		return 0
	case RiskHigh:
		return 2
	case RiskHardcore:
		return 3
	}
	return 1
}

// Label returns the display name of the risk tier
func (r Risk) Label() string {
	switch r {
	case RiskLow:
		return "Low"
	case RiskMedium:
		return "Medium"
	case RiskHigh:
		return "High"
	case RiskHardcore:
		return "Hardcore"
	}
	return "—"
}

// ParseRisk decodes a persisted risk key. Unknown keys fall back to Medium.
func ParseRisk(key string) Risk {
	r := Risk(strings.ToLower(strings.TrimSpace(key)))
	for _, known := range AllRisks {
		if r == known {
			return r
		}
	}
	return RiskMedium
}

// MinigameKind selects which skill check runs before resolution.
type MinigameKind string

const (
	MinigameQTE   MinigameKind = "qte"
	MinigameSimon MinigameKind = "simon"
)

// MinigameOutcome is the terminal state of a skill check.
type MinigameOutcome int

const (
	MinigameNotPlayed MinigameOutcome = iota
	MinigameSuccess
	MinigamePartial
	MinigameFail
)

// MinigameResult is a scored skill check. Diff is the distance from the ideal
// (milliseconds for the QTE) and is only meaningful for MinigamePartial.
type MinigameResult struct {
	Outcome MinigameOutcome `json:"outcome"`
	Diff    int             `json:"diff,omitempty"`
}

// Convenience constructors
var (
	NotPlayed = MinigameResult{Outcome: MinigameNotPlayed}
	Succeeded = MinigameResult{Outcome: MinigameSuccess}
	Failed    = MinigameResult{Outcome: MinigameFail}
)

// Partial returns a partial result at the given distance from the ideal.
func Partial(diff int) MinigameResult {
	if diff < 0 {
		diff = -diff
	}
	return MinigameResult{Outcome: MinigamePartial, Diff: diff}
}

func (r MinigameResult) String() string {
	switch r.Outcome {
	case MinigameSuccess:
		return "Success"
	case MinigamePartial:
		return fmt.Sprintf("Partial(%d)", r.Diff)
	case MinigameFail:
		return "Fail"
	}
	return "NotPlayed"
}

// ItemKey identifies an item from the fixed catalog. The string value is the
// key stored in a persisted loadout.
type ItemKey string

const (
	ItemHackerLaptop ItemKey = "laptop"
	ItemProGloves    ItemKey = "gloves"
	ItemToolkit      ItemKey = "toolkit"
	ItemAdrenaline   ItemKey = "adrenaline"
	ItemSmokeGrenade ItemKey = "smoke"
	ItemLockpickSet  ItemKey = "lockpick"
)

// ParseItemKey decodes a persisted item key.
func ParseItemKey(key string) (ItemKey, bool) {
	k := ItemKey(strings.ToLower(strings.TrimSpace(key)))
	for _, meta := range Catalog {
		if meta.Key == k {
			return k, true
		}
	}
	return "", false
}

// MaxLoadout is the number of items a single heist may carry.
const MaxLoadout = 3

// MaxThiefSkill caps PlayerProfile.ThiefSkill.
const MaxThiefSkill = 50

// DefaultThiefSkill is the skill of a freshly created profile.
const DefaultThiefSkill = 5

// PlayerProfile is the durable per-player heist aggregate.
type PlayerProfile struct {
	UserID     int64  `json:"user_id"`
	Balance    int64  `json:"balance"`
	Heat       int64  `json:"heat"`
	ThiefSkill uint32 `json:"thief_skill"`
	PP         uint32 `json:"pp"`
}

// NewPlayerProfile returns the profile of a player seen for the first time.
func NewPlayerProfile(userID int64) PlayerProfile {
	return PlayerProfile{UserID: userID, ThiefSkill: DefaultThiefSkill}
}

// SoloHeistConfig describes one attempt. Empty Mode/Risk resolve to
// Standard/Medium. Items are expected to be at most MaxLoadout distinct,
// unlocked keys; that is the caller's job to enforce.
type SoloHeistConfig struct {
	Mode     CrimeMode    `json:"mode,omitempty"`
	Risk     Risk         `json:"risk,omitempty"`
	Minigame MinigameKind `json:"minigame"`
	Items    []ItemKey    `json:"items"`
}

// Resolved returns the mode and risk with defaults applied
func (c SoloHeistConfig) Resolved() (CrimeMode, Risk) {
	mode, risk := c.Mode, c.Risk
	if mode == "" {
		mode = ModeStandard
	}
	if risk == "" {
		risk = RiskMedium
	}
	return mode, risk
}

// Clone returns a copy that does not share the item slice.
func (c SoloHeistConfig) Clone() SoloHeistConfig {
	out := c
	out.Items = append([]ItemKey(nil), c.Items...)
	return out
}

// HeistOutcome is the result of one resolution. AmountBase and AmountFinal are
// identical for now; AmountFinal is the delta actually applied to the balance.
type HeistOutcome struct {
	Success     bool  `json:"success"`
	AmountBase  int64 `json:"amount_base"`
	AmountFinal int64 `json:"amount_final"`
	HeatDelta   int64 `json:"heat_delta"`
}

// QTESpec sizes a reaction-timing check.
type QTESpec struct {
	TargetMs int `json:"target_ms"`
	WindowMs int `json:"window_ms"`
}

// SimonSpec sizes a sequence-reproduction check.
type SimonSpec struct {
	Length   int    `json:"length"`
	Alphabet []rune `json:"alphabet"`
}
