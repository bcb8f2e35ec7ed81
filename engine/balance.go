package engine

import (
	"fmt"
	"math"
	"strings"
)

// BaseChance returns the success chance in percentage points before skill,
// items and the minigame are applied. Always within [5, 95].
func BaseChance(mode CrimeMode, risk Risk) float64 {
	var r float64
	switch risk {
	case RiskLow:
		r = 62
	case RiskHigh:
		r = 42
	case RiskHardcore:
		r = 32
	default:
		r = 52
	}
	return clampF(r+modeChanceBump(mode), 5, 95)
}

func modeChanceBump(mode CrimeMode) float64 {
	switch mode {
	case ModeSzybki:
		return -3
	case ModeOstrozny:
		return 3
	case ModeShadow:
		return 2
	case ModeHardcore:
		return -6
	case ModeRyzykowny:
		return -4
	case ModePlanowany:
		return 4
	case ModeSzalony:
		return -8
	}
	return 0
}

// RewardRange returns the inclusive payout bounds for a heist.
func RewardRange(mode CrimeMode, risk Risk) (int64, int64) {
	var lo, hi int64
	switch risk {
	case RiskLow:
		lo, hi = 300, 600
	case RiskHigh:
		lo, hi = 1200, 2400
	case RiskHardcore:
		lo, hi = 2400, 4200
	default:
		lo, hi = 600, 1200
	}
	pct := modeRewardPct(mode)
	return lo * pct / 100, hi * pct / 100
}

// modeRewardPct is the mode payout bump in whole percent.
func modeRewardPct(mode CrimeMode) int64 {
	switch mode {
	case ModePlanowany, ModeShadow:
		return 115
	case ModeOstrozny:
		return 105
	case ModeRyzykowny:
		return 110
	case ModeSzybki:
		return 95
	case ModeHardcore:
		return 120
	case ModeSzalony:
		return 125
	}
	return 100
}

// HeatGain is the base heat charged for one attempt at the given risk.
func HeatGain(risk Risk) int64 {
	switch risk {
	case RiskLow:
		return 4
	case RiskHigh:
		return 10
	case RiskHardcore:
		return 14
	}
	return 7
}

// HeatEffects is the difficulty escalation caused by accumulated heat.
// Multipliers below 1 make the heist harder.
type HeatEffects struct {
	ChanceMult        float64 `json:"chance_mult"`
	RewardMult        float64 `json:"reward_mult"`
	QTEWindowMult     float64 `json:"qte_window_mult"`
	SimonSeqDelta     int     `json:"simon_seq_delta"`
	ExtraCooldownSecs int     `json:"extra_cooldown_secs"`
	AmbushChancePct   int     `json:"ambush_chance_pct"`
}

// Caps applied to the scaled integer effects.
const (
	MaxExtraCooldownSecs = 60
	MaxAmbushChancePct   = 100
)

func baseHeatEffects(heat int64) HeatEffects {
	h := heat
	if h > 100 {
		h = 100
	}
	switch {
	case h <= 24:
		return HeatEffects{ChanceMult: 1.00, RewardMult: 1.00, QTEWindowMult: 1.00}
	case h <= 49:
		return HeatEffects{ChanceMult: 0.95, RewardMult: 0.95, QTEWindowMult: 0.95}
	case h <= 74:
		return HeatEffects{ChanceMult: 0.90, RewardMult: 0.90, QTEWindowMult: 0.85, SimonSeqDelta: 1, ExtraCooldownSecs: 2}
	case h <= 89:
		return HeatEffects{ChanceMult: 0.80, RewardMult: 0.85, QTEWindowMult: 0.75, SimonSeqDelta: 2, ExtraCooldownSecs: 5}
	default:
		return HeatEffects{ChanceMult: 0.65, RewardMult: 0.75, QTEWindowMult: 0.60, SimonSeqDelta: 3, ExtraCooldownSecs: 10, AmbushChancePct: 20}
	}
}

// riskFactor weights how hard heat bites at each tier.
func riskFactor(risk Risk) float64 {
	switch risk {
	case RiskLow:
		return 0.70
	case RiskHigh:
		return 1.25
	case RiskHardcore:
		return 1.50
	}
	return 1.00
}

type modeScale struct {
	all    float64 // chance, reward, window, cooldown
	simon  float64
	ambush float64
}

func modeScaleFor(mode CrimeMode) modeScale {
	switch mode {
	case ModeSzybki:
		return modeScale{all: 1.10, simon: 1.00, ambush: 1.10}
	case ModeOstrozny:
		return modeScale{all: 0.85, simon: 0.85, ambush: 0.85}
	case ModeShadow:
		return modeScale{all: 0.90, simon: 0.90, ambush: 0.50}
	case ModeHardcore:
		return modeScale{all: 1.60, simon: 1.30, ambush: 1.60}
	case ModeRyzykowny:
		return modeScale{all: 1.25, simon: 1.15, ambush: 1.40}
	case ModePlanowany:
		return modeScale{all: 0.90, simon: 0.85, ambush: 0.90}
	case ModeSzalony:
		return modeScale{all: 1.40, simon: 1.25, ambush: 1.50}
	}
	return modeScale{all: 1, simon: 1, ambush: 1}
}

// mixMult scales the penalty part of a multiplier (1 - mult) by rf*ms.
func mixMult(baseMult, rf, ms float64) float64 {
	penalty := math.Max(1-baseMult, 0)
	scaled := clampF(penalty*rf*ms, 0, 0.95)
	return clampF(1-scaled, 0.05, 1.25)
}

// ComputeHeatEffects combines the heat band with the risk and mode weights.
// Negative heat counts as zero.
func ComputeHeatEffects(mode CrimeMode, risk Risk, heat int64) HeatEffects {
	base := baseHeatEffects(heat)
	rf := riskFactor(risk)
	ms := modeScaleFor(mode)

	cd := int(math.Round(float64(base.ExtraCooldownSecs) * rf * ms.all))
	if cd > MaxExtraCooldownSecs {
		cd = MaxExtraCooldownSecs
	}
	ambush := int(math.Round(float64(base.AmbushChancePct) * rf * ms.ambush))
	if ambush > MaxAmbushChancePct {
		ambush = MaxAmbushChancePct
	}

	return HeatEffects{
		ChanceMult:        mixMult(base.ChanceMult, rf, ms.all),
		RewardMult:        mixMult(base.RewardMult, rf, ms.all),
		QTEWindowMult:     mixMult(base.QTEWindowMult, rf, ms.all),
		SimonSeqDelta:     int(math.Round(float64(base.SimonSeqDelta) * rf * ms.simon)),
		ExtraCooldownSecs: cd,
		AmbushChancePct:   ambush,
	}
}

// FormatHeatSummary renders the effects as a one-line embed field.
func FormatHeatSummary(e HeatEffects) string {
	parts := []string{
		fmt.Sprintf("Chance ×%.2f", e.ChanceMult),
		fmt.Sprintf("Loot ×%.2f", e.RewardMult),
		fmt.Sprintf("QTE window ×%.2f", e.QTEWindowMult),
	}
	if e.SimonSeqDelta != 0 {
		parts = append(parts, fmt.Sprintf("Simon +%d", e.SimonSeqDelta))
	}
	if e.ExtraCooldownSecs > 0 {
		parts = append(parts, fmt.Sprintf("+%ds CD", e.ExtraCooldownSecs))
	}
	if e.AmbushChancePct > 0 {
		parts = append(parts, fmt.Sprintf("Ambush %d%%", e.AmbushChancePct))
	}
	return strings.Join(parts, " • ")
}
