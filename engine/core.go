package engine

import "math"

// Resolution constants.
const (
	skillChanceMax     = 15.0
	mgSuccessBonus     = 18.0
	mgPartialMaxBonus  = 12.0
	mgPartialFalloff   = 25.0
	mgFailPenalty      = -22.0
	mgNotPlayedPenalty = -10.0
	failPenaltyRatio   = 0.35
	failExtraHeat      = 2
)

// SuccessChance is the final clamped chance in [1, 99] percentage points
// that ResolveSolo rolls against.
func SuccessChance(profile PlayerProfile, cfg SoloHeistConfig, mg MinigameResult) float64 {
	mode, risk := cfg.Resolved()
	effects := Aggregate(cfg.Items)

	chance := BaseChance(mode, risk)
	chance += float64(profile.ThiefSkill) / MaxThiefSkill * skillChanceMax
	chance += effects.SuccessPPBonus
	chance += minigameBonus(mg)
	return clampF(chance, 1, 99)
}

func minigameBonus(mg MinigameResult) float64 {
	switch mg.Outcome {
	case MinigameSuccess:
		return mgSuccessBonus
	case MinigamePartial:
		return clampF(mgPartialMaxBonus-float64(mg.Diff)/mgPartialFalloff, 0, mgPartialMaxBonus)
	case MinigameFail:
		return mgFailPenalty
	}
	return mgNotPlayedPenalty
}

// ResolveSolo rolls one heist and returns the mutated profile with the outcome.
// It never fails; the loadout is not re-validated here.
func ResolveSolo(rng RandomSource, profile PlayerProfile, cfg SoloHeistConfig, mg MinigameResult) (PlayerProfile, HeistOutcome) {
	mode, risk := cfg.Resolved()
	effects := Aggregate(cfg.Items)

	chance := SuccessChance(profile, cfg, mg)
	roll := rng.Float64() * 100
	success := roll < chance

	// drawn regardless of success, the failure penalty scales off it too
	minR, maxR := RewardRange(mode, risk)
	reward := rangeInclusive(rng, minR, maxR)

	heat := int64(math.Round(float64(HeatGain(risk)) * effects.HeatMult))

	out := HeistOutcome{Success: success}
	if success {
		out.AmountBase = reward
		out.AmountFinal = reward
		out.HeatDelta = heat
	} else {
		penalty := int64(math.Round(float64(reward) * failPenaltyRatio * effects.FailPenaltyMul))
		out.AmountBase = -penalty
		out.AmountFinal = -penalty
		out.HeatDelta = heat + failExtraHeat
	}

	profile.Balance += out.AmountFinal
	profile.Heat += out.HeatDelta
	if profile.ThiefSkill < MaxThiefSkill {
		profile.ThiefSkill++
	}
	if success && profile.PP < math.MaxUint32 {
		profile.PP++
	}
	return profile, out
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
