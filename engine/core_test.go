package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func veteran() PlayerProfile {
	return PlayerProfile{UserID: 1, ThiefSkill: 50, PP: 0, Heat: 0, Balance: 1000}
}

func TestResolveSoloSuccessScenario(t *testing.T) {
	cfg := SoloHeistConfig{Mode: ModeStandard, Risk: RiskMedium}
	assert.Equal(t, 85.0, SuccessChance(veteran(), cfg, Succeeded))

	// roll 50 against 85, reward 600+300
	rng := &scriptedRNG{floats: []float64{0.50}, ints: []int{300}}
	after, out := ResolveSolo(rng, veteran(), cfg, Succeeded)

	assert.True(t, out.Success)
	assert.Equal(t, int64(900), out.AmountBase)
	assert.Equal(t, int64(900), out.AmountFinal)
	assert.Equal(t, int64(7), out.HeatDelta)

	assert.Equal(t, int64(1900), after.Balance)
	assert.Equal(t, int64(7), after.Heat)
	assert.Equal(t, uint32(1), after.PP)
	assert.Equal(t, uint32(50), after.ThiefSkill)
}

func TestResolveSoloFailureScenario(t *testing.T) {
	cfg := SoloHeistConfig{Mode: ModeStandard, Risk: RiskMedium}
	assert.Equal(t, 45.0, SuccessChance(veteran(), cfg, Failed))

	rng := &scriptedRNG{floats: []float64{0.90}, ints: []int{300}}
	after, out := ResolveSolo(rng, veteran(), cfg, Failed)

	assert.False(t, out.Success)
	assert.Equal(t, int64(-315), out.AmountBase)
	assert.Equal(t, int64(-315), out.AmountFinal)
	assert.Equal(t, int64(9), out.HeatDelta)

	assert.Equal(t, int64(685), after.Balance)
	assert.Equal(t, int64(9), after.Heat)
	assert.Equal(t, uint32(0), after.PP)
	assert.Equal(t, uint32(50), after.ThiefSkill)
}

func TestResolveSoloRollBoundary(t *testing.T) {
	cfg := SoloHeistConfig{Mode: ModeStandard, Risk: RiskMedium}

	// draw equal to the chance fails
	_, out := ResolveSolo(&scriptedRNG{floats: []float64{0.45}}, veteran(), cfg, Failed)
	assert.False(t, out.Success)

	_, out = ResolveSolo(&scriptedRNG{floats: []float64{0.4499}}, veteran(), cfg, Failed)
	assert.True(t, out.Success)
}

func TestResolveSoloAppliesItemEffects(t *testing.T) {
	cfg := SoloHeistConfig{Mode: ModeStandard, Risk: RiskMedium, Items: []ItemKey{ItemAdrenaline}}

	// reward 1000: penalty 1000*0.35*0.9, heat 7*1.05 rounds to 7, +2 on failure
	_, out := ResolveSolo(&scriptedRNG{floats: []float64{0.99}, ints: []int{400}}, veteran(), cfg, Failed)
	assert.Equal(t, int64(-315), out.AmountFinal)
	assert.Equal(t, int64(9), out.HeatDelta)

	hard := SoloHeistConfig{Mode: ModeStandard, Risk: RiskHardcore, Items: []ItemKey{ItemAdrenaline}}
	_, out = ResolveSolo(&scriptedRNG{floats: []float64{0}}, veteran(), hard, Succeeded)
	assert.True(t, out.Success)
	assert.Equal(t, int64(15), out.HeatDelta)
	assert.Equal(t, int64(2400), out.AmountFinal)
}

func TestResolveSoloDefaultsModeAndRisk(t *testing.T) {
	explicit := SoloHeistConfig{Mode: ModeStandard, Risk: RiskMedium}
	implicit := SoloHeistConfig{}

	assert.Equal(t, SuccessChance(veteran(), explicit, Partial(50)), SuccessChance(veteran(), implicit, Partial(50)))

	a, outA := ResolveSolo(NewSeededRNG(3), veteran(), explicit, Partial(50))
	b, outB := ResolveSolo(NewSeededRNG(3), veteran(), implicit, Partial(50))
	assert.Equal(t, a, b)
	assert.Equal(t, outA, outB)
}

func TestSuccessChanceMinigameContribution(t *testing.T) {
	p := NewPlayerProfile(7) // skill 5 adds 1.5
	cfg := SoloHeistConfig{Mode: ModeStandard, Risk: RiskMedium}

	assert.InDelta(t, 53.5+18, SuccessChance(p, cfg, Succeeded), 1e-9)
	assert.InDelta(t, 53.5+12, SuccessChance(p, cfg, Partial(0)), 1e-9)
	assert.InDelta(t, 53.5+6, SuccessChance(p, cfg, Partial(150)), 1e-9)
	assert.InDelta(t, 53.5, SuccessChance(p, cfg, Partial(300)), 1e-9)
	assert.InDelta(t, 53.5, SuccessChance(p, cfg, Partial(900)), 1e-9)
	assert.InDelta(t, 53.5-22, SuccessChance(p, cfg, Failed), 1e-9)
	assert.InDelta(t, 53.5-10, SuccessChance(p, cfg, NotPlayed), 1e-9)
}

func TestSuccessBeatsFailForEveryConfig(t *testing.T) {
	for _, mode := range AllModes {
		for _, risk := range AllRisks {
			for _, skill := range []uint32{0, 5, 25, 50} {
				p := PlayerProfile{ThiefSkill: skill}
				cfg := SoloHeistConfig{Mode: mode, Risk: risk}
				win := SuccessChance(p, cfg, Succeeded)
				lose := SuccessChance(p, cfg, Failed)
				assert.Greater(t, win, lose, "%s/%s/%d", mode, risk, skill)
				assert.GreaterOrEqual(t, lose, 1.0)
				assert.LessOrEqual(t, win, 99.0)
			}
		}
	}
}

func TestResolveSoloProgressBounds(t *testing.T) {
	rng := NewSeededRNG(2024)
	p := PlayerProfile{UserID: 9, ThiefSkill: 45}
	results := []MinigameResult{Succeeded, Partial(80), Failed, NotPlayed}

	for i := 0; i < 400; i++ {
		cfg := SoloHeistConfig{
			Mode: AllModes[i%len(AllModes)],
			Risk: AllRisks[i%len(AllRisks)],
		}
		before := p
		var out HeistOutcome
		p, out = ResolveSolo(rng, p, cfg, results[i%len(results)])

		require.GreaterOrEqual(t, p.ThiefSkill, before.ThiefSkill)
		require.LessOrEqual(t, p.ThiefSkill, uint32(MaxThiefSkill))
		require.GreaterOrEqual(t, p.PP, before.PP)
		if out.Success {
			require.Equal(t, before.PP+1, p.PP)
			require.Positive(t, out.AmountFinal)
		} else {
			require.Equal(t, before.PP, p.PP)
			require.Negative(t, out.AmountFinal)
		}
		require.Equal(t, before.Balance+out.AmountFinal, p.Balance)
		require.Equal(t, before.Heat+out.HeatDelta, p.Heat)
		require.Equal(t, out.AmountBase, out.AmountFinal)
		require.Equal(t, p.UserID, before.UserID)
	}
	assert.Equal(t, uint32(MaxThiefSkill), p.ThiefSkill)
}

func TestResolveSoloIsDeterministic(t *testing.T) {
	cfg := SoloHeistConfig{Mode: ModeSzalony, Risk: RiskHigh, Items: []ItemKey{ItemToolkit, ItemSmokeGrenade}}
	p := PlayerProfile{UserID: 5, ThiefSkill: 12, PP: 16, Heat: 40, Balance: -200}

	a, outA := ResolveSolo(NewSeededRNG(77), p, cfg, Partial(120))
	b, outB := ResolveSolo(NewSeededRNG(77), p, cfg, Partial(120))
	assert.Equal(t, a, b)
	assert.Equal(t, outA, outB)
}

func TestResolveSoloPPSaturates(t *testing.T) {
	p := PlayerProfile{PP: ^uint32(0), ThiefSkill: 50}
	after, out := ResolveSolo(&scriptedRNG{floats: []float64{0}}, p, SoloHeistConfig{}, Succeeded)
	require.True(t, out.Success)
	assert.Equal(t, ^uint32(0), after.PP)
}
