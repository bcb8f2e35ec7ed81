package models

import (
	"testing"

	"heist-bot/engine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProfileRecordDefaults(t *testing.T) {
	r := NewProfileRecord(10)
	assert.Equal(t, int64(engine.DefaultThiefSkill), r.ThiefSkill)
	require.NoError(t, r.Validate())

	p := r.ToProfile(250)
	assert.Equal(t, engine.PlayerProfile{UserID: 10, Balance: 250, ThiefSkill: 5}, p)
}

func TestProfileRecordRoundTrip(t *testing.T) {
	p := engine.PlayerProfile{UserID: 3, Balance: 999, Heat: 42, ThiefSkill: 17, PP: 8}
	r := ProfileRecordFrom(p)
	assert.Equal(t, p, r.ToProfile(999))
}

func TestProfileRecordToProfileClampsColumns(t *testing.T) {
	r := ProfileRecord{UserID: 1, PP: -4, ThiefSkill: 90}
	p := r.ToProfile(0)
	assert.Equal(t, uint32(0), p.PP)
	assert.Equal(t, uint32(engine.MaxThiefSkill), p.ThiefSkill)
	assert.Error(t, r.Validate())
}

func TestCrimeSettingsValidate(t *testing.T) {
	tests := []struct {
		name    string
		s       CrimeSettings
		wantErr bool
	}{
		{"empty", CrimeSettings{UserID: 1}, false},
		{"full", CrimeSettings{UserID: 1, Mode: "shadow", Risk: "high", Loadout: []string{"laptop", "smoke"}}, false},
		{"bad mode", CrimeSettings{UserID: 1, Mode: "sneaky"}, true},
		{"bad risk", CrimeSettings{UserID: 1, Risk: "extreme"}, true},
		{"bad item", CrimeSettings{UserID: 1, Loadout: []string{"rocket"}}, true},
		{"too many", CrimeSettings{UserID: 1, Loadout: []string{"laptop", "smoke", "gloves", "toolkit"}}, true},
		{"duplicate", CrimeSettings{UserID: 1, Loadout: []string{"smoke", "smoke"}}, true},
		{"no user", CrimeSettings{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.s.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCrimeSettingsToConfig(t *testing.T) {
	s := CrimeSettings{
		UserID:  1,
		Mode:    "Planowany",
		Risk:    "low",
		Loadout: []string{"smoke", "rocket", "smoke", "gloves", "laptop", "toolkit"},
	}
	cfg := s.ToConfig()
	assert.Equal(t, engine.ModePlanowany, cfg.Mode)
	assert.Equal(t, engine.RiskLow, cfg.Risk)
	assert.Equal(t, engine.MinigameSimon, cfg.Minigame)
	assert.Equal(t, []engine.ItemKey{engine.ItemSmokeGrenade, engine.ItemProGloves, engine.ItemHackerLaptop}, cfg.Items)

	unset := CrimeSettings{UserID: 1}.ToConfig()
	assert.Empty(t, unset.Mode)
	assert.Empty(t, unset.Risk)
	assert.Empty(t, unset.Items)
}

func TestSettingsFromConfig(t *testing.T) {
	cfg := engine.SoloHeistConfig{
		Mode:  engine.ModeShadow,
		Risk:  engine.RiskHardcore,
		Items: []engine.ItemKey{engine.ItemLockpickSet, engine.ItemAdrenaline},
	}
	s := SettingsFromConfig(77, cfg)
	assert.Equal(t, CrimeSettings{UserID: 77, Mode: "shadow", Risk: "hardcore", Loadout: []string{"lockpick", "adrenaline"}}, s)
	require.NoError(t, s.Validate())

	back := s.ToConfig()
	assert.Equal(t, cfg.Mode, back.Mode)
	assert.Equal(t, cfg.Risk, back.Risk)
	assert.Equal(t, cfg.Items, back.Items)
}

func TestNewCrimeLog(t *testing.T) {
	cfg := engine.SoloHeistConfig{Mode: engine.ModeSzybki, Risk: engine.RiskHigh, Items: []engine.ItemKey{engine.ItemToolkit}}
	out := engine.HeistOutcome{Success: false, AmountBase: -120, AmountFinal: -120, HeatDelta: 12}

	entry := NewCrimeLog(5, cfg, engine.Failed, out)
	assert.Equal(t, CrimeAction, entry.Action)
	require.NotNil(t, entry.Amount)
	assert.Equal(t, int64(-120), *entry.Amount)
	assert.Equal(t, "solo fail mode=szybki risk=high mg=Fail heat=+12 items=1", entry.Description)
}

func TestNewHeistSettlement(t *testing.T) {
	after := engine.PlayerProfile{UserID: 7, Balance: 1200, Heat: 14, ThiefSkill: 6, PP: 2}
	cfg := engine.SoloHeistConfig{Mode: engine.ModeStandard, Risk: engine.RiskLow}
	out := engine.HeistOutcome{Success: true, AmountFinal: 200, HeatDelta: 4}

	s := NewHeistSettlement(after, cfg, engine.Succeeded, out)
	require.NoError(t, s.Validate())
	assert.Equal(t, int64(200), s.Delta)
	assert.Equal(t, ProfileRecordFrom(after), s.Profile)
	assert.Equal(t, int64(7), s.Log.UserID)
	require.NotNil(t, s.Log.Amount)
	assert.Equal(t, int64(200), *s.Log.Amount)

	s.Log.UserID = 8
	assert.Error(t, s.Validate())
}
