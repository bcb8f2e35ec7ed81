package models

import (
	"fmt"
	"strings"
	"time"

	"heist-bot/engine"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ProfileRecord is the persisted heist progression of one player
type ProfileRecord struct {
	UserID     int64     `json:"user_id" validate:"required"`
	Heat       int64     `json:"heat"`
	PP         int64     `json:"pp" validate:"gte=0"`
	ThiefSkill int64     `json:"thief_skill" validate:"gte=0,lte=50"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// NewProfileRecord returns the row inserted for a player seen for the first time.
func NewProfileRecord(userID int64) ProfileRecord {
	return ProfileRecord{UserID: userID, ThiefSkill: engine.DefaultThiefSkill}
}

// Validate checks the record against the column constraints
func (r ProfileRecord) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid profile %d: %w", r.UserID, err)
	}
	return nil
}

// ToProfile joins the record with a ledger balance.
func (r ProfileRecord) ToProfile(balance int64) engine.PlayerProfile {
	skill := r.ThiefSkill
	if skill < 0 {
		skill = 0
	}
	if skill > engine.MaxThiefSkill {
		skill = engine.MaxThiefSkill
	}
	pp := r.PP
	if pp < 0 {
		pp = 0
	}
	return engine.PlayerProfile{
		UserID:     r.UserID,
		Balance:    balance,
		Heat:       r.Heat,
		ThiefSkill: uint32(skill),
		PP:         uint32(pp),
	}
}

// ProfileRecordFrom drops the balance, which lives in the users table.
func ProfileRecordFrom(p engine.PlayerProfile) ProfileRecord {
	return ProfileRecord{
		UserID:     p.UserID,
		Heat:       p.Heat,
		PP:         int64(p.PP),
		ThiefSkill: int64(p.ThiefSkill),
	}
}

// CrimeSettings holds the last /crime configuration of a player so the next
// session starts from it. Empty Mode and Risk mean "not chosen".
type CrimeSettings struct {
	UserID    int64     `json:"user_id" validate:"required"`
	Mode      string    `json:"mode,omitempty" validate:"omitempty,oneof=standard szybki ostrozny shadow hardcore ryzykowny planowany szalony"`
	Risk      string    `json:"risk,omitempty" validate:"omitempty,oneof=low medium high hardcore"`
	Loadout   []string  `json:"loadout" validate:"max=3,unique,dive,oneof=laptop gloves toolkit adrenaline smoke lockpick"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the settings against the known keys
func (s CrimeSettings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid crime settings for %d: %w", s.UserID, err)
	}
	return nil
}

// ToConfig decodes the stored keys. Unknown items are dropped, duplicates are
// collapsed and the loadout is truncated to engine.MaxLoadout.
func (s CrimeSettings) ToConfig() engine.SoloHeistConfig {
	cfg := engine.SoloHeistConfig{Minigame: engine.MinigameSimon}
	if strings.TrimSpace(s.Mode) != "" {
		cfg.Mode = engine.ParseCrimeMode(s.Mode)
	}
	if strings.TrimSpace(s.Risk) != "" {
		cfg.Risk = engine.ParseRisk(s.Risk)
	}

	seen := make(map[engine.ItemKey]bool, len(s.Loadout))
	for _, raw := range s.Loadout {
		if len(cfg.Items) >= engine.MaxLoadout {
			break
		}
		k, ok := engine.ParseItemKey(raw)
		if !ok || seen[k] {
			continue
		}
		seen[k] = true
		cfg.Items = append(cfg.Items, k)
	}
	return cfg
}

// SettingsFromConfig encodes cfg for persistence.
func SettingsFromConfig(userID int64, cfg engine.SoloHeistConfig) CrimeSettings {
	loadout := make([]string, 0, len(cfg.Items))
	for _, it := range cfg.Items {
		loadout = append(loadout, string(it))
	}
	return CrimeSettings{
		UserID:  userID,
		Mode:    string(cfg.Mode),
		Risk:    string(cfg.Risk),
		Loadout: loadout,
	}
}

// ActionLog is a row of the audit log table.
type ActionLog struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Action      string    `json:"action"`
	TargetID    *int64    `json:"target_id,omitempty"`
	Amount      *int64    `json:"amount,omitempty"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CrimeAction is the audit action name of a resolved heist.
const CrimeAction = "crime"

// NewCrimeLog builds the audit entry for one resolution.
func NewCrimeLog(userID int64, cfg engine.SoloHeistConfig, mg engine.MinigameResult, out engine.HeistOutcome) ActionLog {
	amount := out.AmountFinal
	mode, risk := cfg.Resolved()
	verdict := "fail"
	if out.Success {
		verdict = "success"
	}
	return ActionLog{
		UserID: userID,
		Action: CrimeAction,
		Amount: &amount,
		Description: fmt.Sprintf("solo %s mode=%s risk=%s mg=%s heat=%+d items=%d",
			verdict, mode, risk, mg, out.HeatDelta, len(cfg.Items)),
	}
}

// HeistSettlement is everything one resolution writes: the balance delta, the
// new progression and the audit row. Ledgers apply it in one transaction.
type HeistSettlement struct {
	Profile ProfileRecord
	Delta   int64
	Log     ActionLog
}

// NewHeistSettlement builds the settlement for a resolved heist.
func NewHeistSettlement(after engine.PlayerProfile, cfg engine.SoloHeistConfig, mg engine.MinigameResult, out engine.HeistOutcome) HeistSettlement {
	return HeistSettlement{
		Profile: ProfileRecordFrom(after),
		Delta:   out.AmountFinal,
		Log:     NewCrimeLog(after.UserID, cfg, mg, out),
	}
}

// Validate checks the profile part and that the log belongs to the same player
func (s HeistSettlement) Validate() error {
	if err := s.Profile.Validate(); err != nil {
		return err
	}
	if s.Log.UserID != s.Profile.UserID {
		return fmt.Errorf("settlement log user %d does not match profile %d", s.Log.UserID, s.Profile.UserID)
	}
	return nil
}
