package engine

// ItemMeta is one row of the compiled-in item catalog.
type ItemMeta struct {
	Key        ItemKey
	Name       string
	Emoji      string
	RequiredPP uint32
	Blurb      string
}

// Catalog is ordered by unlock threshold.
var Catalog = []ItemMeta{
	{Key: ItemLockpickSet, Name: "Zestaw wytrychów", Emoji: "🗝️", RequiredPP: 0, Blurb: "Simon -1 symbol"},
	{Key: ItemProGloves, Name: "Rękawice PRO", Emoji: "🧤", RequiredPP: 5, Blurb: "Simon -1 symbol, time ×1.05"},
	{Key: ItemToolkit, Name: "Zestaw narzędzi", Emoji: "🧰", RequiredPP: 10, Blurb: "+5% payout"},
	{Key: ItemSmokeGrenade, Name: "Granat dymny", Emoji: "💨", RequiredPP: 15, Blurb: "-8% heat, timers +5%"},
	{Key: ItemHackerLaptop, Name: "Laptop hakera", Emoji: "💻", RequiredPP: 22, Blurb: "window ×1.10, +40 ms"},
	{Key: ItemAdrenaline, Name: "Adrenalina", Emoji: "💉", RequiredPP: 30, Blurb: "window/time up, fail penalty -10%, heat +5%"},
}

func lookupItem(key ItemKey) (ItemMeta, bool) {
	for _, meta := range Catalog {
		if meta.Key == key {
			return meta, true
		}
	}
	return ItemMeta{}, false
}

// ItemName returns the display name, or the raw key for unknown items.
func ItemName(key ItemKey) string {
	if meta, ok := lookupItem(key); ok {
		return meta.Name
	}
	return string(key)
}

// ItemEmoji returns the catalog emoji for key.
func ItemEmoji(key ItemKey) string {
	if meta, ok := lookupItem(key); ok {
		return meta.Emoji
	}
	return "❔"
}

// RequiredPP returns the unlock threshold. Unknown items are never unlocked.
func RequiredPP(key ItemKey) (uint32, bool) {
	meta, ok := lookupItem(key)
	return meta.RequiredPP, ok
}

// IsUnlocked reports whether a player with pp progress points may carry key.
func IsUnlocked(key ItemKey, pp uint32) bool {
	req, ok := RequiredPP(key)
	return ok && pp >= req
}

// AvailableItems returns the unlocked items in catalog order.
func AvailableItems(pp uint32) []ItemKey {
	out := make([]ItemKey, 0, len(Catalog))
	for _, meta := range Catalog {
		if pp >= meta.RequiredPP {
			out = append(out, meta.Key)
		}
	}
	return out
}

// NewlyUnlocked returns the items unlocked by moving from before to after pp.
func NewlyUnlocked(before, after uint32) []ItemKey {
	var out []ItemKey
	for _, meta := range Catalog {
		if meta.RequiredPP > before && meta.RequiredPP <= after {
			out = append(out, meta.Key)
		}
	}
	return out
}

// ItemEffects is the combined modifier bundle of a loadout.
type ItemEffects struct {
	QTEWindowMult  float64 `json:"qte_window_mult"`
	QTEGraceMs     int     `json:"qte_grace_ms"`
	SimonSeqDelta  int     `json:"simon_seq_delta"`
	SimonTimeMult  float64 `json:"simon_time_mult"`
	TimerExtendPct float64 `json:"timer_extend_pct"`
	HeatReducePct  float64 `json:"heat_reduce_pct"`
	PayoutBonusPct float64 `json:"payout_bonus_pct"`
	SuccessPPBonus float64 `json:"success_pp_bonus"`
	HeatMult       float64 `json:"heat_mult"`
	FailPenaltyMul float64 `json:"fail_penalty_mult"`
}

// NeutralEffects is the identity of Aggregate.
func NeutralEffects() ItemEffects {
	return ItemEffects{
		QTEWindowMult:  1.0,
		SimonTimeMult:  1.0,
		HeatMult:       1.0,
		FailPenaltyMul: 1.0,
	}
}

// Aggregate folds the contribution of every item and clamps each field.
// Unknown keys contribute nothing.
func Aggregate(items []ItemKey) ItemEffects {
	e := NeutralEffects()
	for _, it := range items {
		switch it {
		case ItemHackerLaptop:
			e.QTEGraceMs += 40
			e.QTEWindowMult *= 1.10
		case ItemProGloves:
			e.SimonSeqDelta--
			e.SimonTimeMult *= 1.05
		case ItemToolkit:
			e.PayoutBonusPct += 0.05
		case ItemAdrenaline:
			e.QTEWindowMult *= 1.05
			e.SimonTimeMult *= 1.08
			e.FailPenaltyMul *= 0.9
			e.HeatMult *= 1.05
		case ItemSmokeGrenade:
			e.HeatReducePct += 0.08
			e.TimerExtendPct += 0.05
		case ItemLockpickSet:
			e.SimonSeqDelta--
		}
	}
	return e.clamped()
}

func (e ItemEffects) clamped() ItemEffects {
	e.QTEWindowMult = clampF(e.QTEWindowMult, 0.9, 1.5)
	e.QTEGraceMs = clampI(e.QTEGraceMs, 0, 120)
	e.SimonSeqDelta = clampI(e.SimonSeqDelta, -2, 0)
	e.SimonTimeMult = clampF(e.SimonTimeMult, 1.0, 1.3)
	e.TimerExtendPct = clampF(e.TimerExtendPct, 0, 0.25)
	e.HeatReducePct = clampF(e.HeatReducePct, 0, 0.15)
	e.PayoutBonusPct = clampF(e.PayoutBonusPct, 0, 0.15)
	e.SuccessPPBonus = clampF(e.SuccessPPBonus, 0, 0.15)
	e.HeatMult = clampF(e.HeatMult, 0.8, 1.2)
	e.FailPenaltyMul = clampF(e.FailPenaltyMul, 0.7, 1.2)
	return e
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampI(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
