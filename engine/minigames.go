package engine

import "unicode"

// QTETargetMs is the ideal reaction time of the QTE.
const QTETargetMs = 1200

// Minimum QTE window after bonuses.
const minQTEWindowMs = 40

// SimonAlphabet is the symbol set of the sequence check.
var SimonAlphabet = []rune{'A', 'B', 'C', 'D'}

// Simon sequence length bounds after item and heat deltas.
const (
	MinSimonLength = 3
	MaxSimonLength = 8
)

// Simon reveal window bounds in milliseconds.
const (
	MinSimonPreviewMs = 500
	MaxSimonPreviewMs = 12000
)

// QTESpecFor sizes the reaction window by risk. The window never drops below 40ms.
func QTESpecFor(risk Risk, windowBonusMs int) QTESpec {
	var base int
	switch risk {
	case RiskLow:
		base = 220
	case RiskHigh:
		base = 100
	case RiskHardcore:
		base = 70
	default:
		base = 150
	}
	window := base + windowBonusMs
	if window < minQTEWindowMs {
		window = minQTEWindowMs
	}
	return QTESpec{TargetMs: QTETargetMs, WindowMs: window}
}

// ScoreQTE grades a reaction: within the window is a success, within twice the
// window a partial, anything further a fail.
func ScoreQTE(elapsedMs int, spec QTESpec) MinigameResult {
	diff := elapsedMs - spec.TargetMs
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff <= spec.WindowMs:
		return Succeeded
	case diff <= spec.WindowMs*2:
		return Partial(diff)
	default:
		return Failed
	}
}

// SimonSpecFor sizes the sequence by risk plus lengthDelta, clamped to [3, 8].
func SimonSpecFor(risk Risk, lengthDelta int) SimonSpec {
	base := 4 + risk.Tier()
	return SimonSpec{
		Length:   clampI(base+lengthDelta, MinSimonLength, MaxSimonLength),
		Alphabet: SimonAlphabet,
	}
}

// GenSimonSeq samples spec.Length symbols independently and uniformly.
func GenSimonSeq(rng RandomSource, spec SimonSpec) []rune {
	alphabet := spec.Alphabet
	if len(alphabet) == 0 {
		alphabet = SimonAlphabet
	}
	seq := make([]rune, spec.Length)
	for i := range seq {
		seq[i] = alphabet[rng.IntN(len(alphabet))]
	}
	return seq
}

// CheckSimonStep compares one input symbol against the expected one, ignoring case.
func CheckSimonStep(expected, got rune) bool {
	return unicode.ToUpper(expected) == unicode.ToUpper(got)
}

// SimonPreviewMs is how long a full reveal of a length-symbol sequence stays
// on screen. timeMult is the loadout's SimonTimeMult.
func SimonPreviewMs(risk Risk, length int, timeMult float64) int {
	var perChar float64
	switch risk {
	case RiskLow:
		perChar = 950
	case RiskHigh:
		perChar = 550
	case RiskHardcore:
		perChar = 380
	default:
		perChar = 750
	}
	if timeMult <= 0 {
		timeMult = 1
	}
	total := roundInt(perChar*timeMult) * length
	return clampI(total, MinSimonPreviewMs, MaxSimonPreviewMs)
}

// SimonRevealsFor is the number of extra reveals granted after the initial one.
func SimonRevealsFor(risk Risk) int {
	switch risk {
	case RiskLow:
		return 2
	case RiskMedium:
		return 1
	}
	return 0
}
