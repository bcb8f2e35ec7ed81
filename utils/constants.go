package utils

// Branding
const (
	BotName    = "Heist Club"
	BotColor   = 0x5865F2
	FooterText = BotName + " • /crime"
)

// Currency
const CurrencyEmoji = "🪙"

// Embed colors
const (
	ColorConfig   = 0x3b82f6
	ColorProgress = 0xf39c12
	ColorSuccess  = 0x2ecc71
	ColorFailure  = 0xe74c3c
	ColorNeutral  = 0x95a5a6
)

// UI Messages
const (
	SessionExpiredMessage = "This heist expired. Run `/crime start` again."
	TryAgainMessage       = "Something went wrong, try again in a moment."
)
