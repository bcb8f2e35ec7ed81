package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// CreateBrandedEmbed creates a basic embed with bot branding
func CreateBrandedEmbed(title, description string, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Timestamp:   time.Now().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: FooterText,
		},
	}
}

// BalanceEmbed shows the ledger balance of a user
func BalanceEmbed(user *discordgo.User, balance int64) *discordgo.MessageEmbed {
	embed := CreateBrandedEmbed("💰 Balance", fmt.Sprintf("**%s**", FormatCoins(balance)), BotColor)
	if user != nil {
		embed.Author = &discordgo.MessageEmbedAuthor{Name: user.Username, IconURL: user.AvatarURL("64")}
	}
	return embed
}

// FormatCoins renders an amount with the currency emoji
func FormatCoins(amount int64) string {
	return FormatNumber(amount) + " " + CurrencyEmoji
}

// FormatNumber adds thousands separators: 1234567 -> 1,234,567
func FormatNumber(num int64) string {
	sign := ""
	if num < 0 {
		sign = "-"
	}
	str := strconv.FormatUint(absU(num), 10)
	if len(str) <= 3 {
		return sign + str
	}

	var result strings.Builder
	result.WriteString(sign)
	for i, r := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(r)
	}
	return result.String()
}

// FormatSigned is FormatNumber with an explicit plus on positive values
func FormatSigned(num int64) string {
	if num > 0 {
		return "+" + FormatNumber(num)
	}
	return FormatNumber(num)
}

func absU(n int64) uint64 {
	if n < 0 {
		return uint64(-(n + 1)) + 1
	}
	return uint64(n)
}

// Bar10 is a ten-cell gauge of a 0..100 value, rounding up partial cells
func Bar10(v int64) string {
	v = max(0, min(100, v))
	filled := int((v*10 + 99) / 100)
	return strings.Repeat("▰", filled) + strings.Repeat("▱", 10-filled)
}

// ProgressBar renders "[▰▰▱▱] done/total" with one cell per step
func ProgressBar(done, total int) string {
	if total <= 0 {
		return "[] 0/0"
	}
	done = max(0, min(total, done))
	return fmt.Sprintf("[%s%s] %d/%d", strings.Repeat("▰", done), strings.Repeat("▱", total-done), done, total)
}

// FormatDuration renders short durations as "1.5s" and longer ones as "2m 5s"
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return strconv.FormatFloat(d.Seconds(), 'f', -1, 64) + "s"
	}
	m := int(d / time.Minute)
	s := int((d % time.Minute) / time.Second)
	if s == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dm %ds", m, s)
}
