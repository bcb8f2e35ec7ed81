package heist

import (
	"fmt"
	"strings"
	"time"

	"heist-bot/engine"
	"heist-bot/utils"

	"github.com/bwmarrin/discordgo"
)

// Render picks the view for the session's current state
func Render(sess *Session, profile engine.PlayerProfile, now time.Time) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	switch sess.State {
	case StateInMinigame:
		return renderSimon(sess, now)
	case StateResolved:
		if sess.View != nil {
			return renderOutcome(*sess.View)
		}
	}
	return renderConfig(sess.Config, profile)
}

func renderConfig(cfg engine.SoloHeistConfig, p engine.PlayerProfile) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	hasMode, hasRisk := cfg.Mode != "", cfg.Risk != ""

	steps := strings.Join([]string{
		chipStep("1️⃣ Mode", hasMode),
		chipStep("2️⃣ Risk", hasRisk),
		chipStep(fmt.Sprintf("3️⃣ Loadout %d / %d", len(cfg.Items), engine.MaxLoadout), len(cfg.Items) > 0),
		chipStep("4️⃣ Start", hasMode && hasRisk),
	}, "  ")

	description := fmt.Sprintf("**Solo heist planner**\n%s\n\n**Preset**  %s • %s • %s\n**Bag**  %s",
		steps, modeChip(cfg.Mode), riskChip(cfg.Risk), simonChip(), bagBar(len(cfg.Items), engine.MaxLoadout))

	forecast, preview := "—", "—"
	if hasMode && hasRisk {
		lo, hi := engine.RewardRange(cfg.Mode, cfg.Risk)
		spec := engine.SimonSpecFor(cfg.Risk, engine.Aggregate(cfg.Items).SimonSeqDelta)
		forecast = fmt.Sprintf("Base chance: **%.0f%%**\nLoot range: **%s–%s**\nIf you ace Simon: **%.0f%%**\nHeat %d: %s",
			engine.BaseChance(cfg.Mode, cfg.Risk),
			utils.FormatNumber(lo), utils.FormatNumber(hi),
			engine.SuccessChance(p, cfg, engine.Succeeded),
			p.Heat,
			engine.FormatHeatSummary(engine.ComputeHeatEffects(cfg.Mode, cfg.Risk, p.Heat)))
		preview = fmt.Sprintf("🧠 Simon • Length **%d** • Alphabet **%d**", spec.Length, len(spec.Alphabet))
	}

	embed := utils.CreateBrandedEmbed("🧭 Heist plan: setup", description, utils.ColorConfig)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "🔮 Forecast", Value: forecast, Inline: true},
		{Name: "🕹️ Minigame preview", Value: preview, Inline: true},
		{Name: fmt.Sprintf("🎒 Loadout (max %d)", engine.MaxLoadout), Value: itemLines(cfg.Items)},
	}

	components := []discordgo.MessageComponent{
		utils.CreateActionRow(modeSelect(cfg.Mode)),
		utils.CreateActionRow(riskButtons(cfg.Risk)...),
		utils.CreateActionRow(itemSelect(p.PP, cfg.Items)),
		utils.CreateActionRow(
			utils.CreateButton(CustomID(ActionStart), "🚀 Start heist", discordgo.SuccessButton, !(hasMode && hasRisk), nil),
			utils.CreateButton(CustomID(ActionReset), "♻️ Reset", discordgo.SecondaryButton, false, nil),
		),
	}
	return embed, components
}

func modeSelect(current engine.CrimeMode) discordgo.MessageComponent {
	options := make([]discordgo.SelectMenuOption, 0, len(engine.AllModes))
	for _, m := range engine.AllModes {
		options = append(options, discordgo.SelectMenuOption{
			Label:   m.Label(),
			Value:   string(m),
			Emoji:   &discordgo.ComponentEmoji{Name: modeEmoji(m)},
			Default: m == current,
		})
	}
	one := 1
	return utils.CreateSelectMenu(CustomID(ActionMode), "Pick a mode", options, &one, &one)
}

func riskButtons(current engine.Risk) []discordgo.MessageComponent {
	buttons := make([]discordgo.MessageComponent, 0, len(engine.AllRisks))
	for _, r := range engine.AllRisks {
		style := discordgo.SecondaryButton
		if r == current {
			style = discordgo.PrimaryButton
		}
		buttons = append(buttons, utils.CreateButton(CustomID(ActionRisk, string(r)), r.Label(), style, false,
			&discordgo.ComponentEmoji{Name: riskEmoji(r)}))
	}
	return buttons
}

func itemSelect(pp uint32, chosen []engine.ItemKey) discordgo.MessageComponent {
	picked := make(map[engine.ItemKey]bool, len(chosen))
	for _, k := range chosen {
		picked[k] = true
	}

	available := engine.AvailableItems(pp)
	options := make([]discordgo.SelectMenuOption, 0, len(available))
	for _, k := range available {
		options = append(options, discordgo.SelectMenuOption{
			Label:       engine.ItemName(k),
			Value:       string(k),
			Description: itemBlurb(k),
			Emoji:       &discordgo.ComponentEmoji{Name: engine.ItemEmoji(k)},
			Default:     picked[k],
		})
	}
	zero, most := 0, min(engine.MaxLoadout, len(options))
	return utils.CreateSelectMenu(CustomID(ActionItemSelect), "Pack up to 3 items", options, &zero, &most)
}

func renderSimon(sess *Session, now time.Time) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	total := len(sess.Seq)
	hit := min(sess.Cursor, total)
	revealing := sess.RevealActive(now)
	result, scored := sess.MinigameResult()

	status := "🕹️ `IN PROGRESS`"
	switch {
	case revealing:
		status = "👁️ `REVEAL`"
	case scored && result.Outcome == engine.MinigameSuccess:
		status = "✅ `SUCCESS`"
	case scored && result.Outcome == engine.MinigameFail:
		status = "❌ `FAILED`"
	case scored && result.Outcome == engine.MinigamePartial:
		status = "🟡 `PARTIAL`"
	}

	symbols := make([]string, total)
	for i, c := range sess.Seq {
		if revealing || i < hit {
			symbols[i] = fmt.Sprintf("`%c`", c)
		} else {
			symbols[i] = "`?`"
		}
	}
	shown := "—"
	if total > 0 {
		shown = strings.Join(symbols, " ")
	}

	hud := fmt.Sprintf("`Length:` **%d**   •   `Alphabet:` **%d**\n`Progress:` **%d/%d**   •   %s\n`Track:` %s",
		sess.Spec.Length, len(sess.Spec.Alphabet), hit, total, status, utils.ProgressBar(hit, total))
	if revealing {
		hud += fmt.Sprintf("\n`Hides in:` %s", utils.FormatDuration(sess.RevealRemaining(now).Round(100*time.Millisecond)))
	}

	title, color := "🧠 Simon Says: repeat the sequence", utils.ColorProgress
	if scored {
		switch result.Outcome {
		case engine.MinigameSuccess:
			title, color = "🧠 Simon Says: nailed it!", utils.ColorSuccess
		case engine.MinigameFail:
			title, color = "🧠 Simon Says: wrong key", utils.ColorFailure
		}
	}

	embed := utils.CreateBrandedEmbed(title, "", color)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "HUD", Value: hud},
		{Name: "Sequence", Value: shown},
	}
	embed.Footer.Text = "Press the keys below in the right order."

	alphabet := sess.Spec.Alphabet
	if len(alphabet) == 0 {
		alphabet = engine.SimonAlphabet
	}
	keys := make([]discordgo.MessageComponent, 0, len(alphabet))
	for _, c := range alphabet {
		keys = append(keys, utils.CreateButton(CustomID(ActionSimonKey, string(c)), string(c), discordgo.SecondaryButton, scored, nil))
	}

	components := utils.ChunkRows(keys)
	components = append(components, utils.CreateActionRow(
		utils.CreateButton(CustomID(ActionSimonReveal), fmt.Sprintf("👁️ Show sequence (%d)", sess.RevealsLeft),
			discordgo.SecondaryButton, sess.RevealsLeft <= 0 || revealing, nil),
		utils.CreateButton(CustomID(ActionResolve), "✅ Resolve heist", discordgo.PrimaryButton, !sess.CanResolve(), nil),
		utils.CreateButton(CustomID(ActionReset), "↩️ Setup", discordgo.SecondaryButton, true, nil),
	))
	return embed, components
}

func renderOutcome(v ResolvedView) (*discordgo.MessageEmbed, []discordgo.MessageComponent) {
	success := v.Outcome.Success

	newly := "—"
	if len(v.NewlyUnlocked) > 0 {
		lines := make([]string, 0, len(v.NewlyUnlocked))
		for _, k := range v.NewlyUnlocked {
			lines = append(lines, "🎁 "+engine.ItemName(k))
		}
		newly = strings.Join(lines, "\n")
	}

	summary := fmt.Sprintf("**Setup**  %s • %s • %s\n**Result**  %s\n**Chance**  %.0f%%\n**Items**\n%s",
		modeChip(v.Config.Mode), riskChip(v.Config.Risk), simonChip(), medal(success, v.Minigame), v.Chance, itemLines(v.Config.Items))

	finance := fmt.Sprintf("```\nLoot       %s\nBalance    %s → %s (%s)\n```",
		utils.FormatSigned(v.Outcome.AmountFinal),
		utils.FormatNumber(v.Before.Balance),
		utils.FormatNumber(v.After.Balance),
		utils.FormatSigned(v.After.Balance-v.Before.Balance))

	heatBefore, heatAfter := clampHeat(v.Before.Heat), clampHeat(v.After.Heat)
	heat := fmt.Sprintf("```\n%3d%%  %s\n  ↓\n%3d%%  %s\n```",
		heatBefore, utils.Bar10(heatBefore), heatAfter, utils.Bar10(heatAfter))

	progress := fmt.Sprintf("```\nPP      %3d → %3d (%+d)\nSkill   %3d → %3d (%+d)\nSimon   %s\n```",
		v.Before.PP, v.After.PP, int64(v.After.PP)-int64(v.Before.PP),
		v.Before.ThiefSkill, v.After.ThiefSkill, int64(v.After.ThiefSkill)-int64(v.Before.ThiefSkill),
		v.Minigame)

	title, color := "💥 FAILED: heist report", utils.ColorFailure
	if success {
		title, color = "🏆 SUCCESS: heist report", utils.ColorSuccess
	}

	embed := utils.CreateBrandedEmbed(title, summary, color)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "💰 Loot / Balance", Value: finance, Inline: true},
		{Name: "🔥 Heat", Value: heat, Inline: true},
		{Name: "📈 Progress", Value: progress, Inline: true},
		{Name: "🎁 Newly unlocked", Value: newly},
	}
	embed.Footer.Text = "Use the button below to play again."

	components := []discordgo.MessageComponent{
		utils.CreateActionRow(utils.CreateButton(CustomID(ActionReset), "🔁 Play again", discordgo.SuccessButton, false, nil)),
	}
	return embed, components
}

// ProfileEmbed is the /crime profile card
func ProfileEmbed(user *discordgo.User, p engine.PlayerProfile) *discordgo.MessageEmbed {
	names := make([]string, 0, len(engine.Catalog))
	for _, k := range engine.AvailableItems(p.PP) {
		names = append(names, engine.ItemEmoji(k)+" "+engine.ItemName(k))
	}
	unlocked := "—"
	if len(names) > 0 {
		unlocked = strings.Join(names, ", ")
	}

	title := "🧾 Heist profile"
	if user != nil {
		title += ": " + user.Username
	}
	embed := utils.CreateBrandedEmbed(title, "", utils.ColorNeutral)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Balance", Value: utils.FormatCoins(p.Balance), Inline: true},
		{Name: "Heat", Value: fmt.Sprintf("%d %s", p.Heat, utils.Bar10(clampHeat(p.Heat))), Inline: true},
		{Name: "Skill", Value: fmt.Sprintf("%d/%d", p.ThiefSkill, engine.MaxThiefSkill), Inline: true},
		{Name: "PP", Value: fmt.Sprintf("%d", p.PP), Inline: true},
		{Name: "Unlocked items", Value: unlocked},
	}
	return embed
}

// SummaryLine is the one-liner posted to the log channel
func SummaryLine(userID int64, v ResolvedView) string {
	verdict := "failed"
	if v.Outcome.Success {
		verdict = "pulled off"
	}
	return fmt.Sprintf("🕵️ <@%d> %s a %s / %s heist: %s %s",
		userID, verdict, v.Config.Mode.Label(), v.Config.Risk.Label(), utils.FormatSigned(v.Outcome.AmountFinal), utils.CurrencyEmoji)
}

func medal(success bool, mg engine.MinigameResult) string {
	switch {
	case success && mg.Outcome == engine.MinigameSuccess:
		return "🏅 **Gold**"
	case success && mg.Outcome == engine.MinigamePartial:
		return "🥈 **Silver**"
	case success:
		return "🥉 **Bronze**"
	case mg.Outcome == engine.MinigameSuccess || mg.Outcome == engine.MinigamePartial:
		return "🧯 **Clutch**"
	}
	return "💤 —"
}

func chipStep(label string, done bool) string {
	if done {
		return label + " ✅"
	}
	return label + " ⬜"
}

func bagBar(cur, total int) string {
	cur = max(0, min(total, cur))
	return fmt.Sprintf("🎒 [%s%s] %d/%d", strings.Repeat("▰", cur), strings.Repeat("▱", total-cur), cur, total)
}

func modeChip(m engine.CrimeMode) string {
	if m == "" {
		return "`—`"
	}
	return fmt.Sprintf("`%s` %s", m.Label(), modeEmoji(m))
}

func riskChip(r engine.Risk) string {
	if r == "" {
		return "`—`"
	}
	return fmt.Sprintf("`%s` %s", r.Label(), riskEmoji(r))
}

func simonChip() string { return "`Simon` 🧠" }

func itemLines(items []engine.ItemKey) string {
	if len(items) == 0 {
		return "—"
	}
	lines := make([]string, 0, len(items))
	for _, k := range items {
		lines = append(lines, fmt.Sprintf("%s %s: %s", engine.ItemEmoji(k), engine.ItemName(k), itemBlurb(k)))
	}
	return strings.Join(lines, "\n")
}

func itemBlurb(k engine.ItemKey) string {
	for _, meta := range engine.Catalog {
		if meta.Key == k {
			return meta.Blurb
		}
	}
	return ""
}

func clampHeat(h int64) int64 { return max(0, min(100, h)) }

func riskEmoji(r engine.Risk) string {
	switch r {
	case engine.RiskLow:
		return "🟢"
	case engine.RiskMedium:
		return "🟡"
	case engine.RiskHigh:
		return "🟠"
	case engine.RiskHardcore:
		return "🔴"
	}
	return "❔"
}

func modeEmoji(m engine.CrimeMode) string {
	switch m {
	case engine.ModeStandard:
		return "⚙️"
	case engine.ModeSzybki:
		return "⚡"
	case engine.ModeOstrozny:
		return "👣"
	case engine.ModeShadow:
		return "🌑"
	case engine.ModeHardcore:
		return "🔥"
	case engine.ModeRyzykowny:
		return "🎲"
	case engine.ModePlanowany:
		return "🗺️"
	case engine.ModeSzalony:
		return "🤪"
	}
	return "❔"
}
