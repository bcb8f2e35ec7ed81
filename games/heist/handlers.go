package heist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"heist-bot/engine"
	"heist-bot/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// Handler is the Discord surface of the solo heist
type Handler struct {
	ctx          context.Context
	svc          *Service
	sessions     *SessionManager
	metrics      *utils.HeistMetrics
	logChannelID string
	now          func() time.Time
}

// NewHandler wires the /crime handlers. ctx bounds every delayed message edit.
func NewHandler(ctx context.Context, svc *Service, sessions *SessionManager, metrics *utils.HeistMetrics, logChannelID string) *Handler {
	return &Handler{
		ctx:          ctx,
		svc:          svc,
		sessions:     sessions,
		metrics:      metrics,
		logChannelID: logChannelID,
		now:          time.Now,
	}
}

// RegisterCrimeCommand registers the /crime command
func RegisterCrimeCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "crime",
		Description: "Plan and pull off a solo heist.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "start",
				Description: "Open the heist planner",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "profile",
				Description: "Show your heat, skill, pp and unlocked gear",
			},
		},
	}
}

// RegisterBalanceCommand registers the /balance command
func RegisterBalanceCommand() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "balance",
		Description: "Show your coin balance.",
	}
}

// HandleCrimeCommand handles the /crime slash command
func (h *Handler) HandleCrimeCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	uid, err := utils.GetUserIDFromInteraction(i)
	if err != nil {
		log.Warn().Err(err).Msg("crime command without user")
		return
	}

	sub := "start"
	if opts := i.ApplicationCommandData().Options; len(opts) > 0 {
		sub = opts[0].Name
	}

	switch sub {
	case "profile":
		h.showProfile(s, i, uid)
	default:
		h.startSolo(s, i, uid)
	}
}

func (h *Handler) startSolo(s *discordgo.Session, i *discordgo.InteractionCreate, uid int64) {
	ctx, cancel := context.WithTimeout(h.ctx, 5*time.Second)
	defer cancel()

	p, err := h.svc.LoadPlayer(ctx, uid)
	if err != nil {
		log.Error().Err(err).Int64("user_id", uid).Msg("failed to load player, using cached profile")
	}

	now := h.now()
	sess := NewSession(uid, now)
	if cfg, ok, err := h.svc.LastSettings(ctx, uid); err != nil {
		log.Warn().Err(err).Int64("user_id", uid).Msg("failed to load crime settings")
	} else if ok {
		sess.Config = cfg
		sess.Config.Minigame = engine.MinigameSimon
	}
	h.sessions.Replace(sess)
	h.metrics.SetActiveSessions(h.sessions.Count())

	sess.Lock()
	embed, components := Render(sess, p, now)
	sess.Unlock()
	_ = utils.SendInteractionResponse(s, i, embed, components, true)
}

func (h *Handler) showProfile(s *discordgo.Session, i *discordgo.InteractionCreate, uid int64) {
	ctx, cancel := context.WithTimeout(h.ctx, 5*time.Second)
	defer cancel()

	p, err := h.svc.LoadPlayer(ctx, uid)
	if err != nil {
		log.Error().Err(err).Int64("user_id", uid).Msg("failed to load player profile")
	}
	_ = utils.SendInteractionResponse(s, i, ProfileEmbed(utils.InteractionUser(i), p), nil, true)
}

// HandleBalanceCommand handles the /balance slash command
func (h *Handler) HandleBalanceCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	uid, err := utils.GetUserIDFromInteraction(i)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(h.ctx, 5*time.Second)
	defer cancel()

	balance, err := h.svc.Balance(ctx, uid)
	if err != nil {
		log.Error().Err(err).Int64("user_id", uid).Msg("failed to fetch balance")
		_ = utils.SendEphemeralText(s, i, utils.TryAgainMessage)
		return
	}
	_ = utils.SendInteractionResponse(s, i, utils.BalanceEmbed(utils.InteractionUser(i), balance), nil, true)
}

// HandleComponent routes every crime:solo: component interaction
func (h *Handler) HandleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	data := i.MessageComponentData()
	action, payload, ok := ParseCustomID(data.CustomID)
	if !ok {
		return fmt.Errorf("unknown heist component: %s", data.CustomID)
	}
	uid, err := utils.GetUserIDFromInteraction(i)
	if err != nil {
		return err
	}

	sess, ok := h.sessions.Get(uid)
	if !ok {
		return utils.SendEphemeralText(s, i, utils.SessionExpiredMessage)
	}

	sess.Lock()
	defer sess.Unlock()

	res := h.apply(sess, action, payload, data.Values)
	if res.notice != "" {
		return utils.SendEphemeralText(s, i, res.notice)
	}
	if res.ack {
		return utils.DeferComponentUpdate(s, i)
	}

	now := h.now()
	embed, components := Render(sess, h.svc.Profile(uid), now)
	if err := utils.UpdateComponentInteraction(s, i, embed, components); err != nil {
		_ = utils.TryEphemeralFollowup(s, i, utils.TryAgainMessage)
		return err
	}

	if res.hideAfter > 0 {
		h.scheduleHide(s, i, sess, res.hideAfter)
	}
	if res.resolved != nil {
		utils.PostChannelSummary(s, h.logChannelID, SummaryLine(uid, *res.resolved))
	}
	return nil
}

// actionResult tells HandleComponent how to answer the interaction
type actionResult struct {
	notice    string
	ack       bool
	hideAfter time.Duration
	resolved  *ResolvedView
}

// apply runs one component action against a locked session
func (h *Handler) apply(sess *Session, action, payload string, values []string) actionResult {
	now := h.now()
	uid := sess.UserID

	switch action {
	case ActionMode:
		key := payload
		if len(values) > 0 {
			key = values[0]
		}
		if err := sess.SelectMode(engine.ParseCrimeMode(key), now); err != nil {
			return actionResult{ack: true}
		}
		h.saveSettings(uid, sess.Config)

	case ActionRisk:
		if err := sess.SelectRisk(engine.ParseRisk(payload), now); err != nil {
			return actionResult{ack: true}
		}
		h.saveSettings(uid, sess.Config)

	case ActionItemSelect:
		if err := sess.SelectItems(values, h.svc.Profile(uid).PP, now); err != nil {
			return actionResult{ack: true}
		}
		h.saveSettings(uid, sess.Config)

	case ActionItem:
		key, ok := engine.ParseItemKey(payload)
		if !ok {
			return actionResult{ack: true}
		}
		if err := sess.ToggleItem(key, h.svc.Profile(uid).PP, now); err != nil {
			return actionResult{ack: true}
		}
		h.saveSettings(uid, sess.Config)

	case ActionStart:
		switch err := sess.Start(h.svc.RNG(), now); {
		case errors.Is(err, ErrIncompleteConfig):
			return actionResult{notice: "🧭 Pick a mode and a risk before starting."}
		case err != nil:
			return actionResult{ack: true}
		}
		h.saveSettings(uid, sess.Config)
		return actionResult{hideAfter: sess.RevealRemaining(now)}

	case ActionSimonKey:
		r := []rune(payload)
		if len(r) == 0 || !sess.PressKey(r[0], now) {
			return actionResult{ack: true}
		}

	case ActionSimonReveal:
		d, err := sess.Reveal(now)
		switch {
		case errors.Is(err, ErrRevealActive):
			return actionResult{notice: fmt.Sprintf("👁️ The sequence is already showing, ~%dms left.", sess.RevealRemaining(now).Milliseconds())}
		case errors.Is(err, ErrNoRevealsLeft):
			return actionResult{notice: "👁️ No reveals left."}
		case err != nil:
			return actionResult{ack: true}
		}
		return actionResult{hideAfter: d}

	case ActionSimonShow:
		d, ok := sess.Show(now)
		if !ok {
			return actionResult{ack: true}
		}
		return actionResult{hideAfter: d}

	case ActionResolve:
		ctx, cancel := context.WithTimeout(h.ctx, 10*time.Second)
		defer cancel()
		view, err := h.svc.Resolve(ctx, sess)
		switch {
		case errors.Is(err, ErrMinigameInProgress):
			return actionResult{notice: "🧠 Finish the Simon round first."}
		case err != nil:
			log.Error().Err(err).Int64("user_id", uid).Msg("failed to resolve heist")
			return actionResult{notice: utils.TryAgainMessage}
		}
		return actionResult{resolved: &view}

	case ActionReset:
		if err := sess.Reset(now); errors.Is(err, ErrResetInMinigame) {
			return actionResult{notice: "⛔ You can't go back to setup mid-minigame. Finish the round and resolve the heist."}
		}

	default:
		return actionResult{ack: true}
	}
	return actionResult{}
}

func (h *Handler) saveSettings(uid int64, cfg engine.SoloHeistConfig) {
	ctx, cancel := context.WithTimeout(h.ctx, 3*time.Second)
	defer cancel()
	if err := h.svc.SaveSettings(ctx, uid, cfg); err != nil {
		log.Warn().Err(err).Int64("user_id", uid).Msg("failed to save crime settings")
	}
}

// scheduleHide re-renders the Simon view once the reveal window closes so the
// sequence is masked again without a click.
func (h *Handler) scheduleHide(s *discordgo.Session, i *discordgo.InteractionCreate, sess *Session, after time.Duration) {
	utils.EditOriginalAfter(h.ctx, s, i, after+50*time.Millisecond, func() (*discordgo.MessageEmbed, []discordgo.MessageComponent, bool) {
		sess.Lock()
		defer sess.Unlock()
		now := h.now()
		if sess.State != StateInMinigame || sess.RevealActive(now) {
			return nil, nil, false
		}
		embed, components := renderSimon(sess, now)
		return embed, components, true
	})
}
