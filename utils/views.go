package utils

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"
)

// ComponentHandler represents a function that handles component interactions
type ComponentHandler func(*discordgo.Session, *discordgo.InteractionCreate) error

// ComponentRouter dispatches component interactions by custom ID prefix.
// The longest registered prefix wins.
type ComponentRouter struct {
	mu       sync.RWMutex
	handlers map[string]ComponentHandler
}

func NewComponentRouter() *ComponentRouter {
	return &ComponentRouter{handlers: make(map[string]ComponentHandler)}
}

// Handle registers a handler for every custom ID starting with prefix
func (r *ComponentRouter) Handle(prefix string, handler ComponentHandler) {
	r.mu.Lock()
	r.handlers[prefix] = handler
	r.mu.Unlock()
}

// Lookup returns the handler for customID
func (r *ComponentRouter) Lookup(customID string) (ComponentHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best string
	var handler ComponentHandler
	for prefix, h := range r.handlers {
		if strings.HasPrefix(customID, prefix) && len(prefix) > len(best) {
			best, handler = prefix, h
		}
	}
	return handler, handler != nil
}

// Dispatch routes a component interaction to its handler
func (r *ComponentRouter) Dispatch(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	customID := i.MessageComponentData().CustomID
	handler, ok := r.Lookup(customID)
	if !ok {
		return fmt.Errorf("no handler registered for component: %s", customID)
	}
	return handler(s, i)
}

// CreateActionRow creates an action row with buttons
func CreateActionRow(buttons ...discordgo.MessageComponent) discordgo.MessageComponent {
	return discordgo.ActionsRow{
		Components: buttons,
	}
}

// ChunkRows lays buttons out in action rows of at most five
func ChunkRows(buttons []discordgo.MessageComponent) []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent
	for len(buttons) > 0 {
		n := min(5, len(buttons))
		rows = append(rows, CreateActionRow(buttons[:n]...))
		buttons = buttons[n:]
	}
	return rows
}

// CreateButton creates a button component
func CreateButton(customID, label string, style discordgo.ButtonStyle, disabled bool, emoji *discordgo.ComponentEmoji) discordgo.MessageComponent {
	button := discordgo.Button{
		CustomID: customID,
		Label:    label,
		Style:    style,
		Disabled: disabled,
	}

	if emoji != nil {
		button.Emoji = emoji
	}

	return button
}

// CreateSelectMenu creates a select menu component
func CreateSelectMenu(customID, placeholder string, options []discordgo.SelectMenuOption, minValues, maxValues *int) discordgo.MessageComponent {
	selectMenu := discordgo.SelectMenu{
		CustomID:    customID,
		Placeholder: placeholder,
		Options:     options,
	}

	if minValues != nil {
		selectMenu.MinValues = minValues
	}

	if maxValues != nil {
		selectMenu.MaxValues = *maxValues
	}

	return selectMenu
}

// SendInteractionResponse sends an interaction response with embed and components
func SendInteractionResponse(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{
		Embeds:     []*discordgo.MessageEmbed{OptimizeEmbedPayload(embed)},
		Components: components,
	}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		BotLogf("DISCORD_API", "SendInteractionResponse failed: %v", err)
	}
	return err
}

// SendEphemeralText replies with a short private notice
func SendEphemeralText(s *discordgo.Session, i *discordgo.InteractionCreate, content string) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// UpdateComponentInteraction replaces the message a component lives on.
// Transient failures are retried with a short backoff.
func UpdateComponentInteraction(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	response := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Embeds:     []*discordgo.MessageEmbed{OptimizeEmbedPayload(embed)},
			Components: components,
		},
	}

	var lastErr error
	for attempt := 0; attempt <= 2; attempt++ {
		if attempt > 0 {
			time.Sleep(retryBackoff(attempt))
		}
		lastErr = s.InteractionRespond(i.Interaction, response)
		if lastErr == nil {
			return nil
		}
		if isNonRetryableError(lastErr) {
			break
		}
		BotLogf("DISCORD_API", "UpdateComponentInteraction attempt %d failed: %v", attempt+1, lastErr)
	}

	// The interaction was already acknowledged by someone else; fall back to an edit.
	if !isWebhookExpiredError(lastErr) {
		if err := EditOriginalInteraction(s, i, embed, components); err == nil {
			return nil
		}
	}
	return fmt.Errorf("failed to update component message: %w", lastErr)
}

// retryBackoff is 50ms * attempt², capped at 500ms
func retryBackoff(attempt int) time.Duration {
	backoff := time.Duration(50*attempt*attempt) * time.Millisecond
	if backoff > 500*time.Millisecond {
		backoff = 500 * time.Millisecond
	}
	return backoff
}

// DeferComponentUpdate acknowledges a component interaction without updating the message yet
func DeferComponentUpdate(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
}

// EditOriginalInteraction edits the original interaction response
func EditOriginalInteraction(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed, components []discordgo.MessageComponent) error {
	edit := &discordgo.WebhookEdit{
		Embeds:     &[]*discordgo.MessageEmbed{OptimizeEmbedPayload(embed)},
		Components: &components,
	}
	_, err := s.InteractionResponseEdit(i.Interaction, edit)
	return err
}

// EditOriginalAfter runs fn after delay and edits the original response with its result.
// It stops early when ctx is cancelled.
func EditOriginalAfter(ctx context.Context, s *discordgo.Session, i *discordgo.InteractionCreate, delay time.Duration, fn func() (*discordgo.MessageEmbed, []discordgo.MessageComponent, bool)) {
	go func() {
		t := time.NewTimer(delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		embed, components, ok := fn()
		if !ok {
			return
		}
		if err := EditOriginalInteraction(s, i, embed, components); err != nil {
			BotLogf("DISCORD_API", "delayed edit failed: %v", err)
		}
	}()
}

// TryEphemeralFollowup attempts to send a small ephemeral notice if an update failed.
func TryEphemeralFollowup(s *discordgo.Session, i *discordgo.InteractionCreate, content string) error {
	params := &discordgo.WebhookParams{Content: content, Flags: discordgo.MessageFlagsEphemeral}
	_, err := s.FollowupMessageCreate(i.Interaction, true, params)
	return err
}

// PostChannelSummary sends a plain message to channelID, ignoring an empty id
func PostChannelSummary(s *discordgo.Session, channelID, content string) {
	if channelID == "" {
		return
	}
	if _, err := s.ChannelMessageSend(channelID, content); err != nil {
		log.Warn().Err(err).Str("channel_id", channelID).Msg("failed to post summary")
	}
}

// ParseUserID converts a Discord user ID string to int64
func ParseUserID(id string) (int64, error) { return strconv.ParseInt(id, 10, 64) }

// InteractionUser returns the invoking user in guilds and in DMs
func InteractionUser(i *discordgo.InteractionCreate) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}

// GetUserIDFromInteraction resolves the numeric id of the invoking user
func GetUserIDFromInteraction(i *discordgo.InteractionCreate) (int64, error) {
	u := InteractionUser(i)
	if u == nil {
		return 0, fmt.Errorf("interaction has no user")
	}
	id, err := ParseUserID(u.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to parse user id %q: %w", u.ID, err)
	}
	return id, nil
}

// isNonRetryableError checks if an error should not be retried
func isNonRetryableError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Unknown Webhook") ||
		strings.Contains(msg, "\"code\": 10015") ||
		strings.Contains(msg, "Unknown interaction") ||
		strings.Contains(msg, "400")
}

// isWebhookExpiredError checks if the error indicates an expired webhook
func isWebhookExpiredError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Unknown Webhook") ||
		strings.Contains(msg, "\"code\": 10015") ||
		strings.Contains(msg, "404") ||
		strings.Contains(msg, "Unknown interaction")
}

// OptimizeEmbedPayload drops empty parts and trims whitespace
func OptimizeEmbedPayload(embed *discordgo.MessageEmbed) *discordgo.MessageEmbed {
	if embed == nil {
		return embed
	}

	optimized := &discordgo.MessageEmbed{
		Title:       strings.TrimSpace(embed.Title),
		Description: strings.TrimSpace(embed.Description),
		Color:       embed.Color,
		Timestamp:   embed.Timestamp,
		Author:      embed.Author,
	}

	if embed.Footer != nil && strings.TrimSpace(embed.Footer.Text) != "" {
		optimized.Footer = &discordgo.MessageEmbedFooter{
			Text:    strings.TrimSpace(embed.Footer.Text),
			IconURL: embed.Footer.IconURL,
		}
	}
	if embed.Thumbnail != nil && embed.Thumbnail.URL != "" {
		optimized.Thumbnail = embed.Thumbnail
	}

	for _, field := range embed.Fields {
		if field != nil && strings.TrimSpace(field.Name) != "" && strings.TrimSpace(field.Value) != "" {
			optimized.Fields = append(optimized.Fields, &discordgo.MessageEmbedField{
				Name:   strings.TrimSpace(field.Name),
				Value:  strings.TrimSpace(field.Value),
				Inline: field.Inline,
			})
		}
	}

	return optimized
}
