package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimizeEmbedPayload(t *testing.T) {
	assert.Nil(t, OptimizeEmbedPayload(nil))
	assert.NotNil(t, OptimizeEmbedPayload(&discordgo.MessageEmbed{}))

	embed := &discordgo.MessageEmbed{
		Title:       "  Heist  ",
		Description: "  Pick a mode  ",
		Color:       0xFF0000,
		Footer:      &discordgo.MessageEmbedFooter{Text: "  footer  "},
		Thumbnail:   &discordgo.MessageEmbedThumbnail{URL: ""},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "  Risk  ", Value: "  High  ", Inline: true},
			{Name: "", Value: "no name"},
			{Name: "no value", Value: "  "},
			nil,
		},
	}

	result := OptimizeEmbedPayload(embed)
	assert.Equal(t, "Heist", result.Title)
	assert.Equal(t, "Pick a mode", result.Description)
	assert.Equal(t, 0xFF0000, result.Color)
	require.NotNil(t, result.Footer)
	assert.Equal(t, "footer", result.Footer.Text)
	assert.Nil(t, result.Thumbnail)
	require.Len(t, result.Fields, 1)
	assert.Equal(t, "Risk", result.Fields[0].Name)
	assert.True(t, result.Fields[0].Inline)
}

func TestIsNonRetryableError(t *testing.T) {
	assert.False(t, isNonRetryableError(nil))

	for _, msg := range []string{"network timeout", "connection refused", "500 internal server error"} {
		assert.False(t, isNonRetryableError(errors.New(msg)), msg)
	}
	for _, msg := range []string{"Unknown Webhook", "\"code\": 10015", "Unknown interaction", "400 bad request"} {
		assert.True(t, isNonRetryableError(errors.New(msg)), msg)
	}
}

func TestIsWebhookExpiredError(t *testing.T) {
	assert.False(t, isWebhookExpiredError(nil))

	for _, msg := range []string{"Unknown Webhook", "\"code\": 10015", "404 not found", "Unknown interaction"} {
		assert.True(t, isWebhookExpiredError(errors.New(msg)), msg)
	}
	for _, msg := range []string{"network timeout", "500 internal server error", "connection refused"} {
		assert.False(t, isWebhookExpiredError(errors.New(msg)), msg)
	}
}

func TestRetryBackoff(t *testing.T) {
	assert.Equal(t, 50*time.Millisecond, retryBackoff(1))
	assert.Equal(t, 200*time.Millisecond, retryBackoff(2))
	assert.Equal(t, 500*time.Millisecond, retryBackoff(4))
}

func TestChunkRows(t *testing.T) {
	var buttons []discordgo.MessageComponent
	for i := 0; i < 12; i++ {
		buttons = append(buttons, CreateButton("b", "b", discordgo.SecondaryButton, false, nil))
	}
	rows := ChunkRows(buttons)
	require.Len(t, rows, 3)
	assert.Len(t, rows[0].(discordgo.ActionsRow).Components, 5)
	assert.Len(t, rows[2].(discordgo.ActionsRow).Components, 2)
	assert.Empty(t, ChunkRows(nil))
}

func TestComponentRouterLongestPrefix(t *testing.T) {
	r := NewComponentRouter()
	var hit string
	r.Handle("crime:", func(*discordgo.Session, *discordgo.InteractionCreate) error { hit = "crime"; return nil })
	r.Handle("crime:solo:", func(*discordgo.Session, *discordgo.InteractionCreate) error { hit = "solo"; return nil })

	h, ok := r.Lookup("crime:solo:start")
	require.True(t, ok)
	require.NoError(t, h(nil, nil))
	assert.Equal(t, "solo", hit)

	h, ok = r.Lookup("crime:other")
	require.True(t, ok)
	require.NoError(t, h(nil, nil))
	assert.Equal(t, "crime", hit)

	_, ok = r.Lookup("blackjack_hit")
	assert.False(t, ok)
}

func TestGetUserIDFromInteraction(t *testing.T) {
	guild := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Member: &discordgo.Member{User: &discordgo.User{ID: "123"}},
	}}
	id, err := GetUserIDFromInteraction(guild)
	require.NoError(t, err)
	assert.Equal(t, int64(123), id)

	dm := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{User: &discordgo.User{ID: "456"}}}
	id, err = GetUserIDFromInteraction(dm)
	require.NoError(t, err)
	assert.Equal(t, int64(456), id)

	_, err = GetUserIDFromInteraction(&discordgo.InteractionCreate{Interaction: &discordgo.Interaction{}})
	assert.Error(t, err)

	bad := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{User: &discordgo.User{ID: "abc"}}}
	_, err = GetUserIDFromInteraction(bad)
	assert.Error(t, err)
}
