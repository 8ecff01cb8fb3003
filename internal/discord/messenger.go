package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/termcord/internal/render"
)

// messageAPI is the REST surface the Messenger uses; *discordgo.Session
// implements it.
type messageAPI interface {
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	GuildMemberNickname(guildID, userID, nickname string, options ...discordgo.RequestOption) error
}

// Messenger implements render.Messenger over the REST API.
type Messenger struct {
	api messageAPI
}

func NewMessenger(api messageAPI) *Messenger {
	return &Messenger{api: api}
}

func (m *Messenger) Send(ctx context.Context, channelID string, f render.Frame) (string, error) {
	data := &discordgo.MessageSend{Content: f.Content}
	if f.Embed != nil {
		data.Embeds = []*discordgo.MessageEmbed{f.Embed}
	}
	msg, err := m.api.ChannelMessageSendComplex(channelID, data, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return msg.ID, nil
}

func (m *Messenger) Edit(ctx context.Context, channelID, messageID string, f render.Frame) error {
	content := f.Content
	embeds := []*discordgo.MessageEmbed{}
	if f.Embed != nil {
		embeds = append(embeds, f.Embed)
	}
	edit := discordgo.NewMessageEdit(channelID, messageID)
	edit.Content = &content
	edit.Embeds = &embeds
	_, err := m.api.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx))
	return err
}

func (m *Messenger) Rename(ctx context.Context, guildID, userID, nick string) error {
	return m.api.GuildMemberNickname(guildID, userID, nick, discordgo.WithContext(ctx))
}

var _ render.Messenger = (*Messenger)(nil)
