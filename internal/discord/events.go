package discord

import (
	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/keshon/termcord/internal/command"
	"github.com/keshon/termcord/internal/command/slash"
	"github.com/keshon/termcord/internal/dispatch"
)

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.log.Info("bot is ready", zap.String("user", r.User.Username), zap.Int("guilds", len(r.Guilds)))

	if b.opts.SyncCommands {
		appID, err := b.appID()
		if err != nil {
			b.log.Error("slash sync skipped", zap.Error(err))
		} else if _, err := SyncCommands(b.ctx, s, appID, b.opts.GuildID, slash.Definitions(), b.log); err != nil {
			b.log.Error("slash sync failed", zap.Error(err))
		}
	}

	if b.opts.OnReady != nil {
		b.opts.OnReady(b.ctx)
	}
	close(b.ready)
}

// Ready is closed after the first Ready event was handled.
func (b *Bot) Ready() <-chan struct{} { return b.ready }

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}
	selfID := ""
	if s.State.User != nil {
		selfID = s.State.User.ID
	}
	b.dispatch.Handle(b.ctx, toMessage(m.Message, selfID))
}

// toMessage reduces a gateway message to a dispatch.Message.
func toMessage(m *discordgo.Message, selfID string) dispatch.Message {
	name := m.Author.Username
	if m.Member != nil && m.Member.Nick != "" {
		name = m.Member.Nick
	} else if m.Author.GlobalName != "" {
		name = m.Author.GlobalName
	}

	atts := make([]command.Attachment, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		atts = append(atts, command.Attachment{Name: a.Filename, URL: a.URL, Size: a.Size})
	}

	return dispatch.Message{
		ID:          m.ID,
		GuildID:     m.GuildID,
		ChannelID:   m.ChannelID,
		AuthorID:    m.Author.ID,
		AuthorName:  name,
		FromSelf:    m.Author.ID == selfID,
		Content:     m.Content,
		Attachments: atts,
	}
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	req, ok := slash.RequestFromInteraction(i)
	if !ok {
		b.log.Debug("interaction ignored", zap.Int("type", int(i.Type)))
		return
	}
	reply := b.slash.Handle(req)
	if err := s.InteractionRespond(i.Interaction, toResponse(reply)); err != nil {
		b.log.Warn("interaction respond failed", zap.String("command", req.Command), zap.Error(err))
	}
}

func toResponse(r slash.Reply) *discordgo.InteractionResponse {
	data := &discordgo.InteractionResponseData{Content: r.Content}
	if r.Embed != nil {
		data.Embeds = []*discordgo.MessageEmbed{r.Embed}
	}
	if r.Ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}
}
