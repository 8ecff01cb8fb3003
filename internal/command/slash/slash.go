// Package slash defines the application commands (help, toggle, firewall) and
// answers them. Handlers are pure: a Request goes in, a Reply comes out, and
// the discord adapter does the responding.
package slash

import (
	"github.com/bwmarrin/discordgo"

	"github.com/keshon/termcord/internal/command"
	"github.com/keshon/termcord/internal/policy"
)

const embedColor = 0x00ff66

// Request is an application command invocation reduced to plain values.
type Request struct {
	GuildID     string
	ChannelID   string
	UserID      string
	Permissions int64
	Command     string
	Sub         string
	Options     map[string]string
}

// Reply is what to answer with. Every reply of this package is ephemeral.
type Reply struct {
	Content   string
	Embed     *discordgo.MessageEmbed
	Ephemeral bool
}

func ephemeral(text string) Reply {
	return Reply{Content: text, Ephemeral: true}
}

// Handler answers the slash surface.
type Handler struct {
	policy  *policy.Store
	prefix  string
	botName string
	version string
	text    func() []command.Command
}

// New returns a Handler. text lists the prefix commands for /help.
func New(p *policy.Store, prefix, botName, version string, text func() []command.Command) *Handler {
	if text == nil {
		text = func() []command.Command { return nil }
	}
	return &Handler{policy: p, prefix: prefix, botName: botName, version: version, text: text}
}

// Handle dispatches req to its command.
func (h *Handler) Handle(req Request) Reply {
	switch req.Command {
	case "help":
		return h.help()
	case "toggle":
		return h.toggle(req)
	case "firewall":
		return h.firewall(req)
	default:
		return ephemeral("Unknown command.")
	}
}

// RequestFromInteraction flattens an application command interaction. The
// second result is false for other interaction types.
func RequestFromInteraction(i *discordgo.InteractionCreate) (Request, bool) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return Request{}, false
	}
	data := i.ApplicationCommandData()
	req := Request{
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		Command:   data.Name,
		Options:   map[string]string{},
	}
	switch {
	case i.Member != nil && i.Member.User != nil:
		req.UserID = i.Member.User.ID
		req.Permissions = i.Member.Permissions
	case i.User != nil:
		req.UserID = i.User.ID
	}

	opts := data.Options
	if len(opts) > 0 && opts[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		req.Sub = opts[0].Name
		opts = opts[0].Options
	}
	for _, o := range opts {
		if s, ok := o.Value.(string); ok {
			req.Options[o.Name] = s
		}
	}
	return req, true
}
