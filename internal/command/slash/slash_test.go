package slash

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/termcord/internal/command"
	"github.com/keshon/termcord/internal/policy"
	"github.com/keshon/termcord/internal/terminal"
)

func newHandler() (*Handler, *policy.Store) {
	p := policy.New()
	text := func() []command.Command {
		return []command.Command{command.New("ls", "list files", func(context.Context, *command.Invocation) (terminal.Result, error) {
			return nil, nil
		})}
	}
	return New(p, "$", "termcord", "1.0.0", text), p
}

func admin(sub string, opts map[string]string) Request {
	return Request{GuildID: "g1", ChannelID: "c1", UserID: "u1", Permissions: discordgo.PermissionManageChannels, Command: "toggle", Sub: sub, Options: opts}
}

func TestToggle(t *testing.T) {
	h, p := newHandler()

	r := h.Handle(admin("disable", map[string]string{"channel": "c2"}))
	assert.True(t, r.Ephemeral)
	assert.Equal(t, "Terminal commands disabled in <#c2>.", r.Content)
	assert.False(t, p.IsChannelEnabled("g1", "c2"))
	assert.True(t, p.IsChannelEnabled("g1", "c1"))

	r = h.Handle(admin("enable", nil))
	assert.Equal(t, "Terminal commands enabled in <#c1>. Whitelist active: only <#c1> accept commands until /toggle reset.", r.Content)
	assert.True(t, p.IsChannelEnabled("g1", "c1"))
	assert.False(t, p.IsChannelEnabled("g1", "c3"), "whitelist now restricts other channels")

	r = h.Handle(admin("list", nil))
	assert.Equal(t, "Enabled: <#c1>\nDisabled: <#c2>", r.Content)

	r = h.Handle(admin("enable", map[string]string{"channel": "c2"}))
	assert.Contains(t, r.Content, "only <#c1>, <#c2> accept commands")
	assert.True(t, p.IsChannelEnabled("g1", "c2"))

	h.Handle(admin("reset", nil))
	assert.True(t, p.IsChannelEnabled("g1", "c2"))
	assert.Equal(t, "Enabled: all channels\nDisabled: none", h.Handle(admin("list", nil)).Content)
}

func TestTogglePermissions(t *testing.T) {
	h, p := newHandler()

	req := admin("disable", nil)
	req.Permissions = discordgo.PermissionSendMessages
	assert.Contains(t, h.Handle(req).Content, "Manage Channels")
	assert.True(t, p.IsChannelEnabled("g1", "c1"))

	req.Permissions = discordgo.PermissionAdministrator
	h.Handle(req)
	assert.False(t, p.IsChannelEnabled("g1", "c1"))

	req.GuildID = ""
	assert.Contains(t, h.Handle(req).Content, "inside a server")
}

func fw(sub, user string) Request {
	return Request{GuildID: "g1", UserID: "u1", Command: "firewall", Sub: sub, Options: map[string]string{"user": user}}
}

func TestFirewallIsSelfOnlyAndIdempotent(t *testing.T) {
	h, p := newHandler()

	h.Handle(fw("off", ""))
	assert.False(t, p.IsProtected("g1", "u1"))

	h.Handle(fw("on", ""))
	h.Handle(fw("on", "u1"))
	assert.True(t, p.IsProtected("g1", "u1"))
	assert.Equal(t, "Firewall is ON.", h.Handle(fw("status", "")).Content)

	r := h.Handle(fw("off", "u2"))
	assert.Equal(t, "You can only manage your own firewall.", r.Content)
	assert.True(t, p.IsProtected("g1", "u1"))
	assert.False(t, p.IsProtected("g1", "u2"))

	h.Handle(fw("off", ""))
	assert.Equal(t, "Firewall is OFF.", h.Handle(fw("status", "")).Content)
}

func TestHelp(t *testing.T) {
	h, _ := newHandler()
	r := h.Handle(Request{Command: "help"})
	require.NotNil(t, r.Embed)
	assert.True(t, r.Ephemeral)
	assert.Contains(t, r.Embed.Description, "`$ls` list files")
	assert.Contains(t, r.Embed.Description, "`/firewall`")
}

func TestDefinitions(t *testing.T) {
	defs := Definitions()
	require.Len(t, defs, 3)
	toggle := defs[1]
	assert.Equal(t, "toggle", toggle.Name)
	require.NotNil(t, toggle.DefaultMemberPermissions)
	assert.EqualValues(t, discordgo.PermissionManageChannels, *toggle.DefaultMemberPermissions)

	var subs []string
	for _, o := range toggle.Options {
		subs = append(subs, o.Name)
	}
	assert.Equal(t, []string{"enable", "disable", "list", "reset"}, subs)
}

func TestRequestFromInteraction(t *testing.T) {
	i := &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   "g1",
		ChannelID: "c1",
		Member:    &discordgo.Member{User: &discordgo.User{ID: "u1"}, Permissions: discordgo.PermissionManageChannels},
		Data: discordgo.ApplicationCommandInteractionData{
			Name: "toggle",
			Options: []*discordgo.ApplicationCommandInteractionDataOption{{
				Name: "disable",
				Type: discordgo.ApplicationCommandOptionSubCommand,
				Options: []*discordgo.ApplicationCommandInteractionDataOption{
					{Name: "channel", Type: discordgo.ApplicationCommandOptionChannel, Value: "c9"},
				},
			}},
		},
	}}

	req, ok := RequestFromInteraction(i)
	require.True(t, ok)
	assert.Equal(t, Request{
		GuildID:     "g1",
		ChannelID:   "c1",
		UserID:      "u1",
		Permissions: discordgo.PermissionManageChannels,
		Command:     "toggle",
		Sub:         "disable",
		Options:     map[string]string{"channel": "c9"},
	}, req)

	_, ok = RequestFromInteraction(&discordgo.InteractionCreate{Interaction: &discordgo.Interaction{Type: discordgo.InteractionPing}})
	assert.False(t, ok)
}
