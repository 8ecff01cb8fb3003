package slash

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

func (h *Handler) help() Reply {
	var b strings.Builder
	b.WriteString("**Terminal** (prefix `" + h.prefix + "`)\n")
	for _, c := range h.text() {
		fmt.Fprintf(&b, "`%s%s` %s\n", h.prefix, c.Name(), c.Description())
	}
	b.WriteString("\n**Slash**\n")
	for _, d := range Definitions() {
		fmt.Fprintf(&b, "`/%s` %s\n", d.Name, d.Description)
	}
	return Reply{
		Embed: &discordgo.MessageEmbed{
			Title:       h.botName + " help",
			Description: b.String(),
			Color:       embedColor,
			Footer:      &discordgo.MessageEmbedFooter{Text: "v" + h.version},
		},
		Ephemeral: true,
	}
}

func canManageChannels(perms int64) bool {
	return perms&(discordgo.PermissionManageChannels|discordgo.PermissionAdministrator) != 0
}

func (h *Handler) toggle(req Request) Reply {
	if req.GuildID == "" {
		return ephemeral("This command only works inside a server.")
	}
	if !canManageChannels(req.Permissions) {
		return ephemeral("You need the Manage Channels permission to do that.")
	}

	channel := req.Options["channel"]
	if channel == "" {
		channel = req.ChannelID
	}

	switch req.Sub {
	case "enable":
		h.policy.EnableChannel(req.GuildID, channel)
		allowed := mentions(h.policy.Channels(req.GuildID).Whitelist, "")
		return ephemeral(fmt.Sprintf("Terminal commands enabled in <#%s>. Whitelist active: only %s accept commands until /toggle reset.", channel, allowed))
	case "disable":
		h.policy.DisableChannel(req.GuildID, channel)
		return ephemeral(fmt.Sprintf("Terminal commands disabled in <#%s>.", channel))
	case "reset":
		h.policy.ResetChannels(req.GuildID)
		return ephemeral("Channel settings cleared. Commands work everywhere.")
	case "list":
		cp := h.policy.Channels(req.GuildID)
		return ephemeral("Enabled: " + mentions(cp.Whitelist, "all channels") + "\nDisabled: " + mentions(cp.Disabled, "none"))
	default:
		return ephemeral("Unknown subcommand.")
	}
}

func mentions(ids []string, empty string) string {
	if len(ids) == 0 {
		return empty
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = "<#" + id + ">"
	}
	return strings.Join(out, ", ")
}

func (h *Handler) firewall(req Request) Reply {
	if req.GuildID == "" {
		return ephemeral("This command only works inside a server.")
	}
	if other := req.Options["user"]; other != "" && other != req.UserID {
		return ephemeral("You can only manage your own firewall.")
	}

	switch req.Sub {
	case "on":
		h.policy.Protect(req.GuildID, req.UserID)
		return ephemeral("Firewall enabled. You can no longer be hacked.")
	case "off":
		h.policy.Unprotect(req.GuildID, req.UserID)
		return ephemeral("Firewall disabled.")
	case "status":
		if h.policy.IsProtected(req.GuildID, req.UserID) {
			return ephemeral("Firewall is ON.")
		}
		return ephemeral("Firewall is OFF.")
	default:
		return ephemeral("Unknown subcommand.")
	}
}
