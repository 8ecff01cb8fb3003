package slash

import "github.com/bwmarrin/discordgo"

var manageChannels int64 = discordgo.PermissionManageChannels

// Definitions returns the application commands this package answers.
func Definitions() []*discordgo.ApplicationCommand {
	channelOpt := func(desc string) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:         discordgo.ApplicationCommandOptionChannel,
			Name:         "channel",
			Description:  desc,
			ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
		}
	}
	userOpt := &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        "user",
		Description: "Whose firewall (only yourself)",
	}
	sub := func(name, desc string, opts ...*discordgo.ApplicationCommandOption) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        name,
			Description: desc,
			Options:     opts,
		}
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        "help",
			Description: "Show terminal commands",
		},
		{
			Name:                     "toggle",
			Description:              "Enable or disable terminal commands per channel",
			DefaultMemberPermissions: &manageChannels,
			Options: []*discordgo.ApplicationCommandOption{
				sub("enable", "Allow commands in a channel", channelOpt("Channel (defaults to this one)")),
				sub("disable", "Block commands in a channel", channelOpt("Channel (defaults to this one)")),
				sub("list", "Show channel settings"),
				sub("reset", "Clear all channel settings"),
			},
		},
		{
			Name:        "firewall",
			Description: "Protect yourself from sudo hack",
			Options: []*discordgo.ApplicationCommandOption{
				sub("on", "Enable your firewall", userOpt),
				sub("off", "Disable your firewall", userOpt),
				sub("status", "Show your firewall state", userOpt),
			},
		},
	}
}
