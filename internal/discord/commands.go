package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/keshon/termcord/pkg/util"
)

// CommandAPI is the application command REST surface; *discordgo.Session
// implements it.
type CommandAPI interface {
	ApplicationCommands(appID, guildID string, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandBulkOverwrite(appID, guildID string, commands []*discordgo.ApplicationCommand, options ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error)
	ApplicationCommandDelete(appID, guildID, cmdID string, options ...discordgo.RequestOption) error
}

func scope(guildID string) string {
	if guildID == "" {
		return "global"
	}
	return guildID
}

// SyncCommands makes the remote definitions in scope (a guild, or global when
// guildID is empty) equal to defs. Nothing is sent when the remote set already
// hashes the same. It reports whether an overwrite happened.
func SyncCommands(ctx context.Context, api CommandAPI, appID, guildID string, defs []*discordgo.ApplicationCommand, log *zap.Logger) (bool, error) {
	remote, err := api.ApplicationCommands(appID, guildID, discordgo.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("list commands (%s): %w", scope(guildID), err)
	}
	if hashCommands(remote) == hashCommands(defs) {
		log.Info("slash commands up to date", zap.String("scope", scope(guildID)), zap.Int("count", len(defs)))
		return false, nil
	}

	if _, err := api.ApplicationCommandBulkOverwrite(appID, guildID, defs, discordgo.WithContext(ctx)); err != nil {
		return false, fmt.Errorf("overwrite commands (%s): %w", scope(guildID), err)
	}
	log.Info("slash commands registered", zap.String("scope", scope(guildID)), zap.Int("count", len(defs)))
	return true, nil
}

// RemoveCommands deletes every definition in scope and returns how many
// were removed.
func RemoveCommands(ctx context.Context, api CommandAPI, appID, guildID string, log *zap.Logger) (int, error) {
	remote, err := api.ApplicationCommands(appID, guildID, discordgo.WithContext(ctx))
	if err != nil {
		return 0, fmt.Errorf("list commands (%s): %w", scope(guildID), err)
	}

	err = util.Parallel(ctx, remote, 4, func(ctx context.Context, c *discordgo.ApplicationCommand) error {
		if err := api.ApplicationCommandDelete(appID, guildID, c.ID, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("delete %s: %w", c.Name, err)
		}
		log.Info("slash command deleted", zap.String("scope", scope(guildID)), zap.String("command", c.Name))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(remote), nil
}
