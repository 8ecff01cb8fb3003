// Command commands publishes or removes the bot's slash command definitions
// without starting the bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/keshon/termcord/internal/command/slash"
	"github.com/keshon/termcord/internal/config"
	"github.com/keshon/termcord/internal/discord"
	v "github.com/keshon/termcord/internal/version"
)

var guildFlag string

var rootCmd = &cobra.Command{
	Use:           "commands",
	Short:         "Manage " + v.AppName + " slash commands",
	Version:       v.String(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Register the slash commands (global, or one guild with --guild)",
	Args:  cobra.NoArgs,
	RunE:  runDeploy,
}

var removeCmd = &cobra.Command{
	Use:   "remove",
	Short: "Delete every registered slash command in scope",
	Args:  cobra.NoArgs,
	RunE:  runRemove,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&guildFlag, "guild", "", "guild id to scope commands to (defaults to DISCORD_GUILD_ID)")
	rootCmd.AddCommand(deployCmd, removeCmd)
}

type target struct {
	api     discord.CommandAPI
	appID   string
	guildID string
	log     *zap.Logger
}

func setup() (*target, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.ValidateDeploy(); err != nil {
		return nil, nil, err
	}

	log, err := zap.NewDevelopment()
	if err != nil {
		return nil, nil, err
	}

	dg, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		return nil, nil, err
	}

	guildID := guildFlag
	if guildID == "" {
		guildID = cfg.DiscordGuildID
	}
	return &target{api: dg, appID: cfg.DiscordAppID, guildID: guildID, log: log},
		func() { _ = log.Sync() }, nil
}

func runDeploy(cmd *cobra.Command, _ []string) error {
	t, done, err := setup()
	if err != nil {
		return err
	}
	defer done()

	changed, err := discord.SyncCommands(cmd.Context(), t.api, t.appID, t.guildID, slash.Definitions(), t.log)
	if err != nil {
		return err
	}
	if !changed {
		fmt.Fprintln(cmd.OutOrStdout(), "slash commands already up to date")
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), "slash commands deployed")
	return nil
}

func runRemove(cmd *cobra.Command, _ []string) error {
	t, done, err := setup()
	if err != nil {
		return err
	}
	defer done()

	n, err := discord.RemoveCommands(cmd.Context(), t.api, t.appID, t.guildID, t.log)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %d slash command(s)\n", n)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
