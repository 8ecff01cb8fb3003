package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/keshon/termcord/internal/command"
	"github.com/keshon/termcord/internal/command/disk"
	"github.com/keshon/termcord/internal/command/hack"
	"github.com/keshon/termcord/internal/command/shell"
	"github.com/keshon/termcord/internal/command/slash"
	"github.com/keshon/termcord/internal/config"
	"github.com/keshon/termcord/internal/discord"
	"github.com/keshon/termcord/internal/dispatch"
	"github.com/keshon/termcord/internal/policy"
	"github.com/keshon/termcord/internal/presence"
	"github.com/keshon/termcord/internal/render"
	"github.com/keshon/termcord/internal/scan"
	"github.com/keshon/termcord/internal/session"
	"github.com/keshon/termcord/internal/storage"
	v "github.com/keshon/termcord/internal/version"
	"github.com/keshon/termcord/pkg/jobmgr"
)

const sweepInterval = time.Minute

func main() {
	cfg, err := config.New()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Error("bot exited with error", zap.Error(err))
		os.Exit(1)
	}
	log.Info("bot exited cleanly")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(cfg.Level())
	zc.Encoding = "console"
	l, err := zc.Build()
	if err != nil {
		return nil, err
	}
	return l.With(zap.String("app", v.AppName)), nil
}

func run(cfg *config.Config, log *zap.Logger) error {
	log.Info("starting", zap.String("version", v.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	botName := cfg.BotName
	if botName == "" {
		botName = v.AppName
	}

	pol := policy.New()
	sessions := session.NewStore(shell.DefaultFiles()...)
	cooldown := session.NewCooldown(session.DefaultCooldown)

	scanner := scan.New(cfg.VirusTotalAPIKey, scan.WithLogger(log.Named("scan")))
	if !scanner.Enabled() {
		log.Info("VIRUSTOTAL_API_KEY not set, uploads will not be scanned")
	}
	store := storage.New(cfg.StoragePath, cfg.StorageQuota(), scanner, log.Named("storage"))

	dg, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		return err
	}
	messenger := discord.NewMessenger(dg)
	renderer := render.New(messenger, log.Named("render"))

	host := discord.NewHost(dg)

	var reg *command.Registry
	listCommands := func() []command.Command { return reg.GetAll() }

	hacker := hack.New(discord.NewDirectory(dg), pol)
	sh := shell.New(shell.Options{
		BotName: botName,
		Version: v.Version,
		Host:    host,
		List:    listCommands,
		Sudo:    []command.Command{hacker.Command()},
	})
	dk := disk.New(store, &http.Client{Timeout: 2 * time.Minute}, disk.WithDownloadWorkers(cfg.DownloadWorkers))

	reg = command.Build(log, []command.Provider{sh, dk}, command.WithLogging(log.Named("command")))

	dispatcher := dispatch.New(cfg.CommandPrefix, dispatch.Deps{
		Registry:  reg,
		Policy:    pol,
		Sessions:  sessions,
		Cooldown:  cooldown,
		Renderer:  renderer,
		Messenger: messenger,
		Log:       log.Named("dispatch"),
	})
	defer dispatcher.Stop()

	jobs := jobmgr.NewManager(func(e jobmgr.Event) {
		if e.Err != nil {
			log.Warn("job failed", zap.String("job", e.Job), zap.Error(e.Err))
			return
		}
		log.Debug("job", zap.String("job", e.Job), zap.String("state", string(e.State)))
	})
	rotator := presence.New(dg, botName, v.Version, cfg.CommandPrefix,
		presence.WithInterval(cfg.PresenceInterval),
		presence.WithGuildCount(host.GuildCount),
		presence.WithJobs(jobs),
		presence.WithLogger(log.Named("presence")),
	)

	handler := slash.New(pol, cfg.CommandPrefix, botName, v.Version, listCommands)
	bot := discord.NewBot(dg, dispatcher, handler, log.Named("discord"), discord.Options{
		AppID:        cfg.DiscordAppID,
		GuildID:      cfg.DiscordGuildID,
		SyncCommands: cfg.LegacyMode,
		OnReady: func(ctx context.Context) {
			if err := rotator.Start(ctx); err != nil {
				log.Warn("presence not started", zap.Error(err))
			}
		},
	})

	if err := jobs.StartAsync(ctx, "cooldown-sweep", session.SweepEvery(cooldown, sweepInterval, log)); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return bot.Run(gctx) })

	err = g.Wait()
	stop()
	dispatcher.Stop()
	rotator.Stop()
	jobs.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
