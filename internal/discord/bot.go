// Package discord adapts the gateway session to the dispatcher, the slash
// handler and the renderer.
package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/keshon/termcord/internal/command/slash"
	"github.com/keshon/termcord/internal/dispatch"
)

const intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildPresences |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsMessageContent

// Options configure a Bot.
type Options struct {
	AppID   string
	GuildID string
	// SyncCommands registers the slash definitions on ready.
	SyncCommands bool
	// OnReady runs once the first Ready event arrived, after command sync.
	OnReady func(ctx context.Context)
}

// Bot owns the gateway session.
type Bot struct {
	dg       *discordgo.Session
	log      *zap.Logger
	opts     Options
	dispatch *dispatch.Dispatcher
	slash    *slash.Handler
	ctx      context.Context
	ready    chan struct{}
}

// NewSession creates an unopened gateway session for token.
func NewSession(token string) (*discordgo.Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	dg.Identify.Intents = intents
	dg.StateEnabled = true
	return dg, nil
}

func NewBot(dg *discordgo.Session, d *dispatch.Dispatcher, sh *slash.Handler, log *zap.Logger, opts Options) *Bot {
	return &Bot{
		dg:       dg,
		log:      log,
		opts:     opts,
		dispatch: d,
		slash:    sh,
		ready:    make(chan struct{}),
	}
}

// Run opens the session and blocks until ctx is done.
func (b *Bot) Run(ctx context.Context) error {
	b.ctx = ctx
	b.dg.AddHandlerOnce(b.onReady)
	b.dg.AddHandler(b.onMessageCreate)
	b.dg.AddHandler(b.onInteractionCreate)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	defer func() {
		if err := b.dg.Close(); err != nil {
			b.log.Warn("gateway close failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	b.log.Info("shutdown signal received, closing gateway")
	return nil
}

// Host reports gateway facts for informational commands.
type Host struct {
	dg *discordgo.Session
}

func NewHost(dg *discordgo.Session) *Host {
	return &Host{dg: dg}
}

// GuildCount returns how many guilds the session knows.
func (h *Host) GuildCount() int {
	h.dg.State.RLock()
	defer h.dg.State.RUnlock()
	return len(h.dg.State.Guilds)
}

// Latency is the last heartbeat round trip.
func (h *Host) Latency() time.Duration {
	return h.dg.HeartbeatLatency()
}

func (b *Bot) appID() (string, error) {
	if b.opts.AppID != "" {
		return b.opts.AppID, nil
	}
	if b.dg.State.User != nil && b.dg.State.User.ID != "" {
		return b.dg.State.User.ID, nil
	}
	u, err := b.dg.User("@me")
	if err != nil {
		return "", fmt.Errorf("resolve app id: %w", err)
	}
	return u.ID, nil
}
