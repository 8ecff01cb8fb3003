// Package dispatch turns inbound text messages into rendered command output.
package dispatch

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/keshon/termcord/internal/command"
	"github.com/keshon/termcord/internal/policy"
	"github.com/keshon/termcord/internal/render"
	"github.com/keshon/termcord/internal/session"
	"github.com/keshon/termcord/internal/terminal"
	"github.com/keshon/termcord/pkg/cmd"
)

const (
	// DefaultDelay is the pause between animated lines.
	DefaultDelay = 140 * time.Millisecond
	// HackDelay is the pause between progress phrases of sudo hack.
	HackDelay = 120 * time.Millisecond

	internalError = "internal error"
)

// Message is an inbound chat message, reduced to what dispatching needs.
type Message struct {
	ID          string
	GuildID     string
	ChannelID   string
	AuthorID    string
	AuthorName  string
	FromSelf    bool
	Content     string
	Attachments []command.Attachment
}

// Deps are the collaborators a Dispatcher needs.
type Deps struct {
	Registry  *command.Registry
	Policy    *policy.Store
	Sessions  *session.Store
	Cooldown  *session.Cooldown
	Renderer  *render.Renderer
	Messenger render.Messenger
	Log       *zap.Logger
}

// Dispatcher gates messages by policy and cooldown, runs the command and
// renders its result. Every accepted message gets its own goroutine, so a
// slow scan or a long animation never holds up anyone else's command.
type Dispatcher struct {
	Deps
	prefix string
	inline bool

	mu      sync.Mutex
	stopped bool
	running sync.WaitGroup
}

type Option func(*Dispatcher)

// Inline runs every accepted command on the caller's goroutine.
func Inline() Option { return func(d *Dispatcher) { d.inline = true } }

func New(prefix string, d Deps, opts ...Option) *Dispatcher {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	disp := &Dispatcher{Deps: d, prefix: prefix}
	for _, o := range opts {
		o(disp)
	}
	return disp
}

// Stop refuses new messages and waits for running commands to finish.
// It is safe to call more than once.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
	d.running.Wait()
}

// start registers one running command; it fails once Stop was called.
func (d *Dispatcher) start() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return false
	}
	d.running.Add(1)
	return true
}

// Handle processes one message. It reports whether the message was accepted
// as a command; rejected messages cause no output except the cooldown notice.
func (d *Dispatcher) Handle(ctx context.Context, m Message) bool {
	if m.FromSelf || !strings.HasPrefix(m.Content, d.prefix) {
		return false
	}
	if !d.start() {
		d.Log.Debug("message dropped, dispatcher stopped", zap.String("channel", m.ChannelID))
		return false
	}
	defer d.running.Done()
	if !d.Policy.IsChannelEnabled(m.GuildID, m.ChannelID) {
		return false
	}

	text := strings.TrimPrefix(m.Content, d.prefix)
	if strings.TrimSpace(text) == "" {
		return false
	}

	if ok, remaining := d.Cooldown.Allow(m.AuthorID); !ok {
		d.notify(ctx, m.ChannelID, fmt.Sprintf("slow down, try again in %.1fs", remaining.Seconds()))
		return false
	}

	user := d.Sessions.Record(m.AuthorID, text)
	inv := cmd.Parse(text, &command.Context{
		AuthorID:    m.AuthorID,
		AuthorName:  m.AuthorName,
		GuildID:     m.GuildID,
		ChannelID:   m.ChannelID,
		MessageID:   m.ID,
		Attachments: m.Attachments,
		User:        user,
	})
	prompt := terminal.Prompt(m.AuthorName, user.Cwd(), text)

	if d.inline {
		d.run(ctx, m, inv, prompt)
		return true
	}
	d.running.Add(1)
	go func() {
		defer d.running.Done()
		d.run(ctx, m, inv, prompt)
	}()
	return true
}

func (d *Dispatcher) run(ctx context.Context, m Message, inv *cmd.Invocation, prompt string) {
	log := d.Log.With(zap.String("command", inv.Name), zap.String("user", m.AuthorID), zap.String("channel", m.ChannelID))
	defer func() {
		if p := recover(); p != nil {
			log.Error("command panicked", zap.Any("panic", p), zap.Stack("stack"))
			d.notify(ctx, m.ChannelID, internalError)
		}
	}()

	res, err := d.Registry.Dispatch(ctx, inv)
	if err != nil {
		log.Error("command returned error", zap.Error(err))
		res = terminal.Plain(inv.Name + ": " + internalError)
	}

	if err := d.Renderer.Render(ctx, m.ChannelID, prompt, res, Animation(inv)); err != nil {
		log.Error("render failed", zap.Error(err))
	}
}

func (d *Dispatcher) notify(ctx context.Context, channelID, text string) {
	render.Attempt(d.Log, "send notice", func() error {
		_, err := d.Messenger.Send(ctx, channelID, render.Frame{Content: terminal.Fence(terminal.EscapeBackticks(text))})
		return err
	})
}

// Animation picks the render options for an invocation: help is never
// animated and sudo hack runs slightly faster than everything else.
func Animation(inv *cmd.Invocation) render.Options {
	name := strings.ToLower(inv.Name)
	switch {
	case name == "help":
		return render.Options{}
	case name == "sudo" && len(inv.Args) > 0 && strings.EqualFold(inv.Args[0], "hack"):
		return render.Options{Animate: true, Delay: HackDelay}
	default:
		return render.Options{Animate: true, Delay: DefaultDelay}
	}
}
