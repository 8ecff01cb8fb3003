// Package command binds the generic command core to terminal results and the
// per-message context the dispatcher hands to every text command.
package command

import (
	"context"

	"github.com/keshon/termcord/internal/session"
	"github.com/keshon/termcord/internal/terminal"
	"github.com/keshon/termcord/pkg/cmd"
)

type (
	Command    = cmd.Command[terminal.Result]
	Middleware = cmd.Middleware[terminal.Result]
	Registry   = cmd.Registry[terminal.Result]
	Invocation = cmd.Invocation
)

// Attachment is a file attached to the invoking message.
type Attachment struct {
	Name string
	URL  string
	Size int
}

// Context is what a text command knows about the message that invoked it.
type Context struct {
	AuthorID    string
	AuthorName  string
	GuildID     string
	ChannelID   string
	MessageID   string
	Attachments []Attachment
	User        *session.User
}

// InGuild reports whether the message came from a server channel.
func (c *Context) InGuild() bool { return c.GuildID != "" }

// From returns the Context carried by inv. Invocations built outside the
// dispatcher get an empty one.
func From(inv *Invocation) *Context {
	if c, ok := inv.Data.(*Context); ok && c != nil {
		return c
	}
	return &Context{}
}

// New builds a command from a handler.
func New(name, help string, fn func(ctx context.Context, inv *Invocation) (terminal.Result, error)) Command {
	return cmd.New(name, help, fn)
}

// NewRegistry returns an empty registry whose misses render as
// "<name>: command not found".
func NewRegistry() *Registry {
	return cmd.NewRegistry(terminal.NotFound)
}

// Apply wraps c with mws, the last one outermost.
func Apply(c Command, mws ...Middleware) Command {
	return cmd.Apply(c, mws...)
}
