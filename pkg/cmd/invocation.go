// Package cmd provides a transport-agnostic command core: a command is something
// with a name, a help line, and Run(ctx, invocation) producing a result value.
// How results are displayed (Discord message edits, tests) is defined by adapters.
package cmd

import (
	"context"
	"strings"
)

// Invocation carries the input any command runner can pass: the parsed command
// name and arguments, the raw text, and an opaque payload. Adapters set Data to
// their context (author, channel, session state).
type Invocation struct {
	// Name is the command name exactly as typed.
	Name string
	// Args are the space separated tokens after the name.
	Args []string
	// Raw is the full text after the prefix.
	Raw  string
	Data interface{}
}

// Parse splits text into a command name and arguments. It returns nil when text
// holds no tokens.
func Parse(text string, data interface{}) *Invocation {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}
	return &Invocation{
		Name: fields[0],
		Args: fields[1:],
		Raw:  strings.TrimSpace(text),
		Data: data,
	}
}

// Rest returns the raw text following the command name, spacing kept as typed.
func (inv *Invocation) Rest() string {
	rest := strings.TrimSpace(inv.Raw)
	rest = strings.TrimPrefix(rest, inv.Name)
	return strings.TrimSpace(rest)
}

// Command is the universal contract: identity plus execution. R is the result
// type the adapter knows how to display.
type Command[R any] interface {
	Name() string
	Description() string
	Run(ctx context.Context, inv *Invocation) (R, error)
}

// Func adapts a plain function into a Command.
type Func[R any] struct {
	name string
	help string
	fn   func(ctx context.Context, inv *Invocation) (R, error)
}

// New builds a Command from a name, help text and handler function.
func New[R any](name, help string, fn func(ctx context.Context, inv *Invocation) (R, error)) *Func[R] {
	return &Func[R]{name: name, help: help, fn: fn}
}

func (f *Func[R]) Name() string        { return f.name }
func (f *Func[R]) Description() string { return f.help }

func (f *Func[R]) Run(ctx context.Context, inv *Invocation) (R, error) {
	return f.fn(ctx, inv)
}
