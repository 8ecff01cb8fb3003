package cmd

import (
	"context"
	"sort"
	"strings"
)

// Registry stores commands by case-insensitive name. A lookup miss never
// fails: Dispatch hands back the value built by the registry's notFound
// function, so adapters render it like any other output.
type Registry[R any] struct {
	commands map[string]Command[R]
	notFound func(name string) R
}

// NewRegistry returns an empty registry. notFound builds the result returned
// for unknown command names.
func NewRegistry[R any](notFound func(name string) R) *Registry[R] {
	return &Registry[R]{
		commands: make(map[string]Command[R]),
		notFound: notFound,
	}
}

// Register adds a command, replacing any command with the same name.
func (r *Registry[R]) Register(c Command[R]) {
	r.commands[strings.ToLower(c.Name())] = c
}

// Get returns the command with the given name.
func (r *Registry[R]) Get(name string) (Command[R], bool) {
	c, ok := r.commands[strings.ToLower(name)]
	return c, ok
}

// GetAll returns all registered commands, sorted by name.
func (r *Registry[R]) GetAll() []Command[R] {
	list := make([]Command[R], 0, len(r.commands))
	for _, c := range r.commands {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].Name() < list[j].Name()
	})
	return list
}

// Dispatch looks up inv.Name and runs it. Unknown names produce the notFound
// result with a nil error.
func (r *Registry[R]) Dispatch(ctx context.Context, inv *Invocation) (R, error) {
	c, ok := r.Get(inv.Name)
	if !ok {
		return r.notFound(inv.Name), nil
	}
	return c.Run(ctx, inv)
}
