package cmd

import "context"

// Unwrappable is implemented by wrapped commands so adapters can reach the
// underlying command.
type Unwrappable[R any] interface {
	Command[R]
	Unwrap() Command[R]
}

// Wrapped wraps a command with a custom Run. Used by middleware.
type Wrapped[R any] struct {
	Inner   Command[R]
	RunFunc func(ctx context.Context, inv *Invocation) (R, error)
}

// Name delegates to the inner command.
func (w *Wrapped[R]) Name() string { return w.Inner.Name() }

// Description delegates to the inner command.
func (w *Wrapped[R]) Description() string { return w.Inner.Description() }

// Run runs the wrapper's RunFunc.
func (w *Wrapped[R]) Run(ctx context.Context, inv *Invocation) (R, error) {
	if w.RunFunc != nil {
		return w.RunFunc(ctx, inv)
	}
	return w.Inner.Run(ctx, inv)
}

// Unwrap returns the inner command.
func (w *Wrapped[R]) Unwrap() Command[R] { return w.Inner }

// Wrap returns a command that runs run instead of c.Run, delegating Name and
// Description to c.
func Wrap[R any](c Command[R], run func(ctx context.Context, inv *Invocation) (R, error)) Command[R] {
	return &Wrapped[R]{Inner: c, RunFunc: run}
}

// Root unwraps a command until the underlying command is not Unwrappable.
func Root[R any](c Command[R]) Command[R] {
	for {
		u, ok := c.(Unwrappable[R])
		if !ok {
			return c
		}
		c = u.Unwrap()
	}
}
