package cmd

// Middleware wraps a command (e.g. logging, guild-only check, panic guard).
// The wrapped type remains Command.
type Middleware[R any] func(Command[R]) Command[R]

// Apply applies middlewares in order; the last in the list is the outermost.
func Apply[R any](c Command[R], mws ...Middleware[R]) Command[R] {
	for _, mw := range mws {
		c = mw(c)
	}
	return c
}
