package command

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/keshon/termcord/internal/terminal"
	"github.com/keshon/termcord/pkg/cmd"
)

// WithGuildOnly answers with a notice instead of running c outside a server.
func WithGuildOnly(c Command) Command {
	return cmd.Wrap(c, func(ctx context.Context, inv *Invocation) (terminal.Result, error) {
		if !From(inv).InGuild() {
			return terminal.Plain(c.Name() + ": only available inside a server"), nil
		}
		return c.Run(ctx, inv)
	})
}

// WithLogging logs each run with its duration.
func WithLogging(log *zap.Logger) Middleware {
	return func(c Command) Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *Invocation) (terminal.Result, error) {
			start := time.Now()
			res, err := c.Run(ctx, inv)
			fields := []zap.Field{
				zap.String("command", cmd.Root(c).Name()),
				zap.String("user", From(inv).AuthorID),
				zap.Duration("took", time.Since(start)),
			}
			if err != nil {
				log.Warn("command failed", append(fields, zap.Error(err))...)
			} else {
				log.Debug("command ran", fields...)
			}
			return res, err
		})
	}
}
