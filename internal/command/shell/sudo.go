package shell

import (
	"context"
	"strings"

	"github.com/keshon/termcord/internal/command"
	"github.com/keshon/termcord/internal/terminal"
	"github.com/keshon/termcord/pkg/cmd"
)

// runSudo runs a privileged subcommand. Everything else gets the classic
// sudoers refusal.
func (s *Shell) runSudo(ctx context.Context, inv *command.Invocation) (terminal.Result, error) {
	if len(inv.Args) == 0 {
		return terminal.Plain("usage: sudo <command>"), nil
	}
	if sub, ok := s.sudo[strings.ToLower(inv.Args[0])]; ok {
		return sub.Run(ctx, cmd.Parse(inv.Rest(), inv.Data))
	}

	name := command.From(inv).AuthorName
	if name == "" {
		name = "user"
	}
	return terminal.Plain(terminal.Error(name + " is not in the sudoers file. This incident will be reported.")), nil
}
