package shell

import (
	"context"
	"fmt"
	"strings"

	"github.com/keshon/termcord/internal/command"
	"github.com/keshon/termcord/internal/fake"
	"github.com/keshon/termcord/internal/session"
	"github.com/keshon/termcord/internal/terminal"
)

// user returns the caller's session, or a throwaway one for invocations made
// outside the dispatcher.
func user(inv *command.Invocation) *session.User {
	if u := command.From(inv).User; u != nil {
		return u
	}
	return session.NewStore().Get("")
}

func (s *Shell) pwd(_ context.Context, inv *command.Invocation) (terminal.Result, error) {
	return terminal.Plain(user(inv).Cwd()), nil
}

func (s *Shell) cd(_ context.Context, inv *command.Invocation) (terminal.Result, error) {
	u := user(inv)
	dir := ""
	if len(inv.Args) > 0 {
		dir = inv.Args[0]
	}
	if dir != "" && dir != "~" && dir != "." && dir != ".." && !strings.Contains(dir, "/") {
		for _, e := range u.Files() {
			if e.Name == dir && !e.IsDir {
				return terminal.Plain(fmt.Sprintf("cd: %s: Not a directory", dir)), nil
			}
		}
	}
	u.Chdir(dir)
	return nil, nil
}

func (s *Shell) ls(_ context.Context, inv *command.Invocation) (terminal.Result, error) {
	files := user(inv).Files()
	if len(files) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(files))
	for _, e := range files {
		if e.IsDir {
			names = append(names, terminal.Dir(e.Name+"/"))
		} else {
			names = append(names, e.Name)
		}
	}
	return terminal.Plain(strings.Join(names, "  ")), nil
}

func (s *Shell) touch(_ context.Context, inv *command.Invocation) (terminal.Result, error) {
	u := user(inv)
	if len(inv.Args) == 0 {
		name := fake.Codename() + ".txt"
		u.AddFile(name, false)
		return terminal.Plain("created " + name), nil
	}
	for _, name := range inv.Args {
		if u.IsDir(name) {
			continue
		}
		u.AddFile(name, false)
	}
	return nil, nil
}

func (s *Shell) mkdir(_ context.Context, inv *command.Invocation) (terminal.Result, error) {
	if len(inv.Args) == 0 {
		return terminal.Plain("mkdir: missing operand"), nil
	}
	u := user(inv)
	var out []string
	for _, name := range inv.Args {
		if !u.AddFile(name, true) {
			out = append(out, terminal.Error(fmt.Sprintf("mkdir: cannot create directory '%s': File exists", name)))
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return terminal.Lines(out...), nil
}

func (s *Shell) rm(_ context.Context, inv *command.Invocation) (terminal.Result, error) {
	recursive := false
	var names []string
	for _, a := range inv.Args {
		switch a {
		case "-r", "-rf", "-fr", "-R":
			recursive = true
		default:
			names = append(names, a)
		}
	}
	if len(names) == 0 {
		return terminal.Plain("rm: missing operand"), nil
	}

	u := user(inv)
	var out []string
	for _, name := range names {
		switch {
		case name == "/" && recursive:
			out = append(out, terminal.Warn("rm: it is dangerous to operate recursively on '/'"))
		case u.IsDir(name) && !recursive:
			out = append(out, terminal.Error(fmt.Sprintf("rm: cannot remove '%s': Is a directory", name)))
		case !u.RemoveFile(name):
			out = append(out, terminal.Error(fmt.Sprintf("rm: cannot remove '%s': No such file or directory", name)))
		}
	}
	if len(out) == 0 {
		return nil, nil
	}
	return terminal.Lines(out...), nil
}

func (s *Shell) history(_ context.Context, inv *command.Invocation) (terminal.Result, error) {
	h := user(inv).History()
	out := make([]string, 0, len(h))
	for i, line := range h {
		out = append(out, fmt.Sprintf("%5d  %s", i+1, line))
	}
	return terminal.Lines(out...), nil
}
