// Package shell implements the cosmetic terminal commands: navigation of a
// fake workspace, small utilities and sudo.
package shell

import (
	"context"
	_ "embed"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/keshon/termcord/internal/command"
	"github.com/keshon/termcord/internal/session"
	"github.com/keshon/termcord/internal/terminal"
)

//go:embed content.yaml
var rawContent []byte

type content struct {
	Files    []string `yaml:"files"`
	Fortunes []string `yaml:"fortunes"`
}

var embedded = func() content {
	var c content
	if err := yaml.Unmarshal(rawContent, &c); err != nil {
		panic(fmt.Sprintf("shell: bad embedded content: %v", err))
	}
	return c
}()

// DefaultFiles is the workspace a new session starts with.
func DefaultFiles() []session.Entry {
	out := make([]session.Entry, 0, len(embedded.Files))
	for _, f := range embedded.Files {
		dir := strings.HasSuffix(f, "/")
		out = append(out, session.Entry{Name: strings.TrimSuffix(f, "/"), IsDir: dir})
	}
	return out
}

// Host is what the shell can ask about the running bot.
type Host interface {
	GuildCount() int
	Latency() time.Duration
}

// Options configure a Shell.
type Options struct {
	BotName string
	Version string
	Host    Host
	// List returns every registered text command, for help.
	List func() []command.Command
	// Sudo holds the commands reachable through "sudo <name>".
	Sudo []command.Command
	Now  func() time.Time
}

type Shell struct {
	opts     Options
	started  time.Time
	sudo     map[string]command.Command
	fortunes []string
}

func New(opts Options) *Shell {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.List == nil {
		opts.List = func() []command.Command { return nil }
	}
	s := &Shell{
		opts:     opts,
		started:  opts.Now(),
		sudo:     make(map[string]command.Command, len(opts.Sudo)),
		fortunes: embedded.Fortunes,
	}
	for _, c := range opts.Sudo {
		s.sudo[strings.ToLower(c.Name())] = c
	}
	return s
}

// Commands implements command.Provider.
func (s *Shell) Commands() []command.Command {
	return []command.Command{
		command.New("help", "list available commands", s.help),
		command.New("echo", "echo <text>: print text", s.echo),
		command.New("whoami", "print your user name", s.whoami),
		command.New("pwd", "print the working directory", s.pwd),
		command.New("cd", "cd [dir]: change directory", s.cd),
		command.New("ls", "list files", s.ls),
		command.New("touch", "touch [name]: create a file", s.touch),
		command.New("mkdir", "mkdir <name>: create a directory", s.mkdir),
		command.New("rm", "rm <name>: remove a file", s.rm),
		command.New("history", "show your command history", s.history),
		command.New("clear", "clear the screen", s.clear),
		command.New("date", "date [+FORMAT]: print the date (YYYY MM DD hh mm ss)", s.date),
		command.New("uptime", "show how long the bot has been running", s.uptime),
		command.New("fortune", "print a random adage", s.fortune),
		command.New("neofetch", "show system information", s.neofetch),
		command.New("ping", "check gateway latency", s.ping),
		command.New("sudo", "sudo <command>: run a command as root", s.runSudo),
	}
}

func (s *Shell) fortune(context.Context, *command.Invocation) (terminal.Result, error) {
	if len(s.fortunes) == 0 {
		return nil, nil
	}
	return terminal.Plain(s.fortunes[rand.IntN(len(s.fortunes))]), nil
}
