package shell

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/dustin/go-humanize"

	"github.com/keshon/termcord/internal/command"
	"github.com/keshon/termcord/internal/terminal"
	"github.com/keshon/termcord/pkg/util"
)

const colorNeofetch = 0x5865f2

func (s *Shell) help(context.Context, *command.Invocation) (terminal.Result, error) {
	cmds := s.opts.List()
	out := make([]string, 0, len(cmds)+2)
	out = append(out, "Available commands:")
	for _, c := range cmds {
		out = append(out, fmt.Sprintf("  %s  %s", terminal.Accent(fmt.Sprintf("%-9s", c.Name())), c.Description()))
	}
	if len(s.sudo) > 0 {
		names := make([]string, 0, len(s.sudo))
		for _, c := range s.opts.Sudo {
			names = append(names, c.Name())
		}
		out = append(out, "", "sudo: "+strings.Join(names, ", "))
	}
	return terminal.Lines(out...), nil
}

func (s *Shell) echo(_ context.Context, inv *command.Invocation) (terminal.Result, error) {
	return terminal.Plain(inv.Rest()), nil
}

func (s *Shell) whoami(_ context.Context, inv *command.Invocation) (terminal.Result, error) {
	name := command.From(inv).AuthorName
	if name == "" {
		name = "user"
	}
	return terminal.Plain(name), nil
}

func (s *Shell) clear(context.Context, *command.Invocation) (terminal.Result, error) {
	return terminal.Plain(""), nil
}

func (s *Shell) date(_ context.Context, inv *command.Invocation) (terminal.Result, error) {
	now := s.opts.Now()
	if rest := inv.Rest(); strings.HasPrefix(rest, "+") {
		return terminal.Plain(util.FormatDateTpl(now, strings.TrimPrefix(rest, "+"))), nil
	}
	return terminal.Plain(now.UTC().Format("Mon Jan _2 15:04:05 MST 2006")), nil
}

func (s *Shell) uptimeDuration() time.Duration {
	return s.opts.Now().Sub(s.started).Truncate(time.Second)
}

func (s *Shell) uptime(context.Context, *command.Invocation) (terminal.Result, error) {
	guilds := 0
	if s.opts.Host != nil {
		guilds = s.opts.Host.GuildCount()
	}
	return terminal.Plain(fmt.Sprintf("%s up %s, %d servers", s.opts.Now().UTC().Format("15:04:05"), s.uptimeDuration(), guilds)), nil
}

func (s *Shell) ping(context.Context, *command.Invocation) (terminal.Result, error) {
	if s.opts.Host == nil {
		return terminal.Plain("pong"), nil
	}
	return terminal.Plain(fmt.Sprintf("pong: time=%d ms", s.opts.Host.Latency().Milliseconds())), nil
}

func (s *Shell) neofetch(_ context.Context, inv *command.Invocation) (terminal.Result, error) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	guilds := 0
	if s.opts.Host != nil {
		guilds = s.opts.Host.GuildCount()
	}
	name := s.opts.BotName
	if name == "" {
		name = "termcord"
	}
	field := func(k, v string) *discordgo.MessageEmbedField {
		return &discordgo.MessageEmbedField{Name: k, Value: v, Inline: true}
	}
	return terminal.Embed{Embed: &discordgo.MessageEmbed{
		Title: fmt.Sprintf("%s@%s", command.From(inv).AuthorName, name),
		Color: colorNeofetch,
		Fields: []*discordgo.MessageEmbedField{
			field("OS", name+" "+s.opts.Version),
			field("Kernel", runtime.Version()),
			field("Uptime", s.uptimeDuration().String()),
			field("Servers", humanize.Comma(int64(guilds))),
			field("Goroutines", humanize.Comma(int64(runtime.NumGoroutine()))),
			field("Memory", humanize.Bytes(mem.Alloc)),
			field("Arch", runtime.GOOS+"/"+runtime.GOARCH),
		},
	}}, nil
}
