// Package hack implements the "sudo hack" simulation: a staged reveal of
// fake personal data about a guild member, ending with a cosmetic rename.
package hack

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"

	"github.com/samber/mo"

	"github.com/keshon/termcord/internal/command"
	"github.com/keshon/termcord/internal/fake"
	"github.com/keshon/termcord/internal/terminal"
)

// ErrNoSuchMember is returned by a Directory for unknown members.
var ErrNoSuchMember = errors.New("no such member")

// Member is the part of a guild member the simulation shows.
type Member struct {
	ID          string
	Username    string
	DisplayName string
	Bot         bool
}

// Name is the display name, falling back to the username.
func (m Member) Name() string {
	if m.DisplayName != "" {
		return m.DisplayName
	}
	return m.Username
}

// Directory resolves guild members and what the bot can see about them.
type Directory interface {
	Member(ctx context.Context, guildID, userID string) (Member, error)
	MutualGuilds(userID string) mo.Option[int]
	Activity(userID string) mo.Option[string]
}

// Protection reports whether a member opted out of being targeted.
type Protection interface {
	IsProtected(guildID, userID string) bool
}

var mention = regexp.MustCompile(`^(?:<@!?(\d+)>|(\d+))$`)

// ParseTarget extracts a user id from a mention or a raw snowflake.
func ParseTarget(arg string) (string, bool) {
	m := mention.FindStringSubmatch(arg)
	if m == nil {
		return "", false
	}
	if m[1] != "" {
		return m[1], true
	}
	return m[2], true
}

var phrases = []string{
	"Resolving target host...",
	"Bypassing 2FA...",
	"Injecting payload into mainframe...",
	"Brute forcing password hash...",
	"Downloading browser history...",
	"Decrypting cookies with ROT13...",
	"Pivoting through proxy chain...",
	"Escalating privileges...",
}

// progress returns the opening phrase followed by a random selection of
// three others in stable order.
func progress(ip string) []string {
	idx := rand.Perm(len(phrases))[:3]
	out := []string{"Connecting to " + ip + "..."}
	for i := range phrases {
		for _, j := range idx {
			if i == j {
				out = append(out, phrases[i])
			}
		}
	}
	return out
}

type Hack struct {
	dir     Directory
	protect Protection
}

func New(dir Directory, protect Protection) *Hack {
	return &Hack{dir: dir, protect: protect}
}

// Command returns the guild-only hack command.
func (h *Hack) Command() command.Command {
	return command.WithGuildOnly(command.New("hack", "hack <@user>: totally real intrusion", h.Run))
}

func (h *Hack) Run(ctx context.Context, inv *command.Invocation) (terminal.Result, error) {
	c := command.From(inv)
	if len(inv.Args) == 0 {
		return terminal.Plain("usage: sudo hack <@user>"), nil
	}
	targetID, ok := ParseTarget(inv.Args[0])
	if !ok {
		return terminal.Plain(fmt.Sprintf("hack: %s: not a user", inv.Args[0])), nil
	}
	if targetID == c.AuthorID {
		return terminal.Plain("hack: you cannot hack yourself"), nil
	}

	target, err := h.dir.Member(ctx, c.GuildID, targetID)
	if errors.Is(err, ErrNoSuchMember) {
		return terminal.Plain(fmt.Sprintf("hack: %s: no such user", targetID)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve member %s: %w", targetID, err)
	}

	ip := fake.IP()
	steps := progress(ip)
	switch {
	case h.protect.IsProtected(c.GuildID, target.ID):
		return terminal.Staged{Progress: steps[:2], Error: fmt.Sprintf("Connection blocked by %s's firewall", target.Name())}, nil
	case target.Bot:
		return terminal.Staged{Progress: steps[:2], Error: "Target is a bot. Honeypot detected"}, nil
	}

	bank := fake.Bank()
	author := c.AuthorName
	if author == "" {
		author = "anonymous"
	}
	return terminal.Staged{
		Progress: steps,
		Record: &terminal.Record{
			Title: "Target: " + target.Name(),
			Fields: []terminal.Field{
				{Label: "IP Address", Value: ip, Inline: true},
				{Label: "Email", Value: fake.Email(target.Username), Inline: true},
				{Label: "Password", Value: fake.Password(), Inline: false},
				{Label: "Bank", Value: bank.Bank, Inline: true},
				{Label: "Balance", Value: bank.Balance, Inline: true},
				{Label: "Account", Value: bank.Account, Inline: true},
			},
			Rename:        true,
			Target:        &terminal.Target{GuildID: c.GuildID, UserID: target.ID, Nick: "hacked by " + author},
			MutualServers: h.dir.MutualGuilds(target.ID),
			Activity:      h.dir.Activity(target.ID),
		},
	}, nil
}
