package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/mo"

	"github.com/keshon/termcord/internal/command/hack"
)

// Directory resolves guild members from the gateway state, falling back to
// the REST API for members not cached.
type Directory struct {
	s *discordgo.Session
}

func NewDirectory(s *discordgo.Session) *Directory {
	return &Directory{s: s}
}

func (d *Directory) Member(ctx context.Context, guildID, userID string) (hack.Member, error) {
	m, err := d.s.State.Member(guildID, userID)
	if err != nil {
		m, err = d.s.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	}
	if err != nil {
		var rest *discordgo.RESTError
		if errors.As(err, &rest) && rest.Response != nil && rest.Response.StatusCode == http.StatusNotFound {
			return hack.Member{}, hack.ErrNoSuchMember
		}
		return hack.Member{}, err
	}
	return toMember(m), nil
}

func toMember(m *discordgo.Member) hack.Member {
	out := hack.Member{DisplayName: m.Nick}
	if m.User != nil {
		out.ID = m.User.ID
		out.Username = m.User.Username
		out.Bot = m.User.Bot
		if out.DisplayName == "" {
			out.DisplayName = m.User.GlobalName
		}
	}
	return out
}

func (d *Directory) guildIDs() []string {
	d.s.State.RLock()
	defer d.s.State.RUnlock()
	ids := make([]string, 0, len(d.s.State.Guilds))
	for _, g := range d.s.State.Guilds {
		ids = append(ids, g.ID)
	}
	return ids
}

// MutualGuilds counts the cached guilds the user is a member of.
func (d *Directory) MutualGuilds(userID string) mo.Option[int] {
	ids := d.guildIDs()
	if len(ids) == 0 {
		return mo.None[int]()
	}
	n := 0
	for _, id := range ids {
		if _, err := d.s.State.Member(id, userID); err == nil {
			n++
		}
	}
	return mo.Some(n)
}

// Activity describes the user's first visible activity.
func (d *Directory) Activity(userID string) mo.Option[string] {
	for _, id := range d.guildIDs() {
		p, err := d.s.State.Presence(id, userID)
		if err != nil || p == nil {
			continue
		}
		for _, a := range p.Activities {
			if s := describeActivity(a); s != "" {
				return mo.Some(s)
			}
		}
	}
	return mo.None[string]()
}

func describeActivity(a *discordgo.Activity) string {
	if a == nil || a.Name == "" {
		return ""
	}
	switch a.Type {
	case discordgo.ActivityTypeGame:
		return "Playing " + a.Name
	case discordgo.ActivityTypeStreaming:
		return "Streaming " + a.Name
	case discordgo.ActivityTypeListening:
		if a.Details != "" {
			return fmt.Sprintf("Listening to %s: %s", a.Name, a.Details)
		}
		return "Listening to " + a.Name
	case discordgo.ActivityTypeWatching:
		return "Watching " + a.Name
	case discordgo.ActivityTypeCustom:
		if a.State != "" {
			return a.State
		}
		return a.Name
	case discordgo.ActivityTypeCompeting:
		return "Competing in " + a.Name
	default:
		return a.Name
	}
}

var _ hack.Directory = (*Directory)(nil)
