package render

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/keshon/termcord/internal/terminal"
)

const (
	renameLabel   = "Nickname"
	renamePending = "pending…"
)

// staged plays the progress-then-reveal animation.
func (j *renderJob) staged(ctx context.Context, s terminal.Staged) error {
	progress := make([]string, 0, len(s.Progress))
	screen := func() string { return terminal.Screen(j.prompt, progress) }

	if err := j.send(ctx, Frame{Content: screen()}); err != nil {
		return j.fallback(ctx, Frame{Content: terminal.Screen(j.prompt, stagedSummary(s))}, err)
	}

	for _, phrase := range s.Progress {
		progress = append(progress, terminal.Progress(terminal.EscapeBackticks(phrase)))
		j.edit(ctx, "edit progress", Frame{Content: screen()})
		j.pause(ctx, j.opts.Delay)
	}

	if s.Error != "" {
		if _, err := j.r.m.Send(ctx, j.channelID, Frame{Content: terminal.Failure(s.Error)}); err != nil {
			j.log.Warn("failure message send failed", zap.Error(err))
		}
		return nil
	}
	if s.Record == nil {
		return nil
	}

	rec := s.Record
	content := screen()
	values := make([]string, len(rec.Fields))
	block := func(status string) *discordgo.MessageEmbed {
		return fieldBlock(rec, values, status, false)
	}

	status := ""
	if rec.Rename {
		status = renamePending
	}
	j.edit(ctx, "edit field block", Frame{Content: content, Embed: block(status)})

	for i, f := range rec.Fields {
		value := terminal.Truncate(f.Value, FieldValueLimit)
		typed := 0
		for k := range value {
			if k == 0 {
				continue
			}
			typed++
			values[i] = value[:k]
			if typed%2 == 1 {
				values[i] += cursor
			}
			j.edit(ctx, "edit typed field", Frame{Content: content, Embed: block(status)})
			j.pause(ctx, j.r.charDelay)
		}
		values[i] = value
		j.edit(ctx, "edit typed field", Frame{Content: content, Embed: block(status)})
		j.pause(ctx, j.r.fieldDelay)
	}

	if rec.Rename {
		status = j.rename(ctx, rec.Target)
	}
	j.edit(ctx, "edit final block", Frame{Content: content, Embed: fieldBlock(rec, values, status, true)})
	return nil
}

// rename applies the record's nickname and describes the outcome.
func (j *renderJob) rename(ctx context.Context, t *terminal.Target) string {
	if t == nil || t.GuildID == "" || t.UserID == "" {
		return "skipped"
	}
	nick := terminal.Truncate(t.Nick, 32)
	err := j.r.m.Rename(ctx, t.GuildID, t.UserID, nick)
	if err == nil {
		return "✔ changed to " + nick
	}
	j.log.Info("rename refused", zap.String("guild", t.GuildID), zap.String("user", t.UserID), zap.Error(err))
	return "✖ failed (" + renameFailure(err) + ")"
}

func renameFailure(err error) string {
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Response != nil {
		switch rest.Response.StatusCode {
		case 403:
			return "insufficient permissions or role hierarchy"
		case 404:
			return "member left"
		}
	}
	return "unavailable"
}

// fieldBlock renders the record as an embed. Blank values are shown as zero
// width spaces because the platform rejects empty field values.
func fieldBlock(rec *terminal.Record, values []string, status string, final bool) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title: rec.Title,
		Color: colorHack,
	}
	for i, f := range rec.Fields {
		v := values[i]
		if v == "" {
			v = blankValue
		}
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: f.Label, Value: v, Inline: f.Inline})
	}
	if rec.Rename {
		v := status
		if v == "" {
			v = blankValue
		}
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: renameLabel, Value: v, Inline: false})
	}
	if final {
		if n, ok := rec.MutualServers.Get(); ok {
			e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: "Mutual Servers", Value: strconv.Itoa(n), Inline: true})
		}
		if a, ok := rec.Activity.Get(); ok && a != "" {
			e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: "Activity", Value: terminal.Truncate(a, FieldValueLimit), Inline: true})
		}
	}
	return e
}

// stagedSummary is the non-animated text form used when the placeholder
// could not be sent.
func stagedSummary(s terminal.Staged) []string {
	out := append([]string(nil), s.Progress...)
	if s.Error != "" {
		return append(out, "error: "+s.Error)
	}
	if s.Record != nil {
		for _, f := range s.Record.Fields {
			out = append(out, fmt.Sprintf("%s: %s", f.Label, f.Value))
		}
	}
	return out
}
