package hack

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/termcord/internal/command"
	"github.com/keshon/termcord/internal/policy"
	"github.com/keshon/termcord/internal/terminal"
	"github.com/keshon/termcord/pkg/cmd"
)

type directory struct {
	members map[string]Member
	err     error
}

func (d *directory) Member(_ context.Context, _, userID string) (Member, error) {
	if d.err != nil {
		return Member{}, d.err
	}
	m, ok := d.members[userID]
	if !ok {
		return Member{}, ErrNoSuchMember
	}
	return m, nil
}

func (d *directory) MutualGuilds(string) mo.Option[int]   { return mo.Some(2) }
func (d *directory) Activity(string) mo.Option[string] { return mo.None[string]() }

func setup() (*Hack, *policy.Store) {
	dir := &directory{members: map[string]Member{
		"200": {ID: "200", Username: "trinity", DisplayName: "Trin"},
		"300": {ID: "300", Username: "agent", Bot: true},
	}}
	p := policy.New()
	return New(dir, p), p
}

func run(t *testing.T, h *Hack, text string) terminal.Result {
	t.Helper()
	res, err := h.Command().Run(context.Background(), cmd.Parse(text, &command.Context{AuthorID: "100", AuthorName: "neo", GuildID: "g1"}))
	require.NoError(t, err)
	return res
}

func TestParseTarget(t *testing.T) {
	for in, want := range map[string]string{"<@42>": "42", "<@!42>": "42", "42": "42"} {
		got, ok := ParseTarget(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got)
	}
	_, ok := ParseTarget("@everyone")
	assert.False(t, ok)
}

func TestHackRecord(t *testing.T) {
	h, _ := setup()
	res := run(t, h, "hack <@200>")

	st, ok := res.(terminal.Staged)
	require.True(t, ok)
	assert.Empty(t, st.Error)
	require.Len(t, st.Progress, 4)
	assert.True(t, strings.HasPrefix(st.Progress[0], "Connecting to "))

	rec := st.Record
	require.NotNil(t, rec)
	assert.Equal(t, "Target: Trin", rec.Title)
	assert.True(t, rec.Rename)
	assert.Equal(t, &terminal.Target{GuildID: "g1", UserID: "200", Nick: "hacked by neo"}, rec.Target)

	labels := make([]string, 0, len(rec.Fields))
	for _, f := range rec.Fields {
		labels = append(labels, f.Label)
		assert.NotEmpty(t, f.Value, f.Label)
	}
	assert.Equal(t, []string{"IP Address", "Email", "Password", "Bank", "Balance", "Account"}, labels)
	assert.Contains(t, st.Progress[0], rec.Fields[0].Value)
	assert.True(t, strings.HasPrefix(rec.Fields[1].Value, "trinity"))
	assert.Equal(t, mo.Some(2), rec.MutualServers)
	assert.True(t, rec.Activity.IsAbsent())
}

func TestHackRejections(t *testing.T) {
	h, p := setup()

	assert.Equal(t, terminal.Plain("hack: you cannot hack yourself"), run(t, h, "hack <@100>"))
	assert.Equal(t, terminal.Plain("hack: 999: no such user"), run(t, h, "hack 999"))
	assert.Equal(t, terminal.Plain("usage: sudo hack <@user>"), run(t, h, "hack"))
	assert.Equal(t, terminal.Plain("hack: bob: not a user"), run(t, h, "hack bob"))

	bot := run(t, h, "hack <@300>").(terminal.Staged)
	assert.Equal(t, "Target is a bot. Honeypot detected", bot.Error)
	assert.Nil(t, bot.Record)

	p.Protect("g1", "200")
	blocked := run(t, h, "hack <@!200>").(terminal.Staged)
	assert.Equal(t, "Connection blocked by Trin's firewall", blocked.Error)
	assert.Nil(t, blocked.Record)
	assert.Len(t, blocked.Progress, 2)
}

func TestHackOutsideGuild(t *testing.T) {
	h, _ := setup()
	res, err := h.Command().Run(context.Background(), cmd.Parse("hack <@200>", &command.Context{AuthorID: "100"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"hack: only available inside a server"}, terminal.Normalize(res))
}

func TestDirectoryFailureIsAnError(t *testing.T) {
	h := New(&directory{err: errors.New("gateway down")}, policy.New())
	_, err := h.Command().Run(context.Background(), cmd.Parse("hack 200", &command.Context{AuthorID: "100", GuildID: "g1"}))
	assert.Error(t, err)
}
