package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/keshon/termcord/internal/terminal"
	"github.com/keshon/termcord/pkg/cmd"
)

type providerFunc func() []Command

func (f providerFunc) Commands() []Command { return f() }

func whoami() Command {
	return New("whoami", "print the user name", func(_ context.Context, inv *Invocation) (terminal.Result, error) {
		return terminal.Plain(From(inv).AuthorName), nil
	})
}

func TestBuildDispatchesAndMisses(t *testing.T) {
	r := Build(zap.NewNop(), []Provider{providerFunc(func() []Command { return []Command{whoami()} })}, WithLogging(zap.NewNop()))

	res, err := r.Dispatch(context.Background(), cmd.Parse("WHOAMI", &Context{AuthorName: "neo"}))
	require.NoError(t, err)
	assert.Equal(t, terminal.PlainText{Text: "neo"}, res)

	res, err = r.Dispatch(context.Background(), cmd.Parse("frobnicate", nil))
	require.NoError(t, err)
	assert.Equal(t, []string{"frobnicate: command not found"}, terminal.Normalize(res))
}

func TestGuildOnly(t *testing.T) {
	c := WithGuildOnly(whoami())
	assert.Equal(t, "whoami", c.Name())

	res, err := c.Run(context.Background(), cmd.Parse("whoami", &Context{AuthorName: "neo"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"whoami: only available inside a server"}, terminal.Normalize(res))

	res, err = c.Run(context.Background(), cmd.Parse("whoami", &Context{AuthorName: "neo", GuildID: "g"}))
	require.NoError(t, err)
	assert.Equal(t, []string{"neo"}, terminal.Normalize(res))
}

func TestFromWithoutContext(t *testing.T) {
	c := From(cmd.Parse("x", nil))
	require.NotNil(t, c)
	assert.False(t, c.InGuild())
}
