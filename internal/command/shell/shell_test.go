package shell

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keshon/termcord/internal/command"
	"github.com/keshon/termcord/internal/session"
	"github.com/keshon/termcord/internal/terminal"
	"github.com/keshon/termcord/pkg/cmd"
)

type host struct{}

func (host) GuildCount() int          { return 1234 }
func (host) Latency() time.Duration { return 42 * time.Millisecond }

type env struct {
	reg   *command.Registry
	user  *session.User
	clock time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		reg:   command.NewRegistry(),
		user:  session.NewStore(DefaultFiles()...).Get("u1"),
		clock: time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC),
	}
	secret := command.New("secret", "root only", func(context.Context, *command.Invocation) (terminal.Result, error) {
		return terminal.Plain("granted"), nil
	})
	sh := New(Options{
		BotName: "termcord",
		Version: "1.0.0",
		Host:    host{},
		List:    e.reg.GetAll,
		Sudo:    []command.Command{secret},
		Now:     func() time.Time { return e.clock },
	})
	for _, c := range sh.Commands() {
		e.reg.Register(c)
	}
	return e
}

func (e *env) run(t *testing.T, text string) []string {
	t.Helper()
	res, err := e.reg.Dispatch(context.Background(), cmd.Parse(text, &command.Context{AuthorID: "u1", AuthorName: "neo", User: e.user}))
	require.NoError(t, err)
	return terminal.Normalize(res)
}

func TestDefaultFiles(t *testing.T) {
	files := DefaultFiles()
	require.NotEmpty(t, files)
	assert.Contains(t, files, session.Entry{Name: "Documents", IsDir: true})
	assert.Contains(t, files, session.Entry{Name: "notes.txt"})
}

func TestNavigation(t *testing.T) {
	e := newEnv(t)

	assert.Equal(t, []string{"~"}, e.run(t, "pwd"))
	assert.Equal(t, []string{""}, e.run(t, "cd projects/app"))
	assert.Equal(t, []string{"~/projects/app"}, e.run(t, "pwd"))
	e.run(t, "cd ..")
	assert.Equal(t, []string{"~/projects"}, e.run(t, "pwd"))
	e.run(t, "cd /var/log")
	assert.Equal(t, []string{"/var/log"}, e.run(t, "pwd"))
	e.run(t, "cd")
	assert.Equal(t, []string{"~"}, e.run(t, "pwd"))

	assert.Equal(t, []string{"cd: notes.txt: Not a directory"}, e.run(t, "cd notes.txt"))
}

func TestFileCommands(t *testing.T) {
	e := newEnv(t)

	e.run(t, "touch a.txt")
	assert.True(t, strings.Contains(e.run(t, "ls")[0], "a.txt"))

	out := e.run(t, "touch")
	require.Len(t, out, 1)
	assert.True(t, strings.HasPrefix(out[0], "created "))

	assert.Equal(t, []string{""}, e.run(t, "rm a.txt"))
	out = e.run(t, "rm a.txt")
	assert.Contains(t, out[0], "rm: cannot remove 'a.txt': No such file or directory")

	out = e.run(t, "rm Documents")
	assert.Contains(t, out[0], "Is a directory")
	assert.Equal(t, []string{""}, e.run(t, "rm -r Documents"))
	assert.False(t, e.user.IsDir("Documents"))

	assert.Equal(t, []string{"mkdir: missing operand"}, e.run(t, "mkdir"))
	e.run(t, "mkdir build")
	assert.True(t, e.user.IsDir("build"))
	assert.Contains(t, e.run(t, "mkdir build")[0], "File exists")
}

func TestEchoWhoamiDate(t *testing.T) {
	e := newEnv(t)

	assert.Equal(t, []string{"hello   world"}, e.run(t, "echo hello   world"))
	assert.Equal(t, []string{"neo"}, e.run(t, "whoami"))
	assert.Equal(t, []string{"2024-03-09 14:05:07"}, e.run(t, "date +YYYY-MM-DD hh:mm:ss"))
	assert.Equal(t, []string{"Sat Mar  9 14:05:07 UTC 2024"}, e.run(t, "date"))
	assert.Equal(t, []string{""}, e.run(t, "clear"))
}

func TestUptimeAndPing(t *testing.T) {
	e := newEnv(t)
	e.clock = e.clock.Add(90 * time.Minute)

	assert.Equal(t, []string{"15:35:07 up 1h30m0s, 1234 servers"}, e.run(t, "uptime"))
	assert.Equal(t, []string{"pong: time=42 ms"}, e.run(t, "ping"))
}

func TestHelpListsEveryCommand(t *testing.T) {
	e := newEnv(t)
	out := strings.Join(e.run(t, "help"), "\n")

	for _, c := range e.reg.GetAll() {
		assert.Contains(t, out, c.Name())
	}
	assert.Contains(t, out, "sudo: secret")
}

func TestSudo(t *testing.T) {
	e := newEnv(t)

	assert.Equal(t, []string{"granted"}, e.run(t, "sudo SECRET"))
	assert.Equal(t, []string{"usage: sudo <command>"}, e.run(t, "sudo"))
	assert.Contains(t, e.run(t, "sudo rm -rf /")[0], "neo is not in the sudoers file. This incident will be reported.")
}

func TestNeofetchIsEmbed(t *testing.T) {
	e := newEnv(t)
	res, err := e.reg.Dispatch(context.Background(), cmd.Parse("neofetch", &command.Context{AuthorName: "neo"}))
	require.NoError(t, err)

	emb, ok := res.(terminal.Embed)
	require.True(t, ok)
	assert.Equal(t, "neo@termcord", emb.Embed.Title)
	assert.Nil(t, terminal.Normalize(res))
}

func TestHistoryAndFortune(t *testing.T) {
	e := newEnv(t)
	store := session.NewStore()
	e.user = store.Record("u1", "ls")
	store.Record("u1", "pwd")

	assert.Equal(t, []string{"    1  ls", "    2  pwd"}, e.run(t, "history"))
	assert.Len(t, e.run(t, "fortune"), 1)
}
