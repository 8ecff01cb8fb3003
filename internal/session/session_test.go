package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestCooldownRejectsWithinWindow(t *testing.T) {
	clk := &clock{t: time.Unix(1000, 0)}
	c := NewCooldown(DefaultCooldown).WithClock(clk.now)

	ok, _ := c.Allow("u1")
	require.True(t, ok)

	clk.advance(599 * time.Millisecond)
	ok, wait := c.Allow("u1")
	assert.False(t, ok)
	assert.Equal(t, time.Millisecond, wait)

	// other users are independent
	ok, _ = c.Allow("u2")
	assert.True(t, ok)

	// a rejected call does not extend the window
	clk.advance(time.Millisecond)
	ok, _ = c.Allow("u1")
	assert.True(t, ok)
}

func TestCooldownSweep(t *testing.T) {
	clk := &clock{t: time.Unix(1000, 0)}
	c := NewCooldown(time.Second).WithClock(clk.now)

	c.Allow("old")
	clk.advance(2 * time.Second)
	c.Allow("fresh")

	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 1, c.Len())
}

func TestSweepJobStopsWithContext(t *testing.T) {
	c := NewCooldown(time.Nanosecond)
	c.Allow("u")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- SweepEvery(c, time.Millisecond, zap.NewNop())(ctx) }()

	require.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
}

func TestStoreCreatesDefaultWorkspace(t *testing.T) {
	s := NewStore(Entry{Name: "readme.txt"}, Entry{Name: "projects", IsDir: true})

	u := s.Record("u1", "ls")
	s.Record("u1", "pwd")

	assert.Same(t, u, s.Get("u1"))
	assert.Equal(t, "~", u.Cwd())
	assert.Equal(t, []string{"ls", "pwd"}, u.History())
	assert.Equal(t, []Entry{{Name: "projects", IsDir: true}, {Name: "readme.txt"}}, u.Files())
	assert.Equal(t, 1, s.Len())
}

func TestHistoryIsBounded(t *testing.T) {
	s := NewStore()
	for i := 0; i < historyLimit+10; i++ {
		s.Record("u", "echo")
	}
	assert.Len(t, s.Get("u").History(), historyLimit)
}

func TestChdir(t *testing.T) {
	u := NewStore().Get("u")

	assert.Equal(t, "~/src", u.Chdir("src"))
	assert.Equal(t, "~/src/app", u.Chdir("app"))
	assert.Equal(t, "~/src", u.Chdir(".."))
	assert.Equal(t, "~", u.Chdir(".."))
	assert.Equal(t, "~", u.Chdir(".."))
	assert.Equal(t, "/etc", u.Chdir("/etc/"))
	assert.Equal(t, "/", u.Chdir(".."))
	assert.Equal(t, "~/notes", u.Chdir("~/notes"))
	assert.Equal(t, "~", u.Chdir(""))
}

func TestFakeFiles(t *testing.T) {
	u := NewStore().Get("u")

	assert.True(t, u.AddFile("a.txt", false))
	assert.False(t, u.AddFile("a.txt", false))
	assert.True(t, u.AddFile("bin", true))
	assert.True(t, u.IsDir("bin"))

	assert.True(t, u.RemoveFile("a.txt"))
	assert.False(t, u.RemoveFile("a.txt"))
	assert.Equal(t, []Entry{{Name: "bin", IsDir: true}}, u.Files())
}
