package disk

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/keshon/termcord/internal/command"
	"github.com/keshon/termcord/internal/storage"
	"github.com/keshon/termcord/internal/terminal"
	"github.com/keshon/termcord/pkg/cmd"
)

func setup(t *testing.T, quota int64) (*Disk, *storage.Store) {
	t.Helper()
	st := storage.New(t.TempDir(), quota, nil, zap.NewNop())
	return New(st, nil), st
}

func run(t *testing.T, d *Disk, text string, atts ...command.Attachment) string {
	t.Helper()
	res, err := d.Run(context.Background(), cmd.Parse(text, &command.Context{AuthorID: "1234567", Attachments: atts}))
	require.NoError(t, err)
	return strings.Join(terminal.Normalize(res), "\n")
}

func TestUsage(t *testing.T) {
	d, _ := setup(t, 100)
	assert.Equal(t, usage, run(t, d, "disk"))
	assert.Equal(t, usage, run(t, d, "disk format"))
}

func TestSaveListRemove(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/a.txt":
			fmt.Fprint(w, "hello")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	d, st := setup(t, 1024)
	assert.Contains(t, run(t, d, "disk save"), "attach one or more files")

	out := run(t, d, "disk save",
		command.Attachment{Name: "a.txt", URL: srv.URL + "/a.txt", Size: 5},
		command.Attachment{Name: "../evil", URL: srv.URL + "/a.txt", Size: 5},
	)
	assert.Contains(t, out, "saved a.txt (5 B)")
	assert.Contains(t, out, "invalid file name (../evil)")

	used, err := st.UsedBytes("1234567")
	require.NoError(t, err)
	assert.EqualValues(t, 5, used)

	out = run(t, d, "disk ls")
	assert.Contains(t, out, "total 1")
	assert.Contains(t, out, "a.txt")

	assert.Contains(t, run(t, d, "disk df"), "/home/1234")
	assert.Equal(t, "removed 'a.txt'", run(t, d, "disk rm a.txt"))
	assert.Contains(t, run(t, d, "disk rm a.txt"), "No such file")
	assert.Equal(t, "total 0", run(t, d, "disk ls"))
}

func TestSaveOverQuota(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, strings.Repeat("x", 64))
	}))
	defer srv.Close()

	d, _ := setup(t, 10)
	out := run(t, d, "disk save", command.Attachment{Name: "big.bin", URL: srv.URL, Size: 64})
	assert.Contains(t, out, "quota exceeded (big.bin)")

	// unknown size is caught while streaming
	out = run(t, d, "disk save", command.Attachment{Name: "big.bin", URL: srv.URL})
	assert.Contains(t, out, "quota exceeded")
	assert.Equal(t, "total 0", run(t, d, "disk ls"))
}

func TestScanWithoutScanner(t *testing.T) {
	d, st := setup(t, 1024)
	_, err := st.SaveFileFromBuffer("1234567", "x.bin", []byte("x"))
	require.NoError(t, err)

	assert.Contains(t, run(t, d, "disk scan x.bin"), "x.bin: skipped")
	assert.Contains(t, run(t, d, "disk scan y.bin"), "no such file")
	assert.Equal(t, "disk scan: missing operand", run(t, d, "disk scan"))
}

func TestDownloadFailureIsError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	d, _ := setup(t, 1024)
	_, err := d.Run(context.Background(), cmd.Parse("disk save", &command.Context{
		AuthorID:    "1",
		Attachments: []command.Attachment{{Name: "a", URL: srv.URL}},
	}))
	assert.Error(t, err)
}

func TestSaveDownloadsConcurrentlyInOrder(t *testing.T) {
	var inFlight, peak atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
		fmt.Fprint(w, strings.TrimPrefix(r.URL.Path, "/"))
	}))
	defer srv.Close()

	st := storage.New(t.TempDir(), 1024, nil, zap.NewNop())
	d := New(st, nil, WithDownloadWorkers(3))

	out := run(t, d, "disk save",
		command.Attachment{Name: "a.txt", URL: srv.URL + "/a"},
		command.Attachment{Name: "b.txt", URL: srv.URL + "/bb"},
		command.Attachment{Name: "c.txt", URL: srv.URL + "/ccc"},
	)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "saved a.txt (1 B)")
	assert.Contains(t, lines[1], "saved b.txt (2 B)")
	assert.Contains(t, lines[2], "saved c.txt (3 B)")
	assert.GreaterOrEqual(t, peak.Load(), int32(2))
}
