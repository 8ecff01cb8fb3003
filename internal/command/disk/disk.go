// Package disk exposes the per-user storage sandbox as the "disk" command.
package disk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gammazero/workerpool"

	"github.com/keshon/termcord/internal/command"
	"github.com/keshon/termcord/internal/scan"
	"github.com/keshon/termcord/internal/storage"
	"github.com/keshon/termcord/internal/terminal"
)

// Store is the storage surface the disk command uses.
type Store interface {
	QuotaRemaining(userID string) (storage.Quota, error)
	SaveFileFromStream(userID, name string, r io.Reader, size int64) (storage.SavedFile, error)
	RemoveFile(userID, name string) (bool, error)
	ListFiles(userID, rel string) ([]storage.FileEntry, error)
	VirusScan(ctx context.Context, userID, name string) (scan.Report, error)
}

// DefaultDownloadWorkers bounds concurrent attachment downloads per save.
const DefaultDownloadWorkers = 3

type Disk struct {
	store   Store
	http    *http.Client
	workers int
}

type Option func(*Disk)

func WithDownloadWorkers(n int) Option {
	return func(d *Disk) {
		if n > 0 {
			d.workers = n
		}
	}
}

// New returns the disk command. client downloads attachments; nil uses a
// client with a one minute timeout.
func New(store Store, client *http.Client, opts ...Option) *Disk {
	if client == nil {
		client = &http.Client{Timeout: time.Minute}
	}
	d := &Disk{store: store, http: client, workers: DefaultDownloadWorkers}
	for _, o := range opts {
		o(d)
	}
	return d
}

const usage = "usage: disk df | ls [path] | save | rm <name> | scan <name>"

// Commands implements command.Provider.
func (d *Disk) Commands() []command.Command {
	return []command.Command{command.New("disk", "disk df|ls|save|rm|scan: your personal storage", d.Run)}
}

func (d *Disk) Run(ctx context.Context, inv *command.Invocation) (terminal.Result, error) {
	if len(inv.Args) == 0 {
		return terminal.Plain(usage), nil
	}
	c := command.From(inv)
	args := inv.Args[1:]

	var (
		res terminal.Result
		err error
	)
	switch strings.ToLower(inv.Args[0]) {
	case "df":
		res, err = d.df(c)
	case "ls":
		res, err = d.ls(c, args)
	case "save":
		res, err = d.save(ctx, c)
	case "rm":
		res, err = d.rm(c, args)
	case "scan":
		res, err = d.scan(ctx, c, args)
	default:
		return terminal.Plain(usage), nil
	}
	if err != nil {
		return failure(inv.Args[0], err)
	}
	return res, nil
}

// describe maps expected storage errors to user facing text.
func describe(sub string, err error) (string, bool) {
	switch {
	case errors.Is(err, storage.ErrQuotaExceeded):
		return "disk " + sub + ": quota exceeded", true
	case errors.Is(err, storage.ErrInvalidName):
		return "disk " + sub + ": invalid file name", true
	case errors.Is(err, storage.ErrNotFound):
		return "disk " + sub + ": no such file or directory", true
	}
	return "", false
}

// failure turns expected storage errors into output; anything else is an
// internal fault for the dispatcher to log.
func failure(sub string, err error) (terminal.Result, error) {
	if msg, ok := describe(sub, err); ok {
		return terminal.Plain(terminal.Error(msg)), nil
	}
	return nil, fmt.Errorf("disk %s: %w", sub, err)
}

func (d *Disk) df(c *command.Context) (terminal.Result, error) {
	q, err := d.store.QuotaRemaining(c.AuthorID)
	if err != nil {
		return nil, err
	}
	pct := 0.0
	if q.Quota > 0 {
		pct = float64(q.Used) * 100 / float64(q.Quota)
	}
	return terminal.Lines(
		fmt.Sprintf("%-10s %10s %10s %10s %5s", "Filesystem", "Size", "Used", "Avail", "Use%"),
		fmt.Sprintf("%-10s %10s %10s %10s %4.0f%%", "/home/"+c.AuthorID[:min(4, len(c.AuthorID))], humanize.IBytes(uint64(q.Quota)), humanize.IBytes(uint64(q.Used)), humanize.IBytes(uint64(q.Remain)), pct),
	), nil
}

func (d *Disk) ls(c *command.Context, args []string) (terminal.Result, error) {
	rel := ""
	if len(args) > 0 {
		rel = args[0]
	}
	entries, err := d.store.ListFiles(c.AuthorID, rel)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return terminal.Plain("total 0"), nil
	}
	out := make([]string, 0, len(entries)+1)
	out = append(out, fmt.Sprintf("total %d", len(entries)))
	for _, e := range entries {
		switch {
		case e.IsDirectory:
			out = append(out, fmt.Sprintf("drwxr-xr-x %9s  %s", "-", terminal.Dir(e.Name+"/")))
		default:
			out = append(out, fmt.Sprintf("-rw-r--r-- %9s  %s", humanize.IBytes(uint64(e.Size)), e.Name))
		}
	}
	return terminal.Lines(out...), nil
}

func (d *Disk) save(ctx context.Context, c *command.Context) (terminal.Result, error) {
	if len(c.Attachments) == 0 {
		return terminal.Plain("disk save: attach one or more files to the message"), nil
	}

	type outcome struct {
		saved storage.SavedFile
		err   error
	}
	results := make([]outcome, len(c.Attachments))
	wp := workerpool.New(min(d.workers, len(c.Attachments)))
	for i, a := range c.Attachments {
		wp.Submit(func() {
			saved, err := d.download(ctx, c.AuthorID, a)
			results[i] = outcome{saved: saved, err: err}
		})
	}
	wp.StopWait()

	out := make([]string, 0, len(results))
	for i, r := range results {
		if r.err != nil {
			msg, ok := describe("save", r.err)
			if !ok {
				return nil, r.err
			}
			out = append(out, terminal.Error(msg+" ("+c.Attachments[i].Name+")"))
			continue
		}
		out = append(out, terminal.OK(fmt.Sprintf("saved %s (%s)", r.saved.Name, humanize.IBytes(uint64(r.saved.Size)))))
	}
	return terminal.Lines(out...), nil
}

func (d *Disk) download(ctx context.Context, userID string, a command.Attachment) (storage.SavedFile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.URL, nil)
	if err != nil {
		return storage.SavedFile{}, err
	}
	resp, err := d.http.Do(req)
	if err != nil {
		return storage.SavedFile{}, fmt.Errorf("download %s: %w", a.Name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return storage.SavedFile{}, fmt.Errorf("download %s: status %d", a.Name, resp.StatusCode)
	}

	size := int64(-1)
	if a.Size > 0 {
		size = int64(a.Size)
	}
	return d.store.SaveFileFromStream(userID, a.Name, resp.Body, size)
}

func (d *Disk) rm(c *command.Context, args []string) (terminal.Result, error) {
	if len(args) == 0 {
		return terminal.Plain("disk rm: missing operand"), nil
	}
	found, err := d.store.RemoveFile(c.AuthorID, args[0])
	if err != nil {
		return nil, err
	}
	if !found {
		return terminal.Plain(terminal.Error(fmt.Sprintf("disk rm: cannot remove '%s': No such file", args[0]))), nil
	}
	return terminal.Plain("removed '" + args[0] + "'"), nil
}

func (d *Disk) scan(ctx context.Context, c *command.Context, args []string) (terminal.Result, error) {
	if len(args) == 0 {
		return terminal.Plain("disk scan: missing operand"), nil
	}
	rep, err := d.store.VirusScan(ctx, c.AuthorID, args[0])
	if err != nil {
		return nil, err
	}

	line := fmt.Sprintf("%s: %s", args[0], rep.Status)
	switch rep.Status {
	case scan.StatusClean:
		line = terminal.OK(line)
	case scan.StatusMalicious, scan.StatusSuspicious:
		line = terminal.Error(fmt.Sprintf("%s (%d malicious, %d suspicious)", line, rep.Malicious, rep.Suspicious))
	case scan.StatusSkipped:
		line = terminal.Warn(line + " (" + rep.Reason + ")")
	}
	return terminal.Plain(line), nil
}
