// Package storage is the per-user file sandbox behind the disk commands. Each
// user owns one flat directory under the storage root; writes are checked
// against a byte quota recomputed from disk every time.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/keshon/termcord/internal/scan"
)

var (
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	ErrInvalidName   = errors.New("invalid file name")
	ErrNotFound      = errors.New("no such file")
)

const (
	lockDir    = ".locks"
	tempPrefix = ".upload-"
)

// Scanner checks a stored file for malware.
type Scanner interface {
	Enabled() bool
	ScanFile(ctx context.Context, path string) (scan.Report, error)
}

// Quota is a user's usage against the configured limit, in bytes.
type Quota struct {
	Used   int64
	Remain int64
	Quota  int64
}

// SavedFile describes a completed write.
type SavedFile struct {
	Path string
	Name string
	Size int64
}

// FileEntry is one listing row.
type FileEntry struct {
	Name        string
	IsDirectory bool
	IsFile      bool
	Size        int64
}

type Store struct {
	root    string
	quota   int64
	scanner Scanner
	log     *zap.Logger

	mu    sync.Mutex
	users map[string]*sync.Mutex
}

// New returns a store rooted at root with a per-user quota in bytes. scanner
// may be nil.
func New(root string, quota int64, scanner Scanner, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		root:    root,
		quota:   quota,
		scanner: scanner,
		log:     log,
		users:   make(map[string]*sync.Mutex),
	}
}

// Root returns the storage root directory.
func (s *Store) Root() string { return s.root }

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if strings.HasPrefix(name, tempPrefix) || name == lockDir {
		return "", fmt.Errorf("%w: %q is reserved", ErrInvalidName, name)
	}
	return name, nil
}

func (s *Store) userDir(userID string) (string, error) {
	id, err := cleanName(userID)
	if err != nil {
		return "", fmt.Errorf("user id: %w", err)
	}
	return filepath.Join(s.root, id), nil
}

// lock serializes quota checks and writes for one user, across goroutines
// through an in-process mutex and across processes through a lock file.
func (s *Store) lock(userID string) (func(), error) {
	s.mu.Lock()
	m, ok := s.users[userID]
	if !ok {
		m = &sync.Mutex{}
		s.users[userID] = m
	}
	s.mu.Unlock()
	m.Lock()

	dir := filepath.Join(s.root, lockDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		m.Unlock()
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	fl := flock.New(filepath.Join(dir, userID+".lock"))
	if err := fl.Lock(); err != nil {
		m.Unlock()
		return nil, fmt.Errorf("lock user %s: %w", userID, err)
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			s.log.Warn("unlock failed", zap.String("user", userID), zap.Error(err))
		}
		m.Unlock()
	}, nil
}

// EnsureUserDir creates the user's directory and returns its path.
func (s *Store) EnsureUserDir(userID string) (string, error) {
	dir, err := s.userDir(userID)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create user dir: %w", err)
	}
	return dir, nil
}

// UsedBytes sums the sizes of every regular file the user owns.
func (s *Store) UsedBytes(userID string) (int64, error) {
	dir, err := s.EnsureUserDir(userID)
	if err != nil {
		return 0, err
	}
	return dirSize(dir)
}

func dirSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("measure %s: %w", filepath.Base(dir), err)
	}
	return total, nil
}

// QuotaRemaining reports the user's usage against the quota.
func (s *Store) QuotaRemaining(userID string) (Quota, error) {
	used, err := s.UsedBytes(userID)
	if err != nil {
		return Quota{}, err
	}
	return Quota{Used: used, Remain: max(0, s.quota-used), Quota: s.quota}, nil
}

// SaveFileFromBuffer writes data as name, replacing any file of that name.
func (s *Store) SaveFileFromBuffer(userID, name string, data []byte) (SavedFile, error) {
	return s.SaveFileFromStream(userID, name, bytes.NewReader(data), int64(len(data)))
}

// SaveFileFromStream copies r into name. A negative size means unknown: the
// copy is bounded by the remaining quota and aborted when it runs over. No
// partial file is ever left behind.
func (s *Store) SaveFileFromStream(userID, name string, r io.Reader, size int64) (SavedFile, error) {
	name, err := cleanName(name)
	if err != nil {
		return SavedFile{}, err
	}
	dir, err := s.EnsureUserDir(userID)
	if err != nil {
		return SavedFile{}, err
	}

	unlock, err := s.lock(filepath.Base(dir))
	if err != nil {
		return SavedFile{}, err
	}
	defer unlock()

	used, err := dirSize(dir)
	if err != nil {
		return SavedFile{}, err
	}
	dst := filepath.Join(dir, name)
	var existing int64
	if info, err := os.Stat(dst); err == nil {
		if !info.Mode().IsRegular() {
			return SavedFile{}, fmt.Errorf("%w: %q is not a file", ErrInvalidName, name)
		}
		existing = info.Size()
	}

	allowed := s.quota - (used - existing)
	if size >= 0 && size > allowed {
		return SavedFile{}, fmt.Errorf("%w: %d bytes used, %d requested, quota %d", ErrQuotaExceeded, used, size, s.quota)
	}
	if allowed < 0 {
		allowed = 0
	}

	tmp, err := os.CreateTemp(dir, tempPrefix+"*")
	if err != nil {
		return SavedFile{}, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, io.LimitReader(r, allowed+1))
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return SavedFile{}, fmt.Errorf("write %s: %w", name, err)
	}
	if n > allowed {
		return SavedFile{}, fmt.Errorf("%w: upload larger than the %d bytes left", ErrQuotaExceeded, allowed)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return SavedFile{}, fmt.Errorf("store %s: %w", name, err)
	}

	s.log.Info("file saved", zap.String("user", userID), zap.String("file", name), zap.Int64("size", n))
	return SavedFile{Path: dst, Name: name, Size: n}, nil
}

// RemoveFile deletes name and reports whether it existed.
func (s *Store) RemoveFile(userID, name string) (bool, error) {
	name, err := cleanName(name)
	if err != nil {
		return false, err
	}
	dir, err := s.EnsureUserDir(userID)
	if err != nil {
		return false, err
	}
	unlock, err := s.lock(filepath.Base(dir))
	if err != nil {
		return false, err
	}
	defer unlock()

	err = os.Remove(filepath.Join(dir, name))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("remove %s: %w", name, err)
	}
}

// ListFiles lists rel inside the user's directory, directories first.
func (s *Store) ListFiles(userID, rel string) ([]FileEntry, error) {
	dir, err := s.EnsureUserDir(userID)
	if err != nil {
		return nil, err
	}
	rel = strings.TrimPrefix(filepath.ToSlash(strings.TrimSpace(rel)), "/")
	if rel == "" {
		rel = "."
	}
	if !filepath.IsLocal(rel) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, rel)
	}

	entries, err := os.ReadDir(filepath.Join(dir, rel))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, rel)
		}
		return nil, fmt.Errorf("list %s: %w", rel, err)
	}

	out := make([]FileEntry, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), tempPrefix) {
			continue
		}
		fe := FileEntry{Name: e.Name(), IsDirectory: e.IsDir(), IsFile: e.Type().IsRegular()}
		if fe.IsFile {
			if info, err := e.Info(); err == nil {
				fe.Size = info.Size()
			}
		}
		out = append(out, fe)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDirectory != out[j].IsDirectory {
			return out[i].IsDirectory
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// VirusScan submits one of the user's files to the scanner. Without a
// configured scanner the report status is skipped.
func (s *Store) VirusScan(ctx context.Context, userID, name string) (scan.Report, error) {
	name, err := cleanName(name)
	if err != nil {
		return scan.Report{}, err
	}
	dir, err := s.userDir(userID)
	if err != nil {
		return scan.Report{}, err
	}
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return scan.Report{}, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return scan.Report{}, err
	}

	if s.scanner == nil || !s.scanner.Enabled() {
		return scan.Report{Status: scan.StatusSkipped, Reason: "no scanning credential configured"}, nil
	}
	rep, err := s.scanner.ScanFile(ctx, path)
	if err != nil {
		s.log.Warn("virus scan failed", zap.String("user", userID), zap.String("file", name), zap.Error(err))
		return scan.Report{}, fmt.Errorf("scan %s: %w", name, err)
	}
	return rep, nil
}
