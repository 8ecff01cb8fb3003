package session

import (
	"path"
	"sort"
	"strings"
	"sync"
)

const historyLimit = 50

// User is one user's cosmetic shell state. It has no link to any real
// filesystem.
type User struct {
	mu      sync.Mutex
	cwd     string
	history []string
	files   map[string]bool // name -> is directory
}

// Cwd returns the virtual working directory.
func (u *User) Cwd() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.cwd
}

// Chdir moves the virtual working directory. "" and "~" go home, "/" goes to
// the root, ".." pops one level; anything else is appended.
func (u *User) Chdir(dir string) string {
	u.mu.Lock()
	defer u.mu.Unlock()

	switch {
	case dir == "" || dir == "~":
		u.cwd = "~"
	case strings.HasPrefix(dir, "/"):
		u.cwd = path.Clean(dir)
	case strings.HasPrefix(dir, "~/"):
		u.cwd = "~/" + strings.TrimPrefix(path.Clean("/"+strings.TrimPrefix(dir, "~/")), "/")
	default:
		u.cwd = join(u.cwd, dir)
	}
	u.cwd = strings.TrimSuffix(u.cwd, "/")
	if u.cwd == "" {
		u.cwd = "/"
	}
	return u.cwd
}

// join resolves rel against a cwd that is either rooted at "~" or "/".
func join(cwd, rel string) string {
	if cwd == "~" || strings.HasPrefix(cwd, "~/") {
		p := path.Clean("/" + strings.TrimPrefix(cwd, "~") + "/" + rel)
		if p == "/" {
			return "~"
		}
		return "~" + p
	}
	return path.Clean(cwd + "/" + rel)
}

func (u *User) appendHistory(line string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.history = append(u.history, line)
	if len(u.history) > historyLimit {
		u.history = u.history[len(u.history)-historyLimit:]
	}
}

// History returns a copy of the command history, oldest first.
func (u *User) History() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.history...)
}

// Entry is a fake directory entry.
type Entry struct {
	Name  string
	IsDir bool
}

// Files lists the fake files, directories first.
func (u *User) Files() []Entry {
	u.mu.Lock()
	defer u.mu.Unlock()

	out := make([]Entry, 0, len(u.files))
	for name, dir := range u.files {
		out = append(out, Entry{Name: name, IsDir: dir})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsDir != out[j].IsDir {
			return out[i].IsDir
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// AddFile creates a fake file or directory. It reports false if the name is
// taken.
func (u *User) AddFile(name string, dir bool) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.files[name]; ok {
		return false
	}
	u.files[name] = dir
	return true
}

// RemoveFile deletes a fake entry and reports whether it existed.
func (u *User) RemoveFile(name string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.files[name]; !ok {
		return false
	}
	delete(u.files, name)
	return true
}

// IsDir reports whether name is a fake directory.
func (u *User) IsDir(name string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.files[name]
}
