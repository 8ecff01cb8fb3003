package session

import "sync"

// Store owns every user's shell state. Entries are created lazily and live
// until the process exits.
type Store struct {
	mu       sync.Mutex
	users    map[string]*User
	defaults []Entry
}

// NewStore returns a store whose new users start with the given entries.
func NewStore(defaults ...Entry) *Store {
	return &Store{
		users:    make(map[string]*User),
		defaults: defaults,
	}
}

// Get returns the user's state, creating the default workspace on first use.
func (s *Store) Get(userID string) *User {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		u = &User{cwd: "~", files: make(map[string]bool, len(s.defaults))}
		for _, e := range s.defaults {
			u.files[e.Name] = e.IsDir
		}
		s.users[userID] = u
	}
	return u
}

// Record ensures the user's workspace exists and appends line to history.
func (s *Store) Record(userID, line string) *User {
	u := s.Get(userID)
	u.appendHistory(line)
	return u
}

// Len returns the number of known users.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users)
}
