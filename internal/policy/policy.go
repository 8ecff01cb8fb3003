// Package policy holds the per-guild channel and protection sets that gate
// text commands and the hack simulation. State is in memory only and resets
// on restart.
package policy

import (
	"sort"
	"sync"
)

type set map[string]struct{}

func (s set) sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

type channelPolicy struct {
	disabled  set
	whitelist set
}

// ChannelPolicy is a snapshot of a guild's channel sets.
type ChannelPolicy struct {
	Disabled  []string
	Whitelist []string
}

// Store is safe for concurrent use.
type Store struct {
	mu        sync.RWMutex
	channels  map[string]*channelPolicy
	protected map[string]set
}

func New() *Store {
	return &Store{
		channels:  make(map[string]*channelPolicy),
		protected: make(map[string]set),
	}
}

// guild returns the guild's channel policy, creating it on first reference.
// Callers hold the write lock.
func (s *Store) guild(guildID string) *channelPolicy {
	p, ok := s.channels[guildID]
	if !ok {
		p = &channelPolicy{disabled: set{}, whitelist: set{}}
		s.channels[guildID] = p
	}
	return p
}

// EnableChannel removes the channel from the disabled set and whitelists it.
func (s *Store) EnableChannel(guildID, channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.guild(guildID)
	delete(p.disabled, channelID)
	p.whitelist[channelID] = struct{}{}
}

// DisableChannel adds the channel to the disabled set and drops it from the
// whitelist.
func (s *Store) DisableChannel(guildID, channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.guild(guildID)
	delete(p.whitelist, channelID)
	p.disabled[channelID] = struct{}{}
}

// ResetChannels clears both sets for the guild.
func (s *Store) ResetChannels(guildID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.channels, guildID)
}

// IsChannelEnabled reports whether text commands may run in the channel. A
// disabled channel is always refused; a non-empty whitelist refuses every
// channel not on it. Direct messages (no guild) are always enabled.
func (s *Store) IsChannelEnabled(guildID, channelID string) bool {
	if guildID == "" {
		return true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.channels[guildID]
	if !ok {
		return true
	}
	if _, off := p.disabled[channelID]; off {
		return false
	}
	if len(p.whitelist) > 0 {
		_, on := p.whitelist[channelID]
		return on
	}
	return true
}

// Channels returns a snapshot of the guild's channel sets.
func (s *Store) Channels(guildID string) ChannelPolicy {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.channels[guildID]
	if !ok {
		return ChannelPolicy{}
	}
	return ChannelPolicy{
		Disabled:  p.disabled.sorted(),
		Whitelist: p.whitelist.sorted(),
	}
}

// Protect opts the user into protection from the hack simulation.
func (s *Store) Protect(guildID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	users, ok := s.protected[guildID]
	if !ok {
		users = set{}
		s.protected[guildID] = users
	}
	users[userID] = struct{}{}
}

// Unprotect removes the user's protection. Unknown users are a no-op.
func (s *Store) Unprotect(guildID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.protected[guildID], userID)
}

// IsProtected reports whether the user opted into protection in the guild.
func (s *Store) IsProtected(guildID, userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.protected[guildID][userID]
	return ok
}
