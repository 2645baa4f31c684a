package state

import (
	"sync"
	"time"

	"github.com/five82/roster/internal/directory"
)

// Snapshot is the published view of the user list.
type Snapshot struct {
	Users     []directory.User
	Version   uint64 // incremented on every applied action
	UpdatedAt time.Time
}

// Loading reports whether no users have been published yet. An empty list
// is indistinguishable from "still loading", which is what consumers show.
func (s Snapshot) Loading() bool {
	return len(s.Users) == 0
}

// Find returns the first user with the given id.
func (s Snapshot) Find(id int) (directory.User, bool) {
	for _, u := range s.Users {
		if u.ID == id {
			return u, true
		}
	}
	return directory.User{}, false
}

// Action derives a new user list from the current one. Implementations must
// not modify current; the store hands them its own backing slice.
type Action interface {
	Reduce(current []directory.User) []directory.User
}

// Store owns the single user list. The zero value is ready to use.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	now      func() time.Time
}

// Apply runs action against the current list and publishes the result.
// Concurrent calls are serialized, so each action sees whatever the previous
// one left behind.
func (s *Store) Apply(action Action) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if action == nil {
		return s.cloneLocked()
	}
	s.snapshot.Users = action.Reduce(s.snapshot.Users)
	s.snapshot.Version++
	s.snapshot.UpdatedAt = s.clock()
	return s.cloneLocked()
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cloneLocked()
}

func (s *Store) cloneLocked() Snapshot {
	snap := s.snapshot
	snap.Users = cloneUsers(s.snapshot.Users)
	return snap
}

func (s *Store) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func cloneUsers(users []directory.User) []directory.User {
	if len(users) == 0 {
		return nil
	}
	dup := make([]directory.User, len(users))
	copy(dup, users)
	return dup
}
