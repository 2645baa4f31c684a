package state

import "github.com/five82/roster/internal/directory"

// ReplaceUsers swaps in a freshly listed sequence, keeping server order.
type ReplaceUsers struct {
	Users []directory.User
}

// Reduce implements Action.
func (a ReplaceUsers) Reduce(_ []directory.User) []directory.User {
	return cloneUsers(a.Users)
}

// AppendUser adds User to the end of the list. Its ID is replaced with the
// local count plus one at the moment the action is applied; the id the
// directory assigned is discarded.
type AppendUser struct {
	User directory.User
}

// Reduce implements Action.
func (a AppendUser) Reduce(current []directory.User) []directory.User {
	next := make([]directory.User, len(current), len(current)+1)
	copy(next, current)
	u := a.User
	u.ID = len(current) + 1
	return append(next, u)
}

// RemoveUser drops every record carrying ID. Missing ids are not an error.
type RemoveUser struct {
	ID int
}

// Reduce implements Action.
func (a RemoveUser) Reduce(current []directory.User) []directory.User {
	next := make([]directory.User, 0, len(current))
	for _, u := range current {
		if u.ID == a.ID {
			continue
		}
		next = append(next, u)
	}
	return next
}

// EditUser rewrites Name and Email of every record carrying ID.
type EditUser struct {
	ID    int
	Name  string
	Email string
}

// Reduce implements Action.
func (a EditUser) Reduce(current []directory.User) []directory.User {
	next := make([]directory.User, len(current))
	for i, u := range current {
		if u.ID == a.ID {
			u.Name = a.Name
			u.Email = a.Email
		}
		next[i] = u
	}
	return next
}
