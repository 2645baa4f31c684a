// Package state holds the in-memory mirror of the remote user list.
//
// # Overview
//
// Store is the one place the user list lives. The controller writes to it
// after a network call resolves; the TUI and the ops listener read from it on
// their own schedules. The store is created by the composition root and
// passed in, never reached through a package-level variable, so tests can
// build as many as they like.
//
// # Core Types
//
// Store:
//   - Zero value ready to use
//   - sync.RWMutex guarded
//   - Apply(action) is the only way to change the list
//
// Snapshot:
//   - Users in publication order
//   - Version, bumped once per applied action
//   - UpdatedAt, the time of the last applied action
//
// Action:
//   - Reduce(current) returns the next list
//   - Must not modify current
//
// # Actions
//
//	ReplaceUsers{Users}        list load, keeps server order
//	AppendUser{User}           add; ID becomes len(current)+1
//	RemoveUser{ID}             delete; filter, missing ids are fine
//	EditUser{ID, Name, Email}  update; other fields untouched
//
// # Ordering
//
// Apply holds the write lock while Reduce runs, so actions are applied one
// at a time in the order their callers reach the lock. For the controller
// that is the completion order of the network calls, not the order the
// operator fired them. An AppendUser that lands after a RemoveUser counts the
// shortened list.
//
// # Copy-on-Write
//
// Each action builds a new slice. Snapshot and Apply return clones, so a
// consumer holding an old snapshot keeps seeing exactly what it was given.
// User is a plain value type (no pointers, maps or slices), so copying the
// slice copies the records.
//
// # Loading
//
// There is no separate loading flag. An empty list means "loading" to every
// consumer, which is also what an empty directory looks like.
package state
