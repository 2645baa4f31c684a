// Package controller turns user intents into directory calls and reconciles
// the local roster with the replies.
//
// # Overview
//
// Every operation (LoadAll, AddUser, UpdateUser, DeleteUser) runs on its own
// goroutine and returns a *Task immediately. Callers that do not care about
// the outcome may drop the task; the headless CLI and the tests wait on it.
//
// # Outcomes
//
// A task resolves to exactly one Outcome:
//
//   - Applied: the reply met the operation's success rule and the action was
//     published to the store
//   - Rejected: a reply arrived but its status did not qualify
//   - Failed: transport error, undecodable body, or cancellation
//
// Rejected and Failed tasks never touch the store. The published snapshot is
// left exactly as it was, version included.
//
// # Success rules
//
// The directory's status codes are judged differently per operation:
//
//   - create: exactly 201
//   - delete: exactly 200
//   - update: any non-zero status
//   - list: status is ignored; the body must be a JSON array
//
// # Ordering
//
// Concurrent operations are not serialized against each other. Their actions
// are applied in the order their replies complete, each under the store's
// write lock. The id assigned to an added user is computed from the list
// length at that moment, so two overlapping adds get consecutive ids in
// completion order.
//
// # Observability
//
// Each resolved task is logged once through the configured logrus logger
// (Info for applied, Warn for rejected or cancelled, Error otherwise) and
// counted on the optional metrics.Collector.
package controller
