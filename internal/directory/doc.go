// Package directory provides an HTTP client for a remote user directory.
//
// # Overview
//
// The directory is a JSONPlaceholder-style REST service that owns user
// records. roster consumes four endpoints and never produces any of them:
//
//	GET    /users        list every user
//	POST   /users        create a user from {name, email}
//	PUT    /users/{id}   replace name and email
//	DELETE /users/{id}   remove a user
//
// # Architecture
//
//   - client.go: Client, the Directory interface, request plumbing
//   - types.go: User record, Draft request body, Reply
//
// # Success Policy Lives Elsewhere
//
// List is the only call that interprets its response: the status code is
// ignored and the body must decode as a JSON array. Create, Update and Delete
// return a Reply holding the raw status code and body. Deciding which codes
// count as success is the controller's job, because each operation accepts a
// different set.
//
// # Opaque Records
//
// Only id, name and email carry meaning here. A User decodes from any JSON
// object: fields of unexpected types (a numeric phone or zipcode, an
// address that is a string) leave the typed view empty, and the record is
// kept verbatim so unknown keys and original value types survive when the
// user is marshalled again. Elements that are not objects fail the list.
//
// # Request Handling
//
// Every request:
//   - Is bound to the caller's context
//   - Sets Accept: application/json and User-Agent: roster/0.1
//   - Carries a fresh X-Request-ID so log lines can be matched to calls
//   - Sends Content-type: application/json; charset=UTF-8 when it has a body
//
// No timeout is applied unless WithTimeout is given.
//
// # Usage Example
//
//	client, err := directory.NewClient("https://jsonplaceholder.typicode.com")
//	if err != nil {
//		return err
//	}
//	users, err := client.List(ctx)
//	reply, err := client.Create(ctx, directory.Draft{Name: "Bo", Email: "b@x.com"})
//	if err == nil && reply.Status == http.StatusCreated {
//		var created directory.User
//		_ = reply.Decode(&created)
//	}
package directory
