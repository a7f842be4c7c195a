// Package api provides the HTTP handlers for the REST API: authentication,
// user profile management, and task CRUD with filtering, pagination, and
// statistics. Handlers translate between the wire format and the domain,
// enforce per-request ownership checks, and shape every response into the
// shared envelope.
package api
