// Package api provides the HTTP client for the Cohort Manager REST API.
//
// # Overview
//
// The client exposes one method per (verb, resource) pair: authentication
// (Login, CreateUser), users (Users, UserByID, SearchUsers, UpdateUser),
// posts and their nested comments, and the read-only cohort aggregates.
// Responses use a single envelope shape, {"status": ..., "data": ...}, which
// is validated here at the boundary so callers never see the wire format.
//
// # Authentication
//
// Authenticated requests carry "Authorization: Bearer <token>". The token is
// read from the TokenSource on every call, not cached at construction, so a
// login or logout elsewhere in the process is picked up immediately. Login and
// CreateUser are the only unauthenticated calls.
//
// # Raw responses
//
// UpdateUserRaw returns the unparsed *http.Response for callers that need
// HTTP-level metadata (the profile editor inspects the status line itself).
// The caller is responsible for closing the body.
//
// # Error handling
//
// The client does not retry and does not interpret failures beyond shaping
// them: transport errors and malformed bodies come back wrapped with
// fmt.Errorf, and any status >= 400 becomes an *Error carrying the status code
// and the server's message. IsUnauthorized and IsNotFound classify the common
// cases. Missing-token, expired-token, and rejected-token all surface the same
// way, as a 401 *Error.
//
// # Diagnostics
//
// Every request logs its method and target URL at debug level through the
// zerolog logger installed with SetLogger; the default logger discards.
package api
