// Package app provides the orchestration layer for the cohort client.
//
// # Overview
//
// This package wires configuration, the stored session, the API client,
// the feed store, and the UI into complete commands. It is the
// composition root; business logic lives in the domain packages.
//
// # Initialization Pattern
//
// Every command starts from the same bootstrap:
//
//  1. Load configuration (file, then environment overrides)
//  2. Open the session store from the configured path
//  3. Build the API client with the session store as its token source
//
// After bootstrap, commands that need authentication run a session
// pre-flight: a missing session or an expired token yields
// ErrLoginRequired instead of a confusing 401 later. The token is only
// inspected locally; it is never verified client-side.
//
// # Data Flow
//
//	Run()
//	  ├─> config.Load()      file + env
//	  ├─> session.Open()     stored token and user
//	  ├─> api.NewClient()    session store is the TokenSource
//	  ├─> feed.NewStore()    server-synchronized view state
//	  └─> ui.Run()           dashboard (blocks)
//
// Because the client reads the token from the session store on every
// request, a session refreshed mid-run is picked up without rebuilding
// the client.
//
// # Error Handling
//
// Fatal errors are returned from the command functions: unreadable
// config, a malformed base URL, a failed login. Degraded-but-usable
// states are not errors: a missing session file simply means logged
// out, and feed loading failures leave empty sections in the UI while
// the rest keeps working.
package app
