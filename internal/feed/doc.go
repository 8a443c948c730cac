// Package feed holds the dashboard view-state and keeps it in sync with the
// server through optimistic updates.
//
// # Overview
//
// The Store is the in-memory representation of what the dashboard shows:
// posts (newest first, each carrying its nested comment sequence), the cohort
// view for the logged-in user's role, and per-collection loading flags. It is
// loaded once when the dashboard mounts and thereafter changed only by the
// mutation handlers; there is no background polling and no re-fetch after a
// mutation, with one deliberate exception (see below).
//
// # Optimistic updates
//
// "Optimistic" here means trusting the server's response as the new truth,
// not guessing before asking. Every mutation handler performs its server call
// first and applies the local transform only after the call resolves:
//
//	CreatePost     → prepend the returned post
//	DeletePost     → remove the post with the matching id
//	UpdatePost     → replace the post's fields AND overwrite its comments
//	                 with a fresh fetch (the only nested re-synchronization)
//	AddComment     → append the returned comment to its post
//	DeleteComment  → remove the matching comment from its post
//	UpdateComment  → replace the matching comment in place
//
// A rejected server call aborts the handler before any local change, so the
// view never shows state the server refused.
//
// # Consistency
//
// Transforms match by id against the state current at transform time, not a
// snapshot captured before the call, and they run atomically under the store
// lock. Affected slices are rebuilt copy-on-write; unaffected posts are
// carried over unchanged so their field values and comment-slice identity
// survive every mutation that doesn't name them.
//
// # Failure visibility
//
// Initial-load failures are logged and degrade to an empty collection with no
// user-visible error. Mutation failures return to the caller, who decides how
// to surface them.
package feed
