// Package ui provides the terminal dashboard for the cohort client.
//
// # Architecture Overview
//
// The UI is built on Bubble Tea. A single root Model holds all view
// state; every server interaction runs as a tea.Cmd so the update loop
// never blocks on the network. Mutations go through feed.Store, which
// applies the server's response to local state before the refreshed
// snapshot reaches the view.
//
// # Package Structure
//
//   - app.go: Root model, message/command plumbing, global key handling
//   - feed.go: Post feed rendering, composer, and comment input
//   - profile.go: Profile card and edit form with permission-aware rows
//   - cohort.go: Cohort panel, branched by the viewer's role
//   - search.go: People search with numbered results
//   - theme.go: Color themes and Lipgloss style construction
//
// # View Types
//
// Four main views are available:
//
//   - Feed View: Posts newest-first with nested comments and a composer
//   - Cohort View: The student's own cohort roster, or all cohorts for teachers
//   - Profile View: Any user's profile; rows lock per the viewer's permissions
//   - Search View: Name search over users, results open profiles
//
// # Event Flow
//
//  1. Run() starts the Bubble Tea program
//  2. Init issues loadCmd, which runs feed.Store.Load and emits a snapshot
//  3. Key input triggers mutation commands; each emits the post-mutation snapshot
//  4. Errors surface on the footer status line, state stays as it was
//
// # Key Bindings
//
//   - f: Feed view
//   - o: Cohort view
//   - p: Own profile
//   - s: Search people
//   - n: New post; e: edit own post; d: delete own post; c: comment
//   - j/k: Move selection
//   - r: Reload from server
//   - T: Cycle theme
//   - q or Ctrl+C: Exit
package ui
