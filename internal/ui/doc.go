// Package ui implements an interactive terminal feed browser using bubbletea's Elm architecture.
//
// The TUI has two views:
//  1. [FeedView] : Scroll the clip feed; the next page loads when the cursor reaches the last clip
//  2. [DetailView] : Read a clip with its comments
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Requests run as [tea.Cmd]s and report back with a [Msg], so the UI never blocks on the network.
//
// Liking a clip requires a session. An expired token reported by the API logs the session out.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, l, o, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
