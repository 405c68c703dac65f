// Package session owns the client's authentication state.
//
// A single [Store] is created at startup with [Open], which restores a persisted token by fetching the
// profile it belongs to. After that the store only changes through [Store.Login], [Store.Logout] and auth
// failures reported back with [Store.HandleAuthFailure].
//
// The API client reads [Store.Token] on every request, so there is no second copy of the credential to keep
// in sync.
//
//	Booting ──▶ Anonymous ◀──▶ Authenticated
//	   └──────────────────────────▲
package session
