// Package repositories implements SQLite persistence for client-side state.
//
// The only state the client keeps is its credential. [CookieRepository] stores named values with an
// expiry, the way a browser cookie jar does, and doubles as a [session.TokenStore] whose token lapses
// after [DefaultCookieTTL].
//
// Expired rows read as absent and are removed on the read that finds them; [CookieRepository.PurgeExpired]
// sweeps the rest.
package repositories
