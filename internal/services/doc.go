// Package services implements [Client], the HTTP client for the clip API.
//
// # Credentials
//
// The client never stores a token. It is built with a [TokenFunc] (normally the session's Token method) and
// its transport reads it on every request, setting "Authorization: Bearer <token>" when the request does not
// carry its own header. [Client.CurrentUser] sets the header itself, which is how a persisted token is
// checked before the session adopts it.
//
// Operations that need a login return [shared.ErrNotAuthenticated] without touching the network when no
// token is available.
//
// # Error Handling
//
// Responses are mapped to sentinel errors from the shared package:
//   - [shared.ErrUnauthorized] : 401 or 403, the credential was rejected
//   - [shared.ErrNotFound] : 404, the clip or user does not exist
//   - [shared.ErrAPIRequest] : any other non-2xx status, with the server's message
//   - [shared.ErrServiceUnavailable] : the request never completed
//   - [shared.ErrMalformedResponse] : a 2xx body that could not be decoded
package services
