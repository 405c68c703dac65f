// Package server provides HTTP routing, middleware and the local watch page.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering, so path wildcards
// such as /clip/{id} are available through [http.Request.PathValue].
//
// # Watch Page
//
// [WatchHandler] renders a clip as a page embedding the YouTube player for the clip's range. The clip is
// fetched from the API on every request so like and comment counts stay current.
//
// `clipx clips watch` starts a [Server] on the configured host and port, opens the browser at the clip's
// page and shuts the server down when the command is interrupted.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
