// Package server provides HTTP routing, middleware and the handlers behind the feat session page.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation registers method patterns on an [http.ServeMux], so one path can
// carry a GET and a POST handler.
//
// # Session Page
//
// [App] issues a session cookie on GET / and resolves it on every other endpoint:
//
//	GET  /          new session, index page
//	POST /          multipart "file" upload (rate limited)
//	POST /run       start the analysis tool in the background
//	POST /killdata  cancel the tool and remove the workspace
//	GET  /events    Server-Sent Events stream for the session
//	GET  /sendFile  results.zip download
//	POST /encode    base64 of the request body, or a data URI with ?datauri=1
//	POST /csv       JSON rows to CSV
//
// Upload and run outcomes are reported as named events on the session's stream, not in the response body.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
