// Package navigation arms browser link interception so that client-side
// navigations are reported back to the routing core instead of triggering
// a full page load.
//
// Two interceptors implement the same capability:
//
//   - Local: the application runs in an in-process JavaScript runtime; the
//     arm call is a synchronous interop invocation on that runtime.
//   - Remote: the application runs on the server and the browser is
//     attached over a persistent connection. Interception may be requested
//     before any connection exists, so the request is remembered and
//     replayed every time a connection attaches (including reconnects).
//
// Both issue the same interop call, EnableInterceptionIdentifier, passing
// the assembly and method that receive location-changed notifications.
package navigation
