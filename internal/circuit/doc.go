// Package circuit holds server-side application sessions for remote hosting.
//
// A Circuit pairs a Remote navigation interceptor with a routing
// Coordinator. Routing is initialized when the circuit is created, which
// requests interception before any browser is attached; the request is
// replayed through the circuit's attach hook each time a connection
// attaches, so a browser that reconnects and resumes the circuit is armed
// again. Circuits without a connection are swept after a retention period.
package circuit
