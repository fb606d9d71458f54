// Package ws serves remote circuits over WebSocket.
//
// Protocol (JSON text frames):
//
//	client -> server
//	  {"type":"start","baseUri":"http://host/app/","location":"http://host/app/counter"}
//	  {"type":"start","circuitId":"circ_...","location":"..."}   resume after reconnect
//	  {"type":"location_changed","uri":"http://host/app/fetchdata"}
//	  {"type":"ping"}
//
//	server -> client
//	  {"type":"circuit","circuitId":"circ_..."}
//	  {"type":"invoke","identifier":"navigation.enableInterception","args":["ComponentHost","NotifyLocationChanged"]}
//	  {"type":"render","uri":"...","handler":"Counter"}
//	  {"type":"not_found","uri":"..."}
//	  {"type":"error","message":"..."}
//	  {"type":"pong"}
//
// Each connection is a navigation.Connection. Starting or resuming a
// circuit attaches the connection, which arms interception through an
// invoke frame; closing it detaches the connection and the circuit is kept
// for the retention period.
package ws
