// Package websocket pushes server events to dashboard browsers.
//
// A Hub fans out messages such as "dataset:reloaded" to every connected
// Client. Clients only receive; anything they send besides heartbeats is
// ignored. Handler upgrades HTTP requests and checks their origin.
package websocket
