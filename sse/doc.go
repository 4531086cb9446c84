// Package sse streams topic events to HTTP clients as Server-Sent Events.
//
// A Hub fans published events out to the clients subscribed to a topic.
// Serve writes a replay of past events followed by live ones, dropping
// live events the replay already covered.
package sse
