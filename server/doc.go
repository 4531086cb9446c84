// Package server is the HTTP control surface: a Gin engine served over h2c
// with recovery, request-ID, body-size and request-logging middleware, the
// /health and /version endpoints, and the transcription API backed by a
// workspace.Workspace.
//
// # Routes
//
//	POST   /api/transcriptions
//	GET    /api/transcriptions
//	GET    /api/transcriptions/:id
//	DELETE /api/transcriptions/:id
//	GET    /api/transcriptions/:id/segments
//	GET    /api/transcriptions/:id/events
//	POST   /api/transcriptions/:id/segments/:index/:action
//
// :action is play-reference, record, play-recording or stop.
package server
