// Package component defines the lifecycle contract shared by the long-lived
// parts of shadowkit: the HTTP server, the SSE hub, the workspace and the
// passive health checks for ffmpeg, the transcription adapter and the
// sound device.
//
// A Registry starts components in registration order, stops them in reverse
// and reports their health for the /health endpoint.
package component
