// Package workspace keeps the transcription runs of one process in memory:
// each run's handle, an ordered log of everything that happened to it, and
// the practice sessions opened on its segments. Every entry is also
// published to an sse.Publisher under the topic "run:<id>". Nothing
// survives a restart.
package workspace
