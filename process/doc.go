// Package process runs external tools (ffmpeg, whisper helpers) as
// subprocesses with captured output and context-driven shutdown: cancelling
// the context sends SIGTERM to the whole process group, then SIGKILL after a
// grace period.
package process
