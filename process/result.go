package process

import (
	"strings"
	"time"
)

// Result holds the output and status of a completed subprocess.
type Result struct {
	// Stdout is the captured standard output.
	Stdout []byte
	// Stderr is the captured standard error.
	Stderr []byte
	// ExitCode is the process exit code. -1 if the process was killed.
	ExitCode int
	// Duration is how long the process ran.
	Duration time.Duration
}

// StderrTail returns the last n lines of stderr, trimmed. Tools like ffmpeg
// print the actual failure reason at the end.
func (r *Result) StderrTail(n int) string {
	if r == nil || len(r.Stderr) == 0 {
		return ""
	}
	lines := strings.Split(strings.TrimSpace(string(r.Stderr)), "\n")
	if n > 0 && len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
